// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package memory

import (
	"errors"

	"github.com/consensys/go-zkvm/pkg/util/field"
)

var (
	// ErrStackOverflow is returned when pushing onto a full stack.
	ErrStackOverflow = errors.New("stack overflow")
	// ErrStackUnderflow is returned when popping from an empty stack.
	ErrStackUnderflow = errors.New("stack underflow")
)

// Stack represents a bounded LIFO stack of field elements.  Stacks are
// persistent values: Push and Pop return a new stack and leave the receiver
// untouched, so earlier machine states remain valid snapshots.
type Stack struct {
	top   *cell
	limit uint
}

type cell struct {
	value field.Element
	next  *cell
	depth uint
}

// NewStack returns an empty stack holding at most limit items.
func NewStack(limit uint) Stack {
	return Stack{nil, limit}
}

// IsEmpty checks whether or not there are still items on the stack
func (p Stack) IsEmpty() bool {
	return p.top == nil
}

// Len returns the number of items on the stack.
func (p Stack) Len() uint {
	if p.top == nil {
		return 0
	}
	//
	return p.top.depth
}

// Limit returns the maximum number of items this stack can hold.
func (p Stack) Limit() uint {
	return p.limit
}

// Peek at nth item from top of stack.
func (p Stack) Peek(offset uint) (field.Element, error) {
	var c = p.top
	//
	for ; c != nil && offset > 0; offset-- {
		c = c.next
	}
	//
	if c == nil {
		return field.Zero(), ErrStackUnderflow
	}
	//
	return c.value, nil
}

// Push a new item onto the stack
func (p Stack) Push(item field.Element) (Stack, error) {
	if p.Len() >= p.limit {
		return p, ErrStackOverflow
	}
	//
	return Stack{&cell{item, p.top, p.Len() + 1}, p.limit}, nil
}

// Pop the top item off the stack
func (p Stack) Pop() (field.Element, Stack, error) {
	if p.top == nil {
		return field.Zero(), p, ErrStackUnderflow
	}
	//
	return p.top.value, Stack{p.top.next, p.limit}, nil
}

// Contents returns the items on the stack ordered from bottom to top.
func (p Stack) Contents() []field.Element {
	var (
		items = make([]field.Element, p.Len())
		i     = len(items) - 1
	)
	//
	for c := p.top; c != nil; c = c.next {
		items[i] = c.value
		i--
	}
	//
	return items
}
