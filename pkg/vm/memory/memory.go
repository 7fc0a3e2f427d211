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
	"maps"
	"slices"

	"github.com/consensys/go-zkvm/pkg/util/field"
)

// ErrAddressOutOfRange is returned when accessing an address beyond the
// configured address space.
var ErrAddressOutOfRange = errors.New("address out of range")

// maxOverlay determines how many writes are layered on top of a base map
// before they are flattened into a fresh one.
const maxOverlay = 32

// Memory represents (in many ways) the simplest form of memory which can be
// read or written without restrictions.  Initially, all locations can be
// considered to hold zero.  Thus, reading a location which has not yet been
// written will return zero; otherwise, it will return the last value written.
//
// Memories are persistent values: Write returns a new memory and never
// mutates the receiver.  This is implemented by a short chain of single-word
// overlays on top of an immutable base map.
type Memory struct {
	base    map[uint32]field.Element
	overlay *write
	limit   uint64
}

type write struct {
	address uint32
	value   field.Element
	next    *write
	length  uint
}

// NewMemory constructs a memory with a given address limit and initial
// contents.  The initial map is copied.
func NewMemory(limit uint64, initial map[uint32]field.Element) (Memory, error) {
	var base = make(map[uint32]field.Element, len(initial))
	//
	for addr, value := range initial {
		if uint64(addr) >= limit {
			return Memory{}, ErrAddressOutOfRange
		} else if !value.IsZero() {
			base[addr] = value
		}
	}
	//
	return Memory{base, nil, limit}, nil
}

// Limit returns the (exclusive) upper bound on addresses.
func (p Memory) Limit() uint64 {
	return p.limit
}

// Read a given address.  Unwritten addresses hold zero.
func (p Memory) Read(address uint32) (field.Element, error) {
	if uint64(address) >= p.limit {
		return field.Zero(), ErrAddressOutOfRange
	}
	//
	for w := p.overlay; w != nil; w = w.next {
		if w.address == address {
			return w.value, nil
		}
	}
	//
	return p.base[address], nil
}

// Write a given value to a given address, returning the updated memory.
func (p Memory) Write(address uint32, value field.Element) (Memory, error) {
	if uint64(address) >= p.limit {
		return p, ErrAddressOutOfRange
	}
	//
	var length uint = 1
	//
	if p.overlay != nil {
		length = p.overlay.length + 1
	}
	//
	next := Memory{p.base, &write{address, value, p.overlay, length}, p.limit}
	//
	if length >= maxOverlay {
		return Memory{next.Contents(), nil, p.limit}, nil
	}
	//
	return next, nil
}

// Contents returns a snapshot of all nonzero locations.
func (p Memory) Contents() map[uint32]field.Element {
	var (
		contents = maps.Clone(p.base)
		writes   []*write
	)
	//
	if contents == nil {
		contents = make(map[uint32]field.Element)
	}
	// Replay writes oldest first
	for w := p.overlay; w != nil; w = w.next {
		writes = append(writes, w)
	}
	//
	for _, w := range slices.Backward(writes) {
		if w.value.IsZero() {
			delete(contents, w.address)
		} else {
			contents[w.address] = w.value
		}
	}
	//
	return contents
}

// Addresses returns the nonzero addresses of this memory in ascending order.
func (p Memory) Addresses() []uint32 {
	return slices.Sorted(maps.Keys(p.Contents()))
}
