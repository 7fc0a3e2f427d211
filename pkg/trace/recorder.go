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
package trace

import (
	"maps"
	"slices"

	"github.com/consensys/go-zkvm/pkg/util/field"
)

// Recorder accumulates steps as a machine executes.  A recorder only ever
// observes execution and never influences it.
type Recorder struct {
	steps []Step
}

// NewRecorder constructs an empty recorder with a given initial capacity.
func NewRecorder(capacity uint) *Recorder {
	return &Recorder{make([]Step, 0, capacity)}
}

// Append a step onto the end of this recorder.  Steps must be appended in
// execution order.
func (p *Recorder) Append(step Step) {
	if step.Index != uint(len(p.steps)) {
		panic("trace steps recorded out of order")
	}
	//
	p.steps = append(p.steps, step)
}

// Len returns the number of steps recorded so far.
func (p *Recorder) Len() uint {
	return uint(len(p.steps))
}

// Steps returns the steps recorded so far.
func (p *Recorder) Steps() []Step {
	return slices.Clone(p.steps)
}

// Finish produces a trace from the steps recorded so far, along with the
// given inputs and outputs of the run.
func (p *Recorder) Finish(program []byte, initial map[uint32]field.Element, stack []field.Element,
	memory map[uint32]field.Element, gas uint64) *Trace {
	//
	return &Trace{
		Program:   slices.Clone(program),
		Initial:   nonzero(initial),
		Steps:     p.Steps(),
		Stack:     slices.Clone(stack),
		Memory:    nonzero(memory),
		GasUsed:   gas,
		StateRoot: StateRoot(memory),
	}
}

func nonzero(memory map[uint32]field.Element) map[uint32]field.Element {
	var result = maps.Clone(memory)
	//
	if result == nil {
		return make(map[uint32]field.Element)
	}
	//
	maps.DeleteFunc(result, func(_ uint32, v field.Element) bool {
		return v.IsZero()
	})
	//
	return result
}
