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
package machine

import (
	"github.com/consensys/go-zkvm/pkg/trace"
	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
)

// Core represents an executing machine which can be advanced in chunks.
type Core interface {
	// Execute the machine for the given number of steps, returning the actual
	// number of steps executed and an error (if execution failed).
	Execute(steps uint) (uint, error)
}

// ExecuteAll executes a given machine to completion in chunks of n steps,
// returning the number of steps executed and/or any error arising.
func ExecuteAll[M Core](machine M, n uint) (uint, error) {
	var nsteps uint
	//
	for {
		// Execute upto n steps
		m, err := machine.Execute(n)
		// update the tally
		nsteps += m
		// check for termination
		if err != nil || m < n {
			return nsteps, err
		}
	}
}

// Machine executes a single program from a given initial memory, recording
// every step as it goes.
type Machine struct {
	program  *instruction.Program
	config   Config
	initial  map[uint32]field.Element
	state    State
	recorder *trace.Recorder
	fault    error
}

// New constructs a machine ready to execute a given (decoded) program.
func New(program *instruction.Program, initial map[uint32]field.Element, config Config) (*Machine, error) {
	state, err := Initial(config, initial)
	//
	if err != nil {
		return nil, err
	}
	//
	return &Machine{program, config, initial, state, trace.NewRecorder(program.Len()), nil}, nil
}

// Execute implementation for the Core interface.  Execution stops early when
// the machine halts or faults.
func (p *Machine) Execute(steps uint) (uint, error) {
	var nsteps uint
	//
	if p.fault != nil {
		return 0, p.fault
	}
	//
	for nsteps < steps && p.state.Status == Running {
		next, step, err := Step(p.program, p.config, p.state)
		//
		if err != nil {
			p.state.Status = Faulted
			p.fault = err
			//
			return nsteps, err
		}
		//
		p.recorder.Append(step)
		p.state = next
		nsteps++
	}
	//
	return nsteps, nil
}

// State returns the current state of this machine.
func (p *Machine) State() State {
	return p.state
}

// Fault returns the fault which terminated this machine (if any).
func (p *Machine) Fault() error {
	return p.fault
}

// Trace returns the trace recorded so far.  For a faulted machine this covers
// every step up to (but excluding) the faulting instruction.
func (p *Machine) Trace() *trace.Trace {
	return p.recorder.Finish(p.program.Bytes(), p.initial, p.state.Stack.Contents(),
		p.state.Memory.Contents(), p.state.Gas)
}

// Run executes a given program to completion, returning its trace.  If the
// run faults then the partial trace is returned alongside the fault.
func Run(program *instruction.Program, initial map[uint32]field.Element, config Config) (*trace.Trace, error) {
	m, err := New(program, initial, config)
	//
	if err != nil {
		return nil, err
	}
	//
	_, err = ExecuteAll(m, 1024)
	//
	return m.Trace(), err
}
