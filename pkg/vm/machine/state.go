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
	"errors"

	"github.com/consensys/go-zkvm/pkg/trace"
	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
	"github.com/consensys/go-zkvm/pkg/vm/memory"
)

// ErrTerminated is returned when attempting to step a machine which has
// already halted or faulted.
var ErrTerminated = errors.New("machine has terminated")

var errInvalidJump = errors.New("invalid jump target")

// Status of an executing machine.
type Status uint8

const (
	// Running indicates the machine can take further steps.
	Running Status = iota
	// Halted indicates the machine executed STOP.
	Halted
	// Faulted indicates the machine terminated abnormally.
	Faulted
)

func (p Status) String() string {
	switch p {
	case Running:
		return "running"
	case Halted:
		return "halted"
	default:
		return "faulted"
	}
}

// State is a snapshot of an executing machine.  States are values: stepping
// a state produces a new state and never modifies the original.
type State struct {
	// Program counter (byte offset of next instruction)
	PC uint
	// Operand stack
	Stack memory.Stack
	// Random access memory
	Memory memory.Memory
	// Execution status
	Status Status
	// Number of steps executed so far
	Steps uint
	// Gas consumed so far
	Gas uint64
}

// Initial constructs the initial state for a run, with an empty stack and
// memory holding the given initial contents.
func Initial(config Config, initial map[uint32]field.Element) (State, error) {
	mem, err := memory.NewMemory(config.MemoryLimit, initial)
	//
	if err != nil {
		return State{}, &Fault{AddressOutOfRange, 0, 0}
	}
	//
	return State{0, memory.NewStack(config.MaxStack), mem, Running, 0, 0}, nil
}

// Step executes exactly one instruction of a given program on a given state.
// This returns either the resulting state and a record of the transition, or
// a fault.  When a fault arises no transition is recorded, and the given state
// is returned unchanged.
func Step(program *instruction.Program, config Config, state State) (State, trace.Step, error) {
	var (
		next = state
		step = trace.Step{Index: state.Steps, PC: state.PC, Depth: state.Stack.Len()}
		err  error
	)
	// Sanity checks
	if state.Status != Running {
		return state, trace.Step{}, ErrTerminated
	} else if state.Steps >= config.MaxSteps {
		return state, trace.Step{}, state.fault(StepLimitExceeded)
	}
	// Fetch
	insn, ok := program.At(state.PC)
	//
	if !ok {
		return state, trace.Step{}, state.fault(ProgramOverrun)
	}
	// Charge gas before any effect
	gas := GasCost(insn.Opcode())
	//
	if config.GasLimit != 0 && state.Gas+gas > config.GasLimit {
		return state, trace.Step{}, state.fault(OutOfGas)
	}
	//
	step.Instruction = insn
	step.Gas = gas
	next.Gas += gas
	next.PC = state.PC + insn.Opcode().Len()
	// Apply effect
	switch insn := insn.(type) {
	case *instruction.Push:
		err = next.push(&step, insn.Value)
	case *instruction.Add:
		err = next.binary(&step, func(a, b field.Element) field.Element {
			return *a.Add(&a, &b)
		})
	case *instruction.Mul:
		err = next.binary(&step, func(a, b field.Element) field.Element {
			return *a.Mul(&a, &b)
		})
	case *instruction.Store:
		var value field.Element
		//
		if value, err = next.pop(&step); err == nil {
			err = next.store(&step, insn.Address, value)
		}
	case *instruction.Load:
		err = next.load(&step, insn.Address)
	case *instruction.Jump:
		err = next.jump(program, insn.Target)
	case *instruction.JumpI:
		var cond field.Element
		//
		if cond, err = next.pop(&step); err == nil && !cond.IsZero() {
			err = next.jump(program, insn.Target)
		}
	case *instruction.Eq:
		err = next.binary(&step, func(a, b field.Element) field.Element {
			return boolean(a.Equal(&b))
		})
	case *instruction.Lt:
		err = next.binary(&step, func(a, b field.Element) field.Element {
			return boolean(a.Cmp(&b) < 0)
		})
	case *instruction.Gt:
		err = next.binary(&step, func(a, b field.Element) field.Element {
			return boolean(a.Cmp(&b) > 0)
		})
	case *instruction.Stop:
		next.Status = Halted
	}
	//
	if err != nil {
		return state, trace.Step{}, state.fault(faultOf(err))
	}
	//
	step.NextPC = next.PC
	next.Steps++
	//
	return next, step, nil
}

func (p *State) push(step *trace.Step, value field.Element) error {
	stack, err := p.Stack.Push(value)
	//
	if err == nil {
		p.Stack = stack
		step.Pushed = append(step.Pushed, value)
	}
	//
	return err
}

func (p *State) pop(step *trace.Step) (field.Element, error) {
	value, stack, err := p.Stack.Pop()
	//
	if err == nil {
		p.Stack = stack
		step.Popped = append(step.Popped, value)
	}
	//
	return value, err
}

// Pop b (the top) then a, before pushing fn(a,b).
func (p *State) binary(step *trace.Step, fn func(a, b field.Element) field.Element) error {
	if p.Stack.Len() < 2 {
		return memory.ErrStackUnderflow
	}
	//
	b, _ := p.pop(step)
	a, _ := p.pop(step)
	//
	return p.push(step, fn(a, b))
}

func (p *State) store(step *trace.Step, address uint32, value field.Element) error {
	old, err := p.Memory.Read(address)
	//
	if err != nil {
		return err
	} else if p.Memory, err = p.Memory.Write(address, value); err != nil {
		return err
	}
	//
	step.Memory = &trace.Access{Address: address, Old: old, New: value, Write: true}
	//
	return nil
}

func (p *State) load(step *trace.Step, address uint32) error {
	value, err := p.Memory.Read(address)
	//
	if err != nil {
		return err
	} else if err = p.push(step, value); err != nil {
		return err
	}
	//
	step.Memory = &trace.Access{Address: address, Old: value, New: value, Write: false}
	//
	return nil
}

func (p *State) jump(program *instruction.Program, target uint32) error {
	if !program.IsBoundary(uint(target)) {
		return errInvalidJump
	}
	//
	p.PC = uint(target)
	//
	return nil
}

func (p *State) fault(kind FaultKind) *Fault {
	return &Fault{kind, p.Steps, p.PC}
}

func faultOf(err error) FaultKind {
	switch {
	case errors.Is(err, memory.ErrStackUnderflow):
		return StackUnderflow
	case errors.Is(err, memory.ErrStackOverflow):
		return StackOverflow
	case errors.Is(err, memory.ErrAddressOutOfRange):
		return AddressOutOfRange
	default:
		return InvalidJumpTarget
	}
}

func boolean(b bool) field.Element {
	if b {
		return field.One()
	}
	//
	return field.Zero()
}
