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

import "fmt"

// FaultKind identifies the reason a run terminated abnormally.
type FaultKind uint8

const (
	// StackUnderflow arises when popping from an empty stack.
	StackUnderflow FaultKind = iota
	// StackOverflow arises when pushing onto a full stack.
	StackOverflow
	// InvalidJumpTarget arises when a (taken) jump lands somewhere other than
	// an instruction boundary.
	InvalidJumpTarget
	// StepLimitExceeded arises when a run would execute more than the
	// configured number of steps.
	StepLimitExceeded
	// ProgramOverrun arises when execution falls off the end of the program.
	ProgramOverrun
	// AddressOutOfRange arises when accessing memory beyond the configured
	// limit.
	AddressOutOfRange
	// OutOfGas arises when a step would exceed the configured gas limit.
	OutOfGas
)

func (p FaultKind) String() string {
	switch p {
	case StackUnderflow:
		return "stack underflow"
	case StackOverflow:
		return "stack overflow"
	case InvalidJumpTarget:
		return "invalid jump target"
	case StepLimitExceeded:
		return "step limit exceeded"
	case ProgramOverrun:
		return "program overrun"
	case AddressOutOfRange:
		return "address out of range"
	case OutOfGas:
		return "out of gas"
	default:
		return fmt.Sprintf("fault(%d)", uint8(p))
	}
}

// Fault is a terminal error for a run.  It identifies the step at which
// execution failed, and the program counter of the offending instruction.
type Fault struct {
	Kind FaultKind
	// Index of the step which failed (equivalently, the number of steps
	// successfully executed beforehand).
	Step uint
	// Program counter at the point of failure.
	PC uint
}

func (p *Fault) Error() string {
	return fmt.Sprintf("%s at step %d (pc 0x%04x)", p.Kind.String(), p.Step, p.PC)
}

// Is allows errors.Is to match faults by kind.
func (p *Fault) Is(target error) bool {
	if f, ok := target.(*Fault); ok {
		return f.Kind == p.Kind
	}
	//
	return false
}
