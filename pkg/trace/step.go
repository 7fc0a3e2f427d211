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
	"fmt"
	"strings"

	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
)

// Access records a single memory access performed by a step.
type Access struct {
	// Address accessed
	Address uint32
	// Value held before the access
	Old field.Element
	// Value held after the access (same as Old for reads)
	New field.Element
	// Write indicates whether this access modified memory
	Write bool
}

// Step is an immutable record of one machine state transition.  It captures
// everything needed to rebuild the corresponding row of the constraint system
// without re-running the program.
type Step struct {
	// Index of this step within the trace
	Index uint
	// Program counter before the step
	PC uint
	// Instruction executed
	Instruction instruction.Instruction
	// Stack depth before the step
	Depth uint
	// Values popped from the stack, top first.
	Popped []field.Element
	// Values pushed onto the stack.
	Pushed []field.Element
	// Memory access (if any)
	Memory *Access
	// Program counter after the step
	NextPC uint
	// Gas charged for this step
	Gas uint64
}

// Opcode returns the opcode executed by this step.
func (p *Step) Opcode() instruction.Opcode {
	return p.Instruction.Opcode()
}

// DepthAfter returns the stack depth after this step.
func (p *Step) DepthAfter() uint {
	return p.Depth - uint(len(p.Popped)) + uint(len(p.Pushed))
}

func (p *Step) String() string {
	var builder strings.Builder
	//
	builder.WriteString(fmt.Sprintf("#%d [%04x] %s", p.Index, p.PC, p.Instruction.String()))
	//
	if len(p.Popped) > 0 {
		builder.WriteString(" pop=")
		builder.WriteString(elementsToString(p.Popped))
	}
	//
	if len(p.Pushed) > 0 {
		builder.WriteString(" push=")
		builder.WriteString(elementsToString(p.Pushed))
	}
	//
	if p.Memory != nil {
		builder.WriteString(fmt.Sprintf(" mem[%d]=0x%s", p.Memory.Address, p.Memory.New.Text(16)))
	}
	//
	return builder.String()
}

func elementsToString(elements []field.Element) string {
	var builder strings.Builder
	//
	builder.WriteString("[")
	//
	for i, e := range elements {
		if i != 0 {
			builder.WriteString(",")
		}
		//
		builder.WriteString("0x")
		builder.WriteString(e.Text(16))
	}
	//
	builder.WriteString("]")
	//
	return builder.String()
}
