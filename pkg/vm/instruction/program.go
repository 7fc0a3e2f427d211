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
package instruction

import (
	"fmt"
	"slices"
	"strings"
)

// Program is an immutable, fully decoded sequence of bytes.  Every byte offset
// either starts exactly one instruction, or lies within the immediate of
// another (and is therefore unreachable).
type Program struct {
	bytes []byte
	// Decoded instructions in program order.
	insns []Instruction
	// Byte offset of each instruction.
	offsets []uint
	// Maps each instruction boundary to its index.
	index map[uint]uint
}

// DecodeAll decodes an entire program eagerly, failing on the first malformed
// instruction.  The program bytes are copied, hence the caller is free to
// reuse its buffer.
func DecodeAll(bytes []byte) (*Program, error) {
	if len(bytes) == 0 {
		return nil, &DecodeError{Kind: EmptyProgram}
	}
	//
	var (
		program = &Program{bytes: slices.Clone(bytes), index: make(map[uint]uint)}
		offset  uint
	)
	//
	for offset < uint(len(bytes)) {
		insn, err := Decode(program.bytes, offset)
		// Check for failure
		if err != nil {
			return nil, err
		}
		//
		program.index[offset] = uint(len(program.insns))
		program.insns = append(program.insns, insn)
		program.offsets = append(program.offsets, offset)
		offset += insn.Opcode().Len()
	}
	//
	return program, nil
}

// Bytes returns a copy of the underlying bytecode.
func (p *Program) Bytes() []byte {
	return slices.Clone(p.bytes)
}

// Size returns the number of bytes in this program.
func (p *Program) Size() uint {
	return uint(len(p.bytes))
}

// Len returns the number of instructions in this program.
func (p *Program) Len() uint {
	return uint(len(p.insns))
}

// Instruction returns the ith instruction of this program.
func (p *Program) Instruction(i uint) Instruction {
	return p.insns[i]
}

// Offset returns the byte offset of the ith instruction of this program.
func (p *Program) Offset(i uint) uint {
	return p.offsets[i]
}

// At returns the instruction starting at a given byte offset, or false if the
// offset is not an instruction boundary.
func (p *Program) At(pc uint) (Instruction, bool) {
	if i, ok := p.index[pc]; ok {
		return p.insns[i], true
	}
	//
	return nil, false
}

// IsBoundary checks whether a given byte offset starts an instruction.
func (p *Program) IsBoundary(pc uint) bool {
	_, ok := p.index[pc]
	return ok
}

// Disassemble returns a human readable listing of this program, one
// instruction per line followed by its offset in a comment.  The listing is
// itself valid assembly.
func (p *Program) Disassemble() string {
	var builder strings.Builder
	//
	for i, insn := range p.insns {
		builder.WriteString(fmt.Sprintf("%-74s ; %04x\n", insn.String(), p.offsets[i]))
	}
	//
	return builder.String()
}
