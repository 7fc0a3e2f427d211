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
	"encoding/binary"
	"fmt"

	"github.com/consensys/go-zkvm/pkg/util/field"
)

// Instruction provides an abstract notion of a "machine instruction".  That
// is, a single atomic unit which can be executed by the machine.  The set of
// instructions is closed: every implementation lives in this package, and
// consumers exhaustively switch over the concrete types below.
type Instruction interface {
	// Opcode returns the tag of this instruction.
	Opcode() Opcode
	// Immediate returns the immediate operand of this instruction as a field
	// element, or zero if it has none.
	Immediate() field.Element
	// Encode appends the binary form of this instruction to a given buffer.
	Encode(buf []byte) []byte
	// Provide human readable form of instruction
	String() string
	// prevent implementations outside this package
	sealed()
}

// Push pushes a constant field element onto the stack.
type Push struct {
	Value field.Element
}

// Add pops two elements and pushes their sum.
type Add struct{}

// Mul pops two elements and pushes their product.
type Mul struct{}

// Store pops one element and writes it to memory at a given address.
type Store struct {
	Address uint32
}

// Load reads memory at a given address and pushes the result.
type Load struct {
	Address uint32
}

// Jump transfers control unconditionally.
type Jump struct {
	Target uint32
}

// JumpI pops a condition and transfers control if it is nonzero.
type JumpI struct {
	Target uint32
}

// Eq pops two elements and pushes 1 if they are equal, or 0 otherwise.
type Eq struct{}

// Lt pops b then a, pushing 1 if a < b (as canonical integers) or 0
// otherwise.
type Lt struct{}

// Gt pops b then a, pushing 1 if a > b (as canonical integers) or 0
// otherwise.
type Gt struct{}

// Stop halts the machine.
type Stop struct{}

// Opcode implementation for the Instruction interface.
func (p *Push) Opcode() Opcode { return PUSH }

// Opcode implementation for the Instruction interface.
func (p *Add) Opcode() Opcode { return ADD }

// Opcode implementation for the Instruction interface.
func (p *Mul) Opcode() Opcode { return MUL }

// Opcode implementation for the Instruction interface.
func (p *Store) Opcode() Opcode { return STORE }

// Opcode implementation for the Instruction interface.
func (p *Load) Opcode() Opcode { return LOAD }

// Opcode implementation for the Instruction interface.
func (p *Jump) Opcode() Opcode { return JUMP }

// Opcode implementation for the Instruction interface.
func (p *JumpI) Opcode() Opcode { return JUMPI }

// Opcode implementation for the Instruction interface.
func (p *Eq) Opcode() Opcode { return EQ }

// Opcode implementation for the Instruction interface.
func (p *Lt) Opcode() Opcode { return LT }

// Opcode implementation for the Instruction interface.
func (p *Gt) Opcode() Opcode { return GT }

// Opcode implementation for the Instruction interface.
func (p *Stop) Opcode() Opcode { return STOP }

// Immediate implementation for the Instruction interface.
func (p *Push) Immediate() field.Element { return p.Value }

// Immediate implementation for the Instruction interface.
func (p *Add) Immediate() field.Element { return field.Zero() }

// Immediate implementation for the Instruction interface.
func (p *Mul) Immediate() field.Element { return field.Zero() }

// Immediate implementation for the Instruction interface.
func (p *Store) Immediate() field.Element { return field.Uint64(uint64(p.Address)) }

// Immediate implementation for the Instruction interface.
func (p *Load) Immediate() field.Element { return field.Uint64(uint64(p.Address)) }

// Immediate implementation for the Instruction interface.
func (p *Jump) Immediate() field.Element { return field.Uint64(uint64(p.Target)) }

// Immediate implementation for the Instruction interface.
func (p *JumpI) Immediate() field.Element { return field.Uint64(uint64(p.Target)) }

// Immediate implementation for the Instruction interface.
func (p *Eq) Immediate() field.Element { return field.Zero() }

// Immediate implementation for the Instruction interface.
func (p *Lt) Immediate() field.Element { return field.Zero() }

// Immediate implementation for the Instruction interface.
func (p *Gt) Immediate() field.Element { return field.Zero() }

// Immediate implementation for the Instruction interface.
func (p *Stop) Immediate() field.Element { return field.Zero() }

// Encode implementation for the Instruction interface.
func (p *Push) Encode(buf []byte) []byte {
	bytes := p.Value.Bytes()
	//
	return append(append(buf, byte(PUSH)), bytes[:]...)
}

// Encode implementation for the Instruction interface.
func (p *Add) Encode(buf []byte) []byte { return append(buf, byte(ADD)) }

// Encode implementation for the Instruction interface.
func (p *Mul) Encode(buf []byte) []byte { return append(buf, byte(MUL)) }

// Encode implementation for the Instruction interface.
func (p *Store) Encode(buf []byte) []byte { return encodeAddress(buf, STORE, p.Address) }

// Encode implementation for the Instruction interface.
func (p *Load) Encode(buf []byte) []byte { return encodeAddress(buf, LOAD, p.Address) }

// Encode implementation for the Instruction interface.
func (p *Jump) Encode(buf []byte) []byte { return encodeAddress(buf, JUMP, p.Target) }

// Encode implementation for the Instruction interface.
func (p *JumpI) Encode(buf []byte) []byte { return encodeAddress(buf, JUMPI, p.Target) }

// Encode implementation for the Instruction interface.
func (p *Eq) Encode(buf []byte) []byte { return append(buf, byte(EQ)) }

// Encode implementation for the Instruction interface.
func (p *Lt) Encode(buf []byte) []byte { return append(buf, byte(LT)) }

// Encode implementation for the Instruction interface.
func (p *Gt) Encode(buf []byte) []byte { return append(buf, byte(GT)) }

// Encode implementation for the Instruction interface.
func (p *Stop) Encode(buf []byte) []byte { return append(buf, byte(STOP)) }

func (p *Push) String() string  { return fmt.Sprintf("PUSH 0x%s", p.Value.Text(16)) }
func (p *Add) String() string   { return "ADD" }
func (p *Mul) String() string   { return "MUL" }
func (p *Store) String() string { return fmt.Sprintf("STORE %d", p.Address) }
func (p *Load) String() string  { return fmt.Sprintf("LOAD %d", p.Address) }
func (p *Jump) String() string  { return fmt.Sprintf("JUMP %d", p.Target) }
func (p *JumpI) String() string { return fmt.Sprintf("JUMPI %d", p.Target) }
func (p *Eq) String() string    { return "EQ" }
func (p *Lt) String() string    { return "LT" }
func (p *Gt) String() string    { return "GT" }
func (p *Stop) String() string  { return "STOP" }

func (p *Push) sealed()  {}
func (p *Add) sealed()   {}
func (p *Mul) sealed()   {}
func (p *Store) sealed() {}
func (p *Load) sealed()  {}
func (p *Jump) sealed()  {}
func (p *JumpI) sealed() {}
func (p *Eq) sealed()    {}
func (p *Lt) sealed()    {}
func (p *Gt) sealed()    {}
func (p *Stop) sealed()  {}

// Encode a sequence of instructions into bytecode.
func Encode(insns ...Instruction) []byte {
	var buf []byte
	//
	for _, insn := range insns {
		buf = insn.Encode(buf)
	}
	//
	return buf
}

func encodeAddress(buf []byte, op Opcode, address uint32) []byte {
	return binary.BigEndian.AppendUint32(append(buf, byte(op)), address)
}
