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

import "fmt"

// Opcode is the one-byte tag identifying an instruction.
type Opcode uint8

// The (closed) set of opcodes understood by the machine.
const (
	PUSH  Opcode = 0x01
	ADD   Opcode = 0x02
	MUL   Opcode = 0x03
	STORE Opcode = 0x04
	LOAD  Opcode = 0x05
	JUMP  Opcode = 0x06
	JUMPI Opcode = 0x07
	EQ    Opcode = 0x08
	LT    Opcode = 0x09
	GT    Opcode = 0x0A
	STOP  Opcode = 0xFF
)

// Widths (in bytes) of the immediate operands.
const (
	// ElementWidth is the width of a PUSH immediate (a big endian field
	// element).
	ElementWidth = 32
	// AddressWidth is the width of a STORE, LOAD, JUMP or JUMPI immediate (a
	// big endian 32bit unsigned integer).
	AddressWidth = 4
)

// Opcodes lists every valid opcode, in table order.
var Opcodes = []Opcode{PUSH, ADD, MUL, STORE, LOAD, JUMP, JUMPI, EQ, LT, GT, STOP}

var mnemonics = map[Opcode]string{
	PUSH:  "PUSH",
	ADD:   "ADD",
	MUL:   "MUL",
	STORE: "STORE",
	LOAD:  "LOAD",
	JUMP:  "JUMP",
	JUMPI: "JUMPI",
	EQ:    "EQ",
	LT:    "LT",
	GT:    "GT",
	STOP:  "STOP",
}

// Valid determines whether this byte corresponds to an entry in the opcode
// table.
func (p Opcode) Valid() bool {
	_, ok := mnemonics[p]
	return ok
}

// ImmediateWidth returns the number of immediate bytes following the opcode.
func (p Opcode) ImmediateWidth() uint {
	switch p {
	case PUSH:
		return ElementWidth
	case STORE, LOAD, JUMP, JUMPI:
		return AddressWidth
	default:
		return 0
	}
}

// Len returns the total encoded length of an instruction with this opcode.
func (p Opcode) Len() uint {
	return 1 + p.ImmediateWidth()
}

// Pops returns the number of stack items consumed.
func (p Opcode) Pops() uint {
	switch p {
	case ADD, MUL, EQ, LT, GT:
		return 2
	case STORE, JUMPI:
		return 1
	default:
		return 0
	}
}

// Pushes returns the number of stack items produced.
func (p Opcode) Pushes() uint {
	switch p {
	case PUSH, LOAD, ADD, MUL, EQ, LT, GT:
		return 1
	default:
		return 0
	}
}

// Mnemonic returns the assembly name of this opcode.
func (p Opcode) Mnemonic() (string, bool) {
	name, ok := mnemonics[p]
	return name, ok
}

func (p Opcode) String() string {
	if name, ok := mnemonics[p]; ok {
		return name
	}
	//
	return fmt.Sprintf("INVALID(0x%02x)", uint8(p))
}

// LookupMnemonic finds the opcode with a given (upper case) mnemonic.
func LookupMnemonic(name string) (Opcode, bool) {
	for op, n := range mnemonics {
		if n == name {
			return op, true
		}
	}
	//
	return 0, false
}
