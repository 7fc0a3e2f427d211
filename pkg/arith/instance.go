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
package arith

import (
	"errors"
	"fmt"
	"math/bits"
	"slices"

	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
)

// MinRows is the smallest domain size supported.
const MinRows = 16

// ErrInvalidDomain is returned for a domain size which is not a power of two,
// or which lies outside the supported range.
var ErrInvalidDomain = errors.New("invalid domain size")

// Instance captures the public part of a constraint system for a single run:
// the domain size, the program (as a lookup table) and the public inputs.
type Instance struct {
	// Number of rows in every column (a power of two).
	N uint
	// Program bytecode.
	Program []byte
	// Program table (one row per instruction).
	TablePC, TableOp, TableImm []field.Element
	// Public inputs (the final stack, bottom to top).
	Public []field.Element
}

// NewInstance constructs an instance for a given domain size, program and set
// of public inputs.  The program must decode correctly, and must fit within
// the domain.
func NewInstance(n uint, program []byte, public []field.Element) (*Instance, error) {
	if !ValidDomain(n, n) {
		return nil, fmt.Errorf("%w (%d)", ErrInvalidDomain, n)
	}
	//
	decoded, err := instruction.DecodeAll(program)
	//
	if err != nil {
		return nil, err
	} else if decoded.Len() > n {
		return nil, fmt.Errorf("%w (program of %d instructions exceeds %d rows)", ErrInvalidDomain, decoded.Len(), n)
	} else if uint(len(public)) >= 1<<SPBits {
		return nil, fmt.Errorf("too many public inputs (%d)", len(public))
	}
	//
	inst := &Instance{N: n, Program: slices.Clone(program), Public: slices.Clone(public)}
	//
	for i := range decoded.Len() {
		insn := decoded.Instruction(i)
		inst.TablePC = append(inst.TablePC, field.Uint64(uint64(decoded.Offset(i))))
		inst.TableOp = append(inst.TableOp, field.Uint64(uint64(insn.Opcode())))
		inst.TableImm = append(inst.TableImm, insn.Immediate())
	}
	//
	return inst, nil
}

// Table returns the program table padded to the domain size.  Padding rows
// duplicate the first instruction, and carry a zero multiplicity.
func (p *Instance) Table() (pc, op, imm []field.Element) {
	return padTable(p.TablePC, p.N), padTable(p.TableOp, p.N), padTable(p.TableImm, p.N)
}

// Ops returns the number of instructions in the program table.
func (p *Instance) Ops() uint {
	return uint(len(p.TablePC))
}

// ValidDomain checks whether n is a power of two within [MinRows, maxRows].
func ValidDomain(n uint, maxRows uint) bool {
	return n >= MinRows && n <= maxRows && bits.OnesCount(n) == 1
}

// DomainSize returns the smallest valid domain size able to hold a given
// number of rows.
func DomainSize(rows uint) uint {
	var n uint = MinRows
	//
	for n < rows {
		n <<= 1
	}
	//
	return n
}

func padTable(column []field.Element, n uint) []field.Element {
	padded := make([]field.Element, n)
	copy(padded, column)
	//
	for i := len(column); i < int(n); i++ {
		padded[i] = column[0]
	}
	//
	return padded
}
