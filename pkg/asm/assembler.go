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
package asm

import (
	"math"
	"math/big"

	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/util/source"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
)

// Assemble a given source file into program bytes.
func Assemble(srcfile *source.File) ([]byte, []source.SyntaxError) {
	insns, errs := Compile(srcfile)
	//
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return instruction.Encode(insns...), nil
}

// Compile a given source file into a sequence of instructions.  Labels are
// resolved to the byte offset of the instruction which follows them.
func Compile(srcfile *source.File) ([]instruction.Instruction, []source.SyntaxError) {
	statements, errs := NewParser(srcfile).Parse()
	//
	if len(errs) > 0 {
		return nil, errs
	}
	// First pass determines label offsets
	labels, errs := layout(srcfile, statements)
	//
	if len(errs) > 0 {
		return nil, errs
	}
	// Second pass constructs instructions
	var insns []instruction.Instruction
	//
	for _, stmt := range statements {
		if !stmt.HasInstruction {
			continue
		}
		//
		insn, err := construct(srcfile, stmt, labels)
		//
		if err != nil {
			errs = append(errs, *err)
		} else {
			insns = append(insns, insn)
		}
	}
	//
	return insns, errs
}

func layout(srcfile *source.File, statements []Statement) (map[string]uint, []source.SyntaxError) {
	var (
		labels = make(map[string]uint)
		offset uint
		errs   []source.SyntaxError
	)
	//
	for _, stmt := range statements {
		for _, label := range stmt.Labels {
			if _, ok := labels[label]; ok {
				errs = append(errs, *srcfile.SyntaxError(stmt.Span, "duplicate label \""+label+"\""))
			}
			//
			labels[label] = offset
		}
		//
		if stmt.HasInstruction {
			offset += stmt.Opcode.Len()
		}
	}
	//
	return labels, errs
}

func construct(srcfile *source.File, stmt Statement, labels map[string]uint) (instruction.Instruction,
	*source.SyntaxError) {
	var (
		value   field.Element
		address uint32
	)
	//
	if stmt.Operand != nil {
		var err *source.SyntaxError
		//
		switch {
		case stmt.Opcode == instruction.PUSH:
			value, err = pushValue(srcfile, stmt.Operand)
		case stmt.Operand.IsLabel() && (stmt.Opcode == instruction.JUMP || stmt.Opcode == instruction.JUMPI):
			offset, ok := labels[stmt.Operand.Label]
			//
			if !ok {
				return nil, srcfile.SyntaxError(stmt.Operand.Span, "unknown label")
			}
			//
			address = uint32(offset)
		default:
			address, err = addressValue(srcfile, stmt.Operand)
		}
		//
		if err != nil {
			return nil, err
		}
	}
	//
	switch stmt.Opcode {
	case instruction.PUSH:
		return &instruction.Push{Value: value}, nil
	case instruction.ADD:
		return &instruction.Add{}, nil
	case instruction.MUL:
		return &instruction.Mul{}, nil
	case instruction.STORE:
		return &instruction.Store{Address: address}, nil
	case instruction.LOAD:
		return &instruction.Load{Address: address}, nil
	case instruction.JUMP:
		return &instruction.Jump{Target: address}, nil
	case instruction.JUMPI:
		return &instruction.JumpI{Target: address}, nil
	case instruction.EQ:
		return &instruction.Eq{}, nil
	case instruction.LT:
		return &instruction.Lt{}, nil
	case instruction.GT:
		return &instruction.Gt{}, nil
	case instruction.STOP:
		return &instruction.Stop{}, nil
	}
	//
	return nil, srcfile.SyntaxError(stmt.Span, "unknown instruction")
}

// Negative literals denote their field negation, so "-1" is the largest
// element.
func pushValue(srcfile *source.File, operand *Operand) (field.Element, *source.SyntaxError) {
	var (
		value     field.Element
		magnitude big.Int
	)
	//
	if operand.IsLabel() {
		return value, srcfile.SyntaxError(operand.Span, "expected number")
	}
	//
	magnitude.Abs(&operand.Value)
	//
	if magnitude.Cmp(field.Modulus()) >= 0 {
		return value, srcfile.SyntaxError(operand.Span, "immediate out of range")
	}
	//
	value.SetBigInt(&operand.Value)
	//
	return value, nil
}

func addressValue(srcfile *source.File, operand *Operand) (uint32, *source.SyntaxError) {
	if operand.IsLabel() {
		return 0, srcfile.SyntaxError(operand.Span, "expected address")
	} else if operand.Value.Sign() < 0 || !operand.Value.IsUint64() || operand.Value.Uint64() > math.MaxUint32 {
		return 0, srcfile.SyntaxError(operand.Span, "address out of range")
	}
	//
	return uint32(operand.Value.Uint64()), nil
}
