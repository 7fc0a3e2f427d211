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

// DecodeErrorKind classifies the reasons why decoding can fail.
type DecodeErrorKind uint8

const (
	// InvalidOpcode indicates a byte which matches no opcode table entry.
	InvalidOpcode DecodeErrorKind = iota
	// TruncatedOperand indicates an immediate which would read past the end
	// of the program.
	TruncatedOperand
	// NonCanonicalImmediate indicates a PUSH immediate which is not strictly
	// below the field modulus.
	NonCanonicalImmediate
	// EmptyProgram indicates a program without any bytes.
	EmptyProgram
)

func (p DecodeErrorKind) String() string {
	switch p {
	case InvalidOpcode:
		return "invalid opcode"
	case TruncatedOperand:
		return "truncated operand"
	case NonCanonicalImmediate:
		return "non-canonical immediate"
	case EmptyProgram:
		return "empty program"
	default:
		return "unknown decode error"
	}
}

// DecodeError reports a malformed program.
type DecodeError struct {
	Kind DecodeErrorKind
	// Byte offset of the offending instruction.
	Offset uint
	// Opcode byte found at the offset (if any).
	Byte byte
}

func (p *DecodeError) Error() string {
	if p.Kind == EmptyProgram {
		return p.Kind.String()
	}
	//
	return fmt.Sprintf("%s (0x%02x) at offset %d", p.Kind, p.Byte, p.Offset)
}

// Decode a single instruction from a given byte offset within a program.
// Decoding is pure: it neither executes anything nor retains the program.
func Decode(program []byte, offset uint) (Instruction, error) {
	if offset >= uint(len(program)) {
		return nil, &DecodeError{TruncatedOperand, offset, 0}
	}
	//
	var (
		op    = Opcode(program[offset])
		start = offset + 1
		end   = offset + op.Len()
	)
	//
	if !op.Valid() {
		return nil, &DecodeError{InvalidOpcode, offset, byte(op)}
	} else if end > uint(len(program)) {
		return nil, &DecodeError{TruncatedOperand, offset, byte(op)}
	}
	//
	switch op {
	case PUSH:
		value, err := field.FromCanonical(program[start:end])
		if err != nil {
			return nil, &DecodeError{NonCanonicalImmediate, offset, byte(op)}
		}
		//
		return &Push{value}, nil
	case ADD:
		return &Add{}, nil
	case MUL:
		return &Mul{}, nil
	case STORE:
		return &Store{binary.BigEndian.Uint32(program[start:end])}, nil
	case LOAD:
		return &Load{binary.BigEndian.Uint32(program[start:end])}, nil
	case JUMP:
		return &Jump{binary.BigEndian.Uint32(program[start:end])}, nil
	case JUMPI:
		return &JumpI{binary.BigEndian.Uint32(program[start:end])}, nil
	case EQ:
		return &Eq{}, nil
	case LT:
		return &Lt{}, nil
	case GT:
		return &Gt{}, nil
	case STOP:
		return &Stop{}, nil
	}
	// unreachable given the validity check above
	return nil, &DecodeError{InvalidOpcode, offset, byte(op)}
}

// NewPush constructs a PUSH of a small constant.
func NewPush(value uint64) *Push {
	return &Push{field.Uint64(value)}
}
