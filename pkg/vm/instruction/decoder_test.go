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
	"errors"
	"testing"

	"github.com/consensys/go-zkvm/pkg/util/assert"
	"github.com/consensys/go-zkvm/pkg/util/field"
)

func Test_Decode_01(t *testing.T) {
	program := Encode(NewPush(5), NewPush(3), &Add{}, &Store{0}, &Stop{})
	// 33 + 33 + 1 + 5 + 1
	assert.Equal(t, 73, len(program))
	//
	decoded, err := DecodeAll(program)
	assert.NoError(t, err)
	assert.Equal(t, uint(5), decoded.Len())
	assert.Equal(t, []uint{0, 33, 66, 67, 72}, decoded.offsets)
	assert.Equal(t, NewPush(5), decoded.Instruction(0))
	assert.Equal(t, &Store{0}, decoded.Instruction(3))
}

func Test_Decode_02(t *testing.T) {
	insns := []Instruction{
		NewPush(1), &Add{}, &Mul{}, &Store{7}, &Load{0xdeadbeef}, &Jump{9},
		&JumpI{12}, &Eq{}, &Lt{}, &Gt{}, &Stop{},
	}
	//
	decoded, err := DecodeAll(Encode(insns...))
	assert.NoError(t, err)
	//
	for i, insn := range insns {
		assert.Equal(t, insn, decoded.Instruction(uint(i)))
	}
	// Re-encoding gives identical bytes
	assert.Equal(t, Encode(insns...), decoded.Bytes())
}

func Test_Decode_03(t *testing.T) {
	checkDecodeError(t, []byte{0x0B}, InvalidOpcode, 0)
	checkDecodeError(t, []byte{byte(ADD), 0x00}, InvalidOpcode, 1)
	checkDecodeError(t, []byte{byte(STOP), 0xFE}, InvalidOpcode, 1)
}

func Test_Decode_04(t *testing.T) {
	checkDecodeError(t, []byte{byte(PUSH), 0x01, 0x02}, TruncatedOperand, 0)
	checkDecodeError(t, []byte{byte(ADD), byte(STORE), 0, 0, 0}, TruncatedOperand, 1)
	checkDecodeError(t, []byte{byte(JUMPI)}, TruncatedOperand, 0)
}

func Test_Decode_05(t *testing.T) {
	// Immediate equal to the modulus is not canonical
	var (
		program = []byte{byte(PUSH)}
		minus1  = field.Neg(1)
		bytes   = minus1.Bytes()
	)
	// p = (p-1) + 1 which, given p is odd, only changes the last byte
	bytes[31]++
	program = append(program, bytes[:]...)
	checkDecodeError(t, program, NonCanonicalImmediate, 0)
}

func Test_Decode_06(t *testing.T) {
	_, err := DecodeAll(nil)
	//
	var derr *DecodeError
	//
	assert.True(t, errors.As(err, &derr))
	assert.Equal(t, EmptyProgram, derr.Kind)
}

func Test_Decode_07(t *testing.T) {
	program, err := DecodeAll(Encode(NewPush(1), &JumpI{99}, &Stop{}))
	assert.NoError(t, err)
	assert.True(t, program.IsBoundary(0))
	assert.True(t, program.IsBoundary(33))
	assert.True(t, program.IsBoundary(38))
	assert.False(t, program.IsBoundary(1))
	assert.False(t, program.IsBoundary(99))
	//
	insn, ok := program.At(33)
	assert.True(t, ok)
	assert.Equal(t, &JumpI{99}, insn)
}

func Test_Opcode_01(t *testing.T) {
	for _, op := range Opcodes {
		name, ok := op.Mnemonic()
		assert.True(t, ok)
		//
		back, ok := LookupMnemonic(name)
		assert.True(t, ok)
		assert.Equal(t, op, back)
	}
	//
	assert.False(t, Opcode(0x00).Valid())
	assert.False(t, Opcode(0x0B).Valid())
}

func checkDecodeError(t *testing.T, program []byte, kind DecodeErrorKind, offset uint) {
	_, err := DecodeAll(program)
	//
	var derr *DecodeError
	//
	assert.True(t, errors.As(err, &derr), "expected decode error, got %v", err)
	assert.Equal(t, kind, derr.Kind)
	assert.Equal(t, offset, derr.Offset)
}
