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
	"strings"
	"testing"

	"github.com/consensys/go-zkvm/pkg/trace"
	"github.com/consensys/go-zkvm/pkg/util"
	"github.com/consensys/go-zkvm/pkg/util/assert"
	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
	"github.com/consensys/go-zkvm/pkg/vm/machine"
)

type insn = instruction.Instruction

// ============================================================================
// Honest traces
// ============================================================================

func Test_Arith_01(t *testing.T) {
	// PUSH 5, PUSH 3, ADD, STORE 0, STOP
	checkValid(t, nil, instruction.NewPush(5), instruction.NewPush(3), &instruction.Add{},
		&instruction.Store{Address: 0}, &instruction.Stop{})
}

func Test_Arith_02(t *testing.T) {
	// Final stack becomes the public inputs
	checkValid(t, nil, instruction.NewPush(6), instruction.NewPush(7), &instruction.Mul{}, instruction.NewPush(2),
		&instruction.Stop{})
}

func Test_Arith_03(t *testing.T) {
	// Countdown loop exercising memory and conditional jumps
	checkValid(t, nil,
		instruction.NewPush(3), &instruction.Store{Address: 0},
		&instruction.Load{Address: 0}, &instruction.Push{Value: field.Neg(1)}, &instruction.Add{},
		&instruction.Store{Address: 0}, &instruction.Load{Address: 0}, &instruction.JumpI{Target: 0x26},
		&instruction.Stop{})
}

func Test_Arith_04(t *testing.T) {
	// Initial memory, reads of unwritten memory and comparisons
	checkValid(t, map[uint32]field.Element{4: field.Uint64(1), 1000: field.Uint64(77)},
		instruction.NewPush(9), &instruction.Store{Address: 3}, &instruction.Load{Address: 3},
		&instruction.Load{Address: 4}, &instruction.Lt{}, &instruction.JumpI{Target: 0},
		&instruction.Load{Address: 5}, &instruction.Load{Address: 1000}, &instruction.Gt{}, &instruction.Stop{})
}

func Test_Arith_05(t *testing.T) {
	// Comparisons across the two halves of the field
	checkValid(t, nil,
		&instruction.Push{Value: field.Neg(1)}, instruction.NewPush(1), &instruction.Gt{},
		&instruction.Push{Value: field.Neg(1)}, instruction.NewPush(1), &instruction.Lt{},
		&instruction.Push{Value: field.Half()}, &instruction.Push{Value: field.HalfPlusOne()}, &instruction.Lt{},
		&instruction.Push{Value: field.Neg(5)}, &instruction.Push{Value: field.Neg(7)}, &instruction.Gt{},
		instruction.NewPush(4), instruction.NewPush(4), &instruction.Lt{},
		&instruction.Stop{})
}

func Test_Arith_06(t *testing.T) {
	// Equality and unconditional jumps (0x00 PUSH 1, 0x21 PUSH 1, 0x42 EQ, 0x43 JUMP 0x49,
	// 0x48 STOP, 0x49 PUSH 2, 0x6a EQ, 0x6b STOP)
	checkValid(t, nil,
		instruction.NewPush(1), instruction.NewPush(1), &instruction.Eq{}, &instruction.Jump{Target: 0x49},
		&instruction.Stop{}, instruction.NewPush(2), &instruction.Eq{}, &instruction.Stop{})
}

func Test_Arith_07(t *testing.T) {
	// Long enough to span several domain sizes
	var program []insn
	//
	for i := range 40 {
		program = append(program, instruction.NewPush(uint64(i)), &instruction.Store{Address: uint32(i % 7)})
	}
	//
	program = append(program, &instruction.Stop{})
	//
	cs, _ := checkValid(t, nil, program...)
	assert.Equal(t, uint(128), cs.Rows())
}

// ============================================================================
// Invalid witnesses
// ============================================================================

func Test_Arith_08(t *testing.T) {
	// Corrupting the result of ADD is caught on its row
	cs, w, params := prepare(t, nil, instruction.NewPush(5), instruction.NewPush(3), &instruction.Add{},
		&instruction.Store{Address: 0}, &instruction.Stop{})
	//
	w.Set(C, 2, field.Uint64(9))
	checkViolation(t, cs.Check(w, params), 2)
}

func Test_Arith_09(t *testing.T) {
	// Claiming a different final stack breaks the grand product
	cs, w, params := prepare(t, nil, instruction.NewPush(6), instruction.NewPush(7), &instruction.Mul{},
		&instruction.Stop{})
	//
	wrong := NewParams(params.Challenges, field.Vector(43))
	checkViolation(t, cs.Check(w, wrong), cs.Rows()-1)
}

func Test_Arith_10(t *testing.T) {
	// Forging a memory read is caught by the sorted log
	cs, w, params := prepare(t, nil, instruction.NewPush(5), &instruction.Store{Address: 1},
		&instruction.Load{Address: 1}, &instruction.Stop{})
	//
	w.Set(C, 2, field.Uint64(6))
	w.Set(A, 2, field.Uint64(6))
	w.Extend(cs.Instance(), params)
	//
	assert.Error(t, cs.Check(w, params))
}

func Test_Arith_11(t *testing.T) {
	// Lying about the result of a comparison
	cs, w, params := prepare(t, nil, instruction.NewPush(2), instruction.NewPush(3), &instruction.Lt{},
		&instruction.Stop{})
	//
	w.Set(C, 2, field.Zero())
	w.Extend(cs.Instance(), params)
	//
	assert.Error(t, cs.Check(w, params))
}

func Test_Arith_12(t *testing.T) {
	// Skipping an instruction breaks the program counter flow
	cs, w, params := prepare(t, nil, instruction.NewPush(1), instruction.NewPush(2), &instruction.Stop{})
	//
	w.Set(PC, 1, field.Uint64(34))
	w.Extend(cs.Instance(), params)
	//
	checkViolation(t, cs.Check(w, params), 0)
}

// ============================================================================
// Errors
// ============================================================================

func Test_Arith_13(t *testing.T) {
	// Faulting runs cannot be arithmetised
	tr, err := run(t, nil, instruction.NewPush(1), &instruction.JumpI{Target: 99}, &instruction.Stop{})
	assert.Error(t, err)
	//
	_, _, err = Build(tr, 1<<10)
	assert.ErrorIs(t, err, ErrIncompleteTrace)
}

func Test_Arith_14(t *testing.T) {
	var program []insn
	//
	for range 20 {
		program = append(program, instruction.NewPush(1))
	}
	//
	tr, err := run(t, nil, append(program, &instruction.Stop{})...)
	assert.NoError(t, err)
	//
	// 20 stack writes and 20 public reads need 64 rows
	_, _, err = Build(tr, 32)
	assert.ErrorIs(t, err, ErrTraceTooLarge)
	//
	cs, _, err := Build(tr, 64)
	assert.NoError(t, err)
	assert.Equal(t, uint(64), cs.Rows())
}

func Test_Arith_15(t *testing.T) {
	assert.Equal(t, uint(16), DomainSize(0))
	assert.Equal(t, uint(16), DomainSize(16))
	assert.Equal(t, uint(32), DomainSize(17))
	assert.True(t, ValidDomain(16, 1024))
	assert.True(t, ValidDomain(1024, 1024))
	assert.False(t, ValidDomain(8, 1024))
	assert.False(t, ValidDomain(48, 1024))
	assert.False(t, ValidDomain(2048, 1024))
	//
	_, err := NewInstance(24, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidDomain)
}

// ============================================================================
// Memory log
// ============================================================================

func Test_MemoryLog_01(t *testing.T) {
	log := []Access{
		{slotKey(1), field.Uint64(6), field.Uint64(3), true},
		{field.Uint64(0), field.Uint64(12), field.Uint64(8), true},
		{slotKey(0), field.Uint64(8), field.Uint64(5), false},
		{slotKey(0), field.Uint64(3), field.Uint64(5), true},
	}
	//
	assert.False(t, IsSortedLog(log))
	SortLog(log)
	assert.True(t, IsSortedLog(log))
	assert.Equal(t, field.Uint64(0), log[0].Key)
	assert.Equal(t, field.Uint64(3), log[1].Time)
	assert.Equal(t, field.Uint64(8), log[2].Time)
	assert.Equal(t, slotKey(1), log[3].Key)
	// Duplicate (key,time) pairs are not strictly sorted
	assert.False(t, IsSortedLog([]Access{log[1], log[1]}))
}

func Test_MemoryLog_02(t *testing.T) {
	tr, err := run(t, map[uint32]field.Element{9: field.Uint64(1)}, instruction.NewPush(5),
		&instruction.Store{Address: 1}, &instruction.Load{Address: 9}, &instruction.Stop{})
	assert.NoError(t, err)
	// 1 init, 1 push write, 1 store read, 1 store write, 1 load read, 1 load push
	// and 1 public read
	assert.Equal(t, 7, len(memoryLog(tr)))
}

// ============================================================================
// Circuit
// ============================================================================

func Test_Circuit_01(t *testing.T) {
	assert.True(t, NumConstraints > 0)
	assert.Equal(t, Digest(), Digest())
	//
	for i := range NumConstraints {
		assert.NotEqual(t, "", ConstraintName(i))
	}
}

func Test_Circuit_02(t *testing.T) {
	// Every executable opcode has a selector
	for _, op := range instruction.Opcodes {
		col, ok := SelectorOf(op)
		assert.True(t, ok, op.String())
		assert.Equal(t, "s_"+strings.ToLower(op.String()), col.String())
	}
	//
	for _, op := range []instruction.Opcode{0x00, 0x0b, 0xee} {
		_, ok := SelectorOf(op)
		assert.False(t, ok, op.String())
	}
}

// ============================================================================
// Helpers
// ============================================================================

func run(t *testing.T, initial map[uint32]field.Element, insns ...insn) (*trace.Trace, error) {
	t.Helper()
	//
	program, err := instruction.DecodeAll(instruction.Encode(insns...))
	assert.NoError(t, err)
	//
	return machine.Run(program, initial, machine.DefaultConfig())
}

func prepare(t *testing.T, initial map[uint32]field.Element, insns ...insn) (*ConstraintSystem, *Witness,
	*Params) {
	t.Helper()
	//
	tr, err := run(t, initial, insns...)
	assert.NoError(t, err)
	//
	cs, w, err := Build(tr, 1<<10)
	assert.NoError(t, err)
	//
	params := NewParams(randomChallenges(t), tr.PublicInputs())
	w.Extend(cs.Instance(), params)
	//
	return cs, w, params
}

func checkValid(t *testing.T, initial map[uint32]field.Element, insns ...insn) (*ConstraintSystem, *Witness) {
	t.Helper()
	//
	cs, w, params := prepare(t, initial, insns...)
	//
	if err := cs.Check(w, params); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
	//
	return cs, w
}

func checkViolation(t *testing.T, err error, row uint) {
	t.Helper()
	//
	var violation *Violation
	//
	if !errors.As(err, &violation) {
		t.Fatalf("expected violation, got %v", err)
	}
	//
	assert.Equal(t, row, violation.Row, violation.Error())
}

func randomChallenges(t *testing.T) Challenges {
	var (
		rng = util.NewStream(uint64(len(t.Name())))
		ch  [4]field.Element
	)
	//
	for i := range ch {
		var err error
		ch[i], err = field.Random(rng)
		assert.NoError(t, err)
	}
	//
	return Challenges{Eta: ch[0], Delta: ch[1], Beta: ch[2], Gamma: ch[3]}
}
