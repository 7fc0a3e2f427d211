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

import (
	"errors"
	"testing"

	"github.com/consensys/go-zkvm/pkg/trace"
	"github.com/consensys/go-zkvm/pkg/util/assert"
	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
	"github.com/google/go-cmp/cmp"
)

type insn = instruction.Instruction

func Test_Machine_01(t *testing.T) {
	// PUSH 5, PUSH 3, ADD, STORE 0, STOP
	tr, err := run(t, DefaultConfig(), nil,
		instruction.NewPush(5), instruction.NewPush(3), &instruction.Add{}, &instruction.Store{Address: 0},
		&instruction.Stop{})
	//
	assert.NoError(t, err)
	assert.Equal(t, uint(5), tr.Len())
	assert.True(t, tr.Halted())
	assert.Equal(t, 0, len(tr.Stack))
	assert.Equal(t, map[uint32]field.Element{0: field.Uint64(8)}, tr.Memory)
	assert.Equal(t, uint64(5+5+7+22+2), tr.GasUsed)
}

func Test_Machine_02(t *testing.T) {
	// PUSH 1, JUMPI 99, STOP
	tr, err := run(t, DefaultConfig(), nil,
		instruction.NewPush(1), &instruction.JumpI{Target: 99}, &instruction.Stop{})
	//
	checkFault(t, err, InvalidJumpTarget, 1, 33)
	assert.Equal(t, uint(1), tr.Len())
	assert.False(t, tr.Halted())
}

func Test_Machine_03(t *testing.T) {
	// ADD, STOP
	tr, err := run(t, DefaultConfig(), nil, &instruction.Add{}, &instruction.Stop{})
	//
	checkFault(t, err, StackUnderflow, 0, 0)
	assert.Equal(t, uint(0), tr.Len())
}

func Test_Machine_04(t *testing.T) {
	var config = DefaultConfig().WithMaxSteps(3)
	//
	tr, err := run(t, config, nil,
		instruction.NewPush(1), instruction.NewPush(2), instruction.NewPush(3), instruction.NewPush(4),
		&instruction.Stop{})
	//
	checkFault(t, err, StepLimitExceeded, 3, 99)
	assert.Equal(t, uint(3), tr.Len())
	assert.Equal(t, field.Vector(1, 2, 3), tr.Stack)
}

func Test_Machine_05(t *testing.T) {
	// Unwritten memory reads as zero
	tr, err := run(t, DefaultConfig(), nil, &instruction.Load{Address: 7}, &instruction.Stop{})
	//
	assert.NoError(t, err)
	assert.Equal(t, field.Vector(0), tr.Stack)
	assert.False(t, tr.Steps[0].Memory.Write)
	// Initial memory is visible
	tr, err = run(t, DefaultConfig(), map[uint32]field.Element{7: field.Uint64(42)},
		&instruction.Load{Address: 7}, &instruction.Stop{})
	//
	assert.NoError(t, err)
	assert.Equal(t, field.Vector(42), tr.Stack)
	assert.Equal(t, tr.Initial, tr.Memory)
}

func Test_Machine_06(t *testing.T) {
	var config = DefaultConfig().WithMaxStack(2)
	//
	tr, err := run(t, config, nil,
		instruction.NewPush(1), instruction.NewPush(2), instruction.NewPush(3), &instruction.Stop{})
	//
	checkFault(t, err, StackOverflow, 2, 66)
	assert.Equal(t, field.Vector(1, 2), tr.Stack)
}

func Test_Machine_07(t *testing.T) {
	// Falling off the end of the program
	_, err := run(t, DefaultConfig(), nil, instruction.NewPush(1))
	checkFault(t, err, ProgramOverrun, 1, 33)
	// Exhausting gas
	_, err = run(t, DefaultConfig().WithGasLimit(9), nil,
		instruction.NewPush(1), instruction.NewPush(2), &instruction.Stop{})
	checkFault(t, err, OutOfGas, 1, 33)
	// Exactly enough gas
	tr, err := run(t, DefaultConfig().WithGasLimit(12), nil,
		instruction.NewPush(1), instruction.NewPush(2), &instruction.Stop{})
	assert.NoError(t, err)
	assert.Equal(t, uint64(12), tr.GasUsed)
}

func Test_Machine_08(t *testing.T) {
	var config = DefaultConfig().WithMemoryLimit(16)
	//
	_, err := run(t, config, nil, instruction.NewPush(1), &instruction.Store{Address: 16}, &instruction.Stop{})
	checkFault(t, err, AddressOutOfRange, 1, 33)
	//
	_, err = run(t, config, nil, &instruction.Load{Address: 100}, &instruction.Stop{})
	checkFault(t, err, AddressOutOfRange, 0, 0)
}

func Test_Machine_09(t *testing.T) {
	// a=2, b=3: LT pushes a<b, GT pushes a>b, EQ pushes a==b
	checkBinary(t, &instruction.Lt{}, 2, 3, 1)
	checkBinary(t, &instruction.Gt{}, 2, 3, 0)
	checkBinary(t, &instruction.Lt{}, 3, 2, 0)
	checkBinary(t, &instruction.Gt{}, 3, 2, 1)
	checkBinary(t, &instruction.Lt{}, 3, 3, 0)
	checkBinary(t, &instruction.Eq{}, 3, 3, 1)
	checkBinary(t, &instruction.Eq{}, 3, 4, 0)
	checkBinary(t, &instruction.Mul{}, 6, 7, 42)
}

func Test_Machine_10(t *testing.T) {
	// Comparisons are unsigned over the full field: p-1 > 1
	tr, err := run(t, DefaultConfig(), nil,
		&instruction.Push{Value: field.Neg(1)}, instruction.NewPush(1), &instruction.Gt{}, &instruction.Stop{})
	//
	assert.NoError(t, err)
	assert.Equal(t, field.Vector(1), tr.Stack)
}

func Test_Machine_11(t *testing.T) {
	// Count down from 3, storing the counter each iteration:
	//
	// 0x00: PUSH 3
	// 0x21: STORE 0
	// 0x26: LOAD 0
	// 0x2b: PUSH -1
	// 0x4c: ADD
	// 0x4d: STORE 0
	// 0x52: LOAD 0
	// 0x57: JUMPI 0x26
	// 0x5c: STOP
	tr, err := run(t, DefaultConfig(), nil,
		instruction.NewPush(3), &instruction.Store{Address: 0},
		&instruction.Load{Address: 0}, &instruction.Push{Value: field.Neg(1)}, &instruction.Add{},
		&instruction.Store{Address: 0}, &instruction.Load{Address: 0}, &instruction.JumpI{Target: 0x26},
		&instruction.Stop{})
	//
	assert.NoError(t, err)
	assert.Equal(t, uint(2+3*6+1), tr.Len())
	assert.Equal(t, 0, len(tr.Stack))
	assert.Equal(t, 0, len(tr.Memory))
	assert.Equal(t, trace.StateRoot(nil), tr.StateRoot)
}

func Test_Machine_12(t *testing.T) {
	// Two runs of the same program and memory yield identical traces
	var (
		program = []insn{instruction.NewPush(9), &instruction.Store{Address: 3}, &instruction.Load{Address: 3},
			&instruction.Load{Address: 4}, &instruction.Lt{}, &instruction.JumpI{Target: 0}, &instruction.Stop{}}
		initial = map[uint32]field.Element{4: field.Uint64(1)}
	)
	//
	tr1, err1 := run(t, DefaultConfig(), initial, program...)
	tr2, err2 := run(t, DefaultConfig(), initial, program...)
	//
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	//
	if diff := cmp.Diff(tr1, tr2); diff != "" {
		t.Errorf("traces differ (-first +second):\n%s", diff)
	}
}

func Test_Machine_13(t *testing.T) {
	// Stepping does not modify the original state
	var (
		program, _ = instruction.DecodeAll(instruction.Encode(instruction.NewPush(1), &instruction.Stop{}))
		config     = DefaultConfig()
	)
	//
	s0, err := Initial(config, nil)
	assert.NoError(t, err)
	s1, step, err := Step(program, config, s0)
	assert.NoError(t, err)
	//
	assert.Equal(t, uint(0), s0.Stack.Len())
	assert.Equal(t, uint(1), s1.Stack.Len())
	assert.Equal(t, uint(33), step.NextPC)
	assert.Equal(t, uint(1), step.DepthAfter())
	//
	s2, _, err := Step(program, config, s1)
	assert.NoError(t, err)
	assert.Equal(t, Halted, s2.Status)
	//
	_, _, err = Step(program, config, s2)
	assert.ErrorIs(t, err, ErrTerminated)
}

func run(t *testing.T, config Config, initial map[uint32]field.Element, insns ...insn) (*trace.Trace, error) {
	t.Helper()
	//
	program, err := instruction.DecodeAll(instruction.Encode(insns...))
	assert.NoError(t, err)
	//
	return Run(program, initial, config)
}

func checkBinary(t *testing.T, op insn, a, b, c uint64) {
	t.Helper()
	//
	tr, err := run(t, DefaultConfig(), nil, instruction.NewPush(a), instruction.NewPush(b), op, &instruction.Stop{})
	//
	assert.NoError(t, err)
	assert.Equal(t, field.Vector(c), tr.Stack, op.String())
	assert.Equal(t, field.Vector(b, a), tr.Steps[2].Popped)
}

func checkFault(t *testing.T, err error, kind FaultKind, step, pc uint) {
	t.Helper()
	//
	var fault *Fault
	//
	if !errors.As(err, &fault) {
		t.Fatalf("expected fault %s, got %v", kind, err)
	}
	//
	assert.Equal(t, kind, fault.Kind)
	assert.Equal(t, step, fault.Step)
	assert.Equal(t, pc, fault.PC)
	assert.ErrorIs(t, err, &Fault{Kind: kind})
}
