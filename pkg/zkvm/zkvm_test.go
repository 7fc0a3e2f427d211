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
package zkvm

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/consensys/go-zkvm/pkg/arith"
	"github.com/consensys/go-zkvm/pkg/plonk"
	"github.com/consensys/go-zkvm/pkg/util"
	"github.com/consensys/go-zkvm/pkg/util/assert"
	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
	"github.com/consensys/go-zkvm/pkg/vm/machine"
	"github.com/consensys/go-zkvm/pkg/vm/memory"
	"github.com/google/go-cmp/cmp"
)

type insn = instruction.Instruction

const testRows = 64

// ============================================================================
// Scenarios
// ============================================================================

func Test_Scenario_01(t *testing.T) {
	// PUSH 5, PUSH 3, ADD, STORE 0, STOP
	pk, vk := testKeys(t)
	vm := construct(t, nil, []insn{instruction.NewPush(5), instruction.NewPush(3), &instruction.Add{},
		&instruction.Store{Address: 0}, &instruction.Stop{}}, WithProvingKey(pk), WithRandomness(util.NewStream(1)))
	//
	tr, err := vm.Execute()
	assert.NoError(t, err)
	assert.True(t, tr.Halted())
	assert.Equal(t, 0, len(tr.Stack))
	assert.Equal(t, field.Uint64(8), tr.Memory[0])
	//
	proof, err := vm.GenerateProof(tr, nil)
	assert.NoError(t, err)
	assert.True(t, VerifyProof(proof, nil, vk))
	assert.False(t, VerifyProof(proof, field.Vector(8), vk))
}

func Test_Scenario_02(t *testing.T) {
	// PUSH 1, JUMPI 99, STOP
	vm := construct(t, nil, []insn{instruction.NewPush(1), &instruction.JumpI{Target: 99}, &instruction.Stop{}})
	//
	tr, err := vm.Execute()
	checkFault(t, err, machine.InvalidJumpTarget, 1)
	assert.Equal(t, uint(1), tr.Len())
}

func Test_Scenario_03(t *testing.T) {
	// ADD, STOP
	vm := construct(t, nil, []insn{&instruction.Add{}, &instruction.Stop{}})
	//
	tr, err := vm.Execute()
	checkFault(t, err, machine.StackUnderflow, 0)
	assert.Equal(t, uint(0), tr.Len())
}

func Test_Scenario_04(t *testing.T) {
	// PUSH 1, PUSH 1, PUSH 1, PUSH 1, STOP with a step limit of 3
	vm := construct(t, nil, []insn{instruction.NewPush(1), instruction.NewPush(1), instruction.NewPush(1),
		instruction.NewPush(1), &instruction.Stop{}}, WithMaxSteps(3))
	//
	tr, err := vm.Execute()
	checkFault(t, err, machine.StepLimitExceeded, 3)
	assert.Equal(t, uint(3), tr.Len())
}

// ============================================================================
// Construction & Options
// ============================================================================

func Test_Construct_01(t *testing.T) {
	var derr *instruction.DecodeError
	// Empty program
	_, err := Construct(nil, nil)
	assert.True(t, errors.As(err, &derr))
	// Unknown opcode
	_, err = Construct([]byte{0xee}, nil)
	assert.True(t, errors.As(err, &derr))
	// Truncated immediate
	_, err = Construct([]byte{byte(instruction.PUSH), 1, 2}, nil)
	assert.True(t, errors.As(err, &derr))
}

func Test_Construct_02(t *testing.T) {
	program := instruction.Encode(&instruction.Load{Address: 3}, &instruction.Stop{})
	// Initial memory must fit within the limit
	_, err := Construct(program, map[uint32]field.Element{8: field.One()}, WithMemoryLimit(8))
	assert.ErrorIs(t, err, memory.ErrAddressOutOfRange)
	//
	vm, err := Construct(program, map[uint32]field.Element{3: field.Uint64(4)}, WithMemoryLimit(8),
		WithMaxStack(4), WithGasLimit(100))
	assert.NoError(t, err)
	assert.Equal(t, uint64(8), vm.Config().MemoryLimit)
	assert.Equal(t, uint(4), vm.Config().MaxStack)
	assert.Equal(t, uint64(100), vm.Config().GasLimit)
	assert.Equal(t, uint(2), vm.Program().Len())
	//
	tr, err := vm.Execute()
	assert.NoError(t, err)
	assert.Equal(t, field.Vector(4), tr.Stack)
}

func Test_Construct_03(t *testing.T) {
	// Gas limits are enforced
	program := []insn{instruction.NewPush(1), instruction.NewPush(2), &instruction.Add{}, &instruction.Stop{}}
	gas := machine.GasCost(instruction.PUSH) + machine.GasCost(instruction.PUSH)
	//
	_, err := construct(t, nil, program, WithGasLimit(gas)).Execute()
	checkFault(t, err, machine.OutOfGas, 2)
	//
	tr, err := construct(t, nil, program).Execute()
	assert.NoError(t, err)
	assert.Equal(t, gas+machine.GasCost(instruction.ADD)+machine.GasCost(instruction.STOP), tr.GasUsed)
}

func Test_Construct_04(t *testing.T) {
	// Stack limits are enforced
	_, err := construct(t, nil, []insn{instruction.NewPush(1), instruction.NewPush(2), &instruction.Stop{}},
		WithMaxStack(1)).Execute()
	checkFault(t, err, machine.StackOverflow, 1)
}

func Test_Construct_05(t *testing.T) {
	// Stack limits must fit the stack pointer range check
	program := instruction.Encode(instruction.NewPush(1), &instruction.Stop{})
	//
	for _, depth := range []uint{1 << arith.SPBits, 1<<arith.SPBits + 1, 70000} {
		_, err := Construct(program, nil, WithMaxStack(depth))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
	//
	vm, err := Construct(program, nil, WithMaxStack(1<<arith.SPBits-1))
	assert.NoError(t, err)
	assert.Equal(t, uint(1<<arith.SPBits-1), vm.Config().MaxStack)
}

// ============================================================================
// Determinism
// ============================================================================

func Test_Determinism_01(t *testing.T) {
	// Repeated executions produce identical traces
	vm := construct(t, map[uint32]field.Element{1: field.Uint64(12)}, countdown())
	//
	t1, err1 := vm.Execute()
	t2, err2 := vm.Execute()
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	//
	if diff := cmp.Diff(t1, t2); diff != "" {
		t.Errorf("traces differ (-first +second):\n%s", diff)
	}
	//
	assert.Equal(t, t1.StateRoot, t2.StateRoot)
}

func Test_Determinism_02(t *testing.T) {
	// Proofs are reproducible for a fixed source of randomness
	pk, vk := testKeys(t)
	program := countdown()
	//
	_, p1, err := construct(t, nil, program, WithProvingKey(pk), WithRandomness(util.NewStream(5))).Prove()
	assert.NoError(t, err)
	_, p2, err := construct(t, nil, program, WithProvingKey(pk), WithRandomness(util.NewStream(5))).Prove()
	assert.NoError(t, err)
	_, p3, err := construct(t, nil, program, WithProvingKey(pk), WithRandomness(util.NewStream(6))).Prove()
	assert.NoError(t, err)
	//
	assert.Equal(t, DigestOf(p1), DigestOf(p2))
	assert.NotEqual(t, DigestOf(p1), DigestOf(p3))
	// Both verify regardless
	results := VerifyBatch(vk, []*plonk.Proof{p1, p3}, [][]field.Element{field.Vector(0), field.Vector(0)})
	assert.Equal(t, []bool{true, true}, results)
}

// ============================================================================
// Proving
// ============================================================================

func Test_Prove_01(t *testing.T) {
	// Proving requires a key
	vm := construct(t, nil, []insn{instruction.NewPush(1), &instruction.Stop{}})
	//
	_, _, err := vm.Prove()
	assert.ErrorIs(t, err, ErrNoProvingKey)
}

func Test_Prove_02(t *testing.T) {
	// Faulted runs cannot be proved
	pk, _ := testKeys(t)
	vm := construct(t, nil, []insn{instruction.NewPush(1), instruction.NewPush(2), &instruction.Add{},
		&instruction.Stop{}}, WithProvingKey(pk), WithMaxSteps(2))
	//
	tr, err := vm.Execute()
	checkFault(t, err, machine.StepLimitExceeded, 2)
	//
	_, err = vm.GenerateProof(tr, tr.PublicInputs())
	assert.ErrorIs(t, err, arith.ErrIncompleteTrace)
	// No trace at all
	_, err = vm.GenerateProof(nil, nil)
	assert.ErrorIs(t, err, arith.ErrIncompleteTrace)
}

func Test_Prove_03(t *testing.T) {
	// Public inputs must be the final stack
	pk, _ := testKeys(t)
	vm := construct(t, nil, []insn{instruction.NewPush(1), &instruction.Stop{}}, WithProvingKey(pk))
	//
	tr, err := vm.Execute()
	assert.NoError(t, err)
	//
	_, err = vm.GenerateProof(tr, field.Vector(2))
	assert.ErrorIs(t, err, plonk.ErrPublicInputMismatch)
}

// ============================================================================
// Keys & Digests
// ============================================================================

func Test_Keys_01(t *testing.T) {
	var (
		pk, vk = testKeys(t)
		dir    = t.TempDir()
		pkFile = filepath.Join(dir, "zkvm.pk")
		vkFile = filepath.Join(dir, "zkvm.vk")
	)
	//
	assert.NoError(t, WriteKeys(pk, vk, pkFile, vkFile))
	//
	pk2, vk2, err := LoadKeys(pkFile, vkFile)
	assert.NoError(t, err)
	assert.Equal(t, pk.MaxRows(), pk2.MaxRows())
	//
	_, proof, err := construct(t, nil, []insn{instruction.NewPush(2), instruction.NewPush(2), &instruction.Eq{},
		&instruction.Stop{}}, WithProvingKey(pk2), WithRandomness(util.NewStream(7))).Prove()
	assert.NoError(t, err)
	assert.True(t, VerifyProof(proof, field.Vector(1), vk))
	assert.True(t, VerifyProof(proof, field.Vector(1), vk2))
	//
	_, _, err = LoadKeys(filepath.Join(dir, "missing"), vkFile)
	assert.Error(t, err)
	// Keys for different sizes do not match
	pk3, vk3, err := Setup(32, util.NewStream(3))
	assert.NoError(t, err)
	assert.NoError(t, WriteKeys(pk3, vk3, "", vkFile))
	_, _, err = LoadKeys(pkFile, vkFile)
	assert.ErrorIs(t, err, plonk.ErrInvalidKey)
}

func Test_Digest_01(t *testing.T) {
	var digest Digest
	//
	for i := range digest {
		digest[i] = byte(i * 7)
	}
	//
	parsed, err := ParseDigest(digest.String())
	assert.NoError(t, err)
	assert.Equal(t, digest, parsed)
	//
	_, err = ParseDigest("0OIl")
	assert.ErrorIs(t, err, ErrInvalidDigest)
	_, err = ParseDigest(Encode([32]byte{})[1:])
	assert.ErrorIs(t, err, ErrInvalidDigest)
}

// ============================================================================
// Helpers
// ============================================================================

var (
	keysOnce sync.Once
	keysPK   *plonk.ProvingKey
	keysVK   *plonk.VerificationKey
	keysErr  error
)

func testKeys(t *testing.T) (*plonk.ProvingKey, *plonk.VerificationKey) {
	t.Helper()
	//
	keysOnce.Do(func() {
		keysPK, keysVK, keysErr = Setup(testRows, util.NewStream(0))
	})
	//
	assert.NoError(t, keysErr)
	//
	return keysPK, keysVK
}

func construct(t *testing.T, initial map[uint32]field.Element, program []insn, opts ...Option) *VM {
	t.Helper()
	//
	vm, err := Construct(instruction.Encode(program...), initial, opts...)
	if err != nil {
		t.Fatal(err)
	}
	//
	return vm
}

// Count memory[0] down from 3 to 0, leaving memory[1] > -1 on the stack.
func countdown() []insn {
	return []insn{instruction.NewPush(3), &instruction.Store{Address: 0},
		&instruction.Load{Address: 0}, &instruction.Push{Value: field.Neg(1)}, &instruction.Add{},
		&instruction.Store{Address: 0}, &instruction.Load{Address: 0}, &instruction.JumpI{Target: 0x26},
		&instruction.Load{Address: 1}, &instruction.Push{Value: field.Neg(1)}, &instruction.Gt{},
		&instruction.Stop{}}
}

func checkFault(t *testing.T, err error, kind machine.FaultKind, step uint) {
	t.Helper()
	//
	var fault *machine.Fault
	//
	if !errors.As(err, &fault) {
		t.Fatalf("expected fault, got %v", err)
	}
	//
	assert.Equal(t, kind, fault.Kind)
	assert.Equal(t, step, fault.Step)
}
