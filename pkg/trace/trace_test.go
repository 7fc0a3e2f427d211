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
package trace

import (
	"testing"

	"github.com/consensys/go-zkvm/pkg/util/assert"
	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
)

func Test_StateRoot_01(t *testing.T) {
	// Zero entries do not contribute
	var (
		empty = StateRoot(nil)
		zeros = StateRoot(map[uint32]field.Element{1: field.Zero(), 5: field.Zero()})
	)
	//
	assert.Equal(t, empty, zeros)
}

func Test_StateRoot_02(t *testing.T) {
	var (
		m1 = map[uint32]field.Element{1: field.Uint64(2), 3: field.Uint64(4)}
		m2 = map[uint32]field.Element{3: field.Uint64(4), 1: field.Uint64(2)}
		m3 = map[uint32]field.Element{1: field.Uint64(4), 3: field.Uint64(2)}
	)
	// Roots depend only on contents, not on map ordering
	for range 10 {
		assert.Equal(t, StateRoot(m1), StateRoot(m2))
	}
	//
	assert.NotEqual(t, StateRoot(m1), StateRoot(m3))
	assert.NotEqual(t, StateRoot(nil), StateRoot(m1))
}

func Test_Recorder_01(t *testing.T) {
	var (
		recorder = NewRecorder(4)
		stack    = field.Vector(3)
		memory   = map[uint32]field.Element{0: field.Uint64(3), 1: field.Zero()}
	)
	//
	recorder.Append(Step{Index: 0, Instruction: instruction.NewPush(3), Pushed: stack, NextPC: 33, Gas: 5})
	recorder.Append(Step{Index: 1, PC: 33, Instruction: &instruction.Stop{}, Depth: 1, NextPC: 34, Gas: 2})
	//
	tr := recorder.Finish([]byte{1, 2}, nil, stack, memory, 7)
	//
	assert.Equal(t, uint(2), tr.Len())
	assert.True(t, tr.Halted())
	assert.Equal(t, 1, len(tr.Memory))
	assert.Equal(t, 0, len(tr.Initial))
	assert.Equal(t, StateRoot(memory), tr.StateRoot)
	assert.Equal(t, stack, tr.PublicInputs())
}

func Test_Stats_01(t *testing.T) {
	var tr = Trace{Steps: []Step{
		{Index: 0, Instruction: instruction.NewPush(1), Depth: 0, Gas: 5},
		{Index: 1, Instruction: instruction.NewPush(2), Depth: 1, Gas: 5},
		{Index: 2, Instruction: &instruction.Add{}, Depth: 2, Gas: 7},
		{Index: 3, Instruction: &instruction.Stop{}, Depth: 1, Gas: 2},
	}}
	//
	stats := tr.Stats()
	//
	assert.Equal(t, 3, len(stats))
	assert.Equal(t, instruction.PUSH, stats[0].Opcode)
	assert.Equal(t, uint(2), stats[0].Count)
	assert.Equal(t, uint64(10), stats[0].Gas)
	assert.Equal(t, 0.5, stats[0].AvgDepth())
	assert.Equal(t, instruction.ADD, stats[1].Opcode)
	assert.Equal(t, 2.0, stats[1].AvgDepth())
	assert.Equal(t, instruction.STOP, stats[2].Opcode)
}
