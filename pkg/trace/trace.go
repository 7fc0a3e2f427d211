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
	"encoding/binary"
	"maps"
	"slices"

	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
	"github.com/zeebo/blake3"
)

// Root is a commitment to the contents of memory.
type Root [32]byte

// Trace is the ordered record of every state transition of one run, together
// with the inputs and outputs of that run.  A trace is produced once and is
// read-only thereafter.
type Trace struct {
	// Program bytes executed
	Program []byte
	// Initial memory supplied by the caller (nonzero entries only)
	Initial map[uint32]field.Element
	// Executed steps in order
	Steps []Step
	// Final stack contents (bottom to top)
	Stack []field.Element
	// Final memory contents (nonzero entries only)
	Memory map[uint32]field.Element
	// Total gas consumed
	GasUsed uint64
	// Commitment to the final memory
	StateRoot Root
}

// Len returns the number of steps in this trace.
func (p *Trace) Len() uint {
	return uint(len(p.Steps))
}

// Halted determines whether this trace ends with a STOP.
func (p *Trace) Halted() bool {
	n := len(p.Steps)
	//
	return n > 0 && p.Steps[n-1].Opcode() == instruction.STOP
}

// PublicInputs returns the public statement of this trace, namely its final
// stack ordered bottom to top.
func (p *Trace) PublicInputs() []field.Element {
	return slices.Clone(p.Stack)
}

// StateRoot computes a commitment to a given memory.  Entries are hashed in
// ascending address order, each as a 4 byte big endian address followed by a
// 32 byte big endian value.  Zero entries are skipped, hence a memory which
// was never written has the same root as the empty memory.
func StateRoot(memory map[uint32]field.Element) Root {
	var (
		hasher = blake3.New()
		buf    [4]byte
		root   Root
	)
	//
	for _, addr := range slices.Sorted(maps.Keys(memory)) {
		value := memory[addr]
		//
		if value.IsZero() {
			continue
		}
		//
		binary.BigEndian.PutUint32(buf[:], addr)
		bytes := value.Bytes()
		// hashing writes never fail
		_, _ = hasher.Write(buf[:])
		_, _ = hasher.Write(bytes[:])
	}
	//
	copy(root[:], hasher.Sum(nil))
	//
	return root
}
