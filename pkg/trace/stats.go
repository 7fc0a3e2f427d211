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
	"slices"

	"github.com/consensys/go-zkvm/pkg/vm/instruction"
	log "github.com/sirupsen/logrus"
)

// OpcodeStats summarises the steps of a trace executing a given opcode.
type OpcodeStats struct {
	Opcode instruction.Opcode
	// Number of steps executing this opcode
	Count uint
	// Total gas charged by those steps
	Gas uint64
	// Sum of stack depths (before each step)
	depth uint
}

// AvgDepth returns the average stack depth observed before executing this
// opcode.
func (p *OpcodeStats) AvgDepth() float64 {
	if p.Count == 0 {
		return 0
	}
	//
	return float64(p.depth) / float64(p.Count)
}

// Stats profiles this trace on a per-opcode basis.  Only opcodes which
// actually executed are included, ordered by opcode.
func (p *Trace) Stats() []OpcodeStats {
	var (
		table = make(map[instruction.Opcode]*OpcodeStats)
		stats []OpcodeStats
	)
	//
	for i := range p.Steps {
		step := &p.Steps[i]
		op := step.Opcode()
		entry, ok := table[op]
		//
		if !ok {
			entry = &OpcodeStats{Opcode: op}
			table[op] = entry
		}
		//
		entry.Count++
		entry.Gas += step.Gas
		entry.depth += step.Depth
	}
	//
	for _, op := range instruction.Opcodes {
		if entry, ok := table[op]; ok {
			stats = append(stats, *entry)
		}
	}
	//
	return slices.Clip(stats)
}

// LogStats writes the per-opcode profile of this trace at debug level.
func (p *Trace) LogStats() {
	if !log.IsLevelEnabled(log.DebugLevel) {
		return
	}
	//
	for _, s := range p.Stats() {
		log.WithFields(log.Fields{
			"count": s.Count,
			"gas":   s.Gas,
			"depth": s.AvgDepth(),
		}).Debugf("opcode %s", s.Opcode.String())
	}
}
