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
	"github.com/consensys/go-zkvm/pkg/util/field"
)

// ConstraintSystem combines the fixed circuit (i.e. the gate set) with the
// instance of a particular run.
type ConstraintSystem struct {
	instance *Instance
}

// NewConstraintSystem constructs a constraint system for a given instance.
func NewConstraintSystem(instance *Instance) *ConstraintSystem {
	return &ConstraintSystem{instance}
}

// Instance returns the public instance of this constraint system.
func (p *ConstraintSystem) Instance() *Instance {
	return p.instance
}

// Rows returns the domain size of this constraint system.
func (p *ConstraintSystem) Rows() uint {
	return p.instance.N
}

// Check evaluates every constraint on every row of a (fully extended) witness,
// returning the first violation found (if any).  Rows are checked in parallel
// chunks, but the violation reported is always the one on the lowest row.
func (p *ConstraintSystem) Check(w *Witness, params *Params) error {
	var (
		n       = w.Len()
		chunk   = max(n/8, 1)
		nchunks = (n + chunk - 1) / chunk
		// Construct a communication channel for violations.
		c     = make(chan *Violation, nchunks)
		first *Violation
	)
	//
	for start := uint(0); start < n; start += chunk {
		go func(start, end uint) {
			c <- p.checkRows(w, params, start, end)
		}(start, min(start+chunk, n))
	}
	//
	for range nchunks {
		if v := <-c; v != nil && (first == nil || v.Row < first.Row) {
			first = v
		}
	}
	//
	if first != nil {
		return first
	}
	//
	return nil
}

func (p *ConstraintSystem) checkRows(w *Witness, params *Params, start, end uint) *Violation {
	var (
		values      = make([]field.Element, NumConstraints)
		fixed       Fixed
		pc, op, imm = p.instance.Table()
	)
	//
	for row := start; row < end; row++ {
		p.fixedAt(&fixed, row, pc, op, imm)
		Evaluate(w.Row(row), &fixed, params, values)
		//
		for i := range values {
			if !values[i].IsZero() {
				return &Violation{uint(i), row}
			}
		}
	}
	//
	return nil
}

func (p *ConstraintSystem) fixedAt(fixed *Fixed, row uint, pc, op, imm []field.Element) {
	fixed.L0.SetZero()
	fixed.Ln.SetZero()
	//
	if row == 0 {
		fixed.L0.SetOne()
	}
	//
	if row == p.instance.N-1 {
		fixed.Ln.SetOne()
	}
	//
	fixed.PC, fixed.Op, fixed.Imm = pc[row], op[row], imm[row]
}
