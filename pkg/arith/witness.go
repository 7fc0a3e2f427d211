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
	"fmt"
	"maps"
	"slices"

	"github.com/consensys/go-zkvm/pkg/trace"
	"github.com/consensys/go-zkvm/pkg/util"
	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
)

// Witness assigns a value to every row of every column.  Witnesses are derived
// deterministically from a trace, and never leave the prover.
type Witness struct {
	n       uint
	columns [NumColumns][]field.Element
}

func newWitness(n uint) *Witness {
	var w = &Witness{n: n}
	//
	for i := range w.columns {
		w.columns[i] = make([]field.Element, n)
	}
	//
	return w
}

// Len returns the number of rows in this witness.
func (p *Witness) Len() uint {
	return p.n
}

// Column returns the values assigned to a given column.  The returned slice
// is owned by the witness and must not be modified.
func (p *Witness) Column(col Column) []field.Element {
	return p.columns[col]
}

// Get the value of a given column on a given row.
func (p *Witness) Get(col Column, row uint) field.Element {
	return p.columns[col][row]
}

// Set the value of a given column on a given row.
func (p *Witness) Set(col Column, row uint, value field.Element) {
	p.columns[col][row] = value
}

// Row returns an accessor for the ith row of this witness.  The row after the
// last is the first.
func (p *Witness) Row(i uint) Row {
	return witnessRow{p, i}
}

type witnessRow struct {
	witness *Witness
	index   uint
}

func (p witnessRow) Get(col Column) field.Element {
	return p.witness.columns[col][p.index]
}

func (p witnessRow) Next(col Column) field.Element {
	return p.witness.columns[col][(p.index+1)%p.witness.n]
}

// Build arithmetises a given trace, producing the constraint system instance
// for the run and a witness for it.  Only the columns which do not depend on
// any challenge are filled; see Witness.Extend for the remainder.
func Build(tr *trace.Trace, maxRows uint) (*ConstraintSystem, *Witness, error) {
	var stats = util.NewPerfStats()
	//
	if tr == nil || !tr.Halted() {
		return nil, nil, ErrIncompleteTrace
	}
	//
	program, err := instruction.DecodeAll(tr.Program)
	//
	if err != nil {
		return nil, nil, err
	}
	// Every step must have a gadget
	for i := range tr.Steps {
		if _, ok := SelectorOf(tr.Steps[i].Opcode()); !ok {
			return nil, nil, &Error{UnsupportedOpcode, uint(i), tr.Steps[i].Opcode()}
		}
	}
	//
	var (
		log  = memoryLog(tr)
		rows = max(tr.Len()+1, program.Len(), uint(len(log)), uint(len(tr.Initial)))
		n    = DomainSize(rows)
	)
	//
	if n > maxRows {
		return nil, nil, fmt.Errorf("%w (%d rows required, at most %d supported)", ErrTraceTooLarge, n, maxRows)
	}
	//
	instance, err := NewInstance(n, tr.Program, tr.Stack)
	//
	if err != nil {
		return nil, nil, err
	}
	//
	var (
		witness = newWitness(n)
		jobs    = []func(){
			func() { fillMain(witness, tr) },
			func() { fillComparisons(witness, tr) },
			func() { fillMultiplicities(witness, tr, program) },
			func() { fillInitial(witness, tr) },
			func() {
				SortLog(log)
				fillSorted(witness, log)
			},
		}
		// Construct a communication channel for completion.
		c = make(chan struct{}, len(jobs))
	)
	// Column groups are disjoint, hence can be filled concurrently.
	for _, job := range jobs {
		go func() {
			job()
			c <- struct{}{}
		}()
	}
	// Wait for all groups
	for range jobs {
		<-c
	}
	//
	stats.Log("Arithmetisation")
	//
	return &ConstraintSystem{instance}, witness, nil
}

// ============================================================================
// Wires
// ============================================================================

// Values placed on the operand wires, and memory lanes used, by a given step.
type wires struct {
	a, b, c    field.Element
	k1, k2     field.Element
	u0, u1, u2 bool
}

func wiresOf(step *trace.Step) wires {
	var (
		w      wires
		top    = slotKey(step.Depth)
		second field.Element
	)
	//
	if step.Depth >= 2 {
		second = slotKey(step.Depth - 2)
	}
	//
	switch step.Opcode() {
	case instruction.PUSH:
		w.c = step.Instruction.Immediate()
		w.u2, w.k2 = true, top
	case instruction.ADD, instruction.MUL, instruction.EQ, instruction.LT, instruction.GT:
		w.b, w.a, w.c = step.Popped[0], step.Popped[1], step.Pushed[0]
		w.u0, w.u1, w.u2 = true, true, true
		w.k1, w.k2 = second, second
	case instruction.STORE:
		w.b = step.Popped[0]
		w.c = w.b
		w.u0, w.u2 = true, true
		w.k2 = step.Instruction.Immediate()
	case instruction.LOAD:
		w.a = step.Memory.Old
		w.c = w.a
		w.u1, w.u2 = true, true
		w.k1, w.k2 = step.Instruction.Immediate(), top
	case instruction.JUMPI:
		w.b = step.Popped[0]
		//
		if !w.b.IsZero() {
			w.c = field.One()
		}
		//
		w.u0 = true
	}
	//
	return w
}

// Key of a given stack slot within the memory log.
func slotKey(slot uint) field.Element {
	var key = field.Uint64(uint64(slot))
	//
	return *key.Add(&key, &KeyBase)
}

// Time of a given lane within a given step.
func laneTime(step uint, lane uint64) field.Element {
	return field.Uint64(3*uint64(step) + lane + 1)
}

// Construct the (unsorted) memory log of a trace.  This includes every access
// made by an execution step, the initial memory, and the final stack.
func memoryLog(tr *trace.Trace) []Access {
	var log []Access
	//
	for i := range tr.Steps {
		step := &tr.Steps[i]
		w := wiresOf(step)
		//
		if w.u0 {
			log = append(log, Access{slotKey(step.Depth - 1), laneTime(step.Index, 0), w.b, false})
		}
		//
		if w.u1 {
			log = append(log, Access{w.k1, laneTime(step.Index, 1), w.a, false})
		}
		//
		if w.u2 {
			log = append(log, Access{w.k2, laneTime(step.Index, 2), w.c, true})
		}
	}
	//
	for _, addr := range slices.Sorted(maps.Keys(tr.Initial)) {
		log = append(log, Access{field.Uint64(uint64(addr)), field.Zero(), tr.Initial[addr], true})
	}
	//
	for i, v := range tr.Stack {
		log = append(log, Access{slotKey(uint(i)), FinalTime, v, false})
	}
	//
	return log
}

// ============================================================================
// Column groups
// ============================================================================

func fillMain(w *Witness, tr *trace.Trace) {
	var one = field.One()
	//
	for i := range tr.Steps {
		var (
			step   = &tr.Steps[i]
			op     = step.Opcode()
			sel, _ = SelectorOf(op)
			wr     = wiresOf(step)
			row    = uint(i)
		)
		//
		w.Set(sel, row, one)
		w.Set(Act, row, one)
		w.Set(PC, row, field.Uint64(uint64(step.PC)))
		w.Set(Op, row, field.Uint64(uint64(op)))
		w.Set(Imm, row, step.Instruction.Immediate())
		w.Set(SP, row, field.Uint64(uint64(step.Depth)))
		w.Set(A, row, wr.a)
		w.Set(B, row, wr.b)
		w.Set(C, row, wr.c)
		w.Set(K1, row, wr.k1)
		w.Set(K2, row, wr.k2)
		//
		switch op {
		case instruction.EQ:
			var diff field.Element
			diff.Sub(&wr.a, &wr.b)
			w.Set(Inv, row, inverse(diff))
		case instruction.JUMPI:
			w.Set(Inv, row, inverse(wr.b))
		}
		//
		setBits(w, SPB, SPBits, row, uint64(step.Depth-op.Pops()))
	}
	// Padding rows continue from the final state
	var (
		last = &tr.Steps[len(tr.Steps)-1]
		pc   = field.Uint64(uint64(last.NextPC))
		sp   = field.Uint64(uint64(last.DepthAfter()))
	)
	//
	for row := tr.Len(); row < w.n; row++ {
		w.Set(PC, row, pc)
		w.Set(SP, row, sp)
		setBits(w, SPB, SPBits, row, uint64(last.DepthAfter()))
	}
	//
	for row := range w.n {
		w.Set(Clk, row, field.Uint64(uint64(row)))
	}
}

func fillComparisons(w *Witness, tr *trace.Trace) {
	var one = field.One()
	//
	for row := range w.n {
		w.Set(EE, row, one)
	}
	//
	for i := range tr.Steps {
		var (
			step = &tr.Steps[i]
			row  = uint(i)
			wr   = wiresOf(step)
			h    = field.Half()
			vv   field.Element
		)
		//
		if step.Opcode() != instruction.LT && step.Opcode() != instruction.GT {
			continue
		}
		//
		cx, cy := wr.a, wr.b
		//
		if step.Opcode() == instruction.GT {
			cx, cy = wr.b, wr.a
		}
		//
		hx := fillRemainder(w, CX, HX, IX, RX, row, cx)
		hy := fillRemainder(w, CY, HY, IY, RY, row, cy)
		lt := wr.c.IsOne()
		//
		if hx != hy {
			w.Set(EE, row, field.Zero())
		} else if lt {
			vv.Sub(&cy, &cx).Sub(&vv, &one)
		} else {
			vv.Sub(&cx, &cy)
		}
		//
		w.Set(VV, row, vv)
		setHalfBits(w, RV, row, vv)
		//
		if lt {
			var d field.Element
			d.Sub(&vv, &h)
			w.Set(IV, row, inverse(d))
		}
	}
}

// Split a comparison operand into its half flag and remainder, returning the
// half flag.
func fillRemainder(w *Witness, col, flag, inv, bits Column, row uint, x field.Element) bool {
	high, r := field.Remainder(x)
	//
	w.Set(col, row, x)
	//
	if high {
		w.Set(flag, row, field.One())
		w.Set(inv, row, inverse(x))
	}
	//
	setHalfBits(w, bits, row, r)
	//
	return high
}

func fillMultiplicities(w *Witness, tr *trace.Trace, program *instruction.Program) {
	var (
		index  = make(map[uint]uint, program.Len())
		counts = make([]uint64, program.Len())
	)
	//
	for i := range program.Len() {
		index[program.Offset(i)] = i
	}
	//
	for i := range tr.Steps {
		counts[index[tr.Steps[i].PC]]++
	}
	//
	for i, count := range counts {
		w.Set(M, uint(i), field.Uint64(count))
	}
}

func fillInitial(w *Witness, tr *trace.Trace) {
	var one = field.One()
	//
	for row, addr := range slices.Sorted(maps.Keys(tr.Initial)) {
		w.Set(IU, uint(row), one)
		w.Set(IK, uint(row), field.Uint64(uint64(addr)))
		w.Set(IVal, uint(row), tr.Initial[addr])
	}
}

func fillSorted(w *Witness, log []Access) {
	var one = field.One()
	//
	for i, entry := range log {
		row := uint(i)
		//
		w.Set(SU, row, one)
		w.Set(SK, row, entry.Key)
		w.Set(ST, row, entry.Time)
		w.Set(SV, row, entry.Value)
		//
		if entry.Write {
			w.Set(SW, row, one)
		}
		//
		if i+1 == len(log) {
			continue
		}
		//
		var (
			next  = log[i+1]
			delta field.Element
		)
		//
		if next.Key.Equal(&entry.Key) {
			w.Set(Same, row, one)
			delta.Sub(&next.Time, &entry.Time).Sub(&delta, &one)
		} else {
			var dk field.Element
			//
			dk.Sub(&next.Key, &entry.Key)
			w.Set(SInv, row, inverse(dk))
			delta.Sub(&dk, &one)
		}
		//
		setBits(w, DB, DeltaBits, row, delta.Uint64())
	}
}

// ============================================================================
// Helpers
// ============================================================================

// Assign the low width bits of a value to a group of bit columns.
func setBits(w *Witness, first Column, width uint, row uint, value uint64) {
	var one = field.One()
	//
	for i := range width {
		if value&(1<<i) != 0 {
			w.Set(first+Column(i), row, one)
		}
	}
}

// Assign the weighted decomposition of a value within [0, Half] to a group of
// bit columns.
func setHalfBits(w *Witness, first Column, row uint, value field.Element) {
	var (
		one     = field.One()
		bits, _ = field.SplitHalf(value)
	)
	//
	for i, bit := range bits {
		if bit {
			w.Set(first+Column(i), row, one)
		}
	}
}

// Inverse of a field element, or zero for zero.
func inverse(x field.Element) field.Element {
	var r field.Element
	//
	if !x.IsZero() {
		r.Inverse(&x)
	}
	//
	return r
}
