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
	"encoding/binary"

	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
	"github.com/zeebo/blake3"
)

// Row provides access to the values of every column at some point, along with
// the values of the shifted columns at the next point.  This abstracts over
// rows of the witness itself, points of an evaluation coset and the opening
// point used by the verifier.
type Row interface {
	// Get the value of a given column at this point.
	Get(col Column) field.Element
	// Next returns the value of a given (shifted) column at the next point.
	Next(col Column) field.Element
}

// Fixed holds the values of the public polynomials at some point.
type Fixed struct {
	// First and last Lagrange polynomials.
	L0, Ln field.Element
	// Program table.
	PC, Op, Imm field.Element
}

// Challenges holds the verifier challenges drawn after the first round of
// commitments.
type Challenges struct {
	// Lookup challenges
	Eta, Delta field.Element
	// Permutation challenges
	Beta, Gamma field.Element
}

// Params holds everything (other than a row) needed to evaluate the
// constraints.  This is derived from the challenges and the public inputs.
type Params struct {
	Challenges
	delta2, gamma2, gamma3 field.Element
	// Number of public inputs
	k field.Element
	// Product of the public read factors
	pub field.Element
}

// NewParams derives the evaluation parameters for a given set of challenges and
// public inputs.
func NewParams(ch Challenges, public []field.Element) *Params {
	var p = Params{Challenges: ch}
	//
	p.delta2.Square(&ch.Delta)
	p.gamma2.Square(&ch.Gamma)
	p.gamma3.Mul(&p.gamma2, &ch.Gamma)
	p.k = field.Uint64(uint64(len(public)))
	p.pub = PublicProduct(ch, public)
	//
	return &p
}

// PublicProduct computes the product of the permutation factors for reading
// each public input out of its final stack slot.
func PublicProduct(ch Challenges, public []field.Element) field.Element {
	var (
		prod   = field.One()
		gamma2 field.Element
		ft     field.Element
	)
	//
	gamma2.Square(&ch.Gamma)
	ft.Mul(&ch.Gamma, &FinalTime)
	//
	for i := range public {
		var f, t field.Element
		//
		slot := field.Uint64(uint64(i))
		f.Add(&ch.Beta, &KeyBase).Add(&f, &slot).Add(&f, &ft)
		t.Mul(&gamma2, &public[i])
		f.Add(&f, &t)
		prod.Mul(&prod, &f)
	}
	//
	return prod
}

// Evaluate every constraint at a given row, writing the results into a given
// slice (which must have length NumConstraints).  All results are zero iff
// the row satisfies the system.
func Evaluate(row Row, fixed *Fixed, params *Params, out []field.Element) {
	e := evaluation{values: out}
	evaluate(row, fixed, params, &e)
}

// NumConstraints is the number of constraints in the system.
var NumConstraints uint

var constraintNames []string

func init() {
	var e = evaluation{names: make([]string, 0, 1024)}
	//
	evaluate(zeroRow{}, &Fixed{}, &Params{}, &e)
	NumConstraints = uint(len(e.names))
	constraintNames = e.names
}

// ConstraintName returns a human readable name of the ith constraint.
func ConstraintName(i uint) string {
	return constraintNames[i]
}

// Digest returns a fingerprint of the circuit, covering the column layout and
// every constraint.  Keys are bound to this digest, so proofs from a circuit
// with a different gate set are rejected.
func Digest() [32]byte {
	var (
		hasher = blake3.New()
		digest [32]byte
	)
	//
	_, _ = hasher.Write([]byte("go-zkvm/circuit/v1"))
	_, _ = hasher.Write(binary.BigEndian.AppendUint32(nil, uint32(NumColumns)))
	//
	for i := range NumColumns {
		_, _ = hasher.Write([]byte(i.String()))
	}
	//
	for _, name := range constraintNames {
		_, _ = hasher.Write([]byte(name))
	}
	//
	copy(digest[:], hasher.Sum(nil))
	//
	return digest
}

// ============================================================================
// Evaluation
// ============================================================================

type evaluation struct {
	values []field.Element
	names  []string
	index  int
}

func (p *evaluation) emit(name string, value field.Element) {
	if p.names != nil {
		p.names = append(p.names, name)
		return
	}
	//
	p.values[p.index] = value
	p.index++
}

type zeroRow struct{}

func (zeroRow) Get(Column) field.Element  { return field.Zero() }
func (zeroRow) Next(Column) field.Element { return field.Zero() }

var one = field.One()

func add(a, b field.Element) field.Element { return *a.Add(&a, &b) }
func sub(a, b field.Element) field.Element { return *a.Sub(&a, &b) }
func mul(a, b field.Element) field.Element { return *a.Mul(&a, &b) }

func mul3(a, b, c field.Element) field.Element {
	a.Mul(&a, &b)
	return *a.Mul(&a, &c)
}

func scale(a field.Element, c uint64) field.Element {
	k := field.Uint64(c)
	return *a.Mul(&a, &k)
}

// (1 - a)
func not(a field.Element) field.Element { return sub(one, a) }

// a * (1 - a)
func boolean(a field.Element) field.Element { return mul(a, not(a)) }

func sum(xs ...field.Element) field.Element {
	var r field.Element
	//
	for i := range xs {
		r.Add(&r, &xs[i])
	}
	//
	return r
}

// Recombine a group of bit columns with given weights, whilst emitting a
// boolean constraint for each bit.
func bitsOf(row Row, e *evaluation, name string, first Column, weights []field.Element) field.Element {
	var acc field.Element
	//
	for i := range weights {
		b := row.Get(first + Column(i))
		//
		e.emit(name, boolean(b))
		//
		b.Mul(&b, &weights[i])
		acc.Add(&acc, &b)
	}
	//
	return acc
}

var (
	spWeights    = field.Powers(field.Uint64(2), SPBits)
	deltaWeights = field.Powers(field.Uint64(2), DeltaBits)
)

func evaluate(row Row, fixed *Fixed, p *Params, e *evaluation) {
	var (
		act, actN = row.Get(Act), row.Next(Act)
		pc, pcN   = row.Get(PC), row.Next(PC)
		sp, spN   = row.Get(SP), row.Next(SP)
		clk, clkN = row.Get(Clk), row.Next(Clk)
		op, imm   = row.Get(Op), row.Get(Imm)
		a, b, c   = row.Get(A), row.Get(B), row.Get(C)
		inv       = row.Get(Inv)
		notLn     = not(fixed.Ln)
		sel       [11]field.Element
		sumSel    field.Element
		sumOp     field.Element
	)
	// Selectors are one-hot on active rows, and all zero otherwise.
	for i, col := range Selectors {
		sel[i] = row.Get(col)
		e.emit("selector is boolean", boolean(sel[i]))
		sumSel.Add(&sumSel, &sel[i])
		code := scale(sel[i], uint64(instruction.Opcodes[i]))
		sumOp.Add(&sumOp, &code)
	}
	//
	var (
		sPush, sAdd, sMul, sStore, sLoad = sel[0], sel[1], sel[2], sel[3], sel[4]
		sJump, sJumpI, sEq, sLt, sGt     = sel[5], sel[6], sel[7], sel[8], sel[9]
		sStop                            = sel[10]
		bin                              = sum(sAdd, sMul, sEq, sLt, sGt)
		cmp                              = add(sLt, sGt)
	)
	//
	e.emit("act is sum of selectors", sub(act, sumSel))
	e.emit("act is boolean", boolean(act))
	e.emit("first row is active", mul(fixed.L0, not(act)))
	e.emit("active rows form a prefix", mul3(notLn, actN, not(act)))
	e.emit("last row is inactive", mul(fixed.Ln, act))
	e.emit("execution ends with stop", mul3(act, not(actN), not(sStop)))
	e.emit("stop is final", mul(sStop, actN))
	e.emit("opcode matches selector", sub(op, sumOp))
	e.emit("clock starts at zero", mul(fixed.L0, clk))
	e.emit("clock increments", mul(notLn, sub(sub(clkN, clk), one)))
	// Program counter
	var (
		length = sum(scale(sPush, 33), scale(sum(sStore, sLoad, sJump, sJumpI), 5), bin, sStop)
		fall   = add(pc, length)
		jump   = sub(imm, fall)
		npc    = sum(fall, mul(sJump, jump), mul3(sJumpI, c, jump))
	)
	//
	e.emit("pc starts at zero", mul(fixed.L0, pc))
	e.emit("pc flow", mul(act, sub(pcN, npc)))
	// Stack pointer
	var (
		pops  = sum(bin, sStore, sJumpI)
		delta = sub(add(sPush, sLoad), pops)
		need  = add(bin, pops)
	)
	//
	e.emit("sp starts at zero", mul(fixed.L0, sp))
	e.emit("sp flow", mul(act, sub(spN, add(sp, delta))))
	e.emit("final stack holds public inputs", mul(sStop, sub(sp, p.k)))
	spRange := bitsOf(row, e, "sp bit", SPB, spWeights)
	e.emit("sp covers operands", sub(sub(sp, need), spRange))
	// Arithmetic and logic
	e.emit("push", mul(sPush, sub(c, imm)))
	e.emit("load", mul(sLoad, sub(c, a)))
	e.emit("store", mul(sStore, sub(c, b)))
	e.emit("add", mul(sAdd, sub(c, add(a, b))))
	e.emit("mul", mul(sMul, sub(c, mul(a, b))))
	//
	diff := sub(a, b)
	e.emit("eq inverse", mul(sEq, add(sub(c, one), mul(diff, inv))))
	e.emit("eq zero", mul3(sEq, diff, c))
	e.emit("jumpi inverse", mul(sJumpI, sub(c, mul(b, inv))))
	e.emit("jumpi nonzero", mul3(sJumpI, b, not(c)))
	// Comparison
	evaluateComparison(row, e, a, b, c, sLt, sGt, cmp)
	// Memory log keys
	var (
		second  = sub(add(KeyBase, sp), field.Uint64(2))
		top     = add(KeyBase, sp)
		k1, k2  = row.Get(K1), row.Get(K2)
		pushes  = add(sPush, sLoad)
		binSlot = mul(bin, second)
	)
	//
	e.emit("k1", sub(k1, add(binSlot, mul(sLoad, imm))))
	e.emit("k2", sub(k2, sum(binSlot, mul(pushes, top), mul(sStore, imm))))
	e.emit("iu is boolean", boolean(row.Get(IU)))
	// Sorted log
	evaluateSorted(row, fixed, e, notLn)
	// Program lookup
	var (
		tm, tp       field.Element
		hmain, hprog = row.Get(HMain), row.Get(HProg)
		sacc, saccN  = row.Get(SAcc), row.Next(SAcc)
	)
	//
	tm = sum(pc, mul(p.Delta, op), mul(p.delta2, imm))
	tp = sum(fixed.PC, mul(p.Delta, fixed.Op), mul(p.delta2, fixed.Imm))
	e.emit("lookup main", sub(mul(hmain, sub(p.Eta, tm)), act))
	e.emit("lookup table", sub(mul(hprog, sub(p.Eta, tp)), row.Get(M)))
	e.emit("lookup sum", add(sub(sub(saccN, sacc), hmain), hprog))
	e.emit("lookup sum starts at zero", mul(fixed.L0, sacc))
	// Memory permutation
	evaluatePermutation(row, fixed, p, e, sel, notLn)
}

func evaluateComparison(row Row, e *evaluation, a, b, c, sLt, sGt, cmp field.Element) {
	var (
		cx, cy = row.Get(CX), row.Get(CY)
		hx, hy = row.Get(HX), row.Get(HY)
		ee, vv = row.Get(EE), row.Get(VV)
		hp1    = field.HalfPlusOne()
		h      = field.Half()
	)
	//
	e.emit("cx", sub(cx, add(mul(sLt, a), mul(sGt, b))))
	e.emit("cy", sub(cy, add(mul(sLt, b), mul(sGt, a))))
	e.emit("hx is boolean", boolean(hx))
	e.emit("hy is boolean", boolean(hy))
	e.emit("hx implies nonzero", mul(hx, sub(mul(cx, row.Get(IX)), one)))
	e.emit("hy implies nonzero", mul(hy, sub(mul(cy, row.Get(IY)), one)))
	rx := bitsOf(row, e, "rx bit", RX, field.HalfWeights())
	e.emit("cx split", sub(cx, add(mul(hx, hp1), rx)))
	ry := bitsOf(row, e, "ry bit", RY, field.HalfWeights())
	e.emit("cy split", sub(cy, add(mul(hy, hp1), ry)))
	// ee = 1 iff hx == hy
	e.emit("ee", sub(ee, add(sub(not(hx), hy), scale(mul(hx, hy), 2))))
	e.emit("cmp result is boolean", mul(cmp, boolean(c)))
	e.emit("cmp across halves", mul3(cmp, not(ee), sub(c, hy)))
	//
	var (
		less    = sub(sub(cy, cx), one)
		notLess = sub(cx, cy)
		claim   = add(mul(c, less), mul(not(c), notLess))
	)
	//
	e.emit("cmp within half", mul3(cmp, ee, sub(vv, claim)))
	rv := bitsOf(row, e, "rv bit", RV, field.HalfWeights())
	e.emit("cmp difference range", sub(vv, rv))
	e.emit("cmp difference bound", mul3(cmp, c, sub(mul(sub(vv, h), row.Get(IV)), one)))
}

func evaluateSorted(row Row, fixed *Fixed, e *evaluation, notLn field.Element) {
	var (
		su, suN   = row.Get(SU), row.Next(SU)
		sk, skN   = row.Get(SK), row.Next(SK)
		st, stN   = row.Get(ST), row.Next(ST)
		sv, svN   = row.Get(SV), row.Next(SV)
		sw, swN   = row.Get(SW), row.Next(SW)
		same      = row.Get(Same)
		gate      = mul(notLn, suN)
		dk        = sub(skN, sk)
		timeDelta = sub(sub(stN, st), one)
		keyDelta  = sub(dk, one)
		delta     = add(mul(same, timeDelta), mul(not(same), keyDelta))
	)
	//
	e.emit("su is boolean", boolean(su))
	e.emit("su forms a prefix", mul3(notLn, suN, not(su)))
	e.emit("sw is boolean", boolean(sw))
	e.emit("same inverse", mul(gate, add(sub(same, one), mul(dk, row.Get(SInv)))))
	e.emit("same zero", mul3(gate, dk, same))
	//
	deltaBits := bitsOf(row, e, "delta bit", DB, deltaWeights)
	e.emit("log is strictly ordered", mul(gate, sub(delta, deltaBits)))
	e.emit("read returns last write", mul3(gate, not(swN), sub(svN, mul(same, sv))))
	e.emit("first read is zero", mul(mul3(fixed.L0, su, not(sw)), sv))
}

func evaluatePermutation(row Row, fixed *Fixed, p *Params, e *evaluation, sel [11]field.Element, notLn field.Element) {
	var (
		z, zN  = row.Get(Z), row.Next(Z)
		y1, y2 = row.Get(Y1), row.Get(Y2)
		f      = p.Factors(row, sel)
	)
	//
	e.emit("y1", sub(y1, mul(f.Lane0, f.Lane1)))
	e.emit("y2", sub(y2, mul(f.Lane2, f.Init)))
	e.emit("z starts at one", mul(fixed.L0, sub(z, one)))
	//
	var (
		zy    = mul3(z, y1, y2)
		step  = mul(notLn, sub(mul(zN, f.Sorted), zy))
		final = mul(fixed.Ln, sub(f.Sorted, mul(p.pub, zy)))
	)
	//
	e.emit("grand product", add(step, final))
}

// Factors holds the permutation factors of each memory lane on a given row.
type Factors struct {
	Lane0, Lane1, Lane2, Init, Sorted field.Element
}

// Factors computes the permutation factors of every memory lane for a given
// row (with given selector values).
func (p *Params) Factors(row Row, sel [11]field.Element) Factors {
	var (
		sPush, sAdd, sMul, sStore, sLoad = sel[0], sel[1], sel[2], sel[3], sel[4]
		sJumpI, sEq, sLt, sGt            = sel[6], sel[7], sel[8], sel[9]
		bin                              = sum(sAdd, sMul, sEq, sLt, sGt)
		sp                               = row.Get(SP)
		clk3                             = scale(row.Get(Clk), 3)
		f                                Factors
	)
	// Lane 0: pop the top of the stack
	u0 := sum(bin, sStore, sJumpI)
	f.Lane0 = p.factor(u0, sub(add(KeyBase, sp), one), add(clk3, field.Uint64(1)), row.Get(B), false)
	// Lane 1: pop the second item, or load from memory
	u1 := add(bin, sLoad)
	f.Lane1 = p.factor(u1, row.Get(K1), add(clk3, field.Uint64(2)), row.Get(A), false)
	// Lane 2: push the result, or store to memory
	u2 := sum(bin, sPush, sLoad, sStore)
	f.Lane2 = p.factor(u2, row.Get(K2), add(clk3, field.Uint64(3)), row.Get(C), true)
	// Initial memory
	f.Init = p.factor(row.Get(IU), row.Get(IK), field.Zero(), row.Get(IVal), true)
	// Sorted log
	f.Sorted = p.sortedFactor(row)
	//
	return f
}

// SelectorsOf reads the selector columns of a given row.
func SelectorsOf(row Row) [11]field.Element {
	var sel [11]field.Element
	//
	for i, col := range Selectors {
		sel[i] = row.Get(col)
	}
	//
	return sel
}

// Compute u * (beta + key + gamma*time + gamma^2*value + gamma^3*write - 1) + 1,
// which is one when the lane is unused.
func (p *Params) factor(u, key, time, value field.Element, write bool) field.Element {
	f := sum(p.Beta, key, mul(p.Gamma, time), mul(p.gamma2, value))
	//
	if write {
		f = add(f, p.gamma3)
	}
	//
	return add(mul(u, sub(f, one)), one)
}

func (p *Params) sortedFactor(row Row) field.Element {
	var (
		su = row.Get(SU)
		f  = sum(p.Beta, row.Get(SK), mul(p.Gamma, row.Get(ST)), mul(p.gamma2, row.Get(SV)),
			mul(p.gamma3, row.Get(SW)))
	)
	//
	return add(mul(su, sub(f, one)), one)
}
