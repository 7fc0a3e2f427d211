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
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/go-zkvm/pkg/util/field"
)

// Extend fills the columns which depend upon the lookup and permutation
// challenges: the logUp inverses and running sum, the grand product helpers
// and the grand product itself.  This requires the columns filled by Build.
func (p *Witness) Extend(inst *Instance, params *Params) {
	var (
		n             = p.n
		pc, op, imm   = inst.Table()
		mainDenoms    = make([]field.Element, n)
		tableDenoms   = make([]field.Element, n)
		sortedFactors = make([]field.Element, n)
		hmain, hprog  = p.columns[HMain], p.columns[HProg]
		sacc, y1, y2  = p.columns[SAcc], p.columns[Y1], p.columns[Y2]
		z             = p.columns[Z]
		delta2        field.Element
	)
	//
	delta2.Square(&params.Delta)
	//
	for i := range n {
		mainDenoms[i] = sub(params.Eta, lookupTerm(params.Delta, delta2, p.columns[PC][i], p.columns[Op][i],
			p.columns[Imm][i]))
		tableDenoms[i] = sub(params.Eta, lookupTerm(params.Delta, delta2, pc[i], op[i], imm[i]))
		//
		row := p.Row(i)
		f := params.Factors(row, SelectorsOf(row))
		y1[i] = mul(f.Lane0, f.Lane1)
		y2[i] = mul(f.Lane2, f.Init)
		sortedFactors[i] = f.Sorted
	}
	//
	mainDenoms = fr.BatchInvert(mainDenoms)
	tableDenoms = fr.BatchInvert(tableDenoms)
	sortedFactors = fr.BatchInvert(sortedFactors)
	//
	for i := range n {
		hmain[i] = mul(p.columns[Act][i], mainDenoms[i])
		hprog[i] = mul(p.columns[M][i], tableDenoms[i])
	}
	// Running sum and grand product
	sacc[0].SetZero()
	z[0].SetOne()
	//
	for i := uint(0); i+1 < n; i++ {
		sacc[i+1] = add(sacc[i], sub(hmain[i], hprog[i]))
		z[i+1] = mul(mul3(z[i], y1[i], y2[i]), sortedFactors[i])
	}
}

func lookupTerm(delta, delta2, pc, op, imm field.Element) field.Element {
	return sum(pc, mul(delta, op), mul(delta2, imm))
}
