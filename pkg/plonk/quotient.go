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
package plonk

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/go-zkvm/pkg/arith"
	"github.com/consensys/go-zkvm/pkg/util"
	"github.com/consensys/go-zkvm/pkg/util/field"
)

// Values of every column over one coset of the quotient domain.
type cosetRow struct {
	columns [][]field.Element
	index   uint
	n       uint
}

func (p *cosetRow) Get(col arith.Column) field.Element {
	return p.columns[col][p.index]
}

// Since the coset is s<w>, multiplying a point by w moves to the next index.
func (p *cosetRow) Next(col arith.Column) field.Element {
	return p.columns[col][(p.index+1)%p.n]
}

// Compute the quotient t = (sum alpha^i C_i) / Z_H, where C_i are the
// constraints, given the (blinded) coefficients of every column and the
// coefficients of the program table.  The quotient domain is processed one
// coset at a time to bound memory usage.  Returns the coefficients of t.
func quotient(d *domain, columns [][]field.Element, table [3][]field.Element, params *arith.Params,
	alpha field.Element) ([]field.Element, error) {
	var (
		n      = d.n
		values = make([]field.Element, cosets*n)
		omegaN = field.Powers(d.omega(), n)[n-1]
	)
	//
	for j := range uint(cosets) {
		var (
			s     = d.shift(j)
			evals = make([][]field.Element, len(columns))
			fixed [3][]field.Element
		)
		// Evaluate every column over this coset
		err := util.ParExec(uint(len(columns)), 0, func(col uint) error {
			evals[col] = d.onCoset(columns[col], s)
			return nil
		})
		//
		if err != nil {
			return nil, err
		}
		//
		for k := range table {
			fixed[k] = d.onCoset(table[k], s)
		}
		//
		var (
			first, last = selectorsOnCoset(d, s, omegaN)
			zhInv       field.Element
		)
		// Z_H is constant over the coset
		zhInv.Exp(s, new(big.Int).SetUint64(uint64(n)))
		zhInv.Sub(&zhInv, new(field.Element).SetOne())
		zhInv.Inverse(&zhInv)
		//
		chunk := max(n/uint(cosets), 1)
		//
		err = util.ParExec((n+chunk-1)/chunk, 0, func(c uint) error {
			var (
				row = cosetRow{evals, 0, n}
				out = make([]field.Element, arith.NumConstraints)
				f   arith.Fixed
			)
			//
			for i := c * chunk; i < min((c+1)*chunk, n); i++ {
				row.index = i
				f.L0, f.Ln = first[i], last[i]
				f.PC, f.Op, f.Imm = fixed[0][i], fixed[1][i], fixed[2][i]
				arith.Evaluate(&row, &f, params, out)
				//
				acc := combine(out, alpha)
				values[j+cosets*i].Mul(&acc, &zhInv)
			}
			//
			return nil
		})
		//
		if err != nil {
			return nil, err
		}
	}
	//
	coeffs := d.fromQuotientDomain(values)
	//
	return coeffs[:quotientDegree*n], nil
}

// Combine constraint values into a single value as sum alpha^i C_i.
func combine(values []field.Element, alpha field.Element) field.Element {
	var acc field.Element
	//
	for i := len(values) - 1; i >= 0; i-- {
		acc.Mul(&acc, &alpha)
		acc.Add(&acc, &values[i])
	}
	//
	return acc
}

// Evaluate the first and last Lagrange basis polynomials over the coset s<w>.
// At a point x these are (x^n-1)/(n(x-1)) and w^(n-1)(x^n-1)/(n(x-w^(n-1))),
// where x^n = s^n throughout the coset.
func selectorsOnCoset(d *domain, s field.Element, omegaN field.Element) (first, last []field.Element) {
	var (
		n      = d.n
		points = field.Powers(d.omega(), n)
		size   = field.Uint64(uint64(n))
		denoms = make([]field.Element, 2*n)
		zh     field.Element
		one    = field.One()
	)
	//
	zh.Exp(s, new(big.Int).SetUint64(uint64(n)))
	zh.Sub(&zh, &one)
	//
	for i := range n {
		var x field.Element
		//
		x.Mul(&s, &points[i])
		denoms[i].Sub(&x, &one)
		denoms[i].Mul(&denoms[i], &size)
		denoms[n+i].Sub(&x, &omegaN)
		denoms[n+i].Mul(&denoms[n+i], &size)
	}
	//
	denoms = fr.BatchInvert(denoms)
	//
	for i := range n {
		denoms[i].Mul(&denoms[i], &zh)
		denoms[n+i].Mul(&denoms[n+i], &zh)
		denoms[n+i].Mul(&denoms[n+i], &omegaN)
	}
	//
	return denoms[:n], denoms[n:]
}
