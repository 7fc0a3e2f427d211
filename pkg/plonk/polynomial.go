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
	"io"
	"math/big"
	"slices"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/fft"
	"github.com/consensys/go-zkvm/pkg/util/field"
)

// Number of cosets of the trace domain making up the quotient domain.
const cosets = 8

// Domain bundles the FFT domains used when proving over n rows: the trace
// domain itself, and the (shifted) quotient domain of size 8n.
type domain struct {
	n     uint
	trace *fft.Domain
	large *fft.Domain
}

func newDomain(n uint) *domain {
	return &domain{n, fft.NewDomain(uint64(n)), fft.NewDomain(uint64(cosets * n))}
}

// Generator of the trace domain.
func (p *domain) omega() field.Element {
	return p.trace.Generator
}

// Interpolate a column given in Lagrange form over the trace domain, returning
// its coefficients.
func (p *domain) interpolate(values []field.Element) []field.Element {
	coeffs := slices.Clone(values)
	//
	p.trace.FFTInverse(coeffs, fft.DIF)
	fft.BitReverse(coeffs)
	//
	return coeffs
}

// Shift of the jth coset making up the quotient domain.  Together the cosets
// cover the quotient domain g<w>, where w generates the subgroup of order 8n,
// with the jth coset being g*w^j<w^8>.
func (p *domain) shift(j uint) field.Element {
	var s field.Element
	//
	s.Exp(p.large.Generator, big.NewInt(int64(j)))
	s.Mul(&s, &p.large.FrMultiplicativeGen)
	//
	return s
}

// Evaluate a polynomial (of any degree) over the coset s<w^8>.  Coefficients
// are first folded modulo X^n-s^n, after which a single FFT over the trace
// domain suffices.
func (p *domain) onCoset(coeffs []field.Element, s field.Element) []field.Element {
	var (
		folded = make([]field.Element, p.n)
		power  = field.One()
		term   field.Element
	)
	//
	for k := range coeffs {
		term.Mul(&coeffs[k], &power)
		folded[uint(k)%p.n].Add(&folded[uint(k)%p.n], &term)
		power.Mul(&power, &s)
	}
	//
	p.trace.FFT(folded, fft.DIF)
	fft.BitReverse(folded)
	//
	return folded
}

// Recover the coefficients of a polynomial from its evaluations over the
// quotient domain (in natural order).
func (p *domain) fromQuotientDomain(values []field.Element) []field.Element {
	p.large.FFTInverse(values, fft.DIF, fft.OnCoset())
	fft.BitReverse(values)
	//
	return values
}

// Blind a polynomial of degree less than n by adding (b0 + b1X + b2X^2)*Z_H.
// This leaves its values over the trace domain unchanged.
func blind(coeffs []field.Element, n uint, blinding [3]field.Element) []field.Element {
	blinded := make([]field.Element, n+3)
	copy(blinded, coeffs)
	//
	for i, b := range blinding {
		blinded[i].Sub(&blinded[i], &b)
		blinded[n+uint(i)].Add(&blinded[n+uint(i)], &b)
	}
	//
	return blinded
}

// Draw the blinding factors for a number of polynomials, in order.
func blindings(count uint, rng io.Reader) ([][3]field.Element, error) {
	var (
		factors = make([][3]field.Element, count)
		err     error
	)
	//
	for i := range factors {
		for j := range factors[i] {
			if factors[i][j], err = field.Random(rng); err != nil {
				return nil, err
			}
		}
	}
	//
	return factors, nil
}

// Evaluate a polynomial at a given point using Horner's method.
func evaluate(coeffs []field.Element, x field.Element) field.Element {
	var result field.Element
	//
	for i := len(coeffs) - 1; i >= 0; i-- {
		result.Mul(&result, &x)
		result.Add(&result, &coeffs[i])
	}
	//
	return result
}

// Evaluate every Lagrange basis polynomial of the trace domain at a point x
// outside that domain.  The ith basis polynomial is w^i(x^n-1)/(n(x-w^i)).
func lagrangeBasis(n uint, omega field.Element, x field.Element) []field.Element {
	var (
		zh     = vanishing(n, x)
		size   = field.Uint64(uint64(n))
		powers = field.Powers(omega, n)
		denoms = make([]field.Element, n)
	)
	//
	for i := range denoms {
		denoms[i].Sub(&x, &powers[i])
		denoms[i].Mul(&denoms[i], &size)
	}
	//
	basis := fr.BatchInvert(denoms)
	//
	for i := range basis {
		basis[i].Mul(&basis[i], &powers[i])
		basis[i].Mul(&basis[i], &zh)
	}
	//
	return basis
}

// Evaluate the vanishing polynomial X^n-1 of the trace domain at x.
func vanishing(n uint, x field.Element) field.Element {
	var zh field.Element
	//
	zh.Exp(x, new(big.Int).SetUint64(uint64(n)))
	//
	return *zh.Sub(&zh, new(field.Element).SetOne())
}
