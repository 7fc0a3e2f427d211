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
package field

import (
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// Element is the scalar field of BLS12-377, which is used throughout for
// machine words, constraint wires and polynomial coefficients.
type Element = fr.Element

// Bytes is the size (in bytes) of a canonically encoded element.
const Bytes = fr.Bytes

// Zero constructs a field element representing 0
func Zero() Element {
	var element Element
	//
	return element
}

// One constructs a field element representing 1
func One() Element {
	return fr.One()
}

// Uint64 construct a field element from a given uint64
func Uint64(val uint64) Element {
	var element Element
	//
	element.SetUint64(val)
	//
	return element
}

// Neg constructs the field element -val.
func Neg(val uint64) Element {
	var element Element
	//
	element.SetUint64(val)
	element.Neg(&element)
	//
	return element
}

// TwoPowN constructs a field element representing 2^n
func TwoPowN(n uint) Element {
	var (
		element Element
		v       big.Int
	)
	//
	v.Lsh(big.NewInt(1), n)
	element.SetBigInt(&v)
	//
	return element
}

// FromCanonical decodes a 32-byte big endian encoding of a field element,
// failing if the encoded integer is not strictly below the modulus.
func FromCanonical(bytes []byte) (Element, error) {
	var element Element
	//
	if err := element.SetBytesCanonical(bytes); err != nil {
		return element, fmt.Errorf("non-canonical field element: %w", err)
	}
	//
	return element, nil
}

// Random draws a uniformly distributed field element from a given source of
// randomness.  The reduction is performed from 512 bits, so the bias is
// negligible.
func Random(rng io.Reader) (Element, error) {
	var (
		buf     [2 * Bytes]byte
		element Element
		v       big.Int
	)
	//
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return element, err
	}
	//
	v.SetBytes(buf[:])
	v.Mod(&v, fr.Modulus())
	element.SetBigInt(&v)
	//
	return element, nil
}

// Powers returns the sequence 1, x, x^2, ..., x^(n-1).
func Powers(x Element, n uint) []Element {
	powers := make([]Element, n)
	//
	if n > 0 {
		powers[0].SetOne()
	}
	//
	for i := uint(1); i < n; i++ {
		powers[i].Mul(&powers[i-1], &x)
	}
	//
	return powers
}

// Vector constructs a column of field elements from a list of unsigned
// integers.
func Vector(values ...uint64) []Element {
	elements := make([]Element, len(values))
	//
	for i, v := range values {
		elements[i].SetUint64(v)
	}
	//
	return elements
}

// Modulus returns the (prime) order of the field.
func Modulus() *big.Int {
	return fr.Modulus()
}
