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
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// HalfBits is the number of weighted bits used to decompose a value in the
// range [0, Half].  The low HalfBits-1 bits carry their usual binary weight,
// whilst the top bit carries weight Half - 2^(HalfBits-1) + 1.  Since 2^251 <=
// Half < 2^252, every value of [0, Half] is representable, and no value above
// Half is.
const HalfBits = 252

var (
	// half is (p-1)/2 as a big integer.
	half big.Int
	// lowLimit is 2^(HalfBits-1).
	lowLimit big.Int
	// topWeight is the weight of the most significant bit.
	topWeight big.Int
	// Field counterparts of the above.
	halfElement      fr.Element
	halfPlusOne      fr.Element
	halfWeights      [HalfBits]fr.Element
	halfWeightsSlice []fr.Element
)

func init() {
	half.Sub(fr.Modulus(), big.NewInt(1))
	half.Rsh(&half, 1)
	lowLimit.Lsh(big.NewInt(1), HalfBits-1)
	topWeight.Sub(&half, &lowLimit)
	topWeight.Add(&topWeight, big.NewInt(1))
	//
	halfElement.SetBigInt(&half)
	halfPlusOne.SetOne()
	halfPlusOne.Add(&halfPlusOne, &halfElement)
	//
	for i := range HalfBits - 1 {
		halfWeights[i] = TwoPowN(uint(i))
	}
	//
	halfWeights[HalfBits-1].SetBigInt(&topWeight)
	halfWeightsSlice = halfWeights[:]
}

// Half returns (p-1)/2, the largest element of the "low" half of the field.
func Half() Element {
	return halfElement
}

// HalfPlusOne returns (p+1)/2, the smallest element of the "high" half of the
// field.
func HalfPlusOne() Element {
	return halfPlusOne
}

// HalfWeights returns the weights of the decomposition performed by
// SplitHalf.  The returned slice must not be modified.
func HalfWeights() []Element {
	return halfWeightsSlice
}

// IsHigh checks whether a given element lies strictly above Half (when viewed
// as a canonical unsigned integer).
func IsHigh(x Element) bool {
	return x.Cmp(&halfElement) > 0
}

// SplitHalf decomposes a value v <= Half into HalfBits weighted bits, such that
// v = sum(w_i * bit_i) for the weights returned by HalfWeights.  If v is above
// Half, then false is returned.
func SplitHalf(v Element) ([HalfBits]bool, bool) {
	var (
		bits [HalfBits]bool
		n    big.Int
	)
	//
	if IsHigh(v) {
		return bits, false
	}
	//
	v.BigInt(&n)
	//
	if n.Cmp(&lowLimit) >= 0 {
		bits[HalfBits-1] = true
		n.Sub(&n, &topWeight)
	}
	//
	for i := range HalfBits - 1 {
		bits[i] = n.Bit(i) == 1
	}
	//
	return bits, true
}

// Remainder splits a field element into its half flag and remainder.  That is,
// x = h*(Half+1) + r where h is 0 iff x <= Half, and r lies within [0, Half].
func Remainder(x Element) (bool, Element) {
	if IsHigh(x) {
		var r Element
		//
		r.Sub(&x, &halfPlusOne)
		//
		return true, r
	}
	//
	return false, x
}
