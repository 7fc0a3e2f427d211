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
	"math/rand"
	"testing"

	"github.com/consensys/go-zkvm/pkg/util/assert"
)

func Test_SplitHalf_01(t *testing.T) {
	checkSplitHalf(t, Zero())
	checkSplitHalf(t, One())
	checkSplitHalf(t, Half())
}

func Test_SplitHalf_02(t *testing.T) {
	var below = TwoPowN(HalfBits - 1)
	//
	below.Sub(&below, &halfWeights[0])
	//
	checkSplitHalf(t, below)
	checkSplitHalf(t, TwoPowN(HalfBits-1))
}

func Test_SplitHalf_03(t *testing.T) {
	var r = rand.New(rand.NewSource(7))
	//
	for range 200 {
		var x = Uint64(r.Uint64())
		// spread over the whole field
		x.Mul(&x, &x)
		x.Mul(&x, &x)
		x.Mul(&x, &x)
		//
		if IsHigh(x) {
			_, ok := SplitHalf(x)
			assert.False(t, ok, "split of %s should fail", x.String())
		} else {
			checkSplitHalf(t, x)
		}
	}
}

func Test_SplitHalf_04(t *testing.T) {
	var (
		x    = HalfPlusOne()
		minu = Neg(1)
	)
	//
	_, ok := SplitHalf(x)
	assert.False(t, ok)
	_, ok = SplitHalf(minu)
	assert.False(t, ok)
}

func Test_Remainder_01(t *testing.T) {
	var (
		hp1       = HalfPlusOne()
		minusOne  = Neg(1)
		h, r      = Remainder(minusOne)
		expect    Element
		recovered Element
	)
	// -1 = (p-1) = 2*Half, hence remainder is Half - 1
	expect.Sub(&halfElement, &halfWeights[0])
	assert.True(t, h)
	assert.Equal(t, expect, r)
	//
	recovered.Add(&r, &hp1)
	assert.Equal(t, minusOne, recovered)
	//
	h, r = Remainder(Uint64(5))
	assert.False(t, h)
	assert.Equal(t, Uint64(5), r)
}

func Test_Powers_01(t *testing.T) {
	powers := Powers(Uint64(3), 5)
	assert.Equal(t, Vector(1, 3, 9, 27, 81), powers)
}

func checkSplitHalf(t *testing.T, v Element) {
	bits, ok := SplitHalf(v)
	assert.True(t, ok, "split of %s failed", v.String())
	//
	var sum Element
	//
	for i, b := range bits {
		if b {
			sum.Add(&sum, &halfWeights[i])
		}
	}
	//
	assert.Equal(t, v, sum, "reconstruction mismatch")
}
