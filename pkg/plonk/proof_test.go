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
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/consensys/go-zkvm/pkg/util"
	"github.com/consensys/go-zkvm/pkg/util/assert"
	"github.com/consensys/go-zkvm/pkg/util/field"
)

const (
	commitmentEntry = 2 + 48
	evaluationEntry = 2 + field.Bytes
)

func Test_Proof_01(t *testing.T) {
	// Encoding round trip
	pk, vk := testKeys(t)
	proof := product(t, pk, 20)
	//
	data, err := proof.MarshalBinary()
	assert.NoError(t, err)
	//
	var decoded Proof
	assert.NoError(t, decoded.UnmarshalBinary(data))
	//
	again, err := decoded.MarshalBinary()
	assert.NoError(t, err)
	assert.True(t, bytes.Equal(data, again))
	assert.Equal(t, proof.Digest(), decoded.Digest())
	assert.True(t, Verify(vk, &decoded, field.Vector(42)))
}

func Test_Proof_02(t *testing.T) {
	// Decoding is independent of entry order
	pk, _ := testKeys(t)
	proof := product(t, pk, 21)
	data, _ := proof.MarshalBinary()
	commitments := commitmentsOffset(proof)
	evaluations := commitments + int(NumCommitments)*commitmentEntry + 3
	//
	shuffled := bytes.Clone(data)
	swap(shuffled, commitments, commitments+commitmentEntry, commitmentEntry)
	swap(shuffled, commitments, commitments+10*commitmentEntry, commitmentEntry)
	swap(shuffled, evaluations+evaluationEntry, evaluations+5*evaluationEntry, evaluationEntry)
	assert.False(t, bytes.Equal(data, shuffled))
	//
	var decoded Proof
	assert.NoError(t, decoded.UnmarshalBinary(shuffled))
	//
	again, _ := decoded.MarshalBinary()
	assert.True(t, bytes.Equal(data, again))
}

func Test_Proof_03(t *testing.T) {
	// Duplicate and unknown identifiers are rejected
	var (
		pk, _       = testKeys(t)
		proof       = product(t, pk, 22)
		data, _     = proof.MarshalBinary()
		commitments = commitmentsOffset(proof)
		decoded     Proof
	)
	//
	duplicate := bytes.Clone(data)
	binary.BigEndian.PutUint16(duplicate[commitments+commitmentEntry:], 0)
	assert.ErrorIs(t, decoded.UnmarshalBinary(duplicate), ErrMalformedProof)
	//
	unknown := bytes.Clone(data)
	binary.BigEndian.PutUint16(unknown[commitments:], 0xffff)
	assert.ErrorIs(t, decoded.UnmarshalBinary(unknown), ErrMalformedProof)
}

func Test_Proof_04(t *testing.T) {
	// Truncated input and trailing bytes are rejected
	var (
		pk, _   = testKeys(t)
		data, _ = product(t, pk, 23).MarshalBinary()
		decoded Proof
	)
	//
	for _, n := range []int{0, 3, 5, 9, 40, len(data) / 2, len(data) - 1} {
		assert.ErrorIs(t, decoded.UnmarshalBinary(data[:n]), ErrMalformedProof)
	}
	//
	assert.ErrorIs(t, decoded.UnmarshalBinary(append(bytes.Clone(data), 0)), ErrMalformedProof)
}

func Test_Proof_05(t *testing.T) {
	// Non-canonical field elements are rejected
	var (
		pk, _   = testKeys(t)
		proof   = product(t, pk, 24)
		data, _ = proof.MarshalBinary()
		public  = 10 + 5 + len(proof.Program) + 5
		decoded Proof
	)
	//
	for i := range field.Bytes {
		data[public+i] = 0xff
	}
	//
	assert.ErrorIs(t, decoded.UnmarshalBinary(data), ErrMalformedProof)
}

func Test_Proof_06(t *testing.T) {
	// Bad magic and versions are rejected
	var (
		pk, _   = testKeys(t)
		data, _ = product(t, pk, 25).MarshalBinary()
		decoded Proof
	)
	//
	for _, i := range []int{0, 4} {
		tampered := bytes.Clone(data)
		tampered[i]++
		assert.ErrorIs(t, decoded.UnmarshalBinary(tampered), ErrMalformedProof)
	}
}

func Test_Proof_07(t *testing.T) {
	// Every single bit flip is rejected, either when decoding or verifying
	var (
		pk, vk  = testKeys(t)
		data, _ = product(t, pk, 26).MarshalBinary()
		rng     = util.NewStream(26)
		buf     [8]byte
	)
	//
	for range 48 {
		_, _ = rng.Read(buf[:])
		bit := binary.BigEndian.Uint64(buf[:]) % uint64(8*len(data))
		//
		tampered := bytes.Clone(data)
		tampered[bit/8] ^= 1 << (bit % 8)
		//
		var decoded Proof
		//
		if err := decoded.UnmarshalBinary(tampered); err == nil {
			assert.False(t, Verify(vk, &decoded, field.Vector(42)), "bit %d accepted", bit)
		}
	}
}

func Test_Proof_08(t *testing.T) {
	// Bit flips within the header and statement specifically
	var (
		pk, vk  = testKeys(t)
		proof   = product(t, pk, 27)
		data, _ = proof.MarshalBinary()
		end     = commitmentsOffset(proof)
	)
	//
	for bit := range 8 * end {
		tampered := bytes.Clone(data)
		tampered[bit/8] ^= 1 << (bit % 8)
		//
		var decoded Proof
		//
		if err := decoded.UnmarshalBinary(tampered); err == nil {
			assert.False(t, Verify(vk, &decoded, field.Vector(42)), "bit %d accepted", bit)
		}
	}
}

// Offset of the first commitment entry within an encoded proof.
func commitmentsOffset(proof *Proof) int {
	return 10 + 5 + len(proof.Program) + 5 + field.Bytes*len(proof.Public) + 3
}

func swap(data []byte, i, j, n int) {
	tmp := bytes.Clone(data[i : i+n])
	copy(data[i:i+n], data[j:j+n])
	copy(data[j:j+n], tmp)
}
