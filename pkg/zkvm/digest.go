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
package zkvm

import (
	"errors"

	"github.com/consensys/go-zkvm/pkg/plonk"
	"github.com/mr-tron/base58"
)

// ErrInvalidDigest is returned when parsing a malformed proof digest.
var ErrInvalidDigest = errors.New("invalid proof digest")

// Digest identifies a proof by the hash of its encoding.
type Digest [32]byte

// DigestOf returns the digest of a given proof.
func DigestOf(proof *plonk.Proof) Digest {
	return proof.Digest()
}

func (p Digest) String() string {
	return Encode(p)
}

// Encode renders a digest in base58.
func Encode(digest [32]byte) string {
	return base58.Encode(digest[:])
}

// ParseDigest parses a base58 rendering of a digest.
func ParseDigest(text string) (Digest, error) {
	var digest Digest
	//
	bytes, err := base58.Decode(text)
	if err != nil || len(bytes) != len(digest) {
		return digest, ErrInvalidDigest
	}
	//
	copy(digest[:], bytes)
	//
	return digest, nil
}
