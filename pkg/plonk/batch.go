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
	"sync"

	"github.com/consensys/go-zkvm/pkg/util/field"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"
)

// VerifyBatch checks a number of independent proofs, each against its own
// public inputs.  Proofs are checked concurrently when parallel is set.  The
// result for each proof is returned in order, and a missing set of public
// inputs is a reject.
func VerifyBatch(vk *VerificationKey, proofs []*Proof, inputs [][]field.Element, parallel bool) []bool {
	return verifyBatch(proofs, inputs, parallel, func(proof *Proof, public []field.Element) bool {
		return Verify(vk, proof, public)
	})
}

func verifyBatch(proofs []*Proof, inputs [][]field.Element, parallel bool,
	check func(*Proof, []field.Element) bool) []bool {
	var (
		results = make([]bool, len(proofs))
		wg      sync.WaitGroup
	)
	//
	for i := range proofs {
		if i >= len(inputs) {
			break
		} else if !parallel {
			results[i] = check(proofs[i], inputs[i])
			continue
		}
		//
		wg.Add(1)
		//
		go func(i int) {
			defer wg.Done()
			results[i] = check(proofs[i], inputs[i])
		}(i)
	}
	//
	wg.Wait()
	//
	return results
}

// DefaultCacheSize is the number of verification outcomes remembered by a
// Verifier, unless otherwise specified.
const DefaultCacheSize = 1024

// Verifier checks proofs against a fixed verification key, remembering the
// outcome for recently seen proofs.  A Verifier is safe for concurrent use.
type Verifier struct {
	vk    *VerificationKey
	cache *lru.Cache[[32]byte, bool]
}

// NewVerifier constructs a verifier for a given key, remembering at most size
// outcomes.
func NewVerifier(vk *VerificationKey, size int) (*Verifier, error) {
	cache, err := lru.New[[32]byte, bool](size)
	if err != nil {
		return nil, err
	}
	//
	return &Verifier{vk, cache}, nil
}

// Key returns the verification key used by this verifier.
func (p *Verifier) Key() *VerificationKey {
	return p.vk
}

// Verify checks a proof against given public inputs, consulting the cache of
// earlier outcomes first.
func (p *Verifier) Verify(proof *Proof, public []field.Element) bool {
	if proof == nil {
		return false
	}
	//
	key := cacheKey(proof, public)
	//
	if outcome, ok := p.cache.Get(key); ok {
		return outcome
	}
	//
	outcome := Verify(p.vk, proof, public)
	p.cache.Add(key, outcome)
	//
	return outcome
}

// VerifyBatch checks a number of independent proofs concurrently.
func (p *Verifier) VerifyBatch(proofs []*Proof, inputs [][]field.Element) []bool {
	return verifyBatch(proofs, inputs, true, p.Verify)
}

// Len returns the number of outcomes currently cached.
func (p *Verifier) Len() int {
	return p.cache.Len()
}

// Outcomes are keyed by the proof digest together with the public inputs
// against which it was checked.
func cacheKey(proof *Proof, public []field.Element) [32]byte {
	var (
		hasher = blake3.New()
		digest = proof.Digest()
		key    [32]byte
	)
	//
	_, _ = hasher.Write(digest[:])
	//
	for i := range public {
		bytes := public[i].Bytes()
		_, _ = hasher.Write(bytes[:])
	}
	//
	copy(key[:], hasher.Sum(nil))
	//
	return key
}
