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
	"encoding/binary"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/kzg"
	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"
	"github.com/consensys/go-zkvm/pkg/arith"
	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/zeebo/blake3"
)

// Challenge identifiers, in the order they are derived.
const (
	challengeEta   = "eta"
	challengeDelta = "delta"
	challengeBeta  = "beta"
	challengeGamma = "gamma"
	challengeAlpha = "alpha"
	challengeZeta  = "zeta"
)

const transcriptDomain = "go-zkvm/plonk/v1"

// Transcript derives the verifier's challenges from everything sent so far.
// The prover and verifier drive it identically, hence derivation is entirely
// deterministic.
type transcript struct {
	fs *fiatshamir.Transcript
}

func newTranscript() *transcript {
	fs := fiatshamir.NewTranscript(blake3.New(), challengeEta, challengeDelta, challengeBeta, challengeGamma,
		challengeAlpha, challengeZeta)
	//
	return &transcript{fs}
}

// Bind the public statement (i.e. circuit, domain size, program and public
// inputs) along with the trace column commitments, then derive the lookup and
// permutation challenges.
func (p *transcript) challenges(circuit [32]byte, n uint, program []byte, public []field.Element,
	commitments []kzg.Digest) (arith.Challenges, error) {
	var (
		ch  arith.Challenges
		err error
	)
	//
	statement := []byte(transcriptDomain)
	statement = append(statement, circuit[:]...)
	statement = binary.BigEndian.AppendUint64(statement, uint64(n))
	statement = binary.BigEndian.AppendUint64(statement, uint64(len(program)))
	statement = append(statement, program...)
	statement = binary.BigEndian.AppendUint64(statement, uint64(len(public)))
	//
	for i := range public {
		bytes := public[i].Bytes()
		statement = append(statement, bytes[:]...)
	}
	//
	if err = p.fs.Bind(challengeEta, statement); err != nil {
		return ch, err
	} else if err = p.bindAll(challengeEta, commitments); err != nil {
		return ch, err
	}
	//
	if ch.Eta, err = p.challenge(challengeEta); err != nil {
		return ch, err
	} else if ch.Delta, err = p.challenge(challengeDelta); err != nil {
		return ch, err
	} else if ch.Beta, err = p.challenge(challengeBeta); err != nil {
		return ch, err
	}
	//
	ch.Gamma, err = p.challenge(challengeGamma)
	//
	return ch, err
}

// Bind the commitments to the challenge-dependent columns and derive alpha.
func (p *transcript) alpha(commitments []kzg.Digest) (field.Element, error) {
	if err := p.bindAll(challengeAlpha, commitments); err != nil {
		return field.Element{}, err
	}
	//
	return p.challenge(challengeAlpha)
}

// Bind the quotient commitment and derive the evaluation point.
func (p *transcript) zeta(quotient kzg.Digest) (field.Element, error) {
	if err := p.bindAll(challengeZeta, []kzg.Digest{quotient}); err != nil {
		return field.Element{}, err
	}
	//
	return p.challenge(challengeZeta)
}

func (p *transcript) bindAll(id string, commitments []kzg.Digest) error {
	for i := range commitments {
		bytes := commitments[i].Bytes()
		//
		if err := p.fs.Bind(id, bytes[:]); err != nil {
			return err
		}
	}
	//
	return nil
}

func (p *transcript) challenge(id string) (field.Element, error) {
	var value field.Element
	//
	bytes, err := p.fs.ComputeChallenge(id)
	if err != nil {
		return value, err
	}
	//
	value.SetBytes(bytes)
	//
	return value, nil
}
