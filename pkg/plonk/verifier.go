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
	"errors"
	"fmt"
	"slices"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/kzg"
	"github.com/consensys/go-zkvm/pkg/arith"
	"github.com/consensys/go-zkvm/pkg/util/field"
	log "github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"
)

var (
	errMissing    = errors.New("missing key or proof")
	errIdentity   = errors.New("quotient identity does not hold")
	errDegenerate = errors.New("evaluation point lies within trace domain")
)

// Verify checks a proof against a given set of public inputs.  This never
// fails on malformed input; instead, such proofs are simply rejected (with the
// reason logged at debug level).
func Verify(vk *VerificationKey, proof *Proof, public []field.Element) bool {
	if err := verify(vk, proof, public); err != nil {
		log.Debugf("rejected proof: %s", err.Error())
		return false
	}
	//
	return true
}

func verify(vk *VerificationKey, proof *Proof, public []field.Element) error {
	// Check shape of proof
	if vk == nil || proof == nil {
		return errMissing
	} else if vk.Circuit != arith.Digest() {
		return ErrCircuitMismatch
	} else if !arith.ValidDomain(proof.Rows, vk.MaxRows) {
		return fmt.Errorf("invalid domain size %d (at most %d supported)", proof.Rows, vk.MaxRows)
	} else if !slices.Equal(public, proof.Public) {
		return ErrPublicInputMismatch
	} else if len(proof.Shifted) != len(arith.Shifted) {
		return fmt.Errorf("%w (expected %d shifted evaluations)", ErrMalformedProof, len(arith.Shifted))
	}
	//
	inst, err := arith.NewInstance(proof.Rows, proof.Program, proof.Public)
	if err != nil {
		return err
	}
	// Replay transcript
	var fs = newTranscript()
	//
	ch, err := fs.challenges(vk.Circuit, proof.Rows, proof.Program, proof.Public,
		proof.Commitments[:arith.NumTrace])
	if err != nil {
		return err
	}
	//
	alpha, err := fs.alpha(proof.Commitments[arith.NumTrace:arith.NumColumns])
	if err != nil {
		return err
	}
	//
	zeta, err := fs.zeta(proof.Commitments[Quotient])
	if err != nil {
		return err
	}
	//
	omega, err := fr.Generator(uint64(proof.Rows))
	if err != nil {
		return err
	}
	//
	if err := checkIdentity(inst, ch, alpha, zeta, omega, proof); err != nil {
		return err
	}
	//
	return checkOpenings(vk, zeta, omega, proof)
}

// Check the constraints hold at zeta, that is sum alpha^i C_i(zeta) equals
// t(zeta)Z_H(zeta).  The fixed polynomials are evaluated directly, with the
// program table evaluated in barycentric form.
func checkIdentity(inst *arith.Instance, ch arith.Challenges, alpha, zeta, omega field.Element,
	proof *Proof) error {
	var (
		n     = inst.N
		zh    = vanishing(n, zeta)
		fixed arith.Fixed
		out   = make([]field.Element, arith.NumConstraints)
		rhs   field.Element
	)
	//
	if zh.IsZero() {
		return errDegenerate
	}
	//
	var (
		basis       = lagrangeBasis(n, omega, zeta)
		pc, op, imm = inst.Table()
	)
	//
	fixed.L0, fixed.Ln = basis[0], basis[n-1]
	fixed.PC, fixed.Op, fixed.Imm = dot(basis, pc), dot(basis, op), dot(basis, imm)
	//
	arith.Evaluate(&proofRow{proof}, &fixed, arith.NewParams(ch, proof.Public), out)
	//
	lhs := combine(out, alpha)
	rhs.Mul(&proof.Evaluations[Quotient], &zh)
	//
	if !lhs.Equal(&rhs) {
		return errIdentity
	}
	//
	return nil
}

// Check the batch openings at zeta and omega*zeta.
func checkOpenings(vk *VerificationKey, zeta, omega field.Element, proof *Proof) error {
	var (
		shiftedZeta  field.Element
		shiftedComms = make([]kzg.Digest, len(arith.Shifted))
		opening      = kzg.BatchOpeningProof{H: proof.Openings[0], ClaimedValues: proof.Evaluations[:]}
	)
	//
	if err := kzg.BatchVerifySinglePoint(proof.Commitments[:], &opening, zeta, blake3.New(), vk.kzg); err != nil {
		return err
	}
	//
	for i, col := range arith.Shifted {
		shiftedComms[i] = proof.Commitments[col]
	}
	//
	shiftedZeta.Mul(&zeta, &omega)
	opening = kzg.BatchOpeningProof{H: proof.Openings[1], ClaimedValues: proof.Shifted}
	//
	return kzg.BatchVerifySinglePoint(shiftedComms, &opening, shiftedZeta, blake3.New(), vk.kzg)
}

func dot(lhs, rhs []field.Element) field.Element {
	var (
		acc  field.Element
		term field.Element
	)
	//
	for i := range lhs {
		term.Mul(&lhs[i], &rhs[i])
		acc.Add(&acc, &term)
	}
	//
	return acc
}

// Claimed evaluations of every column at zeta (and of the shifted columns at
// omega*zeta).
type proofRow struct {
	proof *Proof
}

func (p *proofRow) Get(col arith.Column) field.Element {
	return p.proof.Evaluations[col]
}

func (p *proofRow) Next(col arith.Column) field.Element {
	if index, ok := col.ShiftIndex(); ok {
		return p.proof.Shifted[index]
	}
	//
	return field.Zero()
}
