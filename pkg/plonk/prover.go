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
	"io"
	"slices"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/kzg"
	"github.com/consensys/go-zkvm/pkg/arith"
	"github.com/consensys/go-zkvm/pkg/trace"
	"github.com/consensys/go-zkvm/pkg/util"
	"github.com/consensys/go-zkvm/pkg/util/field"
	log "github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"
)

// ProveTrace arithmetises a trace and proves it, with the given public inputs.
// These must match the final stack of the trace.
func ProveTrace(pk *ProvingKey, tr *trace.Trace, public []field.Element, rng io.Reader) (*Proof, error) {
	if tr == nil {
		return nil, arith.ErrIncompleteTrace
	} else if !slices.Equal(public, tr.Stack) {
		return nil, ErrPublicInputMismatch
	}
	//
	cs, w, err := arith.Build(tr, pk.MaxRows())
	if err != nil {
		return nil, err
	}
	//
	return Prove(pk, cs, w, rng)
}

// Prove generates a proof that a given witness satisfies a given constraint
// system.  The witness is extended in place with the challenge-dependent
// columns.  Blinding factors are drawn from the given source of randomness.
func Prove(pk *ProvingKey, cs *arith.ConstraintSystem, w *arith.Witness, rng io.Reader) (*Proof, error) {
	var (
		stats  = util.NewPerfStats()
		inst   = cs.Instance()
		n      = inst.N
		proof  = &Proof{Rows: n, Program: slices.Clone(inst.Program), Public: slices.Clone(inst.Public)}
		coeffs = make([][]field.Element, NumCommitments)
		fs     = newTranscript()
	)
	//
	if !arith.ValidDomain(n, pk.MaxRows()) {
		return nil, fmt.Errorf("%w (%d rows required, at most %d supported)", arith.ErrTraceTooLarge, n,
			pk.MaxRows())
	}
	//
	d := newDomain(n)
	// Trace columns
	if err := commitColumns(pk, d, w, 0, arith.NumTrace, rng, coeffs, proof.Commitments[:]); err != nil {
		return nil, err
	}
	//
	ch, err := fs.challenges(pk.vk.Circuit, n, proof.Program, proof.Public, proof.Commitments[:arith.NumTrace])
	if err != nil {
		return nil, err
	}
	//
	params := arith.NewParams(ch, inst.Public)
	w.Extend(inst, params)
	//
	if err := cs.Check(w, params); err != nil {
		var violation *arith.Violation
		//
		if errors.As(err, &violation) {
			err = &ProvingError{ConstraintUnsatisfied, violation}
			log.Error(err.Error())
		}
		//
		return nil, err
	}
	// Challenge-dependent columns
	err = commitColumns(pk, d, w, arith.NumTrace, arith.NumColumns, rng, coeffs, proof.Commitments[:])
	if err != nil {
		return nil, err
	}
	//
	alpha, err := fs.alpha(proof.Commitments[arith.NumTrace:arith.NumColumns])
	if err != nil {
		return nil, err
	}
	// Quotient
	if err := commitQuotient(pk, d, inst, params, alpha, coeffs, proof); err != nil {
		return nil, err
	}
	//
	zeta, err := fs.zeta(proof.Commitments[Quotient])
	if err != nil {
		return nil, err
	}
	// Openings
	if err := open(pk, d, zeta, coeffs, proof); err != nil {
		return nil, err
	}
	//
	log.WithFields(log.Fields{"rows": n, "commitments": NumCommitments}).Debug("generated proof")
	stats.Log("Proof generation")
	//
	return proof, nil
}

// Interpolate, blind and commit to a contiguous range of witness columns.
// Blinding factors are drawn up front, so that the use of the random source
// is independent of scheduling.
func commitColumns(pk *ProvingKey, d *domain, w *arith.Witness, from, to arith.Column, rng io.Reader,
	coeffs [][]field.Element, digests []kzg.Digest) error {
	var count = uint(to - from)
	//
	factors, err := blindings(count, rng)
	if err != nil {
		return err
	}
	//
	return util.ParExec(count, 0, func(i uint) error {
		var (
			col = from + arith.Column(i)
			err error
		)
		//
		coeffs[col] = blind(d.interpolate(w.Column(col)), d.n, factors[i])
		digests[col], err = kzg.Commit(coeffs[col], pk.kzg)
		//
		return err
	})
}

func commitQuotient(pk *ProvingKey, d *domain, inst *arith.Instance, params *arith.Params, alpha field.Element,
	coeffs [][]field.Element, proof *Proof) error {
	var (
		stats       = util.NewPerfStats()
		pc, op, imm = inst.Table()
		table       = [3][]field.Element{d.interpolate(pc), d.interpolate(op), d.interpolate(imm)}
	)
	//
	t, err := quotient(d, coeffs[:arith.NumColumns], table, params, alpha)
	if err != nil {
		return err
	}
	//
	coeffs[Quotient] = t
	proof.Commitments[Quotient], err = kzg.Commit(t, pk.kzg)
	//
	stats.Log("Quotient")
	//
	return err
}

// Open every committed polynomial at zeta, and the shifted columns at
// omega*zeta.
func open(pk *ProvingKey, d *domain, zeta field.Element, coeffs [][]field.Element, proof *Proof) error {
	var (
		omega        = d.omega()
		shiftedZeta  field.Element
		shiftedPolys = make([][]field.Element, len(arith.Shifted))
		shiftedComms = make([]kzg.Digest, len(arith.Shifted))
	)
	//
	shiftedZeta.Mul(&zeta, &omega)
	//
	opening, err := kzg.BatchOpenSinglePoint(coeffs, proof.Commitments[:], zeta, blake3.New(), pk.kzg)
	if err != nil {
		return err
	}
	//
	copy(proof.Evaluations[:], opening.ClaimedValues)
	proof.Openings[0] = opening.H
	//
	for i, col := range arith.Shifted {
		shiftedPolys[i] = coeffs[col]
		shiftedComms[i] = proof.Commitments[col]
	}
	//
	opening, err = kzg.BatchOpenSinglePoint(shiftedPolys, shiftedComms, shiftedZeta, blake3.New(), pk.kzg)
	if err != nil {
		return err
	}
	//
	proof.Shifted = opening.ClaimedValues
	proof.Openings[1] = opening.H
	//
	return nil
}
