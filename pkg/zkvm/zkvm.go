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
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"maps"

	"github.com/consensys/go-zkvm/pkg/arith"
	"github.com/consensys/go-zkvm/pkg/plonk"
	"github.com/consensys/go-zkvm/pkg/trace"
	"github.com/consensys/go-zkvm/pkg/util"
	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
	"github.com/consensys/go-zkvm/pkg/vm/machine"
	"github.com/consensys/go-zkvm/pkg/vm/memory"
	log "github.com/sirupsen/logrus"
)

// ErrNoProvingKey is returned when generating a proof on a VM constructed
// without a proving key.
var ErrNoProvingKey = errors.New("no proving key")

// ErrInvalidConfig is returned when constructing a VM whose configuration
// permits runs which could not be proved.
var ErrInvalidConfig = errors.New("invalid configuration")

// VM bundles a decoded program with its initial memory, resource limits and
// (optionally) the key needed to prove its executions.  A VM is immutable
// once constructed and may be executed any number of times.
type VM struct {
	program *instruction.Program
	initial map[uint32]field.Element
	config  machine.Config
	rng     io.Reader
	pk      *plonk.ProvingKey
}

// Construct a VM for a given program and initial memory.  The program is
// decoded eagerly, hence malformed programs are reported here (as a
// *instruction.DecodeError) rather than during execution.
func Construct(program []byte, initial map[uint32]field.Element, opts ...Option) (*VM, error) {
	decoded, err := instruction.DecodeAll(program)
	if err != nil {
		return nil, err
	}
	//
	vm := &VM{decoded, maps.Clone(initial), machine.DefaultConfig(), rand.Reader, nil}
	//
	for _, opt := range opts {
		opt(vm)
	}
	// Stack depths must fit the circuit's stack pointer range check
	if vm.config.MaxStack >= 1<<arith.SPBits {
		return nil, fmt.Errorf("%w (max stack %d, must be below %d)", ErrInvalidConfig, vm.config.MaxStack,
			1<<arith.SPBits)
	}
	// Check initial memory fits
	if _, err := memory.NewMemory(vm.config.MemoryLimit, initial); err != nil {
		return nil, err
	}
	//
	log.WithFields(log.Fields{"bytes": decoded.Size(), "instructions": decoded.Len()}).Debug("decoded program")
	//
	return vm, nil
}

// Program returns the decoded program of this VM.
func (p *VM) Program() *instruction.Program {
	return p.program
}

// Config returns the resource limits of this VM.
func (p *VM) Config() machine.Config {
	return p.config
}

// Execute runs the program to completion.  On success, the trace of the run
// is returned.  Otherwise, the partial trace is returned along with a
// *machine.Fault identifying the step which failed.
func (p *VM) Execute() (*trace.Trace, error) {
	stats := util.NewPerfStats()
	tr, err := machine.Run(p.program, p.initial, p.config)
	//
	if err != nil && tr != nil {
		log.WithFields(log.Fields{"steps": tr.Len()}).Debugf("execution faulted: %s", err)
		return tr, err
	} else if err != nil {
		return nil, err
	}
	//
	log.WithFields(log.Fields{"steps": tr.Len(), "gas": tr.GasUsed, "stack": len(tr.Stack)}).Debug("executed program")
	stats.Log("Execution")
	tr.LogStats()
	//
	return tr, nil
}

// GenerateProof proves a given trace of this VM, with the given public inputs
// (which must be the final stack of the trace).
func (p *VM) GenerateProof(tr *trace.Trace, public []field.Element) (*plonk.Proof, error) {
	if p.pk == nil {
		return nil, ErrNoProvingKey
	} else if tr == nil {
		return nil, arith.ErrIncompleteTrace
	}
	//
	proof, err := plonk.ProveTrace(p.pk, tr, public, p.rng)
	//
	var (
		aerr *arith.Error
		perr *plonk.ProvingError
	)
	//
	switch {
	case err == nil:
		log.WithFields(log.Fields{"rows": proof.Rows, "digest": Encode(proof.Digest())}).Debug("generated proof")
	case errors.As(err, &aerr), errors.Is(err, arith.ErrTraceTooLarge), errors.Is(err, arith.ErrIncompleteTrace):
		log.WithFields(log.Fields{"steps": tr.Len()}).Errorf("cannot arithmetise trace: %s", err)
	case errors.As(err, &perr):
		// already reported by the prover
	default:
		log.Debugf("proving failed: %s", err)
	}
	//
	return proof, err
}

// Prove is a convenience which executes this VM and proves the resulting
// trace, taking the final stack as the public inputs.
func (p *VM) Prove() (*trace.Trace, *plonk.Proof, error) {
	tr, err := p.Execute()
	if err != nil {
		return tr, nil, err
	}
	//
	proof, err := p.GenerateProof(tr, tr.PublicInputs())
	//
	return tr, proof, err
}

// VerifyProof checks a proof against the given public inputs.  Verification
// never fails with an error: a malformed or invalid proof is simply rejected.
func VerifyProof(proof *plonk.Proof, public []field.Element, vk *plonk.VerificationKey) bool {
	return plonk.Verify(vk, proof, public)
}

// VerifyBatch checks a sequence of independent proofs concurrently, where the
// ith proof is checked against the ith public inputs.
func VerifyBatch(vk *plonk.VerificationKey, proofs []*plonk.Proof, inputs [][]field.Element) []bool {
	return plonk.VerifyBatch(vk, proofs, inputs, true)
}
