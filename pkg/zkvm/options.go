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
	"io"

	"github.com/consensys/go-zkvm/pkg/plonk"
)

// Option configures a VM at construction.
type Option func(*VM)

// WithMaxStack bounds the depth of the operand stack.
func WithMaxStack(depth uint) Option {
	return func(vm *VM) {
		vm.config = vm.config.WithMaxStack(depth)
	}
}

// WithMaxSteps bounds the number of steps a run may execute.
func WithMaxSteps(steps uint) Option {
	return func(vm *VM) {
		vm.config = vm.config.WithMaxSteps(steps)
	}
}

// WithMemoryLimit bounds the addressable memory, such that only addresses
// below limit are accessible.
func WithMemoryLimit(limit uint64) Option {
	return func(vm *VM) {
		vm.config = vm.config.WithMemoryLimit(limit)
	}
}

// WithGasLimit bounds the gas a run may consume.  Zero means unlimited.
func WithGasLimit(limit uint64) Option {
	return func(vm *VM) {
		vm.config = vm.config.WithGasLimit(limit)
	}
}

// WithRandomness sets the source from which blinding factors are drawn when
// proving.  By default, a cryptographically secure source is used.  Supplying
// a deterministic source makes proofs reproducible.
func WithRandomness(rng io.Reader) Option {
	return func(vm *VM) {
		vm.rng = rng
	}
}

// WithProvingKey sets the key used by GenerateProof.
func WithProvingKey(pk *plonk.ProvingKey) Option {
	return func(vm *VM) {
		vm.pk = pk
	}
}
