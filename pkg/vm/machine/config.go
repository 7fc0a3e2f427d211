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
package machine

import "math"

// Config determines the resource limits of a machine.
type Config struct {
	// MaxStack is the maximum number of items on the stack.
	MaxStack uint
	// MaxSteps is the maximum number of steps a run may execute.
	MaxSteps uint
	// MemoryLimit is the (exclusive) upper bound on memory addresses.
	MemoryLimit uint64
	// GasLimit is the maximum amount of gas a run may consume, where zero
	// means unlimited.
	GasLimit uint64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxStack:    1024,
		MaxSteps:    1 << 16,
		MemoryLimit: math.MaxUint32 + 1,
		GasLimit:    0,
	}
}

// WithMaxStack sets the maximum stack depth.
func (p Config) WithMaxStack(depth uint) Config {
	p.MaxStack = depth
	return p
}

// WithMaxSteps sets the maximum number of steps.
func (p Config) WithMaxSteps(steps uint) Config {
	p.MaxSteps = steps
	return p
}

// WithMemoryLimit sets the address limit.
func (p Config) WithMemoryLimit(limit uint64) Config {
	p.MemoryLimit = limit
	return p
}

// WithGasLimit sets the gas limit.
func (p Config) WithGasLimit(limit uint64) Config {
	p.GasLimit = limit
	return p
}
