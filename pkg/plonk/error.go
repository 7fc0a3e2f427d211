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

	"github.com/consensys/go-zkvm/pkg/arith"
)

// ErrPublicInputMismatch is returned when the public inputs supplied for a
// proof differ from the final stack of the trace being proved.
var ErrPublicInputMismatch = errors.New("public inputs do not match final stack")

// ProvingErrorKind identifies the kind of a proving error.
type ProvingErrorKind uint8

// ConstraintUnsatisfied indicates the witness violates the constraint system.
// This arises only from an internal inconsistency between the execution
// engine and the arithmetiser.
const ConstraintUnsatisfied ProvingErrorKind = 0

// ProvingError is returned when a proof cannot be generated for a witness.
type ProvingError struct {
	Kind ProvingErrorKind
	// Violation identifies the first failing constraint and row
	Violation *arith.Violation
}

func (p *ProvingError) Error() string {
	return fmt.Sprintf("constraint unsatisfied: %s", p.Violation.Error())
}

// Unwrap returns the underlying violation.
func (p *ProvingError) Unwrap() error {
	return p.Violation
}
