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
package arith

import (
	"errors"
	"fmt"

	"github.com/consensys/go-zkvm/pkg/vm/instruction"
)

var (
	// ErrTraceTooLarge is returned when a trace needs more rows than are
	// supported by the proving key.
	ErrTraceTooLarge = errors.New("trace too large")
	// ErrIncompleteTrace is returned for a trace which does not end with STOP
	// (e.g. because execution faulted).
	ErrIncompleteTrace = errors.New("trace does not end with STOP")
)

// ErrorKind identifies the kind of an arithmetisation error.
type ErrorKind uint8

// UnsupportedOpcode indicates a step executed an opcode with no gadget.
const UnsupportedOpcode ErrorKind = 0

// Error is returned when a trace cannot be arithmetised.
type Error struct {
	Kind ErrorKind
	// Step at which the problem arose
	Step uint
	// Opcode of that step
	Opcode instruction.Opcode
}

func (p *Error) Error() string {
	return fmt.Sprintf("unsupported opcode %s at step %d", p.Opcode.String(), p.Step)
}

// Violation describes a constraint which does not hold on some row of a
// witness.
type Violation struct {
	// Index of the violated constraint
	Constraint uint
	// Row on which it is violated
	Row uint
}

func (p *Violation) Error() string {
	return fmt.Sprintf("constraint \"%s\" (#%d) fails on row %d", ConstraintName(p.Constraint), p.Constraint, p.Row)
}
