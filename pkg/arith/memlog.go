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
	"slices"

	"github.com/consensys/go-zkvm/pkg/util/field"
)

// Access is a single entry of the memory log.  Stack slots and memory
// addresses share a single key space, with stack slots offset by KeyBase.
type Access struct {
	Key   field.Element
	Time  field.Element
	Value field.Element
	Write bool
}

// SortLog sorts a memory log by key and then time.  Since neither keys nor
// times are anywhere near the modulus, the canonical ordering of field
// elements coincides with their integer ordering.
func SortLog(log []Access) {
	slices.SortFunc(log, compareAccess)
}

// IsSortedLog checks whether a memory log is strictly increasing by key and
// then time.
func IsSortedLog(log []Access) bool {
	for i := 1; i < len(log); i++ {
		if compareAccess(log[i-1], log[i]) >= 0 {
			return false
		}
	}
	//
	return true
}

func compareAccess(lhs, rhs Access) int {
	// Compare keys
	if c := lhs.Key.Cmp(&rhs.Key); c != 0 {
		return c
	}
	// Compare times
	return lhs.Time.Cmp(&rhs.Time)
}
