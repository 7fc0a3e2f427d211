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

import "github.com/consensys/go-zkvm/pkg/vm/instruction"

// BaseGas is charged for every step, in addition to the per-opcode cost.
const BaseGas uint64 = 2

// GasCost returns the total gas charged for executing a given opcode.
func GasCost(op instruction.Opcode) uint64 {
	var cost uint64
	//
	switch op {
	case instruction.PUSH, instruction.EQ, instruction.LT, instruction.GT:
		cost = 3
	case instruction.ADD, instruction.MUL:
		cost = 5
	case instruction.STORE, instruction.LOAD:
		cost = 20
	case instruction.JUMP:
		cost = 8
	case instruction.JUMPI:
		cost = 10
	case instruction.STOP:
		cost = 0
	}
	//
	return BaseGas + cost
}
