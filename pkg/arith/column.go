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
	"fmt"
	"strings"

	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
)

// Column identifies a single witness column.
type Column uint

// Selector columns (one per opcode).
const (
	SPush Column = iota
	SAdd
	SMul
	SStore
	SLoad
	SJump
	SJumpI
	SEq
	SLt
	SGt
	SStop
	// Main table
	Act
	PC
	Op
	Imm
	SP
	A
	B
	C
	Inv
	Clk
	K1
	K2
	// Comparison gadget
	CX
	CY
	HX
	HY
	IX
	IY
	EE
	VV
	IV
	// Initial memory lane
	IU
	IK
	IVal
	// Sorted memory log
	SU
	SK
	ST
	SV
	SW
	Same
	SInv
	// Program table multiplicities
	M
	// First of the multi-column groups
	firstGroup
)

// Bit decomposition groups.
const (
	// SPBits is the width of the stack pointer range check.
	SPBits = 16
	// DeltaBits is the width of the sorted log ordering check.
	DeltaBits = 34
	// SPB is the first of the stack pointer bit columns.
	SPB = firstGroup
	// DB is the first of the sorted log delta bit columns.
	DB = SPB + SPBits
	// RX is the first of the remainder bit columns of the left comparison
	// operand.
	RX = DB + DeltaBits
	// RY is the first of the remainder bit columns of the right comparison
	// operand.
	RY = RX + field.HalfBits
	// RV is the first of the comparison difference bit columns.
	RV = RY + field.HalfBits
	// NumTrace is the number of columns committed before any challenge is
	// drawn.
	NumTrace = RV + field.HalfBits
)

// Columns which depend upon the lookup and permutation challenges.
const (
	HMain Column = NumTrace + iota
	HProg
	SAcc
	Y1
	Y2
	Z
	// NumColumns is the total number of witness columns.
	NumColumns
)

var (
	// KeyBase is added to a stack slot to form its memory log key, keeping
	// stack slots disjoint from (32bit) memory addresses.
	KeyBase = field.TwoPowN(32)
	// FinalTime is the time at which the final stack is read out.
	FinalTime = field.TwoPowN(33)
)

// Selectors lists the selector column of each opcode, in the same order as
// instruction.Opcodes.
var Selectors = []Column{SPush, SAdd, SMul, SStore, SLoad, SJump, SJumpI, SEq, SLt, SGt, SStop}

// Shifted lists the columns which are also opened at the next row.
var Shifted = []Column{Act, PC, SP, Clk, SU, SK, ST, SV, SW, SAcc, Z}

var (
	columnNames [NumColumns]string
	shiftIndex  [NumColumns]int
	selectorOf  = make(map[instruction.Opcode]Column)
)

func init() {
	var fixed = []string{"act", "pc", "op", "imm", "sp", "a", "b", "c", "inv", "clk", "k1", "k2",
		"cx", "cy", "hx", "hy", "ix", "iy", "ee", "vv", "iv", "iu", "ik", "ival",
		"su", "sk", "st", "sv", "sw", "same", "sinv", "m"}
	//
	for i, op := range instruction.Opcodes {
		columnNames[Selectors[i]] = "s_" + strings.ToLower(op.String())
		selectorOf[op] = Selectors[i]
	}
	//
	for i, name := range fixed {
		columnNames[Act+Column(i)] = name
	}
	//
	groups := []struct {
		name  string
		first Column
		width uint
	}{{"spb", SPB, SPBits}, {"db", DB, DeltaBits}, {"rx", RX, field.HalfBits},
		{"ry", RY, field.HalfBits}, {"rv", RV, field.HalfBits}}
	//
	for _, g := range groups {
		for i := range g.width {
			columnNames[g.first+Column(i)] = fmt.Sprintf("%s_%d", g.name, i)
		}
	}
	//
	for i, name := range []string{"hmain", "hprog", "sacc", "y1", "y2", "z"} {
		columnNames[HMain+Column(i)] = name
	}
	//
	for i := range shiftIndex {
		shiftIndex[i] = -1
	}
	//
	for i, col := range Shifted {
		shiftIndex[col] = i
	}
}

func (p Column) String() string {
	if p < NumColumns {
		return columnNames[p]
	}
	//
	return fmt.Sprintf("column(%d)", uint(p))
}

// ShiftIndex returns the position of this column within Shifted, or false if
// it is not opened at the next row.
func (p Column) ShiftIndex() (int, bool) {
	if p >= NumColumns || shiftIndex[p] < 0 {
		return 0, false
	}
	//
	return shiftIndex[p], true
}

// SelectorOf returns the selector column for a given opcode.
func SelectorOf(op instruction.Opcode) (Column, bool) {
	col, ok := selectorOf[op]
	return col, ok
}
