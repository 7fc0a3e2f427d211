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
package termio

import (
	"strings"
	"testing"

	"github.com/consensys/go-zkvm/pkg/util/assert"
)

func Test_Table_01(t *testing.T) {
	var (
		table = NewTablePrinter(2)
		out   strings.Builder
	)
	//
	table.AddRow("op", "count")
	table.AddRow("PUSH", "3")
	table.AnsiEscapes(false)
	table.Print(&out)
	//
	assert.Equal(t, "   op | count |\n PUSH |     3 |\n", out.String())
	assert.Equal(t, uint(15), table.Width())
}

func Test_Table_02(t *testing.T) {
	var (
		table = NewTablePrinter(2)
		out   strings.Builder
	)
	//
	table.AddRow("0123456789", "x")
	table.FitWidth(12)
	table.AnsiEscapes(false)
	table.Print(&out)
	//
	assert.Equal(t, " 012.. | x |\n", out.String())
}

func Test_Escape_01(t *testing.T) {
	assert.Equal(t, "\033[1;31m", NewAnsiEscape().Bold().FgColour(TERM_RED).Build())
	assert.Equal(t, "\033[0m", ResetAnsiEscape().Build())
	assert.Equal(t, "", NewAnsiEscape().Build())
}
