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
	"fmt"
	"io"
	"strings"
)

// TablePrinter is useful for printing tables to the terminal.
type TablePrinter struct {
	widths        []uint
	rows          [][]string
	escapes       [][]string
	enableEscapes bool
}

// NewTablePrinter constructs a new table with a given number of columns and
// no rows.
func NewTablePrinter(columns uint) *TablePrinter {
	return &TablePrinter{make([]uint, columns), nil, nil, true}
}

// AddRow appends a row to this table, returning its index.
func (p *TablePrinter) AddRow(vals ...string) uint {
	if len(vals) != len(p.widths) {
		panic("incorrect number of columns")
	}
	//
	for i, val := range vals {
		p.widths[i] = max(p.widths[i], uint(len(val)))
	}
	//
	p.rows = append(p.rows, vals)
	p.escapes = append(p.escapes, make([]string, len(vals)))
	//
	return uint(len(p.rows) - 1)
}

// Get the contents of a given cell in this table
func (p *TablePrinter) Get(col uint, row uint) string {
	return p.rows[row][col]
}

// Height returns the number of rows in this table.
func (p *TablePrinter) Height() uint {
	return uint(len(p.rows))
}

// SetEscape sets the escape used when printing a given cell.
func (p *TablePrinter) SetEscape(col uint, row uint, escape AnsiEscape) {
	p.escapes[row][col] = escape.Build()
}

// AnsiEscapes enables or disables the use of ANSI escapes (e.g. for showing
// colour).  Disabling escapes is useful in environments that don't support
// them, or when output is redirected.
func (p *TablePrinter) AnsiEscapes(enable bool) {
	p.enableEscapes = enable
}

// FitWidth shrinks the widest columns until the table fits within a given
// total width (where possible).
func (p *TablePrinter) FitWidth(total uint) {
	for p.Width() > total {
		widest := 0
		//
		for i, w := range p.widths {
			if w > p.widths[widest] {
				widest = i
			}
		}
		// Cannot usefully shrink further
		if p.widths[widest] <= 4 {
			return
		}
		//
		p.widths[widest]--
	}
}

// Width returns the number of characters occupied by each line of this table.
func (p *TablePrinter) Width() uint {
	var width uint
	//
	for _, w := range p.widths {
		width += w + 3
	}
	//
	return width
}

// Print the table to a given writer.
func (p *TablePrinter) Print(out io.Writer) {
	var builder strings.Builder
	//
	for i, row := range p.rows {
		for j, col := range row {
			width := p.widths[j]
			escape := p.escapes[i][j]
			//
			if p.enableEscapes && escape != "" {
				builder.WriteString(escape)
			}
			//
			if uint(len(col)) > width {
				fmt.Fprintf(&builder, " %*s..", width-2, col[:width-2])
			} else {
				fmt.Fprintf(&builder, " %*s", width, col)
			}
			//
			if p.enableEscapes && escape != "" {
				builder.WriteString(ResetAnsiEscape().Build())
			}
			//
			builder.WriteString(" |")
		}
		//
		builder.WriteString("\n")
	}
	//
	_, _ = io.WriteString(out, builder.String())
}
