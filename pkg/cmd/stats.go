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
package cmd

import (
	"fmt"
	"os"

	"github.com/consensys/go-zkvm/pkg/arith"
	"github.com/consensys/go-zkvm/pkg/plonk"
	"github.com/consensys/go-zkvm/pkg/trace"
	"github.com/consensys/go-zkvm/pkg/util/termio"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [flags] file",
	Short: "Profile the execution of a program.",
	Long: `Execute a program and report, for each opcode, how often it was executed
and how much gas it consumed.  The number of rows needed to prove the run is
also reported.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		vm := constructVM(cmd, args[0])
		tr, err := vm.Execute()
		//
		if err != nil {
			fmt.Printf("fault: %s\n", err)
			os.Exit(1)
		}
		//
		printProfile(tr)
		//
		if _, w, err := arith.Build(tr, plonk.MaxDomain); err == nil {
			fmt.Printf("rows: %d\n", w.Len())
		} else {
			fmt.Printf("rows: %s\n", err)
		}
	},
}

func printProfile(tr *trace.Trace) {
	table := termio.NewTablePrinter(4)
	table.AddRow("opcode", "count", "gas", "depth")
	//
	for _, s := range tr.Stats() {
		table.AddRow(s.Opcode.String(), fmt.Sprintf("%d", s.Count), fmt.Sprintf("%d", s.Gas),
			fmt.Sprintf("%.1f", s.AvgDepth()))
	}
	//
	row := table.AddRow("total", fmt.Sprintf("%d", tr.Len()), fmt.Sprintf("%d", tr.GasUsed), "")
	//
	for col := range uint(4) {
		table.SetEscape(col, 0, termio.NewAnsiEscape().Bold())
		table.SetEscape(col, row, termio.NewAnsiEscape().FgColour(termio.TERM_CYAN))
	}
	//
	table.AnsiEscapes(termio.IsTerminal())
	table.FitWidth(termio.Width())
	table.Print(os.Stdout)
}

func init() {
	rootCmd.AddCommand(statsCmd)
	addMachineFlags(statsCmd)
}
