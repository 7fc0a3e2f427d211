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
	"maps"
	"os"
	"slices"

	"github.com/consensys/go-zkvm/pkg/trace"
	"github.com/consensys/go-zkvm/pkg/util/termio"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] file",
	Short: "Execute a program.",
	Long: `Execute a program to completion, reporting its final stack, memory,
gas consumption and state root.  Programs ending in ".asm" are assembled first.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		vm := constructVM(cmd, args[0])
		tr, err := vm.Execute()
		//
		if GetFlag(cmd, "trace") {
			for _, step := range tr.Steps {
				fmt.Println(step.String())
			}
		}
		//
		if err != nil {
			fmt.Printf("fault: %s\n", err)
			os.Exit(1)
		}
		//
		printOutcome(tr)
	},
}

func printOutcome(tr *trace.Trace) {
	fmt.Printf("steps: %d\n", tr.Len())
	fmt.Printf("gas: %d\n", tr.GasUsed)
	fmt.Printf("stack: %s\n", elementsToString(tr.Stack))
	fmt.Printf("state root: %x\n", tr.StateRoot)
	//
	if len(tr.Memory) == 0 {
		return
	}
	//
	table := termio.NewTablePrinter(2)
	table.AddRow("address", "value")
	//
	for _, addr := range slices.Sorted(maps.Keys(tr.Memory)) {
		value := tr.Memory[addr]
		table.AddRow(fmt.Sprintf("%d", addr), value.String())
	}
	//
	table.SetEscape(0, 0, termio.NewAnsiEscape().Bold())
	table.SetEscape(1, 0, termio.NewAnsiEscape().Bold())
	table.AnsiEscapes(termio.IsTerminal())
	table.FitWidth(termio.Width())
	table.Print(os.Stdout)
}

func init() {
	rootCmd.AddCommand(runCmd)
	addMachineFlags(runCmd)
	runCmd.Flags().Bool("trace", false, "print each step executed")
}
