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
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var asmCmd = &cobra.Command{
	Use:   "asm [flags] file.asm",
	Short: "Assemble a program into bytecode.",
	Long: `Assemble a program written in assembly language into bytecode.  The
bytecode is written to the given output file or, otherwise, printed in hex.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bytecode := readProgram(args[0])
		output := GetString(cmd, "out")
		//
		if output == "" {
			fmt.Println(hex.EncodeToString(bytecode))
		} else if err := os.WriteFile(output, bytecode, 0644); err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
	},
}

var disasmCmd = &cobra.Command{
	Use:   "disasm [flags] file",
	Short: "Disassemble a program.",
	Long:  "Decode a program and print it as assembly language, annotated with byte offsets.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		vm := constructVM(cmd, args[0])
		//
		fmt.Print(vm.Program().Disassemble())
	},
}

func init() {
	rootCmd.AddCommand(asmCmd)
	rootCmd.AddCommand(disasmCmd)
	asmCmd.Flags().StringP("out", "o", "", "output file")
	addMachineFlags(disasmCmd)
}
