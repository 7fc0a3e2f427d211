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
	"io"
	"math/big"
	"os"
	"path"
	"strings"

	"github.com/consensys/go-zkvm/pkg/asm"
	"github.com/consensys/go-zkvm/pkg/util"
	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/util/source"
	"github.com/consensys/go-zkvm/pkg/vm/machine"
	"github.com/consensys/go-zkvm/pkg/zkvm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// GetFlag gets an expected boolean flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	checkFlag(err)
	//
	return r
}

// GetUint gets an expected unsigned flag, or exits if an error arises.
func GetUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	checkFlag(err)
	//
	return r
}

// GetUint64 gets an expected 64bit unsigned flag, or exits if an error
// arises.
func GetUint64(cmd *cobra.Command, flag string) uint64 {
	r, err := cmd.Flags().GetUint64(flag)
	checkFlag(err)
	//
	return r
}

// GetString gets an expected string flag, or exits if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	checkFlag(err)
	//
	return r
}

// GetStringArray gets an expected string array flag, or exits if an error
// arises.
func GetStringArray(cmd *cobra.Command, flag string) []string {
	r, err := cmd.Flags().GetStringArray(flag)
	checkFlag(err)
	//
	return r
}

func checkFlag(err error) {
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
}

// Add the flags which configure machine limits and initial memory.
func addMachineFlags(cmd *cobra.Command) {
	config := machine.DefaultConfig()
	//
	cmd.Flags().Uint("max-stack", config.MaxStack, "maximum stack depth")
	cmd.Flags().Uint("max-steps", config.MaxSteps, "maximum number of steps")
	cmd.Flags().Uint64("memory-limit", config.MemoryLimit, "exclusive upper bound on memory addresses")
	cmd.Flags().Uint64("gas-limit", config.GasLimit, "maximum gas (0 for unlimited)")
	cmd.Flags().StringArrayP("mem", "m", nil, "initial memory entry (e.g. 3=0x2a)")
}

// Add the flag for seeding the randomness used when proving.
func addSeedFlag(cmd *cobra.Command, usage string) {
	cmd.Flags().Uint64("seed", 0, usage)
}

// Determine the source of randomness, which is deterministic only when a seed
// is given explicitly.
func randomness(cmd *cobra.Command) io.Reader {
	if !cmd.Flags().Changed("seed") {
		return util.RandomSource(nil)
	}
	//
	seed := GetUint64(cmd, "seed")
	log.Warnf("using deterministic randomness (seed %d)", seed)
	//
	return util.RandomSource(&seed)
}

// Construct a VM for a given program file, configured from the command line.
func constructVM(cmd *cobra.Command, filename string, opts ...zkvm.Option) *zkvm.VM {
	program := readProgram(filename)
	initial := parseMemory(GetStringArray(cmd, "mem"))
	//
	opts = append(opts,
		zkvm.WithMaxStack(GetUint(cmd, "max-stack")),
		zkvm.WithMaxSteps(GetUint(cmd, "max-steps")),
		zkvm.WithMemoryLimit(GetUint64(cmd, "memory-limit")),
		zkvm.WithGasLimit(GetUint64(cmd, "gas-limit")))
	//
	vm, err := zkvm.Construct(program, initial, opts...)
	//
	if err != nil {
		fmt.Printf("%s: %s\n", filename, err)
		os.Exit(3)
	}
	//
	return vm
}

// Read a program file.  Assembly files (".asm") are assembled, whilst anything
// else is treated as raw bytecode.
func readProgram(filename string) []byte {
	if path.Ext(filename) != ".asm" {
		bytes, err := os.ReadFile(filename)
		//
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		return bytes
	}
	//
	srcfile, err := source.ReadFile(filename)
	//
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	bytecode, errs := asm.Assemble(srcfile)
	//
	if len(errs) > 0 {
		for _, err := range errs {
			printSyntaxError(&err)
		}
		//
		os.Exit(4)
	}
	//
	log.Debugf("assembled %s (%d bytes)", filename, len(bytecode))
	//
	return bytecode
}

// Parse initial memory entries of the form "address=value".
func parseMemory(entries []string) map[uint32]field.Element {
	memory := make(map[uint32]field.Element)
	//
	for _, entry := range entries {
		addr, value, ok := strings.Cut(entry, "=")
		address, aok := parseNumber(addr)
		//
		if !ok || !aok || address.Sign() < 0 || !address.IsUint64() || address.Uint64() > 0xffffffff {
			fmt.Printf("invalid memory entry \"%s\"\n", entry)
			os.Exit(2)
		}
		//
		memory[uint32(address.Uint64())] = parseElement(value)
	}
	//
	return memory
}

// Parse a comma separated list of field elements.
func parseElements(list string) []field.Element {
	var elements []field.Element
	//
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			elements = append(elements, parseElement(item))
		}
	}
	//
	return elements
}

// Parse a field element, where negative values denote their field negation.
func parseElement(text string) field.Element {
	var element field.Element
	//
	value, ok := parseNumber(text)
	//
	if !ok {
		fmt.Printf("invalid value \"%s\"\n", text)
		os.Exit(2)
	} else if new(big.Int).Abs(value).Cmp(field.Modulus()) >= 0 {
		fmt.Printf("value \"%s\" out of range\n", text)
		os.Exit(2)
	}
	//
	element.SetBigInt(value)
	//
	return element
}

func parseNumber(text string) (*big.Int, bool) {
	return new(big.Int).SetString(strings.TrimSpace(text), 0)
}

func elementsToString(elements []field.Element) string {
	var builder strings.Builder
	//
	builder.WriteString("[")
	//
	for i, e := range elements {
		if i != 0 {
			builder.WriteString(", ")
		}
		//
		builder.WriteString(e.String())
	}
	//
	builder.WriteString("]")
	//
	return builder.String()
}

// Print a syntax error with appropriate highlighting.
func printSyntaxError(err *source.SyntaxError) {
	span := err.Span()
	line := err.Line()
	text := line.String()
	lineOffset := span.Start() - line.Start()
	// Calculate length (ensures don't overflow line)
	length := max(1, min(len([]rune(text))-lineOffset, span.Length()))
	// Print error + line number
	fmt.Printf("%s:%d:%d-%d %s\n", err.File().Filename(), line.Number(), 1+lineOffset, 1+lineOffset+length,
		err.Message())
	// Print separator line
	fmt.Println()
	// Print line
	fmt.Println(text)
	// Print indent (todo: account for tabs)
	fmt.Print(strings.Repeat(" ", lineOffset))
	// Print highlight
	fmt.Println(strings.Repeat("^", length))
}
