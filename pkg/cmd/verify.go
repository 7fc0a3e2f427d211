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

	"github.com/consensys/go-zkvm/pkg/plonk"
	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/util/termio"
	"github.com/consensys/go-zkvm/pkg/zkvm"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [flags] proof...",
	Short: "Verify one or more proofs.",
	Long: `Verify one or more proofs, given either as files or (with --store) as digests
of proofs held in a proof store.  Unless --public is given, each proof is checked
against the public inputs it claims.  Several proofs are verified concurrently.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			dbfile = GetString(cmd, "store")
			proofs []*plonk.Proof
			inputs [][]field.Element
		)
		//
		vk, err := zkvm.LoadVerificationKey(GetString(cmd, "vk"))
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		if dbfile != "" {
			proofs = loadStoredProofs(dbfile, args)
		} else {
			proofs = readProofs(args)
		}
		//
		for _, proof := range proofs {
			if cmd.Flags().Changed("public") {
				inputs = append(inputs, parseElements(GetString(cmd, "public")))
			} else {
				inputs = append(inputs, proof.Public)
			}
		}
		//
		verifier, err := plonk.NewVerifier(vk, plonk.DefaultCacheSize)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		if !printVerdicts(args, verifier.VerifyBatch(proofs, inputs)) {
			os.Exit(1)
		}
	},
}

func readProofs(filenames []string) []*plonk.Proof {
	proofs := make([]*plonk.Proof, len(filenames))
	//
	for i, filename := range filenames {
		var proof plonk.Proof
		//
		bytes, err := os.ReadFile(filename)
		//
		if err == nil {
			err = proof.UnmarshalBinary(bytes)
		}
		//
		if err != nil {
			fmt.Printf("%s: %s\n", filename, err)
			os.Exit(2)
		}
		//
		proofs[i] = &proof
	}
	//
	return proofs
}

func loadStoredProofs(dbfile string, digests []string) []*plonk.Proof {
	store := openStore(dbfile, true)
	defer store.Close()
	//
	proofs := make([]*plonk.Proof, len(digests))
	//
	for i, text := range digests {
		digest, err := zkvm.ParseDigest(text)
		//
		if err == nil {
			proofs[i], err = store.Get(digest)
		}
		//
		if err != nil {
			fmt.Printf("%s: %s\n", text, err)
			os.Exit(2)
		}
	}
	//
	return proofs
}

// Print the outcome for each proof, returning true only if all were accepted.
func printVerdicts(names []string, verdicts []bool) bool {
	var (
		accept = termio.NewAnsiEscape().FgColour(termio.TERM_GREEN)
		reject = termio.NewAnsiEscape().FgColour(termio.TERM_RED)
		table  = termio.NewTablePrinter(2)
		all    = true
	)
	//
	for i, ok := range verdicts {
		if ok {
			row := table.AddRow(names[i], "accept")
			table.SetEscape(1, row, accept)
		} else {
			row := table.AddRow(names[i], "reject")
			table.SetEscape(1, row, reject)
		}
		//
		all = all && ok
	}
	//
	table.AnsiEscapes(termio.IsTerminal())
	table.FitWidth(termio.Width())
	table.Print(os.Stdout)
	//
	return all
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().String("vk", "zkvm.vk", "verification key file")
	verifyCmd.Flags().String("public", "", "expected public inputs (comma separated)")
	verifyCmd.Flags().String("store", "", "proof store holding the proofs")
}
