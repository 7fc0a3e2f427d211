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
	"github.com/consensys/go-zkvm/pkg/proofstore"
	"github.com/consensys/go-zkvm/pkg/util"
	"github.com/consensys/go-zkvm/pkg/zkvm"
	"github.com/spf13/cobra"
)

var proveCmd = &cobra.Command{
	Use:   "prove [flags] file",
	Short: "Execute a program and prove its execution.",
	Long: `Execute a program and generate a proof that it ran to completion, where the
final stack is the public output.  The proof is written to a file and/or added to
a proof store, and its digest is printed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			output = GetString(cmd, "out")
			dbfile = GetString(cmd, "store")
		)
		//
		pk, err := zkvm.LoadProvingKey(GetString(cmd, "pk"))
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		vm := constructVM(cmd, args[0], zkvm.WithProvingKey(pk), zkvm.WithRandomness(randomness(cmd)))
		stats := util.NewPerfStats()
		tr, proof, err := vm.Prove()
		//
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		stats.Log("Proving")
		fmt.Printf("public: %s\n", elementsToString(tr.PublicInputs()))
		//
		if output != "" {
			writeProof(output, proof)
		}
		//
		if dbfile != "" {
			storeProof(dbfile, proof)
		}
		//
		fmt.Println(zkvm.DigestOf(proof))
	},
}

func writeProof(filename string, proof *plonk.Proof) {
	bytes, err := proof.MarshalBinary()
	//
	if err == nil {
		err = os.WriteFile(filename, bytes, 0644)
	}
	//
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
}

func storeProof(dbfile string, proof *plonk.Proof) {
	store := openStore(dbfile, false)
	defer store.Close()
	//
	if _, err := store.Put(proof); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
}

func openStore(dbfile string, readonly bool) *proofstore.Store {
	config := proofstore.DefaultConfig(dbfile)
	config.ReadOnly = readonly
	//
	store, err := proofstore.Open(config)
	//
	if err != nil {
		fmt.Printf("%s: %s\n", dbfile, err)
		os.Exit(2)
	}
	//
	return store
}

func init() {
	rootCmd.AddCommand(proveCmd)
	addMachineFlags(proveCmd)
	addSeedFlag(proveCmd, "seed for deterministic blinding (insecure)")
	proveCmd.Flags().String("pk", "zkvm.pk", "proving key file")
	proveCmd.Flags().StringP("out", "o", "", "proof output file")
	proveCmd.Flags().String("store", "", "proof store to add the proof to")
}
