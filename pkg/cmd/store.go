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
	"time"

	"github.com/consensys/go-zkvm/pkg/util/termio"
	"github.com/consensys/go-zkvm/pkg/zkvm"
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and manage a proof store.",
}

var storeListCmd = &cobra.Command{
	Use:   "list [flags]",
	Short: "List the proofs held in a store.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore(GetString(cmd, "db"), true)
		defer store.Close()
		//
		metas, err := store.List()
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		table := termio.NewTablePrinter(5)
		table.AddRow("digest", "rows", "public", "size", "stored")
		//
		for _, meta := range metas {
			table.AddRow(zkvm.Encode(meta.Digest), fmt.Sprintf("%d", meta.Rows), fmt.Sprintf("%d", meta.Public),
				fmt.Sprintf("%d", meta.Compressed), meta.Stored.Local().Format(time.DateTime))
		}
		//
		for col := range uint(5) {
			table.SetEscape(col, 0, termio.NewAnsiEscape().Bold())
		}
		//
		table.AnsiEscapes(termio.IsTerminal())
		table.FitWidth(termio.Width())
		table.Print(os.Stdout)
	},
}

var storeShowCmd = &cobra.Command{
	Use:   "show [flags] digest",
	Short: "Show a stored proof.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore(GetString(cmd, "db"), true)
		defer store.Close()
		//
		digest := parseDigest(args[0])
		//
		meta, err := store.Meta(digest)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		proof, err := store.Get(digest)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		fmt.Printf("digest: %s\n", zkvm.Encode(meta.Digest))
		fmt.Printf("program: %x\n", proof.Program)
		fmt.Printf("rows: %d\n", meta.Rows)
		fmt.Printf("public: %s\n", elementsToString(proof.Public))
		fmt.Printf("size: %d (%d compressed)\n", meta.Size, meta.Compressed)
		fmt.Printf("stored: %s\n", meta.Stored.Local().Format(time.RFC3339))
		//
		if output := GetString(cmd, "out"); output != "" {
			writeProof(output, proof)
		}
	},
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete [flags] digest...",
	Short: "Delete proofs from a store.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore(GetString(cmd, "db"), false)
		defer store.Close()
		//
		for _, arg := range args {
			if err := store.Delete(parseDigest(arg)); err != nil {
				fmt.Printf("%s: %s\n", arg, err)
				os.Exit(2)
			}
		}
	},
}

var storeStatsCmd = &cobra.Command{
	Use:   "stats [flags]",
	Short: "Summarise the contents of a store.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore(GetString(cmd, "db"), true)
		defer store.Close()
		//
		stats, err := store.Stats()
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		fmt.Printf("proofs: %d\n", stats.Proofs)
		fmt.Printf("bytes: %d (%d compressed)\n", stats.Bytes, stats.Compressed)
		fmt.Printf("database: %d bytes\n", stats.DatabaseSize)
	},
}

func parseDigest(text string) zkvm.Digest {
	digest, err := zkvm.ParseDigest(text)
	//
	if err != nil {
		fmt.Printf("%s: %s\n", text, err)
		os.Exit(2)
	}
	//
	return digest
}

func init() {
	rootCmd.AddCommand(storeCmd)
	//
	for _, cmd := range []*cobra.Command{storeListCmd, storeShowCmd, storeDeleteCmd, storeStatsCmd} {
		storeCmd.AddCommand(cmd)
		cmd.Flags().String("db", "proofs.db", "proof store file")
	}
	//
	storeShowCmd.Flags().StringP("out", "o", "", "write the proof to this file")
}
