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

	"github.com/consensys/go-zkvm/pkg/util"
	"github.com/consensys/go-zkvm/pkg/zkvm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup [flags]",
	Short: "Generate proving and verification keys.",
	Long: `Generate a fresh pair of keys for proving and verifying executions of up to a
given number of trace rows.  The number of rows is rounded up to a power of two.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			rows   = GetUint(cmd, "rows")
			pkFile = GetString(cmd, "pk")
			vkFile = GetString(cmd, "vk")
			stats  = util.NewPerfStats()
		)
		//
		pk, vk, err := zkvm.Setup(rows, randomness(cmd))
		//
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		stats.Log("Key generation")
		//
		if err := zkvm.WriteKeys(pk, vk, pkFile, vkFile); err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		log.Infof("wrote keys for %d rows (circuit %s)", vk.MaxRows, zkvm.Encode(vk.Circuit))
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().Uint("rows", 1024, "maximum number of trace rows supported")
	setupCmd.Flags().String("pk", "zkvm.pk", "proving key output file")
	setupCmd.Flags().String("vk", "zkvm.vk", "verification key output file")
	addSeedFlag(setupCmd, "seed for deterministic key generation (insecure)")
}
