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
package zkvm

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"github.com/consensys/go-zkvm/pkg/plonk"
	log "github.com/sirupsen/logrus"
)

// Setup generates a fresh pair of keys supporting traces of up to maxRows
// rows.  When rng is nil, a cryptographically secure source is used.
func Setup(maxRows uint, rng io.Reader) (*plonk.ProvingKey, *plonk.VerificationKey, error) {
	if rng == nil {
		rng = rand.Reader
	}
	//
	return plonk.Setup(maxRows, rng)
}

// WriteKeys writes a proving key and a verification key to the given files.
// Either filename may be empty, in which case that key is not written.
func WriteKeys(pk *plonk.ProvingKey, vk *plonk.VerificationKey, pkFile string, vkFile string) error {
	if pkFile != "" {
		if err := writeFile(pkFile, pk); err != nil {
			return err
		}
	}
	//
	if vkFile != "" {
		return writeFile(vkFile, vk)
	}
	//
	return nil
}

// LoadKeys reads a proving key and its verification key from the given files.
// The two keys must agree on the supported number of rows.
func LoadKeys(pkFile string, vkFile string) (*plonk.ProvingKey, *plonk.VerificationKey, error) {
	pk, err := LoadProvingKey(pkFile)
	if err != nil {
		return nil, nil, err
	}
	//
	vk, err := LoadVerificationKey(vkFile)
	if err != nil {
		return nil, nil, err
	} else if vk.MaxRows != pk.MaxRows() {
		return nil, nil, fmt.Errorf("%w (keys for %d and %d rows)", plonk.ErrInvalidKey, pk.MaxRows(), vk.MaxRows)
	}
	//
	return pk, vk, nil
}

// LoadProvingKey reads a proving key from a given file.
func LoadProvingKey(filename string) (*plonk.ProvingKey, error) {
	var pk plonk.ProvingKey
	//
	if err := readFile(filename, &pk); err != nil {
		return nil, err
	}
	//
	return &pk, nil
}

// LoadVerificationKey reads a verification key from a given file.
func LoadVerificationKey(filename string) (*plonk.VerificationKey, error) {
	var vk plonk.VerificationKey
	//
	if err := readFile(filename, &vk); err != nil {
		return nil, err
	}
	//
	return &vk, nil
}

func writeFile(filename string, key io.WriterTo) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	//
	writer := bufio.NewWriter(file)
	n, err := key.WriteTo(writer)
	//
	if err == nil {
		err = writer.Flush()
	}
	//
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	//
	if err == nil {
		log.WithFields(log.Fields{"file": filename, "bytes": n}).Debug("wrote key")
	}
	//
	return err
}

func readFile(filename string, key io.ReaderFrom) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	//
	defer file.Close()
	//
	if _, err = key.ReadFrom(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	//
	return nil
}
