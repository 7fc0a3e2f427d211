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
package test

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/consensys/go-zkvm/pkg/arith"
	"github.com/consensys/go-zkvm/pkg/asm"
	"github.com/consensys/go-zkvm/pkg/plonk"
	"github.com/consensys/go-zkvm/pkg/util"
	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/util/source"
	"github.com/consensys/go-zkvm/pkg/vm/machine"
	"github.com/consensys/go-zkvm/pkg/zkvm"
)

// TestDir determines the (relative) location of the test directory.  That is
// where the assembly programs and their corresponding test cases
// (accepts/rejects) are found.
const TestDir = "../../testdata"

// MAX_ROWS determines the number of trace rows supported by the keys used for
// testing.  Every accepted test case must fit within this.
const MAX_ROWS uint = 512

// Config describes a kind of test file.
type Config struct {
	// File extension for this kind of test.
	extension string
	// Whether test cases of this kind are expected to run to completion.
	expected bool
}

// TESTFILE_EXTENSIONS identifies the possible kinds of test file.
var TESTFILE_EXTENSIONS = []Config{
	{"accepts", true},
	{"rejects", false},
}

// TestCase is a single line of a test file.
type TestCase struct {
	// Initial memory, keyed by address.
	Memory map[string]string `json:"memory"`
	// Expected final stack (bottom to top), for accepted cases.
	Stack []string `json:"stack"`
	// Expected fault, for rejected cases.
	Fault string `json:"fault"`
}

var (
	keysOnce sync.Once
	keysPK   *plonk.ProvingKey
	keysVK   *plonk.VerificationKey
)

// Check that all test cases which are expected to run to completion do so,
// producing the expected stack along with a proof that verifies, and that all
// test cases which are expected to fault do so in the expected way.
func Check(t *testing.T, test string) {
	var (
		filename = fmt.Sprintf("%s/%s.asm", TestDir, test)
		program  = assembleFile(t, filename)
	)
	// Enable testing each program in parallel
	t.Parallel()
	// Record how many tests executed.
	nTests := 0
	// Iterate possible testfile extensions
	for _, cfg := range TESTFILE_EXTENSIONS {
		testFilename := fmt.Sprintf("%s/%s.%s", TestDir, test, cfg.extension)
		cases := ReadTestFile(t, testFilename)
		//
		for i, tc := range cases {
			id := fmt.Sprintf("%s#%d", testFilename, i+1)
			//
			if cfg.expected {
				checkAccepts(t, id, program, tc, uint64(i))
			} else {
				checkRejects(t, id, program, tc)
			}
		}
		// Record how many tests we found
		nTests += len(cases)
	}
	// Sanity check at least one test found.
	if nTests == 0 {
		panic(fmt.Sprintf("missing any tests for %s", test))
	}
}

// ReadTestFile reads a file of test cases, one JSON object per line.  A
// missing file simply has no test cases.
func ReadTestFile(t *testing.T, filename string) []TestCase {
	var cases []TestCase
	//
	file, err := os.Open(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		t.Fatal(err)
	}
	//
	defer file.Close()
	//
	scanner := bufio.NewScanner(file)
	//
	for line := 1; scanner.Scan(); line++ {
		var tc TestCase
		//
		if err := json.Unmarshal(scanner.Bytes(), &tc); err != nil {
			t.Fatalf("%s:%d: %s", filename, line, err)
		}
		//
		cases = append(cases, tc)
	}
	//
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}
	//
	return cases
}

func checkAccepts(t *testing.T, id string, program []byte, tc TestCase, seed uint64) {
	pk, vk := testKeys(t)
	vm := construct(t, id, program, tc, zkvm.WithProvingKey(pk), zkvm.WithRandomness(util.NewStream(seed)))
	//
	tr, proof, err := vm.Prove()
	if err != nil {
		t.Errorf("%s: unexpected failure (%s)", id, err)
		return
	}
	// Check final stack
	expected := parseElements(t, id, tc.Stack)
	public := tr.PublicInputs()
	//
	if !slices.Equal(expected, public) {
		t.Errorf("%s: stack %v, expected %v", id, public, expected)
	}
	// Check proof
	if !zkvm.VerifyProof(proof, public, vk) {
		t.Errorf("%s: valid proof rejected", id)
	}
	// Check proof survives encoding
	if bytes, err := proof.MarshalBinary(); err != nil {
		t.Errorf("%s: %s", id, err)
	} else {
		var decoded plonk.Proof
		//
		if err := decoded.UnmarshalBinary(bytes); err != nil {
			t.Errorf("%s: %s", id, err)
		} else if !zkvm.VerifyProof(&decoded, public, vk) {
			t.Errorf("%s: decoded proof rejected", id)
		}
	}
	// Check proof is bound to its public inputs
	if zkvm.VerifyProof(proof, append(slices.Clone(public), field.One()), vk) {
		t.Errorf("%s: proof accepted with extra public input", id)
	}
	//
	if len(public) > 0 {
		var wrong = slices.Clone(public)
		//
		wrong[len(wrong)-1].Add(&wrong[len(wrong)-1], new(field.Element).SetOne())
		//
		if zkvm.VerifyProof(proof, wrong, vk) {
			t.Errorf("%s: proof accepted with wrong public input", id)
		}
	}
}

func checkRejects(t *testing.T, id string, program []byte, tc TestCase) {
	vm := construct(t, id, program, tc)
	//
	tr, err := vm.Execute()
	//
	var fault *machine.Fault
	//
	if !errors.As(err, &fault) {
		t.Errorf("%s: expected fault \"%s\", got %v", id, tc.Fault, err)
		return
	} else if fault.Kind.String() != tc.Fault {
		t.Errorf("%s: expected fault \"%s\", got \"%s\"", id, tc.Fault, fault.Kind.String())
	}
	// Partial traces cannot be arithmetised
	if _, _, err := arith.Build(tr, MAX_ROWS); err == nil {
		t.Errorf("%s: partial trace arithmetised", id)
	}
}

func construct(t *testing.T, id string, program []byte, tc TestCase, opts ...zkvm.Option) *zkvm.VM {
	initial := make(map[uint32]field.Element)
	//
	for addr, value := range tc.Memory {
		address, err := strconv.ParseUint(addr, 0, 32)
		if err != nil {
			t.Fatalf("%s: invalid address \"%s\"", id, addr)
		}
		//
		initial[uint32(address)] = parseElement(t, id, value)
	}
	//
	vm, err := zkvm.Construct(program, initial, opts...)
	if err != nil {
		t.Fatalf("%s: %s", id, err)
	}
	//
	return vm
}

func assembleFile(t *testing.T, filename string) []byte {
	srcfile, err := source.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	//
	bytecode, errs := asm.Assemble(srcfile)
	//
	for _, err := range errs {
		t.Errorf("%s", err.Error())
	}
	//
	if len(errs) > 0 {
		t.FailNow()
	}
	//
	return bytecode
}

func parseElements(t *testing.T, id string, values []string) []field.Element {
	elements := make([]field.Element, len(values))
	//
	for i, value := range values {
		elements[i] = parseElement(t, id, value)
	}
	//
	return elements
}

func parseElement(t *testing.T, id string, value string) field.Element {
	var element field.Element
	//
	number, ok := new(big.Int).SetString(value, 0)
	if !ok {
		t.Fatalf("%s: invalid value \"%s\"", id, value)
	}
	//
	element.SetBigInt(number)
	//
	return element
}

func testKeys(t *testing.T) (*plonk.ProvingKey, *plonk.VerificationKey) {
	keysOnce.Do(func() {
		var err error
		//
		keysPK, keysVK, err = zkvm.Setup(MAX_ROWS, util.NewStream(0))
		if err != nil {
			panic(err)
		}
	})
	//
	return keysPK, keysVK
}
