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
package proofstore

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/consensys/go-zkvm/pkg/plonk"
	"github.com/consensys/go-zkvm/pkg/util"
	"github.com/consensys/go-zkvm/pkg/util/assert"
	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
	"github.com/consensys/go-zkvm/pkg/zkvm"
	bolt "go.etcd.io/bbolt"
)

func Test_Store_01(t *testing.T) {
	var (
		store  = open(t)
		proof  = testProof(t, 1)
		digest = proof.Digest()
	)
	//
	assert.False(t, store.Has(digest))
	_, err := store.Get(digest)
	assert.ErrorIs(t, err, ErrNotFound)
	//
	stored, err := store.Put(proof)
	assert.NoError(t, err)
	assert.Equal(t, digest, stored)
	assert.True(t, store.Has(digest))
	//
	loaded, err := store.Get(digest)
	assert.NoError(t, err)
	assert.Equal(t, digest, loaded.Digest())
	//
	meta, err := store.Meta(digest)
	assert.NoError(t, err)
	assert.Equal(t, uint32(proof.Rows), meta.Rows)
	assert.Equal(t, uint32(1), meta.Public)
	assert.True(t, meta.Compressed > 0)
}

func Test_Store_02(t *testing.T) {
	var (
		store = open(t)
		p1    = testProof(t, 2)
		p2    = testProof(t, 3)
	)
	// Storing twice has no effect
	for _, proof := range []*plonk.Proof{p1, p2, p1} {
		_, err := store.Put(proof)
		assert.NoError(t, err)
	}
	//
	metas, err := store.List()
	assert.NoError(t, err)
	assert.Equal(t, 2, len(metas))
	//
	stats, err := store.Stats()
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Proofs)
	assert.Equal(t, metas[0].Size+metas[1].Size, stats.Bytes)
	assert.True(t, stats.DatabaseSize > 0)
	//
	assert.NoError(t, store.Delete(p1.Digest()))
	assert.False(t, store.Has(p1.Digest()))
	assert.True(t, store.Has(p2.Digest()))
	assert.ErrorIs(t, store.Delete(p1.Digest()), ErrNotFound)
}

func Test_Store_03(t *testing.T) {
	// Contents survive reopening
	var (
		path   = filepath.Join(t.TempDir(), "proofs", "store.db")
		proof  = testProof(t, 4)
		digest = proof.Digest()
	)
	//
	store, err := Open(DefaultConfig(path))
	assert.NoError(t, err)
	_, err = store.Put(proof)
	assert.NoError(t, err)
	assert.NoError(t, store.Close())
	// Operations on a closed store fail
	_, err = store.Put(proof)
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, store.Has(digest))
	assert.NoError(t, store.Close())
	//
	config := DefaultConfig(path)
	config.ReadOnly = true
	store, err = Open(config)
	assert.NoError(t, err)
	//
	defer store.Close()
	//
	loaded, err := store.Get(digest)
	assert.NoError(t, err)
	assert.True(t, zkvm.VerifyProof(loaded, field.Vector(42), keysVK))
}

func Test_Store_04(t *testing.T) {
	// Corruption is detected
	var (
		store  = open(t)
		proof  = testProof(t, 5)
		digest = proof.Digest()
	)
	//
	_, err := store.Put(proof)
	assert.NoError(t, err)
	//
	err = store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProofs).Put(digest[:], []byte{1, 2, 3})
	})
	assert.NoError(t, err)
	//
	_, err = store.Get(digest)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func Test_Store_05(t *testing.T) {
	// Reads racing with close either succeed or report the store closed
	var (
		store  = open(t)
		proof  = testProof(t, 6)
		digest = proof.Digest()
		wg     sync.WaitGroup
	)
	//
	_, err := store.Put(proof)
	assert.NoError(t, err)
	//
	for range 8 {
		wg.Add(1)
		//
		go func() {
			defer wg.Done()
			//
			for range 16 {
				if loaded, err := store.Get(digest); err == nil {
					assert.Equal(t, digest, loaded.Digest())
				} else {
					assert.ErrorIs(t, err, ErrClosed)
				}
			}
		}()
	}
	//
	assert.NoError(t, store.Close())
	wg.Wait()
	//
	_, err = store.Get(digest)
	assert.ErrorIs(t, err, ErrClosed)
}

// ============================================================================
// Helpers
// ============================================================================

var (
	keysOnce sync.Once
	keysPK   *plonk.ProvingKey
	keysVK   *plonk.VerificationKey
	keysErr  error
)

func open(t *testing.T) *Store {
	t.Helper()
	//
	store, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "store.db")))
	assert.NoError(t, err)
	//
	t.Cleanup(func() { store.Close() })
	//
	return store
}

// Prove PUSH 6, PUSH 7, MUL, STOP with a given seed for blinding.
func testProof(t *testing.T, seed uint64) *plonk.Proof {
	t.Helper()
	//
	keysOnce.Do(func() {
		keysPK, keysVK, keysErr = zkvm.Setup(16, util.NewStream(0))
	})
	assert.NoError(t, keysErr)
	//
	program := instruction.Encode(instruction.NewPush(6), instruction.NewPush(7), &instruction.Mul{},
		&instruction.Stop{})
	vm, err := zkvm.Construct(program, nil, zkvm.WithProvingKey(keysPK), zkvm.WithRandomness(util.NewStream(seed)))
	assert.NoError(t, err)
	//
	_, proof, err := vm.Prove()
	assert.NoError(t, err)
	//
	return proof
}
