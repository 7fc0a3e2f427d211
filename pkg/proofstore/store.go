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
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/consensys/go-zkvm/pkg/plonk"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var (
	// ErrNotFound is returned when a proof is not in the store.
	ErrNotFound = errors.New("proof not found")
	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("proof store closed")
	// ErrCorrupt is returned when a stored proof cannot be decoded, or no
	// longer matches its digest.
	ErrCorrupt = errors.New("stored proof corrupt")
)

var (
	// Digest => compressed proof
	bucketProofs = []byte("proofs")
	// Digest => metadata
	bucketMeta = []byte("meta")
)

// Config holds the options for opening a store.
type Config struct {
	// Path of the database file.
	Path string
	// NoSync disables fsync after each write (faster but less durable).
	NoSync bool
	// ReadOnly opens the database in read-only mode.
	ReadOnly bool
	// Timeout for acquiring the database file lock.
	Timeout time.Duration
	// Level of compression applied to stored proofs.
	Level zstd.EncoderLevel
}

// DefaultConfig returns the default configuration for a store at a given
// path.
func DefaultConfig(path string) Config {
	return Config{
		Path:     path,
		NoSync:   false,
		ReadOnly: false,
		Timeout:  5 * time.Second,
		Level:    zstd.SpeedDefault,
	}
}

// Store persists proofs keyed by their digest.  Proofs are held compressed,
// alongside a small metadata record which can be listed without decoding
// them.  A store is safe for concurrent use.
type Store struct {
	db      *bolt.DB
	config  Config
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	//
	mu     sync.RWMutex
	closed bool
}

// Open creates or opens a store.
func Open(config Config) (*Store, error) {
	if !config.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}
	//
	db, err := bolt.Open(config.Path, 0600, &bolt.Options{
		Timeout:  config.Timeout,
		NoSync:   config.NoSync,
		ReadOnly: config.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	//
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(config.Level))
	if err != nil {
		db.Close()
		return nil, err
	}
	//
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		//
		return nil, err
	}
	//
	store := &Store{db: db, config: config, encoder: encoder, decoder: decoder}
	//
	if !config.ReadOnly {
		if err := store.initBuckets(); err != nil {
			store.release()
			return nil, fmt.Errorf("init buckets: %w", err)
		}
	}
	//
	return store, nil
}

func (p *Store) initBuckets() error {
	return p.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketProofs, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		//
		return nil
	})
}

// Put a proof into the store, returning its digest.  Storing a proof which
// is already present has no effect.
func (p *Store) Put(proof *plonk.Proof) ([32]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	//
	if p.closed {
		return [32]byte{}, ErrClosed
	}
	//
	data, err := proof.MarshalBinary()
	if err != nil {
		return [32]byte{}, err
	}
	//
	var (
		compressed = p.encoder.EncodeAll(data, nil)
		meta       = newMeta(proof, uint64(len(data)), uint64(len(compressed)))
	)
	//
	err = p.db.Update(func(tx *bolt.Tx) error {
		proofs, metas := tx.Bucket(bucketProofs), tx.Bucket(bucketMeta)
		//
		if proofs.Get(meta.Digest[:]) != nil {
			return nil
		} else if err := proofs.Put(meta.Digest[:], compressed); err != nil {
			return err
		}
		//
		return metas.Put(meta.Digest[:], meta.encode())
	})
	//
	if err == nil {
		log.WithFields(log.Fields{"rows": meta.Rows, "bytes": meta.Size, "compressed": meta.Compressed}).Debug(
			"stored proof")
	}
	//
	return meta.Digest, err
}

// Get the proof with a given digest.
func (p *Store) Get(digest [32]byte) (*plonk.Proof, error) {
	var data []byte
	// The decoder is released on close, hence decompress within the view.
	if err := p.view(func(tx *bolt.Tx) error {
		var err error
		//
		if v := tx.Bucket(bucketProofs).Get(digest[:]); v == nil {
			return ErrNotFound
		} else if data, err = p.decoder.DecodeAll(v, nil); err != nil {
			return fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		//
		return nil
	}); err != nil {
		return nil, err
	}
	//
	var proof plonk.Proof
	//
	if err := proof.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	} else if proof.Digest() != digest {
		return nil, fmt.Errorf("%w: digest mismatch", ErrCorrupt)
	}
	//
	return &proof, nil
}

// Has determines whether a proof with a given digest is stored.
func (p *Store) Has(digest [32]byte) bool {
	err := p.view(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketMeta).Get(digest[:]) == nil {
			return ErrNotFound
		}
		//
		return nil
	})
	//
	return err == nil
}

// Meta returns the metadata of the proof with a given digest.
func (p *Store) Meta(digest [32]byte) (Meta, error) {
	var meta Meta
	//
	err := p.view(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(digest[:])
		//
		if v == nil {
			return ErrNotFound
		}
		//
		return meta.decode(digest, v)
	})
	//
	return meta, err
}

// List the metadata of all stored proofs, ordered by digest.
func (p *Store) List() ([]Meta, error) {
	var metas []Meta
	//
	err := p.view(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).ForEach(func(k, v []byte) error {
			var meta Meta
			//
			if len(k) != len(meta.Digest) {
				return ErrCorrupt
			} else if err := meta.decode([32]byte(k), v); err != nil {
				return err
			}
			//
			metas = append(metas, meta)
			//
			return nil
		})
	})
	//
	return metas, err
}

// Delete the proof with a given digest.
func (p *Store) Delete(digest [32]byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	//
	if p.closed {
		return ErrClosed
	}
	//
	return p.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketMeta).Get(digest[:]) == nil {
			return ErrNotFound
		} else if err := tx.Bucket(bucketProofs).Delete(digest[:]); err != nil {
			return err
		}
		//
		return tx.Bucket(bucketMeta).Delete(digest[:])
	})
}

// Stats summarises the contents of a store.
type Stats struct {
	// Number of proofs stored.
	Proofs uint64
	// Total encoded size of all proofs.
	Bytes uint64
	// Total compressed size of all proofs.
	Compressed uint64
	// Size of the database file.
	DatabaseSize int64
}

// Stats returns a summary of the contents of this store.
func (p *Store) Stats() (Stats, error) {
	var stats Stats
	//
	metas, err := p.List()
	if err != nil {
		return stats, err
	}
	//
	for _, meta := range metas {
		stats.Proofs++
		stats.Bytes += meta.Size
		stats.Compressed += meta.Compressed
	}
	//
	if info, err := os.Stat(p.config.Path); err == nil {
		stats.DatabaseSize = info.Size()
	}
	//
	return stats, nil
}

// Close this store.  Subsequent operations fail with ErrClosed.
func (p *Store) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	//
	if p.closed {
		return nil
	}
	//
	p.closed = true
	//
	return p.release()
}

func (p *Store) release() error {
	p.decoder.Close()
	//
	if err := p.encoder.Close(); err != nil {
		p.db.Close()
		return err
	}
	//
	return p.db.Close()
}

func (p *Store) view(fn func(*bolt.Tx) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	//
	if p.closed {
		return ErrClosed
	}
	//
	return p.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketProofs) == nil || tx.Bucket(bucketMeta) == nil {
			return ErrNotFound
		}
		//
		return fn(tx)
	})
}
