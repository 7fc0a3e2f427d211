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
	"encoding/binary"
	"time"

	"github.com/consensys/go-zkvm/pkg/plonk"
	"github.com/zeebo/blake3"
)

// metaSize is the encoded size of a metadata record: program hash, rows,
// public input count, encoded size, compressed size and timestamp.
const metaSize = 32 + 4 + 4 + 8 + 8 + 8

// Meta describes a stored proof.
type Meta struct {
	// Digest of the proof
	Digest [32]byte
	// Hash of the program proved
	Program [32]byte
	// Trace rows
	Rows uint32
	// Number of public inputs
	Public uint32
	// Encoded size
	Size uint64
	// Size once compressed
	Compressed uint64
	// When the proof was stored
	Stored time.Time
}

func newMeta(proof *plonk.Proof, size uint64, compressed uint64) Meta {
	return Meta{
		Digest:     proof.Digest(),
		Program:    blake3.Sum256(proof.Program),
		Rows:       uint32(proof.Rows),
		Public:     uint32(len(proof.Public)),
		Size:       size,
		Compressed: compressed,
		Stored:     time.Now().UTC(),
	}
}

func (p *Meta) encode() []byte {
	buf := make([]byte, 0, metaSize)
	buf = append(buf, p.Program[:]...)
	buf = binary.BigEndian.AppendUint32(buf, p.Rows)
	buf = binary.BigEndian.AppendUint32(buf, p.Public)
	buf = binary.BigEndian.AppendUint64(buf, p.Size)
	buf = binary.BigEndian.AppendUint64(buf, p.Compressed)
	//
	return binary.BigEndian.AppendUint64(buf, uint64(p.Stored.UnixNano()))
}

func (p *Meta) decode(digest [32]byte, data []byte) error {
	if len(data) != metaSize {
		return ErrCorrupt
	}
	//
	p.Digest = digest
	copy(p.Program[:], data[:32])
	p.Rows = binary.BigEndian.Uint32(data[32:])
	p.Public = binary.BigEndian.Uint32(data[36:])
	p.Size = binary.BigEndian.Uint64(data[40:])
	p.Compressed = binary.BigEndian.Uint64(data[48:])
	p.Stored = time.Unix(0, int64(binary.BigEndian.Uint64(data[56:]))).UTC()
	//
	return nil
}
