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
package util

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/chacha20"
)

// Stream is a deterministic source of randomness backed by a ChaCha20 key
// stream.  Two streams constructed from the same seed produce identical bytes.
type Stream struct {
	cipher *chacha20.Cipher
}

// NewStream constructs a deterministic random stream from a given seed.
func NewStream(seed uint64) *Stream {
	var (
		key   [chacha20.KeySize]byte
		nonce [chacha20.NonceSize]byte
	)
	//
	binary.BigEndian.PutUint64(key[:], seed)
	// Key and nonce sizes are fixed, hence this cannot fail.
	cipher, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		panic(err)
	}
	//
	return &Stream{cipher}
}

// Read fills the given buffer with the next bytes of the stream.
func (p *Stream) Read(buf []byte) (int, error) {
	clear(buf)
	p.cipher.XORKeyStream(buf, buf)
	//
	return len(buf), nil
}

// RandomSource returns a deterministic stream if a seed is given, otherwise
// the system's cryptographic random source.
func RandomSource(seed *uint64) io.Reader {
	if seed != nil {
		return NewStream(*seed)
	}
	//
	return rand.Reader
}
