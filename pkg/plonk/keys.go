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
package plonk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/kzg"
	"github.com/consensys/go-zkvm/pkg/arith"
	"github.com/consensys/go-zkvm/pkg/util"
	"github.com/consensys/go-zkvm/pkg/util/field"
	log "github.com/sirupsen/logrus"
)

// MaxDomain is the largest number of trace rows a key can be generated for.
const MaxDomain = 1 << 22

// Quotient is the commitment identifier of the quotient polynomial.  Trace
// columns are identified by their column index, hence the quotient follows
// the last of them.
const Quotient = uint(arith.NumColumns)

// NumCommitments is the number of polynomials committed to by every proof.
const NumCommitments = Quotient + 1

// Every constraint has degree at most five (in the columns and the Lagrange
// selectors), hence the quotient has fewer than quotientDegree*n coefficients.
const quotientDegree = 5

var (
	// ErrInvalidMaxRows is returned when keys are requested for an unsupported
	// number of rows.
	ErrInvalidMaxRows = errors.New("maximum rows must be a power of two within range")
	// ErrCircuitMismatch is returned when reading keys generated for a
	// different constraint system.
	ErrCircuitMismatch = errors.New("key was generated for a different circuit")
	// ErrInvalidKey is returned when reading a malformed key.
	ErrInvalidKey = errors.New("invalid key encoding")
)

var (
	provingKeyMagic      = [4]byte{'z', 'k', 'p', 'k'}
	verificationKeyMagic = [4]byte{'z', 'k', 'v', 'k'}
)

const keyVersion = 1

// VerificationKey holds everything needed to check proofs of runs with up to
// MaxRows trace rows.  It is independent of any particular program.
type VerificationKey struct {
	// Maximum number of trace rows supported
	MaxRows uint
	// Digest of the constraint system this key was generated for
	Circuit [32]byte
	//
	kzg kzg.VerifyingKey
}

// ProvingKey holds everything needed to prove runs with up to MaxRows trace
// rows, including the matching verification key.
type ProvingKey struct {
	kzg kzg.ProvingKey
	vk  VerificationKey
}

// SRSSize returns the number of powers of tau required for a given maximum
// number of rows.  This covers both the blinded columns and the quotient.
func SRSSize(maxRows uint) uint64 {
	return uint64(quotientDegree*maxRows + 8)
}

// Setup generates a fresh pair of keys supporting up to maxRows trace rows.
// The secret tau is drawn from the given source of randomness, and discarded
// once the structured reference string has been computed.
func Setup(maxRows uint, rng io.Reader) (*ProvingKey, *VerificationKey, error) {
	var (
		stats = util.NewPerfStats()
		b     big.Int
	)
	//
	if !arith.ValidDomain(maxRows, MaxDomain) {
		return nil, nil, fmt.Errorf("%w (%d)", ErrInvalidMaxRows, maxRows)
	}
	//
	tau, err := field.Random(rng)
	if err != nil {
		return nil, nil, err
	}
	//
	tau.BigInt(&b)
	//
	srs, err := kzg.NewSRS(SRSSize(maxRows), &b)
	if err != nil {
		return nil, nil, err
	}
	//
	pk := &ProvingKey{srs.Pk, VerificationKey{maxRows, arith.Digest(), srs.Vk}}
	vk := pk.vk
	//
	log.WithFields(log.Fields{"maxRows": maxRows, "srs": len(srs.Pk.G1)}).Debug("generated keys")
	stats.Log("Key generation")
	//
	return pk, &vk, nil
}

// MaxRows returns the maximum number of trace rows supported by this key.
func (p *ProvingKey) MaxRows() uint {
	return p.vk.MaxRows
}

// VerificationKey returns the verification key matching this proving key.
func (p *ProvingKey) VerificationKey() *VerificationKey {
	vk := p.vk
	return &vk
}

// ============================================================================
// Encoding
// ============================================================================

// WriteTo writes this key in binary form.
func (p *VerificationKey) WriteTo(w io.Writer) (int64, error) {
	n, err := writeKeyHeader(w, verificationKeyMagic, p.MaxRows, p.Circuit)
	if err != nil {
		return n, err
	}
	//
	m, err := p.kzg.WriteTo(w)
	//
	return n + m, err
}

// ReadFrom reads a key previously written by WriteTo.  Keys generated for a
// different constraint system are rejected.
func (p *VerificationKey) ReadFrom(r io.Reader) (int64, error) {
	n, err := readKeyHeader(r, verificationKeyMagic, &p.MaxRows, &p.Circuit)
	if err != nil {
		return n, err
	}
	//
	m, err := p.kzg.ReadFrom(r)
	//
	return n + m, err
}

// WriteTo writes this key (including its verification key) in binary form.
func (p *ProvingKey) WriteTo(w io.Writer) (int64, error) {
	n, err := writeKeyHeader(w, provingKeyMagic, p.vk.MaxRows, p.vk.Circuit)
	if err != nil {
		return n, err
	}
	//
	m, err := p.kzg.WriteTo(w)
	if n += m; err != nil {
		return n, err
	}
	//
	m, err = p.vk.WriteTo(w)
	//
	return n + m, err
}

// ReadFrom reads a key previously written by WriteTo.
func (p *ProvingKey) ReadFrom(r io.Reader) (int64, error) {
	var (
		maxRows uint
		circuit [32]byte
	)
	//
	n, err := readKeyHeader(r, provingKeyMagic, &maxRows, &circuit)
	if err != nil {
		return n, err
	}
	//
	m, err := p.kzg.ReadFrom(r)
	if n += m; err != nil {
		return n, err
	} else if uint64(len(p.kzg.G1)) != SRSSize(maxRows) {
		return n, fmt.Errorf("%w (expected %d points, found %d)", ErrInvalidKey, SRSSize(maxRows), len(p.kzg.G1))
	}
	//
	m, err = p.vk.ReadFrom(r)
	if n += m; err != nil {
		return n, err
	} else if p.vk.MaxRows != maxRows {
		return n, fmt.Errorf("%w (mismatched verification key)", ErrInvalidKey)
	}
	//
	return n, nil
}

// MarshalBinary encodes this key as a byte slice.
func (p *VerificationKey) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	//
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	//
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a key encoded by MarshalBinary.
func (p *VerificationKey) UnmarshalBinary(data []byte) error {
	var r = bytes.NewReader(data)
	//
	if _, err := p.ReadFrom(r); err != nil {
		return err
	} else if r.Len() != 0 {
		return fmt.Errorf("%w (trailing bytes)", ErrInvalidKey)
	}
	//
	return nil
}

// Key header: magic, version, maximum rows and circuit digest.
func writeKeyHeader(w io.Writer, magic [4]byte, maxRows uint, circuit [32]byte) (int64, error) {
	var header []byte
	//
	header = append(header, magic[:]...)
	header = append(header, keyVersion)
	header = binary.BigEndian.AppendUint32(header, uint32(maxRows))
	header = append(header, circuit[:]...)
	//
	n, err := w.Write(header)
	//
	return int64(n), err
}

func readKeyHeader(r io.Reader, magic [4]byte, maxRows *uint, circuit *[32]byte) (int64, error) {
	var header [4 + 1 + 4 + 32]byte
	//
	n, err := io.ReadFull(r, header[:])
	if err != nil {
		return int64(n), fmt.Errorf("%w (%w)", ErrInvalidKey, err)
	} else if !bytes.Equal(header[:4], magic[:]) || header[4] != keyVersion {
		return int64(n), fmt.Errorf("%w (unknown format)", ErrInvalidKey)
	}
	//
	*maxRows = uint(binary.BigEndian.Uint32(header[5:9]))
	copy(circuit[:], header[9:])
	//
	if !arith.ValidDomain(*maxRows, MaxDomain) {
		return int64(n), fmt.Errorf("%w (%d rows)", ErrInvalidKey, *maxRows)
	} else if *circuit != arith.Digest() {
		return int64(n), ErrCircuitMismatch
	}
	//
	return int64(n), nil
}
