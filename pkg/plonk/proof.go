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
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/kzg"
	"github.com/consensys/go-zkvm/pkg/arith"
	"github.com/consensys/go-zkvm/pkg/util/field"
	"github.com/zeebo/blake3"
)

// ErrMalformedProof is returned when decoding an invalid proof encoding.
var ErrMalformedProof = errors.New("malformed proof")

var proofMagic = [4]byte{'z', 'k', 'v', 'p'}

const proofVersion = 1

// Section tags, which must appear in this order.
const (
	sectionRows uint8 = iota + 1
	sectionProgram
	sectionPublic
	sectionCommitments
	sectionEvaluations
	sectionShifted
	sectionOpenings
)

// Bounds on variable length sections.
const (
	maxProgramSize = 1 << 24
	maxPublic      = 1 << arith.SPBits
)

// Proof attests that a program, when run from some initial memory, halts with a
// given final stack.  Proofs are self-contained: they carry the program and
// public inputs they refer to.
type Proof struct {
	// Size of the trace domain
	Rows uint
	// Program bytes
	Program []byte
	// Public inputs (final stack, bottom to top)
	Public []field.Element
	// Commitments to every column, followed by the quotient
	Commitments [NumCommitments]kzg.Digest
	// Evaluations of every committed polynomial at zeta
	Evaluations [NumCommitments]field.Element
	// Evaluations of the shifted columns at omega*zeta, ordered as
	// arith.Shifted.
	Shifted []field.Element
	// Opening proofs at zeta and omega*zeta respectively
	Openings [2]kzg.Digest
}

// Digest returns a binding identifier for this proof.
func (p *Proof) Digest() [32]byte {
	bytes, _ := p.MarshalBinary()
	//
	return blake3.Sum256(bytes)
}

// MarshalBinary encodes this proof.  The encoding starts with a magic value and
// version, followed by a fixed sequence of tagged sections.  Commitments and
// evaluations are each tagged with their column identifier.
func (p *Proof) MarshalBinary() ([]byte, error) {
	if len(p.Shifted) != len(arith.Shifted) {
		return nil, fmt.Errorf("%w (expected %d shifted evaluations)", ErrMalformedProof, len(arith.Shifted))
	}
	//
	var buf []byte
	//
	buf = append(buf, proofMagic[:]...)
	buf = append(buf, proofVersion)
	// Rows
	buf = append(buf, sectionRows)
	buf = binary.BigEndian.AppendUint32(buf, uint32(p.Rows))
	// Program
	buf = append(buf, sectionProgram)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(p.Program)))
	buf = append(buf, p.Program...)
	// Public inputs
	buf = append(buf, sectionPublic)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(p.Public)))
	//
	for i := range p.Public {
		buf = appendElement(buf, p.Public[i])
	}
	// Commitments
	buf = append(buf, sectionCommitments)
	buf = binary.BigEndian.AppendUint16(buf, uint16(NumCommitments))
	//
	for id := range p.Commitments {
		buf = binary.BigEndian.AppendUint16(buf, uint16(id))
		buf = appendPoint(buf, p.Commitments[id])
	}
	// Evaluations
	buf = append(buf, sectionEvaluations)
	buf = binary.BigEndian.AppendUint16(buf, uint16(NumCommitments))
	//
	for id := range p.Evaluations {
		buf = binary.BigEndian.AppendUint16(buf, uint16(id))
		buf = appendElement(buf, p.Evaluations[id])
	}
	// Shifted evaluations
	buf = append(buf, sectionShifted)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(arith.Shifted)))
	//
	for i, col := range arith.Shifted {
		buf = binary.BigEndian.AppendUint16(buf, uint16(col))
		buf = appendElement(buf, p.Shifted[i])
	}
	// Openings
	buf = append(buf, sectionOpenings)
	buf = appendPoint(buf, p.Openings[0])
	buf = appendPoint(buf, p.Openings[1])
	//
	return buf, nil
}

// UnmarshalBinary decodes a proof encoded by MarshalBinary.  Entries within a
// tagged section may appear in any order, but every identifier must appear
// exactly once.  Every field element and curve point must be canonically
// encoded, and no trailing bytes are permitted.
func (p *Proof) UnmarshalBinary(data []byte) error {
	var (
		dec   = decoder{buf: data}
		proof Proof
	)
	//
	if magic := dec.bytes(4); dec.err == nil && !slices.Equal(magic, proofMagic[:]) {
		return fmt.Errorf("%w (bad magic)", ErrMalformedProof)
	} else if version := dec.u8(); dec.err == nil && version != proofVersion {
		return fmt.Errorf("%w (unsupported version %d)", ErrMalformedProof, version)
	}
	// Rows
	dec.section(sectionRows)
	proof.Rows = uint(dec.u32())
	// Program
	dec.section(sectionProgram)
	proof.Program = slices.Clone(dec.bytes(dec.length(maxProgramSize, 1)))
	// Public inputs
	dec.section(sectionPublic)
	//
	if count := dec.length(maxPublic, field.Bytes); dec.err == nil {
		proof.Public = make([]field.Element, count)
		//
		for i := range proof.Public {
			proof.Public[i] = dec.element()
		}
	}
	// Commitments
	dec.section(sectionCommitments)
	dec.entries(NumCommitments, func(id uint) bool { return id < NumCommitments }, func(id uint) {
		proof.Commitments[id] = dec.point()
	})
	// Evaluations
	dec.section(sectionEvaluations)
	dec.entries(NumCommitments, func(id uint) bool { return id < NumCommitments }, func(id uint) {
		proof.Evaluations[id] = dec.element()
	})
	// Shifted evaluations
	proof.Shifted = make([]field.Element, len(arith.Shifted))
	//
	dec.section(sectionShifted)
	dec.entries(uint(len(arith.Shifted)), isShifted, func(id uint) {
		index, _ := arith.Column(id).ShiftIndex()
		proof.Shifted[index] = dec.element()
	})
	// Openings
	dec.section(sectionOpenings)
	proof.Openings[0] = dec.point()
	proof.Openings[1] = dec.point()
	//
	if dec.err == nil && len(dec.buf) != 0 {
		dec.fail("%d trailing bytes", len(dec.buf))
	}
	//
	if dec.err != nil {
		return dec.err
	}
	//
	*p = proof
	//
	return nil
}

func isShifted(id uint) bool {
	if id >= uint(arith.NumColumns) {
		return false
	}
	//
	_, ok := arith.Column(id).ShiftIndex()
	//
	return ok
}

func appendElement(buf []byte, e field.Element) []byte {
	bytes := e.Bytes()
	return append(buf, bytes[:]...)
}

func appendPoint(buf []byte, point kzg.Digest) []byte {
	bytes := point.Bytes()
	return append(buf, bytes[:]...)
}

// ============================================================================
// Decoder
// ============================================================================

// Decoder consumes a byte slice, recording the first error encountered.  Once
// an error has occurred, every subsequent read returns a zero value.
type decoder struct {
	buf []byte
	err error
}

func (p *decoder) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%w (%s)", ErrMalformedProof, fmt.Sprintf(format, args...))
	}
}

func (p *decoder) bytes(n uint) []byte {
	if p.err != nil {
		return nil
	} else if uint(len(p.buf)) < n {
		p.fail("unexpected end of input")
		return nil
	}
	//
	bytes := p.buf[:n]
	p.buf = p.buf[n:]
	//
	return bytes
}

func (p *decoder) u8() uint8 {
	if bytes := p.bytes(1); bytes != nil {
		return bytes[0]
	}
	//
	return 0
}

func (p *decoder) u16() uint16 {
	if bytes := p.bytes(2); bytes != nil {
		return binary.BigEndian.Uint16(bytes)
	}
	//
	return 0
}

func (p *decoder) u32() uint32 {
	if bytes := p.bytes(4); bytes != nil {
		return binary.BigEndian.Uint32(bytes)
	}
	//
	return 0
}

// Read a section tag, which must match the expected tag.
func (p *decoder) section(tag uint8) {
	if actual := p.u8(); p.err == nil && actual != tag {
		p.fail("expected section %d, found %d", tag, actual)
	}
}

// Read a length prefix, checking it is within bounds and that enough input
// remains to hold that many items of the given size.
func (p *decoder) length(limit uint, size uint) uint {
	n := uint(p.u32())
	//
	if p.err != nil {
		return 0
	} else if n > limit || n*size > uint(len(p.buf)) {
		p.fail("invalid length %d", n)
		return 0
	}
	//
	return n
}

func (p *decoder) element() field.Element {
	bytes := p.bytes(field.Bytes)
	//
	if p.err != nil {
		return field.Element{}
	}
	//
	element, err := field.FromCanonical(bytes)
	if err != nil {
		p.fail("%s", err.Error())
	}
	//
	return element
}

func (p *decoder) point() kzg.Digest {
	var point bls12377.G1Affine
	//
	bytes := p.bytes(bls12377.SizeOfG1AffineCompressed)
	//
	if p.err != nil {
		return point
	} else if _, err := point.SetBytes(bytes); err != nil {
		p.fail("invalid point: %s", err.Error())
	} else if encoded := point.Bytes(); !slices.Equal(encoded[:], bytes) {
		p.fail("non-canonical point")
	}
	//
	return point
}

// Read a section of tagged entries.  Exactly count entries are expected, each
// with a valid and distinct identifier.
func (p *decoder) entries(count uint, valid func(uint) bool, read func(uint)) {
	var seen = make(map[uint]bool, count)
	//
	if actual := uint(p.u16()); p.err == nil && actual != count {
		p.fail("expected %d entries, found %d", count, actual)
	}
	//
	for range count {
		id := uint(p.u16())
		//
		if p.err != nil {
			return
		} else if !valid(id) {
			p.fail("unknown identifier %d", id)
			return
		} else if seen[id] {
			p.fail("duplicate identifier %d", id)
			return
		}
		//
		seen[id] = true
		//
		read(id)
	}
}
