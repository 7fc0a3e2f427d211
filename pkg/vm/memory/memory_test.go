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
package memory

import (
	"math"
	"testing"

	"github.com/consensys/go-zkvm/pkg/util/assert"
	"github.com/consensys/go-zkvm/pkg/util/field"
)

func Test_Stack_01(t *testing.T) {
	var (
		s0  = NewStack(2)
		err error
	)
	//
	s1, err := s0.Push(field.Uint64(1))
	assert.NoError(t, err)
	s2, err := s1.Push(field.Uint64(2))
	assert.NoError(t, err)
	_, err = s2.Push(field.Uint64(3))
	assert.ErrorIs(t, err, ErrStackOverflow)
	// Earlier snapshots are unaffected
	assert.Equal(t, uint(0), s0.Len())
	assert.Equal(t, uint(1), s1.Len())
	assert.Equal(t, []field.Element{field.Uint64(1), field.Uint64(2)}, s2.Contents())
	//
	top, s3, err := s2.Pop()
	assert.NoError(t, err)
	assert.Equal(t, field.Uint64(2), top)
	assert.Equal(t, uint(1), s3.Len())
	assert.Equal(t, uint(2), s2.Len())
}

func Test_Stack_02(t *testing.T) {
	_, _, err := NewStack(4).Pop()
	assert.ErrorIs(t, err, ErrStackUnderflow)
	//
	_, err = NewStack(4).Peek(0)
	assert.ErrorIs(t, err, ErrStackUnderflow)
}

func Test_Stack_03(t *testing.T) {
	s, _ := NewStack(4).Push(field.Uint64(10))
	s, _ = s.Push(field.Uint64(20))
	//
	second, err := s.Peek(1)
	assert.NoError(t, err)
	assert.Equal(t, field.Uint64(10), second)
	//
	_, err = s.Peek(2)
	assert.ErrorIs(t, err, ErrStackUnderflow)
}

func Test_Memory_01(t *testing.T) {
	m, err := NewMemory(math.MaxUint32+1, nil)
	assert.NoError(t, err)
	// Unwritten addresses read as zero
	v, err := m.Read(12345)
	assert.NoError(t, err)
	assert.True(t, v.IsZero())
	//
	m2, err := m.Write(12345, field.Uint64(8))
	assert.NoError(t, err)
	v, _ = m2.Read(12345)
	assert.Equal(t, field.Uint64(8), v)
	// Original untouched
	v, _ = m.Read(12345)
	assert.True(t, v.IsZero())
}

func Test_Memory_02(t *testing.T) {
	m, err := NewMemory(16, map[uint32]field.Element{3: field.Uint64(9)})
	assert.NoError(t, err)
	//
	_, err = m.Read(16)
	assert.ErrorIs(t, err, ErrAddressOutOfRange)
	_, err = m.Write(100, field.One())
	assert.ErrorIs(t, err, ErrAddressOutOfRange)
	//
	_, err = NewMemory(2, map[uint32]field.Element{2: field.One()})
	assert.ErrorIs(t, err, ErrAddressOutOfRange)
}

func Test_Memory_03(t *testing.T) {
	// Exercise flattening of overlays
	m, _ := NewMemory(1024, nil)
	//
	for i := range 200 {
		m, _ = m.Write(uint32(i%50), field.Uint64(uint64(i)))
	}
	//
	for i := range 50 {
		v, _ := m.Read(uint32(i))
		assert.Equal(t, field.Uint64(uint64(150+i)), v)
	}
	//
	assert.Equal(t, 49, len(m.Contents())-1)
	// Zero writes remove entries
	m, _ = m.Write(0, field.Zero())
	assert.Equal(t, 49, len(m.Contents()))
	assert.Equal(t, uint32(1), m.Addresses()[0])
}
