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
package lex

import (
	"slices"
	"testing"

	"github.com/consensys/go-zkvm/pkg/util/assert"
	"github.com/consensys/go-zkvm/pkg/util/source"
)

const (
	endOf uint = iota
	space
	colon
	number
	word
)

var rules = []LexRule[rune]{
	Rule(Many(Or(Unit(' '), Unit('\t'))), space),
	Rule(Unit(':'), colon),
	Rule(Sequence(Unit('0', 'x'), Many(Or(Within('0', '9'), Within('a', 'f')))), number),
	Rule(Many(Within('0', '9')), number),
	Rule(And(Within('a', 'z'), Many(Within('a', 'z'))), word),
	Rule(Eof[rune](), endOf),
}

func Test_Lexer_01(t *testing.T) {
	checkLexer(t, "", 0, token(endOf, 0, 0))
}

func Test_Lexer_02(t *testing.T) {
	checkLexer(t, "loop:", 0, token(word, 0, 4), token(colon, 4, 5), token(endOf, 5, 5))
}

func Test_Lexer_03(t *testing.T) {
	checkLexer(t, "push 0x1f", 0,
		token(word, 0, 4), token(space, 4, 5), token(number, 5, 9), token(endOf, 9, 9))
}

func Test_Lexer_04(t *testing.T) {
	// Unmatched input halts the lexer
	checkLexer(t, "12 ?x", 2, token(number, 0, 2), token(space, 2, 3))
}

func Test_Scanner_01(t *testing.T) {
	rule := Sequence(Unit('a'), Unit('b'), Unit('c'))
	// Only the final scanner may be left unmatched
	assert.Equal(t, 0, rule([]rune("acc")))
	assert.Equal(t, 2, rule([]rune("abb")))
	assert.Equal(t, 3, rule([]rune("abc")))
	//
	assert.Equal(t, 3, Until(';')([]rune("abc;d")))
	assert.Equal(t, 0, Within('0', '9')([]rune("")))
}

func token(kind uint, start int, end int) Token {
	return Token{kind, source.NewSpan(start, end)}
}

func checkLexer(t *testing.T, input string, remainder uint, expected ...Token) {
	lexer := NewLexer([]rune(input), rules...)
	tokens := lexer.Collect()
	//
	if !slices.Equal(tokens, expected) {
		t.Errorf("got %v, expected %v", tokens, expected)
	}
	//
	assert.Equal(t, remainder, lexer.Remaining())
}
