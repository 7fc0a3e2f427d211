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

import "github.com/consensys/go-zkvm/pkg/util/source"

// Token associates a kind with a range of characters in the input.
type Token struct {
	Kind uint
	Span source.Span
}

// LexRule associates the characters matched by a scanner with a given kind.
//
// nolint
type LexRule[T any] struct {
	scanner Scanner[T]
	kind    uint
}

// Rule constructs a lexing rule mapping matched characters to a given kind.
func Rule[T any](scanner Scanner[T], kind uint) LexRule[T] {
	return LexRule[T]{scanner, kind}
}

// Lexer splits an input sequence into tokens by applying its rules in order,
// the first matching rule winning.
type Lexer[T any] struct {
	items []T
	index int
	rules []LexRule[T]
}

// NewLexer constructs a lexer over a given input.
func NewLexer[T any](input []T, rules ...LexRule[T]) *Lexer[T] {
	return &Lexer[T]{input, 0, rules}
}

// Remaining returns the number of input items not yet consumed.
func (p *Lexer[T]) Remaining() uint {
	return uint(max(0, len(p.items)-p.index))
}

// Next returns the next token, or false when no rule matches.  A rule
// matching at the end of input (e.g. Eof) produces an empty token exactly
// once.
func (p *Lexer[T]) Next() (Token, bool) {
	if p.index > len(p.items) {
		return Token{}, false
	}
	//
	for _, r := range p.rules {
		if n := r.scanner(p.items[p.index:]); n > 0 {
			end := min(len(p.items), p.index+int(n))
			token := Token{r.kind, source.NewSpan(p.index, end)}
			//
			if p.index == len(p.items) {
				p.index++
			} else {
				p.index = end
			}
			//
			return token, true
		}
	}
	//
	return Token{}, false
}

// Collect tokenises as much of the remaining input as possible.
func (p *Lexer[T]) Collect() []Token {
	var tokens []Token
	//
	for token, ok := p.Next(); ok; token, ok = p.Next() {
		tokens = append(tokens, token)
	}
	//
	return tokens
}
