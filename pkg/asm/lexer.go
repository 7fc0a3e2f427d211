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
package asm

import (
	"github.com/consensys/go-zkvm/pkg/util/source"
	"github.com/consensys/go-zkvm/pkg/util/source/lex"
)

// Token kinds
const (
	END_OF uint = iota
	WHITESPACE
	NEWLINE
	COMMENT
	COLON
	MINUS
	NUMBER
	IDENTIFIER
)

var whitespace = lex.Many(lex.Or(lex.Unit(' '), lex.Unit('\t'), lex.Unit('\r')))

var (
	hexDigit = lex.Or(lex.Within('0', '9'), lex.Within('a', 'f'), lex.Within('A', 'F'))
	number   = lex.Or(
		lex.Sequence(lex.Unit('0', 'x'), hexDigit, lex.Many(lex.Or(hexDigit, lex.Unit('_')))),
		lex.Sequence(lex.Unit('0', 'b'), lex.Within('0', '1'), lex.Many(lex.Or(lex.Within('0', '1'), lex.Unit('_')))),
		lex.Sequence(lex.Within('0', '9'), lex.Many(lex.Or(lex.Within('0', '9'), lex.Unit('_')))),
	)
)

var (
	identifierStart = lex.Or(lex.Unit('_'), lex.Unit('.'), lex.Within('a', 'z'), lex.Within('A', 'Z'))
	identifierRest  = lex.Many(lex.Or(lex.Unit('_'), lex.Unit('.'), lex.Within('0', '9'), lex.Within('a', 'z'),
		lex.Within('A', 'Z')))
	identifier = lex.Sequence(identifierStart, identifierRest)
)

// Comments run from ';' to the end of the line.
var comment = lex.Sequence(lex.Unit(';'), lex.Until('\n'))

var rules = []lex.LexRule[rune]{
	lex.Rule(comment, COMMENT),
	lex.Rule(lex.Unit('\n'), NEWLINE),
	lex.Rule(whitespace, WHITESPACE),
	lex.Rule(lex.Unit(':'), COLON),
	lex.Rule(lex.Unit('-'), MINUS),
	lex.Rule(number, NUMBER),
	lex.Rule(identifier, IDENTIFIER),
	lex.Rule(lex.Eof[rune](), END_OF),
}

// Lex a given source file into tokens, dropping whitespace and comments.
func Lex(srcfile *source.File) ([]lex.Token, []source.SyntaxError) {
	var (
		lexer  = lex.NewLexer(srcfile.Contents(), rules...)
		tokens []lex.Token
	)
	//
	for _, token := range lexer.Collect() {
		if token.Kind != WHITESPACE && token.Kind != COMMENT {
			tokens = append(tokens, token)
		}
	}
	//
	if lexer.Remaining() != 0 {
		var (
			end   = len(srcfile.Contents())
			start = end - int(lexer.Remaining())
		)
		//
		return nil, []source.SyntaxError{*srcfile.SyntaxError(source.NewSpan(start, start+1), "unknown text encountered")}
	}
	//
	return tokens, nil
}
