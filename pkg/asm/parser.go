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
	"math/big"
	"strings"

	"github.com/consensys/go-zkvm/pkg/util/source"
	"github.com/consensys/go-zkvm/pkg/util/source/lex"
	"github.com/consensys/go-zkvm/pkg/vm/instruction"
)

// Statement is a single line of assembly, which declares zero or more labels
// and optionally an instruction.
type Statement struct {
	// Labels declared at this point
	Labels []string
	// Instruction (if any)
	Opcode instruction.Opcode
	// Operand of the instruction (if any).
	Operand *Operand
	// Span of the instruction, for error reporting.
	Span source.Span
	// Indicates whether an instruction is present
	HasInstruction bool
}

// Operand is either a (signed) numeric literal or a reference to a label.
type Operand struct {
	Label string
	Value big.Int
	Span  source.Span
}

// IsLabel determines whether this operand refers to a label.
func (p *Operand) IsLabel() bool {
	return p.Label != ""
}

// Parser for a line-oriented assembly language.  Each line holds an optional
// label declaration (e.g. "loop:") followed by an optional instruction, such
// as "PUSH 0x2a" or "JUMPI loop".  Mnemonics are case insensitive.
type Parser struct {
	srcfile *source.File
	tokens  []lex.Token
	// Position within the tokens
	index int
}

// NewParser constructs a new parser for a given source file.
func NewParser(srcfile *source.File) *Parser {
	return &Parser{srcfile, nil, 0}
}

// Parse the given source file into a sequence of statements.
func (p *Parser) Parse() ([]Statement, []source.SyntaxError) {
	var (
		statements []Statement
		labels     []string
		errors     []source.SyntaxError
	)
	//
	if p.tokens, errors = Lex(p.srcfile); len(errors) > 0 {
		return nil, errors
	}
	//
	for p.lookahead().Kind != END_OF {
		// Labels
		for p.follows(IDENTIFIER, COLON) {
			labels = append(labels, p.string(p.tokens[p.index]))
			p.index += 2
		}
		// Skip blank lines
		if p.match(NEWLINE) {
			continue
		} else if p.lookahead().Kind == END_OF {
			break
		}
		//
		stmt, errs := p.parseInstruction()
		//
		if len(errs) > 0 {
			errors = append(errors, errs...)
			p.skipLine()
			//
			continue
		}
		//
		stmt.Labels, labels = labels, nil
		statements = append(statements, stmt)
		//
		if !p.match(NEWLINE) && p.lookahead().Kind != END_OF {
			errors = append(errors, p.syntaxErrors(p.lookahead(), "expected end of line")...)
			p.skipLine()
		}
	}
	// Trailing labels
	if len(labels) > 0 {
		statements = append(statements, Statement{Labels: labels})
	}
	//
	return statements, errors
}

func (p *Parser) parseInstruction() (Statement, []source.SyntaxError) {
	var stmt Statement
	//
	token, errs := p.expect(IDENTIFIER)
	if len(errs) > 0 {
		return stmt, errs
	}
	//
	opcode, ok := instruction.LookupMnemonic(strings.ToUpper(p.string(token)))
	if !ok {
		return stmt, p.syntaxErrors(token, "unknown instruction")
	}
	//
	stmt.Opcode, stmt.Span, stmt.HasInstruction = opcode, token.Span, true
	//
	switch {
	case opcode.ImmediateWidth() == 0:
		return stmt, nil
	case p.lookahead().Kind == NEWLINE || p.lookahead().Kind == END_OF:
		return stmt, p.syntaxErrors(token, "missing operand")
	}
	//
	stmt.Operand, errs = p.parseOperand()
	//
	return stmt, errs
}

func (p *Parser) parseOperand() (*Operand, []source.SyntaxError) {
	var (
		operand Operand
		start   = p.lookahead().Span.Start()
		negate  = p.match(MINUS)
	)
	//
	token := p.lookahead()
	//
	switch {
	case token.Kind == IDENTIFIER && !negate:
		operand.Label = p.string(token)
	case token.Kind == NUMBER:
		if _, ok := operand.Value.SetString(p.string(token), 0); !ok {
			return nil, p.syntaxErrors(token, "malformed number")
		} else if negate {
			operand.Value.Neg(&operand.Value)
		}
	default:
		return nil, p.syntaxErrors(token, "expected number or label")
	}
	//
	p.index++
	operand.Span = source.NewSpan(start, token.Span.End())
	//
	return &operand, nil
}

// Skip to the start of the next line.
func (p *Parser) skipLine() {
	for kind := p.lookahead().Kind; kind != END_OF; kind = p.lookahead().Kind {
		p.index++
		//
		if kind == NEWLINE {
			return
		}
	}
}

// Get the text of the given token.
func (p *Parser) string(token lex.Token) string {
	start, end := token.Span.Start(), token.Span.End()
	return string(p.srcfile.Contents()[start:end])
}

// Lookahead returns the next token.  This must exist because EOF is always
// appended at the end of the token stream.
func (p *Parser) lookahead() lex.Token {
	return p.tokens[p.index]
}

func (p *Parser) expect(kind uint) (lex.Token, []source.SyntaxError) {
	lookahead := p.lookahead()
	//
	if lookahead.Kind != kind {
		return lookahead, p.syntaxErrors(lookahead, "unexpected token")
	}
	//
	p.index++
	//
	return lookahead, nil
}

func (p *Parser) match(kind uint) bool {
	if p.lookahead().Kind == kind {
		p.index++
		return true
	}
	//
	return false
}

func (p *Parser) follows(kinds ...uint) bool {
	for i, kind := range kinds {
		if n := i + p.index; n >= len(p.tokens) || p.tokens[n].Kind != kind {
			return false
		}
	}
	//
	return true
}

func (p *Parser) syntaxErrors(token lex.Token, msg string) []source.SyntaxError {
	return []source.SyntaxError{*p.srcfile.SyntaxError(token.Span, msg)}
}
