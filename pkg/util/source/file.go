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
package source

import (
	"fmt"
	"os"
)

// File is a named piece of source text, typically read from disk.
type File struct {
	filename string
	contents []rune
}

// NewFile constructs a source file from a given byte array.
func NewFile(filename string, bytes []byte) *File {
	return &File{filename, []rune(string(bytes))}
}

// ReadFile reads a source file from disk.
func ReadFile(filename string) (*File, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	//
	return NewFile(filename, bytes), nil
}

// Filename returns the name of this source file.
func (p *File) Filename() string {
	return p.filename
}

// Contents returns the contents of this source file.
func (p *File) Contents() []rune {
	return p.contents
}

// SyntaxError constructs an error over a given span of this file.
func (p *File) SyntaxError(span Span, msg string) *SyntaxError {
	return &SyntaxError{p, span, msg}
}

// EnclosingLine determines the line of this file which encloses the start of
// a given span.  A span beyond the end of the file is reported on the last
// line.
func (p *File) EnclosingLine(span Span) Line {
	var (
		num   = 1
		start = 0
	)
	//
	for i, c := range p.contents {
		if i == span.start {
			break
		} else if c == '\n' {
			num++
			start = i + 1
		}
	}
	//
	end := start
	//
	for end < len(p.contents) && p.contents[end] != '\n' {
		end++
	}
	//
	return Line{p.contents, Span{start, end}, num}
}

// Line identifies a single line within some source text.
type Line struct {
	text []rune
	span Span
	// Counting from 1
	number int
}

func (p Line) String() string {
	return string(p.text[p.span.start:p.span.end])
}

// Number returns the line number, counting from 1.
func (p Line) Number() int {
	return p.number
}

// Start returns the index of the first character of this line.
func (p Line) Start() int {
	return p.span.start
}

// SyntaxError is a structured error retaining the span of source text where
// it arose.
type SyntaxError struct {
	file *File
	span Span
	msg  string
}

// File returns the source file in which this error arose.
func (p *SyntaxError) File() *File {
	return p.file
}

// Span returns the span of text on which this error is reported.
func (p *SyntaxError) Span() Span {
	return p.span
}

// Message returns the message to be reported.
func (p *SyntaxError) Message() string {
	return p.msg
}

// Line returns the line on which this error is reported.
func (p *SyntaxError) Line() Line {
	return p.file.EnclosingLine(p.span)
}

func (p *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", p.file.filename, p.Line().Number(), p.msg)
}
