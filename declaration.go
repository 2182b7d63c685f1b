// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bbi

import (
	"fmt"
	"strings"
	"unicode"
)

// Declaration is a parsed autoSql table declaration. Two containers hold
// the same format only if their declarations are textually identical.
type Declaration struct {
	Name    string
	Comment string
	Fields  []Field

	text string
}

// Field is a column of an autoSql declaration.
type Field struct {
	// Type is the autoSql type of the field, for
	// example "uint", "string" or "char".
	Type string

	// Size is the array size for array types. It is
	// either a number or the name of a preceding field,
	// and is empty for scalar fields.
	Size string

	Name    string
	Comment string
}

// IsArray returns whether the field is an array.
func (f Field) IsArray() bool { return f.Size != "" }

// ParseDeclaration parses an autoSql table declaration.
func ParseDeclaration(text string) (*Declaration, error) {
	p := &declParser{src: text}
	d := &Declaration{text: text}
	p.expect("table")
	d.Name = p.word()
	d.Comment = p.quoted()
	p.expect("(")
	for p.err == nil {
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
			break
		}
		var f Field
		f.Type = p.word()
		p.skipSpace()
		if p.peek() == '[' {
			p.pos++
			f.Size = p.until(']')
		}
		f.Name = p.word()
		p.expect(";")
		f.Comment = p.quoted()
		if p.err == nil {
			d.Fields = append(d.Fields, f)
		}
	}
	if p.err != nil {
		return nil, fmt.Errorf("bbi: failed to parse declaration: %w", p.err)
	}
	if len(d.Fields) == 0 {
		return nil, fmt.Errorf("bbi: declaration %q has no fields", d.Name)
	}
	return d, nil
}

// String returns the text of the declaration.
func (d *Declaration) String() string { return d.text }

// Equal returns whether d and o have identical text.
func (d *Declaration) Equal(o *Declaration) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.text == o.text
}

// Index returns the index of the named field, or -1 if it is not present.
func (d *Declaration) Index(name string) int {
	for i, f := range d.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

type declParser struct {
	src string
	pos int
	err error
}

func (p *declParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *declParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *declParser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("offset %d: "+format, append([]any{p.pos}, args...)...)
	}
}

func isWord(c byte) bool {
	return c == '_' || c == '.' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func (p *declParser) word() string {
	if p.err != nil {
		return ""
	}
	p.skipSpace()
	s := p.pos
	for p.pos < len(p.src) && isWord(p.src[p.pos]) {
		p.pos++
	}
	if s == p.pos {
		p.fail("expected word")
	}
	return p.src[s:p.pos]
}

func (p *declParser) expect(tok string) {
	if p.err != nil {
		return
	}
	p.skipSpace()
	if !strings.HasPrefix(p.src[p.pos:], tok) {
		p.fail("expected %q", tok)
		return
	}
	p.pos += len(tok)
}

func (p *declParser) until(c byte) string {
	if p.err != nil {
		return ""
	}
	i := strings.IndexByte(p.src[p.pos:], c)
	if i < 0 {
		p.fail("missing %q", c)
		return ""
	}
	s := strings.TrimSpace(p.src[p.pos : p.pos+i])
	p.pos += i + 1
	return s
}

func (p *declParser) quoted() string {
	p.expect(`"`)
	return p.until('"')
}
