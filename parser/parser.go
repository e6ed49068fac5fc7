// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parser turns HERA source text into a flat list of raw
// operation invocations. It owns #include resolution and the
// conditional-compilation directives.
package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/herasm/hera/data"
	"github.com/herasm/hera/lexer"
	"github.com/herasm/hera/op"
	"github.com/herasm/hera/stdlib"
)

// Parse parses a HERA program from a string. path is the name used in
// diagnostics; pass lexer.PathString for non-file input.
func Parse(text, path string, settings *data.Settings) ([]*op.Op, data.Messages) {
	p := &parser{
		visited:  make(map[string]bool),
		settings: settings,
	}
	ops := p.parseText(text, path)
	return ops, p.msgs
}

// ParseFile reads and parses a HERA file.
func ParseFile(path string, settings *data.Settings) ([]*op.Op, data.Messages) {
	text, err := ReadFile(path)
	if err != nil {
		var msgs data.Messages
		msgs.Err(err.Error(), nil)
		return nil, msgs
	}
	return Parse(text, path, settings)
}

// ReadFile reads a file, insisting on ASCII-only contents.
func ReadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("file %q does not exist", path)
	case errors.Is(err, fs.ErrPermission):
		return "", fmt.Errorf("permission denied to open file %q", path)
	case err != nil:
		return "", fmt.Errorf("could not open file %q", path)
	}
	for _, c := range b {
		if c >= 0x80 {
			return "", fmt.Errorf("non-ASCII byte in file %q", path)
		}
	}
	return string(b), nil
}

type parser struct {
	lex      *lexer.Lexer
	visited  map[string]bool
	settings *data.Settings
	msgs     data.Messages
}

// parseText strips conditional-compilation blocks, lexes the result,
// and matches a whole program. Used for the root file and recursively
// for includes.
func (p *parser) parseText(text, path string) []*op.Op {
	text = evaluateIfdefs(text)
	old := p.lex
	p.lex = lexer.New(text, path)
	if path != lexer.PathString {
		p.visited[canonicalPath(path)] = true
	}
	ops := p.matchProgram()
	p.msgs.Extend(p.lex.Messages)
	p.lex = old
	return ops
}

func (p *parser) matchProgram() []*op.Op {
	expectingBrace := false
	var ops []*op.Op
	for p.lex.Tkn.Type != data.TokenEOF {
		if !p.expect("expected HERA operation or #include",
			data.TokenInclude, data.TokenSymbol, data.TokenRBrace) {
			p.skipUntil(data.TokenInclude, data.TokenSymbol)
			continue
		}

		switch p.lex.Tkn.Type {
		case data.TokenInclude:
			ops = append(ops, p.matchInclude()...)
		case data.TokenSymbol:
			nameTkn := p.lex.Tkn
			p.lex.NextToken()
			switch {
			case p.lex.Tkn.Type == data.TokenSymbol && nameTkn.Text == "void":
				// Legacy HERA programs wrap their ops in
				// void HERA_main() { ... }.
				expectingBrace = true
				p.skipCppBoilerplate()
			case p.lex.Tkn.Type == data.TokenLParen:
				if o := p.matchOp(nameTkn); o != nil {
					ops = append(ops, o)
				}
				if p.lex.Tkn.Type == data.TokenSemicolon {
					p.lex.NextToken()
				}
			default:
				p.err("expected left parenthesis", nil)
			}
		case data.TokenRBrace:
			if expectingBrace {
				expectingBrace = false
			} else {
				p.err("unexpected right brace", nil)
			}
			p.lex.NextToken()
		}
	}
	return ops
}

// matchOp matches one operation, with the current token on the left
// parenthesis.
func (p *parser) matchOp(nameTkn data.Token) *op.Op {
	p.lex.NextToken()
	args, ok := p.matchOptionalArglist()
	p.lex.NextToken()
	if !ok {
		return nil
	}
	if op.Lookup(nameTkn.Text) == nil {
		p.err(fmt.Sprintf("unknown instruction `%s`", nameTkn.Text), nameTkn.Loc)
		return nil
	}
	return op.New(nameTkn.Text, nameTkn.Loc, args...)
}

var valueTokens = []data.TokenType{
	data.TokenInt, data.TokenRegister, data.TokenSymbol,
	data.TokenString, data.TokenChar, data.TokenMinus,
}

// matchOptionalArglist matches zero or more comma-separated values,
// exiting with the right parenthesis as the current token. ok=false
// means the arglist could not be parsed at all.
func (p *parser) matchOptionalArglist() ([]data.Token, bool) {
	if p.lex.Tkn.Type == data.TokenRParen {
		return nil, true
	}

	var args []data.Token
	hitError := false
	for {
		var val *data.Token
		if p.expect("expected value", valueTokens...) {
			val = p.matchValue()
		}
		if val == nil {
			hitError = true
			p.skipUntil(data.TokenComma, data.TokenRParen)
			if p.lex.Tkn.Type == data.TokenComma {
				p.lex.NextToken()
				continue
			}
			break
		}
		args = append(args, *val)

		p.lex.NextToken()
		if p.lex.Tkn.Type == data.TokenRParen {
			break
		} else if p.lex.Tkn.Type != data.TokenComma {
			hitError = true
			p.err("expected comma or right parenthesis", nil)
			p.skipUntil(data.TokenComma, data.TokenRParen)
			if p.lex.Tkn.Type == data.TokenEOF || p.lex.Tkn.Type == data.TokenRParen {
				break
			}
		} else {
			p.lex.NextToken()
		}
	}
	if hitError {
		return nil, false
	}
	return args, true
}

// matchValue matches a single argument value. It leaves the matched
// token current.
func (p *parser) matchValue() *data.Token {
	switch p.lex.Tkn.Type {
	case data.TokenInt:
		return p.matchInt(false)
	case data.TokenChar:
		t := p.lex.Tkn
		t.Type = data.TokenInt
		return &t
	case data.TokenRegister:
		t := p.lex.Tkn
		return &t
	case data.TokenMinus:
		p.lex.NextToken()
		if !p.expect("expected integer", data.TokenInt) {
			return nil
		}
		return p.matchInt(true)
	default:
		t := p.lex.Tkn
		return &t
	}
}

// matchInt parses the current integer literal token, warning once per
// program about zero-prefixed octal.
func (p *parser) matchInt(negate bool) *data.Token {
	t := p.lex.Tkn
	if len(t.Text) >= 2 && t.Text[0] == '0' && t.Text[1] >= '0' && t.Text[1] <= '9' {
		if p.settings.WarnOctalOn {
			p.msgs.WarnOnce("octal", `consider using "0o" prefix for octal numbers`, t.Loc)
		}
	}
	v, err := strconv.ParseInt(t.Text, 0, 64)
	if err != nil {
		p.err("invalid integer literal", t.Loc)
		// A neutral value that is valid anywhere an integer is.
		v = 1
	}
	if negate {
		v = -v
	}
	t.Val = int(v)
	return &t
}

// matchInclude matches an #include statement, recursively parsing the
// included file.
func (p *parser) matchInclude() []*op.Op {
	rootPath := p.lex.Tkn.Loc.Path
	tkn := p.lex.NextToken()
	if !p.expect("expected quote or angle-bracket delimited string",
		data.TokenString, data.TokenBracketed) {
		p.lex.NextToken()
		return nil
	}
	p.lex.NextToken()

	if tkn.Type == data.TokenBracketed {
		return p.expandAngleInclude(tkn)
	}

	includePath := filepath.Join(filepath.Dir(rootPath), tkn.Text)
	if p.visited[canonicalPath(includePath)] {
		p.err("recursive include", tkn.Loc)
		return nil
	}
	text, err := ReadFile(includePath)
	if err != nil {
		p.err(err.Error(), tkn.Loc)
		return nil
	}
	return p.parseText(text, includePath)
}

// expandAngleInclude resolves #include <...> against the embedded
// Tiger standard library, then in one directory: $HERA_GO_DIR, or
// $HERA_C_DIR when that is unset, or /home/courses/lib/HERA-lib when
// neither is set.
func (p *parser) expandAngleInclude(tkn data.Token) []*op.Op {
	if tkn.Text == "HERA.h" {
		p.msgs.Warn("#include <HERA.h> is not necessary", tkn.Loc)
		return nil
	}
	if text, ok := stdlib.Source(tkn.Text); ok {
		return p.parseText(text, tkn.Text)
	}

	root := os.Getenv("HERA_GO_DIR")
	if root == "" {
		root = os.Getenv("HERA_C_DIR")
	}
	if root == "" {
		root = "/home/courses/lib/HERA-lib"
	}
	text, err := ReadFile(filepath.Join(root, tkn.Text))
	if err != nil {
		p.err(err.Error(), tkn.Loc)
		return nil
	}
	return p.parseText(text, tkn.Text)
}

func (p *parser) skipCppBoilerplate() {
	p.lex.NextToken()
	if p.expect("expected left parenthesis", data.TokenLParen) {
		p.lex.NextToken()
	}
	if p.expect("expected right parenthesis", data.TokenRParen) {
		p.lex.NextToken()
	}
	p.expect("expected left curly brace", data.TokenLBrace)
	p.lex.NextToken()
}

func (p *parser) expect(msg string, types ...data.TokenType) bool {
	for _, t := range types {
		if p.lex.Tkn.Type == t {
			return true
		}
	}
	switch p.lex.Tkn.Type {
	case data.TokenEOF:
		p.err("premature end of input", nil)
	case data.TokenError:
		p.err(p.lex.Tkn.Text, p.lex.Tkn.Loc)
	default:
		p.err(msg, nil)
	}
	return false
}

func (p *parser) skipUntil(types ...data.TokenType) {
	for p.lex.Tkn.Type != data.TokenEOF {
		for _, t := range types {
			if p.lex.Tkn.Type == t {
				return
			}
		}
		p.lex.NextToken()
	}
}

func (p *parser) err(msg string, loc *data.Location) {
	if loc == nil {
		loc = p.lex.Tkn.Loc
	}
	p.msgs.Err(msg, loc)
}

func canonicalPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			return resolved
		}
		return abs
	}
	return path
}
