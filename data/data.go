// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package data defines the value types shared by every stage of the
// HERA toolchain: source locations, tokens, diagnostic messages, the
// symbol table, and the global settings struct.
package data

import "fmt"

// DefaultDataStart is the memory address of the first cell of the
// static data segment.
const DefaultDataStart = 0xC000

// BigStackDataStart is the data segment origin used with --big-stack.
// The constant is inherited from HERA-C.
const BigStackDataStart = 0xC167

// A Location identifies a position in a source file. FileLines is
// shared by every location in the same file so that diagnostics can
// quote the offending line.
type Location struct {
	Line      int
	Column    int
	Path      string
	FileLines []string
}

func (l *Location) String() string {
	if l == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.Column)
}

// TokenType enumerates the lexical categories of HERA and of the
// debugger's expression mini-language, which shares the lexer.
type TokenType int

const (
	TokenInt TokenType = iota
	TokenRegister
	TokenSymbol
	TokenString
	TokenBracketed
	TokenChar
	TokenMinus
	TokenPlus
	TokenAsterisk
	TokenSlash
	TokenAt
	TokenFmt
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenComma
	TokenSemicolon
	TokenInclude
	TokenEOF
	TokenError
	TokenUnknown
)

// A Token is one lexeme plus its source location. Text holds the raw
// lexeme (or the decoded contents for strings and chars). Val holds
// the numeric value once one is known: the parser fills it in for
// integer literals, and the lexer fills it in for character literals
// and register names.
type Token struct {
	Type TokenType
	Text string
	Val  int
	Loc  *Location
}

// R constructs a register token, for synthesized operations.
func R(i int) Token {
	return Token{Type: TokenRegister, Text: "R" + itoa(i), Val: i}
}

// Int constructs an integer token, for synthesized operations.
func Int(v int) Token {
	return Token{Type: TokenInt, Text: itoa(v), Val: v}
}

// Sym constructs a symbol token.
func Sym(s string) Token {
	return Token{Type: TokenSymbol, Text: s}
}

// Str constructs a string-literal token.
func Str(s string) Token {
	return Token{Type: TokenString, Text: s}
}

func (t Token) String() string {
	switch t.Type {
	case TokenRegister:
		return "R" + itoa(t.Val)
	case TokenInt:
		return itoa(t.Val)
	case TokenString:
		return fmt.Sprintf("%q", t.Text)
	default:
		return t.Text
	}
}

func itoa(v int) string {
	return fmt.Sprintf("%d", v)
}

// SymbolKind distinguishes the three variants a name can resolve to.
type SymbolKind int

const (
	// SymLabel is a code label: an index into the resolved op stream.
	SymLabel SymbolKind = iota
	// SymConstant is a named constant declared with CONSTANT.
	SymConstant
	// SymDataLabel is a memory address in the static data segment.
	SymDataLabel
)

// A Symbol is one entry in the symbol table.
type Symbol struct {
	Kind  SymbolKind
	Value int
}

// SymbolTable maps identifiers to symbols. Identifiers are
// case-sensitive and may begin with a valid register prefix.
type SymbolTable map[string]Symbol
