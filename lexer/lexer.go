// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lexer implements the scanner for HERA source text and for
// the debugger's expression mini-language, which shares the token set.
package lexer

import (
	"strings"

	"github.com/herasm/hera/data"
)

// PathString is the path reported for source that did not come from a
// file, such as debugger input.
const PathString = "<string>"

// A Lexer scans one string of HERA text. After New returns, Tkn holds
// the first token; NextToken advances it.
type Lexer struct {
	text      string
	fileLines []string
	pos       int
	line      int
	column    int
	path      string

	// Tkn is the current token.
	Tkn data.Token
	// Messages collects lexical warnings and errors.
	Messages data.Messages
}

// New creates a lexer over text and scans the first token.
func New(text, path string) *Lexer {
	lines := strings.Split(text, "\n")
	l := &Lexer{
		text:      text,
		fileLines: lines,
		line:      1,
		column:    1,
		path:      path,
	}
	l.NextToken()
	return l
}

// Loc returns the lexer's current location.
func (l *Lexer) Loc() *data.Location {
	return &data.Location{Line: l.line, Column: l.column, Path: l.path, FileLines: l.fileLines}
}

// FileLines exposes the split source, for diagnostics and the
// debugger's source listing.
func (l *Lexer) FileLines() []string {
	return l.fileLines
}

// NextToken advances one token, sets l.Tkn to it, and returns it.
func (l *Lexer) NextToken() data.Token {
	l.skip()

	if l.pos >= len(l.text) {
		l.setToken(data.TokenEOF, 0)
		return l.Tkn
	}

	ch := l.text[l.pos]
	switch {
	case isAlpha(ch) || ch == '_':
		length := l.readSymbol()
		word := l.text[l.pos : l.pos+length]
		if data.IsRegister(word) {
			idx, _ := data.RegisterIndex(word)
			l.setToken(data.TokenRegister, length)
			l.Tkn.Val = idx
		} else {
			l.setToken(data.TokenSymbol, length)
		}
	case isDigit(ch):
		l.setToken(data.TokenInt, l.readInt())
	case ch == '"':
		l.consumeString()
	case ch == '\'':
		l.consumeChar()
	case strings.HasPrefix(l.text[l.pos:], "#include"):
		l.setToken(data.TokenInclude, len("#include"))
	case ch == '<':
		l.consumeBracketed()
	case ch == ':':
		l.nextChar()
		l.setToken(data.TokenFmt, l.readSymbol())
	case ch == '-':
		l.setToken(data.TokenMinus, 1)
	case ch == '+':
		l.setToken(data.TokenPlus, 1)
	case ch == '/':
		l.setToken(data.TokenSlash, 1)
	case ch == '*':
		l.setToken(data.TokenAsterisk, 1)
	case ch == '@':
		l.setToken(data.TokenAt, 1)
	case ch == '(':
		l.setToken(data.TokenLParen, 1)
	case ch == ')':
		l.setToken(data.TokenRParen, 1)
	case ch == '{':
		l.setToken(data.TokenLBrace, 1)
	case ch == '}':
		l.setToken(data.TokenRBrace, 1)
	case ch == ',':
		l.setToken(data.TokenComma, 1)
	case ch == ';':
		l.setToken(data.TokenSemicolon, 1)
	default:
		l.setToken(data.TokenUnknown, 1)
	}
	return l.Tkn
}

// readInt returns the length of the integer literal at the current
// position. Accepts decimal, 0x/0o/0b prefixes, and bare 0-prefixed
// octal.
func (l *Lexer) readInt() int {
	length := 1
	hex := false
	if l.text[l.pos] == '0' {
		if p := l.peekChar(1); p == 'x' || p == 'X' {
			length = 2
			hex = true
		} else if p == 'o' || p == 'O' || p == 'b' || p == 'B' {
			length = 2
		}
	}
	for {
		c := l.peekChar(length)
		if isDigit(c) || (hex && isAlpha(c)) {
			length++
		} else {
			break
		}
	}
	return length
}

func (l *Lexer) readSymbol() int {
	length := 1
	for {
		c := l.peekChar(length)
		if !(isAlpha(c) || isDigit(c) || c == '_') {
			break
		}
		length++
	}
	return length
}

const hexDigits = "0123456789abcdefABCDEF"

// readEscapeChar decodes the escape sequence whose backslash is at the
// current position. It returns the decoded string and the number of
// characters after the backslash that it consumed. Invalid escapes
// record an error and decode to the raw character.
func (l *Lexer) readEscapeChar() (string, int) {
	peek := l.peekChar(1)
	loc := l.Loc()
	loc.Column++
	switch {
	case peek == 0:
		return "", 0
	case peek == 'x':
		p2, p3 := l.peekChar(2), l.peekChar(3)
		if strings.IndexByte(hexDigits, p2) >= 0 && p2 != 0 &&
			strings.IndexByte(hexDigits, p3) >= 0 && p3 != 0 {
			v := hexVal(p2)<<4 | hexVal(p3)
			return string(rune(v)), 3
		}
		l.Messages.Err("invalid hex escape", loc)
		return "x", 1
	case isDigit(peek):
		// Octal escapes, including \0.
		length := 1
		for length <= 3 && isDigit(l.peekChar(length)) {
			length++
		}
		v := 0
		bad := false
		for i := 1; i < length; i++ {
			d := l.peekChar(i)
			if d > '7' {
				bad = true
			}
			v = v*8 + int(d-'0')
		}
		if bad {
			l.Messages.Err("invalid octal escape", loc)
			return string(peek), 1
		}
		return string(rune(v)), length - 1
	case peek == 'n':
		return "\n", 1
	case peek == 't':
		return "\t", 1
	case peek == 'r':
		return "\r", 1
	case peek == '\\':
		return "\\", 1
	case peek == '\'':
		return "'", 1
	case peek == '"':
		return "\"", 1
	default:
		l.Messages.Err("unrecognized backslash escape", loc)
		return string(peek), 1
	}
}

func (l *Lexer) consumeBracketed() {
	l.nextChar()
	loc := l.Loc()
	start := l.pos
	for l.pos < len(l.text) && l.text[l.pos] != '>' {
		l.nextChar()
	}
	if l.pos == len(l.text) {
		l.Tkn = data.Token{Type: data.TokenError, Text: "unclosed bracketed expression", Loc: loc}
		return
	}
	l.Tkn = data.Token{Type: data.TokenBracketed, Text: l.text[start:l.pos], Loc: loc}
	l.nextChar()
}

func (l *Lexer) consumeString() {
	loc := l.Loc()
	l.nextChar()
	s, ok := l.consumeDelimited('"')
	if !ok || l.pos == len(l.text) {
		l.Tkn = data.Token{Type: data.TokenError, Text: "unclosed string literal", Loc: loc}
		return
	}
	l.nextChar()
	l.Tkn = data.Token{Type: data.TokenString, Text: s, Loc: loc}
}

func (l *Lexer) consumeChar() {
	loc := l.Loc()
	l.nextChar()
	s, ok := l.consumeDelimited('\'')
	if !ok || l.pos == len(l.text) {
		l.Tkn = data.Token{Type: data.TokenError, Text: "unclosed character literal", Loc: loc}
		return
	}
	l.nextChar()
	runes := []rune(s)
	if len(runes) == 1 {
		l.Tkn = data.Token{Type: data.TokenChar, Text: s, Val: int(runes[0]), Loc: loc}
	} else {
		l.Tkn = data.Token{Type: data.TokenError, Text: "over-long character literal", Loc: loc}
	}
}

// consumeDelimited scans up to the next unescaped delimiter, decoding
// backslash escapes. A raw newline terminates the scan with ok=false,
// since literals may not span lines.
func (l *Lexer) consumeDelimited(delim byte) (string, bool) {
	var b strings.Builder
	for l.pos < len(l.text) && l.text[l.pos] != delim {
		if l.text[l.pos] == '\n' {
			return b.String(), false
		}
		if l.text[l.pos] == '\\' {
			value, length := l.readEscapeChar()
			l.nextChar()
			if length == 0 {
				break
			}
			b.WriteString(value)
			for i := 0; i < length; i++ {
				l.nextChar()
			}
		} else {
			b.WriteByte(l.text[l.pos])
			l.nextChar()
		}
	}
	return b.String(), true
}

// skip advances past whitespace and comments.
func (l *Lexer) skip() {
	for {
		for l.pos < len(l.text) && isSpace(l.text[l.pos]) {
			l.nextChar()
		}
		if l.pos < len(l.text) && l.text[l.pos] == '/' {
			if l.peekChar(1) == '/' {
				for l.pos < len(l.text) && l.text[l.pos] != '\n' {
					l.nextChar()
				}
			} else if l.peekChar(1) == '*' {
				l.nextChar()
				l.nextChar()
				for l.pos < len(l.text) {
					if l.text[l.pos] == '*' && l.peekChar(1) == '/' {
						break
					}
					l.nextChar()
				}
				if l.pos < len(l.text) {
					l.nextChar()
					l.nextChar()
				}
			} else {
				return
			}
		} else {
			return
		}
	}
}

func (l *Lexer) nextChar() {
	if l.pos < len(l.text) {
		if l.text[l.pos] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
}

// peekChar returns the byte n positions past the current one, or 0
// at end of input.
func (l *Lexer) peekChar(n int) byte {
	if l.pos+n < len(l.text) {
		return l.text[l.pos+n]
	}
	return 0
}

func (l *Lexer) setToken(typ data.TokenType, length int) {
	loc := l.Loc()
	if l.pos+length > len(l.text) {
		length = len(l.text) - l.pos
	}
	text := l.text[l.pos : l.pos+length]
	for i := 0; i < length; i++ {
		l.nextChar()
	}
	l.Tkn = data.Token{Type: typ, Text: text, Loc: loc}
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}
