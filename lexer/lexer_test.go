// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herasm/hera/data"
)

func tokenTypes(text string) []data.TokenType {
	l := New(text, PathString)
	var types []data.TokenType
	for l.Tkn.Type != data.TokenEOF {
		types = append(types, l.Tkn.Type)
		l.NextToken()
	}
	return types
}

func TestBasicTokens(t *testing.T) {
	types := tokenTypes(`SET(R1, 42)`)
	assert.Equal(t, []data.TokenType{
		data.TokenSymbol, data.TokenLParen, data.TokenRegister,
		data.TokenComma, data.TokenInt, data.TokenRParen,
	}, types)
}

func TestRegisterAliases(t *testing.T) {
	for text, want := range map[string]int{
		"R0": 0, "R15": 15, "Rt": 11, "FP": 14, "fp_alt": 12,
		"PC_ret": 13, "SP": 15,
	} {
		l := New(text, PathString)
		require.Equal(t, data.TokenRegister, l.Tkn.Type, text)
		assert.Equal(t, want, l.Tkn.Val, text)
	}

	// A symbol may begin with a valid register prefix.
	l := New("R1_INIT", PathString)
	assert.Equal(t, data.TokenSymbol, l.Tkn.Type)
}

func TestLocations(t *testing.T) {
	l := New("SET(R1,\n  4)", PathString)
	assert.Equal(t, 1, l.Tkn.Loc.Line)
	assert.Equal(t, 1, l.Tkn.Loc.Column)
	for l.Tkn.Type != data.TokenInt {
		l.NextToken()
	}
	assert.Equal(t, 2, l.Tkn.Loc.Line)
	assert.Equal(t, 3, l.Tkn.Loc.Column)
}

func TestComments(t *testing.T) {
	types := tokenTypes("A() // comment\n/* multi\nline */ B()")
	assert.Equal(t, []data.TokenType{
		data.TokenSymbol, data.TokenLParen, data.TokenRParen,
		data.TokenSymbol, data.TokenLParen, data.TokenRParen,
	}, types)
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\tb\n\\\"\x41\101"`, PathString)
	require.Equal(t, data.TokenString, l.Tkn.Type)
	assert.Equal(t, "a\tb\n\\\"AA", l.Tkn.Text)
	assert.False(t, l.Messages.HasErrors())
}

func TestNulEscape(t *testing.T) {
	// \0 is the one-digit octal escape.
	l := New(`"a\0b"`, PathString)
	require.Equal(t, data.TokenString, l.Tkn.Type)
	assert.Equal(t, "a\x00b", l.Tkn.Text)
	assert.False(t, l.Messages.HasErrors())
}

func TestInvalidEscape(t *testing.T) {
	l := New(`"\q"`, PathString)
	require.Equal(t, data.TokenString, l.Tkn.Type)
	assert.True(t, l.Messages.HasErrors())
}

func TestUnclosedString(t *testing.T) {
	l := New(`"abc`, PathString)
	assert.Equal(t, data.TokenError, l.Tkn.Type)
	assert.Equal(t, "unclosed string literal", l.Tkn.Text)
}

func TestRawNewlineInString(t *testing.T) {
	l := New("\"abc\ndef\"", PathString)
	assert.Equal(t, data.TokenError, l.Tkn.Type)
}

func TestCharLiterals(t *testing.T) {
	l := New(`'a'`, PathString)
	require.Equal(t, data.TokenChar, l.Tkn.Type)
	assert.Equal(t, int('a'), l.Tkn.Val)

	l = New(`'\n'`, PathString)
	require.Equal(t, data.TokenChar, l.Tkn.Type)
	assert.Equal(t, int('\n'), l.Tkn.Val)

	l = New(`'ab'`, PathString)
	assert.Equal(t, data.TokenError, l.Tkn.Type)
	assert.Equal(t, "over-long character literal", l.Tkn.Text)
}

func TestIntLiterals(t *testing.T) {
	for text, typ := range map[string]data.TokenType{
		"42": data.TokenInt, "0x2A": data.TokenInt, "0o17": data.TokenInt,
		"0b101": data.TokenInt, "017": data.TokenInt,
	} {
		l := New(text, PathString)
		assert.Equal(t, typ, l.Tkn.Type, text)
		assert.Equal(t, text, l.Tkn.Text, text)
	}
}

func TestIncludeToken(t *testing.T) {
	l := New(`#include "lib.hera"`, PathString)
	assert.Equal(t, data.TokenInclude, l.Tkn.Type)
	l.NextToken()
	require.Equal(t, data.TokenString, l.Tkn.Type)
	assert.Equal(t, "lib.hera", l.Tkn.Text)

	l = New(`#include <HERA.h>`, PathString)
	l.NextToken()
	require.Equal(t, data.TokenBracketed, l.Tkn.Type)
	assert.Equal(t, "HERA.h", l.Tkn.Text)
}

func TestMiniLanguageTokens(t *testing.T) {
	types := tokenTypes(`:xd @R1 + 2 * -3`)
	assert.Equal(t, []data.TokenType{
		data.TokenFmt, data.TokenAt, data.TokenRegister, data.TokenPlus,
		data.TokenInt, data.TokenAsterisk, data.TokenMinus, data.TokenInt,
	}, types)
}
