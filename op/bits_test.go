// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package op

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herasm/hera/data"
)

func mustEncode(t *testing.T, name string, args ...data.Token) uint16 {
	t.Helper()
	word, err := Encode(New(name, nil, args...))
	require.NoError(t, err)
	return word
}

func TestEncodeBasic(t *testing.T) {
	assert.Equal(t, uint16(0xE1FF), mustEncode(t, "SETLO", data.R(1), data.Int(0xFF)))
	assert.Equal(t, uint16(0xF214), mustEncode(t, "SETHI", data.R(2), data.Int(0x14)))
	assert.Equal(t, uint16(0xA312), mustEncode(t, "ADD", data.R(3), data.R(1), data.R(2)))
	assert.Equal(t, uint16(0xB312), mustEncode(t, "SUB", data.R(3), data.R(1), data.R(2)))
	assert.Equal(t, uint16(0x8312), mustEncode(t, "AND", data.R(3), data.R(1), data.R(2)))
	assert.Equal(t, uint16(0x1000), mustEncode(t, "BR", data.R(0)))
	assert.Equal(t, uint16(0x2012), mustEncode(t, "CALL", data.R(1), data.R(2)))
	assert.Equal(t, uint16(0x2112), mustEncode(t, "RETURN", data.R(1), data.R(2)))
	assert.Equal(t, uint16(0x2203), mustEncode(t, "SWI", data.Int(3)))
	assert.Equal(t, uint16(0x2300), mustEncode(t, "RTI"))
}

func TestEncodeIncDecOffset(t *testing.T) {
	// The immediate field holds one less than the increment.
	assert.Equal(t, uint16(0x3A80), mustEncode(t, "INC", data.R(10), data.Int(1)))
	assert.Equal(t, uint16(0x3ABF), mustEncode(t, "INC", data.R(10), data.Int(64)))
	assert.Equal(t, uint16(0x3AC0), mustEncode(t, "DEC", data.R(10), data.Int(1)))
}

func TestEncodeSplitField(t *testing.T) {
	// LOAD's 5-bit offset is split between bit 12 and bits 4-7.
	assert.Equal(t, uint16(0x4512), mustEncode(t, "LOAD", data.R(5), data.Int(1), data.R(2)))
	assert.Equal(t, uint16(0x5502), mustEncode(t, "LOAD", data.R(5), data.Int(16), data.R(2)))
	assert.Equal(t, uint16(0x7502), mustEncode(t, "STORE", data.R(5), data.Int(16), data.R(2)))
}

func TestEncodeNegativeRelativeBranch(t *testing.T) {
	assert.Equal(t, uint16(0x00FF), mustEncode(t, "BRR", data.Int(-1)))
	assert.Equal(t, uint16(0x0A80), mustEncode(t, "BCR", data.Int(-128)))
}

func TestDisassembleRoundTrip(t *testing.T) {
	ops := []*Op{
		New("SETLO", nil, data.R(4), data.Int(0x7F)),
		New("SETHI", nil, data.R(15), data.Int(0x01)),
		New("ADD", nil, data.R(1), data.R(2), data.R(3)),
		New("SUB", nil, data.R(0), data.R(14), data.R(15)),
		New("MUL", nil, data.R(7), data.R(7), data.R(7)),
		New("AND", nil, data.R(1), data.R(1), data.R(1)),
		New("OR", nil, data.R(2), data.R(3), data.R(4)),
		New("XOR", nil, data.R(9), data.R(10), data.R(11)),
		New("INC", nil, data.R(3), data.Int(30)),
		New("DEC", nil, data.R(3), data.Int(64)),
		New("LSL", nil, data.R(1), data.R(2)),
		New("LSR", nil, data.R(1), data.R(2)),
		New("LSL8", nil, data.R(1), data.R(2)),
		New("LSR8", nil, data.R(1), data.R(2)),
		New("ASL", nil, data.R(1), data.R(2)),
		New("ASR", nil, data.R(1), data.R(2)),
		New("SAVEF", nil, data.R(5)),
		New("RSTRF", nil, data.R(5)),
		New("FON", nil, data.Int(0b10101)),
		New("FOFF", nil, data.Int(0b01010)),
		New("FSET5", nil, data.Int(31)),
		New("FSET4", nil, data.Int(15)),
		New("LOAD", nil, data.R(1), data.Int(31), data.R(2)),
		New("STORE", nil, data.R(1), data.Int(0), data.R(2)),
		New("BR", nil, data.R(7)),
		New("BRR", nil, data.Int(-12)),
		New("BZ", nil, data.R(1)),
		New("BNZR", nil, data.Int(100)),
		New("BULE", nil, data.R(3)),
		New("CALL", nil, data.R(12), data.R(13)),
		New("RETURN", nil, data.R(12), data.R(13)),
	}
	for _, o := range ops {
		word, err := Encode(o)
		require.NoError(t, err, o.Name)
		back, err := Disassemble(word)
		require.NoError(t, err, o.Name)
		assert.True(t, o.Equal(back), "round trip failed for %s: got %s", o, back)
	}
}

func TestDisassembleUnknown(t *testing.T) {
	// Second nibble 0001 is unused in the relative branch block.
	_, err := Disassemble(0x0100)
	assert.ErrorIs(t, err, ErrNotAnInstruction)
}

func TestDisassembleSignExtendsRelativeBranches(t *testing.T) {
	o, err := Disassemble(0x00FF)
	require.NoError(t, err)
	assert.Equal(t, "BRR", o.Name)
	assert.Equal(t, -1, o.Arg(0))
}

func TestEncodingInjective(t *testing.T) {
	// Every word that decodes must re-encode to itself, so the
	// encoding is injective over the real-op space.
	for w := 0; w < 1<<16; w++ {
		o, err := Disassemble(uint16(w))
		if err != nil {
			continue
		}
		back, err := Encode(o)
		require.NoError(t, err, "%04X decoded to unencodable %s", w, o)
		assert.Equal(t, uint16(w), back, "decode/encode mismatch for %04X (%s)", w, o)
	}
}
