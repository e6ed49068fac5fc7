// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herasm/hera/data"
	"github.com/herasm/hera/loader"
)

func newSettings() *data.Settings {
	s := data.NewSettings()
	s.Mode = data.ModeAssemble
	s.AllowInterrupts = true
	s.Output = &bytes.Buffer{}
	s.ErrOut = &bytes.Buffer{}
	s.Color = false
	return s
}

func assemble(t *testing.T, text string, settings *data.Settings) ([]uint16, []uint16) {
	t.Helper()
	program, msgs := loader.LoadProgram(text, settings)
	require.False(t, msgs.HasErrors(), "load errors: %+v", msgs.List)
	code, dataImage, err := Assemble(program)
	require.NoError(t, err)
	return code, dataImage
}

func TestAssembleListing(t *testing.T) {
	code, _ := assemble(t, "SET(R1, 3)\nSET(R2, 4)\nADD(R3, R1, R2)\nHALT()", newSettings())
	listing := CodeListing(code)
	assert.Equal(t, "E103\nF100\nE204\nF200\nA312\n0000", listing)
}

func TestListingIsUppercaseFourDigits(t *testing.T) {
	code, _ := assemble(t, "SETLO(R10, 0xAB)\nHALT()", newSettings())
	for _, line := range strings.Split(CodeListing(code), "\n") {
		assert.Len(t, line, 4)
		assert.Equal(t, strings.ToUpper(line), line)
	}
}

func TestDebugOpsProduceNoWords(t *testing.T) {
	settings := newSettings()
	withDebug, _ := assemble(t, "SET(R1, 1)\nprint_reg(R1)\nHALT()", settings)
	without, _ := assemble(t, "SET(R1, 1)\nHALT()", settings)
	assert.Equal(t, without, withDebug)
}

func TestDataImage(t *testing.T) {
	settings := newSettings()
	_, dataImage := assemble(t, "DLABEL(X)\nINTEGER(42)\nLP_STRING(\"hi\")\nDSKIP(2)", settings)
	assert.Equal(t, []uint16{42, 2, 'h', 'i', 0, 0}, dataImage)

	listing := DataListing(dataImage, settings)
	lines := strings.Split(strings.TrimSpace(listing), "\n")
	assert.Equal(t, "49151*0", lines[0])
	assert.Equal(t, "c006", lines[1])
	assert.Equal(t, "2a", lines[2])
}

func TestDisassembleListing(t *testing.T) {
	var buf bytes.Buffer
	Disassemble("E103\nF100\nA312\n0100\nzzzz\n", &buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "SETLO(R1, 3)", lines[0])
	assert.Equal(t, "SETHI(R1, 0)", lines[1])
	assert.Equal(t, "ADD(R3, R1, R2)", lines[2])
	assert.Equal(t, "OPCODE(0x0100)", lines[3])
	assert.Equal(t, "// Invalid hex literal: zzzz", lines[4])
}

func TestAssembleDisassembleRoundTrip(t *testing.T) {
	settings := newSettings()
	code, _ := assemble(t, `
SETLO(R1, 100)
SETHI(R1, 1)
ADD(R2, R1, R1)
INC(R2, 5)
LOAD(R3, 17, R2)
STORE(R3, 17, R2)
BNZR(-3)
SWI(2)
RTI()
HALT()
`, settings)

	var buf bytes.Buffer
	Disassemble(CodeListing(code), &buf)
	assert.Equal(t, strings.TrimSpace(`
SETLO(R1, 100)
SETHI(R1, 1)
ADD(R2, R1, R1)
INC(R2, 5)
LOAD(R3, 17, R2)
STORE(R3, 17, R2)
BNZR(-3)
SWI(2)
RTI()
BRR(0)
`), strings.TrimSpace(buf.String()))
}

func TestPreprocessListing(t *testing.T) {
	settings := newSettings()
	settings.Mode = data.ModePreprocess
	program, msgs := loader.LoadProgram("DLABEL(X)\nINTEGER(7)\nSET(R1, X)\nHALT()", settings)
	require.False(t, msgs.HasErrors())

	PrintPreprocessed(program, settings)
	out := settings.Output.(*bytes.Buffer).String()
	assert.Contains(t, out, "[DATA]")
	assert.Contains(t, out, "INTEGER(7)")
	assert.Contains(t, out, "[CODE]")
	assert.Contains(t, out, "0000  SETLO(R1, 0)")
	assert.Contains(t, out, "0001  SETHI(R1, 192)")
}

func TestObfuscatedPreprocessRoundTrips(t *testing.T) {
	settings := newSettings()
	settings.Mode = data.ModePreprocess
	settings.Obfuscate = true
	program, msgs := loader.LoadProgram("SET(R1, 3)\nADD(R2, R1, R1)\nHALT()", settings)
	require.False(t, msgs.HasErrors())
	PrintPreprocessed(program, settings)
	obfuscated := settings.Output.(*bytes.Buffer).String()
	for _, line := range strings.Split(strings.TrimSpace(obfuscated), "\n") {
		assert.True(t, strings.HasPrefix(line, "OPCODE(0x"), line)
	}

	// The obfuscated program still assembles to the same words.
	settings2 := newSettings()
	orig, _ := assemble(t, "SET(R1, 3)\nADD(R2, R1, R1)\nHALT()", settings2)
	roundTripped, _ := assemble(t, obfuscated, settings2)
	assert.Equal(t, orig, roundTripped)
}
