// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package debugger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herasm/hera/data"
	"github.com/herasm/hera/loader"
)

func newTestDebugger(t *testing.T, text string) *Debugger {
	t.Helper()
	settings := data.NewSettings()
	settings.Mode = data.ModeDebug
	settings.Output = &bytes.Buffer{}
	settings.ErrOut = &bytes.Buffer{}
	settings.Color = false
	program, msgs := loader.LoadProgram(text, settings)
	require.False(t, msgs.HasErrors(), "load errors: %+v", msgs.List)
	return New(program, settings)
}

func TestMiniParserPrecedence(t *testing.T) {
	tree, err := parseMini("1 + 2 * 3")
	require.NoError(t, err)
	require.Len(t, tree.seq, 1)
	assert.Equal(t, "1 + (2 * 3)", tree.seq[0].String())

	tree, err = parseMini("(1 + 2) * 3")
	require.NoError(t, err)
	assert.Equal(t, "(1 + 2) * 3", tree.seq[0].String())
}

func TestMiniParserFormatAndSequence(t *testing.T) {
	tree, err := parseMini(":xd R1, R2, @R3")
	require.NoError(t, err)
	assert.Equal(t, "xd", tree.format)
	assert.Len(t, tree.seq, 3)
	assert.Equal(t, "@R3", tree.seq[2].String())
}

func TestMiniParserNegativeLiteralAbuts(t *testing.T) {
	tree, err := parseMini("-5")
	require.NoError(t, err)
	assert.Equal(t, "-5", tree.seq[0].String())
}

func TestMiniParserErrors(t *testing.T) {
	for _, bad := range []string{"", "1 +", "(1", "1 2", "&"} {
		_, err := parseMini(bad)
		assert.Error(t, err, bad)
	}
}

func TestEvaluate(t *testing.T) {
	d := newTestDebugger(t, "DLABEL(X)\nINTEGER(3)\nLABEL(start)\nSET(R1, 7)\nHALT()")
	d.VM.Reg[1] = 7
	d.VM.Reg[2] = 10
	d.VM.Mem[0xC000] = 3

	eval := func(src string) int {
		tree, err := parseMini(src)
		require.NoError(t, err)
		v, err := d.evaluateNode(tree.seq[0])
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, 7, eval("R1"))
	assert.Equal(t, 17, eval("R1 + R2"))
	assert.Equal(t, 70, eval("R1 * R2"))
	assert.Equal(t, 3, eval("@X"))
	assert.Equal(t, 3, eval("@0xC000"))
	assert.Equal(t, 0xC000, eval("X"))
	assert.Equal(t, 0, eval("start"))
	assert.Equal(t, 0, eval("pc"))
	assert.Equal(t, -7, eval("-R1"))
	assert.Equal(t, 5, eval("R2 / 2"))
	assert.Equal(t, -4, eval("-R1 / 2"))
}

func TestEvaluateErrors(t *testing.T) {
	d := newTestDebugger(t, "SET(R1, 7)\nHALT()")
	for _, bad := range []string{"nope", "R1 / 0", "70000", "@100000"} {
		tree, err := parseMini(bad)
		require.NoError(t, err, bad)
		_, err = d.evaluateNode(tree.seq[0])
		assert.Error(t, err, bad)
	}
}
