// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herasm/hera/data"
	"github.com/herasm/hera/lexer"
)

func parseOK(t *testing.T, text string) []string {
	t.Helper()
	ops, msgs := Parse(text, lexer.PathString, data.NewSettings())
	require.False(t, msgs.HasErrors(), "unexpected errors: %+v", msgs.List)
	names := make([]string, len(ops))
	for i, o := range ops {
		names[i] = o.Name
	}
	return names
}

func TestParseSimpleProgram(t *testing.T) {
	names := parseOK(t, "SET(R1, 3)\nSET(R2, 4)\nADD(R3, R1, R2)\nHALT()")
	assert.Equal(t, []string{"SET", "SET", "ADD", "HALT"}, names)
}

func TestParseArgumentValues(t *testing.T) {
	ops, msgs := Parse("SET(R1, -5) SETLO(R2, 'A') INC(Rt, 0x10)", lexer.PathString, data.NewSettings())
	require.False(t, msgs.HasErrors())
	require.Len(t, ops, 3)
	assert.Equal(t, -5, ops[0].Arg(1))
	assert.Equal(t, 65, ops[1].Arg(1))
	assert.Equal(t, 11, ops[2].Arg(0))
	assert.Equal(t, 16, ops[2].Arg(1))
}

func TestParseLocations(t *testing.T) {
	ops, _ := Parse("SET(R1,\n4)", lexer.PathString, data.NewSettings())
	require.Len(t, ops, 1)
	assert.Equal(t, 1, ops[0].Loc.Line)
	assert.Equal(t, 2, ops[0].Args[1].Loc.Line)
	assert.Equal(t, 1, ops[0].Args[1].Loc.Column)
}

func TestParseSemicolons(t *testing.T) {
	names := parseOK(t, "SET(R1, 1); SET(R2, 2);")
	assert.Equal(t, []string{"SET", "SET"}, names)
}

func TestParseCppBoilerplate(t *testing.T) {
	names := parseOK(t, "void HERA_main() {\n  SET(R1, 1)\n}")
	assert.Equal(t, []string{"SET"}, names)
}

func TestParseUnknownInstruction(t *testing.T) {
	_, msgs := Parse("BLARGH(R1)", lexer.PathString, data.NewSettings())
	require.True(t, msgs.HasErrors())
	assert.Contains(t, msgs.List[0].Text, "unknown instruction `BLARGH`")
}

func TestOctalWarnsOncePerProgram(t *testing.T) {
	settings := data.NewSettings()
	_, msgs := Parse("SET(R1, 017)\nSET(R2, 017)", lexer.PathString, settings)
	assert.False(t, msgs.HasErrors())
	assert.Equal(t, 1, msgs.WarningCount())

	settings.WarnOctalOn = false
	_, msgs = Parse("SET(R1, 017)", lexer.PathString, settings)
	assert.Equal(t, 0, msgs.WarningCount())
}

func TestIfdefStripping(t *testing.T) {
	text := `
#ifdef HERA_PY
SET(R1, 1)
#else
this is not HERA code at all {{{
#endif
#ifndef HERA_PY
neither is this
#else
SET(R2, 2)
#endif
`
	names := parseOK(t, text)
	assert.Equal(t, []string{"SET", "SET"}, names)
}

func TestInclude(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.hera")
	main := filepath.Join(dir, "main.hera")
	require.NoError(t, os.WriteFile(lib, []byte("SET(R2, 2)\n"), 0o644))
	require.NoError(t, os.WriteFile(main, []byte("#include \"lib.hera\"\nSET(R1, 1)\n"), 0o644))

	ops, msgs := ParseFile(main, data.NewSettings())
	require.False(t, msgs.HasErrors(), "%+v", msgs.List)
	require.Len(t, ops, 2)
	assert.Equal(t, "lib.hera", filepath.Base(ops[0].Loc.Path))
	assert.Equal(t, "main.hera", filepath.Base(ops[1].Loc.Path))
}

func TestIncludeMissingFileReportsIncludeSite(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.hera")
	require.NoError(t, os.WriteFile(main, []byte("SET(R1, 1)\n#include \"nope.hera\"\n"), 0o644))

	_, msgs := ParseFile(main, data.NewSettings())
	require.True(t, msgs.HasErrors())
	var found bool
	for _, m := range msgs.List {
		if m.Sev == data.SevError {
			assert.Contains(t, m.Text, "does not exist")
			require.NotNil(t, m.Loc)
			assert.Equal(t, 2, m.Loc.Line)
			found = true
		}
	}
	assert.True(t, found)
}

func TestCircularIncludeRejected(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.hera")
	b := filepath.Join(dir, "b.hera")
	require.NoError(t, os.WriteFile(a, []byte("#include \"b.hera\"\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("#include \"a.hera\"\n"), 0o644))

	_, msgs := ParseFile(a, data.NewSettings())
	require.True(t, msgs.HasErrors())
	var texts []string
	for _, m := range msgs.List {
		texts = append(texts, m.Text)
	}
	assert.Contains(t, texts, "recursive include")
}

func TestAngleIncludeStdlib(t *testing.T) {
	ops, msgs := Parse("#include <Tiger-stdlib-stack.hera>", lexer.PathString, data.NewSettings())
	require.False(t, msgs.HasErrors(), "%+v", msgs.List)
	assert.NotEmpty(t, ops)

	// HERA.h is unnecessary and only warns.
	ops, msgs = Parse("#include <HERA.h>\nSET(R1, 1)", lexer.PathString, data.NewSettings())
	assert.False(t, msgs.HasErrors())
	assert.Equal(t, 1, msgs.WarningCount())
	assert.Len(t, ops, 1)
}

func TestNonASCIIRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.hera")
	require.NoError(t, os.WriteFile(path, []byte("SET(R1, 1) // caf\xc3\xa9\n"), 0o644))
	_, err := ReadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-ASCII byte")
}
