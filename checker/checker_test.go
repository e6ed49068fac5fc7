// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herasm/hera/data"
	"github.com/herasm/hera/lexer"
	"github.com/herasm/hera/op"
	"github.com/herasm/hera/parser"
)

func check(t *testing.T, text string, settings *data.Settings) (*op.Program, data.Messages) {
	t.Helper()
	ops, msgs := parser.Parse(text, lexer.PathString, settings)
	require.False(t, msgs.HasErrors(), "parse errors: %+v", msgs.List)
	program, checkMsgs := Check(ops, settings)
	msgs.Extend(checkMsgs)
	return program, msgs
}

func checkOK(t *testing.T, text string) *op.Program {
	t.Helper()
	program, msgs := check(t, text, data.NewSettings())
	require.False(t, msgs.HasErrors(), "check errors: %+v", msgs.List)
	return program
}

func codeNames(program *op.Program) []string {
	names := make([]string, len(program.Code))
	for i, o := range program.Code {
		names[i] = o.Name
	}
	return names
}

func TestSetExpandsToHalves(t *testing.T) {
	program := checkOK(t, "SET(R1, 0xC000)")
	require.Equal(t, []string{"SETLO", "SETHI"}, codeNames(program))
	assert.Equal(t, 0x00, program.Code[0].Arg(1))
	assert.Equal(t, 0xC0, program.Code[1].Arg(1))
	assert.Equal(t, "SET", program.Code[0].Original.Name)
}

func TestOnlyRealOpsAfterChecking(t *testing.T) {
	program := checkOK(t, `
CMP(R1, R2)
MOVE(R3, R4)
NEG(R5, R6)
NOT(R7, R8)
HALT()
NOP()
CON() COFF() CBON() CCBOFF()
SETRF(R9, 5)
FLAGS(R1)
`)
	for _, o := range program.Code {
		d := o.Desc()
		require.NotNil(t, d, o.Name)
		assert.Equal(t, op.Real, d.Class, o.Name)
	}
}

func TestPseudoOpLengthAccounting(t *testing.T) {
	// SET expands to two words, so the label binds to index 2.
	program := checkOK(t, "SET(R1, label2)\nLABEL(label2)\nHALT()")
	sym, ok := program.Symbols["label2"]
	require.True(t, ok)
	assert.Equal(t, data.SymLabel, sym.Kind)
	assert.Equal(t, 2, sym.Value)
}

func TestLabelArgumentsResolveWithinCode(t *testing.T) {
	program := checkOK(t, "LABEL(start)\nSET(R1, 0)\nBR(start)\nHALT()")
	for _, o := range program.Code {
		for _, a := range o.Args {
			assert.NotEqual(t, data.TokenSymbol, a.Type)
		}
	}
	sym := program.Symbols["start"]
	assert.GreaterOrEqual(t, sym.Value, 0)
	assert.Less(t, sym.Value, len(program.Code))
}

func TestRegisterBranchWithLabelExpands(t *testing.T) {
	program := checkOK(t, "SET(R1, 0)\nBR(end)\nSET(R1, 1)\nLABEL(end)\nHALT()")
	// SET(2) + branch(3) + SET(2) -> end = 7.
	assert.Equal(t, 7, program.Symbols["end"].Value)
	assert.Equal(t,
		[]string{"SETLO", "SETHI", "SETLO", "SETHI", "BR", "SETLO", "SETHI", "BRR"},
		codeNames(program))
}

func TestDataLayout(t *testing.T) {
	program := checkOK(t, `
DLABEL(X)
INTEGER(42)
DLABEL(Y)
LP_STRING("hi")
DLABEL(Z)
DSKIP(10)
DLABEL(W)
INTEGER(0)
SET(R1, X)
HALT()
`)
	assert.Equal(t, 0xC000, program.Symbols["X"].Value)
	assert.Equal(t, 0xC001, program.Symbols["Y"].Value)
	assert.Equal(t, 0xC004, program.Symbols["Z"].Value)
	assert.Equal(t, 0xC00E, program.Symbols["W"].Value)
}

func TestDskipWithConstant(t *testing.T) {
	program := checkOK(t, `
CONSTANT(N, 5)
DLABEL(A)
DSKIP(N)
DLABEL(B)
INTEGER(1)
`)
	assert.Equal(t, 0xC000, program.Symbols["A"].Value)
	assert.Equal(t, 0xC005, program.Symbols["B"].Value)
}

func TestDataAfterCodeRejected(t *testing.T) {
	_, msgs := check(t, "SET(R1, 1)\nINTEGER(0)", data.NewSettings())
	require.True(t, msgs.HasErrors())
	found := false
	for _, m := range msgs.List {
		if m.Sev == data.SevError {
			assert.Equal(t, "data statement after code", m.Text)
			assert.Equal(t, 2, m.Loc.Line)
			found = true
		}
	}
	assert.True(t, found)
}

func TestRedefinitionRejected(t *testing.T) {
	_, msgs := check(t, "LABEL(x)\nLABEL(x)", data.NewSettings())
	assert.True(t, msgs.HasErrors())

	_, msgs = check(t, "CONSTANT(x, 1)\nDLABEL(x)", data.NewSettings())
	assert.True(t, msgs.HasErrors())
}

func TestUndefinedSymbolRejected(t *testing.T) {
	_, msgs := check(t, "SET(R1, nope)", data.NewSettings())
	assert.True(t, msgs.HasErrors())
}

func TestBranchToNonLabelRejected(t *testing.T) {
	_, msgs := check(t, "DLABEL(d)\nINTEGER(1)\nBR(d)", data.NewSettings())
	require.True(t, msgs.HasErrors())
	var texts []string
	for _, m := range msgs.List {
		texts = append(texts, m.Text)
	}
	assert.Contains(t, texts, "data label cannot be used as branch label")

	_, msgs = check(t, "CONSTANT(c, 1)\nBR(c)", data.NewSettings())
	require.True(t, msgs.HasErrors())
}

func TestConstantUseBeforeDeclareRejected(t *testing.T) {
	_, msgs := check(t, "SET(R1, N)\nCONSTANT(N, 5)", data.NewSettings())
	assert.True(t, msgs.HasErrors())
}

func TestRelativeBranchTooFar(t *testing.T) {
	text := "LABEL(start)\n"
	for i := 0; i < 130; i++ {
		text += "SETLO(R1, 0)\n"
	}
	text += "BRR(start)\n"
	_, msgs := check(t, text, data.NewSettings())
	require.True(t, msgs.HasErrors())
	var texts []string
	for _, m := range msgs.List {
		texts = append(texts, m.Text)
	}
	assert.Contains(t, texts, "label is too far for a relative branch")
}

func TestRelativeBranchToLabel(t *testing.T) {
	program := checkOK(t, "SET(R1, 0)\nBRR(skip)\nSET(R1, 1)\nLABEL(skip)\nHALT()")
	// The branch sits at index 2 and the label at 5.
	assert.Equal(t, "BRR", program.Code[2].Name)
	assert.Equal(t, 3, program.Code[2].Arg(0))
}

func TestArityAndKindMismatches(t *testing.T) {
	for _, text := range []string{
		"ADD(R1, R2)",
		"ADD(R1, R2, R3, R4)",
		"SET(R1, \"str\")",
		"SETLO(R1, 300)",
		"INC(R1, 0)",
		"INC(R1, 65)",
		"LOAD(R1, 32, R2)",
		"SET(pc, 4)",
	} {
		_, msgs := check(t, text, data.NewSettings())
		assert.True(t, msgs.HasErrors(), text)
	}
}

func TestInterruptsRejectedOutsideAssembly(t *testing.T) {
	_, msgs := check(t, "SWI(1)", data.NewSettings())
	assert.True(t, msgs.HasErrors())

	settings := data.NewSettings()
	settings.Mode = data.ModeAssemble
	settings.AllowInterrupts = true
	_, msgs = check(t, "SWI(1)", settings)
	assert.False(t, msgs.HasErrors())
}

func TestNoDebugOpsFlag(t *testing.T) {
	settings := data.NewSettings()
	settings.NoDebugOps = true
	_, msgs := check(t, "print_reg(R1)", settings)
	assert.True(t, msgs.HasErrors())
}

func TestCallReturnRegisterWarnings(t *testing.T) {
	_, msgs := check(t, "LABEL(f)\nCALL(R1, f)\nRETURN(R12, R1)", data.NewSettings())
	assert.False(t, msgs.HasErrors())
	assert.Equal(t, 2, msgs.WarningCount())
}

func TestNotWithR11Warns(t *testing.T) {
	_, msgs := check(t, "NOT(R1, R11)\nNOT(R2, R11)", data.NewSettings())
	assert.False(t, msgs.HasErrors())
	// Warns per occurrence, not once per program.
	assert.Equal(t, 2, msgs.WarningCount())
}

func TestDebugOpsElidedForAssembly(t *testing.T) {
	text := "SET(R1, 0)\nprint_reg(R1)\nBRR(skip)\nprintln(\"x\")\nLABEL(skip)\nHALT()"

	settings := data.NewSettings()
	settings.Mode = data.ModeAssemble
	program, msgs := check(t, text, settings)
	require.False(t, msgs.HasErrors(), "%+v", msgs.List)
	// Debug ops gone: SET(2) + BRR(1) + HALT(1).
	require.Equal(t, []string{"SETLO", "SETHI", "BRR", "BRR"}, codeNames(program))
	// Branch offset computed after elision: skip = 3, branch at 2.
	assert.Equal(t, 1, program.Code[2].Arg(0))

	// In run mode the debug ops stay in the stream and the offset
	// accounts for them.
	runProgram := checkOK(t, text)
	require.Equal(t,
		[]string{"SETLO", "SETHI", "print_reg", "BRR", "println", "BRR"},
		codeNames(runProgram))
	assert.Equal(t, 2, runProgram.Code[3].Arg(0))
}

func TestOpcodeExpansion(t *testing.T) {
	// 0xE10A is SETLO(R1, 10); OPCODE words that decode execute as
	// the decoded instruction.
	program := checkOK(t, "OPCODE(0xE10A)")
	require.Equal(t, []string{"SETLO"}, codeNames(program))
	assert.Equal(t, "OPCODE", program.Code[0].Original.Name)

	_, msgs := check(t, "OPCODE(0x0100)", data.NewSettings())
	assert.True(t, msgs.HasErrors())
}

func TestMessagesInSourceOrder(t *testing.T) {
	_, msgs := check(t, "SET(R1, a)\nSET(R2, b)\nSET(R3, c)", data.NewSettings())
	require.True(t, msgs.HasErrors())
	lastLine := 0
	for _, m := range msgs.List {
		require.NotNil(t, m.Loc)
		assert.GreaterOrEqual(t, m.Loc.Line, lastLine)
		lastLine = m.Loc.Line
	}
}
