// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package debugger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const countdownProgram = `SET(R1, 3)
LABEL(loop)
DEC(R1, 1)
BNZ(loop)
HALT()`

func TestNextStepsOneOriginalOp(t *testing.T) {
	d := newTestDebugger(t, countdownProgram)
	// SET expands to two real ops but is one original op.
	d.Next(true)
	assert.Equal(t, 2, d.VM.PC)
	assert.Equal(t, uint16(3), d.VM.Reg[1])
}

func TestBreakpointByLabel(t *testing.T) {
	d := newTestDebugger(t, countdownProgram)
	b, err := d.LocationToInstructionNumber("loop")
	require.NoError(t, err)
	assert.Equal(t, 2, b)
	d.SetBreakpoint(b)

	d.Next(true)
	assert.True(t, d.AtBreakpoint())
}

func TestBreakpointByLineAndDot(t *testing.T) {
	d := newTestDebugger(t, countdownProgram)
	b, err := d.LocationToInstructionNumber("3")
	require.NoError(t, err)
	assert.Equal(t, 2, b)

	b, err = d.LocationToInstructionNumber(".")
	require.NoError(t, err)
	assert.Equal(t, 0, b)

	_, err = d.LocationToInstructionNumber("nolabel")
	assert.Error(t, err)
}

func TestRunToCompletion(t *testing.T) {
	d := newTestDebugger(t, countdownProgram)
	for !d.Finished() {
		d.Next(true)
	}
	assert.Equal(t, uint16(0), d.VM.Reg[1])
	assert.True(t, d.VM.Halted)
}

func TestUndoRevertsState(t *testing.T) {
	d := newTestDebugger(t, countdownProgram)
	d.Save("next")
	d.Next(true)
	require.Equal(t, uint16(3), d.VM.Reg[1])

	command, ok := d.Undo()
	require.True(t, ok)
	assert.Equal(t, "next", command)
	assert.Equal(t, 0, d.VM.PC)
	assert.Equal(t, uint16(0), d.VM.Reg[1])

	_, ok = d.Undo()
	assert.False(t, ok)
}

func TestResetRestoresDataSegment(t *testing.T) {
	d := newTestDebugger(t, "DLABEL(X)\nINTEGER(42)\nSET(R1, X)\nHALT()")
	require.Equal(t, uint16(42), d.VM.Mem[0xC000])
	d.VM.Mem[0xC000] = 0
	d.VM.Reg[5] = 99
	d.Reset()
	assert.Equal(t, uint16(42), d.VM.Mem[0xC000])
	assert.Equal(t, uint16(0), d.VM.Reg[5])
}

func TestStepOverCall(t *testing.T) {
	text := `SET(R1, 10)
CALL(FP_alt, double)
HALT()

LABEL(double)
ADD(R1, R1, R1)
RETURN(FP_alt, PC_ret)`
	d := newTestDebugger(t, text)
	d.Next(true) // SET
	require.Equal(t, "CALL", d.Op().Name)
	d.Next(false) // step over the whole call
	assert.Equal(t, uint16(20), d.VM.Reg[1])
	assert.Equal(t, "HALT", d.Op().Name)
}

func TestStepIntoCall(t *testing.T) {
	text := `SET(R1, 10)
CALL(FP_alt, double)
HALT()

LABEL(double)
ADD(R1, R1, R1)
RETURN(FP_alt, PC_ret)`
	d := newTestDebugger(t, text)
	d.Next(true)
	d.Next(true) // step into the call
	assert.Equal(t, "ADD", d.Op().Name)
	assert.Equal(t, uint16(10), d.VM.Reg[1])
}

func runShell(t *testing.T, program string, commands ...string) string {
	t.Helper()
	d := newTestDebugger(t, program)
	sh := NewShell(d, d.Settings)
	in := strings.NewReader(strings.Join(commands, "\n") + "\n")
	var out bytes.Buffer
	sh.Run(in, &out, false)
	return out.String()
}

func TestShellPrintAndAssign(t *testing.T) {
	out := runShell(t, countdownProgram,
		"print 1 + 2 * 3",
		"R9 = 42",
		"print :xd R9",
	)
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "0x002a = 42")
}

func TestShellContinueAndInfo(t *testing.T) {
	out := runShell(t, countdownProgram,
		"continue",
		"info registers",
	)
	assert.Contains(t, out, "Program has finished executing.")
	assert.Contains(t, out, "R11 = 2, all other registers set to zero.")
}

func TestShellBreakAndContinue(t *testing.T) {
	out := runShell(t, countdownProgram,
		"break loop",
		"continue",
		"print :xd R1",
	)
	assert.Contains(t, out, "Breakpoint set in file <string>, line 3.")
	assert.Contains(t, out, "0x0003 = 3")
}

func TestShellUndo(t *testing.T) {
	out := runShell(t, countdownProgram,
		"next",
		"undo",
		"undo",
	)
	assert.Contains(t, out, "Undid next.")
	assert.Contains(t, out, "Nothing to undo.")
}

func TestShellEmptyLineRepeats(t *testing.T) {
	out := runShell(t, countdownProgram,
		"print :xd R1",
		"",
	)
	assert.Equal(t, 2, strings.Count(out, "0x0000 = 0"))
}

func TestShellAbbreviations(t *testing.T) {
	out := runShell(t, countdownProgram, "n", "p :xd R1")
	assert.Contains(t, out, "0x0003 = 3")

	// Destructive commands may not be abbreviated.
	out = runShell(t, countdownProgram, "rest")
	assert.Contains(t, out, "rest is not a recognized command.")
}

func TestShellDisAndAsm(t *testing.T) {
	out := runShell(t, countdownProgram, "dis 0xA312")
	assert.Contains(t, out, "ADD(R3, R1, R2)")

	out = runShell(t, countdownProgram, "asm ADD(R3, R1, R2)")
	assert.Contains(t, out, "A312")
}

func TestShellDoc(t *testing.T) {
	out := runShell(t, countdownProgram, "doc ASR")
	assert.Contains(t, out, "Arithmetic right shift")
}

func TestShellGoto(t *testing.T) {
	out := runShell(t, countdownProgram,
		"goto 5",
		"print pc",
	)
	assert.Contains(t, out, "[<string>:5]")
}

func TestShellExecute(t *testing.T) {
	out := runShell(t, countdownProgram,
		"execute SET(R7, 123)",
		"print :d R7",
	)
	assert.Contains(t, out, "123")

	out = runShell(t, countdownProgram, "execute BR(loop)")
	assert.Contains(t, out, "execute cannot take branching operations.")
}

func TestShellOnOffFlags(t *testing.T) {
	out := runShell(t, countdownProgram,
		"on c z",
		"info flags",
		"off c",
		"info flags",
	)
	assert.Contains(t, out, "Carry flag is on, zero flag is on, all other flags are off.")
	assert.Contains(t, out, "Zero flag is on, all other flags are off.")
}

func TestShellInfoMemory(t *testing.T) {
	out := runShell(t, "DLABEL(X)\nINTEGER(42)\nHALT()", "info memory")
	assert.Contains(t, out, "@0xc000 = 42")

	out = runShell(t, countdownProgram, "info m")
	assert.Contains(t, out, "All memory cells are zero.")
}

func TestShellInfoSymbols(t *testing.T) {
	out := runShell(t, "CONSTANT(N, 5)\nDLABEL(X)\nINTEGER(1)\nLABEL(go)\nHALT()",
		"info symbols")
	assert.Contains(t, out, "Constants: N (5)")
	assert.Contains(t, out, "Labels: go (<string>:4)")
	assert.Contains(t, out, "Data labels: X (0xc000)")
}

func TestShellRestart(t *testing.T) {
	out := runShell(t, countdownProgram,
		"continue",
		"restart",
		"print :d R1",
	)
	assert.Contains(t, out, "Program has finished executing.")
	// After restart, R1 is back to zero.
	assert.Contains(t, out, "\n0\n")
}
