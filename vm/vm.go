// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vm implements the HERA virtual machine state: sixteen
// 16-bit registers, 64K words of memory, the five status flags, the
// program counter and the halt latch. Execution semantics live with
// the operation registry; the machine only provides checked access to
// its own state.
package vm

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/herasm/hera/data"
)

// MemSize is the number of addressable memory cells.
const MemSize = 1 << 16

// A RuntimeError is a fault raised while executing a program. It
// halts execution and is rendered with the location of the operation
// that caused it.
type RuntimeError struct {
	Msg string
	Loc *data.Location
}

func (e *RuntimeError) Error() string {
	return e.Msg
}

// A ReturnPair records one CALL on the debugging call stack: the
// address called and the address the matching RETURN should restore.
type ReturnPair struct {
	CallAddress   int
	ReturnAddress int
}

// A Machine is a HERA processor. R0 reads as zero and discards
// writes; all other state is directly addressable.
type Machine struct {
	Reg [16]uint16
	Mem []uint16

	PC int
	// DC is the data counter used while materializing the static
	// data segment.
	DC int

	FlagSign       bool
	FlagZero       bool
	FlagOverflow   bool
	FlagCarry      bool
	FlagCarryBlock bool

	Halted  bool
	OpCount int

	// ExpectedReturns is the debugging call stack maintained by CALL
	// and consumed by RETURN.
	ExpectedReturns []ReturnPair

	Settings *data.Settings
	// Loc is the source location of the operation being executed,
	// for runtime diagnostics.
	Loc *data.Location

	// Fault latches the first runtime error.
	Fault *RuntimeError

	// Warn-once latches for the current run.
	WarnedReturn     bool
	ErroredInterrupt bool

	// Console input state for the Tiger runtime: the current line
	// (without its newline) and the read position within it.
	InputBuffer []byte
	InputPos    int

	stdin *bufio.Reader
}

// New creates a machine configured by settings, with the data counter
// at the start of the data segment and any --init assignments applied.
func New(settings *data.Settings) *Machine {
	m := &Machine{Settings: settings}
	m.Reset()
	return m
}

// Reset restores the machine to its initial state.
func (m *Machine) Reset() {
	m.Reg = [16]uint16{}
	m.Mem = make([]uint16, MemSize)
	m.PC = 0
	m.DC = m.Settings.DataStart
	m.FlagSign = false
	m.FlagZero = false
	m.FlagOverflow = false
	m.FlagCarry = false
	m.FlagCarryBlock = false
	m.Halted = false
	m.OpCount = 0
	m.ExpectedReturns = nil
	m.Fault = nil
	m.WarnedReturn = false
	m.ErroredInterrupt = false
	m.InputBuffer = nil
	m.InputPos = 0
	for _, init := range m.Settings.Init {
		m.StoreRegister(init.Reg, uint16(init.Value))
	}
}

// Clone returns a deep copy of the machine, for debugger snapshots.
// A full memory copy is 128 KiB, cheap enough for a bounded history.
func (m *Machine) Clone() *Machine {
	c := *m
	c.Mem = make([]uint16, MemSize)
	copy(c.Mem, m.Mem)
	c.ExpectedReturns = append([]ReturnPair(nil), m.ExpectedReturns...)
	c.InputBuffer = append([]byte(nil), m.InputBuffer...)
	// The console reader is shared: consumed input cannot be undone.
	return &c
}

// ReadLine refills the input buffer with the next line of console
// input, stripped of its newline. At end of input the buffer is left
// empty.
func (m *Machine) ReadLine() {
	if m.stdin == nil {
		m.stdin = bufio.NewReader(m.Settings.InReader())
	}
	line, _ := m.stdin.ReadString('\n')
	line = strings.TrimSuffix(line, "\n")
	m.InputBuffer = []byte(strings.TrimSuffix(line, "\r"))
	m.InputPos = 0
}

// LoadRegister returns the contents of register i. R0 reads as zero.
func (m *Machine) LoadRegister(i int) uint16 {
	if i == 0 {
		return 0
	}
	return m.Reg[i]
}

// StoreRegister writes v to register i. Writes to R0 are discarded.
func (m *Machine) StoreRegister(i int, v uint16) {
	if i != 0 {
		m.Reg[i] = v
	}
}

// SetZeroSign sets the zero and sign flags for a result value.
func (m *Machine) SetZeroSign(v uint16) {
	m.FlagZero = v == 0
	m.FlagSign = v&0x8000 != 0
}

// LoadMem returns the memory cell at addr, faulting on an address
// outside the 16-bit space.
func (m *Machine) LoadMem(addr int) uint16 {
	if addr < 0 || addr >= MemSize {
		m.Fail(fmt.Sprintf("attempted to load memory at invalid address %d", addr))
		return 0
	}
	return m.Mem[addr]
}

// StoreMem writes v to the memory cell at addr, faulting on an
// address outside the 16-bit space.
func (m *Machine) StoreMem(addr int, v uint16) {
	if addr < 0 || addr >= MemSize {
		m.Fail(fmt.Sprintf("attempted to store memory at invalid address %d", addr))
		return
	}
	m.Mem[addr] = v
}

// Fail latches a runtime error at the current location and halts the
// machine. Only the first fault is kept.
func (m *Machine) Fail(msg string) {
	if m.Fault == nil {
		m.Fault = &RuntimeError{Msg: msg, Loc: m.Loc}
	}
	m.Halted = true
}
