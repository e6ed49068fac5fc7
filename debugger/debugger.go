// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package debugger implements the interactive HERA debugger: a
// command shell over the virtual machine with breakpoints, reversible
// stepping, and a small expression language for inspecting and
// mutating machine state.
//
// The code distinguishes "real ops" from "original ops". Original ops
// are the operations as the user wrote them; real ops are their
// post-expansion forms that the machine actually runs. The debugger
// operates on real ops internally but always displays original ops.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/herasm/hera/data"
	"github.com/herasm/hera/op"
	"github.com/herasm/hera/vm"
)

// maxHistory bounds the undo ring. A snapshot carries a full copy of
// machine memory (128 KiB), so the cap keeps the history to about
// 12.5 MiB.
const maxHistory = 100

// A snapshot captures everything a mutating command can change.
type snapshot struct {
	machine     *vm.Machine
	breakpoints map[int]string
	calls       int
	command     string
}

// A Debugger drives a program on a virtual machine, one original
// operation at a time.
type Debugger struct {
	Program  *op.Program
	Settings *data.Settings
	VM       *vm.Machine

	// Breakpoints maps resolved instruction numbers to display
	// strings.
	Breakpoints map[int]string

	// calls counts CALLs without matching RETURNs, for step-over.
	calls int

	history []snapshot
}

// New creates a debugger for a checked program. Data directives are
// executed up front; stepping through them is not supported.
func New(program *op.Program, settings *data.Settings) *Debugger {
	d := &Debugger{
		Program:     program,
		Settings:    settings,
		VM:          vm.New(settings),
		Breakpoints: make(map[int]string),
	}
	op.PlaceData(d.VM, program)
	return d
}

// Save pushes an undo snapshot tagged with the mutating command's
// name. The oldest snapshot falls off when the ring is full.
func (d *Debugger) Save(command string) {
	bps := make(map[int]string, len(d.Breakpoints))
	for k, v := range d.Breakpoints {
		bps[k] = v
	}
	d.history = append(d.history, snapshot{
		machine:     d.VM.Clone(),
		breakpoints: bps,
		calls:       d.calls,
		command:     command,
	})
	if len(d.history) > maxHistory {
		d.history = d.history[1:]
	}
}

// Undo reverts to the previous snapshot. It returns the name of the
// undone command, or false when there is nothing to undo.
func (d *Debugger) Undo() (string, bool) {
	if len(d.history) == 0 {
		return "", false
	}
	s := d.history[len(d.history)-1]
	d.history = d.history[:len(d.history)-1]
	d.VM = s.machine
	d.Breakpoints = s.breakpoints
	d.calls = s.calls
	return s.command, true
}

// SetBreakpoint sets a breakpoint at a resolved instruction number.
func (d *Debugger) SetBreakpoint(b int) {
	d.Breakpoints[b] = d.InstructionNumberToLocation(b, true)
}

// AtBreakpoint reports whether execution is stopped on a breakpoint.
func (d *Debugger) AtBreakpoint() bool {
	_, ok := d.Breakpoints[d.VM.PC]
	return !d.Finished() && ok
}

// Finished reports whether the program has halted or run off the end
// of the code stream.
func (d *Debugger) Finished() bool {
	return d.VM.Halted || d.VM.PC >= len(d.Program.Code)
}

// Empty reports whether the program has no code at all.
func (d *Debugger) Empty() bool {
	return len(d.Program.Code) == 0
}

// Reset restarts the program from the beginning, restoring memory and
// registers and re-placing the data segment.
func (d *Debugger) Reset() {
	d.VM.Reset()
	d.calls = 0
	op.PlaceData(d.VM, d.Program)
}

// Op returns the original operation at the given resolved index,
// which defaults to the current program counter.
func (d *Debugger) Op(index ...int) *op.Op {
	i := d.VM.PC
	if len(index) > 0 {
		i = index[0]
	}
	o := d.Program.Code[i]
	if o.Original != nil {
		return o.Original
	}
	return o
}

// RealOps returns the real operations expanded from the current
// original operation.
func (d *Debugger) RealOps() []*op.Op {
	original := d.Op()
	end := d.VM.PC
	for end < len(d.Program.Code) && d.Op(end) == original {
		end++
	}
	return d.Program.Code[d.VM.PC:end]
}

// Next advances by one original instruction. When step is false and
// the current op is a CALL, the entire function call runs to its
// matching RETURN; step=true executes just the CALL.
func (d *Debugger) Next(step bool) {
	if d.Finished() {
		return
	}

	if !step && d.Op().Name == "CALL" {
		calls := d.calls
		d.Next(true)
		for !d.Finished() && !d.AtBreakpoint() && d.calls > calls {
			d.Next(true)
		}
		return
	}

	for _, real := range d.RealOps() {
		switch real.Name {
		case "CALL":
			d.calls++
		case "RETURN":
			d.calls--
		}
		op.Execute(d.VM, real)
	}
}

// LocationToInstructionNumber resolves a user-supplied location - a
// line number, "path:line", a label, or "." for the current position
// - into a resolved instruction number.
func (d *Debugger) LocationToInstructionNumber(b string) (int, error) {
	if b == "." {
		return d.VM.PC, nil
	}

	var path, lineno string
	if i := strings.Index(b, ":"); i >= 0 {
		path, lineno = b[:i], b[i+1:]
	} else {
		if !d.Finished() {
			path = d.Op().Loc.Path
		}
		lineno = b
	}

	n, err := strconv.Atoi(lineno)
	if err != nil {
		sym, ok := d.Program.Symbols[b]
		if ok && sym.Kind == data.SymLabel {
			return sym.Value, nil
		}
		return 0, fmt.Errorf("could not locate label `%s`", b)
	}

	for pc, o := range d.Program.Code {
		if o.Loc != nil && o.Loc.Path == path && o.Loc.Line == n {
			return pc, nil
		}
	}
	return 0, fmt.Errorf("could not find corresponding line")
}

// InstructionNumberToLocation renders an instruction number as a
// human-readable "path:line", optionally suffixed with a label name.
func (d *Debugger) InstructionNumberToLocation(b int, appendLabel bool) string {
	if b < 0 || b >= len(d.Program.Code) {
		return ""
	}
	o := d.Op(b)
	if o.Loc == nil {
		return ""
	}
	path := o.Loc.Path
	if path == "-" {
		path = "<stdin>"
	}
	loc := fmt.Sprintf("%s:%d", path, o.Loc.Line)

	if appendLabel {
		if label, ok := d.FindLabel(b); ok {
			return fmt.Sprintf("%s (%s)", loc, label)
		}
	}
	return loc
}

// FindLabel returns the label mapping to the instruction number, if
// one exists. Constants and data labels are ignored.
func (d *Debugger) FindLabel(ino int) (string, bool) {
	for name, sym := range d.Program.Symbols {
		if sym.Kind == data.SymLabel && sym.Value == ino {
			return name, true
		}
	}
	return "", false
}
