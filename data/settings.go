// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import "io"

// Volume levels for console output.
const (
	VolumeQuiet = iota
	VolumeNormal
	VolumeVerbose
)

// Mode identifies the toolchain subcommand being run.
type Mode int

const (
	ModeRun Mode = iota
	ModeDebug
	ModePreprocess
	ModeAssemble
	ModeDisassemble
)

// RegisterInit is one register assignment from the --init flag.
type RegisterInit struct {
	Reg   int
	Value int
}

// Settings holds the global configuration of a toolchain invocation.
// It is created by main and threaded by pointer through the checker,
// the VM and the debugger.
type Settings struct {
	// Are SWI and RTI operations allowed? True in assemble and
	// preprocess modes only.
	AllowInterrupts bool
	// Emit only the code listing (assembler).
	Code bool
	// Emit only the data image (assembler).
	Data bool
	// Is color output enabled?
	Color bool
	// Address of the first cell of the static data segment.
	DataStart int
	// Which subcommand is running.
	Mode Mode
	// Disallow debugging operations.
	NoDebugOps bool
	// Rewrite the preprocessor's output as OPCODE words.
	Obfuscate bool
	// The path the toolchain was invoked on.
	Path string
	// Initial register assignments from --init.
	Init []RegisterInit
	// Print the assembler's output to stdout instead of files.
	Stdout bool
	// Maximum number of executed instructions; 0 means unlimited.
	Throttle int
	// Warn about zero-prefixed octal literals.
	WarnOctalOn bool
	// Warn about suspicious RETURN addresses.
	WarnReturnOn bool
	// Output volume.
	Volume int

	// Number of warnings printed so far. Not a setting, strictly
	// speaking, but every stage that prints needs access to it.
	WarningCount int

	// Sinks for program output and diagnostics, and the source of
	// console input for the Tiger runtime. Default to
	// os.Stdout/os.Stderr/os.Stdin; tests substitute buffers.
	Output io.Writer
	ErrOut io.Writer
	Input  io.Reader
}

// NewSettings returns settings with interactive-friendly defaults.
func NewSettings() *Settings {
	return &Settings{
		Color:        true,
		DataStart:    DefaultDataStart,
		WarnOctalOn:  true,
		WarnReturnOn: true,
		Volume:       VolumeNormal,
	}
}
