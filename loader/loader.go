// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loader is the convenience interface for parsing and
// checking a HERA program in one step.
package loader

import (
	"io"
	"os"

	"github.com/herasm/hera/checker"
	"github.com/herasm/hera/data"
	"github.com/herasm/hera/op"
	"github.com/herasm/hera/parser"
)

// LoadProgram parses and checks a program held in a string.
func LoadProgram(text string, settings *data.Settings) (*op.Program, data.Messages) {
	oplist, msgs := parser.Parse(text, "<string>", settings)
	program, checkMsgs := checker.Check(oplist, settings)
	msgs.Extend(checkMsgs)
	return program, msgs
}

// LoadFile parses and checks a program from a file, or from standard
// input when path is "-".
func LoadFile(path string, settings *data.Settings) (*op.Program, data.Messages) {
	if path == "-" {
		var msgs data.Messages
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			msgs.Err("could not read standard input", nil)
			return &op.Program{}, msgs
		}
		for _, c := range b {
			if c >= 0x80 {
				msgs.Err("non-ASCII byte in input", nil)
				return &op.Program{}, msgs
			}
		}
		oplist, parseMsgs := parser.Parse(string(b), "<stdin>", settings)
		msgs.Extend(parseMsgs)
		program, checkMsgs := checker.Check(oplist, settings)
		msgs.Extend(checkMsgs)
		return program, msgs
	}

	oplist, msgs := parser.ParseFile(path, settings)
	program, checkMsgs := checker.Check(oplist, settings)
	msgs.Extend(checkMsgs)
	return program, msgs
}
