// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm converts resolved programs to and from machine code
// listings: the assembler's textual word listing, the
// Logisim-compatible data image, and the word-by-word disassembler.
package asm

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/herasm/hera/data"
	"github.com/herasm/hera/op"
)

// Assemble encodes a checked program. It returns the code stream as
// 16-bit words and the initial contents of the data segment. Debug
// ops never reach here: the checker elides them in assemble mode.
func Assemble(program *op.Program) (code []uint16, dataImage []uint16, err error) {
	for _, o := range program.Code {
		word, encErr := op.Encode(o)
		if encErr != nil {
			return nil, nil, fmt.Errorf("cannot encode %s", o.Name)
		}
		code = append(code, word)
	}
	for _, d := range program.Data {
		dataImage = append(dataImage, assembleData(d)...)
	}
	return code, dataImage, nil
}

func assembleData(o *op.Op) []uint16 {
	switch o.Name {
	case "INTEGER":
		return []uint16{uint16(o.Arg(0))}
	case "DSKIP":
		return make([]uint16, o.Arg(0))
	case "LP_STRING", "TIGER_STRING":
		s := o.Args[0].Text
		words := make([]uint16, 0, len(s)+1)
		words = append(words, uint16(len(s)))
		for _, c := range []byte(s) {
			words = append(words, uint16(c))
		}
		return words
	default:
		return nil
	}
}

// CodeListing renders the code stream one word per line: uppercase
// hex, four digits, no prefix.
func CodeListing(code []uint16) string {
	var b strings.Builder
	for i, w := range code {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%04X", w)
	}
	return b.String()
}

// DataListing renders the data image in the format Logisim loads:
// a run of zeroes up to the data segment, a cell holding the address
// just past the end of the data, then one hex word per line.
func DataListing(dataImage []uint16, settings *data.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d*0\n", settings.DataStart-1)
	fmt.Fprintf(&b, "%x\n", len(dataImage)+settings.DataStart)
	for _, w := range dataImage {
		fmt.Fprintf(&b, "%x\n", w)
	}
	return b.String()
}

// WriteListings emits the assembler's output: to stdout when
// requested, otherwise to <path>.lcode and <path>.ldata.
func WriteListings(program *op.Program, settings *data.Settings) error {
	code, dataImage, err := Assemble(program)
	if err != nil {
		return err
	}

	codeText := CodeListing(code)
	dataText := DataListing(dataImage, settings)

	if settings.Stdout {
		w := settings.OutWriter()
		switch {
		case settings.Data:
			fmt.Fprintln(w, dataText)
		case settings.Code:
			fmt.Fprintln(w, codeText)
		default:
			fmt.Fprintln(w, "[DATA]")
			fmt.Fprint(w, indent(dataText, "  "))
			fmt.Fprintln(w, "[CODE]")
			fmt.Fprintln(w, indent(codeText, "  "))
		}
		return nil
	}

	path := settings.Path
	if path == "-" {
		path = "stdin"
	}
	if err := os.WriteFile(path+".lcode", []byte(codeText+"\n"), 0o644); err != nil {
		return err
	}
	return os.WriteFile(path+".ldata", []byte(dataText), 0o644)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line != "" {
			b.WriteString(prefix)
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Disassemble renders machine code (newline-separated hex words,
// without a prefix) back into HERA text. Words that match no encoding
// are rendered as OPCODE words so the output remains a valid program.
func Disassemble(text string, w io.Writer) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseUint(line, 16, 16)
		if err != nil {
			fmt.Fprintf(w, "// Invalid hex literal: %s\n", line)
			continue
		}
		o, err := op.Disassemble(uint16(v))
		if err != nil {
			fmt.Fprintf(w, "OPCODE(0x%04X)\n", v)
			continue
		}
		fmt.Fprintln(w, o)
	}
}

// PrintPreprocessed renders the checker's output as resolved HERA
// text: the data section, then the code section with resolved pc
// indexes. With obfuscate, every code op prints as an OPCODE word.
func PrintPreprocessed(program *op.Program, settings *data.Settings) {
	w := settings.OutWriter()
	if settings.Obfuscate {
		for _, d := range program.Data {
			fmt.Fprintln(w, d)
		}
		for _, o := range program.Code {
			word, err := op.Encode(o)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "OPCODE(0x%x)\n", word)
		}
		return
	}

	if len(program.Data) > 0 {
		fmt.Fprintln(w, "[DATA]")
		for _, d := range program.Data {
			fmt.Fprintf(w, "  %s\n", d)
		}
		if len(program.Code) > 0 {
			fmt.Fprintln(w, "\n[CODE]")
		}
	}
	for i, o := range program.Code {
		fmt.Fprintf(w, "  %04d  %s\n", i, o)
	}
}
