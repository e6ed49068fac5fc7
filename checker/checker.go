// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package checker performs symbol resolution, type-checking and
// pseudo-op expansion: the pass between parsing and execution that
// turns a raw operation list into a resolved program.
package checker

import (
	"fmt"

	"github.com/herasm/hera/data"
	"github.com/herasm/hera/op"
)

// Check type-checks and preprocesses a parsed operation list. Even
// when the returned messages contain errors, the messages themselves
// are complete: the checker reports as much as it can.
func Check(oplist []*op.Op, settings *data.Settings) (*op.Program, data.Messages) {
	symtab, msgs := typecheck(oplist, settings)
	if msgs.HasErrors() {
		return &op.Program{Symbols: data.SymbolTable{}}, msgs
	}

	var labelLocs map[string]string
	if settings.Mode == data.ModeDebug {
		labelLocs = labelLocations(oplist)
	}

	resolved, convertMsgs := convertOps(oplist, symtab, settings)
	msgs.Extend(convertMsgs)

	program := &op.Program{Symbols: symtab, LabelLocs: labelLocs}
	for _, o := range resolved {
		d := o.Desc()
		if d != nil && d.Class == op.Data {
			program.Data = append(program.Data, o)
		} else {
			program.Code = append(program.Code, o)
		}
	}
	return program, msgs
}

// elideDebugOps reports whether debug ops are dropped from the code
// stream in the current mode. Branch offsets are computed after this
// elision.
func elideDebugOps(settings *data.Settings) bool {
	return settings.Mode == data.ModeAssemble || settings.Mode == data.ModePreprocess
}

// typecheck runs the first two passes: symbol collection and layout,
// then per-op signature checking. The symbol table is returned for
// the conversion pass.
func typecheck(oplist []*op.Op, settings *data.Settings) (data.SymbolTable, data.Messages) {
	msgs := checkSymbolRedeclaration(oplist)

	symtab, labelMsgs := collectLabels(oplist, settings)
	msgs.Extend(labelMsgs)

	seenCode := false
	for _, o := range oplist {
		d := o.Desc()
		if d == nil {
			// The parser already reported the unknown mnemonic.
			continue
		}
		d.Typecheck(o, symtab, &msgs)

		if d.Class == op.Data {
			if seenCode {
				msgs.Err("data statement after code", o.Loc)
			}
		} else {
			seenCode = true
		}

		if !settings.AllowInterrupts && (o.Name == "SWI" || o.Name == "RTI") {
			msgs.Err(fmt.Sprintf("%s is not supported", o.Name), o.Loc)
		}
		if settings.NoDebugOps && d.Class == op.Debug {
			msgs.Err("debugging instructions disallowed with --no-debug-ops flag", o.Loc)
		}

		// Constants come into scope at their declaration, so that
		// use-before-declare is caught above.
		if o.Name == "CONSTANT" && constantShaped(o) {
			v := o.Arg(1)
			if data.OutOfRange(v) {
				v = 0
			}
			symtab[o.Args[0].Text] = data.Symbol{Kind: data.SymConstant, Value: v}
		}
	}
	return symtab, msgs
}

func checkSymbolRedeclaration(oplist []*op.Op) data.Messages {
	var msgs data.Messages
	seen := make(map[string]bool)
	for _, o := range oplist {
		if (o.Name == "CONSTANT" || o.Name == "LABEL" || o.Name == "DLABEL") && len(o.Args) >= 1 {
			name := o.Args[0].Text
			if seen[name] {
				msgs.Err(fmt.Sprintf("symbol `%s` has already been defined", name), o.Loc)
			} else {
				seen[name] = true
			}
		}
	}
	return msgs
}

// collectLabels performs the layout pass: it walks the program
// maintaining the resolved code position and the data counter, and
// assigns every label and data label its concrete value.
func collectLabels(oplist []*op.Op, settings *data.Settings) (data.SymbolTable, data.Messages) {
	var msgs data.Messages
	symtab := make(data.SymbolTable)
	// DSKIP may take a constant argument, which must resolve during
	// layout so later DLABELs land correctly.
	constants := make(map[string]int)
	pc := 0
	dc := settings.DataStart

	for _, o := range oplist {
		odc := dc
		d := o.Desc()
		switch {
		case o.Name == "LABEL":
			if len(o.Args) == 1 {
				symtab[o.Args[0].Text] = data.Symbol{Kind: data.SymLabel, Value: pc}
			}
		case o.Name == "DLABEL":
			if len(o.Args) == 1 {
				if data.OutOfRange(dc) {
					// The data counter has already overflowed; a dummy
					// value avoids cascading overflow errors.
					symtab[o.Args[0].Text] = data.Symbol{Kind: data.SymDataLabel}
				} else {
					symtab[o.Args[0].Text] = data.Symbol{Kind: data.SymDataLabel, Value: dc}
				}
			}
		case o.Name == "CONSTANT":
			if constantShaped(o) {
				constants[o.Args[0].Text] = o.Arg(1)
			}
		case o.Name == "INTEGER":
			dc++
		case o.Name == "LP_STRING" || o.Name == "TIGER_STRING":
			if len(o.Args) == 1 && o.Args[0].Type == data.TokenString {
				dc += len(o.Args[0].Text) + 1
			}
		case o.Name == "DSKIP":
			if len(o.Args) == 1 {
				if o.Args[0].Type == data.TokenInt {
					dc += o.Arg(0)
				} else if v, ok := constants[o.Args[0].Text]; ok {
					dc += v
				}
			}
		case d != nil && d.Class == op.Debug && elideDebugOps(settings):
			// Elided; occupies no code position.
		case d != nil:
			pc += d.CodeLength(o)
		}

		if data.OutOfRange(dc) && !data.OutOfRange(odc) {
			msgs.Err("past the end of available memory", o.Loc)
		}
	}
	return symtab, msgs
}

// convertOps runs the final pass: substitute symbols for their
// values, fix up relative branches, and expand pseudo-ops into real
// ops.
func convertOps(oplist []*op.Op, symtab data.SymbolTable, settings *data.Settings) ([]*op.Op, data.Messages) {
	var msgs data.Messages
	var out []*op.Op
	pc := 0
	for _, o := range oplist {
		d := o.Desc()
		if d == nil {
			continue
		}
		if d.Class == op.Debug && elideDebugOps(settings) {
			continue
		}

		if d.IsRelativeBranch() && len(o.Args) == 1 && o.Args[0].Type == data.TokenSymbol {
			target := symtab[o.Args[0].Text].Value
			jump := target - pc
			if jump < -128 || jump >= 128 {
				msgs.Err("label is too far for a relative branch", o.Args[0].Loc)
				continue
			}
			loc := o.Args[0].Loc
			o.Args[0] = data.Int(jump)
			o.Args[0].Loc = loc
		} else {
			substituteSymbols(o, symtab)
		}

		newOps := []*op.Op{o}
		if d.Expand != nil {
			newOps = d.Expand(o)
		}
		for _, n := range newOps {
			n.Loc = o.Loc
			n.Original = o
			out = append(out, n)
		}
		if d.Class != op.Data {
			pc += len(newOps)
		}
	}
	return out, msgs
}

// substituteSymbols rewrites every symbol token in the op to its
// resolved integer value.
func substituteSymbols(o *op.Op, symtab data.SymbolTable) {
	for i, t := range o.Args {
		if t.Type == data.TokenSymbol {
			if sym, ok := symtab[t.Text]; ok {
				loc := t.Loc
				o.Args[i] = data.Int(sym.Value)
				o.Args[i].Loc = loc
			}
		}
	}
}

// labelLocations maps each label to "path:line", for the debugger's
// symbol display.
func labelLocations(oplist []*op.Op) map[string]string {
	labels := make(map[string]string)
	for _, o := range oplist {
		if o.Name == "LABEL" && len(o.Args) == 1 && o.Loc != nil {
			labels[o.Args[0].Text] = fmt.Sprintf("%s:%d", o.Loc.Path, o.Loc.Line)
		}
	}
	return labels
}

func constantShaped(o *op.Op) bool {
	return len(o.Args) == 2 && o.Args[0].Type == data.TokenSymbol &&
		(o.Args[1].Type == data.TokenInt || o.Args[1].Type == data.TokenChar)
}
