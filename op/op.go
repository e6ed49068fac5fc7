// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package op is the authoritative registry of HERA operations. Each
// mnemonic maps to a descriptor binding its parameter signature,
// binary encoding, pseudo-op expansion, and execution semantics. The
// rest of the toolchain - parser, checker, assembler, disassembler,
// VM and debugger - is driven entirely by this table.
package op

import (
	"fmt"
	"strings"

	"github.com/herasm/hera/data"
	"github.com/herasm/hera/vm"
)

// Class partitions the operation set.
type Class int

const (
	// Real operations have a direct binary encoding.
	Real Class = iota
	// Pseudo operations expand to one or more real operations.
	Pseudo
	// Data directives shape the static data segment.
	Data
	// Debug operations execute but occupy no code words.
	Debug
)

// An Op is one operation invocation: a mnemonic, its argument tokens,
// and the source location it came from. After checking, integer
// argument values live in the tokens' Val fields. Original points
// back at the pre-expansion op for the debugger's benefit.
type Op struct {
	Name     string
	Args     []data.Token
	Loc      *data.Location
	Original *Op
}

// New constructs an operation.
func New(name string, loc *data.Location, args ...data.Token) *Op {
	return &Op{Name: name, Args: args, Loc: loc}
}

// Arg returns the resolved integer value of argument i.
func (o *Op) Arg(i int) int {
	return o.Args[i].Val
}

// Desc returns the descriptor for the op's mnemonic, or nil if the
// mnemonic is unknown.
func (o *Op) Desc() *Descriptor {
	return Lookup(o.Name)
}

func (o *Op) String() string {
	parts := make([]string, len(o.Args))
	for i, a := range o.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", o.Name, strings.Join(parts, ", "))
}

// Equal reports whether two ops have the same mnemonic and argument
// values.
func (o *Op) Equal(other *Op) bool {
	if other == nil || o.Name != other.Name || len(o.Args) != len(other.Args) {
		return false
	}
	for i := range o.Args {
		a, b := o.Args[i], other.Args[i]
		if a.Type != b.Type {
			return false
		}
		switch a.Type {
		case data.TokenInt, data.TokenRegister, data.TokenChar:
			if a.Val != b.Val {
				return false
			}
		default:
			if a.Text != b.Text {
				return false
			}
		}
	}
	return true
}

// A Program is the checker's output: the data directives, the
// resolved code stream, the symbol table, and the label locations
// recorded for the debugger.
type Program struct {
	Data      []*Op
	Code      []*Op
	Symbols   data.SymbolTable
	LabelLocs map[string]string
}

// ParamKind enumerates the argument categories of HERA operations.
type ParamKind int

const (
	ParamRegister ParamKind = iota
	ParamRegisterOrLabel
	ParamLabel
	ParamString
	ParamInt
	ParamIntOrLabel
)

// A Param is one slot of an operation's signature. Lo and Hi bound
// integer parameters; Hi is exclusive.
type Param struct {
	Kind   ParamKind
	Lo, Hi int
}

// Signature helpers used by the operation table.
var (
	pReg   = Param{Kind: ParamRegister}
	pRorL  = Param{Kind: ParamRegisterOrLabel}
	pLabel = Param{Kind: ParamLabel}
	pStr   = Param{Kind: ParamString}
	pI16L  = Param{Kind: ParamIntOrLabel, Lo: -(1 << 15), Hi: 1 << 16}
	pI8L   = Param{Kind: ParamIntOrLabel, Lo: -(1 << 7), Hi: 1 << 8}
	pI16   = Param{Kind: ParamInt, Lo: -(1 << 15), Hi: 1 << 16}
	pU16   = Param{Kind: ParamInt, Lo: 0, Hi: 1 << 16}
	pI8    = Param{Kind: ParamInt, Lo: -(1 << 7), Hi: 1 << 8}
	pU5    = Param{Kind: ParamInt, Lo: 0, Hi: 1 << 5}
	pU4    = Param{Kind: ParamInt, Lo: 0, Hi: 1 << 4}
	pInc   = Param{Kind: ParamInt, Lo: 1, Hi: 65}
)

// A Descriptor is the registry entry for one mnemonic.
type Descriptor struct {
	Name   string
	Class  Class
	Params []Param
	// Bits is the encoding pattern: sixteen 0/1/letter characters
	// (spaces ignored). Uppercase letters extract register fields,
	// lowercase letters integer fields; the letter selects the
	// argument index (a/A is argument 0). Empty for ops with no
	// direct encoding.
	Bits string
	// Doc is the text shown by the debugger's doc command.
	Doc string

	// Length returns how many real ops this op occupies in the
	// resolved code stream; nil means the class default (1 for real,
	// pseudo and debug ops, 0 for data directives).
	Length func(o *Op) int
	// Expand converts the op (after symbol substitution) into real
	// ops; nil means the op expands to itself.
	Expand func(o *Op) []*Op
	// Execute runs the op against the machine.
	Execute func(m *vm.Machine, o *Op)
	// Check runs mnemonic-specific static checks after the generic
	// signature check.
	Check func(o *Op, msgs *data.Messages)

	// encodeArgs and decodeArgs adjust between textual and encoded
	// argument values (INC and DEC store v-1 in the immediate field).
	encodeArgs func(args []int) []int
	decodeArgs func(args []int) []int
	// signedImm marks 8-bit immediate fields that decode as signed
	// (relative branches).
	signedImm bool
	// isBranch marks operations that redirect the program counter.
	isBranch bool
}

// IsBranch reports whether the op redirects the program counter
// (branches, CALL and RETURN).
func (d *Descriptor) IsBranch() bool {
	return d.isBranch
}

// IsRelativeBranch reports whether the op takes a signed 8-bit
// instruction offset, which the checker computes from the resolved
// program counter when the argument is a label.
func (d *Descriptor) IsRelativeBranch() bool {
	return d.signedImm
}

// CodeLength returns the op's intrinsic length in the resolved code
// stream.
func (d *Descriptor) CodeLength(o *Op) int {
	if d.Length != nil {
		return d.Length(o)
	}
	if d.Class == Data {
		return 0
	}
	return 1
}

// Typecheck validates the op's arguments against the descriptor's
// signature and runs any mnemonic-specific checks.
func (d *Descriptor) Typecheck(o *Op, symtab data.SymbolTable, msgs *data.Messages) {
	switch {
	case len(o.Args) > len(d.Params):
		msgs.Err(fmt.Sprintf("too many args to %s (expected %d)", d.Name, len(d.Params)), o.Loc)
	case len(o.Args) < len(d.Params):
		msgs.Err(fmt.Sprintf("too few args to %s (expected %d)", d.Name, len(d.Params)), o.Loc)
	}

	n := len(o.Args)
	if len(d.Params) < n {
		n = len(d.Params)
	}
	for i := 0; i < n; i++ {
		if errText := checkArg(d.Params[i], o.Args[i], symtab); errText != "" {
			msgs.Err(errText, o.Args[i].Loc)
		}
	}

	if d.Check != nil {
		d.Check(o, msgs)
	}
}

func checkArg(p Param, t data.Token, symtab data.SymbolTable) string {
	switch p.Kind {
	case ParamRegister:
		return checkRegister(t)
	case ParamRegisterOrLabel:
		return checkRegisterOrLabel(t, symtab)
	case ParamLabel:
		if t.Type != data.TokenSymbol {
			return "expected label"
		}
		return ""
	case ParamString:
		if t.Type != data.TokenString {
			return "expected string literal"
		}
		return ""
	case ParamInt, ParamIntOrLabel:
		return checkInRange(t, symtab, p.Lo, p.Hi, p.Kind == ParamIntOrLabel)
	}
	return ""
}

func checkRegister(t data.Token) string {
	if t.Type == data.TokenRegister {
		return ""
	}
	if t.Type == data.TokenSymbol && strings.ToLower(t.Text) == "pc" {
		return "program counter cannot be accessed or changed directly"
	}
	return "expected register"
}

func checkRegisterOrLabel(t data.Token, symtab data.SymbolTable) string {
	switch t.Type {
	case data.TokenRegister:
		return ""
	case data.TokenSymbol:
		sym, ok := symtab[t.Text]
		if !ok {
			return "undefined symbol"
		}
		switch sym.Kind {
		case data.SymConstant:
			return "constant cannot be used as label"
		case data.SymDataLabel:
			return "data label cannot be used as branch label"
		}
		return ""
	default:
		return "expected register or label"
	}
}

func checkInRange(t data.Token, symtab data.SymbolTable, lo, hi int, labels bool) string {
	v := t.Val
	if t.Type == data.TokenSymbol {
		sym, ok := symtab[t.Text]
		if !ok {
			return "undefined constant"
		}
		if !labels && sym.Kind != data.SymConstant {
			return "cannot use label as constant"
		}
		if labels && sym.Kind == data.SymLabel {
			return ""
		}
		v = sym.Value
	} else if t.Type != data.TokenInt && t.Type != data.TokenChar {
		return "expected integer"
	}

	if v < lo || v >= hi {
		return fmt.Sprintf("integer must be in range [%d, %d)", lo, hi)
	}
	return ""
}
