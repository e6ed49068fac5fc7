// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package op

import (
	"github.com/herasm/hera/data"
)

func registerPseudoOps() {
	pseudo("SET", []Param{pReg, pI16L},
		"SET(Rd, v)\n  Set Rd to the signed 16-bit integer v. Use MOVE to copy another\n  register. SET does not affect any flags.",
		2, func(o *Op) []*Op {
			v := uint16(o.Arg(1))
			return []*Op{
				New("SETLO", o.Loc, o.Args[0], data.Int(int(v&0xFF))),
				New("SETHI", o.Loc, o.Args[0], data.Int(int(v>>8))),
			}
		})

	pseudo("CMP", []Param{pReg, pReg},
		"CMP(Ra, Rb)\n  Compare Ra and Rb, setting the same flags as subtracting Rb from\n  Ra would. Pairs with the branch instructions.",
		2, func(o *Op) []*Op {
			return []*Op{
				New("FON", o.Loc, data.Int(8)),
				New("SUB", o.Loc, data.R(0), o.Args[0], o.Args[1]),
			}
		})

	pseudo("CON", nil, "CON()\n  Turn the carry flag on.", 1, func(o *Op) []*Op {
		return []*Op{New("FON", o.Loc, data.Int(8))}
	})
	pseudo("COFF", nil, "COFF()\n  Turn the carry flag off.", 1, func(o *Op) []*Op {
		return []*Op{New("FOFF", o.Loc, data.Int(8))}
	})
	pseudo("CBON", nil, "CBON()\n  Turn the carry-block flag on.", 1, func(o *Op) []*Op {
		return []*Op{New("FON", o.Loc, data.Int(16))}
	})
	pseudo("CCBOFF", nil, "CCBOFF()\n  Turn the carry and carry-block flags off.", 1, func(o *Op) []*Op {
		return []*Op{New("FOFF", o.Loc, data.Int(24))}
	})

	pseudo("MOVE", []Param{pReg, pReg},
		"MOVE(Ra, Rb)\n  Set Ra to the value of Rb.",
		1, func(o *Op) []*Op {
			return []*Op{New("OR", o.Loc, o.Args[0], o.Args[1], data.R(0))}
		})

	pseudo("SETRF", []Param{pReg, pI16L},
		"SETRF(Rd, v)\n  Set Rd to v and set the flags for v + 0.",
		4, func(o *Op) []*Op {
			ops := Lookup("SET").Expand(New("SET", o.Loc, o.Args[0], o.Args[1]))
			return append(ops, Lookup("FLAGS").Expand(New("FLAGS", o.Loc, o.Args[0]))...)
		})

	pseudo("FLAGS", []Param{pReg},
		"FLAGS(Ra)\n  Set the flags for Ra + 0.",
		2, func(o *Op) []*Op {
			return []*Op{
				New("FOFF", o.Loc, data.Int(8)),
				New("ADD", o.Loc, data.R(0), o.Args[0], data.R(0)),
			}
		})

	pseudo("HALT", nil, "HALT()\n  Stop execution of the program, permanently.", 1, func(o *Op) []*Op {
		return []*Op{New("BRR", o.Loc, data.Int(0))}
	})
	pseudo("NOP", nil, "NOP()\n  Do nothing.", 1, func(o *Op) []*Op {
		return []*Op{New("BRR", o.Loc, data.Int(1))}
	})

	pseudo("NEG", []Param{pReg, pReg},
		"NEG(Rd, Ra)\n  Arithmetic negation of Ra into Rd. Flags are set as for 0 - Ra.",
		2, func(o *Op) []*Op {
			return []*Op{
				New("FON", o.Loc, data.Int(8)),
				New("SUB", o.Loc, o.Args[0], data.R(0), o.Args[1]),
			}
		})

	not := pseudo("NOT", []Param{pReg, pReg},
		"NOT(Rd, Ra)\n  Bitwise negation of Ra into Rd. Overwrites R11.",
		3, func(o *Op) []*Op {
			return []*Op{
				New("SETLO", o.Loc, data.R(11), data.Int(0xFF)),
				New("SETHI", o.Loc, data.R(11), data.Int(0xFF)),
				New("XOR", o.Loc, o.Args[0], data.R(11), o.Args[1]),
			}
		})
	not.Check = func(o *Op, msgs *data.Messages) {
		if len(o.Args) == 2 && o.Args[1].Type == data.TokenRegister && o.Args[1].Val == 11 {
			msgs.Warn("don't use R11 with NOT", o.Args[1].Loc)
		}
	}

	opcode := pseudo("OPCODE", []Param{pU16},
		"OPCODE(d)\n  Treat the 16-bit integer d as the binary encoding of a HERA\n  instruction, and execute that instruction.",
		1, func(o *Op) []*Op {
			decoded, err := Disassemble(uint16(o.Arg(0)))
			if err != nil {
				return []*Op{o}
			}
			decoded.Loc = o.Loc
			return []*Op{decoded}
		})
	opcode.Check = func(o *Op, msgs *data.Messages) {
		if len(o.Args) == 1 && (o.Args[0].Type == data.TokenInt || o.Args[0].Type == data.TokenChar) {
			if _, err := Disassemble(uint16(o.Arg(0))); err != nil {
				msgs.Err("not a HERA instruction", o.Args[0].Loc)
			}
		}
	}
}
