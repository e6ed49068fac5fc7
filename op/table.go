// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package op

import (
	"fmt"

	"github.com/herasm/hera/data"
	"github.com/herasm/hera/vm"
)

// The registry. Real ops come first so that Disassemble scans them in
// encoding-priority order; pseudo, data and debug ops carry no Bits
// and are skipped by the matcher.
var table []*Descriptor

var byName = make(map[string]*Descriptor)

// Lookup returns the descriptor for a mnemonic, or nil.
func Lookup(name string) *Descriptor {
	return byName[name]
}

// Names returns every mnemonic in the registry.
func Names() []string {
	names := make([]string, 0, len(table))
	for _, d := range table {
		names = append(names, d.Name)
	}
	return names
}

func register(d *Descriptor) *Descriptor {
	table = append(table, d)
	byName[d.Name] = d
	return d
}

// binaryOp builds a three-register ALU operation. calc computes the
// result and sets carry/overflow; zero and sign are set here.
func binaryOp(name, bits, doc string, calc func(m *vm.Machine, left, right uint16) uint16) *Descriptor {
	return register(&Descriptor{
		Name:   name,
		Class:  Real,
		Params: []Param{pReg, pReg, pReg},
		Bits:   bits,
		Doc:    doc,
		Execute: func(m *vm.Machine, o *Op) {
			left := m.LoadRegister(o.Arg(1))
			right := m.LoadRegister(o.Arg(2))
			result := calc(m, left, right)
			m.SetZeroSign(result)
			m.StoreRegister(o.Arg(0), result)
			m.PC++
		},
	})
}

// unaryOp builds a two-register operation (the shifts).
func unaryOp(name, bits, doc string, calc func(m *vm.Machine, arg uint16) uint16) *Descriptor {
	return register(&Descriptor{
		Name:   name,
		Class:  Real,
		Params: []Param{pReg, pReg},
		Bits:   bits,
		Doc:    doc,
		Execute: func(m *vm.Machine, o *Op) {
			arg := m.LoadRegister(o.Arg(1))
			result := calc(m, arg)
			m.SetZeroSign(result)
			m.StoreRegister(o.Arg(0), result)
			m.PC++
		},
	})
}

// regBranch builds a register branch. With a label argument it
// expands to SETLO/SETHI into R11 followed by the branch itself.
func regBranch(name, bits, doc string, should func(m *vm.Machine) bool) *Descriptor {
	var d *Descriptor
	d = register(&Descriptor{
		Name:     name,
		Class:    Real,
		Params:   []Param{pRorL},
		Bits:     bits,
		Doc:      doc,
		isBranch: true,
		Execute: func(m *vm.Machine, o *Op) {
			if should(m) {
				m.PC = int(m.LoadRegister(o.Arg(0)))
			} else {
				m.PC++
			}
		},
		Length: func(o *Op) int {
			if len(o.Args) == 1 && o.Args[0].Type != data.TokenRegister {
				return 3
			}
			return 1
		},
		Expand: func(o *Op) []*Op {
			if o.Args[0].Type == data.TokenRegister {
				return []*Op{o}
			}
			lbl := o.Arg(0)
			return []*Op{
				New("SETLO", o.Loc, data.R(11), data.Int(lbl&0xFF)),
				New("SETHI", o.Loc, data.R(11), data.Int(lbl>>8)),
				New(d.Name, o.Loc, data.R(11)),
			}
		},
	})
	return d
}

// relBranch builds a relative branch with a signed 8-bit offset.
func relBranch(name, bits, doc string, should func(m *vm.Machine) bool) *Descriptor {
	return register(&Descriptor{
		Name:      name,
		Class:     Real,
		Params:    []Param{pI8L},
		Bits:      bits,
		Doc:       doc,
		signedImm: true,
		isBranch:  true,
		Execute: func(m *vm.Machine, o *Op) {
			if should(m) {
				m.PC += o.Arg(0)
			} else {
				m.PC++
			}
		},
	})
}

// pseudo builds an operation that only expands.
func pseudo(name string, params []Param, doc string, length int, expand func(o *Op) []*Op) *Descriptor {
	return register(&Descriptor{
		Name:   name,
		Class:  Pseudo,
		Params: params,
		Doc:    doc,
		Length: func(o *Op) int { return length },
		Expand: expand,
	})
}

func carryIn(m *vm.Machine) int {
	if !m.FlagCarryBlock && m.FlagCarry {
		return 1
	}
	return 0
}

func init() {
	// SETLO and SETHI: the 8-bit immediate halves behind SET.
	register(&Descriptor{
		Name: "SETLO", Class: Real, Params: []Param{pReg, pI8},
		Bits: "1110 AAAA bbbb bbbb",
		Doc:  "SETLO(Rd, v)\n  Set Rd to the sign-extended 8-bit integer v.",
		Execute: func(m *vm.Machine, o *Op) {
			v := o.Arg(1)
			if v > 127 {
				v -= 256
			}
			m.StoreRegister(o.Arg(0), uint16(v))
			m.PC++
		},
	})
	register(&Descriptor{
		Name: "SETHI", Class: Real, Params: []Param{pReg, pI8},
		Bits: "1111 AAAA bbbb bbbb",
		Doc:  "SETHI(Rd, v)\n  Set the high 8 bits of Rd to the unsigned 8-bit integer v.",
		Execute: func(m *vm.Machine, o *Op) {
			t := o.Arg(0)
			v := o.Arg(1)
			m.StoreRegister(t, uint16(v)<<8|m.LoadRegister(t)&0x00FF)
			m.PC++
		},
	})

	binaryOp("AND", "1000 AAAA BBBB CCCC",
		"AND(Rd, Ra, Rb)\n  Bitwise and of Ra and Rb. Sets sign and zero.",
		func(m *vm.Machine, l, r uint16) uint16 { return l & r })
	binaryOp("OR", "1001 AAAA BBBB CCCC",
		"OR(Rd, Ra, Rb)\n  Bitwise or of Ra and Rb. Sets sign and zero.",
		func(m *vm.Machine, l, r uint16) uint16 { return l | r })
	binaryOp("ADD", "1010 AAAA BBBB CCCC",
		"ADD(Rd, Ra, Rb)\n  Compute Ra + Rb (+ carry, unless the carry-block flag is on)\n  and store the result in Rd. Sets all four arithmetic flags.",
		func(m *vm.Machine, l, r uint16) uint16 {
			sum := int(l) + int(r) + carryIn(m)
			result := uint16(sum)
			m.FlagCarry = sum >= 1<<16
			m.FlagOverflow = data.FromU16(result) != data.FromU16(l)+data.FromU16(r)
			return result
		})
	binaryOp("SUB", "1011 AAAA BBBB CCCC",
		"SUB(Rd, Ra, Rb)\n  Compute Ra - Rb (- borrow, unless the carry-block flag is on)\n  and store the result in Rd. Carry is set when no borrow from the\n  2^16's place is needed.",
		func(m *vm.Machine, l, r uint16) uint16 {
			borrow := 0
			if !m.FlagCarryBlock && !m.FlagCarry {
				borrow = 1
			}
			result := uint16(int(l) - int(r) - borrow)
			m.FlagCarry = l >= r
			m.FlagOverflow = data.FromU16(result) != data.FromU16(l)-data.FromU16(r)-borrow
			return result
		})
	binaryOp("MUL", "1100 AAAA BBBB CCCC",
		"MUL(Rd, Ra, Rb)\n  Compute Ra * Rb. With the sign flag on and carry-block off, the\n  high 16 bits of the product are produced; otherwise the low 16.",
		func(m *vm.Machine, l, r uint16) uint16 {
			var result uint16
			if m.FlagSign && !m.FlagCarryBlock {
				lu := uint64(uint32(int32(data.FromU16(l))))
				ru := uint64(uint32(int32(data.FromU16(r))))
				p := lu * ru
				result = uint16((p & 0xFFFF0000) >> 16)
				m.FlagCarry = uint64(result) < p
			} else {
				p := int(l) * int(r)
				result = uint16(p)
				m.FlagCarry = int(result) < p
			}
			m.FlagOverflow = data.FromU16(result) != data.FromU16(l)*data.FromU16(r)
			return result
		})
	binaryOp("XOR", "1101 AAAA BBBB CCCC",
		"XOR(Rd, Ra, Rb)\n  Bitwise xor of Ra and Rb. Sets sign and zero.",
		func(m *vm.Machine, l, r uint16) uint16 { return l ^ r })

	// INC and DEC encode v-1 in the immediate field, since an
	// increment of zero is illegal.
	decIncArgs := func(delta int) func([]int) []int {
		return func(args []int) []int {
			out := append([]int(nil), args...)
			out[1] += delta
			return out
		}
	}
	register(&Descriptor{
		Name: "INC", Class: Real, Params: []Param{pReg, pInc},
		Bits:       "0011 AAAA 10bb bbbb",
		Doc:        "INC(Rd, v)\n  Increment Rd by v (1..64). Sets flags like the equivalent ADD,\n  but ignores the incoming carry.",
		encodeArgs: decIncArgs(-1),
		decodeArgs: decIncArgs(1),
		Execute: func(m *vm.Machine, o *Op) {
			t, v := o.Arg(0), o.Arg(1)
			orig := m.LoadRegister(t)
			result := uint16(int(orig) + v)
			m.StoreRegister(t, result)
			m.SetZeroSign(result)
			m.FlagOverflow = data.FromU16(result) != data.FromU16(orig)+v
			m.FlagCarry = int(orig)+v >= 1<<16
			m.PC++
		},
	})
	register(&Descriptor{
		Name: "DEC", Class: Real, Params: []Param{pReg, pInc},
		Bits:       "0011 AAAA 11bb bbbb",
		Doc:        "DEC(Rd, v)\n  Decrement Rd by v (1..64). Sets flags like the equivalent SUB,\n  but ignores the incoming carry.",
		encodeArgs: decIncArgs(-1),
		decodeArgs: decIncArgs(1),
		Execute: func(m *vm.Machine, o *Op) {
			t, v := o.Arg(0), o.Arg(1)
			orig := m.LoadRegister(t)
			result := uint16(int(orig) - v)
			m.StoreRegister(t, result)
			m.SetZeroSign(result)
			m.FlagOverflow = data.FromU16(result) != data.FromU16(orig)-v
			m.FlagCarry = int(orig) >= v
			m.PC++
		},
	})

	unaryOp("LSL", "0011 AAAA 0000 BBBB",
		"LSL(Rd, Rb)\n  Shift Rb left one bit into Rd. The carry flag shifts in on the\n  right unless carry-block is on; the bit shifted out becomes carry.",
		func(m *vm.Machine, arg uint16) uint16 {
			result := arg<<1 + uint16(carryIn(m))
			m.FlagCarry = arg&0x8000 != 0
			return result
		})
	unaryOp("LSR", "0011 AAAA 0001 BBBB",
		"LSR(Rd, Rb)\n  Shift Rb right one bit into Rd. The carry flag shifts in on the\n  left unless carry-block is on; the bit shifted out becomes carry.",
		func(m *vm.Machine, arg uint16) uint16 {
			var in uint16
			if carryIn(m) == 1 {
				in = 1 << 15
			}
			result := arg>>1 + in
			m.FlagCarry = arg&1 == 1
			return result
		})
	unaryOp("LSL8", "0011 AAAA 0010 BBBB",
		"LSL8(Rd, Rb)\n  Shift Rb eight bits left into Rd.",
		func(m *vm.Machine, arg uint16) uint16 { return arg << 8 })
	unaryOp("LSR8", "0011 AAAA 0011 BBBB",
		"LSR8(Rd, Rb)\n  Shift Rb eight bits right into Rd.",
		func(m *vm.Machine, arg uint16) uint16 { return arg >> 8 })
	unaryOp("ASL", "0011 AAAA 0100 BBBB",
		"ASL(Rd, Rb)\n  Like LSL, and additionally sets overflow when a negative Rb\n  shifts to a non-negative result.",
		func(m *vm.Machine, arg uint16) uint16 {
			result := arg<<1 + uint16(carryIn(m))
			m.FlagCarry = arg&0x8000 != 0
			m.FlagOverflow = arg&0x8000 != 0 && result&0x8000 == 0
			return result
		})
	unaryOp("ASR", "0011 AAAA 0101 BBBB",
		"ASR(Rd, Rb)\n  Arithmetic right shift: Rd = floor(Rb / 2) in two's complement.\n  Negative values round toward negative infinity.",
		func(m *vm.Machine, arg uint16) uint16 {
			m.FlagCarry = arg&1 == 1
			return uint16(int16(arg) >> 1)
		})

	register(&Descriptor{
		Name: "SAVEF", Class: Real, Params: []Param{pReg},
		Bits: "0011 AAAA 0111 0000",
		Doc:  "SAVEF(Rd)\n  Save the flags to Rd: bit 0 sign, 1 zero, 2 overflow, 3 carry,\n  4 carry-block.",
		Execute: func(m *vm.Machine, o *Op) {
			v := uint16(0)
			for i, f := range []bool{m.FlagSign, m.FlagZero, m.FlagOverflow, m.FlagCarry, m.FlagCarryBlock} {
				if f {
					v |= 1 << i
				}
			}
			m.StoreRegister(o.Arg(0), v)
			m.PC++
		},
	})
	register(&Descriptor{
		Name: "RSTRF", Class: Real, Params: []Param{pReg},
		Bits: "0011 AAAA 0111 1000",
		Doc:  "RSTRF(Rd)\n  Restore the flags from Rd, as saved by SAVEF.",
		Execute: func(m *vm.Machine, o *Op) {
			v := m.LoadRegister(o.Arg(0))
			m.FlagSign = v&1 != 0
			m.FlagZero = v&2 != 0
			m.FlagOverflow = v&4 != 0
			m.FlagCarry = v&8 != 0
			m.FlagCarryBlock = v&16 != 0
			m.PC++
		},
	})

	flagOp := func(name, bits, doc string, apply func(m *vm.Machine, v int)) {
		register(&Descriptor{
			Name: name, Class: Real, Params: []Param{pU5}, Bits: bits, Doc: doc,
			Execute: func(m *vm.Machine, o *Op) {
				apply(m, o.Arg(0))
				m.PC++
			},
		})
	}
	flagOp("FON", "0011 000a 0110 aaaa",
		"FON(v)\n  Turn on the flags selected by the bits of v.",
		func(m *vm.Machine, v int) {
			m.FlagSign = m.FlagSign || v&1 != 0
			m.FlagZero = m.FlagZero || v&2 != 0
			m.FlagOverflow = m.FlagOverflow || v&4 != 0
			m.FlagCarry = m.FlagCarry || v&8 != 0
			m.FlagCarryBlock = m.FlagCarryBlock || v&16 != 0
		})
	flagOp("FOFF", "0011 100a 0110 aaaa",
		"FOFF(v)\n  Turn off the flags selected by the bits of v.",
		func(m *vm.Machine, v int) {
			m.FlagSign = m.FlagSign && v&1 == 0
			m.FlagZero = m.FlagZero && v&2 == 0
			m.FlagOverflow = m.FlagOverflow && v&4 == 0
			m.FlagCarry = m.FlagCarry && v&8 == 0
			m.FlagCarryBlock = m.FlagCarryBlock && v&16 == 0
		})
	flagOp("FSET5", "0011 010a 0110 aaaa",
		"FSET5(v)\n  Set all five flags from the bits of v.",
		func(m *vm.Machine, v int) {
			m.FlagSign = v&1 != 0
			m.FlagZero = v&2 != 0
			m.FlagOverflow = v&4 != 0
			m.FlagCarry = v&8 != 0
			m.FlagCarryBlock = v&16 != 0
		})
	register(&Descriptor{
		Name: "FSET4", Class: Real, Params: []Param{pU4},
		Bits: "0011 110a 0110 aaaa",
		Doc:  "FSET4(v)\n  Like FSET5, but leaves the carry-block flag alone.",
		Execute: func(m *vm.Machine, o *Op) {
			v := o.Arg(0)
			m.FlagSign = v&1 != 0
			m.FlagZero = v&2 != 0
			m.FlagOverflow = v&4 != 0
			m.FlagCarry = v&8 != 0
			m.PC++
		},
	})

	register(&Descriptor{
		Name: "LOAD", Class: Real, Params: []Param{pReg, pU5, pReg},
		Bits: "010b AAAA bbbb CCCC",
		Doc:  "LOAD(Rd, o, Rb)\n  Load the value at memory address Rb + o into Rd. Sets sign and\n  zero for the loaded value.",
		Execute: func(m *vm.Machine, o *Op) {
			result := m.LoadMem(int(m.LoadRegister(o.Arg(2))) + o.Arg(1))
			m.SetZeroSign(result)
			m.StoreRegister(o.Arg(0), result)
			m.PC++
		},
	})
	register(&Descriptor{
		Name: "STORE", Class: Real, Params: []Param{pReg, pU5, pReg},
		Bits: "011b AAAA bbbb CCCC",
		Doc:  "STORE(Rd, o, Rb)\n  Store the value of Rd at memory address Rb + o.",
		Execute: func(m *vm.Machine, o *Op) {
			m.StoreMem(int(m.LoadRegister(o.Arg(2)))+o.Arg(1), m.LoadRegister(o.Arg(0)))
			m.PC++
		},
	})

	// Branches. Each register branch has a relative counterpart whose
	// name carries a trailing R.
	branchDoc := "Run `doc branch` for an explanation of branching instructions."
	regBranch("BR", "0001 0000 0000 AAAA", "BR(label)\n  Jump unconditionally.\n  "+branchDoc,
		func(m *vm.Machine) bool { return true })
	register(&Descriptor{
		Name: "BRR", Class: Real, Params: []Param{pI8L},
		Bits:      "0000 0000 aaaa aaaa",
		isBranch:  true,
		Doc:       "BRR(n)\n  Jump forward or backward n instructions. BRR(0) halts the machine.\n  " + branchDoc,
		signedImm: true,
		Execute: func(m *vm.Machine, o *Op) {
			if o.Arg(0) != 0 {
				m.PC += o.Arg(0)
			} else {
				m.Halted = true
			}
		},
	})
	condBranch := func(reg, regBits, rel, relBits, cond string, should func(m *vm.Machine) bool) {
		regBranch(reg, regBits, fmt.Sprintf("%s(label)\n  Jump to the label if %s.\n  %s", reg, cond, branchDoc), should)
		relBranch(rel, relBits, fmt.Sprintf("%s(n)\n  Jump forward or backward n instructions if %s.\n  %s", rel, cond, branchDoc), should)
	}
	condBranch("BL", "0001 0010 0000 AAAA", "BLR", "0000 0010 aaaa aaaa",
		"exactly one of the sign and overflow flags is on",
		func(m *vm.Machine) bool { return m.FlagSign != m.FlagOverflow })
	condBranch("BGE", "0001 0011 0000 AAAA", "BGER", "0000 0011 aaaa aaaa",
		"the sign and overflow flags are both on or both off",
		func(m *vm.Machine) bool { return m.FlagSign == m.FlagOverflow })
	condBranch("BLE", "0001 0100 0000 AAAA", "BLER", "0000 0100 aaaa aaaa",
		"BL's condition holds or the zero flag is on",
		func(m *vm.Machine) bool { return m.FlagSign != m.FlagOverflow || m.FlagZero })
	condBranch("BG", "0001 0101 0000 AAAA", "BGR", "0000 0101 aaaa aaaa",
		"BLE would not jump",
		func(m *vm.Machine) bool { return m.FlagSign == m.FlagOverflow && !m.FlagZero })
	condBranch("BULE", "0001 0110 0000 AAAA", "BULER", "0000 0110 aaaa aaaa",
		"the carry flag is off or the zero flag is on",
		func(m *vm.Machine) bool { return !m.FlagCarry || m.FlagZero })
	condBranch("BUG", "0001 0111 0000 AAAA", "BUGR", "0000 0111 aaaa aaaa",
		"the carry flag is on and the zero flag is off",
		func(m *vm.Machine) bool { return m.FlagCarry && !m.FlagZero })
	condBranch("BZ", "0001 1000 0000 AAAA", "BZR", "0000 1000 aaaa aaaa",
		"the zero flag is on",
		func(m *vm.Machine) bool { return m.FlagZero })
	condBranch("BNZ", "0001 1001 0000 AAAA", "BNZR", "0000 1001 aaaa aaaa",
		"the zero flag is off",
		func(m *vm.Machine) bool { return !m.FlagZero })
	condBranch("BC", "0001 1010 0000 AAAA", "BCR", "0000 1010 aaaa aaaa",
		"the carry flag is on",
		func(m *vm.Machine) bool { return m.FlagCarry })
	condBranch("BNC", "0001 1011 0000 AAAA", "BNCR", "0000 1011 aaaa aaaa",
		"the carry flag is off",
		func(m *vm.Machine) bool { return !m.FlagCarry })
	condBranch("BS", "0001 1100 0000 AAAA", "BSR", "0000 1100 aaaa aaaa",
		"the sign flag is on",
		func(m *vm.Machine) bool { return m.FlagSign })
	condBranch("BNS", "0001 1101 0000 AAAA", "BNSR", "0000 1101 aaaa aaaa",
		"the sign flag is off",
		func(m *vm.Machine) bool { return !m.FlagSign })
	condBranch("BV", "0001 1110 0000 AAAA", "BVR", "0000 1110 aaaa aaaa",
		"the overflow flag is on",
		func(m *vm.Machine) bool { return m.FlagOverflow })
	condBranch("BNV", "0001 1111 0000 AAAA", "BNVR", "0000 1111 aaaa aaaa",
		"the overflow flag is off",
		func(m *vm.Machine) bool { return !m.FlagOverflow })

	registerCallReturn()
	registerPseudoOps()
	registerDataOps()
	registerDebugOps()
}
