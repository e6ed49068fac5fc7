// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package op

import (
	"fmt"

	"github.com/herasm/hera/data"
	"github.com/herasm/hera/vm"
)

// callAndReturn implements the shared semantics of CALL and RETURN:
// swap PC with Rb and FP (R14) with Ra.
func callAndReturn(m *vm.Machine, ra, rb int) {
	oldPC := m.PC
	m.PC = int(m.LoadRegister(rb))
	m.StoreRegister(rb, uint16(oldPC+1))
	oldFP := m.LoadRegister(14)
	m.StoreRegister(14, m.LoadRegister(ra))
	m.StoreRegister(ra, oldFP)
}

func registerCallReturn() {
	register(&Descriptor{
		Name: "CALL", Class: Real, Params: []Param{pReg, pRorL},
		Bits:     "0010 0000 AAAA BBBB",
		isBranch: true,
		Doc: "CALL(FP_alt, function)\n  Call the function. The first argument should be FP_alt unless you\n" +
			"  have a good reason not to. Arguments are passed per the HERA\n  calling convention; see the HERA manual.",
		Length: func(o *Op) int {
			if len(o.Args) == 2 && o.Args[1].Type != data.TokenRegister {
				return 3
			}
			return 1
		},
		Expand: func(o *Op) []*Op {
			if o.Args[1].Type == data.TokenRegister {
				return []*Op{o}
			}
			lbl := o.Arg(1)
			return []*Op{
				New("SETLO", o.Loc, data.R(13), data.Int(lbl&0xFF)),
				New("SETHI", o.Loc, data.R(13), data.Int(lbl>>8)),
				New("CALL", o.Loc, o.Args[0], data.R(13)),
			}
		},
		Check: func(o *Op, msgs *data.Messages) {
			if len(o.Args) >= 1 && o.Args[0].Type == data.TokenRegister && o.Args[0].Val != 12 {
				msgs.WarnOnce("call-register", "first argument to CALL should be R12", o.Args[0].Loc)
			}
		},
		Execute: func(m *vm.Machine, o *Op) {
			m.ExpectedReturns = append(m.ExpectedReturns, vm.ReturnPair{
				CallAddress:   int(m.LoadRegister(o.Arg(1))),
				ReturnAddress: m.PC + 1,
			})
			callAndReturn(m, o.Arg(0), o.Arg(1))
		},
	})

	register(&Descriptor{
		Name: "RETURN", Class: Real, Params: []Param{pReg, pReg},
		Bits:     "0010 0001 AAAA BBBB",
		isBranch: true,
		Doc: "RETURN(FP_alt, PC_ret)\n  Return from a function call. The arguments should be FP_alt and\n" +
			"  PC_ret unless you have a good reason otherwise.",
		Check: func(o *Op, msgs *data.Messages) {
			if len(o.Args) >= 2 && o.Args[1].Type == data.TokenRegister && o.Args[1].Val != 13 {
				msgs.WarnOnce("return-register", "second argument to RETURN should be R13", o.Args[1].Loc)
			}
		},
		Execute: func(m *vm.Machine, o *Op) {
			got := int(m.LoadRegister(o.Arg(1)))
			if len(m.ExpectedReturns) > 0 {
				pair := m.ExpectedReturns[len(m.ExpectedReturns)-1]
				m.ExpectedReturns = m.ExpectedReturns[:len(m.ExpectedReturns)-1]
				if pair.ReturnAddress != got {
					warnReturn(m, fmt.Sprintf("incorrect return address (got %d, expected %d)", got, pair.ReturnAddress))
				}
			} else {
				warnReturn(m, fmt.Sprintf("incorrect return address (got %d, expected <nothing>)", got))
			}
			callAndReturn(m, o.Arg(0), o.Arg(1))
		},
	})

	interrupt := func(name string, params []Param, bits, doc string) {
		register(&Descriptor{
			Name: name, Class: Real, Params: params, Bits: bits, Doc: doc,
			Execute: func(m *vm.Machine, o *Op) {
				if !m.ErroredInterrupt {
					m.ErroredInterrupt = true
					m.Settings.PrintError(name+" is not supported", m.Loc)
				}
				m.PC++
			},
		})
	}
	interrupt("SWI", []Param{pU4}, "0010 0010 0000 aaaa",
		"SWI(i)\n  Simulate software interrupt i. Recognized but not executable.")
	interrupt("RTI", nil, "0010 0011 0000 0000",
		"RTI()\n  Return from a software interrupt. Recognized but not executable.")
}

// warnReturn prints the suspicious-return-address warning at most
// once per run, unless disabled with --warn-return-off.
func warnReturn(m *vm.Machine, msg string) {
	if !m.Settings.WarnReturnOn || m.WarnedReturn {
		return
	}
	m.WarnedReturn = true
	m.Settings.PrintWarning(msg, m.Loc)
}
