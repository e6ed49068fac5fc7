// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package op

import (
	"fmt"

	"github.com/herasm/hera/data"
	"github.com/herasm/hera/script"
	"github.com/herasm/hera/vm"
)

func registerDebugOps() {
	register(&Descriptor{
		Name: "print_reg", Class: Debug, Params: []Param{pReg},
		Doc: "print_reg(Ra)\n  Print the value of Ra. A debugging instruction.",
		Execute: func(m *vm.Machine, o *Op) {
			v := m.LoadRegister(o.Arg(0))
			fmt.Fprintf(m.Settings.OutWriter(), "R%d = %s\n", o.Arg(0), data.FormatInt(v, data.DefaultSpec))
			m.PC++
		},
	})

	register(&Descriptor{
		Name: "print", Class: Debug, Params: []Param{pStr},
		Doc: "print(s)\n  Print the string literal, without a trailing newline. A debugging\n  instruction.",
		Execute: func(m *vm.Machine, o *Op) {
			fmt.Fprint(m.Settings.OutWriter(), o.Args[0].Text)
			m.PC++
		},
	})

	register(&Descriptor{
		Name: "println", Class: Debug, Params: []Param{pStr},
		Doc: "println(s)\n  Print the string literal with a trailing newline. A debugging\n  instruction.",
		Execute: func(m *vm.Machine, o *Op) {
			fmt.Fprintln(m.Settings.OutWriter(), o.Args[0].Text)
			m.PC++
		},
	})

	register(&Descriptor{
		Name: "__eval", Class: Debug, Params: []Param{pStr},
		Doc: "__eval(s)\n  Run a snippet in the embedded scripting language. Used by the\n  Tiger standard library for routines HERA itself cannot express.",
		Execute: func(m *vm.Machine, o *Op) {
			if err := script.Eval(m, o.Args[0].Text); err != nil {
				m.Settings.PrintError("script error: "+err.Error(), m.Loc)
				m.Fail("script error")
				return
			}
			m.PC++
		},
	})

	register(&Descriptor{
		Name: "__dump_state", Class: Debug,
		Doc: "__dump_state()\n  Print the machine's registers and flags. A debugging instruction.",
		Execute: func(m *vm.Machine, o *Op) {
			w := m.Settings.OutWriter()
			for i := 1; i < 16; i++ {
				fmt.Fprintf(w, "R%d = %d\n", i, m.Reg[i])
			}
			fmt.Fprintf(w, "sign=%v zero=%v overflow=%v carry=%v carry-block=%v\n",
				m.FlagSign, m.FlagZero, m.FlagOverflow, m.FlagCarry, m.FlagCarryBlock)
			m.PC++
		},
	})
}
