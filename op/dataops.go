// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package op

import (
	"github.com/herasm/hera/vm"
)

func registerDataOps() {
	register(&Descriptor{
		Name: "LABEL", Class: Pseudo, Params: []Param{pLabel},
		Doc:    "LABEL(l)\n  Designate the next instruction as l, so that it can be the target\n  of a branching instruction.",
		Length: func(o *Op) int { return 0 },
		Expand: func(o *Op) []*Op { return nil },
	})

	register(&Descriptor{
		Name: "CONSTANT", Class: Data, Params: []Param{pLabel, pI16},
		Doc:    "CONSTANT(x, d)\n  Declare the symbol x to have the value d, usable wherever the\n  integer d would be.",
		Expand: func(o *Op) []*Op { return nil },
	})

	register(&Descriptor{
		Name: "DLABEL", Class: Data, Params: []Param{pLabel},
		Doc:    "DLABEL(l)\n  Designate the next data cell as l, for use with LOAD and STORE.",
		Expand: func(o *Op) []*Op { return nil },
	})

	register(&Descriptor{
		Name: "INTEGER", Class: Data, Params: []Param{pI16},
		Doc: "INTEGER(i)\n  Place the 16-bit signed integer i into the current data cell.",
		Execute: func(m *vm.Machine, o *Op) {
			m.StoreMem(m.DC, uint16(o.Arg(0)))
			m.DC++
		},
	})

	register(&Descriptor{
		Name: "DSKIP", Class: Data, Params: []Param{pU16},
		Doc: "DSKIP(n)\n  Skip the next n data cells, typically to reserve space for a\n  fixed-size array.",
		Execute: func(m *vm.Machine, o *Op) {
			m.DC += o.Arg(0)
		},
	})

	lpString := &Descriptor{
		Name: "LP_STRING", Class: Data, Params: []Param{pStr},
		Doc: "LP_STRING(s)\n  Place the length-prefixed string s into memory at the current\n  data cell.",
		Execute: func(m *vm.Machine, o *Op) {
			s := o.Args[0].Text
			m.StoreMem(m.DC, uint16(len(s)))
			m.DC++
			for _, c := range []byte(s) {
				m.StoreMem(m.DC, uint16(c))
				m.DC++
			}
		},
	}
	register(lpString)

	// TIGER_STRING is the name the Tiger compiler emits for the same
	// directive.
	alias := *lpString
	alias.Name = "TIGER_STRING"
	register(&alias)
}
