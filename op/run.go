// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package op

import (
	"fmt"

	"github.com/herasm/hera/vm"
)

// Execute runs a single resolved operation against the machine,
// recording its location for runtime diagnostics.
func Execute(m *vm.Machine, o *Op) {
	m.Loc = o.Loc
	d := o.Desc()
	if d == nil || d.Execute == nil {
		m.Fail(fmt.Sprintf("cannot execute %s", o.Name))
		return
	}
	d.Execute(m, o)
	checkStack(m)
}

// checkStack faults when the stack pointer has crossed into the data
// segment. The stack grows upward toward DataStart.
func checkStack(m *vm.Machine) {
	if int(m.Reg[15]) >= m.Settings.DataStart {
		m.Fail("stack overflow")
	}
}

// PlaceData executes the data directives, materializing the static
// data segment starting at the configured data origin.
func PlaceData(m *vm.Machine, program *Program) {
	for _, d := range program.Data {
		desc := d.Desc()
		if desc != nil && desc.Execute != nil {
			m.Loc = d.Loc
			desc.Execute(m, d)
		}
	}
}

// Run places the data segment and then executes the resolved code
// stream until the machine halts, the program counter runs off the
// end, or the throttle is exhausted.
func Run(m *vm.Machine, program *Program) {
	PlaceData(m, program)
	for !m.Halted && m.PC >= 0 && m.PC < len(program.Code) {
		if m.Settings.Throttle > 0 && m.OpCount >= m.Settings.Throttle {
			m.Fail(fmt.Sprintf("program throttled after %d instructions", m.OpCount))
			return
		}
		Execute(m, program.Code[m.PC])
		m.OpCount++
	}
}
