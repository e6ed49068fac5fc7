// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package script embeds a Lua interpreter behind the __eval debugging
// operation. The Tiger standard library's native routines - the ones
// the HERA spec makes no provision for, like console I/O and division
// - are exposed to Lua as builtins operating on the virtual machine.
// Routines expressible in HERA itself (malloc, concat, tstrcmp,
// substring) live as assembly in the stdlib package instead; the one
// exception is the register-convention tstrcmp, which is a builtin
// here (tstrcmp_reg).
package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/herasm/hera/data"
	"github.com/herasm/hera/vm"
)

// Eval runs a Lua snippet against the machine. The snippet sees a
// global `hera` table with register, memory and Tiger runtime access.
func Eval(m *vm.Machine, src string) error {
	L := lua.NewState()
	defer L.Close()
	registerAPI(L, m)
	if err := L.DoString(src); err != nil {
		if apiErr, ok := err.(*lua.ApiError); ok {
			return fmt.Errorf("%v", apiErr.Object)
		}
		return err
	}
	return nil
}

func registerAPI(L *lua.LState, m *vm.Machine) {
	fns := map[string]lua.LGFunction{
		"getreg": func(L *lua.LState) int {
			L.Push(lua.LNumber(m.LoadRegister(int(L.CheckInt(1)))))
			return 1
		},
		"setreg": func(L *lua.LState) int {
			m.StoreRegister(int(L.CheckInt(1)), uint16(L.CheckInt(2)))
			return 0
		},
		"getmem": func(L *lua.LState) int {
			L.Push(lua.LNumber(m.LoadMem(int(L.CheckInt(1)))))
			return 1
		},
		"setmem": func(L *lua.LState) int {
			m.StoreMem(int(L.CheckInt(1)), uint16(L.CheckInt(2)))
			return 0
		},
		"getpc": func(L *lua.LState) int {
			L.Push(lua.LNumber(m.PC))
			return 1
		},
		"halt": func(L *lua.LState) int {
			m.Halted = true
			return 0
		},

		// Tiger runtime, stack calling convention: arguments live at
		// memory cells FP+3 and up, and the result goes back into
		// the FP+3 slot.
		"printint_stack": func(L *lua.LState) int {
			fmt.Fprint(m.Settings.OutWriter(), data.FromU16(stackArg(m, 0)))
			return 0
		},
		"printbool_stack": func(L *lua.LState) int {
			printBool(m, stackArg(m, 0))
			return 0
		},
		"print_stack": func(L *lua.LState) int {
			fmt.Fprint(m.Settings.OutWriter(), lpString(m, int(stackArg(m, 0))))
			return 0
		},
		"println_stack": func(L *lua.LState) int {
			fmt.Fprintln(m.Settings.OutWriter(), lpString(m, int(stackArg(m, 0))))
			return 0
		},
		"div_stack": func(L *lua.LState) int {
			q, err := divide(stackArg(m, 0), stackArg(m, 1))
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			storeStackResult(m, q)
			return 0
		},
		"mod_stack": func(L *lua.LState) int {
			r, err := modulo(stackArg(m, 0), stackArg(m, 1))
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			storeStackResult(m, r)
			return 0
		},
		"not_stack": func(L *lua.LState) int {
			storeStackResult(m, logicalNot(stackArg(m, 0)))
			return 0
		},
		"getchar_ord_stack": func(L *lua.LState) int {
			storeStackResult(m, getcharOrd(m))
			return 0
		},
		"putchar_ord_stack": func(L *lua.LState) int {
			fmt.Fprint(m.Settings.OutWriter(), string(rune(stackArg(m, 0))))
			return 0
		},

		// Register calling convention: arguments in R1 and R2, the
		// result back in R1.
		"printint_reg": func(L *lua.LState) int {
			fmt.Fprint(m.Settings.OutWriter(), data.FromU16(m.LoadRegister(1)))
			return 0
		},
		"printbool_reg": func(L *lua.LState) int {
			printBool(m, m.LoadRegister(1))
			return 0
		},
		"print_reg": func(L *lua.LState) int {
			fmt.Fprint(m.Settings.OutWriter(), lpString(m, int(m.LoadRegister(1))))
			return 0
		},
		"println_reg": func(L *lua.LState) int {
			fmt.Fprintln(m.Settings.OutWriter(), lpString(m, int(m.LoadRegister(1))))
			return 0
		},
		"div_reg": func(L *lua.LState) int {
			q, err := divide(m.LoadRegister(1), m.LoadRegister(2))
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			m.StoreRegister(1, q)
			return 0
		},
		"mod_reg": func(L *lua.LState) int {
			r, err := modulo(m.LoadRegister(1), m.LoadRegister(2))
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			m.StoreRegister(1, r)
			return 0
		},
		"not_reg": func(L *lua.LState) int {
			m.StoreRegister(1, logicalNot(m.LoadRegister(1)))
			return 0
		},
		"getchar_ord_reg": func(L *lua.LState) int {
			m.StoreRegister(1, getcharOrd(m))
			return 0
		},
		"putchar_ord_reg": func(L *lua.LState) int {
			fmt.Fprint(m.Settings.OutWriter(), string(rune(m.LoadRegister(1))))
			return 0
		},
		"tstrcmp_reg": func(L *lua.LState) int {
			a := lpString(m, int(m.LoadRegister(1)))
			b := lpString(m, int(m.LoadRegister(2)))
			m.StoreRegister(1, uint16(strcmp(a, b)))
			return 0
		},

		// Shared between the two conventions.
		"ungetchar": func(L *lua.LState) int {
			if m.InputPos > 0 {
				m.InputPos--
			}
			return 0
		},
		"flush": func(L *lua.LState) int {
			if f, ok := m.Settings.OutWriter().(interface{ Flush() error }); ok {
				f.Flush()
			}
			return 0
		},
		// getline's allocation is done by the in-HERA malloc, so the
		// native half is split: the preamble reads a line and leaves
		// the cell count in R1, and the epilogue writes the line as a
		// length-prefixed string at the address malloc returned in R1.
		"getline_preamble": func(L *lua.LState) int {
			m.ReadLine()
			m.StoreRegister(1, uint16(len(m.InputBuffer)+1))
			return 0
		},
		"getline_epilogue": func(L *lua.LState) int {
			addr := int(m.LoadRegister(1))
			m.StoreMem(addr, uint16(len(m.InputBuffer)))
			for i, c := range m.InputBuffer {
				m.StoreMem(addr+1+i, uint16(c))
			}
			return 0
		},
	}

	mod := L.NewTable()
	L.SetFuncs(mod, fns)
	L.SetGlobal("hera", mod)
}

// stackArg returns the i'th stack-convention argument: memory cell
// FP+3+i.
func stackArg(m *vm.Machine, i int) uint16 {
	return m.LoadMem(int(m.LoadRegister(14)) + 3 + i)
}

// storeStackResult writes a stack-convention result into the FP+3
// return slot.
func storeStackResult(m *vm.Machine, v uint16) {
	m.StoreMem(int(m.LoadRegister(14))+3, v)
}

func printBool(m *vm.Machine, v uint16) {
	if v == 0 {
		fmt.Fprint(m.Settings.OutWriter(), "false")
	} else {
		fmt.Fprint(m.Settings.OutWriter(), "true")
	}
}

func divide(a, b uint16) (uint16, error) {
	if b == 0 {
		return 0, fmt.Errorf("division by zero")
	}
	return uint16(data.FromU16(a) / data.FromU16(b)), nil
}

func modulo(a, b uint16) (uint16, error) {
	if b == 0 {
		return 0, fmt.Errorf("division by zero")
	}
	return uint16(data.FromU16(a) % data.FromU16(b)), nil
}

func logicalNot(v uint16) uint16 {
	if v == 0 {
		return 1
	}
	return 0
}

// getcharOrd returns the next character of console input, refilling
// the line buffer when it is exhausted. End of input yields 0.
func getcharOrd(m *vm.Machine) uint16 {
	if m.InputPos >= len(m.InputBuffer) {
		m.ReadLine()
	}
	if m.InputPos < len(m.InputBuffer) {
		c := uint16(m.InputBuffer[m.InputPos])
		m.InputPos++
		return c
	}
	return 0
}

// strcmp orders two strings the way the C function does: a negative,
// zero or positive result.
func strcmp(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// lpString reads a length-prefixed string out of machine memory.
func lpString(m *vm.Machine, addr int) string {
	n := int(m.LoadMem(addr))
	b := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		b = append(b, byte(m.LoadMem(addr+1+i)))
	}
	return string(b)
}
