// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stdlib holds the embedded HERA sources for the Tiger
// standard library, resolved by angle-bracket includes.
//
// The library splits into two kinds of routine. Operations that need
// system resources the HERA spec makes no provision for - console
// I/O, division - are one-line stubs around native builtins invoked
// through __eval. In the stack-convention library everything
// expressible in HERA itself - malloc, concat, tstrcmp, substring,
// size, ord - is plain HERA assembly. The register-convention library
// has only malloc in HERA assembly; its tstrcmp is a native stub, and
// it has no concat, substring, size or ord.
// Include the matching -data library before any code: it declares the
// heap bounds and the error strings the routines refer to.
package stdlib

// Source returns the embedded library text for an angle-bracket
// include name.
func Source(name string) (string, bool) {
	switch name {
	case "Tiger-stdlib-stack.hera":
		return tigerStdlibStack, true
	case "Tiger-stdlib-stack-data.hera":
		return tigerStdlibStackData, true
	case "Tiger-stdlib-reg.hera":
		return tigerStdlibReg, true
	case "Tiger-stdlib-reg-data.hera":
		return tigerStdlibRegData, true
	default:
		return "", false
	}
}

// Stack calling convention. Inside a routine FP points at its frame:
// FP+0 holds the saved return address, FP+1 the saved FP_alt, FP+3
// the first argument and, on return, the result.
const tigerStdlibStack = `
// Tiger standard library, stack calling convention.

LABEL(printint)
  __eval("hera.printint_stack()")
  RETURN(FP_alt, PC_ret)

LABEL(printbool)
  __eval("hera.printbool_stack()")
  RETURN(FP_alt, PC_ret)

LABEL(print)
  __eval("hera.print_stack()")
  RETURN(FP_alt, PC_ret)

LABEL(println)
  __eval("hera.println_stack()")
  RETURN(FP_alt, PC_ret)

LABEL(div)
  __eval("hera.div_stack()")
  RETURN(FP_alt, PC_ret)

LABEL(mod)
  __eval("hera.mod_stack()")
  RETURN(FP_alt, PC_ret)

LABEL(not)
  __eval("hera.not_stack()")
  RETURN(FP_alt, PC_ret)

LABEL(getchar_ord)
  __eval("hera.getchar_ord_stack()")
  RETURN(FP_alt, PC_ret)

LABEL(putchar_ord)
  __eval("hera.putchar_ord_stack()")
  RETURN(FP_alt, PC_ret)

LABEL(ungetchar)
  __eval("hera.ungetchar()")
  RETURN(FP_alt, PC_ret)

LABEL(flush)
  __eval("hera.flush()")
  RETURN(FP_alt, PC_ret)

// getline reads a line natively, allocates room for it with malloc,
// and writes it back as a length-prefixed string.
LABEL(getline)
  INC(SP, 4)
  STORE(PC_ret, 0, FP)
  STORE(FP_alt, 1, FP)
  __eval("hera.getline_preamble()")  // R1 = line length + 1
  MOVE(FP_alt, SP)
  INC(SP, 4)
  STORE(R1, 3, FP_alt)
  CALL(FP_alt, malloc)
  LOAD(R1, 3, FP_alt)
  DEC(SP, 4)
  __eval("hera.getline_epilogue()")  // writes the line at R1
  STORE(R1, 3, FP)
  LOAD(PC_ret, 0, FP)
  LOAD(FP_alt, 1, FP)
  DEC(SP, 4)
  RETURN(FP_alt, PC_ret)

LABEL(exit)
  HALT()

// size(s: string): int
LABEL(size)
  INC(SP, 1)
  STORE(R1, 4, FP)
  LOAD(R1, 3, FP)
  LOAD(R1, 0, R1)
  STORE(R1, 3, FP)
  LOAD(R1, 4, FP)
  DEC(SP, 1)
  RETURN(FP_alt, PC_ret)

// ord(s: string): int
LABEL(ord)
  INC(SP, 1)
  STORE(R1, 4, FP)
  LOAD(R1, 3, FP)
  LOAD(R1, 1, R1)
  STORE(R1, 3, FP)
  LOAD(R1, 4, FP)
  DEC(SP, 1)
  RETURN(FP_alt, PC_ret)

// malloc(n: int): address. Bump allocation out of the free-space
// heap; the next-free pointer lives in the heap's first cell.
LABEL(malloc)
  STORE(PC_ret, 0, FP)
  STORE(FP_alt, 1, FP)
  INC(SP, 3)
  STORE(R1, 4, FP)
  STORE(R2, 5, FP)
  STORE(R3, 6, FP)

  LOAD(R1, 3, FP)
  SET(R3, first_space_for_fsheap)
  LOAD(R2, 0, R3)
  BNZ(fsheap_initialized)
  MOVE(R2, R3)
  INC(R2, 1)
  STORE(R2, 0, R3)
LABEL(fsheap_initialized)
  STORE(R2, 3, FP)      // return value
  ADD(R2, R2, R1)
  BC(malloc_failed)     // wrapped past the end of the address space
  SET(R1, last_space_for_fsheap)
  CMP(R2, R1)
  BC(malloc_failed)     // ran past the end of the heap
  STORE(R2, 0, R3)

  LOAD(R1, 4, FP)
  LOAD(R2, 5, FP)
  LOAD(R3, 6, FP)
  LOAD(PC_ret, 0, FP)
  LOAD(FP_alt, 1, FP)
  DEC(SP, 3)
  RETURN(FP_alt, PC_ret)

LABEL(malloc_failed)
  MOVE(FP_alt, SP)
  INC(SP, 4)
  SET(R1, malloc_out_of_memory_error)
  STORE(R1, 3, FP_alt)
  CALL(FP_alt, print)
  CALL(FP_alt, exit)

// concat(s1: string, s2: string): string
LABEL(concat)
  STORE(PC_ret, 0, FP)
  STORE(FP_alt, 1, FP)
  INC(SP, 9)
  STORE(R1, 5, FP)
  STORE(R2, 6, FP)
  STORE(R3, 7, FP)
  STORE(R4, 8, FP)
  STORE(R5, 9, FP)
  MOVE(FP_alt, SP)

  // malloc size(s1) + size(s2) + 1 cells
  LOAD(R3, 3, FP)
  LOAD(R3, 0, R3)
  LOAD(R2, 4, FP)
  LOAD(R2, 0, R2)
  ADD(R3, R2, R3)
  INC(R3, 1)
  STORE(R3, 3, FP_alt)
  CALL(FP_alt, malloc)

  LOAD(R2, 3, FP_alt)
  DEC(R3, 1)
  STORE(R3, 0, R2)      // result's size
  LOAD(R1, 3, FP)
  STORE(R2, 3, FP)      // save the result, overwriting s1
  INC(R2, 1)

  LOAD(R3, 0, R1)
  INC(R1, 1)
  CALL(FP_alt, tstdlib_memcpy)
  LOAD(R1, 4, FP)
  LOAD(R3, 0, R1)
  INC(R1, 1)
  CALL(FP_alt, tstdlib_memcpy)

  LOAD(R1, 5, FP)
  LOAD(R2, 6, FP)
  LOAD(R3, 7, FP)
  LOAD(R4, 8, FP)
  LOAD(R5, 9, FP)
  LOAD(PC_ret, 0, FP)
  LOAD(FP_alt, 1, FP)
  DEC(SP, 9)
  RETURN(FP_alt, PC_ret)

// tstrcmp(s1: string, s2: string): int. Negative, zero or positive,
// like C's strcmp; also similar to doing CMP(s1, s2).
LABEL(tstrcmp)
  STORE(PC_ret, 0, FP)
  STORE(FP_alt, 1, FP)
  INC(SP, 6)
  STORE(R1, 10, FP)
  STORE(R2, 5, FP)
  STORE(R3, 6, FP)
  STORE(R4, 7, FP)
  STORE(R5, 8, FP)
  STORE(R6, 9, FP)

  // R3 = min(size(s1), size(s2))
  LOAD(R1, 3, FP)
  LOAD(R2, 4, FP)
  LOAD(R5, 0, R1)
  LOAD(R6, 0, R2)
  CMP(R5, R6)
  BLR(tstdlib_strcmp_b_longer)
  ADD(R3, R6, R0)
  BR(tstdlib_strcmp_got_min)
LABEL(tstdlib_strcmp_b_longer)
  ADD(R3, R5, R0)
LABEL(tstdlib_strcmp_got_min)
  INC(R1, 1)
  INC(R2, 1)
  ADD(R4, R0, R0)
LABEL(tstdlib_strcmp_loop)
  CMP(R4, R3)
  BGER(tstdlib_strcmp_done)
  ADD(R5, R4, R1)
  LOAD(R5, 0, R5)
  ADD(R6, R4, R2)
  LOAD(R6, 0, R6)
  CMP(R5, R6)
  BGER(tstdlib_strcmp_not_less)
  SET(R5, -1)
  STORE(R5, 3, FP)
  BR(tstdlib_strcmp_return)
LABEL(tstdlib_strcmp_not_less)
  CMP(R6, R5)
  BGER(tstdlib_strcmp_not_greater)
  SET(R5, 1)
  STORE(R5, 3, FP)
  BR(tstdlib_strcmp_return)
LABEL(tstdlib_strcmp_not_greater)
  INC(R4, 1)
  BR(tstdlib_strcmp_loop)
LABEL(tstdlib_strcmp_done)
  // The prefixes match: order by length.
  LOAD(R1, 3, FP)
  LOAD(R2, 4, FP)
  LOAD(R5, 0, R1)
  LOAD(R6, 0, R2)
  SUB(R5, R5, R6)
  STORE(R5, 3, FP)
LABEL(tstdlib_strcmp_return)
  LOAD(R1, 10, FP)
  LOAD(R2, 5, FP)
  LOAD(R3, 6, FP)
  LOAD(R4, 7, FP)
  LOAD(R5, 8, FP)
  LOAD(R6, 9, FP)
  LOAD(PC_ret, 0, FP)
  LOAD(FP_alt, 1, FP)
  DEC(SP, 6)
  RETURN(FP_alt, PC_ret)

// substring(s: string, first: int, n: int): string
LABEL(substring)
  STORE(PC_ret, 0, FP)
  STORE(FP_alt, 1, FP)
  INC(SP, 9)
  STORE(R1, 6, FP)
  STORE(R2, 7, FP)
  STORE(R3, 8, FP)
  STORE(R4, 9, FP)
  MOVE(FP_alt, SP)

  LOAD(R1, 3, FP)
  LOAD(R3, 5, FP)
  LOAD(R4, 4, FP)
  ADD(R0, R4, R0)
  BS(substring_bad_params)    // first < 0
  ADD(R0, R3, R0)
  BS(substring_bad_params)    // n < 0
  ADD(R4, R4, R3)
  LOAD(R2, 0, R1)
  CMP(R2, R4)
  BL(substring_bad_params)    // size(s) < first + n

  ADD(R4, R3, R0)
  INC(R4, 1)
  STORE(R4, 3, FP_alt)
  CALL(FP_alt, malloc)
  LOAD(R2, 3, FP_alt)
  STORE(R2, 3, FP)            // save the result, overwriting s
  INC(R1, 1)
  LOAD(R4, 4, FP)
  ADD(R1, R4, R1)             // first character to grab
  STORE(R3, 0, R2)
  INC(R2, 1)
  CALL(FP_alt, tstdlib_memcpy)

  LOAD(R1, 6, FP)
  LOAD(R2, 7, FP)
  LOAD(R3, 8, FP)
  LOAD(R4, 9, FP)
  LOAD(PC_ret, 0, FP)
  LOAD(FP_alt, 1, FP)
  DEC(SP, 9)
  RETURN(FP_alt, PC_ret)

LABEL(substring_bad_params)
  SET(R1, substring_got_bad_params)
  STORE(R1, 3, FP_alt)
  CALL(FP_alt, print)
  CALL(FP_alt, exit)

// Copy R3 cells from address R1 to address R2, advancing both.
LABEL(tstdlib_memcpy)
  ADD(R4, Rt, R0)
LABEL(tstdlib_memcpy_loop)
  OR(R0, R0, R3)
  BZ(tstdlib_memcpy_done)
  LOAD(Rt, 0, R1)
  INC(R1, 1)
  STORE(Rt, 0, R2)
  INC(R2, 1)
  DEC(R3, 1)
  BR(tstdlib_memcpy_loop)
LABEL(tstdlib_memcpy_done)
  ADD(Rt, R4, R0)
  RETURN(FP_alt, PC_ret)
`

const tigerStdlibStackData = `
// Tiger standard library data segment, stack calling convention.

CONSTANT(first_space_for_fsheap, 0x4000)
CONSTANT(last_space_for_fsheap, 0xbfff)

DLABEL(tiger_stdlib_endl)
LP_STRING("\n")
DLABEL(malloc_out_of_memory_error)
LP_STRING("malloc failed: out of memory\n")
DLABEL(substring_got_bad_params)
LP_STRING("substring: bad parameters\n")
`

// Register calling convention: arguments in R1 and R2, result in R1.
const tigerStdlibReg = `
// Tiger standard library, register calling convention.

LABEL(printint)
  __eval("hera.printint_reg()")
  RETURN(FP_alt, PC_ret)

LABEL(printbool)
  __eval("hera.printbool_reg()")
  RETURN(FP_alt, PC_ret)

LABEL(print)
  __eval("hera.print_reg()")
  RETURN(FP_alt, PC_ret)

LABEL(println)
  __eval("hera.println_reg()")
  RETURN(FP_alt, PC_ret)

LABEL(div)
  __eval("hera.div_reg()")
  RETURN(FP_alt, PC_ret)

LABEL(mod)
  __eval("hera.mod_reg()")
  RETURN(FP_alt, PC_ret)

LABEL(not)
  __eval("hera.not_reg()")
  RETURN(FP_alt, PC_ret)

LABEL(getchar_ord)
  __eval("hera.getchar_ord_reg()")
  RETURN(FP_alt, PC_ret)

LABEL(putchar_ord)
  __eval("hera.putchar_ord_reg()")
  RETURN(FP_alt, PC_ret)

LABEL(ungetchar)
  __eval("hera.ungetchar()")
  RETURN(FP_alt, PC_ret)

LABEL(flush)
  __eval("hera.flush()")
  RETURN(FP_alt, PC_ret)

LABEL(tstrcmp)
  __eval("hera.tstrcmp_reg()")
  RETURN(FP_alt, PC_ret)

LABEL(getline)
  INC(SP, 1)
  STORE(PC_ret, 0, FP)
  __eval("hera.getline_preamble()")  // R1 = line length + 1
  MOVE(FP_alt, SP)
  CALL(FP_alt, malloc)
  __eval("hera.getline_epilogue()")  // writes the line at R1
  LOAD(PC_ret, 0, FP)
  DEC(SP, 1)
  RETURN(FP_alt, PC_ret)

LABEL(exit)
  HALT()

// malloc(R1 = n cells): R1 = address. Bump allocation; the next-free
// pointer lives in the heap's first cell. Scratch in R9, R10 and Rt
// only, so no registers are saved.
LABEL(malloc)
  SET(Rt, first_space_for_fsheap)
  LOAD(R10, 0, Rt)
  FLAGS(R10)
  BNZR(fsheap_initialized)
  MOVE(R10, Rt)
  INC(R10, 1)
LABEL(fsheap_initialized)
  MOVE(R9, R10)
  ADD(R10, R10, R1)
  BC(malloc_failed)
  SET(Rt, last_space_for_fsheap)
  CMP(R10, Rt)
  BC(malloc_failed)
  SET(Rt, first_space_for_fsheap)
  STORE(R10, 0, Rt)
  MOVE(R1, R9)
  RETURN(FP_alt, PC_ret)

LABEL(malloc_failed)
  SET(R1, malloc_out_of_memory_error)
  CALL(FP_alt, print)
  CALL(FP_alt, exit)
`

const tigerStdlibRegData = `
// Tiger standard library data segment, register calling convention.

CONSTANT(first_space_for_fsheap, 0x4000)
CONSTANT(last_space_for_fsheap, 0xbfff)

DLABEL(tiger_stdlib_endl)
LP_STRING("\n")
DLABEL(malloc_out_of_memory_error)
LP_STRING("malloc failed: out of memory\n")
`
