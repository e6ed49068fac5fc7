// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package op

import (
	"errors"
	"strings"

	"github.com/herasm/hera/data"
)

// ErrNotAnInstruction is returned when a 16-bit word matches no
// encoding pattern.
var ErrNotAnInstruction = errors.New("bit pattern does not correspond to HERA instruction")

// encodeBits substitutes args into pattern to produce a machine word.
// Letters in the pattern consume bits from the corresponding argument
// starting with its least significant bit at the pattern's rightmost
// occurrence, so split fields (LOAD's offset) come out right.
func encodeBits(pattern string, args []int) uint16 {
	p := strings.ReplaceAll(pattern, " ", "")
	vals := append([]int(nil), args...)
	var word uint16
	for i := len(p) - 1; i >= 0; i-- {
		shift := uint(len(p) - 1 - i)
		var bit int
		switch c := p[i]; c {
		case '0':
			bit = 0
		case '1':
			bit = 1
		default:
			idx := letterIndex(c)
			if idx < len(vals) {
				bit = vals[idx] & 1
				vals[idx] >>= 1
			}
		}
		word |= uint16(bit) << shift
	}
	return word
}

// A field is one argument extracted from a machine word.
type field struct {
	register bool
	value    int
}

// matchBits matches word against pattern, extracting argument fields.
// Uppercase letters mark register fields, lowercase integer fields.
func matchBits(pattern string, word uint16) ([]field, bool) {
	p := strings.ReplaceAll(pattern, " ", "")
	var fields []field
	grow := func(idx int) {
		for idx >= len(fields) {
			fields = append(fields, field{})
		}
	}
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c >= 'A' && c <= 'Z' {
			idx := letterIndex(c)
			grow(idx)
			fields[idx].register = true
		} else if c >= 'a' && c <= 'z' {
			grow(letterIndex(c))
		}
	}
	for i := 0; i < len(p); i++ {
		bit := int(word>>uint(len(p)-1-i)) & 1
		switch c := p[i]; c {
		case '0':
			if bit != 0 {
				return nil, false
			}
		case '1':
			if bit != 1 {
				return nil, false
			}
		default:
			idx := letterIndex(c)
			fields[idx].value = fields[idx].value<<1 | bit
		}
	}
	return fields, true
}

func letterIndex(c byte) int {
	if c >= 'A' && c <= 'Z' {
		return int(c - 'A')
	}
	return int(c - 'a')
}

// Encode produces the 16-bit machine word for a real operation.
func Encode(o *Op) (uint16, error) {
	d := o.Desc()
	if d == nil || d.Bits == "" {
		return 0, ErrNotAnInstruction
	}
	args := make([]int, len(o.Args))
	for i, a := range o.Args {
		args[i] = a.Val
	}
	if d.encodeArgs != nil {
		args = d.encodeArgs(args)
	}
	return encodeBits(d.Bits, args), nil
}

// Disassemble decodes a machine word into an operation. Words that
// match no pattern return ErrNotAnInstruction.
func Disassemble(word uint16) (*Op, error) {
	for _, d := range table {
		if d.Bits == "" {
			continue
		}
		fields, ok := matchBits(d.Bits, word)
		if !ok {
			continue
		}
		args := make([]int, len(fields))
		for i, f := range fields {
			args[i] = f.value
		}
		if d.decodeArgs != nil {
			args = d.decodeArgs(args)
		}
		o := &Op{Name: d.Name}
		for i, f := range fields {
			v := args[i]
			if f.register {
				o.Args = append(o.Args, data.R(v))
			} else {
				if d.signedImm && v > 127 {
					v -= 256
				}
				o.Args = append(o.Args, data.Int(v))
			}
		}
		return o, nil
	}
	return nil, ErrNotAnInstruction
}
