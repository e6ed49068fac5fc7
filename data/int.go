// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import (
	"fmt"
	"strconv"
	"strings"
)

// ToU16 reinterprets the signed integer n as a 16-bit unsigned value.
// Values in [-2^15, 2^16) are accepted.
func ToU16(n int) (uint16, error) {
	if n >= 1<<16 || n < -(1<<15) {
		return 0, fmt.Errorf("signed integer too large for 16 bits")
	}
	return uint16(n), nil
}

// FromU16 reinterprets a 16-bit unsigned value as a signed integer.
func FromU16(n uint16) int {
	return int(int16(n))
}

// OutOfRange reports whether n cannot be represented as either a
// 16-bit signed or unsigned integer.
func OutOfRange(n int) bool {
	return n < -32768 || n >= 65536
}

// Named register aliases, lowercase.
var namedRegisters = map[string]int{
	"rt":     11,
	"fp_alt": 12,
	"pc_ret": 13,
	"fp":     14,
	"sp":     15,
}

// RegisterIndex resolves a register name (R0..R15 or a named alias,
// case-insensitive) to its index.
func RegisterIndex(name string) (int, error) {
	lower := strings.ToLower(name)
	if i, ok := namedRegisters[lower]; ok {
		return i, nil
	}
	if strings.HasPrefix(lower, "r") {
		if v, err := strconv.Atoi(lower[1:]); err == nil && v >= 0 && v < 16 {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%s is not a valid register", name)
}

// IsRegister reports whether s names a register.
func IsRegister(s string) bool {
	_, err := RegisterIndex(s)
	return err == nil
}

// FormatInt renders v in each of the formats named by spec, joined
// with " = ". Formats: d decimal, x hex, o octal, b binary, c char
// literal, s signed. Lowercase c and s produce output only when
// applicable; uppercase C and S always produce output.
func FormatInt(v uint16, spec string) string {
	var parts []string
	for _, c := range spec {
		switch c {
		case 'd':
			parts = append(parts, strconv.Itoa(int(v)))
		case 'x':
			parts = append(parts, fmt.Sprintf("0x%04x", v))
		case 'o':
			parts = append(parts, fmt.Sprintf("0o%08o", v))
		case 'b':
			parts = append(parts, fmt.Sprintf("0b%016b", v))
		case 'c':
			if v < 128 && strconv.IsPrint(rune(v)) {
				parts = append(parts, fmt.Sprintf("%q", rune(v)))
			}
		case 'C':
			if v < 128 {
				parts = append(parts, fmt.Sprintf("%q", rune(v)))
			} else {
				parts = append(parts, "not an ASCII character")
			}
		case 's':
			if v&0x8000 != 0 {
				parts = append(parts, strconv.Itoa(FromU16(v)))
			}
		case 'S':
			if v&0x8000 != 0 {
				parts = append(parts, strconv.Itoa(FromU16(v)))
			} else {
				parts = append(parts, "not a signed integer")
			}
		}
	}
	return strings.Join(parts, " = ")
}

// DefaultSpec is the format used when the caller does not supply one.
const DefaultSpec = "xdsc"
