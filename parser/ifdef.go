// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parser

import (
	"regexp"
	"strings"
)

// The only symbol this toolchain defines for conditional compilation.
// The name is kept for compatibility with existing HERA sources that
// gate interpreter-specific code on it.
const predefinedSymbol = "HERA_PY"

var ifdefPattern = regexp.MustCompile(
	`(?m)(^\s*#ifdef\s+[A-Za-z_][A-Za-z0-9_]*\s*$)|(^\s*#ifndef\s+[A-Za-z_][A-Za-z0-9_]*\s*$)|(^\s*#else\s*$)|(^\s*#endif\s*$)`)

// evaluateIfdefs strips #ifdef/#ifndef/#else/#endif blocks from the
// text. Discarded blocks may contain text that is not valid HERA
// (typically C++), so stripping happens before lexing.
func evaluateIfdefs(text string) string {
	var b strings.Builder
	startingAt := 0
	// A stack of booleans: are we keeping text in the current block?
	keeping := []bool{true}

	for _, mo := range ifdefPattern.FindAllStringSubmatchIndex(text, -1) {
		if keeping[len(keeping)-1] {
			b.WriteString(text[startingAt:mo[0]])
		}

		directive := text[mo[0]:mo[1]]
		fields := strings.Fields(directive)
		switch fields[0] {
		case "#ifdef":
			keeping = append(keeping, fields[len(fields)-1] == predefinedSymbol)
		case "#ifndef":
			keeping = append(keeping, fields[len(fields)-1] != predefinedSymbol)
		case "#else":
			if len(keeping) > 1 {
				keeping[len(keeping)-1] = !keeping[len(keeping)-1]
			}
		case "#endif":
			if len(keeping) > 1 {
				keeping = keeping[:len(keeping)-1]
			}
		}

		if keeping[len(keeping)-1] {
			startingAt = mo[1]
		}
	}
	b.WriteString(text[startingAt:])
	return b.String()
}
