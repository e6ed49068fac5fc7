// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToU16(t *testing.T) {
	v, err := ToU16(-1)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xFFFF), v)

	v, err = ToU16(65535)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xFFFF), v)

	_, err = ToU16(65536)
	assert.Error(t, err)
	_, err = ToU16(-32769)
	assert.Error(t, err)
}

func TestFromU16(t *testing.T) {
	assert.Equal(t, -1, FromU16(0xFFFF))
	assert.Equal(t, -32768, FromU16(0x8000))
	assert.Equal(t, 32767, FromU16(0x7FFF))
	assert.Equal(t, 0, FromU16(0))
}

func TestRegisterIndex(t *testing.T) {
	cases := map[string]int{
		"R0": 0, "r9": 9, "R15": 15,
		"Rt": 11, "FP_alt": 12, "PC_ret": 13, "FP": 14, "SP": 15,
		"sp": 15, "rt": 11,
	}
	for name, want := range cases {
		got, err := RegisterIndex(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	for _, bad := range []string{"R16", "PC", "x", "R-1", "R1_INIT"} {
		_, err := RegisterIndex(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "0x002a = 42 = '*'", FormatInt(42, "xdsc"))
	assert.Equal(t, "0xffff = 65535 = -1", FormatInt(0xFFFF, "xds"))
	assert.Equal(t, "0b0000000000000111", FormatInt(7, "b"))
	assert.Equal(t, "0o00000017", FormatInt(15, "o"))
	assert.Equal(t, "not a signed integer", FormatInt(7, "S"))
	assert.Equal(t, "", FormatInt(7, "s"))
}

func TestMessagesOrderAndOnce(t *testing.T) {
	var m Messages
	m.Warn("w1", nil)
	m.Err("e1", nil)
	m.WarnOnce("cat", "once", nil)
	m.WarnOnce("cat", "twice", nil)
	assert.Len(t, m.List, 3)
	assert.True(t, m.HasErrors())
	assert.Equal(t, 2, m.WarningCount())

	var other Messages
	other.WarnOnce("cat", "thrice", nil)
	m.Extend(other)
	// Extend preserves order and merges once-categories.
	assert.Equal(t, []string{"w1", "e1", "once", "thrice"}, texts(m))
	m.WarnOnce("cat", "again", nil)
	assert.Len(t, m.List, 4)
}

func texts(m Messages) []string {
	out := make([]string, len(m.List))
	for i, msg := range m.List {
		out[i] = msg.Text
	}
	return out
}
