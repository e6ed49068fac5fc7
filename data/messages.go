// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

// Severity of a diagnostic message.
type Severity int

const (
	SevWarning Severity = iota
	SevError
)

// A Message is a single diagnostic.
type Message struct {
	Sev  Severity
	Text string
	Loc  *Location
}

// Messages accumulates diagnostics in source order. Every pass returns
// a Messages value alongside its normal result so that one pass can
// report many problems without aborting.
type Messages struct {
	List []Message

	once map[string]bool
}

// Err records an error.
func (m *Messages) Err(text string, loc *Location) {
	m.List = append(m.List, Message{SevError, text, loc})
}

// Warn records a warning.
func (m *Messages) Warn(text string, loc *Location) {
	m.List = append(m.List, Message{SevWarning, text, loc})
}

// WarnOnce records a warning only the first time its category is
// seen by this Messages value.
func (m *Messages) WarnOnce(category, text string, loc *Location) {
	if m.once == nil {
		m.once = make(map[string]bool)
	}
	if m.once[category] {
		return
	}
	m.once[category] = true
	m.Warn(text, loc)
}

// Extend appends all of other's messages to m, merging the warn-once
// categories.
func (m *Messages) Extend(other Messages) {
	m.List = append(m.List, other.List...)
	for cat := range other.once {
		if m.once == nil {
			m.once = make(map[string]bool)
		}
		m.once[cat] = true
	}
}

// HasErrors reports whether any recorded message is an error.
func (m *Messages) HasErrors() bool {
	for _, msg := range m.List {
		if msg.Sev == SevError {
			return true
		}
	}
	return false
}

// WarningCount returns the number of recorded warnings.
func (m *Messages) WarningCount() int {
	n := 0
	for _, msg := range m.List {
		if msg.Sev == SevWarning {
			n++
		}
	}
	return n
}
