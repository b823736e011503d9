// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ui

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"
)

// LogEntry is one line of the debug panel.
type LogEntry struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// DebugLog is a bounded panel of diagnostics, most recent first. It
// implements gaze.DebugSink.
type DebugLog struct {
	mu      sync.Mutex
	entries []LogEntry // oldest first, trimmed to size
	size    int
	echo    bool
	now     func() time.Time
	logf    func(format string, args ...any)
}

// NewDebugLog keeps the last size entries. With echo set, text diagnostics
// (strings and errors) are also written to the process log; per-sample
// numbers stay in the panel.
func NewDebugLog(size int, echo bool) *DebugLog {
	if size <= 0 {
		size = 1
	}
	return &DebugLog{size: size, echo: echo, now: time.Now, logf: log.Printf}
}

// Debug prepends a timestamped line built from v.
func (d *DebugLog) Debug(v any) {
	text := format(v)

	d.mu.Lock()
	d.entries = append(d.entries, LogEntry{Time: d.now(), Text: text})
	if over := len(d.entries) - d.size; over > 0 {
		d.entries = append(d.entries[:0], d.entries[over:]...)
	}
	d.mu.Unlock()

	if d.echo && isDiagnostic(v) {
		d.logf("debug: %s", text)
	}
}

// Entries returns the panel contents, newest first.
func (d *DebugLog) Entries() []LogEntry {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]LogEntry, len(d.entries))
	for i, e := range d.entries {
		out[len(d.entries)-1-i] = e
	}
	return out
}

// Len is the number of entries held.
func (d *DebugLog) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

func isDiagnostic(v any) bool {
	switch v.(type) {
	case string, error:
		return true
	}
	return false
}

func format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
