package ui

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugLog_NewestFirst(t *testing.T) {
	d := NewDebugLog(3, false)
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	d.Debug(0.125)
	d.Debug("no motion sensor detected")
	d.Debug(errors.New("boom"))
	d.Debug(42)

	entries := d.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "42", entries[0].Text)
	assert.Equal(t, "boom", entries[1].Text)
	assert.Equal(t, "no motion sensor detected", entries[2].Text)
	assert.True(t, entries[0].Time.After(entries[1].Time))
	assert.Equal(t, 3, d.Len())
}

func TestDebugLog_FloatFormatting(t *testing.T) {
	d := NewDebugLog(10, false)
	d.Debug(-0.0321)
	assert.Equal(t, "-0.0321", d.Entries()[0].Text)
}

func TestDebugLog_MinimumSize(t *testing.T) {
	d := NewDebugLog(0, false)
	d.Debug("a")
	d.Debug("b")
	assert.Equal(t, []string{"b"}, texts(d.Entries()))
}

func TestDebugLog_EchoesDiagnosticsOnly(t *testing.T) {
	d := NewDebugLog(10, true)
	var echoed []string
	d.logf = func(format string, args ...any) {
		echoed = append(echoed, fmt.Sprintf(format, args...))
	}

	d.Debug(0.125)
	d.Debug("No permissions to use RelativeOrientationSensor.")
	d.Debug(errors.New("boom"))

	assert.Equal(t, []string{
		"debug: No permissions to use RelativeOrientationSensor.",
		"debug: boom",
	}, echoed)
	assert.Equal(t, 3, d.Len())

	quiet := NewDebugLog(10, false)
	quiet.logf = func(string, ...any) { t.Fatal("echo disabled") }
	quiet.Debug("no motion sensor detected")
}

func texts(entries []LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}
