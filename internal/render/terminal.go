// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"fmt"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/relabs-tech/gaze_selector/internal/gaze"
)

// Terminal rows.
const (
	rowStatus = 0
	rowTrack  = 2
	rowLegend = 3
	rowInfo   = 5
)

var (
	trackStyle  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	limitStyle  = tcell.StyleDefault.Foreground(tcell.ColorFuchsia)
	cursorStyle = tcell.StyleDefault.Foreground(tcell.ColorFuchsia).Bold(true)
	textStyle   = tcell.StyleDefault
)

// Terminal draws the cursor on a one-line track spanning the outer limit:
//
//	[--------|----+----|--------█---]
//
// '|' marks the dead zone, '+' the reference and '█' the cursor.
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen
	info   func() string
}

func NewTerminal(s tcell.Screen) *Terminal {
	return &Terminal{screen: s}
}

// SetInfo adds a free-form text line under the track, refreshed every frame.
func (t *Terminal) SetInfo(f func() string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.info = f
}

func (t *Terminal) Draw(f gaze.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.screen
	w, _ := s.Size()
	if w < 3 {
		return
	}
	s.Clear()

	t.text(0, rowStatus, fmt.Sprintf("gaze %s  pos %+7.1f  dead zone ±%.0f  limit ±%.0f",
		f.Axis, f.Position, f.InnerLimit, f.OuterLimit), textStyle)

	col := func(v float64) int { return trackColumn(v, f.OuterLimit, w) }
	for x := 0; x < w; x++ {
		s.SetContent(x, rowTrack, '-', nil, trackStyle)
	}
	s.SetContent(0, rowTrack, '[', nil, limitStyle)
	s.SetContent(w-1, rowTrack, ']', nil, limitStyle)
	s.SetContent(col(-f.InnerLimit), rowTrack, '|', nil, limitStyle)
	s.SetContent(col(f.InnerLimit), rowTrack, '|', nil, limitStyle)
	s.SetContent(col(0), rowTrack, '+', nil, limitStyle)
	s.SetContent(col(f.Position), rowTrack, '█', nil, cursorStyle)

	legend := fmt.Sprintf("%.0f", -f.OuterLimit)
	t.text(0, rowLegend, legend, trackStyle)
	end := fmt.Sprintf("%+.0f", f.OuterLimit)
	t.text(w-len(end), rowLegend, end, trackStyle)

	if t.info != nil {
		t.text(0, rowInfo, t.info(), textStyle)
	}
	s.Show()
}

func (t *Terminal) text(x, y int, str string, style tcell.Style) {
	for _, r := range str {
		t.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// trackColumn maps an offset in [-limit, limit] onto columns [0, width-1].
func trackColumn(v, limit float64, width int) int {
	if limit <= 0 {
		return width / 2
	}
	v = math.Max(-limit, math.Min(limit, v))
	return int(math.Round((v + limit) / (2 * limit) * float64(width-1)))
}
