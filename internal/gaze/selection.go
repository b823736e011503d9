// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gaze

import (
	"math"
	"time"
)

// Item is a selectable element with its on-screen anchor.
type Item struct {
	ID     string `json:"id"`
	Label  string `json:"label,omitempty"`
	Anchor Point  `json:"anchor"`
}

// UI is the consumed side of the item collection.
type UI interface {
	Items() []Item
	Focus(item Item)
	DeselectAll()
	StartConfirmAnimation(item Item, d time.Duration)
}

// Confirmer is implemented by UIs that want a call when a dwell completes.
type Confirmer interface {
	Confirm(item Item)
}

// Decision is what the engine did on a tick.
type Decision int

const (
	DecisionNone Decision = iota
	DecisionDeselect
	DecisionFocus
	DecisionMove // movement consumed, but there was no item to focus
)

func (d Decision) String() string {
	switch d {
	case DecisionDeselect:
		return "deselect"
	case DecisionFocus:
		return "focus"
	case DecisionMove:
		return "move"
	default:
		return "none"
	}
}

// MovementMagnitude is how far, in pixels, the smoothed signal moved since the
// engine last consumed it.
func MovementMagnitude(previous, current, factor float64) float64 {
	return math.Abs((previous - current) * factor)
}

// ClosestItem returns the index of the item whose anchor is nearest to p.
// Ties keep the first item. It returns -1 for an empty slice.
func ClosestItem(items []Item, p Point) int {
	best, bestDist := -1, math.Inf(1)
	for i, it := range items {
		if d := it.Anchor.Dist(p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// SelectionEngine decides focus from the cursor offset and movement.
type SelectionEngine struct {
	settings Settings
	ui       UI

	focused    Item
	hasFocused bool

	idle  *debouncer
	dwell *debouncer

	// recenter runs when the idle task fires.
	recenter func()
}

func newSelectionEngine(s Settings, ui UI, sched Scheduler, run func(func()), recenter func()) *SelectionEngine {
	return &SelectionEngine{
		settings: s,
		ui:       ui,
		idle:     newDebouncer(sched, run),
		dwell:    newDebouncer(sched, run),
		recenter: recenter,
	}
}

// Evaluate runs the decision rule for one tick.
func (e *SelectionEngine) Evaluate(position float64, buf *SmoothingBuffer) Decision {
	s := e.settings
	dist := math.Abs(position)

	if !(dist > s.InnerLimit && dist < s.OuterLimit) {
		e.deselect()
		return DecisionDeselect
	}

	movement := MovementMagnitude(buf.Previous(), buf.Average(), s.Factor)
	if movement <= s.NoiseThreshold {
		return DecisionNone
	}

	item, ok := e.focusClosest(position)
	buf.Commit()

	if ok && s.AutoSelect {
		e.ui.StartConfirmAnimation(item, s.ConfirmDuration)
		if c, isConfirmer := e.ui.(Confirmer); isConfirmer {
			e.dwell.Schedule(s.ConfirmDuration, func() {
				if e.hasFocused && e.focused.ID == item.ID {
					c.Confirm(item)
				}
			})
		}
	}

	e.idle.Schedule(s.IdleDelay, e.recenter)
	if !ok {
		return DecisionMove
	}
	return DecisionFocus
}

func (e *SelectionEngine) focusClosest(position float64) (Item, bool) {
	items := e.ui.Items()
	p := e.settings.ScreenCenter.Offset(e.settings.Axis, position)

	i := ClosestItem(items, p)
	if i < 0 {
		return Item{}, false
	}

	e.focused, e.hasFocused = items[i], true
	e.ui.Focus(items[i])
	return items[i], true
}

func (e *SelectionEngine) deselect() {
	e.dwell.Cancel()
	e.hasFocused = false
	e.focused = Item{}
	e.ui.DeselectAll()
}

// Focused returns the focused item, if any.
func (e *SelectionEngine) Focused() (Item, bool) {
	return e.focused, e.hasFocused
}

// Cancel drops pending idle and dwell tasks.
func (e *SelectionEngine) Cancel() {
	e.idle.Cancel()
	e.dwell.Cancel()
}
