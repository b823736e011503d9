// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ui

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/gaze_selector/internal/gaze"
)

// EventType names what happened on the board.
type EventType string

const (
	EventFocus        EventType = "focus"
	EventDeselectAll  EventType = "deselect_all"
	EventConfirmStart EventType = "confirm_start"
	EventConfirm      EventType = "confirm"
)

// Event is broadcast to every sink when the board changes.
type Event struct {
	ID       uuid.UUID     `json:"id"`
	Type     EventType     `json:"type"`
	ItemID   string        `json:"item_id,omitempty"`
	Label    string        `json:"label,omitempty"`
	Duration time.Duration `json:"duration_ns,omitempty"`
	Time     time.Time     `json:"time"`
}

// EventSink receives board events. Publish must not block for long; it is
// called on the sample path.
type EventSink interface {
	Publish(ev Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

// BoardState is a snapshot for the HTTP API.
type BoardState struct {
	Items      []gaze.Item `json:"items"`
	Focused    string      `json:"focused,omitempty"`
	Confirming string      `json:"confirming,omitempty"`
	Confirmed  []string    `json:"confirmed,omitempty"`
}

// Board holds the selectable items and their focus state. It implements
// gaze.UI and gaze.Confirmer.
type Board struct {
	mu sync.Mutex

	items      []gaze.Item
	focused    string
	confirming string
	confirmed  []string
	sinks      []EventSink

	now   func() time.Time
	newID func() uuid.UUID
}

var (
	_ gaze.UI        = (*Board)(nil)
	_ gaze.Confirmer = (*Board)(nil)
)

// NewBoard returns a board over items with nothing focused.
func NewBoard(items []gaze.Item, sinks ...EventSink) *Board {
	return &Board{
		items: append([]gaze.Item(nil), items...),
		sinks: sinks,
		now:   time.Now,
		newID: uuid.New,
	}
}

// AddSink registers another event receiver.
func (b *Board) AddSink(s EventSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Items returns a copy of the items.
func (b *Board) Items() []gaze.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]gaze.Item(nil), b.items...)
}

func (b *Board) Focus(item gaze.Item) {
	b.mu.Lock()
	if b.confirming != item.ID {
		b.confirming = ""
	}
	b.focused = item.ID
	ev := b.event(EventFocus, item, 0)
	sinks := b.sinks
	b.mu.Unlock()

	publish(sinks, ev)
}

// DeselectAll clears focus. Only the transition is broadcast: the engine
// calls this on every tick the cursor sits in the dead zone.
func (b *Board) DeselectAll() {
	b.mu.Lock()
	if b.focused == "" && b.confirming == "" {
		b.mu.Unlock()
		return
	}
	b.focused = ""
	b.confirming = ""
	ev := b.event(EventDeselectAll, gaze.Item{}, 0)
	sinks := b.sinks
	b.mu.Unlock()

	publish(sinks, ev)
}

func (b *Board) StartConfirmAnimation(item gaze.Item, d time.Duration) {
	b.mu.Lock()
	b.confirming = item.ID
	ev := b.event(EventConfirmStart, item, d)
	sinks := b.sinks
	b.mu.Unlock()

	publish(sinks, ev)
}

// Confirm records a completed dwell.
func (b *Board) Confirm(item gaze.Item) {
	b.mu.Lock()
	b.confirming = ""
	b.confirmed = append(b.confirmed, item.ID)
	ev := b.event(EventConfirm, item, 0)
	sinks := b.sinks
	b.mu.Unlock()

	log.Printf("board: confirmed %q", item.ID)
	publish(sinks, ev)
}

// Focused returns the focused item id, empty when none.
func (b *Board) Focused() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.focused
}

// State returns a snapshot of the board.
func (b *Board) State() BoardState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BoardState{
		Items:      append([]gaze.Item(nil), b.items...),
		Focused:    b.focused,
		Confirming: b.confirming,
		Confirmed:  append([]string(nil), b.confirmed...),
	}
}

func (b *Board) event(t EventType, item gaze.Item, d time.Duration) Event {
	return Event{
		ID:       b.newID(),
		Type:     t,
		ItemID:   item.ID,
		Label:    item.Label,
		Duration: d,
		Time:     b.now(),
	}
}

func publish(sinks []EventSink, ev Event) {
	for _, s := range sinks {
		s.Publish(ev)
	}
}
