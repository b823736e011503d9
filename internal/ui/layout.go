// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ui is the item side of the gaze controller: the selectable items,
// the board that tracks focus and confirmation, and the debug log panel.
package ui

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/gaze_selector/internal/gaze"
)

var ErrInvalidLayout = errors.New("ui: invalid layout")

// Viewport is the screen the items live on.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Center is the point the cursor offset is measured from.
func (v Viewport) Center() gaze.Point {
	return gaze.Point{X: float64(v.Width) / 2, Y: float64(v.Height) / 2}
}

// ItemSpec is one entry of the layout file. An item is placed either at an
// absolute X/Y or at Offset pixels from the centre along the tracked axis.
type ItemSpec struct {
	ID     string   `yaml:"id"`
	Label  string   `yaml:"label,omitempty"`
	X      *float64 `yaml:"x,omitempty"`
	Y      *float64 `yaml:"y,omitempty"`
	Offset *float64 `yaml:"offset,omitempty"`
}

// Layout describes the selectable items.
//
//	viewport: {width: 1920, height: 1080}
//	axis: vertical
//	items:
//	  - {id: yes, label: "Yes", offset: -150}
//	  - {id: no, label: "No", x: 960, y: 690}
type Layout struct {
	Viewport Viewport   `yaml:"viewport"`
	Axis     string     `yaml:"axis,omitempty"`
	Items    []ItemSpec `yaml:"items"`
}

// DefaultLayout is a full HD screen with three items stacked vertically.
func DefaultLayout() Layout {
	off := func(v float64) *float64 { return &v }
	return Layout{
		Viewport: Viewport{Width: 1920, Height: 1080},
		Axis:     "vertical",
		Items: []ItemSpec{
			{ID: "up", Label: "Up", Offset: off(-200)},
			{ID: "middle", Label: "Middle", Offset: off(0)},
			{ID: "down", Label: "Down", Offset: off(200)},
		},
	}
}

// LoadLayout reads a YAML layout file.
func LoadLayout(path string) (Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return Layout{}, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()

	l, err := ParseLayout(f)
	if err != nil {
		return Layout{}, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// ParseLayout decodes and validates a layout.
func ParseLayout(r io.Reader) (Layout, error) {
	var l Layout
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil && !errors.Is(err, io.EOF) {
		return Layout{}, fmt.Errorf("decode: %w", err)
	}
	if err := l.validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

func (l Layout) validate() error {
	if l.Viewport.Width <= 0 || l.Viewport.Height <= 0 {
		return fmt.Errorf("%w: viewport must be positive, got %dx%d", ErrInvalidLayout, l.Viewport.Width, l.Viewport.Height)
	}
	switch l.Axis {
	case "", "vertical", "horizontal":
	default:
		return fmt.Errorf("%w: unknown axis %q", ErrInvalidLayout, l.Axis)
	}

	seen := make(map[string]bool, len(l.Items))
	for i, it := range l.Items {
		if it.ID == "" {
			return fmt.Errorf("%w: item %d has no id", ErrInvalidLayout, i)
		}
		if seen[it.ID] {
			return fmt.Errorf("%w: duplicate item id %q", ErrInvalidLayout, it.ID)
		}
		seen[it.ID] = true

		absolute := it.X != nil || it.Y != nil
		if absolute && it.Offset != nil {
			return fmt.Errorf("%w: item %q sets both x/y and offset", ErrInvalidLayout, it.ID)
		}
		if !absolute && it.Offset == nil {
			return fmt.Errorf("%w: item %q needs x/y or offset", ErrInvalidLayout, it.ID)
		}
	}
	return nil
}

// TrackedAxis is the layout axis, vertical when unset.
func (l Layout) TrackedAxis() gaze.Axis {
	return gaze.ParseAxis(l.Axis)
}

// Resolve turns the layout into anchored items. A missing X or Y on an
// absolute item falls back to the centre coordinate.
func (l Layout) Resolve() []gaze.Item {
	center := l.Viewport.Center()
	axis := l.TrackedAxis()

	items := make([]gaze.Item, 0, len(l.Items))
	for _, it := range l.Items {
		anchor := center
		if it.Offset != nil {
			anchor = center.Offset(axis, *it.Offset)
		} else {
			if it.X != nil {
				anchor.X = *it.X
			}
			if it.Y != nil {
				anchor.Y = *it.Y
			}
		}
		items = append(items, gaze.Item{ID: it.ID, Label: it.Label, Anchor: anchor})
	}
	return items
}
