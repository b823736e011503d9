// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gaze turns a stream of head orientation samples into a bounded
// cursor offset and an item selection.
//
// Per sample the controller runs one synchronous pass:
//
//	SmoothingBuffer -> PositionMapper -> SelectionEngine (-> UI) -> debug Renderer
//
// The only deferred work is the idle re-centering task and the optional dwell
// confirmation, both scheduled through a Scheduler.
package gaze

import (
	"math"
	"time"
)

// Axis is the screen axis the cursor moves along.
type Axis int

const (
	Vertical Axis = iota
	Horizontal
)

// ParseAxis maps "vertical"/"horizontal"; anything else is Vertical.
func ParseAxis(s string) Axis {
	if s == "horizontal" {
		return Horizontal
	}
	return Vertical
}

func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Point is a screen position in pixels.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Offset moves p by d pixels along axis a.
func (p Point) Offset(a Axis, d float64) Point {
	if a == Horizontal {
		return Point{X: p.X + d, Y: p.Y}
	}
	return Point{X: p.X, Y: p.Y + d}
}

// Dist is the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Settings are fixed for the lifetime of a controller.
type Settings struct {
	Factor          float64 // px per unit of orientation, sign picks the direction
	IdleDelay       time.Duration
	BufferLength    int
	IterationLimit  int     // recompute the average once the counter exceeds this
	NoiseThreshold  float64 // px
	InnerLimit      float64 // px
	OuterLimit      float64 // px
	Alpha           float64 // low-pass factor toward the target
	AutoSelect      bool
	DrawMotion      bool
	ConfirmDuration time.Duration
	Axis            Axis
	QuaternionIndex int
	ScreenCenter    Point
}

// DefaultSettings returns the values the headset UI was tuned with, centred
// on a 1920x1080 viewport.
func DefaultSettings() Settings {
	return Settings{
		Factor:          -5000,
		IdleDelay:       4000 * time.Millisecond,
		BufferLength:    10,
		IterationLimit:  5,
		NoiseThreshold:  30,
		InnerLimit:      50,
		OuterLimit:      400,
		Alpha:           0.1,
		AutoSelect:      false,
		DrawMotion:      true,
		ConfirmDuration: 2 * time.Second,
		Axis:            Vertical,
		QuaternionIndex: 1,
		ScreenCenter:    Point{X: 960, Y: 540},
	}
}
