// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package render draws the gaze debug overlay: the dead zone and outer limit
// around the screen centre, a line to the cursor and the cursor point.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"

	"github.com/relabs-tech/gaze_selector/internal/gaze"
)

// PointSize is the cursor diameter in pixels.
const PointSize = 10

// Magenta at 60% alpha.
var Magenta = color.NRGBA{R: 255, G: 0, B: 255, A: 153}

// Multi fans a frame out to several renderers. A failing renderer does not
// keep the others from drawing.
type Multi []gaze.Renderer

func (m Multi) Draw(f gaze.Frame) {
	for _, r := range m {
		if r == nil {
			continue
		}
		drawSafe(r, f)
	}
}

func drawSafe(r gaze.Renderer, f gaze.Frame) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("render: %T panic: %v", r, rec)
		}
	}()
	r.Draw(f)
}

// cursor returns the cursor point in frame coordinates.
func cursor(f gaze.Frame) gaze.Point {
	return f.Center.Offset(f.Axis, f.Position)
}

func pt(p gaze.Point) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// strokeCircle draws a one pixel outline (midpoint algorithm).
func strokeCircle(dst draw.Image, c image.Point, r int, col color.Color) {
	if r <= 0 {
		dst.Set(c.X, c.Y, col)
		return
	}
	x, y, e := r, 0, 1-r
	for x >= y {
		for _, d := range [...]image.Point{
			{x, y}, {y, x}, {-y, x}, {-x, y},
			{-x, -y}, {-y, -x}, {y, -x}, {x, -y},
		} {
			dst.Set(c.X+d.X, c.Y+d.Y, col)
		}
		y++
		if e < 0 {
			e += 2*y + 1
		} else {
			x--
			e += 2*(y-x) + 1
		}
	}
}

func fillCircle(dst draw.Image, c image.Point, r int, col color.Color) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				dst.Set(c.X+dx, c.Y+dy, col)
			}
		}
	}
}

// line is Bresenham between a and b inclusive.
func line(dst draw.Image, a, b image.Point, col color.Color) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		dst.Set(x, y, col)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
