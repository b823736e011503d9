// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/gaze_selector/internal/gaze"
)

// Canvas is a transparent overlay the size of the viewport. Each Draw clears
// it and paints the current frame.
type Canvas struct {
	mu    sync.RWMutex
	img   *image.RGBA
	last  gaze.Frame
	drawn bool
}

func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (c *Canvas) Draw(f gaze.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	draw.Draw(c.img, c.img.Bounds(), image.Transparent, image.Point{}, draw.Src)

	center := pt(f.Center)
	strokeCircle(c.img, center, int(f.InnerLimit), Magenta)
	strokeCircle(c.img, center, int(f.OuterLimit), Magenta)

	p := pt(cursor(f))
	line(c.img, center, p, Magenta)
	fillCircle(c.img, p, PointSize/2, Magenta)

	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(Magenta),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(8, 16),
	}
	d.DrawString(fmt.Sprintf("pos %+7.1f  inner %.0f  outer %.0f  %s", f.Position, f.InnerLimit, f.OuterLimit, f.Axis))

	c.last = f
	c.drawn = true
}

// Last returns the most recent frame and whether anything was drawn yet.
func (c *Canvas) Last() (gaze.Frame, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.drawn
}

// Snapshot copies the current overlay.
func (c *Canvas) Snapshot() *image.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := image.NewRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out
}

// WritePNG encodes the current overlay.
func (c *Canvas) WritePNG(w io.Writer) error {
	if err := png.Encode(w, c.Snapshot()); err != nil {
		return fmt.Errorf("encode debug png: %w", err)
	}
	return nil
}
