// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"fmt"
	"image"
	"log"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gaze_selector/internal/gaze"
)

// Panel is the part of a display driver the OLED renderer needs.
// *ssd1306.Dev satisfies it.
type Panel interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// OLED renders a scaled-down overlay on a 1-bit panel: circles and cursor in
// the top area, a text readout on the last line.
type OLED struct {
	mu    sync.Mutex
	panel Panel
	img   *image1bit.VerticalLSB
	fails int
}

func NewOLED(p Panel) *OLED {
	return &OLED{panel: p, img: image1bit.NewVerticalLSB(p.Bounds())}
}

// OpenOLED initialises periph and opens an SSD1306 on the named I2C bus
// ("" picks the first one). The returned closer releases the bus.
func OpenOLED(bus string) (*OLED, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	b, err := i2creg.Open(bus)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(b, &ssd1306.DefaultOpts)
	if err != nil {
		b.Close()
		return nil, nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: ssd1306 initialized on %q", bus)

	return NewOLED(dev), b.Close, nil
}

func (o *OLED) Draw(f gaze.Frame) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i := range o.img.Pix {
		o.img.Pix[i] = 0
	}

	b := o.img.Bounds()
	// the text line takes the bottom 13 px
	area := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y-13)
	center := image.Pt((area.Min.X+area.Max.X)/2, (area.Min.Y+area.Max.Y)/2)
	radius := math.Min(float64(area.Dx()), float64(area.Dy())) / 2
	scale := 1.0
	if f.OuterLimit > 0 {
		scale = (radius - 1) / f.OuterLimit
	}

	strokeCircle(o.img, center, int(math.Round(f.InnerLimit*scale)), image1bit.On)
	strokeCircle(o.img, center, int(math.Round(f.OuterLimit*scale)), image1bit.On)

	p := pt(gaze.Point{X: float64(center.X), Y: float64(center.Y)}.Offset(f.Axis, f.Position*scale))
	line(o.img, center, p, image1bit.On)
	fillCircle(o.img, p, 2, image1bit.On)

	d := &font.Drawer{
		Dst:  o.img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(0, b.Max.Y-2),
	}
	d.DrawString(fmt.Sprintf("P:%+6.1f", f.Position))

	if err := o.panel.Draw(o.panel.Bounds(), o.img, image.Point{}); err != nil {
		// only report the first failure of a run
		if o.fails == 0 {
			log.Printf("display: draw error: %v", err)
		}
		o.fails++
		return
	}
	o.fails = 0
}

// Image returns the last rendered frame.
func (o *OLED) Image() *image1bit.VerticalLSB {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := image1bit.NewVerticalLSB(o.img.Bounds())
	copy(out.Pix, o.img.Pix)
	return out
}
