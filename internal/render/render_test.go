package render

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/gaze_selector/internal/gaze"
)

func testFrame(pos float64) gaze.Frame {
	return gaze.Frame{
		Position:   pos,
		InnerLimit: 20,
		OuterLimit: 80,
		Center:     gaze.Point{X: 100, Y: 100},
		Axis:       gaze.Vertical,
	}
}

func TestCanvas_Draw(t *testing.T) {
	c := NewCanvas(200, 200)
	_, drawn := c.Last()
	assert.False(t, drawn)

	c.Draw(testFrame(40))
	img := c.Snapshot()

	assert.Equal(t, uint8(153), img.RGBAAt(100, 140).A, "cursor point")
	assert.Equal(t, uint8(153), img.RGBAAt(100, 120).A, "line to cursor")
	assert.Equal(t, uint8(153), img.RGBAAt(120, 100).A, "inner circle")
	assert.Equal(t, uint8(153), img.RGBAAt(180, 100).A, "outer circle")
	assert.Zero(t, img.RGBAAt(150, 150).A)
	assert.Zero(t, img.RGBAAt(100, 110).G, "magenta has no green")

	var text bool
	for y := 0; y < 20 && !text; y++ {
		for x := 0; x < 200; x++ {
			if img.RGBAAt(x, y).A > 0 {
				text = true
				break
			}
		}
	}
	assert.True(t, text, "readout drawn")

	// next frame starts from a clear surface
	c.Draw(testFrame(-40))
	img = c.Snapshot()
	assert.Zero(t, img.RGBAAt(100, 140).A)
	assert.Equal(t, uint8(153), img.RGBAAt(100, 60).A)

	last, drawn := c.Last()
	assert.True(t, drawn)
	assert.Equal(t, -40.0, last.Position)
}

func TestCanvas_Horizontal(t *testing.T) {
	c := NewCanvas(200, 200)
	f := testFrame(-50)
	f.Axis = gaze.Horizontal
	c.Draw(f)

	assert.Equal(t, uint8(153), c.Snapshot().RGBAAt(50, 100).A)
}

func TestCanvas_WritePNG(t *testing.T) {
	c := NewCanvas(64, 48)
	c.Draw(gaze.Frame{Position: 5, InnerLimit: 5, OuterLimit: 20, Center: gaze.Point{X: 32, Y: 24}})

	var buf bytes.Buffer
	require.NoError(t, c.WritePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
}

func TestCanvas_SnapshotIsCopy(t *testing.T) {
	c := NewCanvas(10, 10)
	snap := c.Snapshot()
	snap.Pix[0] = 255
	assert.Zero(t, c.Snapshot().Pix[0])
}

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func runeAt(s tcell.Screen, x, y int) rune {
	r, _, _, _ := s.GetContent(x, y)
	return r
}

func TestTerminal_Draw(t *testing.T) {
	s := newSimScreen(t, 41, 8)
	term := NewTerminal(s)
	term.SetInfo(func() string { return "focused: yes" })

	f := testFrame(0)
	f.InnerLimit, f.OuterLimit = 50, 400
	f.Position = 200
	term.Draw(f)

	assert.Equal(t, '[', runeAt(s, 0, rowTrack))
	assert.Equal(t, ']', runeAt(s, 40, rowTrack))
	assert.Equal(t, '|', runeAt(s, 18, rowTrack))
	assert.Equal(t, '|', runeAt(s, 23, rowTrack))
	assert.Equal(t, '+', runeAt(s, 20, rowTrack))
	assert.Equal(t, '█', runeAt(s, 30, rowTrack))
	assert.Equal(t, '-', runeAt(s, 10, rowTrack))
	assert.Equal(t, 'g', runeAt(s, 0, rowStatus))
	assert.Equal(t, 'f', runeAt(s, 0, rowInfo))

	// the previous cursor is cleared and out-of-range offsets pin to the edge
	f.Position = 1000
	term.Draw(f)
	assert.Equal(t, '-', runeAt(s, 30, rowTrack))
	assert.Equal(t, '█', runeAt(s, 40, rowTrack))
}

func TestTrackColumn(t *testing.T) {
	assert.Equal(t, 0, trackColumn(-400, 400, 81))
	assert.Equal(t, 40, trackColumn(0, 400, 81))
	assert.Equal(t, 80, trackColumn(400, 400, 81))
	assert.Equal(t, 80, trackColumn(9000, 400, 81))
	assert.Equal(t, 40, trackColumn(10, 0, 81))
}

type fakePanel struct {
	err   error
	draws int
}

func (p *fakePanel) Bounds() image.Rectangle { return image.Rect(0, 0, 128, 64) }

func (p *fakePanel) Draw(image.Rectangle, image.Image, image.Point) error {
	p.draws++
	return p.err
}

func TestOLED_Draw(t *testing.T) {
	p := &fakePanel{}
	o := NewOLED(p)

	f := testFrame(0)
	f.InnerLimit, f.OuterLimit = 50, 400
	o.Draw(f)

	assert.Equal(t, 1, p.draws)
	img := o.Image()
	assert.Equal(t, image1bit.On, img.At(64, 25), "cursor at the centre")
	assert.Equal(t, image1bit.Off, img.At(64, 10))

	f.Position = -400
	o.Draw(f)
	img = o.Image()
	assert.Equal(t, image1bit.On, img.At(64, 1), "cursor at the outer limit")
	assert.Equal(t, image1bit.On, img.At(64, 10), "line to cursor")
}

func TestOLED_PanelErrorIsSwallowed(t *testing.T) {
	p := &fakePanel{err: errors.New("i2c: nack")}
	o := NewOLED(p)

	assert.NotPanics(t, func() {
		o.Draw(testFrame(10))
		o.Draw(testFrame(20))
	})
	assert.Equal(t, 2, p.draws)
	assert.Equal(t, 2, o.fails)
}

type countingRenderer struct{ n int }

func (r *countingRenderer) Draw(gaze.Frame) { r.n++ }

type brokenRenderer struct{}

func (brokenRenderer) Draw(gaze.Frame) { panic("surface gone") }

func TestMulti(t *testing.T) {
	a, b := &countingRenderer{}, &countingRenderer{}
	m := Multi{a, brokenRenderer{}, nil, b}

	assert.NotPanics(t, func() { m.Draw(testFrame(0)) })
	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, b.n)
}
