package render

import (
	"image/color"

	"joyled/errcode"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinydraw"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	colorOn  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorOff = color.RGBA{A: 0xff}
)

// Canvas draws monochrome rectangles and text onto a Displayer. Origin is the
// top-left corner; nothing is sent to the panel until Flush.
type Canvas struct {
	d    drivers.Displayer
	clip clipped
	w, h int16
}

func NewCanvas(d drivers.Displayer) *Canvas {
	w, h := d.Size()
	return &Canvas{d: d, clip: clipped{Displayer: d, w: w, h: h}, w: w, h: h}
}

func (c *Canvas) Size() (w, h int16) { return c.w, c.h }

// Clear blanks the frame buffer.
func (c *Canvas) Clear() {
	// ssd1306.Device and the host framebuffer can clear in one call.
	if cb, ok := c.d.(interface{ ClearBuffer() }); ok {
		cb.ClearBuffer()
		return
	}
	_ = tinydraw.FilledRectangle(c.d, 0, 0, c.w, c.h, colorOff)
}

// DrawRect draws a w×h rectangle whose top-left pixel is (x, y). The right
// and bottom edges are at x+w-1 and y+h-1. Pixels off the panel are skipped.
func (c *Canvas) DrawRect(x, y, w, h int16, filled bool) {
	if w <= 0 || h <= 0 {
		return
	}
	if filled {
		_ = tinydraw.FilledRectangle(c.clip, x, y, w, h, colorOn)
		return
	}
	_ = tinydraw.Rectangle(c.clip, x, y, w, h, colorOn)
}

// Text writes one line with the proggy 8pt font; y is the baseline.
func (c *Canvas) Text(x, y int16, s string) {
	tinyfont.WriteLine(c.clip, &proggy.TinySZ8pt7b, x, y, s, colorOn)
}

// Flush pushes the frame buffer to the panel.
func (c *Canvas) Flush() error {
	if err := c.d.Display(); err != nil {
		return errcode.Wrap(errcode.DisplayFailed, "render.flush", err)
	}
	return nil
}

// clipped drops pixels that fall outside the panel.
type clipped struct {
	drivers.Displayer
	w, h int16
}

func (d clipped) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= d.w || y >= d.h {
		return
	}
	d.Displayer.SetPixel(x, y, c)
}
