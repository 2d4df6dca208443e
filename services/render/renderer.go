package render

import (
	"sync"

	"joyled/types"
	"joyled/x/mathx"
)

// SquareSize is the edge of the position indicator in pixels.
const SquareSize = 8

// PixelFor maps a normalized position onto the top-left corner of the
// indicator. Y is inverted so pushing the stick up moves the square up. Both
// coordinates are clamped to [0, dim-SquareSize].
func PixelFor(p types.NormalizedPosition, w, h int16) types.PixelCoordinate {
	return types.PixelCoordinate{
		X: uint8(mathx.ScaleUnit(p.X, int(w)-SquareSize)),
		Y: uint8(mathx.ScaleUnit(1-p.Y, int(h)-SquareSize)),
	}
}

// Renderer owns the display. Every draw sequence holds mu, so the border
// redraw triggered from the button worker never interleaves with a frame.
type Renderer struct {
	mu sync.Mutex
	c  *Canvas
}

func NewRenderer(c *Canvas) *Renderer { return &Renderer{c: c} }

// Render draws one frame: clear, border, indicator, flush. It returns the
// indicator position.
func (r *Renderer) Render(p types.NormalizedPosition, doubled bool) (types.PixelCoordinate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, h := r.c.Size()
	px := PixelFor(p, w, h)

	r.c.Clear()
	r.border(doubled)
	r.c.DrawRect(int16(px.X), int16(px.Y), SquareSize, SquareSize, true)
	return px, r.c.Flush()
}

// RedrawBorder draws the border over the current frame without clearing it
// and flushes.
func (r *Renderer) RedrawBorder(doubled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.border(doubled)
	return r.c.Flush()
}

// Splash clears the panel and shows one text line per entry.
func (r *Renderer) Splash(lines ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.c.Clear()
	for i, s := range lines {
		r.c.Text(2, int16(10+10*i), s)
	}
	return r.c.Flush()
}

func (r *Renderer) border(doubled bool) {
	w, h := r.c.Size()
	r.c.DrawRect(3, 3, w-5, h-5, false)
	if doubled {
		r.c.DrawRect(1, 1, w-3, h-3, false)
		r.c.DrawRect(0, 0, w-1, h-1, false)
	}
}
