//go:build !tinygo

package main

import (
	"context"
	"errors"
	"image/color"
	"log/slog"

	"joyled/services/app"
	"joyled/services/hal"
	"joyled/services/sim"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	ledStrip = 24   // pixels below the panel for the LEDs and status
	stickVel = 0.08 // position change per frame while an arrow is held
	stickRet = 0.15 // spring-back per frame on a released axis
)

var (
	panelOn  = color.RGBA{0x9C, 0xE0, 0xFF, 0xFF}
	panelOff = color.RGBA{0x05, 0x08, 0x10, 0xFF}
)

// runWindow runs the system in its own goroutine and shows the panel and
// LEDs in a window until it is closed or ctx is cancelled.
func runWindow(ctx context.Context, logger *slog.Logger, a *app.App, s *sim.Stick, scale int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- a.Run(ctx) }()

	rig := a.Board.Host()
	w, h := rig.Display.Size()
	g := &simGame{
		ctx:   ctx,
		a:     a,
		rig:   rig,
		stick: s,
		w:     int(w),
		h:     int(h),
	}

	ebiten.SetWindowTitle("joyled (" + a.Board.Config.Name + ")")
	ebiten.SetWindowSize(g.w*scale, (g.h+ledStrip)*scale)
	ebiten.SetTPS(60)
	logger.Info("window open", "keys", "arrows move, A/B buttons, space presses stick, esc quits")

	err := ebiten.RunGame(g)
	cancel()
	if runErr := <-errc; runErr != nil {
		return runErr
	}
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type simGame struct {
	ctx   context.Context
	a     *app.App
	rig   *hal.HostRig
	stick *sim.Stick
	w, h  int

	frame []bool
	pix   []byte
	panel *ebiten.Image
}

func (g *simGame) Update() error {
	if g.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyA) {
		g.rig.ButtonA.Press()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.rig.ButtonB.Press()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.rig.ButtonJoy.Press()
	}

	x, y := g.stick.Position()
	x = axisStep(x, ebiten.IsKeyPressed(ebiten.KeyArrowRight), ebiten.IsKeyPressed(ebiten.KeyArrowLeft))
	y = axisStep(y, ebiten.IsKeyPressed(ebiten.KeyArrowUp), ebiten.IsKeyPressed(ebiten.KeyArrowDown))
	g.stick.Move(x, y)
	return nil
}

// axisStep moves p toward +1 or -1 while a key is held, and back toward 0
// otherwise.
func axisStep(p float32, up, down bool) float32 {
	switch {
	case up && !down:
		return p + stickVel
	case down && !up:
		return p - stickVel
	case p > stickRet:
		return p - stickRet
	case p < -stickRet:
		return p + stickRet
	default:
		return 0
	}
}

func (g *simGame) Draw(screen *ebiten.Image) {
	if g.panel == nil {
		g.panel = ebiten.NewImage(g.w, g.h)
		g.pix = make([]byte, g.w*g.h*4)
	}

	g.frame = g.rig.Display.Frame(g.frame)
	for i, on := range g.frame {
		c := panelOff
		if on {
			c = panelOn
		}
		j := i * 4
		g.pix[j+0] = c.R
		g.pix[j+1] = c.G
		g.pix[j+2] = c.B
		g.pix[j+3] = c.A
	}
	g.panel.WritePixels(g.pix)
	screen.DrawImage(g.panel, nil)

	cy := float32(g.h + ledStrip/2)
	drawLED(screen, 10, cy, color.RGBA{0xFF, 0x20, 0x20, 0xFF}, g.rig.Red.Brightness())
	green := float32(0)
	if g.rig.Green.Get() {
		green = 1
	}
	drawLED(screen, 26, cy, color.RGBA{0x20, 0xFF, 0x40, 0xFF}, green)
	drawLED(screen, 42, cy, color.RGBA{0x30, 0x60, 0xFF, 0xFF}, g.rig.Blue.Brightness())

	ebitenutil.DebugPrintAt(screen, g.a.State.LEDMode().String(), 56, g.h+4)
}

// drawLED draws a lamp whose fill scales with level in [0,1].
func drawLED(dst *ebiten.Image, cx, cy float32, c color.RGBA, level float32) {
	dim := func(v uint8) uint8 { return uint8(float32(v)*level*0.85) + 0x10 }
	vector.DrawFilledCircle(dst, cx, cy, 7, color.RGBA{0x30, 0x30, 0x30, 0xFF}, true)
	vector.DrawFilledCircle(dst, cx, cy, 6, color.RGBA{dim(c.R), dim(c.G), dim(c.B), 0xFF}, true)
}

func (g *simGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.w, g.h + ledStrip
}
