//go:build !tinygo

package sim

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"joyled/services/app"
	"joyled/services/hal"
	"joyled/types"

	"github.com/lmittmann/tint"
)

// Press is a scripted button press at a given tick.
type Press struct {
	Tick   int
	Button string // "a", "b" or "joystick"
}

func (p Press) pin(r *hal.HostRig) *hal.FakePin {
	switch p.Button {
	case "a":
		return r.ButtonA
	case "b":
		return r.ButtonB
	case "joystick":
		return r.ButtonJoy
	}
	return nil
}

// Script cycles through every LED mode, bounces A once, toggles the border
// twice and asks for the bootloader on the last of n ticks.
func Script(n int) []Press {
	at := func(f float32) int { return int(f * float32(n)) }
	return []Press{
		{at(0.1), "a"},
		{at(0.1), "a"}, // bounce
		{at(0.3), "joystick"},
		{at(0.45), "a"},
		{at(0.6), "a"},
		{at(0.75), "joystick"},
		{at(0.9), "a"},
		{n, "b"},
	}
}

// Sweep returns the stick position for tick k of n: X runs end to end and
// back while Y mirrors it.
func Sweep(k, n int) (x, y float32) {
	f := float32(k) / float32(n)
	if f < 0.5 {
		x = -1 + 4*f
	} else {
		x = 3 - 4*f
	}
	return x, -x
}

// Report summarises a headless run.
type Report struct {
	Ticks        uint32
	XHeld        int
	Input        types.InputStats
	Mode         types.ModeValue
	Green        bool
	BootRequests uint32
	Flushes      uint32
}

// RunHeadless drives n control ticks against clock, applying presses at their
// ticks and moving the stick along Sweep. The board must have been opened on
// the host with clock installed before the app was built.
func RunHeadless(ctx context.Context, logger *slog.Logger, a *app.App, s *Stick, clock *ManualClock, n int, presses []Press) (Report, error) {
	if n <= 0 {
		return Report{}, errors.New("tick count must be > 0")
	}
	if err := a.Start(ctx); err != nil {
		return Report{}, err
	}
	defer a.Debouncer.Close()

	rig := a.Board.Host()
	var rep Report

	for k := 1; k <= n; k++ {
		if ctx.Err() != nil {
			break
		}
		clock.Advance(a.Board.Config.TickMs)

		for _, p := range presses {
			if p.Tick != k {
				continue
			}
			pin := p.pin(rig)
			if pin == nil {
				logger.Warn("unknown button in script", "button", p.Button)
				continue
			}
			logger.Debug("press", "button", p.Button, "at_ms", clock.NowMs())
			before := edgeCount(a)
			pin.Press()
			waitEdges(a, before+1)
		}

		s.Move(Sweep(k, n))
		v, err := a.Loop.Step()
		if err != nil {
			logger.Warn("step failed", "tick", k, tint.Err(err))
			continue
		}
		if v.X.Held {
			rep.XHeld++
		}
	}

	rep.Ticks = a.Loop.Ticks()
	rep.Input = a.Debouncer.Stats()
	rep.Mode = a.State.Snapshot()
	rep.Green = rig.Green.Get()
	rep.BootRequests = rig.Boot.Requests()
	rep.Flushes = rig.Display.Flushes()

	logger.Info("headless run complete",
		"ticks", rep.Ticks,
		"x_held", rep.XHeld,
		"accepted", rep.Input.Accepted,
		"rejected", rep.Input.Rejected,
		"isr_dropped", rep.Input.Dropped,
		"mode", rep.Mode.LEDMode,
		"border_doubled", rep.Mode.BorderDoubled,
		"green", rep.Green,
		"boot_requests", rep.BootRequests,
		"flushes", rep.Flushes)
	return rep, nil
}

func edgeCount(a *app.App) uint32 {
	st := a.Debouncer.Stats()
	return st.Accepted + st.Rejected + st.Dropped
}

// waitEdges blocks until the button worker has consumed want edges, or a
// second has passed.
func waitEdges(a *app.App, want uint32) {
	deadline := time.Now().Add(time.Second)
	for edgeCount(a) < want && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}
