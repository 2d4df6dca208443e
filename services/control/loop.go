package control

import (
	"context"
	"sync/atomic"
	"time"

	"joyled/bus"
	"joyled/services/input"
	"joyled/services/joystick"
	"joyled/services/led"
	"joyled/services/render"
	"joyled/types"
	"joyled/x/timex"
)

// Loop runs sample → render → PWM once per tick.
type Loop struct {
	sampler *joystick.Sampler
	leds    *led.Driver
	rend    *render.Renderer
	state   *input.ModeState
	conn    *bus.Connection
	period  time.Duration

	tick uint32 // atomic
}

// New wires a loop. conn may be nil.
func New(s *joystick.Sampler, leds *led.Driver, r *render.Renderer, st *input.ModeState, conn *bus.Connection, period time.Duration) *Loop {
	if period <= 0 {
		period = 100 * time.Millisecond
	}
	return &Loop{
		sampler: s,
		leds:    leds,
		rend:    r,
		state:   st,
		conn:    conn,
		period:  period,
	}
}

// Step runs one iteration. A sampling error aborts the tick before any
// output changes; a display error is returned after the LEDs are updated.
func (l *Loop) Step() (types.SampleValue, error) {
	x, y, err := l.sampler.Sample()
	if err != nil {
		return types.SampleValue{}, err
	}
	tick := atomic.AddUint32(&l.tick, 1)

	pos := types.NormalizedPosition{X: x.Normalized(), Y: y.Normalized()}
	px, rerr := l.rend.Render(pos, l.state.BorderDoubled())

	mode := l.state.LEDMode()
	red, blue := l.leds.Apply(mode, x.Calibrated, y.Calibrated)

	v := types.SampleValue{
		X:        x,
		Y:        y,
		Pixel:    px,
		RedDuty:  red,
		BlueDuty: blue,
		Mode:     mode.String(),
		Tick:     tick,
	}
	if l.conn != nil {
		l.conn.Publish(l.conn.NewMessage(bus.T(types.TopicJoy, types.TopicSample), v, false))
	}
	return v, rerr
}

// Run steps the loop with a fixed delay between iterations until ctx is
// cancelled. Step errors are logged and the loop carries on.
func (l *Loop) Run(ctx context.Context) {
	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			println("[control] stopping")
			return
		case <-t.C:
			if _, err := l.Step(); err != nil {
				println("[control] step: " + err.Error())
			}
			timex.ResetTimer(t, l.period)
		}
	}
}

// Ticks is the number of completed samples.
func (l *Loop) Ticks() uint32 { return atomic.LoadUint32(&l.tick) }
