// Package app wires the joystick, buttons, LEDs and display of an opened
// board into a running system. The firmware and the host simulator share it.
package app

import (
	"context"
	"time"

	"joyled/bus"
	"joyled/services/control"
	"joyled/services/hal"
	"joyled/services/hal/halcore"
	"joyled/services/input"
	"joyled/services/joystick"
	"joyled/services/led"
	"joyled/services/monitor"
	"joyled/services/render"
	"joyled/types"
	"joyled/x/conv"
)

// App is the assembled system.
type App struct {
	Board     *hal.Board
	Bus       *bus.Bus
	State     *input.ModeState
	Offset    types.CalibrationOffset
	Renderer  *render.Renderer
	LEDs      *led.Driver
	Debouncer *input.Debouncer
	Loop      *control.Loop
	Monitor   *monitor.Service

	conn *bus.Connection
}

// New calibrates the stick and builds every service. Nothing runs until Start.
// A calibration failure is logged and leaves a zero offset on that axis.
func New(board *hal.Board) (*App, error) {
	cfg := board.Config
	a := &App{
		Board: board,
		Bus:   bus.NewBus(8),
		State: &input.ModeState{},
	}
	a.conn = a.Bus.NewConnection("app")

	leds, err := led.NewDriver(board.Red, board.Blue, cfg.LEDs.FreqHz, cfg.LEDs.Top, cfg.LEDs.ActiveLow)
	if err != nil {
		return nil, err
	}
	a.LEDs = leds
	a.Renderer = render.NewRenderer(render.NewCanvas(board.Display))

	off, err := joystick.Calibrate(board.ADC, cfg.Joystick.XChannel, cfg.Joystick.YChannel)
	if err != nil {
		println("[joystick] calibration: " + err.Error())
	}
	a.Offset = off
	println("[joystick] offset " + offsetText(off))
	a.conn.Publish(a.conn.NewMessage(bus.T(types.TopicJoy, types.TopicCal), off, true))

	a.Debouncer = input.NewDebouncer(board.Clock, cfg.Buttons.DebounceMs, a.State, input.Actions{
		Boot:         board.Boot,
		Indicator:    board.Green,
		RedrawBorder: a.Renderer.RedrawBorder,
	}, a.Bus.NewConnection("input"), 16)

	for _, bp := range []struct {
		btn input.Button
		pin halcore.IRQPin
	}{
		{input.ButtonA, board.ButtonA},
		{input.ButtonB, board.ButtonB},
		{input.ButtonJoystick, board.ButtonJoy},
	} {
		if err := a.Debouncer.RegisterButton(bp.btn, bp.pin); err != nil {
			a.Debouncer.Close()
			return nil, err
		}
	}

	sampler := joystick.NewSampler(board.ADC, cfg.Joystick.XChannel, cfg.Joystick.YChannel, off)
	period := time.Duration(cfg.TickMs) * time.Millisecond
	a.Loop = control.New(sampler, leds, a.Renderer, a.State, a.Bus.NewConnection("control"), period)
	a.Monitor = monitor.New(board.Console)
	return a, nil
}

// Splash shows the captured offsets on the panel.
func (a *App) Splash() error {
	var bx, by [8]byte
	return a.Renderer.Splash(
		"joyled "+a.Board.Config.Name,
		"cal x "+string(conv.Itoa(bx[:], int64(a.Offset.X))),
		"cal y "+string(conv.Itoa(by[:], int64(a.Offset.Y))),
	)
}

// Start launches the monitor and the button worker and publishes the initial
// mode.
func (a *App) Start(ctx context.Context) error {
	if err := a.Monitor.Start(ctx, a.Bus.NewConnection("monitor")); err != nil {
		return err
	}
	a.Debouncer.Start(ctx)
	a.conn.Publish(a.conn.NewMessage(bus.T(types.TopicInput, types.TopicMode), a.State.Snapshot(), true))
	return nil
}

// Run starts the services and runs the control loop until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	a.Loop.Run(ctx)
	a.Debouncer.Close()
	return nil
}

func offsetText(off types.CalibrationOffset) string {
	b := make([]byte, 0, 24)
	b = append(b, "x="...)
	b = conv.AppendInt(b, int64(off.X))
	b = append(b, " y="...)
	b = conv.AppendInt(b, int64(off.Y))
	return string(b)
}
