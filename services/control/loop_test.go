package control

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"

	"joyled/bus"
	"joyled/errcode"
	"joyled/services/input"
	"joyled/services/joystick"
	"joyled/services/led"
	"joyled/services/render"
	"joyled/types"
)

const xCh, yCh = 1, 0

type fakeADC struct {
	mu   sync.Mutex
	vals map[int]uint16
	err  error
	sel  int
}

func (f *fakeADC) SelectChannel(ch int) error { f.mu.Lock(); f.sel = ch; f.mu.Unlock(); return nil }
func (f *fakeADC) Read() (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.vals[f.sel], nil
}
func (f *fakeADC) set(x, y uint16) { f.mu.Lock(); f.vals[xCh], f.vals[yCh] = x, y; f.mu.Unlock() }

type fakePWM struct{ level uint16 }

func (p *fakePWM) Configure(uint64, uint16) error { return nil }
func (p *fakePWM) Set(level uint16)               { p.level = level }
func (p *fakePWM) Level() uint16                  { return p.level }

type nullFB struct{ w, h int16 }

func (f nullFB) Size() (int16, int16) {
	return f.w, f.h
}

func (f nullFB) SetPixel(int16, int16, color.RGBA) {}

func (f nullFB) Display() error {
	return nil
}

type rig struct {
	adc       *fakeADC
	red, blue *fakePWM
	state     *input.ModeState
	loop      *Loop
}

func newRig(t *testing.T, off types.CalibrationOffset, conn *bus.Connection) *rig {
	t.Helper()
	r := &rig{
		adc:   &fakeADC{vals: map[int]uint16{}},
		red:   &fakePWM{},
		blue:  &fakePWM{},
		state: &input.ModeState{},
	}
	leds, err := led.NewDriver(r.red, r.blue, 15_251, led.Period, false)
	if err != nil {
		t.Fatal(err)
	}
	s := joystick.NewSampler(r.adc, xCh, yCh, off)
	rend := render.NewRenderer(render.NewCanvas(nullFB{128, 64}))
	r.loop = New(s, leds, rend, r.state, conn, 5*time.Millisecond)
	return r
}

func TestCentredStickBothMode(t *testing.T) {
	r := newRig(t, types.CalibrationOffset{}, nil)
	for r.state.LEDMode() != input.LEDBoth {
		r.state.AdvanceLEDMode()
	}
	r.adc.set(2048, 2048)

	v, err := r.loop.Step()
	if err != nil {
		t.Fatal(err)
	}
	if v.X.Calibrated != 2048 || v.Pixel.X != 60 {
		t.Fatalf("sample = %+v", v)
	}
	if r.red.level != 1024 || r.blue.level != 1024 {
		t.Fatalf("duties = (%d,%d), want (1024,1024)", r.red.level, r.blue.level)
	}
	if v.Mode != "both" || v.Tick != 1 {
		t.Fatalf("mode=%q tick=%d", v.Mode, v.Tick)
	}
}

func TestGlitchHoldsPreviousX(t *testing.T) {
	r := newRig(t, types.CalibrationOffset{X: 10}, nil)
	r.state.AdvanceLEDMode() // red

	r.adc.set(2000, 2048)
	if _, err := r.loop.Step(); err != nil {
		t.Fatal(err)
	}
	first := r.red.level

	r.adc.set(4090, 2048)
	v, err := r.loop.Step()
	if err != nil {
		t.Fatal(err)
	}
	if !v.X.Held || v.X.Calibrated != 2010 {
		t.Fatalf("X = %+v, want held 2010", v.X)
	}
	if r.red.level != first || r.red.level != 1005 {
		t.Fatalf("red = %d, want unchanged 1005", r.red.level)
	}
	if r.blue.level != 0 {
		t.Fatalf("blue = %d in red mode", r.blue.level)
	}
}

func TestSampleErrorLeavesOutputs(t *testing.T) {
	r := newRig(t, types.CalibrationOffset{}, nil)
	r.state.AdvanceLEDMode()
	r.adc.set(4095, 0)
	if _, err := r.loop.Step(); err != nil {
		t.Fatal(err)
	}
	r.adc.err = errors.New("timeout")
	if _, err := r.loop.Step(); errcode.Of(err) != errcode.ADCReadFailed {
		t.Fatalf("err = %v", err)
	}
	if r.red.level != 2048 {
		t.Fatalf("red changed on failed tick: %d", r.red.level)
	}
	if r.loop.Ticks() != 1 {
		t.Fatalf("ticks = %d", r.loop.Ticks())
	}
}

func TestRunPublishesSamples(t *testing.T) {
	b := bus.NewBus(16)
	sub := b.NewConnection("test").Subscribe(bus.T(types.TopicJoy, types.TopicSample))
	r := newRig(t, types.CalibrationOffset{}, b.NewConnection("control"))
	r.adc.set(2048, 4095)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { r.loop.Run(ctx); close(done) }()

	var last uint32
	for i := 0; i < 3; i++ {
		select {
		case m := <-sub.Channel():
			v := m.Payload.(types.SampleValue)
			if v.Tick <= last || v.Pixel.Y != 0 {
				t.Fatalf("sample after tick %d = %+v", last, v)
			}
			last = v.Tick
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for sample %d", i)
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
