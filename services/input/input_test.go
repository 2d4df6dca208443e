package input

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"joyled/bus"
	"joyled/services/hal/halcore"
	"joyled/types"
)

// fakeIRQPin implements halcore.IRQPin with minimal behaviour for tests.
type fakeIRQPin struct {
	mu      sync.Mutex
	level   bool
	pull    halcore.Pull
	edge    halcore.Edge
	handler func()
	number  int
}

func (p *fakeIRQPin) ConfigureInput(pull halcore.Pull) error {
	p.pull = pull
	p.level = true
	return nil
}

func (p *fakeIRQPin) ConfigureOutput(initial bool) error {
	p.level = initial
	return nil
}

func (p *fakeIRQPin) Set(b bool) {
	p.mu.Lock()
	p.level = b
	p.mu.Unlock()
}

func (p *fakeIRQPin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *fakeIRQPin) Toggle() {
	p.mu.Lock()
	p.level = !p.level
	p.mu.Unlock()
}

func (p *fakeIRQPin) Number() int { return p.number }

func (p *fakeIRQPin) SetIRQ(e halcore.Edge, h func()) error {
	p.edge = e
	p.handler = h
	return nil
}

func (p *fakeIRQPin) ClearIRQ() error {
	p.handler = nil
	return nil
}

// press drives the pin low and runs the interrupt handler as the hardware would.
func (p *fakeIRQPin) press() {
	p.Set(false)
	if p.handler != nil {
		p.handler()
	}
	p.Set(true)
}

type fakeClock struct{ ms uint32 }

func (c *fakeClock) NowMs() uint32     { return atomic.LoadUint32(&c.ms) }
func (c *fakeClock) advance(ms uint32) { atomic.AddUint32(&c.ms, ms) }

func TestLEDModeCycles(t *testing.T) {
	for m := LEDOff; m <= LEDBoth; m++ {
		got := m
		for i := 0; i < 4; i++ {
			got = got.Next()
		}
		if got != m {
			t.Fatalf("4 advances from %v gave %v", m, got)
		}
	}
	if LEDBoth.Next() != LEDOff {
		t.Fatal("Both must wrap to Off")
	}
}

func TestModeStateToggles(t *testing.T) {
	var s ModeState
	if s.LEDMode() != LEDOff || s.BorderDoubled() || s.Indicator() {
		t.Fatal("zero ModeState must be {Off, false, false}")
	}
	if !s.ToggleBorder() || !s.BorderDoubled() {
		t.Fatal("first toggle should double the border")
	}
	if s.ToggleBorder() || s.BorderDoubled() {
		t.Fatal("second toggle should restore single border")
	}
	if s.AdvanceLEDMode() != LEDRed {
		t.Fatal("advance from Off should give Red")
	}
	snap := s.Snapshot()
	if snap.LEDMode != "red" || snap.BorderDoubled || snap.Indicator {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestSharedDebounceGate(t *testing.T) {
	var s ModeState
	d := NewDebouncer(&fakeClock{}, 200, &s, Actions{}, nil, 4)

	if d.HandleEdge(ButtonA, 100) {
		t.Fatal("edge within 200 ms of boot must be ignored")
	}
	if !d.HandleEdge(ButtonA, 1000) {
		t.Fatal("first edge after boot window rejected")
	}
	// Different button, same window.
	if d.HandleEdge(ButtonJoystick, 1200) {
		t.Fatal("edge exactly 200 ms later must be ignored")
	}
	if s.BorderDoubled() {
		t.Fatal("rejected edge changed state")
	}
	if !d.HandleEdge(ButtonA, 1201) {
		t.Fatal("edge 201 ms later must be accepted")
	}
	if s.LEDMode() != LEDBlue {
		t.Fatalf("mode = %v, want blue after two accepted A edges", s.LEDMode())
	}
	st := d.Stats()
	if st.Accepted != 2 || st.Rejected != 2 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestRejectedEdgeDoesNotRearm(t *testing.T) {
	var s ModeState
	d := NewDebouncer(&fakeClock{}, 200, &s, Actions{}, nil, 4)
	d.HandleEdge(ButtonA, 1000)
	d.HandleEdge(ButtonA, 1150) // rejected, must not move the gate
	if !d.HandleEdge(ButtonA, 1250) {
		t.Fatal("gate measured from a rejected edge")
	}
}

func TestDebounceAcrossClockWrap(t *testing.T) {
	var s ModeState
	d := NewDebouncer(&fakeClock{}, 200, &s, Actions{}, nil, 4)
	if !d.HandleEdge(ButtonA, 0xFFFF_FF00) {
		t.Fatal("edge before wrap rejected")
	}
	// 0x10 - 0xFFFFFF00 wraps to 272 ms.
	if !d.HandleEdge(ButtonA, 0x0000_0010) {
		t.Fatal("edge 272 ms after wrap rejected")
	}
	if d.HandleEdge(ButtonA, 0x0000_0020) {
		t.Fatal("edge 16 ms later accepted")
	}
}

type fakeBoot struct{ n int32 }

func (b *fakeBoot) EnterBootloader() { atomic.AddInt32(&b.n, 1) }

func TestDispatch(t *testing.T) {
	var s ModeState
	boot := &fakeBoot{}
	green := &fakeIRQPin{number: 11}
	var redraws []bool
	act := Actions{
		Boot:      boot,
		Indicator: green,
		RedrawBorder: func(doubled bool) error {
			redraws = append(redraws, doubled)
			return nil
		},
	}
	d := NewDebouncer(&fakeClock{}, 200, &s, act, nil, 4)

	d.HandleEdge(ButtonJoystick, 1000)
	if !green.Get() || !s.Indicator() || !s.BorderDoubled() {
		t.Fatal("joystick press should light the indicator and double the border")
	}
	d.HandleEdge(ButtonJoystick, 2000)
	if green.Get() || s.BorderDoubled() {
		t.Fatal("second press should restore both")
	}
	if len(redraws) != 2 || !redraws[0] || redraws[1] {
		t.Fatalf("redraws = %v", redraws)
	}

	d.HandleEdge(ButtonB, 3000)
	if atomic.LoadInt32(&boot.n) != 1 {
		t.Fatal("button B must enter the bootloader")
	}
	if s.LEDMode() != LEDOff {
		t.Fatal("only button A may change the LED mode")
	}
}

func TestInterruptPathPublishes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(8)
	conn := b.NewConnection("input")
	obs := b.NewConnection("test")
	events := obs.Subscribe(bus.T(types.TopicInput, types.TopicEvent, "+"))

	clk := &fakeClock{ms: 5000}
	var s ModeState
	d := NewDebouncer(clk, 200, &s, Actions{}, conn, 4)
	pinA := &fakeIRQPin{number: 5}
	if err := d.RegisterButton(ButtonA, pinA); err != nil {
		t.Fatalf("RegisterButton: %v", err)
	}
	if pinA.pull != halcore.PullUp || pinA.edge != halcore.EdgeFalling {
		t.Fatalf("pin configured with pull=%v edge=%v", pinA.pull, pinA.edge)
	}
	if err := d.RegisterButton(ButtonA, pinA); err == nil {
		t.Fatal("duplicate registration accepted")
	}
	d.Start(ctx)

	pinA.press()
	select {
	case m := <-events.Channel():
		ev, ok := m.Payload.(types.ButtonEvent)
		if !ok || ev.Button != "a" || ev.AtMs != 5000 {
			t.Fatalf("unexpected event %#v", m.Payload)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for button event")
	}

	// Bounce inside the window: no event.
	clk.advance(50)
	pinA.press()
	select {
	case m := <-events.Channel():
		t.Fatalf("bounce published %#v", m.Payload)
	case <-time.After(30 * time.Millisecond):
	}

	m, ok := b.Retained(bus.T(types.TopicInput, types.TopicMode))
	if !ok || m.Payload.(types.ModeValue).LEDMode != "red" {
		t.Fatalf("retained mode = %#v", m)
	}

	d.Close()
	if pinA.handler != nil {
		t.Fatal("Close left the interrupt armed")
	}
	cancel()
	select {
	case <-d.Done():
	case <-time.After(200 * time.Millisecond):
		t.Fatal("worker did not stop")
	}
}

func TestISRQueueOverflowCounts(t *testing.T) {
	var s ModeState
	d := NewDebouncer(&fakeClock{ms: 1000}, 200, &s, Actions{}, nil, 1)
	pin := &fakeIRQPin{}
	if err := d.RegisterButton(ButtonJoystick, pin); err != nil {
		t.Fatal(err)
	}
	// Worker not started: the second edge cannot be queued.
	pin.press()
	pin.press()
	if d.ISRDrops() != 1 {
		t.Fatalf("drops = %d, want 1", d.ISRDrops())
	}
}
