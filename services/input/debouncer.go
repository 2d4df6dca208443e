package input

import (
	"context"
	"sync"
	"sync/atomic"

	"joyled/bus"
	"joyled/errcode"
	"joyled/services/hal/halcore"
	"joyled/types"
	"joyled/x/conv"
	"joyled/x/timex"
)

// Button identifies one of the three monitored inputs.
type Button uint8

const (
	ButtonA        Button = iota // mode cycle
	ButtonB                      // bootloader
	ButtonJoystick               // indicator + border
)

func (b Button) String() string {
	switch b {
	case ButtonA:
		return "a"
	case ButtonB:
		return "b"
	case ButtonJoystick:
		return "joystick"
	default:
		return "unknown"
	}
}

// Actions are the side effects of accepted edges. Nil members are skipped.
type Actions struct {
	Boot      halcore.Bootloader
	Indicator halcore.GPIOPin
	// RedrawBorder draws the border in the given style without clearing the
	// frame, then flushes.
	RedrawBorder func(doubled bool) error
}

// Debouncer turns falling edges on the three buttons into mode changes.
//
// The interrupt handler only timestamps the edge and enqueues it without
// blocking; a single worker goroutine applies one debounce gate shared by all
// buttons, in arrival order.
type Debouncer struct {
	clock  halcore.Clock
	window uint32
	state  *ModeState
	act    Actions
	conn   *bus.Connection

	// Written by ISR; MUST NOT block the ISR:
	isrQ    chan edgeEvent
	stopped chan struct{}

	mu   sync.Mutex
	pins map[Button]halcore.IRQPin

	lastAccepted uint32 // ms; 0 at boot
	accepted     uint32
	rejected     uint32
	drops        uint32 // ISR drop counter
}

type edgeEvent struct {
	btn Button
	ts  uint32 // captured in ISR
}

// NewDebouncer builds a debouncer with the given gate window in ms.
// conn may be nil, in which case nothing is published.
func NewDebouncer(clock halcore.Clock, windowMs uint32, state *ModeState, act Actions, conn *bus.Connection, isrBuf int) *Debouncer {
	if isrBuf <= 0 {
		isrBuf = 16
	}
	return &Debouncer{
		clock:   clock,
		window:  windowMs,
		state:   state,
		act:     act,
		conn:    conn,
		isrQ:    make(chan edgeEvent, isrBuf),
		stopped: make(chan struct{}),
		pins:    map[Button]halcore.IRQPin{},
	}
}

func (d *Debouncer) Start(ctx context.Context) {
	go func() {
		defer close(d.stopped)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-d.isrQ:
				d.HandleEdge(ev.btn, ev.ts)
			}
		}
	}()
}

// Done is closed once the worker has exited.
func (d *Debouncer) Done() <-chan struct{} { return d.stopped }

// RegisterButton configures pin as a pulled-up input and arms a falling-edge
// interrupt for it.
func (d *Debouncer) RegisterButton(btn Button, pin halcore.IRQPin) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pins[btn]; ok {
		return &errcode.E{C: errcode.Conflict, Op: "input.register", Msg: "button " + btn.String() + " already registered"}
	}
	if err := pin.ConfigureInput(halcore.PullUp); err != nil {
		return errcode.Wrap(errcode.MapDriverErr(err), "input.register", err)
	}

	// ISR handler: clock read + non-blocking channel send.
	handler := func() {
		select {
		case d.isrQ <- edgeEvent{btn: btn, ts: d.clock.NowMs()}:
		default:
			atomic.AddUint32(&d.drops, 1)
		}
	}
	if err := pin.SetIRQ(halcore.EdgeFalling, handler); err != nil {
		return errcode.Wrap(errcode.MapDriverErr(err), "input.register", err)
	}
	d.pins[btn] = pin
	return nil
}

// Close disarms every registered interrupt.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for btn, pin := range d.pins {
		_ = pin.ClearIRQ()
		delete(d.pins, btn)
	}
}

// HandleEdge applies the shared gate to an edge observed at ts and, if it is
// accepted, dispatches it. It reports whether the edge was accepted.
func (d *Debouncer) HandleEdge(btn Button, ts uint32) bool {
	last := atomic.LoadUint32(&d.lastAccepted)
	if timex.ElapsedMs(ts, last) <= d.window {
		atomic.AddUint32(&d.rejected, 1)
		return false
	}
	atomic.StoreUint32(&d.lastAccepted, ts)
	atomic.AddUint32(&d.accepted, 1)
	println("[input] accepted " + describe(btn, ts))

	d.publish(bus.T(types.TopicInput, types.TopicEvent, btn.String()),
		types.ButtonEvent{Button: btn.String(), AtMs: ts}, false)

	switch btn {
	case ButtonA:
		m := d.state.AdvanceLEDMode()
		println("[input] led mode " + m.String())
	case ButtonB:
		println("[input] entering bootloader")
		if d.act.Boot != nil {
			d.act.Boot.EnterBootloader()
		}
	case ButtonJoystick:
		on := d.state.ToggleIndicator()
		if d.act.Indicator != nil {
			d.act.Indicator.Set(on)
		}
		doubled := d.state.ToggleBorder()
		if d.act.RedrawBorder != nil {
			if err := d.act.RedrawBorder(doubled); err != nil {
				println("[input] border redraw: " + err.Error())
			}
		}
	}
	d.publish(bus.T(types.TopicInput, types.TopicMode), d.state.Snapshot(), true)
	d.publish(bus.T(types.TopicInput, types.TopicStats), d.Stats(), true)
	return true
}

// Stats returns the gate and ISR queue counters.
func (d *Debouncer) Stats() types.InputStats {
	return types.InputStats{
		Accepted: atomic.LoadUint32(&d.accepted),
		Rejected: atomic.LoadUint32(&d.rejected),
		Dropped:  atomic.LoadUint32(&d.drops),
	}
}

// ISRDrops counts edges lost because the queue was full.
func (d *Debouncer) ISRDrops() uint32 { return atomic.LoadUint32(&d.drops) }

// LastAccepted is the timestamp of the most recent accepted edge.
func (d *Debouncer) LastAccepted() uint32 { return atomic.LoadUint32(&d.lastAccepted) }

func (d *Debouncer) publish(t bus.Topic, v any, retained bool) {
	if d.conn == nil {
		return
	}
	d.conn.Publish(d.conn.NewMessage(t, v, retained))
}

// describe renders an edge for the console without fmt.
func describe(btn Button, ts uint32) string {
	var buf [10]byte
	return btn.String() + "@" + string(conv.Utoa(buf[:], uint64(ts)))
}
