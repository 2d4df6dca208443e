//go:build rp2040

package hal

import (
	"io"
	"machine"
	"sync"
	"time"

	"joyled/errcode"
	"joyled/services/hal/halcore"
	"joyled/x/mathx"
	"joyled/x/timex"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ssd1306"
)

type platform struct {
	i2c *i2cOwner
}

func (b *Board) openPlatform() error {
	if err := b.claimBoard(); err != nil {
		return err
	}
	cfg := b.Config

	// Joystick ADC. Channel n is on GP26+n.
	machine.InitADC()
	b.ADC = newRP2ADC()

	// LEDs.
	red, err := newRP2PWM(cfg.LEDs.Red)
	if err != nil {
		return err
	}
	blue, err := newRP2PWM(cfg.LEDs.Blue)
	if err != nil {
		return err
	}
	b.Red, b.Blue = red, blue
	green := &rp2Pin{p: machine.Pin(cfg.LEDs.Green), n: cfg.LEDs.Green}
	if err := green.ConfigureOutput(false); err != nil {
		return err
	}
	b.Green = green

	// Buttons; the debouncer configures pulls and interrupts.
	b.ButtonA = &rp2Pin{p: machine.Pin(cfg.Buttons.A), n: cfg.Buttons.A}
	b.ButtonB = &rp2Pin{p: machine.Pin(cfg.Buttons.B), n: cfg.Buttons.B}
	b.ButtonJoy = &rp2Pin{p: machine.Pin(cfg.Buttons.Joystick), n: cfg.Buttons.Joystick}

	// Display on its own I²C owner.
	hw, err := i2cByID(cfg.Display.Bus)
	if err != nil {
		return err
	}
	sda, scl := machine.Pin(cfg.Display.SDA), machine.Pin(cfg.Display.SCL)
	if err := hw.Configure(machine.I2CConfig{SDA: sda, SCL: scl, Frequency: cfg.Display.Hz}); err != nil {
		return errcode.Wrap(errcode.MapDriverErr(err), "hal.i2c", err)
	}
	b.plat.i2c = newI2COwner(cfg.Display.Bus, hw)
	oled := ssd1306.NewI2C(&driversI2C{o: b.plat.i2c, timeout: 250 * time.Millisecond})
	oled.Configure(ssd1306.Config{
		Address: cfg.Display.Address,
		Width:   cfg.Display.Width,
		Height:  cfg.Display.Height,
	})
	oled.ClearDisplay()
	b.Display = oled

	// Console: USB CDC, mirrored to UART0 when wired.
	var console io.Writer = machine.Serial
	if cfg.Console.UART {
		if err := uartx.UART0.Configure(uartx.UARTConfig{
			BaudRate: cfg.Console.Baud,
			TX:       machine.Pin(cfg.Console.TX),
			RX:       machine.Pin(cfg.Console.RX),
		}); err != nil {
			return errcode.Wrap(errcode.MapDriverErr(err), "hal.uart", err)
		}
		console = io.MultiWriter(machine.Serial, uartx.UART0)
	}
	b.Console = console

	b.Boot = halcore.BootloaderFunc(machine.EnterBootloader)
	b.Clock = timex.NewMonotonic()
	return nil
}

func (b *Board) closePlatform() {
	if b.plat.i2c != nil {
		b.plat.i2c.stop()
		b.plat.i2c = nil
	}
}

func i2cByID(id string) (*machine.I2C, error) {
	switch id {
	case "i2c0":
		return machine.I2C0, nil
	case "i2c1":
		return machine.I2C1, nil
	}
	return nil, &errcode.E{C: errcode.UnknownBus, Op: "hal.i2c", Msg: id}
}

// -----------------------------------------------------------------------------
// GPIO (with IRQ)
// -----------------------------------------------------------------------------

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureInput(pull halcore.Pull) error {
	var mode machine.PinMode
	switch pull {
	case halcore.PullUp:
		mode = machine.PinInputPullup
	case halcore.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }

func (r *rp2Pin) Toggle() {
	if r.p.Get() {
		r.p.Low()
	} else {
		r.p.High()
	}
}

func (r *rp2Pin) Number() int { return r.n }

// The RP2 port provides SetInterrupt with PinChange flags.
func (r *rp2Pin) SetIRQ(edge halcore.Edge, handler func()) error {
	return r.p.SetInterrupt(toPinChange(edge), func(machine.Pin) { handler() })
}

func (r *rp2Pin) ClearIRQ() error {
	var zero machine.PinChange
	return r.p.SetInterrupt(zero, nil)
}

func toPinChange(e halcore.Edge) machine.PinChange {
	switch e {
	case halcore.EdgeRising:
		return machine.PinRising
	case halcore.EdgeFalling:
		return machine.PinFalling
	case halcore.EdgeBoth:
		return machine.PinToggle
	default:
		var zero machine.PinChange
		return zero
	}
}

// -----------------------------------------------------------------------------
// ADC
// -----------------------------------------------------------------------------

// rp2ADC multiplexes the four external inputs (GP26..GP29).
type rp2ADC struct {
	mu  sync.Mutex
	ch  [4]machine.ADC
	sel int
}

func newRP2ADC() *rp2ADC {
	a := &rp2ADC{}
	for i := range a.ch {
		a.ch[i] = machine.ADC{Pin: machine.Pin(26 + i)}
	}
	return a
}

func (a *rp2ADC) SelectChannel(ch int) error {
	if ch < 0 || ch >= len(a.ch) {
		return &errcode.E{C: errcode.InvalidParams, Op: "adc.select", Msg: "no such channel"}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ch[ch].Configure(machine.ADCConfig{})
	a.sel = ch
	return nil
}

// Read returns the selected input at 12-bit resolution. machine.ADC.Get
// scales to 16 bits.
func (a *rp2ADC) Read() (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ch[a.sel].Get() >> 4, nil
}

// -----------------------------------------------------------------------------
// PWM (RP2040)
// -----------------------------------------------------------------------------

// Local interface to avoid depending on an unexported concrete type in machine.
type pwmCtrl interface {
	Configure(cfg machine.PWMConfig) error
	Top() uint32
	Set(channel uint8, value uint32)
}

// Select controller handle for a given slice number (0..7).
func pwmGroupBySlice(slice uint8) pwmCtrl {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

type sliceCfg struct {
	freqHz uint64
	users  int
}

// Per-slice frequency compatibility. GP12 and GP13 (blue, red) share slice 6.
var globalPWM struct {
	mu    sync.Mutex
	slice map[int]*sliceCfg
}

func init() {
	globalPWM.slice = make(map[int]*sliceCfg)
}

// rp2PWM is one channel of a slice.
type rp2PWM struct {
	mu sync.Mutex

	pin   int
	ctrl  pwmCtrl
	chIdx uint8 // 0 => A, 1 => B
	slice int

	reqTop uint16 // logical resolution
	freqHz uint64
	hwTop  uint32 // controller.Top() after Configure
	level  uint16

	registered bool // counted in slice users
}

func newRP2PWM(pin int) (*rp2PWM, error) {
	sliceNum, err := machine.PWMPeripheral(machine.Pin(pin))
	if err != nil {
		return nil, &errcode.E{C: errcode.Unsupported, Op: "hal.pwm", Msg: "pin has no pwm", Err: err}
	}
	return &rp2PWM{
		pin:   pin,
		ctrl:  pwmGroupBySlice(sliceNum),
		chIdx: uint8(pin & 1), // even pin => A, odd => B
		slice: int(sliceNum),
	}, nil
}

// caller holds lock
func (p *rp2PWM) setHW(logical uint16) {
	if p.hwTop == 0 || p.reqTop == 0 {
		return
	}
	logical = mathx.Min(logical, p.reqTop)
	// Scale from logical [0..reqTop] to hardware [0..hwTop].
	hw := (uint32(logical) * p.hwTop) / uint32(p.reqTop)
	p.ctrl.Set(p.chIdx, hw)
	p.level = logical
}

func (p *rp2PWM) Configure(freqHz uint64, top uint16) error {
	top = mathx.Max(top, 1)
	freqHz = mathx.Max(freqHz, 1)

	globalPWM.mu.Lock()
	defer globalPWM.mu.Unlock()

	sc := globalPWM.slice[p.slice]
	if sc == nil {
		sc = &sliceCfg{}
		globalPWM.slice[p.slice] = sc
	}

	switch {
	case sc.users == 0:
		// First writer sets the slice period.
		if err := p.ctrl.Configure(machine.PWMConfig{Period: timex.PeriodFromHz(freqHz)}); err != nil {
			return errcode.Wrap(errcode.MapDriverErr(err), "hal.pwm", err)
		}
		sc.freqHz = freqHz
		sc.users = 1
		p.registered = true
	case !p.registered:
		if sc.freqHz != freqHz {
			return &errcode.E{C: errcode.Conflict, Op: "hal.pwm", Msg: "slice already runs at another frequency"}
		}
		sc.users++
		p.registered = true
	case sc.freqHz != freqHz:
		if sc.users != 1 {
			return &errcode.E{C: errcode.Conflict, Op: "hal.pwm", Msg: "slice shared"}
		}
		// Sole user may retune.
		if err := p.ctrl.Configure(machine.PWMConfig{Period: timex.PeriodFromHz(freqHz)}); err != nil {
			return errcode.Wrap(errcode.MapDriverErr(err), "hal.pwm", err)
		}
		sc.freqHz = freqHz
	}

	machine.Pin(p.pin).Configure(machine.PinConfig{Mode: machine.PinPWM})

	p.mu.Lock()
	p.freqHz = freqHz
	p.reqTop = top
	p.hwTop = p.ctrl.Top()
	p.mu.Unlock()
	return nil
}

func (p *rp2PWM) Set(level uint16) {
	p.mu.Lock()
	p.setHW(level)
	p.mu.Unlock()
}

func (p *rp2PWM) Level() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// -----------------------------------------------------------------------------
// I²C owner (one worker per bus)
// -----------------------------------------------------------------------------

// request posted to the per-bus worker
type i2cReq struct {
	addr uint16
	w, r []byte
	done chan error // buffered(1); worker replies best-effort
}

// i2cOwner serialises every transaction on one bus through a single
// goroutine, so a border redraw from the button worker and a frame from the
// control loop never interleave on the wire.
type i2cOwner struct {
	id   string
	hw   *machine.I2C
	reqs chan i2cReq
	quit chan struct{}
}

func newI2COwner(id string, hw *machine.I2C) *i2cOwner {
	o := &i2cOwner{
		id:   id,
		hw:   hw,
		reqs: make(chan i2cReq, 16),
		quit: make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *i2cOwner) loop() {
	for {
		select {
		case req := <-o.reqs:
			err := o.hw.Tx(req.addr, req.w, req.r)
			select {
			case req.done <- err:
			default:
			}
		case <-o.quit:
			return
		}
	}
}

func (o *i2cOwner) stop() { close(o.quit) }

// driversI2C adapts the owner to tinygo.org/x/drivers.I2C.
type driversI2C struct {
	o       *i2cOwner
	timeout time.Duration // 0 => no deadline
}

var _ drivers.I2C = (*driversI2C)(nil)

func (d *driversI2C) Tx(addr uint16, w, r []byte) error {
	req := i2cReq{addr: addr, w: w, r: r, done: make(chan error, 1)}

	if d.timeout <= 0 {
		d.o.reqs <- req
		return <-req.done
	}

	t := time.NewTimer(d.timeout)
	defer t.Stop()
	select {
	case d.o.reqs <- req:
	case <-t.C:
		return errcode.Busy
	}
	timex.ResetTimer(t, d.timeout)
	select {
	case err := <-req.done:
		return err
	case <-t.C:
		return errcode.Timeout
	}
}
