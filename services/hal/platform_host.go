//go:build !rp2040

package hal

import (
	"image/color"
	"os"
	"sync"
	"sync/atomic"

	"joyled/errcode"
	"joyled/services/hal/halcore"
	"joyled/types"
	"joyled/x/timex"
)

// HostRig exposes the fakes behind a host Board so tests and the simulator can
// move the stick, press buttons and inspect outputs.
type HostRig struct {
	ADC       *FakeADC
	Red, Blue *FakePWM
	Green     *FakePin
	ButtonA   *FakePin
	ButtonB   *FakePin
	ButtonJoy *FakePin
	Display   *MonoFramebuffer
	Boot      *FakeBootloader
}

type platform struct {
	rig *HostRig
}

// Host returns the fakes behind b.
func (b *Board) Host() *HostRig { return b.plat.rig }

func (b *Board) openPlatform() error {
	if err := b.claimBoard(); err != nil {
		return err
	}
	cfg := b.Config
	rig := &HostRig{
		ADC:       NewFakeADC(),
		Red:       &FakePWM{},
		Blue:      &FakePWM{},
		Green:     &FakePin{number: cfg.LEDs.Green},
		ButtonA:   &FakePin{number: cfg.Buttons.A},
		ButtonB:   &FakePin{number: cfg.Buttons.B},
		ButtonJoy: &FakePin{number: cfg.Buttons.Joystick},
		Display:   NewMonoFramebuffer(cfg.Display.Width, cfg.Display.Height),
		Boot:      &FakeBootloader{},
	}
	// Resting stick.
	rig.ADC.Set(cfg.Joystick.XChannel, types.ADCMidpoint)
	rig.ADC.Set(cfg.Joystick.YChannel, types.ADCMidpoint)

	if err := rig.Green.ConfigureOutput(false); err != nil {
		return err
	}

	b.plat.rig = rig
	b.ADC = rig.ADC
	b.Red, b.Blue = rig.Red, rig.Blue
	b.Green = rig.Green
	b.ButtonA, b.ButtonB, b.ButtonJoy = rig.ButtonA, rig.ButtonB, rig.ButtonJoy
	b.Display = rig.Display
	b.Console = os.Stdout
	b.Boot = rig.Boot
	b.Clock = timex.NewMonotonic()
	return nil
}

func (b *Board) closePlatform() {}

// ----------------------------- ADC (host) ------------------------------------

// FakeADC holds one settable value per channel.
type FakeADC struct {
	mu   sync.Mutex
	vals [4]uint16
	errs [4]error
	sel  int
}

func NewFakeADC() *FakeADC { return &FakeADC{} }

func (a *FakeADC) SelectChannel(ch int) error {
	if ch < 0 || ch >= len(a.vals) {
		return &errcode.E{C: errcode.InvalidParams, Op: "adc.select", Msg: "no such channel"}
	}
	a.mu.Lock()
	a.sel = ch
	a.mu.Unlock()
	return nil
}

func (a *FakeADC) Read() (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.errs[a.sel]; err != nil {
		return 0, err
	}
	return a.vals[a.sel], nil
}

// Set stores the raw reading for ch. Values above 4095 are kept as-is so
// out-of-range glitches can be simulated.
func (a *FakeADC) Set(ch int, v uint16) {
	a.mu.Lock()
	a.vals[ch] = v
	a.mu.Unlock()
}

// Get returns the stored raw reading for ch.
func (a *FakeADC) Get(ch int) uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vals[ch]
}

// FailNext makes reads of ch return err until cleared with nil.
func (a *FakeADC) FailNext(ch int, err error) {
	a.mu.Lock()
	a.errs[ch] = err
	a.mu.Unlock()
}

// ----------------------------- PWM (host) ------------------------------------

// FakePWM records configuration and level.
type FakePWM struct {
	freqHz uint64
	top    uint32
	level  uint32
}

func (p *FakePWM) Configure(freqHz uint64, top uint16) error {
	if top == 0 {
		return errcode.InvalidParams
	}
	atomic.StoreUint64(&p.freqHz, freqHz)
	atomic.StoreUint32(&p.top, uint32(top))
	return nil
}

func (p *FakePWM) Set(level uint16) {
	top := uint16(atomic.LoadUint32(&p.top))
	if level > top {
		level = top
	}
	atomic.StoreUint32(&p.level, uint32(level))
}

func (p *FakePWM) Level() uint16 { return uint16(atomic.LoadUint32(&p.level)) }

// Top is the configured wrap value.
func (p *FakePWM) Top() uint16 { return uint16(atomic.LoadUint32(&p.top)) }

// FreqHz is the configured frequency.
func (p *FakePWM) FreqHz() uint64 { return atomic.LoadUint64(&p.freqHz) }

// Brightness is Level/Top in [0,1].
func (p *FakePWM) Brightness() float32 {
	top := p.Top()
	if top == 0 {
		return 0
	}
	return float32(p.Level()) / float32(top)
}

// ----------------------------- GPIO (host) -----------------------------------

// FakePin implements GPIOPin and IRQPin. Changing the level through Set runs
// the interrupt handler synchronously when the edge matches.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	pull    halcore.Pull
	irqEdge halcore.Edge
	irqFunc func()
}

func (p *FakePin) ConfigureInput(pull halcore.Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.pull = pull
	// Idle level follows the pull resistor.
	p.level = pull == halcore.PullUp
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	irq := p.irqFunc
	want := irqWanted(p.irqEdge, edgeFrom(old, level))
	p.mu.Unlock()
	if want && irq != nil {
		irq() // ISR-style callback
	}
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Toggle()     { p.Set(!p.Get()) }
func (p *FakePin) Number() int { return p.number }

func (p *FakePin) SetIRQ(edge halcore.Edge, handler func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.modeOut {
		return &errcode.E{C: errcode.Unsupported, Op: "gpio.irq", Msg: "pin is an output"}
	}
	p.irqEdge = edge
	p.irqFunc = handler
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = halcore.EdgeNone
	p.irqFunc = nil
	p.mu.Unlock()
	return nil
}

// Press pulls a pulled-up button low and releases it.
func (p *FakePin) Press() {
	p.Set(false)
	p.Set(true)
}

func edgeFrom(old, new bool) halcore.Edge {
	switch {
	case !old && new:
		return halcore.EdgeRising
	case old && !new:
		return halcore.EdgeFalling
	default:
		return halcore.EdgeNone
	}
}

func irqWanted(cfg, got halcore.Edge) bool {
	if got == halcore.EdgeNone {
		return false
	}
	return cfg == halcore.EdgeBoth || cfg == got
}

// ----------------------------- Display (host) --------------------------------

// MonoFramebuffer is a 1-bpp panel that satisfies drivers.Displayer and, like
// ssd1306.Device, keeps drawing in a buffer until Display is called.
type MonoFramebuffer struct {
	mu      sync.Mutex
	w, h    int16
	back    []bool
	front   []bool
	flushes uint32
}

func NewMonoFramebuffer(w, h int16) *MonoFramebuffer {
	n := int(w) * int(h)
	return &MonoFramebuffer{w: w, h: h, back: make([]bool, n), front: make([]bool, n)}
}

func (f *MonoFramebuffer) Size() (x, y int16) { return f.w, f.h }

func (f *MonoFramebuffer) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return
	}
	f.mu.Lock()
	f.back[int(y)*int(f.w)+int(x)] = c.R|c.G|c.B != 0
	f.mu.Unlock()
}

func (f *MonoFramebuffer) Display() error {
	f.mu.Lock()
	copy(f.front, f.back)
	f.flushes++
	f.mu.Unlock()
	return nil
}

func (f *MonoFramebuffer) ClearBuffer() {
	f.mu.Lock()
	for i := range f.back {
		f.back[i] = false
	}
	f.mu.Unlock()
}

// Lit reports whether (x, y) is on in the last flushed frame.
func (f *MonoFramebuffer) Lit(x, y int) bool {
	if x < 0 || y < 0 || x >= int(f.w) || y >= int(f.h) {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.front[y*int(f.w)+x]
}

// Flushes counts Display calls.
func (f *MonoFramebuffer) Flushes() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes
}

// Frame copies the last flushed frame, row-major.
func (f *MonoFramebuffer) Frame(dst []bool) []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(dst[:0], f.front...)
}

// ----------------------------- System (host) ---------------------------------

// FakeBootloader counts reboot requests instead of rebooting.
type FakeBootloader struct{ n uint32 }

func (b *FakeBootloader) EnterBootloader() {
	atomic.AddUint32(&b.n, 1)
	println("[hal] bootloader requested (host: ignored)")
}

// Requests is the number of EnterBootloader calls.
func (b *FakeBootloader) Requests() uint32 { return atomic.LoadUint32(&b.n) }
