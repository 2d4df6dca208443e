// Package hal opens the peripherals of one board: the joystick ADC, the LED
// PWM channels and indicator pin, the three buttons, the display, the console
// and the system clock/bootloader. The rp2040 build drives the real hardware;
// every other build gets in-memory fakes that tests and the simulator can
// drive.
package hal

import (
	"io"
	"sync"

	"joyled/errcode"
	"joyled/services/hal/halcore"
	"joyled/types"

	"tinygo.org/x/drivers"
)

// Board is the opened peripheral set.
type Board struct {
	Config types.BoardConfig

	ADC       halcore.ADC
	Red, Blue halcore.PWM
	Green     halcore.GPIOPin

	ButtonA   halcore.IRQPin
	ButtonB   halcore.IRQPin
	ButtonJoy halcore.IRQPin

	Display drivers.Displayer
	Console io.Writer
	Boot    halcore.Bootloader
	Clock   halcore.Clock

	claims *pinClaims
	plat   platform
}

// Open validates cfg and brings up every peripheral it names.
func Open(cfg types.BoardConfig) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Board{Config: cfg, claims: newPinClaims()}
	if err := b.openPlatform(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// Close stops background workers and releases claimed pins.
func (b *Board) Close() {
	b.closePlatform()
	b.claims.releaseAll()
}

// Claims lists the pins taken and the function that owns each.
func (b *Board) Claims() map[int]string { return b.claims.snapshot() }

// -----------------------------------------------------------------------------
// Pin ownership
// -----------------------------------------------------------------------------

const (
	gpioMin = 0
	gpioMax = 28
)

type pinClaims struct {
	mu     sync.Mutex
	owners map[int]string // pin -> owner
}

func newPinClaims() *pinClaims { return &pinClaims{owners: make(map[int]string)} }

func (c *pinClaims) claim(owner string, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < gpioMin || n > gpioMax {
		return &errcode.E{C: errcode.UnknownPin, Op: "hal.claim", Msg: owner}
	}
	if cur, inUse := c.owners[n]; inUse && cur != owner {
		return &errcode.E{C: errcode.PinInUse, Op: "hal.claim", Msg: owner + " vs " + cur}
	}
	c.owners[n] = owner
	return nil
}

func (c *pinClaims) releaseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for n := range c.owners {
		delete(c.owners, n)
	}
}

func (c *pinClaims) snapshot() map[int]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]string, len(c.owners))
	for n, o := range c.owners {
		out[n] = o
	}
	return out
}

type pinUse struct {
	owner string
	n     int
}

// claimBoard takes every pin in the board wiring.
func (b *Board) claimBoard() error {
	cfg := b.Config
	pins := []pinUse{
		{"joystick.x", cfg.Joystick.XPin},
		{"joystick.y", cfg.Joystick.YPin},
		{"led.red", cfg.LEDs.Red},
		{"led.green", cfg.LEDs.Green},
		{"led.blue", cfg.LEDs.Blue},
		{"button.a", cfg.Buttons.A},
		{"button.b", cfg.Buttons.B},
		{"button.joystick", cfg.Buttons.Joystick},
		{"display.sda", cfg.Display.SDA},
		{"display.scl", cfg.Display.SCL},
	}
	if cfg.Console.UART {
		pins = append(pins, pinUse{"console.tx", cfg.Console.TX}, pinUse{"console.rx", cfg.Console.RX})
	}
	for _, p := range pins {
		if err := b.claims.claim(p.owner, p.n); err != nil {
			return err
		}
	}
	return nil
}
