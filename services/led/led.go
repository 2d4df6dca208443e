package led

import (
	"joyled/errcode"
	"joyled/services/hal/halcore"
	"joyled/services/input"
	"joyled/types"
	"joyled/x/mathx"
)

// Period is the PWM wrap value used on the BitDogLab board.
const Period = 2048

// Duty maps a calibrated sample onto 0..top: sample*top/4095, truncating.
func Duty(sample, top uint16) uint16 {
	return mathx.MapU16(sample, 0, types.ADCMax, 0, top)
}

// Select picks the per-channel duty for mode. Red follows X, blue follows Y.
func Select(mode input.LEDMode, xDuty, yDuty uint16) (red, blue uint16) {
	switch mode {
	case input.LEDRed:
		return xDuty, 0
	case input.LEDBlue:
		return 0, yDuty
	case input.LEDBoth:
		return xDuty, yDuty
	default:
		return 0, 0
	}
}

// Channel is one PWM output with a logical level in 0..top.
type Channel struct {
	pwm       halcore.PWM
	top       uint16
	activeLow bool
}

func (c *Channel) clamp(lvl uint16) uint16 {
	if c.top == 0 {
		return 0
	}
	if lvl > c.top {
		return c.top
	}
	return lvl
}

func (c *Channel) toPhys(logical uint16) uint16 {
	l := c.clamp(logical)
	if !c.activeLow {
		return l
	}
	return c.top - l
}

// Set drives the logical level.
func (c *Channel) Set(logical uint16) { c.pwm.Set(c.toPhys(logical)) }

// Driver owns the red and blue channels.
type Driver struct {
	Red  *Channel
	Blue *Channel
	top  uint16
}

// NewDriver configures both channels for freqHz and top and starts them dark.
// With activeLow the physical duty is inverted (LED wired to the supply rail).
func NewDriver(red, blue halcore.PWM, freqHz uint64, top uint16, activeLow bool) (*Driver, error) {
	if red == nil || blue == nil || top == 0 {
		return nil, errcode.InvalidParams
	}
	d := &Driver{
		Red:  &Channel{pwm: red, top: top, activeLow: activeLow},
		Blue: &Channel{pwm: blue, top: top, activeLow: activeLow},
		top:  top,
	}
	for _, p := range []halcore.PWM{red, blue} {
		if err := p.Configure(freqHz, top); err != nil {
			return nil, errcode.Wrap(errcode.MapDriverErr(err), "led.configure", err)
		}
	}
	d.Red.Set(0)
	d.Blue.Set(0)
	return d, nil
}

// Apply maps the two calibrated samples through mode and drives the outputs.
// It returns the levels written.
func (d *Driver) Apply(mode input.LEDMode, x, y uint16) (red, blue uint16) {
	red, blue = Select(mode, Duty(x, d.top), Duty(y, d.top))
	d.Red.Set(red)
	d.Blue.Set(blue)
	return red, blue
}
