package types

import (
	"joyled/errcode"
)

// BoardConfig describes the wiring and operating parameters of one board.
// Firmware builds use DefaultBoard; the host simulator may override fields
// from a YAML file.
type BoardConfig struct {
	Name     string         `yaml:"name"`
	Joystick JoystickConfig `yaml:"joystick"`
	LEDs     LEDConfig      `yaml:"leds"`
	Buttons  ButtonConfig   `yaml:"buttons"`
	Display  DisplayConfig  `yaml:"display"`
	Console  ConsoleConfig  `yaml:"console"`
	TickMs   uint32         `yaml:"tick_ms"`
}

type JoystickConfig struct {
	XChannel int `yaml:"x_channel"` // ADC input index
	YChannel int `yaml:"y_channel"`
	XPin     int `yaml:"x_pin"` // GPIO backing the channel
	YPin     int `yaml:"y_pin"`
}

type LEDConfig struct {
	Red    int    `yaml:"red"`
	Green  int    `yaml:"green"` // discrete on/off indicator
	Blue   int    `yaml:"blue"`
	Top    uint16 `yaml:"pwm_top"`
	FreqHz uint64 `yaml:"pwm_freq_hz"`

	// ActiveLow inverts the PWM duty for LEDs sinking to the pin.
	ActiveLow bool `yaml:"active_low"`
}

type ButtonConfig struct {
	A          int    `yaml:"a"`
	B          int    `yaml:"b"`
	Joystick   int    `yaml:"joystick"`
	DebounceMs uint32 `yaml:"debounce_ms"`
}

type DisplayConfig struct {
	Bus     string `yaml:"bus"` // "i2c0" or "i2c1"
	SDA     int    `yaml:"sda"`
	SCL     int    `yaml:"scl"`
	Hz      uint32 `yaml:"hz"`
	Address uint16 `yaml:"address"`
	Width   int16  `yaml:"width"`
	Height  int16  `yaml:"height"`
}

type ConsoleConfig struct {
	UART bool   `yaml:"uart"` // mirror console lines to uart0
	TX   int    `yaml:"tx"`
	RX   int    `yaml:"rx"`
	Baud uint32 `yaml:"baud"`
}

// DefaultBoard is the BitDogLab wiring (Raspberry Pi Pico W carrier).
func DefaultBoard() BoardConfig {
	return BoardConfig{
		Name: "bitdoglab",
		Joystick: JoystickConfig{
			XChannel: 1, XPin: 27,
			YChannel: 0, YPin: 26,
		},
		LEDs: LEDConfig{
			Red: 13, Green: 11, Blue: 12,
			Top: 2048,
			// 125 MHz / clkdiv 4 / (2048+1)
			FreqHz: 15_251,
		},
		Buttons: ButtonConfig{
			A: 5, B: 6, Joystick: 22,
			DebounceMs: 200,
		},
		Display: DisplayConfig{
			Bus: "i2c1", SDA: 14, SCL: 15, Hz: 400_000,
			Address: 0x3C,
			Width:   128, Height: 64,
		},
		Console: ConsoleConfig{UART: true, TX: 0, RX: 1, Baud: 115_200},
		TickMs:  100,
	}
}

// Validate checks ranges that the rest of the system relies on.
func (c BoardConfig) Validate() error {
	bad := func(msg string) error {
		return &errcode.E{C: errcode.InvalidParams, Op: "board." + c.Name, Msg: msg}
	}
	for _, ch := range []int{c.Joystick.XChannel, c.Joystick.YChannel} {
		if ch < 0 || ch > 3 {
			return bad("adc channel out of range")
		}
	}
	if c.Joystick.XChannel == c.Joystick.YChannel {
		return bad("joystick axes share an adc channel")
	}
	pins := []int{c.LEDs.Red, c.LEDs.Green, c.LEDs.Blue, c.Buttons.A, c.Buttons.B, c.Buttons.Joystick}
	seen := make(map[int]bool, len(pins))
	for _, p := range pins {
		if p < 0 || p > 28 {
			return bad("gpio out of range")
		}
		if seen[p] {
			return bad("gpio assigned twice")
		}
		seen[p] = true
	}
	if c.LEDs.Top == 0 {
		return bad("pwm top must be > 0")
	}
	if c.Display.Width < 16 || c.Display.Height < 16 {
		return bad("display too small")
	}
	if c.TickMs == 0 {
		return bad("tick period must be > 0")
	}
	return nil
}
