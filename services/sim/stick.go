//go:build !tinygo

// Package sim drives the host build: a joystick model over the fake ADC, a
// console that feeds slog, board overrides from YAML and a scripted headless
// run.
package sim

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"joyled/services/hal"
	"joyled/types"
	"joyled/x/mathx"

	"gopkg.in/yaml.v3"
)

// Stick models the analog joystick feeding the fake ADC. Position is in
// [-1,1] per axis with 0 at rest. The resting reading is the midpoint plus a
// per-axis bias so calibration has something to remove; full deflection on
// the biased side then corrects past the 12-bit range and trips the X hold.
type Stick struct {
	mu     sync.Mutex
	adc    *hal.FakeADC
	xCh    int
	yCh    int
	biasX  int
	biasY  int
	px, py float32
}

func NewStick(adc *hal.FakeADC, j types.JoystickConfig, biasX, biasY int) *Stick {
	return &Stick{adc: adc, xCh: j.XChannel, yCh: j.YChannel, biasX: biasX, biasY: biasY}
}

// Move sets the stick position and updates the ADC inputs.
func (s *Stick) Move(x, y float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.px = mathx.Clamp(x, -1, 1)
	s.py = mathx.Clamp(y, -1, 1)
	s.adc.Set(s.xCh, RawFor(s.px, s.biasX))
	s.adc.Set(s.yCh, RawFor(s.py, s.biasY))
}

// Release lets the stick spring back to rest.
func (s *Stick) Release() { s.Move(0, 0) }

func (s *Stick) Position() (x, y float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.px, s.py
}

// RawFor maps a position onto a biased 12-bit reading. Full deflection
// reaches the ADC rails regardless of bias.
func RawFor(p float32, bias int) uint16 {
	rest := mathx.Clamp(types.ADCMidpoint+bias, 0, types.ADCMax)
	var v int
	if p >= 0 {
		v = rest + int(p*float32(types.ADCMax-rest))
	} else {
		v = rest + int(p*float32(rest))
	}
	return uint16(mathx.Clamp(v, 0, types.ADCMax))
}

// ManualClock is a millisecond counter advanced by hand.
type ManualClock struct{ ms uint32 }

func (c *ManualClock) NowMs() uint32     { return atomic.LoadUint32(&c.ms) }
func (c *ManualClock) Advance(ms uint32) { atomic.AddUint32(&c.ms, ms) }

// LoadBoard returns the default board with any fields present in the YAML
// file at path overridden. An empty path returns the default.
func LoadBoard(path string) (types.BoardConfig, error) {
	cfg := types.DefaultBoard()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read board file: %w", err)
	}
	return ParseBoard(b)
}

// ParseBoard applies YAML overrides to the default board and validates it.
func ParseBoard(b []byte) (types.BoardConfig, error) {
	cfg := types.DefaultBoard()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse board file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
