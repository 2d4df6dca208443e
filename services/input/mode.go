package input

import (
	"sync/atomic"

	"joyled/types"
)

// LEDMode selects which PWM channels follow the joystick.
type LEDMode uint32

const (
	LEDOff LEDMode = iota
	LEDRed
	LEDBlue
	LEDBoth

	numLEDModes
)

// Next returns the following mode, wrapping Both back to Off.
func (m LEDMode) Next() LEDMode { return (m + 1) % numLEDModes }

func (m LEDMode) String() string {
	switch m {
	case LEDOff:
		return "off"
	case LEDRed:
		return "red"
	case LEDBlue:
		return "blue"
	case LEDBoth:
		return "both"
	default:
		return "invalid"
	}
}

// ModeState is written only by the debouncer worker and read by the control
// loop and renderer. Each field is a single word accessed atomically, so a
// reader sees either the old or the new value, never a torn one.
type ModeState struct {
	mode      uint32
	border    uint32
	indicator uint32
}

func (s *ModeState) LEDMode() LEDMode    { return LEDMode(atomic.LoadUint32(&s.mode)) }
func (s *ModeState) BorderDoubled() bool { return atomic.LoadUint32(&s.border) != 0 }
func (s *ModeState) Indicator() bool     { return atomic.LoadUint32(&s.indicator) != 0 }

// AdvanceLEDMode moves to the next mode and returns it.
func (s *ModeState) AdvanceLEDMode() LEDMode {
	for {
		old := atomic.LoadUint32(&s.mode)
		next := uint32(LEDMode(old).Next())
		if atomic.CompareAndSwapUint32(&s.mode, old, next) {
			return LEDMode(next)
		}
	}
}

// ToggleBorder flips the border style and returns true if it is now doubled.
func (s *ModeState) ToggleBorder() bool { return toggle(&s.border) }

// ToggleIndicator flips the discrete LED flag and returns the new level.
func (s *ModeState) ToggleIndicator() bool { return toggle(&s.indicator) }

// Snapshot returns the bus payload for the current state.
func (s *ModeState) Snapshot() types.ModeValue {
	return types.ModeValue{
		LEDMode:       s.LEDMode().String(),
		BorderDoubled: s.BorderDoubled(),
		Indicator:     s.Indicator(),
	}
}

func toggle(p *uint32) bool {
	for {
		old := atomic.LoadUint32(p)
		if atomic.CompareAndSwapUint32(p, old, old^1) {
			return old == 0
		}
	}
}
