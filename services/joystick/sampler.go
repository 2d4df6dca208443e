package joystick

import (
	"joyled/errcode"
	"joyled/services/hal/halcore"
	"joyled/types"
	"joyled/x/mathx"
)

// Sampler reads both joystick axes and applies the boot-time calibration.
//
// The X sensor on this stick occasionally reports a value past the end of the
// ADC range while it crosses zero. An X sample whose calibrated value falls
// outside 0..4095 is discarded and the last accepted X value is reported
// instead (hold, not clamp). Y has no such filter; it is only saturated to the
// ADC domain.
type Sampler struct {
	adc      halcore.ADC
	xCh, yCh int
	off      types.CalibrationOffset

	lastX uint16 // last accepted X; owned by the control loop goroutine
}

// NewSampler binds a sampler to the given channels and offsets.
func NewSampler(adc halcore.ADC, xCh, yCh int, off types.CalibrationOffset) *Sampler {
	return &Sampler{
		adc:   adc,
		xCh:   xCh,
		yCh:   yCh,
		off:   off,
		lastX: types.ADCMidpoint,
	}
}

func (s *Sampler) Offset() types.CalibrationOffset { return s.off }

// LastX is the value the hold filter would substitute on the next glitch.
func (s *Sampler) LastX() uint16 { return s.lastX }

// Sample reads X then Y. A read error aborts the tick without touching the
// hold state.
func (s *Sampler) Sample() (x, y types.AxisSample, err error) {
	rx, err := readChannel(s.adc, s.xCh, "joystick.sample.x")
	if err != nil {
		return x, y, err
	}
	x = s.FilterX(rx)

	ry, err := readChannel(s.adc, s.yCh, "joystick.sample.y")
	if err != nil {
		return x, y, err
	}
	y = s.CalibrateY(ry)
	return x, y, nil
}

// FilterX applies the X offset and the hold filter to a raw reading.
func (s *Sampler) FilterX(raw uint16) types.AxisSample {
	a := types.AxisSample{Raw: raw, Offset: s.off.X}
	v := int32(raw) + int32(s.off.X)
	if v < 0 || v > types.ADCMax {
		a.Calibrated = s.lastX
		a.Held = true
		return a
	}
	a.Calibrated = uint16(v)
	s.lastX = a.Calibrated
	return a
}

// CalibrateY applies the Y offset, saturating to the ADC domain.
func (s *Sampler) CalibrateY(raw uint16) types.AxisSample {
	v := int32(raw) + int32(s.off.Y)
	return types.AxisSample{
		Raw:        raw,
		Offset:     s.off.Y,
		Calibrated: uint16(mathx.Clamp(v, 0, types.ADCMax)),
	}
}

// readChannel selects ch and reads it.
func readChannel(adc halcore.ADC, ch int, op string) (uint16, error) {
	if err := adc.SelectChannel(ch); err != nil {
		return 0, errcode.Wrap(errcode.ADCReadFailed, op, err)
	}
	v, err := adc.Read()
	if err != nil {
		return 0, errcode.Wrap(errcode.ADCReadFailed, op, err)
	}
	return v, nil
}
