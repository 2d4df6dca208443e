package joystick

import (
	"joyled/errcode"
	"joyled/services/hal/halcore"
	"joyled/types"
)

// Calibrate reads each axis once, with no offset applied, and returns the
// offsets that move the resting position to the ADC midpoint.
//
// It must run after peripheral init and before the first Sample. An axis
// whose read fails (or returns a value outside the 12-bit domain) keeps a zero
// offset; the first such failure is returned alongside the usable result.
func Calibrate(adc halcore.ADC, xCh, yCh int) (types.CalibrationOffset, error) {
	var off types.CalibrationOffset

	x, errX := readRaw(adc, xCh, "joystick.calibrate.x")
	if errX == nil {
		off.X = types.ADCMidpoint - int16(x)
	}
	y, errY := readRaw(adc, yCh, "joystick.calibrate.y")
	if errY == nil {
		off.Y = types.ADCMidpoint - int16(y)
	}

	if errX != nil {
		return off, errX
	}
	return off, errY
}

// readRaw reads ch without offset and rejects values outside the 12-bit domain.
func readRaw(adc halcore.ADC, ch int, op string) (uint16, error) {
	v, err := readChannel(adc, ch, op)
	if err != nil {
		return 0, err
	}
	if v > types.ADCMax {
		return 0, &errcode.E{C: errcode.OutOfRange, Op: op, Msg: "reading above 4095"}
	}
	return v, nil
}
