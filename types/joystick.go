package types

// ADC domain of the 12-bit converter.
const (
	ADCMax      = 4095
	ADCMidpoint = 2048
)

// AxisSample is one axis reading for one tick.
// Calibrated is always within 0..ADCMax.
type AxisSample struct {
	Raw        uint16
	Offset     int16
	Calibrated uint16
	Held       bool // calibrated value carried over from an earlier tick
}

// Normalized returns Calibrated / ADCMax.
func (a AxisSample) Normalized() float32 {
	return float32(a.Calibrated) / ADCMax
}

// CalibrationOffset is captured once at boot so that the resting stick reads
// the ADC midpoint.
type CalibrationOffset struct {
	X int16
	Y int16
}

// NormalizedPosition has both axes in [0,1].
type NormalizedPosition struct {
	X float32
	Y float32
}

// PixelCoordinate is the top-left corner of the position indicator.
type PixelCoordinate struct {
	X uint8
	Y uint8
}
