package types

// Payloads published on the internal bus.

// Topic tokens.
const (
	TopicJoy    = "joy"
	TopicSample = "sample"
	TopicCal    = "calibration"

	TopicInput = "input"
	TopicMode  = "mode"
	TopicEvent = "event"
	TopicStats = "stats"
)

// SampleValue is published once per control tick.
type SampleValue struct {
	X, Y     AxisSample
	Pixel    PixelCoordinate
	RedDuty  uint16
	BlueDuty uint16
	Mode     string
	Tick     uint32
}

// ModeValue is the retained mode/border/indicator state.
type ModeValue struct {
	LEDMode       string
	BorderDoubled bool
	Indicator     bool
}

// ButtonEvent is published for every accepted (debounced) edge.
type ButtonEvent struct {
	Button string
	AtMs   uint32
}

// InputStats reports debouncer counters.
type InputStats struct {
	Accepted uint32
	Rejected uint32
	Dropped  uint32 // interrupt queue overflow
}
