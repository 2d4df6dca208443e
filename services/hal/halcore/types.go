// services/hal/halcore/types.go
package halcore

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Toggle()
	Number() int
}

// Edge selection for IRQ.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}

// IRQPin extends GPIOPin with interrupts. The handler runs in interrupt
// context on hardware: it must not block or allocate.
type IRQPin interface {
	GPIOPin
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// ---- Analog input ----

// ADC is a multiplexed 12-bit converter: select an input, then read it.
// Read returns a value in 0..4095.
type ADC interface {
	SelectChannel(ch int) error
	Read() (uint16, error)
}

// ---- PWM ----

// PWM is one output channel with a logical resolution of 0..top.
type PWM interface {
	Configure(freqHz uint64, top uint16) error
	Set(level uint16)
	Level() uint16
}

// ---- System ----

// Clock is a wrapping millisecond counter since boot.
type Clock interface {
	NowMs() uint32
}

// Bootloader reboots into the firmware-update mode. On hardware it does not
// return.
type Bootloader interface {
	EnterBootloader()
}

// BootloaderFunc adapts a function to Bootloader.
type BootloaderFunc func()

func (f BootloaderFunc) EnterBootloader() { f() }
