// Package hal holds the pin abstractions shared by the input dispatcher, the
// indicator/beeper sinks and the heartbeat, with a host implementation for
// the simulator and tests and an RP2 implementation over machine.Pin.
package hal

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
// context on the MCU and must not block or allocate.
type IRQPin interface {
	GPIOPin
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// PinFactory supplies GPIO pins by the board's number scheme.
type PinFactory interface {
	ByNumber(n int) (IRQPin, bool)
}

// ActiveLow reports a pull-up button as pressed when its line reads low.
func ActiveLow(p GPIOPin) func() bool {
	return func() bool { return !p.Get() }
}
