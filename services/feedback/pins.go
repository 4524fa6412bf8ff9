package feedback

import (
	"time"

	"datalogger-go/services/hal"
	"datalogger-go/types"
)

// PinIndicator drives a common-cathode RGB LED from three GPIOs.
type PinIndicator struct {
	R, G, B hal.GPIOPin
}

func NewPinIndicator(r, g, b hal.GPIOPin) (*PinIndicator, error) {
	for _, p := range []hal.GPIOPin{r, g, b} {
		if err := p.ConfigureOutput(false); err != nil {
			return nil, err
		}
	}
	return &PinIndicator{R: r, G: g, B: b}, nil
}

func (p *PinIndicator) Set(c types.Color) {
	p.R.Set(c.R())
	p.G.Set(c.G())
	p.B.Set(c.B())
}

// PinBeeper drives an active buzzer: on for d, off for d, count times.
type PinBeeper struct {
	pin   hal.GPIOPin
	sleep func(time.Duration)
}

func NewPinBeeper(pin hal.GPIOPin) (*PinBeeper, error) {
	if err := pin.ConfigureOutput(false); err != nil {
		return nil, err
	}
	return &PinBeeper{pin: pin, sleep: time.Sleep}, nil
}

func (b *PinBeeper) Beep(count int, d time.Duration) {
	for i := 0; i < count; i++ {
		b.pin.Set(true)
		b.sleep(d)
		b.pin.Set(false)
		b.sleep(d)
	}
}
