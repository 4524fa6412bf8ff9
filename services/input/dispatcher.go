// Package input turns raw button edges into debounced logical events.
//
// Interrupt handlers only raise a per-button atomic flag. The control loop
// calls Poll (level fallback) and Dispatch (flag consumption) on its own
// clock, so all debounce bookkeeping stays in foreground context.
package input

import (
	"sync/atomic"
	"time"

	"datalogger-go/services/hal"
	"datalogger-go/types"

	"github.com/rs/zerolog"
)

const numButtons = 2

// Dispatch order: Primary wins ties.
var order = [numButtons]types.ButtonEvent{types.ButtonPrimary, types.ButtonSecondary}

func slot(b types.ButtonEvent) int {
	switch b {
	case types.ButtonPrimary:
		return 0
	case types.ButtonSecondary:
		return 1
	default:
		return -1
	}
}

type button struct {
	pending   atomic.Bool
	coalesced atomic.Uint32

	// Foreground only.
	pressed   func() bool
	lastLevel bool
	lastEmit  time.Time
	emitted   bool
	bounced   uint32
}

// Dispatcher is the debounced input dispatcher for the two front-panel
// buttons.
type Dispatcher struct {
	window    time.Duration
	levelPoll time.Duration
	lastPoll  time.Time
	log       zerolog.Logger
	buttons   [numButtons]button
}

func New(window, levelPoll time.Duration, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		window:    window,
		levelPoll: levelPoll,
		log:       log.With().Str("component", "input").Logger(),
	}
}

// Attach wires a pull-up, active-low button pin: falling edges raise the
// pending flag from interrupt context and the pin's level feeds Poll.
func (d *Dispatcher) Attach(b types.ButtonEvent, pin hal.IRQPin) error {
	i := slot(b)
	if i < 0 {
		return nil
	}
	if err := pin.ConfigureInput(hal.PullUp); err != nil {
		return err
	}
	d.buttons[i].pressed = hal.ActiveLow(pin)
	d.buttons[i].lastLevel = d.buttons[i].pressed()
	return pin.SetIRQ(hal.EdgeFalling, func() { d.Notify(b) })
}

// Notify raises the pending flag. Safe from interrupt context: one atomic
// swap, no allocation, no blocking.
func (d *Dispatcher) Notify(b types.ButtonEvent) {
	i := slot(b)
	if i < 0 {
		return
	}
	if d.buttons[i].pending.Swap(true) {
		d.buttons[i].coalesced.Add(1)
	}
}

// Sample feeds one raw level reading. Only a released to pressed transition
// raises the flag, so a held button does not repeat.
func (d *Dispatcher) Sample(b types.ButtonEvent, pressed bool) {
	i := slot(b)
	if i < 0 {
		return
	}
	btn := &d.buttons[i]
	if pressed && !btn.lastLevel {
		d.Notify(b)
	}
	btn.lastLevel = pressed
}

// Poll samples attached pins when the level-poll interval has elapsed.
func (d *Dispatcher) Poll(now time.Time) {
	if !d.lastPoll.IsZero() && now.Sub(d.lastPoll) < d.levelPoll {
		return
	}
	d.lastPoll = now
	for i := range d.buttons {
		if f := d.buttons[i].pressed; f != nil {
			d.Sample(order[i], f())
		}
	}
}

// Dispatch consumes pending flags in priority order and emits at most one
// event per button. A flag raised inside the button's debounce window after
// its last event is bounce and is dropped.
func (d *Dispatcher) Dispatch(now time.Time, emit func(types.ButtonEvent)) {
	for i := range d.buttons {
		btn := &d.buttons[i]
		if !btn.pending.Swap(false) {
			continue
		}
		if btn.emitted && now.Sub(btn.lastEmit) < d.window {
			btn.bounced++
			d.log.Debug().Str("button", order[i].String()).Msg("bounce discarded")
			continue
		}
		btn.emitted = true
		btn.lastEmit = now
		d.log.Debug().Str("button", order[i].String()).Msg("event")
		emit(order[i])
	}
}

// Stats reports presses merged into an already pending flag and edges
// dropped as bounce.
func (d *Dispatcher) Stats(b types.ButtonEvent) (coalesced, bounced uint32) {
	i := slot(b)
	if i < 0 {
		return 0, 0
	}
	return d.buttons[i].coalesced.Load(), d.buttons[i].bounced
}
