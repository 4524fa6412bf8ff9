package input

import (
	"testing"
	"time"

	"datalogger-go/services/hal"
	"datalogger-go/types"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const window = 200 * time.Millisecond

func collect(d *Dispatcher, now time.Time) []types.ButtonEvent {
	var out []types.ButtonEvent
	d.Dispatch(now, func(b types.ButtonEvent) { out = append(out, b) })
	return out
}

func TestDispatch_BounceWithinWindowYieldsOneEvent(t *testing.T) {
	d := New(window, 50*time.Millisecond, zerolog.Nop())
	t0 := time.Unix(1000, 0)

	// A bouncing falling edge raises the flag several times before dispatch.
	for i := 0; i < 5; i++ {
		d.Notify(types.ButtonPrimary)
	}
	assert.Equal(t, []types.ButtonEvent{types.ButtonPrimary}, collect(d, t0))

	// Trailing bounce inside the window is dropped.
	d.Notify(types.ButtonPrimary)
	assert.Empty(t, collect(d, t0.Add(50*time.Millisecond)))

	// Next press after the window is a new event.
	d.Notify(types.ButtonPrimary)
	assert.Equal(t, []types.ButtonEvent{types.ButtonPrimary}, collect(d, t0.Add(window+time.Millisecond)))

	coalesced, bounced := d.Stats(types.ButtonPrimary)
	assert.Equal(t, uint32(4), coalesced)
	assert.Equal(t, uint32(1), bounced)
}

func TestDispatch_PrimaryBeforeSecondary(t *testing.T) {
	d := New(window, 50*time.Millisecond, zerolog.Nop())
	d.Notify(types.ButtonSecondary)
	d.Notify(types.ButtonPrimary)
	assert.Equal(t,
		[]types.ButtonEvent{types.ButtonPrimary, types.ButtonSecondary},
		collect(d, time.Unix(1, 0)))
}

func TestDispatch_ButtonsDebounceIndependently(t *testing.T) {
	d := New(window, 50*time.Millisecond, zerolog.Nop())
	t0 := time.Unix(1, 0)
	d.Notify(types.ButtonPrimary)
	require.Len(t, collect(d, t0), 1)

	d.Notify(types.ButtonSecondary)
	assert.Equal(t, []types.ButtonEvent{types.ButtonSecondary}, collect(d, t0.Add(10*time.Millisecond)))
}

func TestSample_LevelFallbackTriggersOnTransitionOnly(t *testing.T) {
	d := New(window, 50*time.Millisecond, zerolog.Nop())
	t0 := time.Unix(1, 0)

	d.Sample(types.ButtonSecondary, true)
	d.Sample(types.ButtonSecondary, true) // held
	assert.Equal(t, []types.ButtonEvent{types.ButtonSecondary}, collect(d, t0))

	// Still held after the window: no repeat.
	d.Sample(types.ButtonSecondary, true)
	assert.Empty(t, collect(d, t0.Add(time.Second)))

	d.Sample(types.ButtonSecondary, false)
	d.Sample(types.ButtonSecondary, true)
	assert.Len(t, collect(d, t0.Add(2*time.Second)), 1)
}

func TestAttach_EdgeAndPollPaths(t *testing.T) {
	d := New(window, 50*time.Millisecond, zerolog.Nop())
	pins := hal.DefaultPinFactory()
	a, b := pins.Pin(5), pins.Pin(6)
	require.NoError(t, d.Attach(types.ButtonPrimary, a))
	require.NoError(t, d.Attach(types.ButtonSecondary, b))

	t0 := time.Unix(1, 0)
	a.Press() // IRQ path
	assert.Equal(t, []types.ButtonEvent{types.ButtonPrimary}, collect(d, t0))
	a.Release()

	// Missed edge: clear the IRQ and rely on the level poll.
	require.NoError(t, b.ClearIRQ())
	b.Press()
	d.Poll(t0)
	assert.Equal(t, []types.ButtonEvent{types.ButtonSecondary}, collect(d, t0))

	// Poll is rate limited.
	b.Release()
	b.Press()
	d.Poll(t0.Add(10 * time.Millisecond))
	assert.Empty(t, collect(d, t0.Add(time.Second)))
}

func TestNotify_UnknownButtonIgnored(t *testing.T) {
	d := New(window, 50*time.Millisecond, zerolog.Nop())
	d.Notify(types.ButtonNone)
	d.Sample(types.ButtonNone, true)
	assert.Empty(t, collect(d, time.Unix(1, 0)))
}
