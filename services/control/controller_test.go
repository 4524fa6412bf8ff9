//go:build !rp2040 && !rp2350

package control

import (
	"context"
	"strings"
	"testing"
	"time"

	"datalogger-go/bus"
	"datalogger-go/drivers/mpu6050"
	"datalogger-go/services/hal"
	"datalogger-go/services/input"
	"datalogger-go/services/session"
	"datalogger-go/services/storage"
	"datalogger-go/types"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rig struct {
	t    *testing.T
	fs   afero.Fs
	card *storage.HostCard
	st   *storage.Manager
	rec  *session.Recorder
	emu  *mpu6050.Emulator
	a, b *hal.FakePin
	c    *Controller
	now  time.Time
	sub  *bus.Subscription
	held []*bus.Message
}

func newRig(t *testing.T, present bool, cardOpts ...storage.HostCardOption) *rig {
	t.Helper()
	r := &rig{t: t, now: time.Unix(1_700_000_000, 0)}
	clock := func() time.Time { return r.now }
	noSleep := func(time.Duration) {}

	r.fs = afero.NewMemMapFs()
	if present {
		require.NoError(t, r.fs.MkdirAll("/card", 0o755))
	}
	r.card = storage.NewHostCard(r.fs, "/card", cardOpts...)
	r.st = storage.NewManager(r.card, zerolog.Nop(),
		storage.WithSleep(noSleep),
		storage.WithClock(clock),
		storage.WithFileFilter(session.IsSessionFile))
	r.rec = session.New(zerolog.Nop(), session.WithClock(clock), session.WithCheckpointEvery(5))

	cfg := types.DefaultConfig()
	in := input.New(cfg.Input.Debounce, cfg.Input.LevelPoll, zerolog.Nop())
	r.a, r.b = hal.NewFakePin(5), hal.NewFakePin(6)
	require.NoError(t, in.Attach(types.ButtonPrimary, r.a))
	require.NoError(t, in.Attach(types.ButtonSecondary, r.b))

	r.emu = mpu6050.NewEmulator()
	dev := mpu6050.New(r.emu)

	b := bus.NewBus(256)
	r.sub = b.NewConnection("observer").Subscribe(bus.T("#"))

	r.c = New(Deps{
		Storage:  r.st,
		Recorder: r.rec,
		Input:    in,
		Sensor:   dev,
		SensorInit: func() error {
			return dev.Configure(mpu6050.Config{Sleep: noSleep})
		},
		Conn:   b.NewConnection("control"),
		Log:    zerolog.Nop(),
		Config: cfg,
		Now:    clock,
		Sleep:  noSleep,
	})
	return r
}

func (r *rig) advance(d time.Duration) { r.now = r.now.Add(d) }

// press is one clean press and release followed by a step past the
// debounce window.
func (r *rig) press(p *hal.FakePin) {
	p.Press()
	p.Release()
	r.advance(250 * time.Millisecond)
	r.c.Step()
}

// run steps n sample periods.
func (r *rig) run(n int) {
	for i := 0; i < n; i++ {
		r.advance(10 * time.Millisecond)
		r.c.Step()
	}
}

// drain returns every payload published on topic since the last drain of
// that topic. Messages on other topics are held for later drains.
func (r *rig) drain(topic bus.Topic) []any {
loop:
	for {
		select {
		case m := <-r.sub.Channel():
			r.held = append(r.held, m)
		default:
			break loop
		}
	}
	var out []any
	rest := r.held[:0]
	for _, m := range r.held {
		if topicEqual(m.Topic, topic) {
			out = append(out, m.Payload)
		} else {
			rest = append(rest, m)
		}
	}
	r.held = rest
	return out
}

func topicEqual(a, b bus.Topic) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (r *rig) lines(name string) []string {
	r.t.Helper()
	b, err := afero.ReadFile(r.fs, "/card/"+name)
	require.NoError(r.t, err)
	return strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
}

func TestBoot_WithCardIsReady(t *testing.T) {
	r := newRig(t, true)
	r.c.Boot()

	assert.Equal(t, types.StateReady, r.c.State())
	assert.True(t, r.st.Mounted())
	assert.True(t, r.emu.Awake())
	beeps := r.drain(bus.TopicBeep())
	require.NotEmpty(t, beeps)
	assert.Equal(t, types.BeepBoot, beeps[0])
}

func TestBoot_WithoutCardIsError(t *testing.T) {
	r := newRig(t, false)
	r.c.Boot()

	assert.Equal(t, types.StateError, r.c.State())
	assert.False(t, r.st.Mounted())
	media := r.drain(bus.TopicMedia())
	require.Len(t, media, 1)
	assert.Equal(t, "media_absent", media[0].(types.MediaReport).Code)
}

func TestSecondary_MountDependsOnMedia(t *testing.T) {
	t.Run("no media", func(t *testing.T) {
		r := newRig(t, false)
		r.c.Boot()
		r.press(r.b)
		assert.Equal(t, types.StateWaitInsert, r.c.State())
	})
	t.Run("media inserted", func(t *testing.T) {
		r := newRig(t, false)
		r.c.Boot()
		require.NoError(t, r.card.Insert())
		r.press(r.b)
		assert.Equal(t, types.StateReady, r.c.State())
		assert.True(t, r.st.Mounted())
	})
}

func TestRecordingSession_EndToEnd(t *testing.T) {
	r := newRig(t, true)
	r.c.Boot()
	r.emu.SetSample(types.SensorSample{AccelX: 100, AccelY: -200, AccelZ: 16384, GyroX: 1, GyroY: -2, GyroZ: 3})

	r.press(r.a)
	require.Equal(t, types.StateRecording, r.c.State())
	assert.Equal(t, "data_0001.csv", r.rec.Name())
	assert.Equal(t, "numero_amostra,accel_x,accel_y,accel_z,giro_x,giro_y,giro_z", r.lines("data_0001.csv")[0])

	r.run(11)
	assert.Equal(t, uint32(12), r.rec.Count())
	r.drain(bus.TopicSessionClosed())

	r.press(r.a)
	assert.Equal(t, types.StateReady, r.c.State())
	assert.False(t, r.rec.Active())

	lines := r.lines("data_0001.csv")
	require.Len(t, lines, 13)
	assert.Equal(t, "1,100,-200,16384,1,-2,3", lines[1])
	assert.Equal(t, "12,100,-200,16384,1,-2,3", lines[12])

	closed := r.drain(bus.TopicSessionClosed())
	require.Len(t, closed, 1)
	sum := closed[0].(types.SessionSummary)
	assert.Equal(t, uint32(12), sum.Samples)
	assert.False(t, sum.Aborted)

	// A second session gets the next identifier.
	r.press(r.a)
	assert.Equal(t, "data_0002.csv", r.rec.Name())
}

func TestCheckpointPulses(t *testing.T) {
	r := newRig(t, true)
	r.c.Boot()
	r.press(r.a)
	r.drain(bus.TopicIndicator())

	r.run(9) // samples 2..10, checkpoints at 5 and 10
	var pulses int
	for _, p := range r.drain(bus.TopicIndicator()) {
		if set := p.(types.IndicatorSet); set.Pulse {
			assert.Equal(t, types.ColorBlue, set.Color)
			pulses++
		}
	}
	assert.Equal(t, 2, pulses)
}

func TestSecondaryWhileRecordingIsRejected(t *testing.T) {
	r := newRig(t, true)
	r.c.Boot()
	r.press(r.a)
	require.Equal(t, types.StateRecording, r.c.State())
	r.drain(bus.TopicBeep())

	r.press(r.b)
	assert.Equal(t, types.StateRecording, r.c.State())
	assert.True(t, r.rec.Active())
	assert.True(t, r.st.Mounted())
	assert.Contains(t, r.drain(bus.TopicBeep()), any(types.BeepReject))
}

func TestPrimaryWithoutCardIsRejected(t *testing.T) {
	r := newRig(t, false)
	r.c.Boot()
	r.press(r.a)
	assert.Equal(t, types.StateError, r.c.State())
	assert.False(t, r.rec.Active())
}

func TestWriteFailureAbortsIntoError(t *testing.T) {
	// Header plus the first checkpoint reach the card, the second faults.
	r := newRig(t, true, storage.WithWriteFault(2))
	r.c.Boot()
	r.press(r.a)
	require.Equal(t, types.StateRecording, r.c.State())
	r.drain(bus.TopicBeep())

	r.run(20)
	assert.Equal(t, types.StateError, r.c.State())
	assert.False(t, r.rec.Active())
	assert.Contains(t, r.drain(bus.TopicBeep()), any(types.BeepFatal))

	closed := r.drain(bus.TopicSessionClosed())
	require.Len(t, closed, 1)
	sum := closed[0].(types.SessionSummary)
	assert.True(t, sum.Aborted)
	assert.Equal(t, uint32(5), sum.Samples)

	lines := r.lines("data_0001.csv")
	assert.Len(t, lines, 6)
}

func TestSensorFailureSkipsSample(t *testing.T) {
	r := newRig(t, true)
	r.c.Boot()
	r.press(r.a)
	require.Equal(t, uint32(1), r.rec.Count())

	r.emu.FailNext(1)
	r.run(3)
	assert.Equal(t, types.StateRecording, r.c.State())
	assert.Equal(t, uint32(3), r.rec.Count())

	r.press(r.a)
	closed := r.drain(bus.TopicSessionClosed())
	require.Len(t, closed, 1)
	assert.Equal(t, uint32(1), closed[0].(types.SessionSummary).Skipped)
	assert.Len(t, r.lines("data_0001.csv"), 4)
}

func TestUnmountThenRemoveAndRemount(t *testing.T) {
	r := newRig(t, true)
	r.c.Boot()

	r.press(r.b)
	assert.Equal(t, types.StateWaitRemove, r.c.State())
	assert.False(t, r.st.Mounted())

	// Primary only acknowledges while the card is still mounted.
	r.press(r.a)
	assert.Equal(t, types.StateWaitRemove, r.c.State())

	require.NoError(t, r.card.Eject())
	require.NoError(t, r.card.Insert())
	r.press(r.b)
	assert.Equal(t, types.StateReady, r.c.State())
	assert.True(t, r.st.Mounted())
}

func TestMediaPollHintsOnceOnInsert(t *testing.T) {
	r := newRig(t, false)
	r.c.Boot()
	require.Equal(t, types.StateError, r.c.State())
	r.drain(bus.TopicNotice())

	r.advance(3 * time.Second)
	r.c.Step()
	assert.Empty(t, r.drain(bus.TopicNotice()))

	require.NoError(t, r.card.Insert())
	r.advance(3 * time.Second)
	r.c.Step()
	notices := r.drain(bus.TopicNotice())
	require.Len(t, notices, 1)
	assert.Equal(t, "Card detected!", notices[0].(types.Notice).Lines[0])
	assert.Equal(t, types.StateError, r.c.State(), "no automatic mount")

	r.advance(3 * time.Second)
	r.c.Step()
	assert.Empty(t, r.drain(bus.TopicNotice()))
}

func TestStatusSnapshotWhileRecording(t *testing.T) {
	r := newRig(t, true)
	r.c.Boot()
	r.press(r.a)
	r.drain(bus.TopicStatus())

	r.run(30)
	var last types.Status
	for _, p := range r.drain(bus.TopicStatus()) {
		last = p.(types.Status)
	}
	assert.Equal(t, types.StateRecording, last.State)
	assert.Equal(t, "data_0001.csv", last.File)
	assert.True(t, last.Mounted)
	assert.NotZero(t, last.Samples)
}

func TestRunFinalizesOnCancel(t *testing.T) {
	r := newRig(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	steps := 0
	r.c.sleep = func(time.Duration) {
		r.advance(10 * time.Millisecond)
		steps++
		switch steps {
		case 1:
			r.a.Press()
			r.a.Release()
			r.advance(250 * time.Millisecond)
		case 20:
			cancel()
		}
	}

	err := r.c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, r.rec.Active())
	lines := r.lines("data_0001.csv")
	assert.Greater(t, len(lines), 1)
}
