// Package control is the cooperative foreground loop of the logger. It owns
// the system state, feeds debounced buttons, storage results and recording
// outcomes through the transition function and executes the commands that
// come back. Storage and file I/O run synchronously inside Step.
package control

import (
	"context"
	"time"

	"datalogger-go/bus"
	"datalogger-go/errcode"
	"datalogger-go/services/feedback"
	"datalogger-go/services/fsm"
	"datalogger-go/services/input"
	"datalogger-go/services/session"
	"datalogger-go/services/storage"
	"datalogger-go/types"

	"github.com/rs/zerolog"
)

// Sensor is the raw sample source. A failed read returns an error and no
// sample.
type Sensor interface {
	ReadSample() (types.SensorSample, error)
}

// Deps is everything the controller drives. Now and Sleep default to the
// wall clock.
type Deps struct {
	Storage    *storage.Manager
	Recorder   *session.Recorder
	Input      *input.Dispatcher
	Sensor     Sensor
	SensorInit func() error
	Conn       *bus.Connection
	Log        zerolog.Logger
	Config     types.Config
	Now        func() time.Time
	Sleep      func(time.Duration)
}

// Controller is the single owned context of the running logger.
type Controller struct {
	st    *storage.Manager
	rec   *session.Recorder
	in    *input.Dispatcher
	sens  Sensor
	sinit func() error
	conn  *bus.Connection
	log   zerolog.Logger
	cfg   types.Config
	now   func() time.Time
	sleep func(time.Duration)

	state       types.SystemState
	lastPresent bool
	nextPoll    time.Time
	nextSample  time.Time
	nextStatus  time.Time
	queue       []fsm.Input
}

func New(d Deps) *Controller {
	c := &Controller{
		st:    d.Storage,
		rec:   d.Recorder,
		in:    d.Input,
		sens:  d.Sensor,
		sinit: d.SensorInit,
		conn:  d.Conn,
		log:   d.Log.With().Str("component", "control").Logger(),
		cfg:   d.Config,
		now:   d.Now,
		sleep: d.Sleep,
		state: types.StateInit,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.sleep == nil {
		c.sleep = time.Sleep
	}
	return c
}

func (c *Controller) State() types.SystemState { return c.state }

// -----------------------------------------------------------------------------
// Boot
// -----------------------------------------------------------------------------

// Boot runs the startup sequence and leaves the controller in Ready or
// Error.
func (c *Controller) Boot() {
	c.publish(bus.TopicIndicator(), types.IndicatorSet{Color: types.ColorYellow}, false)
	c.publish(bus.TopicBeep(), types.BeepBoot, false)
	c.publishStatus(c.now())

	if c.sinit != nil {
		if err := c.sinit(); err != nil {
			c.log.Error().Err(err).Msg("sensor init failed")
		}
	}

	rep, err := c.st.Mount()
	c.publish(bus.TopicMedia(), rep, false)
	c.handle(fsm.Input{Kind: fsm.Boot, Mounted: err == nil && c.st.Mounted()})
}

// -----------------------------------------------------------------------------
// Loop
// -----------------------------------------------------------------------------

// Run boots and then steps until ctx is cancelled. An open session is
// finalized on the way out.
func (c *Controller) Run(ctx context.Context) error {
	c.Boot()
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		default:
		}
		c.Step()
		c.sleep(c.cfg.Loop.IdleSleep)
	}
}

func (c *Controller) shutdown() {
	if c.rec.Active() {
		sum, err := c.rec.Stop()
		if err != nil {
			c.log.Error().Err(err).Msg("session finalize on shutdown failed")
		}
		c.publish(bus.TopicSessionClosed(), sum, false)
	}
	for _, b := range []types.ButtonEvent{types.ButtonPrimary, types.ButtonSecondary} {
		coalesced, bounced := c.in.Stats(b)
		c.log.Debug().
			Stringer("button", b).
			Uint32("coalesced", coalesced).
			Uint32("bounced", bounced).
			Msg("input stats")
	}
	c.log.Info().Stringer("state", c.state).Msg("control loop stopped")
}

// Step runs one iteration: buttons, media polling, sampling and the
// periodic status snapshot.
func (c *Controller) Step() {
	now := c.now()

	c.in.Poll(now)
	c.in.Dispatch(now, func(b types.ButtonEvent) {
		if in, ok := fsm.FromButton(b, c.st.Mounted()); ok {
			c.log.Debug().Stringer("button", b).Stringer("state", c.state).Msg("button")
			c.handle(in)
		}
	})

	if c.state == types.StateWaitInsert || c.state == types.StateError {
		if !now.Before(c.nextPoll) {
			c.nextPoll = now.Add(c.cfg.Storage.PollInterval)
			c.pollMedia()
		}
	}

	if c.state == types.StateRecording && !now.Before(c.nextSample) {
		c.nextSample = now.Add(c.cfg.Loop.SamplePeriod)
		c.sample()
	}

	if !now.Before(c.nextStatus) {
		c.nextStatus = now.Add(c.cfg.Feedback.DisplayRefresh)
		c.publishStatus(now)
	}
}

// pollMedia reports only an absent to present edge, so a card left in the
// slot does not beep on every poll.
func (c *Controller) pollMedia() {
	present := c.st.Present()
	edge := present && !c.lastPresent
	c.lastPresent = present
	if edge {
		c.handle(fsm.Input{Kind: fsm.MediaPoll, Present: true, Mounted: c.st.Mounted()})
	}
}

func (c *Controller) sample() {
	s, err := c.sens.ReadSample()
	if err != nil {
		c.rec.Skip()
		c.log.Warn().
			Str("code", string(errcode.SensorRead)).
			Err(err).
			Msg("sensor read failed, sample skipped")
		return
	}
	checkpoint, err := c.rec.Append(s)
	switch {
	case err != nil:
		c.log.Error().Str("file", c.rec.Name()).Err(err).Msg("append failed")
		c.handle(fsm.Input{Kind: fsm.WriteFailed, Mounted: c.st.Mounted()})
	case checkpoint:
		c.handle(fsm.Input{Kind: fsm.Checkpoint, Mounted: c.st.Mounted()})
	}
}

// -----------------------------------------------------------------------------
// Transitions and commands
// -----------------------------------------------------------------------------

// handle drains the input and every result its commands produce.
func (c *Controller) handle(in fsm.Input) {
	c.queue = append(c.queue[:0], in)
	for len(c.queue) > 0 {
		in := c.queue[0]
		c.queue = c.queue[1:]

		prev := c.state
		next, cmds := fsm.Transition(prev, in)
		c.state = next
		if next != prev {
			c.log.Info().
				Stringer("from", prev).
				Stringer("to", next).
				Stringer("input", in.Kind).
				Msg("state changed")
			if next == types.StateWaitInsert || next == types.StateError {
				c.lastPresent = c.st.Present()
				c.nextPoll = c.now().Add(c.cfg.Storage.PollInterval)
			}
			c.publishStatus(c.now())
		}
		for _, cmd := range cmds {
			if res, ok := c.exec(cmd); ok {
				c.queue = append(c.queue, res)
			}
		}
	}
}

func (c *Controller) exec(cmd fsm.Command) (fsm.Input, bool) {
	switch cmd.Kind {
	case fsm.Mount:
		c.sleep(c.cfg.Storage.MountSettle)
		rep, err := c.st.Mount()
		c.publish(bus.TopicMedia(), rep, false)
		return fsm.Input{Kind: fsm.MountDone, OK: err == nil, Mounted: c.st.Mounted()}, true

	case fsm.Unmount:
		rep, err := c.st.Unmount(c.rec)
		c.publish(bus.TopicMedia(), rep, false)
		return fsm.Input{Kind: fsm.UnmountDone, OK: err == nil, Mounted: c.st.Mounted()}, true

	case fsm.StartSession:
		name, err := c.rec.Start(c.st.Volume())
		if err != nil {
			c.log.Warn().Str("code", string(errcode.Of(err))).Err(err).Msg("session not started")
		} else {
			c.log.Info().Str("file", name).Msg("recording")
			c.nextSample = c.now()
		}
		return fsm.Input{Kind: fsm.StartDone, OK: err == nil, Mounted: c.st.Mounted()}, true

	case fsm.StopSession:
		sum, err := c.rec.Stop()
		if err != nil {
			c.log.Error().Str("file", sum.File).Err(err).Msg("session stop reported an error")
		}
		c.publish(bus.TopicSessionClosed(), sum, false)
		c.publish(bus.TopicNotice(), feedback.SavedNotice(sum, c.cfg.Feedback.SavedHold), false)

	case fsm.AbortSession:
		sum := c.rec.Abort()
		c.publish(bus.TopicSessionClosed(), sum, false)

	case fsm.Indicator:
		c.publish(bus.TopicIndicator(), types.IndicatorSet{Color: cmd.Color}, false)

	case fsm.Pulse:
		c.publish(bus.TopicIndicator(), types.IndicatorSet{Color: cmd.Color, Pulse: true}, false)

	case fsm.Beep:
		c.publish(bus.TopicBeep(), cmd.Beep, false)

	case fsm.NoticeMedia:
		c.log.Info().Msg("card detected, press secondary to mount")
		c.publish(bus.TopicNotice(), feedback.MediaNotice(c.cfg.Feedback.SavedHold), false)

	case fsm.Reject:
		c.log.Warn().Str("code", string(cmd.Code)).Stringer("state", c.state).Msg("operation rejected")
	}
	return fsm.Input{}, false
}

// -----------------------------------------------------------------------------
// Publishing
// -----------------------------------------------------------------------------

func (c *Controller) publish(t bus.Topic, payload any, retained bool) {
	if c.conn == nil {
		return
	}
	c.conn.Publish(c.conn.NewMessage(t, payload, retained))
}

func (c *Controller) publishStatus(now time.Time) {
	st := types.Status{State: c.state, Mounted: c.st.Mounted(), TS: now}
	if c.rec.Active() {
		st.File = c.rec.Name()
		st.Samples = c.rec.Count()
		st.Started = c.rec.Started()
	}
	c.publish(bus.TopicStatus(), st, true)
}
