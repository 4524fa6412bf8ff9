// Package feedback drives the operator outputs: the tri-colour indicator,
// the beeper and the text display. It only listens on the bus, so every
// request is fire-and-forget for the control loop.
package feedback

import (
	"context"
	"time"

	"datalogger-go/bus"
	"datalogger-go/types"

	"github.com/rs/zerolog"
)

type Indicator interface {
	Set(c types.Color)
}

type Beeper interface {
	Beep(count int, d time.Duration)
}

type Display interface {
	Render(s types.Screen) error
}

// Service owns the sinks. Beeps run on their own goroutine so a five-beep
// alarm does not stall indicator or display refresh.
type Service struct {
	ind  Indicator
	bp   Beeper
	disp Display
	cfg  types.FeedbackConfig
	log  zerolog.Logger
	now  func() time.Time

	status     types.Status
	base       types.Color
	shown      types.Color
	blinkOn    bool
	pulseTill  time.Time
	notice     types.Screen
	noticeTill time.Time
	lastScreen types.Screen
	rendered   bool

	beeps chan types.BeepSet
}

func New(ind Indicator, bp Beeper, disp Display, cfg types.FeedbackConfig, log zerolog.Logger) *Service {
	return &Service{
		ind:   ind,
		bp:    bp,
		disp:  disp,
		cfg:   cfg,
		log:   log.With().Str("component", "feedback").Logger(),
		now:   time.Now,
		beeps: make(chan types.BeepSet, 4),
	}
}

func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	fb := conn.Subscribe(bus.TopicFeedback().Append("#"))
	st := conn.Subscribe(bus.TopicStatus())
	go s.beepLoop(ctx)
	go s.serviceLoop(ctx, conn, fb, st)
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection, fb, st *bus.Subscription) {
	defer conn.Unsubscribe(fb)
	defer conn.Unsubscribe(st)

	blink := time.NewTicker(s.cfg.Blink)
	defer blink.Stop()
	refresh := time.NewTicker(s.cfg.DisplayRefresh)
	defer refresh.Stop()
	// Pulses are shorter than either cadence.
	fast := time.NewTicker(s.cfg.Pulse)
	defer fast.Stop()

	for {
		select {
		case <-ctx.Done():
			s.ind.Set(types.ColorOff)
			return
		case m, ok := <-fb.Channel():
			if !ok {
				return
			}
			s.Handle(m)
		case m, ok := <-st.Channel():
			if !ok {
				return
			}
			s.Handle(m)
		case <-blink.C:
			s.Blink()
		case <-refresh.C:
			s.Refresh()
		case <-fast.C:
			s.applyIndicator()
		}
	}
}

func (s *Service) beepLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-s.beeps:
			s.bp.Beep(b.Count, time.Duration(b.DurationMs)*time.Millisecond)
		}
	}
}

// Handle applies one bus message.
func (s *Service) Handle(m *bus.Message) {
	switch p := m.Payload.(type) {
	case types.Status:
		changed := p.State != s.status.State || p.Mounted != s.status.Mounted
		s.status = p
		if changed {
			s.applyIndicator()
			s.Refresh()
		}
	case types.IndicatorSet:
		if p.Pulse {
			s.pulseTill = s.now().Add(s.cfg.Pulse)
			s.set(p.Color)
			return
		}
		s.base = p.Color
		s.applyIndicator()
	case types.BeepSet:
		select {
		case s.beeps <- p:
		default:
			s.log.Debug().Int("count", p.Count).Msg("beep dropped, queue full")
		}
	case types.Notice:
		s.notice = p.Lines
		s.noticeTill = s.now().Add(time.Duration(p.HoldMs) * time.Millisecond)
		s.Refresh()
	}
}

// Blink advances the blink phase.
func (s *Service) Blink() {
	s.blinkOn = !s.blinkOn
	s.applyIndicator()
}

func (s *Service) applyIndicator() {
	if s.now().Before(s.pulseTill) {
		return
	}
	s.set(blinkColor(s.status.State, s.base, s.blinkOn))
}

func (s *Service) set(c types.Color) {
	if c == s.shown {
		return
	}
	s.shown = c
	s.ind.Set(c)
}

// Refresh redraws the display when its content changed. A pending notice
// wins until its hold time expires.
func (s *Service) Refresh() {
	now := s.now()
	scr := Compose(s.status, now)
	if now.Before(s.noticeTill) {
		scr = s.notice
	}
	if s.rendered && scr == s.lastScreen {
		return
	}
	if err := s.disp.Render(scr); err != nil {
		s.log.Warn().Err(err).Msg("display render failed")
		return
	}
	s.lastScreen, s.rendered = scr, true
}

// Shown is the colour currently on the indicator.
func (s *Service) Shown() types.Color { return s.shown }
