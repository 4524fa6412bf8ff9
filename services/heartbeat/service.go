// Package heartbeat blinks the on-board LED so a hung control loop is
// visible at a glance.
package heartbeat

import (
	"context"
	"time"

	"datalogger-go/bus"
	"datalogger-go/services/hal"
	"datalogger-go/types"

	"github.com/rs/zerolog"
)

type Service struct {
	pin      hal.GPIOPin
	interval time.Duration
	log      zerolog.Logger
}

func New(pin hal.GPIOPin, interval time.Duration, log zerolog.Logger) *Service {
	if interval <= 0 {
		interval = time.Second
	}
	return &Service{pin: pin, interval: interval, log: log.With().Str("component", "heartbeat").Logger()}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(bus.TopicConfig("heartbeat"))
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.pin.Set(false)
			s.log.Debug().Msg("heartbeat stopping")
			return
		case <-tick.C:
			s.pin.Toggle()
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				return
			}
			if iv, ok := interval(msg.Payload); ok && iv != s.interval {
				s.interval = iv
				tick.Reset(iv)
				s.log.Info().Dur("interval", iv).Msg("heartbeat interval changed")
			}
		}
	}
}

// interval accepts the typed section or a decoded JSON map in seconds.
func interval(p any) (time.Duration, bool) {
	switch v := p.(type) {
	case types.HeartbeatConfig:
		return v.Interval, v.Interval > 0
	case map[string]any:
		if f, ok := v["interval"].(float64); ok && f > 0 {
			return time.Duration(f * float64(time.Second)), true
		}
	}
	return 0, false
}

// Start configures the pin and runs the heartbeat until ctx is done.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if err := s.pin.ConfigureOutput(false); err != nil {
		return err
	}
	go s.serviceLoop(ctx, conn)
	return nil
}
