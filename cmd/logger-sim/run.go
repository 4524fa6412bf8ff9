//go:build !rp2040 && !rp2350

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"datalogger-go/bus"
	"datalogger-go/drivers/mpu6050"
	"datalogger-go/services/config"
	"datalogger-go/services/control"
	"datalogger-go/services/feedback"
	"datalogger-go/services/hal"
	"datalogger-go/services/heartbeat"
	"datalogger-go/services/input"
	"datalogger-go/services/journal"
	"datalogger-go/services/session"
	"datalogger-go/services/storage"
	"datalogger-go/types"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Board wiring shared with the firmware.
const (
	pinPrimary   = 5
	pinSecondary = 6
	pinHeartbeat = 25
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the logger interactively",
		Long: `Run the logger. Commands on stdin, one per line:

  a        press the primary button (start/stop recording)
  b        press the secondary button (mount/unmount)
  insert   insert the card
  eject    pull the card out
  q        quit (an open session is finalized)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, l.Config, l.Log, os.Stdin, cmd.OutOrStdout())
		},
	}
}

func run(ctx context.Context, cfg types.Config, log zerolog.Logger, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b := bus.NewBus(32)
	config.Publish(b.NewConnection("config"), cfg)

	card := storage.NewHostCard(afero.NewOsFs(), cfg.Sim.CardDir,
		storage.WithCapacity(cfg.Sim.CapacityMB<<20),
		storage.WithWriteFault(cfg.Sim.WriteFaultAfter))
	mgr := storage.NewManager(card, log,
		storage.WithSettle(cfg.Storage.Settle),
		storage.WithFileFilter(session.IsSessionFile))
	rec := session.New(log,
		session.WithCheckpointEvery(cfg.Session.CheckpointEvery),
		session.WithAttempts(cfg.Session.MaxAttempts),
		session.WithBufferSize(cfg.Session.BufferSize))

	pins := hal.DefaultPinFactory()
	buttons := input.New(cfg.Input.Debounce, cfg.Input.LevelPoll, log)
	if err := buttons.Attach(types.ButtonPrimary, pins.Pin(pinPrimary)); err != nil {
		return err
	}
	if err := buttons.Attach(types.ButtonSecondary, pins.Pin(pinSecondary)); err != nil {
		return err
	}

	emu := mpu6050.NewEmulator()
	imu := mpu6050.New(emu)
	go motion(ctx, emu, cfg.Loop.SamplePeriod)

	term := feedback.NewTerminal(out)
	feedback.New(term, term, term, cfg.Feedback, log).Start(ctx, b.NewConnection("feedback"))

	if err := heartbeat.New(pins.Pin(pinHeartbeat), cfg.Heartbeat.Interval, log).Start(ctx, b.NewConnection("heartbeat")); err != nil {
		return err
	}

	// The journal runs on its own context and stops only after the controller
	// has returned, so a session finalized on the way out is still recorded.
	stopJournal := func() {}
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path, log)
		if err != nil {
			return err
		}
		jctx, jcancel := context.WithCancel(context.WithoutCancel(ctx))
		j.Start(jctx, b.NewConnection("journal"))
		stopJournal = func() {
			jcancel()
			j.Wait()
			if err := j.Close(); err != nil {
				log.Error().Err(err).Msg("journal close failed")
			}
		}
	}

	ctrl := control.New(control.Deps{
		Storage:    mgr,
		Recorder:   rec,
		Input:      buttons,
		Sensor:     imu,
		SensorInit: func() error { return imu.Configure(mpu6050.Config{}) },
		Conn:       b.NewConnection("control"),
		Log:        log,
		Config:     cfg,
	})

	go operator(ctx, cancel, in, card, pins, log)

	err := ctrl.Run(ctx)
	stopJournal()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// operator turns stdin lines into button presses and card moves.
func operator(ctx context.Context, quit context.CancelFunc, in io.Reader, card *storage.HostCard, pins *hal.HostPinFactory, log zerolog.Logger) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch cmd := strings.ToLower(strings.TrimSpace(sc.Text())); cmd {
		case "a":
			click(pins.Pin(pinPrimary))
		case "b":
			click(pins.Pin(pinSecondary))
		case "insert":
			if err := card.Insert(); err != nil {
				log.Error().Err(err).Msg("insert failed")
			}
		case "eject":
			if err := card.Eject(); err != nil {
				log.Error().Err(err).Msg("eject failed")
			}
		case "q", "quit":
			quit()
			return
		case "":
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q (a, b, insert, eject, q)\n", cmd)
		}
	}
	// EOF on stdin ends the run like q.
	quit()
}

func click(p *hal.FakePin) {
	p.Press()
	p.Release()
}
