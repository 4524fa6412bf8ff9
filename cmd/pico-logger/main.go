//go:build rp2040 || rp2350

// pico-logger is the firmware: MPU-6050 on I2C0, SSD1306 on I2C1, SD card on
// SPI0, buttons A/B on GP5/GP6, RGB indicator on GP13/GP11/GP12, buzzer on
// GP21 and the heartbeat LED on GP7.
package main

import (
	"context"
	"machine"
	"time"

	"datalogger-go/bus"
	"datalogger-go/drivers/mpu6050"
	"datalogger-go/services/config"
	"datalogger-go/services/control"
	"datalogger-go/services/feedback"
	"datalogger-go/services/hal"
	"datalogger-go/services/heartbeat"
	"datalogger-go/services/input"
	"datalogger-go/services/session"
	"datalogger-go/services/storage"
	"datalogger-go/types"

	"github.com/rs/zerolog"
	"tinygo.org/x/drivers/sdcard"
	"tinygo.org/x/drivers/ssd1306"
)

const (
	pinButtonA = 5
	pinButtonB = 6
	pinLED     = 7
	pinBuzzer  = 21
	pinRed     = 13
	pinGreen   = 11
	pinBlue    = 12
)

func mustPin(pins hal.PinFactory, n int) hal.IRQPin {
	p, ok := pins.ByNumber(n)
	if !ok {
		panic("pico-logger: bad pin")
	}
	return p
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)

	cfg := types.DefaultConfig()
	log, err := config.NewLogger(types.LogConfig{Level: cfg.Log.Level}, machine.Serial)
	if err != nil {
		log = zerolog.New(machine.Serial)
	}

	ctx := context.Background()
	b := bus.NewBus(16)
	pins := hal.DefaultPinFactory()

	// Sensor.
	machine.I2C0.Configure(machine.I2CConfig{SDA: machine.GPIO0, SCL: machine.GPIO1, Frequency: 400 * machine.KHz})
	imu := mpu6050.New(machine.I2C0)

	// Display.
	machine.I2C1.Configure(machine.I2CConfig{SDA: machine.GPIO14, SCL: machine.GPIO15, Frequency: 400 * machine.KHz})
	oled := ssd1306.NewI2C(machine.I2C1)
	oled.Configure(ssd1306.Config{Width: 128, Height: 64, Address: 0x3C, VccState: ssd1306.SWITCHCAPVCC})

	// Indicator and beeper.
	ind, err := feedback.NewPinIndicator(mustPin(pins, pinRed), mustPin(pins, pinGreen), mustPin(pins, pinBlue))
	if err != nil {
		log.Fatal().Err(err).Msg("indicator")
	}
	bp, err := feedback.NewPinBeeper(mustPin(pins, pinBuzzer))
	if err != nil {
		log.Fatal().Err(err).Msg("beeper")
	}
	feedback.New(ind, bp, feedback.NewOLED(oled), cfg.Feedback, log).Start(ctx, b.NewConnection("feedback"))

	if err := heartbeat.New(mustPin(pins, pinLED), cfg.Heartbeat.Interval, log).Start(ctx, b.NewConnection("heartbeat")); err != nil {
		log.Error().Err(err).Msg("heartbeat")
	}

	// Card.
	sd := sdcard.New(machine.SPI0, machine.GPIO18, machine.GPIO19, machine.GPIO16, machine.GPIO17)
	mgr := storage.NewManager(storage.NewFATCard(&sd), log,
		storage.WithSettle(cfg.Storage.Settle),
		storage.WithFileFilter(session.IsSessionFile))
	rec := session.New(log,
		session.WithCheckpointEvery(cfg.Session.CheckpointEvery),
		session.WithAttempts(cfg.Session.MaxAttempts),
		session.WithBufferSize(cfg.Session.BufferSize))

	// Buttons.
	buttons := input.New(cfg.Input.Debounce, cfg.Input.LevelPoll, log)
	if err := buttons.Attach(types.ButtonPrimary, mustPin(pins, pinButtonA)); err != nil {
		log.Error().Err(err).Msg("button A")
	}
	if err := buttons.Attach(types.ButtonSecondary, mustPin(pins, pinButtonB)); err != nil {
		log.Error().Err(err).Msg("button B")
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
	_ = ctrl.Run(ctx)
}
