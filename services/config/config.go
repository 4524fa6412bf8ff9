//go:build !rp2040 && !rp2350

// Package config loads the logger configuration on the host and publishes
// it on the bus. Sources, lowest precedence first: embedded per-device
// defaults, an optional config file, DATALOGGER_* environment variables,
// command-line flags.
package config

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"

	"datalogger-go/bus"
	"datalogger-go/errcode"
	"datalogger-go/types"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix     = "DATALOGGER"
	DefaultDevice = "sim"
)

// EmbeddedConfigLookup allows overriding how device defaults are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"device":            "device",
	"log-level":         "log.level",
	"card-dir":          "sim.card_dir",
	"capacity-mb":       "sim.capacity_mb",
	"write-fault-after": "sim.write_fault_after",
	"journal":           "journal.path",
	"sample-rate":       "session.sample_rate_hz",
}

// RegisterFlags defines the flags Load understands.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (toml, yaml or json)")
	fs.String("device", DefaultDevice, "device profile for built-in defaults")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("card-dir", "./card", "directory simulating the card")
	fs.Uint64("capacity-mb", 1024, "simulated card capacity in MiB")
	fs.Int("write-fault-after", 0, "fail card writes after N writes (0 disables)")
	fs.String("journal", "logger.db", "sqlite session journal (empty disables)")
	fs.Float64("sample-rate", 75, "sample rate assumed when analysing sessions")
}

// Options controls Load. A nil Flags set skips flag binding; a nil Fs reads
// the config file from the OS filesystem.
type Options struct {
	Device string
	File   string
	Flags  *pflag.FlagSet
	Fs     afero.Fs
}

// Load merges all sources into a validated Config.
func Load(opts Options) (types.Config, error) {
	v := viper.New()
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	device := opts.Device
	file := opts.File
	if opts.Flags != nil {
		if f := opts.Flags.Lookup("device"); f != nil && (f.Changed || device == "") {
			device = f.Value.String()
		}
		if f := opts.Flags.Lookup("config"); f != nil && f.Changed {
			file = f.Value.String()
		}
	}
	if device == "" {
		device = DefaultDevice
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return types.Config{}, &errcode.E{C: errcode.InvalidConfig, Op: "config", Msg: "no embedded config for device " + device}
	}
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return types.Config{}, errcode.Wrap(errcode.InvalidConfig, "config", err)
	}

	if file != "" {
		data, err := afero.ReadFile(fs, file)
		if err != nil {
			return types.Config{}, errcode.Wrap(errcode.InvalidConfig, "config", err)
		}
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(file), "."))
		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return types.Config{}, errcode.Wrap(errcode.InvalidConfig, "config", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range flagKeys {
			f := opts.Flags.Lookup(name)
			// Only explicit flags override; defaults come from the profile.
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return types.Config{}, errcode.Wrap(errcode.InvalidConfig, "config", err)
			}
		}
	}

	cfg := types.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, errcode.Wrap(errcode.InvalidConfig, "config", err)
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the control loop cannot run with.
func Validate(cfg types.Config) error {
	var errs []error
	bad := func(msg string) { errs = append(errs, errors.New(msg)) }
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		bad("invalid log level " + cfg.Log.Level)
	}
	positive := map[string]int64{
		"input.debounce":           int64(cfg.Input.Debounce),
		"input.level_poll":         int64(cfg.Input.LevelPoll),
		"loop.sample_period":       int64(cfg.Loop.SamplePeriod),
		"loop.idle_sleep":          int64(cfg.Loop.IdleSleep),
		"storage.poll_interval":    int64(cfg.Storage.PollInterval),
		"feedback.display_refresh": int64(cfg.Feedback.DisplayRefresh),
		"feedback.blink":           int64(cfg.Feedback.Blink),
		"feedback.pulse":           int64(cfg.Feedback.Pulse),
		"heartbeat.interval":       int64(cfg.Heartbeat.Interval),
		"session.checkpoint_every": int64(cfg.Session.CheckpointEvery),
		"session.max_attempts":     int64(cfg.Session.MaxAttempts),
		"session.buffer_size":      int64(cfg.Session.BufferSize),
	}
	for _, key := range sortedKeys(positive) {
		if positive[key] <= 0 {
			bad(key + " must be positive")
		}
	}
	if cfg.Session.SampleRateHz <= 0 {
		bad("session.sample_rate_hz must be positive")
	}
	if cfg.Sim.WriteFaultAfter < 0 {
		bad("sim.write_fault_after must not be negative")
	}
	if len(errs) == 0 {
		return nil
	}
	return &errcode.E{C: errcode.InvalidConfig, Op: "config", Err: errors.Join(errs...)}
}

// Publish announces every section as a retained config/<section> message.
func Publish(conn *bus.Connection, cfg types.Config) {
	sections := []struct {
		name    string
		payload any
	}{
		{"log", cfg.Log},
		{"input", cfg.Input},
		{"loop", cfg.Loop},
		{"storage", cfg.Storage},
		{"session", cfg.Session},
		{"feedback", cfg.Feedback},
		{"heartbeat", cfg.Heartbeat},
		{"sim", cfg.Sim},
		{"journal", cfg.Journal},
	}
	for _, s := range sections {
		conn.Publish(conn.NewMessage(bus.TopicConfig(s.name), s.payload, true))
	}
}
