package types

import "time"

// Config is the complete runtime configuration. It carries no loader so the
// firmware can use DefaultConfig directly; the host loader lives in
// services/config.
type Config struct {
	Device string `mapstructure:"device"`

	Log       LogConfig       `mapstructure:"log"`
	Input     InputConfig     `mapstructure:"input"`
	Loop      LoopConfig      `mapstructure:"loop"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Session   SessionConfig   `mapstructure:"session"`
	Feedback  FeedbackConfig  `mapstructure:"feedback"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat"`
	Sim       SimConfig       `mapstructure:"sim"`
	Journal   JournalConfig   `mapstructure:"journal"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

type InputConfig struct {
	Debounce  time.Duration `mapstructure:"debounce"`
	LevelPoll time.Duration `mapstructure:"level_poll"`
}

type LoopConfig struct {
	SamplePeriod time.Duration `mapstructure:"sample_period"`
	IdleSleep    time.Duration `mapstructure:"idle_sleep"`
}

type StorageConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Settle       time.Duration `mapstructure:"settle"`
	MountSettle  time.Duration `mapstructure:"mount_settle"`
}

type SessionConfig struct {
	CheckpointEvery int     `mapstructure:"checkpoint_every"`
	MaxAttempts     int     `mapstructure:"max_attempts"`
	BufferSize      int     `mapstructure:"buffer_size"`
	SampleRateHz    float64 `mapstructure:"sample_rate_hz"`
}

type FeedbackConfig struct {
	DisplayRefresh time.Duration `mapstructure:"display_refresh"`
	Blink          time.Duration `mapstructure:"blink"`
	Pulse          time.Duration `mapstructure:"pulse"`
	SavedHold      time.Duration `mapstructure:"saved_hold"`
}

type HeartbeatConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type SimConfig struct {
	CardDir         string `mapstructure:"card_dir"`
	CapacityMB      uint64 `mapstructure:"capacity_mb"`
	WriteFaultAfter int    `mapstructure:"write_fault_after"`
}

type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// DefaultConfig returns the firmware defaults.
func DefaultConfig() Config {
	return Config{
		Device: "pico",
		Log:    LogConfig{Level: "info", Console: true},
		Input: InputConfig{
			Debounce:  200 * time.Millisecond,
			LevelPoll: 50 * time.Millisecond,
		},
		Loop: LoopConfig{
			SamplePeriod: 10 * time.Millisecond,
			IdleSleep:    10 * time.Millisecond,
		},
		Storage: StorageConfig{
			PollInterval: 2 * time.Second,
			Settle:       100 * time.Millisecond,
			MountSettle:  500 * time.Millisecond,
		},
		Session: SessionConfig{
			CheckpointEvery: 50,
			MaxAttempts:     10,
			BufferSize:      512,
			SampleRateHz:    75,
		},
		Feedback: FeedbackConfig{
			DisplayRefresh: 250 * time.Millisecond,
			Blink:          500 * time.Millisecond,
			Pulse:          10 * time.Millisecond,
			SavedHold:      3 * time.Second,
		},
		Heartbeat: HeartbeatConfig{Interval: time.Second},
		Sim:       SimConfig{CardDir: "./card", CapacityMB: 1024},
	}
}
