package config

// Embedded per-device defaults. Every key is present so environment
// overrides (DATALOGGER_*) resolve for all of them.

const cfgPico = `{
  "device": "pico",
  "log": {"level": "info", "console": true},
  "input": {"debounce": "200ms", "level_poll": "50ms"},
  "loop": {"sample_period": "10ms", "idle_sleep": "10ms"},
  "storage": {"poll_interval": "2s", "settle": "100ms", "mount_settle": "500ms"},
  "session": {"checkpoint_every": 50, "max_attempts": 10, "buffer_size": 512, "sample_rate_hz": 75},
  "feedback": {"display_refresh": "250ms", "blink": "500ms", "pulse": "10ms", "saved_hold": "3s"},
  "heartbeat": {"interval": "1s"},
  "sim": {"card_dir": "", "capacity_mb": 0, "write_fault_after": 0},
  "journal": {"path": ""}
}`

const cfgSim = `{
  "device": "sim",
  "log": {"level": "info", "console": true},
  "input": {"debounce": "200ms", "level_poll": "50ms"},
  "loop": {"sample_period": "10ms", "idle_sleep": "10ms"},
  "storage": {"poll_interval": "2s", "settle": "100ms", "mount_settle": "500ms"},
  "session": {"checkpoint_every": 50, "max_attempts": 10, "buffer_size": 512, "sample_rate_hz": 75},
  "feedback": {"display_refresh": "250ms", "blink": "500ms", "pulse": "10ms", "saved_hold": "3s"},
  "heartbeat": {"interval": "1s"},
  "sim": {"card_dir": "./card", "capacity_mb": 1024, "write_fault_after": 0},
  "journal": {"path": "logger.db"}
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"sim":  []byte(cfgSim),
}
