package types

import "time"

// ------------------------
// System state
// ------------------------

// SystemState is the single process-wide state of the logger.
type SystemState uint8

const (
	StateInit SystemState = iota
	StateReady
	StateRecording
	StateError
	StateStorageBusy
	StateWaitInsert
	StateWaitRemove
)

func (s SystemState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateReady:
		return "ready"
	case StateRecording:
		return "recording"
	case StateError:
		return "error"
	case StateStorageBusy:
		return "storage_busy"
	case StateWaitInsert:
		return "wait_insert"
	case StateWaitRemove:
		return "wait_remove"
	default:
		return "unknown"
	}
}

// ------------------------
// Buttons
// ------------------------

// ButtonEvent is one debounced logical press.
type ButtonEvent uint8

const (
	ButtonNone ButtonEvent = iota
	ButtonPrimary
	ButtonSecondary
)

func (b ButtonEvent) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonSecondary:
		return "secondary"
	default:
		return "none"
	}
}

// ------------------------
// Sensor
// ------------------------

// SensorSample is one raw six-axis reading (register counts, not scaled).
type SensorSample struct {
	AccelX, AccelY, AccelZ int16
	GyroX, GyroY, GyroZ    int16
}

// ------------------------
// Storage
// ------------------------

// StorageKind is the coarse storage posture derived from the media.
type StorageKind uint8

const (
	StorageNotPresent StorageKind = iota
	StorageUninitialized
	StorageMounted
	StorageUnmounted
	StorageMountFailed
)

func (k StorageKind) String() string {
	switch k {
	case StorageNotPresent:
		return "not_present"
	case StorageUninitialized:
		return "uninitialized"
	case StorageMounted:
		return "mounted"
	case StorageUnmounted:
		return "unmounted"
	case StorageMountFailed:
		return "mount_failed"
	default:
		return "unknown"
	}
}

// StorageStatus is valid for one query only.
type StorageStatus struct {
	Kind   StorageKind
	Reason string // error code when Kind == StorageMountFailed
}

// FileEntry describes one session file found on the card.
type FileEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// MediaReport is published after every mount/unmount attempt.
type MediaReport struct {
	Op      string      `json:"op"` // "mount" | "unmount"
	OK      bool        `json:"ok"`
	Code    string      `json:"code,omitempty"`
	TotalKB uint64      `json:"total_kb,omitempty"`
	FreeKB  uint64      `json:"free_kb,omitempty"`
	Files   []FileEntry `json:"files,omitempty"`
	TS      time.Time   `json:"ts"`
}

// ------------------------
// Session
// ------------------------

// SessionSummary is reported when a session is finalized or aborted.
type SessionSummary struct {
	File     string        `json:"file"`
	ID       int           `json:"id"`
	Samples  uint32        `json:"samples"`
	Duration time.Duration `json:"duration"`
	Bytes    int64         `json:"bytes"`
	Aborted  bool          `json:"aborted"`
	Skipped  uint32        `json:"skipped"` // failed sensor reads
	ClosedAt time.Time     `json:"closed_at"`
}

// ------------------------
// Status snapshot (retained)
// ------------------------

// Status is what the display needs to render a screen.
type Status struct {
	State   SystemState `json:"state"`
	Mounted bool        `json:"mounted"`
	File    string      `json:"file,omitempty"`
	Samples uint32      `json:"samples"`
	Started time.Time   `json:"started,omitempty"`
	TS      time.Time   `json:"ts"`
}
