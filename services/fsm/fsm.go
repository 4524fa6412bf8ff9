// Package fsm is the logger's state machine as a pure function:
// Transition maps the current state and one input to the next state and the
// commands the control loop must execute. It performs no I/O.
//
// Storage and session operations are split in two steps: the command
// (Mount, Unmount, StartSession) and the matching *Done input carrying the
// result, so StorageBusy is observable between them.
package fsm

import (
	"datalogger-go/errcode"
	"datalogger-go/types"
)

type InputKind uint8

const (
	Boot InputKind = iota
	Primary
	Secondary
	MountDone
	UnmountDone
	StartDone
	WriteFailed
	Checkpoint
	MediaPoll
)

func (k InputKind) String() string {
	switch k {
	case Boot:
		return "boot"
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	case MountDone:
		return "mount_done"
	case UnmountDone:
		return "unmount_done"
	case StartDone:
		return "start_done"
	case WriteFailed:
		return "write_failed"
	case Checkpoint:
		return "checkpoint"
	case MediaPoll:
		return "media_poll"
	default:
		return "unknown"
	}
}

// Input is one event plus the facts the transition depends on.
type Input struct {
	Kind    InputKind
	Mounted bool // storage mounted flag at the time of the event
	OK      bool // result of the operation for *Done inputs
	Present bool // media presence for MediaPoll
}

// FromButton maps a dispatcher event to an input.
func FromButton(b types.ButtonEvent, mounted bool) (Input, bool) {
	switch b {
	case types.ButtonPrimary:
		return Input{Kind: Primary, Mounted: mounted}, true
	case types.ButtonSecondary:
		return Input{Kind: Secondary, Mounted: mounted}, true
	default:
		return Input{}, false
	}
}

type CommandKind uint8

const (
	Mount CommandKind = iota
	Unmount
	StartSession
	StopSession
	AbortSession
	Indicator
	Pulse
	Beep
	NoticeMedia
	Reject
)

func (k CommandKind) String() string {
	switch k {
	case Mount:
		return "mount"
	case Unmount:
		return "unmount"
	case StartSession:
		return "start_session"
	case StopSession:
		return "stop_session"
	case AbortSession:
		return "abort_session"
	case Indicator:
		return "indicator"
	case Pulse:
		return "pulse"
	case Beep:
		return "beep"
	case NoticeMedia:
		return "notice_media"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Command is one side effect requested by a transition.
type Command struct {
	Kind  CommandKind
	Color types.Color   // Indicator, Pulse
	Beep  types.BeepSet // Beep
	Code  errcode.Code  // Reject
}

func indicator(c types.Color) Command { return Command{Kind: Indicator, Color: c} }
func beep(b types.BeepSet) Command    { return Command{Kind: Beep, Beep: b} }

func reject() []Command {
	return []Command{
		{Kind: Reject, Code: errcode.InvalidState},
		beep(types.BeepReject),
	}
}

// Transition never panics; inputs that do not apply to a state leave it
// unchanged. Button presses that do not apply are rejected audibly.
func Transition(s types.SystemState, in Input) (types.SystemState, []Command) {
	switch in.Kind {
	case Boot:
		if s != types.StateInit {
			return s, nil
		}
		if in.Mounted {
			return types.StateReady, []Command{indicator(types.ColorGreen)}
		}
		return types.StateError, []Command{indicator(types.ColorPurple)}

	case Primary:
		return primary(s, in)

	case Secondary:
		return secondary(s, in)

	case StartDone:
		if s != types.StateReady {
			return s, nil
		}
		if in.OK {
			return types.StateRecording, []Command{beep(types.BeepSuccess), indicator(types.ColorRed)}
		}
		return types.StateReady, []Command{beep(types.BeepReject)}

	case WriteFailed:
		if s != types.StateRecording {
			return s, nil
		}
		return types.StateError, []Command{
			{Kind: AbortSession},
			indicator(types.ColorPurple),
			beep(types.BeepFatal),
		}

	case Checkpoint:
		if s != types.StateRecording {
			return s, nil
		}
		return s, []Command{{Kind: Pulse, Color: types.ColorBlue}}

	case MountDone:
		if s != types.StateStorageBusy {
			return s, nil
		}
		if in.OK {
			return types.StateReady, []Command{beep(types.BeepSuccess), indicator(types.ColorGreen)}
		}
		return types.StateWaitInsert, []Command{beep(types.BeepReject), indicator(types.ColorYellow)}

	case UnmountDone:
		if s != types.StateStorageBusy {
			return s, nil
		}
		if in.OK {
			return types.StateWaitRemove, []Command{indicator(types.ColorRed), beep(types.BeepConfirm)}
		}
		return types.StateError, []Command{indicator(types.ColorPurple), beep(types.BeepReject)}

	case MediaPoll:
		if (s == types.StateWaitInsert || s == types.StateError) && in.Present && !in.Mounted {
			return s, []Command{beep(types.BeepDetected), {Kind: NoticeMedia}}
		}
		return s, nil
	}
	return s, nil
}

func primary(s types.SystemState, in Input) (types.SystemState, []Command) {
	switch s {
	case types.StateReady:
		if !in.Mounted {
			return s, reject()
		}
		// Stays Ready until StartDone reports the file is open.
		return s, []Command{{Kind: StartSession}}
	case types.StateRecording:
		return types.StateReady, []Command{
			{Kind: StopSession},
			beep(types.BeepConfirm),
			indicator(types.ColorGreen),
		}
	case types.StateWaitRemove:
		if in.Mounted {
			return types.StateReady, []Command{indicator(types.ColorGreen)}
		}
		return s, nil
	default:
		return s, reject()
	}
}

func secondary(s types.SystemState, in Input) (types.SystemState, []Command) {
	switch s {
	case types.StateReady, types.StateError, types.StateWaitInsert, types.StateWaitRemove:
		if in.Mounted {
			return types.StateStorageBusy, []Command{indicator(types.ColorYellow), {Kind: Unmount}}
		}
		return types.StateStorageBusy, []Command{indicator(types.ColorBlue), {Kind: Mount}}
	default:
		// Recording holds the card; Init and StorageBusy cannot take it.
		return s, reject()
	}
}
