package feedback

import (
	"time"

	"datalogger-go/types"
	"datalogger-go/x/conv"
	"datalogger-go/x/timex"
)

// Compose renders the status snapshot into the four display lines.
func Compose(st types.Status, now time.Time) types.Screen {
	switch st.State {
	case types.StateInit:
		return types.Screen{"Data logger", "Starting...", "", ""}
	case types.StateReady:
		card := "Card: --"
		if st.Mounted {
			card = "Card: OK"
		}
		return types.Screen{"System ready", card, "A: Start", "B: Mount/Unmount"}
	case types.StateRecording:
		var b []byte
		b = append(b, "Samples: "...)
		b = conv.AppendUint(b, uint64(st.Samples))
		clock := timex.AppendMMSS(nil, timex.Elapsed(st.Started, now))
		clock = append(clock, "  A:Stop"...)
		return types.Screen{"Recording...", st.File, string(b), string(clock)}
	case types.StateError:
		hint := ""
		if !st.Mounted {
			hint = "No card detected"
		}
		return types.Screen{"ERROR!", hint, "B: Retry card", ""}
	case types.StateStorageBusy:
		return types.Screen{"Accessing card...", "Please wait...", "", ""}
	case types.StateWaitInsert:
		return types.Screen{"Insert card", "and press B", "to mount", ""}
	case types.StateWaitRemove:
		return types.Screen{"Card unmounted!", "Remove card", "safely", "B: New card"}
	default:
		return types.Screen{}
	}
}

// SavedNotice is shown after a session is finalized.
func SavedNotice(sum types.SessionSummary, hold time.Duration) types.Notice {
	b := conv.AppendUint(nil, uint64(sum.Samples))
	b = append(b, " samples"...)
	return types.Notice{
		Lines:  types.Screen{"Data saved!", sum.File, string(b), ""},
		HoldMs: uint32(hold / time.Millisecond),
	}
}

// MediaNotice is shown when a card appears while unmounted.
func MediaNotice(hold time.Duration) types.Notice {
	return types.Notice{
		Lines:  types.Screen{"Card detected!", "Press B", "to mount", ""},
		HoldMs: uint32(hold / time.Millisecond),
	}
}

// blinkColor applies the steady/blinking policy for a state. on is the
// phase of the blink clock; base is the last commanded colour.
func blinkColor(state types.SystemState, base types.Color, on bool) types.Color {
	var c types.Color
	switch state {
	case types.StateError:
		c = types.ColorPurple
	case types.StateWaitInsert:
		c = types.ColorYellow
	default:
		return base
	}
	if on {
		return c
	}
	return types.ColorOff
}
