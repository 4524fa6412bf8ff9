package types

// ------------------------
// Indicator (tri-colour LED, one bit per channel)
// ------------------------

type Color uint8

const (
	ColorOff    Color = 0
	ColorRed    Color = 1 << 0
	ColorGreen  Color = 1 << 1
	ColorBlue   Color = 1 << 2
	ColorYellow       = ColorRed | ColorGreen
	ColorPurple       = ColorRed | ColorBlue
	ColorCyan         = ColorGreen | ColorBlue
	ColorWhite        = ColorRed | ColorGreen | ColorBlue
)

func (c Color) R() bool { return c&ColorRed != 0 }
func (c Color) G() bool { return c&ColorGreen != 0 }
func (c Color) B() bool { return c&ColorBlue != 0 }

func (c Color) String() string {
	switch c {
	case ColorOff:
		return "off"
	case ColorRed:
		return "red"
	case ColorGreen:
		return "green"
	case ColorBlue:
		return "blue"
	case ColorYellow:
		return "yellow"
	case ColorPurple:
		return "purple"
	case ColorCyan:
		return "cyan"
	default:
		return "white"
	}
}

// IndicatorSet asks the feedback service to show a colour.
// Pulse means: show Color briefly, then restore the previous colour.
type IndicatorSet struct {
	Color Color `json:"color"`
	Pulse bool  `json:"pulse,omitempty"`
}

// BeepSet asks for Count beeps of DurationMs each, separated by equal gaps.
type BeepSet struct {
	Count      int    `json:"count"`
	DurationMs uint32 `json:"duration_ms"`
}

// Beep patterns encode severity.
var (
	BeepBoot     = BeepSet{Count: 1, DurationMs: 50}
	BeepSuccess  = BeepSet{Count: 1, DurationMs: 100}
	BeepConfirm  = BeepSet{Count: 2, DurationMs: 100}
	BeepReject   = BeepSet{Count: 3, DurationMs: 50}
	BeepFatal    = BeepSet{Count: 5, DurationMs: 50}
	BeepDetected = BeepSet{Count: 1, DurationMs: 50}
)

// Screen is the four text lines of the display.
type Screen [4]string

// Notice is a transient screen held for HoldMs before normal refresh resumes.
type Notice struct {
	Lines  Screen `json:"lines"`
	HoldMs uint32 `json:"hold_ms"`
}
