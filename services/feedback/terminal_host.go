//go:build !rp2040 && !rp2350

package feedback

import (
	"io"
	"strings"
	"sync"
	"time"

	"datalogger-go/types"

	"github.com/fatih/color"
)

var swatch = map[types.Color]*color.Color{
	types.ColorOff:    color.New(color.FgHiBlack),
	types.ColorRed:    color.New(color.FgRed, color.Bold),
	types.ColorGreen:  color.New(color.FgGreen, color.Bold),
	types.ColorBlue:   color.New(color.FgBlue, color.Bold),
	types.ColorYellow: color.New(color.FgYellow, color.Bold),
	types.ColorPurple: color.New(color.FgMagenta, color.Bold),
	types.ColorCyan:   color.New(color.FgCyan, color.Bold),
	types.ColorWhite:  color.New(color.FgWhite, color.Bold),
}

// Terminal renders the indicator, beeper and display as lines on a writer.
// One value serves all three sinks so their output does not interleave.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminal(w io.Writer) *Terminal { return &Terminal{w: w} }

func (t *Terminal) Set(c types.Color) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sw, ok := swatch[c]
	if !ok {
		sw = swatch[types.ColorWhite]
	}
	sw.Fprintf(t.w, "[led] ● %s\n", c)
}

func (t *Terminal) Beep(count int, d time.Duration) {
	t.mu.Lock()
	color.New(color.FgHiWhite).Fprintf(t.w, "[beep] %s (%dx%s)\n", strings.Repeat("♪", count), count, d)
	t.mu.Unlock()
	// Keep the audible timing so consecutive patterns stay apart.
	time.Sleep(time.Duration(2*count) * d)
}

func (t *Terminal) Render(s types.Screen) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	const width = 18
	border := "+" + strings.Repeat("-", width) + "+"
	frame := color.New(color.FgCyan)
	frame.Fprintln(t.w, border)
	for _, line := range s {
		if len(line) > width {
			line = line[:width]
		}
		frame.Fprint(t.w, "|")
		color.New(color.FgHiWhite).Fprint(t.w, line+strings.Repeat(" ", width-len(line)))
		frame.Fprintln(t.w, "|")
	}
	_, err := frame.Fprintln(t.w, border)
	return err
}
