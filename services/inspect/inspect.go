// Package inspect summarizes a recorded session file: sample count,
// duration at the nominal sample rate and peak readings in physical units.
package inspect

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"datalogger-go/errcode"
	"datalogger-go/services/session"
	"datalogger-go/x/mathx"
)

// Full-scale factors of the default sensor ranges (±2 g, ±250 °/s).
const (
	AccelLSBPerG   = 16384.0
	GyroLSBPerDegS = 131.0
)

const fields = 7

type Report struct {
	Samples   int
	LastIndex int
	Duration  time.Duration
	// Peak absolute value per axis (x, y, z).
	PeakAccelG  [3]float64
	PeakGyroDPS [3]float64
	// Truncated is set when the final line was cut short, as happens when
	// power is lost between checkpoints.
	Truncated bool
}

// Summarize reads a session CSV. rateHz converts sample indices to time; a
// non-positive rate leaves Duration zero.
func Summarize(r io.Reader, rateHz float64) (Report, error) {
	var rep Report
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return rep, err
		}
		return rep, errcode.Wrap(errcode.Error, "inspect", errors.New("empty file"))
	}
	if sc.Text() != strings.TrimSuffix(session.Header, "\n") {
		return rep, errcode.Wrap(errcode.Error, "inspect", fmt.Errorf("unexpected header %q", sc.Text()))
	}

	var peakA, peakG [3]int
	line := 1
	var bad error
	for sc.Scan() {
		line++
		if bad != nil {
			// Only the final line may be damaged.
			return rep, bad
		}
		idx, vals, err := parseRow(sc.Text())
		if err != nil {
			bad = errcode.Wrap(errcode.Error, "inspect", fmt.Errorf("line %d: %w", line-1, err))
			continue
		}
		rep.Samples++
		rep.LastIndex = idx
		for i := 0; i < 3; i++ {
			peakA[i] = mathx.Max(peakA[i], mathx.Abs(vals[i]))
			peakG[i] = mathx.Max(peakG[i], mathx.Abs(vals[3+i]))
		}
	}
	if err := sc.Err(); err != nil {
		return rep, err
	}
	rep.Truncated = bad != nil

	for i := 0; i < 3; i++ {
		rep.PeakAccelG[i] = float64(peakA[i]) / AccelLSBPerG
		rep.PeakGyroDPS[i] = float64(peakG[i]) / GyroLSBPerDegS
	}
	if rateHz > 0 {
		rep.Duration = time.Duration(float64(time.Second) * float64(rep.LastIndex) / rateHz)
	}
	return rep, nil
}

func parseRow(s string) (int, [6]int, error) {
	var vals [6]int
	parts := strings.Split(s, ",")
	if len(parts) != fields {
		return 0, vals, fmt.Errorf("%d fields, want %d", len(parts), fields)
	}
	idx, err := strconv.Atoi(parts[0])
	if err != nil || idx < 1 {
		return 0, vals, fmt.Errorf("bad index %q", parts[0])
	}
	for i, p := range parts[1:] {
		v, err := strconv.ParseInt(p, 10, 16)
		if err != nil {
			return 0, vals, fmt.Errorf("bad value %q", p)
		}
		vals[i] = int(v)
	}
	return idx, vals, nil
}
