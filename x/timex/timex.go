package timex

import (
	"time"

	"datalogger-go/x/conv"
)

// Elapsed returns now-start, never negative.
func Elapsed(start, now time.Time) time.Duration {
	if start.IsZero() || now.Before(start) {
		return 0
	}
	return now.Sub(start)
}

// AppendMMSS appends d as MM:SS; minutes grow past two digits as needed.
func AppendMMSS(dst []byte, d time.Duration) []byte {
	if d < 0 {
		d = 0
	}
	s := uint64(d / time.Second)
	dst = conv.AppendPadded(dst, s/60, 2)
	dst = append(dst, ':')
	return conv.AppendPadded(dst, s%60, 2)
}

func MMSS(d time.Duration) string { return string(AppendMMSS(nil, d)) }
