package timex

import (
	"testing"
	"time"
)

func TestMMSS(t *testing.T) {
	cases := map[time.Duration]string{
		0:                                     "00:00",
		59 * time.Second:                      "00:59",
		61*time.Second + 900*time.Millisecond: "01:01",
		100 * time.Minute:                     "100:00",
		-time.Second:                          "00:00",
	}
	for d, want := range cases {
		if got := MMSS(d); got != want {
			t.Fatalf("MMSS(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestElapsed(t *testing.T) {
	t0 := time.Unix(100, 0)
	if Elapsed(t0, t0.Add(3*time.Second)) != 3*time.Second {
		t.Fatal("elapsed")
	}
	if Elapsed(t0, t0.Add(-time.Second)) != 0 || Elapsed(time.Time{}, t0) != 0 {
		t.Fatal("elapsed must not go negative")
	}
}

