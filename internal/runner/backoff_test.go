package runner

import (
	"testing"
	"time"
)

func TestNextIntervalCapsAtMultiplier(t *testing.T) {
	cadence := 30 * time.Minute
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{0, 30 * time.Minute},
		{1, 60 * time.Minute},
		{2, 120 * time.Minute},
		{3, 240 * time.Minute},
		{4, 8 * 30 * time.Minute}, // multiplier capped at 8
		{10, 8 * 30 * time.Minute},
	}
	for _, c := range cases {
		got := NextInterval(cadence, c.failures)
		if got != c.want {
			t.Errorf("NextInterval(%v, %d) = %v, want %v", cadence, c.failures, got, c.want)
		}
	}
}

func TestNextIntervalCapsAtSixHours(t *testing.T) {
	cadence := 2 * time.Hour
	got := NextInterval(cadence, 5)
	if got != maxBackoffDuration {
		t.Errorf("expected ceiling of %v, got %v", maxBackoffDuration, got)
	}
}
