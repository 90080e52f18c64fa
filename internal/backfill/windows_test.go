package backfill

import (
	"testing"
	"time"
)

func TestMonthWindowsSplitsCalendarMonths(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	windows := MonthWindows(start, end)
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d: %+v", len(windows), windows)
	}

	if !windows[0].From.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("first window should start at month boundary, got %v", windows[0].From)
	}
	if !windows[len(windows)-1].Until.Equal(end) {
		t.Fatalf("last window should clip to end, got %v want %v", windows[len(windows)-1].Until, end)
	}
	for i := 1; i < len(windows); i++ {
		if !windows[i].From.Equal(windows[i-1].Until) && !windows[i].From.After(windows[i-1].Until) {
			t.Fatalf("window %d doesn't pick up where %d left off: %+v", i, i-1, windows)
		}
	}
}

func TestMonthWindowsSingleMonth(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	windows := MonthWindows(start, end)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	if !windows[0].Until.Equal(end) {
		t.Fatalf("single window should clip to end, got %v", windows[0].Until)
	}
}
