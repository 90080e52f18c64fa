// Package backfill runs the month-windowed historical sweep over the
// academic adapter, looser-gated than live polling, reporting progress
// to a status cache the API exposes.
package backfill

import "time"

// MonthWindows splits [start, end] into calendar-month buckets, the
// first starting at start's month and the last clipped to end.
func MonthWindows(start, end time.Time) []TimeWindow {
	var windows []TimeWindow
	current := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !current.After(end) {
		nextMonth := current.AddDate(0, 1, 0)
		monthEnd := nextMonth
		if monthEnd.After(end) {
			monthEnd = end
		}
		windows = append(windows, TimeWindow{From: current, Until: monthEnd})
		current = nextMonth
	}
	return windows
}

// TimeWindow is one month-bounded slice of the historical sweep.
type TimeWindow struct {
	From  time.Time
	Until time.Time
}
