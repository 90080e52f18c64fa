// Package analytics computes read-only aggregates over the persisted
// ai_developments table: KPIs, timeseries, breakdowns, concentration,
// momentum, confidence profile, scope compare, risk index and trend, and
// category alerts. Every function here is a pure transform over records
// already loaded from the store; only the Engine's load step talks to
// storage, so the math is exercised directly by tests without a database.
package analytics

import (
	"fmt"
	"math"
	"time"
)

// Window is one of the fixed time-window tokens accepted by the stats
// endpoints. A handful of endpoints (risk trend, scope compare) accept
// the extended set; most accept only the closed 1h/24h/7d/30d set.
type Window string

const (
	Window1h  Window = "1h"
	Window24h Window = "24h"
	Window7d  Window = "7d"
	Window30d Window = "30d"
	Window90d Window = "90d"
	Window1y  Window = "1y"
	Window2y  Window = "2y"
	Window5y  Window = "5y"
)

var windowDurations = map[Window]time.Duration{
	Window1h:  time.Hour,
	Window24h: 24 * time.Hour,
	Window7d:  7 * 24 * time.Hour,
	Window30d: 30 * 24 * time.Hour,
	Window90d: 90 * 24 * time.Hour,
	Window1y:  365 * 24 * time.Hour,
	Window2y:  2 * 365 * 24 * time.Hour,
	Window5y:  5 * 365 * 24 * time.Hour,
}

// coreWindows is the closed set most stats endpoints restrict themselves
// to; risk trend and scope compare accept the full windowDurations set.
var coreWindows = map[Window]bool{
	Window1h: true, Window24h: true, Window7d: true, Window30d: true,
}

// Duration resolves a window token to a time.Duration.
func (w Window) Duration() (time.Duration, error) {
	d, ok := windowDurations[w]
	if !ok {
		return 0, fmt.Errorf("analytics: unknown time window %q", w)
	}
	return d, nil
}

// ParseWindow validates a raw query-string value against the closed
// 4-window set used by most endpoints.
func ParseWindow(raw string) (Window, error) {
	w := Window(raw)
	if !coreWindows[w] {
		return "", fmt.Errorf("analytics: time_window must be one of 1h, 24h, 7d, 30d, got %q", raw)
	}
	return w, nil
}

// ParseExtendedWindow validates against the wider set the risk-trend and
// scope-compare endpoints accept.
func ParseExtendedWindow(raw string) (Window, error) {
	w := Window(raw)
	if _, ok := windowDurations[w]; !ok {
		return "", fmt.Errorf("analytics: time_window %q is not recognized", raw)
	}
	return w, nil
}

// Bounds returns the current window [currFrom, now) and the immediately
// preceding window of equal length [prevFrom, currFrom), anchored at now.
func Bounds(now time.Time, d time.Duration) (currFrom, prevFrom time.Time) {
	currFrom = now.Add(-d)
	prevFrom = currFrom.Add(-d)
	return currFrom, prevFrom
}

// DeltaPercent computes the previous-to-current percentage change with
// the fixed zero/100/ratio cases the spec's delta formula requires:
// undefined percentage changes (0 over 0, or any change from a zero
// base) are given explicit sentinel values rather than propagating NaN
// or Inf into a JSON response.
func DeltaPercent(prev, curr int) float64 {
	if prev == 0 && curr == 0 {
		return 0
	}
	if prev == 0 && curr > 0 {
		return 100
	}
	return round2(100 * float64(curr-prev) / float64(prev))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
