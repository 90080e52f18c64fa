package analytics

import (
	"context"
	"time"
)

// KPI is one named count-with-delta metric.
type KPI struct {
	Label        string  `json:"label"`
	Current      int     `json:"current"`
	Previous     int     `json:"previous"`
	DeltaPercent float64 `json:"delta_percent"`
}

// KPIs computes the fixed 15m/1h/7d count-and-delta trio the dashboard
// headline cards show.
func (e *Engine) KPIs(ctx context.Context) ([]KPI, error) {
	now := e.now()
	longest := 14 * 24 * time.Hour // 2x the 7d window, the widest KPI needs
	records, err := e.loadWindow(ctx, now.Add(-longest))
	if err != nil {
		return nil, err
	}

	kpi := func(label string, window time.Duration) KPI {
		currFrom, prevFrom := Bounds(now, window)
		curr := countInRange(records, currFrom, now)
		prev := countInRange(records, prevFrom, currFrom)
		return KPI{Label: label, Current: curr, Previous: prev, DeltaPercent: DeltaPercent(prev, curr)}
	}

	return []KPI{
		kpi("15m", 15*time.Minute),
		kpi("1h", time.Hour),
		kpi("7d", 7*24*time.Hour),
	}, nil
}
