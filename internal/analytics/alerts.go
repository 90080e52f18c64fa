package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// AlertParams are the tunable gates around baseline readiness and the
// delta/z-score triggers. Callers needing the defaults can use
// DefaultAlertParams(); the HTTP layer may override any of them from
// query parameters.
type AlertParams struct {
	MinBaseline     int
	MinDeltaPercent float64
	MinZScore       float64
}

func DefaultAlertParams() AlertParams {
	return AlertParams{MinBaseline: 3, MinDeltaPercent: 35, MinZScore: 1.2}
}

// Alert is one category's current-vs-baseline divergence.
type Alert struct {
	Category       model.Category `json:"category"`
	Current        int            `json:"current"`
	Previous       int            `json:"previous"`
	DeltaPercent   float64        `json:"delta_percent"`
	ZScore         float64        `json:"z_score"`
	BaselineMean   float64        `json:"baseline_mean"`
	BaselineStddev float64        `json:"baseline_stddev"`
	Severity       string         `json:"severity"`
	TriggerReason  string         `json:"trigger_reason"`
	Direction      string         `json:"direction"`
}

func lookbackWindows(w Window) int {
	switch w {
	case Window90d:
		return 6
	case Window1y, Window2y, Window5y:
		return 4
	default:
		return 8
	}
}

func meanStddev(history []int) (mean, stddev float64) {
	if len(history) == 0 {
		return 0, 0
	}
	sum := 0
	for _, v := range history {
		sum += v
	}
	mean = float64(sum) / float64(len(history))
	if len(history) < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range history {
		diff := float64(v) - mean
		sq += diff * diff
	}
	return mean, math.Sqrt(sq / float64(len(history)))
}

// zScore applies the standard formula when the baseline has spread; a
// perfectly flat baseline (stddev 0) would otherwise divide by zero, so
// a sufficiently large absolute jump is reported as a fixed ±2.0 instead
// of a computed magnitude.
func zScore(curr int, mean, stddev float64) float64 {
	diff := float64(curr) - mean
	if stddev > 0 {
		return diff / stddev
	}
	threshold := math.Max(2.0, 0.5*mean)
	if math.Abs(diff) >= threshold {
		if diff >= 0 {
			return 2.0
		}
		return -2.0
	}
	return 0
}

func countByCategoryInRange(records []model.AIDevelopment, category model.Category, from, until time.Time) int {
	n := 0
	for _, r := range records {
		if r.Category == category && inRange(r.PublishedAt, from, until) {
			n++
		}
	}
	return n
}

// Alerts computes the category-delta alert set for window, using params
// as the baseline-readiness and trigger thresholds.
func (e *Engine) Alerts(ctx context.Context, window Window, params AlertParams) ([]Alert, error) {
	d, err := window.Duration()
	if err != nil {
		return nil, err
	}
	lookback := lookbackWindows(window)
	now := e.now()
	records, err := e.loadWindow(ctx, now.Add(-time.Duration(lookback+1)*d))
	if err != nil {
		return nil, err
	}

	currFrom := now.Add(-d)

	var alerts []Alert
	for _, category := range model.AllCategories {
		curr := countByCategoryInRange(records, category, currFrom, now)

		history := make([]int, lookback)
		for i := 1; i <= lookback; i++ {
			from := now.Add(-time.Duration(i+1) * d)
			until := now.Add(-time.Duration(i) * d)
			history[i-1] = countByCategoryInRange(records, category, from, until)
		}
		prev := 0
		if lookback > 0 {
			prev = history[0]
		}

		mean, stddev := meanStddev(history)
		delta := DeltaPercent(prev, curr)
		z := zScore(curr, mean, stddev)

		baselineReady := math.Max(float64(prev), math.Round(mean)) >= float64(params.MinBaseline) || float64(curr) >= float64(params.MinBaseline)
		if !baselineReady {
			continue
		}

		deltaTriggered := math.Abs(delta) >= params.MinDeltaPercent
		zTriggered := math.Abs(z) >= params.MinZScore
		if !deltaTriggered && !zTriggered {
			continue
		}

		var reason string
		switch {
		case deltaTriggered && zTriggered:
			reason = "hybrid"
		case deltaTriggered:
			reason = "delta"
		default:
			reason = "z_score"
		}

		severity := "medium"
		if math.Abs(delta) >= 100 || math.Abs(z) >= 2.5 {
			severity = "high"
		}

		direction := "down"
		if float64(curr) >= mean {
			direction = "up"
		}

		alerts = append(alerts, Alert{
			Category: category, Current: curr, Previous: prev,
			DeltaPercent: delta, ZScore: round2(z),
			BaselineMean: round2(mean), BaselineStddev: round2(stddev),
			Severity: severity, TriggerReason: reason, Direction: direction,
		})
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alertScore(alerts[i], params) > alertScore(alerts[j], params)
	})
	if len(alerts) > 8 {
		alerts = alerts[:8]
	}
	return alerts, nil
}

func alertScore(a Alert, params AlertParams) float64 {
	score := math.Max(math.Abs(a.DeltaPercent)/params.MinDeltaPercent, math.Abs(a.ZScore)/params.MinZScore)
	if a.Severity == "high" {
		score += 2
	}
	return score
}
