package analytics

import (
	"context"
	"time"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// RiskPoint is one bucket of the risk-trend series.
type RiskPoint struct {
	BucketStart time.Time `json:"bucket_start"`
	Score       float64   `json:"score"`
}

// bucketPlan returns the (stepCount, stepDuration) pair the risk-trend
// endpoint uses for a given window: shorter windows get fine-grained
// buckets, longer ones collapse to week or month granularity so the
// series stays a readable size.
func bucketPlan(w Window) (steps int, step time.Duration) {
	switch w {
	case Window1h:
		return 12, 5 * time.Minute
	case Window24h:
		return 24, time.Hour
	case Window7d:
		return 7, 24 * time.Hour
	case Window30d:
		return 30, 24 * time.Hour
	case Window90d:
		return 13, 7 * 24 * time.Hour
	default:
		// 1y/2y/5y: monthly buckets, approximated as 30-day steps since
		// the bucket boundaries only need to be evenly spaced, not
		// calendar-exact.
		d, _ := w.Duration()
		months := int(d / (30 * 24 * time.Hour))
		if months < 1 {
			months = 1
		}
		return months, 30 * 24 * time.Hour
	}
}

// RiskTrend computes a per-bucket simplified risk score
// (100*(incidents_ratio*0.6 + low_confidence_ratio*0.4)) across the
// window's bucket plan. Unlike Risk, the trend omits concentration and
// alert terms since those need a full window's data to be meaningful
// at every point, not just a thin bucket slice.
func (e *Engine) RiskTrend(ctx context.Context, window Window) ([]RiskPoint, error) {
	steps, step := bucketPlan(window)
	now := e.now()
	since := now.Add(-time.Duration(steps) * step)
	records, err := e.loadWindow(ctx, since)
	if err != nil {
		return nil, err
	}

	points := make([]RiskPoint, steps)
	for i := 0; i < steps; i++ {
		from := since.Add(time.Duration(i) * step)
		until := from.Add(step)
		bucket := filterInRange(records, from, until)

		total := len(bucket)
		var incidentsRatio, lowConfRatio float64
		if total > 0 {
			incidents, lowConf := 0, 0
			for _, r := range bucket {
				if r.Category == model.CategoryIncidents {
					incidents++
				}
				if confidenceBucket(r.Confidence) == "low" {
					lowConf++
				}
			}
			incidentsRatio = float64(incidents) / float64(total)
			lowConfRatio = float64(lowConf) / float64(total)
		}

		score := clamp(100*(incidentsRatio*0.6+lowConfRatio*0.4), 0, 100)
		points[i] = RiskPoint{BucketStart: from, Score: round2(score)}
	}
	return points, nil
}
