package analytics

import "context"

// ConfidenceProfile buckets a window's records into four trust tiers.
type ConfidenceProfile struct {
	VeryHigh        int     `json:"very_high"`
	High            int     `json:"high"`
	Medium          int     `json:"medium"`
	Low             int     `json:"low"`
	VeryHighPercent float64 `json:"very_high_percent"`
	HighPercent     float64 `json:"high_percent"`
	MediumPercent   float64 `json:"medium_percent"`
	LowPercent      float64 `json:"low_percent"`
}

func confidenceBucket(c float64) string {
	switch {
	case c >= 0.85:
		return "very_high"
	case c >= 0.70:
		return "high"
	case c >= 0.50:
		return "medium"
	default:
		return "low"
	}
}

// Confidence computes the bucketed confidence profile for the given
// window, with each bucket's share of the total as a percentage.
func (e *Engine) Confidence(ctx context.Context, window Window) (ConfidenceProfile, error) {
	d, err := window.Duration()
	if err != nil {
		return ConfidenceProfile{}, err
	}
	now := e.now()
	records, err := e.loadWindow(ctx, now.Add(-d))
	if err != nil {
		return ConfidenceProfile{}, err
	}
	records = filterInRange(records, now.Add(-d), now)

	var p ConfidenceProfile
	for _, r := range records {
		switch confidenceBucket(r.Confidence) {
		case "very_high":
			p.VeryHigh++
		case "high":
			p.High++
		case "medium":
			p.Medium++
		default:
			p.Low++
		}
	}

	total := len(records)
	if total > 0 {
		p.VeryHighPercent = round2(100 * float64(p.VeryHigh) / float64(total))
		p.HighPercent = round2(100 * float64(p.High) / float64(total))
		p.MediumPercent = round2(100 * float64(p.Medium) / float64(total))
		p.LowPercent = round2(100 * float64(p.Low) / float64(total))
	}
	return p, nil
}
