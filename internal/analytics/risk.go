package analytics

import (
	"context"
	"math"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// RiskIndex is the composite 0-100 signal-health score plus the
// machine-readable reasons that contributed to it.
type RiskIndex struct {
	Score   float64  `json:"score"`
	Level   string   `json:"level"`
	Reasons []string `json:"reasons"`

	IncidentsRatio     float64 `json:"incidents_ratio"`
	LowConfidenceRatio float64 `json:"low_confidence_ratio"`
	CombinedHHI        float64 `json:"combined_hhi"`
	HighAlertCount     int     `json:"high_alert_count"`
}

// Reason thresholds. The spec names the four elevated-signal reasons
// but not their individual cutoffs; these mirror the score weighting
// each component carries (incidents and confidence both weighted
// heavily, concentration reuses the same 0.4 "high" boundary the
// concentration endpoint itself uses).
const (
	incidentRatioElevated     = 0.15
	lowConfidenceShareElevated = 0.25
	concentrationHighBoundary = 0.4
	multipleHighAlertsFloor   = 2
)

func riskLevel(score float64) string {
	switch {
	case score >= 70:
		return "high"
	case score >= 40:
		return "medium"
	default:
		return "low"
	}
}

// Risk computes the composite risk index for window: incident share,
// low-confidence share, publisher/jurisdiction/category concentration,
// and the count of high-severity alerts all feed into one 0-100 score.
func (e *Engine) Risk(ctx context.Context, window Window) (RiskIndex, error) {
	d, err := window.Duration()
	if err != nil {
		return RiskIndex{}, err
	}
	now := e.now()
	records, err := e.loadWindow(ctx, now.Add(-d))
	if err != nil {
		return RiskIndex{}, err
	}
	records = filterInRange(records, now.Add(-d), now)

	total := len(records)
	incidents := 0
	lowConfidence := 0
	for _, r := range records {
		if r.Category == model.CategoryIncidents {
			incidents++
		}
		if confidenceBucket(r.Confidence) == "low" {
			lowConfidence++
		}
	}

	var incidentsRatio, lowConfRatio float64
	if total > 0 {
		incidentsRatio = float64(incidents) / float64(total)
		lowConfRatio = float64(lowConfidence) / float64(total)
	}

	concentration, err := e.Concentration(ctx, window)
	if err != nil {
		return RiskIndex{}, err
	}

	alerts, err := e.Alerts(ctx, window, DefaultAlertParams())
	if err != nil {
		return RiskIndex{}, err
	}
	highAlerts := 0
	for _, a := range alerts {
		if a.Severity == "high" {
			highAlerts++
		}
	}

	score := incidentsRatio*35 + lowConfRatio*25 + concentration.Combined*40 + math.Min(20, float64(highAlerts)*5)
	score = clamp(score, 0, 100)

	var reasons []string
	if incidentsRatio >= incidentRatioElevated {
		reasons = append(reasons, "incident_ratio_elevated")
	}
	if lowConfRatio >= lowConfidenceShareElevated {
		reasons = append(reasons, "low_confidence_share_elevated")
	}
	if concentration.Combined >= concentrationHighBoundary {
		reasons = append(reasons, "signal_concentration_high")
	}
	if highAlerts >= multipleHighAlertsFloor {
		reasons = append(reasons, "multiple_high_alerts")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "stable_signal_profile")
	}

	return RiskIndex{
		Score: round2(score), Level: riskLevel(score), Reasons: reasons,
		IncidentsRatio: round2(incidentsRatio), LowConfidenceRatio: round2(lowConfRatio),
		CombinedHHI: concentration.Combined, HighAlertCount: highAlerts,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
