package analytics

import (
	"context"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// HHI sums squared shares; a single publisher with 100% share yields
// 1.0, an even split across k groups yields 1/k.
func HHI(counts map[string]int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		share := float64(c) / float64(total)
		sum += share * share
	}
	return round2(sum)
}

// hhiOverTopN restricts the HHI computation to the top-n labels by count,
// matching the spec's "top-8 publishers/jurisdictions" scoping.
func hhiOverTopN(counts map[string]int, n int) float64 {
	top := topN(counts, n)
	restricted := make(map[string]int, len(top))
	for _, b := range top {
		restricted[b.Label] = b.Count
	}
	return HHI(restricted)
}

// Concentration holds the three component HHI scores, their mean, and a
// qualitative label for the combined score.
type Concentration struct {
	PublisherHHI    float64 `json:"publisher_hhi"`
	JurisdictionHHI float64 `json:"jurisdiction_hhi"`
	CategoryHHI     float64 `json:"category_hhi"`
	Combined        float64 `json:"combined"`
	Label           string  `json:"label"`
}

func concentrationLabel(combined float64) string {
	switch {
	case combined >= 0.4:
		return "high"
	case combined >= 0.2:
		return "medium"
	default:
		return "low"
	}
}

// Concentration computes HHI over the top-8 publishers, top-8
// jurisdictions, and all six categories for the given window.
func (e *Engine) Concentration(ctx context.Context, window Window) (Concentration, error) {
	d, err := window.Duration()
	if err != nil {
		return Concentration{}, err
	}
	now := e.now()
	records, err := e.loadWindow(ctx, now.Add(-d))
	if err != nil {
		return Concentration{}, err
	}
	records = filterInRange(records, now.Add(-d), now)

	publisherCounts := countBy(records, func(r model.AIDevelopment) string { return r.Publisher })
	jurisdictionCounts := countBy(records, func(r model.AIDevelopment) string { return r.Jurisdiction })
	categoryCounts := countBy(records, func(r model.AIDevelopment) string { return string(r.Category) })

	pub := hhiOverTopN(publisherCounts, 8)
	jur := hhiOverTopN(jurisdictionCounts, 8)
	cat := HHI(categoryCounts)
	combined := round2((pub + jur + cat) / 3)

	return Concentration{
		PublisherHHI:    pub,
		JurisdictionHHI: jur,
		CategoryHHI:     cat,
		Combined:        combined,
		Label:           concentrationLabel(combined),
	}, nil
}
