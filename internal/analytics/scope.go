package analytics

import (
	"context"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// ScopeCounts is a {canada, global, other} split of a count total.
//
// "other" is computed as max(0, total-canada-global), matching the
// behavior this was ported from even though provincial jurisdictions
// (Ontario, Quebec, ...) also originate in Canada and are counted into
// "other" rather than "canada" here. This is a known quirk, not a bug;
// see the Open Questions note on scope-compare semantics.
type ScopeCounts struct {
	Canada int `json:"canada"`
	Global int `json:"global"`
	Other  int `json:"other"`
	Total  int `json:"total"`
}

func splitScope(records []model.AIDevelopment) ScopeCounts {
	var s ScopeCounts
	s.Total = len(records)
	for _, r := range records {
		switch r.Jurisdiction {
		case "Canada":
			s.Canada++
		case "Global":
			s.Global++
		}
	}
	s.Other = s.Total - s.Canada - s.Global
	if s.Other < 0 {
		s.Other = 0
	}
	return s
}

// ScopeCompare is the overall split plus a per-category breakdown, with
// categories reported in fixed lexical order: the source this ported
// from string-sorts category names in its scope-compare output, and
// dashboard callers should treat that ordering as cosmetic, not numeric.
type ScopeCompare struct {
	Overall    ScopeCounts            `json:"overall"`
	ByCategory map[model.Category]ScopeCounts `json:"by_category"`
}

// ScopeCompare splits the window's records into canada/global/other,
// both overall and per category.
func (e *Engine) ScopeCompare(ctx context.Context, window Window) (ScopeCompare, error) {
	d, err := window.Duration()
	if err != nil {
		return ScopeCompare{}, err
	}
	now := e.now()
	records, err := e.loadWindow(ctx, now.Add(-d))
	if err != nil {
		return ScopeCompare{}, err
	}
	records = filterInRange(records, now.Add(-d), now)

	byCategory := make(map[model.Category][]model.AIDevelopment)
	for _, r := range records {
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}

	out := ScopeCompare{Overall: splitScope(records), ByCategory: make(map[model.Category]ScopeCounts, len(model.AllCategories))}
	for _, c := range model.AllCategories {
		out.ByCategory[c] = splitScope(byCategory[c])
	}
	return out, nil
}
