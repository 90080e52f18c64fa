package analytics

import (
	"context"
	"sort"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// Momentum is one entity's (category or publisher) current-vs-previous
// count comparison.
type Momentum struct {
	Label        string  `json:"label"`
	Current      int     `json:"current"`
	Previous     int     `json:"previous"`
	Change       int     `json:"change"`
	DeltaPercent float64 `json:"delta_percent"`
}

func buildMomentum(curr, prev map[string]int) []Momentum {
	labels := make(map[string]bool, len(curr)+len(prev))
	for l := range curr {
		labels[l] = true
	}
	for l := range prev {
		labels[l] = true
	}

	out := make([]Momentum, 0, len(labels))
	for label := range labels {
		c, p := curr[label], prev[label]
		out = append(out, Momentum{
			Label: label, Current: c, Previous: p,
			Change: c - p, DeltaPercent: DeltaPercent(p, c),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := abs(out[i].Change), abs(out[j].Change)
		if ai != aj {
			return ai > aj
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// CategoryMomentum compares each of the six categories' current-window
// count against the equal-length previous window, sorted by |change|.
func (e *Engine) CategoryMomentum(ctx context.Context, window Window) ([]Momentum, error) {
	d, err := window.Duration()
	if err != nil {
		return nil, err
	}
	now := e.now()
	currFrom, prevFrom := Bounds(now, d)
	records, err := e.loadWindow(ctx, prevFrom)
	if err != nil {
		return nil, err
	}

	curr := countBy(filterInRange(records, currFrom, now), func(r model.AIDevelopment) string { return string(r.Category) })
	prev := countBy(filterInRange(records, prevFrom, currFrom), func(r model.AIDevelopment) string { return string(r.Category) })
	for _, c := range model.AllCategories {
		if _, ok := curr[string(c)]; !ok {
			curr[string(c)] = 0
		}
	}
	return buildMomentum(curr, prev), nil
}

// PublisherMomentum compares the top-40 publishers (by combined current
// + previous volume) across the same two windows.
func (e *Engine) PublisherMomentum(ctx context.Context, window Window) ([]Momentum, error) {
	d, err := window.Duration()
	if err != nil {
		return nil, err
	}
	now := e.now()
	currFrom, prevFrom := Bounds(now, d)
	records, err := e.loadWindow(ctx, prevFrom)
	if err != nil {
		return nil, err
	}

	curr := countBy(filterInRange(records, currFrom, now), func(r model.AIDevelopment) string { return r.Publisher })
	prev := countBy(filterInRange(records, prevFrom, currFrom), func(r model.AIDevelopment) string { return r.Publisher })

	combined := make(map[string]int, len(curr)+len(prev))
	for l, c := range curr {
		combined[l] += c
	}
	for l, c := range prev {
		combined[l] += c
	}
	top := topN(combined, 40)

	currTop := make(map[string]int, len(top))
	prevTop := make(map[string]int, len(top))
	for _, b := range top {
		currTop[b.Label] = curr[b.Label]
		prevTop[b.Label] = prev[b.Label]
	}
	return buildMomentum(currTop, prevTop), nil
}
