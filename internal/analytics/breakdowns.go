package analytics

import (
	"context"
	"sort"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// Bucket is one labeled count in a top-N breakdown.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

func topN(counts map[string]int, n int) []Bucket {
	out := make([]Bucket, 0, len(counts))
	for label, count := range counts {
		out = append(out, Bucket{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func countBy(records []model.AIDevelopment, key func(model.AIDevelopment) string) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[key(r)]++
	}
	return counts
}

// countByMulti tallies a record's every value under a multi-valued field
// (entities, tags) rather than a single key per record.
func countByMulti(records []model.AIDevelopment, values func(model.AIDevelopment) []string) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		for _, v := range values(r) {
			if v == "" {
				continue
			}
			counts[v]++
		}
	}
	return counts
}

// Breakdowns holds the current window's top-N tallies across the five
// dimensions the stats endpoints expose.
type Breakdowns struct {
	Publishers  []Bucket `json:"publishers"`
	SourceTypes []Bucket `json:"source_types"`
	Jurisdictions []Bucket `json:"jurisdictions"`
	Entities    []Bucket `json:"entities"`
	Tags        []Bucket `json:"tags"`
}

// Breakdown computes the top-N publisher/source_type/jurisdiction/entity/
// tag tallies over the given window.
func (e *Engine) Breakdown(ctx context.Context, window Window, n int) (Breakdowns, error) {
	d, err := window.Duration()
	if err != nil {
		return Breakdowns{}, err
	}
	now := e.now()
	records, err := e.loadWindow(ctx, now.Add(-d))
	if err != nil {
		return Breakdowns{}, err
	}
	records = filterInRange(records, now.Add(-d), now)

	return Breakdowns{
		Publishers:    topN(countBy(records, func(r model.AIDevelopment) string { return r.Publisher }), n),
		SourceTypes:   topN(countBy(records, func(r model.AIDevelopment) string { return string(r.SourceType) }), n),
		Jurisdictions: topN(countBy(records, func(r model.AIDevelopment) string { return r.Jurisdiction }), n),
		Entities:      topN(countByMulti(records, func(r model.AIDevelopment) []string { return r.Entities }), n),
		Tags:          topN(countByMulti(records, func(r model.AIDevelopment) []string { return r.Tags }), n),
	}, nil
}
