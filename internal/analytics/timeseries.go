package analytics

import (
	"context"
	"time"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// HourlyBucket is one zero-filled hour of the 24-hour stacked chart.
type HourlyBucket struct {
	BucketStart time.Time                 `json:"bucket_start"`
	Counts      map[model.Category]int    `json:"counts"`
}

// WeeklyBucket is one zero-filled week of the 12-week bar chart.
type WeeklyBucket struct {
	BucketStart time.Time                 `json:"bucket_start"`
	Counts      map[model.Category]int    `json:"counts"`
}

func zeroCounts() map[model.Category]int {
	m := make(map[model.Category]int, len(model.AllCategories))
	for _, c := range model.AllCategories {
		m[c] = 0
	}
	return m
}

// Hourly builds 24 zero-filled hour buckets ending at now, each holding a
// per-category count. The spec prefers reading from the hourly_stats
// materialized view; since this engine always aggregates in Go from
// ListSince (see internal/store's Store doc comment), a stale or
// un-refreshed view never desyncs this result from direct aggregation —
// there is nothing here that can fall behind the view to fall back from.
func (e *Engine) Hourly(ctx context.Context) ([]HourlyBucket, error) {
	now := e.now().Truncate(time.Hour)
	since := now.Add(-24 * time.Hour)
	records, err := e.loadWindow(ctx, since)
	if err != nil {
		return nil, err
	}

	buckets := make([]HourlyBucket, 24)
	for i := range buckets {
		buckets[i] = HourlyBucket{BucketStart: since.Add(time.Duration(i) * time.Hour), Counts: zeroCounts()}
	}

	for _, r := range records {
		if r.PublishedAt.Before(since) || !r.PublishedAt.Before(now.Add(time.Hour)) {
			continue
		}
		idx := int(r.PublishedAt.Sub(since) / time.Hour)
		if idx < 0 || idx >= len(buckets) {
			continue
		}
		buckets[idx].Counts[r.Category]++
	}
	return buckets, nil
}

// Weekly builds 12 zero-filled week buckets ending at now, each holding
// a per-category count.
func (e *Engine) Weekly(ctx context.Context) ([]WeeklyBucket, error) {
	week := 7 * 24 * time.Hour
	now := e.now().Truncate(24 * time.Hour)
	since := now.Add(-12 * week)
	records, err := e.loadWindow(ctx, since)
	if err != nil {
		return nil, err
	}

	buckets := make([]WeeklyBucket, 12)
	for i := range buckets {
		buckets[i] = WeeklyBucket{BucketStart: since.Add(time.Duration(i) * week), Counts: zeroCounts()}
	}

	for _, r := range records {
		if r.PublishedAt.Before(since) {
			continue
		}
		idx := int(r.PublishedAt.Sub(since) / week)
		if idx < 0 || idx >= len(buckets) {
			continue
		}
		buckets[idx].Counts[r.Category]++
	}
	return buckets, nil
}
