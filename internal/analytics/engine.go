package analytics

import (
	"context"
	"time"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
	"github.com/scott-cmd11/ai-canada-pulse/internal/store"
)

// Engine computes aggregates over whatever store.Store backs it. A
// single ListSince call loads everything a request needs; every
// computation downstream partitions that slice in memory rather than
// issuing another query, so one call here bounds one request's DB cost.
type Engine struct {
	store store.Store
	now   func() time.Time
}

func New(st store.Store) *Engine {
	return &Engine{store: st, now: time.Now}
}

// loadWindow fetches every record published since `since` (inclusive),
// which must cover both the current and previous window for any caller
// that needs a period-over-period comparison.
func (e *Engine) loadWindow(ctx context.Context, since time.Time) ([]model.AIDevelopment, error) {
	return e.store.ListSince(ctx, since)
}

func inRange(t, from, until time.Time) bool {
	return !t.Before(from) && t.Before(until)
}

func countInRange(records []model.AIDevelopment, from, until time.Time) int {
	n := 0
	for _, r := range records {
		if inRange(r.PublishedAt, from, until) {
			n++
		}
	}
	return n
}

func filterInRange(records []model.AIDevelopment, from, until time.Time) []model.AIDevelopment {
	var out []model.AIDevelopment
	for _, r := range records {
		if inRange(r.PublishedAt, from, until) {
			out = append(out, r)
		}
	}
	return out
}
