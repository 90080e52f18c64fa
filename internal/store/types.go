package store

import (
	"context"
	"time"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// WriteOutcome reports what happened when a record was handed to Write.
type WriteOutcome int

const (
	WriteInserted WriteOutcome = iota
	WriteDuplicate
)

// DevelopmentFilter narrows ListDevelopments. Zero values mean "no filter
// on this dimension."
type DevelopmentFilter struct {
	Since        time.Time
	Until        time.Time
	Category     model.Category
	SourceType   model.SourceType
	Jurisdiction string
	Limit        int
	Offset       int
}

// Store is the persistence surface the runner, writer, backfill sweep,
// health reporter, and analytics engine all share. Both the Postgres and
// sqlite-backed implementations satisfy it identically so analytics logic
// never branches on which engine is underneath.
type Store interface {
	// Write inserts rec, returning WriteDuplicate instead of an error when
	// rec.Hash already exists.
	Write(ctx context.Context, rec model.AIDevelopment) (WriteOutcome, error)

	// ListDevelopments returns records matching filter, newest first.
	ListDevelopments(ctx context.Context, filter DevelopmentFilter) ([]model.AIDevelopment, error)

	// ListSince returns every record published at or after since, in no
	// particular order; analytics does its own bucketing over the result.
	ListSince(ctx context.Context, since time.Time) ([]model.AIDevelopment, error)

	// CountAll returns the total record count, used for health/debug endpoints.
	CountAll(ctx context.Context) (int64, error)

	// GetSourceState returns the persisted state for key, or the zero
	// value with ok=false if the source has never run.
	GetSourceState(ctx context.Context, key string) (model.SourceState, bool, error)

	// SaveSourceState upserts the full state row for one source.
	SaveSourceState(ctx context.Context, state model.SourceState) error

	// SaveSourceRun appends one run record. Runs are append-only: every
	// run is recorded, including failed and lock-skipped ones. The health
	// snapshot's skipped_lock_count does not come from these rows:
	// health.Tracker counts it in memory.
	SaveSourceRun(ctx context.Context, run model.SourceRun) error

	// ListRecentRuns returns the most recent runs for key, newest first,
	// up to limit.
	ListRecentRuns(ctx context.Context, key string, limit int) ([]model.SourceRun, error)

	// RefreshViews refreshes the materialized hourly/weekly aggregates.
	// The sqlite test backend implements this as a no-op: its
	// ListSince-based direct aggregation never depends on materialized
	// state, so there's nothing to refresh.
	RefreshViews(ctx context.Context) error

	// PurgeSynthetic deletes every record produced by the synthetic
	// fallback generator (identified by its example.com placeholder URL)
	// and returns the number removed.
	PurgeSynthetic(ctx context.Context) (int64, error)

	Close()
}
