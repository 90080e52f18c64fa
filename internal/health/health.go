// Package health maintains the composite source-health snapshot the API
// serves from the coordination store, built up incrementally from each
// Runner's SourceRun result rather than recomputed from the database.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/scott-cmd11/ai-canada-pulse/internal/coordination"
	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// SnapshotKey is the coordination-store key the API reads the latest
// merged snapshot from.
const SnapshotKey = "source_health:latest"

// SourceHealth is one source's latest known status, merged from its most
// recent SourceRun.
type SourceHealth struct {
	SourceKey           string    `json:"source_key"`
	Status              string    `json:"status"`
	LastRunAt           time.Time `json:"last_run_at"`
	Fetched             int       `json:"fetched"`
	Accepted            int       `json:"accepted"`
	Inserted            int       `json:"inserted"`
	Duplicates          int       `json:"duplicates"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
	SkippedLockCount    int       `json:"skipped_lock_count"`
}

// Snapshot is the composite payload written to SnapshotKey.
type Snapshot struct {
	UpdatedAt       time.Time      `json:"updated_at"`
	RunStatus       string         `json:"run_status"`
	Sources         []SourceHealth `json:"sources"`
	InsertedTotal   int            `json:"inserted_total"`
	CandidatesTotal int            `json:"candidates_total"`
	SkippedLockCount int           `json:"skipped_lock_count"`
}

// Tracker accumulates SourceRun results in memory, keyed by source, and
// flushes a merged Snapshot to the coordination store after each update.
// Merges are idempotent on source key: a run for a source key always
// replaces that key's prior entry rather than appending. The
// ConsecutiveFailures and SkippedLockCount counters are carried over and
// incremented on every error or skipped-lock run Record receives, so
// delivering the same run twice counts it twice.
//
// SkippedLockCount is a monotonic per-source counter for the process
// lifetime of this Tracker: it only ever increases, since distinguishing
// a meaningfully "rolling" window would require persisting per-event
// timestamps the snapshot schema has no room for. A long-lived process
// restart is the natural point the counter resets.
type Tracker struct {
	mu        sync.Mutex
	sources   map[string]SourceHealth
	snapshots *coordination.SnapshotStore
	now       func() time.Time
}

func New(snapshots *coordination.SnapshotStore) *Tracker {
	return &Tracker{sources: make(map[string]SourceHealth), snapshots: snapshots, now: time.Now}
}

// Record merges one SourceRun into the tracker's state and persists the
// recomputed composite snapshot.
func (t *Tracker) Record(ctx context.Context, run model.SourceRun) error {
	t.mu.Lock()
	snapshot := t.merge(run)
	t.mu.Unlock()

	if t.snapshots == nil {
		return nil
	}
	return t.snapshots.Set(ctx, SnapshotKey, snapshot)
}

func (t *Tracker) merge(run model.SourceRun) Snapshot {
	prior := t.sources[run.SourceKey]

	entry := SourceHealth{
		SourceKey:        run.SourceKey,
		Status:           string(run.Status),
		LastRunAt:        run.FinishedAt,
		Fetched:          run.Fetched,
		Accepted:         run.Accepted,
		Inserted:         run.Inserted,
		Duplicates:       run.Duplicates,
		LastError:        run.Error,
		SkippedLockCount: prior.SkippedLockCount,
	}

	switch run.Status {
	case model.RunStatusOK:
		entry.ConsecutiveFailures = 0
	case model.RunStatusError:
		entry.ConsecutiveFailures = prior.ConsecutiveFailures + 1
	case model.RunStatusSkippedLock:
		entry.ConsecutiveFailures = prior.ConsecutiveFailures
		entry.SkippedLockCount = prior.SkippedLockCount + 1
		// A skipped run reports no new fetch/accept/insert activity of
		// its own; carry the prior run's cumulative figures forward so
		// the dashboard doesn't show a spurious dip to zero.
		entry.Fetched = prior.Fetched
		entry.Accepted = prior.Accepted
		entry.Inserted = prior.Inserted
		entry.Duplicates = prior.Duplicates
		entry.LastError = prior.LastError
	}

	t.sources[run.SourceKey] = entry
	return t.buildSnapshot()
}

func (t *Tracker) buildSnapshot() Snapshot {
	snapshot := Snapshot{UpdatedAt: t.now(), RunStatus: "ok"}
	for _, s := range t.sources {
		snapshot.Sources = append(snapshot.Sources, s)
		snapshot.InsertedTotal += s.Inserted
		snapshot.CandidatesTotal += s.Accepted
		snapshot.SkippedLockCount += s.SkippedLockCount
		if s.Status == string(model.RunStatusError) && s.ConsecutiveFailures > 0 {
			snapshot.RunStatus = "degraded"
		}
	}
	return snapshot
}

// Snapshot returns the tracker's current in-memory view without touching
// the coordination store, useful for tests and for a synchronous
// read-your-write check right after Record.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buildSnapshot()
}
