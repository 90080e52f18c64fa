package runner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/scott-cmd11/ai-canada-pulse/internal/coordination"
	"github.com/scott-cmd11/ai-canada-pulse/internal/ingest"
	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
	"github.com/scott-cmd11/ai-canada-pulse/internal/store"
	"github.com/scott-cmd11/ai-canada-pulse/internal/writer"
)

// fakeLocker is an in-memory stand-in for coordination.Locker: a map
// guarded by a mutex plays the role Redis SET NX plays in production.
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker { return &fakeLocker{held: make(map[string]bool)} }

func (f *fakeLocker) Acquire(ctx context.Context, sourceKey string, ttl time.Duration) (*coordination.Lock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[sourceKey] {
		return nil, coordination.ErrLockHeld
	}
	f.held[sourceKey] = true
	return &coordination.Lock{}, nil
}

func (f *fakeLocker) Release(ctx context.Context, lock *coordination.Lock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.held {
		f.held[k] = false
	}
	return nil
}

type fakeAdapter struct {
	key   string
	items []ingest.RawItem
	err   error
}

func (a *fakeAdapter) Key() string { return a.key }

func (a *fakeAdapter) FetchLive(ctx context.Context, state model.SourceState) ([]ingest.RawItem, model.SourceState, error) {
	if a.err != nil {
		return nil, state, a.err
	}
	state.Cursor = "cursor-updated"
	return a.items, state, nil
}

func (a *fakeAdapter) FetchBackfill(ctx context.Context, window ingest.BackfillWindow) ([]ingest.RawItem, string, error) {
	return a.items, "", a.err
}

func newTestRunner(t *testing.T) (*Runner, store.Store, *fakeLocker) {
	t.Helper()
	st, err := store.OpenSQLiteStore("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(st.Close)

	reg, err := ingest.LoadRegistry("")
	if err != nil {
		t.Fatalf("loading registry: %v", err)
	}

	w := writer.New(st, nil, zerolog.Nop())
	locker := newFakeLocker()
	r := New(reg, st, w, locker, zerolog.Nop(), 0.82, 0.45)
	return r, st, locker
}

func TestRunInsertsRelevantRecords(t *testing.T) {
	r, st, _ := newTestRunner(t)
	now := time.Now().UTC()

	adapter := &fakeAdapter{
		key: "canada_gov_ised",
		items: []ingest.RawItem{
			{Title: "Canada announces new AI safety consultation", URL: "https://canada.ca/ai-consult", PublishedAt: &now},
		},
	}

	run := r.Run(context.Background(), "canada_gov_ised", adapter)
	if run.Status != model.RunStatusOK {
		t.Fatalf("expected RunStatusOK, got %v (err=%s)", run.Status, run.Error)
	}
	if run.Inserted != 1 {
		t.Fatalf("expected 1 inserted, got %d", run.Inserted)
	}

	count, err := st.CountAll(context.Background())
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 stored record, got %d", count)
	}

	state, ok, err := st.GetSourceState(context.Background(), "canada_gov_ised")
	if err != nil || !ok {
		t.Fatalf("expected saved state: ok=%v err=%v", ok, err)
	}
	if state.Cursor != "cursor-updated" {
		t.Fatalf("expected cursor to persist, got %q", state.Cursor)
	}
}

func TestRunSkipsWhenLockHeld(t *testing.T) {
	r, _, locker := newTestRunner(t)
	locker.held["betakit_ai"] = true

	adapter := &fakeAdapter{key: "betakit_ai"}
	run := r.Run(context.Background(), "betakit_ai", adapter)
	if run.Status != model.RunStatusSkippedLock {
		t.Fatalf("expected RunStatusSkippedLock, got %v", run.Status)
	}
}

func TestRunRecordsFailureAndIncrementsBackoffState(t *testing.T) {
	r, st, _ := newTestRunner(t)
	adapter := &fakeAdapter{key: "betakit_ai", err: fmt.Errorf("upstream timeout")}

	run := r.Run(context.Background(), "betakit_ai", adapter)
	if run.Status != model.RunStatusError {
		t.Fatalf("expected RunStatusError, got %v", run.Status)
	}

	state, ok, err := st.GetSourceState(context.Background(), "betakit_ai")
	if err != nil || !ok {
		t.Fatalf("expected saved state after failure: ok=%v err=%v", ok, err)
	}
	if state.ConsecutiveFailures != 1 {
		t.Fatalf("expected 1 consecutive failure, got %d", state.ConsecutiveFailures)
	}
}

func TestRunDropsIrrelevantRecords(t *testing.T) {
	r, st, _ := newTestRunner(t)
	now := time.Now().UTC()

	adapter := &fakeAdapter{
		key: "betakit_ai",
		items: []ingest.RawItem{
			{Title: "Generic AI model announced", URL: "https://example.org/global-item", PublishedAt: &now},
		},
	}

	run := r.Run(context.Background(), "betakit_ai", adapter)
	if run.Status != model.RunStatusOK {
		t.Fatalf("expected RunStatusOK, got %v", run.Status)
	}
	if run.Accepted != 0 {
		t.Fatalf("expected 0 accepted for a non-Canadian item, got %d", run.Accepted)
	}

	count, err := st.CountAll(context.Background())
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 stored records, got %d", count)
	}
}
