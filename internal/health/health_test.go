package health

import (
	"context"
	"testing"
	"time"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

func TestRecordMergesIdempotentlyPerSource(t *testing.T) {
	tr := New(nil)
	tr.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	run := model.SourceRun{SourceKey: "betakit_ai", Status: model.RunStatusOK, Inserted: 3, Accepted: 4}
	if err := tr.Record(ctx, run); err != nil {
		t.Fatalf("recording: %v", err)
	}

	snap := tr.Snapshot()
	if len(snap.Sources) != 1 {
		t.Fatalf("expected 1 tracked source, got %d", len(snap.Sources))
	}
	if snap.InsertedTotal != 3 {
		t.Fatalf("expected inserted_total 3, got %d", snap.InsertedTotal)
	}

	// A second run for the same source replaces, not appends.
	run2 := model.SourceRun{SourceKey: "betakit_ai", Status: model.RunStatusOK, Inserted: 5, Accepted: 6}
	if err := tr.Record(ctx, run2); err != nil {
		t.Fatalf("recording second run: %v", err)
	}
	snap = tr.Snapshot()
	if len(snap.Sources) != 1 {
		t.Fatalf("expected merge to keep 1 source entry, got %d", len(snap.Sources))
	}
	if snap.InsertedTotal != 5 {
		t.Fatalf("expected inserted_total to reflect latest run (5), got %d", snap.InsertedTotal)
	}
}

func TestSkippedLockCountIsMonotonic(t *testing.T) {
	tr := New(nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := model.SourceRun{SourceKey: "vector_news", Status: model.RunStatusSkippedLock}
		if err := tr.Record(ctx, run); err != nil {
			t.Fatalf("recording skip %d: %v", i, err)
		}
	}

	snap := tr.Snapshot()
	if snap.SkippedLockCount != 3 {
		t.Fatalf("expected skipped_lock_count 3 after 3 skips, got %d", snap.SkippedLockCount)
	}
}

func TestConsecutiveFailuresResetOnSuccess(t *testing.T) {
	tr := New(nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		run := model.SourceRun{SourceKey: "amii_news", Status: model.RunStatusError, Error: "timeout"}
		if err := tr.Record(ctx, run); err != nil {
			t.Fatalf("recording failure %d: %v", i, err)
		}
	}
	snap := tr.Snapshot()
	if snap.Sources[0].ConsecutiveFailures != 2 {
		t.Fatalf("expected 2 consecutive failures, got %d", snap.Sources[0].ConsecutiveFailures)
	}
	if snap.RunStatus != "degraded" {
		t.Fatalf("expected run_status degraded after repeated failures, got %s", snap.RunStatus)
	}

	ok := model.SourceRun{SourceKey: "amii_news", Status: model.RunStatusOK, Inserted: 1}
	if err := tr.Record(ctx, ok); err != nil {
		t.Fatalf("recording recovery: %v", err)
	}
	snap = tr.Snapshot()
	if snap.Sources[0].ConsecutiveFailures != 0 {
		t.Fatalf("expected consecutive failures to reset to 0 on success, got %d", snap.Sources[0].ConsecutiveFailures)
	}
}
