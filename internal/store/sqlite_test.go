package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func sampleRecord(hash string) model.AIDevelopment {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return model.AIDevelopment{
		ID:           uuid.NewString(),
		SourceID:     "src-1",
		SourceType:   model.SourceTypeGov,
		Category:     model.CategoryPolicy,
		Title:        "Federal AI consultation opens",
		URL:          "https://canada.ca/ai-consult",
		Publisher:    "Government of Canada",
		PublishedAt:  now,
		IngestedAt:   now,
		Language:     model.LanguageEnglish,
		Jurisdiction: "Canada",
		Entities:     []string{"Government of Canada"},
		Tags:         []string{"policy"},
		Hash:         hash,
		Confidence:   0.95,
	}
}

func TestWriteDedupByHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("hash-one")
	outcome, err := s.Write(ctx, rec)
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	if outcome != WriteInserted {
		t.Fatalf("expected WriteInserted, got %v", outcome)
	}

	dup := sampleRecord("hash-one")
	dup.ID = uuid.NewString()
	outcome, err = s.Write(ctx, dup)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	if outcome != WriteDuplicate {
		t.Fatalf("expected WriteDuplicate, got %v", outcome)
	}

	n, err := s.CountAll(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row after duplicate write, got %d", n)
	}
}

func TestSourceStateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.GetSourceState(ctx, "openalex"); err != nil || ok {
		t.Fatalf("expected no state yet, got ok=%v err=%v", ok, err)
	}

	success := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	state := model.SourceState{
		SourceKey:           "openalex",
		Cursor:              "https://openalex.org/W123",
		ConsecutiveFailures: 0,
		LastSuccessAt:       &success,
	}
	if err := s.SaveSourceState(ctx, state); err != nil {
		t.Fatalf("saving state: %v", err)
	}

	got, ok, err := s.GetSourceState(ctx, "openalex")
	if err != nil || !ok {
		t.Fatalf("expected saved state, got ok=%v err=%v", ok, err)
	}
	if got.Cursor != state.Cursor {
		t.Fatalf("cursor mismatch: got %q want %q", got.Cursor, state.Cursor)
	}
	if got.LastSuccessAt == nil || !got.LastSuccessAt.Equal(success) {
		t.Fatalf("last_success_at not round-tripped: %+v", got.LastSuccessAt)
	}
}

func TestSaveAndListRecentRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := model.SourceRun{
			ID:         uuid.NewString(),
			SourceKey:  "betakit_ai",
			Status:     model.RunStatusOK,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Second),
			Inserted:   i,
		}
		if err := s.SaveSourceRun(ctx, run); err != nil {
			t.Fatalf("saving run %d: %v", i, err)
		}
	}

	runs, err := s.ListRecentRuns(ctx, "betakit_ai", 2)
	if err != nil {
		t.Fatalf("listing runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Fatalf("expected runs newest first, got %+v", runs)
	}
}

func TestPurgeSynthetic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	real := sampleRecord("hash-real")
	synthetic := sampleRecord("hash-synthetic")
	synthetic.URL = "https://example.com/ised-abc123"

	if _, err := s.Write(ctx, real); err != nil {
		t.Fatalf("writing real record: %v", err)
	}
	if _, err := s.Write(ctx, synthetic); err != nil {
		t.Fatalf("writing synthetic record: %v", err)
	}

	n, err := s.PurgeSynthetic(ctx)
	if err != nil {
		t.Fatalf("purging: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged row, got %d", n)
	}

	remaining, err := s.CountAll(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected 1 remaining row, got %d", remaining)
	}
}
