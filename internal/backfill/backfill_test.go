package backfill

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/scott-cmd11/ai-canada-pulse/internal/ingest"
	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
	"github.com/scott-cmd11/ai-canada-pulse/internal/store"
	"github.com/scott-cmd11/ai-canada-pulse/internal/writer"
)

// fakeAcademicAdapter returns a fixed item set for every window,
// independent of the requested range, so a test can assert on total
// counts across however many windows the range produces.
type fakeAcademicAdapter struct {
	items []ingest.RawItem
}

func (a *fakeAcademicAdapter) Key() string { return "openalex" }

func (a *fakeAcademicAdapter) FetchLive(ctx context.Context, state model.SourceState) ([]ingest.RawItem, model.SourceState, error) {
	return a.items, state, nil
}

func (a *fakeAcademicAdapter) FetchBackfill(ctx context.Context, window ingest.BackfillWindow) ([]ingest.RawItem, string, error) {
	return a.items, "", nil
}

func academicSource() model.SourceDefinition {
	return model.SourceDefinition{
		Key:        "openalex",
		SourceType: model.SourceTypeAcademic,
		Enabled:    true,
	}
}

func newTestSweeper(t *testing.T, items []ingest.RawItem) (*Sweeper, store.Store) {
	t.Helper()
	st, err := store.OpenSQLiteStore("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(st.Close)

	w := writer.New(st, nil, zerolog.Nop())
	adapter := &fakeAcademicAdapter{items: items}
	sweeper := New(academicSource(), adapter, w, st, nil, zerolog.Nop())
	return sweeper, st
}

func TestRunAcceptsCanadianInstitutionBoostedItem(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	items := []ingest.RawItem{
		{
			Title:       "Deep learning for climate modelling",
			URL:         "https://openalex.org/W1",
			Publisher:   "OpenAlex",
			PublishedAt: &now,
			Entities:    []string{"University of Toronto"},
		},
	}

	sweeper, st := newTestSweeper(t, items)
	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)

	if err := sweeper.Run(context.Background(), from, until); err != nil {
		t.Fatalf("running sweep: %v", err)
	}

	count, err := st.CountAll(context.Background())
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the Toronto-affiliated item to clear the boosted gate, got %d rows", count)
	}
}

func TestRunRejectsItemWithoutCanadianSignal(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	items := []ingest.RawItem{
		{
			Title:       "A new transformer architecture",
			URL:         "https://openalex.org/W2",
			Publisher:   "OpenAlex",
			PublishedAt: &now,
			Entities:    []string{"Stanford University"},
		},
	}

	sweeper, st := newTestSweeper(t, items)
	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)

	if err := sweeper.Run(context.Background(), from, until); err != nil {
		t.Fatalf("running sweep: %v", err)
	}

	count, err := st.CountAll(context.Background())
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no Canada signal to fail the gate, got %d rows", count)
	}
}

func TestRunReportsCompletedStatusAcrossMultipleWindows(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	items := []ingest.RawItem{
		{
			Title:       "Federated learning across Canadian hospitals",
			URL:         "https://openalex.org/W3",
			Publisher:   "OpenAlex",
			PublishedAt: &now,
			Entities:    []string{"McGill"},
		},
	}

	sweeper, st := newTestSweeper(t, items)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	if err := sweeper.Run(context.Background(), from, until); err != nil {
		t.Fatalf("running sweep: %v", err)
	}

	count, err := st.CountAll(context.Background())
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	// 3 calendar-month windows, the same item surfacing in each — distinct
	// per-window titles would be needed for distinct hashes, but the point
	// here is that repeated windows don't error, not dedup behavior.
	if count == 0 {
		t.Fatalf("expected at least one insert across the swept range, got 0")
	}
}

func TestRunFailsFastOnAdapterError(t *testing.T) {
	st, err := store.OpenSQLiteStore("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	w := writer.New(st, nil, zerolog.Nop())
	failing := &erroringAdapter{}
	sweeper := New(academicSource(), failing, w, st, nil, zerolog.Nop())

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	if err := sweeper.Run(context.Background(), from, until); err == nil {
		t.Fatal("expected the sweep to surface the adapter error")
	}
}

type erroringAdapter struct{}

func (a *erroringAdapter) Key() string { return "openalex" }

func (a *erroringAdapter) FetchLive(ctx context.Context, state model.SourceState) ([]ingest.RawItem, model.SourceState, error) {
	return nil, state, context.DeadlineExceeded
}

func (a *erroringAdapter) FetchBackfill(ctx context.Context, window ingest.BackfillWindow) ([]ingest.RawItem, string, error) {
	return nil, "", context.DeadlineExceeded
}
