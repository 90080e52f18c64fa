package writer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
	"github.com/scott-cmd11/ai-canada-pulse/internal/store"
)

func newTestWriter(t *testing.T) (*Writer, store.Store) {
	t.Helper()
	st, err := store.OpenSQLiteStore("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(st.Close)
	return New(st, nil, zerolog.Nop()), st
}

func TestWriteBatchCountsDuplicates(t *testing.T) {
	w, _ := newTestWriter(t)
	now := time.Now().UTC()

	base := model.AIDevelopment{
		ID: uuid.NewString(), SourceID: "a", SourceType: model.SourceTypeMedia,
		Category: model.CategoryNews, Title: "AI in Canada", URL: "https://example.org/a",
		Publisher: "BetaKit", PublishedAt: now, IngestedAt: now, Language: model.LanguageEnglish,
		Jurisdiction: "Canada", Hash: "batch-hash-1", Confidence: 0.9,
	}
	dup := base
	dup.ID = uuid.NewString()

	distinct := base
	distinct.ID = uuid.NewString()
	distinct.Hash = "batch-hash-2"

	res := w.WriteBatch(context.Background(), []model.AIDevelopment{base, dup, distinct})
	if res.Inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", res.Inserted)
	}
	if res.Duplicates != 1 {
		t.Fatalf("expected 1 duplicate, got %d", res.Duplicates)
	}
	if res.Errors != 0 {
		t.Fatalf("expected 0 errors, got %d", res.Errors)
	}
}
