package ingest

import (
	"context"
	"io"
	"time"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// RawItem is the untrusted, source-shaped payload an Adapter hands back
// before normalization. Fields are optional except Title and URL: a
// source that cannot supply a field leaves it at the zero value and lets
// the normalizer fall back to a source-type default.
type RawItem struct {
	Title          string
	Description    string
	URL            string
	Publisher      string
	PublishedAtRaw string
	PublishedAt    *time.Time
	Language       string
	Jurisdiction   string
	Entities       []string
	Tags           []string

	// SourceSpecificID, if the upstream API exposes a stable identifier,
	// is preferred over URL when the normalizer builds the canonical
	// source_id.
	SourceSpecificID string
}

// FetchedDocument is the raw result of one HTTP round trip.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
	Headers     map[string][]string
}

// Fetcher retrieves raw bytes from a URL. HTTPFetcher is the plain HTTP
// client; BreakerFetcher adds per-source circuit breaking around it.
// Neither retries a request nor rate-limits.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}

// FetchMode distinguishes an adapter's normal poll from a historical sweep.
type FetchMode int

const (
	// ModeLive is the ordinary scheduled poll: newest items only.
	ModeLive FetchMode = iota
	// ModeBackfill requests a bounded historical window from the adapter.
	ModeBackfill
)

// BackfillWindow bounds a single backfill page request.
type BackfillWindow struct {
	From   time.Time
	Until  time.Time
	Cursor string
	Limit  int
}

// Adapter is the capability every source implements: given the stored
// cursor/etag state, return new raw items and the state to persist for
// next time. A live call should be cheap and idempotent to retry. No
// adapter in this package reads a backfill window's Cursor.
type Adapter interface {
	// Key returns the source registry key this adapter serves.
	Key() string

	// FetchLive returns items newer than the state's cursor, plus the
	// state to persist (updated cursor/etag) for the next run.
	FetchLive(ctx context.Context, state model.SourceState) ([]RawItem, model.SourceState, error)

	// FetchBackfill returns one page of historical items for window, plus
	// a next-page cursor. Every adapter here returns an empty cursor.
	// OpenAlexAdapter narrows its search by window's years. The arXiv,
	// Crossref and GitHub adapters use only window.Limit. The feed, sitemap
	// and crawler adapters return a live pull. So those six return the
	// same items for every window.
	FetchBackfill(ctx context.Context, window BackfillWindow) ([]RawItem, string, error)
}
