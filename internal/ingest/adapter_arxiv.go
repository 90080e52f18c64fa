package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

const arxivAPIURL = "https://export.arxiv.org/api/query"

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
}

// ArxivAdapter searches the arXiv Atom API for AI preprints mentioning
// Canada in any indexed field (the all: prefix), the same query-side bias
// OpenAlexAdapter uses.
type ArxivAdapter struct {
	def     model.SourceDefinition
	fetcher *BreakerFetcher
}

func NewArxivAdapter(def model.SourceDefinition, fetcher *BreakerFetcher) *ArxivAdapter {
	return &ArxivAdapter{def: def, fetcher: fetcher}
}

func (a *ArxivAdapter) Key() string { return a.def.Key }

func (a *ArxivAdapter) fetch(ctx context.Context, maxResults int, sortOrder string) ([]arxivEntry, error) {
	q := url.Values{}
	q.Set("search_query", `all:"artificial intelligence" AND all:canada`)
	q.Set("max_results", fmt.Sprintf("%d", maxResults))
	q.Set("sortBy", "submittedDate")
	if sortOrder != "" {
		q.Set("sortOrder", sortOrder)
	}

	doc, err := a.fetcher.FetchFor(ctx, a.def.Key, arxivAPIURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer doc.Body.Close()

	var feed arxivFeed
	dec := xml.NewDecoder(doc.Body)
	dec.Strict = false
	if err := dec.Decode(&feed); err != nil {
		return nil, fmt.Errorf("arxiv: decoding response: %w", err)
	}
	return feed.Entries, nil
}

func (a *ArxivAdapter) toRawItem(e arxivEntry) (RawItem, bool) {
	title := strings.TrimSpace(strings.Join(strings.Fields(e.Title), " "))
	if title == "" || !ContainsAI(title) {
		return RawItem{}, false
	}

	var published *time.Time
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		published = &t
	}

	var authors []string
	for _, au := range e.Authors {
		if au.Name != "" {
			authors = append(authors, au.Name)
		}
		if len(authors) >= 5 {
			break
		}
	}

	return RawItem{
		Title:            title,
		URL:              strings.TrimSpace(e.ID),
		Publisher:        "arXiv",
		PublishedAt:      published,
		Language:         "en",
		Entities:         authors,
		SourceSpecificID: strings.TrimSpace(e.ID),
	}, true
}

func (a *ArxivAdapter) FetchLive(ctx context.Context, state model.SourceState) ([]RawItem, model.SourceState, error) {
	entries, err := a.fetch(ctx, 25, "descending")
	if err != nil {
		return nil, state, err
	}
	var out []RawItem
	for _, e := range entries {
		if item, ok := a.toRawItem(e); ok {
			out = append(out, item)
		}
	}
	return out, state, nil
}

func (a *ArxivAdapter) FetchBackfill(ctx context.Context, window BackfillWindow) ([]RawItem, string, error) {
	limit := window.Limit
	if limit <= 0 {
		limit = 50
	}
	entries, err := a.fetch(ctx, limit, "ascending")
	if err != nil {
		return nil, "", err
	}
	var out []RawItem
	for _, e := range entries {
		if item, ok := a.toRawItem(e); ok {
			out = append(out, item)
		}
	}
	return out, "", nil
}
