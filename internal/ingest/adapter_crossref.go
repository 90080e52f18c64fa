package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

const crossrefWorksURL = "https://api.crossref.org/works"

type crossrefResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWork struct {
	DOI     string   `json:"DOI"`
	Title   []string `json:"title"`
	URL     string   `json:"URL"`
	Created struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"created"`
	Institution []struct {
		Name string `json:"name"`
	} `json:"institution"`
}

// CrossrefAdapter queries the Crossref works API as a second academic
// signal alongside OpenAlex, biased toward Canadian-affiliated works by
// query string.
type CrossrefAdapter struct {
	def     model.SourceDefinition
	fetcher *BreakerFetcher
}

func NewCrossrefAdapter(def model.SourceDefinition, fetcher *BreakerFetcher) *CrossrefAdapter {
	return &CrossrefAdapter{def: def, fetcher: fetcher}
}

func (a *CrossrefAdapter) Key() string { return a.def.Key }

func (a *CrossrefAdapter) query(ctx context.Context, rows int, sort string) ([]crossrefWork, error) {
	q := url.Values{}
	q.Set("query", "artificial intelligence canada")
	q.Set("rows", fmt.Sprintf("%d", rows))
	if sort != "" {
		q.Set("sort", sort)
		q.Set("order", "desc")
	}

	doc, err := a.fetcher.FetchFor(ctx, a.def.Key, crossrefWorksURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer doc.Body.Close()

	var payload crossrefResponse
	if err := json.NewDecoder(doc.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("crossref: decoding response: %w", err)
	}
	return payload.Message.Items, nil
}

func (a *CrossrefAdapter) toRawItem(w crossrefWork) (RawItem, bool) {
	title := ""
	if len(w.Title) > 0 {
		title = strings.TrimSpace(w.Title[0])
	}
	if title == "" || !ContainsAI(title) {
		return RawItem{}, false
	}

	var published *time.Time
	if len(w.Created.DateParts) > 0 && len(w.Created.DateParts[0]) >= 3 {
		dp := w.Created.DateParts[0]
		t := time.Date(dp[0], time.Month(dp[1]), dp[2], 0, 0, 0, 0, time.UTC)
		published = &t
	}

	link := w.URL
	if link == "" && w.DOI != "" {
		link = "https://doi.org/" + w.DOI
	}

	var entities []string
	for _, inst := range w.Institution {
		if inst.Name != "" {
			entities = mergeUniqueFold(entities, []string{inst.Name})
		}
	}

	return RawItem{
		Title:            title,
		URL:              link,
		Publisher:        "Crossref",
		PublishedAt:      published,
		Language:         "en",
		Entities:         entities,
		SourceSpecificID: w.DOI,
	}, true
}

func (a *CrossrefAdapter) FetchLive(ctx context.Context, state model.SourceState) ([]RawItem, model.SourceState, error) {
	works, err := a.query(ctx, 25, "created")
	if err != nil {
		return nil, state, err
	}
	var out []RawItem
	for _, w := range works {
		if item, ok := a.toRawItem(w); ok {
			out = append(out, item)
		}
	}
	return out, state, nil
}

func (a *CrossrefAdapter) FetchBackfill(ctx context.Context, window BackfillWindow) ([]RawItem, string, error) {
	limit := window.Limit
	if limit <= 0 {
		limit = 50
	}
	works, err := a.query(ctx, limit, "")
	if err != nil {
		return nil, "", err
	}
	var out []RawItem
	for _, w := range works {
		if item, ok := a.toRawItem(w); ok {
			out = append(out, item)
		}
	}
	return out, "", nil
}
