package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

const openAlexURL = "https://api.openalex.org/works"

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID              string `json:"id"`
	DisplayName     string `json:"display_name"`
	PublicationDate string `json:"publication_date"`
	Language        string `json:"language"`
	PrimaryLocation struct {
		LandingPageURL string `json:"landing_page_url"`
	} `json:"primary_location"`
	Authorships []struct {
		Institutions []struct {
			DisplayName string `json:"display_name"`
		} `json:"institutions"`
	} `json:"authorships"`
}

// OpenAlexAdapter queries the OpenAlex works API for AI-related papers and
// is biased toward Canada by query string rather than a strict filter, so
// the relevance gate downstream still does the real admission decision.
type OpenAlexAdapter struct {
	def     model.SourceDefinition
	fetcher *BreakerFetcher
}

func NewOpenAlexAdapter(def model.SourceDefinition, fetcher *BreakerFetcher) *OpenAlexAdapter {
	return &OpenAlexAdapter{def: def, fetcher: fetcher}
}

func (a *OpenAlexAdapter) Key() string { return a.def.Key }

func (a *OpenAlexAdapter) fetchPage(ctx context.Context, search string, perPage int, sort string) ([]openAlexWork, error) {
	q := url.Values{}
	q.Set("search", search)
	q.Set("per-page", strconv.Itoa(perPage))
	if sort != "" {
		q.Set("sort", sort)
	}
	doc, err := a.fetcher.FetchFor(ctx, a.def.Key, openAlexURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer doc.Body.Close()

	var payload openAlexResponse
	if err := json.NewDecoder(doc.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openalex: decoding response: %w", err)
	}
	return payload.Results, nil
}

func (a *OpenAlexAdapter) FetchLive(ctx context.Context, state model.SourceState) ([]RawItem, model.SourceState, error) {
	works, err := a.fetchPage(ctx, "artificial intelligence Canada", 25, "publication_date:desc")
	if err != nil {
		return nil, state, err
	}

	var out []RawItem
	for _, w := range works {
		item, ok := a.toRawItem(w)
		if !ok {
			continue
		}
		out = append(out, item)
	}
	return out, state, nil
}

func (a *OpenAlexAdapter) FetchBackfill(ctx context.Context, window BackfillWindow) ([]RawItem, string, error) {
	fromYear := window.From.Year()
	untilYear := window.Until.Year()
	search := fmt.Sprintf("artificial intelligence Canada %d-%d", fromYear, untilYear)

	limit := window.Limit
	if limit <= 0 {
		limit = 50
	}
	works, err := a.fetchPage(ctx, search, limit, "publication_date:asc")
	if err != nil {
		return nil, "", err
	}

	var out []RawItem
	for _, w := range works {
		item, ok := a.toRawItem(w)
		if !ok {
			continue
		}
		out = append(out, item)
	}
	// OpenAlex's free-text search endpoint has no stable cursor token in
	// this mode; a single bounded page per window keeps the sweep finite.
	return out, "", nil
}

func (a *OpenAlexAdapter) toRawItem(w openAlexWork) (RawItem, bool) {
	title := strings.TrimSpace(w.DisplayName)
	if title == "" || !ContainsAI(title) {
		return RawItem{}, false
	}

	publishedRaw := w.PublicationDate
	if publishedRaw == "" {
		publishedRaw = time.Now().UTC().Format("2006-01-02")
	}
	published, err := time.Parse("2006-01-02", publishedRaw)
	if err != nil {
		published = time.Now().UTC()
	}

	link := w.PrimaryLocation.LandingPageURL
	if link == "" {
		link = "https://openalex.org/" + w.ID
	}

	var institutions []string
	for _, auth := range w.Authorships {
		for _, inst := range auth.Institutions {
			if inst.DisplayName != "" {
				institutions = mergeUniqueFold(institutions, []string{inst.DisplayName})
			}
			if len(institutions) >= 8 {
				break
			}
		}
	}
	entities := institutions
	if len(entities) > 5 {
		entities = entities[:5]
	}

	return RawItem{
		Title:            title,
		URL:              link,
		Publisher:        "OpenAlex",
		PublishedAt:      &published,
		Language:         w.Language,
		Entities:         entities,
		SourceSpecificID: w.ID,
	}, true
}
