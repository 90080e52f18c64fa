package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

type sitemapIndex struct {
	URLs []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// SitemapAdapter walks a source's sitemap.xml for URLs under a configured
// path prefix, then scrapes the page title from each via goquery through
// the shared breaker-wrapped fetcher. This is the news-archive shape used
// by institutes that don't publish an RSS feed.
type SitemapAdapter struct {
	def     model.SourceDefinition
	fetcher *BreakerFetcher
}

func NewSitemapAdapter(def model.SourceDefinition, fetcher *BreakerFetcher) *SitemapAdapter {
	return &SitemapAdapter{def: def, fetcher: fetcher}
}

func (a *SitemapAdapter) Key() string { return a.def.Key }

func (a *SitemapAdapter) listURLs(ctx context.Context) ([]sitemapURL, error) {
	doc, err := a.fetcher.FetchFor(ctx, a.def.Key, a.def.SitemapURL)
	if err != nil {
		return nil, err
	}
	defer doc.Body.Close()

	var idx sitemapIndex
	dec := xml.NewDecoder(doc.Body)
	dec.Strict = false
	if err := dec.Decode(&idx); err != nil {
		return nil, fmt.Errorf("%s: parsing sitemap: %w", a.def.Key, err)
	}

	var matched []sitemapURL
	for _, u := range idx.URLs {
		if a.def.SitemapPathPrefix == "" || strings.Contains(u.Loc, a.def.SitemapPathPrefix) {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

func (a *SitemapAdapter) scrapeTitle(ctx context.Context, pageURL string) (string, error) {
	doc, err := a.fetcher.FetchFor(ctx, a.def.Key, pageURL)
	if err != nil {
		return "", err
	}
	defer doc.Body.Close()
	page, err := goquery.NewDocumentFromReader(doc.Body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(page.Find("title").First().Text()), nil
}

func (a *SitemapAdapter) FetchLive(ctx context.Context, state model.SourceState) ([]RawItem, model.SourceState, error) {
	urls, err := a.listURLs(ctx)
	if err != nil {
		return nil, state, err
	}

	var out []RawItem
	newest := state.Cursor
	limit := 20
	for i, u := range urls {
		if i >= limit {
			break
		}
		if u.Loc == state.Cursor {
			break
		}

		title, err := a.scrapeTitle(ctx, u.Loc)
		if err != nil || title == "" || !ContainsAI(title) {
			continue
		}

		var published *time.Time
		if t, perr := time.Parse(time.RFC3339, u.LastMod); perr == nil {
			published = &t
		}

		out = append(out, RawItem{
			Title:            firstSentence(title),
			URL:              u.Loc,
			Publisher:        a.def.DisplayName,
			PublishedAt:      published,
			Language:         "en",
			Jurisdiction:     a.def.DefaultJurisdiction,
			SourceSpecificID: u.Loc,
		})

		if newest == "" {
			newest = u.Loc
		}
	}
	if len(urls) > 0 {
		newest = urls[0].Loc
	}

	next := state
	next.Cursor = newest
	return out, next, nil
}

func (a *SitemapAdapter) FetchBackfill(ctx context.Context, window BackfillWindow) ([]RawItem, string, error) {
	items, _, err := a.FetchLive(ctx, model.SourceState{SourceKey: a.def.Key})
	return items, "", err
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".!?"); i > 0 && i < 200 {
		return s[:i]
	}
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
