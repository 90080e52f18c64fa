package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// rssFeed mirrors the subset of RSS 2.0 this adapter consumes. Only an
// <rss><channel><item> document decodes; an Atom <feed> of <entry>
// elements fails to parse, since the root element must be <rss>.
type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// RSSAdapter serves any feed-based source in the registry: Canada
// government news, BetaKit, provincial AI institutes, funding agencies.
// It is data-driven off model.SourceDefinition rather than one struct per
// feed, since all of these sources share the same wire format.
type RSSAdapter struct {
	def     model.SourceDefinition
	fetcher *BreakerFetcher
}

// NewRSSAdapter builds an adapter for def, which must have FeedURL set.
func NewRSSAdapter(def model.SourceDefinition, fetcher *BreakerFetcher) *RSSAdapter {
	return &RSSAdapter{def: def, fetcher: fetcher}
}

func (a *RSSAdapter) Key() string { return a.def.Key }

func (a *RSSAdapter) FetchLive(ctx context.Context, state model.SourceState) ([]RawItem, model.SourceState, error) {
	if a.def.FeedURL == "" {
		return nil, state, fmt.Errorf("%s: no feed_url configured", a.def.Key)
	}
	doc, err := a.fetcher.FetchFor(ctx, a.def.Key, a.def.FeedURL)
	if err != nil {
		return nil, state, err
	}
	defer doc.Body.Close()

	items, err := parseRSSItems(doc.Body)
	if err != nil {
		return nil, state, fmt.Errorf("%s: parsing feed: %w", a.def.Key, err)
	}

	var out []RawItem
	newest := state.Cursor
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" || !ContainsAI(title) {
			continue
		}
		link := strings.TrimSpace(it.Link)
		id := strings.TrimSpace(it.GUID)
		if id == "" {
			id = link
		}
		if id != "" && id == state.Cursor {
			// Feeds are newest-first; once we see the last cursor we're done.
			break
		}

		raw := RawItem{
			Title:            title,
			Description:      it.Description,
			URL:              link,
			Publisher:        a.def.DisplayName,
			Language:         "en",
			Jurisdiction:     a.def.DefaultJurisdiction,
			SourceSpecificID: id,
		}
		if pub, err := parseRSSDate(it.PubDate); err == nil {
			raw.PublishedAt = &pub
		}
		out = append(out, raw)

		if newest == "" {
			newest = id
		}
	}

	if len(items) > 0 {
		first := strings.TrimSpace(items[0].GUID)
		if first == "" {
			first = strings.TrimSpace(items[0].Link)
		}
		if first != "" {
			newest = first
		}
	}

	next := state
	next.Cursor = newest
	return out, next, nil
}

func (a *RSSAdapter) FetchBackfill(ctx context.Context, window BackfillWindow) ([]RawItem, string, error) {
	// Public feeds only expose a shallow recent window; there is nothing
	// further back to page into, so backfill degrades to a single live pull.
	items, _, err := a.FetchLive(ctx, model.SourceState{SourceKey: a.def.Key})
	return items, "", err
}

func parseRSSItems(r io.Reader) ([]rssItem, error) {
	var feed rssFeed
	dec := xml.NewDecoder(r)
	dec.Strict = false
	if err := dec.Decode(&feed); err != nil {
		return nil, err
	}
	return feed.Channel.Items, nil
}

func parseRSSDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := mail.ParseDate(raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, time.RFC1123Z, time.RFC1123, "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", raw)
}
