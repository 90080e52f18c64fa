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

const githubSearchURL = "https://api.github.com/search/repositories"

type githubSearchResponse struct {
	Items []githubRepo `json:"items"`
}

type githubRepo struct {
	FullName    string `json:"full_name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// GitHubAdapter searches public repositories for AI projects with a
// Canadian angle in their name or description. GitHub's search API is
// deliberately used with a generous page size and no auth token: an
// anonymous caller is rate limited but that is an acceptable tradeoff
// for a 45-minute cadence source.
type GitHubAdapter struct {
	def     model.SourceDefinition
	fetcher *BreakerFetcher
}

func NewGitHubAdapter(def model.SourceDefinition, fetcher *BreakerFetcher) *GitHubAdapter {
	return &GitHubAdapter{def: def, fetcher: fetcher}
}

func (a *GitHubAdapter) Key() string { return a.def.Key }

func (a *GitHubAdapter) search(ctx context.Context, query string, sort string) ([]githubRepo, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("sort", sort)
	q.Set("order", "desc")
	q.Set("per_page", "30")

	doc, err := a.fetcher.FetchFor(ctx, a.def.Key, githubSearchURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer doc.Body.Close()

	var payload githubSearchResponse
	if err := json.NewDecoder(doc.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("github: decoding response: %w", err)
	}
	return payload.Items, nil
}

func (a *GitHubAdapter) toRawItem(r githubRepo) (RawItem, bool) {
	blob := r.FullName + " " + r.Description
	if !ContainsAI(blob) {
		return RawItem{}, false
	}

	var published *time.Time
	if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
		published = &t
	}

	title := strings.TrimSpace(r.Description)
	if title == "" {
		title = r.FullName
	}

	return RawItem{
		Title:            title,
		Description:      r.Description,
		URL:              r.HTMLURL,
		Publisher:        "GitHub",
		PublishedAt:      published,
		Language:         "en",
		Entities:         []string{r.Owner.Login},
		SourceSpecificID: r.FullName,
	}, true
}

func (a *GitHubAdapter) FetchLive(ctx context.Context, state model.SourceState) ([]RawItem, model.SourceState, error) {
	repos, err := a.search(ctx, "artificial intelligence canada in:name,description,readme", "updated")
	if err != nil {
		return nil, state, err
	}
	var out []RawItem
	for _, r := range repos {
		if item, ok := a.toRawItem(r); ok {
			out = append(out, item)
		}
	}
	return out, state, nil
}

func (a *GitHubAdapter) FetchBackfill(ctx context.Context, window BackfillWindow) ([]RawItem, string, error) {
	repos, err := a.search(ctx, "artificial intelligence canada in:name,description,readme", "stars")
	if err != nil {
		return nil, "", err
	}
	var out []RawItem
	for _, r := range repos {
		if item, ok := a.toRawItem(r); ok {
			out = append(out, item)
		}
	}
	return out, "", nil
}
