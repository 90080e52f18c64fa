package model

import "time"

// AcquisitionMode describes how a source's adapter retrieves candidates.
type AcquisitionMode string

const (
	AcquisitionAPI     AcquisitionMode = "api"
	AcquisitionRSS     AcquisitionMode = "rss"
	AcquisitionSitemap AcquisitionMode = "sitemap"
	AcquisitionCrawler AcquisitionMode = "crawler"
)

// SourceDefinition is the static, in-process catalog entry for one source.
type SourceDefinition struct {
	Key             string          `yaml:"key" json:"key"`
	DisplayName     string          `yaml:"display_name" json:"display_name"`
	SourceType      SourceType      `yaml:"source_type" json:"source_type"`
	AcquisitionMode AcquisitionMode `yaml:"acquisition_mode" json:"acquisition_mode"`
	CadenceMinutes  int             `yaml:"cadence_minutes" json:"cadence_minutes"`
	Enabled         bool            `yaml:"enabled" json:"enabled"`

	// Adapter-specific hints, optional.
	FeedURL            string `yaml:"feed_url,omitempty" json:"feed_url,omitempty"`
	SitemapURL         string `yaml:"sitemap_url,omitempty" json:"sitemap_url,omitempty"`
	SitemapPathPrefix  string `yaml:"sitemap_path_prefix,omitempty" json:"sitemap_path_prefix,omitempty"`
	DefaultJurisdiction string `yaml:"default_jurisdiction,omitempty" json:"default_jurisdiction,omitempty"`
	RecencyBoost       bool   `yaml:"recency_boost,omitempty" json:"recency_boost,omitempty"`
}

// RunStatus enumerates the terminal status of one SourceRun.
type RunStatus string

const (
	RunStatusOK          RunStatus = "ok"
	RunStatusError       RunStatus = "error"
	RunStatusSkippedLock RunStatus = "skipped_lock"
)

// SourceState is the single mutable row tracked per source key.
type SourceState struct {
	SourceKey           string     `json:"source_key"`
	Cursor              string     `json:"cursor,omitempty"`
	ETag                string     `json:"etag,omitempty"`
	LastModified        string     `json:"last_modified,omitempty"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	LastErrorAt         *time.Time `json:"last_error_at,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastError           string     `json:"last_error,omitempty"`
	NextRunAt           *time.Time `json:"next_run_at,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// SourceRun is one append-only execution record.
type SourceRun struct {
	ID         string         `json:"id"`
	SourceKey  string         `json:"source_key"`
	Status     RunStatus      `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	DurationMs int64          `json:"duration_ms"`
	Fetched    int            `json:"fetched"`
	Accepted   int            `json:"accepted"`
	Inserted   int            `json:"inserted"`
	Duplicates int            `json:"duplicates"`
	WriteErrors int           `json:"write_errors"`
	Error      string         `json:"error,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}
