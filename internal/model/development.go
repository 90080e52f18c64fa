// Package model holds the canonical record shapes shared across ingestion,
// storage, and analytics.
package model

import "time"

// SourceType enumerates the upstream category of a source.
type SourceType string

const (
	SourceTypeGov        SourceType = "gov"
	SourceTypeAcademic   SourceType = "academic"
	SourceTypeMedia      SourceType = "media"
	SourceTypeIndustry   SourceType = "industry"
	SourceTypeFunding    SourceType = "funding"
	SourceTypeRepository SourceType = "repository"
)

// Category enumerates the editorial bucket a record is filed under.
type Category string

const (
	CategoryPolicy    Category = "policy"
	CategoryResearch  Category = "research"
	CategoryIndustry  Category = "industry"
	CategoryFunding   Category = "funding"
	CategoryNews      Category = "news"
	CategoryIncidents Category = "incidents"
)

// AllCategories lists the six fixed categories, in the order the analytics
// engine zero-fills them.
var AllCategories = []Category{
	CategoryPolicy,
	CategoryResearch,
	CategoryIndustry,
	CategoryFunding,
	CategoryNews,
	CategoryIncidents,
}

// Language enumerates the detected language of a record.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
	LanguageOther   Language = "other"
)

// CanadaProvinces is the controlled set of provincial jurisdictions. No
// package reads it: the relevance gate keeps its own canadaJurisdictions
// set in internal/ingest/filter.go, and scope-compare counts provinces
// under "other", not "canada".
var CanadaProvinces = map[string]bool{
	"Ontario":          true,
	"Quebec":           true,
	"Alberta":          true,
	"British Columbia": true,
}

// AIDevelopment is the canonical, normalized record persisted by the writer.
type AIDevelopment struct {
	ID           string     `json:"id"`
	SourceID     string     `json:"source_id"`
	SourceType   SourceType `json:"source_type"`
	Category     Category   `json:"category"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	URL          string     `json:"url"`
	Publisher    string     `json:"publisher"`
	PublishedAt  time.Time  `json:"published_at"`
	IngestedAt   time.Time  `json:"ingested_at"`
	Language     Language   `json:"language"`
	Jurisdiction string     `json:"jurisdiction"`
	Entities     []string   `json:"entities"`
	Tags         []string   `json:"tags"`
	Hash         string     `json:"hash"`
	Confidence   float64    `json:"confidence"`
}
