package ingest

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

var descriptionSanitizer = bluemonday.StrictPolicy()

// HTMLToText strips markup from a feed description, collapsing whitespace
// so downstream tag extraction sees plain words.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return descriptionSanitizer.Sanitize(html)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// categoryForSourceType is the default editorial category a source type
// maps to, overridden only for funding sources which always file under
// CategoryFunding regardless of their nominal type.
func categoryForSourceType(st model.SourceType) model.Category {
	switch st {
	case model.SourceTypeGov:
		return model.CategoryPolicy
	case model.SourceTypeAcademic:
		return model.CategoryResearch
	case model.SourceTypeIndustry:
		return model.CategoryIndustry
	case model.SourceTypeFunding:
		return model.CategoryFunding
	case model.SourceTypeMedia:
		return model.CategoryNews
	case model.SourceTypeRepository:
		return model.CategoryIndustry
	default:
		return model.CategoryNews
	}
}

// NormalizeResult carries the record a raw item normalized to, plus the
// relevance score the filter gate needs — relevance is not persisted on
// AIDevelopment itself, so it travels alongside instead of through it.
type NormalizeResult struct {
	Record    model.AIDevelopment
	Relevance float64
}

// Normalize converts one RawItem from an adapter into a canonical record
// plus its Canada-relevance score. now is injected so tests can pin
// ClampFuture and the recency boost to a fixed instant.
func Normalize(raw RawItem, src model.SourceDefinition, now time.Time) NormalizeResult {
	entityBlob := strings.Join(raw.Entities, " ")
	relevance := CanadaRelevanceScore(raw.Title, raw.URL, entityBlob)

	jurisdiction := raw.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = InferJurisdiction(raw.Title, entityBlob)
	}
	if jurisdiction == "Global" && src.DefaultJurisdiction != "" {
		jurisdiction = src.DefaultJurisdiction
	}

	sourceID := raw.SourceSpecificID
	if sourceID == "" {
		sourceID = raw.URL
	}
	if sourceID == "" {
		sourceID = src.Key + "-" + uuid.NewString()
	}

	publishedAt := time.Time{}
	if raw.PublishedAt != nil {
		publishedAt = *raw.PublishedAt
	}
	if publishedAt.IsZero() {
		publishedAt = now
	}
	publishedAt = ClampFuture(publishedAt, now)

	tags := raw.Tags
	if len(tags) == 0 {
		tags = ExtractTags(raw.Title)
	}

	entities := raw.Entities
	if entities == nil {
		entities = []string{}
	}

	confidence := Confidence(src.SourceType, relevance, publishedAt, now, src.RecencyBoost)

	record := model.AIDevelopment{
		ID:           uuid.NewString(),
		SourceID:     sourceID,
		SourceType:   src.SourceType,
		Category:     categoryForSourceType(src.SourceType),
		Title:        raw.Title,
		Description:  HTMLToText(raw.Description),
		URL:          raw.URL,
		Publisher:    raw.Publisher,
		PublishedAt:  publishedAt,
		IngestedAt:   now,
		Language:     DetectLanguage(raw.Language),
		Jurisdiction: jurisdiction,
		Entities:     entities,
		Tags:         tags,
		Hash:         Fingerprint(sourceID, raw.URL, publishedAt),
		Confidence:   confidence,
	}
	if record.Publisher == "" {
		record.Publisher = src.DisplayName
	}
	return NormalizeResult{Record: record, Relevance: relevance}
}
