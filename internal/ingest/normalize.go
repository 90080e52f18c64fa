package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// aiKeywords gates a raw item into the pipeline at all: anything that does
// not mention AI in some form is dropped before normalization spends any
// more effort on it.
var aiKeywords = []string{"ai", "artificial intelligence", "machine learning", "deep learning", "llm", "generative"}

var canadaKeywords = []string{
	"canada", "canadian", "ottawa", "quebec", "ontario", "alberta",
	"british columbia", "manitoba", "saskatchewan", "nova scotia",
	"new brunswick", "newfoundland", "pei",
}

var canadaEntities = []string{
	"government of canada", "ised", "cifar", "mila", "vector institute",
	"amii", "university of toronto", "university of alberta", "mcgill", "ubc",
}

var provinceTokens = []struct {
	token    string
	province string
}{
	{"ontario", "Ontario"}, {"toronto", "Ontario"}, {"waterloo", "Ontario"},
	{"quebec", "Quebec"}, {"montreal", "Quebec"},
	{"alberta", "Alberta"}, {"edmonton", "Alberta"}, {"calgary", "Alberta"},
	{"british columbia", "British Columbia"}, {"vancouver", "British Columbia"},
}

var tagStopwords = map[string]bool{
	"with": true, "from": true, "that": true, "this": true, "have": true,
	"into": true, "their": true, "about": true, "across": true, "opens": true,
}

var tagTokenRE = regexp.MustCompile(`[a-zA-Z]{4,}`)

// ContainsAI reports whether text mentions AI under any of the accepted
// synonyms. Case-insensitive.
func ContainsAI(text string) bool {
	low := strings.ToLower(text)
	for _, kw := range aiKeywords {
		if strings.Contains(low, kw) {
			return true
		}
	}
	return false
}

// CanadaRelevanceScore blends keyword, entity, and domain signals into a
// single additive score capped at 1.0. parts are joined and lower-cased
// before matching, so callers can pass title, url, and entity text
// independently without pre-normalizing.
func CanadaRelevanceScore(parts ...string) float64 {
	blob := strings.ToLower(strings.Join(parts, " "))
	score := 0.0

	for _, kw := range canadaKeywords {
		if strings.Contains(blob, kw) {
			score += 0.35
			break
		}
	}

	entityHits := 0
	for _, ent := range canadaEntities {
		if strings.Contains(blob, ent) {
			entityHits++
		}
	}
	if bonus := float64(entityHits) * 0.2; bonus > 0.4 {
		score += 0.4
	} else {
		score += bonus
	}

	if strings.Contains(blob, "government of canada") || strings.Contains(blob, "canada.ca") {
		score += 0.25
	}
	if strings.Contains(blob, "openalex.org") {
		score += 0.05
	}

	if score > 1.0 {
		return 1.0
	}
	return score
}

// InferJurisdiction maps province-level tokens, then a bare "canada"
// mention, to a jurisdiction; anything else is Global.
func InferJurisdiction(parts ...string) string {
	blob := strings.ToLower(strings.Join(parts, " "))
	for _, pt := range provinceTokens {
		if strings.Contains(blob, pt.token) {
			return pt.province
		}
	}
	if strings.Contains(blob, "canada") || strings.Contains(blob, "canadian") {
		return "Canada"
	}
	return "Global"
}

// DetectLanguage accepts only the two explicit codes the upstream sources
// are known to emit; anything else, including an absent value, is "other".
func DetectLanguage(value string) model.Language {
	switch value {
	case "en":
		return model.LanguageEnglish
	case "fr":
		return model.LanguageFrench
	default:
		return model.LanguageOther
	}
}

// ExtractTags tokenizes a title into lower-case words of four or more
// letters, drops a small stopword list, de-duplicates while preserving
// first occurrence, and keeps at most five. A title with nothing left
// falls back to ["ai"] so every record carries at least one tag.
func ExtractTags(title string) []string {
	tokens := tagTokenRE.FindAllString(strings.ToLower(title), -1)
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, tok := range tokens {
		if tagStopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
		if len(out) == 5 {
			break
		}
	}
	if len(out) == 0 {
		return []string{"ai"}
	}
	return out
}

// Fingerprint is the content-identity hash used for dedup: it depends on
// the source id, url, and published timestamp, so a re-fetch of the same
// item after a cursor reset produces the same hash.
func Fingerprint(sourceID, url string, publishedAt time.Time) string {
	material := sourceID + "|" + url + "|" + publishedAt.UTC().Format(time.RFC3339Nano)
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])
}

// confidence formulas per source type, grounded in the adapters' own
// published_at-to-confidence mapping. Gov/policy feeds use a recency
// boost instead: a same-week publish raises confidence, since regulatory
// announcements are high-trust by construction regardless of relevance.
const (
	confidenceAcademicBase   = 0.65
	confidenceAcademicWeight = 0.3
	confidenceGovFloor       = 0.9
	confidenceRecencyBoost   = 0.08
	confidenceRecencyWindow  = 7 * 24 * time.Hour
)

// Confidence computes the per-record trust score for a normalized item,
// given its source type, Canada-relevance score, and whether the source
// registry flags it for the policy-feed recency boost.
func Confidence(sourceType model.SourceType, relevance float64, publishedAt, now time.Time, recencyBoost bool) float64 {
	var c float64
	switch sourceType {
	case model.SourceTypeGov:
		c = confidenceGovFloor
		if relevance > c {
			c = relevance
		}
	case model.SourceTypeAcademic:
		c = confidenceAcademicBase + confidenceAcademicWeight*relevance
	case model.SourceTypeRepository:
		c = 0.7 + 0.25*relevance
	case model.SourceTypeFunding:
		c = 0.8 + 0.18*relevance
	case model.SourceTypeMedia:
		c = 0.6 + 0.3*relevance
	case model.SourceTypeIndustry:
		c = 0.62 + 0.3*relevance
	default:
		c = 0.6 + 0.3*relevance
	}

	if recencyBoost && !publishedAt.IsZero() && now.Sub(publishedAt) <= confidenceRecencyWindow {
		c += confidenceRecencyBoost
	}

	if c > 1.0 {
		c = 1.0
	}
	return round2(c)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// ClampFuture pulls a published timestamp that claims to be in the future
// back to now: upstream feeds occasionally emit a publish date ahead of
// the fetch time because of clock skew or scheduled-but-not-yet-live
// entries, and a future timestamp would otherwise corrupt time-window
// bucketing in the analytics engine.
func ClampFuture(publishedAt, now time.Time) time.Time {
	if publishedAt.After(now) {
		return now
	}
	return publishedAt
}

// SortedUniqueStrings returns a copy of in, de-duplicated and sorted, used
// to normalize entity/tag slices before they are compared or persisted.
func SortedUniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
