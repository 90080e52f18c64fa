package ingest

import "github.com/scott-cmd11/ai-canada-pulse/internal/model"

// canadaJurisdictions is the jurisdiction allow-list the relevance gate
// accepts outright, independent of relevance score.
var canadaJurisdictions = map[string]bool{
	"Canada": true, "Ontario": true, "Quebec": true, "Alberta": true, "British Columbia": true,
}

// canadaFocusEntities is the small set of marquee Canadian institutions
// that, if present among a record's entities, pass the gate regardless
// of jurisdiction — a paper co-authored with Mila about a global topic
// still belongs in the feed.
var canadaFocusEntities = map[string]bool{
	"Government of Canada": true, "ISED": true, "CIFAR": true, "Mila": true,
	"Vector Institute": true, "Amii": true, "University of Toronto": true,
	"University of Alberta": true,
}

// Gate thresholds. Live polling uses the strict pair; backfill sweeps use
// the looser pair so that an old item with thinner metadata still counts
// as signal instead of being discarded outright.
const (
	LiveMinConfidence     = 0.82
	LiveMinRelevance      = 0.45
	BackfillMinConfidence = 0.72
	BackfillMinRelevance  = 0.30
)

// IsCanadaRelevant applies the three-tier relevance gate: confidence must
// clear the floor, then any one of relevance score, jurisdiction, or a
// focus-entity match admits the record.
func IsCanadaRelevant(rec model.AIDevelopment, relevance, minConfidence, minRelevance float64) bool {
	if rec.Confidence < minConfidence {
		return false
	}
	if relevance >= minRelevance {
		return true
	}
	if canadaJurisdictions[rec.Jurisdiction] {
		return true
	}
	for _, e := range rec.Entities {
		if canadaFocusEntities[e] {
			return true
		}
	}
	return false
}
