package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
	"github.com/scott-cmd11/ai-canada-pulse/internal/store"
)

// seedHistory inserts count policy-category records evenly spread across
// each of the given hourly periods, anchored so "now" sits at the end of
// the most recent period. Used to build the flat-history alert scenarios
// from the spec's seed table against a 1h window.
func seedHistory(t *testing.T, st store.Store, now time.Time, periodCounts []int) {
	t.Helper()
	ctx := context.Background()
	// periodCounts[0] is the period ending at now (current), periodCounts[1]
	// is the period before that (immediate previous / history[0]), and so on.
	for i, count := range periodCounts {
		periodEnd := now.Add(-time.Duration(i) * time.Hour)
		for j := 0; j < count; j++ {
			rec := model.AIDevelopment{
				ID:           uuid.NewString(),
				SourceID:     uuid.NewString(),
				SourceType:   model.SourceTypeGov,
				Category:     model.CategoryPolicy,
				Title:        "seed item",
				URL:          "https://canada.ca/seed-" + uuid.NewString(),
				Publisher:    "Government of Canada",
				PublishedAt:  periodEnd.Add(-time.Duration(j+1) * time.Minute),
				IngestedAt:   now,
				Language:     model.LanguageEnglish,
				Jurisdiction: "Canada",
				Hash:         uuid.NewString(),
				Confidence:   0.95,
			}
			if _, err := st.Write(ctx, rec); err != nil {
				t.Fatalf("seeding record: %v", err)
			}
		}
	}
}

func newTestEngine(t *testing.T) (*Engine, store.Store) {
	t.Helper()
	st, err := store.OpenSQLiteStore("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(st.Close)
	e := New(st)
	return e, st
}

func findAlert(alerts []Alert, category model.Category) *Alert {
	for i := range alerts {
		if alerts[i].Category == category {
			return &alerts[i]
		}
	}
	return nil
}

func TestAlertsDeltaOnlyTrigger(t *testing.T) {
	e, st := newTestEngine(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	// current period (index 0) gets 0 items; the 8 history periods (1..8)
	// each get 10, matching the spec's flat-history scenario.
	counts := []int{0, 10, 10, 10, 10, 10, 10, 10, 10}
	seedHistory(t, st, now, counts)

	alerts, err := e.Alerts(context.Background(), Window1h, AlertParams{MinBaseline: 3, MinDeltaPercent: 35, MinZScore: 999})
	if err != nil {
		t.Fatalf("computing alerts: %v", err)
	}

	a := findAlert(alerts, model.CategoryPolicy)
	if a == nil {
		t.Fatalf("expected a policy alert, got %+v", alerts)
	}
	if a.TriggerReason != "delta" {
		t.Fatalf("expected trigger_reason=delta, got %s", a.TriggerReason)
	}
	if a.Direction != "down" {
		t.Fatalf("expected direction=down, got %s", a.Direction)
	}
	for _, other := range alerts {
		if other.Category != model.CategoryPolicy {
			t.Fatalf("expected exactly the policy alert, also got %s", other.Category)
		}
	}
}

func TestAlertsZScoreOnlyTrigger(t *testing.T) {
	e, st := newTestEngine(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	counts := []int{30, 10, 10, 10, 10, 10, 10, 10, 10}
	seedHistory(t, st, now, counts)

	alerts, err := e.Alerts(context.Background(), Window1h, AlertParams{MinBaseline: 3, MinDeltaPercent: 999, MinZScore: 1.5})
	if err != nil {
		t.Fatalf("computing alerts: %v", err)
	}

	a := findAlert(alerts, model.CategoryPolicy)
	if a == nil {
		t.Fatalf("expected a policy alert, got %+v", alerts)
	}
	if a.TriggerReason != "z_score" {
		t.Fatalf("expected trigger_reason=z_score, got %s", a.TriggerReason)
	}
	if a.Direction != "up" {
		t.Fatalf("expected direction=up, got %s", a.Direction)
	}
	if a.ZScore == 0 {
		t.Fatalf("expected a nonzero reported z_score")
	}
}

func TestAlertsHybridTrigger(t *testing.T) {
	e, st := newTestEngine(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	counts := []int{25, 10, 10, 10, 10, 10, 10, 10, 10}
	seedHistory(t, st, now, counts)

	alerts, err := e.Alerts(context.Background(), Window1h, DefaultAlertParams())
	if err != nil {
		t.Fatalf("computing alerts: %v", err)
	}

	a := findAlert(alerts, model.CategoryPolicy)
	if a == nil {
		t.Fatalf("expected a policy alert, got %+v", alerts)
	}
	if a.TriggerReason != "hybrid" {
		t.Fatalf("expected trigger_reason=hybrid, got %s", a.TriggerReason)
	}
}
