package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/scott-cmd11/ai-canada-pulse/internal/analytics"
)

func (s *Server) parseCoreWindow(c echo.Context) (analytics.Window, error) {
	raw := c.QueryParam("time_window")
	if raw == "" {
		raw = string(analytics.Window24h)
	}
	return analytics.ParseWindow(raw)
}

func (s *Server) parseExtendedWindow(c echo.Context) (analytics.Window, error) {
	raw := c.QueryParam("time_window")
	if raw == "" {
		raw = string(analytics.Window24h)
	}
	return analytics.ParseExtendedWindow(raw)
}

func (s *Server) topNParam(c echo.Context) int {
	n := 10
	if raw := c.QueryParam("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			n = v
		}
	}
	return n
}

func (s *Server) handleStatsKPIs(c echo.Context) error {
	kpis, err := s.engine.KPIs(c.Request().Context())
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, kpis)
}

func (s *Server) handleStatsHourly(c echo.Context) error {
	buckets, err := s.engine.Hourly(c.Request().Context())
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, buckets)
}

func (s *Server) handleStatsWeekly(c echo.Context) error {
	buckets, err := s.engine.Weekly(c.Request().Context())
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, buckets)
}

func (s *Server) handleStatsPublishers(c echo.Context) error {
	window, err := s.parseCoreWindow(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	breakdown, err := s.engine.Breakdown(c.Request().Context(), window, s.topNParam(c))
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, breakdown.Publishers)
}

func (s *Server) handleStatsJurisdictions(c echo.Context) error {
	window, err := s.parseCoreWindow(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	breakdown, err := s.engine.Breakdown(c.Request().Context(), window, s.topNParam(c))
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, breakdown.Jurisdictions)
}

func (s *Server) handleStatsEntities(c echo.Context) error {
	window, err := s.parseCoreWindow(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	breakdown, err := s.engine.Breakdown(c.Request().Context(), window, s.topNParam(c))
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, breakdown.Entities)
}

func (s *Server) handleStatsTags(c echo.Context) error {
	window, err := s.parseCoreWindow(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	breakdown, err := s.engine.Breakdown(c.Request().Context(), window, s.topNParam(c))
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, breakdown.Tags)
}

func (s *Server) handleStatsConfidence(c echo.Context) error {
	window, err := s.parseCoreWindow(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	profile, err := s.engine.Confidence(c.Request().Context(), window)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (s *Server) handleStatsConcentration(c echo.Context) error {
	window, err := s.parseCoreWindow(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	conc, err := s.engine.Concentration(c.Request().Context(), window)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, conc)
}

func (s *Server) handleStatsMomentum(c echo.Context) error {
	window, err := s.parseCoreWindow(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	ctx := c.Request().Context()
	categories, err := s.engine.CategoryMomentum(ctx, window)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	publishers, err := s.engine.PublisherMomentum(ctx, window)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"categories": categories,
		"publishers": publishers,
	})
}

func (s *Server) handleStatsCompare(c echo.Context) error {
	window, err := s.parseExtendedWindow(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	compare, err := s.engine.ScopeCompare(c.Request().Context(), window)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, compare)
}

func (s *Server) alertParams(c echo.Context) analytics.AlertParams {
	params := analytics.DefaultAlertParams()
	if raw := c.QueryParam("min_baseline"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			params.MinBaseline = v
		}
	}
	if raw := c.QueryParam("min_delta_percent"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			params.MinDeltaPercent = v
		}
	}
	if raw := c.QueryParam("min_z_score"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			params.MinZScore = v
		}
	}
	return params
}

func (s *Server) handleStatsAlerts(c echo.Context) error {
	window, err := s.parseCoreWindow(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	alerts, err := s.engine.Alerts(c.Request().Context(), window, s.alertParams(c))
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, alerts)
}

func (s *Server) handleStatsRisk(c echo.Context) error {
	window, err := s.parseCoreWindow(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	risk, err := s.engine.Risk(c.Request().Context(), window)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, risk)
}

func (s *Server) handleStatsRiskTrend(c echo.Context) error {
	window, err := s.parseExtendedWindow(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	trend, err := s.engine.RiskTrend(c.Request().Context(), window)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, trend)
}

// handleStatsBrief returns a compact headline view for the dashboard's
// top strip: KPIs plus the current risk level and concentration label.
func (s *Server) handleStatsBrief(c echo.Context) error {
	ctx := c.Request().Context()
	kpis, err := s.engine.KPIs(ctx)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	risk, err := s.engine.Risk(ctx, analytics.Window24h)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	conc, err := s.engine.Concentration(ctx, analytics.Window24h)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"kpis":               kpis,
		"risk_level":         risk.Level,
		"concentration_label": conc.Label,
	})
}

// handleStatsSummary returns the full aggregate response, equivalent to
// calling every other /stats endpoint for the same window and bundling
// the results — useful for a dashboard's single initial load.
func (s *Server) handleStatsSummary(c echo.Context) error {
	window, err := s.parseCoreWindow(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	ctx := c.Request().Context()

	kpis, err := s.engine.KPIs(ctx)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	breakdown, err := s.engine.Breakdown(ctx, window, s.topNParam(c))
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	confidence, err := s.engine.Confidence(ctx, window)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	concentration, err := s.engine.Concentration(ctx, window)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	categoryMomentum, err := s.engine.CategoryMomentum(ctx, window)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	alerts, err := s.engine.Alerts(ctx, window, analytics.DefaultAlertParams())
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	risk, err := s.engine.Risk(ctx, window)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"kpis":              kpis,
		"breakdowns":        breakdown,
		"confidence":        confidence,
		"concentration":     concentration,
		"category_momentum": categoryMomentum,
		"alerts":            alerts,
		"risk":              risk,
	})
}

// handleStatsCoverage reports the registry's enabled-vs-disabled source
// catalog alongside each source's most recent run, a quick view of how
// much of the configured catalog is actively contributing signal.
func (s *Server) handleStatsCoverage(c echo.Context) error {
	ctx := c.Request().Context()
	type coverageEntry struct {
		Key       string `json:"key"`
		SourceType string `json:"source_type"`
		Enabled   bool   `json:"enabled"`
		LastRunStatus string `json:"last_run_status,omitempty"`
	}

	var entries []coverageEntry
	for _, def := range s.registry.All() {
		entry := coverageEntry{Key: def.Key, SourceType: string(def.SourceType), Enabled: def.Enabled}
		runs, err := s.store.ListRecentRuns(ctx, def.Key, 1)
		if err == nil && len(runs) > 0 {
			entry.LastRunStatus = string(runs[0].Status)
		}
		entries = append(entries, entry)
	}
	return c.JSON(http.StatusOK, entries)
}
