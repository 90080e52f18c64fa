package api

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/scott-cmd11/ai-canada-pulse/internal/analytics"
	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
	"github.com/scott-cmd11/ai-canada-pulse/internal/store"
)

const defaultFeedWindow = analytics.Window24h

func (s *Server) feedFilter(c echo.Context) (store.DevelopmentFilter, error) {
	window := defaultFeedWindow
	if raw := c.QueryParam("time_window"); raw != "" {
		w, err := analytics.ParseExtendedWindow(raw)
		if err != nil {
			return store.DevelopmentFilter{}, err
		}
		window = w
	}
	d, err := window.Duration()
	if err != nil {
		return store.DevelopmentFilter{}, err
	}

	filter := store.DevelopmentFilter{
		Since:        time.Now().Add(-d),
		Category:     model.Category(c.QueryParam("category")),
		SourceType:   model.SourceType(c.QueryParam("source_type")),
		Jurisdiction: c.QueryParam("jurisdiction"),
	}

	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	pageSize := 50
	if raw := c.QueryParam("page_size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
			pageSize = v
		}
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize
	return filter, nil
}

func searchMatches(rec model.AIDevelopment, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(rec.Title), term) ||
		strings.Contains(strings.ToLower(rec.Description), term)
}

func languageMatches(rec model.AIDevelopment, lang string) bool {
	if lang == "" {
		return true
	}
	return string(rec.Language) == lang
}

// handleFeed returns a paginated, filtered page of canonical records.
func (s *Server) handleFeed(c echo.Context) error {
	filter, err := s.feedFilter(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}

	records, err := s.store.ListDevelopments(c.Request().Context(), filter)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}

	search := c.QueryParam("search")
	lang := c.QueryParam("language")
	if search != "" || lang != "" {
		filtered := records[:0]
		for _, r := range records {
			if searchMatches(r, search) && languageMatches(r, lang) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	return c.JSON(http.StatusOK, map[string]any{
		"items": records,
		"count": len(records),
	})
}

// handleFeedExport streams up to 5000 rows as CSV or JSON.
func (s *Server) handleFeedExport(c echo.Context) error {
	filter, err := s.feedFilter(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	filter.Limit = 5000
	filter.Offset = 0

	records, err := s.store.ListDevelopments(c.Request().Context(), filter)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}

	format := c.QueryParam("fmt")
	if format == "json" {
		return c.JSON(http.StatusOK, records)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set("Content-Disposition", `attachment; filename="ai_developments.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	columns := []string{
		"id", "source_id", "source_type", "category", "title", "description",
		"url", "publisher", "published_at", "ingested_at", "language",
		"jurisdiction", "entities", "tags", "confidence",
	}
	if err := w.Write(columns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.ID, r.SourceID, string(r.SourceType), string(r.Category), r.Title, r.Description,
			r.URL, r.Publisher, r.PublishedAt.UTC().Format(time.RFC3339), r.IngestedAt.UTC().Format(time.RFC3339),
			string(r.Language), r.Jurisdiction, strings.Join(r.Entities, "|"), strings.Join(r.Tags, "|"),
			strconv.FormatFloat(r.Confidence, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
