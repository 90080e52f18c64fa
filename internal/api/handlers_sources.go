package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/scott-cmd11/ai-canada-pulse/internal/health"
)

// handleSourcesHealth serves the latest merged health snapshot. It reads
// the coordination-store copy first, so an API process with no in-memory
// tracker state of its own (the common case when ingestion runs in a
// separate process) still sees live data; it falls back to the local
// tracker only if the snapshot store has nothing yet.
func (s *Server) handleSourcesHealth(c echo.Context) error {
	ctx := c.Request().Context()

	if s.snapshots != nil {
		var snap health.Snapshot
		if err := s.snapshots.Get(ctx, health.SnapshotKey, &snap); err == nil {
			return c.JSON(http.StatusOK, snap)
		}
	}
	if s.health != nil {
		return c.JSON(http.StatusOK, s.health.Snapshot())
	}
	return c.JSON(http.StatusOK, health.Snapshot{RunStatus: "unknown"})
}

// handleSourcesCatalog lists every configured source definition, enabled
// or not, for the source-management screen.
func (s *Server) handleSourcesCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, s.registry.All())
}

// handleSourcesRuns returns the most recent runs for one source key.
func (s *Server) handleSourcesRuns(c echo.Context) error {
	key := c.QueryParam("key")
	if key == "" {
		return errJSON(c, http.StatusBadRequest, fmt.Errorf("key query parameter is required"))
	}
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	runs, err := s.store.ListRecentRuns(c.Request().Context(), key, limit)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, runs)
}
