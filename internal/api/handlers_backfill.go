package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/scott-cmd11/ai-canada-pulse/internal/backfill"
	"github.com/scott-cmd11/ai-canada-pulse/internal/coordination"
	"github.com/scott-cmd11/ai-canada-pulse/internal/writer"
)

type backfillRunRequest struct {
	SourceKey string `json:"source_key"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
}

// handleBackfillRun starts a month-windowed historical sweep for one
// academic source and returns immediately; progress is reported through
// GET /backfill/status rather than held open on this request, since a
// multi-year sweep can run far longer than any sane HTTP timeout.
func (s *Server) handleBackfillRun(c echo.Context) error {
	if s.backfillAdapterFactory == nil {
		return errJSON(c, http.StatusServiceUnavailable, fmt.Errorf("backfill is not configured on this server"))
	}

	var req backfillRunRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	if req.SourceKey == "" {
		req.SourceKey = "openalex"
	}
	if req.StartDate == "" {
		return errJSON(c, http.StatusBadRequest, fmt.Errorf("start_date is required (YYYY-MM-DD)"))
	}

	from, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, fmt.Errorf("invalid start_date: %w", err))
	}
	until := time.Now()
	if req.EndDate != "" {
		until, err = time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return errJSON(c, http.StatusBadRequest, fmt.Errorf("invalid end_date: %w", err))
		}
	}

	def, ok := s.registry.Get(req.SourceKey)
	if !ok {
		return errJSON(c, http.StatusNotFound, fmt.Errorf("unknown source key %q", req.SourceKey))
	}
	adapter, ok := s.backfillAdapterFactory(req.SourceKey)
	if !ok {
		return errJSON(c, http.StatusBadRequest, fmt.Errorf("source %q has no backfill adapter", req.SourceKey))
	}

	publisher := coordination.NewPublisher(s.redis, s.sseChannel)
	w := writer.New(s.store, publisher, s.log)
	sweeper := backfill.New(def, adapter, w, s.store, s.snapshots, s.log)

	// Detached from the request context: the sweep outlives the HTTP
	// call that started it.
	go func() {
		if err := sweeper.Run(context.Background(), from, until); err != nil {
			s.log.Error().Err(err).Str("source", req.SourceKey).Msg("backfill sweep failed")
		}
	}()

	return c.JSON(http.StatusAccepted, map[string]string{
		"state":      backfill.StateRunning,
		"source_key": req.SourceKey,
		"start_date": req.StartDate,
	})
}

// handleBackfillStatus reports the most recent sweep's progress snapshot.
func (s *Server) handleBackfillStatus(c echo.Context) error {
	if s.snapshots == nil {
		return errJSON(c, http.StatusServiceUnavailable, fmt.Errorf("backfill status is not configured on this server"))
	}
	var status backfillStatus
	if err := s.snapshots.Get(c.Request().Context(), backfill.StatusKey, &status); err != nil {
		return c.JSON(http.StatusOK, map[string]string{"state": "never_run"})
	}
	return c.JSON(http.StatusOK, status)
}
