package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// handlePurgeSynthetic deletes every record produced by the synthetic
// fallback generator. It defaults to a dry run unless ?execute=true is
// passed: the dry run deletes nothing and returns only a hint message,
// not the number of records that would be removed.
func (s *Server) handlePurgeSynthetic(c echo.Context) error {
	execute := c.QueryParam("execute") == "true"
	if !execute {
		return c.JSON(http.StatusOK, map[string]any{
			"dry_run": true,
			"message": "pass ?execute=true to actually delete synthetic records",
		})
	}

	removed, err := s.store.PurgeSynthetic(c.Request().Context())
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"dry_run": false,
		"removed": removed,
	})
}
