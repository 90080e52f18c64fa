// Package api exposes the ingestion and analytics engines over HTTP: a
// paginated feed with SSE streaming, the analytics stats surface, source
// catalog/health/runs, and the backfill and maintenance endpoints.
package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/scott-cmd11/ai-canada-pulse/internal/analytics"
	"github.com/scott-cmd11/ai-canada-pulse/internal/backfill"
	"github.com/scott-cmd11/ai-canada-pulse/internal/coordination"
	"github.com/scott-cmd11/ai-canada-pulse/internal/health"
	"github.com/scott-cmd11/ai-canada-pulse/internal/ingest"
	"github.com/scott-cmd11/ai-canada-pulse/internal/store"
)

// Server wires the persistence, coordination, and analytics layers to a
// read-mostly HTTP surface. Every dependency is handed in explicitly by
// the caller (cmd/pulse) rather than resolved from a package-level
// singleton.
type Server struct {
	Echo *echo.Echo

	store      store.Store
	registry   *ingest.Registry
	engine     *analytics.Engine
	health     *health.Tracker
	snapshots  *coordination.SnapshotStore
	redis      *redis.Client
	sseChannel string
	log        zerolog.Logger

	backfillAdapterFactory func(key string) (ingest.Adapter, bool)
}

// Deps bundles everything NewServer needs, so the constructor itself
// stays a plain assignment-and-wire step.
type Deps struct {
	Store                  store.Store
	Registry               *ingest.Registry
	Engine                 *analytics.Engine
	Health                 *health.Tracker
	Snapshots              *coordination.SnapshotStore
	Redis                  *redis.Client
	SSEChannel             string
	Log                    zerolog.Logger
	BackfillAdapterFactory func(key string) (ingest.Adapter, bool)
}

func NewServer(deps Deps) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))

	s := &Server{
		Echo:                   e,
		store:                  deps.Store,
		registry:               deps.Registry,
		engine:                 deps.Engine,
		health:                 deps.Health,
		snapshots:              deps.Snapshots,
		redis:                  deps.Redis,
		sseChannel:             deps.SSEChannel,
		log:                    deps.Log,
		backfillAdapterFactory: deps.BackfillAdapterFactory,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/healthz", s.handleHealthz)

	api := s.Echo.Group("/api/v1")

	api.GET("/feed", s.handleFeed)
	api.GET("/feed/stream", s.handleFeedStream)
	api.GET("/feed/export", s.handleFeedExport)

	stats := api.Group("/stats")
	stats.GET("/kpis", s.handleStatsKPIs)
	stats.GET("/hourly", s.handleStatsHourly)
	stats.GET("/weekly", s.handleStatsWeekly)
	stats.GET("/sources", s.handleStatsPublishers)
	stats.GET("/jurisdictions", s.handleStatsJurisdictions)
	stats.GET("/entities", s.handleStatsEntities)
	stats.GET("/tags", s.handleStatsTags)
	stats.GET("/brief", s.handleStatsBrief)
	stats.GET("/compare", s.handleStatsCompare)
	stats.GET("/confidence", s.handleStatsConfidence)
	stats.GET("/concentration", s.handleStatsConcentration)
	stats.GET("/momentum", s.handleStatsMomentum)
	stats.GET("/alerts", s.handleStatsAlerts)
	stats.GET("/risk", s.handleStatsRisk)
	stats.GET("/risk-trend", s.handleStatsRiskTrend)
	stats.GET("/summary", s.handleStatsSummary)
	stats.GET("/coverage", s.handleStatsCoverage)

	sources := api.Group("/sources")
	sources.GET("/health", s.handleSourcesHealth)
	sources.GET("/catalog", s.handleSourcesCatalog)
	sources.GET("/runs", s.handleSourcesRuns)

	api.POST("/backfill/run", s.handleBackfillRun)
	api.GET("/backfill/status", s.handleBackfillStatus)

	api.POST("/maintenance/purge-synthetic", s.handlePurgeSynthetic)
}

func (s *Server) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func errJSON(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"error": err.Error()})
}

// backfillStatus is the shape handleBackfillStatus reads from the
// snapshot cache; it mirrors backfill.Status field-for-field but lives
// here so the api package doesn't need the sweeper's write-side types.
type backfillStatus = backfill.Status
