// Command pulse is the single binary for the ingestion service: it can
// serve the HTTP API, run the cron scheduler, trigger one-off source
// polls, run a historical backfill sweep, or perform maintenance — all
// wired from the same config and dependency graph.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/scott-cmd11/ai-canada-pulse/internal/analytics"
	"github.com/scott-cmd11/ai-canada-pulse/internal/api"
	"github.com/scott-cmd11/ai-canada-pulse/internal/backfill"
	"github.com/scott-cmd11/ai-canada-pulse/internal/config"
	"github.com/scott-cmd11/ai-canada-pulse/internal/coordination"
	"github.com/scott-cmd11/ai-canada-pulse/internal/health"
	"github.com/scott-cmd11/ai-canada-pulse/internal/ingest"
	"github.com/scott-cmd11/ai-canada-pulse/internal/logging"
	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
	"github.com/scott-cmd11/ai-canada-pulse/internal/runner"
	"github.com/scott-cmd11/ai-canada-pulse/internal/scheduler"
	"github.com/scott-cmd11/ai-canada-pulse/internal/store"
	"github.com/scott-cmd11/ai-canada-pulse/internal/writer"
)

// deps bundles everything every subcommand needs, built once from config.
type deps struct {
	cfg       config.Settings
	st        store.Store
	redis     *redis.Client
	snapshots *coordination.SnapshotStore
	registry  *ingest.Registry
	wr        *writer.Writer
	sched     *scheduler.Scheduler
	engine    *analytics.Engine
	tracker   *health.Tracker
}

func wireDeps(ctx context.Context, log zerolog.Logger) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := store.ApplyMigrations(ctx, pool, log); err != nil {
		return nil, fmt.Errorf("applying migrations: %w", err)
	}
	st := store.NewPostgresStore(pool)

	redisClient, err := coordination.NewClient(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	snapshots := coordination.NewSnapshotStore(redisClient)
	locker := coordination.NewLocker(redisClient, cfg.LockKeyPrefix)
	publisher := coordination.NewPublisher(redisClient, cfg.SSEChannel)

	registry, err := ingest.LoadRegistry("internal/ingest/config/sources.yaml")
	if err != nil {
		return nil, fmt.Errorf("loading source registry: %w", err)
	}

	wr := writer.New(st, publisher, log)
	rn := runner.New(registry, st, wr, locker, log, cfg.LiveMinConfidence, cfg.LiveMinRelevance)

	fetcher := ingest.NewBreakerFetcher(ingest.NewHTTPFetcher(cfg.HTTPTimeout, cfg.UserAgent))
	sched := scheduler.New(registry, rn, func(def model.SourceDefinition) ingest.Adapter {
		return buildAdapter(def, fetcher)
	}, log)

	return &deps{
		cfg:       cfg,
		st:        st,
		redis:     redisClient,
		snapshots: snapshots,
		registry:  registry,
		wr:        wr,
		sched:     sched,
		engine:    analytics.New(st),
		tracker:   health.New(snapshots),
	}, nil
}

// buildAdapter maps one source definition to its concrete adapter. Most
// acquisition modes share one adapter implementation across every source
// of that shape; a handful of academic API sources need a specific
// client regardless of the shared "api" mode.
func buildAdapter(def model.SourceDefinition, fetcher *ingest.BreakerFetcher) ingest.Adapter {
	switch def.Key {
	case "openalex", "semantic_scholar_ai_canada":
		// Semantic Scholar has no dedicated client; its search surface is
		// close enough to OpenAlex's free-text query shape to reuse it.
		return ingest.NewOpenAlexAdapter(def, fetcher)
	case "arxiv_ai_canada":
		return ingest.NewArxivAdapter(def, fetcher)
	case "crossref_ai_canada":
		return ingest.NewCrossrefAdapter(def, fetcher)
	case "github_ai_canada":
		return ingest.NewGitHubAdapter(def, fetcher)
	}

	switch def.AcquisitionMode {
	case model.AcquisitionSitemap:
		return ingest.NewSitemapAdapter(def, fetcher)
	case model.AcquisitionCrawler:
		return ingest.NewCrawlerAdapter(def, fetcher)
	default:
		return ingest.NewRSSAdapter(def, fetcher)
	}
}

// backfillAdapterFactory narrows buildAdapter to the sources worth
// sweeping historically: the academic API sources whose upstreams expose
// a real date-bounded query. Feed and crawler sources have no deeper
// archive to page into, so backfill over them would just repeat FetchLive.
func backfillAdapterFactory(registry *ingest.Registry, fetcher *ingest.BreakerFetcher) func(key string) (ingest.Adapter, bool) {
	eligible := map[string]bool{
		"openalex": true, "arxiv_ai_canada": true, "crossref_ai_canada": true,
		"semantic_scholar_ai_canada": true,
	}
	return func(key string) (ingest.Adapter, bool) {
		if !eligible[key] {
			return nil, false
		}
		def, ok := registry.Get(key)
		if !ok {
			return nil, false
		}
		return buildAdapter(def, fetcher), true
	}
}

func main() {
	root := &cobra.Command{
		Use:   "pulse",
		Short: "AI Canada Pulse ingestion and analytics service",
	}

	root.AddCommand(serveCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(backfillCmd())
	root.AddCommand(sourcesCmd())
	root.AddCommand(maintenanceCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the cron-driven ingestion scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New("pulse")
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := wireDeps(ctx, log)
			if err != nil {
				return err
			}
			defer d.st.Close()

			if err := d.sched.RegisterAll(); err != nil {
				return fmt.Errorf("registering scheduled sources: %w", err)
			}
			d.sched.Start()
			defer func() { <-d.sched.Stop().Done() }()

			fetcher := ingest.NewBreakerFetcher(ingest.NewHTTPFetcher(d.cfg.HTTPTimeout, d.cfg.UserAgent))
			srv := api.NewServer(api.Deps{
				Store:                  d.st,
				Registry:               d.registry,
				Engine:                 d.engine,
				Health:                 d.tracker,
				Snapshots:              d.snapshots,
				Redis:                  d.redis,
				SSEChannel:             d.cfg.SSEChannel,
				Log:                    log,
				BackfillAdapterFactory: backfillAdapterFactory(d.registry, fetcher),
			})

			addr := fmt.Sprintf("%s:%d", d.cfg.APIHost, d.cfg.APIPort)
			log.Info().Str("addr", addr).Msg("starting API server")

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Echo.Start(addr) }()

			select {
			case <-ctx.Done():
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				return srv.Echo.Shutdown(shutdownCtx)
			case err := <-errCh:
				return err
			}
		},
	}
}

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "ingest", Short: "Run source polls on demand"}

	runOne := &cobra.Command{
		Use:   "run [source-key]",
		Short: "Run a single source's poll immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New("pulse-ingest")
			ctx := context.Background()
			d, err := wireDeps(ctx, log)
			if err != nil {
				return err
			}
			defer d.st.Close()

			run := d.sched.RunOne(ctx, args[0])
			if err := d.st.SaveSourceRun(ctx, run); err != nil {
				log.Warn().Err(err).Msg("persisting run record")
			}
			if err := d.tracker.Record(ctx, run); err != nil {
				log.Warn().Err(err).Msg("recording health snapshot")
			}
			log.Info().Str("source", run.SourceKey).Str("status", string(run.Status)).
				Int("inserted", run.Inserted).Msg("run complete")
			return nil
		},
	}

	runAll := &cobra.Command{
		Use:   "run-all",
		Short: "Run every enabled source's poll once, sequentially",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New("pulse-ingest")
			ctx := context.Background()
			d, err := wireDeps(ctx, log)
			if err != nil {
				return err
			}
			defer d.st.Close()

			for _, run := range d.sched.RunAllEnabled(ctx) {
				if err := d.st.SaveSourceRun(ctx, run); err != nil {
					log.Warn().Err(err).Msg("persisting run record")
				}
				if err := d.tracker.Record(ctx, run); err != nil {
					log.Warn().Err(err).Msg("recording health snapshot")
				}
			}
			return nil
		},
	}

	cmd.AddCommand(runOne, runAll)
	return cmd
}

func backfillCmd() *cobra.Command {
	var sourceKey, startDate, endDate string

	run := &cobra.Command{
		Use:   "run",
		Short: "Sweep a historical window for one academic source",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New("pulse-backfill")
			ctx := context.Background()
			d, err := wireDeps(ctx, log)
			if err != nil {
				return err
			}
			defer d.st.Close()

			from, err := time.Parse("2006-01-02", startDate)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			until := time.Now()
			if endDate != "" {
				until, err = time.Parse("2006-01-02", endDate)
				if err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
			}

			def, ok := d.registry.Get(sourceKey)
			if !ok {
				return fmt.Errorf("unknown source key %q", sourceKey)
			}
			fetcher := ingest.NewBreakerFetcher(ingest.NewHTTPFetcher(d.cfg.HTTPTimeout, d.cfg.UserAgent))
			adapter := buildAdapter(def, fetcher)
			sweeper := backfill.New(def, adapter, d.wr, d.st, d.snapshots, log)
			return sweeper.Run(ctx, from, until)
		},
	}
	run.Flags().StringVar(&sourceKey, "source", "openalex", "source key to sweep")
	run.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	run.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD), defaults to today")
	run.MarkFlagRequired("start")

	cmd := &cobra.Command{Use: "backfill", Short: "Historical backfill sweep"}
	cmd.AddCommand(run)
	return cmd
}

func sourcesCmd() *cobra.Command {
	list := &cobra.Command{
		Use:   "list",
		Short: "List every configured source and whether it is enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New("pulse-sources")
			ctx := context.Background()
			d, err := wireDeps(ctx, log)
			if err != nil {
				return err
			}
			defer d.st.Close()

			for _, def := range d.registry.All() {
				fmt.Printf("%-28s %-10s enabled=%v cadence=%dm\n", def.Key, def.SourceType, def.Enabled, def.CadenceMinutes)
			}
			return nil
		},
	}
	cmd := &cobra.Command{Use: "sources", Short: "Inspect the source catalog"}
	cmd.AddCommand(list)
	return cmd
}

func maintenanceCmd() *cobra.Command {
	var execute bool

	purge := &cobra.Command{
		Use:   "purge-synthetic",
		Short: "Delete records produced by the synthetic fallback generator",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New("pulse-maintenance")
			ctx := context.Background()
			d, err := wireDeps(ctx, log)
			if err != nil {
				return err
			}
			defer d.st.Close()

			if !execute {
				fmt.Println("dry run: pass --execute to actually delete")
				return nil
			}
			removed, err := d.st.PurgeSynthetic(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("removed %d synthetic records\n", removed)
			return nil
		},
	}
	purge.Flags().BoolVar(&execute, "execute", false, "actually delete instead of a dry run")

	cmd := &cobra.Command{Use: "maintenance", Short: "Operational maintenance tasks"}
	cmd.AddCommand(purge)
	return cmd
}
