// Package scheduler wires the source registry's cadence into cron jobs,
// one independent job per source so a slow or stuck source never blocks
// another from polling on time.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/scott-cmd11/ai-canada-pulse/internal/ingest"
	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
	"github.com/scott-cmd11/ai-canada-pulse/internal/runner"
)

// AdapterFactory builds the Adapter for one source definition. Kept as a
// function rather than a registry lookup so the scheduler doesn't need
// to know about HTTP clients, breakers, or per-adapter construction.
type AdapterFactory func(def model.SourceDefinition) ingest.Adapter

// Scheduler registers one cron entry per enabled source and also exposes
// RunOne/RunAllEnabled for on-demand invocation from the CLI.
type Scheduler struct {
	registry *ingest.Registry
	runner   *runner.Runner
	adapters AdapterFactory
	cron     *cron.Cron
	log      zerolog.Logger
}

func New(reg *ingest.Registry, rn *runner.Runner, adapters AdapterFactory, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		registry: reg,
		runner:   rn,
		adapters: adapters,
		cron:     cron.New(),
		log:      log,
	}
}

// RegisterAll adds one cron job per enabled source, each firing at its
// own configured cadence.
func (s *Scheduler) RegisterAll() error {
	for _, def := range s.registry.Enabled() {
		def := def
		spec := fmt.Sprintf("@every %dm", def.CadenceMinutes)
		if _, err := s.cron.AddFunc(spec, func() {
			s.runOneLogged(def.Key)
		}); err != nil {
			return fmt.Errorf("scheduler: registering %s: %w", def.Key, err)
		}
	}
	return nil
}

// Start begins firing registered jobs in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops firing new jobs and returns a context that is done once
// running jobs have finished; it does not wait itself.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

func (s *Scheduler) runOneLogged(key string) {
	run := s.RunOne(context.Background(), key)
	s.log.Info().
		Str("source", key).
		Str("status", string(run.Status)).
		Int("inserted", run.Inserted).
		Int("duplicates", run.Duplicates).
		Msg("source run completed")
}

// RunOne executes a single source's poll immediately, independent of its
// cron schedule. Used by the CLI's "ingest run <key>".
func (s *Scheduler) RunOne(ctx context.Context, key string) model.SourceRun {
	def, ok := s.registry.Get(key)
	if !ok {
		return model.SourceRun{SourceKey: key, Status: model.RunStatusError, Error: "unknown source key"}
	}
	adapter := s.adapters(def)
	return s.runner.Run(ctx, key, adapter)
}

// RunAllEnabled runs every enabled source once, sequentially. Used for a
// manual "ingest run-all" invocation; the cron-driven path runs sources
// independently and concurrently instead.
func (s *Scheduler) RunAllEnabled(ctx context.Context) []model.SourceRun {
	var runs []model.SourceRun
	for _, def := range s.registry.Enabled() {
		runs = append(runs, s.RunOne(ctx, def.Key))
	}
	return runs
}
