// Package runner executes a single source's poll: acquire its lock, call
// its adapter, normalize and gate the results, write the survivors, and
// persist the run's outcome whether it succeeded, errored, or never got
// the lock.
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scott-cmd11/ai-canada-pulse/internal/coordination"
	"github.com/scott-cmd11/ai-canada-pulse/internal/ingest"
	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
	"github.com/scott-cmd11/ai-canada-pulse/internal/store"
	"github.com/scott-cmd11/ai-canada-pulse/internal/writer"
)

// lockTTLFactor sizes the lock's TTL relative to the source's cadence so
// a hung adapter eventually releases the lock on its own even if the
// process holding it never reaches the release path.
const lockTTLFactor = 3

// Locker is the subset of coordination.Locker the runner depends on,
// narrowed to an interface so tests can swap in an in-memory fake
// instead of dialing Redis.
type Locker interface {
	Acquire(ctx context.Context, sourceKey string, ttl time.Duration) (*coordination.Lock, error)
	Release(ctx context.Context, lock *coordination.Lock) error
}

// Runner executes one source's poll end to end.
type Runner struct {
	registry *ingest.Registry
	store    store.Store
	writer   *writer.Writer
	locker   Locker
	log      zerolog.Logger
	minConf  float64
	minRelev float64
	now      func() time.Time
}

// New builds a Runner gating live polls at minConfidence/minRelevance.
func New(reg *ingest.Registry, st store.Store, w *writer.Writer, locker Locker, log zerolog.Logger, minConfidence, minRelevance float64) *Runner {
	return &Runner{
		registry: reg, store: st, writer: w, locker: locker, log: log,
		minConf: minConfidence, minRelev: minRelevance, now: time.Now,
	}
}

// Run executes one poll of the source identified by key. It always
// returns a SourceRun, even when the lock could not be acquired or the
// adapter errored, and has already persisted it via SaveSourceRun (except
// for an unregistered key, which is returned without being saved).
func (r *Runner) Run(ctx context.Context, key string, adapter ingest.Adapter) model.SourceRun {
	def, ok := r.registry.Get(key)
	if !ok {
		return r.errorRun(key, r.now(), r.now(), "source not registered in registry")
	}

	started := r.now()
	ttl := time.Duration(def.CadenceMinutes) * time.Minute * lockTTLFactor
	lock, err := r.locker.Acquire(ctx, key, ttl)
	if err != nil {
		if errors.Is(err, coordination.ErrLockHeld) {
			run := model.SourceRun{
				ID: uuid.NewString(), SourceKey: key, Status: model.RunStatusSkippedLock,
				StartedAt: started, FinishedAt: r.now(),
			}
			run.DurationMs = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
			r.persistRun(ctx, run)
			return run
		}
		run := r.errorRun(key, started, r.now(), err.Error())
		r.persistRun(ctx, run)
		return run
	}
	defer func() {
		if relErr := r.locker.Release(ctx, lock); relErr != nil {
			r.log.Warn().Err(relErr).Str("source", key).Msg("releasing lock")
		}
	}()

	state, _, err := r.store.GetSourceState(ctx, key)
	if err != nil {
		run := r.errorRun(key, started, r.now(), err.Error())
		r.persistRun(ctx, run)
		r.recordFailure(ctx, key, state, err)
		return run
	}
	state.SourceKey = key

	raw, nextState, fetchErr := adapter.FetchLive(ctx, state)
	if fetchErr != nil {
		finished := r.now()
		run := model.SourceRun{
			ID: uuid.NewString(), SourceKey: key, Status: model.RunStatusError,
			StartedAt: started, FinishedAt: finished, Error: fetchErr.Error(),
		}
		run.DurationMs = finished.Sub(started).Milliseconds()
		r.persistRun(ctx, run)
		r.recordFailure(ctx, key, state, fetchErr)
		return run
	}

	now := r.now()
	var accepted []model.AIDevelopment
	for _, item := range raw {
		result := ingest.Normalize(item, def, now)
		if !ingest.IsCanadaRelevant(result.Record, result.Relevance, r.minConf, r.minRelev) {
			continue
		}
		accepted = append(accepted, result.Record)
	}

	batch := r.writer.WriteBatch(ctx, accepted)

	finished := r.now()
	run := model.SourceRun{
		ID: uuid.NewString(), SourceKey: key, Status: model.RunStatusOK,
		StartedAt: started, FinishedAt: finished,
		Fetched: len(raw), Accepted: len(accepted),
		Inserted: batch.Inserted, Duplicates: batch.Duplicates, WriteErrors: batch.Errors,
	}
	run.DurationMs = finished.Sub(started).Milliseconds()
	r.persistRun(ctx, run)

	nextState.SourceKey = key
	nextState.ConsecutiveFailures = 0
	nextState.LastSuccessAt = &finished
	nextRun := finished.Add(r.registry.Cadence(key))
	nextState.NextRunAt = &nextRun
	if err := r.store.SaveSourceState(ctx, nextState); err != nil {
		r.log.Error().Err(err).Str("source", key).Msg("saving source state")
	}

	if batch.Inserted > 0 {
		if err := r.store.RefreshViews(ctx); err != nil {
			r.log.Warn().Err(err).Msg("refreshing analytics views")
		}
	}

	return run
}

func (r *Runner) recordFailure(ctx context.Context, key string, state model.SourceState, cause error) {
	now := r.now()
	state.SourceKey = key
	state.ConsecutiveFailures++
	state.LastErrorAt = &now
	state.LastError = cause.Error()
	nextRun := now.Add(NextInterval(r.registry.Cadence(key), state.ConsecutiveFailures))
	state.NextRunAt = &nextRun
	if err := r.store.SaveSourceState(ctx, state); err != nil {
		r.log.Error().Err(err).Str("source", key).Msg("saving failed source state")
	}
}

func (r *Runner) errorRun(key string, started, finished time.Time, msg string) model.SourceRun {
	run := model.SourceRun{
		ID: uuid.NewString(), SourceKey: key, Status: model.RunStatusError,
		StartedAt: started, FinishedAt: finished, Error: msg,
	}
	run.DurationMs = finished.Sub(started).Milliseconds()
	return run
}

func (r *Runner) persistRun(ctx context.Context, run model.SourceRun) {
	if err := r.store.SaveSourceRun(ctx, run); err != nil {
		r.log.Error().Err(err).Str("source", run.SourceKey).Msg("persisting source run")
	}
}
