// Package writer is the single choke point every accepted record passes
// through on its way into storage: dedup-by-hash insert, then a
// best-effort publish to the live feed.
package writer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/scott-cmd11/ai-canada-pulse/internal/coordination"
	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
	"github.com/scott-cmd11/ai-canada-pulse/internal/store"
)

// Outcome mirrors store.WriteOutcome plus the Error case, which the store
// layer reports as a Go error rather than a sentinel value.
type Outcome int

const (
	Inserted Outcome = iota
	Duplicate
	Failed
)

// Writer owns the write-then-publish sequence. Publish happens strictly
// after a successful insert commits, and a publish failure never unwinds
// the insert: the record is durable either way, it just may not reach an
// open SSE connection until the next poll cycle surfaces it some other way.
type Writer struct {
	store     store.Store
	publisher *coordination.Publisher
	log       zerolog.Logger
}

func New(st store.Store, publisher *coordination.Publisher, log zerolog.Logger) *Writer {
	return &Writer{store: st, publisher: publisher, log: log}
}

// Write inserts rec and, on a fresh insert, publishes it. It never
// returns an error for a duplicate; callers should treat Failed as the
// only outcome worth retrying or escalating.
func (w *Writer) Write(ctx context.Context, rec model.AIDevelopment) Outcome {
	outcome, err := w.store.Write(ctx, rec)
	if err != nil {
		w.log.Error().Err(err).Str("hash", rec.Hash).Msg("write failed")
		return Failed
	}
	if outcome == store.WriteDuplicate {
		return Duplicate
	}

	if w.publisher != nil {
		if err := w.publisher.Publish(ctx, rec); err != nil {
			w.log.Warn().Err(err).Str("id", rec.ID).Msg("publish after insert failed")
		}
	}
	return Inserted
}

// WriteBatch writes each record in order and tallies outcomes, matching
// the per-run counters a SourceRun records.
type BatchResult struct {
	Inserted   int
	Duplicates int
	Errors     int
}

func (w *Writer) WriteBatch(ctx context.Context, records []model.AIDevelopment) BatchResult {
	var res BatchResult
	for _, rec := range records {
		switch w.Write(ctx, rec) {
		case Inserted:
			res.Inserted++
		case Duplicate:
			res.Duplicates++
		case Failed:
			res.Errors++
		}
	}
	return res
}
