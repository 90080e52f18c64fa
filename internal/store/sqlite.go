package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// SQLiteStore is an in-memory Store used by unit tests. It has no
// materialized views: RefreshViews is a no-op, and any caller that needs
// hourly/weekly aggregates computes them directly from ListSince, which
// is what the analytics engine does against every Store, Postgres
// included: it never reads the materialized views.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens an in-memory sqlite database and creates the
// schema. dsn is typically "file::memory:?cache=shared" so multiple
// connections in the same test see the same data.
func OpenSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ai_developments (
			id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			source_type TEXT NOT NULL,
			category TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL,
			publisher TEXT NOT NULL,
			published_at TEXT NOT NULL,
			ingested_at TEXT NOT NULL,
			language TEXT NOT NULL,
			jurisdiction TEXT NOT NULL,
			entities TEXT NOT NULL DEFAULT '[]',
			tags TEXT NOT NULL DEFAULT '[]',
			hash TEXT NOT NULL UNIQUE,
			confidence REAL NOT NULL
		);
		CREATE TABLE IF NOT EXISTS source_states (
			source_key TEXT PRIMARY KEY,
			cursor TEXT NOT NULL DEFAULT '',
			etag TEXT NOT NULL DEFAULT '',
			last_modified TEXT NOT NULL DEFAULT '',
			last_success_at TEXT,
			last_error_at TEXT,
			consecutive_failures INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			next_run_at TEXT,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS source_runs (
			id TEXT PRIMARY KEY,
			source_key TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			fetched INTEGER NOT NULL DEFAULT 0,
			accepted INTEGER NOT NULL DEFAULT 0,
			inserted INTEGER NOT NULL DEFAULT 0,
			duplicates INTEGER NOT NULL DEFAULT 0,
			write_errors INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '{}'
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: creating sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() { s.db.Close() }

const sqliteTimeLayout = time.RFC3339Nano

func (s *SQLiteStore) Write(ctx context.Context, rec model.AIDevelopment) (WriteOutcome, error) {
	entities, _ := json.Marshal(rec.Entities)
	tags, _ := json.Marshal(rec.Tags)

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO ai_developments
			(id, source_id, source_type, category, title, description, url, publisher,
			 published_at, ingested_at, language, jurisdiction, entities, tags, hash, confidence)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`,
		rec.ID, rec.SourceID, string(rec.SourceType), string(rec.Category), rec.Title, rec.Description,
		rec.URL, rec.Publisher, rec.PublishedAt.UTC().Format(sqliteTimeLayout), rec.IngestedAt.UTC().Format(sqliteTimeLayout),
		string(rec.Language), rec.Jurisdiction, string(entities), string(tags), rec.Hash, rec.Confidence,
	)
	if err != nil {
		return 0, fmt.Errorf("store: inserting development: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: checking rows affected: %w", err)
	}
	if n == 0 {
		return WriteDuplicate, nil
	}
	return WriteInserted, nil
}

func scanSQLiteDevelopment(rows *sql.Rows) (model.AIDevelopment, error) {
	var rec model.AIDevelopment
	var sourceType, category, language, publishedAt, ingestedAt, entities, tags string
	if err := rows.Scan(
		&rec.ID, &rec.SourceID, &sourceType, &category, &rec.Title, &rec.Description,
		&rec.URL, &rec.Publisher, &publishedAt, &ingestedAt, &language, &rec.Jurisdiction,
		&entities, &tags, &rec.Hash, &rec.Confidence,
	); err != nil {
		return rec, err
	}
	rec.SourceType = model.SourceType(sourceType)
	rec.Category = model.Category(category)
	rec.Language = model.Language(language)
	rec.PublishedAt, _ = time.Parse(sqliteTimeLayout, publishedAt)
	rec.IngestedAt, _ = time.Parse(sqliteTimeLayout, ingestedAt)
	_ = json.Unmarshal([]byte(entities), &rec.Entities)
	_ = json.Unmarshal([]byte(tags), &rec.Tags)
	return rec, nil
}

func (s *SQLiteStore) ListDevelopments(ctx context.Context, filter DevelopmentFilter) ([]model.AIDevelopment, error) {
	query := "SELECT " + developmentColumns + " FROM ai_developments WHERE 1=1"
	var args []any
	if !filter.Since.IsZero() {
		query += " AND published_at >= ?"
		args = append(args, filter.Since.UTC().Format(sqliteTimeLayout))
	}
	if !filter.Until.IsZero() {
		query += " AND published_at <= ?"
		args = append(args, filter.Until.UTC().Format(sqliteTimeLayout))
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, string(filter.Category))
	}
	if filter.SourceType != "" {
		query += " AND source_type = ?"
		args = append(args, string(filter.SourceType))
	}
	if filter.Jurisdiction != "" {
		query += " AND jurisdiction = ?"
		args = append(args, filter.Jurisdiction)
	}
	query += " ORDER BY published_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: listing developments: %w", err)
	}
	defer rows.Close()

	var out []model.AIDevelopment
	for rows.Next() {
		rec, err := scanSQLiteDevelopment(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scanning development: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListSince(ctx context.Context, since time.Time) ([]model.AIDevelopment, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+developmentColumns+" FROM ai_developments WHERE published_at >= ?", since.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("store: listing since %s: %w", since, err)
	}
	defer rows.Close()

	var out []model.AIDevelopment
	for rows.Next() {
		rec, err := scanSQLiteDevelopment(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scanning development: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ai_developments").Scan(&n); err != nil {
		return 0, fmt.Errorf("store: counting developments: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) GetSourceState(ctx context.Context, key string) (model.SourceState, bool, error) {
	var st model.SourceState
	var lastSuccessAt, lastErrorAt, nextRunAt, updatedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT source_key, cursor, etag, last_modified, last_success_at, last_error_at,
		       consecutive_failures, last_error, next_run_at, updated_at
		FROM source_states WHERE source_key = ?
	`, key).Scan(&st.SourceKey, &st.Cursor, &st.ETag, &st.LastModified, &lastSuccessAt, &lastErrorAt,
		&st.ConsecutiveFailures, &st.LastError, &nextRunAt, &updatedAt)
	if err == sql.ErrNoRows {
		return model.SourceState{}, false, nil
	}
	if err != nil {
		return model.SourceState{}, false, fmt.Errorf("store: getting source state %s: %w", key, err)
	}
	st.LastSuccessAt = parseNullableTime(lastSuccessAt)
	st.LastErrorAt = parseNullableTime(lastErrorAt)
	st.NextRunAt = parseNullableTime(nextRunAt)
	if t := parseNullableTime(updatedAt); t != nil {
		st.UpdatedAt = *t
	}
	return st, true, nil
}

func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(sqliteTimeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(sqliteTimeLayout)
}

func (s *SQLiteStore) SaveSourceState(ctx context.Context, state model.SourceState) error {
	now := time.Now().UTC().Format(sqliteTimeLayout)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO source_states
			(source_key, cursor, etag, last_modified, last_success_at, last_error_at,
			 consecutive_failures, last_error, next_run_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(source_key) DO UPDATE SET
			cursor=excluded.cursor, etag=excluded.etag, last_modified=excluded.last_modified,
			last_success_at=excluded.last_success_at, last_error_at=excluded.last_error_at,
			consecutive_failures=excluded.consecutive_failures, last_error=excluded.last_error,
			next_run_at=excluded.next_run_at, updated_at=excluded.updated_at
	`, state.SourceKey, state.Cursor, state.ETag, state.LastModified,
		formatNullableTime(state.LastSuccessAt), formatNullableTime(state.LastErrorAt),
		state.ConsecutiveFailures, state.LastError, formatNullableTime(state.NextRunAt), now)
	if err != nil {
		return fmt.Errorf("store: saving source state %s: %w", state.SourceKey, err)
	}
	return nil
}

func (s *SQLiteStore) SaveSourceRun(ctx context.Context, run model.SourceRun) error {
	details, _ := json.Marshal(run.Details)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO source_runs
			(id, source_key, status, started_at, finished_at, duration_ms,
			 fetched, accepted, inserted, duplicates, write_errors, error, details)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, run.ID, run.SourceKey, string(run.Status), run.StartedAt.UTC().Format(sqliteTimeLayout),
		run.FinishedAt.UTC().Format(sqliteTimeLayout), run.DurationMs, run.Fetched, run.Accepted,
		run.Inserted, run.Duplicates, run.WriteErrors, run.Error, string(details))
	if err != nil {
		return fmt.Errorf("store: saving source run %s: %w", run.SourceKey, err)
	}
	return nil
}

func (s *SQLiteStore) ListRecentRuns(ctx context.Context, key string, limit int) ([]model.SourceRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_key, status, started_at, finished_at, duration_ms,
		       fetched, accepted, inserted, duplicates, write_errors, error, details
		FROM source_runs WHERE source_key = ? ORDER BY started_at DESC LIMIT ?
	`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("store: listing runs for %s: %w", key, err)
	}
	defer rows.Close()

	var out []model.SourceRun
	for rows.Next() {
		var run model.SourceRun
		var status, startedAt, finishedAt, details string
		if err := rows.Scan(&run.ID, &run.SourceKey, &status, &startedAt, &finishedAt, &run.DurationMs,
			&run.Fetched, &run.Accepted, &run.Inserted, &run.Duplicates, &run.WriteErrors, &run.Error, &details); err != nil {
			return nil, fmt.Errorf("store: scanning run: %w", err)
		}
		run.Status = model.RunStatus(status)
		run.StartedAt, _ = time.Parse(sqliteTimeLayout, startedAt)
		run.FinishedAt, _ = time.Parse(sqliteTimeLayout, finishedAt)
		_ = json.Unmarshal([]byte(details), &run.Details)
		out = append(out, run)
	}
	return out, rows.Err()
}

// RefreshViews is a no-op: the sqlite backend has no materialized views,
// analytics always aggregates directly from ListSince against it.
func (s *SQLiteStore) RefreshViews(ctx context.Context) error { return nil }

func (s *SQLiteStore) PurgeSynthetic(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM ai_developments WHERE url LIKE ?", "https://example.com/%")
	if err != nil {
		return 0, fmt.Errorf("store: purging synthetic records: %w", err)
	}
	return res.RowsAffected()
}
