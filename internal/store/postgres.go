package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

// PostgresStore is the production Store backed by pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) Write(ctx context.Context, rec model.AIDevelopment) (WriteOutcome, error) {
	entities, err := json.Marshal(rec.Entities)
	if err != nil {
		return 0, fmt.Errorf("store: marshaling entities: %w", err)
	}
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return 0, fmt.Errorf("store: marshaling tags: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO ai_developments
			(id, source_id, source_type, category, title, description, url, publisher,
			 published_at, ingested_at, language, jurisdiction, entities, tags, hash, confidence)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (hash) DO NOTHING
	`,
		rec.ID, rec.SourceID, string(rec.SourceType), string(rec.Category), rec.Title, rec.Description,
		rec.URL, rec.Publisher, rec.PublishedAt, rec.IngestedAt, string(rec.Language), rec.Jurisdiction,
		entities, tags, rec.Hash, rec.Confidence,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return WriteDuplicate, nil
		}
		return 0, fmt.Errorf("store: inserting development: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return WriteDuplicate, nil
	}
	return WriteInserted, nil
}

func scanDevelopment(rows pgx.Rows) (model.AIDevelopment, error) {
	var rec model.AIDevelopment
	var entities, tags []byte
	var sourceType, category, language string
	if err := rows.Scan(
		&rec.ID, &rec.SourceID, &sourceType, &category, &rec.Title, &rec.Description,
		&rec.URL, &rec.Publisher, &rec.PublishedAt, &rec.IngestedAt, &language, &rec.Jurisdiction,
		&entities, &tags, &rec.Hash, &rec.Confidence,
	); err != nil {
		return rec, err
	}
	rec.SourceType = model.SourceType(sourceType)
	rec.Category = model.Category(category)
	rec.Language = model.Language(language)
	_ = json.Unmarshal(entities, &rec.Entities)
	_ = json.Unmarshal(tags, &rec.Tags)
	return rec, nil
}

const developmentColumns = `id, source_id, source_type, category, title, description, url, publisher,
	published_at, ingested_at, language, jurisdiction, entities, tags, hash, confidence`

func (s *PostgresStore) ListDevelopments(ctx context.Context, filter DevelopmentFilter) ([]model.AIDevelopment, error) {
	query := "SELECT " + developmentColumns + " FROM ai_developments WHERE 1=1"
	var args []any
	add := func(clause string, val any) {
		args = append(args, val)
		query += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}
	if !filter.Since.IsZero() {
		add("published_at >=", filter.Since)
	}
	if !filter.Until.IsZero() {
		add("published_at <=", filter.Until)
	}
	if filter.Category != "" {
		add("category =", string(filter.Category))
	}
	if filter.SourceType != "" {
		add("source_type =", string(filter.SourceType))
	}
	if filter.Jurisdiction != "" {
		add("jurisdiction =", filter.Jurisdiction)
	}
	query += " ORDER BY published_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: listing developments: %w", err)
	}
	defer rows.Close()

	var out []model.AIDevelopment
	for rows.Next() {
		rec, err := scanDevelopment(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scanning development: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListSince(ctx context.Context, since time.Time) ([]model.AIDevelopment, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+developmentColumns+" FROM ai_developments WHERE published_at >= $1", since)
	if err != nil {
		return nil, fmt.Errorf("store: listing since %s: %w", since, err)
	}
	defer rows.Close()

	var out []model.AIDevelopment
	for rows.Next() {
		rec, err := scanDevelopment(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scanning development: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM ai_developments").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: counting developments: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) GetSourceState(ctx context.Context, key string) (model.SourceState, bool, error) {
	var st model.SourceState
	err := s.pool.QueryRow(ctx, `
		SELECT source_key, cursor, etag, last_modified, last_success_at, last_error_at,
		       consecutive_failures, last_error, next_run_at, updated_at
		FROM source_states WHERE source_key = $1
	`, key).Scan(
		&st.SourceKey, &st.Cursor, &st.ETag, &st.LastModified, &st.LastSuccessAt, &st.LastErrorAt,
		&st.ConsecutiveFailures, &st.LastError, &st.NextRunAt, &st.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SourceState{}, false, nil
	}
	if err != nil {
		return model.SourceState{}, false, fmt.Errorf("store: getting source state %s: %w", key, err)
	}
	return st, true, nil
}

func (s *PostgresStore) SaveSourceState(ctx context.Context, state model.SourceState) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO source_states
			(source_key, cursor, etag, last_modified, last_success_at, last_error_at,
			 consecutive_failures, last_error, next_run_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
		ON CONFLICT (source_key) DO UPDATE SET
			cursor = EXCLUDED.cursor,
			etag = EXCLUDED.etag,
			last_modified = EXCLUDED.last_modified,
			last_success_at = EXCLUDED.last_success_at,
			last_error_at = EXCLUDED.last_error_at,
			consecutive_failures = EXCLUDED.consecutive_failures,
			last_error = EXCLUDED.last_error,
			next_run_at = EXCLUDED.next_run_at,
			updated_at = NOW()
	`, state.SourceKey, state.Cursor, state.ETag, state.LastModified, state.LastSuccessAt, state.LastErrorAt,
		state.ConsecutiveFailures, state.LastError, state.NextRunAt)
	if err != nil {
		return fmt.Errorf("store: saving source state %s: %w", state.SourceKey, err)
	}
	return nil
}

func (s *PostgresStore) SaveSourceRun(ctx context.Context, run model.SourceRun) error {
	details, err := json.Marshal(run.Details)
	if err != nil {
		return fmt.Errorf("store: marshaling run details: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO source_runs
			(id, source_key, status, started_at, finished_at, duration_ms,
			 fetched, accepted, inserted, duplicates, write_errors, error, details)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, run.ID, run.SourceKey, string(run.Status), run.StartedAt, run.FinishedAt, run.DurationMs,
		run.Fetched, run.Accepted, run.Inserted, run.Duplicates, run.WriteErrors, run.Error, details)
	if err != nil {
		return fmt.Errorf("store: saving source run %s: %w", run.SourceKey, err)
	}
	return nil
}

func (s *PostgresStore) ListRecentRuns(ctx context.Context, key string, limit int) ([]model.SourceRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_key, status, started_at, finished_at, duration_ms,
		       fetched, accepted, inserted, duplicates, write_errors, error, details
		FROM source_runs WHERE source_key = $1 ORDER BY started_at DESC LIMIT $2
	`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("store: listing runs for %s: %w", key, err)
	}
	defer rows.Close()

	var out []model.SourceRun
	for rows.Next() {
		var run model.SourceRun
		var status string
		var details []byte
		if err := rows.Scan(&run.ID, &run.SourceKey, &status, &run.StartedAt, &run.FinishedAt, &run.DurationMs,
			&run.Fetched, &run.Accepted, &run.Inserted, &run.Duplicates, &run.WriteErrors, &run.Error, &details); err != nil {
			return nil, fmt.Errorf("store: scanning run: %w", err)
		}
		run.Status = model.RunStatus(status)
		_ = json.Unmarshal(details, &run.Details)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *PostgresStore) RefreshViews(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "REFRESH MATERIALIZED VIEW hourly_stats"); err != nil {
		return fmt.Errorf("store: refreshing hourly_stats: %w", err)
	}
	if _, err := s.pool.Exec(ctx, "REFRESH MATERIALIZED VIEW weekly_stats"); err != nil {
		return fmt.Errorf("store: refreshing weekly_stats: %w", err)
	}
	return nil
}

func (s *PostgresStore) PurgeSynthetic(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM ai_developments WHERE url LIKE 'https://example.com/%'")
	if err != nil {
		return 0, fmt.Errorf("store: purging synthetic records: %w", err)
	}
	return tag.RowsAffected(), nil
}
