package coordination

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore persists small, frequently-read JSON blobs — the
// source health summary and the backfill progress record — so the API
// layer can serve them without recomputing from the database on every
// request.
type SnapshotStore struct {
	client *redis.Client
}

func NewSnapshotStore(client *redis.Client) *SnapshotStore {
	return &SnapshotStore{client: client}
}

// Set stores value as JSON under key with no expiry: each snapshot is
// fully overwritten by the next writer, so a stale TTL would only ever
// hide data we would otherwise still want to serve.
func (s *SnapshotStore) Set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("coordination: marshaling snapshot %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("coordination: storing snapshot %s: %w", key, err)
	}
	return nil
}

// Get decodes the JSON stored under key into dst. Returns redis.Nil if
// nothing has been stored yet.
func (s *SnapshotStore) Get(ctx context.Context, key string, dst any) error {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dst)
}

// NewClient dials Redis from a URL, matching the config layer's
// redis_url setting.
func NewClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("coordination: parsing redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	return redis.NewClient(opts), nil
}
