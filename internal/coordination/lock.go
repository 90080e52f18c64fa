// Package coordination provides the Redis-backed primitives the runner and
// scheduler share across process instances: distributed locks, the new-item
// pub/sub fanout, and small cached snapshots the API layer reads back.
package coordination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned by Acquire when another runner already holds
// the lock for a source.
var ErrLockHeld = errors.New("coordination: lock held by another runner")

// Locker acquires and releases the per-source ingest lock that keeps two
// runner instances from polling the same source concurrently.
type Locker struct {
	client *redis.Client
	prefix string
}

// NewLocker builds a Locker that prefixes every key with prefix (the
// config's lock_key_prefix, "ingest_live:lock:" by default).
func NewLocker(client *redis.Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

// Lock is a held lock's release token, needed so Release only clears the
// key if it still holds the token this process set — never someone
// else's, acquired after our TTL already expired.
type Lock struct {
	key   string
	token string
}

func (l *Locker) key(sourceKey string) string {
	return l.prefix + sourceKey
}

// Acquire attempts to take the lock for sourceKey with the given TTL,
// using SET NX EX so acquisition is a single atomic round trip. Returns
// ErrLockHeld if another runner currently holds it.
func (l *Locker) Acquire(ctx context.Context, sourceKey string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key(sourceKey), token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("coordination: acquiring lock for %s: %w", sourceKey, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &Lock{key: l.key(sourceKey), token: token}, nil
}

// releaseScript deletes the key only if its value still matches the
// token we set, so a lock we think we hold but whose TTL already expired
// (and was re-acquired by another runner) is never deleted out from
// under its new owner.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`

// Release drops the lock, but only if it is still the one we acquired.
func (l *Locker) Release(ctx context.Context, lock *Lock) error {
	if lock == nil {
		return nil
	}
	if err := l.client.Eval(ctx, releaseScript, []string{lock.key}, lock.token).Err(); err != nil {
		return fmt.Errorf("coordination: releasing lock %s: %w", lock.key, err)
	}
	return nil
}
