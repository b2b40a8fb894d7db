package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DedupStore makes turn submission idempotent: once a request id has been
// fully processed, resubmissions of the same id (client retries after a
// network timeout) map back to the chunk the first submission produced.
type DedupStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupStore creates a dedup store. Keys expire after ttl; a retry
// arriving later than that reprocesses the turn, which is acceptable since
// clients retry within seconds.
func NewDedupStore(client *redis.Client, ttl time.Duration) *DedupStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DedupStore{client: client, ttl: ttl}
}

func (d *DedupStore) key(huddleID uuid.UUID, requestID string) string {
	return fmt.Sprintf("huddle:%s:turn:%s", huddleID, requestID)
}

// Lookup returns the chunk id a previously processed request produced, or
// uuid.Nil when the request id is unseen.
func (d *DedupStore) Lookup(ctx context.Context, huddleID uuid.UUID, requestID string) (uuid.UUID, error) {
	val, err := d.client.Get(ctx, d.key(huddleID, requestID)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	chunkID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt dedup entry: %w", err)
	}
	return chunkID, nil
}

// MarkProcessed records the chunk a request id produced. Called only after
// the batch has been applied, so a crash in between reprocesses the turn
// rather than losing it.
func (d *DedupStore) MarkProcessed(ctx context.Context, huddleID uuid.UUID, requestID string, chunkID uuid.UUID) error {
	return d.client.Set(ctx, d.key(huddleID, requestID), chunkID.String(), d.ttl).Err()
}
