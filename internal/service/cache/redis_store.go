package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"coincast/internal/domain/models"
	"coincast/internal/domain/repository"
)

// RedisSnapshotStore keeps the last good snapshot in Redis so a restarted
// process can serve stale entries until its first live refresh completes.
// This is a cache of display state, not a system of record.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSnapshotStore builds a store over the given connection.
func NewRedisSnapshotStore(client *redis.Client, key string, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, key: key, ttl: ttl}
}

// Save serializes and stores the snapshot.
func (s *RedisSnapshotStore) Save(ctx context.Context, snap *models.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or nil when none exists.
func (s *RedisSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

var _ repository.SnapshotStore = (*RedisSnapshotStore)(nil)
