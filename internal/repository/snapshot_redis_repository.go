package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultSnapshotKey is used when no key is configured.
const DefaultSnapshotKey = "journey:overlay"

// RedisSnapshotRepository stores the overlay snapshot under a single key.
type RedisSnapshotRepository struct {
	client *redis.Client
	key    string
}

// NewRedisSnapshotRepository constructs the repository.
func NewRedisSnapshotRepository(client *redis.Client, key string) *RedisSnapshotRepository {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &RedisSnapshotRepository{client: client, key: key}
}

// Load reads the snapshot value.
func (r *RedisSnapshotRepository) Load(ctx context.Context) ([]byte, error) {
	payload, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return payload, nil
}

// Save overwrites the snapshot value without expiry.
func (r *RedisSnapshotRepository) Save(ctx context.Context, payload []byte) error {
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}
