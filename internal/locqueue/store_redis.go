package locqueue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/opencourier/driverd/internal/models"
)

// RedisStore keeps the queue under one Redis key, same slot semantics as the
// file backend. Useful when several agent processes share a host.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "driver_location_queue_v1"
	}
	return &RedisStore{client: client, key: key}
}

func (r *RedisStore) Load(ctx context.Context) ([]models.QueuedLocation, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.QueuedLocation{}, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}

	var entries []models.QueuedLocation
	if json.Unmarshal(raw, &entries) != nil {
		return []models.QueuedLocation{}, nil
	}
	return entries, nil
}

func (r *RedisStore) Save(ctx context.Context, entries []models.QueuedLocation) error {
	if entries == nil {
		entries = []models.QueuedLocation{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}
	if err := r.client.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	return nil
}
