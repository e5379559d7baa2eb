package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisKeyPrefix = "creatia:batch:"

// RedisStore keeps reports as JSON strings with a Redis expiry.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ ReportStore = (*RedisStore)(nil)

// NewRedisStore wraps a go-redis client. ttl <= 0 uses DefaultTTL.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Ping checks connectivity at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Put implements ReportStore.
func (s *RedisStore) Put(ctx context.Context, b *StoredBatch) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal batch %s: %w", b.ID, err)
	}
	if err := s.client.Set(ctx, redisKey(b.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", b.ID, err)
	}
	log.Debug().Str("batch_id", b.ID).Int("bytes", len(data)).Msg("Batch report stored in Redis")
	return nil
}

// Get implements ReportStore.
func (s *RedisStore) Get(ctx context.Context, id string) (*StoredBatch, error) {
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", id, err)
	}

	var b StoredBatch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("unmarshal batch %s: %w", id, err)
	}
	return &b, nil
}
