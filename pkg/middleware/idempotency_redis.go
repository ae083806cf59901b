package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ptcms/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "ptcms:idem:"

// RedisIdempotencyStore shares replay entries between replicas. Entries
// expire through the redis TTL.
type RedisIdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewRedisIdempotencyStore(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb, ttl: ttl, log: log}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (*CachedResponse, bool) {
	data, err := s.rdb.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.log.Warn("Idempotency lookup failed", "error", err)
		return nil, false
	}

	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		s.log.Warn("Discarding unreadable idempotency entry", "error", err)
		return nil, false
	}
	return &cached, true
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key string, response *CachedResponse) {
	response.CreatedAt = time.Now()
	data, err := json.Marshal(response)
	if err != nil {
		s.log.Warn("Idempotency entry not stored", "error", err)
		return
	}
	// the request deadline may already be spent by a slow backend call
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.rdb.Set(ctx, idempotencyKeyPrefix+key, data, s.ttl).Err(); err != nil {
		s.log.Warn("Idempotency entry not stored", "error", err)
	}
}

// Stop is a no-op; the redis client is closed with the rest of the clients.
func (s *RedisIdempotencyStore) Stop() {}
