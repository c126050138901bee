package middleware

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/cache"
)

const idempotencyKeyPrefix = "idempotency:"

// CacheRequestIDStore keeps idempotency records in the shared cache so every
// instance sees the same processed requests
type CacheRequestIDStore struct {
	cache cache.Cache
}

func NewCacheRequestIDStore(c cache.Cache) *CacheRequestIDStore {
	return &CacheRequestIDStore{cache: c}
}

func (s *CacheRequestIDStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.cache.SetNX(ctx, idempotencyKeyPrefix+key, pendingRecord, ttl)
}

func (s *CacheRequestIDStore) Store(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.cache.Set(ctx, idempotencyKeyPrefix+key, response, ttl)
}

func (s *CacheRequestIDStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.cache.Get(ctx, idempotencyKeyPrefix+key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrRequestIDNotFound
	}
	return value, err
}

func (s *CacheRequestIDStore) Release(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, idempotencyKeyPrefix+key)
}
