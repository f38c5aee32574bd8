package redisstore

import (
	"context"
	"errors"
	"time"

	"marketdata-service/internal/application"

	"github.com/redis/go-redis/v9"
)

// Store backs the shared cache with Redis. It serves both the
// provider-local result caches and the aggregator's last-resort
// entries; the two key families never collide.
type Store struct {
	Client *redis.Client
}

var _ application.CacheStore = (*Store)(nil)

func New(client *redis.Client) *Store {
	return &Store{Client: client}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", application.ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.Client.Set(ctx, key, value, ttl).Err()
}
