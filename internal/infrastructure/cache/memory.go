package cache

import (
	"context"
	"sync"
	"time"

	"marketdata-service/internal/application"
)

type entry struct {
	expiresAt time.Time
	value     string
}

// Memory is a TTL map implementation of the cache store port, used in
// development and tests when Redis is not configured.
type Memory struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

var _ application.CacheStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{items: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		return "", application.ErrCacheMiss
	}
	if m.now().After(e.expiresAt) {
		delete(m.items, key)
		return "", application.ErrCacheMiss
	}
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = entry{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}
