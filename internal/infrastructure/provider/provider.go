package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/infrastructure/ratelimit"

	"go.uber.org/zap"
)

// Config is shared by all upstream adapters. Each adapter creates and
// exclusively owns its rate limiter from RateLimit at construction;
// Cache is the process-wide shared store, which adapters use under
// provider-scoped keys only.
type Config struct {
	BaseURL    string
	APIKey     string
	Client     *http.Client
	Cache      application.CacheStore
	RateLimit  ratelimit.Config
	QuoteTTL   time.Duration
	HistoryTTL time.Duration
	Log        *zap.Logger
}

func (c *Config) withDefaults(baseURL string) {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.QuoteTTL <= 0 {
		c.QuoteTTL = 60 * time.Second
	}
	if c.HistoryTTL <= 0 {
		c.HistoryTTL = 3600 * time.Second
	}
	if c.Log == nil {
		c.Log = zap.NewNop()
	}
}

const dateFmt = "2006-01-02"

func quoteKey(name, symbol string) string {
	return fmt.Sprintf("provider:%s:quote:%s", name, symbol)
}

func historyKey(name, symbol string, start, end time.Time) string {
	return fmt.Sprintf("provider:%s:history:%s:%s:%s", name, symbol, start.Format(dateFmt), end.Format(dateFmt))
}

// cacheLookup decodes a cached JSON entry into out. Any cache error is
// logged and treated as a miss.
func cacheLookup(ctx context.Context, cache application.CacheStore, log *zap.Logger, key string, out any) bool {
	if cache == nil {
		return false
	}
	raw, err := cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, application.ErrCacheMiss) {
			log.Warn("provider_cache_read_failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Warn("provider_cache_decode_failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// cacheStore writes v back best-effort; failures are logged, never
// propagated.
func cacheStore(ctx context.Context, cache application.CacheStore, log *zap.Logger, key string, v any, ttl time.Duration) {
	if cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Warn("provider_cache_marshal_failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := cache.Set(ctx, key, string(b), ttl); err != nil {
		log.Warn("provider_cache_write_failed", zap.String("key", key), zap.Error(err))
	}
}

func decodeJSON(resp *http.Response, name string, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", name, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", name, err)
	}
	return nil
}
