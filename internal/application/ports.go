package application

import (
	"context"
	"time"

	"marketdata-service/internal/domain"
)

// ProviderClient is the capability every upstream adapter implements.
// Both methods fail with a provider-specific error when no usable data
// is found; adapters never return an empty result with a nil error.
type ProviderClient interface {
	GetQuote(ctx context.Context, symbol string) (domain.PriceSnapshot, error)
	GetHistoricalDaily(ctx context.Context, symbol string, start, end time.Time) (domain.HistoricalSeries, error)
}

// CacheStore is the process-lifetime shared cache. Get returns
// ErrCacheMiss for absent keys. Errors from either method are
// non-fatal; callers log and move on.
type CacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// SnapshotRepo persists quotes pulled by the refresh worker.
type SnapshotRepo interface {
	GetLatest(ctx context.Context, symbol string) (domain.PriceSnapshot, domain.ProviderID, error)
	Upsert(ctx context.Context, s domain.PriceSnapshot, source domain.ProviderID) error
	AppendHistory(ctx context.Context, s domain.PriceSnapshot, source domain.ProviderID) error
}
