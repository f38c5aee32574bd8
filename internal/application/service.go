package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketdata-service/internal/domain"

	"go.uber.org/zap"
)

const (
	quoteFallbackKeyFmt   = "market:quote:%s"
	historyFallbackKeyFmt = "market:history:%s:%s:%s"
	fallbackDateFmt       = "2006-01-02"
)

// MarketDataService presents one logical get-a-quote / get-a-history
// operation while juggling rate-limited upstreams behind it. Providers
// are tried strictly in order Primary (if configured) -> fallbacks,
// skipping any whose circuit breaker is open; the shared cache is the
// last resort once every live provider has failed or been skipped.
// Ordering is a static priority policy, never adaptive.
type MarketDataService struct {
	primary   *ProviderEntry
	fallbacks []ProviderEntry

	breakers    *BreakerRegistry
	stats       *statsRegistry
	cache       CacheStore
	clock       Clock
	log         *zap.Logger
	fallbackTTL time.Duration
}

// ProviderEntry pairs a client with its identity in stats and breaker
// state.
type ProviderEntry struct {
	ID     domain.ProviderID
	Client ProviderClient
}

type Option func(*MarketDataService)

func WithClock(c Clock) Option { return func(s *MarketDataService) { s.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(s *MarketDataService) { s.log = l } }

// WithFallbackTTL overrides how long last-resort cache entries live.
func WithFallbackTTL(ttl time.Duration) Option {
	return func(s *MarketDataService) { s.fallbackTTL = ttl }
}

// NewMarketDataService builds the aggregator. It exclusively owns the
// breaker registry and stats map; provider clients never touch either.
func NewMarketDataService(primary *ProviderEntry, fallbacks []ProviderEntry, cache CacheStore, breakerCfg BreakerConfig, opts ...Option) *MarketDataService {
	s := &MarketDataService{
		primary:     primary,
		fallbacks:   fallbacks,
		stats:       newStatsRegistry(),
		cache:       cache,
		fallbackTTL: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.breakers = NewBreakerRegistry(breakerCfg, s.clock, s.log)
	return s
}

// chain builds the provider priority list fresh for each call.
func (s *MarketDataService) chain() []ProviderEntry {
	out := make([]ProviderEntry, 0, len(s.fallbacks)+1)
	if s.primary != nil {
		out = append(out, *s.primary)
	}
	return append(out, s.fallbacks...)
}

// GetQuote walks the provider chain and returns the first usable
// snapshot together with the provider that served it. A (nil, "")
// return is not an error; it means no data is currently obtainable.
func (s *MarketDataService) GetQuote(ctx context.Context, symbol string) (*domain.PriceSnapshot, domain.ProviderID) {
	for _, p := range s.chain() {
		if s.breakers.IsOpen(p.ID) {
			s.log.Debug("provider_skipped_open",
				zap.String("provider", string(p.ID)),
				zap.String("symbol", symbol),
			)
			continue
		}
		snap, err := p.Client.GetQuote(ctx, symbol)
		if err != nil {
			s.breakers.RecordFailure(p.ID)
			s.stats.RecordFailure(p.ID)
			s.log.Warn("provider_quote_failed",
				zap.String("provider", string(p.ID)),
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}
		s.breakers.RecordSuccess(p.ID)
		s.stats.RecordSuccess(p.ID)
		s.writeFallback(ctx, fmt.Sprintf(quoteFallbackKeyFmt, symbol), snap)
		return &snap, p.ID
	}

	var snap domain.PriceSnapshot
	if s.readFallback(ctx, fmt.Sprintf(quoteFallbackKeyFmt, symbol), &snap) {
		s.stats.RecordSuccess(domain.ProviderCache)
		s.log.Info("quote_served_from_cache", zap.String("symbol", symbol))
		return &snap, domain.ProviderCache
	}
	s.log.Warn("quote_unavailable", zap.String("symbol", symbol))
	return nil, ""
}

// GetHistoricalPrices follows the same algorithm as GetQuote with the
// historical fetch substituted.
func (s *MarketDataService) GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) (domain.HistoricalSeries, domain.ProviderID) {
	key := fmt.Sprintf(historyFallbackKeyFmt, symbol, start.Format(fallbackDateFmt), end.Format(fallbackDateFmt))

	for _, p := range s.chain() {
		if s.breakers.IsOpen(p.ID) {
			s.log.Debug("provider_skipped_open",
				zap.String("provider", string(p.ID)),
				zap.String("symbol", symbol),
			)
			continue
		}
		series, err := p.Client.GetHistoricalDaily(ctx, symbol, start, end)
		if err != nil {
			s.breakers.RecordFailure(p.ID)
			s.stats.RecordFailure(p.ID)
			s.log.Warn("provider_history_failed",
				zap.String("provider", string(p.ID)),
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			continue
		}
		s.breakers.RecordSuccess(p.ID)
		s.stats.RecordSuccess(p.ID)
		s.writeFallback(ctx, key, series)
		return series, p.ID
	}

	var series domain.HistoricalSeries
	if s.readFallback(ctx, key, &series) {
		s.stats.RecordSuccess(domain.ProviderCache)
		s.log.Info("history_served_from_cache", zap.String("symbol", symbol))
		return series, domain.ProviderCache
	}
	s.log.Warn("history_unavailable", zap.String("symbol", symbol))
	return nil, ""
}

// StatsReport is the shape returned by ProviderStats.
type StatsReport struct {
	Providers       map[domain.ProviderID]ProviderStats   `json:"providers"`
	CircuitBreakers map[domain.ProviderID]BreakerSnapshot `json:"circuit_breakers"`
}

func (s *MarketDataService) ProviderStats() StatsReport {
	return StatsReport{
		Providers:       s.stats.Snapshot(),
		CircuitBreakers: s.breakers.Snapshot(),
	}
}

// writeFallback keeps the last-resort cache warm after a live fetch.
// Cache errors are logged and swallowed; they never fail the request.
func (s *MarketDataService) writeFallback(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("fallback_cache_marshal_failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(b), s.fallbackTTL); err != nil {
		s.log.Warn("fallback_cache_write_failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *MarketDataService) readFallback(ctx context.Context, key string, out any) bool {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("fallback_cache_read_failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.log.Warn("fallback_cache_decode_failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}
