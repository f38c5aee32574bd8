package httpserver

import (
	"context"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"
	"marketdata-service/internal/infrastructure/cache"

	"github.com/shopspring/decimal"
)

var _ application.ProviderClient = (*fakeProviderClient)(nil)

type fakeProviderClient struct {
	snap   domain.PriceSnapshot
	series domain.HistoricalSeries
	err    error
}

func (f *fakeProviderClient) GetQuote(_ context.Context, _ string) (domain.PriceSnapshot, error) {
	if f.err != nil {
		return domain.PriceSnapshot{}, f.err
	}
	return f.snap, nil
}

func (f *fakeProviderClient) GetHistoricalDaily(_ context.Context, _ string, _, _ time.Time) (domain.HistoricalSeries, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

func sampleSnapshot(symbol string) domain.PriceSnapshot {
	s := domain.PriceSnapshot{
		Symbol:        symbol,
		CurrentPrice:  decimal.RequireFromString("178.85"),
		PreviousClose: decimal.RequireFromString("175.49"),
		Volume:        64869200,
		Currency:      domain.DefaultCurrency,
		AsOf:          time.Date(2025, 1, 2, 21, 0, 0, 0, time.UTC),
	}
	s.ChangeFrom()
	return s
}

func sampleSeries() domain.HistoricalSeries {
	return domain.HistoricalSeries{
		{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString("175.49")},
		{Date: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString("178.85")},
	}
}

// NewInMemoryMarket wires the real aggregator onto fake provider
// clients and an in-process cache, for tests and local experiments.
func NewInMemoryMarket(primary, secondary *fakeProviderClient) *application.MarketDataService {
	var p *application.ProviderEntry
	if primary != nil {
		p = &application.ProviderEntry{ID: domain.ProviderTwelveData, Client: primary}
	}
	fallbacks := []application.ProviderEntry{
		{ID: domain.ProviderFinnhub, Client: secondary},
	}
	return application.NewMarketDataService(p, fallbacks, cache.NewMemory(), application.DefaultBreakerConfig())
}
