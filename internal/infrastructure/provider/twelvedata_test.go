package provider_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"marketdata-service/internal/domain"
	"marketdata-service/internal/infrastructure/cache"
	"marketdata-service/internal/infrastructure/provider"
	"marketdata-service/internal/infrastructure/ratelimit"

	"github.com/stretchr/testify/require"
)

const tdQuoteOK = `{
  "symbol": "AAPL",
  "name": "Apple Inc",
  "currency": "USD",
  "close": "178.85",
  "previous_close": "175.49",
  "change": "3.36",
  "percent_change": "1.92",
  "volume": "64869200",
  "timestamp": 1735851600
}`

const tdSeriesOK = `{
  "values": [
    {"datetime": "2025-01-03", "close": "178.85"},
    {"datetime": "2025-01-02", "close": "175.49"}
  ],
  "status": "ok"
}`

func tdConfig(body string, code int) provider.Config {
	return provider.Config{
		APIKey:    "test",
		Client:    httpClient(body, code),
		Cache:     cache.NewMemory(),
		RateLimit: ratelimit.Config{PerMinute: 100, PerDay: 1000},
	}
}

func TestTwelveData_GetQuote(t *testing.T) {
	t.Parallel()
	p := provider.NewTwelveData(tdConfig(tdQuoteOK, 200))

	q, err := p.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "AAPL", q.Symbol)
	require.Equal(t, "178.85", q.CurrentPrice.String())
	require.Equal(t, "175.49", q.PreviousClose.String())
	require.Equal(t, "1.92", q.ChangePercent.String())
	require.Equal(t, int64(64869200), q.Volume)
	require.Equal(t, "Apple Inc", q.DisplayName)
	require.Equal(t, "USD", q.Currency)
	require.Equal(t, time.Unix(1735851600, 0).UTC(), q.AsOf)
}

func TestTwelveData_GetQuote_CacheHitSkipsUpstream(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	cfg := tdConfig("", 0)
	cfg.Client = countingClient(tdQuoteOK, 200, &calls)
	p := provider.NewTwelveData(cfg)

	first, err := p.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	second, err := p.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, int64(1), calls.Load())
	require.Equal(t, first.CurrentPrice.String(), second.CurrentPrice.String())
}

func TestTwelveData_GetQuote_APIError(t *testing.T) {
	t.Parallel()
	body := `{"code": 429, "message": "You have run out of API credits", "status": "error"}`
	p := provider.NewTwelveData(tdConfig(body, 200))

	_, err := p.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestTwelveData_GetQuote_EmptyPayload(t *testing.T) {
	t.Parallel()
	p := provider.NewTwelveData(tdConfig(`{}`, 200))

	_, err := p.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
}

func TestTwelveData_GetQuote_MissingKey(t *testing.T) {
	t.Parallel()
	cfg := tdConfig(tdQuoteOK, 200)
	cfg.APIKey = ""
	p := provider.NewTwelveData(cfg)

	_, err := p.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing configuration")
}

func TestTwelveData_GetQuote_DailyQuota(t *testing.T) {
	t.Parallel()
	cfg := tdConfig(tdQuoteOK, 200)
	cfg.RateLimit = ratelimit.Config{PerMinute: 10, PerDay: 1}
	p := provider.NewTwelveData(cfg)

	_, err := p.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	// different symbol so the provider cache cannot serve it
	_, err = p.GetQuote(context.Background(), "MSFT")
	require.ErrorIs(t, err, ratelimit.ErrDailyQuotaExceeded)
}

func TestTwelveData_GetHistoricalDaily(t *testing.T) {
	t.Parallel()
	p := provider.NewTwelveData(tdConfig(tdSeriesOK, 200))

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	s, err := p.GetHistoricalDaily(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	require.Len(t, s, 2)
	// ascending regardless of upstream ordering
	require.True(t, s[0].Date.Before(s[1].Date))
	require.Equal(t, "175.49", s[0].Close.String())
}

func TestTwelveData_GetHistoricalDaily_ClipsRange(t *testing.T) {
	t.Parallel()
	p := provider.NewTwelveData(tdConfig(tdSeriesOK, 200))

	start := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	s, err := p.GetHistoricalDaily(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	require.Len(t, s, 1)
	require.Equal(t, "178.85", s[0].Close.String())
}

func TestTwelveData_GetHistoricalDaily_AllValuesOutsideRange(t *testing.T) {
	t.Parallel()
	p := provider.NewTwelveData(tdConfig(tdSeriesOK, 200))

	// fixture holds Jan 2-3 closes only
	s, err := p.GetHistoricalDaily(context.Background(), "AAPL",
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, domain.ErrNoData)
	require.Nil(t, s)
}

func TestTwelveData_GetHistoricalDaily_NoValues(t *testing.T) {
	t.Parallel()
	p := provider.NewTwelveData(tdConfig(`{"values": [], "status": "ok"}`, 200))

	_, err := p.GetHistoricalDaily(context.Background(), "ZZZZ",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
}

func TestTwelveData_GetQuote_HTTPError(t *testing.T) {
	t.Parallel()
	p := provider.NewTwelveData(tdConfig("oops", 500))

	_, err := p.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 500")
}
