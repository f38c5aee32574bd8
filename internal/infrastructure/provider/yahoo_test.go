package provider_test

import (
	"context"
	"testing"
	"time"

	"marketdata-service/internal/domain"
	"marketdata-service/internal/infrastructure/cache"
	"marketdata-service/internal/infrastructure/provider"
	"marketdata-service/internal/infrastructure/ratelimit"

	"github.com/stretchr/testify/require"
)

const yhQuoteOK = `{
  "chart": {
    "result": [{
      "meta": {
        "symbol": "AAPL",
        "currency": "USD",
        "shortName": "Apple Inc.",
        "regularMarketPrice": 255.59,
        "chartPreviousClose": 250.78,
        "regularMarketVolume": 48291200,
        "regularMarketTime": 1735851600
      },
      "timestamp": [1735851600],
      "indicators": {"quote": [{"close": [255.59]}]}
    }],
    "error": null
  }
}`

const yhHistoryOK = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "currency": "USD", "regularMarketPrice": 255.59, "chartPreviousClose": 250.78},
      "timestamp": [1735794000, 1735880400, 1735966800],
      "indicators": {"quote": [{"close": [250.78, null, 255.59]}]}
    }],
    "error": null
  }
}`

func yhConfig(body string, code int) provider.Config {
	return provider.Config{
		Client:    httpClient(body, code),
		Cache:     cache.NewMemory(),
		RateLimit: ratelimit.Config{PerMinute: 100, PerDay: 1000},
	}
}

func TestYahoo_GetQuote(t *testing.T) {
	t.Parallel()
	p := provider.NewYahoo(yhConfig(yhQuoteOK, 200))

	q, err := p.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "255.59", q.CurrentPrice.String())
	require.Equal(t, "250.78", q.PreviousClose.String())
	require.Equal(t, "4.81", q.Change.String())
	require.Equal(t, int64(48291200), q.Volume)
	require.Equal(t, "Apple Inc.", q.DisplayName)
	// derived percentage value, not a fraction
	require.True(t, q.ChangePercent.InexactFloat64() > 1.0)
	require.True(t, q.ChangePercent.InexactFloat64() < 2.0)
}

func TestYahoo_GetQuote_ChartError(t *testing.T) {
	t.Parallel()
	body := `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`
	p := provider.NewYahoo(yhConfig(body, 200))

	_, err := p.GetQuote(context.Background(), "ZZZZ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Not Found")
}

func TestYahoo_GetHistoricalDaily_SkipsNullCloses(t *testing.T) {
	t.Parallel()
	p := provider.NewYahoo(yhConfig(yhHistoryOK, 200))

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	s, err := p.GetHistoricalDaily(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	require.Len(t, s, 2, "null closes are dropped")
	require.Equal(t, "250.78", s[0].Close.String())
	require.Equal(t, "255.59", s[1].Close.String())
}

func TestYahoo_GetHistoricalDaily_AllPointsOutsideRange(t *testing.T) {
	t.Parallel()
	// fixture holds Jan 2-4 closes only
	p := provider.NewYahoo(yhConfig(yhHistoryOK, 200))

	s, err := p.GetHistoricalDaily(context.Background(), "AAPL",
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, domain.ErrNoData)
	require.Nil(t, s)
}

func TestYahoo_GetHistoricalDaily_AllNullCloses(t *testing.T) {
	t.Parallel()
	body := `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL"},
      "timestamp": [1735794000, 1735880400],
      "indicators": {"quote": [{"close": [null, null]}]}
    }],
    "error": null
  }
}`
	p := provider.NewYahoo(yhConfig(body, 200))

	_, err := p.GetHistoricalDaily(context.Background(), "AAPL",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, domain.ErrNoData)
}

func TestYahoo_GetHistoricalDaily_EmptyResult(t *testing.T) {
	t.Parallel()
	body := `{"chart": {"result": [{"meta": {}, "timestamp": [], "indicators": {"quote": []}}], "error": null}}`
	p := provider.NewYahoo(yhConfig(body, 200))

	_, err := p.GetHistoricalDaily(context.Background(), "ZZZZ",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
}
