package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"
	"marketdata-service/internal/infrastructure/ratelimit"

	"github.com/shopspring/decimal"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// Finnhub adapts the Finnhub REST API. Its quote payload reports no
// volume; candles carry daily closes keyed by unix timestamps.
type Finnhub struct {
	cfg     Config
	limiter *ratelimit.Limiter
}

var _ application.ProviderClient = (*Finnhub)(nil)

func NewFinnhub(cfg Config) *Finnhub {
	cfg.withDefaults(finnhubBaseURL)
	return &Finnhub{cfg: cfg, limiter: ratelimit.New(cfg.RateLimit)}
}

type fhQuoteResp struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

type fhCandleResp struct {
	Status     string    `json:"s"`
	Closes     []float64 `json:"c"`
	Timestamps []int64   `json:"t"`
}

func (p *Finnhub) get(ctx context.Context, path string, params url.Values, out any) error {
	if p.cfg.APIKey == "" {
		return errors.New("finnhub: missing configuration")
	}
	u, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("finnhub: invalid base url: %w", err)
	}
	u.Path += path
	params.Set("token", p.cfg.APIKey)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("finnhub: create request: %w", err)
	}
	resp, err := p.cfg.Client.Do(req)
	if err != nil {
		return fmt.Errorf("finnhub: do request: %w", err)
	}
	return decodeJSON(resp, "finnhub", out)
}

func (p *Finnhub) GetQuote(ctx context.Context, symbol string) (domain.PriceSnapshot, error) {
	key := quoteKey(string(domain.ProviderFinnhub), symbol)
	var snap domain.PriceSnapshot
	if cacheLookup(ctx, p.cfg.Cache, p.cfg.Log, key, &snap) {
		return snap, nil
	}

	if err := p.limiter.Acquire(ctx); err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("finnhub: %w", err)
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	var body fhQuoteResp
	if err := p.get(ctx, "/quote", params, &body); err != nil {
		return domain.PriceSnapshot{}, err
	}
	// finnhub answers unknown symbols with an all-zero payload
	if body.Current == 0 && body.Timestamp == 0 {
		return domain.PriceSnapshot{}, fmt.Errorf("finnhub: no usable price for %s: %w", symbol, domain.ErrNoData)
	}

	snap = domain.PriceSnapshot{
		Symbol:        symbol,
		CurrentPrice:  decimal.NewFromFloat(body.Current),
		PreviousClose: decimal.NewFromFloat(body.PreviousClose),
		Change:        decimal.NewFromFloat(body.Change),
		ChangePercent: decimal.NewFromFloat(body.ChangePercent),
		AsOf:          time.Unix(body.Timestamp, 0).UTC(),
		Currency:      domain.DefaultCurrency,
	}
	cacheStore(ctx, p.cfg.Cache, p.cfg.Log, key, snap, p.cfg.QuoteTTL)
	return snap, nil
}

func (p *Finnhub) GetHistoricalDaily(ctx context.Context, symbol string, start, end time.Time) (domain.HistoricalSeries, error) {
	key := historyKey(string(domain.ProviderFinnhub), symbol, start, end)
	var series domain.HistoricalSeries
	if cacheLookup(ctx, p.cfg.Cache, p.cfg.Log, key, &series) {
		return series, nil
	}

	if err := p.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("finnhub: %w", err)
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("resolution", "D")
	params.Set("from", strconv.FormatInt(start.Unix(), 10))
	params.Set("to", strconv.FormatInt(end.Unix(), 10))
	var body fhCandleResp
	if err := p.get(ctx, "/stock/candle", params, &body); err != nil {
		return nil, err
	}
	if body.Status != "ok" || len(body.Closes) == 0 || len(body.Closes) != len(body.Timestamps) {
		return nil, fmt.Errorf("finnhub: no history for %s: %w", symbol, domain.ErrNoData)
	}

	series = make(domain.HistoricalSeries, 0, len(body.Closes))
	for i, c := range body.Closes {
		series = append(series, domain.PricePoint{
			Date:  time.Unix(body.Timestamps[i], 0).UTC(),
			Close: decimal.NewFromFloat(c),
		})
	}
	series.Sort()
	series = series.Clip(start, end)
	if len(series) == 0 {
		return nil, fmt.Errorf("finnhub: no history for %s: %w", symbol, domain.ErrNoData)
	}

	cacheStore(ctx, p.cfg.Cache, p.cfg.Log, key, series, p.cfg.HistoryTTL)
	return series, nil
}
