package provider

import (
	"context"
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

const yahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo adapts the keyless Yahoo Finance chart API. Both quote and
// history come from the same /v8/finance/chart endpoint; the quote is
// read off the chart meta block.
type Yahoo struct {
	cfg     Config
	limiter *ratelimit.Limiter
}

var _ application.ProviderClient = (*Yahoo)(nil)

func NewYahoo(cfg Config) *Yahoo {
	cfg.withDefaults(yahooBaseURL)
	return &Yahoo{cfg: cfg, limiter: ratelimit.New(cfg.RateLimit)}
}

type yhChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol              string  `json:"symbol"`
				Currency            string  `json:"currency"`
				ShortName           string  `json:"shortName"`
				RegularMarketPrice  float64 `json:"regularMarketPrice"`
				ChartPreviousClose  float64 `json:"chartPreviousClose"`
				RegularMarketVolume int64   `json:"regularMarketVolume"`
				RegularMarketTime   int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (p *Yahoo) chart(ctx context.Context, symbol string, params url.Values) (yhChartResp, error) {
	var body yhChartResp
	u, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		return body, fmt.Errorf("yahoo: invalid base url: %w", err)
	}
	u.Path = "/v8/finance/chart/" + symbol
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return body, fmt.Errorf("yahoo: create request: %w", err)
	}
	// the chart endpoint rejects requests without a browser-ish agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; marketdata-service)")
	resp, err := p.cfg.Client.Do(req)
	if err != nil {
		return body, fmt.Errorf("yahoo: do request: %w", err)
	}
	if err := decodeJSON(resp, "yahoo", &body); err != nil {
		return body, err
	}
	if body.Chart.Error != nil {
		return body, fmt.Errorf("yahoo: %s %s", body.Chart.Error.Code, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 {
		return body, fmt.Errorf("yahoo: empty chart for %s: %w", symbol, domain.ErrNoData)
	}
	return body, nil
}

func (p *Yahoo) GetQuote(ctx context.Context, symbol string) (domain.PriceSnapshot, error) {
	key := quoteKey(string(domain.ProviderYahoo), symbol)
	var snap domain.PriceSnapshot
	if cacheLookup(ctx, p.cfg.Cache, p.cfg.Log, key, &snap) {
		return snap, nil
	}

	if err := p.limiter.Acquire(ctx); err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("yahoo: %w", err)
	}

	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "1d")
	body, err := p.chart(ctx, symbol, params)
	if err != nil {
		return domain.PriceSnapshot{}, err
	}
	meta := body.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return domain.PriceSnapshot{}, fmt.Errorf("yahoo: no usable price for %s: %w", symbol, domain.ErrNoData)
	}

	snap = domain.PriceSnapshot{
		Symbol:        symbol,
		CurrentPrice:  decimal.NewFromFloat(meta.RegularMarketPrice),
		PreviousClose: decimal.NewFromFloat(meta.ChartPreviousClose),
		Volume:        meta.RegularMarketVolume,
		DisplayName:   meta.ShortName,
		Currency:      meta.Currency,
		AsOf:          time.Now().UTC(),
	}
	if snap.Currency == "" {
		snap.Currency = domain.DefaultCurrency
	}
	if meta.RegularMarketTime > 0 {
		snap.AsOf = time.Unix(meta.RegularMarketTime, 0).UTC()
	}
	snap.ChangeFrom()

	cacheStore(ctx, p.cfg.Cache, p.cfg.Log, key, snap, p.cfg.QuoteTTL)
	return snap, nil
}

func (p *Yahoo) GetHistoricalDaily(ctx context.Context, symbol string, start, end time.Time) (domain.HistoricalSeries, error) {
	key := historyKey(string(domain.ProviderYahoo), symbol, start, end)
	var series domain.HistoricalSeries
	if cacheLookup(ctx, p.cfg.Cache, p.cfg.Log, key, &series) {
		return series, nil
	}

	if err := p.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("yahoo: %w", err)
	}

	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	// period2 is exclusive upstream; push it past end of day to keep
	// the requested range inclusive
	params.Set("period2", strconv.FormatInt(end.Add(24*time.Hour).Unix(), 10))
	body, err := p.chart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	result := body.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no history for %s: %w", symbol, domain.ErrNoData)
	}
	closes := result.Indicators.Quote[0].Close

	series = make(domain.HistoricalSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		series = append(series, domain.PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: decimal.NewFromFloat(*closes[i]),
		})
	}
	series.Sort()
	series = series.Clip(start, end)
	if len(series) == 0 {
		return nil, fmt.Errorf("yahoo: no history for %s: %w", symbol, domain.ErrNoData)
	}

	cacheStore(ctx, p.cfg.Cache, p.cfg.Log, key, series, p.cfg.HistoryTTL)
	return series, nil
}
