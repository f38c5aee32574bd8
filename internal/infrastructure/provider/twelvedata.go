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

const twelveDataBaseURL = "https://api.twelvedata.com"

// TwelveData adapts the Twelve Data REST API. Quote and time-series
// payloads carry numbers as strings, which map directly onto decimals.
type TwelveData struct {
	cfg     Config
	limiter *ratelimit.Limiter
}

var _ application.ProviderClient = (*TwelveData)(nil)

func NewTwelveData(cfg Config) *TwelveData {
	cfg.withDefaults(twelveDataBaseURL)
	return &TwelveData{cfg: cfg, limiter: ratelimit.New(cfg.RateLimit)}
}

type tdQuoteResp struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	Close         string `json:"close"`
	PreviousClose string `json:"previous_close"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`
	Volume        string `json:"volume"`
	Timestamp     int64  `json:"timestamp"`

	// error envelope
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type tdSeriesResp struct {
	Values []struct {
		Datetime string `json:"datetime"`
		Close    string `json:"close"`
	} `json:"values"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (p *TwelveData) get(ctx context.Context, path string, params url.Values, out any) error {
	if p.cfg.APIKey == "" {
		return errors.New("twelvedata: missing configuration")
	}
	u, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("twelvedata: invalid base url: %w", err)
	}
	u.Path = path
	params.Set("apikey", p.cfg.APIKey)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("twelvedata: create request: %w", err)
	}
	resp, err := p.cfg.Client.Do(req)
	if err != nil {
		return fmt.Errorf("twelvedata: do request: %w", err)
	}
	return decodeJSON(resp, "twelvedata", out)
}

func (p *TwelveData) GetQuote(ctx context.Context, symbol string) (domain.PriceSnapshot, error) {
	key := quoteKey(string(domain.ProviderTwelveData), symbol)
	var snap domain.PriceSnapshot
	if cacheLookup(ctx, p.cfg.Cache, p.cfg.Log, key, &snap) {
		return snap, nil
	}

	if err := p.limiter.Acquire(ctx); err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("twelvedata: %w", err)
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	var body tdQuoteResp
	if err := p.get(ctx, "/quote", params, &body); err != nil {
		return domain.PriceSnapshot{}, err
	}
	if body.Status == "error" {
		return domain.PriceSnapshot{}, fmt.Errorf("twelvedata: %d %s", body.Code, body.Message)
	}
	if body.Close == "" {
		return domain.PriceSnapshot{}, fmt.Errorf("twelvedata: no usable price for %s: %w", symbol, domain.ErrNoData)
	}

	snap, err := tdSnapshot(symbol, body)
	if err != nil {
		return domain.PriceSnapshot{}, err
	}
	cacheStore(ctx, p.cfg.Cache, p.cfg.Log, key, snap, p.cfg.QuoteTTL)
	return snap, nil
}

func tdSnapshot(symbol string, body tdQuoteResp) (domain.PriceSnapshot, error) {
	cur, err := decimal.NewFromString(body.Close)
	if err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("twelvedata: parse close %q: %w", body.Close, err)
	}
	snap := domain.PriceSnapshot{
		Symbol:       symbol,
		CurrentPrice: cur,
		DisplayName:  body.Name,
		Currency:     body.Currency,
		AsOf:         time.Now().UTC(),
	}
	if snap.Currency == "" {
		snap.Currency = domain.DefaultCurrency
	}
	if body.Timestamp > 0 {
		snap.AsOf = time.Unix(body.Timestamp, 0).UTC()
	}
	if body.PreviousClose != "" {
		if snap.PreviousClose, err = decimal.NewFromString(body.PreviousClose); err != nil {
			return domain.PriceSnapshot{}, fmt.Errorf("twelvedata: parse previous_close %q: %w", body.PreviousClose, err)
		}
	}
	if body.Change != "" && body.PercentChange != "" {
		if snap.Change, err = decimal.NewFromString(body.Change); err != nil {
			return domain.PriceSnapshot{}, fmt.Errorf("twelvedata: parse change %q: %w", body.Change, err)
		}
		if snap.ChangePercent, err = decimal.NewFromString(body.PercentChange); err != nil {
			return domain.PriceSnapshot{}, fmt.Errorf("twelvedata: parse percent_change %q: %w", body.PercentChange, err)
		}
	} else {
		snap.ChangeFrom()
	}
	if body.Volume != "" {
		if v, err := strconv.ParseInt(body.Volume, 10, 64); err == nil {
			snap.Volume = v
		}
	}
	return snap, nil
}

func (p *TwelveData) GetHistoricalDaily(ctx context.Context, symbol string, start, end time.Time) (domain.HistoricalSeries, error) {
	key := historyKey(string(domain.ProviderTwelveData), symbol, start, end)
	var series domain.HistoricalSeries
	if cacheLookup(ctx, p.cfg.Cache, p.cfg.Log, key, &series) {
		return series, nil
	}

	if err := p.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("twelvedata: %w", err)
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", "1day")
	params.Set("start_date", start.Format(dateFmt))
	params.Set("end_date", end.Format(dateFmt))
	var body tdSeriesResp
	if err := p.get(ctx, "/time_series", params, &body); err != nil {
		return nil, err
	}
	if body.Status == "error" {
		return nil, fmt.Errorf("twelvedata: %d %s", body.Code, body.Message)
	}
	if len(body.Values) == 0 {
		return nil, fmt.Errorf("twelvedata: no history for %s: %w", symbol, domain.ErrNoData)
	}

	series = make(domain.HistoricalSeries, 0, len(body.Values))
	for _, v := range body.Values {
		d, err := time.Parse(dateFmt, v.Datetime)
		if err != nil {
			return nil, fmt.Errorf("twelvedata: parse datetime %q: %w", v.Datetime, err)
		}
		c, err := decimal.NewFromString(v.Close)
		if err != nil {
			return nil, fmt.Errorf("twelvedata: parse close %q: %w", v.Close, err)
		}
		series = append(series, domain.PricePoint{Date: d, Close: c})
	}
	series.Sort()
	series = series.Clip(start, end)
	if len(series) == 0 {
		return nil, fmt.Errorf("twelvedata: no history for %s: %w", symbol, domain.ErrNoData)
	}

	cacheStore(ctx, p.cfg.Cache, p.cfg.Log, key, series, p.cfg.HistoryTTL)
	return series, nil
}
