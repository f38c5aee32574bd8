package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"marketdata-service/internal/domain"
)

var errUpstream = errors.New("upstream error")

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

// mutableClock lets a test advance "now" mid-scenario.
type mutableClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *mutableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *mutableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeProviderClient struct {
	snap   domain.PriceSnapshot
	series domain.HistoricalSeries
	err    error

	quoteCalls   int
	historyCalls int
}

func (f *fakeProviderClient) GetQuote(_ context.Context, symbol string) (domain.PriceSnapshot, error) {
	f.quoteCalls++
	if f.err != nil {
		return domain.PriceSnapshot{}, f.err
	}
	s := f.snap
	s.Symbol = symbol
	return s, nil
}

func (f *fakeProviderClient) GetHistoricalDaily(_ context.Context, _ string, _, _ time.Time) (domain.HistoricalSeries, error) {
	f.historyCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

type fakeCache struct {
	m      map[string]string
	getErr error
	setErr error
	sets   int
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.m[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func (f *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	if f.m == nil {
		f.m = map[string]string{}
	}
	f.m[key] = value
	return nil
}
