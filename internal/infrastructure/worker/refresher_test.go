package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMarket struct {
	snap   *domain.PriceSnapshot
	source domain.ProviderID
	calls  []string
}

func (f *fakeMarket) GetQuote(_ context.Context, symbol string) (*domain.PriceSnapshot, domain.ProviderID) {
	f.calls = append(f.calls, symbol)
	return f.snap, f.source
}

type fakeSnapshotRepo struct {
	upserts  []domain.ProviderID
	appends  []domain.ProviderID
	storeErr error
}

func (f *fakeSnapshotRepo) GetLatest(context.Context, string) (domain.PriceSnapshot, domain.ProviderID, error) {
	return domain.PriceSnapshot{}, "", application.ErrNotFound
}

func (f *fakeSnapshotRepo) Upsert(_ context.Context, _ domain.PriceSnapshot, source domain.ProviderID) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.upserts = append(f.upserts, source)
	return nil
}

func (f *fakeSnapshotRepo) AppendHistory(_ context.Context, _ domain.PriceSnapshot, source domain.ProviderID) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.appends = append(f.appends, source)
	return nil
}

func testSnapshot() *domain.PriceSnapshot {
	return &domain.PriceSnapshot{
		Symbol:       "AAPL",
		CurrentPrice: decimal.RequireFromString("178.85"),
		Currency:     "USD",
		AsOf:         time.Date(2025, 1, 2, 21, 0, 0, 0, time.UTC),
	}
}

func TestRefresher_PersistsFreshQuote(t *testing.T) {
	market := &fakeMarket{snap: testSnapshot(), source: domain.ProviderFinnhub}
	repo := &fakeSnapshotRepo{}
	r := &Refresher{Market: market, Snapshots: repo, Symbols: []string{"AAPL", "MSFT"}}

	r.tick(context.Background(), zap.NewNop(), application.NoopUoW{})

	require.Equal(t, []string{"AAPL", "MSFT"}, market.calls)
	require.Equal(t, []domain.ProviderID{domain.ProviderFinnhub, domain.ProviderFinnhub}, repo.upserts)
	require.Len(t, repo.appends, 2)
}

func TestRefresher_SkipsExhaustedSymbol(t *testing.T) {
	market := &fakeMarket{snap: nil, source: ""}
	repo := &fakeSnapshotRepo{}
	r := &Refresher{Market: market, Snapshots: repo, Symbols: []string{"AAPL"}}

	r.tick(context.Background(), zap.NewNop(), application.NoopUoW{})

	require.Empty(t, repo.upserts)
	require.Empty(t, repo.appends)
}

func TestRefresher_SkipsCacheSourcedQuote(t *testing.T) {
	market := &fakeMarket{snap: testSnapshot(), source: domain.ProviderCache}
	repo := &fakeSnapshotRepo{}
	r := &Refresher{Market: market, Snapshots: repo, Symbols: []string{"AAPL"}}

	r.tick(context.Background(), zap.NewNop(), application.NoopUoW{})

	require.Empty(t, repo.upserts)
}

func TestRefresher_PersistFailureDoesNotAbortTick(t *testing.T) {
	market := &fakeMarket{snap: testSnapshot(), source: domain.ProviderYahoo}
	repo := &fakeSnapshotRepo{storeErr: errors.New("pg down")}
	r := &Refresher{Market: market, Snapshots: repo, Symbols: []string{"AAPL", "MSFT"}}

	r.tick(context.Background(), zap.NewNop(), application.NoopUoW{})

	require.Equal(t, []string{"AAPL", "MSFT"}, market.calls)
	require.Empty(t, repo.upserts)
}

func TestRefresher_StartStopsOnContextCancel(t *testing.T) {
	market := &fakeMarket{snap: testSnapshot(), source: domain.ProviderFinnhub}
	repo := &fakeSnapshotRepo{}
	r := &Refresher{Market: market, Snapshots: repo, Symbols: []string{"AAPL"}, PollEvery: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
	require.NotEmpty(t, market.calls)
}
