package worker

import (
	"context"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"

	"go.uber.org/zap"
)

var _ application.Worker = (*Refresher)(nil)

// MarketData is the slice of the aggregator the refresher needs.
type MarketData interface {
	GetQuote(ctx context.Context, symbol string) (*domain.PriceSnapshot, domain.ProviderID)
}

// Refresher periodically pulls fresh quotes for the watchlist and
// persists them through the snapshot repository.
type Refresher struct {
	Market    MarketData
	Snapshots application.SnapshotRepo
	UoW       application.UnitOfWork

	Symbols   []string
	PollEvery time.Duration
	Log       *zap.Logger
}

func (r *Refresher) Start(ctx context.Context) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	if r.PollEvery <= 0 {
		r.PollEvery = time.Minute
	}
	uow := r.UoW
	if uow == nil {
		uow = application.NoopUoW{}
	}

	t := time.NewTicker(r.PollEvery)
	defer t.Stop()

	log.Info("refresher_started",
		zap.Duration("poll_every", r.PollEvery),
		zap.Int("symbols", len(r.Symbols)))
	for {
		select {
		case <-ctx.Done():
			log.Info("refresher_stopped")
			return
		case <-t.C:
			r.tick(ctx, log, uow)
		}
	}
}

func (r *Refresher) tick(ctx context.Context, log *zap.Logger, uow application.UnitOfWork) {
	for _, symbol := range r.Symbols {
		if ctx.Err() != nil {
			return
		}
		r.refreshOne(ctx, log, uow, symbol)
	}
}

func (r *Refresher) refreshOne(ctx context.Context, log *zap.Logger, uow application.UnitOfWork, symbol string) {
	snap, source := r.Market.GetQuote(ctx, symbol)
	if snap == nil {
		log.Warn("refresh_exhausted", zap.String("symbol", symbol))
		return
	}
	if source == domain.ProviderCache {
		// stale data already persisted once; nothing new to store
		return
	}

	err := uow.Do(ctx, func(ctx context.Context) error {
		if err := r.Snapshots.Upsert(ctx, *snap, source); err != nil {
			return err
		}
		return r.Snapshots.AppendHistory(ctx, *snap, source)
	})
	if err != nil {
		log.Warn("refresh_persist_failed", zap.String("symbol", symbol), zap.Error(err))
		return
	}
	log.Info("refresh_done", zap.String("symbol", symbol), zap.String("source", string(source)))
}
