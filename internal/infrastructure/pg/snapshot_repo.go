package pg

import (
	"context"
	"errors"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// querier is satisfied by both the pool and a transaction, so repo
// methods transparently join a unit of work when one is on the context.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type SnapshotRepo struct{ db *DB }

var _ application.SnapshotRepo = (*SnapshotRepo)(nil)

func NewSnapshotRepo(db *DB) *SnapshotRepo { return &SnapshotRepo{db: db} }

func (r *SnapshotRepo) q(ctx context.Context) querier {
	if tx := txFromCtx(ctx); tx != nil {
		return tx
	}
	return r.db.Pool
}

func (r *SnapshotRepo) GetLatest(ctx context.Context, symbol string) (domain.PriceSnapshot, domain.ProviderID, error) {
	const q = `
        SELECT symbol, price::text, previous_close::text, change::text, change_percent::text,
               volume, currency, COALESCE(display_name, ''), source, as_of
        FROM snapshots WHERE symbol=$1`
	var (
		out                      domain.PriceSnapshot
		price, prev, chg, chgPct string
		source                   string
	)
	err := r.q(ctx).QueryRow(ctx, q, symbol).Scan(
		&out.Symbol, &price, &prev, &chg, &chgPct,
		&out.Volume, &out.Currency, &out.DisplayName, &source, &out.AsOf,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PriceSnapshot{}, "", application.ErrNotFound
	}
	if err != nil {
		return domain.PriceSnapshot{}, "", err
	}
	if out.CurrentPrice, err = decimal.NewFromString(price); err != nil {
		return domain.PriceSnapshot{}, "", err
	}
	if out.PreviousClose, err = decimal.NewFromString(prev); err != nil {
		return domain.PriceSnapshot{}, "", err
	}
	if out.Change, err = decimal.NewFromString(chg); err != nil {
		return domain.PriceSnapshot{}, "", err
	}
	if out.ChangePercent, err = decimal.NewFromString(chgPct); err != nil {
		return domain.PriceSnapshot{}, "", err
	}
	return out, domain.ProviderID(source), nil
}

func (r *SnapshotRepo) Upsert(ctx context.Context, s domain.PriceSnapshot, source domain.ProviderID) error {
	const up = `
        INSERT INTO snapshots(symbol, price, previous_close, change, change_percent,
                              volume, currency, display_name, source, as_of, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, NOW())
        ON CONFLICT (symbol) DO UPDATE
          SET price=EXCLUDED.price,
              previous_close=EXCLUDED.previous_close,
              change=EXCLUDED.change,
              change_percent=EXCLUDED.change_percent,
              volume=EXCLUDED.volume,
              currency=EXCLUDED.currency,
              display_name=COALESCE(EXCLUDED.display_name, snapshots.display_name),
              source=EXCLUDED.source,
              as_of=EXCLUDED.as_of,
              updated_at=NOW()`
	_, err := r.q(ctx).Exec(ctx, up,
		s.Symbol, s.CurrentPrice.String(), s.PreviousClose.String(), s.Change.String(), s.ChangePercent.String(),
		s.Volume, s.Currency, s.DisplayName, string(source), s.AsOf,
	)
	return err
}

func (r *SnapshotRepo) AppendHistory(ctx context.Context, s domain.PriceSnapshot, source domain.ProviderID) error {
	const ins = `
        INSERT INTO snapshot_history(symbol, price, source, as_of)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (symbol, as_of, source) DO NOTHING`
	_, err := r.q(ctx).Exec(ctx, ins, s.Symbol, s.CurrentPrice.String(), string(source), s.AsOf)
	return err
}
