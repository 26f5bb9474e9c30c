package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/persistence"
)

type pricesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPricesRepo builds a Postgres-backed PricesRepo.
func NewPricesRepo(db *sqlx.DB, timeout time.Duration) persistence.PricesRepo {
	return &pricesRepo{db: db, timeout: timeout}
}

func (r *pricesRepo) UpsertBatch(ctx context.Context, bars []domain.PriceBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(qctx, nil)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin price bar batch: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO daily_prices (id, symbol, date, open, high, low, close, volume, source, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
			close = EXCLUDED.close, volume = EXCLUDED.volume, source = EXCLUDED.source`

	for _, bar := range bars {
		id := bar.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := tx.ExecContext(qctx, q, id, bar.Symbol, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume, bar.Source); err != nil {
			return 0, fmt.Errorf("postgres: upsert price bar %s/%s: %w", bar.Symbol, bar.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("postgres: commit price bar batch: %w", err)
	}
	return len(bars), nil
}

func (r *pricesRepo) ListBySymbol(ctx context.Context, symbol string, tr persistence.TimeRange) ([]domain.PriceBar, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryxContext(qctx, `
		SELECT id, symbol, date, open, high, low, close, volume, source, created_at
		FROM daily_prices WHERE symbol = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC`, symbol, tr.From, tr.To)
	if err != nil {
		return nil, fmt.Errorf("postgres: list price bars: %w", err)
	}
	defer rows.Close()

	var out []domain.PriceBar
	for rows.Next() {
		var bar priceBarRow
		if err := rows.StructScan(&bar); err != nil {
			return nil, fmt.Errorf("postgres: scan price bar: %w", err)
		}
		out = append(out, bar.toDomain())
	}
	return out, rows.Err()
}

func (r *pricesRepo) LatestBySymbol(ctx context.Context, symbol string) (*domain.PriceBar, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var bar priceBarRow
	err := r.db.GetContext(qctx, &bar, `
		SELECT id, symbol, date, open, high, low, close, volume, source, created_at
		FROM daily_prices WHERE symbol = $1 ORDER BY date DESC LIMIT 1`, symbol)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: latest price bar: %w", err)
	}
	d := bar.toDomain()
	return &d, nil
}

type priceBarRow struct {
	ID        uuid.UUID       `db:"id"`
	Symbol    string          `db:"symbol"`
	Date      time.Time       `db:"date"`
	Open      decimal.Decimal `db:"open"`
	High      decimal.Decimal `db:"high"`
	Low       decimal.Decimal `db:"low"`
	Close     decimal.Decimal `db:"close"`
	Volume    int64           `db:"volume"`
	Source    string          `db:"source"`
	CreatedAt time.Time       `db:"created_at"`
}

func (row priceBarRow) toDomain() domain.PriceBar {
	return domain.PriceBar{
		ID: row.ID, Symbol: row.Symbol, Date: row.Date,
		Open: row.Open, High: row.High, Low: row.Low, Close: row.Close,
		Volume: row.Volume, Source: row.Source, CreatedAt: row.CreatedAt,
	}
}
