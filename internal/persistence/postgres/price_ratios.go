package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/persistence"
)

type priceRatiosRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPriceRatiosRepo builds a Postgres-backed PriceRatiosRepo.
func NewPriceRatiosRepo(db *sqlx.DB, timeout time.Duration) persistence.PriceRatiosRepo {
	return &priceRatiosRepo{db: db, timeout: timeout}
}

func (r *priceRatiosRepo) UpsertBatch(ctx context.Context, ratios []domain.PriceRatio) (int, error) {
	if len(ratios) == 0 {
		return 0, nil
	}
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(qctx, nil)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin price ratio batch: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO price_ratios (id, numerator, denominator, date, ratio, created_at)
		VALUES ($1,$2,$3,$4,$5, now())
		ON CONFLICT (numerator, denominator, date) DO UPDATE SET ratio = EXCLUDED.ratio`

	for _, pr := range ratios {
		id := pr.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := tx.ExecContext(qctx, q, id, pr.Numerator, pr.Denominator, pr.Date, pr.Ratio); err != nil {
			return 0, fmt.Errorf("postgres: upsert price ratio %s/%s: %w", pr.Numerator, pr.Denominator, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("postgres: commit price ratio batch: %w", err)
	}
	return len(ratios), nil
}

func (r *priceRatiosRepo) Latest(ctx context.Context, numerator, denominator string) (*domain.PriceRatio, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row struct {
		domain.PriceRatio
	}
	err := r.db.GetContext(qctx, &row, `
		SELECT id, numerator, denominator, date, ratio, created_at
		FROM price_ratios WHERE numerator = $1 AND denominator = $2
		ORDER BY date DESC LIMIT 1`, numerator, denominator)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: latest price ratio: %w", err)
	}
	return &row.PriceRatio, nil
}
