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

type marketContextRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewMarketContextRepo builds a Postgres-backed MarketContextRepo.
func NewMarketContextRepo(db *sqlx.DB, timeout time.Duration) persistence.MarketContextRepo {
	return &marketContextRepo{db: db, timeout: timeout}
}

func (r *marketContextRepo) Upsert(ctx context.Context, c domain.MarketContext) (domain.MarketContext, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	const q = `
		INSERT INTO market_context (
			id, date, volatility_regime, curve_regime, credit_regime, dollar_regime,
			position_multiplier, vix_level, us10y_level, us2y_level, hy_oas_level,
			dxy_level, gold_level, btc_level, spy_rsp_ratio, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15, now())
		ON CONFLICT (date) DO UPDATE SET
			volatility_regime = EXCLUDED.volatility_regime,
			curve_regime = EXCLUDED.curve_regime,
			credit_regime = EXCLUDED.credit_regime,
			dollar_regime = EXCLUDED.dollar_regime,
			position_multiplier = EXCLUDED.position_multiplier,
			vix_level = EXCLUDED.vix_level,
			us10y_level = EXCLUDED.us10y_level,
			us2y_level = EXCLUDED.us2y_level,
			hy_oas_level = EXCLUDED.hy_oas_level,
			dxy_level = EXCLUDED.dxy_level,
			gold_level = EXCLUDED.gold_level,
			btc_level = EXCLUDED.btc_level,
			spy_rsp_ratio = EXCLUDED.spy_rsp_ratio
		RETURNING id, created_at`

	row := r.db.QueryRowxContext(qctx, q, c.ID, c.Date, c.VolatilityRegime, c.CurveRegime, c.CreditRegime, c.DollarRegime,
		c.PositionMultiplier, c.VIXLevel, c.US10YLevel, c.US2YLevel, c.HYOASLevel, c.DXYLevel, c.GoldLevel, c.BTCLevel, c.SPYRSPRatio)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return domain.MarketContext{}, fmt.Errorf("postgres: upsert market_context: %w", err)
	}
	return c, nil
}

func (r *marketContextRepo) GetByDate(ctx context.Context, date time.Time) (*domain.MarketContext, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var c domain.MarketContext
	err := r.db.GetContext(qctx, &c, `SELECT * FROM market_context WHERE date = $1::date`, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get market_context: %w", err)
	}
	return &c, nil
}

func (r *marketContextRepo) Latest(ctx context.Context) (*domain.MarketContext, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var c domain.MarketContext
	err := r.db.GetContext(qctx, &c, `SELECT * FROM market_context ORDER BY date DESC LIMIT 1`)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: latest market_context: %w", err)
	}
	return &c, nil
}
