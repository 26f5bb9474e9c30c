package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/persistence"
)

type economicEventsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewEconomicEventsRepo builds a Postgres-backed EconomicEventsRepo.
func NewEconomicEventsRepo(db *sqlx.DB, timeout time.Duration) persistence.EconomicEventsRepo {
	return &economicEventsRepo{db: db, timeout: timeout}
}

func (r *economicEventsRepo) Upsert(ctx context.Context, e domain.EconomicEvent) (domain.EconomicEvent, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	const q = `
		INSERT INTO economic_events (id, name, country, release_at, importance, actual, forecast, previous, source, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())
		ON CONFLICT (name, country, release_at) DO UPDATE SET
			importance = EXCLUDED.importance,
			actual = EXCLUDED.actual,
			forecast = EXCLUDED.forecast,
			previous = EXCLUDED.previous
		RETURNING id, created_at`

	row := r.db.QueryRowxContext(qctx, q, e.ID, e.Name, e.Country, e.ReleaseAt, e.Importance, e.Actual, e.Forecast, e.Previous, e.Source)
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return domain.EconomicEvent{}, fmt.Errorf("postgres: upsert economic_events: %w", err)
	}
	return e, nil
}

// ListByRange returns every release with release_at in [rng.From, rng.To],
// ascending by time. General-purpose, like MacroEventsRepo.ListByRange;
// callers that only want high-impact releases (the daily digest's economic
// calendar section) filter the result themselves.
func (r *economicEventsRepo) ListByRange(ctx context.Context, rng persistence.TimeRange) ([]domain.EconomicEvent, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryxContext(qctx, `
		SELECT id, name, country, release_at, importance, actual, forecast, previous, source, created_at
		FROM economic_events
		WHERE release_at BETWEEN $1 AND $2
		ORDER BY release_at ASC`, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("postgres: list economic_events by range: %w", err)
	}
	defer rows.Close()

	var out []domain.EconomicEvent
	for rows.Next() {
		var e domain.EconomicEvent
		if err := rows.StructScan(&e); err != nil {
			return nil, fmt.Errorf("postgres: scan economic_event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *economicEventsRepo) ListUpcoming(ctx context.Context, within time.Duration) ([]domain.EconomicEvent, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryxContext(qctx, `
		SELECT id, name, country, release_at, importance, actual, forecast, previous, source, created_at
		FROM economic_events
		WHERE release_at BETWEEN now() AND now() + $1::interval
		ORDER BY release_at ASC`, within.String())
	if err != nil {
		return nil, fmt.Errorf("postgres: list upcoming economic_events: %w", err)
	}
	defer rows.Close()

	var out []domain.EconomicEvent
	for rows.Next() {
		var e domain.EconomicEvent
		if err := rows.StructScan(&e); err != nil {
			return nil, fmt.Errorf("postgres: scan economic_event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
