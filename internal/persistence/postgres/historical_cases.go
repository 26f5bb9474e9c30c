package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/persistence"
)

type historicalCasesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewHistoricalCasesRepo builds a Postgres-backed HistoricalCasesRepo.
func NewHistoricalCasesRepo(db *sqlx.DB, timeout time.Duration) persistence.HistoricalCasesRepo {
	return &historicalCasesRepo{db: db, timeout: timeout}
}

const historicalCaseColumns = `
	id, event_name, date_range, event_type, significance_score,
	structural_drivers, lessons, counter_examples, traditional_market_reaction,
	metal_impacts, crypto_reaction, time_delays, quantitative_impacts,
	time_horizon_behavior, transmission_channels, created_at`

func (r *historicalCasesRepo) Upsert(ctx context.Context, c domain.HistoricalCase) (domain.HistoricalCase, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	const q = `
		INSERT INTO historical_cases (
			id, event_name, date_range, event_type, significance_score,
			structural_drivers, lessons, counter_examples, traditional_market_reaction,
			metal_impacts, crypto_reaction, time_delays, quantitative_impacts,
			time_horizon_behavior, transmission_channels, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15, now())
		ON CONFLICT (event_name, date_range) DO UPDATE SET
			event_type = EXCLUDED.event_type,
			significance_score = EXCLUDED.significance_score,
			structural_drivers = EXCLUDED.structural_drivers,
			lessons = EXCLUDED.lessons,
			counter_examples = EXCLUDED.counter_examples,
			traditional_market_reaction = EXCLUDED.traditional_market_reaction,
			metal_impacts = EXCLUDED.metal_impacts,
			crypto_reaction = EXCLUDED.crypto_reaction,
			time_delays = EXCLUDED.time_delays,
			quantitative_impacts = EXCLUDED.quantitative_impacts,
			time_horizon_behavior = EXCLUDED.time_horizon_behavior,
			transmission_channels = EXCLUDED.transmission_channels
		RETURNING id, created_at`

	row := r.db.QueryRowxContext(qctx, q, c.ID, c.EventName, c.DateRange, c.EventType, c.SignificanceScore,
		pq.StringArray(c.StructuralDrivers), pq.StringArray(c.Lessons),
		pq.StringArray(c.CounterExamples), pq.StringArray(c.TraditionalMarketReaction),
		c.MetalImpacts, pq.StringArray(c.CryptoReaction), pq.StringArray(c.TimeDelays), c.QuantitativeImpacts,
		c.TimeHorizonBehavior, pq.StringArray(c.TransmissionChannels))

	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return domain.HistoricalCase{}, fmt.Errorf("postgres: upsert historical_cases: %w", err)
	}
	return c, nil
}

func (r *historicalCasesRepo) List(ctx context.Context) ([]domain.HistoricalCase, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryxContext(qctx, `SELECT `+historicalCaseColumns+` FROM historical_cases`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list historical_cases: %w", err)
	}
	defer rows.Close()
	return scanHistoricalCases(rows)
}

func (r *historicalCasesRepo) Get(ctx context.Context, id uuid.UUID) (*domain.HistoricalCase, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row historicalCaseRow
	err := r.db.GetContext(qctx, &row, `SELECT `+historicalCaseColumns+` FROM historical_cases WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get historical_case: %w", err)
	}
	c := row.toDomain()
	return &c, nil
}

// UpdateEmbedding writes the similarity-search vector for one curated case,
// matched on the same (event_name, date_range) pair the source system's
// apply_embedding_updates uses instead of a surrogate key.
func (r *historicalCasesRepo) UpdateEmbedding(ctx context.Context, eventName, dateRange string, embedding []float32) (int, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const q = `UPDATE historical_cases SET embedding = $1 WHERE event_name = $2 AND date_range = $3`
	result, err := r.db.ExecContext(qctx, q, vectorLiteral(embedding), eventName, dateRange)
	if err != nil {
		return 0, fmt.Errorf("postgres: update historical_cases embedding: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("postgres: update historical_cases embedding rows affected: %w", err)
	}
	return int(n), nil
}

// vectorLiteral renders a float32 slice as pgvector's text input format.
func vectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

type historicalCaseRow struct {
	ID                        uuid.UUID              `db:"id"`
	EventName                 string                 `db:"event_name"`
	DateRange                 string                 `db:"date_range"`
	EventType                 string                 `db:"event_type"`
	SignificanceScore         int                    `db:"significance_score"`
	StructuralDrivers         pq.StringArray         `db:"structural_drivers"`
	Lessons                   pq.StringArray         `db:"lessons"`
	CounterExamples           pq.StringArray         `db:"counter_examples"`
	TraditionalMarketReaction pq.StringArray         `db:"traditional_market_reaction"`
	MetalImpacts              domain.JSONMap         `db:"metal_impacts"`
	CryptoReaction            pq.StringArray         `db:"crypto_reaction"`
	TimeDelays                pq.StringArray         `db:"time_delays"`
	QuantitativeImpacts       domain.JSONMap         `db:"quantitative_impacts"`
	TimeHorizonBehavior       domain.HorizonBehaviorMap `db:"time_horizon_behavior"`
	TransmissionChannels      pq.StringArray         `db:"transmission_channels"`
	CreatedAt                 time.Time              `db:"created_at"`
}

func (row historicalCaseRow) toDomain() domain.HistoricalCase {
	return domain.HistoricalCase{
		ID:                        row.ID,
		EventName:                 row.EventName,
		DateRange:                 row.DateRange,
		EventType:                 row.EventType,
		SignificanceScore:         row.SignificanceScore,
		StructuralDrivers:         row.StructuralDrivers,
		Lessons:                   row.Lessons,
		CounterExamples:           row.CounterExamples,
		TraditionalMarketReaction: row.TraditionalMarketReaction,
		MetalImpacts:              row.MetalImpacts,
		CryptoReaction:            []string(row.CryptoReaction),
		TimeDelays:                []string(row.TimeDelays),
		QuantitativeImpacts:       row.QuantitativeImpacts,
		TimeHorizonBehavior:       row.TimeHorizonBehavior,
		TransmissionChannels:      row.TransmissionChannels,
		CreatedAt:                 row.CreatedAt,
	}
}

func scanHistoricalCases(rows *sqlx.Rows) ([]domain.HistoricalCase, error) {
	var out []domain.HistoricalCase
	for rows.Next() {
		var row historicalCaseRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("postgres: scan historical_case: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, rows.Err()
}
