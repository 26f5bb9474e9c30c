// Package postgres implements the persistence repositories against a real
// Postgres database via sqlx and lib/pq, one file per entity, each opening
// its own short-lived query (no long-lived transactions, per-call
// QueryTimeout) the way the teacher's repositories do.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/persistence"
)

type macroEventsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewMacroEventsRepo builds a Postgres-backed MacroEventsRepo.
func NewMacroEventsRepo(db *sqlx.DB, timeout time.Duration) persistence.MacroEventsRepo {
	return &macroEventsRepo{db: db, timeout: timeout}
}

func (r *macroEventsRepo) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

const macroEventColumns = `
	id, source, headline, full_text, url, published_at, event_type, regions, entities,
	structural, transmission, historical, attention,
	significance, tier, priority_flag, discovered_assets, status,
	raw_facts, metal_impacts, crypto_transmission, historical_precedent, counter_case, created_at`

// Upsert writes a new event (status defaults to "new" when unset) or
// refreshes the ingestion-owned columns of an existing one on a repeated
// ingest of the same natural key; it never overwrites scoring or analysis
// columns, since those are owned by UpdateScore/UpdateAnalysis.
func (r *macroEventsRepo) Upsert(ctx context.Context, e domain.MacroEvent) (domain.MacroEvent, error) {
	qctx, cancel := r.ctx(ctx)
	defer cancel()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = domain.StatusNew
	}

	const q = `
		INSERT INTO macro_events (
			id, source, headline, full_text, url, published_at, event_type, regions, entities,
			priority_flag, discovered_assets, status, created_at
		) VALUES (
			:id, :source, :headline, :full_text, :url, :published_at, :event_type, :regions, :entities,
			:priority_flag, :discovered_assets, :status, now()
		)
		ON CONFLICT (source, headline, published_at) DO UPDATE SET
			event_type = EXCLUDED.event_type,
			regions = EXCLUDED.regions,
			entities = EXCLUDED.entities,
			full_text = COALESCE(NULLIF(EXCLUDED.full_text, ''), macro_events.full_text)
		RETURNING id, created_at, status`

	row := struct {
		domain.MacroEvent
		Regions          pq.StringArray `db:"regions"`
		Entities         pq.StringArray `db:"entities"`
		DiscoveredAssets pq.StringArray `db:"discovered_assets"`
	}{
		MacroEvent:       e,
		Regions:          pq.StringArray(e.Regions),
		Entities:         pq.StringArray(e.Entities),
		DiscoveredAssets: pq.StringArray(e.DiscoveredAsset),
	}

	stmt, err := r.db.PrepareNamedContext(qctx, q)
	if err != nil {
		return domain.MacroEvent{}, fmt.Errorf("postgres: prepare upsert macro_events: %w", err)
	}
	defer stmt.Close()

	var result struct {
		ID        uuid.UUID `db:"id"`
		CreatedAt time.Time `db:"created_at"`
		Status    string    `db:"status"`
	}
	if err := stmt.GetContext(qctx, &result, row); err != nil {
		return domain.MacroEvent{}, fmt.Errorf("postgres: upsert macro_events: %w", err)
	}
	e.ID = result.ID
	e.CreatedAt = result.CreatedAt
	e.Status = result.Status
	return e, nil
}

// UpdateScore attaches C3's significance components and advances status to
// "scored".
func (r *macroEventsRepo) UpdateScore(ctx context.Context, id uuid.UUID, c domain.SignificanceComponents, total int, tier string, priorityFlag bool) error {
	qctx, cancel := r.ctx(ctx)
	defer cancel()
	const q = `
		UPDATE macro_events SET
			structural = $2, transmission = $3, historical = $4, attention = $5,
			significance = $6, tier = $7, priority_flag = $8, status = $9
		WHERE id = $1`
	_, err := r.db.ExecContext(qctx, q, id, c.Structural, c.Transmission, c.Historical, c.Attention,
		total, tier, priorityFlag, domain.StatusScored)
	if err != nil {
		return fmt.Errorf("postgres: update score macro_events: %w", err)
	}
	return nil
}

// UpdateAnalysis attaches C4's normalised synthesis output and advances
// status to "analyzed".
func (r *macroEventsRepo) UpdateAnalysis(ctx context.Context, id uuid.UUID, a domain.AnalysisResult) error {
	qctx, cancel := r.ctx(ctx)
	defer cancel()
	const q = `
		UPDATE macro_events SET
			raw_facts = $2, metal_impacts = $3, crypto_transmission = $4,
			historical_precedent = $5, counter_case = $6, status = $7
		WHERE id = $1`
	_, err := r.db.ExecContext(qctx, q, id, pq.StringArray(a.RawFacts), a.MetalImpacts, a.CryptoTransmission,
		a.HistoricalPrecedent, a.CounterCase, domain.StatusAnalyzed)
	if err != nil {
		return fmt.Errorf("postgres: update analysis macro_events: %w", err)
	}
	return nil
}

func (r *macroEventsRepo) GetByDedupKey(ctx context.Context, key string) (*domain.MacroEvent, error) {
	qctx, cancel := r.ctx(ctx)
	defer cancel()

	q := `
		SELECT ` + macroEventColumns + `
		FROM macro_events
		WHERE source || ':' || lower(headline) || ':' || to_char(published_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"') = $1`

	return r.scanOne(qctx, q, key)
}

func (r *macroEventsRepo) Get(ctx context.Context, id uuid.UUID) (*domain.MacroEvent, error) {
	qctx, cancel := r.ctx(ctx)
	defer cancel()
	q := `SELECT ` + macroEventColumns + ` FROM macro_events WHERE id = $1`
	return r.scanOne(qctx, q, id)
}

func (r *macroEventsRepo) scanOne(ctx context.Context, q string, arg interface{}) (*domain.MacroEvent, error) {
	var row macroEventRow
	if err := r.db.GetContext(ctx, &row, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: get macro_event: %w", err)
	}
	e := row.toDomain()
	return &e, nil
}

func (r *macroEventsRepo) ListByRange(ctx context.Context, tr persistence.TimeRange) ([]domain.MacroEvent, error) {
	qctx, cancel := r.ctx(ctx)
	defer cancel()
	q := `
		SELECT ` + macroEventColumns + `
		FROM macro_events
		WHERE published_at BETWEEN $1 AND $2
		ORDER BY published_at DESC`
	return r.listQuery(qctx, q, tr.From, tr.To)
}

func (r *macroEventsRepo) ListPriority(ctx context.Context, date time.Time) ([]domain.MacroEvent, error) {
	qctx, cancel := r.ctx(ctx)
	defer cancel()
	q := `
		SELECT ` + macroEventColumns + `
		FROM macro_events
		WHERE priority_flag = true AND published_at::date = $1::date
		ORDER BY significance DESC`
	return r.listQuery(qctx, q, date)
}

// ListUnscored returns events with significance IS NULL, oldest
// first, the order the batch scorer processes them in.
func (r *macroEventsRepo) ListUnscored(ctx context.Context, limit int) ([]domain.MacroEvent, error) {
	qctx, cancel := r.ctx(ctx)
	defer cancel()
	q := `
		SELECT ` + macroEventColumns + `
		FROM macro_events
		WHERE significance IS NULL
		ORDER BY published_at ASC
		LIMIT $1`
	return r.listQuery(qctx, q, limit)
}

// ListPriorityForAnalysis returns priority-flagged events for the C4
// synthesis pass, newest first; unless includeAnalyzed, only events still
// missing at least one analysis column are returned, so a second run
// without a forced re-run is a no-op.
func (r *macroEventsRepo) ListPriorityForAnalysis(ctx context.Context, limit int, includeAnalyzed bool) ([]domain.MacroEvent, error) {
	qctx, cancel := r.ctx(ctx)
	defer cancel()
	q := `
		SELECT ` + macroEventColumns + `
		FROM macro_events
		WHERE priority_flag = true`
	if !includeAnalyzed {
		q += `
		AND raw_facts IS NULL AND metal_impacts IS NULL AND historical_precedent IS NULL
		AND counter_case IS NULL AND crypto_transmission IS NULL`
	}
	q += `
		ORDER BY published_at DESC NULLS LAST, created_at DESC`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return r.listQuery(qctx, q)
}

func (r *macroEventsRepo) listQuery(ctx context.Context, q string, args ...interface{}) ([]domain.MacroEvent, error) {
	rows, err := r.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list macro_events: %w", err)
	}
	defer rows.Close()

	var out []domain.MacroEvent
	for rows.Next() {
		var row macroEventRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("postgres: scan macro_event: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, rows.Err()
}

type macroEventRow struct {
	ID                 uuid.UUID      `db:"id"`
	Source             string         `db:"source"`
	Headline           string         `db:"headline"`
	FullText           sql.NullString `db:"full_text"`
	URL                string         `db:"url"`
	PublishedAt        time.Time      `db:"published_at"`
	EventType          string         `db:"event_type"`
	Regions            pq.StringArray `db:"regions"`
	Entities           pq.StringArray `db:"entities"`
	Structural         sql.NullInt64  `db:"structural"`
	Transmission       sql.NullInt64  `db:"transmission"`
	Historical         sql.NullInt64  `db:"historical"`
	Attention          sql.NullInt64  `db:"attention"`
	Significance       sql.NullInt64  `db:"significance"`
	Tier               sql.NullString `db:"tier"`
	PriorityFlag       bool           `db:"priority_flag"`
	DiscoveredAssets   pq.StringArray `db:"discovered_assets"`
	Status             string         `db:"status"`
	RawFacts           pq.StringArray `db:"raw_facts"`
	MetalImpacts       domain.JSONMap `db:"metal_impacts"`
	CryptoTransmission domain.JSONMap `db:"crypto_transmission"`
	HistoricalPrecedent sql.NullString `db:"historical_precedent"`
	CounterCase        sql.NullString `db:"counter_case"`
	CreatedAt          time.Time      `db:"created_at"`
}

func (row macroEventRow) toDomain() domain.MacroEvent {
	e := domain.MacroEvent{
		ID:                  row.ID,
		Source:              row.Source,
		Headline:            row.Headline,
		FullText:            row.FullText.String,
		URL:                 row.URL,
		PublishedAt:         row.PublishedAt,
		EventType:           row.EventType,
		Regions:             row.Regions,
		Entities:            row.Entities,
		Tier:                row.Tier.String,
		PriorityFlag:        row.PriorityFlag,
		DiscoveredAsset:     row.DiscoveredAssets,
		Status:              row.Status,
		RawFacts:            row.RawFacts,
		MetalImpacts:        row.MetalImpacts,
		CryptoTransmission:  row.CryptoTransmission,
		HistoricalPrecedent: row.HistoricalPrecedent.String,
		CounterCase:         row.CounterCase.String,
		CreatedAt:           row.CreatedAt,
	}
	if row.Significance.Valid {
		total := int(row.Significance.Int64)
		e.Significance = &total
		e.Components = &domain.SignificanceComponents{
			Structural:   int(row.Structural.Int64),
			Transmission: int(row.Transmission.Int64),
			Historical:   int(row.Historical.Int64),
			Attention:    int(row.Attention.Int64),
		}
	}
	return e
}
