package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/persistence"
)

type thesesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewThesesRepo builds a Postgres-backed ThesesRepo.
func NewThesesRepo(db *sqlx.DB, timeout time.Duration) persistence.ThesesRepo {
	return &thesesRepo{db: db, timeout: timeout}
}

func (r *thesesRepo) Create(ctx context.Context, t domain.Thesis) (domain.Thesis, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = domain.ThesisStatusOpen
	}

	const q = `
		INSERT INTO theses (
			id, macro_event_id, conviction_level, conviction_score, narrative,
			primary_assets, secondary_assets, historical_case_id, status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now(), now())
		RETURNING id, created_at, updated_at`

	row := r.db.QueryRowxContext(qctx, q, t.ID, t.MacroEventID, t.ConvictionLevel, t.ConvictionScore, t.Narrative,
		pq.StringArray(t.PrimaryAssets), pq.StringArray(t.SecondaryAssets), t.HistoricalCaseID, t.Status)
	if err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return domain.Thesis{}, fmt.Errorf("postgres: create thesis: %w", err)
	}
	return t, nil
}

func (r *thesesRepo) ListByMacroEvent(ctx context.Context, macroEventID uuid.UUID) ([]domain.Thesis, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryxContext(qctx, `
		SELECT id, macro_event_id, conviction_level, conviction_score, narrative,
			primary_assets, secondary_assets, historical_case_id, status, updated_at, created_at
		FROM theses WHERE macro_event_id = $1
		ORDER BY created_at DESC`, macroEventID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list theses: %w", err)
	}
	defer rows.Close()

	var out []domain.Thesis
	for rows.Next() {
		var row thesisRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("postgres: scan thesis: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, rows.Err()
}

// ListActive returns up to limit theses whose status hasn't reached a
// terminal state, most recently updated first — the digest's "active
// theses" section.
func (r *thesesRepo) ListActive(ctx context.Context, limit int) ([]domain.Thesis, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryxContext(qctx, `
		SELECT id, macro_event_id, conviction_level, conviction_score, narrative,
			primary_assets, secondary_assets, historical_case_id, status, updated_at, created_at
		FROM theses
		WHERE status NOT IN ('closed','dismissed','archived')
		ORDER BY updated_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active theses: %w", err)
	}
	defer rows.Close()

	var out []domain.Thesis
	for rows.Next() {
		var row thesisRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("postgres: scan thesis: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, rows.Err()
}

type thesisRow struct {
	ID               uuid.UUID      `db:"id"`
	MacroEventID     uuid.UUID      `db:"macro_event_id"`
	ConvictionLevel  string         `db:"conviction_level"`
	ConvictionScore  int            `db:"conviction_score"`
	Narrative        string         `db:"narrative"`
	PrimaryAssets    pq.StringArray `db:"primary_assets"`
	SecondaryAssets  pq.StringArray `db:"secondary_assets"`
	HistoricalCaseID *uuid.UUID     `db:"historical_case_id"`
	Status           string         `db:"status"`
	UpdatedAt        time.Time      `db:"updated_at"`
	CreatedAt        time.Time      `db:"created_at"`
}

func (row thesisRow) toDomain() domain.Thesis {
	return domain.Thesis{
		ID:               row.ID,
		MacroEventID:     row.MacroEventID,
		ConvictionLevel:  row.ConvictionLevel,
		ConvictionScore:  row.ConvictionScore,
		Narrative:        row.Narrative,
		PrimaryAssets:    []string(row.PrimaryAssets),
		SecondaryAssets:  []string(row.SecondaryAssets),
		HistoricalCaseID: row.HistoricalCaseID,
		Status:           row.Status,
		UpdatedAt:        row.UpdatedAt,
		CreatedAt:        row.CreatedAt,
	}
}
