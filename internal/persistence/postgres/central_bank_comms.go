package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/persistence"
)

type centralBankCommsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewCentralBankCommsRepo builds a Postgres-backed CentralBankCommsRepo. A
// new statement's unified diff against the bank's previous one is computed
// here, once, at write time, so every reader gets the rendered diff for
// free instead of recomputing it.
func NewCentralBankCommsRepo(db *sqlx.DB, timeout time.Duration) persistence.CentralBankCommsRepo {
	return &centralBankCommsRepo{db: db, timeout: timeout}
}

func (r *centralBankCommsRepo) Upsert(ctx context.Context, c domain.CentralBankComm) (domain.CentralBankComm, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	if c.ChangeVsPrev == "" {
		if prev, err := r.LatestByBank(qctx, c.Bank); err == nil && prev != nil {
			c.ChangeVsPrev = diffAgainstPrevious(prev.Body, c.Body)
		}
	}

	const q = `
		INSERT INTO central_bank_comms (id, bank, title, url, published_at, body, change_vs_previous, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now())
		ON CONFLICT (bank, title, published_at) DO UPDATE SET
			body = EXCLUDED.body, change_vs_previous = EXCLUDED.change_vs_previous
		RETURNING id, created_at`

	row := r.db.QueryRowxContext(qctx, q, c.ID, c.Bank, c.Title, c.URL, c.PublishedAt, c.Body, c.ChangeVsPrev)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return domain.CentralBankComm{}, fmt.Errorf("postgres: upsert central_bank_comms: %w", err)
	}
	return c, nil
}

func (r *centralBankCommsRepo) LatestByBank(ctx context.Context, bank string) (*domain.CentralBankComm, error) {
	var c domain.CentralBankComm
	err := r.db.GetContext(ctx, &c, `
		SELECT id, bank, title, url, published_at, body, change_vs_previous, created_at
		FROM central_bank_comms WHERE bank = $1
		ORDER BY published_at DESC LIMIT 1`, bank)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: latest central_bank_comm: %w", err)
	}
	return &c, nil
}

// diffAgainstPrevious renders a unified diff of a bank's new statement body
// against its previous one, the way a reader spots exactly which phrases
// changed between releases.
func diffAgainstPrevious(previous, current string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(previous),
		B:        difflib.SplitLines(current),
		FromFile: "previous",
		ToFile:   "current",
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}
