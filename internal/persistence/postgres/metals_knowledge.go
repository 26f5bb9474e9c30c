package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/persistence"
)

type metalsKnowledgeRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewMetalsKnowledgeRepo builds a Postgres-backed MetalsKnowledgeRepo.
func NewMetalsKnowledgeRepo(db *sqlx.DB, timeout time.Duration) persistence.MetalsKnowledgeRepo {
	return &metalsKnowledgeRepo{db: db, timeout: timeout}
}

// Upsert writes one metal/category fact sheet, matching the seed loader's
// ON CONFLICT (metal, category) DO UPDATE behavior so reseeding is
// idempotent.
func (r *metalsKnowledgeRepo) Upsert(ctx context.Context, e domain.MetalsKnowledgeEntry) (domain.MetalsKnowledgeEntry, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	const q = `
		INSERT INTO metals_knowledge (id, metal, category, content, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (metal, category) DO UPDATE SET
			content = EXCLUDED.content,
			updated_at = now()
		RETURNING id, updated_at`

	row := r.db.QueryRowxContext(qctx, q, e.ID, e.Metal, e.Category, e.Content)
	if err := row.Scan(&e.ID, &e.UpdatedAt); err != nil {
		return domain.MetalsKnowledgeEntry{}, fmt.Errorf("postgres: upsert metals_knowledge: %w", err)
	}
	return e, nil
}

// GetByMetal collects every category on file for metal into a single map,
// the shape llm.PromptInput.MetalsKnowledge expects.
func (r *metalsKnowledgeRepo) GetByMetal(ctx context.Context, metal string) (map[string]interface{}, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryxContext(qctx, `SELECT category, content FROM metals_knowledge WHERE metal = $1`, metal)
	if err != nil {
		return nil, fmt.Errorf("postgres: get metals_knowledge for %s: %w", metal, err)
	}
	defer rows.Close()

	out := make(map[string]interface{})
	for rows.Next() {
		var category string
		var content domain.JSONValue
		if err := rows.Scan(&category, &content); err != nil {
			return nil, fmt.Errorf("postgres: scan metals_knowledge row: %w", err)
		}
		var decoded interface{}
		if len(content.Raw) > 0 {
			if err := json.Unmarshal(content.Raw, &decoded); err != nil {
				return nil, fmt.Errorf("postgres: decode metals_knowledge content for %s/%s: %w", metal, category, err)
			}
		}
		out[category] = decoded
	}
	return out, rows.Err()
}

// GetAll loads the entire fact sheet in one query, ordered the way the
// source system's fetch_metals_knowledge does (metal, then category), so an
// analysis batch can fetch it once rather than per event.
func (r *metalsKnowledgeRepo) GetAll(ctx context.Context) (map[string]map[string]interface{}, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryxContext(qctx, `SELECT metal, category, content FROM metals_knowledge ORDER BY metal, category`)
	if err != nil {
		return nil, fmt.Errorf("postgres: get all metals_knowledge: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]interface{})
	for rows.Next() {
		var metal, category string
		var content domain.JSONValue
		if err := rows.Scan(&metal, &category, &content); err != nil {
			return nil, fmt.Errorf("postgres: scan metals_knowledge row: %w", err)
		}
		var decoded interface{}
		if len(content.Raw) > 0 {
			if err := json.Unmarshal(content.Raw, &decoded); err != nil {
				return nil, fmt.Errorf("postgres: decode metals_knowledge content for %s/%s: %w", metal, category, err)
			}
		}
		if out[metal] == nil {
			out[metal] = make(map[string]interface{})
		}
		out[metal][category] = decoded
	}
	return out, rows.Err()
}
