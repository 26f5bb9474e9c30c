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

type dailyDigestsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewDailyDigestsRepo builds a Postgres-backed DailyDigestsRepo. Digest
// generation is idempotent per calendar day: GetOrNil is always checked
// before Create so a second run on the same day returns the cached digest
// instead of writing a duplicate.
func NewDailyDigestsRepo(db *sqlx.DB, timeout time.Duration) persistence.DailyDigestsRepo {
	return &dailyDigestsRepo{db: db, timeout: timeout}
}

const dailyDigestColumns = `id, date, summary, top_event_ids, metals_snapshot, economic_calendar, active_theses, briefing, created_at`

func (r *dailyDigestsRepo) GetOrNil(ctx context.Context, date time.Time) (*domain.DailyDigest, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row dailyDigestRow
	err := r.db.GetContext(qctx, &row, `
		SELECT `+dailyDigestColumns+`
		FROM daily_digests WHERE date = $1::date`, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get daily_digest: %w", err)
	}
	d := row.toDomain()
	return &d, nil
}

// Create inserts a digest, doing nothing on conflict: digest generation is
// idempotent per calendar day, so a second run on the same date returns the
// digest already on file instead of overwriting it with a new composition.
func (r *dailyDigestsRepo) Create(ctx context.Context, d domain.DailyDigest) (domain.DailyDigest, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	ids := make(pq.StringArray, len(d.TopEventIDs))
	for i, id := range d.TopEventIDs {
		ids[i] = id.String()
	}

	const q = `
		INSERT INTO daily_digests (id, date, summary, top_event_ids, metals_snapshot, economic_calendar, active_theses, briefing, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now())
		ON CONFLICT (date) DO NOTHING
		RETURNING id, created_at`

	row := r.db.QueryRowxContext(qctx, q, d.ID, d.Date, d.Summary, ids,
		d.MetalsSnapshot, d.EconomicCalendar, d.ActiveTheses, d.Briefing)
	if err := row.Scan(&d.ID, &d.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			existing, getErr := r.GetOrNil(ctx, d.Date)
			if getErr != nil {
				return domain.DailyDigest{}, fmt.Errorf("postgres: create daily_digest raced, reread failed: %w", getErr)
			}
			if existing != nil {
				return *existing, nil
			}
		}
		return domain.DailyDigest{}, fmt.Errorf("postgres: create daily_digest: %w", err)
	}
	return d, nil
}

type dailyDigestRow struct {
	ID               uuid.UUID      `db:"id"`
	Date             time.Time      `db:"date"`
	Summary          string         `db:"summary"`
	TopEventIDs      pq.StringArray `db:"top_event_ids"`
	MetalsSnapshot   domain.JSONList `db:"metals_snapshot"`
	EconomicCalendar domain.JSONList `db:"economic_calendar"`
	ActiveTheses     domain.JSONList `db:"active_theses"`
	Briefing         sql.NullString `db:"briefing"`
	CreatedAt        time.Time      `db:"created_at"`
}

func (row dailyDigestRow) toDomain() domain.DailyDigest {
	ids := make([]uuid.UUID, 0, len(row.TopEventIDs))
	for _, s := range row.TopEventIDs {
		if id, err := uuid.Parse(s); err == nil {
			ids = append(ids, id)
		}
	}
	return domain.DailyDigest{
		ID:               row.ID,
		Date:             row.Date,
		Summary:          row.Summary,
		TopEventIDs:      ids,
		MetalsSnapshot:   row.MetalsSnapshot,
		EconomicCalendar: row.EconomicCalendar,
		ActiveTheses:     row.ActiveTheses,
		Briefing:         row.Briefing.String,
		CreatedAt:        row.CreatedAt,
	}
}
