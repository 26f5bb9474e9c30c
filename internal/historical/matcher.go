// Package historical finds precedent cases for a macro event: an embedding
// nearest-neighbour search when a vector is available, falling back to a
// deterministic keyword-overlap ranking otherwise. Both paths and the exact
// tie-break order are grounded on original_source's historical.py.
package historical

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/satriapamudji/meridian/internal/domain"
)

// eventTypeBoost is added to a case's keyword match score when its event
// type matches the query's, after both are normalised.
const eventTypeBoost = 5

var (
	tokenRE  = regexp.MustCompile(`[a-z0-9]+`)
	stopwords = map[string]bool{
		"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
		"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
		"it": true, "of": true, "on": true, "or": true, "that": true, "the": true,
		"to": true, "with": true,
	}
)

// Match is one ranked precedent, tagged with how it was found.
type Match struct {
	Case        domain.HistoricalCase
	MatchMethod string // "embedding" or "fallback"
	Distance    *float64
	MatchScore  *int
}

// Store is the subset of persistence historical matching needs.
type Store interface {
	FindSimilarCases(ctx context.Context, embedding []float32, limit int) ([]Match, error)
	FetchAllCases(ctx context.Context) ([]domain.HistoricalCase, error)
}

// FindHistoricalCases tries the embedding path first when embedding is
// non-empty; if that returns no rows (or no embedding was supplied) it
// falls back to keyword ranking over every stored case.
func FindHistoricalCases(ctx context.Context, store Store, eventText, eventType string, embedding []float32, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 5
	}

	if len(embedding) > 0 {
		matches, err := store.FindSimilarCases(ctx, embedding, limit)
		if err != nil {
			return nil, fmt.Errorf("historical: embedding search: %w", err)
		}
		if len(matches) > 0 {
			return matches, nil
		}
	}

	cases, err := store.FetchAllCases(ctx)
	if err != nil {
		return nil, fmt.Errorf("historical: fetch cases: %w", err)
	}
	return RankCases(cases, eventText, eventType, limit), nil
}

// RankCases scores every case by keyword overlap against eventText, with a
// flat bonus for an event-type match, and returns the top `limit` ranked by
// descending score, then descending significance, then name, then date
// range (the exact original_source tie-break order).
func RankCases(cases []domain.HistoricalCase, eventText, eventType string, limit int) []Match {
	keywords := extractKeywords(eventText)
	normalizedType := domain.NormalizeEventType(eventType)

	scored := make([]struct {
		c     domain.HistoricalCase
		score int
	}, 0, len(cases))

	for _, c := range cases {
		score := scoreCase(c, keywords, normalizedType)
		scored = append(scored, struct {
			c     domain.HistoricalCase
			score int
		}{c, score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.c.SignificanceScore != b.c.SignificanceScore {
			return a.c.SignificanceScore > b.c.SignificanceScore
		}
		an, bn := strings.ToLower(a.c.EventName), strings.ToLower(b.c.EventName)
		if an != bn {
			return an < bn
		}
		return a.c.DateRange < b.c.DateRange
	})

	if limit > len(scored) {
		limit = len(scored)
	}

	out := make([]Match, 0, limit)
	for i := 0; i < limit; i++ {
		score := scored[i].score
		out = append(out, Match{
			Case:        scored[i].c,
			MatchMethod: "fallback",
			MatchScore:  &score,
		})
	}
	return out
}

func extractKeywords(text string) map[string]bool {
	keywords := make(map[string]bool)
	for _, tok := range tokenRE.FindAllString(strings.ToLower(text), -1) {
		if len(tok) >= 3 && !stopwords[tok] {
			keywords[tok] = true
		}
	}
	return keywords
}

func scoreCase(c domain.HistoricalCase, keywords map[string]bool, normalizedType string) int {
	text := caseText(c)
	score := keywordHits(text, keywords)
	if domain.NormalizeEventType(c.EventType) == normalizedType && normalizedType != "" {
		score += eventTypeBoost
	}
	return score
}

func caseText(c domain.HistoricalCase) string {
	parts := []string{c.EventName, c.EventType}
	parts = append(parts, safeList(c.StructuralDrivers)...)
	parts = append(parts, safeList(c.Lessons)...)
	parts = append(parts, safeList(c.CounterExamples)...)
	parts = append(parts, safeList(c.TraditionalMarketReaction)...)
	return strings.ToLower(strings.Join(parts, " "))
}

func safeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func keywordHits(text string, keywords map[string]bool) int {
	hits := 0
	for kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

// sqlxStore is the Postgres-backed Store implementation, issuing the raw
// pgvector "<->" distance query for the embedding path and a flat select
// for the fallback path.
type sqlxStore struct {
	db *sqlx.DB
}

// NewSQLXStore wraps a *sqlx.DB as a Store.
func NewSQLXStore(db *sqlx.DB) Store {
	return &sqlxStore{db: db}
}

type similarCaseRow struct {
	EventName         string  `db:"event_name"`
	DateRange         string  `db:"date_range"`
	EventType         string  `db:"event_type"`
	SignificanceScore int     `db:"significance_score"`
	Distance          float64 `db:"distance"`
}

func (s *sqlxStore) FindSimilarCases(ctx context.Context, embedding []float32, limit int) ([]Match, error) {
	rows, err := s.db.NamedQueryContext(ctx, `
		SELECT event_name, date_range, event_type, significance_score,
		       embedding <-> :embedding::vector AS distance
		FROM historical_cases
		WHERE embedding IS NOT NULL
		ORDER BY embedding <-> :embedding::vector
		LIMIT :limit`,
		map[string]interface{}{"embedding": vectorLiteral(embedding), "limit": limit},
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var row similarCaseRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		dist := row.Distance
		matches = append(matches, Match{
			Case: domain.HistoricalCase{
				EventName:         row.EventName,
				DateRange:         row.DateRange,
				EventType:         row.EventType,
				SignificanceScore: row.SignificanceScore,
			},
			MatchMethod: "embedding",
			Distance:    &dist,
		})
	}
	return matches, rows.Err()
}

func (s *sqlxStore) FetchAllCases(ctx context.Context) ([]domain.HistoricalCase, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT event_name, date_range, event_type, significance_score,
		       structural_drivers, lessons, counter_examples, traditional_market_reaction
		FROM historical_cases`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []domain.HistoricalCase
	for rows.Next() {
		var c domain.HistoricalCase
		var drivers, lessons, counters, reactions sql.NullString
		if err := rows.Scan(&c.EventName, &c.DateRange, &c.EventType, &c.SignificanceScore,
			&drivers, &lessons, &counters, &reactions); err != nil {
			return nil, err
		}
		c.StructuralDrivers = splitPGArray(drivers.String)
		c.Lessons = splitPGArray(lessons.String)
		c.CounterExamples = splitPGArray(counters.String)
		c.TraditionalMarketReaction = splitPGArray(reactions.String)
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// vectorLiteral renders a float32 slice as pgvector's text input format.
func vectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// splitPGArray parses the lib/pq text array representation ({a,b,c}) into a
// Go slice; used where a driver returns text[] columns as raw strings.
func splitPGArray(raw string) []string {
	raw = strings.TrimPrefix(raw, "{")
	raw = strings.TrimSuffix(raw, "}")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
