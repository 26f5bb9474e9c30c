// Package persistence defines the repository contracts every storage
// backend implements, and the aggregate Repository/health-check shape the
// rest of the application depends on. The shape (one interface per entity,
// an aggregator struct, a HealthCheck/RepositoryHealth pair) is grounded on
// the teacher's persistence layer; the entity set is Meridian's own ten
// domain tables.
package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/satriapamudji/meridian/internal/domain"
)

// TimeRange bounds a query by inclusive [From, To].
type TimeRange struct {
	From time.Time
	To   time.Time
}

// MacroEventsRepo persists MacroEvent rows, upserting on the
// (source, headline, published_at) natural key. An event is created by an
// ingestor with Status="new" and nil scores; UpdateScore mutates it to
// Status="scored" once C3 has run; UpdateAnalysis mutates it to
// Status="analyzed" once C4's synthesis pass has run. Events are never
// deleted.
type MacroEventsRepo interface {
	Upsert(ctx context.Context, event domain.MacroEvent) (domain.MacroEvent, error)
	GetByDedupKey(ctx context.Context, key string) (*domain.MacroEvent, error)
	ListByRange(ctx context.Context, r TimeRange) ([]domain.MacroEvent, error)
	ListPriority(ctx context.Context, date time.Time) ([]domain.MacroEvent, error)
	ListUnscored(ctx context.Context, limit int) ([]domain.MacroEvent, error)
	// ListPriorityForAnalysis returns priority-flagged events awaiting C4
	// synthesis, newest published first; includeAnalyzed also returns
	// events that already carry analysis output, for a forced re-run.
	ListPriorityForAnalysis(ctx context.Context, limit int, includeAnalyzed bool) ([]domain.MacroEvent, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.MacroEvent, error)
	UpdateScore(ctx context.Context, id uuid.UUID, components domain.SignificanceComponents, total int, tier string, priorityFlag bool) error
	UpdateAnalysis(ctx context.Context, id uuid.UUID, a domain.AnalysisResult) error
}

// HistoricalCasesRepo persists the curated precedent library.
type HistoricalCasesRepo interface {
	Upsert(ctx context.Context, c domain.HistoricalCase) (domain.HistoricalCase, error)
	List(ctx context.Context) ([]domain.HistoricalCase, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.HistoricalCase, error)
	// UpdateEmbedding sets the similarity-search vector for the case matching
	// (eventName, dateRange), returning the number of rows updated (0 or 1).
	UpdateEmbedding(ctx context.Context, eventName, dateRange string, embedding []float32) (int, error)
}

// MetalsKnowledgeRepo persists the curated per-metal fact sheets the
// analysis-synthesis prompt quotes from.
type MetalsKnowledgeRepo interface {
	Upsert(ctx context.Context, e domain.MetalsKnowledgeEntry) (domain.MetalsKnowledgeEntry, error)
	// GetByMetal returns every category on file for metal, keyed by
	// category, ready to drop into llm.PromptInput.MetalsKnowledge.
	GetByMetal(ctx context.Context, metal string) (map[string]interface{}, error)
	// GetAll returns the full fact sheet, keyed by metal then category, for
	// a single up-front fetch shared across an entire analysis batch.
	GetAll(ctx context.Context) (map[string]map[string]interface{}, error)
}

// PricesRepo persists daily OHLCV bars, upserting on (symbol, date).
type PricesRepo interface {
	UpsertBatch(ctx context.Context, bars []domain.PriceBar) (int, error)
	ListBySymbol(ctx context.Context, symbol string, r TimeRange) ([]domain.PriceBar, error)
	LatestBySymbol(ctx context.Context, symbol string) (*domain.PriceBar, error)
}

// PriceRatiosRepo persists derived cross-asset ratios, upserting on
// (numerator, denominator, date).
type PriceRatiosRepo interface {
	UpsertBatch(ctx context.Context, ratios []domain.PriceRatio) (int, error)
	Latest(ctx context.Context, numerator, denominator string) (*domain.PriceRatio, error)
}

// EconomicEventsRepo persists scheduled calendar releases, upserting on
// (name, country, release_at).
type EconomicEventsRepo interface {
	Upsert(ctx context.Context, e domain.EconomicEvent) (domain.EconomicEvent, error)
	ListUpcoming(ctx context.Context, within time.Duration) ([]domain.EconomicEvent, error)
	ListByRange(ctx context.Context, r TimeRange) ([]domain.EconomicEvent, error)
}

// CentralBankCommsRepo persists central bank statements, upserting on
// (bank, title, published_at).
type CentralBankCommsRepo interface {
	Upsert(ctx context.Context, c domain.CentralBankComm) (domain.CentralBankComm, error)
	LatestByBank(ctx context.Context, bank string) (*domain.CentralBankComm, error)
}

// MarketContextRepo persists the once-per-day regime snapshot, upserting
// on date.
type MarketContextRepo interface {
	Upsert(ctx context.Context, c domain.MarketContext) (domain.MarketContext, error)
	GetByDate(ctx context.Context, date time.Time) (*domain.MarketContext, error)
	Latest(ctx context.Context) (*domain.MarketContext, error)
}

// DailyDigestsRepo persists the idempotent once-per-day digest.
type DailyDigestsRepo interface {
	GetOrNil(ctx context.Context, date time.Time) (*domain.DailyDigest, error)
	Create(ctx context.Context, d domain.DailyDigest) (domain.DailyDigest, error)
}

// ThesesRepo persists synthesized trade theses, keyed by macro event.
type ThesesRepo interface {
	Create(ctx context.Context, t domain.Thesis) (domain.Thesis, error)
	ListByMacroEvent(ctx context.Context, macroEventID uuid.UUID) ([]domain.Thesis, error)
	ListActive(ctx context.Context, limit int) ([]domain.Thesis, error)
}

// Repository aggregates every entity repository behind one handle, the way
// application code and the scheduler's job handlers reach storage.
type Repository struct {
	MacroEvents      MacroEventsRepo
	HistoricalCases  HistoricalCasesRepo
	Prices           PricesRepo
	PriceRatios      PriceRatiosRepo
	EconomicEvents   EconomicEventsRepo
	CentralBankComms CentralBankCommsRepo
	MarketContext    MarketContextRepo
	DailyDigests     DailyDigestsRepo
	Theses           ThesesRepo
	MetalsKnowledge  MetalsKnowledgeRepo
}

// HealthCheck is a point-in-time readiness snapshot for the storage layer.
type HealthCheck struct {
	Healthy        bool
	Errors         []string
	ConnectionPool map[string]int
	LastCheck      time.Time
	ResponseTimeMS int64
}

// RepositoryHealth is implemented by anything that can report on the
// storage layer's liveness, independent of which repositories it backs.
type RepositoryHealth interface {
	Health(ctx context.Context) HealthCheck
	Ping(ctx context.Context) error
	Stats(ctx context.Context) map[string]interface{}
}
