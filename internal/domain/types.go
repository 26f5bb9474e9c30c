// Package domain holds the shared record types that flow through every
// Meridian pipeline stage: ingestion writes them, scoring and analysis read
// and enrich them, persistence stores them under their natural keys.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JSONMap is a generic JSONB column: structured, schema-light audit blobs
// (raw_facts, metal_impacts, crypto_transmission, quantitative_impacts,
// time_horizon_behavior) round-trip through it without a bespoke Go type
// per shape, matching how the original stores these as JSON columns rather
// than normalised tables.
type JSONMap map[string]interface{}

// Value implements driver.Valuer so sqlx/lib-pq can write a JSONMap as a
// jsonb column.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner so sqlx/lib-pq can read a jsonb column back.
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("domain: JSONMap.Scan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}

// JSONList is a generic jsonb array column, the list-shaped counterpart to
// JSONMap (economic_calendar, active_theses, metals_snapshot entries).
type JSONList []interface{}

func (l JSONList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *JSONList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("domain: JSONList.Scan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(raw, l)
}

// JSONValue is a jsonb column whose shape isn't fixed to an object or an
// array (the metals knowledge base stores both, category by category).
type JSONValue struct {
	Raw json.RawMessage
}

func (v JSONValue) Value() (driver.Value, error) {
	if len(v.Raw) == 0 {
		return nil, nil
	}
	return []byte(v.Raw), nil
}

func (v *JSONValue) Scan(src interface{}) error {
	if src == nil {
		v.Raw = nil
		return nil
	}
	switch raw := src.(type) {
	case []byte:
		v.Raw = append(json.RawMessage(nil), raw...)
	case string:
		v.Raw = json.RawMessage(raw)
	default:
		return fmt.Errorf("domain: JSONValue.Scan: unsupported type %T", src)
	}
	return nil
}

// MarshalJSON lets JSONValue round-trip through encoding/json as its
// underlying raw document rather than as a {"Raw": ...} wrapper.
func (v JSONValue) MarshalJSON() ([]byte, error) {
	if len(v.Raw) == 0 {
		return []byte("null"), nil
	}
	return v.Raw, nil
}

func (v *JSONValue) UnmarshalJSON(data []byte) error {
	v.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Event lifecycle states. A MacroEvent is created with StatusNew and
// null scores; the significance batch scorer mutates it to StatusScored;
// the analysis synthesis pass mutates it to StatusAnalyzed. Events are
// never deleted.
const (
	StatusNew      = "new"
	StatusScored   = "scored"
	StatusAnalyzed = "analyzed"
)

// SignificanceComponents is the four-part breakdown behind a MacroEvent's
// total significance score.
type SignificanceComponents struct {
	Structural   int `json:"structural" db:"structural"`
	Transmission int `json:"transmission" db:"transmission"`
	Historical   int `json:"historical" db:"historical"`
	Attention    int `json:"attention" db:"attention"`
}

// MacroEvent is a single discrete macro headline, pulled from RSS, central
// bank communications, or the economic calendar, after significance scoring
// and, for priority-tier events, analysis synthesis.
type MacroEvent struct {
	ID              uuid.UUID               `json:"id" db:"id"`
	Source          string                  `json:"source" db:"source"`
	Headline        string                  `json:"headline" db:"headline"`
	FullText        string                  `json:"full_text,omitempty" db:"full_text"`
	URL             string                  `json:"url" db:"url"`
	PublishedAt     time.Time               `json:"published_at" db:"published_at"`
	EventType       string                  `json:"event_type" db:"event_type"`
	Regions         []string                `json:"regions" db:"regions"`
	Entities        []string                `json:"entities" db:"entities"`
	Components      *SignificanceComponents `json:"components,omitempty" db:"-"`
	Significance    *int                    `json:"significance,omitempty" db:"significance"`
	Tier            string                  `json:"tier,omitempty" db:"tier"`
	PriorityFlag    bool                    `json:"priority_flag" db:"priority_flag"`
	DiscoveredAsset []string                `json:"discovered_assets" db:"discovered_assets"`
	Status          string                  `json:"status" db:"status"`
	RawFacts        []string                `json:"raw_facts,omitempty" db:"raw_facts"`
	MetalImpacts    JSONMap                 `json:"metal_impacts,omitempty" db:"metal_impacts"`
	CryptoTransmission JSONMap              `json:"crypto_transmission,omitempty" db:"crypto_transmission"`
	HistoricalPrecedent string              `json:"historical_precedent,omitempty" db:"historical_precedent"`
	CounterCase     string                  `json:"counter_case,omitempty" db:"counter_case"`
	CreatedAt       time.Time               `json:"created_at" db:"created_at"`
}

// DedupKey is the natural key a MacroEvent is upserted on: source, the
// whitespace-normalised lowercased headline, and the RFC3339 UTC
// publication timestamp.
func (e MacroEvent) DedupKey() string {
	return e.Source + ":" + NormalizeHeadline(e.Headline) + ":" + e.PublishedAt.UTC().Format("2006-01-02T15:04:05Z")
}

// HistoricalCase is a curated precedent used by the historical matcher to
// anchor conviction and give the thesis writer a "this happened before"
// comparison. MetalImpacts/CryptoReaction/QuantitativeImpacts carry the same
// shape C4 produces for a live MacroEvent, so a seeded case and an analyzed
// event can be compared field-for-field. TimeHorizonBehavior is keyed by
// horizon bucket ("short_term_1_5d", "medium_term_2_8w", "long_term_6m_plus")
// and consumed directly by internal/horizon to derive a per-horizon
// direction without falling back to an ad-hoc shape.
type HistoricalCase struct {
	ID                        uuid.UUID             `json:"id" db:"id"`
	EventName                 string                `json:"event_name" db:"event_name"`
	DateRange                 string                `json:"date_range" db:"date_range"`
	EventType                 string                `json:"event_type" db:"event_type"`
	SignificanceScore         int                   `json:"significance_score" db:"significance_score"`
	StructuralDrivers         []string              `json:"structural_drivers" db:"structural_drivers"`
	Lessons                   []string              `json:"lessons" db:"lessons"`
	CounterExamples           []string              `json:"counter_examples" db:"counter_examples"`
	TraditionalMarketReaction []string              `json:"traditional_market_reaction" db:"traditional_market_reaction"`
	MetalImpacts              JSONMap               `json:"metal_impacts,omitempty" db:"metal_impacts"`
	CryptoReaction            []string              `json:"crypto_reaction,omitempty" db:"crypto_reaction"`
	TimeDelays                []string              `json:"time_delays,omitempty" db:"time_delays"`
	QuantitativeImpacts       JSONMap               `json:"quantitative_impacts,omitempty" db:"quantitative_impacts"`
	TimeHorizonBehavior       HorizonBehaviorMap    `json:"time_horizon_behavior,omitempty" db:"time_horizon_behavior"`
	TransmissionChannels      []string              `json:"transmission_channels,omitempty" db:"transmission_channels"`
	Embedding                 []float32             `json:"embedding,omitempty" db:"embedding"`
	CreatedAt                 time.Time             `json:"created_at" db:"created_at"`
}

// HorizonBehaviorMap is a jsonb object keyed by horizon bucket
// ("short_term_1_5d", "medium_term_2_8w", "long_term_6m_plus"), each value a
// free-form direction/magnitude/driver blob for that horizon.
type HorizonBehaviorMap map[string]JSONMap

func (m HorizonBehaviorMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *HorizonBehaviorMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("domain: HorizonBehaviorMap.Scan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}

// AnalysisResult is the normalised output of the analysis synthesis pass
// (C4's LLM collaborator call), ready to attach to a MacroEvent via
// MacroEventsRepo.UpdateAnalysis.
type AnalysisResult struct {
	RawFacts            []string
	MetalImpacts        JSONMap
	CryptoTransmission  JSONMap
	HistoricalPrecedent string
	CounterCase         string
}

// PriceBar is a single daily OHLCV observation for a tracked symbol.
type PriceBar struct {
	ID       uuid.UUID       `json:"id" db:"id"`
	Symbol   string          `json:"symbol" db:"symbol"`
	Date     time.Time       `json:"date" db:"date"`
	Open     decimal.Decimal `json:"open" db:"open"`
	High     decimal.Decimal `json:"high" db:"high"`
	Low      decimal.Decimal `json:"low" db:"low"`
	Close    decimal.Decimal `json:"close" db:"close"`
	Volume   int64           `json:"volume" db:"volume"`
	Source   string          `json:"source" db:"source"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// PriceRatio is a derived cross-asset ratio (e.g. gold/silver, SPY/RSP)
// sampled once per trading day, used by the regime classifier and the
// thesis writer for context.
type PriceRatio struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Numerator string          `json:"numerator" db:"numerator"`
	Denominator string        `json:"denominator" db:"denominator"`
	Date      time.Time       `json:"date" db:"date"`
	Ratio     decimal.Decimal `json:"ratio" db:"ratio"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// EconomicEvent is a scheduled macro-series release pulled from the
// economic calendar (CPI, NFP, FOMC decisions, etc).
type EconomicEvent struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Country       string     `json:"country" db:"country"`
	ReleaseAt     time.Time  `json:"release_at" db:"release_at"`
	Importance    string     `json:"importance" db:"importance"`
	Actual        *string    `json:"actual,omitempty" db:"actual"`
	Forecast      *string    `json:"forecast,omitempty" db:"forecast"`
	Previous      *string    `json:"previous,omitempty" db:"previous"`
	Source        string     `json:"source" db:"source"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// CentralBankComm is a single central bank statement or speech, tracked
// against the prior release so a diff of language changes can be rendered.
type CentralBankComm struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Bank         string    `json:"bank" db:"bank"`
	Title        string    `json:"title" db:"title"`
	URL          string    `json:"url" db:"url"`
	PublishedAt  time.Time `json:"published_at" db:"published_at"`
	Body         string    `json:"body" db:"body"`
	ChangeVsPrev string    `json:"change_vs_previous" db:"change_vs_previous"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// MarketContext is a single end-of-day snapshot of the regime-classification
// inputs: volatility, curve shape, credit spreads, and the key cross-asset
// levels the thesis writer quotes directly.
type MarketContext struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	Date                 time.Time       `json:"date" db:"date"`
	VolatilityRegime     string          `json:"volatility_regime" db:"volatility_regime"`
	CurveRegime          string          `json:"curve_regime" db:"curve_regime"`
	CreditRegime         string          `json:"credit_regime" db:"credit_regime"`
	DollarRegime         string          `json:"dollar_regime" db:"dollar_regime"`
	PositionMultiplier   decimal.Decimal `json:"position_multiplier" db:"position_multiplier"`
	VIXLevel             decimal.Decimal `json:"vix_level" db:"vix_level"`
	US10YLevel           decimal.Decimal `json:"us10y_level" db:"us10y_level"`
	US2YLevel            decimal.Decimal `json:"us2y_level" db:"us2y_level"`
	HYOASLevel           decimal.Decimal `json:"hy_oas_level" db:"hy_oas_level"`
	DXYLevel             decimal.Decimal `json:"dxy_level" db:"dxy_level"`
	GoldLevel            decimal.Decimal `json:"gold_level" db:"gold_level"`
	BTCLevel             decimal.Decimal `json:"btc_level" db:"btc_level"`
	SPYRSPRatio          decimal.Decimal `json:"spy_rsp_ratio" db:"spy_rsp_ratio"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
}

// DailyDigest is the idempotent once-per-day rollup of priority events,
// metals levels, the day's high-impact calendar, active theses, and market
// context, rendered to a plain-text briefing and cached by digest_date.
type DailyDigest struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	Date             time.Time       `json:"date" db:"date"`
	Summary          string          `json:"summary" db:"summary"`
	TopEventIDs      []uuid.UUID     `json:"top_event_ids" db:"top_event_ids"`
	MetalsSnapshot   JSONList        `json:"metals_snapshot,omitempty" db:"metals_snapshot"`
	EconomicCalendar JSONList        `json:"economic_calendar,omitempty" db:"economic_calendar"`
	ActiveTheses     JSONList        `json:"active_theses,omitempty" db:"active_theses"`
	Briefing         string          `json:"briefing,omitempty" db:"briefing"`
	MarketContext    *MarketContext  `json:"market_context,omitempty" db:"-"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// Thesis lifecycle states. ListActive excludes the three terminal states.
const (
	ThesisStatusOpen      = "open"
	ThesisStatusMonitoring = "monitoring"
	ThesisStatusClosed    = "closed"
	ThesisStatusDismissed = "dismissed"
	ThesisStatusArchived  = "archived"
)

// Thesis is the synthesized trade write-up produced for a priority-tier
// MacroEvent: conviction, candidate instruments, time horizons, and the
// historical precedent it leans on.
type Thesis struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	MacroEventID     uuid.UUID  `json:"macro_event_id" db:"macro_event_id"`
	ConvictionLevel  string     `json:"conviction_level" db:"conviction_level"`
	ConvictionScore  int        `json:"conviction_score" db:"conviction_score"`
	Narrative        string     `json:"narrative" db:"narrative"`
	PrimaryAssets    []string   `json:"primary_assets" db:"primary_assets"`
	SecondaryAssets  []string   `json:"secondary_assets" db:"secondary_assets"`
	HistoricalCaseID *uuid.UUID `json:"historical_case_id,omitempty" db:"historical_case_id"`
	Status           string     `json:"status" db:"status"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// MetalsKnowledgeEntry is one curated fact sheet about a single metal,
// categorized the way the seed data organizes it (supply_chain, use_cases,
// patterns, correlations, actors). Content is schema-light: some
// categories are JSON objects, others plain lists.
type MetalsKnowledgeEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Metal     string    `json:"metal" db:"metal"`
	Category  string    `json:"category" db:"category"`
	Content   JSONValue `json:"content" db:"content"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
