// Package digest composes the once-per-day rollup of priority events,
// metals levels, the day's high-impact calendar, active theses, and market
// context into a single idempotent row, grounded on the batch-composition
// shape of original_source's digest generation and rendered the way
// internal/horizon and internal/conviction format their own prompt text.
package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/persistence"
)

// metalSymbols are the three futures tracked in the metals snapshot, in the
// order they're rendered.
var metalSymbols = []string{"GC=F", "SI=F", "HG=F"}

var metalLabels = map[string]string{
	"GC=F": "Gold",
	"SI=F": "Silver",
	"HG=F": "Copper",
}

const maxPriorityEvents = 10
const maxActiveTheses = 10

// Composer builds and persists a DailyDigest for a given calendar date.
type Composer struct {
	repo *persistence.Repository
}

// New builds a Composer over the given repository aggregate.
func New(repo *persistence.Repository) *Composer {
	return &Composer{repo: repo}
}

// Compose returns the digest for digestDate, computing and persisting it if
// one doesn't already exist. Digest generation is idempotent: a second call
// for the same date returns the cached row instead of recomputing it.
func (c *Composer) Compose(ctx context.Context, digestDate time.Time) (domain.DailyDigest, error) {
	date := time.Date(digestDate.Year(), digestDate.Month(), digestDate.Day(), 0, 0, 0, 0, time.UTC)

	existing, err := c.repo.DailyDigests.GetOrNil(ctx, date)
	if err != nil {
		return domain.DailyDigest{}, fmt.Errorf("digest: check cached digest: %w", err)
	}
	if existing != nil {
		return *existing, nil
	}

	window := persistence.TimeRange{From: date, To: date.Add(24 * time.Hour)}

	priority, err := c.priorityEvents(ctx, window)
	if err != nil {
		return domain.DailyDigest{}, err
	}

	metals, err := c.metalsSnapshot(ctx, date)
	if err != nil {
		return domain.DailyDigest{}, err
	}

	calendar, err := c.economicCalendar(ctx, window)
	if err != nil {
		return domain.DailyDigest{}, err
	}

	theses, err := c.activeTheses(ctx)
	if err != nil {
		return domain.DailyDigest{}, err
	}

	marketCtx, err := c.repo.MarketContext.Latest(ctx)
	if err != nil {
		return domain.DailyDigest{}, fmt.Errorf("digest: latest market context: %w", err)
	}

	d := domain.DailyDigest{
		Date:             date,
		Summary:          summarize(priority, calendar, theses),
		TopEventIDs:      eventIDs(priority),
		MetalsSnapshot:   toJSONList(metals),
		EconomicCalendar: toJSONList(calendar),
		ActiveTheses:     toJSONList(theses),
		MarketContext:    marketCtx,
	}
	d.Briefing = renderBriefing(d, priority, metals, calendar, theses, marketCtx)

	created, err := c.repo.DailyDigests.Create(ctx, d)
	if err != nil {
		return domain.DailyDigest{}, fmt.Errorf("digest: persist digest: %w", err)
	}
	created.MarketContext = marketCtx
	return created, nil
}

// priorityEvents returns up to maxPriorityEvents flagged events published in
// window, ordered by significance desc then recency.
func (c *Composer) priorityEvents(ctx context.Context, window persistence.TimeRange) ([]domain.MacroEvent, error) {
	events, err := c.repo.MacroEvents.ListPriority(ctx, window.From)
	if err != nil {
		return nil, fmt.Errorf("digest: list priority events: %w", err)
	}

	filtered := make([]domain.MacroEvent, 0, len(events))
	for _, e := range events {
		ts := e.PublishedAt
		if ts.IsZero() {
			ts = e.CreatedAt
		}
		if !ts.Before(window.From) && ts.Before(window.To) {
			filtered = append(filtered, e)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		si, sj := significanceOf(filtered[i]), significanceOf(filtered[j])
		if si != sj {
			return si > sj
		}
		return filtered[i].PublishedAt.After(filtered[j].PublishedAt)
	})

	if len(filtered) > maxPriorityEvents {
		filtered = filtered[:maxPriorityEvents]
	}
	return filtered, nil
}

func significanceOf(e domain.MacroEvent) int {
	if e.Significance == nil {
		return 0
	}
	return *e.Significance
}

// metalEntry is one {price, change_percent, as_of} row in the metals
// snapshot, plus the synthetic gold/silver ratio entry.
type metalEntry struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	AsOf          time.Time       `json:"as_of"`
}

// metalsSnapshot fetches the latest two closes on or before digestDate for
// each tracked metal, computes the day-over-day change percent, and
// appends the gold/silver ratio derived from the two latest closes.
func (c *Composer) metalsSnapshot(ctx context.Context, digestDate time.Time) ([]metalEntry, error) {
	closes := map[string][]domain.PriceBar{}
	out := make([]metalEntry, 0, len(metalSymbols)+1)

	for _, symbol := range metalSymbols {
		bars, err := c.repo.Prices.ListBySymbol(ctx, symbol, persistence.TimeRange{
			From: digestDate.AddDate(0, 0, -30),
			To:   digestDate,
		})
		if err != nil {
			return nil, fmt.Errorf("digest: list prices for %s: %w", symbol, err)
		}
		if len(bars) == 0 {
			continue
		}
		sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
		if len(bars) > 2 {
			bars = bars[len(bars)-2:]
		}
		closes[symbol] = bars

		latest := bars[len(bars)-1]
		entry := metalEntry{
			Symbol: symbol,
			Price:  latest.Close.Round(2),
			AsOf:   latest.Date,
		}
		if len(bars) == 2 {
			prev := bars[0]
			if !prev.Close.IsZero() {
				entry.ChangePercent = latest.Close.Sub(prev.Close).Div(prev.Close).Mul(decimal.NewFromInt(100)).Round(2)
			}
		}
		out = append(out, entry)
	}

	if gold, ok := closes["GC=F"]; ok && len(gold) > 0 {
		if silver, ok := closes["SI=F"]; ok && len(silver) > 0 && !silver[len(silver)-1].Close.IsZero() {
			ratio := gold[len(gold)-1].Close.Div(silver[len(silver)-1].Close).Round(2)
			out = append(out, metalEntry{Symbol: "GC=F/SI=F", Price: ratio, AsOf: gold[len(gold)-1].Date})
		}
	}

	return out, nil
}

// economicCalendar returns every high-impact release in window, ascending
// by release time.
func (c *Composer) economicCalendar(ctx context.Context, window persistence.TimeRange) ([]domain.EconomicEvent, error) {
	events, err := c.repo.EconomicEvents.ListByRange(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("digest: list economic events: %w", err)
	}
	out := make([]domain.EconomicEvent, 0, len(events))
	for _, e := range events {
		if e.Importance == "high" {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *Composer) activeTheses(ctx context.Context) ([]domain.Thesis, error) {
	theses, err := c.repo.Theses.ListActive(ctx, maxActiveTheses)
	if err != nil {
		return nil, fmt.Errorf("digest: list active theses: %w", err)
	}
	return theses, nil
}

func eventIDs(events []domain.MacroEvent) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

// toJSONList converts one of the digest's section slices (metals, economic
// events, theses) into the generic domain.JSONList a digest row stores,
// building one map per element field by field; any other type yields nil.
func toJSONList(v interface{}) domain.JSONList {
	switch items := v.(type) {
	case []metalEntry:
		out := make(domain.JSONList, 0, len(items))
		for _, e := range items {
			out = append(out, map[string]interface{}{
				"symbol":         e.Symbol,
				"price":          e.Price.String(),
				"change_percent": e.ChangePercent.String(),
				"as_of":          e.AsOf,
			})
		}
		return out
	case []domain.EconomicEvent:
		out := make(domain.JSONList, 0, len(items))
		for _, e := range items {
			out = append(out, map[string]interface{}{
				"id":         e.ID,
				"name":       e.Name,
				"country":    e.Country,
				"release_at": e.ReleaseAt,
				"importance": e.Importance,
				"actual":     e.Actual,
				"forecast":   e.Forecast,
				"previous":   e.Previous,
			})
		}
		return out
	case []domain.Thesis:
		out := make(domain.JSONList, 0, len(items))
		for _, t := range items {
			out = append(out, map[string]interface{}{
				"id":               t.ID,
				"macro_event_id":   t.MacroEventID,
				"conviction_level": t.ConvictionLevel,
				"conviction_score": t.ConvictionScore,
				"narrative":        t.Narrative,
				"primary_assets":   t.PrimaryAssets,
				"status":           t.Status,
				"updated_at":       t.UpdatedAt,
			})
		}
		return out
	default:
		return nil
	}
}

func summarize(priority []domain.MacroEvent, calendar []domain.EconomicEvent, theses []domain.Thesis) string {
	return fmt.Sprintf("%d priority events, %d high-impact releases, %d active theses", len(priority), len(calendar), len(theses))
}

// renderBriefing produces the plain-text digest: header, regimes, priority
// events, metals, calendar, and theses, in that order.
func renderBriefing(d domain.DailyDigest, priority []domain.MacroEvent, metals []metalEntry, calendar []domain.EconomicEvent, theses []domain.Thesis, marketCtx *domain.MarketContext) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("=== MERIDIAN DAILY DIGEST — %s ===\n\n", d.Date.Format("2006-01-02")))

	if marketCtx != nil {
		b.WriteString("REGIME\n")
		b.WriteString(fmt.Sprintf("  Volatility: %s | Curve: %s | Credit: %s | Dollar: %s\n",
			marketCtx.VolatilityRegime, marketCtx.CurveRegime, marketCtx.CreditRegime, marketCtx.DollarRegime))
		b.WriteString(fmt.Sprintf("  Position multiplier: %s\n\n", marketCtx.PositionMultiplier.String()))
	}

	b.WriteString(fmt.Sprintf("PRIORITY EVENTS (%d)\n", len(priority)))
	for _, e := range priority {
		tier := e.Tier
		if tier == "" {
			tier = "unscored"
		}
		b.WriteString(fmt.Sprintf("  [%s] %s (%s)\n", tier, e.Headline, e.Source))
	}
	b.WriteString("\n")

	b.WriteString("METALS SNAPSHOT\n")
	for _, m := range metals {
		label := metalLabels[m.Symbol]
		if label == "" {
			label = m.Symbol
		}
		b.WriteString(fmt.Sprintf("  %s: %s (%s%%)\n", label, m.Price.String(), m.ChangePercent.String()))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("ECONOMIC CALENDAR (%d high-impact)\n", len(calendar)))
	for _, e := range calendar {
		b.WriteString(fmt.Sprintf("  %s  %s (%s)\n", e.ReleaseAt.Format("15:04 MST"), e.Name, e.Country))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("ACTIVE THESES (%d)\n", len(theses)))
	for _, t := range theses {
		b.WriteString(fmt.Sprintf("  [%s] %s — %s\n", t.ConvictionLevel, strings.Join(t.PrimaryAssets, "/"), t.Narrative))
	}

	return b.String()
}
