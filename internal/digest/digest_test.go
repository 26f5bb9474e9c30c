package digest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/persistence"
)

type fakeMacroEvents struct {
	persistence.MacroEventsRepo
	priority []domain.MacroEvent
}

func (f *fakeMacroEvents) ListPriority(ctx context.Context, date time.Time) ([]domain.MacroEvent, error) {
	return f.priority, nil
}

type fakePrices struct {
	persistence.PricesRepo
	bySymbol map[string][]domain.PriceBar
}

func (f *fakePrices) ListBySymbol(ctx context.Context, symbol string, r persistence.TimeRange) ([]domain.PriceBar, error) {
	return f.bySymbol[symbol], nil
}

type fakeEconomicEvents struct {
	persistence.EconomicEventsRepo
	events []domain.EconomicEvent
}

func (f *fakeEconomicEvents) ListByRange(ctx context.Context, r persistence.TimeRange) ([]domain.EconomicEvent, error) {
	return f.events, nil
}

type fakeTheses struct {
	persistence.ThesesRepo
	active []domain.Thesis
}

func (f *fakeTheses) ListActive(ctx context.Context, limit int) ([]domain.Thesis, error) {
	return f.active, nil
}

type fakeMarketContext struct {
	persistence.MarketContextRepo
	latest *domain.MarketContext
}

func (f *fakeMarketContext) Latest(ctx context.Context) (*domain.MarketContext, error) {
	return f.latest, nil
}

type fakeDailyDigests struct {
	persistence.DailyDigestsRepo
	stored map[string]domain.DailyDigest
}

func (f *fakeDailyDigests) GetOrNil(ctx context.Context, date time.Time) (*domain.DailyDigest, error) {
	if d, ok := f.stored[date.Format("2006-01-02")]; ok {
		return &d, nil
	}
	return nil, nil
}

func (f *fakeDailyDigests) Create(ctx context.Context, d domain.DailyDigest) (domain.DailyDigest, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	if f.stored == nil {
		f.stored = map[string]domain.DailyDigest{}
	}
	f.stored[d.Date.Format("2006-01-02")] = d
	return d, nil
}

func digestDate() time.Time {
	return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
}

func bar(symbol string, daysAgo int, close string) domain.PriceBar {
	c, _ := decimal.NewFromString(close)
	return domain.PriceBar{
		Symbol: symbol,
		Date:   digestDate().AddDate(0, 0, -daysAgo),
		Close:  c,
	}
}

func newComposer(t *testing.T) (*Composer, *fakeDailyDigests) {
	t.Helper()
	dd := &fakeDailyDigests{}
	repo := &persistence.Repository{
		MacroEvents: &fakeMacroEvents{priority: []domain.MacroEvent{
			{ID: uuid.New(), Headline: "Fed surprise hike", Source: "reuters", Tier: "critical",
				PublishedAt: digestDate().Add(2 * time.Hour), Significance: intPtr(90), PriorityFlag: true},
			{ID: uuid.New(), Headline: "ECB holds rates", Source: "reuters", Tier: "high",
				PublishedAt: digestDate().Add(1 * time.Hour), Significance: intPtr(60), PriorityFlag: true},
		}},
		Prices: &fakePrices{bySymbol: map[string][]domain.PriceBar{
			"GC=F": {bar("GC=F", 1, "2000.00"), bar("GC=F", 0, "2020.00")},
			"SI=F": {bar("SI=F", 1, "25.00"), bar("SI=F", 0, "25.50")},
			"HG=F": {bar("HG=F", 0, "4.10")},
		}},
		EconomicEvents: &fakeEconomicEvents{events: []domain.EconomicEvent{
			{ID: uuid.New(), Name: "CPI", Country: "US", Importance: "high", ReleaseAt: digestDate().Add(3 * time.Hour)},
			{ID: uuid.New(), Name: "Retail Sales", Country: "US", Importance: "medium", ReleaseAt: digestDate().Add(4 * time.Hour)},
		}},
		Theses: &fakeTheses{active: []domain.Thesis{
			{ID: uuid.New(), ConvictionLevel: "HIGH", PrimaryAssets: []string{"GLD"}, Narrative: "flight to safety", Status: domain.ThesisStatusOpen},
		}},
		MarketContext: &fakeMarketContext{latest: &domain.MarketContext{
			VolatilityRegime: "elevated", CurveRegime: "flat", CreditRegime: "benign", DollarRegime: "strong",
			PositionMultiplier: decimal.NewFromFloat(0.75),
		}},
		DailyDigests: dd,
	}
	return New(repo), dd
}

func intPtr(v int) *int { return &v }

func TestComposeBuildsAllSixSections(t *testing.T) {
	c, _ := newComposer(t)
	d, err := c.Compose(context.Background(), digestDate())
	require.NoError(t, err)

	assert.Len(t, d.TopEventIDs, 2)
	assert.Len(t, d.MetalsSnapshot, 4) // gold, silver, copper, ratio
	assert.Len(t, d.EconomicCalendar, 1)
	assert.Len(t, d.ActiveTheses, 1)
	assert.NotEmpty(t, d.Briefing)
	assert.Contains(t, d.Briefing, "Fed surprise hike")
	assert.Contains(t, d.Briefing, "CPI")
}

func TestComposeOrdersPriorityEventsBySignificanceDesc(t *testing.T) {
	c, _ := newComposer(t)
	events, err := c.priorityEvents(context.Background(), persistence.TimeRange{
		From: digestDate(), To: digestDate().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Fed surprise hike", events[0].Headline)
	assert.Equal(t, "ECB holds rates", events[1].Headline)
}

func TestComposeIsIdempotentPerDate(t *testing.T) {
	c, dd := newComposer(t)
	first, err := c.Compose(context.Background(), digestDate())
	require.NoError(t, err)

	dd.stored[digestDate().Format("2006-01-02")] = first

	second, err := c.Compose(context.Background(), digestDate())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestMetalsSnapshotIncludesGoldSilverRatio(t *testing.T) {
	c, _ := newComposer(t)
	snapshot, err := c.metalsSnapshot(context.Background(), digestDate())
	require.NoError(t, err)
	require.Len(t, snapshot, 4)

	var gold, ratio *metalEntry
	for i := range snapshot {
		switch snapshot[i].Symbol {
		case "GC=F":
			gold = &snapshot[i]
		case "GC=F/SI=F":
			ratio = &snapshot[i]
		}
	}
	require.NotNil(t, gold)
	require.NotNil(t, ratio)
	assert.Equal(t, "2020.00", gold.Price.StringFixed(2))
	assert.Equal(t, "79.22", ratio.Price.String())
}
