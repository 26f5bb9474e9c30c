package prices

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/persistence"
)

func f(v float64) *float64 { return &v }
func i(v int64) *int64     { return &v }

func TestParseYahooChartSkipsNullCloses(t *testing.T) {
	payload := yahooChartResponse{}
	payload.Chart.Result = []struct {
		Timestamp  []int64 `json:"timestamp"`
		Indicators struct {
			Quote []struct {
				Open   []*float64 `json:"open"`
				High   []*float64 `json:"high"`
				Low    []*float64 `json:"low"`
				Close  []*float64 `json:"close"`
				Volume []*int64   `json:"volume"`
			} `json:"quote"`
		} `json:"indicators"`
	}{{
		Timestamp: []int64{1700000000, 1700086400},
	}}
	payload.Chart.Result[0].Indicators.Quote = []struct {
		Open   []*float64 `json:"open"`
		High   []*float64 `json:"high"`
		Low    []*float64 `json:"low"`
		Close  []*float64 `json:"close"`
		Volume []*int64   `json:"volume"`
	}{{
		Open:   []*float64{f(2000.0), nil},
		High:   []*float64{f(2010.0), nil},
		Low:    []*float64{f(1990.0), nil},
		Close:  []*float64{f(2005.0), nil},
		Volume: []*int64{i(1000), nil},
	}}

	bars, err := parseYahooChart(payload, "GC=F")
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, "GC=F", bars[0].Symbol)
	assert.True(t, bars[0].Close.Equal(decimal.NewFromFloat(2005.0)))
}

func TestParseYahooChartReturnsErrorOnChartError(t *testing.T) {
	payload := yahooChartResponse{}
	payload.Chart.Error = &struct {
		Description string `json:"description"`
	}{Description: "Not Found"}

	_, err := parseYahooChart(payload, "BAD=F")
	assert.Error(t, err)
}

func TestBuildYahooChartURLIncludesSymbolAndWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	got := buildYahooChartURL("GC=F", start, end)
	assert.Contains(t, got, "query1.finance.yahoo.com/v8/finance/chart/GC%3DF")
	assert.Contains(t, got, "interval=1d")
	assert.Contains(t, got, "includeAdjustedClose=true")
}

type fakePrices struct {
	persistence.PricesRepo
	latest map[string]*domain.PriceBar
}

func (f *fakePrices) LatestBySymbol(ctx context.Context, symbol string) (*domain.PriceBar, error) {
	return f.latest[symbol], nil
}

type fakeRatios struct {
	persistence.PriceRatiosRepo
	stored []domain.PriceRatio
}

func (f *fakeRatios) UpsertBatch(ctx context.Context, ratios []domain.PriceRatio) (int, error) {
	f.stored = append(f.stored, ratios...)
	return len(ratios), nil
}

func TestRefreshGoldSilverRatioSkipsWhenLegMissing(t *testing.T) {
	ratios := &fakeRatios{}
	p := &Poller{
		prices: &fakePrices{latest: map[string]*domain.PriceBar{"GC=F": {Close: decimal.NewFromFloat(2000)}}},
		ratios: ratios,
	}
	require.NoError(t, p.refreshGoldSilverRatio(context.Background()))
	assert.Empty(t, ratios.stored)
}

func TestRefreshGoldSilverRatioComputesRatio(t *testing.T) {
	ratios := &fakeRatios{}
	p := &Poller{
		prices: &fakePrices{latest: map[string]*domain.PriceBar{
			"GC=F": {Close: decimal.NewFromFloat(2000), Date: time.Now()},
			"SI=F": {Close: decimal.NewFromFloat(25), Date: time.Now()},
		}},
		ratios: ratios,
	}
	require.NoError(t, p.refreshGoldSilverRatio(context.Background()))
	require.Len(t, ratios.stored, 1)
	assert.Equal(t, "80", ratios.stored[0].Ratio.String())
}
