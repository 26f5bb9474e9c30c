// Package snapshot builds the once-per-day MarketContext row: it fetches
// the core cross-asset watchlist from Yahoo Finance, reads the FRED series
// the fred poller already wrote, derives the SPY/RSP ratio, classifies the
// four regimes via internal/regime, and upserts the result. Grounded on
// ingestion/market_context.py's fetch_market_snapshot/extract_key_levels,
// which does the same Yahoo-plus-FRED fan-in and calculate_ratios pass.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/httpfetch"
	"github.com/satriapamudji/meridian/internal/ingest/prices"
	"github.com/satriapamudji/meridian/internal/persistence"
	"github.com/satriapamudji/meridian/internal/providers"
	"github.com/satriapamudji/meridian/internal/regime"
)

// yahooWatchlist are the instruments extract_key_levels reads
// directly from Yahoo: VIX, the dollar index, the 10y yield (quoted x10 by
// Yahoo's ^TNX), gold, crude, the S&P, bitcoin, and the SPY/RSP pair used
// for the breadth ratio.
var yahooWatchlist = []string{"^VIX", "DX=F", "^TNX", "GC=F", "CL=F", "^GSPC", "BTC-USD", "SPY", "RSP"}

// fredWatchlist are the series the fred poller is expected to have already
// written to PricesRepo under their series ID as symbol.
var fredWatchlist = []string{"DGS2", "T10Y2Y", "BAMLH0A0HYM2"}

// DefaultLookbackDays bounds the Yahoo fetch window for the watchlist.
const DefaultLookbackDays = 5

// Poller builds and persists the daily MarketContext snapshot.
type Poller struct {
	pool      *httpfetch.ClientPool
	limiters  *providers.LimiterRegistry
	breakers  *providers.BreakerRegistry
	prices    persistence.PricesRepo
	marketCtx persistence.MarketContextRepo
	log       zerolog.Logger
}

// NewPoller wires a snapshot poller against the shared rate limiter and
// circuit breaker registries, reusing the "prices" source budget since it
// fans out to the same Yahoo endpoint.
func NewPoller(pool *httpfetch.ClientPool, limiters *providers.LimiterRegistry, breakers *providers.BreakerRegistry, pricesRepo persistence.PricesRepo, marketCtxRepo persistence.MarketContextRepo, log zerolog.Logger) *Poller {
	return &Poller{
		pool:      pool,
		limiters:  limiters,
		breakers:  breakers,
		prices:    pricesRepo,
		marketCtx: marketCtxRepo,
		log:       log.With().Str("component", "snapshot").Logger(),
	}
}

// Compose fetches the watchlist, classifies the day's regimes, and
// persists the snapshot for date, upserting on conflict the way every
// other once-per-day table in this package does.
func (p *Poller) Compose(ctx context.Context, date time.Time) (domain.MarketContext, error) {
	levels, errs := p.fetchYahooWatchlist(ctx)
	for _, e := range errs {
		p.log.Warn().Err(e).Msg("yahoo watchlist symbol unavailable")
	}

	fredLevels, err := p.latestFredLevels(ctx)
	if err != nil {
		return domain.MarketContext{}, err
	}

	snap := regime.ClassifySnapshot(regime.Snapshot{
		VIXLevel:   toFloatPtr(levels["^VIX"]),
		DXYLevel:   toFloatPtr(levels["DX=F"]),
		US10Y:      tenYearYield(levels["^TNX"]),
		US2Y:       toFloatPtr(fredLevels["DGS2"]),
		HYOASLevel: toFloatPtr(fredLevels["BAMLH0A0HYM2"]),
	})

	ctxRow := domain.MarketContext{
		Date:               time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		VolatilityRegime:   snap.VolatilityRegime,
		CurveRegime:        snap.CurveRegime,
		CreditRegime:       snap.CreditRegime,
		DollarRegime:       snap.DollarRegime,
		PositionMultiplier: snap.PositionMultiplier,
	}
	if v, ok := levels["^VIX"]; ok {
		ctxRow.VIXLevel = v
	}
	if v, ok := levels["DX=F"]; ok {
		ctxRow.DXYLevel = v
	}
	if v, ok := levels["GC=F"]; ok {
		ctxRow.GoldLevel = v
	}
	if v, ok := levels["BTC-USD"]; ok {
		ctxRow.BTCLevel = v
	}
	if v, ok := fredLevels["DGS2"]; ok {
		ctxRow.US2YLevel = v
	}
	if v, ok := levels["^TNX"]; ok {
		ctxRow.US10YLevel = v.Div(decimal.NewFromInt(10))
	}
	if v, ok := fredLevels["BAMLH0A0HYM2"]; ok {
		ctxRow.HYOASLevel = v
	}
	if spy, ok := levels["SPY"]; ok {
		if rsp, ok := levels["RSP"]; ok && !rsp.IsZero() {
			ctxRow.SPYRSPRatio = spy.Div(rsp).Round(4)
		}
	}

	stored, err := p.marketCtx.Upsert(ctx, ctxRow)
	if err != nil {
		return domain.MarketContext{}, fmt.Errorf("snapshot: persist market context: %w", err)
	}
	return stored, nil
}

// fetchYahooWatchlist fetches the latest close for every symbol in
// yahooWatchlist, continuing past per-symbol failures the way
// fetch_yahoo_batch collects errors instead of aborting the whole batch.
func (p *Poller) fetchYahooWatchlist(ctx context.Context) (map[string]decimal.Decimal, []error) {
	levels := make(map[string]decimal.Decimal, len(yahooWatchlist))
	var errs []error

	for _, symbol := range yahooWatchlist {
		if err := p.limiters.Wait(ctx, "prices"); err != nil {
			errs = append(errs, fmt.Errorf("snapshot: rate limiter wait for %s: %w", symbol, err))
			continue
		}

		var bars []domain.PriceBar
		_, err := p.breakers.Execute("prices", func() (interface{}, error) {
			end := time.Now().UTC()
			start := end.AddDate(0, 0, -DefaultLookbackDays)
			fetched, fetchErr := prices.FetchChart(ctx, p.pool, symbol, start, end)
			bars = fetched
			return nil, fetchErr
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("snapshot: fetch %s: %w", symbol, err))
			continue
		}
		if len(bars) == 0 {
			errs = append(errs, fmt.Errorf("snapshot: no data for %s", symbol))
			continue
		}
		levels[symbol] = bars[len(bars)-1].Close
	}
	return levels, errs
}

// latestFredLevels reads the most recent value the fred poller wrote for
// each watched series.
func (p *Poller) latestFredLevels(ctx context.Context) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(fredWatchlist))
	for _, series := range fredWatchlist {
		bar, err := p.prices.LatestBySymbol(ctx, series)
		if err != nil {
			return nil, fmt.Errorf("snapshot: latest %s: %w", series, err)
		}
		if bar != nil {
			out[series] = bar.Close
		}
	}
	return out, nil
}

func toFloatPtr(d decimal.Decimal) *float64 {
	if d.IsZero() {
		return nil
	}
	v, _ := d.Float64()
	return &v
}

// tenYearYield converts Yahoo's ^TNX quote, which is the yield times ten,
// back to a percentage before it feeds the curve classifier.
func tenYearYield(tnx decimal.Decimal) *float64 {
	if tnx.IsZero() {
		return nil
	}
	v, _ := tnx.Div(decimal.NewFromInt(10)).Float64()
	return &v
}
