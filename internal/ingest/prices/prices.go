// Package prices fetches daily OHLCV bars for the core metals watchlist
// from Yahoo Finance's chart endpoint and derives the gold/silver ratio,
// grounded on ingestion/prices.py's fetch_yahoo_chart/parse_yahoo_chart and
// build_ratio_series. JSON decoding goes through httpfetch.ClientPool's
// retrying client instead of a bare http.Get.
package prices

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/httpfetch"
	"github.com/satriapamudji/meridian/internal/persistence"
	"github.com/satriapamudji/meridian/internal/providers"
)

// CoreSymbols are the three futures Meridian always tracks.
var CoreSymbols = []string{"GC=F", "SI=F", "HG=F"}

// DefaultLookbackDays mirrors ingestion/prices.py's DEFAULT_LOOKBACK_DAYS.
const DefaultLookbackDays = 10

// Poller fetches Yahoo Finance chart data and persists it as PriceBars,
// refreshing the gold/silver ratio each time both legs have fresh data.
type Poller struct {
	pool     *httpfetch.ClientPool
	limiters *providers.LimiterRegistry
	breakers *providers.BreakerRegistry
	prices   persistence.PricesRepo
	ratios   persistence.PriceRatiosRepo
	log      zerolog.Logger
}

// NewPoller wires a prices poller against the shared rate limiter and
// circuit breaker registries under the "prices" source budget.
func NewPoller(pool *httpfetch.ClientPool, limiters *providers.LimiterRegistry, breakers *providers.BreakerRegistry, prices persistence.PricesRepo, ratios persistence.PriceRatiosRepo, log zerolog.Logger) *Poller {
	return &Poller{
		pool:     pool,
		limiters: limiters,
		breakers: breakers,
		prices:   prices,
		ratios:   ratios,
		log:      log.With().Str("component", "prices").Logger(),
	}
}

// Result is the outcome of polling a single symbol.
type Result struct {
	Symbol string
	Bars   int
	Err    error
}

// PollAll fetches lookbackDays of history for every symbol, upserts the
// resulting bars, then recomputes the gold/silver ratio from whatever
// latest closes are now on file. A lookbackDays of 0 uses
// DefaultLookbackDays; a nil symbols list polls CoreSymbols.
func (p *Poller) PollAll(ctx context.Context, symbols []string, lookbackDays int) map[string]Result {
	if len(symbols) == 0 {
		symbols = CoreSymbols
	}
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	results := make(map[string]Result, len(symbols))
	for _, symbol := range symbols {
		results[symbol] = p.pollOne(ctx, symbol, lookbackDays)
	}

	if err := p.refreshGoldSilverRatio(ctx); err != nil {
		p.log.Warn().Err(err).Msg("failed to refresh gold/silver ratio")
	}
	return results
}

func (p *Poller) pollOne(ctx context.Context, symbol string, lookbackDays int) Result {
	if err := p.limiters.Wait(ctx, "prices"); err != nil {
		return Result{Symbol: symbol, Err: fmt.Errorf("prices: rate limiter wait: %w", err)}
	}

	var bars []domain.PriceBar
	_, err := p.breakers.Execute("prices", func() (interface{}, error) {
		end := time.Now().UTC()
		start := end.AddDate(0, 0, -lookbackDays)

		parsed, err := FetchChart(ctx, p.pool, symbol, start, end)
		if err != nil {
			return nil, err
		}
		bars = parsed
		return nil, nil
	})
	if err != nil {
		return Result{Symbol: symbol, Err: err}
	}
	if len(bars) == 0 {
		p.log.Warn().Str("symbol", symbol).Msg("no bars returned")
		return Result{Symbol: symbol}
	}

	n, err := p.prices.UpsertBatch(ctx, bars)
	if err != nil {
		return Result{Symbol: symbol, Err: fmt.Errorf("prices: store bars for %s: %w", symbol, err)}
	}
	p.log.Info().Str("symbol", symbol).Int("bars", n).Msg("prices poll complete")
	return Result{Symbol: symbol, Bars: n}
}

// refreshGoldSilverRatio recomputes the GC=F/SI=F ratio from the latest bar
// on file for each leg, the way build_ratio_series derives the ratio
// series from two already-fetched price series rather than re-fetching.
func (p *Poller) refreshGoldSilverRatio(ctx context.Context) error {
	gold, err := p.prices.LatestBySymbol(ctx, "GC=F")
	if err != nil {
		return fmt.Errorf("prices: latest GC=F: %w", err)
	}
	silver, err := p.prices.LatestBySymbol(ctx, "SI=F")
	if err != nil {
		return fmt.Errorf("prices: latest SI=F: %w", err)
	}
	if gold == nil || silver == nil || silver.Close.IsZero() {
		return nil
	}

	date := gold.Date
	if silver.Date.Before(date) {
		date = silver.Date
	}
	ratio := domain.PriceRatio{
		Numerator:   "GC=F",
		Denominator: "SI=F",
		Date:        date,
		Ratio:       gold.Close.Div(silver.Close),
	}
	if _, err := p.ratios.UpsertBatch(ctx, []domain.PriceRatio{ratio}); err != nil {
		return fmt.Errorf("prices: store gold/silver ratio: %w", err)
	}
	return nil
}

// FetchChart fetches and parses one symbol's daily bars from Yahoo's chart
// endpoint over [start, end]. Exported so internal/ingest/snapshot can pull
// watchlist symbols outside the core metals set through the same client
// pool and parser, the way market_context.py imports fetch_yahoo_chart and
// parse_yahoo_chart directly from ingestion.prices rather than duplicating
// them.
func FetchChart(ctx context.Context, pool *httpfetch.ClientPool, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	var payload yahooChartResponse
	if err := pool.GetJSON(ctx, buildYahooChartURL(symbol, start, end), nil, &payload); err != nil {
		return nil, fmt.Errorf("prices: fetch %s: %w", symbol, err)
	}
	return parseYahooChart(payload, symbol)
}

func buildYahooChartURL(symbol string, start, end time.Time) string {
	return fmt.Sprintf(
		"https://query1.finance.yahoo.com/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&includeAdjustedClose=true",
		url.QueryEscape(symbol), start.Unix(), end.Unix(),
	)
}

// yahooChartResponse mirrors the subset of Yahoo's chart JSON
// parse_yahoo_chart reads: a single result with parallel timestamp and
// OHLCV arrays. Any array entry can be null on a day the symbol didn't
// trade, hence the pointer element types.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
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
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func parseYahooChart(payload yahooChartResponse, symbol string) ([]domain.PriceBar, error) {
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("prices: yahoo chart error for %s: %s", symbol, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]domain.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if !has(quote.Close, i) || quote.Close[i] == nil {
			continue
		}
		bar := domain.PriceBar{
			Symbol: symbol,
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close:  decimal.NewFromFloat(*quote.Close[i]),
			Source: "yahoo",
		}
		if has(quote.Open, i) && quote.Open[i] != nil {
			bar.Open = decimal.NewFromFloat(*quote.Open[i])
		}
		if has(quote.High, i) && quote.High[i] != nil {
			bar.High = decimal.NewFromFloat(*quote.High[i])
		}
		if has(quote.Low, i) && quote.Low[i] != nil {
			bar.Low = decimal.NewFromFloat(*quote.Low[i])
		}
		if has(quote.Volume, i) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func has[T any](s []T, i int) bool {
	return i >= 0 && i < len(s)
}
