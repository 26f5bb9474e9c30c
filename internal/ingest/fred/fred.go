// Package fred fetches macro series (yield levels, credit spreads, the
// VIX) from the St. Louis Fed's FRED API and stores them as PriceBars
// keyed by series ID, grounded on ingestion/prices.py's
// fetch_fred_series/parse_fred_observations. FRED represents a missing
// observation with the literal string ".", which parseFredObservations
// filters the same way the original does.
package fred

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/httpfetch"
	"github.com/satriapamudji/meridian/internal/persistence"
	"github.com/satriapamudji/meridian/internal/providers"
)

// BaseURL is FRED's REST API root.
const BaseURL = "https://api.stlouisfed.org/fred"

// DefaultSeries are the macro series the regime classifier and market
// context snapshot consume: the 10y and 2y Treasury yields, the 2s10s
// spread, the ICE BofA high-yield OAS, and the VIX.
var DefaultSeries = []string{"DGS10", "DGS2", "T10Y2Y", "BAMLH0A0HYM2", "VIXCLS"}

// DefaultLookbackDays bounds how far back an observation window reaches
// when the caller doesn't specify one.
const DefaultLookbackDays = 10

// Poller fetches FRED series observations and persists the latest values
// as PriceBars, using the series ID as the symbol.
type Poller struct {
	pool     *httpfetch.ClientPool
	limiters *providers.LimiterRegistry
	breakers *providers.BreakerRegistry
	prices   persistence.PricesRepo
	apiKey   string
	log      zerolog.Logger
}

// NewPoller wires a FRED poller against the shared rate limiter and
// circuit breaker registries under the "fred" source budget.
func NewPoller(pool *httpfetch.ClientPool, limiters *providers.LimiterRegistry, breakers *providers.BreakerRegistry, prices persistence.PricesRepo, apiKey string, log zerolog.Logger) *Poller {
	return &Poller{
		pool:     pool,
		limiters: limiters,
		breakers: breakers,
		prices:   prices,
		apiKey:   apiKey,
		log:      log.With().Str("component", "fred").Logger(),
	}
}

// Result is the outcome of polling a single series.
type Result struct {
	SeriesID string
	Bars     int
	Err      error
}

// PollAll fetches lookbackDays of observations for every series and
// upserts them as PriceBars. A nil series list polls DefaultSeries. A
// series the FRED API rejects with a client error is logged and skipped
// rather than failing the whole run, the way fetch_fred_payload treats an
// HTTP error status as an empty result.
func (p *Poller) PollAll(ctx context.Context, series []string, lookbackDays int) map[string]Result {
	if len(series) == 0 {
		series = DefaultSeries
	}
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	results := make(map[string]Result, len(series))
	for _, seriesID := range series {
		results[seriesID] = p.pollOne(ctx, seriesID, lookbackDays)
	}
	return results
}

func (p *Poller) pollOne(ctx context.Context, seriesID string, lookbackDays int) Result {
	if p.apiKey == "" {
		return Result{SeriesID: seriesID, Err: fmt.Errorf("fred: no API key configured")}
	}
	if err := p.limiters.Wait(ctx, "fred"); err != nil {
		return Result{SeriesID: seriesID, Err: fmt.Errorf("fred: rate limiter wait: %w", err)}
	}

	var bars []domain.PriceBar
	_, err := p.breakers.Execute("fred", func() (interface{}, error) {
		end := time.Now().UTC()
		start := end.AddDate(0, 0, -lookbackDays)

		var payload fredObservationsResponse
		fetchErr := p.pool.GetJSON(ctx, buildObservationsURL(seriesID, start, end, p.apiKey), nil, &payload)
		if fetchErr != nil {
			if isHTTPStatusErr(fetchErr) {
				p.log.Warn().Str("series", seriesID).Err(fetchErr).Msg("fred returned an error status, treating as empty")
				return nil, nil
			}
			return nil, fmt.Errorf("fred: fetch %s: %w", seriesID, fetchErr)
		}
		bars = parseFredObservations(payload, seriesID)
		return nil, nil
	})
	if err != nil {
		return Result{SeriesID: seriesID, Err: err}
	}
	if len(bars) == 0 {
		return Result{SeriesID: seriesID}
	}

	n, err := p.prices.UpsertBatch(ctx, bars)
	if err != nil {
		return Result{SeriesID: seriesID, Err: fmt.Errorf("fred: store observations for %s: %w", seriesID, err)}
	}
	p.log.Info().Str("series", seriesID).Int("observations", n).Msg("fred poll complete")
	return Result{SeriesID: seriesID, Bars: n}
}

func buildObservationsURL(seriesID string, start, end time.Time, apiKey string) string {
	return fmt.Sprintf(
		"%s/series/observations?series_id=%s&observation_start=%s&observation_end=%s&sort_order=asc&api_key=%s&file_type=json",
		BaseURL, url.QueryEscape(seriesID), start.Format("2006-01-02"), end.Format("2006-01-02"), url.QueryEscape(apiKey),
	)
}

type fredObservationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// missingValueSentinel is FRED's marker for "no observation on this date"
// (a holiday, a release not yet published).
const missingValueSentinel = "."

func parseFredObservations(resp fredObservationsResponse, seriesID string) []domain.PriceBar {
	bars := make([]domain.PriceBar, 0, len(resp.Observations))
	for _, obs := range resp.Observations {
		if strings.TrimSpace(obs.Value) == missingValueSentinel || obs.Value == "" {
			continue
		}
		value, err := decimal.NewFromString(obs.Value)
		if err != nil {
			continue
		}
		date, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			continue
		}
		bars = append(bars, domain.PriceBar{
			Symbol: seriesID,
			Date:   date,
			Close:  value,
			Source: "fred",
		})
	}
	return bars
}

func isHTTPStatusErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unexpected status")
}
