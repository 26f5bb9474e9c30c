// Package calendar syncs the economic calendar from two upstream sources:
// ForexFactory's weekly JSON feed, and FRED's release/dates endpoint for
// the handful of US releases Meridian tracks by name. Both adapters are
// grounded on ingestion/economic_calendar.py's ForexFactoryAdapter and
// FredCalendarAdapter; normalize_impact_level's hi/med/lo folding is
// carried over as normalizeImportance.
package calendar

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/httpfetch"
	"github.com/satriapamudji/meridian/internal/persistence"
	"github.com/satriapamudji/meridian/internal/providers"
)

// ForexFactoryURL is the public weekly calendar feed.
const ForexFactoryURL = "https://nfs.faireconomy.media/ff_calendar_thisweek.json"

// fredRelease describes one FRED release Meridian watches by name, impact,
// and region, mirroring FRED_RELEASE_MAPPINGS.
type fredRelease struct {
	ReleaseID int
	Name      string
	Impact    string
	Region    string
}

// DefaultFredReleases is the subset of FRED_RELEASE_MAPPINGS covering the
// indicators the significance scorer and thesis writer care about.
var DefaultFredReleases = []fredRelease{
	{ReleaseID: 10, Name: "Consumer Price Index (CPI)", Impact: "high", Region: "USD"},
	{ReleaseID: 21, Name: "Personal Consumption Expenditures (PCE)", Impact: "high", Region: "USD"},
	{ReleaseID: 50, Name: "Gross Domestic Product (GDP)", Impact: "high", Region: "USD"},
	{ReleaseID: 101, Name: "FOMC Press Release", Impact: "high", Region: "USD"},
	{ReleaseID: 20, Name: "Retail Sales", Impact: "medium", Region: "USD"},
	{ReleaseID: 13, Name: "Producer Price Index (PPI)", Impact: "medium", Region: "USD"},
	{ReleaseID: 3, Name: "Industrial Production", Impact: "medium", Region: "USD"},
	{ReleaseID: 246, Name: "Initial Jobless Claims", Impact: "medium", Region: "USD"},
}

// Poller syncs calendar releases from both adapters into EconomicEventsRepo.
type Poller struct {
	pool     *httpfetch.ClientPool
	limiters *providers.LimiterRegistry
	breakers *providers.BreakerRegistry
	repo     persistence.EconomicEventsRepo
	fredKey  string
	log      zerolog.Logger
}

// NewPoller wires a calendar poller against the shared rate limiter and
// circuit breaker registries under the "calendar" source budget.
func NewPoller(pool *httpfetch.ClientPool, limiters *providers.LimiterRegistry, breakers *providers.BreakerRegistry, repo persistence.EconomicEventsRepo, fredKey string, log zerolog.Logger) *Poller {
	return &Poller{
		pool:     pool,
		limiters: limiters,
		breakers: breakers,
		repo:     repo,
		fredKey:  fredKey,
		log:      log.With().Str("component", "calendar").Logger(),
	}
}

// Result is the outcome of one adapter's sync.
type Result struct {
	Adapter  string
	Upserted int
	Err      error
}

// PollAll runs the ForexFactory adapter and, if a FRED API key is
// configured, the FRED release adapter, returning one Result per adapter.
func (p *Poller) PollAll(ctx context.Context) map[string]Result {
	results := map[string]Result{
		"forexfactory": p.pollForexFactory(ctx),
	}
	if p.fredKey != "" {
		results["fred_releases"] = p.pollFredReleases(ctx)
	}
	return results
}

func (p *Poller) pollForexFactory(ctx context.Context) Result {
	if err := p.limiters.Wait(ctx, "calendar"); err != nil {
		return Result{Adapter: "forexfactory", Err: fmt.Errorf("calendar: rate limiter wait: %w", err)}
	}

	var events []ffEvent
	_, err := p.breakers.Execute("calendar", func() (interface{}, error) {
		var raw []ffEvent
		if err := p.pool.GetJSON(ctx, ForexFactoryURL, nil, &raw); err != nil {
			return nil, fmt.Errorf("calendar: fetch forexfactory: %w", err)
		}
		events = raw
		return nil, nil
	})
	if err != nil {
		return Result{Adapter: "forexfactory", Err: err}
	}

	upserted := 0
	now := time.Now().UTC()
	for _, e := range filterFutureFFEvents(events, now) {
		domainEvent := e.toDomainEvent()
		if _, err := p.repo.Upsert(ctx, domainEvent); err != nil {
			p.log.Error().Err(err).Str("event", domainEvent.Name).Msg("failed to store economic event")
			continue
		}
		upserted++
	}
	p.log.Info().Int("upserted", upserted).Msg("forexfactory sync complete")
	return Result{Adapter: "forexfactory", Upserted: upserted}
}

func (p *Poller) pollFredReleases(ctx context.Context) Result {
	if err := p.limiters.Wait(ctx, "calendar"); err != nil {
		return Result{Adapter: "fred_releases", Err: fmt.Errorf("calendar: rate limiter wait: %w", err)}
	}

	upserted := 0
	for _, release := range DefaultFredReleases {
		var releaseDate time.Time
		_, err := p.breakers.Execute("calendar", func() (interface{}, error) {
			d, fetchErr := fetchFredReleaseDate(ctx, p.pool, release.ReleaseID, p.fredKey)
			releaseDate = d
			return nil, fetchErr
		})
		if err != nil {
			p.log.Warn().Err(err).Int("release_id", release.ReleaseID).Msg("failed to fetch fred release date")
			continue
		}
		if releaseDate.IsZero() {
			continue
		}

		event := domain.EconomicEvent{
			Name:       release.Name,
			Country:    release.Region,
			ReleaseAt:  releaseDate,
			Importance: release.Impact,
			Source:     "fred_releases",
		}
		if _, err := p.repo.Upsert(ctx, event); err != nil {
			p.log.Error().Err(err).Str("event", event.Name).Msg("failed to store fred release")
			continue
		}
		upserted++
	}
	return Result{Adapter: "fred_releases", Upserted: upserted}
}

// ffEvent mirrors ForexFactory's weekly calendar JSON entry shape.
type ffEvent struct {
	Title    string `json:"title"`
	Country  string `json:"country"`
	Date     string `json:"date"`
	Impact   string `json:"impact"`
	Forecast string `json:"forecast"`
	Previous string `json:"previous"`
}

func (e ffEvent) toDomainEvent() domain.EconomicEvent {
	ev := domain.EconomicEvent{
		Name:       e.Title,
		Country:    e.Country,
		Importance: normalizeImportance(e.Impact),
		Source:     "forexfactory",
	}
	if t, err := time.Parse(time.RFC3339, e.Date); err == nil {
		ev.ReleaseAt = t.UTC()
	}
	if e.Forecast != "" {
		ev.Forecast = &e.Forecast
	}
	if e.Previous != "" {
		ev.Previous = &e.Previous
	}
	return ev
}

// filterFutureFFEvents keeps only events at or after now, the way
// ForexFactoryAdapter filters its weekly feed down to upcoming releases.
func filterFutureFFEvents(events []ffEvent, now time.Time) []ffEvent {
	out := make([]ffEvent, 0, len(events))
	for _, e := range events {
		t, err := time.Parse(time.RFC3339, e.Date)
		if err != nil {
			continue
		}
		if !t.UTC().Before(now) {
			out = append(out, e)
		}
	}
	return out
}

// normalizeImportance folds ForexFactory's impact vocabulary into
// Meridian's high/medium/low scale, mirroring normalize_impact_level.
func normalizeImportance(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "hi", "high":
		return "high"
	case "med", "medium":
		return "medium"
	case "lo", "low":
		return "low"
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

type fredReleaseDatesResponse struct {
	ReleaseDates []struct {
		ReleaseID int    `json:"release_id"`
		Date      string `json:"date"`
	} `json:"release_dates"`
}

func fetchFredReleaseDate(ctx context.Context, pool *httpfetch.ClientPool, releaseID int, apiKey string) (time.Time, error) {
	u := fmt.Sprintf(
		"https://api.stlouisfed.org/fred/release/dates?release_id=%d&api_key=%s&file_type=json&sort_order=desc&limit=1",
		releaseID, url.QueryEscape(apiKey),
	)
	var resp fredReleaseDatesResponse
	if err := pool.GetJSON(ctx, u, nil, &resp); err != nil {
		return time.Time{}, fmt.Errorf("calendar: fetch fred release %d: %w", releaseID, err)
	}
	if len(resp.ReleaseDates) == 0 {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", resp.ReleaseDates[0].Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: parse fred release date: %w", err)
	}
	return t, nil
}
