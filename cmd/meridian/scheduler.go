package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/satriapamudji/meridian/internal/digest"
	"github.com/satriapamudji/meridian/internal/httpapi"
	"github.com/satriapamudji/meridian/internal/ingest/calendar"
	"github.com/satriapamudji/meridian/internal/ingest/fedcomms"
	"github.com/satriapamudji/meridian/internal/ingest/fred"
	"github.com/satriapamudji/meridian/internal/ingest/prices"
	"github.com/satriapamudji/meridian/internal/ingest/rss"
	"github.com/satriapamudji/meridian/internal/ingest/snapshot"
	"github.com/satriapamudji/meridian/internal/scheduler"
	"github.com/satriapamudji/meridian/internal/scoring"
)

// jobFunc adapts a plain function to scheduler.Job, the same "name plus
// closure" shape every job below uses; it keeps each job's wiring next to
// its construction instead of a dedicated type per job.
type jobFunc struct {
	name string
	run  func(ctx context.Context) error
}

func (j jobFunc) Name() string                 { return j.name }
func (j jobFunc) Run(ctx context.Context) error { return j.run(ctx) }

// jobMetrics is the subset of *metrics.Registry metricsWrap needs.
type jobMetrics interface {
	ObserveJob(job string, start time.Time, status string)
}

func metricsWrap(m jobMetrics, job scheduler.Job) scheduler.Job {
	return jobFunc{
		name: job.Name(),
		run: func(ctx context.Context) error {
			start := time.Now()
			err := job.Run(ctx)
			status := "ok"
			if err != nil {
				status = "error"
			}
			m.ObserveJob(job.Name(), start, status)
			return err
		},
	}
}

// schedulerCmd runs every ingestor, the significance scorer, and the daily
// digest composer on its own schedule, with an initial run-through on
// startup, and exposes /healthz and /metrics until interrupted.
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run every job on its own schedule with liveness and metrics exposed",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext()
		defer cancel()

		sched := scheduler.New(log.Logger)

		rssPoller := rss.NewPoller(a.pool, a.limiters, a.breakers, a.repo().MacroEvents, log.Logger)
		calendarPoller := calendar.NewPoller(a.pool, a.limiters, a.breakers, a.repo().EconomicEvents, a.cfg.FREDAPIKey, log.Logger)
		fedPoller := fedcomms.NewPoller(a.pool, a.limiters, a.breakers, a.repo().CentralBankComms, log.Logger)
		pricesPoller := prices.NewPoller(a.pool, a.limiters, a.breakers, a.repo().Prices, a.repo().PriceRatios, log.Logger)
		fredPoller := fred.NewPoller(a.pool, a.limiters, a.breakers, a.repo().Prices, a.cfg.FREDAPIKey, log.Logger)
		snapshotPoller := snapshot.NewPoller(a.pool, a.limiters, a.breakers, a.repo().Prices, a.repo().MarketContext, log.Logger)
		digestComposer := digest.New(a.repo())

		jobs := []scheduler.Job{
			jobFunc{"rss", func(ctx context.Context) error {
				for _, res := range rssPoller.PollAll(ctx, rss.DefaultSources) {
					a.metrics.ObserveIngest("rss", time.Now(), res.Inserted, res.Err)
				}
				return nil
			}},
			jobFunc{"calendar", func(ctx context.Context) error {
				for _, res := range calendarPoller.PollAll(ctx) {
					a.metrics.ObserveIngest("calendar", time.Now(), res.Upserted, res.Err)
				}
				return nil
			}},
			jobFunc{"fedcomms", func(ctx context.Context) error {
				res := fedPoller.PollAll(ctx)
				a.metrics.ObserveIngest("fedcomms", time.Now(), res.Inserted, res.Err)
				return res.Err
			}},
			jobFunc{"prices", func(ctx context.Context) error {
				for _, res := range pricesPoller.PollAll(ctx, prices.CoreSymbols, prices.DefaultLookbackDays) {
					a.metrics.ObserveIngest("prices", time.Now(), res.Bars, res.Err)
				}
				return nil
			}},
			jobFunc{"fred", func(ctx context.Context) error {
				for _, res := range fredPoller.PollAll(ctx, fred.DefaultSeries, fred.DefaultLookbackDays) {
					a.metrics.ObserveIngest("fred", time.Now(), res.Bars, res.Err)
				}
				return nil
			}},
			jobFunc{"market-context", func(ctx context.Context) error {
				_, err := snapshotPoller.Compose(ctx, time.Now().UTC())
				return err
			}},
			jobFunc{"significance", func(ctx context.Context) error {
				result, err := scoring.RunBatch(ctx, a.repo().MacroEvents, 0, false, log.Logger)
				if err != nil {
					return err
				}
				for tier, count := range result.Tiers {
					a.metrics.SetSignificanceTier(tier, count)
				}
				return nil
			}},
			jobFunc{"digest", func(ctx context.Context) error {
				_, err := digestComposer.Compose(ctx, time.Now().UTC())
				return err
			}},
		}

		wrapped := make([]scheduler.Job, 0, len(jobs))
		for _, job := range jobs {
			wrapped = append(wrapped, metricsWrap(a.metrics, job))
		}

		sched.RunAll(ctx, wrapped)

		intervals := map[string]int{
			"rss":             a.cfg.RSSPollMinutes,
			"calendar":        a.cfg.CalendarPollMinutes,
			"fedcomms":        a.cfg.FedCommsPollMinutes,
			"prices":          a.cfg.PricesPollMinutes,
			"fred":            a.cfg.FREDPollMinutes,
			"market-context":  a.cfg.MarketContextPollMinutes,
			"significance":    a.cfg.SignificancePollMinutes,
		}
		for _, job := range wrapped {
			if job.Name() == "digest" {
				if err := sched.AddJob(a.cfg.DigestCron, job); err != nil {
					return err
				}
				continue
			}
			if err := sched.AddIntervalJob(intervals[job.Name()], job); err != nil {
				return err
			}
		}

		sched.Start()
		defer sched.Stop()

		router := httpapi.NewRouter(a.dbm.Health())
		servers := []*http.Server{{Addr: a.cfg.HealthAddr, Handler: router}}
		if a.cfg.MetricsAddr != "" && a.cfg.MetricsAddr != a.cfg.HealthAddr {
			servers = append(servers, &http.Server{Addr: a.cfg.MetricsAddr, Handler: router})
		}
		for _, srv := range servers {
			srv := srv
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Str("addr", srv.Addr).Msg("http server failed")
				}
			}()
		}

		log.Info().Str("health_addr", a.cfg.HealthAddr).Str("metrics_addr", a.cfg.MetricsAddr).Msg("scheduler running")
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		for _, srv := range servers {
			_ = srv.Shutdown(shutdownCtx)
		}

		return nil
	},
}
