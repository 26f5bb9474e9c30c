// Command meridian is the operational CLI for the macro-to-metals-to-crypto
// intelligence pipeline: one subcommand per ingestor, scorer, and analysis
// pass, plus a scheduler subcommand that runs all of them on their own
// cron/interval schedules. Subcommand wiring follows the teacher's
// cmd/cryptorun package (one package-level *cobra.Command per subcommand,
// registered onto a root command in main, Execute()'s error logged and
// turned into a non-zero exit code).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/satriapamudji/meridian/internal/config"
	"github.com/satriapamudji/meridian/internal/db"
	"github.com/satriapamudji/meridian/internal/httpfetch"
	applog "github.com/satriapamudji/meridian/internal/log"
	"github.com/satriapamudji/meridian/internal/metrics"
	"github.com/satriapamudji/meridian/internal/persistence"
	"github.com/satriapamudji/meridian/internal/providers"
)

const (
	appName = "meridian"
	version = "0.1.0"
)

// app bundles the shared infrastructure every subcommand needs: the loaded
// configuration, the storage manager, a pooled HTTP client, the per-source
// rate limiter/breaker registries, and the Prometheus registry the
// scheduler subcommand exposes on /metrics. Each subcommand calls
// bootstrap() itself rather than sharing a package-level instance, the same
// "load settings fresh per entrypoint" shape the original scripts use.
type app struct {
	cfg      *config.Config
	dbm      *db.Manager
	pool     *httpfetch.ClientPool
	limiters *providers.LimiterRegistry
	breakers *providers.BreakerRegistry
	metrics  *metrics.Registry
}

func (a *app) repo() *persistence.Repository { return a.dbm.Repository() }

func (a *app) Close() {
	if err := a.dbm.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing database connection")
	}
}

// bootstrap loads configuration, configures global logging, opens the
// database connection, and wires the shared provider infrastructure.
func bootstrap() (*app, error) {
	cfg, err := config.Get()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applog.Configure(cfg.LogLevel, cfg.LogPretty)

	dbm, err := db.NewManager(db.Config{
		DSN:             cfg.DatabaseDSN,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		QueryTimeout:    10 * time.Second,
		Enabled:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	pool := httpfetch.NewClientPool(httpfetch.Config{
		MaxConcurrency: 8,
		RequestTimeout: cfg.HTTPRequestTimeout,
		MaxRetries:     cfg.HTTPMaxRetries,
		BackoffBase:    cfg.HTTPBackoffBase,
		BackoffMax:     cfg.HTTPBackoffMax,
		JitterRange:    cfg.HTTPJitterRange,
		UserAgent:      cfg.HTTPUserAgent,
	})

	return &app{
		cfg:      cfg,
		dbm:      dbm,
		pool:     pool,
		limiters: providers.NewLimiterRegistry(providers.DefaultLimiterConfigs()),
		breakers: providers.NewBreakerRegistry(providers.DefaultBreakerConfigs()),
		metrics:  metrics.NewRegistry(prometheus.DefaultRegisterer),
	}, nil
}

// signalContext returns a context canceled on SIGINT/SIGTERM, for commands
// that loop on --interval or run until interrupted.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runLoop runs fn once immediately and, when interval is positive, again
// every interval until ctx is canceled, logging (but not stopping on) a
// failed iteration past the first. interval<=0 is the one-shot mode every
// poller subcommand defaults to.
func runLoop(ctx context.Context, interval time.Duration, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.Error().Err(err).Msg("interval run failed")
			}
		}
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Meridian macro-to-metals-to-crypto intelligence pipeline",
		Version: version,
		Long: `Meridian ingests macro headlines, central bank communications, the
economic calendar, and metals/FRED price series, scores and analyzes the
priority events, and composes a daily intelligence digest.

Run a subcommand directly for a one-shot pass, pass --interval to loop
in-process, or run "meridian scheduler" to run every job on its own
cron schedule with the liveness and metrics surface exposed.`,
	}

	rootCmd.AddCommand(
		rssPollerCmd,
		calendarPollerCmd,
		fedPollerCmd,
		pricesPollerCmd,
		fredPollerCmd,
		marketContextPollerCmd,
		significanceCmd,
		macroEventAnalysisCmd,
		seedMetalsCmd,
		seedCasesCmd,
		embeddingsCmd,
		similarCasesCmd,
		digestCmd,
		schedulerCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
