package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/satriapamudji/meridian/internal/ingest/calendar"
	"github.com/satriapamudji/meridian/internal/ingest/fedcomms"
	"github.com/satriapamudji/meridian/internal/ingest/fred"
	"github.com/satriapamudji/meridian/internal/ingest/prices"
	"github.com/satriapamudji/meridian/internal/ingest/rss"
	"github.com/satriapamudji/meridian/internal/ingest/snapshot"
)

func addIntervalFlag(cmd *cobra.Command) {
	cmd.Flags().Duration("interval", 0, "poll repeatedly on this interval (0 = one-shot)")
}

var rssPollerCmd = &cobra.Command{
	Use:   "rss-poller",
	Short: "Poll macro headline RSS feeds and store new macro events",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		poller := rss.NewPoller(a.pool, a.limiters, a.breakers, a.repo().MacroEvents, log.Logger)
		ctx, cancel := signalContext()
		defer cancel()

		return runLoop(ctx, interval, func(ctx context.Context) error {
			start := time.Now()
			results := poller.PollAll(ctx, rss.DefaultSources)
			for source, res := range results {
				a.metrics.ObserveIngest(source, start, res.Inserted, res.Err)
				if res.Err != nil {
					log.Error().Err(res.Err).Str("source", source).Msg("rss poll failed")
					continue
				}
				log.Info().Str("source", source).Int("inserted", res.Inserted).Msg("rss poll complete")
			}
			return nil
		})
	},
}

var calendarPollerCmd = &cobra.Command{
	Use:   "calendar-poller",
	Short: "Sync the economic calendar from ForexFactory and FRED release dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		poller := calendar.NewPoller(a.pool, a.limiters, a.breakers, a.repo().EconomicEvents, a.cfg.FREDAPIKey, log.Logger)
		ctx, cancel := signalContext()
		defer cancel()

		return runLoop(ctx, interval, func(ctx context.Context) error {
			start := time.Now()
			results := poller.PollAll(ctx)
			for adapter, res := range results {
				a.metrics.ObserveIngest(adapter, start, res.Upserted, res.Err)
				if res.Err != nil {
					log.Error().Err(res.Err).Str("adapter", adapter).Msg("calendar poll failed")
					continue
				}
				log.Info().Str("adapter", adapter).Int("upserted", res.Upserted).Msg("calendar poll complete")
			}
			return nil
		})
	},
}

var fedPollerCmd = &cobra.Command{
	Use:   "fed-poller",
	Short: "Crawl Federal Reserve press releases and statements",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		poller := fedcomms.NewPoller(a.pool, a.limiters, a.breakers, a.repo().CentralBankComms, log.Logger)
		ctx, cancel := signalContext()
		defer cancel()

		return runLoop(ctx, interval, func(ctx context.Context) error {
			start := time.Now()
			res := poller.PollAll(ctx)
			a.metrics.ObserveIngest("fedcomms", start, res.Inserted, res.Err)
			if res.Err != nil {
				log.Error().Err(res.Err).Msg("fed poll failed")
				return nil
			}
			log.Info().Int("inserted", res.Inserted).Msg("fed poll complete")
			return nil
		})
	},
}

var pricesPollerCmd = &cobra.Command{
	Use:   "prices-poller",
	Short: "Fetch daily OHLCV bars for gold/silver/copper futures from Yahoo Finance",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		lookback, _ := cmd.Flags().GetInt("lookback-days")
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		poller := prices.NewPoller(a.pool, a.limiters, a.breakers, a.repo().Prices, a.repo().PriceRatios, log.Logger)
		ctx, cancel := signalContext()
		defer cancel()

		return runLoop(ctx, interval, func(ctx context.Context) error {
			start := time.Now()
			results := poller.PollAll(ctx, prices.CoreSymbols, lookback)
			for symbol, res := range results {
				a.metrics.ObserveIngest("prices", start, res.Bars, res.Err)
				if res.Err != nil {
					log.Error().Err(res.Err).Str("symbol", symbol).Msg("prices poll failed")
					continue
				}
				log.Info().Str("symbol", symbol).Int("bars", res.Bars).Msg("prices poll complete")
			}
			return nil
		})
	},
}

var fredPollerCmd = &cobra.Command{
	Use:   "fred-poller",
	Short: "Fetch rate and credit-spread series from FRED",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		lookback, _ := cmd.Flags().GetInt("lookback-days")
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		poller := fred.NewPoller(a.pool, a.limiters, a.breakers, a.repo().Prices, a.cfg.FREDAPIKey, log.Logger)
		ctx, cancel := signalContext()
		defer cancel()

		return runLoop(ctx, interval, func(ctx context.Context) error {
			start := time.Now()
			results := poller.PollAll(ctx, fred.DefaultSeries, lookback)
			for series, res := range results {
				a.metrics.ObserveIngest("fred", start, res.Bars, res.Err)
				if res.Err != nil {
					log.Error().Err(res.Err).Str("series", series).Msg("fred poll failed")
					continue
				}
				log.Info().Str("series", series).Int("bars", res.Bars).Msg("fred poll complete")
			}
			return nil
		})
	},
}

var marketContextPollerCmd = &cobra.Command{
	Use:   "market-context-poller",
	Short: "Compose and persist today's regime snapshot from the latest prices and rates",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		poller := snapshot.NewPoller(a.pool, a.limiters, a.breakers, a.repo().Prices, a.repo().MarketContext, log.Logger)
		ctx, cancel := signalContext()
		defer cancel()

		return runLoop(ctx, interval, func(ctx context.Context) error {
			start := time.Now()
			snap, err := poller.Compose(ctx, time.Now().UTC())
			a.metrics.ObserveIngest("market-context", start, 1, err)
			if err != nil {
				log.Error().Err(err).Msg("market context compose failed")
				return nil
			}
			log.Info().
				Str("volatility_regime", snap.VolatilityRegime).
				Str("curve_regime", snap.CurveRegime).
				Str("credit_regime", snap.CreditRegime).
				Str("dollar_regime", snap.DollarRegime).
				Msg("market context snapshot composed")
			return nil
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{rssPollerCmd, calendarPollerCmd, fedPollerCmd, pricesPollerCmd, fredPollerCmd, marketContextPollerCmd} {
		addIntervalFlag(cmd)
	}
	pricesPollerCmd.Flags().Int("lookback-days", 5, "days of history to backfill on each poll")
	fredPollerCmd.Flags().Int("lookback-days", 5, "days of history to backfill on each poll")
}
