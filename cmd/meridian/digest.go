package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/satriapamudji/meridian/internal/digest"
)

// digestCmd composes the idempotent once-per-day intelligence briefing for
// the given date (default: today UTC) and prints it.
var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Compose and print the daily intelligence digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		dateStr, _ := cmd.Flags().GetString("date")

		digestDate := time.Now().UTC()
		if dateStr != "" {
			parsed, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("digest: invalid --date %q: %w", dateStr, err)
			}
			digestDate = parsed
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext()
		defer cancel()

		composer := digest.New(a.repo())
		d, err := composer.Compose(ctx, digestDate)
		if err != nil {
			return fmt.Errorf("digest: %w", err)
		}

		log.Info().
			Str("date", d.Date.Format("2006-01-02")).
			Int("top_events", len(d.TopEventIDs)).
			Msg("digest composed")
		fmt.Println(d.Briefing)
		return nil
	},
}

func init() {
	digestCmd.Flags().String("date", "", "digest date as YYYY-MM-DD (default: today UTC)")
}
