package scoring

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/satriapamudji/meridian/internal/persistence"
)

// BatchResult tallies the outcome of one batch scoring pass.
type BatchResult struct {
	Scored  int
	Tiers   map[string]int
	DryRun  bool
	Errored int
}

// RunBatch fetches every event with a null significance score, oldest
// first, and scores it. In dry-run mode it classifies and tallies tier
// counts without calling UpdateScore, so an operator can preview what a
// real pass would do.
func RunBatch(ctx context.Context, repo persistence.MacroEventsRepo, limit int, dryRun bool, log zerolog.Logger) (BatchResult, error) {
	events, err := repo.ListUnscored(ctx, limit)
	if err != nil {
		return BatchResult{}, fmt.Errorf("scoring: list unscored: %w", err)
	}

	result := BatchResult{Tiers: map[string]int{}, DryRun: dryRun}
	for _, e := range events {
		scored := Score(Input{
			Source:    e.Source,
			Headline:  e.Headline,
			FullText:  e.FullText,
			EventType: e.EventType,
			Regions:   e.Regions,
			Entities:  e.Entities,
		})
		result.Tiers[scored.Tier]++

		if dryRun {
			result.Scored++
			continue
		}

		if err := repo.UpdateScore(ctx, e.ID, scored.Components, scored.Total, scored.Tier, scored.PriorityFlag); err != nil {
			log.Error().Err(err).Str("headline", e.Headline).Msg("failed to update significance score")
			result.Errored++
			continue
		}
		result.Scored++
	}

	log.Info().Int("scored", result.Scored).Int("errored", result.Errored).Bool("dry_run", dryRun).
		Interface("tiers", result.Tiers).Msg("batch significance scoring complete")
	return result, nil
}
