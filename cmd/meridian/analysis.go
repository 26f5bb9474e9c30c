package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/historical"
	"github.com/satriapamudji/meridian/internal/llm"
	"github.com/satriapamudji/meridian/internal/scoring"
)

var significanceCmd = &cobra.Command{
	Use:   "significance",
	Short: "Score newly ingested macro events and flag priority ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext()
		defer cancel()

		result, err := scoring.RunBatch(ctx, a.repo().MacroEvents, limit, dryRun, log.Logger)
		if err != nil {
			return fmt.Errorf("significance: %w", err)
		}
		for tier, count := range result.Tiers {
			a.metrics.SetSignificanceTier(tier, count)
		}
		log.Info().
			Int("scored", result.Scored).
			Int("errored", result.Errored).
			Bool("dry_run", result.DryRun).
			Interface("tiers", result.Tiers).
			Msg("significance scoring complete")
		return nil
	},
}

// macroEventAnalysisCmd runs the C4 synthesis pass: for each priority event
// still missing analysis output, it gathers the metals knowledge base and
// the closest historical precedents, asks the collaborator to synthesize a
// verdict, and persists the normalized result. Unlike the original batch
// script this is grounded on, there is no local-heuristic fallback when no
// API key is configured; the command fails fast instead of silently
// producing a lower-quality analysis.
var macroEventAnalysisCmd = &cobra.Command{
	Use:   "macro-event-analysis",
	Short: "Run collaborator-driven analysis synthesis on priority macro events",
	RunE: func(cmd *cobra.Command, args []string) error {
		eventIDStr, _ := cmd.Flags().GetString("event-id")
		limit, _ := cmd.Flags().GetInt("limit")
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		printPrompts, _ := cmd.Flags().GetBool("print-prompts")

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		if a.cfg.LLMAPIKey == "" {
			return fmt.Errorf("macro-event-analysis: MERIDIAN_LLM_API_KEY is not set; refusing to run without a collaborator")
		}

		ctx, cancel := signalContext()
		defer cancel()

		events, err := eventsToAnalyze(ctx, a, eventIDStr, limit, overwrite)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			log.Info().Msg("no priority macro events found for analysis")
			return nil
		}

		metalsByCategory, err := a.repo().MetalsKnowledge.GetAll(ctx)
		if err != nil {
			return fmt.Errorf("macro-event-analysis: load metals knowledge: %w", err)
		}
		metalsView := make(map[string]interface{}, len(metalsByCategory))
		for metal, categories := range metalsByCategory {
			metalsView[metal] = categories
		}

		store := historical.NewSQLXStore(a.dbm.DB())
		collaborator := llm.NewHTTPCollaborator(llm.Config{
			BaseURL:     a.cfg.LLMBaseURL,
			APIKey:      a.cfg.LLMAPIKey,
			Model:       a.cfg.LLMModel,
			AppName:     a.cfg.LLMAppName,
			AppURL:      a.cfg.LLMAppURL,
			Temperature: a.cfg.LLMTemperature,
			MaxTokens:   a.cfg.LLMMaxTokens,
		}, a.pool)

		analyzed, skipped := 0, 0
		for _, event := range events {
			matches, err := historical.FindHistoricalCases(ctx, store, event.Headline+" "+event.FullText, event.EventType, nil, 3)
			if err != nil {
				log.Error().Err(err).Str("event_id", event.ID.String()).Msg("historical case lookup failed")
				skipped++
				continue
			}

			prompt := llm.BuildPrompt(llm.PromptInput{
				Event:           event,
				MetalsKnowledge: metalsView,
				HistoricalCases: casesFromMatches(matches),
			})
			if printPrompts {
				fmt.Println(prompt)
			}
			if dryRun {
				log.Info().Str("event_id", event.ID.String()).Msg("dry run: would synthesize analysis")
				skipped++
				continue
			}

			raw, err := collaborator.Synthesize(ctx, prompt)
			if err != nil {
				log.Error().Err(err).Str("event_id", event.ID.String()).Msg("synthesis failed")
				skipped++
				continue
			}

			result := llm.ToAnalysisResult(raw)
			if err := a.repo().MacroEvents.UpdateAnalysis(ctx, event.ID, result); err != nil {
				log.Error().Err(err).Str("event_id", event.ID.String()).Msg("persist analysis failed")
				skipped++
				continue
			}
			analyzed++
		}

		log.Info().Int("analyzed", analyzed).Int("skipped", skipped).Msg("macro event analysis complete")
		return nil
	},
}

// eventsToAnalyze resolves the analysis candidate set: a single event by
// ID when --event-id is set, otherwise the priority queue.
func eventsToAnalyze(ctx context.Context, a *app, eventIDStr string, limit int, overwrite bool) ([]domain.MacroEvent, error) {
	if eventIDStr == "" {
		return a.repo().MacroEvents.ListPriorityForAnalysis(ctx, limit, overwrite)
	}

	id, err := uuid.Parse(eventIDStr)
	if err != nil {
		return nil, fmt.Errorf("macro-event-analysis: invalid --event-id: %w", err)
	}
	event, err := a.repo().MacroEvents.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("macro-event-analysis: fetch event %s: %w", id, err)
	}
	if event == nil {
		return nil, fmt.Errorf("macro-event-analysis: no event found with id %s", id)
	}
	return []domain.MacroEvent{*event}, nil
}

func casesFromMatches(matches []historical.Match) []domain.HistoricalCase {
	cases := make([]domain.HistoricalCase, 0, len(matches))
	for _, m := range matches {
		cases = append(cases, m.Case)
	}
	return cases
}

func init() {
	macroEventAnalysisCmd.Flags().String("event-id", "", "analyze a single event by UUID instead of the priority queue")
	macroEventAnalysisCmd.Flags().Int("limit", 0, "maximum number of events to analyze (0 = unlimited)")
	macroEventAnalysisCmd.Flags().Bool("overwrite", false, "re-analyze events that already carry analysis output")
	macroEventAnalysisCmd.Flags().Bool("dry-run", false, "select and log events without calling the collaborator")
	macroEventAnalysisCmd.Flags().Bool("print-prompts", false, "print the synthesis prompt for each event")

	significanceCmd.Flags().Int("limit", 0, "maximum number of events to score (0 = unlimited)")
	significanceCmd.Flags().Bool("dry-run", false, "classify without writing scores")
}
