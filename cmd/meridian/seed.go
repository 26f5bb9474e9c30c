package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/satriapamudji/meridian/internal/domain"
)

var allowedMetals = map[string]bool{"gold": true, "silver": true, "copper": true}

var allowedMetalCategories = map[string]bool{
	"supply_chain": true, "use_cases": true, "patterns": true, "correlations": true, "actors": true,
}

type metalsSeedFile struct {
	Metal      string                     `json:"metal"`
	Categories map[string]json.RawMessage `json:"categories"`
}

// seedMetalsCmd loads one JSON file per metal, each holding every curated
// fact-sheet category for that metal, and upserts them into
// metals_knowledge. Grounded on seed_metals.py's ALLOWED_METALS/
// ALLOWED_CATEGORIES validation and its "all five categories present,
// nothing extra" requirement.
var seedMetalsCmd = &cobra.Command{
	Use:   "seed-metals",
	Short: "Load the curated metals knowledge base from JSON seed files",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		paths, err := seedFiles(dataDir)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		count := 0
		for _, path := range paths {
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("seed-metals: read %s: %w", path, err)
			}
			var file metalsSeedFile
			if err := json.Unmarshal(raw, &file); err != nil {
				return fmt.Errorf("seed-metals: parse %s: %w", path, err)
			}
			if err := validateMetalsSeedFile(path, file); err != nil {
				return err
			}

			for category, content := range file.Categories {
				_, err := a.repo().MetalsKnowledge.Upsert(ctx, domain.MetalsKnowledgeEntry{
					Metal:    file.Metal,
					Category: category,
					Content:  domain.JSONValue{Raw: content},
				})
				if err != nil {
					return fmt.Errorf("seed-metals: upsert %s/%s: %w", file.Metal, category, err)
				}
				count++
			}
		}

		log.Info().Int("entries", count).Str("data_dir", dataDir).Msg("seeded metals knowledge")
		return nil
	},
}

func validateMetalsSeedFile(path string, file metalsSeedFile) error {
	if !allowedMetals[file.Metal] {
		return fmt.Errorf("seed-metals: %s: metal must be one of gold/silver/copper, got %q", path, file.Metal)
	}
	if len(file.Categories) == 0 {
		return fmt.Errorf("seed-metals: %s: categories must be non-empty", path)
	}
	for category := range file.Categories {
		if !allowedMetalCategories[category] {
			return fmt.Errorf("seed-metals: %s: unknown category %q", path, category)
		}
	}
	for category := range allowedMetalCategories {
		if _, ok := file.Categories[category]; !ok {
			return fmt.Errorf("seed-metals: %s: missing category %q", path, category)
		}
	}
	return nil
}

var requiredCaseFields = []string{
	"event_name", "date_range", "event_type", "significance_score",
	"structural_drivers", "metal_impacts", "traditional_market_reaction",
	"crypto_reaction", "crypto_transmission", "time_delays", "lessons", "counter_examples",
}

type historicalCaseSeedFile struct {
	EventName                 string                     `json:"event_name"`
	DateRange                 string                     `json:"date_range"`
	EventType                 string                     `json:"event_type"`
	SignificanceScore         int                        `json:"significance_score"`
	StructuralDrivers         []string                   `json:"structural_drivers"`
	MetalImpacts              map[string]json.RawMessage `json:"metal_impacts"`
	TraditionalMarketReaction []string                   `json:"traditional_market_reaction"`
	CryptoReaction            []string                   `json:"crypto_reaction"`
	CryptoTransmission        json.RawMessage            `json:"crypto_transmission"`
	TimeDelays                []string                   `json:"time_delays"`
	Lessons                   []string                   `json:"lessons"`
	CounterExamples           []string                   `json:"counter_examples"`
	Embedding                 []float32                  `json:"embedding,omitempty"`
	QuantitativeImpacts       json.RawMessage            `json:"quantitative_impacts,omitempty"`
	TimeHorizonBehavior       map[string]json.RawMessage `json:"time_horizon_behavior,omitempty"`
	TransmissionChannels      []string                   `json:"transmission_channels,omitempty"`
}

// seedCasesCmd loads the curated historical-precedent library, validating
// the same required-field set seed_cases.py enforces, and upserts each
// entry (plus its embedding, when supplied) into historical_cases.
var seedCasesCmd = &cobra.Command{
	Use:   "seed-cases",
	Short: "Load the curated historical case library from JSON seed files",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		paths, err := seedFiles(dataDir)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		count := 0
		for _, path := range paths {
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("seed-cases: read %s: %w", path, err)
			}

			var fields map[string]json.RawMessage
			if err := json.Unmarshal(raw, &fields); err != nil {
				return fmt.Errorf("seed-cases: parse %s: %w", path, err)
			}
			if err := validateCaseFields(path, fields); err != nil {
				return err
			}

			var entry historicalCaseSeedFile
			if err := json.Unmarshal(raw, &entry); err != nil {
				return fmt.Errorf("seed-cases: decode %s: %w", path, err)
			}

			caseRow := domain.HistoricalCase{
				EventName:                 entry.EventName,
				DateRange:                 entry.DateRange,
				EventType:                 entry.EventType,
				SignificanceScore:         entry.SignificanceScore,
				StructuralDrivers:         entry.StructuralDrivers,
				TraditionalMarketReaction: entry.TraditionalMarketReaction,
				CryptoReaction:            entry.CryptoReaction,
				TimeDelays:                entry.TimeDelays,
				Lessons:                   entry.Lessons,
				CounterExamples:           entry.CounterExamples,
				TransmissionChannels:      entry.TransmissionChannels,
				MetalImpacts:              rawMetalImpactsToJSONMap(entry.MetalImpacts),
				CryptoTransmission:        rawToJSONMap(entry.CryptoTransmission),
				QuantitativeImpacts:       rawToJSONMap(entry.QuantitativeImpacts),
				TimeHorizonBehavior:       rawHorizonToMap(entry.TimeHorizonBehavior),
			}

			stored, err := a.repo().HistoricalCases.Upsert(ctx, caseRow)
			if err != nil {
				return fmt.Errorf("seed-cases: upsert %s: %w", entry.EventName, err)
			}

			if len(entry.Embedding) > 0 {
				if _, err := a.repo().HistoricalCases.UpdateEmbedding(ctx, stored.EventName, stored.DateRange, entry.Embedding); err != nil {
					return fmt.Errorf("seed-cases: update embedding for %s: %w", entry.EventName, err)
				}
			}

			count++
		}

		log.Info().Int("cases", count).Str("data_dir", dataDir).Msg("seeded historical cases")
		return nil
	},
}

func validateCaseFields(path string, fields map[string]json.RawMessage) error {
	var missing []string
	for _, name := range requiredCaseFields {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("seed-cases: %s: missing required fields: %v", path, missing)
	}
	return nil
}

func rawMetalImpactsToJSONMap(raw map[string]json.RawMessage) domain.JSONMap {
	if len(raw) == 0 {
		return nil
	}
	out := make(domain.JSONMap, len(raw))
	for metal, content := range raw {
		var v interface{}
		if err := json.Unmarshal(content, &v); err == nil {
			out[metal] = v
		}
	}
	return out
}

func rawToJSONMap(raw json.RawMessage) domain.JSONMap {
	if len(raw) == 0 {
		return nil
	}
	var out domain.JSONMap
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func rawHorizonToMap(raw map[string]json.RawMessage) domain.HorizonBehaviorMap {
	if len(raw) == 0 {
		return nil
	}
	out := make(domain.HorizonBehaviorMap, len(raw))
	for bucket, content := range raw {
		var v domain.JSONMap
		if err := json.Unmarshal(content, &v); err == nil {
			out[bucket] = v
		}
	}
	return out
}

func seedFiles(dataDir string) ([]string, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("--data-dir is required")
	}
	matches, err := filepath.Glob(filepath.Join(dataDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dataDir, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func init() {
	seedMetalsCmd.Flags().String("data-dir", "data/metals", "directory of per-metal JSON seed files")
	seedCasesCmd.Flags().String("data-dir", "data/cases", "directory of historical case JSON seed files")
}
