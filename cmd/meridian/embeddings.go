package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/satriapamudji/meridian/internal/historical"
)

// embeddingDim is the pgvector column width historical_cases.embedding is
// declared with; every vector applied or queried against it must match.
const embeddingDim = 1536

type embeddingUpdate struct {
	EventName string    `json:"event_name"`
	DateRange string    `json:"date_range"`
	Embedding []float32 `json:"embedding"`
}

// embeddingsCmd applies a batch of precomputed embeddings to existing
// historical cases, matched by (event_name, date_range), the same update
// keyed by natural key the embeddings loader uses.
var embeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Apply precomputed embeddings to historical cases",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("embeddings-file")
		if path == "" {
			return fmt.Errorf("embeddings: --embeddings-file is required")
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("embeddings: read %s: %w", path, err)
		}

		var updates []embeddingUpdate
		if err := json.Unmarshal(raw, &updates); err != nil {
			return fmt.Errorf("embeddings: parse %s: %w", path, err)
		}
		if len(updates) == 0 {
			return fmt.Errorf("embeddings: %s: must be a non-empty list", path)
		}
		for i, u := range updates {
			if u.EventName == "" || u.DateRange == "" {
				return fmt.Errorf("embeddings: %s: entry %d missing event_name or date_range", path, i)
			}
			if len(u.Embedding) != embeddingDim {
				return fmt.Errorf("embeddings: %s: entry %d: embedding must have %d dimensions, got %d", path, i, embeddingDim, len(u.Embedding))
			}
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext()
		defer cancel()

		updated := 0
		for _, u := range updates {
			n, err := a.repo().HistoricalCases.UpdateEmbedding(ctx, u.EventName, u.DateRange, u.Embedding)
			if err != nil {
				return fmt.Errorf("embeddings: update %s/%s: %w", u.EventName, u.DateRange, err)
			}
			updated += n
		}

		log.Info().Int("updated", updated).Str("file", path).Msg("applied historical case embeddings")
		return nil
	},
}

// similarCasesCmd runs a single query embedding against the pgvector
// similarity index and prints the nearest historical cases as JSON.
var similarCasesCmd = &cobra.Command{
	Use:   "similar-cases",
	Short: "Find historical cases nearest a query embedding",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("embedding-file")
		limit, _ := cmd.Flags().GetInt("limit")
		if path == "" {
			return fmt.Errorf("similar-cases: --embedding-file is required")
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("similar-cases: read %s: %w", path, err)
		}

		var embedding []float32
		if err := json.Unmarshal(raw, &embedding); err != nil {
			return fmt.Errorf("similar-cases: parse %s: %w", path, err)
		}
		if len(embedding) != embeddingDim {
			return fmt.Errorf("similar-cases: %s: embedding must have %d dimensions, got %d", path, embeddingDim, len(embedding))
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext()
		defer cancel()

		store := historical.NewSQLXStore(a.dbm.DB())
		matches, err := store.FindSimilarCases(ctx, embedding, limit)
		if err != nil {
			return fmt.Errorf("similar-cases: %w", err)
		}

		type resultRow struct {
			EventName         string   `json:"event_name"`
			DateRange         string   `json:"date_range"`
			EventType         string   `json:"event_type"`
			SignificanceScore int      `json:"significance_score"`
			Distance          *float64 `json:"distance,omitempty"`
		}
		out := make([]resultRow, 0, len(matches))
		for _, m := range matches {
			out = append(out, resultRow{
				EventName:         m.Case.EventName,
				DateRange:         m.Case.DateRange,
				EventType:         m.Case.EventType,
				SignificanceScore: m.Case.SignificanceScore,
				Distance:          m.Distance,
			})
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	embeddingsCmd.Flags().String("embeddings-file", "", "JSON file with a list of {event_name, date_range, embedding}")
	similarCasesCmd.Flags().String("embedding-file", "", "JSON file containing a single query embedding vector")
	similarCasesCmd.Flags().Int("limit", 5, "maximum number of similar cases to return")
}
