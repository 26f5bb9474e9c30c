package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/satriapamudji/meridian/internal/channels"
	"github.com/satriapamudji/meridian/internal/domain"
)

// PromptInput collects the views the synthesis prompt is built from: the
// event itself, the top-k historical cases of the same event type, and the
// discovery result, when available.
type PromptInput struct {
	Event           domain.MacroEvent
	MetalsKnowledge map[string]interface{}
	HistoricalCases []domain.HistoricalCase
	Discovery       *channels.DiscoveryResult
}

// BuildPrompt JSON-encodes each view and assembles the synthesis prompt the
// collaborator responds to with a RawSynthesis-shaped JSON document.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	b.WriteString("You are a macro-to-metals-to-crypto transmission analyst. ")
	b.WriteString("Given the event, metals knowledge base, and comparable historical cases below, ")
	b.WriteString("respond with a single JSON object with keys: raw_facts (string array), ")
	b.WriteString("metal_impacts (object keyed by gold/silver/copper, each {direction, magnitude, driver}), ")
	b.WriteString("historical_precedent (string), counter_case (string), ")
	b.WriteString("crypto_transmission ({exists, path, strength, relevant_assets}), ")
	b.WriteString("and optionally thesis_seed and asset_opportunities.\n\n")

	b.WriteString("EVENT:\n")
	b.WriteString(toJSON(eventView(in.Event)))
	b.WriteString("\n\n")

	if len(in.MetalsKnowledge) > 0 {
		b.WriteString("METALS KNOWLEDGE BASE:\n")
		b.WriteString(toJSON(in.MetalsKnowledge))
		b.WriteString("\n\n")
	}

	if len(in.HistoricalCases) > 0 {
		b.WriteString("COMPARABLE HISTORICAL CASES:\n")
		b.WriteString(toJSON(caseViews(in.HistoricalCases)))
		b.WriteString("\n\n")
	}

	if in.Discovery != nil {
		b.WriteString("DISCOVERY RESULT:\n")
		b.WriteString(channels.FormatDiscoveryResult(*in.Discovery))
		b.WriteString("\n\n")
	}

	b.WriteString("Respond with JSON only, no prose outside the object.")
	return b.String()
}

func eventView(e domain.MacroEvent) map[string]interface{} {
	return map[string]interface{}{
		"source":       e.Source,
		"headline":     e.Headline,
		"full_text":    e.FullText,
		"event_type":   e.EventType,
		"regions":      e.Regions,
		"entities":     e.Entities,
		"published_at": e.PublishedAt,
	}
}

func caseViews(cases []domain.HistoricalCase) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(cases))
	for _, c := range cases {
		out = append(out, map[string]interface{}{
			"event_name":                  c.EventName,
			"date_range":                  c.DateRange,
			"event_type":                  c.EventType,
			"significance_score":          c.SignificanceScore,
			"structural_drivers":          c.StructuralDrivers,
			"lessons":                     c.Lessons,
			"counter_examples":            c.CounterExamples,
			"traditional_market_reaction": c.TraditionalMarketReaction,
			"metal_impacts":               c.MetalImpacts,
			"crypto_reaction":             c.CryptoReaction,
			"quantitative_impacts":        c.QuantitativeImpacts,
		})
	}
	return out
}

func toJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
