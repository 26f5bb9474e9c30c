// Package conviction scores how strongly a macro event supports a
// tradeable thesis, combining historical precedent, quantitative
// magnitude, transmission channel clarity, timing catalysts, and a
// counter-case discount into a single 0-100 conviction score. Component
// weights, point tables, and the classification thresholds are grounded on
// original_source's conviction.py.
package conviction

import (
	"fmt"

	"github.com/satriapamudji/meridian/internal/domain"
)

// Level is the classified conviction bucket.
type Level string

const (
	LevelHigh         Level = "HIGH"
	LevelMedium       Level = "MEDIUM"
	LevelLow          Level = "LOW"
	LevelInsufficient Level = "INSUFFICIENT"
)

// CatalystClarity grades how clear the timing trigger is.
type CatalystClarity string

const (
	CatalystHigh   CatalystClarity = "high"
	CatalystMedium CatalystClarity = "medium"
	CatalystLow    CatalystClarity = "low"
)

// CounterCaseStrength grades how strong the case against the thesis is.
type CounterCaseStrength string

const (
	CounterStrong   CounterCaseStrength = "strong"
	CounterModerate CounterCaseStrength = "moderate"
	CounterWeak     CounterCaseStrength = "weak"
)

// componentSpec pairs a component's score cap with the sign its weight
// contributes: every component except the counter-case discount adds to
// the total, the discount subtracts.
type componentSpec struct {
	max    int
	weight float64
}

var componentConfig = map[string]componentSpec{
	"historical_precedent": {max: 25, weight: 1.0},
	"quantitative_magnitude": {max: 25, weight: 1.0},
	"channel_clarity":       {max: 20, weight: 1.0},
	"timing_catalyst":       {max: 15, weight: 1.0},
	"counter_case_discount": {max: 15, weight: -1.0},
}

var thresholds = []struct {
	level Level
	min   int
}{
	{LevelHigh, 70},
	{LevelMedium, 50},
	{LevelLow, 30},
}

// Component is one scored line item in the conviction breakdown.
type Component struct {
	Name      string
	Score     int
	Max       int
	Weight    float64
	Rationale string
}

// WeightedScore applies the component's signed weight.
func (c Component) WeightedScore() float64 { return float64(c.Score) * c.Weight }

// Percentage is the component's score as a fraction of its cap.
func (c Component) Percentage() float64 {
	if c.Max == 0 {
		return 0
	}
	return float64(c.Score) / float64(c.Max) * 100
}

// Inputs collects everything the five component scorers need.
type Inputs struct {
	HistoricalCaseCount       int
	HistoricalAvgSignificance float64

	ProductionDropPct    float64
	PriceImpactPct       float64
	GlobalSupplyImpactPct float64

	ChannelCount int

	CatalystClarity CatalystClarity

	CounterCaseStrength CounterCaseStrength

	Warnings []string
}

// Result is the full conviction assessment for one macro event.
type Result struct {
	Components []Component
	Score      int
	Level      Level
	Warnings   []string
}

// BuildInputs derives conviction Inputs from the matched historical cases
// and the event's own quantitative impact estimate, so the five component
// scorers read off persisted case data rather than a caller-assembled
// ad-hoc summary. Quantitative magnitude prefers the event's own impacts;
// absent that it falls back to the average across the matched cases'
// recorded quantitative_impacts.
func BuildInputs(cases []domain.HistoricalCase, eventImpacts domain.JSONMap, clarity CatalystClarity, counterStrength CounterCaseStrength, warnings []string) Inputs {
	in := Inputs{
		HistoricalCaseCount: len(cases),
		CatalystClarity:     clarity,
		CounterCaseStrength: counterStrength,
		Warnings:            warnings,
	}

	if len(cases) > 0 {
		total := 0
		for _, c := range cases {
			total += c.SignificanceScore
		}
		in.HistoricalAvgSignificance = float64(total) / float64(len(cases))
	}

	impacts := eventImpacts
	if impacts == nil {
		impacts = averageQuantitativeImpacts(cases)
	}
	in.ProductionDropPct = floatField(impacts, "production_drop_pct")
	in.PriceImpactPct = floatField(impacts, "price_impact_pct")
	in.GlobalSupplyImpactPct = floatField(impacts, "global_supply_impact_pct")

	return in
}

// averageQuantitativeImpacts folds every matched case's quantitative_impacts
// blob into a single mean-valued JSONMap, used only when the event itself
// carries no quantitative estimate of its own.
func averageQuantitativeImpacts(cases []domain.HistoricalCase) domain.JSONMap {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, c := range cases {
		for k, v := range c.QuantitativeImpacts {
			if f, ok := v.(float64); ok {
				sums[k] += f
				counts[k]++
			}
		}
	}
	if len(sums) == 0 {
		return nil
	}
	out := domain.JSONMap{}
	for k, sum := range sums {
		out[k] = sum / float64(counts[k])
	}
	return out
}

func floatField(m domain.JSONMap, key string) float64 {
	if m == nil {
		return 0
	}
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}

// Calculate scores all five components and classifies the combined result.
func Calculate(in Inputs) Result {
	components := []Component{
		scoreHistoricalPrecedent(in.HistoricalCaseCount, in.HistoricalAvgSignificance),
		scoreQuantitativeMagnitude(in.ProductionDropPct, in.PriceImpactPct, in.GlobalSupplyImpactPct),
		scoreChannelClarity(in.ChannelCount),
		scoreTimingCatalyst(in.CatalystClarity),
		scoreCounterCase(in.CounterCaseStrength),
	}

	total := 0
	for _, c := range components {
		total += int(c.WeightedScore())
	}
	total = clamp(total)

	return Result{
		Components: components,
		Score:      total,
		Level:      classify(total),
		Warnings:   in.Warnings,
	}
}

func scoreHistoricalPrecedent(caseCount int, avgSignificance float64) Component {
	spec := componentConfig["historical_precedent"]
	var score int
	var rationale string
	switch {
	case caseCount == 0:
		score, rationale = 0, "no comparable historical cases found"
	case caseCount == 1:
		score, rationale = 10, "one comparable historical case found"
	case caseCount == 2:
		score, rationale = 15, "two comparable historical cases found"
	default:
		score, rationale = 20, fmt.Sprintf("%d comparable historical cases found", caseCount)
	}
	if caseCount > 0 && avgSignificance > 80 {
		score += 5
		rationale += "; average significance of precedents exceeds 80"
	}
	if score > spec.max {
		score = spec.max
	}
	return Component{Name: "historical_precedent", Score: score, Max: spec.max, Weight: spec.weight, Rationale: rationale}
}

func scoreQuantitativeMagnitude(productionDropPct, priceImpactPct, globalSupplyImpactPct float64) Component {
	spec := componentConfig["quantitative_magnitude"]

	production := magnitudeBreakpoint(productionDropPct, []breakpoint{{0, 2}, {20, 4}, {50, 7}, {90, 10}}, 10)
	price := magnitudeBreakpoint(priceImpactPct, []breakpoint{{0, 2}, {20, 4}, {50, 7}, {90, 10}}, 10)
	global := magnitudeBreakpoint(globalSupplyImpactPct, []breakpoint{{0, 1}, {2, 3}, {5, 5}}, 5)

	score := production + price + global
	if score > spec.max {
		score = spec.max
	}

	rationale := fmt.Sprintf("production drop %.0f%%, price impact %.0f%%, global supply impact %.0f%%",
		productionDropPct, priceImpactPct, globalSupplyImpactPct)

	return Component{Name: "quantitative_magnitude", Score: score, Max: spec.max, Weight: spec.weight, Rationale: rationale}
}

type breakpoint struct {
	at     float64
	points int
}

// magnitudeBreakpoint returns the points for the highest breakpoint that
// pct meets or exceeds, capped at max. A pct of zero or below earns
// nothing, so the first breakpoint (at 0) only pays out for a strictly
// positive pct.
func magnitudeBreakpoint(pct float64, points []breakpoint, max int) int {
	if pct <= 0 {
		return 0
	}
	best := 0
	for _, bp := range points {
		if pct >= bp.at && bp.points > best {
			best = bp.points
		}
	}
	if best > max {
		best = max
	}
	return best
}

func scoreChannelClarity(channelCount int) Component {
	spec := componentConfig["channel_clarity"]
	var score int
	var rationale string
	switch {
	case channelCount >= 3:
		score, rationale = 20, fmt.Sprintf("%d transmission channels identified", channelCount)
	case channelCount == 2:
		score, rationale = 15, "two transmission channels identified"
	case channelCount == 1:
		score, rationale = 10, "one transmission channel identified"
	default:
		score, rationale = 0, "no clear transmission channel identified"
	}
	return Component{Name: "channel_clarity", Score: score, Max: spec.max, Weight: spec.weight, Rationale: rationale}
}

func scoreTimingCatalyst(clarity CatalystClarity) Component {
	spec := componentConfig["timing_catalyst"]
	var score int
	var rationale string
	switch clarity {
	case CatalystHigh:
		score, rationale = 15, "clear near-term catalyst"
	case CatalystMedium:
		score, rationale = 10, "moderate timing catalyst"
	case CatalystLow:
		score, rationale = 5, "weak timing catalyst"
	default:
		score, rationale = 0, "no identifiable timing catalyst"
	}
	return Component{Name: "timing_catalyst", Score: score, Max: spec.max, Weight: spec.weight, Rationale: rationale}
}

func scoreCounterCase(strength CounterCaseStrength) Component {
	spec := componentConfig["counter_case_discount"]
	var score int
	var rationale string
	switch strength {
	case CounterStrong:
		score, rationale = 15, "strong counter-case exists"
	case CounterModerate:
		score, rationale = 10, "moderate counter-case exists"
	case CounterWeak:
		score, rationale = 5, "weak counter-case exists"
	default:
		score, rationale = 0, "no meaningful counter-case"
	}
	return Component{Name: "counter_case_discount", Score: score, Max: spec.max, Weight: spec.weight, Rationale: rationale}
}

func classify(score int) Level {
	for _, t := range thresholds {
		if score >= t.min {
			return t.level
		}
	}
	return LevelInsufficient
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// FormatForPrompt renders a Result the way the LLM synthesis prompt expects
// it: a labelled header, one signed line per component, and a warnings
// footer when present.
func FormatForPrompt(r Result) string {
	out := "=== CONVICTION ASSESSMENT ===\n"
	out += fmt.Sprintf("OVERALL: %s (%d/100)\n", r.Level, r.Score)
	for _, c := range r.Components {
		sign := "+"
		if c.Weight < 0 {
			sign = "-"
		}
		out += fmt.Sprintf("%s%d %s: %s\n", sign, c.Score, c.Name, c.Rationale)
	}
	if len(r.Warnings) > 0 {
		out += "WARNINGS:\n"
		for _, w := range r.Warnings {
			out += "- " + w + "\n"
		}
	}
	out += "===========================\n"
	return out
}
