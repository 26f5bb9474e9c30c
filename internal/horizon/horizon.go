// Package horizon turns a scored macro event, its discovered transmission
// channels, and any matched historical case's recorded time-horizon
// behavior into three time-boxed trade recommendations: a short-term
// tactical read, a medium-term positioning view, and a long-term
// structural view. Types, the per-channel instrument tables, the
// behavior-keyed direction/magnitude lookup, and the entry/risk tables are
// grounded on original_source's time_horizons.py and its test suite (the
// module body itself was truncated in the retrieval pack; the test file's
// literal fixtures and assertions recover the exact contract).
package horizon

import (
	"fmt"
	"strings"

	"github.com/satriapamudji/meridian/internal/domain"
)

// Horizon is one of the three time windows a recommendation is made for.
type Horizon string

const (
	ShortTerm  Horizon = "short_term"
	MediumTerm Horizon = "medium_term"
	LongTerm   Horizon = "long_term"
)

// Direction is the trade's directional bias.
type Direction string

const (
	Long    Direction = "long"
	Short   Direction = "short"
	Neutral Direction = "neutral"
)

var labels = map[Horizon]string{
	ShortTerm:  "Short-Term (1-5 days)",
	MediumTerm: "Medium-Term (2-8 weeks)",
	LongTerm:   "Long-Term (6+ months)",
}

var descriptions = map[Horizon]string{
	ShortTerm:  "Immediate reaction trades. Focus on high-liquidity instruments with tight spreads. Use futures and spot ETFs for quick execution.",
	MediumTerm: "Trend-following positions. Use sector ETFs and individual stocks for larger moves. Consider options spreads for defined risk.",
	LongTerm:   "Structural positioning. Accumulate equity positions in quality names. Use miners and producers for leveraged commodity exposure.",
}

// behaviorKeys maps a horizon onto the key a historical case's
// time_horizon_behavior JSON blob uses for that window.
var behaviorKeys = map[Horizon]string{
	ShortTerm:  "short_term_1_5d",
	MediumTerm: "medium_term_2_8w",
	LongTerm:   "long_term_6m_plus",
}

// DefaultInstruments is the fallback instrument set for a horizon when no
// channel-specific table has an entry.
var DefaultInstruments = map[Horizon][]string{
	ShortTerm:  {"SPY", "^VIX"},
	MediumTerm: {"SPY", "DIA"},
	LongTerm:   {"SPY"},
}

// ShortTermInstruments, MediumTermInstruments, and LongTermInstruments key
// a channel type (from internal/channels.Type, lowercased) onto the
// instruments appropriate for that horizon's holding period.
var ShortTermInstruments = map[string][]string{
	"oil_supply_disruption": {"CL=F", "BZ=F", "USO"},
	"oil_demand_shock":      {"CL=F", "BZ=F"},
	"fed_hawkish":           {"TLT", "DX=F"},
	"fed_dovish":            {"TLT", "DX=F"},
	"risk_off_flight":       {"^VIX", "TLT", "GC=F"},
	"risk_on_rally":         {"SPY", "HYG"},
	"dollar_strength":       {"DX=F", "UUP"},
	"dollar_weakness":       {"DX=F", "UUP"},
	"inflation_spike":       {"TIP", "GC=F"},
	"metals_supply":         {"GC=F", "SI=F", "HG=F"},
}

var MediumTermInstruments = map[string][]string{
	"oil_supply_disruption": {"XLE", "XOP", "OXY", "CVX"},
	"oil_demand_shock":      {"XLE", "XOP"},
	"fed_hawkish":           {"KRE", "XLF"},
	"fed_dovish":            {"XLF", "XHB"},
	"risk_off_flight":       {"SPY", "KRE"},
	"risk_on_rally":         {"SPY", "IWM"},
	"dollar_strength":       {"EEM", "FXI"},
	"dollar_weakness":       {"EEM", "GLD"},
	"inflation_spike":       {"TIP", "GLD"},
	"metals_supply":         {"GLD", "SLV", "COPX"},
}

var LongTermInstruments = map[string][]string{
	"oil_supply_disruption": {"XOM", "CVX", "XLE"},
	"oil_demand_shock":      {"XOM", "CVX"},
	"fed_hawkish":           {"XLF"},
	"fed_dovish":            {"XHB", "XLRE"},
	"risk_off_flight":       {"TLT", "GLD"},
	"risk_on_rally":         {"SPY"},
	"dollar_strength":       {"EEM"},
	"dollar_weakness":       {"GLD"},
	"inflation_spike":       {"GLD"},
	"metals_supply":         {"GDX", "SIL"},
}

// bearishChannels and bullishChannels give determineDirectionFromBehavior a
// default direction for a channel when no historical time-horizon behavior
// is available to read a direction off of.
var bearishChannels = map[string]bool{
	"risk_off_flight":   true,
	"fed_hawkish":       true,
	"vix_spike":         true,
	"credit_tightening": true,
	"liquidity_crisis":  true,
	"dollar_strength":   true,
}

var bullishChannels = map[string]bool{
	"risk_on_rally":  true,
	"fed_dovish":     true,
	"dollar_weakness": true,
}

var entryApproaches = map[Horizon]string{
	ShortTerm:  "Enter promptly around the print; size down if liquidity is thin at the open.",
	MediumTerm: "Scale in on confirmation (follow-up data, continued official rhetoric) rather than the initial print alone.",
	LongTerm:   "Build the position gradually; only warranted once a second or third corroborating event confirms the regime.",
}

var riskManagement = map[Horizon]string{
	ShortTerm:  "Tight stop, 3-5% beyond the pre-event range; exit within days if the move doesn't extend.",
	MediumTerm: "Stop on a clear reversal of the channel's thesis (e.g. official walk-back, contradicting data).",
	LongTerm:   "Wide stop, 15-20%, re-underwritten on any quarterly data point that contradicts the regime shift.",
}

// Recommendation is one horizon's worth of trade guidance.
type Recommendation struct {
	Horizon           Horizon
	Instruments       []string
	Direction         Direction
	Rationale         string
	Conviction        string
	EntryApproach     string
	RiskManagement    string
	ExpectedMagnitude string
}

// Analysis bundles all three horizons for one event.
type Analysis struct {
	ShortTerm    Recommendation
	MediumTerm   Recommendation
	LongTerm     Recommendation
	EventSummary string
	Warnings     []string
}

// AllRecommendations returns the three recommendations in short/medium/long
// order, for callers that want to iterate rather than address by field.
func (a Analysis) AllRecommendations() []Recommendation {
	return []Recommendation{a.ShortTerm, a.MediumTerm, a.LongTerm}
}

// HorizonBehavior is one horizon window's recorded outcome on a historical
// case, read off the case's domain.HorizonBehaviorMap entry for that
// horizon's key: a direction label for the channel's primary
// commodity/asset, a magnitude, and optionally the driver description that
// gets folded into the rationale.
type HorizonBehavior struct {
	OilDirection     string
	OilMagnitudePct  float64
	GoldMagnitudePct float64
	PrimaryDriver    string
}

// horizonBehaviorFromJSON reads a HorizonBehavior out of the free-form
// JSONMap a domain.HistoricalCase stores per horizon key.
func horizonBehaviorFromJSON(m domain.JSONMap) HorizonBehavior {
	var hb HorizonBehavior
	if m == nil {
		return hb
	}
	if v, ok := m["oil_direction"].(string); ok {
		hb.OilDirection = v
	} else if v, ok := m["direction"].(string); ok {
		hb.OilDirection = v
	}
	if v, ok := m["oil_magnitude_pct"].(float64); ok {
		hb.OilMagnitudePct = v
	}
	if v, ok := m["gold_magnitude_pct"].(float64); ok {
		hb.GoldMagnitudePct = v
	}
	if v, ok := m["driver"].(string); ok {
		hb.PrimaryDriver = v
	} else if v, ok := m["primary_driver"].(string); ok {
		hb.PrimaryDriver = v
	}
	return hb
}

// Input collects what the recommender needs about the scored event.
type Input struct {
	EventHeadline       string
	ChannelTypes        []string
	HistoricalCases     []domain.HistoricalCase
	QuantitativeImpacts map[string]float64
	ConvictionLevel     string
}

// GetInstrumentsForHorizon unions the instruments of every channel type at
// the given horizon, falling back to DefaultInstruments when none of the
// channels have a horizon-specific entry, and capping at maxInstruments
// when positive.
func GetInstrumentsForHorizon(h Horizon, channelTypes []string, maxInstruments int) []string {
	table := instrumentTable(h)
	var out []string
	seen := make(map[string]bool)
	for _, ct := range channelTypes {
		for _, inst := range table[strings.ToLower(ct)] {
			if !seen[inst] {
				seen[inst] = true
				out = append(out, inst)
			}
		}
	}
	if len(out) == 0 {
		for _, inst := range DefaultInstruments[h] {
			if !seen[inst] {
				seen[inst] = true
				out = append(out, inst)
			}
		}
	}
	if maxInstruments > 0 && len(out) > maxInstruments {
		out = out[:maxInstruments]
	}
	return out
}

func instrumentTable(h Horizon) map[string][]string {
	switch h {
	case ShortTerm:
		return ShortTermInstruments
	case MediumTerm:
		return MediumTermInstruments
	default:
		return LongTermInstruments
	}
}

// DetermineDirectionFromBehavior reads the direction a historical case's
// time-horizon behavior recorded for this horizon. Absent behavior data it
// defaults any bearish channel to Short and any bullish channel to Long,
// and otherwise Neutral.
func DetermineDirectionFromBehavior(h Horizon, behavior *HorizonBehavior, channelTypes []string) Direction {
	if behavior != nil {
		switch strings.ToLower(behavior.OilDirection) {
		case "up":
			return Long
		case "down":
			return Short
		}
	}
	for _, ct := range channelTypes {
		if bearishChannels[strings.ToLower(ct)] {
			return Short
		}
	}
	for _, ct := range channelTypes {
		if bullishChannels[strings.ToLower(ct)] {
			return Long
		}
	}
	return Neutral
}

// DetermineMagnitudeFromBehavior prefers a historical case's recorded
// magnitude for this horizon, falls back to the event's own quantitative
// impact estimate, and otherwise returns a generic expectation.
func DetermineMagnitudeFromBehavior(h Horizon, behavior *HorizonBehavior, quantitativeImpacts map[string]float64) string {
	if behavior != nil {
		if behavior.OilMagnitudePct != 0 {
			return fmt.Sprintf("Oil: %.0f%% based on comparable historical precedent", behavior.OilMagnitudePct)
		}
		if behavior.GoldMagnitudePct != 0 {
			return fmt.Sprintf("Gold: %.0f%% based on comparable historical precedent", behavior.GoldMagnitudePct)
		}
	}
	if quantitativeImpacts != nil {
		if v, ok := quantitativeImpacts["peak_price_impact_pct"]; ok && v != 0 {
			return fmt.Sprintf("%.0f%% move implied by the event's quantitative impact estimate", v)
		}
		if v, ok := quantitativeImpacts["price_impact_pct"]; ok && v != 0 {
			return fmt.Sprintf("%.0f%% move implied by the event's quantitative impact estimate", v)
		}
	}
	return "5-15% move in primary instruments, consistent with the channel's typical magnitude"
}

// BuildRationale composes a horizon's rationale line from the horizon's own
// description, the matched channel names, and a historical case's recorded
// primary driver when present.
func BuildRationale(h Horizon, channelNames []string, behavior *HorizonBehavior) string {
	var b strings.Builder
	b.WriteString(descriptions[h])
	if len(channelNames) > 0 {
		b.WriteString(" Channels: ")
		b.WriteString(strings.Join(channelNames, ", "))
		b.WriteString(".")
	}
	if behavior != nil && behavior.PrimaryDriver != "" {
		b.WriteString(" ")
		b.WriteString(behavior.PrimaryDriver)
	}
	return b.String()
}

func horizonBehaviorFor(h Horizon, cases []domain.HistoricalCase) *HorizonBehavior {
	key := behaviorKeys[h]
	for _, c := range cases {
		if c.TimeHorizonBehavior == nil {
			continue
		}
		if m, ok := c.TimeHorizonBehavior[key]; ok {
			hb := horizonBehaviorFromJSON(m)
			return &hb
		}
	}
	return nil
}

func recommendationFor(h Horizon, channelTypes, channelNames []string, cases []domain.HistoricalCase, impacts map[string]float64, conviction string) Recommendation {
	behavior := horizonBehaviorFor(h, cases)
	return Recommendation{
		Horizon:           h,
		Instruments:       GetInstrumentsForHorizon(h, channelTypes, 5),
		Direction:         DetermineDirectionFromBehavior(h, behavior, channelTypes),
		Rationale:         BuildRationale(h, channelNames, behavior),
		Conviction:        conviction,
		EntryApproach:     entryApproaches[h],
		RiskManagement:    riskManagement[h],
		ExpectedMagnitude: DetermineMagnitudeFromBehavior(h, behavior, impacts),
	}
}

// Analyze builds the three horizon recommendations for one event, pulling
// instrument sets, directional bias, and expected magnitude from the
// matched channels and any historical precedent's recorded behavior.
func Analyze(in Input) Analysis {
	channelNames := make([]string, len(in.ChannelTypes))
	for i, ct := range in.ChannelTypes {
		channelNames[i] = strings.ReplaceAll(strings.Title(strings.ReplaceAll(ct, "_", " ")), "  ", " ")
	}

	analysis := Analysis{
		ShortTerm:    recommendationFor(ShortTerm, in.ChannelTypes, channelNames, in.HistoricalCases, in.QuantitativeImpacts, in.ConvictionLevel),
		MediumTerm:   recommendationFor(MediumTerm, in.ChannelTypes, channelNames, in.HistoricalCases, in.QuantitativeImpacts, in.ConvictionLevel),
		LongTerm:     recommendationFor(LongTerm, in.ChannelTypes, channelNames, in.HistoricalCases, in.QuantitativeImpacts, in.ConvictionLevel),
		EventSummary: in.EventHeadline,
	}

	if len(in.HistoricalCases) == 0 {
		analysis.Warnings = append(analysis.Warnings, "no historical precedent available to ground horizon direction or magnitude")
	}
	if in.QuantitativeImpacts == nil {
		analysis.Warnings = append(analysis.Warnings, "no quantitative impact data available")
	}
	if strings.EqualFold(in.ConvictionLevel, "low") || strings.EqualFold(in.ConvictionLevel, "insufficient") {
		analysis.Warnings = append(analysis.Warnings, fmt.Sprintf("%s conviction limits position sizing across all horizons", in.ConvictionLevel))
	}

	return analysis
}

// FormatForPrompt renders an Analysis the way the LLM synthesis prompt
// expects it.
func FormatForPrompt(a Analysis) string {
	var b strings.Builder
	b.WriteString("=== TIME HORIZON ANALYSIS ===\n")
	for _, r := range a.AllRecommendations() {
		b.WriteString(fmt.Sprintf("\n%s\n", labels[r.Horizon]))
		b.WriteString(fmt.Sprintf("  Direction: %s\n", r.Direction))
		b.WriteString(fmt.Sprintf("  Instruments: %s\n", strings.Join(r.Instruments, ", ")))
		b.WriteString(fmt.Sprintf("  Rationale: %s\n", r.Rationale))
		b.WriteString(fmt.Sprintf("  Entry: %s\n", r.EntryApproach))
		b.WriteString(fmt.Sprintf("  Risk: %s\n", r.RiskManagement))
		b.WriteString(fmt.Sprintf("  Expected magnitude: %s\n", r.ExpectedMagnitude))
	}
	if len(a.Warnings) > 0 {
		b.WriteString("\nWARNINGS:\n")
		for _, w := range a.Warnings {
			b.WriteString("  - " + w + "\n")
		}
	}
	b.WriteString("\n" + strings.Repeat("=", 30) + "\n")
	return b.String()
}

// Label returns the human-readable label for a horizon.
func Label(h Horizon) string { return labels[h] }

// Description returns the prose description for a horizon.
func Description(h Horizon) string { return descriptions[h] }
