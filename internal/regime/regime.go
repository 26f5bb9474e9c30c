// Package regime classifies the day's market context into a volatility,
// dollar, curve, and credit regime from the raw levels ingested by the
// market-context snapshot job, then derives a position-size multiplier
// from the more conservative of the volatility and credit regimes.
// Classification order, threshold cut points, the unknown-on-missing-data
// behavior, and the min(vol_mult, credit_mult) sizing rule are all grounded
// on analysis/market_context.py and its test suite's literal boundary
// assertions (VIX 15/20/30/40, DXY 95/105, 2s10s 0/0.25/1.0, HY OAS
// 300/400/500/800).
package regime

import "github.com/shopspring/decimal"

const unknown = "unknown"

// volatilityThresholds is checked from the highest level down: the first
// threshold the VIX level meets or exceeds wins.
var volatilityThresholds = []struct {
	regime string
	min    float64
}{
	{"crisis", 40},
	{"fear", 30},
	{"elevated", 20},
	{"normal", 15},
	{"calm", 0},
}

// curveThresholds keys off the 10y-2y spread in percentage points, not
// basis points.
var curveThresholds = []struct {
	regime string
	min    float64
}{
	{"steep", 1.0},
	{"normal", 0.25},
	{"flat", 0},
}

// creditThresholds keys off the high-yield OAS level in basis points.
var creditThresholds = []struct {
	regime string
	min    float64
}{
	{"crisis", 800},
	{"stressed", 500},
	{"wide", 400},
	{"normal", 300},
	{"tight", 0},
}

var volatilityPositionMultiplier = map[string]decimal.Decimal{
	"calm":     decimal.NewFromFloat(1.0),
	"normal":   decimal.NewFromFloat(1.0),
	"elevated": decimal.NewFromFloat(0.75),
	"fear":     decimal.NewFromFloat(0.50),
	"crisis":   decimal.NewFromFloat(0.25),
}

var creditPositionMultiplier = map[string]decimal.Decimal{
	"tight":    decimal.NewFromFloat(1.0),
	"normal":   decimal.NewFromFloat(1.0),
	"wide":     decimal.NewFromFloat(0.75),
	"stressed": decimal.NewFromFloat(0.50),
	"crisis":   decimal.NewFromFloat(0.25),
}

// Inputs is the raw levels a single day's market-context snapshot carries.
// A field left at its zero value is not the same as missing data; callers
// that don't have a level should route classification through the pointer
// fields on Snapshot instead of calling Classify directly.
type Inputs struct {
	VIXLevel   float64
	US10Y      float64
	US2Y       float64
	HYOASLevel float64
	DXYLevel   float64
}

// Snapshot mirrors Inputs but allows any level to be absent, matching a
// day where one or more upstream feeds failed.
type Snapshot struct {
	VIXLevel   *float64
	US10Y      *float64
	US2Y       *float64
	HYOASLevel *float64
	DXYLevel   *float64
}

// Classification is the four regime labels plus the derived position
// multiplier for one day.
type Classification struct {
	VolatilityRegime   string
	DollarRegime       string
	CurveRegime        string
	CreditRegime       string
	PositionMultiplier decimal.Decimal
}

// ClassifyVolatility classifies the VIX level alone. A nil level yields
// "unknown".
func ClassifyVolatility(vix *float64) string {
	if vix == nil {
		return unknown
	}
	return classifyThreshold(*vix, volatilityThresholds)
}

// ClassifyDollar classifies the DXY level. DXY's historical range runs
// roughly 70-120, centered around 90-105; this is an absolute-level
// heuristic rather than a rate-of-change signal.
func ClassifyDollar(dxy *float64) string {
	if dxy == nil {
		return unknown
	}
	switch {
	case *dxy >= 105:
		return "strong"
	case *dxy <= 95:
		return "weak"
	default:
		return "neutral"
	}
}

// ClassifyCurve classifies the 2s10s spread, expressed in percentage
// points (e.g. -0.5 means 50bps inverted).
func ClassifyCurve(spread2s10s *float64) string {
	if spread2s10s == nil {
		return unknown
	}
	if *spread2s10s < 0 {
		return "inverted"
	}
	return classifyThreshold(*spread2s10s, curveThresholds)
}

// ClassifyCredit classifies the high-yield OAS spread, expressed in basis
// points.
func ClassifyCredit(hyOAS *float64) string {
	if hyOAS == nil {
		return unknown
	}
	return classifyThreshold(*hyOAS, creditThresholds)
}

// ClassifySnapshot derives all four regimes and the position multiplier,
// tolerating any subset of missing levels.
func ClassifySnapshot(s Snapshot) Classification {
	var spread *float64
	if s.US10Y != nil && s.US2Y != nil {
		v := *s.US10Y - *s.US2Y
		spread = &v
	}

	vol := ClassifyVolatility(s.VIXLevel)
	dollar := ClassifyDollar(s.DXYLevel)
	curve := ClassifyCurve(spread)
	credit := ClassifyCredit(s.HYOASLevel)

	return Classification{
		VolatilityRegime:   vol,
		DollarRegime:       dollar,
		CurveRegime:        curve,
		CreditRegime:       credit,
		PositionMultiplier: positionMultiplier(vol, credit),
	}
}

// Classify derives all four regimes and the position multiplier from a
// single day's raw levels, assuming every level is present.
func Classify(in Inputs) Classification {
	return ClassifySnapshot(Snapshot{
		VIXLevel:   &in.VIXLevel,
		US10Y:      &in.US10Y,
		US2Y:       &in.US2Y,
		HYOASLevel: &in.HYOASLevel,
		DXYLevel:   &in.DXYLevel,
	})
}

func classifyThreshold(value float64, thresholds []struct {
	regime string
	min    float64
}) string {
	for _, t := range thresholds {
		if value >= t.min {
			return t.regime
		}
	}
	return thresholds[len(thresholds)-1].regime
}

// positionMultiplier takes the more conservative (smaller) of the
// volatility- and credit-implied multipliers. An unrecognised or unknown
// regime defaults to 1.0, the same default the lookup table miss uses.
func positionMultiplier(volRegime, creditRegime string) decimal.Decimal {
	volMult, ok := volatilityPositionMultiplier[volRegime]
	if !ok {
		volMult = decimal.NewFromInt(1)
	}
	creditMult, ok := creditPositionMultiplier[creditRegime]
	if !ok {
		creditMult = decimal.NewFromInt(1)
	}
	if volMult.LessThan(creditMult) {
		return volMult
	}
	return creditMult
}
