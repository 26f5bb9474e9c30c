package conviction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateHighConviction(t *testing.T) {
	result := Calculate(Inputs{
		HistoricalCaseCount:       3,
		HistoricalAvgSignificance: 85,
		ProductionDropPct:         60,
		PriceImpactPct:            55,
		GlobalSupplyImpactPct:     6,
		ChannelCount:              3,
		CatalystClarity:           CatalystHigh,
		CounterCaseStrength:       CounterWeak,
	})

	assert.Equal(t, LevelHigh, result.Level)
	assert.GreaterOrEqual(t, result.Score, 70)
}

func TestCalculateInsufficientConviction(t *testing.T) {
	result := Calculate(Inputs{
		HistoricalCaseCount: 0,
		ChannelCount:        0,
		CatalystClarity:     "",
		CounterCaseStrength: CounterStrong,
	})

	assert.Equal(t, LevelInsufficient, result.Level)
	assert.Less(t, result.Score, 30)
}

func TestScoreQuantitativeMagnitudeCapsAtComponentMax(t *testing.T) {
	c := scoreQuantitativeMagnitude(95, 95, 10)
	assert.Equal(t, 25, c.Score)
}

func TestFormatForPromptIncludesWarnings(t *testing.T) {
	result := Calculate(Inputs{Warnings: []string{"thin historical sample"}})
	rendered := FormatForPrompt(result)
	assert.Contains(t, rendered, "CONVICTION ASSESSMENT")
	assert.Contains(t, rendered, "thin historical sample")
}
