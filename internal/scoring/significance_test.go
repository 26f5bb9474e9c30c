package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/satriapamudji/meridian/internal/domain"
)

func TestScoreExplicitFedRateCutIsPriority(t *testing.T) {
	result := Score(Input{
		Source:    "reuters",
		Headline:  "Fed signals rate cuts",
		EventType: "monetary_policy",
		Regions:   []string{"US"},
		Entities:  []string{"Federal Reserve"},
	})

	assert.Equal(t, domain.SignificanceComponents{
		Structural:   88,
		Transmission: 95,
		Historical:   70,
		Attention:    60,
	}, result.Components)
	assert.Equal(t, 82, result.Total)
	assert.Equal(t, "priority", result.Tier)
	assert.True(t, result.PriorityFlag)
}

func TestScoreInferredFedRateHikeIsStillPriority(t *testing.T) {
	result := Score(Input{
		Headline: "Fed raises rates",
		Entities: []string{"Federal Reserve"},
	})

	assert.Equal(t, "monetary_policy", result.EventType)
	assert.Equal(t, []string{}, result.Regions)
	assert.Equal(t, domain.SignificanceComponents{
		Structural:   80,
		Transmission: 95,
		Historical:   65,
		Attention:    50,
	}, result.Components)
	assert.Equal(t, 77, result.Total)
	assert.Equal(t, "priority", result.Tier)
	assert.True(t, result.PriorityFlag)
}

func TestScoreLowSignificanceHeadlineIsLowTier(t *testing.T) {
	result := Score(Input{
		Source:   "local-wire",
		Headline: "Regional manufacturing index ticks up slightly",
	})

	assert.Equal(t, "logged", result.Tier)
	assert.False(t, result.PriorityFlag)
}

func TestWeightedTotalRoundsHalfUp(t *testing.T) {
	total := weightedTotal(domain.SignificanceComponents{
		Structural:   50,
		Transmission: 50,
		Historical:   50,
		Attention:    60,
	})
	assert.Equal(t, 52, total)
}

func TestNormalizeEventTypeAppliesAliasTable(t *testing.T) {
	assert.Equal(t, "monetary_policy", NormalizeEventType("Central Bank"))
	assert.Equal(t, "financial_crisis", NormalizeEventType("banking-crisis"))
	assert.Equal(t, "", NormalizeEventType(""))
}

func TestClassifyScoreBoundaries(t *testing.T) {
	assert.Equal(t, "priority", ClassifyScore(65))
	assert.Equal(t, "monitoring", ClassifyScore(64))
	assert.Equal(t, "monitoring", ClassifyScore(50))
	assert.Equal(t, "logged", ClassifyScore(49))
}
