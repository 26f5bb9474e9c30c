package regime

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyVolatilityBoundaries(t *testing.T) {
	assert.Equal(t, "calm", ClassifyVolatility(f(10)))
	assert.Equal(t, "calm", ClassifyVolatility(f(14.99)))
	assert.Equal(t, "normal", ClassifyVolatility(f(15)))
	assert.Equal(t, "normal", ClassifyVolatility(f(19.99)))
	assert.Equal(t, "elevated", ClassifyVolatility(f(20)))
	assert.Equal(t, "elevated", ClassifyVolatility(f(29.99)))
	assert.Equal(t, "fear", ClassifyVolatility(f(30)))
	assert.Equal(t, "fear", ClassifyVolatility(f(39.99)))
	assert.Equal(t, "crisis", ClassifyVolatility(f(40)))
	assert.Equal(t, "crisis", ClassifyVolatility(f(80)))
	assert.Equal(t, unknown, ClassifyVolatility(nil))
}

func TestClassifyDollarBoundaries(t *testing.T) {
	assert.Equal(t, "weak", ClassifyDollar(f(90)))
	assert.Equal(t, "weak", ClassifyDollar(f(95)))
	assert.Equal(t, "neutral", ClassifyDollar(f(95.01)))
	assert.Equal(t, "neutral", ClassifyDollar(f(104.99)))
	assert.Equal(t, "strong", ClassifyDollar(f(105)))
	assert.Equal(t, "strong", ClassifyDollar(f(110)))
	assert.Equal(t, unknown, ClassifyDollar(nil))
}

func TestClassifyCurveBoundaries(t *testing.T) {
	assert.Equal(t, "inverted", ClassifyCurve(f(-0.5)))
	assert.Equal(t, "flat", ClassifyCurve(f(0)))
	assert.Equal(t, "flat", ClassifyCurve(f(0.24)))
	assert.Equal(t, "normal", ClassifyCurve(f(0.25)))
	assert.Equal(t, "normal", ClassifyCurve(f(0.99)))
	assert.Equal(t, "steep", ClassifyCurve(f(1.0)))
	assert.Equal(t, unknown, ClassifyCurve(nil))
}

func TestClassifyCreditBoundaries(t *testing.T) {
	assert.Equal(t, "tight", ClassifyCredit(f(299)))
	assert.Equal(t, "normal", ClassifyCredit(f(300)))
	assert.Equal(t, "normal", ClassifyCredit(f(399)))
	assert.Equal(t, "wide", ClassifyCredit(f(400)))
	assert.Equal(t, "wide", ClassifyCredit(f(499)))
	assert.Equal(t, "stressed", ClassifyCredit(f(500)))
	assert.Equal(t, "stressed", ClassifyCredit(f(799)))
	assert.Equal(t, "crisis", ClassifyCredit(f(800)))
	assert.Equal(t, unknown, ClassifyCredit(nil))
}

func TestClassifyFullSnapshotMatchesAllFourRegimes(t *testing.T) {
	c := Classify(Inputs{VIXLevel: 22.5, DXYLevel: 102.0, US10Y: 0.5, US2Y: 0, HYOASLevel: 350})
	assert.Equal(t, "elevated", c.VolatilityRegime)
	assert.Equal(t, "neutral", c.DollarRegime)
	assert.Equal(t, "normal", c.CurveRegime)
	assert.Equal(t, "normal", c.CreditRegime)
	assert.True(t, c.PositionMultiplier.Equal(decimal.NewFromFloat(0.75)))
}

func TestClassifySnapshotMissingDataIsUnknown(t *testing.T) {
	c := ClassifySnapshot(Snapshot{})
	assert.Equal(t, unknown, c.VolatilityRegime)
	assert.Equal(t, unknown, c.DollarRegime)
	assert.Equal(t, unknown, c.CurveRegime)
	assert.Equal(t, unknown, c.CreditRegime)
	assert.True(t, c.PositionMultiplier.Equal(decimal.NewFromFloat(1.0)))
}

func TestPositionMultiplierTakesMoreConservativeOfVolAndCredit(t *testing.T) {
	c := Classify(Inputs{VIXLevel: 32, DXYLevel: 100, US10Y: 4.2, US2Y: 4.0, HYOASLevel: 420})
	assert.Equal(t, "fear", c.VolatilityRegime)
	assert.Equal(t, "wide", c.CreditRegime)
	assert.True(t, c.PositionMultiplier.Equal(decimal.NewFromFloat(0.50)))
}

func TestPositionMultiplierNormalConditionsFullSize(t *testing.T) {
	c := Classify(Inputs{VIXLevel: 18, DXYLevel: 100, US10Y: 4.2, US2Y: 4.0, HYOASLevel: 380})
	assert.Equal(t, "normal", c.VolatilityRegime)
	assert.Equal(t, "normal", c.CreditRegime)
	assert.True(t, c.PositionMultiplier.Equal(decimal.NewFromFloat(1.0)))
}

func f(v float64) *float64 { return &v }
