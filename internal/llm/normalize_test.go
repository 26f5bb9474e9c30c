package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/satriapamudji/meridian/internal/domain"
)

func TestNormalizeCryptoTransmissionMapsStrengthAliases(t *testing.T) {
	got := NormalizeCryptoTransmission(CryptoTransmissionRaw{
		Exists:   true,
		Path:     "  gold weakness pressures bitcoin as a hedge  ",
		Strength: "high",
	})
	assert.Equal(t, true, got["exists"])
	assert.Equal(t, "gold weakness pressures bitcoin as a hedge", got["path"])
	assert.Equal(t, "strong", got["strength"])
	assert.Equal(t, []string{"BTC"}, got["relevant_assets"])
}

func TestNormalizeCryptoTransmissionDedupsAndMapsAssets(t *testing.T) {
	got := NormalizeCryptoTransmission(CryptoTransmissionRaw{
		Exists:         true,
		Path:           "flight to stablecoins",
		Strength:       "unknown",
		RelevantAssets: []string{"bitcoin", "BTC", "Tether", "stablecoin"},
	})
	assert.Equal(t, "none", got["strength"])
	assert.ElementsMatch(t, []string{"BTC", "USDT", "stablecoins"}, got["relevant_assets"])
}

func TestNormalizeCryptoTransmissionIsIdempotent(t *testing.T) {
	first := NormalizeCryptoTransmission(CryptoTransmissionRaw{
		Exists: true, Path: "direct", Strength: "strong", RelevantAssets: []string{"BTC"},
	})
	second := NormalizeCryptoTransmission(CryptoTransmissionRaw{
		Exists:         first["exists"].(bool),
		Path:           first["path"].(string),
		Strength:       first["strength"].(string),
		RelevantAssets: first["relevant_assets"].([]string),
	})
	assert.Equal(t, first, second)
}

func TestNormalizeRawFactsDropsEmptyAndCollapsesWhitespace(t *testing.T) {
	got := NormalizeRawFacts([]string{"  a   fact  ", "", "   ", "second"})
	assert.Equal(t, []string{"a fact", "second"}, got)
}

func TestNormalizeMetalImpactsDefaultsMissingEntries(t *testing.T) {
	got := NormalizeMetalImpacts(map[string]MetalImpactRaw{
		"gold": {Direction: "up", Magnitude: "moderate", Driver: "flight to safety"},
	})
	assert.Len(t, got, 3)
	gold := got["gold"].(domain.JSONMap)
	assert.Equal(t, "up", gold["direction"])
	silver, ok := got["silver"].(domain.JSONMap)
	assert.True(t, ok)
	assert.Equal(t, "unknown", silver["direction"])
	assert.Equal(t, "insufficient data", silver["driver"])
}
