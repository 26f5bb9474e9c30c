package llm

import (
	"strings"

	"github.com/satriapamudji/meridian/internal/domain"
)

var strengthAliases = map[string]string{
	"high":     "strong",
	"medium":   "moderate",
	"low":      "weak",
	"unknown":  "none",
	"strong":   "strong",
	"moderate": "moderate",
	"weak":     "weak",
	"none":     "none",
}

var assetAliases = map[string]string{
	"bitcoin":     "BTC",
	"btc":         "BTC",
	"ethereum":    "ETH",
	"eth":         "ETH",
	"tether":      "USDT",
	"usdt":        "USDT",
	"stablecoin":  "stablecoins",
	"stablecoins": "stablecoins",
}

// NormalizeCryptoTransmission applies the strength alias table, trims the
// path, deduplicates and alias-maps relevant assets, and — when the
// collaborator said a transmission path exists but supplied no assets —
// extracts them from the path text using the same alias table. Normalising
// an already-normalised value is a no-op.
func NormalizeCryptoTransmission(raw CryptoTransmissionRaw) domain.JSONMap {
	path := strings.TrimSpace(raw.Path)
	strength := strengthAliases[strings.ToLower(strings.TrimSpace(raw.Strength))]
	if strength == "" {
		strength = "none"
	}

	assets := normalizeAssetList(raw.RelevantAssets)
	if raw.Exists && len(assets) == 0 && path != "" {
		assets = extractAssetsFromPath(path)
	}

	return domain.JSONMap{
		"exists":          raw.Exists,
		"path":            path,
		"strength":        strength,
		"relevant_assets": assets,
	}
}

func normalizeAssetList(assets []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range assets {
		mapped := mapAsset(a)
		if mapped == "" || seen[mapped] {
			continue
		}
		seen[mapped] = true
		out = append(out, mapped)
	}
	return out
}

func mapAsset(a string) string {
	key := strings.ToLower(strings.TrimSpace(a))
	if key == "" {
		return ""
	}
	if mapped, ok := assetAliases[key]; ok {
		return mapped
	}
	return strings.ToUpper(strings.TrimSpace(a))
}

func extractAssetsFromPath(path string) []string {
	lower := strings.ToLower(path)
	seen := map[string]bool{}
	var out []string
	for alias, mapped := range assetAliases {
		if strings.Contains(lower, alias) && !seen[mapped] {
			seen[mapped] = true
			out = append(out, mapped)
		}
	}
	return out
}

// NormalizeRawFacts drops empty entries and collapses internal whitespace,
// matching the "non-empty list of non-empty strings" rule.
func NormalizeRawFacts(facts []string) []string {
	var out []string
	for _, f := range facts {
		collapsed := strings.Join(strings.Fields(f), " ")
		if collapsed != "" {
			out = append(out, collapsed)
		}
	}
	return out
}

// NormalizeMetalImpacts guarantees exactly {gold, silver, copper}, defaulting
// any missing or partially-populated entry's direction/magnitude/driver.
func NormalizeMetalImpacts(raw map[string]MetalImpactRaw) domain.JSONMap {
	out := domain.JSONMap{}
	for _, metal := range []string{"gold", "silver", "copper"} {
		entry := raw[metal]
		direction := strings.TrimSpace(entry.Direction)
		if direction == "" {
			direction = "unknown"
		}
		magnitude := strings.TrimSpace(entry.Magnitude)
		if magnitude == "" {
			magnitude = "unknown"
		}
		driver := strings.TrimSpace(entry.Driver)
		if driver == "" {
			driver = "insufficient data"
		}
		out[metal] = domain.JSONMap{
			"direction": direction,
			"magnitude": magnitude,
			"driver":    driver,
		}
	}
	return out
}

// ToAnalysisResult normalises a raw collaborator response into the shape
// MacroEventsRepo.UpdateAnalysis persists.
func ToAnalysisResult(raw RawSynthesis) domain.AnalysisResult {
	return domain.AnalysisResult{
		RawFacts:            NormalizeRawFacts(raw.RawFacts),
		MetalImpacts:        NormalizeMetalImpacts(raw.MetalImpacts),
		CryptoTransmission:  NormalizeCryptoTransmission(raw.CryptoTransmission),
		HistoricalPrecedent: strings.TrimSpace(raw.HistoricalPrecedent),
		CounterCase:         strings.TrimSpace(raw.CounterCase),
	}
}
