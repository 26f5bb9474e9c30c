package channels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTickersDropsNonTickerAcronyms(t *testing.T) {
	tickers := ExtractTickers("OPEC and the FED discussed CL=F and BZ=F with GDP data")
	assert.Contains(t, tickers, "CL=F")
	assert.Contains(t, tickers, "BZ=F")
	assert.NotContains(t, tickers, "OPEC")
	assert.NotContains(t, tickers, "FED")
	assert.NotContains(t, tickers, "GDP")
}

func TestMatchByKeywordsFindsOilSupplyDisruption(t *testing.T) {
	matched := MatchByKeywords("OPEC announces surprise production cut amid supply disruption")
	found := false
	for _, c := range matched {
		if c.Type == OilSupplyDisruption {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDiscoverAssetsUnionsEventTypeAndKeywordChannels(t *testing.T) {
	result := DiscoverAssets("Fed signals rate cuts", "monetary_policy", "", 5, true)
	assert.Contains(t, result.PrimaryAssets, "TLT")
	assert.NotEmpty(t, result.Channels)
}

func TestDiscoverAssetsRespectsMaxChannels(t *testing.T) {
	result := DiscoverAssets("Fed hikes rates amid hot CPI inflation spike and dollar surges", "monetary_policy", "", 2, true)
	assert.LessOrEqual(t, len(result.Channels), 2)
}

func TestDiscoverAssetsRussiaOilPipelineScenario(t *testing.T) {
	result := DiscoverAssets("Russia threatens to cut oil pipeline to Europe", "geopolitical", "", 5, true)
	types := make(map[Type]bool)
	for _, c := range result.Channels {
		types[c.Type] = true
	}
	assert.True(t, types[OilSupplyDisruption])
	assert.True(t, types[RiskOffFlight])
	assert.Contains(t, result.PrimaryAssets, "CL=F")
	assert.Contains(t, result.PrimaryAssets, "BZ=F")
}

func TestDiscoverAssetsPutsKeywordMatchesBeforeTypeMatches(t *testing.T) {
	// "fed hikes" keyword-matches FedHawkish directly; monetary_policy's
	// event-type fallback list starts with FedHawkish too, so the keyword
	// match must win the dedup and FedHawkish must come first.
	result := DiscoverAssets("Fed hikes rates", "monetary_policy", "", 5, true)
	assert.NotEmpty(t, result.Channels)
	assert.Equal(t, FedHawkish, result.Channels[0].Type)
}

func TestAllAssetsDedupesAcrossLists(t *testing.T) {
	d := DiscoveryResult{
		PrimaryAssets:    []string{"CL=F"},
		SecondaryAssets:  []string{"CL=F", "XLE"},
		DiscoveredAssets: []string{"XLE"},
	}
	assert.Equal(t, []string{"CL=F", "XLE"}, d.AllAssets())
}
