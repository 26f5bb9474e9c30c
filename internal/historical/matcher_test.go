package historical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriapamudji/meridian/internal/domain"
)

func TestRankCasesOrdersByScoreThenSignificanceThenNameThenDateRange(t *testing.T) {
	cases := []domain.HistoricalCase{
		{EventName: "Oil Embargo 1973", EventType: "supply_shock", SignificanceScore: 90, StructuralDrivers: []string{"opec production cuts"}},
		{EventName: "Gulf War Spike", EventType: "geopolitical", SignificanceScore: 95, StructuralDrivers: []string{"opec production cuts"}},
		{EventName: "Shale Boom", EventType: "supply_shock", SignificanceScore: 60, StructuralDrivers: []string{"unrelated demand story"}},
	}

	matches := RankCases(cases, "OPEC announces production cuts amid supply shock", "supply_shock", 5)

	require.Len(t, matches, 3)
	assert.Equal(t, "Oil Embargo 1973", matches[0].Case.EventName)
	assert.Equal(t, "Shale Boom", matches[1].Case.EventName)
	assert.Equal(t, "Gulf War Spike", matches[2].Case.EventName)
}

func TestRankCasesLimitsResults(t *testing.T) {
	cases := []domain.HistoricalCase{
		{EventName: "A", SignificanceScore: 10},
		{EventName: "B", SignificanceScore: 20},
		{EventName: "C", SignificanceScore: 30},
	}
	matches := RankCases(cases, "", "", 2)
	assert.Len(t, matches, 2)
}

func TestExtractKeywordsDropsStopwordsAndShortTokens(t *testing.T) {
	kws := extractKeywords("The Fed and the ECB are in a standoff")
	assert.False(t, kws["the"])
	assert.False(t, kws["and"])
	assert.False(t, kws["in"])
	assert.True(t, kws["fed"])
	assert.True(t, kws["ecb"])
	assert.True(t, kws["standoff"])
}
