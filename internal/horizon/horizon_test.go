package horizon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/satriapamudji/meridian/internal/domain"
)

func TestGetInstrumentsForHorizonUnionsAcrossChannels(t *testing.T) {
	got := GetInstrumentsForHorizon(ShortTerm, []string{"oil_supply_disruption"}, 5)
	assert.Contains(t, got, "CL=F")
	assert.Contains(t, got, "BZ=F")
}

func TestGetInstrumentsForHorizonMediumTermOilChannel(t *testing.T) {
	got := GetInstrumentsForHorizon(MediumTerm, []string{"oil_supply_disruption"}, 5)
	assert.Contains(t, got, "XLE")
	assert.True(t, contains(got, "OXY") || contains(got, "CVX"))
}

func TestGetInstrumentsForHorizonLongTermOilChannel(t *testing.T) {
	got := GetInstrumentsForHorizon(LongTerm, []string{"oil_supply_disruption"}, 5)
	assert.True(t, contains(got, "XOM") || contains(got, "CVX"))
}

func TestGetInstrumentsForHorizonFallsBackToDefaultForUnknownChannel(t *testing.T) {
	got := GetInstrumentsForHorizon(ShortTerm, []string{"some_unmapped_channel"}, 5)
	assert.Equal(t, DefaultInstruments[ShortTerm], got)
}

func TestGetInstrumentsForHorizonRespectsCap(t *testing.T) {
	got := GetInstrumentsForHorizon(MediumTerm, []string{"oil_supply_disruption", "fed_hawkish", "risk_off_flight"}, 2)
	assert.Len(t, got, 2)
}

func TestDetermineDirectionFromBehaviorReadsPerHorizonBucket(t *testing.T) {
	up := HorizonBehavior{OilDirection: "up"}
	down := HorizonBehavior{OilDirection: "down"}
	assert.Equal(t, Long, DetermineDirectionFromBehavior(ShortTerm, &up, []string{"oil_supply_disruption"}))
	assert.Equal(t, Short, DetermineDirectionFromBehavior(LongTerm, &down, []string{"oil_supply_disruption"}))
}

func TestDetermineDirectionFromBehaviorFallsBackToChannelDefaultWhenNoBehavior(t *testing.T) {
	assert.Equal(t, Short, DetermineDirectionFromBehavior(ShortTerm, nil, []string{"risk_off_flight"}))
	assert.Equal(t, Long, DetermineDirectionFromBehavior(ShortTerm, nil, []string{"risk_on_rally"}))
	assert.Equal(t, Neutral, DetermineDirectionFromBehavior(ShortTerm, nil, []string{"unmapped_channel"}))
}

func TestDetermineMagnitudeFromBehaviorPrefersBehaviorThenQuantitativeThenDefault(t *testing.T) {
	b := HorizonBehavior{OilMagnitudePct: 12}
	assert.Contains(t, DetermineMagnitudeFromBehavior(ShortTerm, &b, nil), "12%")

	m := DetermineMagnitudeFromBehavior(ShortTerm, nil, map[string]float64{"peak_price_impact_pct": 8})
	assert.Contains(t, m, "8%")

	assert.NotEmpty(t, DetermineMagnitudeFromBehavior(ShortTerm, nil, nil))
}

// TestAnalyzeDerivesEachHorizonDirectionIndependently pins the scenario
// where a single historical case recorded an "up" short- and medium-term
// oil move but a "down" long-term move: each horizon's direction must be
// read off its own time bucket, not a single shared direction.
func TestAnalyzeDerivesEachHorizonDirectionIndependently(t *testing.T) {
	a := Analyze(Input{
		EventHeadline: "Russia threatens to cut oil pipeline to Europe",
		ChannelTypes:  []string{"oil_supply_disruption"},
		HistoricalCases: []domain.HistoricalCase{
			{
				EventName: "2022 pipeline disruption",
				TimeHorizonBehavior: domain.HorizonBehaviorMap{
					"short_term_1_5d":    domain.JSONMap{"oil_direction": "up"},
					"medium_term_2_8w":   domain.JSONMap{"oil_direction": "up"},
					"long_term_6m_plus":  domain.JSONMap{"oil_direction": "down"},
				},
			},
		},
		ConvictionLevel: "HIGH",
	})

	assert.Equal(t, Long, a.ShortTerm.Direction)
	assert.Equal(t, Long, a.MediumTerm.Direction)
	assert.Equal(t, Short, a.LongTerm.Direction)
	assert.Equal(t, "Russia threatens to cut oil pipeline to Europe", a.EventSummary)
}

func TestAnalyzeWarnsOnMissingHistoricalAndQuantitativeData(t *testing.T) {
	a := Analyze(Input{ConvictionLevel: "LOW"})
	joined := assertJoin(a.Warnings)
	assert.Contains(t, joined, "historical")
	assert.Contains(t, joined, "quantitative")
	assert.Contains(t, joined, "conviction")
}

func TestAllRecommendationsReturnsThreeInOrder(t *testing.T) {
	a := Analyze(Input{ConvictionLevel: "LOW"})
	recs := a.AllRecommendations()
	assert.Len(t, recs, 3)
	assert.Equal(t, ShortTerm, recs[0].Horizon)
	assert.Equal(t, MediumTerm, recs[1].Horizon)
	assert.Equal(t, LongTerm, recs[2].Horizon)
}

func TestFormatForPromptIncludesHeaderAndWarnings(t *testing.T) {
	a := Analyze(Input{ConvictionLevel: "LOW"})
	out := FormatForPrompt(a)
	assert.Contains(t, out, "TIME HORIZON ANALYSIS")
	assert.Contains(t, out, "Short-Term")
	assert.Contains(t, out, "Medium-Term")
	assert.Contains(t, out, "Long-Term")
	assert.Contains(t, out, "WARNINGS:")
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func assertJoin(warnings []string) string {
	out := ""
	for _, w := range warnings {
		out += w + " "
	}
	return out
}
