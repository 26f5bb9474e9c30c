package fred

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFredObservationsSkipsMissingSentinel(t *testing.T) {
	resp := fredObservationsResponse{}
	resp.Observations = append(resp.Observations,
		struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		}{Date: "2026-03-01", Value: "."},
		struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		}{Date: "2026-03-02", Value: "4.25"},
	)

	bars := parseFredObservations(resp, "DGS10")
	require.Len(t, bars, 1)
	assert.Equal(t, "DGS10", bars[0].Symbol)
	assert.Equal(t, "fred", bars[0].Source)
	assert.Equal(t, "4.25", bars[0].Close.String())
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
}

func TestBuildObservationsURLIncludesSeriesAndKey(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	got := buildObservationsURL("DGS10", start, end, "secret")
	assert.Contains(t, got, "series_id=DGS10")
	assert.Contains(t, got, "observation_start=2026-03-01")
	assert.Contains(t, got, "observation_end=2026-03-10")
	assert.Contains(t, got, "api_key=secret")
}

func TestIsHTTPStatusErr(t *testing.T) {
	assert.True(t, isHTTPStatusErr(assertErr("httpfetch: unexpected status 404: not found")))
	assert.False(t, isHTTPStatusErr(assertErr("httpfetch: GET http://x: connection refused")))
	assert.False(t, isHTTPStatusErr(nil))
}

type stringErr string

func (e stringErr) Error() string { return string(e) }

func assertErr(s string) error { return stringErr(s) }
