package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeImportance(t *testing.T) {
	cases := map[string]string{
		"High": "high", "hi": "high",
		"Medium": "medium", "med": "medium",
		"Low": "low", "lo": "low",
		"": "",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeImportance(in))
	}
}

func TestFilterFutureFFEventsDropsPastAndUnparsable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	events := []ffEvent{
		{Title: "past", Date: "2026-03-09T12:00:00Z"},
		{Title: "future", Date: "2026-03-11T12:00:00Z"},
		{Title: "bad date", Date: "not-a-date"},
	}
	got := filterFutureFFEvents(events, now)
	require.Len(t, got, 1)
	assert.Equal(t, "future", got[0].Title)
}

func TestToDomainEventMapsFields(t *testing.T) {
	e := ffEvent{Title: "Non-Farm Payrolls", Country: "USD", Date: "2026-03-10T13:30:00Z", Impact: "High", Forecast: "180K"}
	ev := e.toDomainEvent()
	assert.Equal(t, "Non-Farm Payrolls", ev.Name)
	assert.Equal(t, "USD", ev.Country)
	assert.Equal(t, "high", ev.Importance)
	require.NotNil(t, ev.Forecast)
	assert.Equal(t, "180K", *ev.Forecast)
	assert.Equal(t, "forexfactory", ev.Source)
}

func TestDefaultFredReleasesAreAllHighOrMediumImpact(t *testing.T) {
	for _, r := range DefaultFredReleases {
		assert.Contains(t, []string{"high", "medium"}, r.Impact)
	}
}
