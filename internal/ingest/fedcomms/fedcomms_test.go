package fedcomms

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatementTextPrefersArticleContainer(t *testing.T) {
	html := `<html><body>
		<div id="article"><p>First paragraph.</p><p>Second paragraph.</p></div>
		<div id="footer"><p>Ignore me.</p></div>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	text := parseStatementText(doc)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", text)
}

func TestParseStatementTextFallsBackToBody(t *testing.T) {
	html := `<html><body><p>Only paragraph.</p></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	text := parseStatementText(doc)
	assert.Equal(t, "Only paragraph.", text)
}

func TestParseStatementDatePrefersLinkText(t *testing.T) {
	link := statementLink{URL: "https://www.federalreserve.gov/newsevents/pressreleases/monetary20260318a.htm", LinkText: "March 18, 2026"}
	got := parseStatementDate(link)
	assert.Equal(t, time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC), got)
}

func TestParseStatementDateFallsBackToURL(t *testing.T) {
	link := statementLink{URL: "https://www.federalreserve.gov/newsevents/pressreleases/monetary20260129a.htm", LinkText: "not a date"}
	got := parseStatementDate(link)
	assert.Equal(t, time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC), got)
}

func TestChangeVsPreviousProducesDiffOnlyWhenChanged(t *testing.T) {
	assert.Empty(t, changeVsPrevious("same text", "same text"))
	diff := changeVsPrevious("the committee decided to hold rates steady", "the committee decided to raise rates")
	assert.NotEmpty(t, diff)
	assert.Contains(t, diff, "-the committee decided to hold rates steady")
	assert.Contains(t, diff, "+the committee decided to raise rates")
}

func TestResolveURLJoinsRelativeHref(t *testing.T) {
	assert.Equal(t, "https://www.federalreserve.gov/newsevents/pressreleases/monetary20260318a.htm",
		resolveURL("/newsevents/pressreleases/monetary20260318a.htm"))
	assert.Equal(t, "https://example.com/x", resolveURL("https://example.com/x"))
}
