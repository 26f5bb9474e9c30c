// Package fedcomms scrapes Federal Reserve FOMC press releases and tracks
// the language change from one statement to the next, grounded on
// ingestion/central_banks/fed.py's two-stage index crawl (index page to
// year pages to statement pages) and its change_vs_previous unified diff.
// HTML parsing goes through goquery rather than a hand-rolled HTML walker.
package fedcomms

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"

	"github.com/satriapamudji/meridian/internal/domain"
	"github.com/satriapamudji/meridian/internal/httpfetch"
	"github.com/satriapamudji/meridian/internal/persistence"
	"github.com/satriapamudji/meridian/internal/providers"
)

// FedBank is the bank value stored against every comm this poller writes.
const FedBank = "federal_reserve"

// CommTypeStatement is the only comm type this poller currently produces.
const CommTypeStatement = "statement"

// PressReleasesIndexURL is the Fed's press release index, which links out
// to one page per year of FOMC releases.
const PressReleasesIndexURL = "https://www.federalreserve.gov/newsevents/pressreleases.htm"

const fedOrigin = "https://www.federalreserve.gov"

var (
	yearPagePattern      = regexp.MustCompile(`/newsevents/pressreleases/\d{4}-press-fomc\.htm`)
	statementLinkPattern = regexp.MustCompile(`pressreleases/monetary`)
	urlDatePattern       = regexp.MustCompile(`monetary(\d{8})[a-z]?\.(?:htm|html)`)
)

// MaxStatementsPerRun bounds how many new statement pages a single poll
// will fetch, so a cold run against years of history doesn't hammer the
// Fed's site.
const MaxStatementsPerRun = 5

// Poller scrapes FOMC statements and persists them with a diff against the
// prior statement's text.
type Poller struct {
	pool     *httpfetch.ClientPool
	limiters *providers.LimiterRegistry
	breakers *providers.BreakerRegistry
	repo     persistence.CentralBankCommsRepo
	log      zerolog.Logger
}

// NewPoller wires a Fed-comms poller against the shared rate limiter and
// circuit breaker registries under the "fedcomms" source budget.
func NewPoller(pool *httpfetch.ClientPool, limiters *providers.LimiterRegistry, breakers *providers.BreakerRegistry, repo persistence.CentralBankCommsRepo, log zerolog.Logger) *Poller {
	return &Poller{
		pool:     pool,
		limiters: limiters,
		breakers: breakers,
		repo:     repo,
		log:      log.With().Str("component", "fedcomms").Logger(),
	}
}

// Result is the outcome of one poll run.
type Result struct {
	Inserted int
	Err      error
}

// PollAll crawls the index, the most recent year page, and up to
// MaxStatementsPerRun statement pages, storing each with its diff against
// the statement immediately before it.
func (p *Poller) PollAll(ctx context.Context) Result {
	if err := p.limiters.Wait(ctx, "fedcomms"); err != nil {
		return Result{Err: fmt.Errorf("fedcomms: rate limiter wait: %w", err)}
	}

	var links []string
	_, err := p.breakers.Execute("fedcomms", func() (interface{}, error) {
		yearPages, err := p.fetchYearPages(ctx)
		if err != nil {
			return nil, err
		}
		if len(yearPages) == 0 {
			return nil, nil
		}
		statementLinks, err := p.fetchStatementLinks(ctx, yearPages[0])
		if err != nil {
			return nil, err
		}
		links = statementLinks
		return nil, nil
	})
	if err != nil {
		return Result{Err: err}
	}

	if len(links) > MaxStatementsPerRun {
		links = links[:MaxStatementsPerRun]
	}

	statements := make([]domain.CentralBankComm, 0, len(links))
	for _, link := range links {
		comm, err := p.fetchStatement(ctx, link)
		if err != nil {
			p.log.Error().Err(err).Str("url", link).Msg("failed to fetch fomc statement")
			continue
		}
		statements = append(statements, comm)
	}

	inserted, err := p.insertComms(ctx, statements)
	if err != nil {
		return Result{Inserted: inserted, Err: err}
	}
	p.log.Info().Int("inserted", inserted).Msg("fedcomms poll complete")
	return Result{Inserted: inserted}
}

// fetchYearPages returns FOMC year-index links in page order (most recent
// year first, matching the index page's own listing order).
func (p *Poller) fetchYearPages(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, PressReleasesIndexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fedcomms: build index request: %w", err)
	}
	resp, err := p.pool.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fedcomms: fetch index: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fedcomms: parse index: %w", err)
	}

	var pages []string
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if yearPagePattern.MatchString(href) && !seen[href] {
			seen[href] = true
			pages = append(pages, resolveURL(href))
		}
	})
	return pages, nil
}

// fetchStatementLinks returns the FOMC statement links on a single year
// page, in page order.
func (p *Poller) fetchStatementLinks(ctx context.Context, yearPageURL string) ([]statementLink, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, yearPageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fedcomms: build year page request: %w", err)
	}
	resp, err := p.pool.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fedcomms: fetch year page %s: %w", yearPageURL, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fedcomms: parse year page: %w", err)
	}

	var links []statementLink
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !statementLinkPattern.MatchString(href) || seen[href] {
			return
		}
		seen[href] = true
		links = append(links, statementLink{URL: resolveURL(href), LinkText: strings.TrimSpace(sel.Text())})
	})
	return links, nil
}

type statementLink struct {
	URL      string
	LinkText string
}

func (p *Poller) fetchStatement(ctx context.Context, link statementLink) (domain.CentralBankComm, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.URL, nil)
	if err != nil {
		return domain.CentralBankComm{}, fmt.Errorf("fedcomms: build statement request: %w", err)
	}
	resp, err := p.pool.Do(ctx, req)
	if err != nil {
		return domain.CentralBankComm{}, fmt.Errorf("fedcomms: fetch statement %s: %w", link.URL, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return domain.CentralBankComm{}, fmt.Errorf("fedcomms: parse statement: %w", err)
	}

	body := parseStatementText(doc)
	publishedAt := parseStatementDate(link)

	return domain.CentralBankComm{
		Bank:        FedBank,
		Title:       "FOMC Statement",
		URL:         link.URL,
		PublishedAt: publishedAt,
		Body:        body,
	}, nil
}

// parseStatementText extracts paragraph text from the article container, or
// the whole document body if a page doesn't use one.
func parseStatementText(doc *goquery.Document) string {
	article := doc.Find("div#article")
	if article.Length() == 0 {
		article = doc.Find("body")
	}
	var paragraphs []string
	article.Find("p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n\n")
}

var statementDateFormats = []string{"January 2, 2006", "Jan 2, 2006"}

// parseStatementDate tries the link text first, in the formats the Fed's
// site uses for the visible date, falling back to the YYYYMMDD embedded in
// the statement URL.
func parseStatementDate(link statementLink) time.Time {
	for _, layout := range statementDateFormats {
		if t, err := time.Parse(layout, link.LinkText); err == nil {
			return t.UTC()
		}
	}
	if m := urlDatePattern.FindStringSubmatch(link.URL); len(m) == 2 {
		if t, err := time.Parse("20060102", m[1]); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// insertComms dedups by (bank, title, published_at) via the repo's own
// unique constraint, computing each statement's diff against the one
// immediately before it by publish date before persisting.
func (p *Poller) insertComms(ctx context.Context, statements []domain.CentralBankComm) (int, error) {
	sort.Slice(statements, func(i, j int) bool { return statements[i].PublishedAt.Before(statements[j].PublishedAt) })

	prior, err := p.repo.LatestByBank(ctx, FedBank)
	if err != nil {
		return 0, fmt.Errorf("fedcomms: fetch latest comm: %w", err)
	}

	inserted := 0
	for _, comm := range statements {
		if prior != nil {
			comm.ChangeVsPrev = changeVsPrevious(prior.Body, comm.Body)
		}
		stored, err := p.repo.Upsert(ctx, comm)
		if err != nil {
			p.log.Error().Err(err).Time("published_at", comm.PublishedAt).Msg("failed to store fomc statement")
			continue
		}
		inserted++
		prior = &stored
	}
	return inserted, nil
}

// changeVsPrevious renders a unified diff of the new statement's text
// against the previous one's, the same shape difflib.unified_diff produces
// in the original implementation.
func changeVsPrevious(previous, current string) string {
	if previous == current {
		return ""
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(previous),
		B:        difflib.SplitLines(current),
		FromFile: "previous",
		ToFile:   "current",
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

func resolveURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return fedOrigin + href
}
