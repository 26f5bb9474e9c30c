// Package httpfetch adapts the teacher's retrying HTTP client pool for
// macro-data ingestion: the same bounded-concurrency, exponential-backoff
// retry loop, generalised so each source can supply its own set of
// rate-limit status codes and honour a server's Retry-After header when
// present.
package httpfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config tunes one ClientPool instance. RateLimitCodes defaults to the set
// the teacher's pool used (429/502/503/504) when left nil; RSS ingestion
// additionally treats 403 as rate-limiting.
type Config struct {
	MaxConcurrency int
	RequestTimeout time.Duration
	MaxRetries     int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	JitterRange    time.Duration
	UserAgent      string
	RateLimitCodes map[int]bool
}

// DefaultRateLimitCodes mirrors the teacher's isRetryableStatus set.
func DefaultRateLimitCodes() map[int]bool {
	return map[int]bool{429: true, 502: true, 503: true, 504: true}
}

// RSSRateLimitCodes mirrors original_source's rss.py RATE_LIMIT_CODES.
func RSSRateLimitCodes() map[int]bool {
	return map[int]bool{429: true, 403: true, 503: true}
}

// ClientPool is a bounded-concurrency HTTP client with exponential backoff,
// Retry-After support, and rolling request statistics.
type ClientPool struct {
	config    Config
	semaphore chan struct{}
	client    *http.Client
	mu        sync.RWMutex
	stats     Stats
}

// Stats is a rolling snapshot of request outcomes, read through GetStats.
type Stats struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	RetriedRequests int64
}

// RateLimitError is returned when a response is classified as rate-limited
// after exhausting retries, so callers can distinguish it from transport
// failures and back off at a higher level (e.g. skip the source this run).
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: HTTP %d (retry after %s)", e.StatusCode, e.RetryAfter)
}

// NewClientPool builds a pool, filling in the teacher's retryable-status
// default set when the caller didn't supply one.
func NewClientPool(cfg Config) *ClientPool {
	if cfg.RateLimitCodes == nil {
		cfg.RateLimitCodes = DefaultRateLimitCodes()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	return &ClientPool{
		config:    cfg,
		semaphore: make(chan struct{}, cfg.MaxConcurrency),
		client:    &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// Do executes req with bounded concurrency, pre-request jitter, and
// exponential-backoff retries on transport errors and classified
// rate-limit/retryable statuses. A Retry-After header on a 429/503 response
// takes precedence over the computed backoff.
func (cp *ClientPool) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	select {
	case cp.semaphore <- struct{}{}:
		defer func() { <-cp.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if cp.config.UserAgent != "" {
		req.Header.Set("User-Agent", cp.config.UserAgent)
	}

	if err := cp.applyJitter(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	var nextWait time.Duration
	for attempt := 0; attempt <= cp.config.MaxRetries; attempt++ {
		if attempt > 0 {
			cp.incrementStat("retried")
			log.Debug().Int("attempt", attempt).Str("url", req.URL.String()).Dur("wait", nextWait).Msg("retrying HTTP request")

			select {
			case <-time.After(nextWait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := cp.client.Do(req.WithContext(ctx))
		if err != nil {
			cp.incrementStat("failed")
			if isRetryableTransportError(err) && attempt < cp.config.MaxRetries {
				lastErr = err
				nextWait = cp.calculateBackoff(attempt)
				continue
			}
			return nil, err
		}

		if cp.config.RateLimitCodes[resp.StatusCode] {
			wait := cp.calculateBackoff(attempt)
			if ra := retryAfter(resp); ra > 0 {
				wait = ra
			}
			resp.Body.Close()
			lastErr = &RateLimitError{StatusCode: resp.StatusCode, RetryAfter: wait}
			if attempt < cp.config.MaxRetries {
				nextWait = wait
				continue
			}
			break
		}

		cp.incrementStat("success")
		return resp, nil
	}

	cp.incrementStat("failed")
	return nil, lastErr
}

// GetJSON fetches url and decodes the JSON body into out.
func (cp *ClientPool) GetJSON(ctx context.Context, url string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("httpfetch: build GET request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := cp.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("httpfetch: GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	return decodeJSONResponse(resp, out)
}

// PostJSON marshals body as JSON, POSTs it to url, and decodes the JSON
// response into out. Used by the LLM collaborator's chat-completions call
// and any ingestor whose upstream API expects a JSON request body.
func (cp *ClientPool) PostJSON(ctx context.Context, url string, headers map[string]string, body interface{}, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("httpfetch: marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("httpfetch: build POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := cp.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("httpfetch: POST %s: %w", url, err)
	}
	defer resp.Body.Close()
	return decodeJSONResponse(resp, out)
}

func decodeJSONResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("httpfetch: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("httpfetch: decode JSON response: %w", err)
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func (cp *ClientPool) applyJitter(ctx context.Context) error {
	if cp.config.JitterRange <= 0 {
		return nil
	}
	jitter := time.Duration(rand.Int63n(int64(cp.config.JitterRange)))
	select {
	case <-time.After(jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cp *ClientPool) calculateBackoff(attempt int) time.Duration {
	backoff := cp.config.BackoffBase * time.Duration(1<<uint(attempt))
	if backoff > cp.config.BackoffMax {
		backoff = cp.config.BackoffMax
	}
	jitter := time.Duration(rand.Float64() * 0.1 * float64(backoff))
	return backoff + jitter
}

func (cp *ClientPool) GetStats() Stats {
	cp.mu.RLock()
	defer cp.mu.RUnlock()
	return cp.stats
}

func (cp *ClientPool) incrementStat(kind string) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.stats.TotalRequests++
	switch kind {
	case "success":
		cp.stats.SuccessRequests++
	case "failed":
		cp.stats.FailedRequests++
	case "retried":
		cp.stats.RetriedRequests++
	}
}

func isRetryableTransportError(err error) bool {
	if err == nil {
		return false
	}
	return containsFold(err.Error(), "timeout") ||
		containsFold(err.Error(), "connection refused") ||
		containsFold(err.Error(), "connection reset") ||
		containsFold(err.Error(), "temporary failure") ||
		containsFold(err.Error(), "network is unreachable") ||
		containsFold(err.Error(), "no such host")
}

func containsFold(haystack, needle string) bool {
	h, n := []byte(haystack), []byte(needle)
	for i := range h {
		if h[i] >= 'A' && h[i] <= 'Z' {
			h[i] += 32
		}
	}
	for i := range n {
		if n[i] >= 'A' && n[i] <= 'Z' {
			n[i] += 32
		}
	}
	hs, ns := string(h), string(n)
	if len(ns) > len(hs) {
		return false
	}
	for i := 0; i+len(ns) <= len(hs); i++ {
		if hs[i:i+len(ns)] == ns {
			return true
		}
	}
	return false
}
