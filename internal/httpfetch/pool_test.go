package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientPoolRetriesOnRateLimitThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	pool := NewClientPool(Config{
		MaxConcurrency: 2,
		RequestTimeout: 2 * time.Second,
		MaxRetries:     3,
		BackoffBase:    1 * time.Millisecond,
		BackoffMax:     10 * time.Millisecond,
	})

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := pool.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, calls)

	stats := pool.GetStats()
	assert.EqualValues(t, 1, stats.SuccessRequests)
	assert.EqualValues(t, 2, stats.RetriedRequests)
}

func TestClientPoolExhaustsRetriesAndReturnsRateLimitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	pool := NewClientPool(Config{
		MaxConcurrency: 1,
		RequestTimeout: 2 * time.Second,
		MaxRetries:     1,
		BackoffBase:    1 * time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
		RateLimitCodes: RSSRateLimitCodes(),
	})

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = pool.Do(context.Background(), req)
	require.Error(t, err)

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, http.StatusServiceUnavailable, rle.StatusCode)
}
