package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriapamudji/meridian/internal/persistence"
)

type fakeHealth struct {
	check persistence.HealthCheck
}

func (f fakeHealth) Health(ctx context.Context) persistence.HealthCheck {
	return f.check
}

func TestHealthzReturns200WhenHealthy(t *testing.T) {
	router := NewRouter(fakeHealth{check: persistence.HealthCheck{
		Healthy:        true,
		ConnectionPool: map[string]int{"open": 2, "idle": 1},
		LastCheck:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ResponseTimeMS: 5,
	}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body healthzResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Errors)
	assert.Equal(t, 2, body.ConnectionPool["open"])
}

func TestHealthzReturns503WhenUnhealthy(t *testing.T) {
	router := NewRouter(fakeHealth{check: persistence.HealthCheck{
		Healthy: false,
		Errors:  []string{"ping failed: connection refused"},
	}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body healthzResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, []string{"ping failed: connection refused"}, body.Errors)
}

func TestMetricsRoutesToPrometheusHandler(t *testing.T) {
	router := NewRouter(fakeHealth{check: persistence.HealthCheck{Healthy: true}})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}
