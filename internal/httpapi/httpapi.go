// Package httpapi exposes the process's liveness and scrape surface on a
// gorilla/mux router: /healthz against the storage layer's own health
// checker, and /metrics against the Prometheus registry. Router shape
// (mux.Router, one handler per route, JSON health body) follows the
// teacher's interfaces/http package.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/satriapamudji/meridian/internal/metrics"
	"github.com/satriapamudji/meridian/internal/persistence"
)

// Router builds the health/metrics surface.
type Router struct {
	health persistence.RepositoryHealth
	mux    *mux.Router
}

// NewRouter wires /healthz against health and /metrics against the
// Prometheus handler.
func NewRouter(health persistence.RepositoryHealth) *Router {
	r := &Router{health: health, mux: mux.NewRouter()}
	r.mux.HandleFunc("/healthz", r.handleHealthz).Methods(http.MethodGet)
	r.mux.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	return r
}

// ServeHTTP makes Router an http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

type healthzResponse struct {
	Status         string         `json:"status"`
	Errors         []string       `json:"errors,omitempty"`
	ConnectionPool map[string]int `json:"connection_pool,omitempty"`
	LastCheck      time.Time      `json:"last_check"`
	ResponseTimeMS int64          `json:"response_time_ms"`
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	check := r.health.Health(req.Context())

	status := http.StatusOK
	statusText := "ok"
	if !check.Healthy {
		status = http.StatusServiceUnavailable
		statusText = "unhealthy"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(healthzResponse{
		Status:         statusText,
		Errors:         check.Errors,
		ConnectionPool: check.ConnectionPool,
		LastCheck:      check.LastCheck,
		ResponseTimeMS: check.ResponseTimeMS,
	})
}
