// Package db manages the Postgres connection pool and wires up the
// concrete repository implementations, following the same
// Manager/healthChecker shape the teacher used for its own storage layer.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/satriapamudji/meridian/internal/persistence"
	"github.com/satriapamudji/meridian/internal/persistence/postgres"
)

// Config holds database connection configuration.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
	Enabled         bool
}

// DefaultConfig returns reasonable defaults for database connections.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		QueryTimeout:    30 * time.Second,
		Enabled:         false,
	}
}

// Manager owns the connection pool and the repository collection built on
// top of it.
type Manager struct {
	db     *sqlx.DB
	config Config
	repos  *persistence.Repository
	health *healthChecker
}

// NewManager opens a connection, validates it with a ping, and constructs
// every repository. A disabled config short-circuits to a Manager whose
// Health reports itself disabled-but-healthy, the same shape ingestion
// jobs can run a dry pass against without a live database.
func NewManager(config Config) (*Manager, error) {
	if !config.Enabled {
		return &Manager{
			config: config,
			health: &healthChecker{enabled: false},
		}, nil
	}

	if config.DSN == "" {
		return nil, fmt.Errorf("db: DSN is required when enabled")
	}

	conn, err := sqlx.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	conn.SetMaxOpenConns(config.MaxOpenConns)
	conn.SetMaxIdleConns(config.MaxIdleConns)
	conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	repos := &persistence.Repository{
		MacroEvents:      postgres.NewMacroEventsRepo(conn, config.QueryTimeout),
		HistoricalCases:  postgres.NewHistoricalCasesRepo(conn, config.QueryTimeout),
		Prices:           postgres.NewPricesRepo(conn, config.QueryTimeout),
		PriceRatios:      postgres.NewPriceRatiosRepo(conn, config.QueryTimeout),
		EconomicEvents:   postgres.NewEconomicEventsRepo(conn, config.QueryTimeout),
		CentralBankComms: postgres.NewCentralBankCommsRepo(conn, config.QueryTimeout),
		MarketContext:    postgres.NewMarketContextRepo(conn, config.QueryTimeout),
		DailyDigests:     postgres.NewDailyDigestsRepo(conn, config.QueryTimeout),
		Theses:           postgres.NewThesesRepo(conn, config.QueryTimeout),
		MetalsKnowledge:  postgres.NewMetalsKnowledgeRepo(conn, config.QueryTimeout),
	}

	return &Manager{
		db:     conn,
		config: config,
		repos:  repos,
		health: &healthChecker{enabled: true, db: conn, timeout: config.QueryTimeout},
	}, nil
}

// Repository returns the repository collection, nil if persistence is
// disabled.
func (m *Manager) Repository() *persistence.Repository { return m.repos }

// Health returns the health checker.
func (m *Manager) Health() persistence.RepositoryHealth { return m.health }

// DB returns the underlying connection, for migrations and one-off admin
// queries.
func (m *Manager) DB() *sqlx.DB { return m.db }

// IsEnabled reports whether persistence is live.
func (m *Manager) IsEnabled() bool { return m.config.Enabled && m.db != nil }

// Close releases the connection pool.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

type healthChecker struct {
	enabled bool
	db      *sqlx.DB
	timeout time.Duration
}

func (h *healthChecker) Health(ctx context.Context) persistence.HealthCheck {
	if !h.enabled {
		return persistence.HealthCheck{
			Healthy:        true,
			Errors:         []string{"database persistence disabled"},
			ConnectionPool: map[string]int{"status": 0},
			LastCheck:      time.Now(),
		}
	}

	start := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var errs []string
	healthy := true
	if err := h.db.PingContext(pingCtx); err != nil {
		errs = append(errs, fmt.Sprintf("ping failed: %v", err))
		healthy = false
	}

	stats := h.db.Stats()
	return persistence.HealthCheck{
		Healthy: healthy,
		Errors:  errs,
		ConnectionPool: map[string]int{
			"max_open":      stats.MaxOpenConnections,
			"open":          stats.OpenConnections,
			"in_use":        stats.InUse,
			"idle":          stats.Idle,
			"wait_count":    int(stats.WaitCount),
			"wait_duration": int(stats.WaitDuration.Milliseconds()),
		},
		LastCheck:      time.Now(),
		ResponseTimeMS: time.Since(start).Milliseconds(),
	}
}

func (h *healthChecker) Ping(ctx context.Context) error {
	if !h.enabled {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.db.PingContext(pingCtx)
}

func (h *healthChecker) Stats(ctx context.Context) map[string]interface{} {
	if !h.enabled {
		return map[string]interface{}{"enabled": false, "status": "disabled"}
	}
	stats := h.db.Stats()
	return map[string]interface{}{
		"enabled":              true,
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_idle_time_closed": stats.MaxIdleTimeClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}
}
