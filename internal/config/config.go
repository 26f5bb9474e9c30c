// Package config loads Meridian's process-wide settings once from the
// environment (optionally overlaid with a .env file) and exposes them as an
// immutable singleton, matching the "lazily initialised and immutable
// thereafter" settings cache the pipeline relies on.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full set of knobs read once at process start.
type Config struct {
	DatabaseDSN string

	FREDAPIKey   string
	LLMAPIKey    string
	LLMModel     string
	LLMBaseURL   string
	LLMAppName   string
	LLMAppURL    string
	LLMTemperature float64
	LLMMaxTokens   int

	HTTPRequestTimeout time.Duration
	HTTPMaxRetries     int
	HTTPBackoffBase    time.Duration
	HTTPBackoffMax     time.Duration
	HTTPJitterRange    time.Duration
	HTTPUserAgent      string

	MetricsAddr string
	HealthAddr  string
	LogLevel    string
	LogPretty   bool

	SchedulerWorkers int
	SchedulerTZ      string

	// Per-source scheduler intervals, in minutes; 0 disables the job the
	// way internal/scheduler.AddIntervalJob already treats a non-positive
	// interval.
	RSSPollMinutes           int
	CalendarPollMinutes      int
	FedCommsPollMinutes      int
	PricesPollMinutes        int
	FREDPollMinutes          int
	MarketContextPollMinutes int
	SignificancePollMinutes  int
	DigestCron               string

	DryRun bool
}

var (
	once sync.Once
	cfg  *Config
	errI error
)

// Get returns the lazily-built, process-wide singleton, loading it from the
// environment (and a ".env" overlay if present) on first call.
func Get() (*Config, error) {
	once.Do(func() {
		cfg, errI = load()
	})
	return cfg, errI
}

// MustGet is Get but panics on a load error; intended for cmd/ entrypoints
// where a bad configuration should abort the process immediately.
func MustGet() *Config {
	c, err := Get()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return c
}

// Reset clears the singleton so a subsequent Get reloads from the current
// environment. Intended for tests only.
func Reset() {
	once = sync.Once{}
	cfg = nil
	errI = nil
}

func load() (*Config, error) {
	_ = godotenv.Load() // overlay .env if present; missing file is not an error

	c := &Config{
		DatabaseDSN:        getenv("MERIDIAN_DATABASE_DSN", ""),
		FREDAPIKey:         getenv("MERIDIAN_FRED_API_KEY", ""),
		LLMAPIKey:          getenv("MERIDIAN_LLM_API_KEY", ""),
		LLMModel:           getenv("MERIDIAN_LLM_MODEL", "gpt-4o-mini"),
		LLMBaseURL:         getenv("MERIDIAN_LLM_BASE_URL", "https://openrouter.ai/api/v1/chat/completions"),
		LLMAppName:         getenv("MERIDIAN_LLM_APP_NAME", "meridian"),
		LLMAppURL:          getenv("MERIDIAN_LLM_APP_URL", ""),
		LLMTemperature:     getenvFloat("MERIDIAN_LLM_TEMPERATURE", 0.2),
		LLMMaxTokens:       getenvInt("MERIDIAN_LLM_MAX_TOKENS", 2000),
		HTTPRequestTimeout: getenvDuration("MERIDIAN_HTTP_TIMEOUT", 15*time.Second),
		HTTPMaxRetries:     getenvInt("MERIDIAN_HTTP_MAX_RETRIES", 3),
		HTTPBackoffBase:    getenvDuration("MERIDIAN_HTTP_BACKOFF_BASE", 2*time.Second),
		HTTPBackoffMax:     getenvDuration("MERIDIAN_HTTP_BACKOFF_MAX", 60*time.Second),
		HTTPJitterRange:    getenvDuration("MERIDIAN_HTTP_JITTER", 500*time.Millisecond),
		HTTPUserAgent:      getenv("MERIDIAN_HTTP_USER_AGENT", "meridian/1.0 (+macro-intelligence)"),
		MetricsAddr:        getenv("MERIDIAN_METRICS_ADDR", ":9090"),
		HealthAddr:         getenv("MERIDIAN_HEALTH_ADDR", ":8080"),
		LogLevel:           getenv("MERIDIAN_LOG_LEVEL", "info"),
		LogPretty:          getenvBool("MERIDIAN_LOG_PRETTY", false),
		SchedulerWorkers:   getenvInt("MERIDIAN_SCHEDULER_WORKERS", 4),
		SchedulerTZ:        getenv("MERIDIAN_SCHEDULER_TZ", "UTC"),

		RSSPollMinutes:           getenvInt("MERIDIAN_RSS_POLL_MINUTES", 15),
		CalendarPollMinutes:      getenvInt("MERIDIAN_CALENDAR_POLL_MINUTES", 240),
		FedCommsPollMinutes:      getenvInt("MERIDIAN_FEDCOMMS_POLL_MINUTES", 60),
		PricesPollMinutes:        getenvInt("MERIDIAN_PRICES_POLL_MINUTES", 30),
		FREDPollMinutes:          getenvInt("MERIDIAN_FRED_POLL_MINUTES", 240),
		MarketContextPollMinutes: getenvInt("MERIDIAN_MARKET_CONTEXT_POLL_MINUTES", 60),
		SignificancePollMinutes:  getenvInt("MERIDIAN_SIGNIFICANCE_POLL_MINUTES", 10),
		DigestCron:               getenv("MERIDIAN_DIGEST_CRON", "0 0 7 * * *"),

		DryRun: getenvBool("MERIDIAN_DRY_RUN", false),
	}

	if c.DatabaseDSN == "" {
		return nil, fmt.Errorf("config: MERIDIAN_DATABASE_DSN is required")
	}

	return c, nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}

func getenvFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return d
}
