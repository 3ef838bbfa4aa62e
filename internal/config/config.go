package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default PhishStats endpoint. The public API allows roughly 20 calls per
// minute; the freshness window below keeps the worst-case call rate well
// under that budget.
const defaultFeedURL = "https://phishstats.info:20443/api/v1/"

// Config contains runtime configuration required by the service.
// Invalid values are fatal at startup, never recoverable at request time.
type Config struct {
	FeedURL     string
	FeedTimeout time.Duration

	// CacheTTL is the freshness window: cached feed data older than this is
	// refetched on the next request.
	CacheTTL   time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// MaxIncidentsPerRequest caps limit parameters on caller-facing queries.
	MaxIncidentsPerRequest int

	// DBURL enables durable persistence when set. The live pipeline never
	// depends on the database; an empty value runs the service cache-only.
	DBURL string

	ListenAddr string
}

// Load reads values from environment variables, applying defaults that let
// the service run out-of-the-box against the public feed.
func Load() (Config, error) {
	cfg := Config{
		FeedURL:    strings.TrimSpace(os.Getenv("FEED_API_URL")),
		DBURL:      strings.TrimSpace(os.Getenv("DB_URL")),
		ListenAddr: strings.TrimSpace(os.Getenv("LISTEN_ADDR")),
	}
	if cfg.FeedURL == "" {
		cfg.FeedURL = defaultFeedURL
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	timeoutSec, err := intFromEnv("FEED_API_TIMEOUT_SECONDS", 10)
	if err != nil {
		return Config{}, err
	}
	ttlMin, err := intFromEnv("CACHE_TTL_MINUTES", 5)
	if err != nil {
		return Config{}, err
	}
	retries, err := intFromEnv("MAX_RETRIES", 3)
	if err != nil {
		return Config{}, err
	}
	delaySec, err := intFromEnv("RETRY_DELAY_SECONDS", 2)
	if err != nil {
		return Config{}, err
	}
	maxPerReq, err := intFromEnv("MAX_INCIDENTS_PER_REQUEST", 1000)
	if err != nil {
		return Config{}, err
	}

	cfg.FeedTimeout = time.Duration(timeoutSec) * time.Second
	cfg.CacheTTL = time.Duration(ttlMin) * time.Minute
	cfg.MaxRetries = retries
	cfg.RetryDelay = time.Duration(delaySec) * time.Second
	cfg.MaxIncidentsPerRequest = maxPerReq

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.FeedTimeout <= 0 {
		return fmt.Errorf("FEED_API_TIMEOUT_SECONDS must be positive, got %s", c.FeedTimeout)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_MINUTES must be positive, got %s", c.CacheTTL)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1, got %d", c.MaxRetries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("RETRY_DELAY_SECONDS must not be negative, got %s", c.RetryDelay)
	}
	if c.MaxIncidentsPerRequest < 1 {
		return fmt.Errorf("MAX_INCIDENTS_PER_REQUEST must be at least 1, got %d", c.MaxIncidentsPerRequest)
	}
	return nil
}

// intFromEnv parses an integer environment variable, falling back to def
// when unset. A set-but-unparsable value is a configuration error.
func intFromEnv(name string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}
