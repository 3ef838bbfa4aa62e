// Package feedclient fetches raw threat records from the upstream feed and
// coordinates the freshness cache so the feed's call budget is respected:
// within the freshness window every request is served from cache, and
// concurrent cache misses collapse into a single upstream call.
package feedclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/phishnheat/threat-intel-service/internal/cache"
	"github.com/phishnheat/threat-intel-service/internal/metrics"
	"github.com/phishnheat/threat-intel-service/internal/models"
)

// DatasetKey is the cache key for the phishing incident dataset.
const DatasetKey = "phishing_incidents"

// RawIncident is one record as the upstream feed serves it, prior to any
// validation. Coordinates decode into pointers so a missing field is
// distinguishable from zero.
type RawIncident struct {
	ID          *int64   `json:"id"`
	URL         string   `json:"url"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ThreatLevel string   `json:"threat_level"`
	Company     string   `json:"company"`
	Country     string   `json:"country"`
	ISP         string   `json:"isp"`
	DetectedAt  string   `json:"detected_at"`
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	CacheTTL   time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Sleep waits between retry attempts. Tests substitute a no-op so the
	// retry loop runs without wall-clock delays. Nil means a context-aware
	// time.After wait.
	Sleep func(ctx context.Context, d time.Duration) error

	// HTTPClient overrides the default transport, mainly for tests.
	HTTPClient *http.Client
}

// Client is the fetch coordinator for the upstream threat feed.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      *cache.Cache[[]RawIncident]
	ttl        time.Duration
	maxRetries int
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	group      singleflight.Group
}

// New builds a Client around the given cache. The cache is injected so its
// lifetime is owned by the caller, not by a process-wide singleton.
func New(c *cache.Cache[[]RawIncident], opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Client{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		httpClient: httpClient,
		cache:      c,
		ttl:        opts.CacheTTL,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		sleep:      sleep,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchIncidents returns the current raw record sequence, from cache when a
// fresh entry exists and forceRefresh is false. On a miss or stale entry it
// calls the upstream feed with bounded retries and repopulates the cache.
//
// Concurrent callers hitting a miss share one upstream call via single-flight
// keyed by dataset. The shared fetch runs detached from any single caller's
// context so an abandoning caller cannot leave waiters with a cancelled
// flight or the cache half-written; the cache write happens only after a
// fully successful fetch.
func (c *Client) FetchIncidents(ctx context.Context, forceRefresh bool) ([]RawIncident, error) {
	if !forceRefresh {
		if records, ok := c.cache.Get(DatasetKey); ok && !c.cache.IsStale(DatasetKey, c.ttl) {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			slog.Debug("serving cached feed data", "dataset", DatasetKey, "records", len(records))
			return records, nil
		} else if ok {
			metrics.CacheLookups.WithLabelValues("stale").Inc()
			slog.Info("cached feed data is stale, refetching", "dataset", DatasetKey)
		} else {
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(DatasetKey, func() (interface{}, error) {
		// Re-check under the flight: a caller queued behind a finished
		// refresh should not trigger another upstream call.
		if !forceRefresh {
			if records, ok := c.cache.Get(DatasetKey); ok && !c.cache.IsStale(DatasetKey, c.ttl) {
				return records, nil
			}
		}
		records, err := c.fetchWithRetries(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.cache.Put(DatasetKey, records)
		slog.Info("fetched and cached feed data", "dataset", DatasetKey, "records", len(records))
		return records, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]RawIncident), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CacheInfo exposes the freshness cache contents for the debug endpoint.
func (c *Client) CacheInfo() map[string]cache.EntryInfo {
	return c.cache.Info()
}

// fetchWithRetries calls the feed up to maxRetries times with a fixed delay
// between failed attempts. Transport errors, non-2xx statuses and malformed
// bodies all collapse into the same retry handling; only total exhaustion
// surfaces, as a source-unavailable error.
func (c *Client) fetchWithRetries(ctx context.Context) ([]RawIncident, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		records, err := c.fetchOnce(ctx)
		if err == nil {
			metrics.FeedFetches.WithLabelValues("success").Inc()
			return records, nil
		}
		lastErr = err
		slog.Error("feed fetch attempt failed",
			"attempt", attempt, "max_retries", c.maxRetries, "error", err)
		if attempt < c.maxRetries {
			if err := c.sleep(ctx, c.retryDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%w: %d attempts failed, last error: %v",
		models.ErrSourceUnavailable, c.maxRetries, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context) ([]RawIncident, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.FeedFetches.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.FeedFetches.WithLabelValues("http_error").Inc()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var records []RawIncident
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		metrics.FeedFetches.WithLabelValues("decode_error").Inc()
		return nil, fmt.Errorf("decode feed body: %w", err)
	}
	return records, nil
}
