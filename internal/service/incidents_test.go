package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phishnheat/threat-intel-service/internal/cache"
	"github.com/phishnheat/threat-intel-service/internal/feedclient"
	"github.com/phishnheat/threat-intel-service/internal/models"
	"github.com/phishnheat/threat-intel-service/internal/query"
)

// Three valid records and one with an out-of-range latitude that the
// normalizer must drop.
const feedBody = `[
	{"id": 1, "url": "http://a.example", "latitude": 40.7128, "longitude": -74.006, "threat_level": "high", "company": "PayPal", "country": "US", "isp": "NetOne"},
	{"id": 2, "url": "http://b.example", "latitude": 48.8566, "longitude": 2.3522, "threat_level": "critical", "company": "Apple", "country": "FR", "isp": "NetTwo"},
	{"id": 3, "url": "http://c.example", "latitude": 34.0522, "longitude": -118.2437, "threat_level": "high", "company": "PayPal", "country": "US", "isp": "NetOne"},
	{"id": 4, "url": "http://d.example", "latitude": 200, "longitude": 0, "threat_level": "low"}
]`

func newTestService(t *testing.T, body string) (*Service, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := feedclient.New(cache.New[[]feedclient.RawIncident](), feedclient.Options{
		BaseURL:    srv.URL,
		UserAgent:  "test-agent",
		Timeout:    2 * time.Second,
		CacheTTL:   5 * time.Minute,
		MaxRetries: 3,
		RetryDelay: time.Second,
		Sleep:      func(ctx context.Context, d time.Duration) error { return nil },
	})
	return New(client, nil, 1000), &calls
}

func TestIncidents_ReturnsOnlyValidatedRecords(t *testing.T) {
	svc, _ := newTestService(t, feedBody)

	incidents, err := svc.Incidents(context.Background(), query.Criteria{}, 100, 0)
	require.NoError(t, err)
	require.Len(t, incidents, 3, "invalid record absorbed at the normalization boundary")
	assert.Equal(t, "http://a.example", incidents[0].URL)
}

func TestIncidents_AppliesFiltersAndPagination(t *testing.T) {
	svc, _ := newTestService(t, feedBody)

	incidents, err := svc.Incidents(context.Background(), query.Criteria{Severity: "high"}, 1, 1)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, "http://c.example", incidents[0].URL)
}

func TestIncidents_RejectsLimitAboveMaximum(t *testing.T) {
	svc, calls := newTestService(t, feedBody)

	_, err := svc.Incidents(context.Background(), query.Criteria{}, 5000, 0)
	assert.ErrorIs(t, err, models.ErrInvalidParams)
	assert.Equal(t, int32(0), calls.Load(), "invalid params rejected before any fetch")
}

func TestIncidentByID(t *testing.T) {
	svc, _ := newTestService(t, feedBody)

	inc, err := svc.IncidentByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "http://b.example", inc.URL)

	_, err = svc.IncidentByID(context.Background(), 9999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestHeatmap_ProjectsFilteredCoordinates(t *testing.T) {
	svc, _ := newTestService(t, feedBody)

	data, err := svc.Heatmap(context.Background(), "high", 100)
	require.NoError(t, err)
	assert.Equal(t, 2, data.IncidentCount)
	assert.Equal(t, [][]float64{
		{40.7128, -74.006},
		{34.0522, -118.2437},
	}, data.Coordinates, "filtered order preserved")
}

func TestStatisticsAndOverview(t *testing.T) {
	svc, _ := newTestService(t, feedBody)

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalIncidents)
	assert.Equal(t, 1, stats.CriticalCount)
	assert.Equal(t, 2, stats.HighCount)
	assert.Equal(t, []string{"PayPal", "Apple"}, stats.TopTargetedCompanies)

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, overview.TotalIncidents)
	assert.Equal(t, "US", overview.TopRegions[0].Value)
	assert.Equal(t, "NetOne", overview.TopISPs[0].Value)
}

func TestConsecutiveQueriesShareOneUpstreamCall(t *testing.T) {
	svc, calls := newTestService(t, feedBody)

	_, err := svc.Incidents(context.Background(), query.Criteria{}, 100, 0)
	require.NoError(t, err)
	_, err = svc.Statistics(context.Background())
	require.NoError(t, err)
	_, err = svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(),
		"queries within the freshness window are served from cache")
}

func TestForceRefresh_BypassesCacheAndReportsCount(t *testing.T) {
	svc, calls := newTestService(t, feedBody)

	_, err := svc.Incidents(context.Background(), query.Criteria{}, 100, 0)
	require.NoError(t, err)

	count, err := svc.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSourceUnavailablePropagates(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client := feedclient.New(cache.New[[]feedclient.RawIncident](), feedclient.Options{
		BaseURL:    srv.URL,
		UserAgent:  "test-agent",
		Timeout:    2 * time.Second,
		CacheTTL:   5 * time.Minute,
		MaxRetries: 2,
		RetryDelay: time.Second,
		Sleep:      func(ctx context.Context, d time.Duration) error { return nil },
	})
	svc := New(client, nil, 1000)

	_, err := svc.Statistics(context.Background())
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}
