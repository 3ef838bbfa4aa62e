// Package service exposes the caller-facing operations: it composes the
// fetch coordinator, normalizer, filter engine and analytics aggregator,
// and hands validated results to the routing layer as plain structured data.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phishnheat/threat-intel-service/internal/analytics"
	"github.com/phishnheat/threat-intel-service/internal/cache"
	"github.com/phishnheat/threat-intel-service/internal/feedclient"
	"github.com/phishnheat/threat-intel-service/internal/models"
	"github.com/phishnheat/threat-intel-service/internal/normalize"
	"github.com/phishnheat/threat-intel-service/internal/query"
	"github.com/phishnheat/threat-intel-service/internal/store"
)

// Service orchestrates fetch -> normalize -> query/aggregate for the HTTP
// layer. All operations work over the current normalized collection; no
// aggregation state survives between calls.
type Service struct {
	client *feedclient.Client

	// st is nil when the service runs without durable persistence.
	st *store.PostgresStore

	maxPerRequest int
	now           func() time.Time
}

// New builds a Service. st may be nil to disable persistence.
func New(client *feedclient.Client, st *store.PostgresStore, maxPerRequest int) *Service {
	return &Service{
		client:        client,
		st:            st,
		maxPerRequest: maxPerRequest,
		now:           time.Now,
	}
}

// incidents fetches (cache-first) and normalizes the current collection.
func (s *Service) incidents(ctx context.Context) ([]models.Incident, error) {
	raw, err := s.client.FetchIncidents(ctx, false)
	if err != nil {
		return nil, err
	}
	incidents, _ := normalize.Records(raw)
	return incidents, nil
}

// validateLimit rejects limits outside [0, maxPerRequest] before they reach
// the filter or aggregation logic.
func (s *Service) validateLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w: limit must not be negative, got %d", models.ErrInvalidParams, limit)
	}
	if limit > s.maxPerRequest {
		return fmt.Errorf("%w: limit exceeds maximum of %d", models.ErrInvalidParams, s.maxPerRequest)
	}
	return nil
}

// Incidents returns the filtered, paginated current collection.
func (s *Service) Incidents(ctx context.Context, crit query.Criteria, limit, offset int) ([]models.Incident, error) {
	if err := s.validateLimit(limit); err != nil {
		return nil, err
	}
	incidents, err := s.incidents(ctx)
	if err != nil {
		return nil, err
	}
	return query.Apply(incidents, crit, limit, offset)
}

// IncidentByID looks up a single incident in the current collection.
func (s *Service) IncidentByID(ctx context.Context, id int64) (models.Incident, error) {
	incidents, err := s.incidents(ctx)
	if err != nil {
		return models.Incident{}, err
	}
	for _, inc := range incidents {
		if inc.ID != nil && *inc.ID == id {
			return inc, nil
		}
	}
	return models.Incident{}, fmt.Errorf("%w: id %d", models.ErrNotFound, id)
}

// Heatmap projects the (optionally severity-filtered) collection onto
// [latitude, longitude] pairs in filtered order.
func (s *Service) Heatmap(ctx context.Context, severity string, limit int) (models.HeatmapData, error) {
	if err := s.validateLimit(limit); err != nil {
		return models.HeatmapData{}, err
	}
	incidents, err := s.incidents(ctx)
	if err != nil {
		return models.HeatmapData{}, err
	}
	filtered, err := query.Apply(incidents, query.Criteria{Severity: severity}, limit, 0)
	if err != nil {
		return models.HeatmapData{}, err
	}

	coords := make([][]float64, 0, len(filtered))
	for _, inc := range filtered {
		coords = append(coords, []float64{inc.Latitude, inc.Longitude})
	}
	return models.HeatmapData{
		Coordinates:   coords,
		IncidentCount: len(coords),
		LastUpdated:   s.now().UTC(),
	}, nil
}

// Statistics returns the summary statistics view.
func (s *Service) Statistics(ctx context.Context) (models.ThreatStatistics, error) {
	incidents, err := s.incidents(ctx)
	if err != nil {
		return models.ThreatStatistics{}, err
	}
	return analytics.Statistics(incidents, s.now().UTC()), nil
}

// Overview returns the composite aggregation.
func (s *Service) Overview(ctx context.Context) (models.Overview, error) {
	incidents, err := s.incidents(ctx)
	if err != nil {
		return models.Overview{}, err
	}
	return analytics.Overview(incidents, s.now().UTC()), nil
}

// Distribution returns incident counts by severity over the fixed key set.
func (s *Service) Distribution(ctx context.Context) (map[string]int, error) {
	incidents, err := s.incidents(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.SeverityDistribution(incidents), nil
}

// TopRegions ranks origin countries by incident count.
func (s *Service) TopRegions(ctx context.Context, limit int) ([]models.ValueCount, error) {
	incidents, err := s.incidents(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.TopRegions(incidents, limit)
}

// TopCompanies ranks targeted companies by incident count.
func (s *Service) TopCompanies(ctx context.Context, limit int) ([]models.ValueCount, error) {
	incidents, err := s.incidents(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.TopCompanies(incidents, limit)
}

// TopISPs ranks origin networks by incident count.
func (s *Service) TopISPs(ctx context.Context, limit int) ([]models.ValueCount, error) {
	incidents, err := s.incidents(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.TopISPs(incidents, limit)
}

// Hotspots returns country groupings with severity breakdowns.
func (s *Service) Hotspots(ctx context.Context, limit int) ([]models.Hotspot, error) {
	incidents, err := s.incidents(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Hotspots(incidents, limit)
}

// ForceRefresh bypasses the freshness cache, refetches the dataset and
// returns the refreshed incident count. On success the normalized batch is
// persisted best-effort: a storage failure is logged, never surfaced, and
// live queries are unaffected.
func (s *Service) ForceRefresh(ctx context.Context) (int, error) {
	raw, err := s.client.FetchIncidents(ctx, true)
	if err != nil {
		return 0, err
	}
	incidents, rejected := normalize.Records(raw)
	slog.Info("forced feed refresh", "accepted", len(incidents), "rejected", rejected)

	if s.st != nil {
		fetchID := uuid.New()
		if saved, err := s.st.SaveIncidents(ctx, incidents); err != nil {
			slog.Error("persisting refreshed incidents failed", "error", err)
		} else if err := s.st.UpsertFetchMetadata(ctx, feedclient.DatasetKey, fetchID, s.now().UTC(), len(incidents)); err != nil {
			slog.Error("updating fetch metadata failed", "fetch_id", fetchID, "error", err)
		} else {
			slog.Info("persisted refreshed incidents",
				"fetch_id", fetchID, "new_rows", saved, "total", len(incidents))
		}
	}
	return len(incidents), nil
}

// CacheInfo exposes the freshness cache snapshot for the debug endpoint.
func (s *Service) CacheInfo() map[string]cache.EntryInfo {
	return s.client.CacheInfo()
}
