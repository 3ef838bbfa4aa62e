// Package normalize turns raw feed records into validated incidents.
// Records failing any constraint are dropped and counted; a validation
// failure never propagates past this boundary.
package normalize

import (
	"log/slog"
	"time"

	"github.com/phishnheat/threat-intel-service/internal/feedclient"
	"github.com/phishnheat/threat-intel-service/internal/metrics"
	"github.com/phishnheat/threat-intel-service/internal/models"
)

// Coordinate validation bounds.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Detection timestamps arrive either as RFC3339 or in the feed's plain
// "YYYY-MM-DD hh:mm:ss" form.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Records validates and coerces each raw record into a canonical Incident.
// It returns the valid incidents in input order and the number of records
// rejected. Rejections are logged with their reason.
func Records(raw []feedclient.RawIncident) ([]models.Incident, int) {
	incidents := make([]models.Incident, 0, len(raw))
	rejected := 0
	for _, r := range raw {
		inc, reason := one(r)
		if reason != "" {
			rejected++
			metrics.RecordsRejected.WithLabelValues(reason).Inc()
			slog.Warn("skipping invalid record", "reason", reason, "url", r.URL)
			continue
		}
		metrics.RecordsAccepted.Inc()
		incidents = append(incidents, inc)
	}
	if rejected > 0 {
		slog.Info("normalized feed records",
			"accepted", len(incidents), "rejected", rejected)
	}
	return incidents, rejected
}

// one builds an Incident from a raw record, returning a non-empty rejection
// reason on the first constraint violation.
func one(r feedclient.RawIncident) (models.Incident, string) {
	if r.Latitude == nil || r.Longitude == nil {
		return models.Incident{}, "missing_coordinates"
	}
	if *r.Latitude < MinLatitude || *r.Latitude > MaxLatitude {
		return models.Incident{}, "latitude_out_of_range"
	}
	if *r.Longitude < MinLongitude || *r.Longitude > MaxLongitude {
		return models.Incident{}, "longitude_out_of_range"
	}

	severity, ok := models.NormalizeSeverity(r.ThreatLevel)
	if !ok {
		return models.Incident{}, "unrecognized_severity"
	}

	var detectedAt *time.Time
	if r.DetectedAt != "" {
		t, ok := parseTimestamp(r.DetectedAt)
		if !ok {
			return models.Incident{}, "unparsable_timestamp"
		}
		detectedAt = &t
	}

	return models.Incident{
		ID:         r.ID,
		URL:        r.URL,
		Latitude:   *r.Latitude,
		Longitude:  *r.Longitude,
		Severity:   severity,
		Company:    r.Company,
		Country:    r.Country,
		ISP:        r.ISP,
		DetectedAt: detectedAt,
	}, ""
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
