package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phishnheat/threat-intel-service/internal/feedclient"
	"github.com/phishnheat/threat-intel-service/internal/models"
)

func f(v float64) *float64 { return &v }

func TestRecords_DropsOutOfRangeCoordinates(t *testing.T) {
	raw := []feedclient.RawIncident{
		{Latitude: f(40.7128), Longitude: f(-74.006), ThreatLevel: "HIGH", Company: "PayPal"},
		{Latitude: f(200), Longitude: f(0)},
	}

	incidents, rejected := Records(raw)

	require.Len(t, incidents, 1)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, models.SeverityHigh, incidents[0].Severity, "severity token lowercased")
	assert.Equal(t, "PayPal", incidents[0].Company)
	assert.Equal(t, 40.7128, incidents[0].Latitude)
}

func TestRecords_RequiresBothCoordinates(t *testing.T) {
	// Missing longitude, missing latitude, missing both, then complete.
	raw := []feedclient.RawIncident{
		{Latitude: f(10)},
		{Longitude: f(10)},
		{},
		{Latitude: f(10), Longitude: f(10)},
	}

	incidents, rejected := Records(raw)
	assert.Len(t, incidents, 1)
	assert.Equal(t, 3, rejected)
}

func TestRecords_LongitudeBounds(t *testing.T) {
	raw := []feedclient.RawIncident{
		{Latitude: f(0), Longitude: f(-180)},
		{Latitude: f(0), Longitude: f(180)},
		{Latitude: f(0), Longitude: f(180.01)},
		{Latitude: f(0), Longitude: f(-181)},
	}

	incidents, rejected := Records(raw)
	assert.Len(t, incidents, 2, "boundary values are valid")
	assert.Equal(t, 2, rejected)
}

func TestRecords_SeverityHandling(t *testing.T) {
	raw := []feedclient.RawIncident{
		{Latitude: f(0), Longitude: f(0), ThreatLevel: "CrItIcAl"},
		{Latitude: f(0), Longitude: f(0)}, // absent token
		{Latitude: f(0), Longitude: f(0), ThreatLevel: "severe"},
	}

	incidents, rejected := Records(raw)

	require.Len(t, incidents, 2)
	assert.Equal(t, models.SeverityCritical, incidents[0].Severity)
	assert.Equal(t, models.SeverityUnknown, incidents[1].Severity,
		"absent severity normalizes to unknown")
	assert.Equal(t, 1, rejected, "unrecognized severity is rejected, not coerced")
}

func TestRecords_DetectionTimestamp(t *testing.T) {
	raw := []feedclient.RawIncident{
		{Latitude: f(0), Longitude: f(0), DetectedAt: "2026-02-21T10:30:00Z"},
		{Latitude: f(0), Longitude: f(0), DetectedAt: "2026-02-21 10:30:00"},
		{Latitude: f(0), Longitude: f(0)},
		{Latitude: f(0), Longitude: f(0), DetectedAt: "yesterday"},
	}

	incidents, rejected := Records(raw)

	require.Len(t, incidents, 3)
	want := time.Date(2026, 2, 21, 10, 30, 0, 0, time.UTC)
	require.NotNil(t, incidents[0].DetectedAt)
	assert.Equal(t, want, *incidents[0].DetectedAt)
	require.NotNil(t, incidents[1].DetectedAt)
	assert.Equal(t, want, *incidents[1].DetectedAt)
	assert.Nil(t, incidents[2].DetectedAt, "absent timestamp is valid")
	assert.Equal(t, 1, rejected, "unparsable timestamp is rejected")
}

func TestRecords_PreservesInputOrder(t *testing.T) {
	raw := []feedclient.RawIncident{
		{Latitude: f(1), Longitude: f(1), Country: "US"},
		{Latitude: f(999), Longitude: f(1)}, // rejected
		{Latitude: f(2), Longitude: f(2), Country: "FR"},
	}

	incidents, rejected := Records(raw)
	require.Len(t, incidents, 2)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, "US", incidents[0].Country)
	assert.Equal(t, "FR", incidents[1].Country)
}

func TestRecords_EmptyInput(t *testing.T) {
	incidents, rejected := Records(nil)
	assert.Empty(t, incidents)
	assert.Zero(t, rejected)
}
