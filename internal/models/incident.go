package models

import (
	"strings"
	"time"
)

// Severity levels recognized for an incident. Input tokens are matched
// case-insensitively and stored lowercase.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
	SeverityUnknown  = "unknown"
)

// SeverityLevels lists every recognized severity, most severe first.
// Aggregations use this as the fixed key set for distributions.
var SeverityLevels = []string{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityUnknown,
}

// NormalizeSeverity lowercases a severity token and reports whether it is
// one of the recognized levels. An empty token normalizes to "unknown";
// anything else unrecognized is a validation failure, not coerced.
func NormalizeSeverity(token string) (string, bool) {
	if token == "" {
		return SeverityUnknown, true
	}
	s := strings.ToLower(token)
	for _, level := range SeverityLevels {
		if s == level {
			return s, true
		}
	}
	return "", false
}

// Incident is a single validated threat record. Every Incident exposed by
// the query or analytics layers has passed normalization; no partially-valid
// incident exists downstream of that boundary.
type Incident struct {
	// ID is assigned by the persistent store, not by the live pipeline.
	ID          *int64     `json:"id,omitempty"`
	URL         string     `json:"url,omitempty"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Severity    string     `json:"threat_level"`
	Company     string     `json:"company,omitempty"`
	Country     string     `json:"country,omitempty"`
	ISP         string     `json:"isp,omitempty"`
	DetectedAt  *time.Time `json:"detected_at,omitempty"`
}
