package models

import "time"

// ValueCount is one entry of a top-N ranking: a field value and how many
// incidents carry it. Rankings are ordered strictly descending by count;
// equal counts keep first-seen order.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Hotspot is a geographic grouping by origin country with a severity
// breakdown. Incidents without a country fall into the "Unknown" bucket.
type Hotspot struct {
	Country        string `json:"country"`
	TotalIncidents int    `json:"total_incidents"`
	Critical       int    `json:"critical"`
	High           int    `json:"high"`
	Medium         int    `json:"medium"`
	Low            int    `json:"low"`
}

// HeatmapData is the coordinate-only projection consumed by the map view.
// Coordinates are [latitude, longitude] pairs in filtered order.
type HeatmapData struct {
	Coordinates   [][]float64 `json:"coordinates"`
	IncidentCount int         `json:"incident_count"`
	LastUpdated   time.Time   `json:"last_updated"`
}

// ThreatStatistics summarizes the current collection: totals, per-severity
// counts and the top-5 targeted companies and origin countries.
type ThreatStatistics struct {
	TotalIncidents       int       `json:"total_incidents"`
	CriticalCount        int       `json:"critical_count"`
	HighCount            int       `json:"high_count"`
	MediumCount          int       `json:"medium_count"`
	LowCount             int       `json:"low_count"`
	TopTargetedCompanies []string  `json:"top_targeted_companies"`
	MostActiveCountries  []string  `json:"most_active_countries"`
	LastUpdated          time.Time `json:"last_updated"`
}

// Overview is the composite aggregation: total count, full severity
// distribution, top-5 regions/companies/ISPs and top-10 hotspots. Computed
// fresh on every request, never cached.
type Overview struct {
	TotalIncidents     int            `json:"total_incidents"`
	ThreatDistribution map[string]int `json:"threat_distribution"`
	TopRegions         []ValueCount   `json:"top_regions"`
	TopCompanies       []ValueCount   `json:"top_companies"`
	TopISPs            []ValueCount   `json:"top_isps"`
	Hotspots           []Hotspot      `json:"hotspots"`
	LastUpdated        time.Time      `json:"last_updated"`
}
