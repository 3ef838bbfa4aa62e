// Package analytics derives aggregate statistics from a normalized incident
// collection. Every function here is pure: same input, same output, no
// state retained between calls.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/phishnheat/threat-intel-service/internal/models"
)

// UnknownCountry is the bucket for incidents without an origin country.
const UnknownCountry = "Unknown"

// SeverityDistribution counts incidents by severity over the fixed key set,
// so absent levels report zero rather than a missing key.
func SeverityDistribution(incidents []models.Incident) map[string]int {
	dist := make(map[string]int, len(models.SeverityLevels))
	for _, level := range models.SeverityLevels {
		dist[level] = 0
	}
	for _, inc := range incidents {
		if _, ok := dist[inc.Severity]; ok {
			dist[inc.Severity]++
		}
	}
	return dist
}

// counter counts string keys while remembering first-seen order, which is
// the documented tie-break for rankings: equal counts keep the order the
// values first appeared in the input.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// top returns up to limit entries sorted strictly descending by count.
// sort.SliceStable preserves first-seen order among equal counts.
func (c *counter) top(limit int) []models.ValueCount {
	out := make([]models.ValueCount, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, models.ValueCount{Value: key, Count: c.counts[key]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if limit < len(out) {
		out = out[:limit]
	}
	return out
}

func topBy(incidents []models.Incident, key func(models.Incident) string, limit int) ([]models.ValueCount, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative, got %d", models.ErrInvalidParams, limit)
	}
	c := newCounter()
	for _, inc := range incidents {
		if k := key(inc); k != "" {
			c.add(k)
		}
	}
	return c.top(limit), nil
}

// TopRegions ranks origin countries by incident count. Incidents without a
// country are excluded from the ranking.
func TopRegions(incidents []models.Incident, limit int) ([]models.ValueCount, error) {
	return topBy(incidents, func(inc models.Incident) string { return inc.Country }, limit)
}

// TopCompanies ranks targeted companies by incident count.
func TopCompanies(incidents []models.Incident, limit int) ([]models.ValueCount, error) {
	return topBy(incidents, func(inc models.Incident) string { return inc.Company }, limit)
}

// TopISPs ranks origin networks by incident count.
func TopISPs(incidents []models.Incident, limit int) ([]models.ValueCount, error) {
	return topBy(incidents, func(inc models.Incident) string { return inc.ISP }, limit)
}

// Hotspots groups incidents by origin country with a severity breakdown,
// sorted descending by total and truncated to limit. Incidents without a
// country land in the "Unknown" bucket. Unknown-severity incidents count
// toward the total but no per-level column.
func Hotspots(incidents []models.Incident, limit int) ([]models.Hotspot, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative, got %d", models.ErrInvalidParams, limit)
	}

	byCountry := make(map[string]*models.Hotspot)
	var order []string
	for _, inc := range incidents {
		country := inc.Country
		if country == "" {
			country = UnknownCountry
		}
		h, ok := byCountry[country]
		if !ok {
			h = &models.Hotspot{Country: country}
			byCountry[country] = h
			order = append(order, country)
		}
		h.TotalIncidents++
		switch inc.Severity {
		case models.SeverityCritical:
			h.Critical++
		case models.SeverityHigh:
			h.High++
		case models.SeverityMedium:
			h.Medium++
		case models.SeverityLow:
			h.Low++
		}
	}

	hotspots := make([]models.Hotspot, 0, len(order))
	for _, country := range order {
		hotspots = append(hotspots, *byCountry[country])
	}
	sort.SliceStable(hotspots, func(i, j int) bool {
		return hotspots[i].TotalIncidents > hotspots[j].TotalIncidents
	})
	if limit < len(hotspots) {
		hotspots = hotspots[:limit]
	}
	return hotspots, nil
}

// Overview combines the total count, the full severity distribution, top-5
// regions, companies and ISPs, and the top-10 hotspots into one view.
func Overview(incidents []models.Incident, now time.Time) models.Overview {
	// Limits here are fixed and non-negative, so the errors cannot fire.
	regions, _ := TopRegions(incidents, 5)
	companies, _ := TopCompanies(incidents, 5)
	isps, _ := TopISPs(incidents, 5)
	hotspots, _ := Hotspots(incidents, 10)

	return models.Overview{
		TotalIncidents:     len(incidents),
		ThreatDistribution: SeverityDistribution(incidents),
		TopRegions:         regions,
		TopCompanies:       companies,
		TopISPs:            isps,
		Hotspots:           hotspots,
		LastUpdated:        now,
	}
}

// Statistics summarizes the collection for the stats endpoint: totals,
// per-severity counts and top-5 company/country names.
func Statistics(incidents []models.Incident, now time.Time) models.ThreatStatistics {
	dist := SeverityDistribution(incidents)
	companies, _ := TopCompanies(incidents, 5)
	countries, _ := TopRegions(incidents, 5)

	return models.ThreatStatistics{
		TotalIncidents:       len(incidents),
		CriticalCount:        dist[models.SeverityCritical],
		HighCount:            dist[models.SeverityHigh],
		MediumCount:          dist[models.SeverityMedium],
		LowCount:             dist[models.SeverityLow],
		TopTargetedCompanies: names(companies),
		MostActiveCountries:  names(countries),
		LastUpdated:          now,
	}
}

func names(vcs []models.ValueCount) []string {
	out := make([]string, 0, len(vcs))
	for _, vc := range vcs {
		out = append(out, vc.Value)
	}
	return out
}
