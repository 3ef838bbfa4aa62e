// Package query applies equality filters and pagination over a normalized
// incident collection. Filtering is stable: input order is preserved.
package query

import (
	"fmt"
	"strings"

	"github.com/phishnheat/threat-intel-service/internal/models"
)

// Criteria is an optional set of exact-match predicates. Empty fields are
// not applied; supplied fields are ANDed. Matching is case-insensitive.
type Criteria struct {
	Severity string
	Company  string
	Country  string
	ISP      string
}

// IsZero reports whether no predicate is set.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// Matches reports whether inc satisfies every supplied predicate.
func Matches(inc models.Incident, c Criteria) bool {
	if c.Severity != "" && !strings.EqualFold(inc.Severity, c.Severity) {
		return false
	}
	if c.Company != "" && !strings.EqualFold(inc.Company, c.Company) {
		return false
	}
	if c.Country != "" && !strings.EqualFold(inc.Country, c.Country) {
		return false
	}
	if c.ISP != "" && !strings.EqualFold(inc.ISP, c.ISP) {
		return false
	}
	return true
}

// Apply filters incidents by crit, then paginates by skipping offset
// elements and taking up to limit. Negative limit or offset is rejected
// before any filtering runs.
func Apply(incidents []models.Incident, crit Criteria, limit, offset int) ([]models.Incident, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative, got %d", models.ErrInvalidParams, limit)
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative, got %d", models.ErrInvalidParams, offset)
	}

	filtered := incidents
	if !crit.IsZero() {
		filtered = make([]models.Incident, 0, len(incidents))
		for _, inc := range incidents {
			if Matches(inc, crit) {
				filtered = append(filtered, inc)
			}
		}
	}

	if offset >= len(filtered) {
		return []models.Incident{}, nil
	}
	filtered = filtered[offset:]
	if limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered, nil
}
