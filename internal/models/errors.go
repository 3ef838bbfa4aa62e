package models

import "errors"

// Sentinel errors shared across the service. The HTTP layer maps these to
// protocol status codes; everything else surfaces as an internal error.
var (
	// ErrSourceUnavailable means the upstream feed failed on every configured
	// retry attempt. Callers never receive partial or expired data in its place.
	ErrSourceUnavailable = errors.New("threat feed unavailable")

	// ErrNotFound means a requested incident does not exist in the current
	// collection.
	ErrNotFound = errors.New("incident not found")

	// ErrInvalidParams means a caller-supplied limit or offset is logically
	// invalid. Rejected before any filtering or aggregation runs.
	ErrInvalidParams = errors.New("invalid request parameters")
)
