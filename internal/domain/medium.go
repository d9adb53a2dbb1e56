package domain

import "feedrelay/internal/filter"

// Medium is one configured delivery destination. Owned by tenant
// configuration and read-only to the pipeline. A nil Filters
// expression means every article passes.
type Medium struct {
	ID         string             `json:"id"`
	Filters    *filter.Expression `json:"filters"`
	RateLimits []RateLimit        `json:"rateLimits"`
}
