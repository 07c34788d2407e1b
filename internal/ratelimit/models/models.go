// Package models defines rate limit buckets and check results.
package models

import "time"

// EndpointClass groups routes that share a request budget.
type EndpointClass string

const (
	// ClassAuth covers credential endpoints such as login.
	ClassAuth EndpointClass = "auth"
	// ClassWrite covers tenant-scoped mutations.
	ClassWrite EndpointClass = "write"
)

// Policy is the budget for one endpoint class.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of one bucket check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, zero when allowed
}

// RetryAfterSeconds returns the whole seconds until resetAt, never negative.
func RetryAfterSeconds(allowed bool, resetAt, now time.Time) int {
	if allowed {
		return 0
	}
	seconds := int(resetAt.Sub(now).Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}
