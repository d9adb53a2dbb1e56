// Package ratelimit enforces fixed-window delivery caps backed by a
// shared counter store.
package ratelimit

import (
	"context"
	"fmt"
)

// SecondsPerDay is the window of the implicit per-feed daily cap.
const SecondsPerDay = 86400

// Limit is one cap: at most Limit consumptions per WindowSeconds.
type Limit struct {
	Limit         int
	WindowSeconds int
}

// CounterStore holds the shared window counters. Counters are keyed
// by (subjectID, windowSeconds); a subject is either a medium id or a
// feed id. Consume must be atomic (check-and-increment as one storage
// operation) because concurrent deliveries race on the same counter.
// No in-process caching of counters: the store is the single source
// of truth under horizontal scaling.
type CounterStore interface {
	// Consume resets the window if it has elapsed, then increments
	// the counter only if it is below limit. Returns whether the
	// increment happened.
	Consume(ctx context.Context, subjectID string, windowSeconds int, limit int) (bool, error)

	// Peek reports whether a Consume would currently succeed, without
	// mutating anything. Used by the check phase and by delivery
	// previews.
	Peek(ctx context.Context, subjectID string, windowSeconds int, limit int) (bool, error)

	// Clear drops every counter for the subject.
	Clear(ctx context.Context, subjectID string) error
}

// Verdict is the outcome of checking all limits that apply to one
// prospective delivery.
type Verdict struct {
	Allowed bool
	// FeedLimited is true when the feed's daily cap denied the
	// delivery; otherwise a denial came from a medium-level cap. The
	// two are surfaced as distinct statuses because the remediation
	// differs: one is a global cap, the other a cap the tenant set.
	FeedLimited bool
}

// Limiter gates deliveries against the feed's daily cap plus every
// medium-level cap.
//
// Strategy: check all applicable limits read-only first, then commit
// all. A rejected delivery therefore never leaves a partially
// consumed limit behind; the cost is that two racing deliveries can
// both pass the check phase and over-consume a limit by one unit
// each. Each individual Consume stays atomic, so counters cannot be
// corrupted, only overshot by the number of concurrent committers.
type Limiter struct {
	store CounterStore
}

func NewLimiter(store CounterStore) *Limiter {
	return &Limiter{store: store}
}

// Check runs the read-only phase: the feed's daily cap and every
// medium limit. It consumes nothing.
func (l *Limiter) Check(ctx context.Context, feedID string, dayLimit int, mediumID string, mediumLimits []Limit) (Verdict, error) {
	if dayLimit > 0 {
		allowed, err := l.store.Peek(ctx, feedID, SecondsPerDay, dayLimit)
		if err != nil {
			return Verdict{}, fmt.Errorf("peek feed limit: %w", err)
		}
		if !allowed {
			return Verdict{FeedLimited: true}, nil
		}
	}

	for _, limit := range mediumLimits {
		allowed, err := l.store.Peek(ctx, mediumID, limit.WindowSeconds, limit.Limit)
		if err != nil {
			return Verdict{}, fmt.Errorf("peek medium limit: %w", err)
		}
		if !allowed {
			return Verdict{}, nil
		}
	}

	return Verdict{Allowed: true}, nil
}

// Commit runs the consume phase after a successful Check. Counters
// overshooting their limit under race is tolerated, so a false return
// from an individual Consume here is not treated as a denial.
func (l *Limiter) Commit(ctx context.Context, feedID string, dayLimit int, mediumID string, mediumLimits []Limit) error {
	if dayLimit > 0 {
		if _, err := l.store.Consume(ctx, feedID, SecondsPerDay, dayLimit); err != nil {
			return fmt.Errorf("consume feed limit: %w", err)
		}
	}
	for _, limit := range mediumLimits {
		if _, err := l.store.Consume(ctx, mediumID, limit.WindowSeconds, limit.Limit); err != nil {
			return fmt.Errorf("consume medium limit: %w", err)
		}
	}
	return nil
}
