package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"feedrelay/internal/comparison"
	"feedrelay/internal/domain"
	"feedrelay/internal/ratelimit"
)

// ComparisonEngine decides the deliverable subset of a batch.
type ComparisonEngine interface {
	NewArticles(ctx context.Context, feed domain.Feed, articles []domain.Article) (comparison.Result, error)
}

// RateLimiter gates one prospective delivery against every applicable
// cap. Check is read-only; Commit consumes after a successful Check.
type RateLimiter interface {
	Check(ctx context.Context, feedID string, dayLimit int, mediumID string, mediumLimits []ratelimit.Limit) (ratelimit.Verdict, error)
	Commit(ctx context.Context, feedID string, dayLimit int, mediumID string, mediumLimits []ratelimit.Limit) error
}

// Deliverer is the delivery orchestrator as the pipeline sees it.
type Deliverer interface {
	Deliver(ctx context.Context, feedID string, article domain.Article, medium domain.Medium) ([]domain.DeliveryRecord, error)
	RecordGateRejection(ctx context.Context, feedID, mediumID, articleIDHash string, status domain.DeliveryStatus) error
	RecordFailure(ctx context.Context, feedID, mediumID, articleIDHash string, cause error) error
}
