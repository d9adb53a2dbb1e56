// Package service composes identity resolution, comparison, filtering,
// rate limiting and delivery into the feed event pipeline.
package service

import (
	"context"
	"log/slog"
	"time"

	"feedrelay/internal/domain"
	"feedrelay/internal/filter"
	"feedrelay/internal/identity"
	"feedrelay/internal/ratelimit"
)

// Pipeline processes one FeedEvent at a time. Events for different
// feeds may run through separate Pipeline calls concurrently; the
// shared state lives behind the engine, limiter and deliverer, not in
// the pipeline itself.
type Pipeline struct {
	engine ComparisonEngine
	// previewEngine shares the engine's lookup paths but discards all
	// writes; previews must not drift from live processing.
	previewEngine ComparisonEngine
	limiter       RateLimiter
	deliverer     Deliverer
	logger        *slog.Logger
}

func NewPipeline(engine, previewEngine ComparisonEngine, limiter RateLimiter, deliverer Deliverer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		engine:        engine,
		previewEngine: previewEngine,
		limiter:       limiter,
		deliverer:     deliverer,
		logger:        logger,
	}
}

// ProcessEvent runs the whole synchronous gating phase for one event:
// identity resolution, new-article detection, then per (article,
// medium) pair the filter and rate-limit gates and the delivery
// orchestration. Once admitted an event runs to completion; there is
// no mid-flight cancellation of the gating phase.
func (p *Pipeline) ProcessEvent(ctx context.Context, event domain.FeedEvent) (*domain.EventStats, error) {
	start := time.Now()
	stats := &domain.EventStats{
		FeedID:  event.Feed.ID,
		Fetched: len(event.Articles),
	}

	resolveIdentities(event.Articles)

	result, err := p.engine.NewArticles(ctx, event.Feed, event.Articles)
	if err != nil {
		return stats, err
	}
	stats.New = len(result.ToDeliver)
	stats.Blocked = len(result.Blocked)

	for _, article := range result.ToDeliver {
		for _, medium := range event.Mediums {
			p.processPair(ctx, event, article, medium, stats)
		}
	}

	stats.Duration = time.Since(start)
	p.logger.Info("processed feed event",
		"feed_id", event.Feed.ID,
		"fetched", stats.Fetched,
		"new", stats.New,
		"blocked", stats.Blocked,
		"delivered", stats.Delivered,
		"filtered_out", stats.FilteredOut,
		"rate_limited", stats.RateLimited,
		"failed", stats.Failed,
		"duration", stats.Duration,
	)

	return stats, nil
}

// processPair runs the gates for one (article, medium) pair. Errors
// are contained here: one failing pair must not affect its siblings.
func (p *Pipeline) processPair(ctx context.Context, event domain.FeedEvent, article domain.Article, medium domain.Medium, stats *domain.EventStats) {
	if !filter.Evaluate(medium.Filters, article) {
		stats.FilteredOut++
		if err := p.deliverer.RecordGateRejection(ctx, event.Feed.ID, medium.ID, article.IDHash(), domain.StatusFilteredOut); err != nil {
			p.logger.Error("failed to record filter rejection",
				"feed_id", event.Feed.ID, "medium_id", medium.ID, "error", err)
		}
		return
	}

	verdict, err := p.limiter.Check(ctx, event.Feed.ID, event.ArticleDayLimit, medium.ID, mediumLimits(medium))
	if err != nil {
		p.failPair(ctx, event.Feed.ID, medium.ID, article.IDHash(), err, stats)
		return
	}
	if !verdict.Allowed {
		stats.RateLimited++
		status := domain.StatusMediumRateLimitedByUser
		if verdict.FeedLimited {
			status = domain.StatusRateLimited
		}
		if err := p.deliverer.RecordGateRejection(ctx, event.Feed.ID, medium.ID, article.IDHash(), status); err != nil {
			p.logger.Error("failed to record rate-limit rejection",
				"feed_id", event.Feed.ID, "medium_id", medium.ID, "error", err)
		}
		return
	}

	if err := p.limiter.Commit(ctx, event.Feed.ID, event.ArticleDayLimit, medium.ID, mediumLimits(medium)); err != nil {
		p.failPair(ctx, event.Feed.ID, medium.ID, article.IDHash(), err, stats)
		return
	}

	records, err := p.deliverer.Deliver(ctx, event.Feed.ID, article, medium)
	if err != nil {
		p.logger.Error("delivery failed",
			"feed_id", event.Feed.ID,
			"medium_id", medium.ID,
			"article_id_hash", article.IDHash(),
			"error", err,
		)
		stats.Failed++
		if len(records) == 0 {
			// Nothing durable exists yet for this pair; the failed
			// enqueue path marks its own record in place.
			if recErr := p.deliverer.RecordFailure(ctx, event.Feed.ID, medium.ID, article.IDHash(), err); recErr != nil {
				p.logger.Error("failed to record delivery failure", "error", recErr)
			}
		}
		return
	}

	stats.Delivered++
}

func (p *Pipeline) failPair(ctx context.Context, feedID, mediumID, articleIDHash string, cause error, stats *domain.EventStats) {
	stats.Failed++
	p.logger.Error("pair processing failed",
		"feed_id", feedID, "medium_id", mediumID, "article_id_hash", articleIDHash, "error", cause)
	if err := p.deliverer.RecordFailure(ctx, feedID, mediumID, articleIDHash, cause); err != nil {
		p.logger.Error("failed to record pair failure", "error", err)
	}
}

// resolveIdentities stamps id and idHash on every article of the
// batch. Never fails; degenerate batches fall back to a best-effort,
// possibly non-unique id.
func resolveIdentities(articles []domain.Article) {
	resolver := identity.NewResolver()
	for _, article := range articles {
		resolver.Record(article)
	}
	resolver.Resolve(articles)
}

func mediumLimits(medium domain.Medium) []ratelimit.Limit {
	limits := make([]ratelimit.Limit, 0, len(medium.RateLimits))
	for _, rl := range medium.RateLimits {
		limits = append(limits, ratelimit.Limit{Limit: rl.Limit, WindowSeconds: rl.TimeWindowSeconds})
	}
	return limits
}
