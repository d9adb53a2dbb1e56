package service

import (
	"context"

	"feedrelay/internal/domain"
	"feedrelay/internal/filter"
)

// MediumPreview is the predicted outcome of one (article, medium)
// pair, with the stage that would stop it.
type MediumPreview struct {
	MediumID        string                `json:"mediumId"`
	FilterPassed    bool                  `json:"filterPassed"`
	RateLimitPassed bool                  `json:"rateLimitPassed"`
	Status          domain.DeliveryStatus `json:"status"`
}

// ArticlePreview is the per-article diagnosis: identity, comparison
// verdict and the per-medium gate verdicts.
type ArticlePreview struct {
	ID      string          `json:"id"`
	IDHash  string          `json:"idHash"`
	New     bool            `json:"new"`
	Blocked bool            `json:"blocked"`
	Mediums []MediumPreview `json:"mediums,omitempty"`
}

// PreviewResult is the response of the diagnostic API.
type PreviewResult struct {
	FeedID   string           `json:"feedId"`
	Articles []ArticlePreview `json:"articles"`
}

// Preview runs the pipeline in simulation: same identity, comparison,
// filter and rate-limit code paths, but against a read-only
// comparison engine, with rate limits peeked instead of consumed, and
// without inserting records or enqueueing anything. Operator tooling
// built on this cannot drift from what ProcessEvent would do.
func (p *Pipeline) Preview(ctx context.Context, event domain.FeedEvent) (*PreviewResult, error) {
	resolveIdentities(event.Articles)

	result, err := p.previewEngine.NewArticles(ctx, event.Feed, event.Articles)
	if err != nil {
		return nil, err
	}

	deliverable := make(map[string]struct{}, len(result.ToDeliver))
	for _, article := range result.ToDeliver {
		deliverable[article.IDHash()] = struct{}{}
	}
	blocked := make(map[string]struct{}, len(result.Blocked))
	for _, article := range result.Blocked {
		blocked[article.IDHash()] = struct{}{}
	}

	preview := &PreviewResult{FeedID: event.Feed.ID}
	for _, article := range event.Articles {
		ap := ArticlePreview{
			ID:     article.ID(),
			IDHash: article.IDHash(),
		}
		_, ap.New = deliverable[article.IDHash()]
		_, ap.Blocked = blocked[article.IDHash()]

		if ap.New {
			for _, medium := range event.Mediums {
				mp, err := p.previewPair(ctx, event, article, medium)
				if err != nil {
					return nil, err
				}
				ap.Mediums = append(ap.Mediums, mp)
			}
		}

		preview.Articles = append(preview.Articles, ap)
	}

	return preview, nil
}

func (p *Pipeline) previewPair(ctx context.Context, event domain.FeedEvent, article domain.Article, medium domain.Medium) (MediumPreview, error) {
	mp := MediumPreview{MediumID: medium.ID}

	mp.FilterPassed = filter.Evaluate(medium.Filters, article)
	if !mp.FilterPassed {
		mp.Status = domain.StatusFilteredOut
		return mp, nil
	}

	verdict, err := p.limiter.Check(ctx, event.Feed.ID, event.ArticleDayLimit, medium.ID, mediumLimits(medium))
	if err != nil {
		return mp, err
	}
	mp.RateLimitPassed = verdict.Allowed
	switch {
	case verdict.Allowed:
		mp.Status = domain.StatusPendingDelivery
	case verdict.FeedLimited:
		mp.Status = domain.StatusRateLimited
	default:
		mp.Status = domain.StatusMediumRateLimitedByUser
	}

	return mp, nil
}
