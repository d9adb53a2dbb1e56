// Package comparison decides which articles of a batch are new for a
// feed, using a historical field-value store.
package comparison

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"feedrelay/internal/domain"
	"feedrelay/internal/identity"
)

// FieldHash is one (field name, hashed value) pair. Values are stored
// and looked up only as hashes.
type FieldHash struct {
	Name      string
	ValueHash string
}

// Store is the historical comparison store. All operations are scoped
// by feed id so identical field values on unrelated feeds never
// collide. Rows are append-only; retention is an external job.
type Store interface {
	// FilterSeenIDHashes returns the subset of idHashes already
	// recorded for the feed.
	FilterSeenIDHashes(ctx context.Context, feedID string, idHashes []string) (map[string]struct{}, error)

	// SomeFieldsExist reports whether any of the given field/value
	// pairs has been recorded for the feed.
	SomeFieldsExist(ctx context.Context, feedID string, fields []FieldHash) (bool, error)

	// StoreFields records field/value pairs for the feed. Duplicate
	// pairs are ignored.
	StoreFields(ctx context.Context, feedID string, fields []FieldHash) error
}

// Result partitions one batch.
type Result struct {
	// ToDeliver are the articles that should proceed to the delivery
	// gates, in batch order.
	ToDeliver []domain.Article
	// Blocked are first-seen articles suppressed by a blocking
	// comparison field.
	Blocked []domain.Article
}

// Engine applies a feed's comparison configuration to a batch. It
// performs no locking: the upstream scheduler guarantees at most one
// in-flight event per feed.
type Engine struct {
	store  Store
	logger *slog.Logger
}

func NewEngine(store Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// NewArticles selects the deliverable subset of a batch.
//
// An article whose id is unseen for the feed is new, unless any of
// the feed's blocking comparison fields carries a previously seen
// value. An article whose id was already seen is re-delivered only if
// any passing comparison field carries a value never seen before (the
// field changed). With neither list configured this degenerates to
// first-seen-ever semantics on the resolved id alone.
//
// Every id hash and every value of every configured comparison field
// is recorded afterwards for the whole batch, once per resolution,
// regardless of whether any article is ultimately delivered.
func (e *Engine) NewArticles(ctx context.Context, feed domain.Feed, articles []domain.Article) (Result, error) {
	var result Result
	if len(articles) == 0 {
		return result, nil
	}

	idHashes := lo.Map(articles, func(a domain.Article, _ int) string {
		return a.IDHash()
	})
	seenIDs, err := e.store.FilterSeenIDHashes(ctx, feed.ID, idHashes)
	if err != nil {
		return result, fmt.Errorf("filter seen ids: %w", err)
	}

	for _, article := range articles {
		_, idSeen := seenIDs[article.IDHash()]
		if !idSeen {
			blocked, err := e.anyFieldSeen(ctx, feed.ID, article, feed.BlockingComparisons)
			if err != nil {
				return result, fmt.Errorf("blocking comparisons: %w", err)
			}
			if blocked {
				result.Blocked = append(result.Blocked, article)
			} else {
				result.ToDeliver = append(result.ToDeliver, article)
			}
			continue
		}

		if len(feed.PassingComparisons) == 0 {
			continue
		}
		allSeen, err := e.allFieldsSeen(ctx, feed.ID, article, feed.PassingComparisons)
		if err != nil {
			return result, fmt.Errorf("passing comparisons: %w", err)
		}
		if !allSeen {
			result.ToDeliver = append(result.ToDeliver, article)
		}
	}

	if err := e.recordBatch(ctx, feed, articles); err != nil {
		return result, fmt.Errorf("record comparisons: %w", err)
	}

	e.logger.Debug("comparison decided batch",
		"feed_id", feed.ID,
		"articles", len(articles),
		"to_deliver", len(result.ToDeliver),
		"blocked", len(result.Blocked),
	)

	return result, nil
}

func (e *Engine) anyFieldSeen(ctx context.Context, feedID string, article domain.Article, fields []string) (bool, error) {
	queries := fieldHashes(article, fields)
	if len(queries) == 0 {
		return false, nil
	}
	return e.store.SomeFieldsExist(ctx, feedID, queries)
}

func (e *Engine) allFieldsSeen(ctx context.Context, feedID string, article domain.Article, fields []string) (bool, error) {
	for _, query := range fieldHashes(article, fields) {
		seen, err := e.store.SomeFieldsExist(ctx, feedID, []FieldHash{query})
		if err != nil {
			return false, err
		}
		if !seen {
			return false, nil
		}
	}
	return true, nil
}

func (e *Engine) recordBatch(ctx context.Context, feed domain.Feed, articles []domain.Article) error {
	comparisonFields := lo.Uniq(append(
		append([]string{}, feed.BlockingComparisons...),
		feed.PassingComparisons...,
	))

	var records []FieldHash
	for _, article := range articles {
		records = append(records, FieldHash{
			Name:      domain.FieldID,
			ValueHash: article.IDHash(),
		})
		records = append(records, fieldHashes(article, comparisonFields)...)
	}

	return e.store.StoreFields(ctx, feed.ID, records)
}

// fieldHashes hashes an article's values for the named fields,
// skipping empty values.
func fieldHashes(article domain.Article, fields []string) []FieldHash {
	var hashes []FieldHash
	for _, name := range fields {
		value := article.Field(name)
		if value == "" {
			continue
		}
		hashes = append(hashes, FieldHash{
			Name:      name,
			ValueHash: identity.HashValue(value),
		})
	}
	return hashes
}
