// Package delivery turns a gated (article, medium) pair into durable,
// idempotent delivery attempts against the external transport.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"feedrelay/internal/domain"
)

// Orchestrator renders a message, fragments it into transport-sized
// parts, records one DeliveryRecord per part and enqueues each part
// exactly once. Enqueueing is fire-and-forget; terminal statuses
// arrive later through the result handler.
type Orchestrator struct {
	renderer Renderer
	enqueuer Enqueuer
	records  RecordStore
	maxChars int
	logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewOrchestrator(renderer Renderer, enqueuer Enqueuer, records RecordStore, maxPartChars int, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		renderer: renderer,
		enqueuer: enqueuer,
		records:  records,
		maxChars: maxPartChars,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Deliver processes one pair that already passed the filter and
// rate-limit gates. Records are inserted before any enqueue so a
// result callback can never reference an unknown delivery id. The
// first part is the group head; later parts link to it via ParentID.
func (o *Orchestrator) Deliver(ctx context.Context, feedID string, article domain.Article, medium domain.Medium) ([]domain.DeliveryRecord, error) {
	content, err := o.renderer.Render(article, medium)
	if err != nil {
		return nil, fmt.Errorf("render article %s for medium %s: %w", article.IDHash(), medium.ID, err)
	}

	parts := SplitMessage(content, o.maxChars)
	now := o.now().UTC()

	records := make([]domain.DeliveryRecord, len(parts))
	parentID := o.newID()
	for i := range parts {
		id := parentID
		var parent *string
		if i > 0 {
			id = o.newID()
			parent = &parentID
		}
		records[i] = domain.DeliveryRecord{
			ID:            id,
			FeedID:        feedID,
			MediumID:      medium.ID,
			ArticleIDHash: article.IDHash(),
			Status:        domain.StatusPendingDelivery,
			ContentType:   domain.ContentTypeArticleMessage,
			ParentID:      parent,
			CreatedAt:     now,
		}
	}

	if err := o.records.InsertBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("insert delivery records: %w", err)
	}

	for i, part := range parts {
		meta := Metadata{
			DeliveryID:    records[i].ID,
			ArticleIDHash: article.IDHash(),
			FeedID:        feedID,
			MediumID:      medium.ID,
			ParentID:      records[i].ParentID,
		}
		if err := o.enqueuer.Enqueue(ctx, Part{Content: part}, meta); err != nil {
			// The record exists already; fail it in place rather than
			// leaving it pending forever.
			o.failRecord(ctx, records[i].ID, err)
			return records, fmt.Errorf("enqueue part %d/%d: %w", i+1, len(parts), err)
		}
	}

	o.logger.Debug("enqueued article delivery",
		"feed_id", feedID,
		"medium_id", medium.ID,
		"article_id_hash", article.IDHash(),
		"parts", len(parts),
	)

	return records, nil
}

// RecordGateRejection writes the terminal record for a delivery that
// never reached the transport: filtered out or rate limited. These
// are expected, high-volume outcomes and cheap to record in bulk.
func (o *Orchestrator) RecordGateRejection(ctx context.Context, feedID, mediumID, articleIDHash string, status domain.DeliveryStatus) error {
	record := domain.DeliveryRecord{
		ID:            o.newID(),
		FeedID:        feedID,
		MediumID:      mediumID,
		ArticleIDHash: articleIDHash,
		Status:        status,
		ContentType:   domain.ContentTypeArticleMessage,
		CreatedAt:     o.now().UTC(),
	}
	if err := o.records.InsertBatch(ctx, []domain.DeliveryRecord{record}); err != nil {
		return fmt.Errorf("record gate rejection: %w", err)
	}
	return nil
}

// RecordFailure writes a terminal Failed record for a pair that
// errored before any part could be enqueued.
func (o *Orchestrator) RecordFailure(ctx context.Context, feedID, mediumID, articleIDHash string, cause error) error {
	code := domain.ErrorCodeInternal
	msg := cause.Error()
	record := domain.DeliveryRecord{
		ID:              o.newID(),
		FeedID:          feedID,
		MediumID:        mediumID,
		ArticleIDHash:   articleIDHash,
		Status:          domain.StatusFailed,
		ContentType:     domain.ContentTypeArticleMessage,
		ErrorCode:       &code,
		InternalMessage: &msg,
		CreatedAt:       o.now().UTC(),
	}
	if err := o.records.InsertBatch(ctx, []domain.DeliveryRecord{record}); err != nil {
		return fmt.Errorf("record delivery failure: %w", err)
	}
	return nil
}

func (o *Orchestrator) failRecord(ctx context.Context, id string, cause error) {
	code := domain.ErrorCodeInternal
	msg := cause.Error()
	if _, err := o.records.UpdateStatusOnce(ctx, id, domain.StatusFailed, &code, &msg); err != nil {
		o.logger.Error("failed to mark delivery record failed", "delivery_id", id, "error", err)
	}
}
