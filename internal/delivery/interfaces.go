package delivery

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"feedrelay/internal/domain"
)

// Part is one transport-sized piece of a rendered message.
type Part struct {
	Content string `json:"content"`
}

// Metadata travels with every enqueued part so the transport and the
// result callback can be joined back to the delivery record. The
// delivery id doubles as the downstream idempotency key.
type Metadata struct {
	DeliveryID    string  `json:"deliveryId"`
	ArticleIDHash string  `json:"articleIdHash"`
	FeedID        string  `json:"feedId"`
	MediumID      string  `json:"mediumId"`
	ParentID      *string `json:"parentId,omitempty"`
}

// Enqueuer hands a part to the delivery transport. Fire-and-forget,
// at-least-once: confirmation arrives later as a Result.
type Enqueuer interface {
	Enqueue(ctx context.Context, part Part, meta Metadata) error
}

// Renderer produces the message body for one (article, medium) pair.
// Rendering beyond a plain default is an external concern.
type Renderer interface {
	Render(article domain.Article, medium domain.Medium) (string, error)
}

// RecordStore persists delivery audit rows.
type RecordStore interface {
	InsertBatch(ctx context.Context, records []domain.DeliveryRecord) error

	// UpdateStatusOnce sets the terminal status of a pending record
	// and reports whether anything changed. Updating a record that is
	// already terminal, or unknown, changes nothing and is not an
	// error.
	UpdateStatusOnce(ctx context.Context, id string, status domain.DeliveryStatus, errorCode *domain.DeliveryErrorCode, internalMessage *string) (bool, error)

	// CountByStatusSince is the operator-facing health signal: how
	// many records of a feed reached the given status in a window.
	CountByStatusSince(ctx context.Context, feedID string, status domain.DeliveryStatus, since time.Time) (int, error)
}
