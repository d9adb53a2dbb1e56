package domain

import "time"

// DeliveryStatus is the state of one physical message part.
type DeliveryStatus string

const (
	// PendingDelivery is the only non-terminal status: the part has
	// been enqueued and awaits a transport acknowledgement.
	StatusPendingDelivery DeliveryStatus = "pending-delivery"

	StatusSent                    DeliveryStatus = "sent"
	StatusFailed                  DeliveryStatus = "failed"
	StatusRejected                DeliveryStatus = "rejected"
	StatusFilteredOut             DeliveryStatus = "filtered-out"
	StatusRateLimited             DeliveryStatus = "rate-limited"
	StatusMediumRateLimitedByUser DeliveryStatus = "medium-rate-limited-by-user"
)

// Terminal reports whether no further transition is allowed from s.
func (s DeliveryStatus) Terminal() bool {
	return s != StatusPendingDelivery
}

// DeliveryErrorCode classifies Failed and Rejected outcomes so
// user-actionable transport rejections can be told apart from
// internal failures.
type DeliveryErrorCode string

const (
	ErrorCodeInternal          DeliveryErrorCode = "internal-error"
	ErrorCodeBadRequestPayload DeliveryErrorCode = "bad-request-payload"
	ErrorCodeMissingPermission DeliveryErrorCode = "missing-permission"
	ErrorCodeUnknown           DeliveryErrorCode = "unknown"
)

// DeliveryContentType identifies what kind of payload a record covers.
type DeliveryContentType string

const ContentTypeArticleMessage DeliveryContentType = "article-message"

// DeliveryRecord is the durable audit row for one physical message
// part. The ID is generated by the orchestrator, not the transport, so
// re-drives of the same (article, medium) pair stay idempotent
// downstream. ParentID links split-message parts to the first part of
// the group; the head of a group has a nil ParentID. Immutable except
// for the terminal status fields, which are set exactly once by the
// delivery-result callback.
type DeliveryRecord struct {
	ID              string              `db:"id"`
	FeedID          string              `db:"feed_id"`
	MediumID        string              `db:"medium_id"`
	ArticleIDHash   string              `db:"article_id_hash"`
	Status          DeliveryStatus      `db:"status"`
	ContentType     DeliveryContentType `db:"content_type"`
	ParentID        *string             `db:"parent_id"`
	ErrorCode       *DeliveryErrorCode  `db:"error_code"`
	InternalMessage *string             `db:"internal_message"`
	CreatedAt       time.Time           `db:"created_at"`
}
