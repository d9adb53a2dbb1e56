package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"feedrelay/internal/domain"
)

// Result is the transport's asynchronous acknowledgement for one
// enqueued part. Results may arrive out of order relative to enqueue
// order and may be duplicated (at-least-once transport).
type Result struct {
	DeliveryID string `json:"deliveryId"`
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body,omitempty"`
	// Error carries transport-internal failures that never produced a
	// status code.
	Error string `json:"error,omitempty"`
}

// Classify maps a transport result onto the record state machine:
// 2xx acknowledgements become Sent, 4xx content rejections become
// Rejected with a user-actionable error code, anything else is an
// internal Failed. The internal message is operator-facing only and
// never shown to end users verbatim.
func Classify(result Result) (domain.DeliveryStatus, *domain.DeliveryErrorCode, *string) {
	if result.Error != "" {
		code := domain.ErrorCodeInternal
		msg := result.Error
		return domain.StatusFailed, &code, &msg
	}

	switch {
	case result.StatusCode >= 200 && result.StatusCode < 300:
		return domain.StatusSent, nil, nil
	case result.StatusCode >= 400 && result.StatusCode < 500:
		code := rejectionCode(result.StatusCode)
		msg := fmt.Sprintf("transport rejected with status %d: %s", result.StatusCode, result.Body)
		return domain.StatusRejected, &code, &msg
	default:
		code := domain.ErrorCodeInternal
		msg := fmt.Sprintf("transport returned status %d: %s", result.StatusCode, result.Body)
		return domain.StatusFailed, &code, &msg
	}
}

func rejectionCode(statusCode int) domain.DeliveryErrorCode {
	switch statusCode {
	case http.StatusBadRequest:
		return domain.ErrorCodeBadRequestPayload
	case http.StatusForbidden, http.StatusUnauthorized:
		return domain.ErrorCodeMissingPermission
	default:
		return domain.ErrorCodeUnknown
	}
}

// ResultHandler applies terminal statuses to delivery records. It is
// the inbound half of the fire-and-forget pair: the orchestrator
// enqueues and returns, this handler consumes the confirmations.
type ResultHandler struct {
	records RecordStore
	logger  *slog.Logger
}

func NewResultHandler(records RecordStore, logger *slog.Logger) *ResultHandler {
	return &ResultHandler{records: records, logger: logger}
}

// Apply transitions the matching record. Idempotent: a duplicate
// result, or a result for an already-terminal record, is a no-op.
func (h *ResultHandler) Apply(ctx context.Context, result Result) error {
	status, code, msg := Classify(result)

	updated, err := h.records.UpdateStatusOnce(ctx, result.DeliveryID, status, code, msg)
	if err != nil {
		return fmt.Errorf("update delivery %s to %s: %w", result.DeliveryID, status, err)
	}
	if !updated {
		h.logger.Debug("ignored duplicate or stale delivery result",
			"delivery_id", result.DeliveryID,
			"status", status,
		)
		return nil
	}

	switch status {
	case domain.StatusFailed:
		h.logger.Error("delivery failed",
			"delivery_id", result.DeliveryID,
			"error_code", *code,
			"internal_message", *msg,
		)
	case domain.StatusRejected:
		h.logger.Warn("delivery rejected by transport",
			"delivery_id", result.DeliveryID,
			"error_code", *code,
		)
	default:
		h.logger.Debug("delivery confirmed", "delivery_id", result.DeliveryID)
	}

	return nil
}
