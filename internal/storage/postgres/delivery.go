package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"feedrelay/internal/domain"
)

// DeliveryRecordStore persists the per-part delivery audit rows.
// Records are insert-only except for the single terminal status
// update; this pipeline never deletes them.
type DeliveryRecordStore struct {
	db *sqlx.DB
}

func NewDeliveryRecordStore(db *sqlx.DB) *DeliveryRecordStore {
	return &DeliveryRecordStore{db: db}
}

func (s *DeliveryRecordStore) InsertBatch(ctx context.Context, records []domain.DeliveryRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO delivery_records (
			id, feed_id, medium_id, article_id_hash, status,
			content_type, parent_id, error_code, internal_message, created_at
		) VALUES (
			:id, :feed_id, :medium_id, :article_id_hash, :status,
			:content_type, :parent_id, :error_code, :internal_message, :created_at
		)`

	_, err := sqlx.NamedExecContext(ctx, getExecutor(ctx, s.db), query, records)
	return err
}

// UpdateStatusOnce applies a terminal status to a pending record. The
// status guard in the WHERE clause makes duplicate or late results a
// no-op instead of an error: the first terminal status wins.
func (s *DeliveryRecordStore) UpdateStatusOnce(ctx context.Context, id string, status domain.DeliveryStatus, errorCode *domain.DeliveryErrorCode, internalMessage *string) (bool, error) {
	query := `
		UPDATE delivery_records
		SET status = $2, error_code = $3, internal_message = $4
		WHERE id = $1 AND status = $5`

	res, err := getExecutor(ctx, s.db).ExecContext(ctx, query,
		id, status, errorCode, internalMessage, domain.StatusPendingDelivery)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *DeliveryRecordStore) CountByStatusSince(ctx context.Context, feedID string, status domain.DeliveryStatus, since time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM delivery_records
		WHERE feed_id = $1 AND status = $2 AND created_at >= $3`

	err := sqlx.GetContext(ctx, getExecutor(ctx, s.db), &count, query, feedID, status, since)
	return count, err
}

// Get fetches one record by delivery id.
func (s *DeliveryRecordStore) Get(ctx context.Context, id string) (*domain.DeliveryRecord, error) {
	var record domain.DeliveryRecord
	query := `
		SELECT id, feed_id, medium_id, article_id_hash, status,
			content_type, parent_id, error_code, internal_message, created_at
		FROM delivery_records
		WHERE id = $1`

	err := sqlx.GetContext(ctx, getExecutor(ctx, s.db), &record, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
