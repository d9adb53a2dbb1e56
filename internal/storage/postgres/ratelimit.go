package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// CounterStore holds the fixed-window rate-limit counters. Consume is
// a single conditional upsert so concurrent deliveries racing on the
// same subject cannot corrupt a counter; the database is the only
// source of truth (no in-process caching across events).
type CounterStore struct {
	db *sqlx.DB

	// now is swapped out by tests to advance windows.
	now func() time.Time
}

func NewCounterStore(db *sqlx.DB) *CounterStore {
	return &CounterStore{db: db, now: time.Now}
}

func (s *CounterStore) Consume(ctx context.Context, subjectID string, windowSeconds int, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}

	now := s.now().UTC()
	expiredBefore := now.Add(-time.Duration(windowSeconds) * time.Second)

	// Insert a fresh window, or in one atomic statement reset an
	// elapsed window to count 1, or increment while below the limit.
	// The DO UPDATE WHERE clause turns an exhausted window into zero
	// returned rows, which is the denial signal.
	query := `
		WITH consumed AS (
			INSERT INTO rate_limit_windows (subject_id, window_seconds, count, window_started_at)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (subject_id, window_seconds) DO UPDATE SET
				count = CASE
					WHEN rate_limit_windows.window_started_at <= $4 THEN 1
					ELSE rate_limit_windows.count + 1
				END,
				window_started_at = CASE
					WHEN rate_limit_windows.window_started_at <= $4 THEN $3
					ELSE rate_limit_windows.window_started_at
				END
			WHERE rate_limit_windows.window_started_at <= $4
				OR rate_limit_windows.count < $5
			RETURNING 1
		)
		SELECT COUNT(*) FROM consumed`

	var rows int
	err := sqlx.GetContext(ctx, getExecutor(ctx, s.db), &rows, query,
		subjectID, windowSeconds, now, expiredBefore, limit)
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (s *CounterStore) Peek(ctx context.Context, subjectID string, windowSeconds int, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}

	var window struct {
		Count           int       `db:"count"`
		WindowStartedAt time.Time `db:"window_started_at"`
	}
	query := `
		SELECT count, window_started_at
		FROM rate_limit_windows
		WHERE subject_id = $1 AND window_seconds = $2`

	err := sqlx.GetContext(ctx, getExecutor(ctx, s.db), &window, query, subjectID, windowSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	now := s.now().UTC()
	if !window.WindowStartedAt.Add(time.Duration(windowSeconds) * time.Second).After(now) {
		return true, nil
	}
	return window.Count < limit, nil
}

func (s *CounterStore) Clear(ctx context.Context, subjectID string) error {
	_, err := getExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM rate_limit_windows WHERE subject_id = $1", subjectID)
	return err
}
