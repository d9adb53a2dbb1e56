// Package postgres holds the sqlx-backed stores for comparison
// history, rate-limit counters and delivery records.
package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"feedrelay/internal/comparison"
	"feedrelay/internal/domain"
)

// ComparisonStore persists which field values a feed has already
// seen. Rows are append-only; range deletion for retention belongs to
// an external job, except for whole-feed purges on feed deletion.
type ComparisonStore struct {
	db *sqlx.DB
}

func NewComparisonStore(db *sqlx.DB) *ComparisonStore {
	return &ComparisonStore{db: db}
}

func (s *ComparisonStore) FilterSeenIDHashes(ctx context.Context, feedID string, idHashes []string) (map[string]struct{}, error) {
	seen := make(map[string]struct{})
	if len(idHashes) == 0 {
		return seen, nil
	}

	query := `
		SELECT DISTINCT value_hash
		FROM comparison_records
		WHERE feed_id = $1 AND field_name = $2 AND value_hash = ANY($3)`

	var hashes []string
	err := sqlx.SelectContext(ctx, getExecutor(ctx, s.db), &hashes, query, feedID, domain.FieldID, pq.Array(idHashes))
	if err != nil {
		return nil, err
	}

	for _, hash := range hashes {
		seen[hash] = struct{}{}
	}
	return seen, nil
}

func (s *ComparisonStore) SomeFieldsExist(ctx context.Context, feedID string, fields []comparison.FieldHash) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}

	var sb strings.Builder
	sb.WriteString(`SELECT EXISTS (
		SELECT 1 FROM comparison_records
		WHERE feed_id = $1 AND (field_name, value_hash) IN (`)
	args := make([]interface{}, 0, len(fields)*2+1)
	args = append(args, feedID)

	for i, field := range fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($")
		sb.WriteString(strconv.Itoa(len(args) + 1))
		sb.WriteString(", $")
		sb.WriteString(strconv.Itoa(len(args) + 2))
		sb.WriteString(")")
		args = append(args, field.Name, field.ValueHash)
	}
	sb.WriteString("))")

	var exists bool
	err := sqlx.GetContext(ctx, getExecutor(ctx, s.db), &exists, sb.String(), args...)
	return exists, err
}

func (s *ComparisonStore) StoreFields(ctx context.Context, feedID string, fields []comparison.FieldHash) error {
	if len(fields) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO comparison_records (feed_id, field_name, value_hash) VALUES ")
	args := make([]interface{}, 0, len(fields)*2+1)
	args = append(args, feedID)

	for i, field := range fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($1, $")
		sb.WriteString(strconv.Itoa(len(args) + 1))
		sb.WriteString(", $")
		sb.WriteString(strconv.Itoa(len(args) + 2))
		sb.WriteString(")")
		args = append(args, field.Name, field.ValueHash)
	}
	sb.WriteString(" ON CONFLICT DO NOTHING")

	_, err := getExecutor(ctx, s.db).ExecContext(ctx, sb.String(), args...)
	return err
}

// ClearFeed drops every comparison row of a feed. Used when a feed is
// deleted upstream.
func (s *ComparisonStore) ClearFeed(ctx context.Context, feedID string) error {
	_, err := getExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM comparison_records WHERE feed_id = $1", feedID)
	return err
}
