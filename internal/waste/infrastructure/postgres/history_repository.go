package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	waste "cleanbin-cloud/internal/waste/domain"
)

const defaultHistoryTable = "bin_status_history"

// StatusHistoryRepository is a Postgres implementation for the bin audit trail.
type StatusHistoryRepository struct {
	db    DBTX
	table string
}

// NewStatusHistoryRepository constructs a repository.
func NewStatusHistoryRepository(db DBTX, opts ...HistoryOption) *StatusHistoryRepository {
	repo := &StatusHistoryRepository{db: db, table: defaultHistoryTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// HistoryOption configures the repository.
type HistoryOption func(*StatusHistoryRepository)

// WithHistoryTable overrides the default table name.
func WithHistoryTable(table string) HistoryOption {
	return func(repo *StatusHistoryRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Append inserts one history record. Records are never updated or deleted.
func (r *StatusHistoryRepository) Append(ctx context.Context, change *waste.StatusChange) error {
	if r == nil || r.db == nil {
		return errors.New("history repo: nil db")
	}
	if change == nil {
		return errors.New("history repo: nil change")
	}
	if change.BinID == "" {
		return errors.New("history repo: empty bin id")
	}
	if !change.Status.Valid() {
		return errors.New("history repo: invalid status")
	}
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, bin_id, status, created_at)
VALUES ($1, $2, $3, $4)`, r.table)
	_, err := r.db.ExecContext(ctx, query, change.ID, change.BinID, string(change.Status), change.CreatedAt)
	return err
}

// ListByBin loads a bin's history newest-first.
func (r *StatusHistoryRepository) ListByBin(ctx context.Context, binID string) ([]waste.StatusChange, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("history repo: nil db")
	}
	if binID == "" {
		return nil, errors.New("history repo: empty bin id")
	}

	query := fmt.Sprintf(`
SELECT id, bin_id, status, created_at
FROM %s
WHERE bin_id = $1
ORDER BY created_at DESC, id DESC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, binID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []waste.StatusChange
	for rows.Next() {
		var (
			change waste.StatusChange
			status string
		)
		if err := rows.Scan(&change.ID, &change.BinID, &status, &change.CreatedAt); err != nil {
			return nil, err
		}
		change.Status = waste.Status(status)
		change.CreatedAt = change.CreatedAt.UTC()
		changes = append(changes, change)
	}
	return changes, rows.Err()
}
