package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	waste "cleanbin-cloud/internal/waste/domain"
)

const defaultBinsTable = "bins"

// BinRepository is a Postgres implementation for bins.
type BinRepository struct {
	db    DBTX
	table string
}

// NewBinRepository constructs a repository.
func NewBinRepository(db DBTX, opts ...BinOption) *BinRepository {
	repo := &BinRepository{db: db, table: defaultBinsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// BinOption configures the repository.
type BinOption func(*BinRepository)

// WithBinTable overrides the default table name.
func WithBinTable(table string) BinOption {
	return func(repo *BinRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Create inserts a new bin. Unique violations on bin_id or sensor_id surface
// as domain duplicate errors for the caller to recover from.
func (r *BinRepository) Create(ctx context.Context, bin *waste.Bin) error {
	if r == nil || r.db == nil {
		return errors.New("bin repo: nil db")
	}
	if bin == nil {
		return errors.New("bin repo: nil bin")
	}
	if err := bin.Validate(); err != nil {
		return err
	}
	if bin.LastUpdated.IsZero() {
		bin.LastUpdated = time.Now().UTC()
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, bin_id, sensor_id, location_id, status, last_updated, phone_number)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))`, r.table)

	if _, err := r.db.ExecContext(ctx, query,
		bin.ID, bin.BinID, bin.SensorID, bin.LocationID, string(bin.Status), bin.LastUpdated, bin.PhoneNumber,
	); err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

// Get loads a bin by id.
func (r *BinRepository) Get(ctx context.Context, id string) (*waste.Bin, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("bin repo: nil db")
	}
	if id == "" {
		return nil, errors.New("bin repo: empty id")
	}
	return r.scanOne(ctx, fmt.Sprintf(`
%s
WHERE id = $1
LIMIT 1`, r.selectClause()), id)
}

// FindBySensorID resolves a bin by its sensor natural key.
func (r *BinRepository) FindBySensorID(ctx context.Context, sensorID string) (*waste.Bin, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("bin repo: nil db")
	}
	if sensorID == "" {
		return nil, errors.New("bin repo: empty sensor id")
	}
	return r.scanOne(ctx, fmt.Sprintf(`
%s
WHERE sensor_id = $1
LIMIT 1`, r.selectClause()), sensorID)
}

// List loads bins matching the filter.
func (r *BinRepository) List(ctx context.Context, filter waste.BinFilter) ([]waste.Bin, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("bin repo: nil db")
	}

	query := r.selectClause()
	var (
		conds []string
		args  []any
	)
	if filter.Status.Valid() {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.LocationID != "" {
		args = append(args, filter.LocationID)
		conds = append(conds, fmt.Sprintf("location_id = $%d", len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			query += "\nWHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	// Numeric suffixes sort as numbers so guliston-2 lists before
	// guliston-10; non-numeric (uuid fallback) suffixes sort last.
	query += `
ORDER BY substring(bin_id FROM '^(.*)-'),
         (substring(bin_id FROM '-(\d+)$'))::int NULLS LAST,
         bin_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bins []waste.Bin
	for rows.Next() {
		bin, err := scanBin(rows)
		if err != nil {
			return nil, err
		}
		bins = append(bins, *bin)
	}
	return bins, rows.Err()
}

// UpdateStatus sets a bin's status and last_updated timestamp.
func (r *BinRepository) UpdateStatus(ctx context.Context, id string, status waste.Status, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("bin repo: nil db")
	}
	if id == "" {
		return errors.New("bin repo: empty id")
	}
	if !status.Valid() {
		return errors.New("bin repo: invalid status")
	}

	query := fmt.Sprintf(`
UPDATE %s
SET status = $1, last_updated = $2
WHERE id = $3`, r.table)
	_, err := r.db.ExecContext(ctx, query, string(status), at.UTC(), id)
	return err
}

// Count returns the total number of bins.
func (r *BinRepository) Count(ctx context.Context) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("bin repo: nil db")
	}
	var count int
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table)).Scan(&count)
	return count, err
}

// Stats returns system-wide bin counts.
func (r *BinRepository) Stats(ctx context.Context) (waste.BinStats, error) {
	if r == nil || r.db == nil {
		return waste.BinStats{}, errors.New("bin repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $1)
FROM %s`, r.table)

	var stats waste.BinStats
	err := r.db.QueryRowContext(ctx, query, string(waste.StatusFull)).Scan(&stats.Total, &stats.Filled)
	return stats, err
}

// StatsByDistrict returns bin counts under one district's transitive locations.
func (r *BinRepository) StatsByDistrict(ctx context.Context, districtID string) (waste.BinStats, error) {
	if r == nil || r.db == nil {
		return waste.BinStats{}, errors.New("bin repo: nil db")
	}
	if districtID == "" {
		return waste.BinStats{}, errors.New("bin repo: empty district id")
	}

	query := fmt.Sprintf(`
SELECT COUNT(*), COUNT(*) FILTER (WHERE b.status = $1)
FROM %s b
JOIN locations l ON l.id = b.location_id
JOIN neighborhoods n ON n.id = l.neighborhood_id
WHERE n.district_id = $2`, r.table)

	var stats waste.BinStats
	err := r.db.QueryRowContext(ctx, query, string(waste.StatusFull), districtID).Scan(&stats.Total, &stats.Filled)
	return stats, err
}

func (r *BinRepository) selectClause() string {
	return fmt.Sprintf(`
SELECT id, bin_id, sensor_id, location_id, status, last_updated, COALESCE(phone_number, '')
FROM %s`, r.table)
}

func (r *BinRepository) scanOne(ctx context.Context, query string, args ...any) (*waste.Bin, error) {
	bin, err := scanBin(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return bin, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBin(row rowScanner) (*waste.Bin, error) {
	var (
		bin    waste.Bin
		status string
	)
	if err := row.Scan(&bin.ID, &bin.BinID, &bin.SensorID, &bin.LocationID, &status, &bin.LastUpdated, &bin.PhoneNumber); err != nil {
		return nil, err
	}
	bin.Status = waste.Status(status)
	bin.LastUpdated = bin.LastUpdated.UTC()
	return &bin, nil
}
