package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	waste "cleanbin-cloud/internal/waste/domain"
)

const defaultNeighborhoodsTable = "neighborhoods"

// NeighborhoodRepository is a Postgres implementation for neighborhoods.
type NeighborhoodRepository struct {
	db    DBTX
	table string
}

// NewNeighborhoodRepository constructs a repository.
func NewNeighborhoodRepository(db DBTX, opts ...NeighborhoodOption) *NeighborhoodRepository {
	repo := &NeighborhoodRepository{db: db, table: defaultNeighborhoodsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// NeighborhoodOption configures the repository.
type NeighborhoodOption func(*NeighborhoodRepository)

// WithNeighborhoodTable overrides the default table name.
func WithNeighborhoodTable(table string) NeighborhoodOption {
	return func(repo *NeighborhoodRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// GetOrCreate resolves a neighborhood by (name, district), creating it when absent.
func (r *NeighborhoodRepository) GetOrCreate(ctx context.Context, name, districtID string) (*waste.Neighborhood, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("neighborhood repo: nil db")
	}
	if name == "" {
		return nil, errors.New("neighborhood repo: empty name")
	}
	if districtID == "" {
		return nil, errors.New("neighborhood repo: empty district id")
	}

	insert := fmt.Sprintf(`
INSERT INTO %s (id, name, district_id)
VALUES ($1, $2, $3)
ON CONFLICT (name, district_id) DO NOTHING`, r.table)
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), name, districtID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
SELECT id, name, district_id
FROM %s
WHERE name = $1 AND district_id = $2
LIMIT 1`, r.table)

	var neighborhood waste.Neighborhood
	if err := r.db.QueryRowContext(ctx, query, name, districtID).Scan(&neighborhood.ID, &neighborhood.Name, &neighborhood.DistrictID); err != nil {
		return nil, err
	}
	return &neighborhood, nil
}

// Get loads a neighborhood by id.
func (r *NeighborhoodRepository) Get(ctx context.Context, id string) (*waste.Neighborhood, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("neighborhood repo: nil db")
	}
	if id == "" {
		return nil, errors.New("neighborhood repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, name, district_id
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var neighborhood waste.Neighborhood
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&neighborhood.ID, &neighborhood.Name, &neighborhood.DistrictID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &neighborhood, nil
}

// List loads neighborhoods, optionally scoped to a district.
func (r *NeighborhoodRepository) List(ctx context.Context, districtID string) ([]waste.Neighborhood, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("neighborhood repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, name, district_id
FROM %s`, r.table)
	var args []any
	if districtID != "" {
		query += `
WHERE district_id = $1`
		args = append(args, districtID)
	}
	query += `
ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var neighborhoods []waste.Neighborhood
	for rows.Next() {
		var neighborhood waste.Neighborhood
		if err := rows.Scan(&neighborhood.ID, &neighborhood.Name, &neighborhood.DistrictID); err != nil {
			return nil, err
		}
		neighborhoods = append(neighborhoods, neighborhood)
	}
	return neighborhoods, rows.Err()
}
