package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	waste "cleanbin-cloud/internal/waste/domain"
)

const defaultLocationsTable = "locations"

// LocationRepository is a Postgres implementation for locations.
type LocationRepository struct {
	db    DBTX
	table string
}

// NewLocationRepository constructs a repository.
func NewLocationRepository(db DBTX, opts ...LocationOption) *LocationRepository {
	repo := &LocationRepository{db: db, table: defaultLocationsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// LocationOption configures the repository.
type LocationOption func(*LocationRepository)

// WithLocationTable overrides the default table name.
func WithLocationTable(table string) LocationOption {
	return func(repo *LocationRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// GetOrCreate resolves a location by (neighborhood, address), creating it when absent.
func (r *LocationRepository) GetOrCreate(ctx context.Context, neighborhoodID, address string) (*waste.Location, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("location repo: nil db")
	}
	if neighborhoodID == "" {
		return nil, errors.New("location repo: empty neighborhood id")
	}
	if address == "" {
		return nil, errors.New("location repo: empty address")
	}

	insert := fmt.Sprintf(`
INSERT INTO %s (id, neighborhood_id, address)
VALUES ($1, $2, $3)
ON CONFLICT (neighborhood_id, address) DO NOTHING`, r.table)
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), neighborhoodID, address); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
SELECT id, neighborhood_id, address
FROM %s
WHERE neighborhood_id = $1 AND address = $2
LIMIT 1`, r.table)

	var location waste.Location
	if err := r.db.QueryRowContext(ctx, query, neighborhoodID, address).Scan(&location.ID, &location.NeighborhoodID, &location.Address); err != nil {
		return nil, err
	}
	return &location, nil
}

// Get loads a location by id.
func (r *LocationRepository) Get(ctx context.Context, id string) (*waste.Location, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("location repo: nil db")
	}
	if id == "" {
		return nil, errors.New("location repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, neighborhood_id, address
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var location waste.Location
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&location.ID, &location.NeighborhoodID, &location.Address); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &location, nil
}

// List loads locations, optionally scoped to a neighborhood.
func (r *LocationRepository) List(ctx context.Context, neighborhoodID string) ([]waste.Location, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("location repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, neighborhood_id, address
FROM %s`, r.table)
	var args []any
	if neighborhoodID != "" {
		query += `
WHERE neighborhood_id = $1`
		args = append(args, neighborhoodID)
	}
	query += `
ORDER BY address, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []waste.Location
	for rows.Next() {
		var location waste.Location
		if err := rows.Scan(&location.ID, &location.NeighborhoodID, &location.Address); err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return locations, rows.Err()
}
