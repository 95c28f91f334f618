package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	waste "cleanbin-cloud/internal/waste/domain"
)

const defaultDistrictsTable = "districts"

// DistrictRepository is a Postgres implementation for districts.
type DistrictRepository struct {
	db    DBTX
	table string
}

// NewDistrictRepository constructs a repository.
func NewDistrictRepository(db DBTX, opts ...DistrictOption) *DistrictRepository {
	repo := &DistrictRepository{db: db, table: defaultDistrictsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// DistrictOption configures the repository.
type DistrictOption func(*DistrictRepository)

// WithDistrictTable overrides the default table name.
func WithDistrictTable(table string) DistrictOption {
	return func(repo *DistrictRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// GetOrCreate resolves a district by name, creating it when absent.
func (r *DistrictRepository) GetOrCreate(ctx context.Context, name string) (*waste.District, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("district repo: nil db")
	}
	if name == "" {
		return nil, errors.New("district repo: empty name")
	}

	// The insert tolerates a concurrent duplicate; the winner's row is
	// re-read below either way.
	insert := fmt.Sprintf(`
INSERT INTO %s (id, name, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO NOTHING`, r.table)
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), name, time.Now().UTC()); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
SELECT id, name, created_at
FROM %s
WHERE name = $1
LIMIT 1`, r.table)

	var district waste.District
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&district.ID, &district.Name, &district.CreatedAt); err != nil {
		return nil, err
	}
	district.CreatedAt = district.CreatedAt.UTC()
	return &district, nil
}

// Get loads a district by id.
func (r *DistrictRepository) Get(ctx context.Context, id string) (*waste.District, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("district repo: nil db")
	}
	if id == "" {
		return nil, errors.New("district repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, name, created_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var district waste.District
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&district.ID, &district.Name, &district.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	district.CreatedAt = district.CreatedAt.UTC()
	return &district, nil
}

// List loads all districts in creation order.
func (r *DistrictRepository) List(ctx context.Context) ([]waste.District, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("district repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, name, created_at
FROM %s
ORDER BY created_at, id`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var districts []waste.District
	for rows.Next() {
		var district waste.District
		if err := rows.Scan(&district.ID, &district.Name, &district.CreatedAt); err != nil {
			return nil, err
		}
		district.CreatedAt = district.CreatedAt.UTC()
		districts = append(districts, district)
	}
	return districts, rows.Err()
}

// First loads the earliest-created district, nil on an empty table.
func (r *DistrictRepository) First(ctx context.Context) (*waste.District, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("district repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, name, created_at
FROM %s
ORDER BY created_at, id
LIMIT 1`, r.table)

	var district waste.District
	if err := r.db.QueryRowContext(ctx, query).Scan(&district.ID, &district.Name, &district.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	district.CreatedAt = district.CreatedAt.UTC()
	return &district, nil
}
