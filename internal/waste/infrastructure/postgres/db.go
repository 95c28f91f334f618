package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	waste "cleanbin-cloud/internal/waste/domain"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store bundles the Postgres repositories over one DBTX.
type Store struct {
	districts     *DistrictRepository
	neighborhoods *NeighborhoodRepository
	locations     *LocationRepository
	bins          *BinRepository
	history       *StatusHistoryRepository
}

// NewStore constructs a store over a database handle or transaction.
func NewStore(db DBTX) *Store {
	return &Store{
		districts:     NewDistrictRepository(db),
		neighborhoods: NewNeighborhoodRepository(db),
		locations:     NewLocationRepository(db),
		bins:          NewBinRepository(db),
		history:       NewStatusHistoryRepository(db),
	}
}

// Districts returns the district repository.
func (s *Store) Districts() waste.DistrictRepository { return s.districts }

// Neighborhoods returns the neighborhood repository.
func (s *Store) Neighborhoods() waste.NeighborhoodRepository { return s.neighborhoods }

// Locations returns the location repository.
func (s *Store) Locations() waste.LocationRepository { return s.locations }

// Bins returns the bin repository.
func (s *Store) Bins() waste.BinRepository { return s.bins }

// History returns the status history repository.
func (s *Store) History() waste.StatusHistoryRepository { return s.history }

// UnitOfWork runs multi-step mutations inside a single transaction.
type UnitOfWork struct {
	*Store
	db *sql.DB
}

// NewUnitOfWork constructs a unit of work over a database handle.
func NewUnitOfWork(db *sql.DB) (*UnitOfWork, error) {
	if db == nil {
		return nil, errors.New("waste store: nil db")
	}
	return &UnitOfWork{Store: NewStore(db), db: db}, nil
}

// WithinTx runs fn against a transactional store view.
func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(waste.Store) error) error {
	if u == nil || u.db == nil {
		return errors.New("waste store: nil db")
	}
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(NewStore(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// mapUniqueViolation translates Postgres unique violations into domain errors
// so callers can recover from concurrent-create races.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "sensor_id"):
		return waste.ErrDuplicateSensorID
	case strings.Contains(pgErr.ConstraintName, "bin_id"):
		return waste.ErrDuplicateBinID
	}
	return err
}
