package waste

import (
	"context"
	"errors"
	"time"
)

// Bin is a tracked waste container with an attached fill sensor.
type Bin struct {
	ID          string
	BinID       string // human-readable display key, unique
	SensorID    string // natural key used by ingestion, unique
	LocationID  string
	Status      Status
	LastUpdated time.Time
	PhoneNumber string
}

// Validate checks bin invariants.
func (b Bin) Validate() error {
	if b.ID == "" {
		return errors.New("bin: empty id")
	}
	if b.BinID == "" {
		return errors.New("bin: empty bin id")
	}
	if b.SensorID == "" {
		return errors.New("bin: empty sensor id")
	}
	if b.LocationID == "" {
		return errors.New("bin: empty location id")
	}
	if !b.Status.Valid() {
		return errors.New("bin: invalid status")
	}
	return nil
}

// BinFilter narrows bin listings. Zero values mean "no filter".
type BinFilter struct {
	Status     Status
	LocationID string
}

// BinStats aggregates bin counts.
type BinStats struct {
	Total  int
	Filled int
}

// BinRepository manages bin persistence.
type BinRepository interface {
	Create(ctx context.Context, bin *Bin) error
	Get(ctx context.Context, id string) (*Bin, error)
	// FindBySensorID resolves a bin by its sensor natural key, nil when unknown.
	FindBySensorID(ctx context.Context, sensorID string) (*Bin, error)
	List(ctx context.Context, filter BinFilter) ([]Bin, error)
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error
	Count(ctx context.Context) (int, error)
	Stats(ctx context.Context) (BinStats, error)
	StatsByDistrict(ctx context.Context, districtID string) (BinStats, error)
}

// StatusChange is one immutable history record of a bin status transition.
type StatusChange struct {
	ID        string
	BinID     string
	Status    Status
	CreatedAt time.Time
}

// StatusHistoryRepository appends and reads the bin audit trail.
type StatusHistoryRepository interface {
	Append(ctx context.Context, change *StatusChange) error
	// ListByBin returns history newest-first.
	ListByBin(ctx context.Context, binID string) ([]StatusChange, error)
}
