package waste

import (
	"context"
	"errors"
	"time"
)

// District is the root of the directory hierarchy.
type District struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Validate checks district invariants.
func (d District) Validate() error {
	if d.ID == "" {
		return errors.New("district: empty id")
	}
	if d.Name == "" {
		return errors.New("district: empty name")
	}
	return nil
}

// DistrictRepository manages district persistence.
type DistrictRepository interface {
	// GetOrCreate resolves a district by name, creating it when absent.
	// Exactly one district exists per name regardless of concurrent callers.
	GetOrCreate(ctx context.Context, name string) (*District, error)
	Get(ctx context.Context, id string) (*District, error)
	List(ctx context.Context) ([]District, error)
	// First returns the earliest-created district, or nil on an empty store.
	First(ctx context.Context) (*District, error)
}

// Neighborhood belongs to exactly one district.
type Neighborhood struct {
	ID         string
	Name       string
	DistrictID string
}

// Validate checks neighborhood invariants.
func (n Neighborhood) Validate() error {
	if n.ID == "" {
		return errors.New("neighborhood: empty id")
	}
	if n.Name == "" {
		return errors.New("neighborhood: empty name")
	}
	if n.DistrictID == "" {
		return errors.New("neighborhood: empty district id")
	}
	return nil
}

// NeighborhoodRepository manages neighborhood persistence.
type NeighborhoodRepository interface {
	// GetOrCreate resolves a neighborhood by (name, district).
	GetOrCreate(ctx context.Context, name, districtID string) (*Neighborhood, error)
	Get(ctx context.Context, id string) (*Neighborhood, error)
	// List returns neighborhoods of a district, or all when districtID is empty.
	List(ctx context.Context, districtID string) ([]Neighborhood, error)
}

// Location is an address inside a neighborhood.
type Location struct {
	ID             string
	NeighborhoodID string
	Address        string
}

// Validate checks location invariants.
func (l Location) Validate() error {
	if l.ID == "" {
		return errors.New("location: empty id")
	}
	if l.NeighborhoodID == "" {
		return errors.New("location: empty neighborhood id")
	}
	if l.Address == "" {
		return errors.New("location: empty address")
	}
	return nil
}

// LocationRepository manages location persistence.
type LocationRepository interface {
	// GetOrCreate resolves a location by (neighborhood, address).
	GetOrCreate(ctx context.Context, neighborhoodID, address string) (*Location, error)
	Get(ctx context.Context, id string) (*Location, error)
	// List returns locations of a neighborhood, or all when neighborhoodID is empty.
	List(ctx context.Context, neighborhoodID string) ([]Location, error)
}
