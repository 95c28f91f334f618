package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	waste "cleanbin-cloud/internal/waste/domain"
)

// maxAttempts bounds transaction restarts when an insert loses a
// uniqueness race. Each restart re-resolves the sensor and derives a fresh
// display id, so one retry is normally enough.
const maxAttempts = 3

// ErrUnknownSensor reports a sensor that resolves to no bin and carries no
// usable location text for auto-creation.
var ErrUnknownSensor = errors.New("ingest: unknown sensor")

// Report is one validated field sensor report.
type Report struct {
	SensorID    string
	Status      waste.Status
	Location    string
	PhoneNumber string
}

// Outcome classifies what a report did to the store.
type Outcome string

const (
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeCreated   Outcome = "created"
)

// Result summarizes one processed report.
type Result struct {
	Outcome Outcome
	Bin     waste.Bin
}

// Service converges store state from sensor reports.
type Service struct {
	store waste.UnitOfWork
	now   func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs an ingest service.
func NewService(store waste.UnitOfWork, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("ingest: nil store")
	}
	s := &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Process applies one report atomically. Known sensors transition status and
// append a history row only when the value actually changed; unknown sensors
// with a parseable location auto-create the full hierarchy path and the bin.
// Uniqueness races restart the transaction, so a concurrent duplicate report
// converges to the known-sensor path instead of a second bin.
func (s *Service) Process(ctx context.Context, report Report) (*Result, error) {
	if report.SensorID == "" {
		return nil, errors.New("ingest: empty sensor id")
	}
	if !report.Status.Valid() {
		return nil, errors.New("ingest: invalid status")
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := s.processOnce(ctx, report, attempt)
		if errors.Is(err, waste.ErrDuplicateSensorID) || errors.Is(err, waste.ErrDuplicateBinID) {
			lastErr = err
			continue
		}
		return result, err
	}
	return nil, lastErr
}

func (s *Service) processOnce(ctx context.Context, report Report, attempt int) (*Result, error) {
	var result *Result
	err := s.store.WithinTx(ctx, func(store waste.Store) error {
		bin, err := store.Bins().FindBySensorID(ctx, report.SensorID)
		if err != nil {
			return err
		}
		if bin != nil {
			result, err = s.applyStatus(ctx, store, bin, report.Status)
			return err
		}

		parts, ok := ParseLocation(report.Location)
		if report.Location == "" || !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSensor, report.SensorID)
		}

		result, err = s.createBin(ctx, store, parts, report, attempt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) applyStatus(ctx context.Context, store waste.Store, bin *waste.Bin, status waste.Status) (*Result, error) {
	if bin.Status == status {
		return &Result{Outcome: OutcomeUnchanged, Bin: *bin}, nil
	}

	now := s.now()
	if err := store.Bins().UpdateStatus(ctx, bin.ID, status, now); err != nil {
		return nil, err
	}
	if err := store.History().Append(ctx, &waste.StatusChange{BinID: bin.ID, Status: status, CreatedAt: now}); err != nil {
		return nil, err
	}
	bin.Status = status
	bin.LastUpdated = now
	return &Result{Outcome: OutcomeUpdated, Bin: *bin}, nil
}

func (s *Service) createBin(ctx context.Context, store waste.Store, parts LocationParts, report Report, attempt int) (*Result, error) {
	district, err := store.Districts().GetOrCreate(ctx, parts.District)
	if err != nil {
		return nil, err
	}
	neighborhood, err := store.Neighborhoods().GetOrCreate(ctx, parts.Neighborhood, district.ID)
	if err != nil {
		return nil, err
	}
	location, err := store.Locations().GetOrCreate(ctx, neighborhood.ID, parts.Address)
	if err != nil {
		return nil, err
	}

	binID, err := s.deriveBinID(ctx, store, neighborhood.Name, attempt)
	if err != nil {
		return nil, err
	}

	now := s.now()
	bin := &waste.Bin{
		ID:          uuid.NewString(),
		BinID:       binID,
		SensorID:    report.SensorID,
		LocationID:  location.ID,
		Status:      report.Status,
		LastUpdated: now,
		PhoneNumber: report.PhoneNumber,
	}
	if err := store.Bins().Create(ctx, bin); err != nil {
		return nil, err
	}
	if err := store.History().Append(ctx, &waste.StatusChange{BinID: bin.ID, Status: report.Status, CreatedAt: now}); err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeCreated, Bin: *bin}, nil
}

// deriveBinID builds the display id from the lowercased neighborhood name and
// the running bin count. Later attempts shift the suffix and finally fall back
// to a random one, so two bins created concurrently in the same neighborhood
// cannot both commit the same count-based id.
func (s *Service) deriveBinID(ctx context.Context, store waste.Store, neighborhoodName string, attempt int) (string, error) {
	prefix := strings.ToLower(neighborhoodName)
	if attempt >= maxAttempts-1 {
		return prefix + "-" + uuid.NewString()[:8], nil
	}
	count, err := store.Bins().Count(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", prefix, count+1+attempt), nil
}
