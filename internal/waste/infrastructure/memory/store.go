package memory

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	waste "cleanbin-cloud/internal/waste/domain"
)

// Store is an in-memory waste store used by unit tests. It implements the
// same duplicate-key semantics as the Postgres store so the ingest recovery
// paths can be exercised without a database. WithinTx serializes callers but
// does not roll back partial writes.
type Store struct {
	// txMu serializes WithinTx bodies; mu guards the slices below and is
	// taken per repository call so fn can use the repositories freely.
	txMu sync.Mutex
	mu   sync.RWMutex

	districts     []*waste.District
	neighborhoods []*waste.Neighborhood
	locations     []*waste.Location
	bins          []*waste.Bin
	history       []*waste.StatusChange
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{}
}

// Districts returns the district repository.
func (s *Store) Districts() waste.DistrictRepository { return districtRepo{s} }

// Neighborhoods returns the neighborhood repository.
func (s *Store) Neighborhoods() waste.NeighborhoodRepository { return neighborhoodRepo{s} }

// Locations returns the location repository.
func (s *Store) Locations() waste.LocationRepository { return locationRepo{s} }

// Bins returns the bin repository.
func (s *Store) Bins() waste.BinRepository { return binRepo{s} }

// History returns the status history repository.
func (s *Store) History() waste.StatusHistoryRepository { return historyRepo{s} }

// WithinTx runs fn with exclusive access to the store.
func (s *Store) WithinTx(ctx context.Context, fn func(waste.Store) error) error {
	_ = ctx
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

type districtRepo struct{ s *Store }

func (r districtRepo) GetOrCreate(ctx context.Context, name string) (*waste.District, error) {
	_ = ctx
	if name == "" {
		return nil, errors.New("district repo: empty name")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, district := range r.s.districts {
		if district.Name == name {
			clone := *district
			return &clone, nil
		}
	}
	district := &waste.District{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	r.s.districts = append(r.s.districts, district)
	clone := *district
	return &clone, nil
}

func (r districtRepo) Get(ctx context.Context, id string) (*waste.District, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, district := range r.s.districts {
		if district.ID == id {
			clone := *district
			return &clone, nil
		}
	}
	return nil, nil
}

func (r districtRepo) List(ctx context.Context) ([]waste.District, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]waste.District, 0, len(r.s.districts))
	for _, district := range r.s.districts {
		out = append(out, *district)
	}
	return out, nil
}

func (r districtRepo) First(ctx context.Context) (*waste.District, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if len(r.s.districts) == 0 {
		return nil, nil
	}
	clone := *r.s.districts[0]
	return &clone, nil
}

type neighborhoodRepo struct{ s *Store }

func (r neighborhoodRepo) GetOrCreate(ctx context.Context, name, districtID string) (*waste.Neighborhood, error) {
	_ = ctx
	if name == "" || districtID == "" {
		return nil, errors.New("neighborhood repo: empty natural key")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, neighborhood := range r.s.neighborhoods {
		if neighborhood.Name == name && neighborhood.DistrictID == districtID {
			clone := *neighborhood
			return &clone, nil
		}
	}
	neighborhood := &waste.Neighborhood{ID: uuid.NewString(), Name: name, DistrictID: districtID}
	r.s.neighborhoods = append(r.s.neighborhoods, neighborhood)
	clone := *neighborhood
	return &clone, nil
}

func (r neighborhoodRepo) Get(ctx context.Context, id string) (*waste.Neighborhood, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, neighborhood := range r.s.neighborhoods {
		if neighborhood.ID == id {
			clone := *neighborhood
			return &clone, nil
		}
	}
	return nil, nil
}

func (r neighborhoodRepo) List(ctx context.Context, districtID string) ([]waste.Neighborhood, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []waste.Neighborhood
	for _, neighborhood := range r.s.neighborhoods {
		if districtID != "" && neighborhood.DistrictID != districtID {
			continue
		}
		out = append(out, *neighborhood)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type locationRepo struct{ s *Store }

func (r locationRepo) GetOrCreate(ctx context.Context, neighborhoodID, address string) (*waste.Location, error) {
	_ = ctx
	if neighborhoodID == "" || address == "" {
		return nil, errors.New("location repo: empty natural key")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, location := range r.s.locations {
		if location.NeighborhoodID == neighborhoodID && location.Address == address {
			clone := *location
			return &clone, nil
		}
	}
	location := &waste.Location{ID: uuid.NewString(), NeighborhoodID: neighborhoodID, Address: address}
	r.s.locations = append(r.s.locations, location)
	clone := *location
	return &clone, nil
}

func (r locationRepo) Get(ctx context.Context, id string) (*waste.Location, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, location := range r.s.locations {
		if location.ID == id {
			clone := *location
			return &clone, nil
		}
	}
	return nil, nil
}

func (r locationRepo) List(ctx context.Context, neighborhoodID string) ([]waste.Location, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []waste.Location
	for _, location := range r.s.locations {
		if neighborhoodID != "" && location.NeighborhoodID != neighborhoodID {
			continue
		}
		out = append(out, *location)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

type binRepo struct{ s *Store }

func (r binRepo) Create(ctx context.Context, bin *waste.Bin) error {
	_ = ctx
	if bin == nil {
		return errors.New("bin repo: nil bin")
	}
	if err := bin.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.bins {
		if existing.SensorID == bin.SensorID {
			return waste.ErrDuplicateSensorID
		}
		if existing.BinID == bin.BinID {
			return waste.ErrDuplicateBinID
		}
	}
	if bin.LastUpdated.IsZero() {
		bin.LastUpdated = time.Now().UTC()
	}
	clone := *bin
	r.s.bins = append(r.s.bins, &clone)
	return nil
}

func (r binRepo) Get(ctx context.Context, id string) (*waste.Bin, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, bin := range r.s.bins {
		if bin.ID == id {
			clone := *bin
			return &clone, nil
		}
	}
	return nil, nil
}

func (r binRepo) FindBySensorID(ctx context.Context, sensorID string) (*waste.Bin, error) {
	_ = ctx
	if sensorID == "" {
		return nil, errors.New("bin repo: empty sensor id")
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, bin := range r.s.bins {
		if bin.SensorID == sensorID {
			clone := *bin
			return &clone, nil
		}
	}
	return nil, nil
}

func (r binRepo) List(ctx context.Context, filter waste.BinFilter) ([]waste.Bin, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []waste.Bin
	for _, bin := range r.s.bins {
		if filter.Status.Valid() && bin.Status != filter.Status {
			continue
		}
		if filter.LocationID != "" && bin.LocationID != filter.LocationID {
			continue
		}
		out = append(out, *bin)
	}
	sort.Slice(out, func(i, j int) bool { return naturalLess(out[i].BinID, out[j].BinID) })
	return out, nil
}

// naturalLess orders bin ids with numeric suffixes compared as numbers, so
// guliston-2 lists before guliston-10. Non-numeric suffixes sort after the
// numbered ones within the same prefix.
func naturalLess(a, b string) bool {
	aPrefix, aNum, aNumeric := binIDKey(a)
	bPrefix, bNum, bNumeric := binIDKey(b)
	if aPrefix != bPrefix {
		return aPrefix < bPrefix
	}
	if aNumeric != bNumeric {
		return aNumeric
	}
	if aNumeric && aNum != bNum {
		return aNum < bNum
	}
	return a < b
}

func binIDKey(id string) (prefix string, n int, numeric bool) {
	idx := strings.LastIndex(id, "-")
	if idx < 0 {
		return id, 0, false
	}
	n, err := strconv.Atoi(id[idx+1:])
	if err != nil {
		return id[:idx], 0, false
	}
	return id[:idx], n, true
}

func (r binRepo) UpdateStatus(ctx context.Context, id string, status waste.Status, at time.Time) error {
	_ = ctx
	if !status.Valid() {
		return errors.New("bin repo: invalid status")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, bin := range r.s.bins {
		if bin.ID == id {
			bin.Status = status
			bin.LastUpdated = at.UTC()
			return nil
		}
	}
	return errors.New("bin repo: unknown bin")
}

func (r binRepo) Count(ctx context.Context) (int, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.bins), nil
}

func (r binRepo) Stats(ctx context.Context) (waste.BinStats, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stats := waste.BinStats{Total: len(r.s.bins)}
	for _, bin := range r.s.bins {
		if bin.Status == waste.StatusFull {
			stats.Filled++
		}
	}
	return stats, nil
}

func (r binRepo) StatsByDistrict(ctx context.Context, districtID string) (waste.BinStats, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	neighborhoodIDs := make(map[string]struct{})
	for _, neighborhood := range r.s.neighborhoods {
		if neighborhood.DistrictID == districtID {
			neighborhoodIDs[neighborhood.ID] = struct{}{}
		}
	}
	locationIDs := make(map[string]struct{})
	for _, location := range r.s.locations {
		if _, ok := neighborhoodIDs[location.NeighborhoodID]; ok {
			locationIDs[location.ID] = struct{}{}
		}
	}

	var stats waste.BinStats
	for _, bin := range r.s.bins {
		if _, ok := locationIDs[bin.LocationID]; !ok {
			continue
		}
		stats.Total++
		if bin.Status == waste.StatusFull {
			stats.Filled++
		}
	}
	return stats, nil
}

type historyRepo struct{ s *Store }

func (r historyRepo) Append(ctx context.Context, change *waste.StatusChange) error {
	_ = ctx
	if change == nil {
		return errors.New("history repo: nil change")
	}
	if change.BinID == "" || !change.Status.Valid() {
		return errors.New("history repo: invalid change")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}
	clone := *change
	r.s.history = append(r.s.history, &clone)
	return nil
}

func (r historyRepo) ListByBin(ctx context.Context, binID string) ([]waste.StatusChange, error) {
	_ = ctx
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []waste.StatusChange
	for _, change := range r.s.history {
		if change.BinID == binID {
			out = append(out, *change)
		}
	}
	// Insertion order is chronological; reverse for newest-first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
