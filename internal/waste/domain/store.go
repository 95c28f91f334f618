package waste

import "context"

// Store groups the repositories that share one consistency boundary.
type Store interface {
	Districts() DistrictRepository
	Neighborhoods() NeighborhoodRepository
	Locations() LocationRepository
	Bins() BinRepository
	History() StatusHistoryRepository
}

// UnitOfWork is a Store that can run a multi-step mutation atomically.
type UnitOfWork interface {
	Store
	// WithinTx runs fn against a transactional view of the store. All writes
	// made through the passed Store commit together or not at all.
	WithinTx(ctx context.Context, fn func(Store) error) error
}
