package reporting

import (
	"context"
	"errors"
	"time"

	waste "cleanbin-cloud/internal/waste/domain"
)

// InventoryRow is one bin with its resolved hierarchy labels.
type InventoryRow struct {
	BinID        string
	SensorID     string
	District     string
	Neighborhood string
	Address      string
	Status       waste.Status
	LastUpdated  time.Time
}

// CollectInventory loads the bin inventory with hierarchy labels, optionally
// scoped to one district. The district id must resolve when given.
func CollectInventory(ctx context.Context, store waste.Store, districtID string) ([]InventoryRow, error) {
	if store == nil {
		return nil, errors.New("reporting: nil store")
	}

	districts, err := store.Districts().List(ctx)
	if err != nil {
		return nil, err
	}
	districtNames := make(map[string]string, len(districts))
	for _, district := range districts {
		districtNames[district.ID] = district.Name
	}
	if districtID != "" {
		if _, ok := districtNames[districtID]; !ok {
			return nil, ErrDistrictNotFound
		}
	}

	neighborhoods, err := store.Neighborhoods().List(ctx, districtID)
	if err != nil {
		return nil, err
	}
	type neighborhoodInfo struct {
		name       string
		districtID string
	}
	neighborhoodByID := make(map[string]neighborhoodInfo, len(neighborhoods))
	for _, neighborhood := range neighborhoods {
		neighborhoodByID[neighborhood.ID] = neighborhoodInfo{name: neighborhood.Name, districtID: neighborhood.DistrictID}
	}

	locations, err := store.Locations().List(ctx, "")
	if err != nil {
		return nil, err
	}
	type locationInfo struct {
		address        string
		neighborhoodID string
	}
	locationByID := make(map[string]locationInfo, len(locations))
	for _, location := range locations {
		locationByID[location.ID] = locationInfo{address: location.Address, neighborhoodID: location.NeighborhoodID}
	}

	bins, err := store.Bins().List(ctx, waste.BinFilter{})
	if err != nil {
		return nil, err
	}

	var rows []InventoryRow
	for _, bin := range bins {
		location, ok := locationByID[bin.LocationID]
		if !ok {
			continue
		}
		neighborhood, ok := neighborhoodByID[location.neighborhoodID]
		if !ok {
			// Filtered out by the district scope.
			continue
		}
		rows = append(rows, InventoryRow{
			BinID:        bin.BinID,
			SensorID:     bin.SensorID,
			District:     districtNames[neighborhood.districtID],
			Neighborhood: neighborhood.name,
			Address:      location.address,
			Status:       bin.Status,
			LastUpdated:  bin.LastUpdated,
		})
	}
	return rows, nil
}

// ErrDistrictNotFound reports an export scoped to an unknown district.
var ErrDistrictNotFound = errors.New("reporting: district not found")
