package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"cleanbin-cloud/internal/observability/metrics"
	waste "cleanbin-cloud/internal/waste/domain"
)

const timeLayout = time.RFC3339

// DistrictsHandler serves district list/detail reads.
type DistrictsHandler struct {
	store waste.Store
}

// NewDistrictsHandler constructs a DistrictsHandler.
func NewDistrictsHandler(store waste.Store) (*DistrictsHandler, error) {
	if store == nil {
		return nil, errors.New("districts handler: nil store")
	}
	return &DistrictsHandler{store: store}, nil
}

type districtDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ServeHTTP handles GET /api/v1/districts and /api/v1/districts/{id}.
func (h *DistrictsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := pathID(r.URL.Path, "/api/v1/districts")
	if id == "" {
		districts, err := h.store.Districts().List(r.Context())
		if err != nil {
			metrics.IncQuery("districts", metrics.ResultError)
			http.Error(w, "query error", http.StatusInternalServerError)
			return
		}
		out := make([]districtDTO, 0, len(districts))
		for _, district := range districts {
			out = append(out, districtDTO{ID: district.ID, Name: district.Name})
		}
		metrics.IncQuery("districts", metrics.ResultSuccess)
		writeJSON(w, out)
		return
	}

	district, err := h.store.Districts().Get(r.Context(), id)
	if err != nil {
		metrics.IncQuery("districts", metrics.ResultError)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	if district == nil {
		http.Error(w, "district not found", http.StatusNotFound)
		return
	}
	metrics.IncQuery("districts", metrics.ResultSuccess)
	writeJSON(w, districtDTO{ID: district.ID, Name: district.Name})
}

// NeighborhoodsHandler serves neighborhood list/detail reads.
type NeighborhoodsHandler struct {
	store waste.Store
}

// NewNeighborhoodsHandler constructs a NeighborhoodsHandler.
func NewNeighborhoodsHandler(store waste.Store) (*NeighborhoodsHandler, error) {
	if store == nil {
		return nil, errors.New("neighborhoods handler: nil store")
	}
	return &NeighborhoodsHandler{store: store}, nil
}

type neighborhoodDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DistrictID string `json:"district_id"`
}

// ServeHTTP handles GET /api/v1/neighborhoods[?district=] and /{id}.
func (h *NeighborhoodsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := pathID(r.URL.Path, "/api/v1/neighborhoods")
	if id == "" {
		neighborhoods, err := h.store.Neighborhoods().List(r.Context(), r.URL.Query().Get("district"))
		if err != nil {
			metrics.IncQuery("neighborhoods", metrics.ResultError)
			http.Error(w, "query error", http.StatusInternalServerError)
			return
		}
		out := make([]neighborhoodDTO, 0, len(neighborhoods))
		for _, neighborhood := range neighborhoods {
			out = append(out, neighborhoodDTO{ID: neighborhood.ID, Name: neighborhood.Name, DistrictID: neighborhood.DistrictID})
		}
		metrics.IncQuery("neighborhoods", metrics.ResultSuccess)
		writeJSON(w, out)
		return
	}

	neighborhood, err := h.store.Neighborhoods().Get(r.Context(), id)
	if err != nil {
		metrics.IncQuery("neighborhoods", metrics.ResultError)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	if neighborhood == nil {
		http.Error(w, "neighborhood not found", http.StatusNotFound)
		return
	}
	metrics.IncQuery("neighborhoods", metrics.ResultSuccess)
	writeJSON(w, neighborhoodDTO{ID: neighborhood.ID, Name: neighborhood.Name, DistrictID: neighborhood.DistrictID})
}

// LocationsHandler serves location list/detail reads.
type LocationsHandler struct {
	store waste.Store
}

// NewLocationsHandler constructs a LocationsHandler.
func NewLocationsHandler(store waste.Store) (*LocationsHandler, error) {
	if store == nil {
		return nil, errors.New("locations handler: nil store")
	}
	return &LocationsHandler{store: store}, nil
}

type locationDTO struct {
	ID             string `json:"id"`
	NeighborhoodID string `json:"neighborhood_id"`
	Address        string `json:"address"`
}

// ServeHTTP handles GET /api/v1/locations[?neighborhood=] and /{id}.
func (h *LocationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := pathID(r.URL.Path, "/api/v1/locations")
	if id == "" {
		locations, err := h.store.Locations().List(r.Context(), r.URL.Query().Get("neighborhood"))
		if err != nil {
			metrics.IncQuery("locations", metrics.ResultError)
			http.Error(w, "query error", http.StatusInternalServerError)
			return
		}
		out := make([]locationDTO, 0, len(locations))
		for _, location := range locations {
			out = append(out, locationDTO{ID: location.ID, NeighborhoodID: location.NeighborhoodID, Address: location.Address})
		}
		metrics.IncQuery("locations", metrics.ResultSuccess)
		writeJSON(w, out)
		return
	}

	location, err := h.store.Locations().Get(r.Context(), id)
	if err != nil {
		metrics.IncQuery("locations", metrics.ResultError)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	if location == nil {
		http.Error(w, "location not found", http.StatusNotFound)
		return
	}
	metrics.IncQuery("locations", metrics.ResultSuccess)
	writeJSON(w, locationDTO{ID: location.ID, NeighborhoodID: location.NeighborhoodID, Address: location.Address})
}

// BinsHandler serves bin list/detail reads.
type BinsHandler struct {
	store waste.Store
}

// NewBinsHandler constructs a BinsHandler.
func NewBinsHandler(store waste.Store) (*BinsHandler, error) {
	if store == nil {
		return nil, errors.New("bins handler: nil store")
	}
	return &BinsHandler{store: store}, nil
}

type binDTO struct {
	ID          string `json:"id"`
	BinID       string `json:"bin_id"`
	SensorID    string `json:"sensor_id"`
	LocationID  string `json:"location_id"`
	Status      string `json:"status"`
	LastUpdated string `json:"last_updated"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type binDetailDTO struct {
	binDTO
	Neighborhood string            `json:"neighborhood,omitempty"`
	Address      string            `json:"address,omitempty"`
	History      []statusChangeDTO `json:"history"`
}

type statusChangeDTO struct {
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// ServeHTTP handles GET /api/v1/bins[?status=&location=] and /{id}.
func (h *BinsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := pathID(r.URL.Path, "/api/v1/bins")
	if id == "" {
		h.handleList(w, r)
		return
	}
	h.handleDetail(w, r, id)
}

func (h *BinsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	var filter waste.BinFilter
	// Unrecognized status values mean "no filter", not an error.
	if status, err := waste.ParseStatus(r.URL.Query().Get("status")); err == nil {
		filter.Status = status
	}
	filter.LocationID = r.URL.Query().Get("location")

	bins, err := h.store.Bins().List(r.Context(), filter)
	if err != nil {
		metrics.IncQuery("bins", metrics.ResultError)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	out := make([]binDTO, 0, len(bins))
	for _, bin := range bins {
		out = append(out, toBinDTO(bin))
	}
	metrics.IncQuery("bins", metrics.ResultSuccess)
	writeJSON(w, out)
}

func (h *BinsHandler) handleDetail(w http.ResponseWriter, r *http.Request, id string) {
	bin, err := h.store.Bins().Get(r.Context(), id)
	if err != nil {
		metrics.IncQuery("bins", metrics.ResultError)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	if bin == nil {
		http.Error(w, "bin not found", http.StatusNotFound)
		return
	}

	detail := binDetailDTO{binDTO: toBinDTO(*bin)}

	history, err := h.store.History().ListByBin(r.Context(), bin.ID)
	if err != nil {
		metrics.IncQuery("bins", metrics.ResultError)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	detail.History = make([]statusChangeDTO, 0, len(history))
	for _, change := range history {
		detail.History = append(detail.History, statusChangeDTO{
			Status:    string(change.Status),
			CreatedAt: change.CreatedAt.Format(timeLayout),
		})
	}

	if location, err := h.store.Locations().Get(r.Context(), bin.LocationID); err == nil && location != nil {
		detail.Address = location.Address
		if neighborhood, err := h.store.Neighborhoods().Get(r.Context(), location.NeighborhoodID); err == nil && neighborhood != nil {
			detail.Neighborhood = neighborhood.Name
		}
	}

	metrics.IncQuery("bins", metrics.ResultSuccess)
	writeJSON(w, detail)
}

func toBinDTO(bin waste.Bin) binDTO {
	return binDTO{
		ID:          bin.ID,
		BinID:       bin.BinID,
		SensorID:    bin.SensorID,
		LocationID:  bin.LocationID,
		Status:      string(bin.Status),
		LastUpdated: bin.LastUpdated.Format(timeLayout),
		PhoneNumber: bin.PhoneNumber,
	}
}

// pathID extracts a trailing path segment after the resource prefix.
func pathID(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	return rest
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
