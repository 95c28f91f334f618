package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cleanbin-cloud/internal/waste/infrastructure/memory"

	waste "cleanbin-cloud/internal/waste/domain"
)

type fixture struct {
	store      *memory.Store
	districtID string
	locationID string
	binID      string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	district, err := store.Districts().GetOrCreate(ctx, "Uchtepa")
	if err != nil {
		t.Fatalf("seed district: %v", err)
	}
	neighborhood, err := store.Neighborhoods().GetOrCreate(ctx, "Guliston", district.ID)
	if err != nil {
		t.Fatalf("seed neighborhood: %v", err)
	}
	location, err := store.Locations().GetOrCreate(ctx, neighborhood.ID, "12-uy")
	if err != nil {
		t.Fatalf("seed location: %v", err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	bin := &waste.Bin{
		ID:          "bin-row-1",
		BinID:       "guliston-1",
		SensorID:    "sensor-1",
		LocationID:  location.ID,
		Status:      waste.StatusFull,
		LastUpdated: now,
	}
	if err := store.Bins().Create(ctx, bin); err != nil {
		t.Fatalf("seed bin: %v", err)
	}
	if err := store.History().Append(ctx, &waste.StatusChange{BinID: bin.ID, Status: waste.StatusNotFull, CreatedAt: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("seed history: %v", err)
	}
	if err := store.History().Append(ctx, &waste.StatusChange{BinID: bin.ID, Status: waste.StatusFull, CreatedAt: now}); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	other := &waste.Bin{
		ID:          "bin-row-2",
		BinID:       "guliston-2",
		SensorID:    "sensor-2",
		LocationID:  location.ID,
		Status:      waste.StatusNotFull,
		LastUpdated: now,
	}
	if err := store.Bins().Create(ctx, other); err != nil {
		t.Fatalf("seed bin: %v", err)
	}

	return fixture{store: store, districtID: district.ID, locationID: location.ID, binID: bin.ID}
}

func doGet(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestDistrictsHandler(t *testing.T) {
	fx := newFixture(t)
	handler, err := NewDistrictsHandler(fx.store)
	if err != nil {
		t.Fatalf("NewDistrictsHandler: %v", err)
	}

	resp := doGet(t, handler, "/api/v1/districts")
	if resp.Code != http.StatusOK {
		t.Fatalf("list status = %d", resp.Code)
	}
	var list []districtDTO
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Uchtepa" {
		t.Fatalf("list = %+v", list)
	}

	resp = doGet(t, handler, "/api/v1/districts/"+fx.districtID)
	if resp.Code != http.StatusOK {
		t.Fatalf("detail status = %d", resp.Code)
	}

	resp = doGet(t, handler, "/api/v1/districts/missing")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", resp.Code)
	}
}

func TestNeighborhoodsHandlerFiltersByDistrict(t *testing.T) {
	fx := newFixture(t)
	handler, err := NewNeighborhoodsHandler(fx.store)
	if err != nil {
		t.Fatalf("NewNeighborhoodsHandler: %v", err)
	}

	resp := doGet(t, handler, "/api/v1/neighborhoods?district="+fx.districtID)
	if resp.Code != http.StatusOK {
		t.Fatalf("list status = %d", resp.Code)
	}
	var list []neighborhoodDTO
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Guliston" {
		t.Fatalf("list = %+v", list)
	}

	resp = doGet(t, handler, "/api/v1/neighborhoods?district=missing")
	if resp.Code != http.StatusOK {
		t.Fatalf("empty list status = %d", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("list = %+v, want empty", list)
	}
}

func TestBinsHandlerListAndFilter(t *testing.T) {
	fx := newFixture(t)
	handler, err := NewBinsHandler(fx.store)
	if err != nil {
		t.Fatalf("NewBinsHandler: %v", err)
	}

	resp := doGet(t, handler, "/api/v1/bins")
	if resp.Code != http.StatusOK {
		t.Fatalf("list status = %d", resp.Code)
	}
	var list []binDTO
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("bins = %d, want 2", len(list))
	}

	resp = doGet(t, handler, "/api/v1/bins?status=FULL")
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode filtered list: %v", err)
	}
	if len(list) != 1 || list[0].BinID != "guliston-1" {
		t.Fatalf("filtered bins = %+v", list)
	}

	// Unknown status values fall back to an unfiltered listing.
	resp = doGet(t, handler, "/api/v1/bins?status=bogus")
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("bins with bogus filter = %d, want 2", len(list))
	}

	resp = doGet(t, handler, "/api/v1/bins?location="+fx.locationID+"&status=NOT_FULL")
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].BinID != "guliston-2" {
		t.Fatalf("combined filter bins = %+v", list)
	}
}

func TestBinsHandlerDetail(t *testing.T) {
	fx := newFixture(t)
	handler, err := NewBinsHandler(fx.store)
	if err != nil {
		t.Fatalf("NewBinsHandler: %v", err)
	}

	resp := doGet(t, handler, "/api/v1/bins/"+fx.binID)
	if resp.Code != http.StatusOK {
		t.Fatalf("detail status = %d", resp.Code)
	}
	var detail binDetailDTO
	if err := json.Unmarshal(resp.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.BinID != "guliston-1" {
		t.Fatalf("detail bin id = %q", detail.BinID)
	}
	if detail.Neighborhood != "Guliston" || detail.Address != "12-uy" {
		t.Fatalf("detail labels = %q / %q", detail.Neighborhood, detail.Address)
	}
	if len(detail.History) != 2 {
		t.Fatalf("history rows = %d, want 2", len(detail.History))
	}
	if detail.History[0].Status != string(waste.StatusFull) {
		t.Fatalf("newest history status = %q, want newest first", detail.History[0].Status)
	}

	resp = doGet(t, handler, "/api/v1/bins/missing")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", resp.Code)
	}
}

func TestHandlersRejectWrites(t *testing.T) {
	fx := newFixture(t)
	handler, err := NewBinsHandler(fx.store)
	if err != nil {
		t.Fatalf("NewBinsHandler: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bins", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", resp.Code, http.StatusMethodNotAllowed)
	}
}
