package reporting

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cleanbin-cloud/internal/audit"
	"cleanbin-cloud/internal/auth"
	"cleanbin-cloud/internal/waste/infrastructure/memory"

	waste "cleanbin-cloud/internal/waste/domain"
)

func seedStore(t *testing.T) (*memory.Store, string) {
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
	err = store.Bins().Create(ctx, &waste.Bin{
		ID:          "row-1",
		BinID:       "guliston-1",
		SensorID:    "sensor-1",
		LocationID:  location.ID,
		Status:      waste.StatusFull,
		LastUpdated: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed bin: %v", err)
	}
	return store, district.ID
}

func TestCollectInventory(t *testing.T) {
	store, districtID := seedStore(t)

	rows, err := CollectInventory(context.Background(), store, "")
	if err != nil {
		t.Fatalf("CollectInventory: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.District != "Uchtepa" || row.Neighborhood != "Guliston" || row.Address != "12-uy" {
		t.Fatalf("row labels = %+v", row)
	}

	rows, err = CollectInventory(context.Background(), store, districtID)
	if err != nil {
		t.Fatalf("CollectInventory scoped: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("scoped rows = %d, want 1", len(rows))
	}

	_, err = CollectInventory(context.Background(), store, "missing")
	if !errors.Is(err, ErrDistrictNotFound) {
		t.Fatalf("err = %v, want ErrDistrictNotFound", err)
	}
}

func TestBuildInventoryCSV(t *testing.T) {
	store, _ := seedStore(t)
	rows, err := CollectInventory(context.Background(), store, "")
	if err != nil {
		t.Fatalf("CollectInventory: %v", err)
	}

	payload, err := BuildInventoryCSV(rows)
	if err != nil {
		t.Fatalf("BuildInventoryCSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(payload))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want header plus one row", len(records))
	}
	if records[0][0] != "bin_id" {
		t.Fatalf("header = %v", records[0])
	}
	if records[1][0] != "guliston-1" || records[1][5] != "FULL" {
		t.Fatalf("row = %v", records[1])
	}
}

func TestExportHandler(t *testing.T) {
	store, _ := seedStore(t)
	handler, err := NewExportHandler(store, nil)
	if err != nil {
		t.Fatalf("NewExportHandler: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/bins.csv", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("csv status = %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("content type = %q", got)
	}
	if !strings.Contains(resp.Body.String(), "guliston-1") {
		t.Fatal("csv body missing bin row")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/exports/bins.txt", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("unsupported format status = %d, want 404", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/exports/bins.csv?district=missing", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("unknown district status = %d, want 404", resp.Code)
	}
}

type recordingAuditLogger struct {
	entries []audit.Entry
}

func (l *recordingAuditLogger) Log(ctx context.Context, entry audit.Entry) error {
	_ = ctx
	l.entries = append(l.entries, entry)
	return nil
}

func TestExportHandlerAuditsActor(t *testing.T) {
	store, _ := seedStore(t)
	auditLogger := &recordingAuditLogger{}
	handler, err := NewExportHandler(store, auditLogger)
	if err != nil {
		t.Fatalf("NewExportHandler: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/bins.csv", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.RoleAdmin, "admin-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}

	if len(auditLogger.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(auditLogger.entries))
	}
	entry := auditLogger.entries[0]
	if entry.Actor != "admin-1" {
		t.Fatalf("actor = %q, want bearer subject", entry.Actor)
	}
	if entry.Action != audit.ActionInventoryExported {
		t.Fatalf("action = %q", entry.Action)
	}
	if !strings.Contains(string(entry.Metadata), `"format":"csv"`) {
		t.Fatalf("metadata = %s", entry.Metadata)
	}
}
