package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"cleanbin-cloud/internal/waste/infrastructure/memory"

	waste "cleanbin-cloud/internal/waste/domain"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	service, err := NewService(store, WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service, store
}

func TestProcessCreatesBinAndHierarchy(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	result, err := service.Process(ctx, Report{
		SensorID:    "sensor-1",
		Status:      waste.StatusFull,
		Location:    "Uchtepa, Guliston, 12-uy",
		PhoneNumber: "+998901234567",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Outcome != OutcomeCreated {
		t.Fatalf("outcome = %s, want %s", result.Outcome, OutcomeCreated)
	}
	if result.Bin.BinID != "guliston-1" {
		t.Fatalf("bin id = %q, want guliston-1", result.Bin.BinID)
	}
	if result.Bin.PhoneNumber != "+998901234567" {
		t.Fatalf("phone = %q", result.Bin.PhoneNumber)
	}

	districts, err := store.Districts().List(ctx)
	if err != nil {
		t.Fatalf("list districts: %v", err)
	}
	if len(districts) != 1 || districts[0].Name != "Uchtepa" {
		t.Fatalf("districts = %+v", districts)
	}
	neighborhoods, err := store.Neighborhoods().List(ctx, districts[0].ID)
	if err != nil {
		t.Fatalf("list neighborhoods: %v", err)
	}
	if len(neighborhoods) != 1 || neighborhoods[0].Name != "Guliston" {
		t.Fatalf("neighborhoods = %+v", neighborhoods)
	}
	locations, err := store.Locations().List(ctx, neighborhoods[0].ID)
	if err != nil {
		t.Fatalf("list locations: %v", err)
	}
	if len(locations) != 1 || locations[0].Address != "12-uy" {
		t.Fatalf("locations = %+v", locations)
	}

	history, err := store.History().ListByBin(ctx, result.Bin.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 || history[0].Status != waste.StatusFull {
		t.Fatalf("history = %+v", history)
	}
}

func TestProcessSameStatusIsNoOp(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	first, err := service.Process(ctx, Report{SensorID: "sensor-1", Status: waste.StatusFull, Location: "Uchtepa, Guliston, 12-uy"})
	if err != nil {
		t.Fatalf("Process create: %v", err)
	}

	result, err := service.Process(ctx, Report{SensorID: "sensor-1", Status: waste.StatusFull})
	if err != nil {
		t.Fatalf("Process repeat: %v", err)
	}
	if result.Outcome != OutcomeUnchanged {
		t.Fatalf("outcome = %s, want %s", result.Outcome, OutcomeUnchanged)
	}

	history, err := store.History().ListByBin(ctx, first.Bin.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history rows = %d, want 1", len(history))
	}
}

func TestProcessStatusChangeAppendsHistory(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	first, err := service.Process(ctx, Report{SensorID: "sensor-1", Status: waste.StatusFull, Location: "Uchtepa, Guliston, 12-uy"})
	if err != nil {
		t.Fatalf("Process create: %v", err)
	}

	result, err := service.Process(ctx, Report{SensorID: "sensor-1", Status: waste.StatusNotFull})
	if err != nil {
		t.Fatalf("Process update: %v", err)
	}
	if result.Outcome != OutcomeUpdated {
		t.Fatalf("outcome = %s, want %s", result.Outcome, OutcomeUpdated)
	}
	if result.Bin.Status != waste.StatusNotFull {
		t.Fatalf("bin status = %s", result.Bin.Status)
	}

	history, err := store.History().ListByBin(ctx, first.Bin.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history rows = %d, want 2", len(history))
	}
	if history[0].Status != waste.StatusNotFull {
		t.Fatalf("newest history status = %s, want %s", history[0].Status, waste.StatusNotFull)
	}
}

func TestProcessUnknownSensor(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		location string
	}{
		{name: "no location", location: ""},
		{name: "unparseable location", location: "just one segment"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Process(ctx, Report{SensorID: "ghost", Status: waste.StatusFull, Location: tc.location})
			if !errors.Is(err, ErrUnknownSensor) {
				t.Fatalf("err = %v, want ErrUnknownSensor", err)
			}
		})
	}
}

func TestProcessRejectsInvalidReports(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.Process(ctx, Report{Status: waste.StatusFull}); err == nil {
		t.Fatal("expected error for empty sensor id")
	}
	if _, err := service.Process(ctx, Report{SensorID: "sensor-1", Status: waste.Status("BROKEN")}); err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestProcessDerivesSequentialBinIDs(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	first, err := service.Process(ctx, Report{SensorID: "sensor-1", Status: waste.StatusFull, Location: "Uchtepa, Guliston, 12-uy"})
	if err != nil {
		t.Fatalf("Process first: %v", err)
	}
	second, err := service.Process(ctx, Report{SensorID: "sensor-2", Status: waste.StatusNotFull, Location: "Uchtepa, Guliston, 14-uy"})
	if err != nil {
		t.Fatalf("Process second: %v", err)
	}
	if first.Bin.BinID != "guliston-1" || second.Bin.BinID != "guliston-2" {
		t.Fatalf("bin ids = %q, %q", first.Bin.BinID, second.Bin.BinID)
	}
}

func TestProcessRetriesOnDuplicateBinID(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	// Occupy the count-based id the next create would derive. The service
	// must restart the transaction and shift the suffix instead of failing.
	err := store.Bins().Create(ctx, &waste.Bin{
		ID:         "existing",
		BinID:      "guliston-2",
		SensorID:   "sensor-other",
		LocationID: "loc-other",
		Status:     waste.StatusNotFull,
	})
	if err != nil {
		t.Fatalf("seed bin: %v", err)
	}

	result, err := service.Process(ctx, Report{SensorID: "sensor-1", Status: waste.StatusFull, Location: "Uchtepa, Guliston, 12-uy"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Outcome != OutcomeCreated {
		t.Fatalf("outcome = %s, want %s", result.Outcome, OutcomeCreated)
	}
	if result.Bin.BinID == "guliston-2" {
		t.Fatal("derived bin id collided with the seeded one")
	}
}

func TestProcessDuplicateSensorReportConverges(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	first, err := service.Process(ctx, Report{SensorID: "sensor-1", Status: waste.StatusFull, Location: "Uchtepa, Guliston, 12-uy"})
	if err != nil {
		t.Fatalf("Process first: %v", err)
	}
	second, err := service.Process(ctx, Report{SensorID: "sensor-1", Status: waste.StatusFull, Location: "Uchtepa, Guliston, 12-uy"})
	if err != nil {
		t.Fatalf("Process second: %v", err)
	}
	if second.Outcome != OutcomeUnchanged {
		t.Fatalf("outcome = %s, want %s", second.Outcome, OutcomeUnchanged)
	}
	if second.Bin.ID != first.Bin.ID {
		t.Fatalf("bin ids differ: %q vs %q", first.Bin.ID, second.Bin.ID)
	}

	count, err := store.Bins().Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("bin count = %d, want 1", count)
	}
}
