package registry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFacilityLifecycle(t *testing.T) {
	svc := NewInMemory()
	ctx := context.Background()

	fac, err := svc.CreateFacility(ctx, "City General Hospital", "USA", "New York")
	if err != nil {
		t.Fatalf("CreateFacility: %v", err)
	}
	if fac.ID == "" {
		t.Fatal("expected generated id")
	}

	if _, err := svc.CreateFacility(ctx, "city general hospital", "", ""); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate name, got %v", err)
	}
	if _, err := svc.CreateFacility(ctx, "x", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short name, got %v", err)
	}

	got, err := svc.GetFacility(ctx, fac.ID)
	if err != nil || got.Name != "City General Hospital" {
		t.Fatalf("GetFacility: %+v %v", got, err)
	}

	list, err := svc.ListFacilities(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListFacilities: %d, %v", len(list), err)
	}

	if err := svc.DeleteFacility(ctx, fac.ID); err != nil {
		t.Fatalf("DeleteFacility: %v", err)
	}
	if err := svc.DeleteFacility(ctx, fac.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitAndLatestReport(t *testing.T) {
	svc := NewInMemory()
	ctx := context.Background()

	fac, err := svc.CreateFacility(ctx, "Royal Victoria Hospital", "UK", "London")
	if err != nil {
		t.Fatalf("CreateFacility: %v", err)
	}

	if _, err := svc.SubmitReport(ctx, "missing", 1, 1, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.SubmitReport(ctx, fac.ID, -1, 0, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative count, got %v", err)
	}
	if _, err := svc.SubmitReport(ctx, fac.ID, MaxResourceCount+1, 0, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized count, got %v", err)
	}

	if _, err := svc.LatestReport(ctx, fac.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first report, got %v", err)
	}

	first, err := svc.SubmitReport(ctx, fac.ID, 5, 3, 12)
	if err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	second, err := svc.SubmitReport(ctx, fac.ID, 2, 3, 10)
	if err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("reports must have distinct ids")
	}

	latest, err := svc.LatestReport(ctx, fac.ID)
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if latest.ID != second.ID || latest.ICUBedsAvailable != 2 {
		t.Fatalf("unexpected latest report: %+v", latest)
	}
}

func TestDashboardSummary(t *testing.T) {
	svc := NewInMemory()
	ctx := context.Background()

	a, _ := svc.CreateFacility(ctx, "Alpha Clinic", "", "")
	b, _ := svc.CreateFacility(ctx, "Beta Clinic", "", "")
	c, _ := svc.CreateFacility(ctx, "Gamma Clinic", "", "")

	if _, err := svc.SubmitReport(ctx, a.ID, 0, 2, 4); err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	if _, err := svc.SubmitReport(ctx, b.ID, 6, 2, 4); err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}

	summary, err := svc.DashboardSummary(ctx)
	if err != nil {
		t.Fatalf("DashboardSummary: %v", err)
	}
	if len(summary) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(summary))
	}
	// Sorted by name: Alpha, Beta, Gamma.
	if !summary[0].Critical {
		t.Fatal("facility with zero ICU beds should be critical")
	}
	if summary[1].Critical {
		t.Fatal("facility with free ICU beds should not be critical")
	}
	if summary[2].LastUpdate != nil || summary[2].Critical {
		t.Fatalf("facility %s without reports should have empty summary", c.ID)
	}
}

func TestReportHistory(t *testing.T) {
	svc := NewInMemory()
	ctx := context.Background()

	fac, _ := svc.CreateFacility(ctx, "Delta Hospital", "", "")
	if _, err := svc.SubmitReport(ctx, fac.ID, 1, 1, 1); err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	if _, err := svc.SubmitReport(ctx, fac.ID, 2, 2, 2); err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}

	all, err := svc.ReportHistory(ctx, fac.ID, time.Now().Add(-time.Hour))
	if err != nil || len(all) != 2 {
		t.Fatalf("ReportHistory: %d, %v", len(all), err)
	}
	none, err := svc.ReportHistory(ctx, fac.ID, time.Now().Add(time.Hour))
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty history, got %d, %v", len(none), err)
	}
	if _, err := svc.ReportHistory(ctx, "missing", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
