package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"hfrat.org/internal/ids"
)

// Service defines facility and resource-report operations.
type Service interface {
	CreateFacility(ctx context.Context, name, country, city string) (Facility, error)
	GetFacility(ctx context.Context, id string) (Facility, error)
	ListFacilities(ctx context.Context) ([]Facility, error)
	DeleteFacility(ctx context.Context, id string) error

	SubmitReport(ctx context.Context, facilityID string, icuBeds, ventilators, staff int) (ResourceReport, error)
	LatestReport(ctx context.Context, facilityID string) (ResourceReport, error)
	DashboardSummary(ctx context.Context) ([]FacilitySummary, error)
	ReportHistory(ctx context.Context, facilityID string, since time.Time) ([]ResourceReport, error)
}

// InMemory implements Service with in-process concurrency safety. Used when
// no database is configured and throughout the test suite.
type InMemory struct {
	mu         sync.RWMutex
	facilities map[string]*Facility
	reports    map[string][]ResourceReport // facilityID -> reports, oldest first
}

var _ Service = (*InMemory)(nil)

// NewInMemory creates an empty registry.
func NewInMemory() *InMemory {
	return &InMemory{
		facilities: make(map[string]*Facility),
		reports:    make(map[string][]ResourceReport),
	}
}

func (s *InMemory) CreateFacility(ctx context.Context, name, country, city string) (Facility, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return Facility{}, fmt.Errorf("%w: facility name must be at least 2 characters", ErrInvalidInput)
	}
	if len(name) > 150 {
		return Facility{}, fmt.Errorf("%w: facility name too long", ErrInvalidInput)
	}
	country = clampField(country)
	city = clampField(city)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.facilities {
		if strings.EqualFold(f.Name, name) {
			return Facility{}, ErrConflict
		}
	}
	fac := &Facility{
		ID:        ids.New(),
		Name:      name,
		Country:   country,
		City:      city,
		CreatedAt: time.Now().UTC(),
	}
	s.facilities[fac.ID] = fac
	return *fac, nil
}

func (s *InMemory) GetFacility(ctx context.Context, id string) (Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fac, ok := s.facilities[id]
	if !ok {
		return Facility{}, ErrNotFound
	}
	return *fac, nil
}

func (s *InMemory) ListFacilities(ctx context.Context) ([]Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Facility, 0, len(s.facilities))
	for _, f := range s.facilities {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) DeleteFacility(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.facilities[id]; !ok {
		return ErrNotFound
	}
	delete(s.facilities, id)
	delete(s.reports, id)
	return nil
}

func (s *InMemory) SubmitReport(ctx context.Context, facilityID string, icuBeds, ventilators, staff int) (ResourceReport, error) {
	if err := validateCounts(icuBeds, ventilators, staff); err != nil {
		return ResourceReport{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.facilities[facilityID]; !ok {
		return ResourceReport{}, ErrNotFound
	}
	report := ResourceReport{
		ID:                   ids.New(),
		FacilityID:           facilityID,
		ICUBedsAvailable:     icuBeds,
		VentilatorsAvailable: ventilators,
		StaffOnDuty:          staff,
		UpdatedAt:            time.Now().UTC(),
	}
	s.reports[facilityID] = append(s.reports[facilityID], report)
	return report, nil
}

func (s *InMemory) LatestReport(ctx context.Context, facilityID string) (ResourceReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.facilities[facilityID]; !ok {
		return ResourceReport{}, ErrNotFound
	}
	history := s.reports[facilityID]
	if len(history) == 0 {
		return ResourceReport{}, ErrNotFound
	}
	return history[len(history)-1], nil
}

func (s *InMemory) DashboardSummary(ctx context.Context) ([]FacilitySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FacilitySummary, 0, len(s.facilities))
	for _, f := range s.facilities {
		row := FacilitySummary{
			FacilityID:   f.ID,
			FacilityName: f.Name,
			Country:      f.Country,
			City:         f.City,
		}
		if history := s.reports[f.ID]; len(history) > 0 {
			latest := history[len(history)-1]
			row.ICUBedsAvailable = intPtr(latest.ICUBedsAvailable)
			row.VentilatorsAvailable = intPtr(latest.VentilatorsAvailable)
			row.StaffOnDuty = intPtr(latest.StaffOnDuty)
			ts := latest.UpdatedAt
			row.LastUpdate = &ts
			row.Critical = latest.ICUBedsAvailable == 0
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FacilityName < out[j].FacilityName })
	return out, nil
}

func (s *InMemory) ReportHistory(ctx context.Context, facilityID string, since time.Time) ([]ResourceReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.facilities[facilityID]; !ok {
		return nil, ErrNotFound
	}
	var out []ResourceReport
	for _, r := range s.reports[facilityID] {
		if !r.UpdatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func validateCounts(counts ...int) error {
	for _, c := range counts {
		if c < 0 || c > MaxResourceCount {
			return fmt.Errorf("%w: resource counts must be within [0, %d]", ErrInvalidInput, MaxResourceCount)
		}
	}
	return nil
}

func clampField(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > 120 {
		v = v[:120]
	}
	return v
}

func intPtr(v int) *int { return &v }
