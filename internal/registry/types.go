package registry

import (
	"errors"
	"time"
)

// Facility is a health facility tracked by the assessment tool.
type Facility struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country,omitempty"`
	City      string    `json:"city,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ResourceReport is a capacity snapshot submitted for a facility. Reports are
// append-only; the newest one per facility is the live snapshot.
type ResourceReport struct {
	ID                   string    `json:"id"`
	FacilityID           string    `json:"facility_id"`
	ICUBedsAvailable     int       `json:"icu_beds_available"`
	VentilatorsAvailable int       `json:"ventilators_available"`
	StaffOnDuty          int       `json:"staff_on_duty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// FacilitySummary is a dashboard row: facility metadata joined with its
// latest report, if any.
type FacilitySummary struct {
	FacilityID           string     `json:"facility_id"`
	FacilityName         string     `json:"facility_name"`
	Country              string     `json:"country,omitempty"`
	City                 string     `json:"city,omitempty"`
	ICUBedsAvailable     *int       `json:"icu_beds_available"`
	VentilatorsAvailable *int       `json:"ventilators_available"`
	StaffOnDuty          *int       `json:"staff_on_duty"`
	LastUpdate           *time.Time `json:"last_update"`
	Critical             bool       `json:"critical"`
}

// MaxResourceCount bounds every reported counter.
const MaxResourceCount = 10000

var (
	ErrNotFound     = errors.New("registry: not found")
	ErrConflict     = errors.New("registry: already exists")
	ErrInvalidInput = errors.New("registry: invalid input")
)
