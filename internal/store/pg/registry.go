package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hfrat.org/internal/ids"
	"hfrat.org/internal/registry"
)

func (s *Store) CreateFacility(ctx context.Context, name, country, city string) (registry.Facility, error) {
	if s.db == nil {
		return registry.Facility{}, errors.New("database connection unavailable")
	}
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return registry.Facility{}, fmt.Errorf("%w: facility name must be at least 2 characters", registry.ErrInvalidInput)
	}
	if len(name) > 150 {
		return registry.Facility{}, fmt.Errorf("%w: facility name too long", registry.ErrInvalidInput)
	}

	fac := registry.Facility{
		ID:      ids.New(),
		Name:    name,
		Country: strings.TrimSpace(country),
		City:    strings.TrimSpace(city),
	}
	row := s.db.QueryRowContext(ctx, `
		insert into facilities (id, name, country, city)
		values ($1, $2, nullif($3, ''), nullif($4, ''))
		returning created_at
	`, fac.ID, fac.Name, fac.Country, fac.City)
	if err := row.Scan(&fac.CreatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return registry.Facility{}, registry.ErrConflict
		}
		return registry.Facility{}, err
	}
	return fac, nil
}

func (s *Store) GetFacility(ctx context.Context, id string) (registry.Facility, error) {
	if s.db == nil {
		return registry.Facility{}, errors.New("database connection unavailable")
	}
	var (
		fac     registry.Facility
		country sql.NullString
		city    sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, name, country, city, created_at
		from facilities
		where id = $1
	`, id).Scan(&fac.ID, &fac.Name, &country, &city, &fac.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.Facility{}, registry.ErrNotFound
	}
	if err != nil {
		return registry.Facility{}, err
	}
	fac.Country = country.String
	fac.City = city.String
	return fac, nil
}

func (s *Store) ListFacilities(ctx context.Context) ([]registry.Facility, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, name, country, city, created_at
		from facilities
		order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []registry.Facility
	for rows.Next() {
		var (
			fac     registry.Facility
			country sql.NullString
			city    sql.NullString
		)
		if err := rows.Scan(&fac.ID, &fac.Name, &country, &city, &fac.CreatedAt); err != nil {
			return nil, err
		}
		fac.Country = country.String
		fac.City = city.String
		out = append(out, fac)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteFacility(ctx context.Context, id string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `delete from facilities where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return registry.ErrNotFound
	}
	return nil
}

func (s *Store) SubmitReport(ctx context.Context, facilityID string, icuBeds, ventilators, staff int) (registry.ResourceReport, error) {
	if s.db == nil {
		return registry.ResourceReport{}, errors.New("database connection unavailable")
	}
	for _, c := range []int{icuBeds, ventilators, staff} {
		if c < 0 || c > registry.MaxResourceCount {
			return registry.ResourceReport{}, fmt.Errorf("%w: resource counts must be within [0, %d]", registry.ErrInvalidInput, registry.MaxResourceCount)
		}
	}

	report := registry.ResourceReport{
		ID:                   ids.New(),
		FacilityID:           facilityID,
		ICUBedsAvailable:     icuBeds,
		VentilatorsAvailable: ventilators,
		StaffOnDuty:          staff,
	}
	row := s.db.QueryRowContext(ctx, `
		insert into resource_reports (id, facility_id, icu_beds_available, ventilators_available, staff_on_duty)
		values ($1, $2, $3, $4, $5)
		returning updated_at
	`, report.ID, facilityID, icuBeds, ventilators, staff)
	if err := row.Scan(&report.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return registry.ResourceReport{}, registry.ErrNotFound
		}
		return registry.ResourceReport{}, err
	}
	return report, nil
}

func (s *Store) LatestReport(ctx context.Context, facilityID string) (registry.ResourceReport, error) {
	if s.db == nil {
		return registry.ResourceReport{}, errors.New("database connection unavailable")
	}
	var report registry.ResourceReport
	err := s.db.QueryRowContext(ctx, `
		select id, facility_id, icu_beds_available, ventilators_available, staff_on_duty, updated_at
		from resource_reports
		where facility_id = $1
		order by updated_at desc, id desc
		limit 1
	`, facilityID).Scan(&report.ID, &report.FacilityID, &report.ICUBedsAvailable,
		&report.VentilatorsAvailable, &report.StaffOnDuty, &report.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.ResourceReport{}, registry.ErrNotFound
	}
	if err != nil {
		return registry.ResourceReport{}, err
	}
	return report, nil
}

func (s *Store) DashboardSummary(ctx context.Context) ([]registry.FacilitySummary, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select f.id, f.name, f.country, f.city,
		       r.icu_beds_available, r.ventilators_available, r.staff_on_duty, r.updated_at
		from facilities f
		left join lateral (
			select icu_beds_available, ventilators_available, staff_on_duty, updated_at
			from resource_reports
			where facility_id = f.id
			order by updated_at desc, id desc
			limit 1
		) r on true
		order by f.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []registry.FacilitySummary
	for rows.Next() {
		var (
			row        registry.FacilitySummary
			country    sql.NullString
			city       sql.NullString
			icu        sql.NullInt64
			vents      sql.NullInt64
			staff      sql.NullInt64
			lastUpdate sql.NullTime
		)
		if err := rows.Scan(&row.FacilityID, &row.FacilityName, &country, &city,
			&icu, &vents, &staff, &lastUpdate); err != nil {
			return nil, err
		}
		row.Country = country.String
		row.City = city.String
		if icu.Valid {
			v := int(icu.Int64)
			row.ICUBedsAvailable = &v
			row.Critical = v == 0
		}
		if vents.Valid {
			v := int(vents.Int64)
			row.VentilatorsAvailable = &v
		}
		if staff.Valid {
			v := int(staff.Int64)
			row.StaffOnDuty = &v
		}
		if lastUpdate.Valid {
			ts := lastUpdate.Time
			row.LastUpdate = &ts
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ReportHistory(ctx context.Context, facilityID string, since time.Time) ([]registry.ResourceReport, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	var one int
	err := s.db.QueryRowContext(ctx, `select 1 from facilities where id = $1`, facilityID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select id, facility_id, icu_beds_available, ventilators_available, staff_on_duty, updated_at
		from resource_reports
		where facility_id = $1 and updated_at >= $2
		order by updated_at asc, id asc
	`, facilityID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []registry.ResourceReport
	for rows.Next() {
		var report registry.ResourceReport
		if err := rows.Scan(&report.ID, &report.FacilityID, &report.ICUBedsAvailable,
			&report.VentilatorsAvailable, &report.StaffOnDuty, &report.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
