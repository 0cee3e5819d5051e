package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"hfrat.org/internal/auth"
	"hfrat.org/internal/registry"
)

var (
	pgUniqueErr     = pgconn.PgError{Code: pgErrUniqueViolation}
	pgForeignKeyErr = pgconn.PgError{Code: pgErrForeignKeyViolation}
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into users").
		WithArgs(sqlmock.AnyArg(), "nurse@hospital.example", sqlmock.AnyArg(), "reporter", "fac-1").
		WillReturnError(&pgUniqueErr)

	err := store.CreateUser(context.Background(), &auth.User{
		Email:        "Nurse@Hospital.example",
		PasswordHash: "hash",
		Role:         auth.RoleReporter,
		FacilityID:   "fac-1",
	})
	if !errors.Is(err, auth.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindUserByEmailNormalizes(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "facility_id", "created_at", "updated_at"}).
		AddRow("u-1", "nurse@hospital.example", "hash", "reporter", "fac-1", now, now)
	mock.ExpectQuery("select id, email, password_hash, role, facility_id").
		WithArgs("nurse@hospital.example").
		WillReturnRows(rows)

	u, err := store.FindUserByEmail(context.Background(), "  NURSE@hospital.example ")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if u.Role != auth.RoleReporter || u.FacilityID != "fac-1" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select id, email, password_hash, role, facility_id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "facility_id", "created_at", "updated_at"}))

	if _, err := store.FindUser(context.Background(), "missing"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRevocationRoundTrip(t *testing.T) {
	store, mock := newMockStore(t)
	exp := time.Now().Add(time.Hour).UTC()

	mock.ExpectExec("insert into revoked_tokens").
		WithArgs("jti-1", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("select 1 from revoked_tokens").
		WithArgs("jti-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("select 1 from revoked_tokens").
		WithArgs("jti-2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	if err := store.Revoke(context.Background(), "jti-1", exp); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	revoked, err := store.IsRevoked(context.Background(), "jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected jti-1 revoked, got %v %v", revoked, err)
	}
	revoked, err = store.IsRevoked(context.Background(), "jti-2")
	if err != nil || revoked {
		t.Fatalf("expected jti-2 not revoked, got %v %v", revoked, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPurgeExpiredReportsCount(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("delete from revoked_tokens").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.PurgeExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 purged, got %d", n)
	}
}

func TestSubmitReportValidatesCounts(t *testing.T) {
	store, _ := newMockStore(t)

	_, err := store.SubmitReport(context.Background(), "fac-1", -1, 0, 0)
	if !errors.Is(err, registry.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	_, err = store.SubmitReport(context.Background(), "fac-1", 0, registry.MaxResourceCount+1, 0)
	if !errors.Is(err, registry.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSubmitReportUnknownFacility(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into resource_reports").
		WithArgs(sqlmock.AnyArg(), "fac-missing", 1, 2, 3).
		WillReturnError(&pgForeignKeyErr)

	if _, err := store.SubmitReport(context.Background(), "fac-missing", 1, 2, 3); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDashboardSummaryCriticalFlag(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "name", "country", "city",
		"icu_beds_available", "ventilators_available", "staff_on_duty", "updated_at",
	}).
		AddRow("fac-1", "Alpha Clinic", "KZ", "Almaty", 0, 4, 12, now).
		AddRow("fac-2", "Beta Hospital", nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery("select f.id, f.name").WillReturnRows(rows)

	out, err := store.DashboardSummary(context.Background())
	if err != nil {
		t.Fatalf("DashboardSummary: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if !out[0].Critical {
		t.Fatal("expected zero-ICU facility flagged critical")
	}
	if out[1].Critical || out[1].ICUBedsAvailable != nil || out[1].LastUpdate != nil {
		t.Fatalf("expected empty snapshot for facility without reports: %+v", out[1])
	}
}

func TestDeleteFacilityNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("delete from facilities").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteFacility(context.Background(), "missing"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
