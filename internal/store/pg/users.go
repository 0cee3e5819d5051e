package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"hfrat.org/internal/auth"
	"hfrat.org/internal/ids"
)

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	email := strings.TrimSpace(strings.ToLower(u.Email))
	if email == "" {
		return auth.ErrInvalidInput
	}
	if u.ID == "" {
		u.ID = ids.New()
	}

	row := s.db.QueryRowContext(ctx, `
		insert into users (id, email, password_hash, role, facility_id)
		values ($1, $2, $3, $4, nullif($5, ''))
		returning created_at, updated_at
	`, u.ID, email, u.PasswordHash, string(u.Role), u.FacilityID)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return auth.ErrAlreadyExists
			case pgErrForeignKeyViolation:
				return auth.ErrNotFound
			}
		}
		return err
	}
	u.Email = email
	return nil
}

func (s *Store) FindUser(ctx context.Context, id string) (*auth.User, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	return s.scanUser(s.db.QueryRowContext(ctx, `
		select id, email, password_hash, role, facility_id, created_at, updated_at
		from users
		where id = $1
	`, id))
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	email = strings.TrimSpace(strings.ToLower(email))
	return s.scanUser(s.db.QueryRowContext(ctx, `
		select id, email, password_hash, role, facility_id, created_at, updated_at
		from users
		where email = $1
	`, email))
}

func (s *Store) ListUsers(ctx context.Context) ([]*auth.User, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, email, password_hash, role, facility_id, created_at, updated_at
		from users
		order by created_at desc, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanUser(row *sql.Row) (*auth.User, error) {
	u, err := scanUserRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func scanUserRow(row rowScanner) (*auth.User, error) {
	var (
		u        auth.User
		role     string
		facility sql.NullString
		created  time.Time
		updated  time.Time
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &facility, &created, &updated); err != nil {
		return nil, err
	}
	parsed, err := auth.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.Role = parsed
	if facility.Valid {
		u.FacilityID = facility.String
	}
	u.CreatedAt = created
	u.UpdatedAt = updated
	return &u, nil
}
