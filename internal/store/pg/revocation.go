package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

func (s *Store) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	_, err := s.db.ExecContext(ctx, `
		insert into revoked_tokens (token_id, expires_at)
		values ($1, $2)
		on conflict (token_id) do nothing
	`, tokenID, expiresAt.UTC())
	return err
}

func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s.db == nil {
		return false, errors.New("database connection unavailable")
	}
	var one int
	err := s.db.QueryRowContext(ctx, `
		select 1 from revoked_tokens where token_id = $1
	`, tokenID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	if s.db == nil {
		return 0, errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `
		delete from revoked_tokens where expires_at <= $1
	`, now.UTC())
	if err != nil {
		return 0, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(aff), nil
}
