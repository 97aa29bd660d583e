package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"portal-web/internal/backend"
)

type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

func (r *PGRepo) Create(ctx context.Context, s Session) error {
	const query = `
INSERT INTO portal_sessions (id, token, user_id, user_email, user_name, user_role, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		s.ID,
		s.Token,
		s.User.ID.String(),
		nullableString(s.User.Email),
		nullableString(s.User.Name),
		nullableString(s.User.Role),
		s.CreatedAt,
		s.ExpiresAt,
	)
	return err
}

func (r *PGRepo) Get(ctx context.Context, id string) (Session, error) {
	const query = `
SELECT id, token, user_id, user_email, user_name, user_role, created_at, expires_at
FROM portal_sessions
WHERE id = $1
LIMIT 1`
	var s Session
	var userID string
	var email, name, role sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.Token,
		&userID,
		&email,
		&name,
		&role,
		&s.CreatedAt,
		&s.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	s.User = backend.User{
		ID:    backend.ID(userID),
		Email: email.String,
		Name:  name.String,
		Role:  role.String,
	}
	return s, nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM portal_sessions WHERE id = $1`, id)
	return err
}

func (r *PGRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM portal_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
