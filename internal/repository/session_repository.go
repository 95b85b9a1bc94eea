package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"farmap/api/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session models.Session) error {
	const query = `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.Token,
		session.UserID,
		session.ExpiresAt.UTC(),
		session.CreatedAt.UTC(),
	)
	return err
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (models.Session, error) {
	const query = `
		SELECT token, user_id, expires_at, created_at
		FROM sessions WHERE token = ?
	`

	row := r.db.QueryRowContext(ctx, query, token)
	var session models.Session
	if err := row.Scan(
		&session.Token,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}

func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	const query = `DELETE FROM sessions WHERE token = ?`
	_, err := r.db.ExecContext(ctx, query, token)
	return err
}

// DeleteExpired removes sessions past their expiry. Expiry is checked
// logically on every resolve; this only reclaims storage.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at <= ?`
	cmd, err := r.db.ExecContext(ctx, query, now.UTC())
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected()
}
