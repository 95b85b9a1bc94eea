package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"farmap/api/internal/models"
)

var ErrInvalidOrExpiredNonce = errors.New("invalid or expired nonce")

type NonceRepository struct {
	db *sql.DB
}

func NewNonceRepository(db *sql.DB) *NonceRepository {
	return &NonceRepository{db: db}
}

func (r *NonceRepository) Create(ctx context.Context, nonce models.Nonce) error {
	const query = `
		INSERT INTO nonces (nonce, expires_at, created_at)
		VALUES (?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		nonce.Nonce,
		nonce.ExpiresAt.UTC(),
		nonce.CreatedAt.UTC(),
	)
	return err
}

// Consume deletes the nonce and reports whether it was still valid.
// The row is removed whatever the answer: a nonce can be successfully
// consumed at most once, and even a failed attempt burns it.
func (r *NonceRepository) Consume(ctx context.Context, nonce string, now time.Time) error {
	const query = `DELETE FROM nonces WHERE nonce = ? AND expires_at > ?`
	cmd, err := r.db.ExecContext(ctx, query, nonce, now.UTC())
	if err != nil {
		return err
	}
	affected, err := cmd.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Burn a stale row if one is still lying around.
		const purge = `DELETE FROM nonces WHERE nonce = ?`
		if _, err := r.db.ExecContext(ctx, purge, nonce); err != nil {
			return err
		}
		return ErrInvalidOrExpiredNonce
	}
	return nil
}

func (r *NonceRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM nonces WHERE expires_at <= ?`
	cmd, err := r.db.ExecContext(ctx, query, now.UTC())
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected()
}
