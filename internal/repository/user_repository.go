package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"farmap/api/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, fid int64, displayName, displayImage *string) (models.User, error) {
	const query = `
		INSERT INTO users (fid, display_name, display_image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, fid, displayName, displayImage, now, now)
	if err != nil {
		return models.User{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}

	return models.User{
		ID:           id,
		Fid:          fid,
		DisplayName:  displayName,
		DisplayImage: displayImage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	const query = `
		SELECT id, fid, display_name, display_image, created_at, updated_at
		FROM users WHERE id = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByFid(ctx context.Context, fid int64) (models.User, error) {
	const query = `
		SELECT id, fid, display_name, display_image, created_at, updated_at
		FROM users WHERE fid = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, fid))
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, displayName, displayImage *string) error {
	const query = `
		UPDATE users SET display_name = ?, display_image = ?, updated_at = ? WHERE id = ?
	`
	cmd, err := r.db.ExecContext(ctx, query, displayName, displayImage, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	affected, err := cmd.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Fid,
		&user.DisplayName,
		&user.DisplayImage,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
