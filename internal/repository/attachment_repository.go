package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"farmap/api/internal/models"
)

var ErrAttachmentNotFound = errors.New("attachment not found")

// BoundingBox is an inclusive lat/long window for spatial queries.
type BoundingBox struct {
	MinLat  float64
	MaxLat  float64
	MinLong float64
	MaxLong float64
}

// AttachmentFilter narrows a paged attachment query. A nil field means
// "don't filter on this dimension". Cursor is the id of the last row
// of the previous page (results are keyset-paged, newest first).
type AttachmentFilter struct {
	UserID *int64
	BBox   *BoundingBox
	Cursor *int64
	Limit  int
}

type AttachmentPage struct {
	Attachments []models.Attachment
	NextCursor  *int64
	TotalCount  int
}

type AttachmentRepository struct {
	db *sql.DB
}

func NewAttachmentRepository(db *sql.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, attachment models.Attachment) (int64, error) {
	const query = `
		INSERT INTO attachments (latitude, longitude, file_url, file_type, preview_url, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		attachment.Latitude,
		attachment.Longitude,
		attachment.FileURL,
		attachment.FileType,
		attachment.PreviewURL,
		attachment.UserID,
		now,
		now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const attachmentColumns = `id, latitude, longitude, file_url, file_type, preview_url, user_id, created_at, updated_at`

func (r *AttachmentRepository) GetByID(ctx context.Context, id int64) (models.Attachment, error) {
	query := fmt.Sprintf(`SELECT %s FROM attachments WHERE id = ?`, attachmentColumns)

	row := r.db.QueryRowContext(ctx, query, id)
	attachment, err := scanAttachment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Attachment{}, ErrAttachmentNotFound
		}
		return models.Attachment{}, err
	}
	return attachment, nil
}

// GetByIDs returns the attachments that exist among ids, newest first.
// Missing ids are silently omitted.
func (r *AttachmentRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Attachment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := fmt.Sprintf(
		`SELECT %s FROM attachments WHERE id IN (%s) ORDER BY id DESC`,
		attachmentColumns, placeholders,
	)

	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAttachments(rows)
}

func (r *AttachmentRepository) Query(ctx context.Context, filter AttachmentFilter) (AttachmentPage, error) {
	where, args := buildFilter(filter)

	countQuery := `SELECT COUNT(*) FROM attachments` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return AttachmentPage{}, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	pageWhere, pageArgs := where, args
	if filter.Cursor != nil {
		if pageWhere == "" {
			pageWhere = ` WHERE id < ?`
		} else {
			pageWhere += ` AND id < ?`
		}
		pageArgs = append(append([]any{}, args...), *filter.Cursor)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM attachments%s ORDER BY id DESC LIMIT ?`,
		attachmentColumns, pageWhere,
	)
	pageArgs = append(pageArgs, limit+1)

	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return AttachmentPage{}, err
	}
	defer rows.Close()

	attachments, err := collectAttachments(rows)
	if err != nil {
		return AttachmentPage{}, err
	}

	page := AttachmentPage{TotalCount: total}
	if len(attachments) > limit {
		attachments = attachments[:limit]
		last := attachments[len(attachments)-1].ID
		page.NextCursor = &last
	}
	page.Attachments = attachments
	return page, nil
}

func (r *AttachmentRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM attachments WHERE id = ?`
	cmd, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := cmd.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}

// SetPreviewURL writes the cached preview URL once. It reports whether
// this call won the write: a previous non-null value is left untouched
// so concurrent regenerations converge on a single URL.
func (r *AttachmentRepository) SetPreviewURL(ctx context.Context, id int64, url string) (bool, error) {
	const query = `
		UPDATE attachments SET preview_url = ?, updated_at = ?
		WHERE id = ? AND preview_url IS NULL
	`
	cmd, err := r.db.ExecContext(ctx, query, url, time.Now().UTC(), id)
	if err != nil {
		return false, err
	}
	affected, err := cmd.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListWithCreators returns every attachment joined with its creator,
// newest first. Backs the public map feed.
func (r *AttachmentRepository) ListWithCreators(ctx context.Context) ([]models.AttachmentWithCreator, error) {
	const query = `
		SELECT
			a.id, a.latitude, a.longitude, a.file_url, a.file_type, a.preview_url, a.user_id, a.created_at, a.updated_at,
			u.id, u.fid, u.display_name, u.display_image, u.created_at, u.updated_at
		FROM attachments a
		JOIN users u ON a.user_id = u.id
		ORDER BY a.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.AttachmentWithCreator
	for rows.Next() {
		var item models.AttachmentWithCreator
		if err := rows.Scan(
			&item.Attachment.ID,
			&item.Attachment.Latitude,
			&item.Attachment.Longitude,
			&item.Attachment.FileURL,
			&item.Attachment.FileType,
			&item.Attachment.PreviewURL,
			&item.Attachment.UserID,
			&item.Attachment.CreatedAt,
			&item.Attachment.UpdatedAt,
			&item.Creator.ID,
			&item.Creator.Fid,
			&item.Creator.DisplayName,
			&item.Creator.DisplayImage,
			&item.Creator.CreatedAt,
			&item.Creator.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func buildFilter(filter AttachmentFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.UserID != nil {
		clauses = append(clauses, `user_id = ?`)
		args = append(args, *filter.UserID)
	}
	if filter.BBox != nil {
		clauses = append(clauses, `latitude BETWEEN ? AND ?`, `longitude BETWEEN ? AND ?`)
		args = append(args, filter.BBox.MinLat, filter.BBox.MaxLat, filter.BBox.MinLong, filter.BBox.MaxLong)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttachment(row rowScanner) (models.Attachment, error) {
	var attachment models.Attachment
	err := row.Scan(
		&attachment.ID,
		&attachment.Latitude,
		&attachment.Longitude,
		&attachment.FileURL,
		&attachment.FileType,
		&attachment.PreviewURL,
		&attachment.UserID,
		&attachment.CreatedAt,
		&attachment.UpdatedAt,
	)
	return attachment, err
}

func collectAttachments(rows *sql.Rows) ([]models.Attachment, error) {
	var attachments []models.Attachment
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, attachment)
	}
	return attachments, rows.Err()
}
