package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"farmap/api/internal/background"
	"farmap/api/internal/models"
	"farmap/api/internal/repository"
	"farmap/api/internal/storage"
)

var ErrNotOwner = errors.New("not the attachment owner")

// FileStore is the broker for stored photo objects. Implemented by
// storage.ObjectStore; faked in tests.
type FileStore interface {
	PresignUpload(ctx context.Context, filename, contentType string, size int64) (storage.UploadHandle, error)
	ConfirmExists(ctx context.Context, fileID string) error
	PublicURL(fileID string) string
	FileIDFromURL(fileURL string) string
	FetchBytes(ctx context.Context, fileID string) ([]byte, error)
	Upload(ctx context.Context, fileID string, data []byte, contentType string) error
	Delete(ctx context.Context, fileID string) error
}

type AttachmentService struct {
	attachments *repository.AttachmentRepository
	files       FileStore
	runner      background.Runner
	log         zerolog.Logger
}

func NewAttachmentService(attachments *repository.AttachmentRepository, files FileStore, runner background.Runner, log zerolog.Logger) *AttachmentService {
	return &AttachmentService{
		attachments: attachments,
		files:       files,
		runner:      runner,
		log:         log,
	}
}

// RequestUpload issues a pre-authorized upload handle. Nothing is
// persisted in the database until the upload is confirmed and attached.
func (s *AttachmentService) RequestUpload(ctx context.Context, filename, contentType string, size int64) (storage.UploadHandle, error) {
	return s.files.PresignUpload(ctx, filename, contentType, size)
}

// Create pins an uploaded photo to a position. The file reference must
// have been confirmed uploadable; an unconfirmed reference fails with
// storage.ErrFileNotFound and no row is inserted.
func (s *AttachmentService) Create(ctx context.Context, ownerID int64, position models.Position, fileID, fileType string) (int64, error) {
	if err := s.files.ConfirmExists(ctx, fileID); err != nil {
		return 0, err
	}

	return s.attachments.Create(ctx, models.Attachment{
		Latitude:  position.Lat,
		Longitude: position.Long,
		FileURL:   s.files.PublicURL(fileID),
		FileType:  fileType,
		UserID:    ownerID,
	})
}

func (s *AttachmentService) GetByID(ctx context.Context, id int64) (models.Attachment, error) {
	return s.attachments.GetByID(ctx, id)
}

// GetByIDs silently omits ids that don't exist.
func (s *AttachmentService) GetByIDs(ctx context.Context, ids []int64) ([]models.Attachment, error) {
	return s.attachments.GetByIDs(ctx, ids)
}

func (s *AttachmentService) Query(ctx context.Context, filter repository.AttachmentFilter) (repository.AttachmentPage, error) {
	return s.attachments.Query(ctx, filter)
}

func (s *AttachmentService) ListWithCreators(ctx context.Context) ([]models.AttachmentWithCreator, error) {
	return s.attachments.ListWithCreators(ctx)
}

// Delete removes an attachment owned by ownerID. Deleting someone
// else's attachment fails with ErrNotOwner and changes nothing. The
// stored photo and any cached preview are cleaned up best-effort off
// the request path.
func (s *AttachmentService) Delete(ctx context.Context, ownerID, id int64) error {
	attachment, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if attachment.UserID != ownerID {
		return ErrNotOwner
	}

	if err := s.attachments.Delete(ctx, id); err != nil {
		return err
	}

	s.runner.Go("cleanup-attachment-files", func(ctx context.Context) error {
		var errs []error
		if err := s.files.Delete(ctx, s.files.FileIDFromURL(attachment.FileURL)); err != nil {
			errs = append(errs, err)
		}
		if attachment.PreviewURL != nil {
			if err := s.files.Delete(ctx, s.files.FileIDFromURL(*attachment.PreviewURL)); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return nil
}
