package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"farmap/api/internal/background"
	"farmap/api/internal/config"
	"farmap/api/internal/models"
	"farmap/api/internal/preview"
	"farmap/api/internal/repository"
)

// PreviewService lazily builds and caches the composed social-preview
// image for an attachment.
type PreviewService struct {
	attachments *repository.AttachmentRepository
	files       FileStore
	maps        preview.MapFetcher
	runner      background.Runner
	cfg         config.PreviewConfig
	log         zerolog.Logger
}

func NewPreviewService(
	attachments *repository.AttachmentRepository,
	files FileStore,
	maps preview.MapFetcher,
	runner background.Runner,
	cfg config.PreviewConfig,
	log zerolog.Logger,
) *PreviewService {
	return &PreviewService{
		attachments: attachments,
		files:       files,
		maps:        maps,
		runner:      runner,
		cfg:         cfg,
		log:         log,
	}
}

// GetOrGenerate returns the preview URL for an attachment, composing
// and uploading it on first request. previewUrl is a write-once cache:
// concurrent cache misses may both compose, but only one write lands;
// the loser discards its upload and returns the winner's URL.
func (s *PreviewService) GetOrGenerate(ctx context.Context, attachmentID int64) (string, models.Attachment, error) {
	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return "", models.Attachment{}, err
	}

	if attachment.PreviewURL != nil {
		return *attachment.PreviewURL, attachment, nil
	}

	photoBytes, err := s.files.FetchBytes(ctx, s.files.FileIDFromURL(attachment.FileURL))
	if err != nil {
		return "", models.Attachment{}, err
	}

	mapImg, err := s.maps.FetchMapImage(ctx, attachment.Latitude, attachment.Longitude, s.cfg.MapSize, s.cfg.MapZoom)
	if err != nil {
		return "", models.Attachment{}, fmt.Errorf("fetch map image: %w", err)
	}

	composed, err := preview.Compose(photoBytes, mapImg)
	if err != nil {
		return "", models.Attachment{}, fmt.Errorf("compose preview: %w", err)
	}

	previewFileID := fmt.Sprintf("preview-%d-%d", attachmentID, time.Now().UnixMilli())
	if err := s.files.Upload(ctx, previewFileID, composed, "image/jpeg"); err != nil {
		return "", models.Attachment{}, fmt.Errorf("upload preview: %w", err)
	}

	previewURL := s.files.PublicURL(previewFileID)

	claimed, err := s.attachments.SetPreviewURL(ctx, attachmentID, previewURL)
	if err != nil {
		return "", models.Attachment{}, err
	}
	if !claimed {
		// A concurrent regeneration won the write. Keep its URL and
		// drop the image we just uploaded.
		s.runner.Go("discard-losing-preview", func(ctx context.Context) error {
			return s.files.Delete(ctx, previewFileID)
		})

		winner, err := s.attachments.GetByID(ctx, attachmentID)
		if err != nil {
			return "", models.Attachment{}, err
		}
		if winner.PreviewURL != nil {
			return *winner.PreviewURL, winner, nil
		}
		// Row disappeared or was reset between the claim and re-read;
		// fall through with our own result.
	}

	attachment.PreviewURL = &previewURL
	return previewURL, attachment, nil
}
