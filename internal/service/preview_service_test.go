package service

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"farmap/api/internal/config"
	"farmap/api/internal/models"
	"farmap/api/internal/repository"
)

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	err := imaging.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)), imaging.JPEG)
	require.NoError(t, err)
	return buf.Bytes()
}

func newPreviewFixture(t *testing.T) (*PreviewService, *fakeFileStore, *fakeMapFetcher, *syncRunner, *repository.AttachmentRepository, *sql.DB) {
	t.Helper()

	db := newTestDB(t)
	files := newFakeFileStore()
	maps := &fakeMapFetcher{}
	runner := &syncRunner{}
	repo := repository.NewAttachmentRepository(db)
	svc := NewPreviewService(repo, files, maps, runner, config.PreviewConfig{
		MapSize: 280,
		MapZoom: 14,
	}, zerolog.Nop())
	return svc, files, maps, runner, repo, db
}

func createPreviewAttachment(t *testing.T, db *sql.DB, repo *repository.AttachmentRepository, files *fakeFileStore) int64 {
	t.Helper()

	ctx := context.Background()
	owner, err := repository.NewUserRepository(db).Create(ctx, 700, nil, nil)
	require.NoError(t, err)

	require.NoError(t, files.Upload(ctx, "photo-x", jpegBytes(t, 640, 480), "image/jpeg"))

	id, err := repo.Create(ctx, models.Attachment{
		Latitude:  -33.86,
		Longitude: 151.21,
		FileURL:   files.PublicURL("photo-x"),
		FileType:  "image/jpeg",
		UserID:    owner.ID,
	})
	require.NoError(t, err)
	return id
}

func TestPreviewServiceGetOrGenerate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("first request composes and caches", func(t *testing.T) {
		t.Parallel()

		svc, files, maps, _, repo, db := newPreviewFixture(t)
		id := createPreviewAttachment(t, db, repo, files)

		url, attachment, err := svc.GetOrGenerate(ctx, id)
		require.NoError(t, err)
		require.True(t, strings.Contains(url, "preview-"))
		require.NotNil(t, attachment.PreviewURL)
		require.Equal(t, url, *attachment.PreviewURL)
		require.Equal(t, 1, maps.calls)

		// The composed object landed in the store under the URL's id.
		composed, err := files.FetchBytes(ctx, files.FileIDFromURL(url))
		require.NoError(t, err)
		img, err := imaging.Decode(bytes.NewReader(composed))
		require.NoError(t, err)
		require.Equal(t, 1200, img.Bounds().Dx())
		require.Equal(t, 800, img.Bounds().Dy())

		stored, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, &url, stored.PreviewURL)
	})

	t.Run("second request is a cache hit", func(t *testing.T) {
		t.Parallel()

		svc, files, maps, _, repo, db := newPreviewFixture(t)
		id := createPreviewAttachment(t, db, repo, files)

		first, _, err := svc.GetOrGenerate(ctx, id)
		require.NoError(t, err)

		second, _, err := svc.GetOrGenerate(ctx, id)
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.Equal(t, 1, maps.calls)
		require.Equal(t, 2, files.uploads) // photo plus one preview
	})

	t.Run("losing a concurrent write keeps the winner's URL", func(t *testing.T) {
		t.Parallel()

		svc, files, _, runner, repo, db := newPreviewFixture(t)
		id := createPreviewAttachment(t, db, repo, files)

		winnerURL := files.PublicURL("preview-winner")
		files.onUpload = func(fileID string) {
			if !strings.HasPrefix(fileID, "preview-") {
				return
			}
			// Another regeneration claims the slot between this
			// upload and the write below.
			claimed, err := repo.SetPreviewURL(ctx, id, winnerURL)
			require.NoError(t, err)
			require.True(t, claimed)
			files.onUpload = nil
		}

		url, attachment, err := svc.GetOrGenerate(ctx, id)
		require.NoError(t, err)
		require.Equal(t, winnerURL, url)
		require.Equal(t, &winnerURL, attachment.PreviewURL)
		require.True(t, runner.ran("discard-losing-preview"))

		// The losing upload was discarded from the store.
		for fileID := range files.objects {
			if strings.HasPrefix(fileID, "preview-") {
				t.Fatalf("losing preview %s was not discarded", fileID)
			}
		}
	})

	t.Run("missing attachment", func(t *testing.T) {
		t.Parallel()

		svc, _, _, _, _, _ := newPreviewFixture(t)
		_, _, err := svc.GetOrGenerate(ctx, 9999)
		require.ErrorIs(t, err, repository.ErrAttachmentNotFound)
	})
}
