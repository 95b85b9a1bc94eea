package service

import (
	"context"
	"database/sql"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"farmap/api/internal/config"
	"farmap/api/internal/database"
	"farmap/api/internal/farcaster"
	"farmap/api/internal/storage"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(context.Background(), config.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// syncRunner runs detached work inline so tests can assert on its
// effects without sleeping.
type syncRunner struct {
	names []string
	errs  []error
}

func (r *syncRunner) Go(name string, fn func(ctx context.Context) error) {
	r.names = append(r.names, name)
	r.errs = append(r.errs, fn(context.Background()))
}

func (r *syncRunner) ran(name string) bool {
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}

type fakeVerifier struct {
	fid   int64
	err   error
	calls []farcaster.Credential
}

func (v *fakeVerifier) Verify(_ context.Context, credential farcaster.Credential) (int64, error) {
	v.calls = append(v.calls, credential)
	if v.err != nil {
		return 0, v.err
	}
	return v.fid, nil
}

type fakeHub struct {
	profile farcaster.Profile
	err     error
	calls   int
}

func (h *fakeHub) GetProfile(context.Context, int64) (farcaster.Profile, error) {
	h.calls++
	if h.err != nil {
		return farcaster.Profile{}, h.err
	}
	return h.profile, nil
}

type fakeFileStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	confirmErr error
	deleted    []string
	uploads    int
	onUpload   func(fileID string)
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{objects: map[string][]byte{}}
}

func (f *fakeFileStore) PresignUpload(_ context.Context, _, _ string, _ int64) (storage.UploadHandle, error) {
	return storage.UploadHandle{
		SignedURL: "https://files.test/signed",
		FileID:    "new-file-id",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}, nil
}

func (f *fakeFileStore) ConfirmExists(_ context.Context, fileID string) error {
	if f.confirmErr != nil {
		return f.confirmErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[fileID]; !ok {
		return storage.ErrFileNotFound
	}
	return nil
}

func (f *fakeFileStore) PublicURL(fileID string) string {
	return "https://files.test/" + fileID
}

func (f *fakeFileStore) FileIDFromURL(fileURL string) string {
	return fileURL[strings.LastIndex(fileURL, "/")+1:]
}

func (f *fakeFileStore) FetchBytes(_ context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[fileID]
	if !ok {
		return nil, storage.ErrFileNotFound
	}
	return data, nil
}

func (f *fakeFileStore) Upload(_ context.Context, fileID string, data []byte, _ string) error {
	f.mu.Lock()
	f.objects[fileID] = data
	f.uploads++
	f.mu.Unlock()
	if f.onUpload != nil {
		f.onUpload(fileID)
	}
	return nil
}

func (f *fakeFileStore) Delete(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, fileID)
	f.deleted = append(f.deleted, fileID)
	return nil
}

type fakeMapFetcher struct {
	calls int
}

func (m *fakeMapFetcher) FetchMapImage(_ context.Context, _, _ float64, size, _ int) (image.Image, error) {
	m.calls++
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 160, B: 90, A: 255})
		}
	}
	return img, nil
}

func ptr[T any](v T) *T { return &v }
