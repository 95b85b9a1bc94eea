package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"farmap/api/internal/config"
	"farmap/api/internal/ids"
)

var (
	ErrFileNotFound = errors.New("file not found")
	// ErrFileFetch marks a storage read that failed for a reason other
	// than the object being absent. Callers treat it as fatal.
	ErrFileFetch = errors.New("file fetch failed")
)

// UploadHandle is a short-lived pre-authorized write slot in the
// object store. The file id is not trusted until ConfirmExists.
type UploadHandle struct {
	SignedURL string
	FileID    string
	ExpiresAt time.Time
}

type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

// PresignUpload issues a pre-authorized PUT URL and a fresh file id.
// Nothing durable is recorded on our side; the handle simply expires
// if the client never uploads.
func (s *ObjectStore) PresignUpload(ctx context.Context, filename, contentType string, size int64) (UploadHandle, error) {
	fileID := ids.New()

	signed, err := s.client.PresignedPutObject(ctx, s.cfg.Bucket, fileID, s.cfg.UploadURLTTL)
	if err != nil {
		return UploadHandle{}, fmt.Errorf("presign put: %w", err)
	}

	return UploadHandle{
		SignedURL: signed.String(),
		FileID:    fileID,
		ExpiresAt: time.Now().Add(s.cfg.UploadURLTTL),
	}, nil
}

// ConfirmExists checks the object is physically present. Attachment
// creation is gated on this call.
func (s *ObjectStore) ConfirmExists(ctx context.Context, fileID string) error {
	_, err := s.client.StatObject(ctx, s.cfg.Bucket, fileID, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("stat object %s: %w", fileID, err)
	}
	return nil
}

// PublicURL maps a file id to its fetchable URL. Purely a naming
// convention; no network call.
func (s *ObjectStore) PublicURL(fileID string) string {
	base := strings.TrimSuffix(s.cfg.PublicBase, "/")
	if base == "" {
		base = strings.TrimSuffix(s.cfg.Endpoint, "/")
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			base = "https://" + base
		}
		base = fmt.Sprintf("%s/%s", base, s.cfg.Bucket)
	}
	return fmt.Sprintf("%s/%s", base, fileID)
}

// FileIDFromURL is the inverse of PublicURL.
func (s *ObjectStore) FileIDFromURL(fileURL string) string {
	idx := strings.LastIndex(fileURL, "/")
	if idx < 0 {
		return fileURL
	}
	return fileURL[idx+1:]
}

func (s *ObjectStore) FetchBytes(ctx context.Context, fileID string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, fileID, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileFetch, fileID, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrFileFetch, fileID, err)
	}
	return data, nil
}

func (s *ObjectStore) Upload(ctx context.Context, fileID string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, fileID, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", fileID, err)
	}
	return nil
}

func (s *ObjectStore) Delete(ctx context.Context, fileID string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, fileID, minio.RemoveObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("remove object %s: %w", fileID, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
