// AngelaMos | 2026
// minio.go

package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/carterperez-dev/tenant-platform/internal/config"
)

type MinIO struct {
	client  *minio.Client
	bucket  string
	baseURL string
	rules   Rules
}

// NewMinIO connects to the object store and creates the bucket when it is
// missing.
func NewMinIO(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &MinIO{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: objectBaseURL(cfg),
		rules:   RulesFromConfig(cfg),
	}

	if err := s.ensureBucket(ctx, logger); err != nil {
		return nil, err
	}

	return s, nil
}

func objectBaseURL(cfg config.StorageConfig) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/") + "/" + cfg.Bucket
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
}

func (s *MinIO) ensureBucket(ctx context.Context, logger *slog.Logger) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}

	logger.Info("storage bucket created", "bucket", s.bucket)
	return nil
}

func (s *MinIO) Validate(name string, size int64) error {
	return s.rules.Validate(name, size)
}

// Upload stores r under folder with a random object name that keeps the
// original extension.
func (s *MinIO) Upload(
	ctx context.Context,
	r io.Reader,
	size int64,
	name, contentType, folder string,
) (string, error) {
	if err := s.Validate(name, size); err != nil {
		return "", err
	}

	key := objectKey(folder, name)

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return s.baseURL + "/" + key, nil
}

func (s *MinIO) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || key == "" {
		return fmt.Errorf("delete %s: %w", url, ErrForeignURL)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}

	return nil
}

// Ping reports whether the bucket is reachable. Used by readiness checks.
func (s *MinIO) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("storage ping failed: %w", err)
	}
	return nil
}

func objectKey(folder, name string) string {
	ext := strings.ToLower(path.Ext(name))
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return uuid.New().String() + ext
	}
	return folder + "/" + uuid.New().String() + ext
}

var _ FileStorage = (*MinIO)(nil)
