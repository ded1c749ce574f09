// Package storage wraps the MinIO object store that holds uploaded audio
// samples. The service never streams audio itself; it hands out presigned
// URLs so clients fetch objects directly.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/config"
)

const presignExpiry = 1 * time.Hour

// ObjectStore provides presigned access to stored sample audio.
type ObjectStore interface {
	// PresignedGetURL returns a time-limited download URL for an object.
	PresignedGetURL(ctx context.Context, objectPath string) (string, error)

	// StatObject reports whether an object exists and its size.
	StatObject(ctx context.Context, objectPath string) (int64, error)
}

type minioStore struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewObjectStore connects to MinIO and ensures the bucket exists. Returns
// (nil, nil) when object storage is not configured, leaving playback URLs
// unset.
func NewObjectStore(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (ObjectStore, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("Created storage bucket", zap.String("bucket", cfg.Bucket))
	}

	logger.Info("Connected to object store",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket))
	return &minioStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.Named("storage"),
	}, nil
}

var _ ObjectStore = (*minioStore)(nil)

func (s *minioStore) PresignedGetURL(ctx context.Context, objectPath string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectPath, presignExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectPath, err)
	}
	return u.String(), nil
}

func (s *minioStore) StatObject(ctx context.Context, objectPath string) (int64, error) {
	info, err := s.client.StatObject(ctx, s.bucket, objectPath, minio.StatObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", objectPath, err)
	}
	return info.Size, nil
}
