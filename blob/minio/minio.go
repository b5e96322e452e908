// Package minio implements blob.Store on an S3-compatible MinIO server.
package minio

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/poiesic/linestream/blob"
	"github.com/poiesic/linestream/core"
)

// Config holds the connection settings for a MinIO endpoint.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseTLS    bool
}

// Store reads objects from MinIO.
type Store struct {
	mc     *minio.Client
	logger *slog.Logger
}

// NewStore connects to the configured endpoint. Buckets are addressed by path.
func NewStore(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseTLS,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &Store{mc: mc, logger: logger.With("component", "minio-store", "endpoint", cfg.Endpoint)}, nil
}

// Get returns the body of bucket/key.
func (s *Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap(err, bucket, key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.wrap(err, bucket, key)
	}
	s.logger.Debug("fetched object", "bucket", bucket, "key", key, "bytes", len(data))
	return data, nil
}

func (s *Store) wrap(err error, bucket, key string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		err = fmt.Errorf("%w: %s/%s", blob.ErrNotFound, bucket, key)
	}
	return &core.TransportError{Op: "get object", Err: err}
}
