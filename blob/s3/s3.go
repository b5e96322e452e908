// Package s3 implements blob.Store on Amazon S3.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/poiesic/linestream/blob"
	"github.com/poiesic/linestream/core"
)

// Store reads objects with GetObject.
type Store struct {
	api    s3iface.S3API
	logger *slog.Logger
}

// NewStore creates a store from an AWS session.
func NewStore(sess client.ConfigProvider, logger *slog.Logger) *Store {
	return NewStoreWithAPI(s3.New(sess), logger)
}

// NewStoreWithAPI creates a store around an existing S3 client.
func NewStoreWithAPI(api s3iface.S3API, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{api: api, logger: logger.With("component", "s3-store")}
}

// Get returns the body of bucket/key.
func (s *Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == s3.ErrCodeNoSuchBucket) {
			err = fmt.Errorf("%w: s3://%s/%s", blob.ErrNotFound, bucket, key)
		}
		return nil, &core.TransportError{Op: "get object", Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &core.TransportError{Op: "read object", Err: err}
	}
	s.logger.Debug("fetched object", "bucket", bucket, "key", key, "bytes", len(data))
	return data, nil
}
