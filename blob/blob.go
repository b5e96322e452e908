// Package blob reads ingest objects from an object store.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Store fetches whole objects by bucket and key.
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}
