package stream

import (
	"context"

	"github.com/poiesic/linestream/core"
)

// SubmitResult reports the outcome of one submit call the queue accepted.
type SubmitResult struct {
	// FailedCount is the number of entries the queue rejected.
	FailedCount int
}

// Submitter writes entries to a named stream. Implementations receive at most
// DefaultMaxBatchSize entries per call and must be safe for concurrent use.
type Submitter interface {
	Submit(ctx context.Context, stream string, entries []core.Entry) (SubmitResult, error)
}
