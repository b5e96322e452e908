package stream

import (
	"iter"

	"github.com/poiesic/linestream/core"
)

// DefaultMaxBatchSize is the queue provider's entries-per-call ceiling.
const DefaultMaxBatchSize = core.MaxEntriesPerSubmit

// Batches splits items into order-preserving chunks of at most size elements.
// The returned sequence is lazy and restartable: every range over it walks
// items from the start. Chunks share items' backing array but are capacity
// clipped, so appending to one never overwrites the next.
func Batches[T any](items []T, size int) (iter.Seq[[]T], error) {
	if size <= 0 {
		return nil, ErrInvalidBatchSize
	}
	return func(yield func([]T) bool) {
		for start := 0; start < len(items); start += size {
			end := min(start+size, len(items))
			if !yield(items[start:end:end]) {
				return
			}
		}
	}, nil
}

// BatchCount returns the number of batches Batches yields for n items.
func BatchCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
