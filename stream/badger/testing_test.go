package badger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestQueue opens an in-memory queue that is closed when the test ends.
func NewTestQueue(t testing.TB) *Queue {
	t.Helper()
	q, err := OpenMemoryQueue()
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}
