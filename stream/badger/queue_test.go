package badger

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/linestream/core"
	"github.com/poiesic/linestream/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(n int) []core.Entry {
	out := make([]core.Entry, n)
	for i := range out {
		out[i] = core.Entry{Data: []byte(fmt.Sprintf(`{"line":%d}`, i)), PartitionKey: core.PartitionKey(fmt.Sprint(i))}
	}
	return out
}

func payloads(t *testing.T, env core.Envelope) []string {
	t.Helper()
	out := make([]string, len(env.Records))
	for i, r := range env.Records {
		data, err := base64.StdEncoding.DecodeString(r.Kinesis.Data)
		require.NoError(t, err)
		out[i] = string(data)
	}
	return out
}

func TestQueue_SubmitAndFetch(t *testing.T) {
	ctx := context.Background()
	q := NewTestQueue(t)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	q.now = func() time.Time { return fixed }

	res, err := q.Submit(ctx, "lines", entries(3))
	require.NoError(t, err)
	assert.Zero(t, res.FailedCount)

	n, err := q.Len("lines")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	src, err := q.Source("lines", "enricher")
	require.NoError(t, err)

	d, err := src.Fetch(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 3, d.Len())
	assert.Equal(t, []string{`{"line":0}`, `{"line":1}`, `{"line":2}`}, payloads(t, d.Envelope))
	rec := d.Envelope.Records[1].Kinesis
	assert.Equal(t, "1", rec.SequenceNumber)
	assert.Equal(t, core.PartitionKey("1"), rec.PartitionKey)
	assert.True(t, fixed.Equal(rec.ApproximateArrivalTimestamp.Time()))
}

func TestSource_CommitAdvancesCursor(t *testing.T) {
	ctx := context.Background()
	q := NewTestQueue(t)
	_, err := q.Submit(ctx, "lines", entries(5))
	require.NoError(t, err)

	src, err := q.Source("lines", "c1")
	require.NoError(t, err)

	first, err := src.Fetch(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 2, first.Len())

	// Uncommitted deliveries are fetched again.
	again, err := src.Fetch(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, payloads(t, first.Envelope), payloads(t, again.Envelope))

	require.NoError(t, first.Commit(ctx))
	next, err := src.Fetch(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"line":2}`, `{"line":3}`, `{"line":4}`}, payloads(t, next.Envelope))
	require.NoError(t, next.Commit(ctx))

	empty, err := src.Fetch(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
	require.NoError(t, empty.Commit(ctx))

	// Committing an older delivery never moves the cursor back.
	require.NoError(t, first.Commit(ctx))
	empty, err = src.Fetch(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}

func TestSource_IndependentConsumersAndStreams(t *testing.T) {
	ctx := context.Background()
	q := NewTestQueue(t)
	_, err := q.Submit(ctx, "a", entries(2))
	require.NoError(t, err)
	_, err = q.Submit(ctx, "b", entries(1))
	require.NoError(t, err)

	c1, err := q.Source("a", "c1")
	require.NoError(t, err)
	c2, err := q.Source("a", "c2")
	require.NoError(t, err)

	d, err := c1.Fetch(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())
	require.NoError(t, d.Commit(ctx))

	d, err = c2.Fetch(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	b, err := q.Source("b", "c1")
	require.NoError(t, err)
	d, err = b.Fetch(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())
}

func TestQueue_Validation(t *testing.T) {
	q := NewTestQueue(t)
	_, err := q.Submit(context.Background(), "", entries(1))
	assert.ErrorIs(t, err, stream.ErrStreamRequired)

	_, err = q.Source("lines", "")
	assert.ErrorIs(t, err, ErrConsumerRequired)
}

func TestQueue_WithPublisher(t *testing.T) {
	ctx := context.Background()
	q := NewTestQueue(t)

	p, err := stream.NewPublisher(q, "lines", stream.WithMaxBatchSize(4), stream.WithPoolSize(3))
	require.NoError(t, err)
	defer p.Release()

	result, err := p.PublishEntries(ctx, entries(10))
	require.NoError(t, err)
	assert.Len(t, result.Batches, 3)

	n, err := q.Len("lines")
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestSource_StreamNamesSharingAPrefix(t *testing.T) {
	ctx := context.Background()
	q := NewTestQueue(t)
	_, err := q.Submit(ctx, "a", entries(1))
	require.NoError(t, err)
	_, err = q.Submit(ctx, "a:b", entries(3))
	require.NoError(t, err)

	n, err := q.Len("a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	src, err := q.Source("a", "c")
	require.NoError(t, err)
	d, err := src.Fetch(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())
	require.NoError(t, d.Commit(ctx))

	other, err := q.Source("a:b", "c")
	require.NoError(t, err)
	d, err = other.Fetch(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())
}
