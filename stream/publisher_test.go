package stream

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/linestream/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSubmitter records every Submit call.
type testSubmitter struct {
	mu       sync.Mutex
	calls    [][]core.Entry
	streams  []string
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	SubmitFunc func(ctx context.Context, stream string, entries []core.Entry) (SubmitResult, error)
}

func (s *testSubmitter) Submit(ctx context.Context, stream string, entries []core.Entry) (SubmitResult, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, entries)
	s.streams = append(s.streams, stream)
	s.mu.Unlock()

	if s.SubmitFunc != nil {
		return s.SubmitFunc(ctx, stream, entries)
	}
	return SubmitResult{}, nil
}

func (s *testSubmitter) sizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sizes := make([]int, len(s.calls))
	for i, c := range s.calls {
		sizes[i] = len(c)
	}
	return sizes
}

func makeEntries(n int) []core.Entry {
	entries := make([]core.Entry, n)
	for i := range entries {
		entries[i] = core.Entry{Data: []byte(strconv.Itoa(i)), PartitionKey: core.PartitionKey(strconv.Itoa(i))}
	}
	return entries
}

func TestNewPublisher_Validation(t *testing.T) {
	_, err := NewPublisher(nil, "s")
	assert.ErrorIs(t, err, ErrSubmitterRequired)

	_, err = NewPublisher(&testSubmitter{}, "")
	assert.ErrorIs(t, err, ErrStreamRequired)

	_, err = NewPublisher(&testSubmitter{}, "s", WithMaxBatchSize(501))
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	_, err = NewPublisher(&testSubmitter{}, "s", WithMaxBatchSize(0))
	assert.ErrorIs(t, err, ErrInvalidBatchSize)
}

func TestPublish_501RecordsConcurrentSubmissions(t *testing.T) {
	// Each submission blocks until both have arrived, so the test only
	// finishes if the two batches are in flight at the same time.
	var arrived sync.WaitGroup
	arrived.Add(2)
	released := make(chan struct{})
	go func() {
		arrived.Wait()
		close(released)
	}()

	sub := &testSubmitter{
		SubmitFunc: func(ctx context.Context, stream string, entries []core.Entry) (SubmitResult, error) {
			arrived.Done()
			select {
			case <-released:
				return SubmitResult{}, nil
			case <-time.After(5 * time.Second):
				return SubmitResult{}, errors.New("submissions were not concurrent")
			}
		},
	}

	p, err := NewPublisher(sub, "lines", WithPoolSize(4))
	require.NoError(t, err)
	defer p.Release()

	records := make([]core.TextRecord, 501)
	for i := range records {
		records[i] = core.TextRecord{SourceID: "src", Line: i, Text: "line " + strconv.Itoa(i)}
	}

	result, err := Publish(context.Background(), p, records, JSONEntry(core.RecordPartitionKey))
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{500, 1}, sub.sizes())
	assert.Equal(t, int32(2), sub.maxSeen.Load())
	assert.Equal(t, 501, result.Records)
	require.Len(t, result.Batches, 2)
	assert.Equal(t, 500, result.Batches[0].Size)
	assert.Equal(t, 1, result.Batches[1].Size)
	assert.Empty(t, result.Failed())
	for _, s := range sub.streams {
		assert.Equal(t, "lines", s)
	}
}

func TestPublish_PreservesOrderWithinBatches(t *testing.T) {
	sub := &testSubmitter{}
	p, err := NewPublisher(sub, "lines", WithMaxBatchSize(3), WithPoolSize(2))
	require.NoError(t, err)
	defer p.Release()

	entries := makeEntries(8)
	_, err = p.PublishEntries(context.Background(), entries)
	require.NoError(t, err)

	var got []string
	sub.mu.Lock()
	calls := sub.calls
	sub.mu.Unlock()
	// Batches may complete in any order; reassemble by first entry.
	byFirst := map[string][]core.Entry{}
	for _, c := range calls {
		byFirst[string(c[0].Data)] = c
	}
	for _, first := range []string{"0", "3", "6"} {
		for _, e := range byFirst[first] {
			got = append(got, string(e.Data))
		}
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7"}, got)
}

func TestPublish_AggregateErrorNamesFailedBatches(t *testing.T) {
	boom := errors.New("throttled")
	sub := &testSubmitter{
		SubmitFunc: func(ctx context.Context, stream string, entries []core.Entry) (SubmitResult, error) {
			switch string(entries[0].Data) {
			case "2":
				return SubmitResult{}, boom
			case "6":
				return SubmitResult{FailedCount: 1}, nil
			}
			return SubmitResult{}, nil
		},
	}
	p, err := NewPublisher(sub, "lines", WithMaxBatchSize(2), WithPoolSize(4))
	require.NoError(t, err)
	defer p.Release()

	result, err := p.PublishEntries(context.Background(), makeEntries(8))
	require.Error(t, err)
	require.NotNil(t, result)

	var agg *core.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Equal(t, []int{1, 3}, agg.FailedIndexes())
	assert.Equal(t, 4, agg.Total)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrEntriesFailed)

	var terr *core.TransportError
	assert.ErrorAs(t, err, &terr)

	// Successful batches were still submitted.
	assert.Len(t, sub.sizes(), 4)
	assert.Equal(t, 1, result.Batches[3].Failed)
	assert.NoError(t, result.Batches[0].Err)
}

func TestPublish_MappingErrorSubmitsNothing(t *testing.T) {
	sub := &testSubmitter{}
	p, err := NewPublisher(sub, "lines")
	require.NoError(t, err)
	defer p.Release()

	records := []int{1, 2, 3}
	_, err = Publish(context.Background(), p, records, func(v int) (core.Entry, error) {
		if v == 2 {
			return core.Entry{}, errors.New("unserializable")
		}
		return core.Entry{Data: []byte{byte(v)}}, nil
	})

	var perr *core.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Index)
	assert.Empty(t, sub.sizes())
}

func TestPublish_Empty(t *testing.T) {
	sub := &testSubmitter{}
	p, err := NewPublisher(sub, "lines")
	require.NoError(t, err)
	defer p.Release()

	result, err := p.PublishEntries(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Batches)
	assert.Empty(t, sub.sizes())
}
