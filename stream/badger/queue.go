package badger

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/linestream/core"
	"github.com/poiesic/linestream/stream"
)

// ErrConsumerRequired is returned when a source is opened without a consumer name.
var ErrConsumerRequired = errors.New("consumer name required")

// Queue is a durable local queue on BadgerDB. Each stream is an append-only
// log of entries numbered by a per-stream badger sequence; each consumer
// keeps its own cursor.
type Queue struct {
	backend   *Backend
	owned     bool
	mu        sync.Mutex
	sequences map[string]*badger.Sequence
	now       func() time.Time
}

var _ stream.Submitter = (*Queue)(nil)

// NewQueue creates a queue on an open backend. The caller keeps ownership of
// the backend.
func NewQueue(backend *Backend) *Queue {
	return &Queue{
		backend:   backend,
		sequences: make(map[string]*badger.Sequence),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// OpenMemoryQueue opens an in-memory backend and a queue on it. Closing the
// queue closes the backend.
func OpenMemoryQueue() (*Queue, error) {
	backend, err := OpenBackend("", true, nil)
	if err != nil {
		return nil, err
	}
	q := NewQueue(backend)
	q.owned = true
	return q, nil
}

func (q *Queue) sequence(name string) (*badger.Sequence, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if seq, ok := q.sequences[name]; ok {
		return seq, nil
	}
	seq, err := q.backend.GetSequence(makeSequenceName(name))
	if err != nil {
		return nil, err
	}
	q.sequences[name] = seq
	return seq, nil
}

// Submit appends entries to the named stream in one transaction. Entries are
// either all stored or none are.
func (q *Queue) Submit(ctx context.Context, name string, entries []core.Entry) (stream.SubmitResult, error) {
	if name == "" {
		return stream.SubmitResult{}, stream.ErrStreamRequired
	}
	if len(entries) == 0 {
		return stream.SubmitResult{}, nil
	}
	seq, err := q.sequence(name)
	if err != nil {
		return stream.SubmitResult{}, &core.TransportError{Op: "submit " + name, Err: err}
	}

	arrivedAt := q.now()
	err = q.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			id, err := seq.Next()
			if err != nil {
				return err
			}
			if err := tx.Set(makeEntryKey(name, id), marshalEntry(entry, arrivedAt)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return stream.SubmitResult{}, &core.TransportError{Op: "submit " + name, Err: err}
	}
	q.backend.logger.Debug("appended entries", "stream", name, "entries", len(entries))
	return stream.SubmitResult{}, nil
}

// Len returns the number of entries stored for a stream.
func (q *Queue) Len(name string) (int, error) {
	count := 0
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeStreamPrefix(name)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Source returns a consumer of the named stream. Consumers with different
// names read the stream independently.
func (q *Queue) Source(name, consumer string) (*Source, error) {
	if name == "" {
		return nil, stream.ErrStreamRequired
	}
	if consumer == "" {
		return nil, ErrConsumerRequired
	}
	return &Source{queue: q, stream: name, consumer: consumer}, nil
}

// Close releases the stream sequences. The backend is closed only when the
// queue opened it.
func (q *Queue) Close() error {
	q.mu.Lock()
	var errs []error
	for _, seq := range q.sequences {
		if err := seq.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	q.sequences = map[string]*badger.Sequence{}
	q.mu.Unlock()

	if q.owned && !q.backend.IsClosed() {
		errs = append(errs, q.backend.Close())
	}
	return errors.Join(errs...)
}

// Source reads one stream on behalf of one consumer. Its cursor only moves
// when a delivery is committed.
type Source struct {
	queue    *Queue
	stream   string
	consumer string
}

var _ stream.Source = (*Source)(nil)

func (s *Source) cursor(tx *badger.Txn) (uint64, error) {
	item, err := tx.Get(makeCursorKey(s.stream, s.consumer))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}
	var next uint64
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		next, unmarshalErr = unmarshalCursor(val)
		return unmarshalErr
	})
	return next, err
}

// Fetch returns up to limit uncommitted entries following the consumer's cursor.
func (s *Source) Fetch(ctx context.Context, limit int) (*stream.Delivery, error) {
	if limit <= 0 {
		limit = stream.DefaultMaxBatchSize
	}
	var env core.Envelope
	var last uint64
	err := s.queue.backend.WithTx(func(tx *badger.Txn) error {
		next, err := s.cursor(tx)
		if err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeStreamPrefix(s.stream)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeEntryKey(s.stream, next)); iter.Valid() && len(env.Records) < limit; iter.Next() {
			item := iter.Item()
			seq := parseEntrySeq(item.Key())
			var entry storedEntry
			err := item.Value(func(val []byte) error {
				var unmarshalErr error
				entry, unmarshalErr = unmarshalEntry(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			env.Records = append(env.Records, core.NewEnvelopeRecord(
				entry.Data, entry.PartitionKey, strconv.FormatUint(seq, 10), entry.ArrivedAt))
			last = seq
		}
		return nil
	}, false)
	if err != nil {
		return nil, &core.TransportError{Op: "fetch " + s.stream, Err: err}
	}
	if len(env.Records) == 0 {
		return stream.NewDelivery(env, nil), nil
	}
	return stream.NewDelivery(env, func(ctx context.Context) error {
		return s.commit(last + 1)
	}), nil
}

func (s *Source) commit(next uint64) error {
	return s.queue.backend.WithTx(func(tx *badger.Txn) error {
		current, err := s.cursor(tx)
		if err != nil {
			return err
		}
		if next <= current {
			return nil
		}
		if err := tx.Set(makeCursorKey(s.stream, s.consumer), marshalCursor(next)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close is a no-op; the queue owns the backend.
func (s *Source) Close() error {
	return nil
}
