package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/linestream/core"
)

// Publisher batches entries and submits every batch to one stream
// concurrently.
type Publisher struct {
	submitter    Submitter
	stream       string
	pool         *ants.Pool
	maxBatchSize int
	logger       *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher) error

// WithPoolSize sets the number of batch submissions that may be in flight at
// once. Default is runtime.NumCPU(), with a minimum of 2.
func WithPoolSize(size int) Option {
	return func(p *Publisher) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithMaxBatchSize lowers the number of entries per submit call.
// Default is DefaultMaxBatchSize, which is also the upper bound.
func WithMaxBatchSize(size int) Option {
	return func(p *Publisher) error {
		if size <= 0 || size > DefaultMaxBatchSize {
			return fmt.Errorf("%w: %d", ErrInvalidBatchSize, size)
		}
		p.maxBatchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPublisher creates a publisher writing to stream through submitter.
func NewPublisher(submitter Submitter, stream string, opts ...Option) (*Publisher, error) {
	if submitter == nil {
		return nil, ErrSubmitterRequired
	}
	if stream == "" {
		return nil, ErrStreamRequired
	}

	poolSize := max(runtime.NumCPU(), 2)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Publisher{
		submitter:    submitter,
		stream:       stream,
		pool:         pool,
		maxBatchSize: DefaultMaxBatchSize,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "publisher", "stream", stream)
	return p, nil
}

// Stream returns the name of the stream the publisher writes to.
func (p *Publisher) Stream() string {
	return p.stream
}

// BatchResult is the outcome of one batch submission.
type BatchResult struct {
	Index  int   // Position of the batch in publish order
	Size   int   // Number of entries in the batch
	Failed int   // Entries the queue reported as rejected
	Err    error // Nil when the whole batch was accepted
}

// PublishResult collects the outcome of every batch of one Publish call.
type PublishResult struct {
	Stream  string
	Records int
	Batches []BatchResult
}

// Failed returns the batches that did not publish cleanly.
func (r *PublishResult) Failed() []BatchResult {
	var failed []BatchResult
	for _, b := range r.Batches {
		if b.Err != nil {
			failed = append(failed, b)
		}
	}
	return failed
}

// Err returns an *core.AggregateError naming every failed batch, or nil.
func (r *PublishResult) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	agg := &core.AggregateError{
		Op:       "publish " + r.Stream,
		Total:    len(r.Batches),
		Failures: make([]core.IndexedError, len(failed)),
	}
	for i, b := range failed {
		agg.Failures[i] = core.IndexedError{Index: b.Index, Err: b.Err}
	}
	return agg
}

// Publish maps records to entries with toEntry and publishes them. A mapping
// failure is reported as a *core.ParseError before anything is submitted.
func Publish[T any](ctx context.Context, p *Publisher, records []T, toEntry func(T) (core.Entry, error)) (*PublishResult, error) {
	entries := make([]core.Entry, len(records))
	for i, record := range records {
		entry, err := toEntry(record)
		if err != nil {
			return nil, &core.ParseError{Index: i, Err: fmt.Errorf("map record: %w", err)}
		}
		entries[i] = entry
	}
	return p.PublishEntries(ctx, entries)
}

// PublishEntries splits entries into batches and dispatches every batch
// without waiting for earlier ones, then waits for all of them. The result is
// always returned; the error is non-nil when any batch failed. Batches that
// succeeded are not rolled back.
func (p *Publisher) PublishEntries(ctx context.Context, entries []core.Entry) (*PublishResult, error) {
	batches, err := Batches(entries, p.maxBatchSize)
	if err != nil {
		return nil, err
	}

	result := &PublishResult{
		Stream:  p.stream,
		Records: len(entries),
		Batches: make([]BatchResult, BatchCount(len(entries), p.maxBatchSize)),
	}

	var wg sync.WaitGroup
	idx := 0
	for batch := range batches {
		br := &result.Batches[idx]
		br.Index = idx
		br.Size = len(batch)
		idx++

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			p.submit(ctx, batch, br)
		})
		if submitErr != nil {
			wg.Done()
			br.Err = &core.TransportError{Op: "dispatch batch", Err: submitErr}
		}
	}
	wg.Wait()

	if err := result.Err(); err != nil {
		p.logger.Error("publish failed", "records", len(entries), "batches", len(result.Batches),
			"failed", len(result.Failed()), "err", err)
		return result, err
	}
	p.logger.Debug("published", "records", len(entries), "batches", len(result.Batches))
	return result, nil
}

func (p *Publisher) submit(ctx context.Context, batch []core.Entry, br *BatchResult) {
	res, err := p.submitter.Submit(ctx, p.stream, batch)
	if err != nil {
		var terr *core.TransportError
		if !errors.As(err, &terr) {
			err = &core.TransportError{Op: "submit " + p.stream, Err: err}
		}
		br.Err = err
		return
	}
	if res.FailedCount > 0 {
		br.Failed = res.FailedCount
		br.Err = &core.TransportError{
			Op:  "submit " + p.stream,
			Err: fmt.Errorf("%w: %d of %d", ErrEntriesFailed, res.FailedCount, len(batch)),
		}
	}
}

// Release releases the worker pool.
// The publisher should not be used after calling Release.
func (p *Publisher) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
