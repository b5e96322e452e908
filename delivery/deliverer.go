package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/linestream/core"
	"github.com/poiesic/linestream/stream"
)

// Mode selects where enriched records go. It is fixed when a Deliverer is
// built.
type Mode string

const (
	// ModeQueueForward re-publishes records onto an outgoing stream.
	ModeQueueForward Mode = "QUEUE_FORWARD"

	// ModeBulkIndex posts records to a search service's bulk endpoint.
	ModeBulkIndex Mode = "BULK_INDEX"
)

// ParseMode parses a mode name, case insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToUpper(strings.TrimSpace(s))); m {
	case ModeQueueForward, ModeBulkIndex:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Deliverer hands enriched records to the queue or the search service.
type Deliverer struct {
	mode         Mode
	publisher    *stream.Publisher
	partitionKey func(core.EnrichedRecord) string
	indexer      *BulkIndexer
	logger       *slog.Logger
}

// Option configures a Deliverer.
type Option func(*Deliverer)

// WithPartitionKey sets how forwarded records are keyed. Default keys on the
// record's line and text.
func WithPartitionKey(fn func(core.EnrichedRecord) string) Option {
	return func(d *Deliverer) {
		if fn != nil {
			d.partitionKey = fn
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deliverer) {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
	}
}

func recordKey(r core.EnrichedRecord) string {
	return core.RecordPartitionKey(r.TextRecord)
}

func newDeliverer(mode Mode, opts []Option) *Deliverer {
	d := &Deliverer{
		mode:         mode,
		partitionKey: recordKey,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "deliverer", "mode", string(mode))
	return d
}

// NewQueueForwarder creates a deliverer in QUEUE_FORWARD mode.
func NewQueueForwarder(publisher *stream.Publisher, opts ...Option) (*Deliverer, error) {
	if publisher == nil {
		return nil, ErrPublisherRequired
	}
	d := newDeliverer(ModeQueueForward, opts)
	d.publisher = publisher
	return d, nil
}

// NewBulkDeliverer creates a deliverer in BULK_INDEX mode.
func NewBulkDeliverer(indexer *BulkIndexer, opts ...Option) (*Deliverer, error) {
	if indexer == nil {
		return nil, ErrIndexerRequired
	}
	d := newDeliverer(ModeBulkIndex, opts)
	d.indexer = indexer
	return d, nil
}

// Mode returns the delivery mode.
func (d *Deliverer) Mode() Mode {
	return d.mode
}

// Deliver sends records according to the deliverer's mode. Empty input is a
// no-op.
func (d *Deliverer) Deliver(ctx context.Context, records []core.EnrichedRecord) error {
	if len(records) == 0 {
		return nil
	}
	switch d.mode {
	case ModeQueueForward:
		result, err := stream.Publish(ctx, d.publisher, records, stream.JSONEntry(d.partitionKey))
		if err != nil {
			return err
		}
		d.logger.Info("forwarded records", "records", result.Records, "stream", result.Stream, "batches", len(result.Batches))
		return nil
	case ModeBulkIndex:
		if err := d.indexer.Index(ctx, records); err != nil {
			return err
		}
		d.logger.Info("indexed records", "records", len(records))
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, d.mode)
	}
}
