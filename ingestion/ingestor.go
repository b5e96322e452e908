package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/linestream/blob"
	"github.com/poiesic/linestream/core"
	"github.com/poiesic/linestream/stream"
)

// PartitionBy selects the identity fields records are keyed on.
type PartitionBy string

const (
	// PartitionByRecord keys each record on its line number and text.
	PartitionByRecord PartitionBy = "record"

	// PartitionBySource keys every record of a source on the source id.
	PartitionBySource PartitionBy = "source"
)

// ParsePartitionBy parses a partition strategy name.
func ParsePartitionBy(s string) (PartitionBy, error) {
	switch p := PartitionBy(strings.ToLower(strings.TrimSpace(s))); p {
	case PartitionByRecord, PartitionBySource:
		return p, nil
	case "":
		return PartitionByRecord, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPartitionBy, s)
	}
}

func (p PartitionBy) keyFunc() func(core.TextRecord) string {
	if p == PartitionBySource {
		return core.SourcePartitionKey
	}
	return core.RecordPartitionKey
}

// Ingestor splits text into records and publishes them.
type Ingestor struct {
	publisher   *stream.Publisher
	store       blob.Store
	partitionBy PartitionBy
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithBlobStore sets the store object notifications are read from.
func WithBlobStore(store blob.Store) Option {
	return func(i *Ingestor) {
		i.store = store
	}
}

// WithPartitionBy sets the partition strategy. Default is PartitionByRecord.
func WithPartitionBy(p PartitionBy) Option {
	return func(i *Ingestor) {
		if p != "" {
			i.partitionBy = p
		}
	}
}

// WithClock overrides the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(i *Ingestor) {
		if now != nil {
			i.now = now
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Ingestor) {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger
	}
}

// NewIngestor creates an ingestor publishing through publisher.
func NewIngestor(publisher *stream.Publisher, opts ...Option) (*Ingestor, error) {
	if publisher == nil {
		return nil, ErrPublisherRequired
	}
	i := &Ingestor{
		publisher:   publisher,
		partitionBy: PartitionByRecord,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.With("component", "ingestor", "stream", publisher.Stream())
	return i, nil
}

// IngestText splits payload and publishes its records under sourceID. It
// returns the number of records published.
func (i *Ingestor) IngestText(ctx context.Context, sourceID string, payload []byte) (int, error) {
	records := SplitLines(payload, sourceID, i.now().UTC())
	if len(records) == 0 {
		i.logger.Info("nothing to publish", "source", sourceID)
		return 0, nil
	}

	result, err := stream.Publish(ctx, i.publisher, records, stream.JSONEntry(i.partitionBy.keyFunc()))
	if err != nil {
		i.logger.Error("publish failed", "source", sourceID, "records", len(records), "err", err)
		return 0, err
	}
	i.logger.Info("published source", "source", sourceID, "records", result.Records, "batches", len(result.Batches))
	return result.Records, nil
}

// IngestNotification handles an object-created event. All referenced keys are
// validated before any object is fetched.
func (i *Ingestor) IngestNotification(ctx context.Context, data []byte) (int, error) {
	n, err := ParseNotification(data)
	if err != nil {
		return 0, err
	}
	refs, err := n.Objects()
	if err != nil {
		return 0, err
	}
	if i.store == nil {
		return 0, ErrBlobStoreRequired
	}

	total := 0
	for _, ref := range refs {
		payload, err := i.store.Get(ctx, ref.Bucket, ref.Key)
		if err != nil {
			return total, err
		}
		count, err := i.IngestText(ctx, ref.Key, payload)
		total += count
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// HandleRequest serves a direct ingest call. The request name becomes the
// source id.
func (i *Ingestor) HandleRequest(ctx context.Context, body []byte) Response {
	req, payload, err := ParseFileRequest(body)
	if err == nil {
		_, err = i.IngestText(ctx, req.Name, payload)
	}
	if err != nil {
		i.logger.Warn("request failed", "err", err)
	}
	return NewResponse(err)
}
