// Package kinesis implements stream.Submitter and stream.Source on Amazon
// Kinesis Data Streams.
package kinesis

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/aws/aws-sdk-go/service/kinesis/kinesisiface"
	"github.com/poiesic/linestream/core"
	"github.com/poiesic/linestream/stream"
)

// ErrNoShards is returned when a stream has no shard to read.
var ErrNoShards = errors.New("stream has no shards")

// Submitter writes entries with PutRecords.
type Submitter struct {
	api    kinesisiface.KinesisAPI
	logger *slog.Logger
}

var _ stream.Submitter = (*Submitter)(nil)

// NewSubmitter creates a submitter from an AWS session.
func NewSubmitter(sess client.ConfigProvider, logger *slog.Logger) *Submitter {
	return NewSubmitterWithAPI(kinesis.New(sess), logger)
}

// NewSubmitterWithAPI creates a submitter on an existing Kinesis client.
func NewSubmitterWithAPI(api kinesisiface.KinesisAPI, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{api: api, logger: logger.With("component", "kinesis-submitter")}
}

// Submit sends entries in one PutRecords call. Kinesis accepts or rejects
// each entry individually; rejections are counted in FailedCount.
func (s *Submitter) Submit(ctx context.Context, name string, entries []core.Entry) (stream.SubmitResult, error) {
	records := make([]*kinesis.PutRecordsRequestEntry, len(entries))
	for i, entry := range entries {
		records[i] = &kinesis.PutRecordsRequestEntry{
			Data:         entry.Data,
			PartitionKey: aws.String(entry.PartitionKey),
		}
	}

	out, err := s.api.PutRecordsWithContext(ctx, &kinesis.PutRecordsInput{
		StreamName: aws.String(name),
		Records:    records,
	})
	if err != nil {
		return stream.SubmitResult{}, &core.TransportError{Op: "kinesis put records " + name, Err: err}
	}

	failed := int(aws.Int64Value(out.FailedRecordCount))
	if failed > 0 {
		codes := map[string]int{}
		for _, r := range out.Records {
			if code := aws.StringValue(r.ErrorCode); code != "" {
				codes[code]++
			}
		}
		s.logger.Warn("entries rejected", "stream", name, "failed", failed, "total", len(entries), "codes", codes)
	}
	return stream.SubmitResult{FailedCount: failed}, nil
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithShardID reads the given shard. Default is the first shard of the stream.
func WithShardID(id string) SourceOption {
	return func(s *Source) {
		s.shardID = id
	}
}

// WithIteratorType sets where reading starts when no sequence number has been
// committed yet. Default is TRIM_HORIZON.
func WithIteratorType(iteratorType string) SourceOption {
	return func(s *Source) {
		s.iteratorType = iteratorType
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) SourceOption {
	return func(s *Source) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// Source reads one shard with GetRecords. The shard iterator only advances on
// commit; after an iterator expires, reading resumes after the last committed
// sequence number.
type Source struct {
	api          kinesisiface.KinesisAPI
	stream       string
	shardID      string
	iteratorType string
	logger       *slog.Logger

	mu            sync.Mutex
	iterator      *string
	lastCommitted string
}

var _ stream.Source = (*Source)(nil)

// NewSource creates a source from an AWS session.
func NewSource(sess client.ConfigProvider, name string, opts ...SourceOption) (*Source, error) {
	return NewSourceWithAPI(kinesis.New(sess), name, opts...)
}

// NewSourceWithAPI creates a source on an existing Kinesis client.
func NewSourceWithAPI(api kinesisiface.KinesisAPI, name string, opts ...SourceOption) (*Source, error) {
	if name == "" {
		return nil, stream.ErrStreamRequired
	}
	s := &Source{
		api:          api,
		stream:       name,
		iteratorType: kinesis.ShardIteratorTypeTrimHorizon,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "kinesis-source", "stream", name)
	return s, nil
}

func (s *Source) resolveShard(ctx context.Context) error {
	if s.shardID != "" {
		return nil
	}
	out, err := s.api.ListShardsWithContext(ctx, &kinesis.ListShardsInput{
		StreamName: aws.String(s.stream),
	})
	if err != nil {
		return err
	}
	if len(out.Shards) == 0 {
		return ErrNoShards
	}
	s.shardID = aws.StringValue(out.Shards[0].ShardId)
	return nil
}

func (s *Source) shardIterator(ctx context.Context) (*string, error) {
	if s.iterator != nil {
		return s.iterator, nil
	}
	if err := s.resolveShard(ctx); err != nil {
		return nil, err
	}
	input := &kinesis.GetShardIteratorInput{
		StreamName:        aws.String(s.stream),
		ShardId:           aws.String(s.shardID),
		ShardIteratorType: aws.String(s.iteratorType),
	}
	if s.lastCommitted != "" {
		input.ShardIteratorType = aws.String(kinesis.ShardIteratorTypeAfterSequenceNumber)
		input.StartingSequenceNumber = aws.String(s.lastCommitted)
	}
	out, err := s.api.GetShardIteratorWithContext(ctx, input)
	if err != nil {
		return nil, err
	}
	s.iterator = out.ShardIterator
	return s.iterator, nil
}

// Fetch returns up to limit records from the shard.
func (s *Source) Fetch(ctx context.Context, limit int) (*stream.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = stream.DefaultMaxBatchSize
	}

	iterator, err := s.shardIterator(ctx)
	if err != nil {
		return nil, &core.TransportError{Op: "kinesis get shard iterator " + s.stream, Err: err}
	}

	out, err := s.api.GetRecordsWithContext(ctx, &kinesis.GetRecordsInput{
		ShardIterator: iterator,
		Limit:         aws.Int64(int64(limit)),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == kinesis.ErrCodeExpiredIteratorException {
			s.logger.Warn("shard iterator expired", "shard", s.shardID)
			s.iterator = nil
		}
		return nil, &core.TransportError{Op: "kinesis get records " + s.stream, Err: err}
	}

	// An empty page has nothing to acknowledge, so the iterator moves on now.
	if len(out.Records) == 0 {
		if out.NextShardIterator != nil {
			s.iterator = out.NextShardIterator
		}
		return stream.NewDelivery(core.Envelope{}, nil), nil
	}

	env := core.Envelope{Records: make([]core.EnvelopeRecord, len(out.Records))}
	for i, r := range out.Records {
		env.Records[i] = core.NewEnvelopeRecord(
			r.Data,
			aws.StringValue(r.PartitionKey),
			aws.StringValue(r.SequenceNumber),
			aws.TimeValue(r.ApproximateArrivalTimestamp),
		)
	}

	next := out.NextShardIterator
	last := aws.StringValue(out.Records[len(out.Records)-1].SequenceNumber)
	return stream.NewDelivery(env, func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.iterator = next
		if last != "" {
			s.lastCommitted = last
		}
		return nil
	}), nil
}

// Close is a no-op; the AWS client holds no per-source resources.
func (s *Source) Close() error {
	return nil
}
