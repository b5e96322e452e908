// Package kafka implements stream.Submitter and stream.Source on Apache Kafka.
// Stream names map to topics and partition keys to message keys, so the hash
// balancer keeps every key on one partition.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/linestream/core"
	"github.com/poiesic/linestream/stream"
	"github.com/segmentio/kafka-go"
)

const (
	kafkaMinBytes = 10_000     // 10KB
	kafkaMaxBytes = 10_000_000 // 10MB

	defaultPollTimeout = time.Second
	defaultLingerWait  = 50 * time.Millisecond
)

// ErrGroupRequired is returned when a source has no consumer group.
var ErrGroupRequired = errors.New("consumer group required")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter creates a synchronous writer with no default topic; every message
// names its own.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		BatchSize:    stream.DefaultMaxBatchSize,
		BatchBytes:   1 << 20,
		BatchTimeout: 5 * time.Millisecond,
		Compression:  kafka.Snappy,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
}

// NewReader creates a consumer-group reader. Offsets are committed explicitly.
func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:         brokers,
		GroupID:         group,
		Topic:           topic,
		MinBytes:        kafkaMinBytes,
		MaxBytes:        kafkaMaxBytes,
		MaxWait:         50 * time.Millisecond,
		QueueCapacity:   2048,
		ReadLagInterval: -1,
	})
}

// Submitter writes entries as keyed messages.
type Submitter struct {
	writer messageWriter
	logger *slog.Logger
}

var _ stream.Submitter = (*Submitter)(nil)

// NewSubmitter creates a submitter writing to the given brokers.
func NewSubmitter(brokers []string, logger *slog.Logger) *Submitter {
	return newSubmitter(NewWriter(brokers), logger)
}

func newSubmitter(w messageWriter, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{writer: w, logger: logger.With("component", "kafka-submitter")}
}

// Submit writes entries to the topic named by stream. Per-message failures
// are counted in FailedCount.
func (s *Submitter) Submit(ctx context.Context, name string, entries []core.Entry) (stream.SubmitResult, error) {
	msgs := make([]kafka.Message, len(entries))
	for i, entry := range entries {
		msgs[i] = kafka.Message{
			Topic: name,
			Key:   []byte(entry.PartitionKey),
			Value: entry.Data,
		}
	}

	err := s.writer.WriteMessages(ctx, msgs...)
	if err == nil {
		return stream.SubmitResult{}, nil
	}
	var werrs kafka.WriteErrors
	if errors.As(err, &werrs) {
		failed := werrs.Count()
		s.logger.Warn("messages rejected", "topic", name, "failed", failed, "total", len(entries), "err", err)
		return stream.SubmitResult{FailedCount: failed}, nil
	}
	return stream.SubmitResult{}, &core.TransportError{Op: "kafka write " + name, Err: err}
}

// Close flushes and closes the writer.
func (s *Submitter) Close() error {
	return s.writer.Close()
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithPollTimeout bounds how long Fetch waits for the first message.
// Default is one second.
func WithPollTimeout(d time.Duration) SourceOption {
	return func(s *Source) {
		if d > 0 {
			s.pollTimeout = d
		}
	}
}

// WithLingerWait bounds how long Fetch waits for each further message once
// the first has arrived. Default is 50ms.
func WithLingerWait(d time.Duration) SourceOption {
	return func(s *Source) {
		if d > 0 {
			s.lingerWait = d
		}
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

// Source reads a topic as a member of a consumer group. Offsets are committed
// only when a delivery is committed.
type Source struct {
	reader      messageReader
	topic       string
	pollTimeout time.Duration
	lingerWait  time.Duration
	logger      *slog.Logger
}

var _ stream.Source = (*Source)(nil)

// NewSource creates a consumer-group source for topic.
func NewSource(brokers []string, topic, group string, opts ...SourceOption) (*Source, error) {
	if topic == "" {
		return nil, stream.ErrStreamRequired
	}
	if group == "" {
		return nil, ErrGroupRequired
	}
	return newSource(NewReader(brokers, topic, group), topic, opts...), nil
}

func newSource(r messageReader, topic string, opts ...SourceOption) *Source {
	s := &Source{
		reader:      r,
		topic:       topic,
		pollTimeout: defaultPollTimeout,
		lingerWait:  defaultLingerWait,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "kafka-source", "topic", topic)
	return s
}

// fetchOne waits up to d for a message. ok is false when the wait timed out.
func (s *Source) fetchOne(ctx context.Context, d time.Duration) (msg kafka.Message, ok bool, err error) {
	fetchCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	msg, err = s.reader.FetchMessage(fetchCtx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return msg, false, nil
		}
		return msg, false, err
	}
	return msg, true, nil
}

// Fetch returns up to limit messages.
func (s *Source) Fetch(ctx context.Context, limit int) (*stream.Delivery, error) {
	if limit <= 0 {
		limit = stream.DefaultMaxBatchSize
	}

	var msgs []kafka.Message
	wait := s.pollTimeout
	for len(msgs) < limit {
		msg, ok, err := s.fetchOne(ctx, wait)
		if err != nil {
			return nil, &core.TransportError{Op: "kafka fetch " + s.topic, Err: err}
		}
		if !ok {
			break
		}
		msgs = append(msgs, msg)
		wait = s.lingerWait
	}

	env := core.Envelope{Records: make([]core.EnvelopeRecord, len(msgs))}
	for i, m := range msgs {
		env.Records[i] = core.NewEnvelopeRecord(m.Value, string(m.Key), fmt.Sprintf("%d-%d", m.Partition, m.Offset), m.Time)
	}
	if len(msgs) == 0 {
		return stream.NewDelivery(env, nil), nil
	}
	return stream.NewDelivery(env, func(ctx context.Context) error {
		if err := s.reader.CommitMessages(ctx, msgs...); err != nil {
			return &core.TransportError{Op: "kafka commit " + s.topic, Err: err}
		}
		return nil
	}), nil
}

// Close leaves the consumer group and closes the reader.
func (s *Source) Close() error {
	return s.reader.Close()
}
