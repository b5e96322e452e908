// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package linestream

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/poiesic/linestream/ai"
	"github.com/poiesic/linestream/ai/comprehend"
	"github.com/poiesic/linestream/ai/mock"
	"github.com/poiesic/linestream/ai/openai"
	"github.com/poiesic/linestream/awsutil"
	"github.com/poiesic/linestream/blob"
	"github.com/poiesic/linestream/blob/minio"
	"github.com/poiesic/linestream/blob/s3"
	"github.com/poiesic/linestream/config"
	"github.com/poiesic/linestream/delivery"
	"github.com/poiesic/linestream/enrich"
	"github.com/poiesic/linestream/ingestion"
	"github.com/poiesic/linestream/stream"
	"github.com/poiesic/linestream/stream/badger"
	"github.com/poiesic/linestream/stream/kafka"
	"github.com/poiesic/linestream/stream/kinesis"
)

// Pipeline builds every stage from one configuration. Clients are created
// once and shared by the stages it hands out.
type Pipeline struct {
	cfg        *config.Config
	sess       *session.Session
	backend    *badger.Backend
	queue      *badger.Queue
	submitter  stream.Submitter
	publisher  *stream.Publisher
	classifier ai.SentimentClassifier
	store      blob.Store
	closers    []func() error
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// WithClassifier replaces the configured classifier.
func WithClassifier(classifier ai.SentimentClassifier) Option {
	return func(p *Pipeline) {
		p.classifier = classifier
	}
}

// WithBlobStore replaces the configured blob store.
func WithBlobStore(store blob.Store) Option {
	return func(p *Pipeline) {
		p.store = store
	}
}

// NewPipeline validates cfg and connects to the configured queue.
func NewPipeline(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.openQueue(); err != nil {
		p.Close()
		return nil, err
	}

	publisher, err := p.newPublisher(cfg.Queue.Stream)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.publisher = publisher
	return p, nil
}

// Config returns the validated configuration.
func (p *Pipeline) Config() *config.Config {
	return p.cfg
}

// Queue returns the local queue, or nil for remote backends.
func (p *Pipeline) Queue() *badger.Queue {
	return p.queue
}

func (p *Pipeline) session() (*session.Session, error) {
	if p.sess != nil {
		return p.sess, nil
	}
	sess, err := awsutil.NewSession(p.cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	p.sess = sess
	return sess, nil
}

func (p *Pipeline) openQueue() error {
	q := p.cfg.Queue
	switch q.Backend {
	case config.QueueBadger:
		if q.Path == "" {
			queue, err := badger.OpenMemoryQueue()
			if err != nil {
				return err
			}
			p.queue = queue
		} else {
			backend, err := badger.OpenBackend(q.Path, false, p.logger)
			if err != nil {
				return err
			}
			p.backend = backend
			p.queue = badger.NewQueue(backend)
		}
		p.submitter = p.queue
	case config.QueueKinesis:
		sess, err := p.session()
		if err != nil {
			return err
		}
		p.submitter = kinesis.NewSubmitter(sess, p.logger)
	case config.QueueKafka:
		sub := kafka.NewSubmitter(q.Brokers, p.logger)
		p.closers = append(p.closers, sub.Close)
		p.submitter = sub
	default:
		return fmt.Errorf("unknown queue backend %q", q.Backend)
	}
	return nil
}

func (p *Pipeline) poolOptions() []stream.Option {
	opts := []stream.Option{
		stream.WithMaxBatchSize(p.cfg.Queue.MaxBatchSize),
		stream.WithLogger(p.logger),
	}
	if p.cfg.PoolSize > 0 {
		opts = append(opts, stream.WithPoolSize(p.cfg.PoolSize))
	}
	return opts
}

func (p *Pipeline) newPublisher(name string) (*stream.Publisher, error) {
	publisher, err := stream.NewPublisher(p.submitter, name, p.poolOptions()...)
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, func() error {
		publisher.Release()
		return nil
	})
	return publisher, nil
}

// Publisher returns the publisher onto the ingest stream.
func (p *Pipeline) Publisher() *stream.Publisher {
	return p.publisher
}

func (p *Pipeline) blobStore() (blob.Store, error) {
	if p.store != nil {
		return p.store, nil
	}
	b := p.cfg.Blob
	switch b.Backend {
	case config.BlobS3:
		sess, err := p.session()
		if err != nil {
			return nil, err
		}
		p.store = s3.NewStore(sess, p.logger)
	case config.BlobMinIO:
		store, err := minio.NewStore(minio.Config{
			Endpoint:  b.Endpoint,
			AccessKey: b.AccessKey,
			SecretKey: b.SecretKey,
			Region:    b.Region,
			UseTLS:    b.UseTLS,
		}, p.logger)
		if err != nil {
			return nil, err
		}
		p.store = store
	default:
		return nil, fmt.Errorf("unknown blob backend %q", b.Backend)
	}
	return p.store, nil
}

// Ingestor returns an ingestor publishing onto the ingest stream.
func (p *Pipeline) Ingestor() (*ingestion.Ingestor, error) {
	store, err := p.blobStore()
	if err != nil {
		return nil, err
	}
	partitionBy, err := ingestion.ParsePartitionBy(p.cfg.Ingest.PartitionBy)
	if err != nil {
		return nil, err
	}
	return ingestion.NewIngestor(p.publisher,
		ingestion.WithBlobStore(store),
		ingestion.WithPartitionBy(partitionBy),
		ingestion.WithLogger(p.logger),
	)
}

func (p *Pipeline) sentimentClassifier() (ai.SentimentClassifier, error) {
	if p.classifier != nil {
		return p.classifier, nil
	}
	switch p.cfg.Classifier.Provider {
	case ai.ProviderComprehend:
		sess, err := p.session()
		if err != nil {
			return nil, err
		}
		p.classifier = comprehend.NewClassifier(sess)
	case ai.ProviderOpenAI:
		classifier, err := openai.NewClassifier(&p.cfg.Classifier)
		if err != nil {
			return nil, err
		}
		p.classifier = classifier
	case ai.ProviderMock:
		p.classifier = mock.NewMockClassifier()
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", p.cfg.Classifier.Provider)
	}
	return p.classifier, nil
}

func (p *Pipeline) deliverer() (*delivery.Deliverer, error) {
	d := p.cfg.Delivery
	mode, err := delivery.ParseMode(d.Mode)
	if err != nil {
		return nil, err
	}

	if mode == delivery.ModeQueueForward {
		publisher, err := p.newPublisher(p.cfg.Queue.OutputStream)
		if err != nil {
			return nil, err
		}
		return delivery.NewQueueForwarder(publisher, delivery.WithLogger(p.logger))
	}

	opts := []delivery.BulkOption{
		delivery.WithDocType(d.DocType),
		delivery.WithBulkLogger(p.logger),
	}
	if d.Sign {
		sess, err := p.session()
		if err != nil {
			return nil, err
		}
		opts = append(opts, delivery.WithSigV4(sess.Config.Credentials, p.cfg.AWS.Region))
	}
	indexer, err := delivery.NewBulkIndexer(d.Endpoint, d.Index, opts...)
	if err != nil {
		return nil, err
	}
	return delivery.NewBulkDeliverer(indexer, delivery.WithLogger(p.logger))
}

// Handler returns a handler that enriches queue envelopes and delivers them.
func (p *Pipeline) Handler() (*enrich.Handler, error) {
	classifier, err := p.sentimentClassifier()
	if err != nil {
		return nil, err
	}

	opts := []enrich.Option{
		enrich.WithLanguageCode(p.cfg.Classifier.LanguageCode),
		enrich.WithLogger(p.logger),
	}
	if p.cfg.PoolSize > 0 {
		opts = append(opts, enrich.WithPoolSize(p.cfg.PoolSize))
	}
	enricher, err := enrich.NewEnricher(classifier, opts...)
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, func() error {
		enricher.Release()
		return nil
	})

	deliverer, err := p.deliverer()
	if err != nil {
		return nil, err
	}
	return enrich.NewHandler(enricher, deliverer, p.logger)
}

func (p *Pipeline) source() (stream.Source, error) {
	q := p.cfg.Queue
	switch q.Backend {
	case config.QueueBadger:
		return p.queue.Source(q.Stream, q.Consumer)
	case config.QueueKinesis:
		sess, err := p.session()
		if err != nil {
			return nil, err
		}
		return kinesis.NewSource(sess, q.Stream, kinesis.WithLogger(p.logger))
	case config.QueueKafka:
		return kafka.NewSource(q.Brokers, q.Stream, q.Consumer, kafka.WithLogger(p.logger))
	default:
		return nil, fmt.Errorf("unknown queue backend %q", q.Backend)
	}
}

// Consumer returns a consumer reading the ingest stream through Handler.
func (p *Pipeline) Consumer() (*enrich.Consumer, error) {
	handler, err := p.Handler()
	if err != nil {
		return nil, err
	}
	source, err := p.source()
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, source.Close)
	return enrich.NewConsumer(source, handler,
		enrich.WithBatchSize(p.cfg.Queue.FetchSize),
		enrich.WithPollInterval(p.cfg.Queue.PollInterval),
		enrich.WithConsumerLogger(p.logger),
	)
}

// Close releases every pool and client in reverse order of creation.
func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil

	if p.queue != nil {
		if err := p.queue.Close(); err != nil {
			p.logger.Error("error closing queue", "err", err)
			errs = append(errs, err)
		}
		p.queue = nil
	}
	if p.backend != nil {
		if err := p.backend.Close(); err != nil {
			p.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
		p.backend = nil
	}
	return errors.Join(errs...)
}
