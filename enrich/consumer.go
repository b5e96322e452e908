package enrich

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/linestream/stream"
)

const defaultPollInterval = time.Second

// Consumer feeds deliveries from a Source through a Handler and commits each
// delivery only after it was handled.
type Consumer struct {
	source       stream.Source
	handler      *Handler
	batchSize    int
	pollInterval time.Duration
	logger       *slog.Logger
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithBatchSize sets the maximum number of records fetched per delivery.
// Default is stream.DefaultMaxBatchSize.
func WithBatchSize(size int) ConsumerOption {
	return func(c *Consumer) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

// WithPollInterval sets how long Run waits after an empty fetch.
// Default is one second.
func WithPollInterval(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithConsumerLogger sets a custom logger.
// Default is slog.Default().
func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewConsumer creates a consumer.
func NewConsumer(source stream.Source, handler *Handler, opts ...ConsumerOption) (*Consumer, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if handler == nil {
		return nil, ErrHandlerRequired
	}
	c := &Consumer{
		source:       source,
		handler:      handler,
		batchSize:    stream.DefaultMaxBatchSize,
		pollInterval: defaultPollInterval,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "consumer")
	return c, nil
}

// RunOnce fetches and handles one delivery. It returns the number of records
// handled. A failed delivery is left uncommitted.
func (c *Consumer) RunOnce(ctx context.Context) (int, error) {
	delivery, err := c.source.Fetch(ctx, c.batchSize)
	if err != nil {
		return 0, err
	}
	if delivery.Len() == 0 {
		// Empty deliveries are committed so position-based sources move past them.
		return 0, delivery.Commit(ctx)
	}

	n, err := c.handler.Handle(ctx, delivery.Envelope)
	if err != nil {
		return 0, err
	}
	if err := delivery.Commit(ctx); err != nil {
		return n, err
	}
	return n, nil
}

// Run handles deliveries until ctx is done or a delivery fails. A canceled
// context ends the loop without error; a failed delivery is returned so the
// process can exit and the queue redeliver.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started", "batchSize", c.batchSize)
	total := 0
	for {
		n, err := c.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				break
			}
			c.logger.Error("consumer stopped", "handled", total, "err", err)
			return err
		}
		total += n
		if n > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopped", "handled", total)
			return nil
		case <-time.After(c.pollInterval):
		}
	}
	c.logger.Info("consumer stopped", "handled", total)
	return nil
}
