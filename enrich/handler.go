package enrich

import (
	"context"
	"log/slog"

	"github.com/poiesic/linestream/core"
	"github.com/poiesic/linestream/stream"
)

// Deliverer hands enriched records to their destination.
type Deliverer interface {
	Deliver(ctx context.Context, records []core.EnrichedRecord) error
}

// Handler processes one queue envelope: decode, enrich, deliver. It fails as
// a unit; the caller must not acknowledge the envelope when it returns an
// error.
type Handler struct {
	decoder   *stream.Decoder[core.EnrichedRecord]
	enricher  *Enricher
	deliverer Deliverer
	logger    *slog.Logger
}

// NewHandler creates a handler. A nil logger uses slog.Default().
func NewHandler(enricher *Enricher, deliverer Deliverer, logger *slog.Logger) (*Handler, error) {
	if enricher == nil {
		return nil, ErrEnricherRequired
	}
	if deliverer == nil {
		return nil, ErrDelivererRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		decoder:   stream.NewRecordDecoder(),
		enricher:  enricher,
		deliverer: deliverer,
		logger:    logger.With("component", "handler"),
	}, nil
}

// Handle decodes, enriches and delivers the records of env. It returns the
// number of records delivered.
func (h *Handler) Handle(ctx context.Context, env core.Envelope) (int, error) {
	records, err := h.decoder.Decode(env)
	if err != nil {
		h.logger.Error("decode failed", "records", env.Len(), "err", err)
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	enriched, err := h.enricher.Enrich(ctx, records)
	if err != nil {
		return 0, err
	}

	if err := h.deliverer.Deliver(ctx, enriched); err != nil {
		h.logger.Error("delivery failed", "records", len(enriched), "err", err)
		return 0, err
	}
	h.logger.Info("handled envelope", "records", len(enriched))
	return len(enriched), nil
}

// HandleEvent parses a queue event document and handles it.
func (h *Handler) HandleEvent(ctx context.Context, data []byte) (int, error) {
	env, err := core.ParseEnvelope(data)
	if err != nil {
		return 0, err
	}
	return h.Handle(ctx, *env)
}
