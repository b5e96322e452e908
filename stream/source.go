package stream

import (
	"context"

	"github.com/poiesic/linestream/core"
)

// Source reads envelopes from a queue. A delivery stays uncommitted until its
// Commit is called, so a consumer that fails before committing sees the same
// records again.
type Source interface {
	// Fetch returns up to limit records. It may return an empty envelope
	// when nothing is available.
	Fetch(ctx context.Context, limit int) (*Delivery, error)
	Close() error
}

// Delivery is one fetched envelope and the means to acknowledge it.
type Delivery struct {
	Envelope core.Envelope
	commit   func(context.Context) error
}

// NewDelivery pairs an envelope with its commit function. commit may be nil
// when the source needs no acknowledgement.
func NewDelivery(env core.Envelope, commit func(context.Context) error) *Delivery {
	return &Delivery{Envelope: env, commit: commit}
}

// Len returns the number of records in the delivery.
func (d *Delivery) Len() int {
	return len(d.Envelope.Records)
}

// Commit acknowledges the delivery.
func (d *Delivery) Commit(ctx context.Context) error {
	if d.commit == nil {
		return nil
	}
	return d.commit(ctx)
}
