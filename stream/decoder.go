package stream

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/poiesic/linestream/core"
)

// Decoder converts queue envelopes into records of type T.
type Decoder[T any] struct {
	stamp func(*T, time.Time)
	now   func() time.Time
}

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// WithStamp sets a function that records the processing time on every
// decoded record.
func WithStamp[T any](stamp func(*T, time.Time)) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.stamp = stamp
	}
}

// WithClock replaces the processing clock. Default is time.Now in UTC.
func WithClock[T any](now func() time.Time) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDecoder creates a decoder for records of type T.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewRecordDecoder returns a decoder for enriched records that stamps
// ReceivedAt.
func NewRecordDecoder(opts ...DecoderOption[core.EnrichedRecord]) *Decoder[core.EnrichedRecord] {
	opts = append([]DecoderOption[core.EnrichedRecord]{
		WithStamp(func(r *core.EnrichedRecord, at time.Time) {
			r.ReceivedAt = &at
		}),
	}, opts...)
	return NewDecoder(opts...)
}

// Decode decodes every record of env in delivery order. Sequence numbers are
// not used for reordering. The first undecodable record fails the whole
// envelope with a *core.ParseError.
func (d *Decoder[T]) Decode(env core.Envelope) ([]T, error) {
	out := make([]T, len(env.Records))
	for i, rec := range env.Records {
		if err := d.decodeInto(&out[i], rec.Kinesis); err != nil {
			return nil, &core.ParseError{Index: i, SequenceNumber: rec.Kinesis.SequenceNumber, Err: err}
		}
	}
	return out, nil
}

func (d *Decoder[T]) decodeInto(dst *T, rec core.StreamRecord) error {
	raw, err := base64.StdEncoding.DecodeString(rec.Data)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if d.stamp != nil {
		d.stamp(dst, d.now())
	}
	return nil
}

// JSONEntry returns a mapping function for Publish that serializes a record as
// JSON and keys it with partitionKey.
func JSONEntry[T any](partitionKey func(T) string) func(T) (core.Entry, error) {
	return func(record T) (core.Entry, error) {
		data, err := json.Marshal(record)
		if err != nil {
			return core.Entry{}, err
		}
		return core.Entry{Data: data, PartitionKey: partitionKey(record)}, nil
	}
}
