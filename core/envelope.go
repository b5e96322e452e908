package core

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// MaxEntriesPerSubmit is the queue provider's ceiling on entries per submit call.
const MaxEntriesPerSubmit = 500

// Entry is one item handed to the queue service.
type Entry struct {
	Data         []byte
	PartitionKey string
}

// Envelope is a delivery from the queue service. Its JSON form is the
// provider's event shape: {"Records":[{"kinesis":{...}}]}.
type Envelope struct {
	Records []EnvelopeRecord `json:"Records"`
}

// EnvelopeRecord wraps a single queue record.
type EnvelopeRecord struct {
	Kinesis StreamRecord `json:"kinesis"`
}

// StreamRecord carries one opaque payload and its delivery metadata.
// Data is base64 encoded.
type StreamRecord struct {
	Data                        string    `json:"data"`
	PartitionKey                string    `json:"partitionKey"`
	SequenceNumber              string    `json:"sequenceNumber"`
	ApproximateArrivalTimestamp EpochTime `json:"approximateArrivalTimestamp"`
}

// NewEnvelopeRecord builds an envelope record from raw payload bytes.
func NewEnvelopeRecord(data []byte, partitionKey, sequenceNumber string, arrival time.Time) EnvelopeRecord {
	return EnvelopeRecord{
		Kinesis: StreamRecord{
			Data:                        base64.StdEncoding.EncodeToString(data),
			PartitionKey:                partitionKey,
			SequenceNumber:              sequenceNumber,
			ApproximateArrivalTimestamp: EpochTime(arrival),
		},
	}
}

// Len returns the number of records in the envelope.
func (e *Envelope) Len() int {
	return len(e.Records)
}

// ParseEnvelope decodes a queue event document.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ParseError{Index: -1, Err: fmt.Errorf("malformed envelope: %w", err)}
	}
	return &env, nil
}

// EpochTime is a time encoded as fractional seconds since the Unix epoch.
type EpochTime time.Time

// Time returns the value as a time.Time.
func (t EpochTime) Time() time.Time {
	return time.Time(t)
}

// MarshalJSON encodes the time as epoch seconds with microsecond precision.
// Nanoseconds below a microsecond are dropped.
func (t EpochTime) MarshalJSON() ([]byte, error) {
	tm := time.Time(t)
	if tm.IsZero() {
		return []byte("0"), nil
	}
	secs := float64(tm.UnixMicro()) / 1e6
	return json.Marshal(secs)
}

// UnmarshalJSON decodes epoch seconds, rounding to the nearest microsecond.
func (t *EpochTime) UnmarshalJSON(data []byte) error {
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return err
	}
	if secs == 0 {
		*t = EpochTime(time.Time{})
		return nil
	}
	whole, frac := math.Modf(secs)
	*t = EpochTime(time.Unix(int64(whole), int64(math.Round(frac*1e6))*int64(time.Microsecond)).UTC())
	return nil
}
