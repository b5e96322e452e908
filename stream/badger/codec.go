package badger

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/linestream/core"
)

// storedEntry is the persisted form of one queue entry.
type storedEntry struct {
	PartitionKey string
	Data         []byte
	ArrivedAt    time.Time
}

func (e storedEntry) size() int {
	return ord.String.Size(e.PartitionKey) +
		ord.String.Size(string(e.Data)) +
		varint.Int64.Size(e.ArrivedAt.UnixMicro())
}

func marshalEntry(entry core.Entry, arrivedAt time.Time) []byte {
	e := storedEntry{PartitionKey: entry.PartitionKey, Data: entry.Data, ArrivedAt: arrivedAt}
	buf := make([]byte, e.size())
	n := ord.String.Marshal(e.PartitionKey, buf)
	n += ord.String.Marshal(string(e.Data), buf[n:])
	varint.Int64.Marshal(e.ArrivedAt.UnixMicro(), buf[n:])
	return buf
}

func unmarshalEntry(data []byte) (storedEntry, error) {
	var e storedEntry
	pk, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return e, err
	}
	payload, n1, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return e, err
	}
	n += n1
	micros, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return e, err
	}
	e.PartitionKey = pk
	e.Data = []byte(payload)
	e.ArrivedAt = time.UnixMicro(micros).UTC()
	return e, nil
}

func marshalCursor(next uint64) []byte {
	buf := make([]byte, varint.Uint64.Size(next))
	varint.Uint64.Marshal(next, buf)
	return buf
}

func unmarshalCursor(data []byte) (uint64, error) {
	next, _, err := varint.Uint64.Unmarshal(data)
	return next, err
}
