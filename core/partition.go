package core

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// partitionKeySize is the digest size in bytes (128 bits).
const partitionKeySize = 16

// PartitionKey derives a queue routing key from identity fields using a
// 128-bit BLAKE2b digest over the fields joined with "-". Identical fields
// always produce identical keys. Collisions only affect routing.
func PartitionKey(fields ...string) string {
	h, _ := blake2b.New(partitionKeySize, nil)
	h.Write([]byte(strings.Join(fields, "-")))
	return hex.EncodeToString(h.Sum(nil))
}

// RecordPartitionKey keys a record by its line number and text.
func RecordPartitionKey(r TextRecord) string {
	return PartitionKey(strconv.Itoa(r.Line), r.Text)
}

// SourcePartitionKey keys a record by its source, keeping every line of one
// source on the same ordering lane.
func SourcePartitionKey(r TextRecord) string {
	return PartitionKey(r.SourceID)
}
