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

package badger

import (
	"encoding/binary"
	"strconv"
)

// Key prefixes for different data types
const (
	entryPrefix    = "qent"
	cursorPrefix   = "qcur"
	sequencePrefix = "qseq"
)

// lengthPrefixed encodes a name as len:name so no name's segment can be a
// prefix of another's.
func lengthPrefixed(name string) string {
	return strconv.Itoa(len(name)) + ":" + name
}

// makeStreamPrefix generates the key prefix shared by all entries of a stream.
// Format: prefix:len:stream:
func makeStreamPrefix(stream string) []byte {
	return []byte(entryPrefix + ":" + lengthPrefixed(stream) + ":")
}

// makeEntryKey generates a key for one entry of a stream.
// Format: prefix:len:stream:seq
func makeEntryKey(stream string, seq uint64) []byte {
	prefix := makeStreamPrefix(stream)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort matches append order
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// parseEntrySeq extracts the sequence number from an entry key.
func parseEntrySeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}

// makeCursorKey generates the key holding a consumer's next sequence number.
// Format: prefix:len:stream:consumer
func makeCursorKey(stream, consumer string) []byte {
	return []byte(cursorPrefix + ":" + lengthPrefixed(stream) + ":" + consumer)
}

// makeSequenceName names the badger sequence that numbers a stream's entries.
func makeSequenceName(stream string) string {
	return sequencePrefix + ":" + stream
}
