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

// Package stream moves records on and off a partitioned append-only queue.
//
// The package is backend agnostic. A Submitter writes entries to a named
// stream and a Source reads envelopes back; the kinesis, kafka and badger
// subpackages provide implementations.
//
// On the publish side, Batches splits an ordered slice into provider-sized
// chunks and Publish fans every chunk out to a worker pool, joining all
// submissions before reporting a per-batch result list. A failed batch fails
// the whole call but batches that succeeded stay published: the queue has no
// transactional undo.
//
// On the consume side, Decoder turns an Envelope back into typed records,
// preserving the order in which the queue delivered them.
package stream
