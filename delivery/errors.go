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

package delivery

import "errors"

var (
	// ErrUnknownMode is returned for a delivery mode other than QUEUE_FORWARD or BULK_INDEX.
	ErrUnknownMode = errors.New("unknown delivery mode")

	// ErrPublisherRequired is returned when queue forwarding has no publisher.
	ErrPublisherRequired = errors.New("publisher required")

	// ErrIndexerRequired is returned when bulk indexing has no indexer.
	ErrIndexerRequired = errors.New("bulk indexer required")

	// ErrEndpointRequired is returned when no search endpoint is configured.
	ErrEndpointRequired = errors.New("search endpoint required")

	// ErrIndexRequired is returned when no index name is configured.
	ErrIndexRequired = errors.New("index name required")

	// ErrBulkItemsFailed is returned when the search service rejected documents of a bulk request.
	ErrBulkItemsFailed = errors.New("bulk request had item failures")
)
