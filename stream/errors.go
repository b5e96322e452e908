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

package stream

import "errors"

var (
	// ErrInvalidBatchSize is returned when a batch size is not positive or
	// exceeds the provider ceiling.
	ErrInvalidBatchSize = errors.New("invalid batch size")

	// ErrSubmitterRequired is returned when a publisher has no submitter.
	ErrSubmitterRequired = errors.New("submitter required")

	// ErrStreamRequired is returned when no stream name is configured.
	ErrStreamRequired = errors.New("stream name required")

	// ErrEntriesFailed is returned when the queue accepted a submit call but
	// rejected one or more of its entries.
	ErrEntriesFailed = errors.New("queue rejected entries")
)
