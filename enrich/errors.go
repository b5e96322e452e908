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

package enrich

import "errors"

var (
	// ErrClassifierRequired is returned when an enricher has no classifier.
	ErrClassifierRequired = errors.New("sentiment classifier required")

	// ErrNoResult is returned when a classifier reports neither a result nor an error.
	ErrNoResult = errors.New("classifier returned no result")

	// ErrEnricherRequired is returned when a handler has no enricher.
	ErrEnricherRequired = errors.New("enricher required")

	// ErrDelivererRequired is returned when a handler has no deliverer.
	ErrDelivererRequired = errors.New("deliverer required")

	// ErrSourceRequired is returned when a consumer has no source.
	ErrSourceRequired = errors.New("source required")

	// ErrHandlerRequired is returned when a consumer has no handler.
	ErrHandlerRequired = errors.New("handler required")
)
