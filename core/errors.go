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

package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnsupportedFormat indicates an input object is not a supported text file.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyText indicates a record carries no text.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrNegativeLine indicates a record has a negative line number.
	ErrNegativeLine = errors.New("line cannot be negative")

	// ErrUnknownSentiment indicates a classifier returned a label outside the known set.
	ErrUnknownSentiment = errors.New("unknown sentiment")
)

// ValidationError reports input the pipeline refuses to process. It is raised
// before any side effect takes place.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Err.Error()
	}
	return fmt.Sprintf("validation: %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransportError reports a failed call to an external service: the queue,
// the classifier, the blob store or the search service.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a malformed envelope or payload. Index is the position of
// the offending record in its envelope, or -1 when the envelope itself is bad.
type ParseError struct {
	Index          int
	SequenceNumber string
	Err            error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse")
	if e.Index >= 0 {
		b.WriteString(" record ")
		b.WriteString(strconv.Itoa(e.Index))
	}
	if e.SequenceNumber != "" {
		b.WriteString(" (sequence ")
		b.WriteString(e.SequenceNumber)
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// IndexedError is the failure of one sub-operation of a fan-out.
type IndexedError struct {
	Index int
	Err   error
}

// AggregateError reports that one or more concurrently dispatched
// sub-operations failed. The other sub-operations may have succeeded.
type AggregateError struct {
	Op       string
	Total    int
	Failures []IndexedError
}

func (e *AggregateError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("#%d: %v", f.Index, f.Err)
	}
	return fmt.Sprintf("%s: %d of %d failed: %s", e.Op, len(e.Failures), e.Total, strings.Join(parts, "; "))
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// FailedIndexes returns the indexes of the failed sub-operations in order.
func (e *AggregateError) FailedIndexes() []int {
	idx := make([]int, len(e.Failures))
	for i, f := range e.Failures {
		idx[i] = f.Index
	}
	return idx
}
