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
	"fmt"
	"regexp"
	"strings"
)

// SupportedFormat is the only file extension accepted by the object ingest path.
const SupportedFormat = "txt"

var formatPattern = regexp.MustCompile(`\.(\w{3,4})$`)

// FileFormat extracts the 3-4 character extension of an object key, or ""
// when the key has none.
func FileFormat(key string) string {
	m := formatPattern.FindStringSubmatch(key)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ValidateFormat returns a ValidationError unless key names a supported file.
func ValidateFormat(key string) error {
	format := FileFormat(key)
	if format != SupportedFormat {
		return &ValidationError{
			Field: "key",
			Err:   fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, format, key),
		}
	}
	return nil
}

// ValidateTextRecord validates a TextRecord according to domain rules.
//
// Validation rules:
//   - Text must contain at least one non-whitespace character
//   - Line must not be negative
func ValidateTextRecord(record TextRecord) error {
	if strings.TrimSpace(record.Text) == "" {
		return &ValidationError{Field: "text", Err: ErrEmptyText}
	}
	if record.Line < 0 {
		return &ValidationError{Field: "line", Err: fmt.Errorf("%w: %d", ErrNegativeLine, record.Line)}
	}
	return nil
}

// ParseSentiment maps a classifier label onto a Sentiment. Matching is case
// insensitive.
func ParseSentiment(label string) (Sentiment, error) {
	s := Sentiment(strings.ToUpper(strings.TrimSpace(label)))
	for _, known := range Sentiments {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSentiment, label)
}
