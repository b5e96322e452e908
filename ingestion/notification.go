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

package ingestion

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/poiesic/linestream/core"
)

// Notification is an object-created event from the blob store.
type Notification struct {
	Records []NotificationRecord `json:"Records"`
}

// NotificationRecord describes one created object.
type NotificationRecord struct {
	EventName string `json:"eventName,omitempty"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key  string `json:"key"`
			Size int64  `json:"size,omitempty"`
		} `json:"object"`
	} `json:"s3"`
}

// ObjectRef locates a validated object.
type ObjectRef struct {
	Bucket string
	Key    string
}

// ParseNotification decodes an object-created event.
func ParseNotification(data []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, &core.ParseError{Index: -1, Err: fmt.Errorf("malformed notification: %w", err)}
	}
	return &n, nil
}

// Objects decodes and validates every referenced object. Nothing is returned
// unless all of them name a supported text file.
func (n *Notification) Objects() ([]ObjectRef, error) {
	if len(n.Records) == 0 {
		return nil, &core.ValidationError{Field: "Records", Err: ErrEmptyNotification}
	}

	refs := make([]ObjectRef, len(n.Records))
	for i, rec := range n.Records {
		// Keys arrive form-encoded: spaces as '+', the rest percent-escaped.
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			return nil, &core.ParseError{Index: i, Err: fmt.Errorf("object key %q: %w", rec.S3.Object.Key, err)}
		}
		if rec.S3.Bucket.Name == "" {
			return nil, &core.ValidationError{Field: "bucket", Err: fmt.Errorf("record %d has no bucket name", i)}
		}
		if err := core.ValidateFormat(key); err != nil {
			return nil, err
		}
		refs[i] = ObjectRef{Bucket: rec.S3.Bucket.Name, Key: key}
	}
	return refs, nil
}
