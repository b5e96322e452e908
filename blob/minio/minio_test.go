package minio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/linestream/blob"
	"github.com/poiesic/linestream/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noSuchKey = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>missing.txt</Key><BucketName>uploads</BucketName></Error>`

func newTestStore(t *testing.T, objects map[string]string) *Store {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := objects[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(noSuchKey))
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	store, err := NewStore(Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Region:    "us-east-1",
	}, nil)
	require.NoError(t, err)
	return store
}

func TestStore_Get(t *testing.T) {
	store := newTestStore(t, map[string]string{"uploads/notes.txt": "qwe\n\nasd"})

	data, err := store.Get(context.Background(), "uploads", "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "qwe\n\nasd", string(data))
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t, nil)

	_, err := store.Get(context.Background(), "uploads", "missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, blob.ErrNotFound)
	var te *core.TransportError
	assert.True(t, errors.As(err, &te))
}

var _ blob.Store = (*Store)(nil)
