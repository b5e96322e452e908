package ingestion

import (
	"errors"
	"testing"

	"github.com/poiesic/linestream/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notificationJSON(keys ...string) []byte {
	s := `{"Records":[`
	for i, key := range keys {
		if i > 0 {
			s += ","
		}
		s += `{"eventName":"ObjectCreated:Put","s3":{"bucket":{"name":"uploads"},"object":{"key":"` + key + `","size":12}}}`
	}
	return []byte(s + `]}`)
}

func TestNotification_Objects(t *testing.T) {
	n, err := ParseNotification(notificationJSON("notes.txt", "my+daily%28log%29.txt"))
	require.NoError(t, err)

	refs, err := n.Objects()
	require.NoError(t, err)
	assert.Equal(t, []ObjectRef{
		{Bucket: "uploads", Key: "notes.txt"},
		{Bucket: "uploads", Key: "my daily(log).txt"},
	}, refs)
}

func TestNotification_RejectsUnsupportedFormat(t *testing.T) {
	n, err := ParseNotification(notificationJSON("notes.txt", "photo.jpeg"))
	require.NoError(t, err)

	refs, err := n.Objects()
	assert.Nil(t, refs)
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestNotification_Empty(t *testing.T) {
	n, err := ParseNotification([]byte(`{"Records":[]}`))
	require.NoError(t, err)

	_, err = n.Objects()
	assert.ErrorIs(t, err, ErrEmptyNotification)
}

func TestParseNotification_Malformed(t *testing.T) {
	_, err := ParseNotification([]byte(`{"Records":`))
	var perr *core.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, -1, perr.Index)
}
