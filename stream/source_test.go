package stream

import (
	"context"
	"testing"

	"github.com/poiesic/linestream/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelivery_Commit(t *testing.T) {
	committed := 0
	d := NewDelivery(core.Envelope{Records: make([]core.EnvelopeRecord, 3)}, func(context.Context) error {
		committed++
		return nil
	})
	assert.Equal(t, 3, d.Len())
	require.NoError(t, d.Commit(context.Background()))
	assert.Equal(t, 1, committed)

	require.NoError(t, NewDelivery(core.Envelope{}, nil).Commit(context.Background()))
}
