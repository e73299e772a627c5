package memstore

import (
	"context"
	"testing"

	"github.com/conduit-lang/projector/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed() *Backend {
	b := New()
	b.Insert("messages",
		entity.Row{"message_id": 1, "conversation_id": 1, "date": 30},
		entity.Row{"message_id": 2, "conversation_id": 1, "date": 10},
		entity.Row{"message_id": 3, "conversation_id": 2, "date": 20},
	)
	return b
}

func TestSelect_Conditions(t *testing.T) {
	b := seed()

	rows, err := b.Select(context.Background(), entity.Query{
		Table:      "messages",
		Conditions: []entity.Condition{{Field: "conversation_id", Values: []interface{}{int64(1)}}},
	})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 1, b.QueryCount())
}

func TestSelect_OrderAndLimit(t *testing.T) {
	b := seed()

	rows, err := b.Select(context.Background(), entity.Query{Table: "messages", OrderBy: "date DESC", Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0]["message_id"])
	assert.Equal(t, 3, rows[1]["message_id"])
}

func TestSelect_InvalidOrder(t *testing.T) {
	_, err := seed().Select(context.Background(), entity.Query{Table: "messages", OrderBy: "date SIDEWAYS"})
	assert.Error(t, err)
}

func TestSelect_ReturnsCopies(t *testing.T) {
	b := seed()
	ctx := context.Background()
	q := entity.Query{Table: "messages", OrderBy: "message_id"}

	rows, err := b.Select(ctx, q)
	require.NoError(t, err)
	rows[0]["date"] = 999

	rows, err = b.Select(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 30, rows[0]["date"])
}

func TestQueriesAndReset(t *testing.T) {
	b := seed()
	_, err := b.Select(context.Background(), entity.Query{Type: "message", Table: "messages"})
	require.NoError(t, err)

	require.Len(t, b.Queries(), 1)
	assert.Equal(t, "message", b.Queries()[0].Type)

	b.Reset()
	assert.Equal(t, 0, b.QueryCount())
	assert.Empty(t, b.Queries())
}

func TestSelect_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seed().Select(ctx, entity.Query{Table: "messages"})
	assert.ErrorIs(t, err, context.Canceled)
}
