package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetAndGet(t *testing.T) {
	c := NewMemory(DefaultConfig())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))

	value, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}

func TestMemory_Miss(t *testing.T) {
	c := NewMemory(DefaultConfig())

	_, err := c.Get(context.Background(), "absent")
	assert.True(t, IsMiss(err))
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory(DefaultConfig())
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))

	now = now.Add(2 * time.Second)
	_, err := c.Get(ctx, "k")
	assert.True(t, IsMiss(err))
	assert.Equal(t, 1, c.Prune())
}

func TestMemory_NegativeTTLNeverExpires(t *testing.T) {
	c := NewMemory(DefaultConfig())
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), -1))
	now = now.Add(time.Hour)

	_, err := c.Get(ctx, "k")
	assert.NoError(t, err)
}

func TestMemory_StoredValueIsCopied(t *testing.T) {
	c := NewMemory(DefaultConfig())
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestMemory_DeleteAndClear(t *testing.T) {
	c := NewMemory(DefaultConfig())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))

	require.NoError(t, c.Delete(ctx, "a"))
	_, err := c.Get(ctx, "a")
	assert.True(t, IsMiss(err))

	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "b")
	assert.True(t, IsMiss(err))
}

func TestMemory_CanceledContext(t *testing.T) {
	c := NewMemory(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Set(ctx, "k", []byte("v"), 0), context.Canceled)
}

func TestKey(t *testing.T) {
	a := Key("render", "conversation", "1,2", "")
	b := Key("render", "conversation", "1,2", "")
	c := Key("render", "conversation", "1", "2,")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "render:")
	assert.Len(t, a, len("render:")+32)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, err := c.Get(ctx, "k")
	assert.True(t, IsMiss(err))
}
