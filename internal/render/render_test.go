package render

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/conduit-lang/projector/internal/cache"
	"github.com/conduit-lang/projector/internal/entity"
	"github.com/conduit-lang/projector/internal/entity/memstore"
	"github.com/conduit-lang/projector/internal/fixtures"
	"github.com/conduit-lang/projector/internal/handlers"
	"github.com/conduit-lang/projector/internal/transform"
	"github.com/conduit-lang/projector/internal/transform/selector"
	"github.com/conduit-lang/projector/internal/visitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T, opts ...Option) (*Renderer, *memstore.Backend) {
	t.Helper()

	backend := memstore.New()
	fixtures.Forum(backend)

	registry, err := handlers.NewRegistry(nil)
	require.NoError(t, err)

	store := entity.NewStore(handlers.ForumSchema(), backend)
	return New(transform.New(registry, transform.WithStore(store)), opts...), backend
}

func TestRender(t *testing.T) {
	r, _ := newRenderer(t)

	body, err := r.Render(context.Background(), Request{
		Type:    handlers.TypeConversation,
		IDs:     []int64{2, 1},
		Visitor: visitor.New(1),
	})
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Len(t, decoded, 2)
	assert.EqualValues(t, 1, decoded[0]["conversation_id"])
	assert.EqualValues(t, 2, decoded[1]["conversation_id"])
	assert.Equal(t, true, decoded[0]["conversation_has_new_message"])
	assert.NotContains(t, decoded[0], "last_message")
}

func TestRender_NoIDs(t *testing.T) {
	r, _ := newRenderer(t)

	_, err := r.Render(context.Background(), Request{Type: handlers.TypeConversation})
	assert.ErrorIs(t, err, ErrNoIDs)
}

func TestRender_UnknownType(t *testing.T) {
	r, _ := newRenderer(t)

	_, err := r.Render(context.Background(), Request{Type: "thread", IDs: []int64{1}})
	assert.ErrorIs(t, err, entity.ErrUnknownType)
}

func TestRender_Cache(t *testing.T) {
	mem := cache.NewMemory(cache.DefaultConfig())
	r, backend := newRenderer(t, WithCache(mem, 0))
	ctx := context.Background()
	req := Request{Type: handlers.TypeConversation, IDs: []int64{1}, Visitor: visitor.New(2)}

	first, err := r.Render(ctx, req)
	require.NoError(t, err)
	queries := backend.QueryCount()

	second, err := r.Render(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, queries, backend.QueryCount())

	// another visitor sees different permissions and misses the cache
	_, err = r.Render(ctx, Request{Type: handlers.TypeConversation, IDs: []int64{1}, Visitor: visitor.New(1)})
	require.NoError(t, err)
	assert.Greater(t, backend.QueryCount(), queries)
}

func TestCacheKey(t *testing.T) {
	base := Request{Type: handlers.TypeConversation, IDs: []int64{1, 2}, Visitor: visitor.New(1)}

	reordered := base
	reordered.IDs = []int64{2, 1}
	assert.Equal(t, CacheKey(base), CacheKey(reordered))

	selected := base
	selected.Selector = selector.New([]string{"*", "last_message"}, nil)
	assert.NotEqual(t, CacheKey(base), CacheKey(selected))

	guest := base
	guest.Visitor = nil
	assert.NotEqual(t, CacheKey(base), CacheKey(guest))

	ignoring := base
	ignoring.Visitor = visitor.New(1, visitor.WithIgnored(2))
	assert.NotEqual(t, CacheKey(base), CacheKey(ignoring))

	permitted := base
	permitted.Visitor = visitor.New(1, visitor.WithPermissions(handlers.PermissionUploadAttachment))
	assert.NotEqual(t, CacheKey(base), CacheKey(permitted))
}

func TestRender_CacheSeparatesIgnoreListsAndPermissions(t *testing.T) {
	mem := cache.NewMemory(cache.DefaultConfig())
	r, _ := newRenderer(t, WithCache(mem, 0))
	ctx := context.Background()

	_, err := r.Render(ctx, Request{Type: handlers.TypeConversation, IDs: []int64{1}, Visitor: visitor.New(2)})
	require.NoError(t, err)

	body, err := r.Render(ctx, Request{
		Type:    handlers.TypeConversation,
		IDs:     []int64{1},
		Visitor: visitor.New(2, visitor.WithIgnored(1), visitor.WithPermissions(handlers.PermissionUploadAttachment)),
	})
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, true, decoded[0]["user_is_ignored"])
	permissions := decoded[0]["permissions"].(map[string]interface{})
	assert.Equal(t, true, permissions["upload_attachment"])
}
