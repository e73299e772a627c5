package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntity_Accessors(t *testing.T) {
	fields := map[string]interface{}{"post_id": 7, "title": "Hello", "open": "1", "score": "12"}
	e := New("post", []string{"post_id"}, fields)

	fields["title"] = "changed"

	assert.Equal(t, "post", e.Type())
	assert.Equal(t, int64(7), e.ID())
	assert.Equal(t, "7", e.Identity())
	assert.Equal(t, "Hello", e.String("title"))
	assert.Equal(t, int64(12), e.Int("score"))
	assert.True(t, e.Bool("open"))
	assert.False(t, e.Has("missing"))
	assert.Equal(t, int64(0), e.Int("missing"))
	assert.Nil(t, e.Graph())
}

func TestEntity_CompositeIdentity(t *testing.T) {
	e := New("membership", []string{"group_id", "user_id"}, map[string]interface{}{"group_id": 3, "user_id": 9})

	assert.Equal(t, "3-9", e.Identity())
	assert.Equal(t, int64(3), e.ID())
}

func TestEntity_DetachedRelations(t *testing.T) {
	e := New("post", []string{"post_id"}, map[string]interface{}{"post_id": 1})

	related, ok := e.Related("Author")
	assert.Nil(t, related)
	assert.False(t, ok)
	assert.False(t, e.IsHydrated("Author"))
}

func TestKeyOf(t *testing.T) {
	assert.Equal(t, "", KeyOf(nil))
	assert.Equal(t, "12", KeyOf(int64(12)))
	assert.Equal(t, "12", KeyOf(12))
	assert.Equal(t, "abc", KeyOf([]byte("abc")))
}

func TestCollection_OrderAndReplace(t *testing.T) {
	a := New("post", []string{"post_id"}, map[string]interface{}{"post_id": 1})
	b := New("post", []string{"post_id"}, map[string]interface{}{"post_id": 2})
	a2 := New("post", []string{"post_id"}, map[string]interface{}{"post_id": 1, "title": "new"})

	c := CollectionOf(b, a)
	c.Set("1", a2)

	assert.Equal(t, []string{"2", "1"}, c.Keys())
	assert.Equal(t, 2, c.Len())
	assert.Same(t, b, c.First())

	got, ok := c.Get(int64(1))
	require.True(t, ok)
	assert.Same(t, a2, got)
}

func TestCollection_MixedTypesKeepEveryEntity(t *testing.T) {
	post := New("post", []string{"post_id"}, map[string]interface{}{"post_id": 1})
	comment := New("comment", []string{"comment_id"}, map[string]interface{}{"comment_id": 1})

	c := CollectionOf(post, comment)

	require.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"post:1", "comment:1"}, c.Keys())
	assert.Same(t, post, c.Entities()[0])
	assert.Same(t, comment, c.Entities()[1])
}

func TestCollection_Nil(t *testing.T) {
	var c *Collection

	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Entities())
	assert.Nil(t, c.First())
	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestGraph_AddDeduplicates(t *testing.T) {
	g := NewGraph()
	first := New("post", []string{"post_id"}, map[string]interface{}{"post_id": 1})
	dup := New("post", []string{"post_id"}, map[string]interface{}{"post_id": 1})
	other := New("user", []string{"user_id"}, map[string]interface{}{"user_id": 1})

	assert.Same(t, first, g.Add(first))
	assert.Same(t, first, g.Add(dup))
	assert.Same(t, other, g.Add(other))
	assert.Equal(t, 2, g.Len())
	assert.Same(t, g, first.Graph())
	assert.Nil(t, dup.Graph())

	found, ok := g.Lookup("post", "1")
	require.True(t, ok)
	assert.Same(t, first, found)
}

func TestGraph_HydrateSingle(t *testing.T) {
	g := NewGraph()
	post := New("post", []string{"post_id"}, map[string]interface{}{"post_id": 1})
	author := New("user", []string{"user_id"}, map[string]interface{}{"user_id": 5})
	orphan := New("post", []string{"post_id"}, map[string]interface{}{"post_id": 2})

	g.HydrateSingle(post, "Author", author)
	g.HydrateSingle(orphan, "Author", nil)

	related, ok := post.Related("Author")
	require.True(t, ok)
	assert.Same(t, author, related)

	related, ok = orphan.Related("Author")
	assert.True(t, ok)
	assert.Nil(t, related)
	assert.True(t, orphan.IsHydrated("Author"))
	assert.False(t, orphan.IsHydrated("Comments"))
}

func TestGraph_HydrateCollectionKeepsKeysAndOrder(t *testing.T) {
	g := NewGraph()
	post := New("post", []string{"post_id"}, map[string]interface{}{"post_id": 1})
	c1 := New("comment", []string{"comment_id"}, map[string]interface{}{"comment_id": 11, "user_id": 9})
	c2 := New("comment", []string{"comment_id"}, map[string]interface{}{"comment_id": 10, "user_id": 3})

	members := NewCollection()
	members.Set("9", c1)
	members.Set("3", c2)
	g.HydrateCollection(post, "Comments", members)

	comments, ok := post.RelatedCollection("Comments")
	require.True(t, ok)
	assert.Equal(t, []string{"9", "3"}, comments.Keys())

	got, ok := comments.Get(3)
	require.True(t, ok)
	assert.Same(t, c2, got)
}
