package entity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/conduit-lang/projector/internal/entity"
	"github.com/conduit-lang/projector/internal/entity/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blogSchema() *entity.Schema {
	return entity.NewSchema(
		&entity.TypeSchema{
			Type:       "post",
			Table:      "posts",
			PrimaryKey: []string{"post_id"},
			Relations: map[string]*entity.Relation{
				"Author": {
					Kind:         entity.Single,
					Target:       "user",
					LocalField:   "user_id",
					ForeignField: "user_id",
				},
				"Comments": {
					Kind:         entity.Many,
					Target:       "comment",
					LocalField:   "post_id",
					ForeignField: "post_id",
					KeyField:     "comment_id",
					OrderBy:      "created DESC",
					Conditions:   map[string]interface{}{"state": "visible"},
				},
			},
		},
		&entity.TypeSchema{
			Type:       "comment",
			Table:      "comments",
			PrimaryKey: []string{"comment_id"},
			Relations: map[string]*entity.Relation{
				"Author": {
					Kind:         entity.Single,
					Target:       "user",
					LocalField:   "user_id",
					ForeignField: "user_id",
				},
			},
		},
		&entity.TypeSchema{
			Type:       "user",
			Table:      "users",
			PrimaryKey: []string{"user_id"},
		},
	)
}

func seedBlog() *memstore.Backend {
	b := memstore.New()
	b.Insert("users",
		entity.Row{"user_id": 1, "name": "ann"},
		entity.Row{"user_id": 2, "name": "ben"},
	)
	b.Insert("posts",
		entity.Row{"post_id": 1, "user_id": 1},
		entity.Row{"post_id": 2, "user_id": 2},
		entity.Row{"post_id": 3, "user_id": 0},
	)
	b.Insert("comments",
		entity.Row{"comment_id": 10, "post_id": 1, "user_id": 2, "created": 100, "state": "visible"},
		entity.Row{"comment_id": 11, "post_id": 1, "user_id": 1, "created": 200, "state": "visible"},
		entity.Row{"comment_id": 12, "post_id": 1, "user_id": 1, "created": 300, "state": "hidden"},
		entity.Row{"comment_id": 20, "post_id": 2, "user_id": 1, "created": 150, "state": "visible"},
	)
	return b
}

func TestSchema_Validate(t *testing.T) {
	require.NoError(t, blogSchema().Validate())

	broken := entity.NewSchema(&entity.TypeSchema{
		Type:       "post",
		Table:      "posts",
		PrimaryKey: []string{"post_id"},
		Relations: map[string]*entity.Relation{
			"Author": {Kind: entity.Single, Target: "user", LocalField: "user_id", ForeignField: "user_id"},
		},
	})
	assert.ErrorIs(t, broken.Validate(), entity.ErrUnknownType)
}

func TestSchema_NewRequiresPrimaryKey(t *testing.T) {
	_, err := blogSchema().New("post", map[string]interface{}{"user_id": 1})
	assert.ErrorIs(t, err, entity.ErrMissingPrimaryKey)
}

func TestFinder_IsImmutable(t *testing.T) {
	store := entity.NewStore(blogSchema(), memstore.New())

	base := store.Finder("post")
	extended := base.Where("post_id", 1).With("Author").Order("post_id DESC").Limit(2)

	q, err := base.Query()
	require.NoError(t, err)
	assert.Empty(t, q.Conditions)
	assert.Empty(t, base.Relations())

	q, err = extended.Query()
	require.NoError(t, err)
	assert.Equal(t, "posts", q.Table)
	assert.Len(t, q.Conditions, 1)
	assert.Equal(t, "post_id DESC", q.OrderBy)
	assert.Equal(t, 2, q.Limit)
	assert.Equal(t, []string{"Author"}, extended.With("Author").Relations())
}

func TestFinder_FetchAddsToGraph(t *testing.T) {
	b := seedBlog()
	store := entity.NewStore(blogSchema(), b)
	g := entity.NewGraph()

	posts, err := store.Finder("post").Where("post_id", 2, 1).Order("post_id").Fetch(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, posts.Keys())
	assert.Equal(t, 2, g.Len())
	assert.Same(t, g, posts.First().Graph())
}

func TestFinder_EmptyConditionSkipsQuery(t *testing.T) {
	b := seedBlog()
	store := entity.NewStore(blogSchema(), b)

	posts, err := store.Finder("post").Where("post_id").Fetch(context.Background(), entity.NewGraph())
	require.NoError(t, err)
	assert.Equal(t, 0, posts.Len())
	assert.Equal(t, 0, b.QueryCount())
}

func TestStore_LoadRelationSingle(t *testing.T) {
	b := seedBlog()
	store := entity.NewStore(blogSchema(), b)
	g := entity.NewGraph()
	ctx := context.Background()

	posts, err := store.Finder("post").Order("post_id").Fetch(ctx, g)
	require.NoError(t, err)
	b.Reset()

	authors, err := store.LoadRelation(ctx, g, posts, "Author")
	require.NoError(t, err)
	assert.Equal(t, 1, b.QueryCount())
	assert.Equal(t, 2, authors.Len())

	p1, _ := posts.Get(1)
	author, ok := p1.Related("Author")
	require.True(t, ok)
	assert.Equal(t, "ann", author.String("name"))

	// a zero foreign key hydrates an empty relation
	p3, _ := posts.Get(3)
	author, ok = p3.Related("Author")
	assert.True(t, ok)
	assert.Nil(t, author)
}

func TestStore_LoadRelationManyKeyedOrderedFiltered(t *testing.T) {
	b := seedBlog()
	store := entity.NewStore(blogSchema(), b)
	g := entity.NewGraph()
	ctx := context.Background()

	posts, err := store.Finder("post").Order("post_id").Fetch(ctx, g)
	require.NoError(t, err)
	b.Reset()

	_, err = store.LoadRelation(ctx, g, posts, "Comments")
	require.NoError(t, err)
	assert.Equal(t, 1, b.QueryCount())

	p1, _ := posts.Get(1)
	comments, ok := p1.RelatedCollection("Comments")
	require.True(t, ok)
	assert.Equal(t, []string{"11", "10"}, comments.Keys())

	p3, _ := posts.Get(3)
	comments, ok = p3.RelatedCollection("Comments")
	require.True(t, ok)
	assert.Equal(t, 0, comments.Len())
}

func TestStore_LoadRelationSkipsHydratedOwners(t *testing.T) {
	b := seedBlog()
	store := entity.NewStore(blogSchema(), b)
	g := entity.NewGraph()
	ctx := context.Background()

	posts, err := store.Finder("post").With("Author").Fetch(ctx, g)
	require.NoError(t, err)
	b.Reset()

	authors, err := store.LoadRelation(ctx, g, posts, "Author")
	require.NoError(t, err)
	assert.Equal(t, 0, b.QueryCount())
	assert.Equal(t, 2, authors.Len())
}

func TestStore_LoadRelationUnknown(t *testing.T) {
	b := seedBlog()
	store := entity.NewStore(blogSchema(), b)
	g := entity.NewGraph()
	ctx := context.Background()

	posts, err := store.Finder("post").Fetch(ctx, g)
	require.NoError(t, err)

	_, err = store.LoadRelation(ctx, g, posts, "Tags")
	assert.ErrorIs(t, err, entity.ErrUnknownRelation)
}

func TestStore_EagerLoadNested(t *testing.T) {
	b := seedBlog()
	store := entity.NewStore(blogSchema(), b)
	g := entity.NewGraph()
	ctx := context.Background()

	posts, err := store.Finder("post").Where("post_id", 1, 2).With("Comments.Author").Fetch(ctx, g)
	require.NoError(t, err)

	// posts, comments, comment authors
	assert.Equal(t, 3, b.QueryCount())

	p2, _ := posts.Get(2)
	comments, _ := p2.RelatedCollection("Comments")
	author, ok := comments.First().Related("Author")
	require.True(t, ok)
	assert.Equal(t, "ann", author.String("name"))
}

type failingBackend struct{}

func (failingBackend) Select(ctx context.Context, q entity.Query) ([]entity.Row, error) {
	return nil, errors.New("connection reset")
}

func TestStore_BackendError(t *testing.T) {
	store := entity.NewStore(blogSchema(), failingBackend{})

	_, err := store.Finder("post").Where("post_id", 1).Fetch(context.Background(), entity.NewGraph())
	assert.ErrorContains(t, err, "connection reset")
}
