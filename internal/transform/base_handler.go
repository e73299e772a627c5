package transform

import (
	"context"
	"fmt"

	"github.com/conduit-lang/projector/internal/entity"
	"github.com/conduit-lang/projector/internal/links"
)

// BaseHandler provides the default hook behavior and helpers shared by handlers.
// Embed it and override what the entity type needs.
type BaseHandler struct{}

// DynamicValue returns nil for every key
func (BaseHandler) DynamicValue(ctx context.Context, tc *Context, key string) (interface{}, error) {
	return nil, nil
}

// Links returns no links
func (BaseHandler) Links(tc *Context) *Output {
	return nil
}

// Permissions returns no permissions
func (BaseHandler) Permissions(tc *Context) *Output {
	return nil
}

// OnTransformEntities leaves the batch unchanged
func (BaseHandler) OnTransformEntities(ctx context.Context, tc *Context, entities *entity.Collection) error {
	return nil
}

// OnTransformFinder returns the finder unchanged
func (BaseHandler) OnTransformFinder(tc *Context, finder *entity.Finder) *entity.Finder {
	return finder
}

// BuildPublicLink renders a link for the public site
func (BaseHandler) BuildPublicLink(tc *Context, route string, e *entity.Entity, args map[string]interface{}) string {
	return tc.Transformer().Links().BuildLink(links.TypePublic, route, e, args)
}

// BuildAPILink renders a link for the API
func (BaseHandler) BuildAPILink(tc *Context, route string, e *entity.Entity, args map[string]interface{}) string {
	return tc.Transformer().Links().BuildLink(links.TypeAPI, route, e, args)
}

// LoadRelation hydrates relation on every entity of the batch with one bulk query and
// returns the distinct related entities.
func (BaseHandler) LoadRelation(ctx context.Context, tc *Context, entities *entity.Collection, relation string) (*entity.Collection, error) {
	store := tc.Transformer().Store()
	if store == nil {
		return nil, ErrNoStore
	}
	return store.LoadRelation(ctx, tc.Graph(), entities, relation)
}

// CascadeRelation runs the batch hook of the related type's handler over related, in the
// selector scope of key, so nested transforms are batched as well.
func (BaseHandler) CascadeRelation(ctx context.Context, tc *Context, related *entity.Collection, key string) error {
	if related.Len() == 0 {
		return nil
	}

	first := related.First()
	h, err := tc.Transformer().Registry().Lookup(first.Type())
	if err != nil {
		return err
	}

	sub := tc.WithSource(key, nil)
	if err := h.OnTransformEntities(ctx, sub, related); err != nil {
		return fmt.Errorf("batch hook for %s: %w", key, err)
	}
	return nil
}

// TransformEntitiesForRelation loads relation for the batch and cascades the related
// handler's batch hook under key.
func (b BaseHandler) TransformEntitiesForRelation(ctx context.Context, tc *Context, entities *entity.Collection, key, relation string) error {
	related, err := b.LoadRelation(ctx, tc, entities, relation)
	if err != nil {
		return err
	}
	return b.CascadeRelation(ctx, tc, related, key)
}

// TransformFinderForRelation adds an eager-load directive for relation to finder
func (BaseHandler) TransformFinderForRelation(tc *Context, finder *entity.Finder, key, relation string) *entity.Finder {
	return finder.With(relation)
}
