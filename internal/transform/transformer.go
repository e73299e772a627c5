// Package transform converts entities into ordered, client-facing output maps.
//
// Each entity type has a Handler declaring static field mappings, dynamic keys, links and
// permissions. The Transformer drives handlers in two phases: batch hooks run once over a
// whole set of entities to hydrate relations in bulk, then every entity is mapped on its
// own. Output keys are ordered static mappings, dynamic keys, "links", "permissions".
//
// TransformEntities and TransformFinder are the entry points for collections. Calling
// TransformEntity directly on members of a collection skips the batch hooks and leaves
// relation-backed keys empty.
package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/conduit-lang/projector/internal/entity"
	"github.com/conduit-lang/projector/internal/links"
	"go.uber.org/zap"
)

// Transformer orchestrates handlers
type Transformer struct {
	registry *Registry
	store    *entity.Store
	links    links.Builder
	logger   *zap.Logger
}

// Option configures a Transformer
type Option func(*Transformer)

// WithStore sets the store used by batch hooks to load relations
func WithStore(store *entity.Store) Option {
	return func(t *Transformer) {
		t.store = store
	}
}

// WithLinks sets the link builder
func WithLinks(b links.Builder) Option {
	return func(t *Transformer) {
		if b != nil {
			t.links = b
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(t *Transformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a Transformer and freezes the registry
func New(registry *Registry, opts ...Option) *Transformer {
	t := &Transformer{
		registry: registry,
		links:    links.NewRouter("", ""),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	registry.Freeze()
	return t
}

// Registry returns the handler registry
func (t *Transformer) Registry() *Registry {
	return t.registry
}

// Store returns the entity store, or nil when none is configured
func (t *Transformer) Store() *entity.Store {
	return t.store
}

// Links returns the link builder
func (t *Transformer) Links() links.Builder {
	return t.links
}

// TransformEntity transforms a single entity under key, relative to tc. Batch hooks are
// not run; relations must already be hydrated.
func (t *Transformer) TransformEntity(ctx context.Context, tc *Context, key string, e *entity.Entity) (*Output, error) {
	if e == nil {
		return nil, nil
	}

	h, err := t.registry.Lookup(e.Type())
	if err != nil {
		return nil, err
	}
	return t.transform(ctx, tc.WithSource(key, e), h)
}

// TransformEntityRelation transforms every member of a hydrated collection relation of
// owner, in relation order. A relation that was never hydrated yields nil.
func (t *Transformer) TransformEntityRelation(ctx context.Context, tc *Context, key string, owner *entity.Entity, relation string) ([]*Output, error) {
	members, ok := owner.RelatedCollection(relation)
	if !ok {
		return nil, nil
	}

	outputs := make([]*Output, 0, members.Len())
	for _, e := range members.Entities() {
		out, err := t.TransformEntity(ctx, tc, key, e)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// TransformEntities runs the handler's batch hook once over entities, then transforms
// each entity in order. A nil handler is resolved from the entities' type.
func (t *Transformer) TransformEntities(ctx context.Context, tc *Context, h Handler, entities *entity.Collection) ([]*Output, error) {
	if entities.Len() == 0 {
		return []*Output{}, nil
	}

	if h == nil {
		var err error
		if h, err = t.registry.Lookup(entities.First().Type()); err != nil {
			return nil, err
		}
	}

	// hooks and the per-entity pass both work on the graph's canonical instances
	canonical := entity.NewCollection()
	for _, k := range entities.Keys() {
		e, _ := entities.Get(k)
		if e.Type() != h.Type() {
			return nil, fmt.Errorf("%w: %s in a batch of %s", ErrMixedTypes, e.Type(), h.Type())
		}
		canonical.Set(k, tc.Graph().Add(e))
	}
	entities = canonical

	start := time.Now()
	if err := h.OnTransformEntities(ctx, tc, entities); err != nil {
		return nil, fmt.Errorf("batch hook for %s: %w", h.Type(), err)
	}
	hydrated := time.Since(start)

	outputs := make([]*Output, 0, entities.Len())
	for _, e := range entities.Entities() {
		out, err := t.transform(ctx, tc.WithSource("", e), h)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}

	t.logger.Debug("transformed entities",
		zap.String("type", h.Type()),
		zap.Int("count", entities.Len()),
		zap.Duration("hydrate", hydrated),
		zap.Duration("total", time.Since(start)),
	)
	return outputs, nil
}

// TransformFinder lets the handler extend finder, executes it and transforms the results
func (t *Transformer) TransformFinder(ctx context.Context, tc *Context, h Handler, finder *entity.Finder) ([]*Output, error) {
	if h == nil {
		var err error
		if h, err = t.registry.Lookup(finder.Type()); err != nil {
			return nil, err
		}
	}

	finder = h.OnTransformFinder(tc, finder)

	entities, err := finder.Fetch(ctx, tc.Graph())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", finder.Type(), err)
	}

	return t.TransformEntities(ctx, tc, h, entities)
}

// transform builds the output of the entity bound to tc
func (t *Transformer) transform(ctx context.Context, tc *Context, h Handler) (*Output, error) {
	e := tc.Source()
	out := NewOutput()
	mappings := h.Mappings(tc)

	for _, m := range mappings {
		if m.IsDynamic() || tc.SelectorShouldExcludeField(m.Key) {
			continue
		}
		v, ok := e.Value(m.Source)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrMissingField, e.Type(), m.Source)
		}
		out.Set(m.Key, v)
	}

	for _, m := range mappings {
		if !m.IsDynamic() || tc.SelectorShouldExcludeField(m.Key) {
			continue
		}
		if m.OptIn && !tc.SelectorShouldIncludeField(m.Key) {
			continue
		}
		v, err := h.DynamicValue(ctx, tc, m.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to compute %s.%s: %w", e.Type(), m.Key, err)
		}
		out.Set(m.Key, v)
	}

	if !tc.SelectorShouldExcludeField(KeyLinks) {
		if l := h.Links(tc); l.Len() > 0 {
			out.Set(KeyLinks, l)
		}
	}

	if !tc.SelectorShouldExcludeField(KeyPermissions) {
		if p := h.Permissions(tc); p.Len() > 0 {
			out.Set(KeyPermissions, p)
		}
	}

	return out, nil
}
