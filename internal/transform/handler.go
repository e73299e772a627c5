package transform

import (
	"context"

	"github.com/conduit-lang/projector/internal/entity"
)

// Mapping declares one output key of a handler. A mapping with a Source copies that
// entity field verbatim; a mapping without one is computed by DynamicValue.
type Mapping struct {
	Source string
	Key    string

	// OptIn marks a dynamic key that is only computed when the selector explicitly
	// includes it
	OptIn bool
}

// Static maps an entity field to an output key
func Static(source, key string) Mapping {
	return Mapping{Source: source, Key: key}
}

// Dynamic declares a computed key that is present unless excluded
func Dynamic(key string) Mapping {
	return Mapping{Key: key}
}

// OptIn declares a computed key that is absent unless included
func OptIn(key string) Mapping {
	return Mapping{Key: key, OptIn: true}
}

// IsDynamic reports whether the mapping is computed
func (m Mapping) IsDynamic() bool {
	return m.Source == ""
}

// Handler transforms entities of one type. Handlers are stateless: everything a call
// needs arrives through the Context.
type Handler interface {
	// Type returns the entity type the handler serves
	Type() string

	// Mappings declares static and dynamic keys in output order. It must not depend on
	// the context's source, since it is also called once at registration to validate keys.
	Mappings(tc *Context) []Mapping

	// DynamicValue computes one dynamic key. It runs after batch hooks and must only read
	// relations that were hydrated; a nil value is rendered as null.
	DynamicValue(ctx context.Context, tc *Context, key string) (interface{}, error)

	// Links returns named URLs for the entity
	Links(tc *Context) *Output

	// Permissions returns named capabilities for the entity
	Permissions(tc *Context) *Output

	// OnTransformEntities runs once with the whole batch before any per-entity work,
	// to hydrate relations in bulk
	OnTransformEntities(ctx context.Context, tc *Context, entities *entity.Collection) error

	// OnTransformFinder runs before a finder is executed, to add eager-load directives
	OnTransformFinder(tc *Context, finder *entity.Finder) *entity.Finder
}
