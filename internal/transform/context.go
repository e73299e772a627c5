package transform

import (
	"strings"

	"github.com/conduit-lang/projector/internal/entity"
	"github.com/conduit-lang/projector/internal/transform/selector"
	"github.com/conduit-lang/projector/internal/visitor"
)

// Context is the per-call state of a transform: the source entity, the selector scoped to
// the current nesting level, the caller identity and the chain of parent contexts.
// Contexts are never mutated; WithSource derives a new one.
type Context struct {
	transformer *Transformer
	visitor     visitor.Visitor
	selector    *selector.Selector
	graph       *entity.Graph

	scope  string
	key    string
	source *entity.Entity
	parent *Context
}

// NewContext creates a root context with no source
func (t *Transformer) NewContext(v visitor.Visitor, sel *selector.Selector, g *entity.Graph) *Context {
	if v == nil {
		v = visitor.Guest()
	}
	if sel == nil {
		sel = selector.All()
	}
	if g == nil {
		g = entity.NewGraph()
	}
	return &Context{
		transformer: t,
		visitor:     v,
		selector:    sel,
		graph:       g,
	}
}

// WithSource derives a context for a nested or sibling transform. A non-empty key
// descends the selector scope into that key; an empty key keeps the current scope.
func (c *Context) WithSource(key string, source *entity.Entity) *Context {
	child := *c
	child.key = key
	child.source = source
	child.parent = c
	if key != "" {
		child.scope = c.path(key)
	}
	return &child
}

// Source returns the entity bound to this context
func (c *Context) Source() *entity.Entity {
	return c.source
}

// Parent returns the context this one was derived from
func (c *Context) Parent() *Context {
	return c.parent
}

// Key returns the output key this context was derived for
func (c *Context) Key() string {
	return c.key
}

// Scope returns the dotted selector path of this context
func (c *Context) Scope() string {
	return c.scope
}

// Visitor returns the caller identity
func (c *Context) Visitor() visitor.Visitor {
	return c.visitor
}

// Graph returns the arena holding the entities of this call
func (c *Context) Graph() *entity.Graph {
	return c.graph
}

// Transformer returns the orchestrator running this call
func (c *Context) Transformer() *Transformer {
	return c.transformer
}

// SelectorShouldIncludeField reports whether the caller explicitly asked for key
func (c *Context) SelectorShouldIncludeField(key string) bool {
	return c.selector.ShouldInclude(c.path(key))
}

// SelectorShouldExcludeField reports whether the caller suppressed key
func (c *Context) SelectorShouldExcludeField(key string) bool {
	return c.selector.ShouldExclude(c.path(key))
}

// SourceTypes returns the entity types from the root down to this context
func (c *Context) SourceTypes() []string {
	var types []string
	for cur := c; cur != nil; cur = cur.parent {
		if cur.source != nil {
			types = append(types, cur.source.Type())
		}
	}
	for i, j := 0, len(types)-1; i < j; i, j = i+1, j-1 {
		types[i], types[j] = types[j], types[i]
	}
	return types
}

func (c *Context) path(key string) string {
	key = strings.Trim(key, ".")
	if c.scope == "" {
		return key
	}
	if key == "" {
		return c.scope
	}
	return c.scope + "." + key
}
