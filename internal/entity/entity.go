// Package entity provides the read-only entity model consumed by the transform engine:
// entities with immutable scalar fields, an arena (Graph) that indexes them and caches
// hydrated relations, ordered keyed collections, and bulk finders.
package entity

import (
	"strings"

	"github.com/spf13/cast"
)

// Entity is a loaded record of a declared type. Its fields are never modified after
// construction; relations live in the owning Graph.
type Entity struct {
	typ       string
	keyFields []string
	fields    map[string]interface{}
	graph     *Graph
}

// New creates a detached entity. keyFields names the primary key columns in order.
func New(typ string, keyFields []string, fields map[string]interface{}) *Entity {
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = v
	}

	return &Entity{
		typ:       typ,
		keyFields: append([]string(nil), keyFields...),
		fields:    copied,
	}
}

// Type returns the declared entity type
func (e *Entity) Type() string {
	return e.typ
}

// ID returns the first primary key column as an integer
func (e *Entity) ID() int64 {
	if len(e.keyFields) == 0 {
		return 0
	}
	return e.Int(e.keyFields[0])
}

// Identity returns the canonical primary key of the entity, unique within its type.
// Composite keys are joined with "-".
func (e *Entity) Identity() string {
	parts := make([]string, len(e.keyFields))
	for i, f := range e.keyFields {
		parts[i] = KeyOf(e.fields[f])
	}
	return strings.Join(parts, "-")
}

// Graph returns the graph the entity belongs to, or nil when detached
func (e *Entity) Graph() *Graph {
	return e.graph
}

// Value returns the raw value of a field and whether the field exists
func (e *Entity) Value(name string) (interface{}, bool) {
	v, ok := e.fields[name]
	return v, ok
}

// Has reports whether the entity carries the named field
func (e *Entity) Has(name string) bool {
	_, ok := e.fields[name]
	return ok
}

// Int returns the field coerced to int64 (0 when absent)
func (e *Entity) Int(name string) int64 {
	return cast.ToInt64(e.fields[name])
}

// String returns the field coerced to string ("" when absent)
func (e *Entity) String(name string) string {
	return cast.ToString(e.fields[name])
}

// Bool returns the field coerced to bool (false when absent)
func (e *Entity) Bool(name string) bool {
	return cast.ToBool(e.fields[name])
}

// Related resolves a hydrated single relation. ok is false when the relation was never
// hydrated; a hydrated but empty relation returns (nil, true).
func (e *Entity) Related(name string) (*Entity, bool) {
	if e.graph == nil {
		return nil, false
	}
	return e.graph.single(e, name)
}

// RelatedCollection resolves a hydrated collection relation. ok is false when the
// relation was never hydrated.
func (e *Entity) RelatedCollection(name string) (*Collection, bool) {
	if e.graph == nil {
		return nil, false
	}
	return e.graph.collection(e, name)
}

// IsHydrated reports whether the relation has been populated in the graph
func (e *Entity) IsHydrated(name string) bool {
	if e.graph == nil {
		return false
	}
	return e.graph.hydrated(e, name)
}

// KeyOf converts a key value to its canonical string form
func KeyOf(v interface{}) string {
	switch k := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(k)
	default:
		return cast.ToString(k)
	}
}
