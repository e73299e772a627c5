package entity

import (
	"fmt"
	"sort"
)

// RelationKind distinguishes single and collection relations
type RelationKind int

const (
	// Single relations resolve to zero or one entity
	Single RelationKind = iota
	// Many relations resolve to a keyed collection
	Many
)

// String returns the relation kind name
func (k RelationKind) String() string {
	switch k {
	case Single:
		return "single"
	case Many:
		return "many"
	default:
		return fmt.Sprintf("RelationKind(%d)", int(k))
	}
}

// Relation describes how an owner type reaches a target type.
// The owner's LocalField is matched against the target's ForeignField.
type Relation struct {
	Name         string
	Kind         RelationKind
	Target       string
	LocalField   string
	ForeignField string

	// KeyField keys collection members; defaults to the target's primary key
	KeyField string

	// OrderBy orders collection members, e.g. "message_date" or "user_id DESC"
	OrderBy string

	// Conditions are extra equality filters applied to the target
	Conditions map[string]interface{}
}

// TypeSchema describes one entity type
type TypeSchema struct {
	Type       string
	Table      string
	PrimaryKey []string
	Relations  map[string]*Relation
}

// Schema is the set of entity types known to a store
type Schema struct {
	types map[string]*TypeSchema
}

// NewSchema creates a schema from type definitions
func NewSchema(types ...*TypeSchema) *Schema {
	s := &Schema{types: make(map[string]*TypeSchema, len(types))}
	for _, t := range types {
		if t.Relations == nil {
			t.Relations = make(map[string]*Relation)
		}
		for name, rel := range t.Relations {
			if rel.Name == "" {
				rel.Name = name
			}
		}
		s.types[t.Type] = t
	}
	return s
}

// Lookup returns the definition of an entity type
func (s *Schema) Lookup(typ string) (*TypeSchema, error) {
	t, ok := s.types[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	return t, nil
}

// Relation returns the named relation of an entity type
func (s *Schema) Relation(typ, name string) (*Relation, error) {
	t, err := s.Lookup(typ)
	if err != nil {
		return nil, err
	}
	rel, ok := t.Relations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, typ, name)
	}
	return rel, nil
}

// Types returns the declared type names in sorted order
func (s *Schema) Types() []string {
	names := make([]string, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New materializes a row of the given type as a detached entity
func (s *Schema) New(typ string, fields map[string]interface{}) (*Entity, error) {
	t, err := s.Lookup(typ)
	if err != nil {
		return nil, err
	}
	for _, pk := range t.PrimaryKey {
		if v, ok := fields[pk]; !ok || v == nil {
			return nil, fmt.Errorf("%w: %s.%s", ErrMissingPrimaryKey, typ, pk)
		}
	}
	return New(typ, t.PrimaryKey, fields), nil
}

// Validate checks that every relation targets a declared type
func (s *Schema) Validate() error {
	for _, typ := range s.Types() {
		t := s.types[typ]
		if len(t.PrimaryKey) == 0 {
			return fmt.Errorf("%w: %s", ErrMissingPrimaryKey, typ)
		}
		for name, rel := range t.Relations {
			if _, ok := s.types[rel.Target]; !ok {
				return fmt.Errorf("%w: %s.%s targets %s", ErrUnknownType, typ, name, rel.Target)
			}
			if rel.LocalField == "" || rel.ForeignField == "" {
				return fmt.Errorf("%w: %s.%s has no join fields", ErrInvalidRelation, typ, name)
			}
		}
	}
	return nil
}
