package entity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Row is one record returned by a backend, keyed by column name
type Row map[string]interface{}

// Condition restricts a column to a set of values
type Condition struct {
	Field  string
	Values []interface{}
}

// Query is the backend-neutral form of an executed finder
type Query struct {
	Type       string
	Table      string
	Conditions []Condition
	OrderBy    string
	Limit      int
}

// Backend executes queries against the underlying storage
type Backend interface {
	Select(ctx context.Context, q Query) ([]Row, error)
}

// maxRelationDepth bounds nested eager loading such as "FirstMessage.Attachments.Data"
const maxRelationDepth = 10

// Store binds a schema to a backend and provides finders and bulk relation loading
type Store struct {
	schema  *Schema
	backend Backend
	logger  *zap.Logger
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithLogger sets the logger used for query tracing
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a store
func NewStore(schema *Schema, backend Backend, opts ...StoreOption) *Store {
	s := &Store{
		schema:  schema,
		backend: backend,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schema returns the store's schema
func (s *Store) Schema() *Schema {
	return s.schema
}

// Finder starts a query for entities of the given type
func (s *Store) Finder(typ string) *Finder {
	return &Finder{store: s, typ: typ}
}

func (s *Store) selectRows(ctx context.Context, q Query) ([]Row, error) {
	start := time.Now()
	rows, err := s.backend.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.Type, err)
	}

	s.logger.Debug("entity query",
		zap.String("type", q.Type),
		zap.Int("conditions", len(q.Conditions)),
		zap.Int("rows", len(rows)),
		zap.Duration("duration", time.Since(start)),
	)
	return rows, nil
}

// LoadRelation hydrates the named relation on every owner with a single bulk query and
// returns the distinct related entities. Owners that already have the relation hydrated
// are not queried again, so a relation eager-loaded by a finder costs nothing here.
func (s *Store) LoadRelation(ctx context.Context, g *Graph, owners *Collection, name string) (*Collection, error) {
	related := NewCollection()
	if owners.Len() == 0 {
		return related, nil
	}

	ownerType := owners.First().Type()
	rel, err := s.schema.Relation(ownerType, name)
	if err != nil {
		return nil, err
	}

	var pending []*Entity
	for _, owner := range owners.Entities() {
		if owner.Type() != ownerType {
			return nil, fmt.Errorf("%w: mixed owner types %s and %s", ErrInvalidRelation, ownerType, owner.Type())
		}
		owner = g.Add(owner)
		if !owner.IsHydrated(name) {
			pending = append(pending, owner)
		}
	}

	if len(pending) > 0 {
		if err := s.hydrate(ctx, g, pending, rel); err != nil {
			return nil, fmt.Errorf("failed to load relation %s.%s: %w", ownerType, name, err)
		}
	}

	for _, owner := range owners.Entities() {
		owner = g.Add(owner)
		switch rel.Kind {
		case Single:
			if e, _ := owner.Related(name); e != nil {
				related.Set(e.Identity(), e)
			}
		case Many:
			members, _ := owner.RelatedCollection(name)
			for _, e := range members.Entities() {
				related.Set(e.Identity(), e)
			}
		}
	}

	return related, nil
}

// hydrate runs the bulk query for one relation and attaches results to owners
func (s *Store) hydrate(ctx context.Context, g *Graph, owners []*Entity, rel *Relation) error {
	var values []interface{}
	seen := make(map[string]bool)
	for _, owner := range owners {
		v, _ := owner.Value(rel.LocalField)
		key := KeyOf(v)
		if isEmptyKey(key) || seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, v)
	}

	grouped := make(map[string][]*Entity)
	if len(values) > 0 {
		f := s.Finder(rel.Target).Where(rel.ForeignField, values...)
		for _, field := range sortedKeys(rel.Conditions) {
			f = f.Where(field, rel.Conditions[field])
		}
		if rel.OrderBy != "" {
			f = f.Order(rel.OrderBy)
		}

		results, err := f.Fetch(ctx, g)
		if err != nil {
			return err
		}
		for _, e := range results.Entities() {
			v, _ := e.Value(rel.ForeignField)
			key := KeyOf(v)
			grouped[key] = append(grouped[key], e)
		}
	}

	for _, owner := range owners {
		v, _ := owner.Value(rel.LocalField)
		members := grouped[KeyOf(v)]

		switch rel.Kind {
		case Single:
			var target *Entity
			if len(members) > 0 {
				target = members[0]
			}
			g.HydrateSingle(owner, rel.Name, target)
		case Many:
			c := NewCollection()
			for _, m := range members {
				if rel.KeyField != "" {
					mv, _ := m.Value(rel.KeyField)
					c.Set(KeyOf(mv), m)
				} else {
					c.Set(m.Identity(), m)
				}
			}
			g.HydrateCollection(owner, rel.Name, c)
		default:
			return fmt.Errorf("%w: %s", ErrInvalidRelation, rel.Kind)
		}
	}

	return nil
}

// EagerLoad hydrates a list of relation paths on owners. Paths may be nested with dots,
// e.g. "FirstMessage.Attachments", and each level costs one query.
func (s *Store) EagerLoad(ctx context.Context, g *Graph, owners *Collection, includes []string) error {
	return s.eagerLoad(ctx, g, owners, includes, 0)
}

func (s *Store) eagerLoad(ctx context.Context, g *Graph, owners *Collection, includes []string, depth int) error {
	if owners.Len() == 0 || len(includes) == 0 {
		return nil
	}
	if depth >= maxRelationDepth {
		return ErrMaxDepthExceeded
	}

	for _, include := range includes {
		relation, nested := parseInclude(include)

		related, err := s.LoadRelation(ctx, g, owners, relation)
		if err != nil {
			return err
		}

		if len(nested) > 0 {
			if err := s.eagerLoad(ctx, g, related, nested, depth+1); err != nil {
				return err
			}
		}
	}

	return nil
}

// parseInclude splits "A.B.C" into ("A", ["B.C"])
func parseInclude(include string) (string, []string) {
	if i := strings.IndexByte(include, '.'); i >= 0 {
		return include[:i], []string{include[i+1:]}
	}
	return include, nil
}

// isEmptyKey treats zero ids as "no related record", matching how foreign keys are stored
func isEmptyKey(key string) bool {
	return key == "" || key == "0"
}
