package entity

import "sync"

// entityKey addresses one entity in the graph
type entityKey struct {
	typ      string
	identity string
}

// relationKey addresses one relation cache slot
type relationKey struct {
	owner entityKey
	name  string
}

// relationValue stores a hydrated relation as identity references into the graph
type relationValue struct {
	many       bool
	target     string
	identities []string
	keys       []string
}

// Graph is the per-call arena: it indexes entities by type and identity and holds the
// relation cache populated by batch hooks. Relations reference entities by identity, never
// by pointer, so back-references do not create ownership cycles.
//
// A Graph is owned by a single outer transform call. All methods are safe for concurrent
// use so independent relations can be hydrated in parallel.
type Graph struct {
	mu        sync.RWMutex
	entities  map[entityKey]*Entity
	relations map[relationKey]relationValue
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		entities:  make(map[entityKey]*Entity),
		relations: make(map[relationKey]relationValue),
	}
}

// Add attaches an entity to the graph. If an entity with the same type and identity is
// already present, the existing instance is returned and e is discarded.
func (g *Graph) Add(e *Entity) *Entity {
	key := entityKey{typ: e.typ, identity: e.Identity()}

	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.entities[key]; ok {
		return existing
	}
	e.graph = g
	g.entities[key] = e
	return e
}

// Lookup returns the entity of the given type and identity
func (g *Graph) Lookup(typ, identity string) (*Entity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.entities[entityKey{typ: typ, identity: identity}]
	return e, ok
}

// Len returns the number of entities held by the graph
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entities)
}

// HydrateSingle stores a single relation for owner. related may be nil to record an
// absent relation. related is added to the graph when necessary.
func (g *Graph) HydrateSingle(owner *Entity, name string, related *Entity) {
	value := relationValue{}
	if related != nil {
		related = g.Add(related)
		value.target = related.typ
		value.identities = []string{related.Identity()}
	}

	owner = g.Add(owner)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.relations[relationKey{owner: entityKey{owner.typ, owner.Identity()}, name: name}] = value
}

// HydrateCollection stores a collection relation for owner, preserving the collection's
// keys and order.
func (g *Graph) HydrateCollection(owner *Entity, name string, related *Collection) {
	value := relationValue{many: true}
	for _, k := range related.Keys() {
		e, _ := related.Get(k)
		e = g.Add(e)
		value.target = e.typ
		value.keys = append(value.keys, k)
		value.identities = append(value.identities, e.Identity())
	}

	owner = g.Add(owner)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.relations[relationKey{owner: entityKey{owner.typ, owner.Identity()}, name: name}] = value
}

func (g *Graph) relation(owner *Entity, name string) (relationValue, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.relations[relationKey{owner: entityKey{owner.typ, owner.Identity()}, name: name}]
	return v, ok
}

func (g *Graph) hydrated(owner *Entity, name string) bool {
	_, ok := g.relation(owner, name)
	return ok
}

func (g *Graph) single(owner *Entity, name string) (*Entity, bool) {
	v, ok := g.relation(owner, name)
	if !ok {
		return nil, false
	}
	if len(v.identities) == 0 {
		return nil, true
	}
	e, _ := g.Lookup(v.target, v.identities[0])
	return e, true
}

func (g *Graph) collection(owner *Entity, name string) (*Collection, bool) {
	v, ok := g.relation(owner, name)
	if !ok {
		return nil, false
	}

	c := NewCollection()
	for i, identity := range v.identities {
		if e, found := g.Lookup(v.target, identity); found {
			c.Set(v.keys[i], e)
		}
	}
	return c, true
}
