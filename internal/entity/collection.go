package entity

// Collection is an ordered set of entities addressed by a string key. Insertion order is
// preserved; replacing an existing key keeps its position.
type Collection struct {
	keys  []string
	items map[string]*Entity
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{items: make(map[string]*Entity)}
}

// CollectionOf builds a collection keyed by each entity's identity. When the entities are
// of more than one type, keys are qualified as "type:identity" so that equal identities of
// different types stay distinct.
func CollectionOf(entities ...*Entity) *Collection {
	mixed := false
	for _, e := range entities {
		if e.Type() != entities[0].Type() {
			mixed = true
			break
		}
	}

	c := NewCollection()
	for _, e := range entities {
		key := e.Identity()
		if mixed {
			key = e.Type() + ":" + key
		}
		c.Set(key, e)
	}
	return c
}

// Set stores an entity under key
func (c *Collection) Set(key string, e *Entity) {
	if _, exists := c.items[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.items[key] = e
}

// Get returns the entity stored under key. Non-string keys are converted with KeyOf.
func (c *Collection) Get(key interface{}) (*Entity, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.items[KeyOf(key)]
	return e, ok
}

// Len returns the number of entities
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns the keys in insertion order
func (c *Collection) Keys() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.keys...)
}

// Entities returns the entities in insertion order
func (c *Collection) Entities() []*Entity {
	if c == nil {
		return nil
	}
	out := make([]*Entity, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.items[k])
	}
	return out
}

// First returns the first entity, or nil for an empty collection
func (c *Collection) First() *Entity {
	if c.Len() == 0 {
		return nil
	}
	return c.items[c.keys[0]]
}
