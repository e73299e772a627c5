package transform

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Registry maps entity types to their handlers. Handlers are validated when registered;
// the registry is frozen once a Transformer starts using it, after which lookups take no
// lock and registration fails.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	frozen   atomic.Bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register validates and adds a handler
func (r *Registry) Register(h Handler) error {
	if err := ValidateHandler(h); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, h.Type())
	}
	if _, exists := r.handlers[h.Type()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, h.Type())
	}
	r.handlers[h.Type()] = h
	return nil
}

// MustRegister registers handlers and panics on the first error. Intended for
// process start-up wiring.
func (r *Registry) MustRegister(handlers ...Handler) *Registry {
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			panic(err)
		}
	}
	return r
}

// Lookup returns the handler for an entity type
func (r *Registry) Lookup(typ string) (Handler, error) {
	var (
		h  Handler
		ok bool
	)
	if r.frozen.Load() {
		h, ok = r.handlers[typ]
	} else {
		r.mu.RLock()
		h, ok = r.handlers[typ]
		r.mu.RUnlock()
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	return h, nil
}

// Require checks that every listed type has a handler
func (r *Registry) Require(types ...string) error {
	for _, typ := range types {
		if _, err := r.Lookup(typ); err != nil {
			return err
		}
	}
	return nil
}

// Types returns the registered types in sorted order
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for typ := range r.handlers {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// Freeze makes the registry immutable
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen.Store(true)
}

// ValidateHandler checks a handler's declared keys: every key is declared once across
// static and dynamic mappings, and no key uses a reserved name.
func ValidateHandler(h Handler) error {
	seen := make(map[string]bool)
	for _, m := range h.Mappings(&Context{}) {
		if m.Key == "" {
			return fmt.Errorf("%w: %s declares an empty key", ErrKeyCollision, h.Type())
		}
		if m.Key == KeyLinks || m.Key == KeyPermissions {
			return fmt.Errorf("%w: %s declares %q", ErrReservedKey, h.Type(), m.Key)
		}
		if seen[m.Key] {
			return fmt.Errorf("%w: %s declares %q", ErrKeyCollision, h.Type(), m.Key)
		}
		seen[m.Key] = true
	}
	return nil
}
