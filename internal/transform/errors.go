package transform

import "errors"

var (
	// ErrUnknownType is returned when no handler is registered for an entity type
	ErrUnknownType = errors.New("no handler registered for entity type")

	// ErrDuplicateHandler is returned when a second handler is registered for a type
	ErrDuplicateHandler = errors.New("handler already registered")

	// ErrKeyCollision is returned when a handler declares the same output key twice
	ErrKeyCollision = errors.New("output key declared more than once")

	// ErrReservedKey is returned when a handler declares a reserved output key
	ErrReservedKey = errors.New("reserved output key")

	// ErrRegistryFrozen is returned when registering after the registry is in use
	ErrRegistryFrozen = errors.New("registry is frozen")

	// ErrMissingField is returned when a static mapping names a field the entity lacks
	ErrMissingField = errors.New("entity has no such field")

	// ErrMixedTypes is returned when a batch contains entities of different types
	ErrMixedTypes = errors.New("batch contains entities of different types")

	// ErrNoStore is returned when a hook needs relation loading but no store is configured
	ErrNoStore = errors.New("no entity store configured")
)
