package entity

import "errors"

var (
	// ErrUnknownType is returned when an entity type is not declared in the schema
	ErrUnknownType = errors.New("unknown entity type")

	// ErrUnknownRelation is returned when a relation is not declared for a type
	ErrUnknownRelation = errors.New("unknown relation")

	// ErrInvalidRelation is returned when a relation definition is incomplete
	ErrInvalidRelation = errors.New("invalid relation")

	// ErrMissingPrimaryKey is returned when a row lacks a primary key column
	ErrMissingPrimaryKey = errors.New("missing primary key")

	// ErrMaxDepthExceeded is returned when nested eager loading goes too deep
	ErrMaxDepthExceeded = errors.New("maximum relation depth exceeded")
)
