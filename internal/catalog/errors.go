package catalog

import "errors"

var (
	// ErrEmptyKind is returned when a kind is registered without a name
	ErrEmptyKind = errors.New("empty kind name")

	// ErrDuplicateKind is returned when a kind name or facet type is registered twice
	ErrDuplicateKind = errors.New("kind already registered")

	// ErrUnknownKind is returned when instantiating a kind that was never registered
	ErrUnknownKind = errors.New("unknown kind")

	// ErrInvalidFactory is returned when a factory does not produce a facet
	ErrInvalidFactory = errors.New("invalid kind factory")
)
