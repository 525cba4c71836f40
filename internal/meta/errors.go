package meta

import "errors"

var (
	// ErrAlreadyRegistered is returned when a host type is registered twice
	ErrAlreadyRegistered = errors.New("type already registered")

	// ErrEmptyFieldName is returned for a field declared without a name
	ErrEmptyFieldName = errors.New("empty field name")

	// ErrInvalidElement is returned when a field's element is neither a facet nor an interface
	ErrInvalidElement = errors.New("invalid element type")

	// ErrInvalidCapability is returned when a Ref targets a non-interface type
	ErrInvalidCapability = errors.New("invalid capability type")

	// ErrInvalidRelation is returned for a relation outside the declared set
	ErrInvalidRelation = errors.New("invalid relation")

	// ErrUnknownBase is returned when a type extends an unregistered base
	ErrUnknownBase = errors.New("unknown base type")

	// ErrConfiguration is the fatal error for a capability field declared without Ref
	ErrConfiguration = errors.New("configuration error")

	// ErrUnhandledRelation is raised when a relation outside the declared set reaches
	// resolution or validation
	ErrUnhandledRelation = errors.New("unhandled relation kind")

	// ErrExtensionCycle is returned when extension chains loop
	ErrExtensionCycle = errors.New("extension cycle")
)
