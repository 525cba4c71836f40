package scene

import "errors"

var (
	// ErrNilNode is returned when a nil node is added to a tree
	ErrNilNode = errors.New("nil node")

	// ErrNilFacet is returned when attaching a nil facet
	ErrNilFacet = errors.New("nil facet")

	// ErrAlreadyAttached is returned when attaching a facet that already has an owner
	ErrAlreadyAttached = errors.New("facet already attached")

	// ErrDetached is returned when a host facet is not attached to a node
	ErrDetached = errors.New("facet is not attached to a node")

	// ErrCycle is returned when a node would become its own ancestor
	ErrCycle = errors.New("node cycle")
)
