package scenefile

import (
	"errors"
	"fmt"
)

var (
	// ErrBadAddress is returned for malformed facet addresses
	ErrBadAddress = errors.New("malformed facet address")

	// ErrUnresolved is returned when an address names no facet in the graph
	ErrUnresolved = errors.New("unresolved facet address")

	// ErrUnknownField is returned when refs name a field the facet kind does not declare
	ErrUnknownField = errors.New("unknown reference field")

	// ErrUnaddressable is returned when saving a reference to a facet outside the graph
	ErrUnaddressable = errors.New("facet cannot be addressed")

	// ErrUnknownFacet is returned when saving a facet whose type has no kind name
	ErrUnknownFacet = errors.New("facet type has no kind")
)

// KindError reports a facet kind the catalog cannot create
type KindError struct {
	Node string
	Kind string
	Err  error
}

func (e *KindError) Error() string {
	return fmt.Sprintf("node %s: %v", e.Node, e.Err)
}

func (e *KindError) Unwrap() error {
	return e.Err
}
