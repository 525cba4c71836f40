// Package meta holds the declarative reference metadata: relation kinds, flags, filters and the
// per-field descriptors registered for each host type.
package meta

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/refwire/refwire/internal/scene"
)

// Relation is the spatial scope a field's reference is searched in
type Relation int

const (
	// Unconstrained fields are assigned manually; only presence is validated
	Unconstrained Relation = iota
	// Self looks on the host's own node
	Self
	// Ancestor looks on the host's node and up through its ancestors
	Ancestor
	// Descendant looks through the subtree rooted at the host's node
	Descendant
	// Graph looks anywhere in the graph
	Graph
)

// String returns the relation name
func (r Relation) String() string {
	switch r {
	case Unconstrained:
		return "Unconstrained"
	case Self:
		return "Self"
	case Ancestor:
		return "Ancestor"
	case Descendant:
		return "Descendant"
	case Graph:
		return "Graph"
	default:
		return fmt.Sprintf("Relation(%d)", int(r))
	}
}

// Valid reports whether r is one of the declared relations
func (r Relation) Valid() bool {
	return r >= Unconstrained && r <= Graph
}

// Flag modifies search and validation behaviour. Flags combine with bitwise or.
type Flag uint8

const (
	// None is the default behaviour
	None Flag = 0
	// Optional allows the field to stay empty
	Optional Flag = 1 << 0
	// IncludeInactive makes inactive nodes and disabled facets eligible
	IncludeInactive Flag = 1 << 1
	// Editable keeps a non-empty value instead of searching again
	Editable Flag = 1 << 2
	// ExcludeSelf skips facets on the host's own node
	ExcludeSelf Flag = 1 << 3
	// EditableAnywhere is Editable and also skips location validation
	EditableAnywhere Flag = 1<<4 | Editable
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{Optional, "Optional"},
	{IncludeInactive, "IncludeInactive"},
	{EditableAnywhere, "EditableAnywhere"},
	{Editable, "Editable"},
	{ExcludeSelf, "ExcludeSelf"},
}

// Has reports whether every bit of want is set
func (f Flag) Has(want Flag) bool {
	return f&want == want
}

// String returns the set flag names joined by "|"
func (f Flag) String() string {
	if f == None {
		return "None"
	}
	var names []string
	rest := f
	for _, fn := range flagNames {
		if rest.Has(fn.flag) {
			names = append(names, fn.name)
			rest &^= fn.flag
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint8(rest)))
	}
	return strings.Join(names, "|")
}

// Filter decides whether a discovered facet may be assigned
type Filter interface {
	Include(f scene.Facet) bool
}

// FilterFunc adapts a function to Filter
type FilterFunc func(scene.Facet) bool

// Include calls fn(f)
func (fn FilterFunc) Include(f scene.Facet) bool {
	return fn(f)
}

// FilterFor builds a Filter over a facet or capability type. Facets not of type T are rejected.
func FilterFor[T any](fn func(T) bool) Filter {
	return FilterFunc(func(f scene.Facet) bool {
		v, ok := any(f).(T)
		return ok && fn(v)
	})
}

// ElementType is the facet type or capability a field's elements must have
type ElementType struct {
	Type       reflect.Type
	Capability bool
	match      func(scene.Facet) bool
}

func elementOf[T any]() ElementType {
	t := reflect.TypeFor[T]()
	return ElementType{
		Type:       t,
		Capability: t.Kind() == reflect.Interface,
		match: func(f scene.Facet) bool {
			_, ok := any(f).(T)
			return ok
		},
	}
}

// Matches reports whether f has the element type
func (e ElementType) Matches(f scene.Facet) bool {
	if scene.IsNil(f) {
		return false
	}
	return e.match(f)
}

// Name returns the short type name
func (e ElementType) Name() string {
	return scene.TypeNameOf(e.Type)
}

// Tag is the relation, flags and filter declared for one field
type Tag struct {
	Relation Relation
	Flags    Flag
	Filter   Filter
}

func tag(r Relation, flags []Flag) Tag {
	t := Tag{Relation: r}
	for _, f := range flags {
		t.Flags |= f
	}
	return t
}

// Anywhere declares a manually assigned field
func Anywhere(flags ...Flag) Tag { return tag(Unconstrained, flags) }

// OnSelf declares a field resolved from the host's own node
func OnSelf(flags ...Flag) Tag { return tag(Self, flags) }

// InAncestors declares a field resolved from the host's node and its ancestors
func InAncestors(flags ...Flag) Tag { return tag(Ancestor, flags) }

// InDescendants declares a field resolved from the host's subtree
func InDescendants(flags ...Flag) Tag { return tag(Descendant, flags) }

// InGraph declares a field resolved from anywhere in the graph
func InGraph(flags ...Flag) Tag { return tag(Graph, flags) }

// Filtered returns a copy of the tag with the filter applied
func (t Tag) Filtered(f Filter) Tag {
	t.Filter = f
	return t
}
