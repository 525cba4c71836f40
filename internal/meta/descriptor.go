package meta

import (
	"fmt"
	"reflect"

	"github.com/refwire/refwire/internal/scene"
)

var facetType = reflect.TypeFor[scene.Facet]()

// Descriptor is the static reference metadata for one field of a host type
type Descriptor struct {
	Name       string
	Host       reflect.Type
	Relation   Relation
	Flags      Flag
	Filter     Filter
	Collection bool
	Indirect   bool
	Element    ElementType
	Accessor   Accessor

	err error
}

// Has reports whether all of the given flags are set
func (d *Descriptor) Has(f Flag) bool {
	return d.Flags.Has(f)
}

// Misconfigured reports whether the field targets a capability without going through Ref
func (d *Descriptor) Misconfigured() bool {
	return d.Element.Capability && !d.Indirect
}

// HostName returns the short name of the declaring type
func (d *Descriptor) HostName() string {
	if d.Host == nil {
		return "?"
	}
	return scene.TypeNameOf(d.Host)
}

// TypeLabel renders the element type with a [] suffix for collections
func (d *Descriptor) TypeLabel() string {
	if d.Collection {
		return d.Element.Name() + "[]"
	}
	return d.Element.Name()
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s.%s %s %s (%s)", d.HostName(), d.Name, d.TypeLabel(), d.Relation, d.Flags)
}

func (d *Descriptor) withHost(t reflect.Type) *Descriptor {
	c := *d
	c.Host = t
	return &c
}

// Field is a descriptor under construction for host type H
type Field[H any] struct {
	d *Descriptor
}

// Descriptor returns the built descriptor
func (f Field[H]) Descriptor() *Descriptor {
	return f.d
}

func newField[H any](name string, t Tag, elem ElementType, acc Accessor) Field[H] {
	d := &Descriptor{
		Name:     name,
		Relation: t.Relation,
		Flags:    t.Flags,
		Filter:   t.Filter,
		Element:  elem,
		Accessor: acc,
	}
	switch {
	case name == "":
		d.err = ErrEmptyFieldName
	case !elem.Capability && !elem.Type.Implements(facetType):
		d.err = fmt.Errorf("%w: %s is neither a facet nor a capability", ErrInvalidElement, elem.Type)
	case !t.Relation.Valid():
		d.err = fmt.Errorf("%w: %s", ErrInvalidRelation, t.Relation)
	}
	return Field[H]{d: d}
}

// One declares a single-valued field holding a facet of type T.
// Declaring T as a capability interface is a configuration error reported at resolution time;
// use Indirect for capabilities.
func One[H, T any](name string, t Tag, field func(H) *T) Field[H] {
	return newField[H](name, t, elementOf[T](), oneAccessor[H, T]{field: field})
}

// Many declares an ordered collection of facets of type T
func Many[H, T any](name string, t Tag, field func(H) *[]T) Field[H] {
	f := newField[H](name, t, elementOf[T](), manyAccessor[H, T]{field: field})
	f.d.Collection = true
	return f
}

// Indirect declares a single field holding a facet through capability I
func Indirect[H, I any](name string, t Tag, field func(H) *Ref[I]) Field[H] {
	f := newField[H](name, t, elementOf[I](), refAccessor[H, I]{field: field})
	f.d.Indirect = true
	if f.d.err == nil && !f.d.Element.Capability {
		f.d.err = fmt.Errorf("%w: %s is not an interface", ErrInvalidCapability, f.d.Element.Type)
	}
	return f
}

// ManyIndirect declares an ordered collection of capability references
func ManyIndirect[H, I any](name string, t Tag, field func(H) *[]Ref[I]) Field[H] {
	f := newField[H](name, t, elementOf[I](), manyRefAccessor[H, I]{field: field})
	f.d.Indirect = true
	f.d.Collection = true
	if f.d.err == nil && !f.d.Element.Capability {
		f.d.err = fmt.Errorf("%w: %s is not an interface", ErrInvalidCapability, f.d.Element.Type)
	}
	return f
}

// CheckConfigured returns an ErrConfiguration error when the field targets a capability
// directly instead of through Ref
func (d *Descriptor) CheckConfigured() error {
	if d.Misconfigured() {
		return fmt.Errorf("%w: %s cannot reference capability %s directly in field %q, use meta.Ref instead",
			ErrConfiguration, d.HostName(), d.Element.Name(), d.Name)
	}
	return nil
}

// Unhandled panics for a relation outside the declared set. It marks branches that the closed
// relation set makes unreachable.
func Unhandled(r Relation) {
	panic(fmt.Errorf("%w: %s", ErrUnhandledRelation, r))
}
