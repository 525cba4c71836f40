package meta

import (
	"reflect"

	"github.com/refwire/refwire/internal/scene"
)

// Indirection is implemented by fields that hold a facet through a capability instead of a
// concrete facet type
type Indirection interface {
	Capability() reflect.Type
	Raw() scene.Facet
	HasValue() bool
	// Serialize stores raw and reports whether the stored facet changed
	Serialize(raw scene.Facet) bool
	Clear()
}

// Ref holds a facet that satisfies capability I. The cast to I happens on first Value call
// and is cached until the raw facet changes.
type Ref[I any] struct {
	raw   scene.Facet
	cast  bool
	value I
}

// NewRef returns a reference holding raw
func NewRef[I any](raw scene.Facet) Ref[I] {
	var r Ref[I]
	r.Serialize(raw)
	return r
}

// Value returns the raw facet as I, or the zero value when empty or not an I
func (r *Ref[I]) Value() I {
	if !r.cast {
		r.cast = true
		var zero I
		r.value = zero
		if v, ok := any(r.raw).(I); ok && !scene.IsNil(r.raw) {
			r.value = v
		}
	}
	return r.value
}

// Capability returns the reflected type of I
func (r *Ref[I]) Capability() reflect.Type {
	return reflect.TypeFor[I]()
}

// Raw returns the stored facet
func (r *Ref[I]) Raw() scene.Facet {
	return r.raw
}

// HasValue reports whether a facet is stored
func (r *Ref[I]) HasValue() bool {
	return !scene.IsNil(r.raw)
}

// Serialize stores raw, invalidating the cached cast, and reports whether it changed
func (r *Ref[I]) Serialize(raw scene.Facet) bool {
	if scene.IsNil(raw) {
		raw = nil
	}
	if raw == r.raw {
		return false
	}
	r.raw = raw
	r.cast = false
	return true
}

// Clear empties the reference
func (r *Ref[I]) Clear() {
	var zero I
	r.raw = nil
	r.cast = false
	r.value = zero
}
