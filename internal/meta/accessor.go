package meta

import (
	"github.com/refwire/refwire/internal/scene"
)

// Value is a snapshot of a field with indirection unwrapped.
// Items holds 0 or 1 element for single fields; collection elements may be nil.
type Value struct {
	Items   []scene.Facet
	Wrapper Indirection
}

// Empty reports whether the field holds nothing
func (v Value) Empty() bool {
	return len(v.Items) == 0
}

// Accessor reads and writes one field of a host. Implementations are typed closures built by
// One, Many, Indirect and ManyIndirect.
type Accessor interface {
	Read(host any) Value
	// Write stores found and reports whether the field changed. found is non-empty.
	Write(host any, found []scene.Facet) bool
	// Discard drops a rejected single value, clearing an indirection wrapper
	Discard(host any) bool
	// Reset empties the field
	Reset(host any) bool
}

func asFacet[T any](v T) scene.Facet {
	f, ok := any(v).(scene.Facet)
	if !ok || scene.IsNil(f) {
		return nil
	}
	return f
}

func sameSequence(a, b []scene.Facet) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type oneAccessor[H, T any] struct {
	field func(H) *T
}

func (a oneAccessor[H, T]) Read(host any) Value {
	if f := asFacet(*a.field(host.(H))); f != nil {
		return Value{Items: []scene.Facet{f}}
	}
	return Value{}
}

func (a oneAccessor[H, T]) Write(host any, found []scene.Facet) bool {
	slot := a.field(host.(H))
	next, ok := any(found[0]).(T)
	if !ok {
		return false
	}
	if cur := asFacet(*slot); cur != nil && cur == found[0] {
		return false
	}
	*slot = next
	return true
}

func (a oneAccessor[H, T]) Discard(any) bool {
	return false
}

func (a oneAccessor[H, T]) Reset(host any) bool {
	slot := a.field(host.(H))
	had := asFacet(*slot) != nil
	var zero T
	*slot = zero
	return had
}

type manyAccessor[H, T any] struct {
	field func(H) *[]T
}

func (a manyAccessor[H, T]) Read(host any) Value {
	slot := a.field(host.(H))
	if len(*slot) == 0 {
		return Value{}
	}
	items := make([]scene.Facet, len(*slot))
	for i, v := range *slot {
		items[i] = asFacet(v)
	}
	return Value{Items: items}
}

func (a manyAccessor[H, T]) Write(host any, found []scene.Facet) bool {
	slot := a.field(host.(H))
	if sameSequence(a.Read(host).Items, found) {
		return false
	}
	next := make([]T, 0, len(found))
	for _, f := range found {
		if f == nil {
			// keep the slot so a missing element stays visible to validation
			var zero T
			next = append(next, zero)
			continue
		}
		if v, ok := any(f).(T); ok {
			next = append(next, v)
		}
	}
	*slot = next
	return true
}

func (a manyAccessor[H, T]) Discard(any) bool {
	return false
}

func (a manyAccessor[H, T]) Reset(host any) bool {
	slot := a.field(host.(H))
	had := len(*slot) > 0
	*slot = nil
	return had
}

type refAccessor[H, I any] struct {
	field func(H) *Ref[I]
}

func (a refAccessor[H, I]) Read(host any) Value {
	ref := a.field(host.(H))
	v := Value{Wrapper: ref}
	if ref.HasValue() {
		v.Items = []scene.Facet{ref.Raw()}
	}
	return v
}

func (a refAccessor[H, I]) Write(host any, found []scene.Facet) bool {
	return a.field(host.(H)).Serialize(found[0])
}

func (a refAccessor[H, I]) Discard(host any) bool {
	return a.Reset(host)
}

func (a refAccessor[H, I]) Reset(host any) bool {
	ref := a.field(host.(H))
	had := ref.HasValue()
	ref.Clear()
	return had
}

type manyRefAccessor[H, I any] struct {
	field func(H) *[]Ref[I]
}

func (a manyRefAccessor[H, I]) Read(host any) Value {
	slot := a.field(host.(H))
	if len(*slot) == 0 {
		return Value{}
	}
	items := make([]scene.Facet, len(*slot))
	for i := range *slot {
		items[i] = (*slot)[i].Raw()
	}
	return Value{Items: items}
}

func (a manyRefAccessor[H, I]) Write(host any, found []scene.Facet) bool {
	slot := a.field(host.(H))
	if sameSequence(a.Read(host).Items, found) {
		return false
	}
	next := make([]Ref[I], len(found))
	for i, f := range found {
		next[i].Serialize(f)
	}
	*slot = next
	return true
}

func (a manyRefAccessor[H, I]) Discard(any) bool {
	return false
}

func (a manyRefAccessor[H, I]) Reset(host any) bool {
	slot := a.field(host.(H))
	had := len(*slot) > 0
	*slot = nil
	return had
}

// projected runs an accessor declared on a base type against a derived host
type projected struct {
	inner   Accessor
	project func(any) any
}

func (p projected) Read(host any) Value {
	return p.inner.Read(p.project(host))
}

func (p projected) Write(host any, found []scene.Facet) bool {
	return p.inner.Write(p.project(host), found)
}

func (p projected) Discard(host any) bool {
	return p.inner.Discard(p.project(host))
}

func (p projected) Reset(host any) bool {
	return p.inner.Reset(p.project(host))
}
