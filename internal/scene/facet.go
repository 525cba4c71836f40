package scene

import (
	"fmt"
	"reflect"
)

// Facet is a typed unit attached to exactly one Node.
// Concrete facets embed Base, which supplies ownership and dirty tracking.
type Facet interface {
	Owner() *Node
	bind(n *Node)
}

// Base is embedded by every concrete facet type
type Base struct {
	owner *Node
	dirty bool
}

// Owner returns the node the facet is attached to, or nil when detached
func (b *Base) Owner() *Node {
	return b.owner
}

func (b *Base) bind(n *Node) {
	b.owner = n
}

// SetDirty marks the facet as modified since it was last persisted
func (b *Base) SetDirty() {
	b.dirty = true
}

// IsDirty reports whether the facet was modified since the last ClearDirty
func (b *Base) IsDirty() bool {
	return b.dirty
}

// ClearDirty resets the dirty marker, typically after a save
func (b *Base) ClearDirty() {
	b.dirty = false
}

// Dirtier is implemented by facets that track unsaved modifications
type Dirtier interface {
	SetDirty()
	IsDirty() bool
	ClearDirty()
}

// Toggleable is implemented by facets that can be individually disabled.
// A disabled facet is treated as inactive by searches that skip inactive candidates.
type Toggleable interface {
	Enabled() bool
}

// MarkDirty flags f as modified when it tracks dirtiness
func MarkDirty(f Facet) {
	if d, ok := f.(Dirtier); ok {
		d.SetDirty()
	}
}

// IsEnabled reports whether f is enabled; facets without a toggle are always enabled
func IsEnabled(f Facet) bool {
	if t, ok := f.(Toggleable); ok {
		return t.Enabled()
	}
	return true
}

// TypeName returns the short Go type name of a facet, without package or pointer prefix
func TypeName(f Facet) string {
	if f == nil {
		return "<nil>"
	}
	return typeName(reflect.TypeOf(f))
}

// TypeNameOf returns the short name for a reflected facet or capability type
func TypeNameOf(t reflect.Type) string {
	return typeName(t)
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}

// Describe renders a facet as "path#Type" for log and diagnostic output
func Describe(f Facet) string {
	if IsNil(f) {
		return "<nil>"
	}
	owner := f.Owner()
	if owner == nil {
		return fmt.Sprintf("<detached>#%s", TypeName(f))
	}
	return fmt.Sprintf("%s#%s", owner.Path(), TypeName(f))
}

// IsNil reports whether f is nil or a typed nil pointer
func IsNil(f Facet) bool {
	if f == nil {
		return true
	}
	v := reflect.ValueOf(f)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
