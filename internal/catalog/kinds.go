// Package catalog provides the facet kinds scene files can instantiate by name, together with
// the reference schemas of the stock kinds.
package catalog

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/refwire/refwire/internal/scene"
)

// Factory creates a fresh, detached facet
type Factory func() scene.Facet

// Kinds maps kind names to facet factories
type Kinds struct {
	factories map[string]Factory
	names     map[reflect.Type]string
	order     []string
	mu        sync.RWMutex
}

// NewKinds creates an empty kind table
func NewKinds() *Kinds {
	return &Kinds{
		factories: make(map[string]Factory),
		names:     make(map[reflect.Type]string),
	}
}

// Add registers a factory under name. The factory is called once to learn the facet type, so
// that facets can be mapped back to their kind name when saving.
func (k *Kinds) Add(name string, f Factory) error {
	if name == "" {
		return ErrEmptyKind
	}
	sample := f()
	if scene.IsNil(sample) {
		return fmt.Errorf("%w: factory for %s returned nil", ErrInvalidFactory, name)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, name)
	}
	t := reflect.TypeOf(sample)
	if other, exists := k.names[t]; exists {
		return fmt.Errorf("%w: %s already registered as %s", ErrDuplicateKind, t, other)
	}
	k.factories[name] = f
	k.names[t] = name
	k.order = append(k.order, name)
	return nil
}

// MustAdd is Add that panics on error
func (k *Kinds) MustAdd(name string, f Factory) *Kinds {
	if err := k.Add(name, f); err != nil {
		panic(err)
	}
	return k
}

// New creates a facet of the named kind
func (k *Kinds) New(name string) (scene.Facet, error) {
	k.mu.RLock()
	f, ok := k.factories[name]
	k.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, name)
	}
	return f(), nil
}

// NameOf returns the kind name of f's type
func (k *Kinds) NameOf(f scene.Facet) (string, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	name, ok := k.names[reflect.TypeOf(f)]
	return name, ok
}

// TypeOf returns the facet type created by the named kind
func (k *Kinds) TypeOf(name string) (reflect.Type, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	for t, n := range k.names {
		if n == name {
			return t, true
		}
	}
	return nil, false
}

// Names returns the kind names in registration order
func (k *Kinds) Names() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := make([]string, len(k.order))
	copy(out, k.order)
	return out
}
