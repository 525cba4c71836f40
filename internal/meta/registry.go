package meta

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/refwire/refwire/internal/scene"
)

// TypeSchema lists the reference fields declared directly on one host type
type TypeSchema struct {
	Type   reflect.Type
	Fields []*Descriptor

	base    reflect.Type
	project func(any) any
}

// Name returns the short type name
func (s *TypeSchema) Name() string {
	if s.Type == nil {
		return "?"
	}
	return scene.TypeNameOf(s.Type)
}

// Base returns the type this schema extends, or nil
func (s *TypeSchema) Base() reflect.Type {
	return s.base
}

// Define builds the schema for host type H from its field declarations, in declaration order
func Define[H any](fields ...Field[H]) *TypeSchema {
	t := reflect.TypeFor[H]()
	s := &TypeSchema{Type: t, Fields: make([]*Descriptor, 0, len(fields))}
	for _, f := range fields {
		s.Fields = append(s.Fields, f.d.withHost(t))
	}
	return s
}

// Extend is Define for a host type D whose reference fields continue in base type B.
// base projects a D onto the embedded B so B's accessors can run against D values.
func Extend[D, B any](base func(D) B, fields ...Field[D]) *TypeSchema {
	s := Define[D](fields...)
	s.base = reflect.TypeFor[B]()
	s.project = func(host any) any { return base(host.(D)) }
	return s
}

// Registry is the type-keyed store of host schemas. Scans are cached per type.
type Registry struct {
	schemas map[reflect.Type]*TypeSchema
	order   []reflect.Type
	cache   map[reflect.Type][]*Descriptor
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[reflect.Type]*TypeSchema),
		cache:   make(map[reflect.Type][]*Descriptor),
	}
}

// Register adds a host schema. Base types may be registered later; ValidateAll checks the
// extension chains once everything is registered.
func (r *Registry) Register(s *TypeSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[s.Type]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, s.Type)
	}

	var errs []error
	for _, d := range s.Fields {
		if d.err != nil {
			errs = append(errs, fmt.Errorf("%s.%s: %w", s.Name(), d.Name, d.err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("schema validation failed for %s: %w", s.Name(), errors.Join(errs...))
	}

	r.schemas[s.Type] = s
	r.order = append(r.order, s.Type)
	clear(r.cache)
	return nil
}

// MustRegister registers each schema and panics on failure
func (r *Registry) MustRegister(schemas ...*TypeSchema) *Registry {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Get returns the schema registered for t
func (r *Registry) Get(t reflect.Type) (*TypeSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[t]
	return s, ok
}

// Types returns the registered host types in registration order
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]reflect.Type, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered host types
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.schemas)
}

// ValidateAll checks that every extended base is registered and that no chain loops
func (r *Registry) ValidateAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, t := range r.order {
		seen := map[reflect.Type]bool{}
		for cur := r.schemas[t]; cur != nil && cur.base != nil; {
			if seen[cur.Type] {
				errs = append(errs, fmt.Errorf("%w: %s", ErrExtensionCycle, t))
				break
			}
			seen[cur.Type] = true
			next, ok := r.schemas[cur.base]
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %s extends %s", ErrUnknownBase, cur.Type, cur.base))
				break
			}
			cur = next
		}
	}
	return errors.Join(errs...)
}

// Scan returns the descriptors for host type t: t's own fields first, then each base's fields,
// each level in declaration order. Only the first declaration of a field name within a level is
// kept. Unregistered types scan to an empty list. The returned slice is owned by the caller.
func (r *Registry) Scan(t reflect.Type) []*Descriptor {
	return r.AppendScan(nil, t)
}

// ScanHost is Scan for the dynamic type of host
func (r *Registry) ScanHost(host any) []*Descriptor {
	return r.Scan(reflect.TypeOf(host))
}

// AppendScan appends the descriptors for t to dst, letting callers reuse a scratch buffer
func (r *Registry) AppendScan(dst []*Descriptor, t reflect.Type) []*Descriptor {
	r.mu.RLock()
	cached, ok := r.cache[t]
	r.mu.RUnlock()
	if ok {
		return append(dst, cached...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok = r.cache[t]; !ok {
		cached = r.flatten(t)
		r.cache[t] = cached
	}
	return append(dst, cached...)
}

// flatten walks the extension chain from t down to its least-derived base. Must hold r.mu.
func (r *Registry) flatten(t reflect.Type) []*Descriptor {
	var out []*Descriptor
	project := func(host any) any { return host }
	visited := map[reflect.Type]bool{}

	for s, ok := r.schemas[t]; ok && !visited[s.Type]; s, ok = r.schemas[s.base] {
		visited[s.Type] = true
		names := make(map[string]bool, len(s.Fields))
		for _, d := range s.Fields {
			if names[d.Name] {
				continue
			}
			names[d.Name] = true
			if s.Type != t {
				c := *d
				c.Accessor = projected{inner: d.Accessor, project: project}
				d = &c
			}
			out = append(out, d)
		}
		if s.base == nil {
			break
		}
		outer, step := project, s.project
		project = func(host any) any { return step(outer(host)) }
	}
	return out
}
