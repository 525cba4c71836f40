// Package refwire is the public entry point for declaring reference fields on facet types and
// resolving and validating them against a scene graph.
//
// Declare each host type once at startup:
//
//	type Collider struct {
//		refwire.Base
//		Body *Body
//	}
//
//	registry := refwire.NewRegistry()
//	registry.MustRegister(refwire.Define(
//		refwire.One("Body", refwire.InAncestors(), func(c *Collider) **Body { return &c.Body }),
//	))
//	engine := refwire.NewEngine(registry)
//
// then call engine.Validate(collider) whenever the tree changes.
package refwire

import (
	"go.uber.org/zap"

	"github.com/refwire/refwire/internal/diag"
	"github.com/refwire/refwire/internal/engine"
	"github.com/refwire/refwire/internal/meta"
	"github.com/refwire/refwire/internal/scene"
)

// Scene tree
type (
	Node  = scene.Node
	Graph = scene.Graph
	Facet = scene.Facet
	Base  = scene.Base
)

// Declarations
type (
	Relation   = meta.Relation
	Flag       = meta.Flag
	Tag        = meta.Tag
	Filter     = meta.Filter
	FilterFunc = meta.FilterFunc
	Descriptor = meta.Descriptor
	TypeSchema = meta.TypeSchema
	Registry   = meta.Registry
)

// Field is one declared reference field of host type H
type Field[H any] = meta.Field[H]

// Ref holds a facet through capability interface I
type Ref[I any] = meta.Ref[I]

// Outcomes
type (
	Engine       = engine.Engine
	Option       = engine.Option
	CheckOptions = engine.CheckOptions
	Report       = engine.Report
	BatchReport  = engine.BatchReport
	Diagnostic   = diag.Diagnostic
	Diagnostics  = diag.List
	Kind         = diag.Kind
	Reporter     = diag.Reporter
	Collector    = diag.Collector
)

const (
	Unconstrained = meta.Unconstrained
	Self          = meta.Self
	Ancestor      = meta.Ancestor
	Descendant    = meta.Descendant
	WholeGraph    = meta.Graph

	None             = meta.None
	Optional         = meta.Optional
	IncludeInactive  = meta.IncludeInactive
	Editable         = meta.Editable
	EditableAnywhere = meta.EditableAnywhere
	ExcludeSelf      = meta.ExcludeSelf

	MissingRequiredReference = diag.MissingRequiredReference
	WrongLocationReference   = diag.WrongLocationReference
	SelfExclusionViolation   = diag.SelfExclusionViolation
	NoDeclaredReferences     = diag.NoDeclaredReferences
)

var (
	ErrConfiguration = meta.ErrConfiguration
	ErrNilFacet      = scene.ErrNilFacet
	ErrDetached      = scene.ErrDetached
)

// NewGraph creates an empty graph
func NewGraph(name string) *Graph { return scene.NewGraph(name) }

// NewNode creates an active node with no parent
func NewNode(name string) *Node { return scene.NewNode(name) }

// NewRegistry creates an empty descriptor registry
func NewRegistry() *Registry { return meta.NewRegistry() }

// NewEngine creates an engine over registry
func NewEngine(registry *Registry, opts ...Option) *Engine { return engine.New(registry, opts...) }

// WithLogger sets the engine's logger
func WithLogger(logger *zap.Logger) Option { return engine.WithLogger(logger) }

// WithReporter sets the sink every diagnostic is handed to
func WithReporter(r Reporter) Option { return engine.WithReporter(r) }

// NewRef wraps raw as a capability reference
func NewRef[I any](raw Facet) Ref[I] { return meta.NewRef[I](raw) }

// Define declares the reference fields of host type H
func Define[H any](fields ...Field[H]) *TypeSchema { return meta.Define(fields...) }

// Extend declares the fields D adds on top of its embedded base B
func Extend[D, B any](base func(D) B, fields ...Field[D]) *TypeSchema {
	return meta.Extend(base, fields...)
}

// One declares a single-valued field holding a facet of type T
func One[H, T any](name string, t Tag, field func(H) *T) Field[H] {
	return meta.One(name, t, field)
}

// Many declares a collection field
func Many[H, T any](name string, t Tag, field func(H) *[]T) Field[H] {
	return meta.Many(name, t, field)
}

// Indirect declares a single capability field held through Ref
func Indirect[H, I any](name string, t Tag, field func(H) *Ref[I]) Field[H] {
	return meta.Indirect(name, t, field)
}

// ManyIndirect declares a collection of capability references
func ManyIndirect[H, I any](name string, t Tag, field func(H) *[]Ref[I]) Field[H] {
	return meta.ManyIndirect(name, t, field)
}

// Anywhere tags a field assigned by hand; only presence is validated
func Anywhere(flags ...Flag) Tag { return meta.Anywhere(flags...) }

// OnSelf tags a field searched on the host's own node
func OnSelf(flags ...Flag) Tag { return meta.OnSelf(flags...) }

// InAncestors tags a field searched from the host's node upward
func InAncestors(flags ...Flag) Tag { return meta.InAncestors(flags...) }

// InDescendants tags a field searched through the host's subtree
func InDescendants(flags ...Flag) Tag { return meta.InDescendants(flags...) }

// InGraph tags a field searched through the whole graph
func InGraph(flags ...Flag) Tag { return meta.InGraph(flags...) }

// FilterFor builds a filter over a facet or capability type
func FilterFor[T any](fn func(T) bool) Filter { return meta.FilterFor(fn) }
