// Package engine wires the descriptor registry, resolver and validator into the public
// operations: validate a host, validate at runtime, clean, and batch-validate a graph.
package engine

import (
	"errors"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/refwire/refwire/internal/diag"
	"github.com/refwire/refwire/internal/meta"
	"github.com/refwire/refwire/internal/resolve"
	"github.com/refwire/refwire/internal/scene"
	"github.com/refwire/refwire/internal/validate"
)

// CheckOptions selects the steps Check runs before validating
type CheckOptions struct {
	// Clean empties every non-Unconstrained field first
	Clean bool
	// Resolve searches the tree and writes discovered references
	Resolve bool
}

// Report is the outcome of checking one host
type Report struct {
	Host        scene.Facet
	Passed      bool
	Skipped     bool
	Diagnostics *diag.List
	Changes     []resolve.Change
}

// Changed reports whether resolution rewrote any field
func (r *Report) Changed() bool {
	return len(r.Changes) > 0
}

// Engine runs reference resolution and validation for registered host types
type Engine struct {
	registry  *meta.Registry
	resolver  *resolve.Resolver
	validator *validate.Validator
	reporter  diag.Reporter
	metrics   *diag.Metrics
	logger    *zap.Logger
	buffers   sync.Pool
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine's logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithReporter sets the sink every diagnostic is handed to
func WithReporter(r diag.Reporter) Option {
	return func(e *Engine) {
		if r != nil {
			e.reporter = r
		}
	}
}

// WithMetrics counts diagnostics and outcomes
func WithMetrics(m *diag.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an engine over the given registry. Without WithReporter, diagnostics are logged.
func New(registry *meta.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:  registry,
		validator: validate.New(),
		logger:    zap.NewNop(),
	}
	e.buffers.New = func() any {
		buf := make([]*meta.Descriptor, 0, 16)
		return &buf
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resolver = resolve.New(e.logger)
	if e.reporter == nil {
		e.reporter = diag.NewLogReporter(e.logger)
	}
	if e.metrics != nil {
		e.reporter = diag.Multi(e.reporter, e.metrics)
	}
	return e
}

// Registry returns the engine's descriptor registry
func (e *Engine) Registry() *meta.Registry {
	return e.registry
}

// scan fills a pooled scratch buffer with host's descriptors. The returned release func clears
// the buffer and must run on every exit path.
func (e *Engine) scan(host scene.Facet) ([]*meta.Descriptor, func()) {
	buf := e.buffers.Get().(*[]*meta.Descriptor)
	*buf = e.registry.AppendScan((*buf)[:0], reflect.TypeOf(host))
	return *buf, func() {
		clear(*buf)
		*buf = (*buf)[:0]
		e.buffers.Put(buf)
	}
}

// Check runs the selected steps on host, then validates it. Diagnostics are returned in field
// order and handed to the reporter. A configuration error aborts the host and is returned.
func (e *Engine) Check(host scene.Facet, opts CheckOptions) (*Report, error) {
	if scene.IsNil(host) {
		return nil, scene.ErrNilFacet
	}
	fields, release := e.scan(host)
	defer release()

	report := &Report{Host: host, Diagnostics: &diag.List{}}

	if opts.Clean {
		e.clean(host, fields)
	}

	if opts.Resolve {
		res, err := e.resolver.Resolve(host, fields)
		if res != nil {
			report.Changes = res.Changes
		}
		if err != nil {
			return report, e.fatal(host, err)
		}
	}

	if owner := host.Owner(); owner != nil && owner.IsTemplate() {
		report.Skipped = true
		report.Passed = true
		return report, nil
	}

	passed, list, err := e.validator.Validate(host, fields)
	if err != nil {
		return report, e.fatal(host, err)
	}
	report.Passed = passed
	report.Diagnostics = list
	for _, d := range list.Items {
		e.reporter.Report(d)
	}
	if e.metrics != nil {
		e.metrics.ObserveCheck(passed)
	}
	return report, nil
}

func (e *Engine) fatal(host scene.Facet, err error) error {
	if e.metrics != nil && errors.Is(err, meta.ErrConfiguration) {
		e.metrics.ObserveFatal()
	}
	e.logger.Error("reference check aborted",
		zap.String("host", scene.Describe(host)),
		zap.Error(err))
	return err
}

// Validate resolves host's references and validates the result
func (e *Engine) Validate(host scene.Facet) (bool, error) {
	report, err := e.Check(host, CheckOptions{Resolve: true})
	if err != nil {
		return false, err
	}
	return report.Passed, nil
}

// ValidateAtRuntime validates host outside of editing. With allowRepair unset, the current
// values are checked without searching again.
func (e *Engine) ValidateAtRuntime(host scene.Facet, allowRepair bool) (bool, error) {
	report, err := e.Check(host, CheckOptions{Resolve: allowRepair})
	if err != nil {
		return false, err
	}
	return report.Passed, nil
}

// Clean empties every field of host that is not Unconstrained
func (e *Engine) Clean(host scene.Facet) error {
	if scene.IsNil(host) {
		return scene.ErrNilFacet
	}
	fields, release := e.scan(host)
	defer release()

	e.clean(host, fields)
	return nil
}

func (e *Engine) clean(host scene.Facet, fields []*meta.Descriptor) {
	changed := false
	for _, d := range fields {
		if d.Relation == meta.Unconstrained {
			continue
		}
		if d.Accessor.Reset(host) {
			changed = true
		}
	}
	if changed {
		scene.MarkDirty(host)
	}
}

// CleanValidate empties the non-Unconstrained fields of host, then resolves and validates it
func (e *Engine) CleanValidate(host scene.Facet) (bool, error) {
	report, err := e.Check(host, CheckOptions{Clean: true, Resolve: true})
	if err != nil {
		return false, err
	}
	return report.Passed, nil
}
