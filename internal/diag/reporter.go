package diag

import (
	"sync"

	"go.uber.org/zap"
)

// Reporter receives diagnostics as they are produced
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(Diagnostic)

// Report calls fn(d)
func (fn ReporterFunc) Report(d Diagnostic) {
	fn(d)
}

// Discard drops every diagnostic
var Discard Reporter = ReporterFunc(func(Diagnostic) {})

// Collector keeps every reported diagnostic in memory
type Collector struct {
	mu   sync.Mutex
	list List
}

// Report stores d
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list.Add(d)
}

// List returns a copy of the collected diagnostics
func (c *Collector) List() *List {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]Diagnostic, len(c.list.Items))
	copy(items, c.list.Items)
	return &List{Items: items}
}

// Reset drops collected diagnostics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list.Items = nil
}

// LogReporter writes diagnostics as structured log entries
type LogReporter struct {
	logger *zap.Logger
	debug  bool
}

// NewLogReporter creates a reporter logging to logger. A nil logger discards output.
func NewLogReporter(logger *zap.Logger) *LogReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogReporter{logger: logger.Named("refs")}
}

// AtDebug returns a reporter that logs every diagnostic at debug level, for callers that render
// diagnostics themselves
func (r *LogReporter) AtDebug() *LogReporter {
	return &LogReporter{logger: r.logger, debug: true}
}

// Report logs d at error or warn level depending on its severity
func (r *LogReporter) Report(d Diagnostic) {
	fields := []zap.Field{
		zap.String("node", d.NodePath()),
		zap.String("host", d.Host),
		zap.Stringer("kind", d.Kind),
	}
	if d.Field != "" {
		fields = append(fields, zap.String("field", d.Field))
	}
	msg := d.Detail
	if msg == "" {
		msg = d.Kind.String()
	}
	if r.debug {
		r.logger.Debug(msg, fields...)
		return
	}
	if d.Severity == SeverityWarning {
		r.logger.Warn(msg, fields...)
		return
	}
	r.logger.Error(msg, fields...)
}

// Multi fans each diagnostic out to every reporter in order
func Multi(reporters ...Reporter) Reporter {
	var live []Reporter
	for _, r := range reporters {
		if r != nil {
			live = append(live, r)
		}
	}
	return ReporterFunc(func(d Diagnostic) {
		for _, r := range live {
			r.Report(d)
		}
	})
}
