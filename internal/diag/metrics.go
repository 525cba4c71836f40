package diag

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts diagnostics and validation outcomes
type Metrics struct {
	diagnostics *prometheus.CounterVec
	checks      *prometheus.CounterVec
	fatal       prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "refwire",
			Name:      "diagnostics_total",
			Help:      "Reference diagnostics by kind and severity.",
		}, []string{"kind", "severity"}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "refwire",
			Name:      "host_checks_total",
			Help:      "Validated hosts by outcome.",
		}, []string{"outcome"}),
		fatal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "refwire",
			Name:      "fatal_errors_total",
			Help:      "Hosts whose processing stopped on a configuration error.",
		}),
	}
	for _, c := range []prometheus.Collector{m.diagnostics, m.checks, m.fatal} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Report counts d
func (m *Metrics) Report(d Diagnostic) {
	m.diagnostics.WithLabelValues(d.Kind.String(), d.Severity.String()).Inc()
}

// ObserveCheck counts one validated host
func (m *Metrics) ObserveCheck(passed bool) {
	outcome := "pass"
	if !passed {
		outcome = "fail"
	}
	m.checks.WithLabelValues(outcome).Inc()
}

// ObserveFatal counts one host aborted by a fatal error
func (m *Metrics) ObserveFatal() {
	m.fatal.Inc()
}
