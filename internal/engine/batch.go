package engine

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/refwire/refwire/internal/diag"
	"github.com/refwire/refwire/internal/scene"
)

// BatchReport aggregates the checks of every registered host in a graph
type BatchReport struct {
	Reports []*Report
	Fatal   []error
	Passed  bool
}

// Diagnostics returns all diagnostics in check order
func (b *BatchReport) Diagnostics() *diag.List {
	out := &diag.List{}
	for _, r := range b.Reports {
		out.Append(r.Diagnostics)
	}
	return out
}

// Changed returns the reports whose host was rewritten
func (b *BatchReport) Changed() []*Report {
	var out []*Report
	for _, r := range b.Reports {
		if r.Changed() {
			out = append(out, r)
		}
	}
	return out
}

// Err joins the fatal errors, or returns nil
func (b *BatchReport) Err() error {
	return errors.Join(b.Fatal...)
}

// BatchCheck checks every instance of every registered host type found in g, inactive nodes
// included. Types are visited in registration order and instances in graph order. A fatal
// error fails its host only; the remaining hosts are still checked.
func (e *Engine) BatchCheck(g *scene.Graph, opts CheckOptions) *BatchReport {
	batch := &BatchReport{Passed: true}

	for _, t := range e.registry.Types() {
		fieldCount := len(e.registry.Scan(t))
		if fieldCount == 0 {
			continue
		}
		hosts := instancesOf(g, t)
		if len(hosts) == 0 {
			continue
		}
		e.logger.Info(fmt.Sprintf("validating %d field(s) on %d %s instance(s)",
			fieldCount, len(hosts), scene.TypeNameOf(t)))

		for _, host := range hosts {
			report, err := e.Check(host, opts)
			if err != nil {
				batch.Fatal = append(batch.Fatal, fmt.Errorf("%s: %w", scene.Describe(host), err))
				batch.Passed = false
				if report != nil {
					batch.Reports = append(batch.Reports, report)
				}
				continue
			}
			batch.Reports = append(batch.Reports, report)
			batch.Passed = batch.Passed && report.Passed
		}
	}

	e.logger.Debug("batch validation finished",
		zap.String("graph", g.Name),
		zap.Int("hosts", len(batch.Reports)),
		zap.Int("fatal", len(batch.Fatal)),
		zap.Bool("passed", batch.Passed))
	return batch
}

// BatchValidateAll resolves and validates every registered host in g and returns the AND of
// the individual results
func (e *Engine) BatchValidateAll(g *scene.Graph) bool {
	return e.BatchCheck(g, CheckOptions{Resolve: true}).Passed
}

func instancesOf(g *scene.Graph, t reflect.Type) []scene.Facet {
	return scene.InGraph(g, scene.Search{
		Match:           func(f scene.Facet) bool { return reflect.TypeOf(f) == t },
		IncludeInactive: true,
	})
}
