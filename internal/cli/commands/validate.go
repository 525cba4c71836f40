package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/refwire/refwire/internal/cli/ui"
	"github.com/refwire/refwire/internal/diag"
	"github.com/refwire/refwire/internal/engine"
	"github.com/refwire/refwire/internal/history"
)

// sceneResult is the JSON form of one validated scene
type sceneResult struct {
	Scene       string            `json:"scene"`
	Passed      bool              `json:"passed"`
	Hosts       int               `json:"hosts"`
	Repaired    int               `json:"repaired"`
	Saved       bool              `json:"saved,omitempty"`
	Regressed   bool              `json:"regressed,omitempty"`
	Error       string            `json:"error,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

type validateOptions struct {
	noRepair    bool
	write       bool
	format      string
	metricsFile string
}

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate [scene-globs...]",
		Short: "Resolve and validate the references of scene files",
		Long: `Load every matching scene, resolve the reference fields of each registered facet,
and report references that are missing or point outside their declared location.

Without arguments the scenes patterns from refwire.yaml are used. Patterns support **.

Examples:
  # Validate the configured scenes
  refwire validate

  # Validate one level without repairing anything
  refwire validate levels/act1.yaml --no-repair

  # Repair and save every level, printing JSON
  refwire validate 'levels/**/*.yaml' --write --format json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if !cmd.Flags().Changed("format") {
				opts.format = a.cfg.Output.Format
			}
			if !cmd.Flags().Changed("metrics-file") {
				opts.metricsFile = a.cfg.Metrics.File
			}
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("--format must be text or json, got: %s", opts.format)
			}
			return runValidate(cmd, a, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.noRepair, "no-repair", false, "Check current values without resolving")
	cmd.Flags().BoolVar(&opts.write, "write", false, "Save scenes whose references were repaired")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")

	return cmd
}

func runValidate(cmd *cobra.Command, a *app, patterns []string, opts validateOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	files, err := a.sceneFiles(patterns)
	if err != nil {
		return err
	}

	var tracker *history.Tracker
	if a.cfg.History.DSN != "" {
		tracker, err = history.Open(ctx, a.cfg.History.Driver, a.cfg.History.DSN)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer tracker.Close()
	}

	repair := a.cfg.Validate.AllowRepair && !opts.noRepair
	text := opts.format == "text"
	out := cmd.OutOrStdout()

	var bar *ui.ProgressBar
	if text && len(files) > 1 {
		bar = ui.NewProgressBar(cmd.ErrOrStderr(), len(files), "validating", a.noColor)
	}

	var summary ui.Summary
	results := make([]sceneResult, 0, len(files))
	for _, file := range files {
		if bar != nil {
			bar.Step(file)
		}
		res := a.validateScene(ctx, cmd, file, repair, opts.write, tracker, text)
		results = append(results, res)

		summary.Scenes++
		summary.Hosts += res.Hosts
		summary.Repaired += res.Repaired
		if res.Error != "" {
			summary.Failed++
		}
		for _, d := range res.Diagnostics {
			if d.Severity == diag.SeverityError {
				summary.Errors++
			} else {
				summary.Warnings++
			}
		}
	}
	if bar != nil {
		bar.Finish()
	}

	if text {
		for _, res := range results {
			list := &diag.List{Items: res.Diagnostics}
			ui.RenderDiagnostics(out, res.Scene, list, a.noColor)
			if res.Regressed {
				fmt.Fprint(out, ui.Warning(res.Scene+" regressed: it passed on its previous run", a.noColor))
			}
		}
		ui.RenderSummary(out, summary, a.noColor)
	} else {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	}

	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, a.gatherer); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	for _, res := range results {
		if !res.Passed {
			return errFailed
		}
	}
	return nil
}

func (a *app) validateScene(ctx context.Context, cmd *cobra.Command, file string, repair, write bool, tracker *history.Tracker, text bool) sceneResult {
	start := time.Now()
	res := sceneResult{Scene: file, Diagnostics: []diag.Diagnostic{}}

	g, err := a.codec.Load(file)
	if err != nil {
		res.Error = err.Error()
		if text {
			a.reportLoadError(cmd, file, err)
		}
		return res
	}

	batch := a.engine.BatchCheck(g, engine.CheckOptions{Resolve: repair})
	list := batch.Diagnostics()
	res.Hosts = len(batch.Reports)
	res.Repaired = len(batch.Changed())
	res.Diagnostics = append(res.Diagnostics, list.Items...)
	res.Passed = batch.Passed && !(a.cfg.Validate.FailOnWarnings && len(list.Warnings()) > 0)
	if err := batch.Err(); err != nil {
		res.Error = err.Error()
		res.Passed = false
	}

	if write && res.Repaired > 0 && res.Error == "" {
		if err := a.codec.Save(ctx, g, file); err != nil {
			res.Error = err.Error()
			res.Passed = false
		} else {
			res.Saved = true
		}
	}

	if tracker != nil {
		run := history.NewRun(file, start, batch)
		if err := tracker.Record(ctx, run); err != nil {
			a.logger.Warn("failed to record run", zap.String("scene", file), zap.Error(err))
		} else if regressed, err := tracker.Regressed(ctx, run); err == nil {
			res.Regressed = regressed
		}
	}
	return res
}
