package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/refwire/refwire/internal/catalog"
	"github.com/refwire/refwire/internal/cli/config"
	"github.com/refwire/refwire/internal/cli/ui"
	"github.com/refwire/refwire/internal/diag"
	"github.com/refwire/refwire/internal/engine"
	"github.com/refwire/refwire/internal/hooks"
	"github.com/refwire/refwire/internal/meta"
	"github.com/refwire/refwire/internal/scenefile"
)

// errFailed is returned after failures were already reported in detail
var errFailed = errors.New("validation failed")

// app wires the configured stack for one command invocation
type app struct {
	dir      string
	cfg      *config.Config
	logger   *zap.Logger
	registry *meta.Registry
	kinds    *catalog.Kinds
	metrics  *diag.Metrics
	gatherer *prometheus.Registry
	engine   *engine.Engine
	gate     *hooks.Executor
	queue    *hooks.AsyncQueue
	codec    *scenefile.Codec
	noColor  bool
}

func newApp(cmd *cobra.Command) (*app, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		root, err := config.FindRoot(".")
		if err != nil {
			root = "."
		}
		dir = root
	}

	cfg, err := config.Load(dir)
	if err != nil {
		noColor, _ := cmd.Flags().GetBool("no-color")
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), noColor))
		return nil, err
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		cfg.Output.NoColor = true
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	registry, err := catalog.NewRegistry()
	if err != nil {
		return nil, err
	}

	gatherer := prometheus.NewRegistry()
	metrics, err := diag.NewMetrics(gatherer)
	if err != nil {
		return nil, err
	}

	e := engine.New(registry,
		engine.WithLogger(logger),
		engine.WithReporter(diag.NewLogReporter(logger).AtDebug()),
		engine.WithMetrics(metrics),
	)

	queue := hooks.NewAsyncQueue(1, logger)
	queue.Start()
	gate := hooks.NewExecutor(queue, logger)
	if cfg.Validate.OnSave {
		gate.Register(hooks.BeforeSave, hooks.ValidateOnSave(e, hooks.GateOptions{
			FailOnWarnings: cfg.Validate.FailOnWarnings,
		}))
	}
	if cfg.Metrics.File != "" {
		gate.Register(hooks.AfterSave, hooks.WriteMetrics(cfg.Metrics.File, gatherer))
	}

	kinds := catalog.DefaultKinds()
	return &app{
		dir:      dir,
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		kinds:    kinds,
		metrics:  metrics,
		gatherer: gatherer,
		engine:   e,
		gate:     gate,
		queue:    queue,
		codec:    scenefile.New(kinds, registry, scenefile.WithHooks(gate), scenefile.WithLogger(logger)),
		noColor:  cfg.Output.NoColor,
	}, nil
}

// rawCodec saves without running the save gate
func (a *app) rawCodec() *scenefile.Codec {
	return scenefile.New(a.kinds, a.registry, scenefile.WithLogger(a.logger))
}

// close waits for queued after-save hooks, then flushes the logger
func (a *app) close() {
	a.queue.Shutdown()
	_ = a.logger.Sync()
}

// sceneFiles expands patterns relative to the config directory. Arguments naming existing files
// there are taken as is. The result is sorted and free of duplicates.
func (a *app) sceneFiles(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = a.cfg.Scenes
	}

	var files []string
	fsys := os.DirFS(a.dir)
	for _, pattern := range patterns {
		path := pattern
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.dir, path)
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			files = append(files, filepath.Clean(path))
			continue
		}
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad scene pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			files = append(files, filepath.Join(a.dir, filepath.FromSlash(m)))
		}
	}

	slices.Sort(files)
	files = slices.Compact(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no scene files match %v: %w", patterns, fs.ErrNotExist)
	}
	return files, nil
}

// reportLoadError prints a load failure, with kind suggestions for unknown kinds
func (a *app) reportLoadError(cmd *cobra.Command, file string, err error) {
	var kindErr *scenefile.KindError
	if errors.As(err, &kindErr) {
		fmt.Fprint(cmd.ErrOrStderr(), ui.UnknownKindError(file, kindErr.Kind, a.kinds.Names(), a.noColor))
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), ui.SceneError(file, err, a.noColor))
}
