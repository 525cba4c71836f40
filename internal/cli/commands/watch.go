package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/refwire/refwire/internal/cli/ui"
	"github.com/refwire/refwire/internal/engine"
	"github.com/refwire/refwire/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	var patterns []string

	cmd := &cobra.Command{
		Use:   "watch [scene-globs...]",
		Short: "Re-validate scenes whenever they change",
		Long: `Watch the directories of the matching scenes and validate a scene again each time
it is written. Scenes are checked in memory and never saved.

Examples:
  # Watch the configured scenes
  refwire watch

  # Watch one directory, only .level.yaml files
  refwire watch 'levels/*.yaml' --pattern '*.level.yaml'
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			files, err := a.sceneFiles(args)
			if err != nil {
				return err
			}
			var dirs []string
			for _, f := range files {
				dirs = append(dirs, filepath.Dir(f))
			}
			slices.Sort(dirs)
			dirs = slices.Compact(dirs)

			if len(patterns) == 0 {
				patterns = []string{"*.yaml", "*.yml"}
			}

			out := cmd.OutOrStdout()
			rv := watch.NewRevalidator(a.codec, a.engine,
				engine.CheckOptions{Resolve: a.cfg.Validate.AllowRepair}, a.logger,
				func(res watch.Result) {
					if res.Err != nil {
						a.reportLoadError(cmd, res.File, res.Err)
						return
					}
					ui.RenderDiagnostics(out, res.File, res.Batch.Diagnostics(), a.noColor)
					if res.Passed() {
						ui.WriteSuccess(out, fmt.Sprintf("%s (%d hosts, %s)", res.File, len(res.Batch.Reports), res.Duration.Round(time.Millisecond)), a.noColor)
					}
				})

			watcher, err := watch.NewFileWatcher(watch.Config{
				Dirs:     dirs,
				Patterns: patterns,
				Ignored:  []string{"*.swp", "*.swo", "*~"},
				Debounce: a.cfg.Watch.Debounce,
				Logger:   a.logger,
			}, rv.Revalidate)
			if err != nil {
				return err
			}
			if err := watcher.Start(); err != nil {
				return err
			}
			defer watcher.Stop()

			// Report the current state before waiting for changes.
			_ = rv.Revalidate(files)

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			color.New(color.FgYellow).Fprintf(out, "Watching %d director(ies). Press Ctrl+C to stop.\n", len(dirs))
			<-ctx.Done()
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&patterns, "pattern", nil, "Base-name patterns of files to re-validate (default *.yaml, *.yml)")

	return cmd
}
