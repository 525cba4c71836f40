package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refwire/refwire/internal/cli/ui"
	"github.com/refwire/refwire/internal/history"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [scene]",
		Short: "Show recorded validation runs",
		Long: `List the validation runs recorded in the history database, newest first.
Requires history.dsn in refwire.yaml or REFWIRE_HISTORY_DSN.

Examples:
  # Last 20 runs of every scene
  refwire history

  # Last 5 runs of one level
  refwire history levels/act1.yaml --limit 5
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.History.DSN == "" {
				fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError("history.dsn is not set", a.noColor))
				return errFailed
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got: %d", limit)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			tracker, err := history.Open(ctx, a.cfg.History.Driver, a.cfg.History.DSN)
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer tracker.Close()

			var scene string
			if len(args) == 1 {
				scene = args[0]
			}
			runs, err := tracker.List(ctx, scene, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}

			table := ui.NewTable(cmd.OutOrStdout(), a.noColor, "STARTED", "SCENE", "RESULT", "HOSTS", "ERRORS", "WARNINGS", "DURATION")
			for _, r := range runs {
				result := "pass"
				if !r.Passed {
					result = "fail"
				}
				table.AddRow(
					r.StartedAt.Local().Format("2006-01-02 15:04:05"),
					r.Scene,
					result,
					fmt.Sprint(r.Hosts),
					fmt.Sprint(r.Errors),
					fmt.Sprint(r.Warnings),
					fmt.Sprintf("%dms", r.DurationMS),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")

	return cmd
}
