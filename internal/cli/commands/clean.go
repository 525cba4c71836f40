package commands

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/refwire/refwire/internal/cli/ui"
	"github.com/refwire/refwire/internal/scene"
)

// NewCleanCommand creates the clean command
func NewCleanCommand() *cobra.Command {
	var (
		yes       bool
		noResolve bool
	)

	cmd := &cobra.Command{
		Use:   "clean <scene> <node-path>",
		Short: "Reset the references of every facet on a node",
		Long: `Empty the located reference fields of every facet on a node, then resolve them
again from the tree and save the scene. Fields assigned by hand are kept.

With --no-resolve the fields stay empty and the scene is saved without validation.

Examples:
  # Re-resolve the turret on the tower
  refwire clean levels/act1.yaml fort/tower

  # Clear without prompting or re-resolving
  refwire clean levels/act1.yaml fort/tower --yes --no-resolve
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			file, path := args[0], args[1]
			g, err := a.codec.Load(file)
			if err != nil {
				a.reportLoadError(cmd, file, err)
				return errFailed
			}

			node := g.Find(path)
			if node == nil {
				var paths []string
				g.Walk(func(n *scene.Node) bool {
					paths = append(paths, n.Path())
					return true
				})
				ui.WriteMessage(cmd.ErrOrStderr(), ui.MessageOptions{
					Level:       ui.LevelError,
					Context:     "node not found: " + path,
					Problem:     fmt.Sprintf("Scene %s has no node '%s'.", file, path),
					Suggestions: ui.Suggest(path, paths, 3),
					NoColor:     a.noColor,
				})
				return errFailed
			}

			var hosts []scene.Facet
			for _, f := range node.Facets() {
				if len(a.registry.ScanHost(f)) > 0 {
					hosts = append(hosts, f)
				}
			}
			if len(hosts) == 0 {
				fmt.Fprint(cmd.OutOrStdout(), ui.Warning(fmt.Sprintf("%s declares no references", path), a.noColor))
				return nil
			}

			if !yes {
				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Reset references of %d facet(s) on %s?", len(hosts), path),
					Default: false,
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return err
				}
				if !confirmed {
					return nil
				}
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if noResolve {
				for _, f := range hosts {
					if err := a.engine.Clean(f); err != nil {
						return err
					}
				}
				if err := a.rawCodec().Save(ctx, g, file); err != nil {
					return err
				}
				ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Cleared %d facet(s) on %s", len(hosts), path), a.noColor)
				return nil
			}

			failed := 0
			for _, f := range hosts {
				passed, err := a.engine.CleanValidate(f)
				if err != nil {
					return err
				}
				if !passed {
					failed++
				}
			}
			if failed > 0 {
				fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(fmt.Sprintf("%d facet(s) on %s still fail validation", failed, path), a.noColor))
			}

			if err := a.codec.Save(ctx, g, file); err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.SceneError(file, err, a.noColor))
				return errFailed
			}
			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Re-resolved %d facet(s) on %s", len(hosts), path), a.noColor)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&noResolve, "no-resolve", false, "Leave the fields empty and skip validation on save")

	return cmd
}
