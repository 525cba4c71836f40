package commands

import (
	"errors"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/refwire/refwire/internal/cli/ui"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "refwire",
		Short: "Resolve and validate facet references in scene files",
		Long: color.CyanString(`refwire - declarative reference wiring for scene graphs

Facet fields declare where their references live: on the same node, above it,
below it, or anywhere in the scene. refwire fills those fields from the tree
and reports every reference that is missing or points to the wrong place.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("dir", "", "Directory holding refwire.yaml (default: nearest parent with one)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewCleanCommand())
	rootCmd.AddCommand(NewWatchCommand())
	rootCmd.AddCommand(NewKindsCommand())
	rootCmd.AddCommand(NewHistoryCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the refwire version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			noColor, _ := cmd.Flags().GetBool("no-color")
			table := ui.NewKeyValueTable(cmd.OutOrStdout(), noColor)
			table.AddRow("refwire version", Version)
			table.AddRow("Git commit", GitCommit)
			table.AddRow("Build date", BuildDate)
			table.AddRow("Go version", goVer)
			table.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		// failures were already printed in detail
		if !errors.Is(err, errFailed) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
