package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/refwire/refwire/internal/cli/ui"
)

// NewKindsCommand creates the kinds command
func NewKindsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the facet kinds scene files may use",
		Long: `List every facet kind known to refwire together with its declared reference fields.
Each field shows its target type and relation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			table := ui.NewTable(cmd.OutOrStdout(), a.noColor, "KIND", "FIELDS", "REFERENCES")
			for _, name := range a.kinds.Names() {
				t, _ := a.kinds.TypeOf(name)
				fields := a.registry.Scan(t)
				refs := make([]string, 0, len(fields))
				for _, d := range fields {
					refs = append(refs, fmt.Sprintf("%s %s %s", d.Name, d.TypeLabel(), d.Relation))
				}
				summary := "-"
				if len(refs) > 0 {
					summary = strings.Join(refs, ", ")
				}
				table.AddRow(name, fmt.Sprint(len(fields)), summary)
			}
			table.Render()
			return nil
		},
	}
}
