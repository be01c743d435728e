package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command, listing the tables of the
// configured database from the engine's schema snapshot.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := eng.Schema().Load(cmd.Context(), false); err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Table", "Columns", "Triggers"})
			for _, name := range eng.Schema().Tables() {
				t.AppendRow(table.Row{name, len(eng.Schema().Columns(name)), len(eng.Schema().Triggers(name))})
			}
			t.Render()
			return nil
		},
	}
}
