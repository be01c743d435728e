package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sqlward/sqlward/pkg/schema"
)

// NewDescribeCommand creates the describe command, printing a table's
// columns, types, generated-column markers and primary key.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Show columns and key of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			name := args[0]
			if !eng.IsValidSchema(name, "") {
				return &schema.InvalidTableError{Table: name}
			}
			primaryKey, err := eng.Schema().PrimaryKey(cmd.Context(), name)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Column", "Type", "Generated", "Key"})
			for _, col := range eng.Schema().Columns(name) {
				key := ""
				if col == primaryKey {
					key = "PRIMARY"
				}
				t.AppendRow(table.Row{col, eng.Schema().ColumnType(name, col), eng.Schema().IsGeneratedColumn(name, col), key})
			}
			t.Render()

			if triggers := eng.Schema().Triggers(name); len(triggers) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Triggers: %v\n", triggers)
			}
			return nil
		},
	}
}
