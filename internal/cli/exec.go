package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlward/sqlward/pkg/engine"
)

// NewExecCommand creates the exec command, running one or more raw SQL
// statements as a single transaction batch through the coordinator.
func NewExecCommand() *cobra.Command {
	var (
		commit               bool
		keepGoing            bool
		allowImplicitCommits bool
	)

	cmd := &cobra.Command{
		Use:   "exec <statement> [statement...]",
		Short: "Run statements as one transaction batch",
		Long: `Run SQL statements sequentially inside one transaction.

The batch is speculative by default: it rolls back at the end unless
--commit is given. Statements that would implicitly commit the transaction
(DDL, administrative statements, ...) are rejected unless
--allow-implicit-commits is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := eng.ExecuteBatch(cmd.Context(), args, engine.BatchOptions{
				Commit:               commit,
				RollbackOnFailure:    !keepGoing,
				AllowImplicitCommits: allowImplicitCommits,
			})
			for _, res := range results {
				switch {
				case res.Err != nil:
					fmt.Fprintf(cmd.OutOrStdout(), "-- %s\nerror: %v\n", res.SQL, res.Err)
				case len(res.Rows) > 0:
					fmt.Fprintf(cmd.OutOrStdout(), "-- %s\n", res.SQL)
					renderRows(cmd.OutOrStdout(), res.Rows)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "-- %s\n%d row(s) affected\n", res.SQL, res.RowCount)
				}
				if res.ImplicitCommit {
					fmt.Fprintf(cmd.OutOrStdout(), "warning: statement implicitly committed the transaction\n")
				}
			}
			if err != nil {
				return err
			}
			if !commit {
				fmt.Fprintln(cmd.OutOrStdout(), "batch rolled back (use --commit to persist)")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&commit, "commit", false, "commit the batch at the end")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue past statement failures instead of rolling back")
	cmd.Flags().BoolVar(&allowImplicitCommits, "allow-implicit-commits", false, "permit statements that implicitly commit")

	return cmd
}
