package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ledger/internal/app"
)

// checkCmd re-validates every stored transaction.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate every transaction in the book",
	Long: `Re-run the commit-time validation rules over every stored transaction
and report each violation. Exits non-zero when any transaction is invalid.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), true, func(a *app.App) error {
			problems := a.Book.Check()
			out := cmd.OutOrStdout()
			for _, p := range problems {
				fmt.Fprintln(out, p)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d invalid transaction(s)", len(problems))
			}
			fmt.Fprintln(out, "Book is consistent")
			return nil
		})
	},
}
