package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ledger/internal/database"
	"ledger/internal/store"
)

// unlockCmd removes stale advisory locks.
var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Remove stale book locks",
	Long: `Remove every advisory lock row from the store. Use this only when the
process that held the lock is known to be gone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConfig, err := database.NewConfig(cfg)
		if err != nil {
			return err
		}
		dbManager, err := database.NewManager(dbConfig)
		if err != nil {
			return err
		}
		defer dbManager.Close()

		n, err := store.New(dbManager.DB()).ClearLocks(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d lock(s)\n", n)
		return nil
	},
}
