package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ledger/internal/app"
)

var (
	initCurrency string
	initTrading  bool
)

// initCmd creates a new book in an empty store.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new book",
	Long: `Create a new book with a root account and a default currency in the
configured store. The store must not already contain a book.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *cfg
		c.ReadOnly = false
		if initCurrency != "" {
			c.DefaultCurrency = initCurrency
		}
		if cmd.Flags().Changed("trading-accounts") {
			c.UseTradingAccounts = initTrading
		}

		a, err := app.Open(cmd.Context(), &c, true)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		fmt.Fprintf(cmd.OutOrStdout(), "Created book %s (default currency %s)\n", a.Book.ID(), c.DefaultCurrency)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initCurrency, "currency", "", "ISO 4217 default currency (default from DEFAULT_CURRENCY)")
	initCmd.Flags().BoolVar(&initTrading, "trading-accounts", false, "balance multi-commodity transactions through trading accounts")
}
