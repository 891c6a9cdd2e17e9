package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ledger/internal/app"
	"ledger/internal/logger"
	"ledger/internal/services"
)

var pricesStart string

// pricesCmd groups price maintenance commands.
var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Maintain the price database",
}

// pricesUpdateCmd fetches missing quotes for every quoted commodity.
var pricesUpdateCmd = &cobra.Command{
	Use:   "update [MNEMONIC...]",
	Short: "Fetch missing prices from the market-data provider",
	Long: `Fetch daily quotes for every commodity flagged for quoting, or only the
given mnemonics, and record the dates not yet covered.

Example:
  ledger prices update
  ledger prices update AAPL --start 2024-01-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var start time.Time
		if pricesStart != "" {
			var err error
			start, err = time.Parse(time.DateOnly, pricesStart)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
		}
		wanted := make(map[string]bool, len(args))
		for _, m := range args {
			wanted[m] = true
		}

		return withBook(cmd.Context(), false, func(a *app.App) error {
			log := logger.Named("prices")
			svc := services.NewLedgerService(a.Book, a.Store, a.Provider())
			def, err := a.Book.DefaultCurrency()
			if err != nil {
				return err
			}

			failed := 0
			for _, c := range a.Book.Commodities() {
				if len(wanted) > 0 && !wanted[c.Mnemonic] {
					continue
				}
				if !c.QuoteFlag || c.ID == def.ID {
					continue
				}
				added, err := svc.RefreshPrices(cmd.Context(), c.ID, start)
				if err != nil {
					failed++
					log.Warnw("Price update failed", "commodity", c.Key(), "error", err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %d new price(s)\n", c.Key(), added)
			}
			if failed > 0 {
				return fmt.Errorf("%d commodity price update(s) failed", failed)
			}
			return nil
		})
	},
}

func init() {
	pricesUpdateCmd.Flags().StringVar(&pricesStart, "start", "", "first date to fetch, YYYY-MM-DD (default: one week ago)")
	pricesCmd.AddCommand(pricesUpdateCmd)
}
