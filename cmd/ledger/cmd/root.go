// Package cmd provides the ledger CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ledger/internal/app"
	"ledger/internal/config"
	"ledger/internal/logger"
)

var (
	cfgFile      string
	logLevel     string
	openIfLocked bool

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Manage a double-entry ledger book",
	Long: `ledger operates on a persisted multi-currency double-entry book.

The database is selected through the environment (DB_DRIVER, DB_PATH, ...)
or a YAML file passed with --config.

Example:
  ledger init --currency USD
  ledger check
  ledger prices update
  ledger unlock`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			if err := os.Setenv("LEDGER_CONFIG", cfgFile); err != nil {
				return err
			}
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if openIfLocked {
			cfg.OpenIfLocked = true
		}
		logger.Init(cfg.Env, cfg.LogLevel)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file overriding the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&openIfLocked, "open-if-locked", false, "open the book even if another process holds its lock")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(pricesCmd)
	rootCmd.AddCommand(unlockCmd)
}

// withBook opens the configured book, runs fn and closes the book.
func withBook(ctx context.Context, readOnly bool, fn func(a *app.App) error) error {
	c := *cfg
	c.ReadOnly = readOnly
	a, err := app.Open(ctx, &c, false)
	if err != nil {
		return fmt.Errorf("failed to open book: %w", err)
	}
	defer func() {
		if err := a.Close(ctx); err != nil {
			logger.Get().Errorw("Failed to close book", "error", err)
		}
	}()
	return fn(a)
}
