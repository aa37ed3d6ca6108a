// Package cli implements the hookgate command line: the HTTP server plus
// operational commands against the configured store.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mahmoodhamdi/hookgate/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "hookgate",
	Short: "Payment webhook idempotency gate",
	Long: `hookgate receives Stripe, Paymob, PayTabs and Paddle callbacks, verifies
their signatures and records each (gateway, event id) pair exactly once.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newRecentCmd())
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
