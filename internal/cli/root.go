// Package cli defines and implements the commands of the cdcetl executable.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cdcetl/internal/config"
	"cdcetl/internal/logging"
)

var (
	cfgFile string
	cfg     config.Config
)

// loadConfig is a test hook that points to config.Load by default.
var loadConfig = config.Load

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cdcetl",
		Short: "ETL and analysis CLI for the CDC COVID-19 case surveillance data",
		Long: `cdcetl fetches COVID-19 case surveillance data from the CDC open-data
API in chunks, cleans it, and loads it into a relational database. Loaded
data can then be summarized with the canned query commands.`,
		SilenceUsage: true,

		// Config and logging are set up before any subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
			if err := logging.Init(cfg.Logging.Development); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			return nil
		},

		PersistentPostRun: func(*cobra.Command, []string) {
			logging.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "config.ini", "path to the INI configuration file")

	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newQueryCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		logging.L.Error("command failed", zap.Error(err))
		logging.Sync()
		os.Exit(1)
	}
}
