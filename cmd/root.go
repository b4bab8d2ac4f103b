package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/config"
)

var cfg *config.Config

const rootLong = `Fetches per-company fundamentals from the provider API, validates and
normalizes them, and loads them into Postgres.

With no subcommand, fundamentals runs "ingest" over every company the
provider lists, using the configured delay. Use "fundamentals ingest" to
pass --ids, --delay or --debug-dir.`

var rootCmd = &cobra.Command{
	Use:   "fundamentals",
	Short: "Financial fundamentals ingestion pipeline (runs ingest by default)",
	Long:  rootLong,
	Example: `  fundamentals
  fundamentals ingest --ids TCS,INFY --delay 2s
  fundamentals replay --ids TCS
  fundamentals runs --limit 5`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, ingestFlags{})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
