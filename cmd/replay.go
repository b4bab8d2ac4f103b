package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fundamentals-cli/internal/ingest"
	"github.com/sells-group/fundamentals-cli/internal/loader"
	"github.com/sells-group/fundamentals-cli/internal/snapshot"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Reload stored snapshots without calling the provider",
	Long:  "Runs every stored raw payload back through validation, normalization and loading. No pacing is applied and nothing new is snapshotted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("replay"); err != nil {
			return err
		}
		ids, _ := cmd.Flags().GetStringSlice("ids")
		debugDir, _ := cmd.Flags().GetString("debug-dir")
		if debugDir == "" {
			debugDir = cfg.Ingest.DebugDir
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := snapshot.Open(cfg.Snapshot.Driver, cfg.Snapshot.Dir, cfg.Snapshot.DSN)
		if err != nil {
			return eris.Wrap(err, "replay: open snapshot store")
		}
		defer store.Close() //nolint:errcheck

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		engine := ingest.NewEngine(store, loader.New(pool), nil, ingest.Options{
			Mode:     "replay",
			IDs:      ids,
			DebugDir: debugDir,
		}).WithRunLog(ingest.NewRunLog(pool))

		return finishRun(ctx, cmd.OutOrStdout(), engine)
	},
}

func init() {
	replayCmd.Flags().StringSlice("ids", nil, "replay only these company ids (comma-separated)")
	replayCmd.Flags().String("debug-dir", "", "write normalized bundles to this directory")
	rootCmd.AddCommand(replayCmd)
}
