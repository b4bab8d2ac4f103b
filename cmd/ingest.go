package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fundamentals-cli/internal/ingest"
	"github.com/sells-group/fundamentals-cli/internal/loader"
	"github.com/sells-group/fundamentals-cli/internal/snapshot"
	"github.com/sells-group/fundamentals-cli/pkg/screener"
)

// ingestFlags carries command-line overrides. Zero values defer to cfg.
type ingestFlags struct {
	ids      []string
	delay    *time.Duration
	debugDir string
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch every company from the provider and load it",
	Long:  "Enumerates company ids from the provider (or uses --ids), then fetches, validates, normalizes and loads each company in order, pausing between fetches.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var flags ingestFlags
		flags.ids, _ = cmd.Flags().GetStringSlice("ids")
		flags.debugDir, _ = cmd.Flags().GetString("debug-dir")
		if cmd.Flags().Changed("delay") {
			d, _ := cmd.Flags().GetDuration("delay")
			flags.delay = &d
		}
		return runIngest(cmd, flags)
	},
}

func init() {
	ingestCmd.Flags().StringSlice("ids", nil, "ingest only these company ids (comma-separated)")
	ingestCmd.Flags().Duration("delay", 0, "pause between fetches (overrides ingest.delay)")
	ingestCmd.Flags().String("debug-dir", "", "write normalized bundles to this directory")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, flags ingestFlags) error {
	if flags.delay != nil {
		cfg.Ingest.Delay = *flags.delay
	}
	if flags.debugDir != "" {
		cfg.Ingest.DebugDir = flags.debugDir
	}
	if err := cfg.Validate("ingest"); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := snapshot.Open(cfg.Snapshot.Driver, cfg.Snapshot.Dir, cfg.Snapshot.DSN)
	if err != nil {
		return eris.Wrap(err, "ingest: open snapshot store")
	}
	var sink ingest.Sink
	if store != nil {
		defer store.Close() //nolint:errcheck
		sink = store
	}

	client := screener.NewClient(
		screener.WithBaseURL(cfg.Provider.BaseURL),
		screener.WithAPIKey(cfg.Provider.APIKey),
		screener.WithUserAgent(cfg.Provider.UserAgent),
		screener.WithTimeout(time.Duration(cfg.Provider.TimeoutSecs)*time.Second),
		screener.WithRetries(cfg.Provider.MaxRetries, 500*time.Millisecond),
		screener.WithPaths(cfg.Provider.IDsPath, cfg.Provider.CompanyPath),
	)

	engine := ingest.NewEngine(client, loader.New(pool), sink, ingest.Options{
		Mode:     "ingest",
		Delay:    cfg.Ingest.Delay,
		IDs:      flags.ids,
		DebugDir: cfg.Ingest.DebugDir,
	}).WithRunLog(ingest.NewRunLog(pool))

	return finishRun(ctx, cmd.OutOrStdout(), engine)
}

// finishRun executes a run and prints its summary. Companies skipped along
// the way do not fail the command.
func finishRun(ctx context.Context, out io.Writer, engine *ingest.Engine) error {
	report, err := engine.Run(ctx)
	if report != nil {
		formatReport(out, report)
	}
	return err
}

// formatReport writes a run summary to w.
func formatReport(out io.Writer, r *ingest.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Attempted:\t%d\n", r.Attempted)
	_, _ = fmt.Fprintf(w, "Loaded:\t%d\n", r.Loaded)
	_, _ = fmt.Fprintf(w, "Loaded with skips:\t%d\n", r.LoadedWithSkips)
	_, _ = fmt.Fprintf(w, "Skipped:\t%d\n", r.SkippedTotal())

	reasons := make([]string, 0, len(r.Skipped))
	for reason := range r.Skipped {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", reason, r.Skipped[ingest.SkipReason(reason)])
	}

	_, _ = fmt.Fprintf(w, "Row errors:\t%d\n", r.RowErrors)
	_ = w.Flush()
}
