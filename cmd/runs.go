package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fundamentals-cli/internal/ingest"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ingest and replay runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("runs"); err != nil {
			return err
		}
		ctx := cmd.Context()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := ingest.NewRunLog(pool).Recent(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs")
		}

		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunEntries(cmd.OutOrStdout(), entries)
		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "max number of runs to display")
	rootCmd.AddCommand(runsCmd)
}

// formatRunEntries writes a tabular list of runs to w.
func formatRunEntries(out io.Writer, entries []ingest.RunEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tMODE\tSTATUS\tSTARTED\tDURATION\tATTEMPTED\tLOADED\tWITH_SKIPS\tSKIPPED\tROW_ERRORS\tERROR")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-------\t--------\t---------\t------\t----------\t-------\t----------\t-----")

	for _, e := range entries {
		dur := "-"
		if e.CompletedAt != nil {
			dur = e.CompletedAt.Sub(e.StartedAt).Round(time.Second).String()
		}

		msg := truncate(e.Error, 40)

		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			e.ID,
			e.Mode,
			e.Status,
			e.StartedAt.Format("2006-01-02 15:04"),
			dur,
			e.Attempted,
			e.Loaded,
			e.LoadedWithSkips,
			e.Skipped,
			e.RowErrors,
			msg,
		)
	}
	_ = w.Flush()
}

// truncate shortens s to at most n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
