package ingest

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fundamentals-cli/internal/db"
)

// Run statuses in ingest_log.
const (
	RunRunning  = "running"
	RunComplete = "complete"
	RunFailed   = "failed"
)

// RunEntry represents a row in ingest_log.
type RunEntry struct {
	ID              int64          `json:"id"`
	Mode            string         `json:"mode"`
	Status          string         `json:"status"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	Attempted       int            `json:"attempted"`
	Loaded          int            `json:"loaded"`
	LoadedWithSkips int            `json:"loaded_with_skips"`
	Skipped         int            `json:"skipped"`
	RowErrors       int            `json:"row_errors"`
	Error           string         `json:"error,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// RunLog provides read/write access to the ingest_log table.
type RunLog struct {
	pool db.Pool
}

// NewRunLog creates a RunLog backed by the given connection pool.
func NewRunLog(pool db.Pool) *RunLog {
	return &RunLog{pool: pool}
}

// Start records the beginning of a batch run and returns its ID.
func (l *RunLog) Start(ctx context.Context, mode string) (int64, error) {
	var id int64
	err := l.pool.QueryRow(ctx,
		`INSERT INTO ingest_log (mode, status, started_at)
		 VALUES ($1, 'running', now()) RETURNING id`,
		mode,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "runlog: start %s run", mode)
	}
	return id, nil
}

// Complete marks a run as finished and stores its counts.
func (l *RunLog) Complete(ctx context.Context, runID int64, report *Report) error {
	return l.finish(ctx, runID, RunComplete, nil, report)
}

// Fail marks a run as aborted. Counts reached before the failure are kept.
func (l *RunLog) Fail(ctx context.Context, runID int64, errMsg string, report *Report) error {
	return l.finish(ctx, runID, RunFailed, &errMsg, report)
}

func (l *RunLog) finish(ctx context.Context, runID int64, status string, errMsg *string, report *Report) error {
	if report == nil {
		report = newReport()
	}
	metaJSON, err := json.Marshal(map[string]any{"skipped": report.Skipped})
	if err != nil {
		return eris.Wrap(err, "runlog: marshal metadata")
	}

	_, err = l.pool.Exec(ctx,
		`UPDATE ingest_log
		 SET status = $1, completed_at = now(), attempted = $2, loaded = $3,
		     loaded_with_skips = $4, skipped = $5, row_errors = $6, error = $7, metadata = $8
		 WHERE id = $9`,
		status, report.Attempted, report.Loaded, report.LoadedWithSkips,
		report.SkippedTotal(), report.RowErrors, errMsg, metaJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: %s run %d", status, runID)
	}
	return nil
}

// Recent returns up to limit runs, most recent first.
func (l *RunLog) Recent(ctx context.Context, limit int) ([]RunEntry, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, mode, status, started_at, completed_at, attempted, loaded,
		        loaded_with_skips, skipped, row_errors, error, metadata
		 FROM ingest_log ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list recent")
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var errStr *string
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.Mode, &e.Status, &e.StartedAt, &e.CompletedAt,
			&e.Attempted, &e.Loaded, &e.LoadedWithSkips, &e.Skipped, &e.RowErrors,
			&errStr, &metaJSON); err != nil {
			return nil, eris.Wrap(err, "runlog: scan entry")
		}
		if errStr != nil {
			e.Error = *errStr
		}
		if metaJSON != nil {
			_ = json.Unmarshal(metaJSON, &e.Metadata)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
