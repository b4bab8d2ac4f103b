// Package ingest drives the fetch, validate, normalize and load pipeline over
// every company id and owns the schema migrations it depends on.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/fundamentals-cli/internal/loader"
	"github.com/sells-group/fundamentals-cli/internal/model"
	"github.com/sells-group/fundamentals-cli/internal/normalize"
	"github.com/sells-group/fundamentals-cli/internal/snapshot"
	"github.com/sells-group/fundamentals-cli/internal/validate"
)

// ErrFetchUnavailable marks a company the source returned nothing for.
var ErrFetchUnavailable = eris.New("ingest: fetch unavailable")

// Source enumerates company ids and returns raw payloads.
type Source interface {
	CompanyIDs(ctx context.Context) ([]string, error)
	FetchCompany(ctx context.Context, id string) ([]byte, error)
}

// Sink persists raw payloads before they are validated.
type Sink interface {
	Save(ctx context.Context, id string, body []byte) error
}

// Writer loads one normalized company.
type Writer interface {
	Load(ctx context.Context, b *model.Bundle) (*loader.Result, error)
}

// RunRecorder records batch runs. *RunLog implements it.
type RunRecorder interface {
	Start(ctx context.Context, mode string) (int64, error)
	Complete(ctx context.Context, runID int64, report *Report) error
	Fail(ctx context.Context, runID int64, errMsg string, report *Report) error
}

// Options configures a run.
type Options struct {
	Mode     string        // recorded in ingest_log ("ingest" or "replay")
	Delay    time.Duration // minimum spacing between fetches; 0 disables pacing
	IDs      []string      // process only these ids instead of enumerating
	DebugDir string        // write normalized bundles here when set
}

// Engine runs the pipeline sequentially, one company at a time.
type Engine struct {
	src     Source
	writer  Writer
	sink    Sink
	runs    RunRecorder
	opts    Options
	limiter *rate.Limiter
	now     func() time.Time
}

// NewEngine creates an engine. sink may be nil.
func NewEngine(src Source, w Writer, sink Sink, opts Options) *Engine {
	if opts.Mode == "" {
		opts.Mode = "ingest"
	}
	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}
	return &Engine{
		src:     src,
		writer:  w,
		sink:    sink,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

// WithRunLog records each run through r.
func (e *Engine) WithRunLog(r RunRecorder) *Engine {
	e.runs = r
	return e
}

// Run processes every company id in enumeration order.
//
// Per-company failures are recorded in the report and never stop the batch.
// An error is returned only when the run cannot start (enumeration or run log
// failure) or ctx is cancelled, in which case the partial report is returned
// with the cancellation error.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	log := zap.L().With(zap.String("component", "ingest.engine"), zap.String("mode", e.opts.Mode))
	report := newReport()

	ids := e.opts.IDs
	if len(ids) == 0 {
		var err error
		ids, err = e.src.CompanyIDs(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "ingest: enumerate company ids")
		}
	}
	log.Info("starting run", zap.Int("companies", len(ids)))

	var runID int64
	if e.runs != nil {
		var err error
		runID, err = e.runs.Start(ctx, e.opts.Mode)
		if err != nil {
			return nil, eris.Wrap(err, "ingest: start run log")
		}
	}

	for _, id := range ids {
		if err := e.limiter.Wait(ctx); err != nil {
			return e.interrupted(ctx, runID, report, err, log)
		}

		report.record(e.processCompany(ctx, id, log.With(zap.String("company_id", id))))
	}

	log.Info("run complete",
		zap.Int("attempted", report.Attempted),
		zap.Int("loaded", report.Loaded),
		zap.Int("loaded_with_skips", report.LoadedWithSkips),
		zap.Int("skipped", report.SkippedTotal()),
		zap.Int("row_errors", report.RowErrors),
	)

	if e.runs != nil {
		if err := e.runs.Complete(ctx, runID, report); err != nil {
			log.Error("failed to record run completion", zap.Error(err))
		}
	}
	return report, nil
}

// interrupted closes out a run stopped by cancellation or deadline. The run
// log is written with a context that outlives ctx.
func (e *Engine) interrupted(ctx context.Context, runID int64, report *Report, cause error, log *zap.Logger) (*Report, error) {
	log.Warn("run interrupted",
		zap.Int("attempted", report.Attempted),
		zap.Error(cause),
	)
	if e.runs != nil {
		if err := e.runs.Fail(context.WithoutCancel(ctx), runID, cause.Error(), report); err != nil {
			log.Error("failed to record run failure", zap.Error(err))
		}
	}
	return report, cause
}

// processCompany moves one company through the pipeline and returns where it
// ended up.
func (e *Engine) processCompany(ctx context.Context, id string, log *zap.Logger) CompanyReport {
	c := CompanyReport{CompanyID: id}

	body, err := e.src.FetchCompany(ctx, id)
	if err == nil && len(body) == 0 {
		err = ErrFetchUnavailable
	}
	if err != nil {
		if !errors.Is(err, ErrFetchUnavailable) {
			err = eris.Wrapf(ErrFetchUnavailable, "%s: %v", id, err)
		}
		c.skip(SkipFetchUnavailable, err)
		log.Warn("company skipped", zap.String("reason", string(SkipFetchUnavailable)), zap.Error(err))
		return c
	}
	c.advance(StageFetched)

	if e.sink != nil {
		if err := e.sink.Save(ctx, id, body); err != nil {
			log.Warn("snapshot save failed", zap.Error(err))
		}
	}

	payload, err := validate.Parse(body)
	if err != nil {
		c.skip(SkipShapeError, err)
		log.Warn("company skipped", zap.String("reason", string(SkipShapeError)), zap.Error(err))
		return c
	}
	c.advance(StageValidated)

	bundle, issues, err := normalize.BuildBundle(payload)
	if err != nil {
		c.skip(SkipShapeError, err)
		log.Warn("company skipped", zap.String("reason", string(SkipShapeError)), zap.Error(err))
		return c
	}
	c.Issues = issues
	logIssues(log, issues)
	c.advance(StageNormalized)

	if e.opts.DebugDir != "" {
		if path, err := snapshot.DumpCleaned(e.opts.DebugDir, id, bundle, e.now()); err != nil {
			log.Warn("debug dump failed", zap.Error(err))
		} else {
			log.Debug("debug dump written", zap.String("path", path))
		}
	}

	res, err := e.writer.Load(ctx, bundle)
	c.Load = res
	if err != nil {
		c.skip(SkipParentWrite, err)
		log.Warn("company skipped", zap.String("reason", string(SkipParentWrite)), zap.Error(err))
		return c
	}
	c.advance(StageLoaded)

	log.Info("company loaded",
		zap.String("outcome", string(res.Outcome)),
		zap.Bool("company_inserted", res.CompanyInserted),
		zap.Int("rows", bundle.RowCount()),
		zap.Int("row_skips", c.RowSkips()),
	)
	return c
}

func logIssues(log *zap.Logger, issues []normalize.Issue) {
	for _, is := range issues {
		var kse *normalize.KeySynthesisError
		if errors.As(is.Err, &kse) {
			log.Warn("analysis row dropped: no key could be synthesized",
				zap.String("table", is.Section),
				zap.Int("row", is.Index),
				zap.String("period", kse.Period),
				zap.Error(is.Err),
			)
			continue
		}
		log.Warn("row skipped",
			zap.String("table", is.Section),
			zap.Int("row", is.Index),
			zap.Error(is.Err),
		)
	}
}
