// Package loader writes normalized company bundles to Postgres.
package loader

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/db"
	"github.com/sells-group/fundamentals-cli/internal/model"
)

// rowSavepoint names the savepoint wrapped around every child row.
const rowSavepoint = "child_row"

// Outcome summarizes one company's load.
type Outcome string

const (
	OutcomeLoaded          Outcome = "loaded"
	OutcomeLoadedWithSkips Outcome = "loaded_with_skips"
	OutcomeAborted         Outcome = "aborted"
)

// Table specs for every target table. Child tables share one insert routine
// and differ only in name, columns and natural key.
var (
	CompanySpec = db.TableSpec{Table: model.TableCompanies, Columns: model.CompanyColumns, ConflictKeys: []string{"company_id"}}

	AnalysisSpec      = db.TableSpec{Table: model.TableAnalysis, Columns: model.AnalysisColumns, ConflictKeys: []string{"id"}}
	ProsAndConsSpec   = db.TableSpec{Table: model.TableProsAndCons, Columns: model.ProsAndConsColumns, ConflictKeys: []string{"id"}}
	BalanceSheetSpec  = db.TableSpec{Table: model.TableBalanceSheet, Columns: model.BalanceSheetColumns, ConflictKeys: []string{"company_id", "year"}}
	ProfitAndLossSpec = db.TableSpec{Table: model.TableProfitAndLoss, Columns: model.ProfitAndLossColumns, ConflictKeys: []string{"company_id", "year"}}
	CashFlowSpec      = db.TableSpec{Table: model.TableCashFlow, Columns: model.CashFlowColumns, ConflictKeys: []string{"company_id", "year"}}
	DocumentSpec      = db.TableSpec{Table: model.TableDocuments, Columns: model.DocumentColumns, ConflictKeys: []string{"company_id", "year"}}
)

// TableStats counts the rows written to one table.
type TableStats struct {
	Inserted int `json:"inserted"`
	Ignored  int `json:"ignored"` // natural key already present
	Failed   int `json:"failed"`
}

// Result is the outcome of loading one bundle.
type Result struct {
	CompanyID       string                 `json:"company_id"`
	Outcome         Outcome                `json:"outcome"`
	CompanyInserted bool                   `json:"company_inserted"`
	Tables          map[string]*TableStats `json:"tables"`
	RowErrors       []*RowWriteError       `json:"-"`
}

func newResult(companyID string) *Result {
	return &Result{
		CompanyID: companyID,
		Tables:    make(map[string]*TableStats),
	}
}

func (r *Result) stats(table string) *TableStats {
	s, ok := r.Tables[table]
	if !ok {
		s = &TableStats{}
		r.Tables[table] = s
	}
	return s
}

// Loader writes bundles with insert-or-ignore semantics, one transaction per
// company.
type Loader struct {
	pool db.Pool
}

// New creates a Loader backed by pool.
func New(pool db.Pool) *Loader {
	return &Loader{pool: pool}
}

// Load writes one company and its child rows in a single transaction.
//
// The company row is written first. If it or any transaction control
// statement fails, the transaction is rolled back and a *ParentWriteError is
// returned alongside an aborted Result. A failing child row is rolled back to
// its savepoint, recorded as a *RowWriteError, and the load continues.
// Existing rows are never updated or deleted.
func (l *Loader) Load(ctx context.Context, b *model.Bundle) (*Result, error) {
	companyID := b.Company.CompanyID
	log := zap.L().With(zap.String("component", "loader"), zap.String("company_id", companyID))
	res := newResult(companyID)

	abort := func(op string, err error) (*Result, error) {
		res.Outcome = OutcomeAborted
		res.RowErrors = nil
		res.Tables = make(map[string]*TableStats)
		return res, &ParentWriteError{CompanyID: companyID, Op: op, Err: err}
	}

	if companyID == "" {
		return abort("validate", eris.New("loader: empty company_id"))
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return abort("begin", eris.Wrap(err, "loader: begin transaction"))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	inserted, err := db.InsertIgnore(ctx, tx, CompanySpec, b.Company.Values())
	if err != nil {
		return abort("insert company", err)
	}
	res.CompanyInserted = inserted

	children := []struct {
		spec db.TableSpec
		rows []model.Record
	}{
		{AnalysisSpec, records(b.Analysis)},
		{ProsAndConsSpec, records(b.ProsAndCons)},
		{BalanceSheetSpec, records(b.BalanceSheet)},
		{ProfitAndLossSpec, records(b.ProfitAndLoss)},
		{CashFlowSpec, records(b.CashFlow)},
		{DocumentSpec, records(b.Documents)},
	}

	for _, c := range children {
		if err := l.writeRows(ctx, tx, companyID, c.spec, c.rows, res, log); err != nil {
			return abort("savepoint", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return abort("commit", eris.Wrap(err, "loader: commit"))
	}

	res.Outcome = OutcomeLoaded
	if len(res.RowErrors) > 0 {
		res.Outcome = OutcomeLoadedWithSkips
	}
	return res, nil
}

// writeRows inserts each row of one child table inside its own savepoint.
// Only savepoint control failures are returned.
func (l *Loader) writeRows(ctx context.Context, tx db.Execer, companyID string, spec db.TableSpec, rows []model.Record, res *Result, log *zap.Logger) error {
	stats := res.stats(spec.Table)

	for _, row := range rows {
		if row.Owner() != companyID {
			l.skipRow(res, stats, log, &RowWriteError{
				Table: spec.Table,
				Index: row.Index(),
				Err:   eris.Wrapf(ErrOwnerMismatch, "company_id %q", row.Owner()),
			})
			continue
		}

		var inserted bool
		err := db.WithSavepoint(ctx, tx, rowSavepoint, func() error {
			var err error
			inserted, err = db.InsertIgnore(ctx, tx, spec, row.Values())
			return err
		})

		var spErr *db.SavepointError
		switch {
		case errors.As(err, &spErr):
			return err
		case err != nil:
			l.skipRow(res, stats, log, &RowWriteError{Table: spec.Table, Index: row.Index(), Err: err})
		case inserted:
			stats.Inserted++
		default:
			stats.Ignored++
		}
	}
	return nil
}

func (l *Loader) skipRow(res *Result, stats *TableStats, log *zap.Logger, rowErr *RowWriteError) {
	stats.Failed++
	res.RowErrors = append(res.RowErrors, rowErr)
	log.Warn("row skipped",
		zap.String("table", rowErr.Table),
		zap.Int("row", rowErr.Index),
		zap.Error(rowErr.Err),
	)
}

func records[T model.Record](rows []T) []model.Record {
	out := make([]model.Record, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
