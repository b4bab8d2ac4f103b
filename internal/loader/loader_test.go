package loader

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/fundamentals-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func ptr[T any](v T) *T { return &v }

func tcsBundle() *model.Bundle {
	return &model.Bundle{
		Company: model.Company{CompanyID: "TCS", Name: ptr("Tata Consultancy Services")},
		Analysis: []model.Analysis{
			{ID: "TCS_10_Years", CompanyID: "TCS", Period: ptr("10 Years"), SalesGrowth: ptr(18.0)},
		},
		BalanceSheet: []model.BalanceSheet{
			{CompanyID: "TCS", Year: 2023, Reserves: ptr(12345.0)},
		},
	}
}

// anyArgs matches n placeholder values without checking them.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func expectCompany(mock pgxmock.PgxPoolIface, affected int64) {
	mock.ExpectExec(`INSERT INTO "companies"`).
		WithArgs(anyArgs(len(model.CompanyColumns))...).
		WillReturnResult(pgxmock.NewResult("INSERT", affected))
}

func expectRow(mock pgxmock.PgxPoolIface, table string, args []any, affected int64) {
	mock.ExpectExec(`SAVEPOINT "child_row"`).WillReturnResult(pgxmock.NewResult("SAVEPOINT", 0))
	mock.ExpectExec(`INSERT INTO "` + table + `"`).WithArgs(args...).WillReturnResult(pgxmock.NewResult("INSERT", affected))
	mock.ExpectExec(`RELEASE SAVEPOINT "child_row"`).WillReturnResult(pgxmock.NewResult("RELEASE", 0))
}

func expectFailedRow(mock pgxmock.PgxPoolIface, table string, args []any, err error) {
	mock.ExpectExec(`SAVEPOINT "child_row"`).WillReturnResult(pgxmock.NewResult("SAVEPOINT", 0))
	mock.ExpectExec(`INSERT INTO "` + table + `"`).WithArgs(args...).WillReturnError(err)
	mock.ExpectExec(`ROLLBACK TO SAVEPOINT "child_row"`).WillReturnResult(pgxmock.NewResult("ROLLBACK", 0))
}

// tcsAnalysisArgs and tcsBalanceSheetArgs are the exact values tcsBundle
// writes, in column order.
func tcsAnalysisArgs() []any {
	var none *float64
	return []any{"TCS_10_Years", "TCS", ptr("10 Years"), ptr(18.0), none, none, none}
}

func tcsBalanceSheetArgs() []any {
	var none *float64
	return []any{
		(*string)(nil), "TCS", 2023, none, ptr(12345.0),
		none, none, none, none, none, none, none, none,
	}
}

func TestLoad_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	var noText *string
	var noNum *float64
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "companies"`).
		WithArgs("TCS", noText, ptr("Tata Consultancy Services"), noText,
			noText, noText, noText, noText,
			noNum, noNum, noNum, noNum).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	expectRow(mock, "analysis", tcsAnalysisArgs(), 1)
	expectRow(mock, "balancesheet", tcsBalanceSheetArgs(), 1)
	mock.ExpectCommit()

	res, err := New(mock).Load(context.Background(), tcsBundle())
	require.NoError(t, err)

	assert.Equal(t, OutcomeLoaded, res.Outcome)
	assert.True(t, res.CompanyInserted)
	assert.Equal(t, 1, res.Tables[model.TableAnalysis].Inserted)
	assert.Equal(t, 1, res.Tables[model.TableBalanceSheet].Inserted)
	assert.Equal(t, &TableStats{}, res.Tables[model.TableDocuments])
	assert.Empty(t, res.RowErrors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_ReloadIsNoOp(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Second load of the same payload: every natural key already exists.
	mock.ExpectBegin()
	expectCompany(mock, 0)
	expectRow(mock, "analysis", tcsAnalysisArgs(), 0)
	expectRow(mock, "balancesheet", tcsBalanceSheetArgs(), 0)
	mock.ExpectCommit()

	res, err := New(mock).Load(context.Background(), tcsBundle())
	require.NoError(t, err)

	assert.Equal(t, OutcomeLoaded, res.Outcome)
	assert.False(t, res.CompanyInserted)
	assert.Equal(t, TableStats{Ignored: 1}, *res.Tables[model.TableAnalysis])
	assert.Equal(t, TableStats{Ignored: 1}, *res.Tables[model.TableBalanceSheet])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_ParentFailureWritesNoChildren(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "companies"`).
		WithArgs(anyArgs(len(model.CompanyColumns))...).
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	res, err := New(mock).Load(context.Background(), tcsBundle())
	require.Error(t, err)

	var pwe *ParentWriteError
	require.ErrorAs(t, err, &pwe)
	assert.Equal(t, "TCS", pwe.CompanyID)
	assert.Equal(t, "insert company", pwe.Op)
	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.Empty(t, res.Tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_BeginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err = New(mock).Load(context.Background(), tcsBundle())
	var pwe *ParentWriteError
	require.ErrorAs(t, err, &pwe)
	assert.Equal(t, "begin", pwe.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_EmptyCompanyID(t *testing.T) {
	res, err := New(nil).Load(context.Background(), &model.Bundle{})
	var pwe *ParentWriteError
	require.ErrorAs(t, err, &pwe)
	assert.Equal(t, "validate", pwe.Op)
	assert.Equal(t, OutcomeAborted, res.Outcome)
}

func TestLoad_OneBadRowInFive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	b := &model.Bundle{Company: model.Company{CompanyID: "TCS"}}
	for year := 2019; year <= 2023; year++ {
		b.BalanceSheet = append(b.BalanceSheet, model.BalanceSheet{
			Origin:    model.Origin{SourceIndex: year - 2019},
			CompanyID: "TCS",
			Year:      year,
			Reserves:  ptr(float64(year)),
		})
	}
	row := func(year int) []any { return b.BalanceSheet[year-2019].Values() }

	mock.ExpectBegin()
	expectCompany(mock, 1)
	expectRow(mock, "balancesheet", row(2019), 1)
	expectRow(mock, "balancesheet", row(2020), 1)
	expectFailedRow(mock, "balancesheet", row(2021), fmt.Errorf("numeric field overflow"))
	expectRow(mock, "balancesheet", row(2022), 1)
	expectRow(mock, "balancesheet", row(2023), 1)
	mock.ExpectCommit()

	res, err := New(mock).Load(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, OutcomeLoadedWithSkips, res.Outcome)
	assert.Equal(t, TableStats{Inserted: 4, Failed: 1}, *res.Tables[model.TableBalanceSheet])
	require.Len(t, res.RowErrors, 1)
	assert.Equal(t, model.TableBalanceSheet, res.RowErrors[0].Table)
	assert.Equal(t, 2, res.RowErrors[0].Index)
	assert.Contains(t, res.RowErrors[0].Error(), "numeric field overflow")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_OwnerMismatchSkipped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	b := &model.Bundle{
		Company:  model.Company{CompanyID: "TCS"},
		CashFlow: []model.CashFlow{
			{Origin: model.Origin{SourceIndex: 1}, CompanyID: "INFY", Year: 2020},
			{Origin: model.Origin{SourceIndex: 3}, CompanyID: "TCS", Year: 2020},
		},
	}

	mock.ExpectBegin()
	expectCompany(mock, 1)
	expectRow(mock, "cashflow", anyArgs(len(model.CashFlowColumns)), 1)
	mock.ExpectCommit()

	res, err := New(mock).Load(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, OutcomeLoadedWithSkips, res.Outcome)
	require.Len(t, res.RowErrors, 1)
	assert.Equal(t, 1, res.RowErrors[0].Index, "index points into the payload section")
	assert.ErrorIs(t, res.RowErrors[0], ErrOwnerMismatch)
	assert.Equal(t, TableStats{Inserted: 1, Failed: 1}, *res.Tables[model.TableCashFlow])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_SavepointFailureAborts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	expectCompany(mock, 1)
	mock.ExpectExec(`SAVEPOINT "child_row"`).WillReturnError(fmt.Errorf("current transaction is aborted"))
	mock.ExpectRollback()

	res, err := New(mock).Load(context.Background(), tcsBundle())
	var pwe *ParentWriteError
	require.ErrorAs(t, err, &pwe)
	assert.Equal(t, "savepoint", pwe.Op)
	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_CommitFailureAborts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	expectCompany(mock, 1)
	mock.ExpectCommit().WillReturnError(fmt.Errorf("serialization failure"))

	res, err := New(mock).Load(context.Background(), &model.Bundle{Company: model.Company{CompanyID: "TCS"}})
	var pwe *ParentWriteError
	require.ErrorAs(t, err, &pwe)
	assert.Equal(t, "commit", pwe.Op)
	assert.Equal(t, OutcomeAborted, res.Outcome)
}
