package db

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var balanceSheet = TableSpec{
	Table:        "balancesheet",
	Columns:      []string{"id", "company_id", "year", "reserves"},
	ConflictKeys: []string{"company_id", "year"},
}

func TestInsertSQL(t *testing.T) {
	sql, err := InsertSQL(balanceSheet)
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "balancesheet" ("id", "company_id", "year", "reserves") VALUES ($1, $2, $3, $4) ON CONFLICT ("company_id", "year") DO NOTHING`,
		sql,
	)
}

func TestInsertSQL_NoColumns(t *testing.T) {
	_, err := InsertSQL(TableSpec{Table: "companies", ConflictKeys: []string{"company_id"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestInsertSQL_NoConflictKeys(t *testing.T) {
	_, err := InsertSQL(TableSpec{Table: "companies", Columns: []string{"company_id"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestInsertIgnore_Inserted(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	sql, _ := InsertSQL(balanceSheet)
	mock.ExpectExec(regexp.QuoteMeta(sql)).
		WithArgs("bs-1", "TCS", 2023, 12345.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := InsertIgnore(context.Background(), mock, balanceSheet, []any{"bs-1", "TCS", 2023, 12345.0})
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIgnore_Conflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO "balancesheet"`).
		WithArgs("bs-1", "TCS", 2023, 12345.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := InsertIgnore(context.Background(), mock, balanceSheet, []any{"bs-1", "TCS", 2023, 12345.0})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIgnore_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO "balancesheet"`).
		WithArgs("bs-1", "TCS", 2023, 12345.0).
		WillReturnError(fmt.Errorf("value out of range"))

	_, err = InsertIgnore(context.Background(), mock, balanceSheet, []any{"bs-1", "TCS", 2023, 12345.0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: insert balancesheet")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIgnore_ValueCountMismatch(t *testing.T) {
	_, err := InsertIgnore(context.Background(), nil, balanceSheet, []any{"TCS"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 values for 4 columns")
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"public.companies", `"public"."companies"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := sanitizeTable(tt.input)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	result := quoteAndJoin([]string{"id", "company_id", "year"})
	assert.Equal(t, `"id", "company_id", "year"`, result)
}
