package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// TableSpec describes an insert-or-ignore target.
type TableSpec struct {
	Table        string   // target table (e.g., "balancesheet")
	Columns      []string // columns in value order
	ConflictKeys []string // columns forming the natural key
}

// InsertSQL builds a parameterized INSERT ... ON CONFLICT (keys) DO NOTHING.
func InsertSQL(spec TableSpec) (string, error) {
	if len(spec.Columns) == 0 {
		return "", eris.Errorf("db: insert %s: no columns specified", spec.Table)
	}
	if len(spec.ConflictKeys) == 0 {
		return "", eris.Errorf("db: insert %s: no conflict keys specified", spec.Table)
	}

	placeholders := make([]string, len(spec.Columns))
	for i := range spec.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING",
		sanitizeTable(spec.Table),
		quoteAndJoin(spec.Columns),
		strings.Join(placeholders, ", "),
		quoteAndJoin(spec.ConflictKeys),
	), nil
}

// InsertIgnore writes one row and leaves any existing row with the same
// natural key untouched. It reports whether a row was inserted.
func InsertIgnore(ctx context.Context, q Execer, spec TableSpec, values []any) (bool, error) {
	if len(values) != len(spec.Columns) {
		return false, eris.Errorf("db: insert %s: %d values for %d columns", spec.Table, len(values), len(spec.Columns))
	}

	sql, err := InsertSQL(spec)
	if err != nil {
		return false, err
	}

	tag, err := q.Exec(ctx, sql, values...)
	if err != nil {
		return false, eris.Wrapf(err, "db: insert %s", spec.Table)
	}
	return tag.RowsAffected() > 0, nil
}

// sanitizeTable handles schema-qualified table names like "public.companies".
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
