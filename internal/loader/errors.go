package loader

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrOwnerMismatch marks a child row whose company_id differs from the
// company being loaded.
var ErrOwnerMismatch = eris.New("loader: row belongs to another company")

// ParentWriteError aborts a company's load. The transaction is rolled back
// and nothing for the company is persisted.
type ParentWriteError struct {
	CompanyID string
	Op        string // validate, begin, insert company, savepoint, commit
	Err       error
}

func (e *ParentWriteError) Error() string {
	return fmt.Sprintf("loader: %s for company %q: %v", e.Op, e.CompanyID, e.Err)
}

func (e *ParentWriteError) Unwrap() error { return e.Err }

// RowWriteError is a single child row that was skipped. The company's
// transaction continues.
type RowWriteError struct {
	Table string
	// Index is the row's position in its payload section, counted the same
	// way as normalize.Issue.Index.
	Index int
	Err   error
}

func (e *RowWriteError) Error() string {
	return fmt.Sprintf("loader: %s row %d: %v", e.Table, e.Index, e.Err)
}

func (e *RowWriteError) Unwrap() error { return e.Err }
