package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// SavepointError reports a failed savepoint control statement. The enclosing
// transaction is no longer usable when one is returned.
type SavepointError struct {
	Op   string // "savepoint", "rollback" or "release"
	Name string
	Err  error
}

func (e *SavepointError) Error() string {
	return e.Err.Error()
}

func (e *SavepointError) Unwrap() error { return e.Err }

// WithSavepoint runs fn inside a named savepoint on tx. When fn fails the
// savepoint is rolled back and fn's error is returned, leaving the rest of
// the transaction intact. Failures of the savepoint statements themselves
// are returned as *SavepointError.
func WithSavepoint(ctx context.Context, tx Execer, name string, fn func() error) error {
	ident := pgx.Identifier{name}.Sanitize()

	if _, err := tx.Exec(ctx, "SAVEPOINT "+ident); err != nil {
		return &SavepointError{Op: "savepoint", Name: name, Err: eris.Wrapf(err, "db: savepoint %s", name)}
	}

	if err := fn(); err != nil {
		if _, rbErr := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+ident); rbErr != nil {
			return &SavepointError{Op: "rollback", Name: name, Err: eris.Wrapf(rbErr, "db: rollback to savepoint %s", name)}
		}
		return err
	}

	if _, err := tx.Exec(ctx, "RELEASE SAVEPOINT "+ident); err != nil {
		return &SavepointError{Op: "release", Name: name, Err: eris.Wrapf(err, "db: release savepoint %s", name)}
	}
	return nil
}
