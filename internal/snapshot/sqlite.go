package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore appends every payload to a snapshots table, keeping history.
// Reads return the most recent payload per company.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	company_id TEXT NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now')),
	body       BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_company ON snapshots(company_id, id);
`

// NewSQLite opens (and migrates) a SQLite database at dsn in WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "snapshot: exec %s", pragma)
		}
	}
	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "snapshot: migrate sqlite")
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Save appends a snapshot row.
func (s *SQLiteStore) Save(ctx context.Context, id string, body []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (company_id, fetched_at, body) VALUES (?, ?, ?)`,
		id, s.now().UTC(), body,
	)
	if err != nil {
		return eris.Wrapf(err, "snapshot: insert %s", id)
	}
	return nil
}

// CompanyIDs lists every company with at least one snapshot, sorted.
func (s *SQLiteStore) CompanyIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT company_id FROM snapshots ORDER BY company_id`)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: list company ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "snapshot: scan company id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FetchCompany returns the latest payload for id.
func (s *SQLiteStore) FetchCompany(ctx context.Context, id string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM snapshots WHERE company_id = ? ORDER BY id DESC LIMIT 1`,
		id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "company %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: fetch %s", id)
	}
	return body, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
