// Package snapshot persists raw provider payloads for audit and replay.
package snapshot

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// Drivers accepted by Open.
const (
	DriverDir    = "dir"
	DriverSQLite = "sqlite"
	DriverNone   = "none"
)

// ErrNotFound is returned when no snapshot exists for a company.
var ErrNotFound = eris.New("snapshot: not found")

// Store saves raw payloads and serves them back as a replay source.
type Store interface {
	Save(ctx context.Context, id string, body []byte) error
	CompanyIDs(ctx context.Context) ([]string, error)
	FetchCompany(ctx context.Context, id string) ([]byte, error)
	Close() error
}

// Open returns the store for driver. DriverNone yields a nil Store.
func Open(driver, dir, dsn string) (Store, error) {
	switch driver {
	case DriverDir, "":
		return NewDir(dir)
	case DriverSQLite:
		return NewSQLite(dsn)
	case DriverNone:
		return nil, nil
	default:
		return nil, eris.Errorf("snapshot: unknown driver %q", driver)
	}
}

// SafeID keeps only letters, digits, '_' and '-' so an id can name a file.
func SafeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, id)
}
