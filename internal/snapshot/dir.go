package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// DirStore keeps the latest payload per company as {dir}/{stem}.json. The
// stem is the id itself when it is filename-safe. Other ids get SafeID(id)
// plus "~" and a digest of the raw id, with the raw id kept in {stem}.id.
type DirStore struct {
	dir string
}

// NewDir creates dir if needed and returns a store rooted there.
func NewDir(dir string) (*DirStore, error) {
	if dir == "" {
		return nil, eris.New("snapshot: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "snapshot: create %s", dir)
	}
	return &DirStore{dir: dir}, nil
}

const (
	hashSep  = "~"
	idSuffix = ".id"
)

// stem returns the file name stem for id and whether it carries a digest.
func stem(id string) (string, bool, error) {
	safe := SafeID(id)
	if safe == "" {
		return "", false, eris.Errorf("snapshot: unusable company id %q", id)
	}
	if safe == id {
		return id, false, nil
	}
	sum := sha256.Sum256([]byte(id))
	return safe + hashSep + hex.EncodeToString(sum[:])[:12], true, nil
}

func (s *DirStore) path(id string) (string, error) {
	st, _, err := stem(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, st+".json"), nil
}

// Save overwrites the company's snapshot file.
func (s *DirStore) Save(_ context.Context, id string, body []byte) error {
	st, hashed, err := stem(id)
	if err != nil {
		return err
	}
	if hashed {
		idPath := filepath.Join(s.dir, st+idSuffix)
		if err := os.WriteFile(idPath, []byte(id), 0o644); err != nil {
			return eris.Wrapf(err, "snapshot: write %s", idPath)
		}
	}
	p := filepath.Join(s.dir, st+".json")
	if err := os.WriteFile(p, body, 0o644); err != nil {
		return eris.Wrapf(err, "snapshot: write %s", p)
	}
	return nil
}

// CompanyIDs lists the stored company ids in sorted order. Digest-named
// files report the raw id recorded next to them.
func (s *DirStore) CompanyIDs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: list %s", s.dir)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		st := strings.TrimSuffix(e.Name(), ".json")
		if !strings.Contains(st, hashSep) {
			ids = append(ids, st)
			continue
		}
		idPath := filepath.Join(s.dir, st+idSuffix)
		raw, err := os.ReadFile(idPath)
		if err != nil {
			return nil, eris.Wrapf(err, "snapshot: read id for %s", e.Name())
		}
		ids = append(ids, string(raw))
	}
	sort.Strings(ids)
	return ids, nil
}

// FetchCompany reads the stored payload.
func (s *DirStore) FetchCompany(_ context.Context, id string) ([]byte, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	body, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrapf(ErrNotFound, "company %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: read %s", p)
	}
	return body, nil
}

// Close is a no-op.
func (s *DirStore) Close() error { return nil }
