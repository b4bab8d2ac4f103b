package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fundamentals-cli/internal/model"
)

// DumpCleaned writes a normalized bundle to
// {dir}/{safe_id}_{YYYYMMDD_HHMMSS}.json and returns the file path.
func DumpCleaned(dir, id string, b *model.Bundle, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "snapshot: create %s", dir)
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", eris.Wrapf(err, "snapshot: marshal bundle for %s", id)
	}

	name := fmt.Sprintf("%s_%s.json", SafeID(id), now.Format("20060102_150405"))
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "snapshot: write %s", p)
	}
	return p, nil
}
