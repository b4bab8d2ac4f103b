package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fundamentals-cli/internal/model"
)

func TestDumpCleaned(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debug")
	reserves := 12345.0
	b := &model.Bundle{
		Company:      model.Company{CompanyID: "M&M"},
		BalanceSheet: []model.BalanceSheet{{CompanyID: "M&M", Year: 2023, Reserves: &reserves}},
	}
	now := time.Date(2024, 3, 31, 14, 5, 9, 0, time.UTC)

	p, err := DumpCleaned(dir, "M&M", b, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "MM_20240331_140509.json"), p)

	data, err := os.ReadFile(p)
	require.NoError(t, err)

	var got model.Bundle
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "M&M", got.Company.CompanyID)
	require.Len(t, got.BalanceSheet, 1)
	assert.Equal(t, 2023, got.BalanceSheet[0].Year)
	assert.Equal(t, 12345.0, *got.BalanceSheet[0].Reserves)
}
