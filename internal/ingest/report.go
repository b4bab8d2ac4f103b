package ingest

import (
	"fmt"

	"github.com/sells-group/fundamentals-cli/internal/loader"
	"github.com/sells-group/fundamentals-cli/internal/normalize"
)

// SkipReason explains why a company was not loaded.
type SkipReason string

const (
	SkipFetchUnavailable SkipReason = "fetch_unavailable"
	SkipShapeError       SkipReason = "shape_error"
	SkipParentWrite      SkipReason = "parent_write_error"
)

// CompanyReport is the outcome for one company id.
type CompanyReport struct {
	CompanyID  string
	Stage      Stage
	SkipReason SkipReason
	Err        error
	Issues     []normalize.Issue // rows dropped during normalization
	Load       *loader.Result
}

func (c *CompanyReport) advance(next Stage) {
	if !c.Stage.CanTransition(next) {
		panic(fmt.Sprintf("ingest: invalid stage transition %s -> %s for %s", c.Stage, next, c.CompanyID))
	}
	c.Stage = next
}

func (c *CompanyReport) skip(reason SkipReason, err error) {
	c.advance(StageSkipped)
	c.SkipReason = reason
	c.Err = err
}

// RowSkips counts rows left out of the database for this company, whether
// dropped by normalization or rejected by the loader.
func (c *CompanyReport) RowSkips() int {
	n := len(c.Issues)
	if c.Load != nil {
		n += len(c.Load.RowErrors)
	}
	return n
}

// Report aggregates a batch run.
type Report struct {
	Attempted       int                `json:"attempted"`
	Loaded          int                `json:"loaded"`            // loaded with no skipped rows
	LoadedWithSkips int                `json:"loaded_with_skips"` // loaded, some rows skipped
	Skipped         map[SkipReason]int `json:"skipped"`
	RowErrors       int                `json:"row_errors"` // rows skipped across loaded companies
	Companies       []CompanyReport    `json:"-"`
}

func newReport() *Report {
	return &Report{Skipped: make(map[SkipReason]int)}
}

// SkippedTotal returns the number of companies skipped for any reason.
func (r *Report) SkippedTotal() int {
	n := 0
	for _, v := range r.Skipped {
		n += v
	}
	return n
}

func (r *Report) record(c CompanyReport) {
	r.Attempted++
	switch {
	case c.Stage == StageSkipped:
		r.Skipped[c.SkipReason]++
	case c.RowSkips() > 0:
		r.LoadedWithSkips++
		r.RowErrors += c.RowSkips()
	default:
		r.Loaded++
	}
	r.Companies = append(r.Companies, c)
}
