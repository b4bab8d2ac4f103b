package normalize

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sells-group/fundamentals-cli/internal/model"
)

// KeySynthesisError reports an analysis row that has no provider id and no
// company_id/period pair to build one from. Such rows are never written.
type KeySynthesisError struct {
	CompanyID string
	Period    string
}

func (e *KeySynthesisError) Error() string {
	return fmt.Sprintf("normalize: cannot synthesize analysis key (company_id=%q, period=%q)", e.CompanyID, e.Period)
}

// periodSources are the analysis fields a period label is read from, in order.
var periodSources = []string{
	"compounded_sales_growth",
	"compounded_profit_growth",
	"stock_price_cagr",
	"roe",
}

// AnalysisKey returns the row identifier: the provider id when present,
// otherwise "{company_id}_{period}" with spaces in the period replaced by
// underscores. ok is false when neither source is available.
func AnalysisKey(providedID any, companyID, period string) (string, bool) {
	if id, ok := textOf(providedID); ok {
		return id, true
	}
	if companyID == "" || period == "" {
		return "", false
	}
	return companyID + "_" + strings.ReplaceAll(period, " ", "_"), true
}

// CleanAnalysis builds one Analysis record per keyed input row. Rows whose
// key cannot be derived are dropped and reported as Issues carrying a
// KeySynthesisError. Records and Issues are indexed by position in rows.
func CleanAnalysis(rows []map[string]any) ([]model.Analysis, []Issue) {
	var out []model.Analysis
	var issues []Issue

	for i, raw := range rows {
		r := lowerKeys(raw)
		companyID := companyOf(r)

		var period string
		for _, field := range periodSources {
			if p, ok := ExtractPeriod(r[field]); ok {
				period = p
				break
			}
		}

		id, ok := AnalysisKey(r["id"], companyID, period)
		if !ok {
			issues = append(issues, Issue{
				Section: model.TableAnalysis,
				Index:   i,
				Err:     &KeySynthesisError{CompanyID: companyID, Period: period},
			})
			continue
		}

		a := model.Analysis{
			Origin:       model.Origin{SourceIndex: i},
			ID:           id,
			CompanyID:    companyID,
			SalesGrowth:  floatPtr(r["compounded_sales_growth"]),
			ProfitGrowth: floatPtr(r["compounded_profit_growth"]),
			ROE:          floatPtr(r["roe"]),
			StockCAGR:    floatPtr(r["stock_price_cagr"]),
		}
		if period != "" {
			a.Period = &period
		}
		out = append(out, a)
	}

	return out, issues
}

// prosAndConsSpace namespaces the deterministic ids of unkeyed pros/cons rows.
var prosAndConsSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("fundamentals-cli/prosandcons"))

// prosAndConsFrom builds a ProsAndCons record. Rows without a provider id get
// a UUIDv5 of their content so re-ingestion maps to the same key.
func prosAndConsFrom(raw map[string]any) (model.ProsAndCons, error) {
	r := lowerKeys(raw)
	p := model.ProsAndCons{
		CompanyID: companyOf(r),
		Pros:      textPtr(r["pros"]),
		Cons:      textPtr(r["cons"]),
	}
	if p.Pros == nil && p.Cons == nil {
		return model.ProsAndCons{}, ErrEmptyNotes
	}

	if id, ok := textOf(r["id"]); ok {
		p.ID = id
		return p, nil
	}

	var pros, cons string
	if p.Pros != nil {
		pros = *p.Pros
	}
	if p.Cons != nil {
		cons = *p.Cons
	}
	p.ID = uuid.NewSHA1(prosAndConsSpace, []byte(p.CompanyID+"\x00"+pros+"\x00"+cons)).String()
	return p, nil
}
