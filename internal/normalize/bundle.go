package normalize

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fundamentals-cli/internal/model"
)

// Issue is a row dropped during normalization. Dropped rows never reach the
// loader.
type Issue struct {
	Section string
	Index   int
	Err     error
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s[%d]: %v", i.Section, i.Index, i.Err)
}

func (i Issue) Unwrap() error { return i.Err }

// ErrNoCompanyID is returned by BuildBundle when the company block carries no
// usable identifier.
var ErrNoCompanyID = eris.New("normalize: company has no id")

// CompanyFrom maps the payload's company block onto the companies row.
// The identifier is read from "id" and falls back to "company_id".
func CompanyFrom(raw map[string]any) (model.Company, error) {
	r := lowerKeys(raw)
	id, ok := textOf(r["id"])
	if !ok {
		id, ok = textOf(r["company_id"])
	}
	if !ok {
		return model.Company{}, ErrNoCompanyID
	}
	return model.Company{
		CompanyID:  id,
		Logo:       textPtr(r["company_logo"]),
		Name:       textPtr(r["company_name"]),
		ChartLink:  textPtr(r["chart_link"]),
		About:      textPtr(r["about_company"]),
		Website:    textPtr(r["website"]),
		NSEProfile: textPtr(r["nse_profile"]),
		BSEProfile: textPtr(r["bse_profile"]),
		FaceValue:  floatPtr(r["face_value"]),
		BookValue:  floatPtr(r["book_value"]),
		ROCE:       floatPtr(r["roce_percentage"]),
		ROE:        floatPtr(r["roe_percentage"]),
	}, nil
}

// BuildBundle normalizes every section of a validated payload into the
// company's write set. Child rows without a company_id inherit the parent's.
// Rows that cannot be normalized are returned as Issues and left out of the
// bundle. The error is non-nil only when the company itself is unusable.
func BuildBundle(p *model.Payload) (*model.Bundle, []Issue, error) {
	company, err := CompanyFrom(p.Company)
	if err != nil {
		return nil, nil, err
	}

	b := &model.Bundle{Company: company}
	var issues []Issue

	analysisRows, bad := objects(model.TableAnalysis, p.Data.Analysis, company.CompanyID)
	issues = append(issues, bad...)
	analysis, dropped := CleanAnalysis(rowsOf(analysisRows))
	for _, is := range dropped {
		is.Index = analysisRows[is.Index].index
		issues = append(issues, is)
	}
	for i := range analysis {
		analysis[i].SourceIndex = analysisRows[analysis[i].SourceIndex].index
	}
	b.Analysis = analysis

	rows, bad := objects(model.TableProsAndCons, p.Data.ProsAndCons, company.CompanyID)
	issues = append(issues, bad...)
	for _, r := range rows {
		pc, err := prosAndConsFrom(r.fields)
		if err != nil {
			issues = append(issues, Issue{Section: model.TableProsAndCons, Index: r.index, Err: err})
			continue
		}
		pc.SourceIndex = r.index
		b.ProsAndCons = append(b.ProsAndCons, pc)
	}

	rows, bad = objects(model.TableBalanceSheet, p.Data.BalanceSheet, company.CompanyID)
	issues = append(issues, bad...)
	for _, r := range rows {
		bs, err := balanceSheetFrom(CleanRow(r.fields))
		if err != nil {
			issues = append(issues, Issue{Section: model.TableBalanceSheet, Index: r.index, Err: err})
			continue
		}
		bs.SourceIndex = r.index
		b.BalanceSheet = append(b.BalanceSheet, bs)
	}

	rows, bad = objects(model.TableProfitAndLoss, p.Data.ProfitAndLoss, company.CompanyID)
	issues = append(issues, bad...)
	for _, r := range rows {
		pl, err := profitAndLossFrom(CleanRow(r.fields))
		if err != nil {
			issues = append(issues, Issue{Section: model.TableProfitAndLoss, Index: r.index, Err: err})
			continue
		}
		pl.SourceIndex = r.index
		b.ProfitAndLoss = append(b.ProfitAndLoss, pl)
	}

	rows, bad = objects(model.TableCashFlow, p.Data.CashFlow, company.CompanyID)
	issues = append(issues, bad...)
	for _, r := range rows {
		cf, err := cashFlowFrom(CleanRow(r.fields))
		if err != nil {
			issues = append(issues, Issue{Section: model.TableCashFlow, Index: r.index, Err: err})
			continue
		}
		cf.SourceIndex = r.index
		b.CashFlow = append(b.CashFlow, cf)
	}

	rows, bad = objects(model.TableDocuments, p.Data.Documents, company.CompanyID)
	issues = append(issues, bad...)
	for _, r := range rows {
		d, err := documentFrom(r.fields)
		if err != nil {
			issues = append(issues, Issue{Section: model.TableDocuments, Index: r.index, Err: err})
			continue
		}
		d.SourceIndex = r.index
		b.Documents = append(b.Documents, d)
	}

	return b, issues, nil
}

type indexedRow struct {
	index  int
	fields map[string]any
}

// objects keeps the mapping rows of a section, copying each so the payload
// is left untouched, and fills in a missing company_id with the parent's.
func objects(section string, raw []any, companyID string) ([]indexedRow, []Issue) {
	var rows []indexedRow
	var issues []Issue
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			issues = append(issues, Issue{Section: section, Index: i, Err: ErrNotObject})
			continue
		}
		fields := make(map[string]any, len(m)+1)
		for k, v := range m {
			fields[k] = v
		}
		if companyOf(lowerKeys(fields)) == "" {
			for k := range fields {
				if strings.EqualFold(strings.TrimSpace(k), "company_id") {
					delete(fields, k)
				}
			}
			fields["company_id"] = companyID
		}
		rows = append(rows, indexedRow{index: i, fields: fields})
	}
	return rows, issues
}

func rowsOf(rows []indexedRow) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = r.fields
	}
	return out
}
