package normalize

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fundamentals-cli/internal/model"
)

// identifierKeys pass through CleanRow verbatim.
var identifierKeys = map[string]bool{
	"id":          true,
	"company_id":  true,
	"year":        true,
	"fy":          true,
	"fiscal_year": true,
	"period":      true,
}

// Row-level failures reported as Issues.
var (
	ErrNotObject  = eris.New("normalize: row is not an object")
	ErrNoYear     = eris.New("normalize: row has no usable year")
	ErrEmptyNotes = eris.New("normalize: pros and cons are both empty")
)

// CleanRow normalizes one balance sheet, profit-and-loss or cash-flow row.
// Keys are lowercased; when two keys fold together the exact lowercase one is
// kept. "year" goes through ExtractYear, the other identifier keys keep their
// raw value, and every remaining field goes through ToFloat. Absent values are
// stored as nil.
func CleanRow(raw map[string]any) model.Row {
	row := make(model.Row, len(raw))
	for key, v := range lowerKeys(raw) {
		switch {
		case key == "year":
			if y, ok := ExtractYear(v); ok {
				row[key] = y
			} else {
				row[key] = nil
			}
		case identifierKeys[key]:
			row[key] = v
		default:
			if f, ok := ToFloat(v); ok {
				row[key] = f
			} else {
				row[key] = nil
			}
		}
	}
	return row
}

// rowFloat returns a cleaned numeric field.
func rowFloat(row model.Row, key string) *float64 {
	f, ok := row[key].(float64)
	if !ok {
		return nil
	}
	return &f
}

// rowYear returns the cleaned year if it is within the year column range.
func rowYear(row model.Row) (int, error) {
	y, ok := row["year"].(int)
	if !ok || !ValidYear(y) {
		return 0, ErrNoYear
	}
	return y, nil
}

func balanceSheetFrom(row model.Row) (model.BalanceSheet, error) {
	year, err := rowYear(row)
	if err != nil {
		return model.BalanceSheet{}, err
	}
	return model.BalanceSheet{
		ID:               textPtr(row["id"]),
		CompanyID:        companyOf(row),
		Year:             year,
		EquityCapital:    rowFloat(row, "equity_capital"),
		Reserves:         rowFloat(row, "reserves"),
		Borrowings:       rowFloat(row, "borrowings"),
		OtherLiabilities: rowFloat(row, "other_liabilities"),
		TotalLiabilities: rowFloat(row, "total_liabilities"),
		FixedAssets:      rowFloat(row, "fixed_assets"),
		CWIP:             rowFloat(row, "cwip"),
		Investments:      rowFloat(row, "investments"),
		OtherAsset:       rowFloat(row, "other_asset"),
		TotalAssets:      rowFloat(row, "total_assets"),
	}, nil
}

func profitAndLossFrom(row model.Row) (model.ProfitAndLoss, error) {
	year, err := rowYear(row)
	if err != nil {
		return model.ProfitAndLoss{}, err
	}
	return model.ProfitAndLoss{
		ID:              textPtr(row["id"]),
		CompanyID:       companyOf(row),
		Year:            year,
		Sales:           rowFloat(row, "sales"),
		Expenses:        rowFloat(row, "expenses"),
		OperatingProfit: rowFloat(row, "operating_profit"),
		OPMPercentage:   rowFloat(row, "opm_percentage"),
		OtherIncome:     rowFloat(row, "other_income"),
		Interest:        rowFloat(row, "interest"),
		Depreciation:    rowFloat(row, "depreciation"),
		ProfitBeforeTax: rowFloat(row, "profit_before_tax"),
		TaxPercentage:   rowFloat(row, "tax_percentage"),
		NetProfit:       rowFloat(row, "net_profit"),
		EPS:             rowFloat(row, "eps"),
		DividendPayout:  rowFloat(row, "dividend_payout"),
	}, nil
}

func cashFlowFrom(row model.Row) (model.CashFlow, error) {
	year, err := rowYear(row)
	if err != nil {
		return model.CashFlow{}, err
	}
	return model.CashFlow{
		ID:                textPtr(row["id"]),
		CompanyID:         companyOf(row),
		Year:              year,
		OperatingActivity: rowFloat(row, "operating_activity"),
		InvestingActivity: rowFloat(row, "investing_activity"),
		FinancingActivity: rowFloat(row, "financing_activity"),
		NetCashFlow:       rowFloat(row, "net_cash_flow"),
	}, nil
}

// documentFrom builds a Document from a raw row. Document years are plain
// integers (a JSON number or an all-digit string), never scanned out of text.
func documentFrom(raw map[string]any) (model.Document, error) {
	fields := lowerKeys(raw)

	year, ok := plainYear(fields["year"])
	if !ok || !ValidYear(year) {
		return model.Document{}, ErrNoYear
	}
	return model.Document{
		ID:           textPtr(fields["id"]),
		CompanyID:    companyOf(fields),
		Year:         year,
		AnnualReport: textPtr(fields["annual_report"]),
	}, nil
}

func plainYear(v any) (int, bool) {
	s, ok := v.(string)
	if !ok {
		return ExtractYear(v)
	}
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return y, true
}

func companyOf(row map[string]any) string {
	s, _ := textOf(row["company_id"])
	return s
}

func lowerKeys(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	from := make(map[string]string, len(raw))
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if prev, taken := from[key]; taken && !keyWins(k, prev, key) {
			continue
		}
		out[key] = v
		from[key] = k
	}
	return out
}

// keyWins reports whether raw key k replaces prev when both fold to key.
// The exact spelling wins, then the lexically smaller raw key.
func keyWins(k, prev, key string) bool {
	if (k == key) != (prev == key) {
		return k == key
	}
	return k < prev
}
