package model

// Origin records where a child row sat in its payload section. Rows the
// cleaner dropped still count, so the index lines up with the raw input.
type Origin struct {
	SourceIndex int `json:"-"`
}

// Index returns the row's position in its payload section.
func (o Origin) Index() int { return o.SourceIndex }

// Analysis holds growth and return ratios for one period label.
type Analysis struct {
	Origin

	ID           string   `json:"id"`
	CompanyID    string   `json:"company_id"`
	Period       *string  `json:"period"`
	SalesGrowth  *float64 `json:"sales_growth"`
	ProfitGrowth *float64 `json:"profit_growth"`
	ROE          *float64 `json:"roe"`
	StockCAGR    *float64 `json:"stock_cagr"`
}

// AnalysisColumns lists the analysis columns in Values order.
var AnalysisColumns = []string{"id", "company_id", "period", "sales_growth", "profit_growth", "roe", "stock_cagr"}

func (a Analysis) Owner() string { return a.CompanyID }

func (a Analysis) Values() []any {
	return []any{a.ID, a.CompanyID, a.Period, a.SalesGrowth, a.ProfitGrowth, a.ROE, a.StockCAGR}
}

// ProsAndCons holds free-text strengths and weaknesses.
type ProsAndCons struct {
	Origin

	ID        string  `json:"id"`
	CompanyID string  `json:"company_id"`
	Pros      *string `json:"pros"`
	Cons      *string `json:"cons"`
}

// ProsAndConsColumns lists the prosandcons columns in Values order.
var ProsAndConsColumns = []string{"id", "company_id", "pros", "cons"}

func (p ProsAndCons) Owner() string { return p.CompanyID }

func (p ProsAndCons) Values() []any {
	return []any{p.ID, p.CompanyID, p.Pros, p.Cons}
}

// BalanceSheet is one fiscal year of balance sheet figures.
type BalanceSheet struct {
	Origin

	ID               *string  `json:"id"`
	CompanyID        string   `json:"company_id"`
	Year             int      `json:"year"`
	EquityCapital    *float64 `json:"equity_capital"`
	Reserves         *float64 `json:"reserves"`
	Borrowings       *float64 `json:"borrowings"`
	OtherLiabilities *float64 `json:"other_liabilities"`
	TotalLiabilities *float64 `json:"total_liabilities"`
	FixedAssets      *float64 `json:"fixed_assets"`
	CWIP             *float64 `json:"cwip"`
	Investments      *float64 `json:"investments"`
	OtherAsset       *float64 `json:"other_asset"`
	TotalAssets      *float64 `json:"total_assets"`
}

// BalanceSheetColumns lists the balancesheet columns in Values order.
var BalanceSheetColumns = []string{
	"id", "company_id", "year", "equity_capital", "reserves",
	"borrowings", "other_liabilities", "total_liabilities",
	"fixed_assets", "cwip", "investments", "other_asset", "total_assets",
}

func (b BalanceSheet) Owner() string { return b.CompanyID }

func (b BalanceSheet) Values() []any {
	return []any{
		b.ID, b.CompanyID, b.Year, b.EquityCapital, b.Reserves,
		b.Borrowings, b.OtherLiabilities, b.TotalLiabilities,
		b.FixedAssets, b.CWIP, b.Investments, b.OtherAsset, b.TotalAssets,
	}
}

// ProfitAndLoss is one fiscal year of income statement figures.
type ProfitAndLoss struct {
	Origin

	ID              *string  `json:"id"`
	CompanyID       string   `json:"company_id"`
	Year            int      `json:"year"`
	Sales           *float64 `json:"sales"`
	Expenses        *float64 `json:"expenses"`
	OperatingProfit *float64 `json:"operating_profit"`
	OPMPercentage   *float64 `json:"opm_percentage"`
	OtherIncome     *float64 `json:"other_income"`
	Interest        *float64 `json:"interest"`
	Depreciation    *float64 `json:"depreciation"`
	ProfitBeforeTax *float64 `json:"profit_before_tax"`
	TaxPercentage   *float64 `json:"tax_percentage"`
	NetProfit       *float64 `json:"net_profit"`
	EPS             *float64 `json:"eps"`
	DividendPayout  *float64 `json:"dividend_payout"`
}

// ProfitAndLossColumns lists the profitandloss columns in Values order.
var ProfitAndLossColumns = []string{
	"id", "company_id", "year", "sales", "expenses",
	"operating_profit", "opm_percentage", "other_income",
	"interest", "depreciation", "profit_before_tax",
	"tax_percentage", "net_profit", "eps", "dividend_payout",
}

func (p ProfitAndLoss) Owner() string { return p.CompanyID }

func (p ProfitAndLoss) Values() []any {
	return []any{
		p.ID, p.CompanyID, p.Year, p.Sales, p.Expenses,
		p.OperatingProfit, p.OPMPercentage, p.OtherIncome,
		p.Interest, p.Depreciation, p.ProfitBeforeTax,
		p.TaxPercentage, p.NetProfit, p.EPS, p.DividendPayout,
	}
}

// CashFlow is one fiscal year of cash flow figures.
type CashFlow struct {
	Origin

	ID                *string  `json:"id"`
	CompanyID         string   `json:"company_id"`
	Year              int      `json:"year"`
	OperatingActivity *float64 `json:"operating_activity"`
	InvestingActivity *float64 `json:"investing_activity"`
	FinancingActivity *float64 `json:"financing_activity"`
	NetCashFlow       *float64 `json:"net_cash_flow"`
}

// CashFlowColumns lists the cashflow columns in Values order.
var CashFlowColumns = []string{
	"id", "company_id", "year", "operating_activity",
	"investing_activity", "financing_activity", "net_cash_flow",
}

func (c CashFlow) Owner() string { return c.CompanyID }

func (c CashFlow) Values() []any {
	return []any{
		c.ID, c.CompanyID, c.Year, c.OperatingActivity,
		c.InvestingActivity, c.FinancingActivity, c.NetCashFlow,
	}
}

// Document is an annual report link for one year.
type Document struct {
	Origin

	ID           *string `json:"id"`
	CompanyID    string  `json:"company_id"`
	Year         int     `json:"year"`
	AnnualReport *string `json:"annual_report"`
}

// DocumentColumns lists the documents columns in Values order.
var DocumentColumns = []string{"id", "company_id", "year", "annual_report"}

func (d Document) Owner() string { return d.CompanyID }

func (d Document) Values() []any {
	return []any{d.ID, d.CompanyID, d.Year, d.AnnualReport}
}
