// Package model defines the typed records written to the fundamentals schema.
package model

// Table names in the fundamentals schema.
const (
	TableCompanies     = "companies"
	TableAnalysis      = "analysis"
	TableProsAndCons   = "prosandcons"
	TableBalanceSheet  = "balancesheet"
	TableProfitAndLoss = "profitandloss"
	TableCashFlow      = "cashflow"
	TableDocuments     = "documents"
)

// Payload is a provider response that passed shape validation.
// Section rows are left undecoded; normalization decides what each row means.
type Payload struct {
	Company map[string]any
	Data    Sections
}

// Sections holds the raw row sequences of a payload's data block.
type Sections struct {
	Analysis      []any
	ProsAndCons   []any
	BalanceSheet  []any
	ProfitAndLoss []any
	CashFlow      []any
	Documents     []any
}

// Row is a cleaned time-series row keyed by lowercased field name.
// Identifier fields keep their raw value, "year" holds an int or nil,
// and every other field holds a float64 or nil.
type Row map[string]any

// Company is the parent row for every child table.
type Company struct {
	CompanyID  string   `json:"company_id"`
	Logo       *string  `json:"company_logo"`
	Name       *string  `json:"company_name"`
	ChartLink  *string  `json:"chart_link"`
	About      *string  `json:"about_company"`
	Website    *string  `json:"website"`
	NSEProfile *string  `json:"nse_profile"`
	BSEProfile *string  `json:"bse_profile"`
	FaceValue  *float64 `json:"face_value"`
	BookValue  *float64 `json:"book_value"`
	ROCE       *float64 `json:"roce_percentage"`
	ROE        *float64 `json:"roe_percentage"`
}

// CompanyColumns lists the companies columns in Values order.
var CompanyColumns = []string{
	"company_id", "company_logo", "company_name", "chart_link",
	"about_company", "website", "nse_profile", "bse_profile",
	"face_value", "book_value", "roce_percentage", "roe_percentage",
}

// Values returns the column values in CompanyColumns order.
func (c Company) Values() []any {
	return []any{
		c.CompanyID, c.Logo, c.Name, c.ChartLink,
		c.About, c.Website, c.NSEProfile, c.BSEProfile,
		c.FaceValue, c.BookValue, c.ROCE, c.ROE,
	}
}

// Record is implemented by every child-table row.
type Record interface {
	// Owner returns the company_id the row belongs to.
	Owner() string
	// Values returns the column values in the table's column order.
	Values() []any
	// Index returns the row's position in its payload section.
	Index() int
}

// Bundle is one company's normalized write set.
type Bundle struct {
	Company       Company         `json:"company"`
	Analysis      []Analysis      `json:"analysis"`
	ProsAndCons   []ProsAndCons   `json:"prosandcons"`
	BalanceSheet  []BalanceSheet  `json:"balancesheet"`
	ProfitAndLoss []ProfitAndLoss `json:"profitandloss"`
	CashFlow      []CashFlow      `json:"cashflow"`
	Documents     []Document      `json:"documents"`
}

// RowCount returns the number of child rows in the bundle.
func (b *Bundle) RowCount() int {
	return len(b.Analysis) + len(b.ProsAndCons) + len(b.BalanceSheet) +
		len(b.ProfitAndLoss) + len(b.CashFlow) + len(b.Documents)
}
