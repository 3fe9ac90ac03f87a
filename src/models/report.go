package models

// FinancialStatement is the tabular structure a market-data provider returns
// for a company: named line items as rows, reporting periods as columns.
// It is read-only once received and discarded after one report is built.
type FinancialStatement struct {
	// Periods holds the column labels in provider order (usually fiscal
	// year-end dates like "2023-12-31", but any string is possible).
	Periods []string
	Rows    []StatementRow
}

// StatementRow is a single line item. Values is aligned with the statement's
// Periods slice; a nil entry means the provider had no value for that period.
type StatementRow struct {
	Label  string
	Values []*float64
}

// IsEmpty reports whether the statement has nothing to resolve against.
func (s *FinancialStatement) IsEmpty() bool {
	return s == nil || len(s.Rows) == 0
}

// CompanyInfo is the subset of provider metadata the report builder consumes.
// Every field may be absent.
type CompanyInfo struct {
	Symbol              string
	ShortName           string
	LongName            string
	MarketCap           *float64
	TrailingPE          *float64
	ForwardPE           *float64
	Sector              *string
	Website             *string
	Exchange            *string
	FullTimeEmployees   *int64
	LongBusinessSummary *string
}

// EarningsPeriod is one row of the provider's earnings-history table,
// chronologically ascending. Used only as a fallback when the annual
// statement is missing revenue or net income.
type EarningsPeriod struct {
	Date     string   `json:"date"`
	Revenue  *float64 `json:"revenue"`
	Earnings *float64 `json:"earnings"`
}

// ProviderSnapshot bundles everything one provider lookup yields. Any part
// may be missing; callers must treat nil as "no data".
type ProviderSnapshot struct {
	Info       CompanyInfo
	Financials *FinancialStatement
	Earnings   []EarningsPeriod
}

// RevenuePoint is one year of revenue history. Year is an int when the
// period label could be reduced to a calendar year and the raw label string
// otherwise, matching the JSON contract of the API.
type RevenuePoint struct {
	Year    any      `json:"year"`
	Revenue *float64 `json:"revenue"`
}

// SymbolReport is the flattened output record for one ticker lookup.
// Constructed fresh per request and never mutated afterwards.
type SymbolReport struct {
	Symbol                 string         `json:"symbol"`
	CompanyName            string         `json:"companyName"`
	MarketCap              *float64       `json:"marketCap"`
	Revenue                *float64       `json:"revenue"`
	NetIncome              *float64       `json:"netIncome"`
	PERatio                *float64       `json:"peRatio"`
	Sector                 *string        `json:"sector"`
	LatestAnnualReportLink string         `json:"latestAnnualReportLink"`
	RevenueHistory         []RevenuePoint `json:"revenueHistory"`
	RawInfo                map[string]any `json:"rawInfo"`
}

// IsEmpty reports whether the lookup produced no meaningful data at all.
// The API surfaces such reports as not-found.
func (r *SymbolReport) IsEmpty() bool {
	return r.MarketCap == nil && r.Revenue == nil && r.NetIncome == nil &&
		r.PERatio == nil && r.Sector == nil
}

// SearchRecord is a persisted historical entry capturing one completed lookup.
type SearchRecord struct {
	ID        int64         `json:"id"`
	Symbol    string        `json:"symbol"`
	Company   *string       `json:"company"`
	Report    *SymbolReport `json:"data"`
	Timestamp string        `json:"timestamp"`
}
