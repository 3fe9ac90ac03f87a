package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/username/stockscope/backend/src/logger"
	"github.com/username/stockscope/backend/src/model"
	"github.com/username/stockscope/backend/src/models"
)

type reportServiceImpl struct {
	marketData   MarketDataService
	db           *sql.DB
	historyYears int
}

func NewReportService(marketData MarketDataService, db *sql.DB, historyYears int) ReportService {
	return &reportServiceImpl{
		marketData:   marketData,
		db:           db,
		historyYears: historyYears,
	}
}

// BuildReport assembles a SymbolReport for one ticker. Provider failures
// degrade to null fields rather than failing the build; only a blank symbol
// or a report with no data at all is an error to the caller.
func (s *reportServiceImpl) BuildReport(ctx context.Context, symbol string) (*models.SymbolReport, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrSymbolRequired
	}

	snapshot, err := s.marketData.Lookup(ctx, symbol)
	if err != nil {
		logger.L.Warn("Provider lookup failed, continuing with empty data", "symbol", symbol, "error", err)
		snapshot = &models.ProviderSnapshot{}
	}
	info := snapshot.Info

	companyName := firstNonEmpty(info.ShortName, info.LongName, info.Symbol, symbol)

	report := &models.SymbolReport{
		Symbol:      symbol,
		CompanyName: companyName,
		MarketCap:   info.MarketCap,
		PERatio:     firstNonNil(info.TrailingPE, info.ForwardPE),
		Sector:      info.Sector,
	}

	// primary path: the annual statement
	report.RevenueHistory = ExtractRevenueHistory(snapshot.Financials, s.historyYears)
	if len(report.RevenueHistory) > 0 {
		report.Revenue = report.RevenueHistory[len(report.RevenueHistory)-1].Revenue
	}
	if row, ok := FindRow(snapshot.Financials, netIncomeRowCandidates); ok && len(row.Values) > 0 {
		report.NetIncome = row.Values[len(row.Values)-1]
	}

	// fallback path: last row of the earnings history, consulted only for
	// fields the statement could not fill
	if (report.Revenue == nil || report.NetIncome == nil) && len(snapshot.Earnings) > 0 {
		last := snapshot.Earnings[len(snapshot.Earnings)-1]
		if report.Revenue == nil {
			report.Revenue = last.Revenue
		}
		if report.NetIncome == nil {
			report.NetIncome = last.Earnings
		}
	}

	if info.Website != nil && *info.Website != "" {
		report.LatestAnnualReportLink = *info.Website
	} else {
		// point at the EDGAR full-text search so the user can find 10-Ks
		report.LatestAnnualReportLink = fmt.Sprintf("https://www.sec.gov/edgar/search/#/q=%s", symbol)
	}

	report.RawInfo = map[string]any{
		"longBusinessSummary": derefOrNil(info.LongBusinessSummary),
		"website":             derefOrNil(info.Website),
		"exchange":            derefOrNil(info.Exchange),
		"fullTimeEmployees":   derefInt64OrNil(info.FullTimeEmployees),
	}

	// best-effort persistence; a store failure must not fail the request
	if err := model.InsertSearch(s.db, symbol, companyName, report); err != nil {
		logger.L.Warn("Failed to save search record", "symbol", symbol, "error", err)
	}

	if report.IsEmpty() {
		return nil, fmt.Errorf("%w '%s'", ErrSymbolNotFound, symbol)
	}

	return report, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonNil(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func derefOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func derefInt64OrNil(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}
