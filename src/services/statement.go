package services

import (
	"strconv"
	"strings"

	"github.com/username/stockscope/backend/src/models"
)

// Row label variants seen across providers for the same line item. Order
// matters: earlier candidates win over later ones regardless of row order.
var (
	revenueRowCandidates   = []string{"total revenue", "totalrevenue", "revenue", "totalrevenues"}
	netIncomeRowCandidates = []string{"net income", "netincome", "net income common", "net_income"}
)

// FindRow locates the statement row whose label contains one of the candidate
// substrings (case-insensitive). Candidates are tried in order of preference;
// within a candidate, the first matching row in statement order wins. Returns
// false when the statement is empty or nothing matches.
func FindRow(stmt *models.FinancialStatement, candidates []string) (*models.StatementRow, bool) {
	if stmt.IsEmpty() {
		return nil, false
	}
	for _, candidate := range candidates {
		candidate = strings.ToLower(candidate)
		for i := range stmt.Rows {
			if strings.Contains(strings.ToLower(stmt.Rows[i].Label), candidate) {
				return &stmt.Rows[i], true
			}
		}
	}
	return nil, false
}

// ExtractRevenueHistory pulls up to `years` of revenue from the statement,
// oldest first. The most recent periods are selected by taking the statement's
// columns in reverse, so when more periods exist than asked for, the tail of
// the column order decides what "recent" means. Column order is trusted as
// received; an out-of-order provider silently skews which years are kept.
func ExtractRevenueHistory(stmt *models.FinancialStatement, years int) []models.RevenuePoint {
	row, ok := FindRow(stmt, revenueRowCandidates)
	if !ok {
		return nil
	}

	var history []models.RevenuePoint
	// walk columns most-recent-first and keep the first `years`
	for i := len(stmt.Periods) - 1; i >= 0 && len(history) < years; i-- {
		var value *float64
		if i < len(row.Values) {
			value = row.Values[i]
		}
		history = append(history, models.RevenuePoint{
			Year:    periodYear(stmt.Periods[i]),
			Revenue: value,
		})
	}

	// back to chronological order (oldest first)
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history
}

// periodYear derives a year label from a period column. Labels like "2022" or
// "2022-12-31" yield the integer 2022; anything else falls back to the raw
// label so the result is always usable, never an error.
func periodYear(label string) any {
	if len(label) >= 4 {
		if year, err := strconv.Atoi(label[:4]); err == nil {
			return year
		}
	}
	return label
}
