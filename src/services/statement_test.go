package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/stockscope/backend/src/models"
)

func floatPtr(v float64) *float64 { return &v }

func statementWithRows(periods []string, rows ...models.StatementRow) *models.FinancialStatement {
	return &models.FinancialStatement{Periods: periods, Rows: rows}
}

func TestFindRowNilStatement(t *testing.T) {
	_, ok := FindRow(nil, revenueRowCandidates)
	assert.False(t, ok)
}

func TestFindRowEmptyStatement(t *testing.T) {
	_, ok := FindRow(&models.FinancialStatement{}, revenueRowCandidates)
	assert.False(t, ok)
}

func TestFindRowNoMatch(t *testing.T) {
	stmt := statementWithRows([]string{"2023-12-31"},
		models.StatementRow{Label: "Cost Of Goods Sold", Values: []*float64{floatPtr(10)}},
		models.StatementRow{Label: "Gross Profit", Values: []*float64{floatPtr(20)}},
	)
	_, ok := FindRow(stmt, revenueRowCandidates)
	assert.False(t, ok)
}

func TestFindRowCaseInsensitiveSubstring(t *testing.T) {
	stmt := statementWithRows([]string{"2023-12-31"},
		models.StatementRow{Label: "TOTAL REVENUE", Values: []*float64{floatPtr(100)}},
	)
	row, ok := FindRow(stmt, revenueRowCandidates)
	require.True(t, ok)
	assert.Equal(t, "TOTAL REVENUE", row.Label)
}

func TestFindRowEarlierCandidateWinsOverDocumentOrder(t *testing.T) {
	// "Operating Revenue" appears first and matches the later candidate
	// "revenue", but "Total Revenue" matches the first candidate and must win.
	stmt := statementWithRows([]string{"2023-12-31"},
		models.StatementRow{Label: "Operating Revenue", Values: []*float64{floatPtr(1)}},
		models.StatementRow{Label: "Total Revenue", Values: []*float64{floatPtr(2)}},
	)
	row, ok := FindRow(stmt, revenueRowCandidates)
	require.True(t, ok)
	assert.Equal(t, "Total Revenue", row.Label)
}

func TestFindRowDocumentOrderBreaksTiesWithinCandidate(t *testing.T) {
	stmt := statementWithRows([]string{"2023-12-31"},
		models.StatementRow{Label: "Total Revenue From Operations", Values: []*float64{floatPtr(1)}},
		models.StatementRow{Label: "Total Revenue", Values: []*float64{floatPtr(2)}},
	)
	row, ok := FindRow(stmt, revenueRowCandidates)
	require.True(t, ok)
	assert.Equal(t, "Total Revenue From Operations", row.Label)
}

func TestExtractRevenueHistoryNoRevenueRow(t *testing.T) {
	stmt := statementWithRows([]string{"2023-12-31"},
		models.StatementRow{Label: "Gross Profit", Values: []*float64{floatPtr(20)}},
	)
	assert.Empty(t, ExtractRevenueHistory(stmt, 5))
}

func TestExtractRevenueHistoryChronological(t *testing.T) {
	stmt := statementWithRows(
		[]string{"2021-12-31", "2022-12-31", "2023-12-31"},
		models.StatementRow{Label: "Total Revenue", Values: []*float64{floatPtr(100), floatPtr(150), floatPtr(200)}},
	)

	history := ExtractRevenueHistory(stmt, 5)
	require.Len(t, history, 3)
	assert.Equal(t, 2021, history[0].Year)
	assert.Equal(t, 100.0, *history[0].Revenue)
	assert.Equal(t, 2022, history[1].Year)
	assert.Equal(t, 150.0, *history[1].Revenue)
	assert.Equal(t, 2023, history[2].Year)
	assert.Equal(t, 200.0, *history[2].Revenue)
}

func TestExtractRevenueHistoryKeepsMostRecentN(t *testing.T) {
	stmt := statementWithRows(
		[]string{"2018-12-31", "2019-12-31", "2020-12-31", "2021-12-31", "2022-12-31", "2023-12-31"},
		models.StatementRow{Label: "Total Revenue", Values: []*float64{
			floatPtr(1), floatPtr(2), floatPtr(3), floatPtr(4), floatPtr(5), floatPtr(6),
		}},
	)

	history := ExtractRevenueHistory(stmt, 3)
	require.Len(t, history, 3)
	assert.Equal(t, 2021, history[0].Year)
	assert.Equal(t, 2022, history[1].Year)
	assert.Equal(t, 2023, history[2].Year)
}

// Column order is trusted as received from the provider. When columns arrive
// out of chronological order, the tail of the column order decides which
// periods count as "recent" — this pins that known fidelity risk.
func TestExtractRevenueHistoryTrustsColumnOrder(t *testing.T) {
	stmt := statementWithRows(
		[]string{"2023-12-31", "2021-12-31", "2022-12-31"},
		models.StatementRow{Label: "Total Revenue", Values: []*float64{floatPtr(300), floatPtr(100), floatPtr(200)}},
	)

	history := ExtractRevenueHistory(stmt, 2)
	require.Len(t, history, 2)
	// 2023 is dropped even though it is the true latest year
	assert.Equal(t, 2021, history[0].Year)
	assert.Equal(t, 2022, history[1].Year)
}

func TestExtractRevenueHistoryMissingValues(t *testing.T) {
	stmt := statementWithRows(
		[]string{"2022-12-31", "2023-12-31"},
		models.StatementRow{Label: "Total Revenue", Values: []*float64{nil, floatPtr(200)}},
	)

	history := ExtractRevenueHistory(stmt, 5)
	require.Len(t, history, 2)
	assert.Nil(t, history[0].Revenue)
	assert.Equal(t, 200.0, *history[1].Revenue)
}

func TestPeriodYearDerivation(t *testing.T) {
	assert.Equal(t, 2022, periodYear("2022-12-31"))
	assert.Equal(t, 2022, periodYear("2022"))
	// non-numeric prefixes fall back to the raw label, never an error
	assert.Equal(t, "FY22", periodYear("FY22"))
	assert.Equal(t, "Q4", periodYear("Q4"))
}
