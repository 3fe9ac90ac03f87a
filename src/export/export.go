// Package export renders a SymbolReport as a downloadable CSV or spreadsheet.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/username/stockscope/backend/src/models"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Format renders the report in the requested kind. Any kind other than
// exactly "csv" is treated as a spreadsheet. Returns the payload bytes, the
// MIME content type, and the suggested download filename.
func Format(report *models.SymbolReport, kind string) ([]byte, string, string, error) {
	if strings.ToLower(kind) == "csv" {
		payload, err := renderCSV(report)
		if err != nil {
			return nil, "", "", err
		}
		return payload, ContentTypeCSV, fmt.Sprintf("%s_financials.csv", report.Symbol), nil
	}

	payload, err := renderXLSX(report)
	if err != nil {
		return nil, "", "", err
	}
	return payload, ContentTypeXLSX, fmt.Sprintf("%s_financials.xlsx", report.Symbol), nil
}

// summaryRows builds the fixed-order key/value table for the summary section.
func summaryRows(report *models.SymbolReport) [][2]string {
	return [][2]string{
		{"Symbol", report.Symbol},
		{"Company", report.CompanyName},
		{"Market Cap", formatFloat(report.MarketCap)},
		{"P/E Ratio", formatFloat(report.PERatio)},
		{"Sector", formatString(report.Sector)},
		{"Latest Annual Report Link", report.LatestAnnualReportLink},
		{"Net Income (Latest)", formatFloat(report.NetIncome)},
		{"Revenue (Latest)", formatFloat(report.Revenue)},
	}
}

// renderCSV writes the summary table, two blank lines, then the
// revenue-history table, all in a single file.
func renderCSV(report *models.SymbolReport) ([]byte, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Metric", "Value"}); err != nil {
		return nil, err
	}
	for _, row := range summaryRows(report) {
		if err := w.Write([]string{row[0], row[1]}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	buf.WriteString("\n\n")

	w = csv.NewWriter(&buf)
	if err := w.Write([]string{"year", "revenue"}); err != nil {
		return nil, err
	}
	for _, point := range report.RevenueHistory {
		if err := w.Write([]string{formatYear(point.Year), formatFloat(point.Revenue)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// renderXLSX writes two named sheets, "Summary" and "RevenueHistory", headers
// included, no index column.
func renderXLSX(report *models.SymbolReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(summarySheet, "A1", &[]any{"Metric", "Value"}); err != nil {
		return nil, err
	}
	for i, row := range summaryRows(report) {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(summarySheet, cell, &[]any{row[0], row[1]}); err != nil {
			return nil, err
		}
	}

	const historySheet = "RevenueHistory"
	if _, err := f.NewSheet(historySheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(historySheet, "A1", &[]any{"year", "revenue"}); err != nil {
		return nil, err
	}
	for i, point := range report.RevenueHistory {
		cell := fmt.Sprintf("A%d", i+2)
		values := []any{point.Year}
		if point.Revenue != nil {
			values = append(values, *point.Revenue)
		} else {
			values = append(values, nil)
		}
		if err := f.SetSheetRow(historySheet, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatYear(year any) string {
	if year == nil {
		return ""
	}
	return fmt.Sprint(year)
}
