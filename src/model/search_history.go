package model

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/username/stockscope/backend/src/logger"
	"github.com/username/stockscope/backend/src/models"
)

// InsertSearch appends one search record to the searches table. The report is
// stored as a JSON blob; sqlite assigns the monotonic id. Rows are never
// updated or deleted, and repeated symbols each get their own row.
func InsertSearch(db *sql.DB, symbol, company string, report *models.SymbolReport) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	dataJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report for %s: %w", symbol, err)
	}
	query := `INSERT INTO searches (symbol, company, data_json, timestamp) VALUES (?, ?, ?, ?)`
	_, err = db.Exec(query, symbol, company, string(dataJSON), time.Now().UTC().Format(time.RFC3339))
	return err
}

// RecentSearches returns up to limit records, most recent first (id
// descending), each with its stored report deserialized. A row whose JSON no
// longer parses comes back with a nil report instead of failing the scan.
func RecentSearches(db *sql.DB, limit int) ([]models.SearchRecord, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	query := `SELECT id, symbol, company, data_json, timestamp FROM searches ORDER BY id DESC LIMIT ?`
	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.SearchRecord{}
	for rows.Next() {
		var record models.SearchRecord
		var company sql.NullString
		var dataJSON sql.NullString
		if err := rows.Scan(&record.ID, &record.Symbol, &company, &dataJSON, &record.Timestamp); err != nil {
			return nil, err
		}
		if company.Valid {
			record.Company = &company.String
		}
		if dataJSON.Valid && dataJSON.String != "" {
			var report models.SymbolReport
			if err := json.Unmarshal([]byte(dataJSON.String), &report); err != nil {
				logger.L.Warn("Failed to unmarshal stored report", "id", record.ID, "error", err)
			} else {
				record.Report = &report
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
