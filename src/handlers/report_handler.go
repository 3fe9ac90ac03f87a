package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/username/stockscope/backend/src/export"
	"github.com/username/stockscope/backend/src/logger"
	"github.com/username/stockscope/backend/src/model"
	"github.com/username/stockscope/backend/src/services"
	"github.com/username/stockscope/backend/src/utils"
)

// ReportHandler exposes the symbol lookup, recent-search, and export
// endpoints. The JSON endpoint and the export endpoint are two thin adapters
// over the same BuildReport call.
type ReportHandler struct {
	reportService      services.ReportService
	db                 *sql.DB
	defaultRecentLimit int
}

func NewReportHandler(reportService services.ReportService, db *sql.DB, defaultRecentLimit int) *ReportHandler {
	return &ReportHandler{
		reportService:      reportService,
		db:                 db,
		defaultRecentLimit: defaultRecentLimit,
	}
}

// HandleGetSymbol serves GET /api/{symbol}.
func (h *ReportHandler) HandleGetSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	report, err := h.reportService.BuildReport(r.Context(), symbol)
	if err != nil {
		h.writeBuildError(w, symbol, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// HandleGetRecent serves GET /api/recent?limit=N.
func (h *ReportHandler) HandleGetRecent(w http.ResponseWriter, r *http.Request) {
	limit := h.defaultRecentLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := model.RecentSearches(h.db, limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to fetch recent searches", "error", err)
		utils.SendJSONError(w, "Failed to retrieve recent searches", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"recent": records})
}

// HandleExportSymbol serves GET /export/{symbol}?format=csv|xlsx. A build
// failure surfaces exactly as it would on the JSON endpoint; the formatter is
// never invoked for a failed build.
func (h *ReportHandler) HandleExportSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	kind := r.URL.Query().Get("format")

	report, err := h.reportService.BuildReport(r.Context(), symbol)
	if err != nil {
		h.writeBuildError(w, symbol, err)
		return
	}

	payload, contentType, filename, err := export.Format(report, kind)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to format export", "symbol", report.Symbol, "kind", kind, "error", err)
		utils.SendJSONError(w, "Failed to generate export file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(payload)
}

// writeBuildError maps BuildReport outcomes onto HTTP statuses. Only a blank
// symbol and an all-null report are business errors; everything else is a
// generic server error.
func (h *ReportHandler) writeBuildError(w http.ResponseWriter, symbol string, err error) {
	switch {
	case errors.Is(err, services.ErrSymbolRequired):
		utils.SendJSONError(w, "Symbol required", http.StatusBadRequest)
	case errors.Is(err, services.ErrSymbolNotFound):
		normalized := strings.ToUpper(strings.TrimSpace(symbol))
		msg := fmt.Sprintf("No data found for symbol '%s'. Please check the symbol and try again.", normalized)
		utils.SendJSONError(w, msg, http.StatusNotFound)
	default:
		utils.SendJSONError(w, fmt.Sprintf("Failed to build report: %v", err), http.StatusInternalServerError)
	}
}
