package services

import (
	"context"
	"errors"

	"github.com/username/stockscope/backend/src/models"
)

// Define common service errors. Handlers switch on these to pick the HTTP
// status; everything else maps to a generic server error.
var (
	ErrSymbolRequired = errors.New("symbol required")
	ErrSymbolNotFound = errors.New("no data found for symbol")
)

// MarketDataService is the external market-data collaborator. A lookup may
// fail outright or return a snapshot with any part missing; callers must
// treat every field as optionally absent.
type MarketDataService interface {
	Lookup(ctx context.Context, symbol string) (*models.ProviderSnapshot, error)
}

// ReportService builds the flattened report for one ticker symbol.
// BuildReport returns ErrSymbolRequired for a blank symbol and
// ErrSymbolNotFound when the lookup produced no meaningful data at all;
// provider failures degrade to null fields instead of surfacing.
type ReportService interface {
	BuildReport(ctx context.Context, symbol string) (*models.SymbolReport, error)
}
