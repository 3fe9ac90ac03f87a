package main

import (
	stdlog "log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/stockscope/backend/src/config"
	"github.com/username/stockscope/backend/src/database"
	"github.com/username/stockscope/backend/src/handlers"
	"github.com/username/stockscope/backend/src/logger"
	"github.com/username/stockscope/backend/src/services"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("StockScope backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath, config.Cfg.MigrationsPath)

	marketDataService := services.NewYahooService(config.Cfg.ProviderTimeout, config.Cfg.ProviderCacheTTL)
	reportService := services.NewReportService(marketDataService, database.DB, config.Cfg.RevenueHistoryYears)

	reportHandler := handlers.NewReportHandler(reportService, database.DB, config.Cfg.RecentSearchesLimit)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)

	r.Get("/api/recent", reportHandler.HandleGetRecent)
	r.Get("/api/{symbol}", reportHandler.HandleGetSymbol)
	r.Get("/export/{symbol}", reportHandler.HandleExportSymbol)

	// static single-page frontend
	r.Handle("/*", http.FileServer(http.Dir(config.Cfg.StaticDir)))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
