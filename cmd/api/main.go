package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dobashik/cashflow-maker-web/internal/config"
	"github.com/dobashik/cashflow-maker-web/internal/database"
	"github.com/dobashik/cashflow-maker-web/internal/logger"
	"github.com/dobashik/cashflow-maker-web/internal/mastercsv"
	"github.com/dobashik/cashflow-maker-web/internal/pricing"
	"github.com/dobashik/cashflow-maker-web/internal/router"
	"github.com/dobashik/cashflow-maker-web/internal/scheduler"
	"github.com/dobashik/cashflow-maker-web/internal/services"
	"github.com/dobashik/cashflow-maker-web/internal/validator"

	_ "github.com/dobashik/cashflow-maker-web/internal/docs" // Import swagger docs
)

// @title           Cashflow Maker API
// @version         1.0
// @description     Dividend portfolio backend: broker CSV import, holding reconciliation and price enrichment.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Pipeline key for scheduled jobs.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("Failed to close database", "error", err)
		}
	}()

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	if appConfig.MasterCSVURL == "" {
		log.Warn("MASTER_CSV_URL not set; new securities are registered without name or sector")
	}
	directory := mastercsv.NewDirectory(mastercsv.NewSource(appConfig.MasterCSVURL, httpClient), appConfig.MasterCSVTTL)

	provider, err := newPriceProvider(ctx, appConfig, httpClient)
	if err != nil {
		return fmt.Errorf("failed to create price provider: %w", err)
	}
	fetcher := pricing.NewFetcher(provider, pricing.Config{
		ChunkSize:   appConfig.PriceChunkSize,
		SettleWait:  appConfig.PriceSettleWait,
		RetryDelay:  appConfig.PriceRetryDelay,
		Cooldown:    appConfig.PriceChunkCooldown,
		MaxAttempts: appConfig.PriceMaxAttempts,
	})

	// Initialize services
	db := dbManager.DB()
	securityService := services.NewSecurityService(db, directory)
	priceService := services.NewPriceService(db, fetcher)

	validator.Register()

	engine := router.New(router.Config{
		JWTSecret:      appConfig.JWTSecret,
		PipelineAPIKey: appConfig.PipelineAPIKey,
		RequestTimeout: appConfig.RequestTimeout,
	}, router.Services{
		Import:   services.NewImportService(db, securityService),
		Holding:  services.NewHoldingService(db),
		Security: securityService,
		Price:    priceService,
		Audit:    services.NewAuditService(db),
	})

	if appConfig.SchedulerEnabled {
		go scheduler.New(priceService, appConfig.SchedulerRetryInterval, appConfig.SchedulerFullInterval).Run(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnw("Server shutdown error", "error", err)
		}
	}()

	log.Infof("Starting Cashflow Maker server on port %s (price provider: %s)", appConfig.Port, provider.Name())
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newPriceProvider prefers the calculation sheet and falls back to Yahoo
// Finance quotes when no sheet is configured.
func newPriceProvider(ctx context.Context, cfg *config.Config, httpClient *http.Client) (pricing.Provider, error) {
	if !cfg.PriceLookupConfigured() {
		logger.Get().Warn("Google Sheet price lookup not configured; using Yahoo Finance quotes")
		return pricing.NewYahooProvider(httpClient), nil
	}
	sheet, err := pricing.NewSheetsProvider(ctx, pricing.SheetsConfig{
		SpreadsheetID:   cfg.GoogleSheetID,
		SheetName:       cfg.PriceSheetName,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}
