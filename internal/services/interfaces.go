package services

import (
	"context"

	"github.com/dobashik/cashflow-maker-web/internal/mastercsv"
	"github.com/dobashik/cashflow-maker-web/internal/models"
	"github.com/dobashik/cashflow-maker-web/internal/pagination"
	"github.com/dobashik/cashflow-maker-web/internal/portfolio"
	"github.com/dobashik/cashflow-maker-web/internal/pricing"
)

// ImportResult is the outcome of one import batch.
type ImportResult struct {
	Success       bool              `json:"success"`
	Message       string            `json:"message"`
	OwnerID       string            `json:"owner_id,omitempty"`
	Source        models.Source     `json:"source"`
	Mode          models.ImportMode `json:"mode"`
	Imported      int               `json:"imported"`
	Skipped       int               `json:"skipped"`
	NewSecurities []string          `json:"new_securities"`
}

// AnalysisResult is the outcome of an analyst-rating import.
type AnalysisResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Parsed  int    `json:"parsed"`
	Updated int64  `json:"updated"`
}

// ImportServicer defines the contract for importing broker holdings.
type ImportServicer interface {
	ImportBatch(ctx context.Context, ownerID string, source models.Source, mode models.ImportMode, records []models.Holding) (*ImportResult, error)
	ImportFile(ctx context.Context, ownerID string, source models.Source, mode models.ImportMode, raw []byte) (*ImportResult, error)
	ImportAnalysis(ctx context.Context, ownerID string, raw []byte) (*AnalysisResult, error)
	UpdateAnalysis(ctx context.Context, ownerID string, updates []models.AnalystUpdate) (*AnalysisResult, error)
}

// HoldingFilter holds optional filter parameters for listing holdings.
type HoldingFilter struct {
	Source *models.Source
	Code   string
}

// DividendUpdate carries the hand-entered dividend fields of a holding.
type DividendUpdate struct {
	DividendPerShare float64
	DividendMonths   models.MonthSet
	FiscalYearMonth  *int
}

// PositionsView is the display-time portfolio.
type PositionsView struct {
	Positions []portfolio.Position `json:"positions"`
	Summary   portfolio.Summary    `json:"summary"`
}

// HoldingServicer defines the contract for reading and editing persisted holdings.
type HoldingServicer interface {
	ListHoldings(ctx context.Context, ownerID string, filter HoldingFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error)
	Positions(ctx context.Context, ownerID string) (*PositionsView, error)
	HeldCodes(ctx context.Context, ownerID string) ([]string, error)
	DeleteAll(ctx context.Context, ownerID string) (int64, error)
	DeleteBySource(ctx context.Context, ownerID string, source models.Source) (int64, error)
	UpdateDividend(ctx context.Context, ownerID, code string, update DividendUpdate) (int64, error)
}

// MetadataResult is the outcome of a master metadata write.
type MetadataResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Updated int    `json:"updated"`
}

// MasterDirectory resolves codes against the security master file.
type MasterDirectory interface {
	All(ctx context.Context) (map[string]mastercsv.Entry, error)
	Lookup(ctx context.Context, codes []string) (map[string]mastercsv.Entry, error)
}

// SecurityServicer defines the contract for the shared master security table.
type SecurityServicer interface {
	RegisterNew(ctx context.Context, codes []string) ([]string, error)
	RefreshMetadata(ctx context.Context) (*MetadataResult, error)
	UpdateSectors(ctx context.Context, ownerID string) (*MetadataResult, error)
	ListSecurities(ctx context.Context, search string, page pagination.PageRequest) (*pagination.PageResponse[models.Security], error)
	GetSecurity(ctx context.Context, code string) (*models.Security, error)
}

// RefreshResult is the outcome of a price refresh.
type RefreshResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
	PricesFound  int    `json:"prices_found"`
	FailedCount  int    `json:"failed_count"`
}

// PriceFetcher looks up current prices for codes.
type PriceFetcher interface {
	Fetch(ctx context.Context, codes []string) (*pricing.Result, error)
}

// PriceServicer defines the contract for the price-enrichment workflow.
type PriceServicer interface {
	RefreshForOwner(ctx context.Context, ownerID string) (*RefreshResult, error)
	RefreshForNewSecurities(ctx context.Context, ownerID string, candidates []string) (*RefreshResult, error)
	RefreshMaster(ctx context.Context, mode models.RefreshMode) (*RefreshResult, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ownerID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
