package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/dobashik/cashflow-maker-web/internal/errors"
	"github.com/dobashik/cashflow-maker-web/internal/logger"
	"github.com/dobashik/cashflow-maker-web/internal/models"
	"github.com/dobashik/cashflow-maker-web/internal/services"
)

// ImportHandler handles broker CSV and analyst-rating imports.
type ImportHandler struct {
	importService services.ImportServicer
	priceService  services.PriceServicer
	auditService  services.AuditServicer
	// spawn runs the post-import price refresh; tests make it synchronous.
	spawn func(func())
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService services.ImportServicer, priceService services.PriceServicer, auditService services.AuditServicer) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		priceService:  priceService,
		auditService:  auditService,
		spawn:         func(f func()) { go f() },
	}
}

// HoldingInput is one holding of a JSON import batch.
type HoldingInput struct {
	Code             string  `json:"code" binding:"required,max=10"`
	Name             string  `json:"name" binding:"max=200"`
	Quantity         float64 `json:"quantity" binding:"gte=0"`
	Price            float64 `json:"price" binding:"gte=0"`
	AcquisitionPrice float64 `json:"acquisition_price" binding:"gte=0"`
	TotalGainLoss    float64 `json:"total_gain_loss"`
	DividendPerShare float64 `json:"dividend_per_share" binding:"gte=0"`
	DividendMonths   []int   `json:"dividend_months" binding:"omitempty,max=12,dive,month"`
	FiscalYearMonth  *int    `json:"fiscal_year_month" binding:"omitempty,month"`
	Sector           string  `json:"sector" binding:"max=100"`
	AccountType      string  `json:"account_type" binding:"max=100"`
}

// ImportRecordsRequest represents the request payload for a JSON import batch.
type ImportRecordsRequest struct {
	Source  string         `json:"source" binding:"required,broker_source"`
	Mode    string         `json:"mode" binding:"omitempty,import_mode"`
	Records []HoldingInput `json:"records" binding:"dive"`
}

func (in HoldingInput) toModel() models.Holding {
	return models.Holding{
		Code:             in.Code,
		Name:             in.Name,
		Quantity:         in.Quantity,
		Price:            in.Price,
		AcquisitionPrice: in.AcquisitionPrice,
		TotalGainLoss:    in.TotalGainLoss,
		DividendPerShare: in.DividendPerShare,
		DividendMonths:   models.NewMonthSet(in.DividendMonths...),
		FiscalYearMonth:  in.FiscalYearMonth,
		Sector:           in.Sector,
		AccountType:      in.AccountType,
	}
}

// ImportFile handles a broker CSV upload.
// @Summary     Import broker CSV
// @Description Import an SBI or Rakuten portfolio export (Shift_JIS or UTF-8). Replace mode swaps the owner's rows for the source; append mode merges into them. Newly seen securities are priced in the background.
// @Tags        holdings
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file   formData file   true  "Broker CSV export"
// @Param       source formData string false "SBI or Rakuten (detected from the header when omitted)"
// @Param       mode   formData string false "replace (default) or append"
// @Success     200 {object} services.ImportResult "Import outcome"
// @Failure     400 {object} FailureResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} FailureResponse "No importable rows"
// @Failure     500 {object} FailureResponse "Import failed"
// @Router      /holdings/import [post]
func (h *ImportHandler) ImportFile(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	source, err := parseSource(c.PostForm("source"))
	if err != nil {
		respondWithFailure(c, err)
		return
	}
	mode, err := parseMode(c.PostForm("mode"))
	if err != nil {
		respondWithFailure(c, err)
		return
	}
	raw, err := readUpload(c, "file")
	if err != nil {
		respondWithFailure(c, err)
		return
	}

	result, err := h.importService.ImportFile(c.Request.Context(), ownerID, source, mode, raw)
	if err != nil {
		respondWithFailure(c, err)
		return
	}

	h.auditService.Log(ownerID, "IMPORT_HOLDINGS", "holdings", string(result.Source), c.ClientIP(),
		map[string]interface{}{"mode": string(result.Mode), "imported": result.Imported, "new_securities": len(result.NewSecurities)})
	h.refreshNewSecurities(c, ownerID, result.NewSecurities)

	c.JSON(http.StatusOK, result)
}

// ImportRecords handles a JSON import batch.
// @Summary     Import holdings batch
// @Description Import already-parsed holding records for one broker
// @Tags        holdings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ImportRecordsRequest true "Import batch"
// @Success     200 {object} services.ImportResult "Import outcome"
// @Failure     400 {object} FailureResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} FailureResponse "Import failed"
// @Router      /holdings/import/records [post]
func (h *ImportHandler) ImportRecords(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ImportRecordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithFailure(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	source, err := parseSource(req.Source)
	if err != nil {
		respondWithFailure(c, err)
		return
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		respondWithFailure(c, err)
		return
	}

	records := make([]models.Holding, len(req.Records))
	for i, r := range req.Records {
		records[i] = r.toModel()
	}

	result, err := h.importService.ImportBatch(c.Request.Context(), ownerID, source, mode, records)
	if err != nil {
		respondWithFailure(c, err)
		return
	}

	h.auditService.Log(ownerID, "IMPORT_HOLDINGS", "holdings", string(source), c.ClientIP(),
		map[string]interface{}{"mode": string(mode), "imported": result.Imported, "new_securities": len(result.NewSecurities)})
	h.refreshNewSecurities(c, ownerID, result.NewSecurities)

	c.JSON(http.StatusOK, result)
}

// ImportAnalysis handles an analyst-rating CSV upload.
// @Summary     Import analyst ratings
// @Description Apply rank, score and verdict columns of an analysis export to every matching holding
// @Tags        holdings
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file true "Analysis CSV export"
// @Success     200 {object} services.AnalysisResult "Analysis outcome"
// @Failure     400 {object} FailureResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} FailureResponse "No importable rows"
// @Router      /holdings/analysis [post]
func (h *ImportHandler) ImportAnalysis(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	raw, err := readUpload(c, "file")
	if err != nil {
		respondWithFailure(c, err)
		return
	}

	result, err := h.importService.ImportAnalysis(c.Request.Context(), ownerID, raw)
	if err != nil {
		respondWithFailure(c, err)
		return
	}

	h.auditService.Log(ownerID, "IMPORT_ANALYSIS", "holdings", "", c.ClientIP(),
		map[string]interface{}{"parsed": result.Parsed, "updated": result.Updated})

	c.JSON(http.StatusOK, result)
}

// refreshNewSecurities prices newly registered codes after the response.
// The refresh outlives the request, so it runs on a detached context.
func (h *ImportHandler) refreshNewSecurities(c *gin.Context, ownerID string, codes []string) {
	if h.priceService == nil || len(codes) == 0 {
		return
	}
	ctx := context.WithoutCancel(c.Request.Context())
	pending := append([]string(nil), codes...)

	h.spawn(func() {
		log := logger.Get().With("owner_id", ownerID, "codes", len(pending))
		res, err := h.priceService.RefreshForNewSecurities(ctx, ownerID, pending)
		if err != nil {
			log.Warnw("Background price refresh failed", "error", err)
			return
		}
		log.Infow("Background price refresh complete",
			"updated", res.UpdatedCount, "found", res.PricesFound, "failed", res.FailedCount)
	})
}
