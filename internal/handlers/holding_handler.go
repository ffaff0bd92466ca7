package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/dobashik/cashflow-maker-web/internal/errors"
	"github.com/dobashik/cashflow-maker-web/internal/models"
	"github.com/dobashik/cashflow-maker-web/internal/pagination"
	"github.com/dobashik/cashflow-maker-web/internal/services"
)

// HoldingHandler handles holding-related requests.
type HoldingHandler struct {
	holdingService services.HoldingServicer
	auditService   services.AuditServicer
}

// NewHoldingHandler creates a new HoldingHandler.
func NewHoldingHandler(holdingService services.HoldingServicer, auditService services.AuditServicer) *HoldingHandler {
	return &HoldingHandler{holdingService: holdingService, auditService: auditService}
}

// UpdateDividendRequest represents the request payload for editing dividend fields.
type UpdateDividendRequest struct {
	DividendPerShare float64 `json:"dividend_per_share" binding:"gte=0"`
	DividendMonths   []int   `json:"dividend_months" binding:"omitempty,max=12,dive,month"`
	FiscalYearMonth  *int    `json:"fiscal_year_month" binding:"omitempty,month"`
}

// ListHoldings handles listing the owner's per-broker holdings.
// @Summary     List holdings
// @Description Get a paginated list of the owner's holdings, one row per security and broker
// @Tags        holdings
// @Produce     json
// @Security    BearerAuth
// @Param       source    query string false "Filter by broker (SBI or Rakuten)"
// @Param       code      query string false "Filter by security code"
// @Param       sort      query string false "Sort key (code, name, quantity, price, source, sector, created_at); prefix with - for descending"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 50, max 500)"
// @Success     200 {object} pagination.PageResponse[models.Holding] "Paginated holdings"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /holdings [get]
func (h *HoldingHandler) ListHoldings(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.HoldingFilter{Code: c.Query("code")}
	source, err := parseSource(c.Query("source"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	if source != "" {
		filter.Source = &source
	}

	result, err := h.holdingService.ListHoldings(c.Request.Context(), ownerID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPositions handles the merged portfolio view.
// @Summary     Portfolio positions
// @Description Holdings merged across brokers with master prices, plus totals, sector breakdown and dividend calendar
// @Tags        holdings
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.PositionsView "Positions and summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /holdings/positions [get]
func (h *HoldingHandler) GetPositions(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	view, err := h.holdingService.Positions(c.Request.Context(), ownerID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// DeleteHoldings handles deleting the owner's holdings.
// @Summary     Delete holdings
// @Description Delete every holding of the owner, or only those of one broker
// @Tags        holdings
// @Produce     json
// @Security    BearerAuth
// @Param       source query string false "Only delete rows of this broker"
// @Success     200 {object} map[string]int64 "Deleted count"
// @Failure     400 {object} ErrorResponse "Invalid source"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /holdings [delete]
func (h *HoldingHandler) DeleteHoldings(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	source, err := parseSource(c.Query("source"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	var deleted int64
	if source == "" {
		deleted, err = h.holdingService.DeleteAll(c.Request.Context(), ownerID)
	} else {
		deleted, err = h.holdingService.DeleteBySource(c.Request.Context(), ownerID, source)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(ownerID, "DELETE_HOLDINGS", "holdings", string(source), c.ClientIP(),
		map[string]interface{}{"deleted": deleted})

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// UpdateDividend handles editing the dividend fields of a held security.
// @Summary     Update dividend
// @Description Set dividend per share, dividend months and fiscal year-end month on every row of the code
// @Tags        holdings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       code    path string                true "Security code"
// @Param       request body UpdateDividendRequest true "Dividend fields"
// @Success     200 {object} map[string]int64 "Updated count"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Holding not found"
// @Router      /holdings/{code}/dividend [put]
func (h *HoldingHandler) UpdateDividend(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateDividendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	code := c.Param("code")
	updated, err := h.holdingService.UpdateDividend(c.Request.Context(), ownerID, code, services.DividendUpdate{
		DividendPerShare: req.DividendPerShare,
		DividendMonths:   models.NewMonthSet(req.DividendMonths...),
		FiscalYearMonth:  req.FiscalYearMonth,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(ownerID, "UPDATE_DIVIDEND", "holding", code, c.ClientIP(),
		map[string]interface{}{"dividend_per_share": req.DividendPerShare, "dividend_months": req.DividendMonths})

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
