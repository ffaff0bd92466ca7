package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/dobashik/cashflow-maker-web/internal/errors"
	"github.com/dobashik/cashflow-maker-web/internal/models"
	"github.com/dobashik/cashflow-maker-web/internal/services"
)

// PriceHandler handles price refresh requests.
type PriceHandler struct {
	priceService services.PriceServicer
	auditService services.AuditServicer
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(priceService services.PriceServicer, auditService services.AuditServicer) *PriceHandler {
	return &PriceHandler{priceService: priceService, auditService: auditService}
}

// RefreshModeQuery holds the mode of a scheduled refresh.
type RefreshModeQuery struct {
	Mode string `form:"mode" binding:"omitempty,refresh_mode"`
}

// RefreshPrices handles refreshing prices of everything the owner holds.
// @Summary     Refresh prices
// @Description Fetch current prices for every security the owner holds. Chunks that keep failing are skipped and reported.
// @Tags        prices
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.RefreshResult "Refresh outcome"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} FailureResponse "Refresh failed"
// @Router      /prices/refresh [post]
func (h *PriceHandler) RefreshPrices(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.priceService.RefreshForOwner(c.Request.Context(), ownerID)
	if err != nil {
		respondWithFailure(c, err)
		return
	}

	h.auditService.Log(ownerID, "REFRESH_PRICES", "security", "", c.ClientIP(),
		map[string]interface{}{"updated": result.UpdatedCount, "failed": result.FailedCount})

	c.JSON(http.StatusOK, result)
}

// RefreshMaster handles the scheduled master price refresh.
// @Summary     Scheduled price refresh
// @Description Refresh every master security (full) or only those not priced within the retry window (retry, default). Pipeline endpoint.
// @Tags        pipeline
// @Produce     json
// @Security    ApiKeyAuth
// @Param       mode query string false "full or retry (default)"
// @Success     200 {object} services.RefreshResult "Refresh outcome"
// @Failure     400 {object} FailureResponse "Invalid mode"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Router      /pipeline/prices/refresh [post]
func (h *PriceHandler) RefreshMaster(c *gin.Context) {
	var q RefreshModeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithFailure(c, apperrors.ErrInvalidRefreshMode)
		return
	}
	mode := models.RefreshModeRetry
	if q.Mode != "" {
		mode = models.RefreshMode(strings.ToLower(q.Mode))
	}

	result, err := h.priceService.RefreshMaster(c.Request.Context(), mode)
	if err != nil {
		respondWithFailure(c, err)
		return
	}

	h.auditService.Log("", "REFRESH_MASTER_PRICES", "security", string(mode), c.ClientIP(),
		map[string]interface{}{"updated": result.UpdatedCount, "found": result.PricesFound, "failed": result.FailedCount})

	c.JSON(http.StatusOK, result)
}
