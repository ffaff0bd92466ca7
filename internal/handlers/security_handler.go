package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/dobashik/cashflow-maker-web/internal/errors"
	"github.com/dobashik/cashflow-maker-web/internal/pagination"
	"github.com/dobashik/cashflow-maker-web/internal/services"
)

// SecurityHandler handles master security requests.
type SecurityHandler struct {
	securityService services.SecurityServicer
	auditService    services.AuditServicer
}

// NewSecurityHandler creates a new SecurityHandler.
func NewSecurityHandler(securityService services.SecurityServicer, auditService services.AuditServicer) *SecurityHandler {
	return &SecurityHandler{securityService: securityService, auditService: auditService}
}

// ListSecurities handles listing master securities.
// @Summary     List securities
// @Description Get a paginated list of master securities, optionally filtered by search term
// @Tags        securities
// @Produce     json
// @Security    BearerAuth
// @Param       search    query string false "Search by code or name (case-insensitive)"
// @Param       sort      query string false "Sort key (code, name, price, last_updated); prefix with - for descending"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 50, max 500)"
// @Success     200 {object} pagination.PageResponse[models.Security] "Paginated securities"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /securities [get]
func (h *SecurityHandler) ListSecurities(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.securityService.ListSecurities(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSecurity handles retrieving a master security.
// @Summary     Get security
// @Description Get a master security by code
// @Tags        securities
// @Produce     json
// @Security    BearerAuth
// @Param       code path string true "Security code"
// @Success     200 {object} models.Security "Security details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Security not found"
// @Router      /securities/{code} [get]
func (h *SecurityHandler) GetSecurity(c *gin.Context) {
	security, err := h.securityService.GetSecurity(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"security": security})
}

// UpdateSectors handles filling missing sectors of the owner's holdings.
// @Summary     Refresh sectors
// @Description Fill the sector of held securities that have none from the master file
// @Tags        securities
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.MetadataResult "Sector refresh outcome"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} FailureResponse "Master file unavailable"
// @Router      /securities/sectors/refresh [post]
func (h *SecurityHandler) UpdateSectors(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.securityService.UpdateSectors(c.Request.Context(), ownerID)
	if err != nil {
		respondWithFailure(c, err)
		return
	}

	h.auditService.Log(ownerID, "UPDATE_SECTORS", "security", "", c.ClientIP(),
		map[string]interface{}{"updated": result.Updated})

	c.JSON(http.StatusOK, result)
}

// RefreshMetadata handles the master metadata refresh.
// @Summary     Refresh master metadata
// @Description Upsert name and sector of every master file row (pipeline endpoint)
// @Tags        pipeline
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} services.MetadataResult "Metadata refresh outcome"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     502 {object} FailureResponse "Master file unavailable"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Router      /pipeline/securities/refresh-master [post]
func (h *SecurityHandler) RefreshMetadata(c *gin.Context) {
	result, err := h.securityService.RefreshMetadata(c.Request.Context())
	if err != nil {
		respondWithFailure(c, err)
		return
	}

	h.auditService.Log("", "REFRESH_MASTER_METADATA", "security", "", c.ClientIP(),
		map[string]interface{}{"updated": result.Updated})

	c.JSON(http.StatusOK, result)
}
