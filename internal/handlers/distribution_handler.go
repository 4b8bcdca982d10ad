package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "domira/internal/errors"
	"domira/internal/pagination"
	"domira/internal/services"
)

// DistributionHandler handles rental-income distribution requests.
type DistributionHandler struct {
	distributionService services.DistributionServicer
}

// NewDistributionHandler creates a new DistributionHandler.
func NewDistributionHandler(distributionService services.DistributionServicer) *DistributionHandler {
	return &DistributionHandler{distributionService: distributionService}
}

// DistributeRequest represents the request payload for running a distribution.
// Holders is an optional explicit snapshot; when omitted the snapshot is read
// from the chain via the property's token ID.
type DistributeRequest struct {
	PropertyID          string            `json:"property_id" binding:"required,uuid"`
	Period              string            `json:"period" binding:"required,period"`
	GrossIncomeOverride *decimal.Decimal  `json:"gross_income_override"`
	Holders             []services.Holder `json:"holders"`
}

// DistributionListQuery holds the query parameters for listing past runs.
type DistributionListQuery struct {
	pagination.PageRequest
}

// Distribute runs a pro-rata rental distribution for one property and period.
// @Summary     Run distribution
// @Description Compute and persist the pro-rata payout report for a period
// @Tags        distributions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body DistributeRequest true "Distribution parameters"
// @Success     201 {object} map[string]interface{} "Distribution report"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Property not found"
// @Failure     422 {object} ErrorResponse "No holder snapshot available"
// @Router      /distributions [post]
func (h *DistributionHandler) Distribute(c *gin.Context) {
	var req DistributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	report, err := h.distributionService.DistributeForProperty(
		c.Request.Context(), req.PropertyID, req.Period, req.GrossIncomeOverride, req.Holders)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"distribution": report})
}

// ListDistributions returns the persisted distribution history for a property.
// @Summary     List distributions
// @Tags        distributions
// @Produce     json
// @Param       id        path  string true  "Property ID"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Items per page"
// @Success     200 {object} pagination.PageResponse[models.DistributionRecord] "Paginated records"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /properties/{id}/distributions [get]
func (h *DistributionHandler) ListDistributions(c *gin.Context) {
	propertyID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query DistributionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.distributionService.ListDistributions(propertyID, query.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
