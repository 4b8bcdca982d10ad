package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "domira/internal/errors"
	"domira/internal/pagination"
	"domira/internal/services"
)

// PropertyHandler handles property registry requests.
type PropertyHandler struct {
	propertyService services.PropertyServicer
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(propertyService services.PropertyServicer) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

// CreatePropertyRequest represents the request payload for property onboarding.
type CreatePropertyRequest struct {
	Name                 string          `json:"name" binding:"required,min=1,max=200"`
	Description          string          `json:"description" binding:"max=2000"`
	Address              string          `json:"address" binding:"required,min=1,max=300"`
	City                 string          `json:"city" binding:"omitempty,max=100"`
	AskingPrice          decimal.Decimal `json:"asking_price" binding:"required"`
	TotalFractions       int64           `json:"total_fractions" binding:"required,gt=0"`
	PricePerFraction     decimal.Decimal `json:"price_per_fraction" binding:"required"`
	ExpectedYield        float64         `json:"expected_yield" binding:"gte=0"`
	MonthlyRent          decimal.Decimal `json:"monthly_rent"`
	ManagementFeePercent decimal.Decimal `json:"management_fee_percent"`
}

// PropertyListQuery holds the query parameters for listing properties.
type PropertyListQuery struct {
	City     string           `form:"city"`
	MinPrice *decimal.Decimal `form:"min_price"`
	MaxPrice *decimal.Decimal `form:"max_price"`
	pagination.PageRequest
}

// SetTokenIDRequest represents the request payload for recording a token ID.
type SetTokenIDRequest struct {
	TokenID int64 `json:"token_id" binding:"gte=0"`
}

// AdjustAvailabilityRequest carries a signed inventory delta from the
// settlement system.
type AdjustAvailabilityRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}

// CreateProperty handles property onboarding.
// @Summary     Create property
// @Description Issue a new fractionalized property with a generated passport
// @Tags        properties
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePropertyRequest true "Property details"
// @Success     201 {object} map[string]interface{} "Property created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /properties [post]
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	city := req.City
	if city == "" {
		city = "Almere"
	}

	property, err := h.propertyService.CreateProperty(
		req.Name, req.Description, req.Address, city,
		req.AskingPrice, req.TotalFractions, req.PricePerFraction,
		req.ExpectedYield, req.MonthlyRent, req.ManagementFeePercent,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"property": property})
}

// ListProperties handles property browsing with optional filters.
// @Summary     List properties
// @Tags        properties
// @Produce     json
// @Param       city      query string false "City filter"
// @Param       min_price query number false "Minimum asking price"
// @Param       max_price query number false "Maximum asking price"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Items per page"
// @Success     200 {object} pagination.PageResponse[models.Property] "Paginated properties"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /properties [get]
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	var query PropertyListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.PropertyFilter{
		City:     query.City,
		MinPrice: query.MinPrice,
		MaxPrice: query.MaxPrice,
	}
	result, err := h.propertyService.ListProperties(filter, query.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProperty returns one property.
// @Summary     Get property by ID
// @Tags        properties
// @Produce     json
// @Param       id path string true "Property ID"
// @Success     200 {object} map[string]interface{} "Property details"
// @Failure     404 {object} ErrorResponse "Property not found"
// @Router      /properties/{id} [get]
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	propertyID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	property, err := h.propertyService.GetPropertyByID(propertyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"property": property})
}

// GetPassport returns a property's passport.
// @Summary     Get property passport
// @Description Kadaster/BAG/PDOK data for the property
// @Tags        properties
// @Produce     json
// @Param       id path string true "Property ID"
// @Success     200 {object} map[string]interface{} "Passport"
// @Failure     404 {object} ErrorResponse "Property or passport not found"
// @Router      /properties/{id}/passport [get]
func (h *PropertyHandler) GetPassport(c *gin.Context) {
	propertyID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	passport, err := h.propertyService.GetPassport(propertyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"passport": passport})
}

// SetTokenID records the on-chain token ID after minting.
// @Summary     Set token ID
// @Tags        properties
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Property ID"
// @Param       request body SetTokenIDRequest true "Token ID"
// @Success     200 {object} map[string]interface{} "Updated property"
// @Failure     404 {object} ErrorResponse "Property not found"
// @Router      /properties/{id}/token [patch]
func (h *PropertyHandler) SetTokenID(c *gin.Context) {
	propertyID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetTokenIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	property, err := h.propertyService.SetTokenID(propertyID, req.TokenID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"property": property})
}

// AdjustAvailability applies a signed primary-inventory delta. Called by the
// settlement system when primary-market sales settle or fall through.
// @Summary     Adjust available fractions
// @Tags        properties
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                    true "Property ID"
// @Param       request body AdjustAvailabilityRequest true "Signed delta"
// @Success     200 {object} map[string]interface{} "Updated property"
// @Failure     404 {object} ErrorResponse "Property not found"
// @Failure     409 {object} ErrorResponse "Delta out of range"
// @Router      /properties/{id}/availability [patch]
func (h *PropertyHandler) AdjustAvailability(c *gin.Context) {
	propertyID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AdjustAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	property, err := h.propertyService.AdjustAvailability(propertyID, req.Delta)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"property": property})
}
