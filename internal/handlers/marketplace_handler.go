package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "domira/internal/errors"
	"domira/internal/pagination"
	"domira/internal/services"
)

// MarketplaceHandler handles secondary-market listing and buy requests.
type MarketplaceHandler struct {
	marketplaceService services.MarketplaceServicer
	userService        services.UserServicer
}

// NewMarketplaceHandler creates a new MarketplaceHandler.
func NewMarketplaceHandler(marketplaceService services.MarketplaceServicer, userService services.UserServicer) *MarketplaceHandler {
	return &MarketplaceHandler{
		marketplaceService: marketplaceService,
		userService:        userService,
	}
}

// CreateListingRequest represents the request payload for posting a listing.
type CreateListingRequest struct {
	PropertyID       string          `json:"property_id" binding:"required,uuid"`
	Fractions        int64           `json:"fractions" binding:"required"`
	PricePerFraction decimal.Decimal `json:"price_per_fraction" binding:"required"`
}

// BuyRequest represents the request payload for a buy order.
type BuyRequest struct {
	Fractions int64 `json:"fractions" binding:"required"`
}

// ListingListQuery holds the query parameters for browsing active listings.
type ListingListQuery struct {
	PropertyID string           `form:"property_id" binding:"omitempty,uuid"`
	MaxPrice   *decimal.Decimal `form:"max_price"`
	pagination.PageRequest
}

// CreateListing posts a sell listing for the authenticated user.
// @Summary     Create listing
// @Description Post fractions of a property for sale on the secondary market
// @Tags        marketplace
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateListingRequest true "Listing details"
// @Success     201 {object} map[string]interface{} "Listing created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Property not found"
// @Router      /marketplace/listings [post]
func (h *MarketplaceHandler) CreateListing(c *gin.Context) {
	sellerID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	listing, err := h.marketplaceService.CreateListing(sellerID, req.PropertyID, req.Fractions, req.PricePerFraction)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"listing": listing})
}

// ListListings returns the active-listing view with optional filters.
// @Summary     List active listings
// @Tags        marketplace
// @Produce     json
// @Param       property_id query string false "Filter by property"
// @Param       max_price   query number false "Maximum price per fraction"
// @Param       page        query int    false "Page number"
// @Param       page_size   query int    false "Items per page"
// @Success     200 {object} pagination.PageResponse[models.Listing] "Paginated listings"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /marketplace/listings [get]
func (h *MarketplaceHandler) ListListings(c *gin.Context) {
	var query ListingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.ListingFilter{
		PropertyID: query.PropertyID,
		MaxPrice:   query.MaxPrice,
	}
	result, err := h.marketplaceService.ListActiveListings(filter, query.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetListing returns one listing regardless of state.
// @Summary     Get listing by ID
// @Tags        marketplace
// @Produce     json
// @Param       id path string true "Listing ID"
// @Success     200 {object} map[string]interface{} "Listing details"
// @Failure     404 {object} ErrorResponse "Listing not found"
// @Router      /marketplace/listings/{id} [get]
func (h *MarketplaceHandler) GetListing(c *gin.Context) {
	listingID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	listing, err := h.marketplaceService.GetListingByID(listingID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// CancelListing withdraws the caller's own listing.
// @Summary     Cancel listing
// @Description Withdraw an active listing; cancelling twice is a no-op
// @Tags        marketplace
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Listing ID"
// @Success     200 {object} map[string]interface{} "Cancelled listing"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the seller"
// @Failure     404 {object} ErrorResponse "Listing not found"
// @Failure     409 {object} ErrorResponse "Listing already sold"
// @Router      /marketplace/listings/{id}/cancel [post]
func (h *MarketplaceHandler) CancelListing(c *gin.Context) {
	sellerID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	listingID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	listing, err := h.marketplaceService.CancelListing(sellerID, listingID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// Buy executes a buy order against a listing. KYC is checked here, before
// the order book is touched; the order book itself stays KYC-agnostic.
// @Summary     Buy fractions
// @Description Purchase fractions from an active listing; requires verified KYC
// @Tags        marketplace
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string     true "Listing ID"
// @Param       request body BuyRequest true "Fractions to buy"
// @Success     200 {object} map[string]interface{} "Purchase result"
// @Failure     400 {object} ErrorResponse "Invalid quantity"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "KYC not verified"
// @Failure     404 {object} ErrorResponse "Listing not found"
// @Failure     409 {object} ErrorResponse "Listing not active or insufficient fractions"
// @Router      /marketplace/listings/{id}/buy [post]
func (h *MarketplaceHandler) Buy(c *gin.Context) {
	buyerID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	listingID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	buyer, err := h.userService.GetUserByID(buyerID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if !buyer.Whitelisted() {
		respondWithError(c, apperrors.ErrKYCNotVerified)
		return
	}

	result, err := h.marketplaceService.ExecuteBuyOrder(buyerID, listingID, req.Fractions)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchase": result})
}
