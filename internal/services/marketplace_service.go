package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "domira/internal/errors"
	"domira/internal/models"
	"domira/internal/pagination"
)

// marketplaceService implements the secondary-market order book: listing
// lifecycle and buy-order settlement with strict quantity conservation.
type marketplaceService struct {
	db         *gorm.DB
	properties PropertyServicer
}

// NewMarketplaceService creates a new MarketplaceServicer.
func NewMarketplaceService(db *gorm.DB, properties PropertyServicer) MarketplaceServicer {
	return &marketplaceService{db: db, properties: properties}
}

// CreateListing creates an ACTIVE listing for the given seller. The engine
// tracks what is offered, not who legally owns it: seller custody of the
// listed fractions is enforced by the external settlement system, not here.
func (s *marketplaceService) CreateListing(sellerID, propertyID string, fractions int64, pricePerFraction decimal.Decimal) (*models.Listing, error) {
	if fractions <= 0 {
		return nil, apperrors.ErrInvalidQuantity
	}
	if !pricePerFraction.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Price per fraction must be positive")
	}

	property, err := s.properties.GetPropertyByID(propertyID)
	if err != nil {
		return nil, err
	}

	listing := &models.Listing{
		SellerID:           sellerID,
		PropertyID:         property.ID,
		FractionsRemaining: fractions,
		PricePerFraction:   pricePerFraction,
		TotalPrice:         pricePerFraction.Mul(decimal.NewFromInt(fractions)),
		Status:             models.ListingStatusActive,
	}

	if err := s.db.Create(listing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	listing.Property = *property
	return listing, nil
}

// GetListingByID returns a listing with its property preloaded.
func (s *marketplaceService) GetListingByID(listingID string) (*models.Listing, error) {
	var listing models.Listing
	if err := s.db.Preload("Property").First(&listing, "id = ?", listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrListingNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &listing, nil
}

// ListActiveListings returns ACTIVE listings matching the filter. Both
// filters combine as an intersection; ordering is stable (creation time).
func (s *marketplaceService) ListActiveListings(filter ListingFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Listing], error) {
	page.Defaults()

	base := s.db.Model(&models.Listing{}).Where("status = ?", models.ListingStatusActive)
	if filter.PropertyID != "" {
		base = base.Where("property_id = ?", filter.PropertyID)
	}
	if filter.MaxPrice != nil {
		base = base.Where("price_per_fraction <= ?", *filter.MaxPrice)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var listings []models.Listing
	if err := base.Preload("Property").Order("created_at").
		Scopes(pagination.Paginate(page)).Find(&listings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(listings, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// CancelListing transitions an ACTIVE listing to CANCELLED. Cancelling an
// already-CANCELLED listing is an idempotent no-op. Cancelling a SOLD listing
// fails: SOLD is terminal and must never be overwritten.
func (s *marketplaceService) CancelListing(sellerID, listingID string) (*models.Listing, error) {
	listing, err := s.GetListingByID(listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != sellerID {
		return nil, apperrors.ErrForbidden
	}

	switch listing.Status {
	case models.ListingStatusCancelled:
		return listing, nil
	case models.ListingStatusSold:
		return nil, apperrors.ErrListingAlreadySold
	}

	// Guard on current status so a concurrent full fill cannot be
	// overwritten by this cancel.
	res := s.db.Model(&models.Listing{}).
		Where("id = ? AND status = ?", listingID, models.ListingStatusActive).
		Update("status", models.ListingStatusCancelled)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrListingAlreadySold
	}

	listing.Status = models.ListingStatusCancelled
	return listing, nil
}

// ExecuteBuyOrder settles a buy order against a listing. The quantity check
// and decrement are a single conditional UPDATE, so two concurrent orders
// whose sum exceeds the remaining quantity can never both succeed. A full
// fill flips the listing to SOLD; the displayed total price tracks the
// remaining value at ask. Cost is charged at the price fixed when the
// listing was created.
func (s *marketplaceService) ExecuteBuyOrder(buyerID, listingID string, fractions int64) (*PurchaseResult, error) {
	if fractions <= 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	var result PurchaseResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Listing{}).
			Where("id = ? AND status = ? AND fractions_remaining >= ?",
				listingID, models.ListingStatusActive, fractions).
			UpdateColumn("fractions_remaining", gorm.Expr("fractions_remaining - ?", fractions))
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}

		if res.RowsAffected == 0 {
			// Re-read to report the precise failure.
			var listing models.Listing
			if txErr := tx.First(&listing, "id = ?", listingID).Error; txErr != nil {
				if errors.Is(txErr, gorm.ErrRecordNotFound) {
					return apperrors.ErrListingNotFound
				}
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
			if listing.Status != models.ListingStatusActive {
				return apperrors.ErrListingNotActive
			}
			return apperrors.ErrInsufficientFractions
		}

		var listing models.Listing
		if txErr := tx.First(&listing, "id = ?", listingID).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		updates := map[string]interface{}{
			"total_price": listing.PricePerFraction.Mul(decimal.NewFromInt(listing.FractionsRemaining)),
		}
		if listing.FractionsRemaining == 0 {
			updates["status"] = models.ListingStatusSold
			listing.Status = models.ListingStatusSold
		}
		if txErr := tx.Model(&listing).Updates(updates).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		result = PurchaseResult{
			ListingID:          listing.ID,
			FractionsBought:    fractions,
			TotalCost:          listing.PricePerFraction.Mul(decimal.NewFromInt(fractions)),
			RemainingFractions: listing.FractionsRemaining,
			ListingStatus:      listing.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}
