package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "domira/internal/errors"
	"domira/internal/models"
	"domira/internal/pagination"
)

// propertyService implements the property registry: issuance of
// fractionalized properties and conservation of their available inventory.
type propertyService struct {
	db        *gorm.DB
	passports PassportGenerator
}

// NewPropertyService creates a new PropertyServicer.
func NewPropertyService(db *gorm.DB, passports PassportGenerator) PropertyServicer {
	return &propertyService{db: db, passports: passports}
}

// CreateProperty issues a new fractionalized property. All fractions start
// available; the passport is generated from mock Kadaster/BAG/PDOK data.
func (s *propertyService) CreateProperty(
	name, description, address, city string,
	askingPrice decimal.Decimal,
	totalFractions int64,
	pricePerFraction decimal.Decimal,
	expectedYield float64,
	monthlyRent, managementFeePercent decimal.Decimal,
) (*models.Property, error) {
	if totalFractions <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Total fractions must be positive")
	}
	if !pricePerFraction.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Price per fraction must be positive")
	}
	if managementFeePercent.IsNegative() || managementFeePercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Management fee percent must be within [0, 100]")
	}

	property := &models.Property{
		Name:                 name,
		Description:          description,
		Address:              address,
		City:                 city,
		AskingPrice:          askingPrice,
		TotalFractions:       totalFractions,
		AvailableFractions:   totalFractions,
		PricePerFraction:     pricePerFraction,
		ExpectedYield:        expectedYield,
		MonthlyRent:          monthlyRent,
		ManagementFeePercent: managementFeePercent,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Create(property).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		passport := s.passports.Generate(address, city)
		passport.PropertyID = property.ID
		if txErr := tx.Create(passport).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		property.Passport = passport

		return nil
	})
	if err != nil {
		return nil, err
	}

	return property, nil
}

// GetPropertyByID returns a property with its passport preloaded.
func (s *propertyService) GetPropertyByID(propertyID string) (*models.Property, error) {
	var property models.Property
	if err := s.db.Preload("Passport").First(&property, "id = ?", propertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPropertyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &property, nil
}

// GetPassport returns the passport for a property.
func (s *propertyService) GetPassport(propertyID string) (*models.PropertyPassport, error) {
	property, err := s.GetPropertyByID(propertyID)
	if err != nil {
		return nil, err
	}
	if property.Passport == nil {
		return nil, apperrors.ErrPassportNotAvailable
	}
	return property.Passport, nil
}

// ListProperties returns a paginated list of properties matching the filter.
func (s *propertyService) ListProperties(filter PropertyFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Property], error) {
	page.Defaults()

	base := s.db.Model(&models.Property{})
	if filter.City != "" {
		base = base.Where("LOWER(city) = LOWER(?)", filter.City)
	}
	if filter.MinPrice != nil {
		base = base.Where("asking_price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		base = base.Where("asking_price <= ?", *filter.MaxPrice)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var properties []models.Property
	if err := base.Preload("Passport").Order("created_at").
		Scopes(pagination.Paginate(page)).Find(&properties).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(properties, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// SetTokenID records the on-chain token ID after minting.
func (s *propertyService) SetTokenID(propertyID string, tokenID int64) (*models.Property, error) {
	property, err := s.GetPropertyByID(propertyID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(property).Update("token_id", tokenID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return property, nil
}

// AdjustAvailability applies a signed delta to the property's available
// fractions. The check and the write are a single conditional UPDATE, so
// concurrent adjustments serialize on the row and the result can never leave
// [0, TotalFractions]; a violating delta fails with no mutation.
func (s *propertyService) AdjustAvailability(propertyID string, delta int64) (*models.Property, error) {
	res := s.db.Model(&models.Property{}).
		Where("id = ? AND available_fractions + ? >= 0 AND available_fractions + ? <= total_fractions",
			propertyID, delta, delta).
		UpdateColumn("available_fractions", gorm.Expr("available_fractions + ?", delta))
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}

	if res.RowsAffected == 0 {
		// Either the property does not exist or the delta is out of range.
		var count int64
		if err := s.db.Model(&models.Property{}).Where("id = ?", propertyID).Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return nil, apperrors.ErrPropertyNotFound
		}
		return nil, apperrors.ErrAvailabilityRange
	}

	return s.GetPropertyByID(propertyID)
}
