package models

import "github.com/shopspring/decimal"

// Property represents a fractionalized real-estate asset. TotalFractions is
// immutable after issuance; AvailableFractions tracks unsold primary-market
// inventory and must stay within [0, TotalFractions].
type Property struct {
	Base
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Address     string `gorm:"not null" json:"address"`
	City        string `gorm:"not null;default:'Almere';index" json:"city"`

	AskingPrice        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"asking_price"`
	TotalFractions     int64           `gorm:"not null" json:"total_fractions"`
	AvailableFractions int64           `gorm:"not null" json:"available_fractions"`
	PricePerFraction   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"price_per_fraction"`
	ExpectedYield      float64         `json:"expected_yield"`

	// Rental economics used by the distribution engine.
	MonthlyRent          decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"monthly_rent"`
	ManagementFeePercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"management_fee_percent"`

	// Set after on-chain token creation.
	TokenID        *int64 `json:"token_id"`
	ManagerAddress string `gorm:"not null;default:'0x0000000000000000000000000000000000000000'" json:"manager_address"`

	Passport *PropertyPassport `gorm:"foreignKey:PropertyID" json:"passport,omitempty"`
}

// PropertyPassport holds Dutch property data sourced from Kadaster, BAG and PDOK.
type PropertyPassport struct {
	Base
	PropertyID string `gorm:"type:uuid;not null;uniqueIndex" json:"-"`

	// Kadaster
	CadastralNumber string `gorm:"not null" json:"cadastral_number"`
	OwnershipStatus string `gorm:"not null" json:"ownership_status"`
	MortgageInfo    string `json:"mortgage_info,omitempty"`

	// BAG
	Address      string  `gorm:"not null" json:"address"`
	PostalCode   string  `gorm:"not null" json:"postal_code"`
	City         string  `gorm:"not null" json:"city"`
	BuildingYear int     `gorm:"not null" json:"building_year"`
	FloorArea    float64 `gorm:"not null" json:"floor_area"`
	BuildingType string  `gorm:"not null" json:"building_type"`
	UsagePurpose string  `gorm:"not null" json:"usage_purpose"`

	// PDOK
	EnergyLabel string          `gorm:"not null" json:"energy_label"`
	WOZValue    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"woz_value"`
	WOZYear     int             `gorm:"not null" json:"woz_year"`
}
