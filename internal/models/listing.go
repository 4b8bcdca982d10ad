package models

import "github.com/shopspring/decimal"

// ListingStatus represents the lifecycle state of a marketplace listing.
// SOLD and CANCELLED are terminal.
type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusSold      ListingStatus = "sold"
	ListingStatusCancelled ListingStatus = "cancelled"
)

// Listing is a standing offer to sell a quantity of a property's fractions
// at a fixed unit price. PricePerFraction never changes after creation;
// TotalPrice is the displayed remaining value at ask and is recomputed on
// every fill.
type Listing struct {
	Base
	SellerID   string `gorm:"type:uuid;not null;index" json:"seller_id"`
	PropertyID string `gorm:"type:uuid;not null;index" json:"property_id"`

	FractionsRemaining int64           `gorm:"not null" json:"fractions_remaining"`
	PricePerFraction   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"price_per_fraction"`
	TotalPrice         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total_price"`
	Status             ListingStatus   `gorm:"not null;default:'active';index" json:"status"`

	Property Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Seller   User     `gorm:"foreignKey:SellerID" json:"-"`
}

// Terminal reports whether the listing can no longer be mutated.
func (l *Listing) Terminal() bool {
	return l.Status == ListingStatusSold || l.Status == ListingStatusCancelled
}
