package models

import (
	"github.com/shopspring/decimal"
)

// Payout is one holder's share of a period's net rental income.
type Payout struct {
	WalletAddress string          `json:"wallet_address"`
	Fractions     int64           `json:"fractions"`
	Percentage    decimal.Decimal `json:"percentage"`
	Amount        decimal.Decimal `json:"amount"`
}

// DistributionRecord stores a generated rental-income distribution report.
// The calculator itself never persists anything; the trigger endpoint and the
// CLI store records through this model for audit and replay.
type DistributionRecord struct {
	Base
	PropertyID string `gorm:"type:uuid;not null;index:idx_distributions_property_period" json:"property_id"`
	Period     string `gorm:"not null;index:idx_distributions_property_period" json:"period"`

	GrossIncome          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"gross_income"`
	ManagementFeePercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"management_fee_percent"`
	ManagementFee        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"management_fee"`
	NetIncome            decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"net_income"`
	IncomePerFraction    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"income_per_fraction"`

	TotalFractions   int64           `gorm:"not null" json:"total_fractions"`
	HolderCount      int             `gorm:"not null" json:"holder_count"`
	TotalDistributed decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total_distributed"`
	Residual         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"residual"`

	Payouts []Payout `gorm:"serializer:json" json:"payouts"`

	Property Property `gorm:"foreignKey:PropertyID" json:"-"`
}
