package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"domira/internal/models"
	"domira/internal/pagination"
)

// PropertyFilter holds optional filter parameters for listing properties.
type PropertyFilter struct {
	City     string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// PropertyServicer defines the contract for the property registry.
type PropertyServicer interface {
	CreateProperty(name, description, address, city string, askingPrice decimal.Decimal,
		totalFractions int64, pricePerFraction decimal.Decimal, expectedYield float64,
		monthlyRent, managementFeePercent decimal.Decimal) (*models.Property, error)
	GetPropertyByID(propertyID string) (*models.Property, error)
	GetPassport(propertyID string) (*models.PropertyPassport, error)
	ListProperties(filter PropertyFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Property], error)
	SetTokenID(propertyID string, tokenID int64) (*models.Property, error)
	AdjustAvailability(propertyID string, delta int64) (*models.Property, error)
}

// PurchaseResult summarizes a settled buy order.
type PurchaseResult struct {
	ListingID          string          `json:"listing_id"`
	FractionsBought    int64           `json:"fractions_bought"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	RemainingFractions int64           `json:"remaining_fractions"`
	ListingStatus      models.ListingStatus `json:"listing_status"`
}

// ListingFilter holds optional filter parameters for the active-listing view.
type ListingFilter struct {
	PropertyID string
	MaxPrice   *decimal.Decimal
}

// MarketplaceServicer defines the contract for the secondary-market order book.
type MarketplaceServicer interface {
	CreateListing(sellerID, propertyID string, fractions int64, pricePerFraction decimal.Decimal) (*models.Listing, error)
	GetListingByID(listingID string) (*models.Listing, error)
	ListActiveListings(filter ListingFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Listing], error)
	CancelListing(sellerID, listingID string) (*models.Listing, error)
	ExecuteBuyOrder(buyerID, listingID string, fractions int64) (*PurchaseResult, error)
}

// Holder is one entry of a holder snapshot: a wallet and the fraction count
// it held at snapshot time. A meaningful snapshot sums to the property's
// total fractions, pool/treasury wallets included; the calculator trusts
// this precondition rather than enforcing it.
type Holder struct {
	WalletAddress string `json:"wallet_address"`
	Fractions     int64  `json:"fractions"`
}

// HolderSource supplies the holder snapshot for an on-chain token at
// distribution time.
type HolderSource interface {
	HoldersOf(ctx context.Context, tokenID int64) ([]Holder, error)
}

// DistributionReport is the full pro-rata payout report for one property and
// one period. Immutable once produced.
type DistributionReport struct {
	PropertyID   string    `json:"property_id"`
	PropertyName string    `json:"property_name"`
	Period       string    `json:"period"`
	GeneratedAt  time.Time `json:"generated_at"`

	GrossIncome          decimal.Decimal `json:"gross_income"`
	ManagementFeePercent decimal.Decimal `json:"management_fee_percent"`
	ManagementFee        decimal.Decimal `json:"management_fee"`
	NetIncome            decimal.Decimal `json:"net_income"`
	IncomePerFraction    decimal.Decimal `json:"income_per_fraction"`

	TotalFractions   int64           `json:"total_fractions"`
	HolderCount      int             `json:"holder_count"`
	TotalDistributed decimal.Decimal `json:"total_distributed"`
	// Residual is round(net, 2) minus the sum of independently rounded
	// payouts. Reported, never absorbed; bounded by 0.005 per holder.
	Residual decimal.Decimal `json:"residual"`

	Payouts []models.Payout `json:"payouts"`
}

// DistributionServicer defines the contract for the rental-income
// distribution engine.
type DistributionServicer interface {
	ComputeDistribution(totalFractions int64, managementFeePercent, grossIncome decimal.Decimal, holders []Holder) (*DistributionReport, error)
	DistributeForProperty(ctx context.Context, propertyID, period string, grossOverride *decimal.Decimal, holders []Holder) (*DistributionReport, error)
	ListDistributions(propertyID string, page pagination.PageRequest) (*pagination.PageResponse[models.DistributionRecord], error)
}

// UserServicer defines the contract for user and KYC management.
type UserServicer interface {
	CreateUser(email, password, fullName, walletAddress string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	GetUserByWallet(walletAddress string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	UpdateWallet(userID, walletAddress string) (*models.User, error)
	UpdateKYCStatus(userID string, status models.KYCStatus) (*models.User, error)
	ListVerifiedWallets() ([]string, error)
}

// PassportGenerator produces property passport data for a newly onboarded
// property. The default implementation mocks Kadaster/BAG/PDOK lookups.
type PassportGenerator interface {
	Generate(address, city string) *models.PropertyPassport
}

// Whitelister mirrors the on-chain KYC whitelist. Calls are failable and
// slow; they must never run inside a ledger critical section.
type Whitelister interface {
	SetWhitelisted(ctx context.Context, walletAddress string, status bool) (txHash string, err error)
	IsWhitelisted(ctx context.Context, walletAddress string) (bool, error)
}
