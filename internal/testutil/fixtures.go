package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"domira/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a verified user with a wallet and a hashed password.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	n := nextID()
	return CreateTestUserWithKYC(t, db,
		fmt.Sprintf("user%d@test.com", n),
		fmt.Sprintf("0x%040x", n),
		models.KYCStatusVerified)
}

// CreateTestUserWithKYC creates a user with the given email, wallet and
// KYC status.
func CreateTestUserWithKYC(t *testing.T, db *gorm.DB, email, wallet string, status models.KYCStatus) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:         email,
		Password:      string(hash),
		FullName:      fmt.Sprintf("Test User %d", nextID()),
		WalletAddress: wallet,
		KYCStatus:     status,
		IsActive:      true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestProperty creates a property with 1000 fractions at 250.00 each
// and 15% management fee on 12500.00 monthly rent.
func CreateTestProperty(t *testing.T, db *gorm.DB) *models.Property {
	t.Helper()
	return CreateTestPropertyWithFractions(t, db, 1000)
}

// CreateTestPropertyWithFractions creates a property with the given fraction
// count, all available.
func CreateTestPropertyWithFractions(t *testing.T, db *gorm.DB, totalFractions int64) *models.Property {
	t.Helper()

	n := nextID()
	property := &models.Property{
		Name:                 fmt.Sprintf("Test Property %d", n),
		Address:              fmt.Sprintf("Teststraat %d", n),
		City:                 "Almere",
		AskingPrice:          decimal.NewFromInt(250000),
		TotalFractions:       totalFractions,
		AvailableFractions:   totalFractions,
		PricePerFraction:     decimal.NewFromInt(250),
		ExpectedYield:        6.0,
		MonthlyRent:          decimal.RequireFromString("12500.00"),
		ManagementFeePercent: decimal.NewFromInt(15),
	}
	if err := db.Create(property).Error; err != nil {
		t.Fatalf("failed to create test property: %v", err)
	}
	return property
}

// CreateTestListing creates an active listing for the given seller and
// property.
func CreateTestListing(t *testing.T, db *gorm.DB, sellerID, propertyID string, fractions int64, price decimal.Decimal) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		SellerID:           sellerID,
		PropertyID:         propertyID,
		FractionsRemaining: fractions,
		PricePerFraction:   price,
		TotalPrice:         price.Mul(decimal.NewFromInt(fractions)),
		Status:             models.ListingStatusActive,
	}
	if err := db.Create(listing).Error; err != nil {
		t.Fatalf("failed to create test listing: %v", err)
	}
	return listing
}
