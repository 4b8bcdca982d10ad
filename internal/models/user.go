package models

import "time"

// KYCStatus represents the identity-verification state of a user.
type KYCStatus string

const (
	KYCStatusPending  KYCStatus = "pending"
	KYCStatusVerified KYCStatus = "verified"
	KYCStatusFailed   KYCStatus = "failed"
	KYCStatusExpired  KYCStatus = "expired"
)

// User represents an investor account.
type User struct {
	Base
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	Password      string     `gorm:"not null" json:"-"`
	FullName      string     `gorm:"not null" json:"full_name"`
	WalletAddress string     `gorm:"index" json:"wallet_address,omitempty"`
	KYCStatus     KYCStatus  `gorm:"not null;default:'pending'" json:"kyc_status"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`

	Listings []Listing `gorm:"foreignKey:SellerID" json:"listings,omitempty"`
}

// Whitelisted reports whether the user's wallet may settle buy orders.
func (u *User) Whitelisted() bool {
	return u.KYCStatus == KYCStatusVerified && u.WalletAddress != ""
}
