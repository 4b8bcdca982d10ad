package services

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "domira/internal/errors"
	"domira/internal/models"
)

// userService handles user accounts, wallet binding, and KYC state.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// CreateUser registers a new user with a bcrypt-hashed password. KYC starts
// pending; verification flows exclusively through the identity webhook.
func (s *userService) CreateUser(email, password, fullName, walletAddress string) (*models.User, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:         email,
		Password:      string(hash),
		FullName:      fullName,
		WalletAddress: walletAddress,
		KYCStatus:     models.KYCStatusPending,
		IsActive:      true,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// GetUserByEmail returns a user by email.
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID returns a user by ID.
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByWallet returns the user bound to a wallet address.
func (s *userService) GetUserByWallet(walletAddress string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "wallet_address = ?", walletAddress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks a plaintext password against the stored hash and
// records the login time on success.
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return false
	}
	now := time.Now()
	_ = s.db.Model(user).Update("last_login_at", &now).Error
	return true
}

// UpdateWallet binds a new wallet address to the user. A wallet change
// resets KYC to pending: the old whitelist entry does not carry over.
func (s *userService) UpdateWallet(userID, walletAddress string) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"wallet_address": walletAddress}
	if user.WalletAddress != walletAddress {
		updates["kyc_status"] = models.KYCStatusPending
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// UpdateKYCStatus sets the user's KYC verification state.
func (s *userService) UpdateKYCStatus(userID string, status models.KYCStatus) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(user).Update("kyc_status", status).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// ListVerifiedWallets returns the wallet addresses of all KYC-verified
// users. Used to enumerate candidate holders for on-chain balance queries.
func (s *userService) ListVerifiedWallets() ([]string, error) {
	var wallets []string
	if err := s.db.Model(&models.User{}).
		Where("kyc_status = ? AND wallet_address <> ''", models.KYCStatusVerified).
		Pluck("wallet_address", &wallets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return wallets, nil
}
