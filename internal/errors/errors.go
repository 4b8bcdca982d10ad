// Package errors provides custom error types for the Domira API.
// All service-layer errors should use AppError so that handlers return
// consistent responses without leaking internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrKYCNotVerified = &AppError{Code: "KYC_NOT_VERIFIED", Message: "Buyer wallet is not KYC verified", StatusCode: http.StatusForbidden}
)

// Property registry errors.
var (
	ErrPropertyNotFound     = &AppError{Code: "PROPERTY_NOT_FOUND", Message: "Property not found", StatusCode: http.StatusNotFound}
	ErrPassportNotAvailable = &AppError{Code: "PASSPORT_NOT_AVAILABLE", Message: "Property passport not available", StatusCode: http.StatusNotFound}
	ErrAvailabilityRange    = &AppError{Code: "AVAILABILITY_OUT_OF_RANGE", Message: "Adjustment would leave available fractions outside [0, total]", StatusCode: http.StatusConflict}
)

// Marketplace errors.
var (
	ErrListingNotFound       = &AppError{Code: "LISTING_NOT_FOUND", Message: "Listing not found", StatusCode: http.StatusNotFound}
	ErrListingNotActive      = &AppError{Code: "LISTING_NOT_ACTIVE", Message: "Listing is no longer active", StatusCode: http.StatusBadRequest}
	ErrListingAlreadySold    = &AppError{Code: "LISTING_ALREADY_SOLD", Message: "Listing is already sold and cannot be cancelled", StatusCode: http.StatusConflict}
	ErrInvalidQuantity       = &AppError{Code: "INVALID_QUANTITY", Message: "Fraction quantity must be positive", StatusCode: http.StatusBadRequest}
	ErrInsufficientFractions = &AppError{Code: "INSUFFICIENT_FRACTIONS", Message: "Requested fractions exceed remaining quantity", StatusCode: http.StatusBadRequest}
)

// Distribution errors.
var (
	ErrNoHolderSnapshot = &AppError{Code: "NO_HOLDER_SNAPSHOT", Message: "No holder snapshot available for this property", StatusCode: http.StatusBadRequest}
)
