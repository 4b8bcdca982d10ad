// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	ethAddressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	periodRegex     = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("eth_address", validateEthAddress)
		_ = v.RegisterValidation("period", validatePeriod)
		_ = v.RegisterValidation("kyc_status", validateKYCStatus)
		_ = v.RegisterValidation("listing_status", validateListingStatus)
	}
}

func validateEthAddress(fl validator.FieldLevel) bool {
	return ethAddressRegex.MatchString(fl.Field().String())
}

// validatePeriod accepts YYYY-MM distribution period labels.
func validatePeriod(fl validator.FieldLevel) bool {
	return periodRegex.MatchString(fl.Field().String())
}

func validateKYCStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "pending", "verified", "failed", "expired":
		return true
	}
	return false
}

func validateListingStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "active", "sold", "cancelled":
		return true
	}
	return false
}
