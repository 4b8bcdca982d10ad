package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "domira/internal/errors"
	"domira/internal/models"
	"domira/internal/services"
)

// UserHandler handles wallet binding and KYC status requests.
type UserHandler struct {
	userService services.UserServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateWalletRequest represents the request payload for binding a wallet.
type UpdateWalletRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required,eth_address"`
}

// UpdateWallet binds a wallet address to the authenticated user.
// @Summary     Update wallet address
// @Description Bind a wallet to the authenticated user; resets KYC to pending on change
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateWalletRequest true "Wallet address"
// @Success     200 {object} map[string]interface{} "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /users/wallet [patch]
func (h *UserHandler) UpdateWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.UpdateWallet(userID, req.WalletAddress)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetKYCStatus reports a user's KYC verification state.
// @Summary     Get KYC status
// @Tags        users
// @Produce     json
// @Param       id path string true "User ID"
// @Success     200 {object} map[string]interface{} "KYC status"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/{id}/kyc-status [get]
func (h *UserHandler) GetKYCStatus(c *gin.Context) {
	userID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":            user.ID,
		"kyc_status":         user.KYCStatus,
		"wallet_whitelisted": user.KYCStatus == models.KYCStatusVerified,
	})
}
