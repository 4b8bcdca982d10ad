package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "domira/internal/errors"
	"domira/internal/logger"
	"domira/internal/models"
	"domira/internal/services"
)

// webhookTolerance bounds the age of an accepted Stripe signature timestamp.
const webhookTolerance = 5 * time.Minute

// WebhookHandler handles Stripe Identity webhook events. Verified sessions
// flip the user's KYC status and mirror the result to the on-chain whitelist.
type WebhookHandler struct {
	userService   services.UserServicer
	whitelister   services.Whitelister
	webhookSecret string
}

// NewWebhookHandler creates a new WebhookHandler. whitelister may be nil when
// no chain is configured; KYC status is still updated in the database.
func NewWebhookHandler(userService services.UserServicer, whitelister services.Whitelister, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		userService:   userService,
		whitelister:   whitelister,
		webhookSecret: webhookSecret,
	}
}

// stripeEvent is the subset of the Stripe event envelope we consume.
type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Status   string            `json:"status"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// HandleStripeIdentity processes identity.verification_session.* events.
// @Summary     Stripe Identity webhook
// @Description Receives verification session events and updates KYC status
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       Stripe-Signature header string true "Stripe signature header"
// @Success     200 {object} map[string]interface{} "Event processed"
// @Failure     400 {object} ErrorResponse "Malformed payload or signature"
// @Router      /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripeIdentity(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unable to read request body"))
		return
	}

	if err := verifyStripeSignature(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret); err != nil {
		respondWithError(c, err)
		return
	}

	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Malformed event payload"))
		return
	}

	var status models.KYCStatus
	switch event.Type {
	case "identity.verification_session.verified":
		status = models.KYCStatusVerified
	case "identity.verification_session.requires_input":
		status = models.KYCStatusFailed
	case "identity.verification_session.canceled":
		status = models.KYCStatusFailed
	default:
		// Unrecognized events are acknowledged so Stripe stops retrying.
		c.JSON(http.StatusOK, gin.H{"received": true, "handled": false})
		return
	}

	userID := event.Data.Object.Metadata["user_id"]
	if userID == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Event metadata missing user_id"))
		return
	}

	user, err := h.userService.UpdateKYCStatus(userID, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	logger.Get().Infow("kyc status updated from webhook",
		"event_id", event.ID,
		"user_id", user.ID,
		"kyc_status", status,
	)

	resp := gin.H{"received": true, "handled": true, "kyc_status": status}

	// Whitelist mirroring is best effort. The DB is the source of truth; a
	// failed chain call is reported but does not fail the webhook, since
	// Stripe retries would not make the chain healthier.
	if h.whitelister != nil && user.WalletAddress != "" {
		txHash, wlErr := h.whitelister.SetWhitelisted(c.Request.Context(), user.WalletAddress, status == models.KYCStatusVerified)
		if wlErr != nil {
			logger.Get().Errorw("whitelist sync failed",
				"user_id", user.ID,
				"wallet", user.WalletAddress,
				"error", wlErr.Error(),
			)
			resp["whitelist_synced"] = false
		} else {
			resp["whitelist_synced"] = true
			resp["tx_hash"] = txHash
		}
	}

	c.JSON(http.StatusOK, resp)
}

// verifyStripeSignature checks the Stripe-Signature header against the
// payload. The header carries a timestamp and one or more v1 signatures,
// each an HMAC-SHA256 of "<timestamp>.<payload>" keyed by the endpoint
// secret.
func verifyStripeSignature(payload []byte, header, secret string) error {
	if header == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Missing Stripe-Signature header")
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Malformed Stripe-Signature header")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Malformed signature timestamp")
	}
	if math.Abs(time.Since(time.Unix(ts, 0)).Seconds()) > webhookTolerance.Seconds() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return apperrors.WithMessage(apperrors.ErrUnauthorized, "Webhook signature verification failed")
}
