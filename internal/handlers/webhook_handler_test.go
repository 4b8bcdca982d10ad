package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"domira/internal/models"
	"domira/internal/services"
)

const webhookSecret = "whsec_test"

// --- mock whitelister ---

type mockWhitelister struct {
	setWhitelistedFn func(ctx context.Context, wallet string, status bool) (string, error)
	isWhitelistedFn  func(ctx context.Context, wallet string) (bool, error)
}

func (m *mockWhitelister) SetWhitelisted(ctx context.Context, wallet string, status bool) (string, error) {
	if m.setWhitelistedFn != nil {
		return m.setWhitelistedFn(ctx, wallet, status)
	}
	return "0xtxhash", nil
}

func (m *mockWhitelister) IsWhitelisted(ctx context.Context, wallet string) (bool, error) {
	if m.isWhitelistedFn != nil {
		return m.isWhitelistedFn(ctx, wallet)
	}
	return false, nil
}

var _ services.Whitelister = (*mockWhitelister)(nil)

// --- helpers ---

func signPayload(payload string, at time.Time) string {
	timestamp := fmt.Sprintf("%d", at.Unix())
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(timestamp + "." + payload))
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func doWebhookRequest(r *gin.Engine, payload, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupWebhookRouter(handler *WebhookHandler) *gin.Engine {
	r := gin.New()
	r.POST("/webhooks/stripe", handler.HandleStripeIdentity)
	return r
}

func verifiedEvent(userID string) string {
	return fmt.Sprintf(`{"id":"evt_1","type":"identity.verification_session.verified","data":{"object":{"id":"vs_1","status":"verified","metadata":{"user_id":%q}}}}`, userID)
}

// --- tests ---

func TestWebhookHandler_HandleStripeIdentity(t *testing.T) {
	t.Run("verified event updates kyc and whitelist", func(t *testing.T) {
		var updatedStatus models.KYCStatus
		userSvc := &mockUserService{
			updateKYCStatusFn: func(userID string, status models.KYCStatus) (*models.User, error) {
				updatedStatus = status
				return &models.User{
					Base:          models.Base{ID: userID},
					WalletAddress: testWallet,
					KYCStatus:     status,
				}, nil
			},
		}
		var whitelisted *bool
		wl := &mockWhitelister{
			setWhitelistedFn: func(_ context.Context, wallet string, status bool) (string, error) {
				whitelisted = &status
				return "0xabc", nil
			},
		}
		handler := NewWebhookHandler(userSvc, wl, webhookSecret)
		r := setupWebhookRouter(handler)

		payload := verifiedEvent(testUserID)
		rec := doWebhookRequest(r, payload, signPayload(payload, time.Now()))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if updatedStatus != models.KYCStatusVerified {
			t.Errorf("expected verified status, got %s", updatedStatus)
		}
		if whitelisted == nil || !*whitelisted {
			t.Error("expected wallet to be whitelisted")
		}
		result := parseJSON(t, rec)
		if result["whitelist_synced"] != true {
			t.Errorf("expected whitelist_synced true, got %v", result["whitelist_synced"])
		}
		if result["tx_hash"] != "0xabc" {
			t.Errorf("expected tx hash in response, got %v", result["tx_hash"])
		}
	})

	t.Run("requires_input event marks kyc failed", func(t *testing.T) {
		var updatedStatus models.KYCStatus
		userSvc := &mockUserService{
			updateKYCStatusFn: func(userID string, status models.KYCStatus) (*models.User, error) {
				updatedStatus = status
				return &models.User{Base: models.Base{ID: userID}, KYCStatus: status}, nil
			},
		}
		handler := NewWebhookHandler(userSvc, nil, webhookSecret)
		r := setupWebhookRouter(handler)

		payload := fmt.Sprintf(`{"id":"evt_2","type":"identity.verification_session.requires_input","data":{"object":{"metadata":{"user_id":%q}}}}`, testUserID)
		rec := doWebhookRequest(r, payload, signPayload(payload, time.Now()))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if updatedStatus != models.KYCStatusFailed {
			t.Errorf("expected failed status, got %s", updatedStatus)
		}
	})

	t.Run("whitelist failure reported but webhook succeeds", func(t *testing.T) {
		userSvc := &mockUserService{
			updateKYCStatusFn: func(userID string, status models.KYCStatus) (*models.User, error) {
				return &models.User{
					Base:          models.Base{ID: userID},
					WalletAddress: testWallet,
					KYCStatus:     status,
				}, nil
			},
		}
		wl := &mockWhitelister{
			setWhitelistedFn: func(_ context.Context, _ string, _ bool) (string, error) {
				return "", fmt.Errorf("rpc unavailable")
			},
		}
		handler := NewWebhookHandler(userSvc, wl, webhookSecret)
		r := setupWebhookRouter(handler)

		payload := verifiedEvent(testUserID)
		rec := doWebhookRequest(r, payload, signPayload(payload, time.Now()))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 despite whitelist failure, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["whitelist_synced"] != false {
			t.Errorf("expected whitelist_synced false, got %v", result["whitelist_synced"])
		}
	})

	t.Run("unhandled event acknowledged without update", func(t *testing.T) {
		updateCalled := false
		userSvc := &mockUserService{
			updateKYCStatusFn: func(userID string, status models.KYCStatus) (*models.User, error) {
				updateCalled = true
				return &models.User{}, nil
			},
		}
		handler := NewWebhookHandler(userSvc, nil, webhookSecret)
		r := setupWebhookRouter(handler)

		payload := `{"id":"evt_3","type":"identity.verification_session.created","data":{"object":{}}}`
		rec := doWebhookRequest(r, payload, signPayload(payload, time.Now()))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["handled"] != false {
			t.Errorf("expected handled false, got %v", result["handled"])
		}
		if updateCalled {
			t.Error("expected no KYC update for unhandled event")
		}
	})

	t.Run("rejects bad signature", func(t *testing.T) {
		handler := NewWebhookHandler(&mockUserService{}, nil, webhookSecret)
		r := setupWebhookRouter(handler)

		payload := verifiedEvent(testUserID)
		rec := doWebhookRequest(r, payload,
			fmt.Sprintf("t=%d,v1=deadbeef", time.Now().Unix()))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("rejects missing signature header", func(t *testing.T) {
		handler := NewWebhookHandler(&mockUserService{}, nil, webhookSecret)
		r := setupWebhookRouter(handler)

		rec := doWebhookRequest(r, verifiedEvent(testUserID), "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects stale timestamp", func(t *testing.T) {
		handler := NewWebhookHandler(&mockUserService{}, nil, webhookSecret)
		r := setupWebhookRouter(handler)

		payload := verifiedEvent(testUserID)
		rec := doWebhookRequest(r, payload, signPayload(payload, time.Now().Add(-time.Hour)))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects event without user metadata", func(t *testing.T) {
		handler := NewWebhookHandler(&mockUserService{}, nil, webhookSecret)
		r := setupWebhookRouter(handler)

		payload := `{"id":"evt_4","type":"identity.verification_session.verified","data":{"object":{"metadata":{}}}}`
		rec := doWebhookRequest(r, payload, signPayload(payload, time.Now()))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
