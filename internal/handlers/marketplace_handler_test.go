package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "domira/internal/errors"
	"domira/internal/models"
	"domira/internal/pagination"
	"domira/internal/services"
)

// --- mock marketplace service ---

type mockMarketplaceService struct {
	createListingFn      func(sellerID, propertyID string, fractions int64, price decimal.Decimal) (*models.Listing, error)
	getListingByIDFn     func(listingID string) (*models.Listing, error)
	listActiveListingsFn func(filter services.ListingFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Listing], error)
	cancelListingFn      func(sellerID, listingID string) (*models.Listing, error)
	executeBuyOrderFn    func(buyerID, listingID string, fractions int64) (*services.PurchaseResult, error)
}

func (m *mockMarketplaceService) CreateListing(sellerID, propertyID string, fractions int64, price decimal.Decimal) (*models.Listing, error) {
	if m.createListingFn != nil {
		return m.createListingFn(sellerID, propertyID, fractions, price)
	}
	return &models.Listing{}, nil
}

func (m *mockMarketplaceService) GetListingByID(listingID string) (*models.Listing, error) {
	if m.getListingByIDFn != nil {
		return m.getListingByIDFn(listingID)
	}
	return &models.Listing{}, nil
}

func (m *mockMarketplaceService) ListActiveListings(filter services.ListingFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Listing], error) {
	if m.listActiveListingsFn != nil {
		return m.listActiveListingsFn(filter, page)
	}
	resp := pagination.NewPageResponse([]models.Listing{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockMarketplaceService) CancelListing(sellerID, listingID string) (*models.Listing, error) {
	if m.cancelListingFn != nil {
		return m.cancelListingFn(sellerID, listingID)
	}
	return &models.Listing{}, nil
}

func (m *mockMarketplaceService) ExecuteBuyOrder(buyerID, listingID string, fractions int64) (*services.PurchaseResult, error) {
	if m.executeBuyOrderFn != nil {
		return m.executeBuyOrderFn(buyerID, listingID, fractions)
	}
	return &services.PurchaseResult{}, nil
}

// verify interface compliance
var _ services.MarketplaceServicer = (*mockMarketplaceService)(nil)

func verifiedUserService() *mockUserService {
	return &mockUserService{
		getUserByIDFn: func(id string) (*models.User, error) {
			return &models.User{
				Base:          models.Base{ID: id},
				WalletAddress: testWallet,
				KYCStatus:     models.KYCStatusVerified,
			}, nil
		},
	}
}

func setupMarketplaceRouter(handler *MarketplaceHandler) *gin.Engine {
	r := gin.New()
	r.GET("/marketplace/listings", handler.ListListings)
	r.GET("/marketplace/listings/:id", handler.GetListing)
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/marketplace/listings", handler.CreateListing)
	auth.POST("/marketplace/listings/:id/cancel", handler.CancelListing)
	auth.POST("/marketplace/listings/:id/buy", handler.Buy)
	return r
}

// --- tests ---

func TestMarketplaceHandler_CreateListing(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		mktSvc := &mockMarketplaceService{
			createListingFn: func(sellerID, propertyID string, fractions int64, price decimal.Decimal) (*models.Listing, error) {
				return &models.Listing{
					Base:               models.Base{ID: testListingID},
					SellerID:           sellerID,
					PropertyID:         propertyID,
					FractionsRemaining: fractions,
					PricePerFraction:   price,
					TotalPrice:         price.Mul(decimal.NewFromInt(fractions)),
					Status:             models.ListingStatusActive,
				}, nil
			},
		}
		handler := NewMarketplaceHandler(mktSvc, verifiedUserService())
		r := setupMarketplaceRouter(handler)

		rec := doRequest(r, "POST", "/marketplace/listings",
			fmt.Sprintf(`{"property_id":%q,"fractions":100,"price_per_fraction":"250.00"}`, testPropertyID))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		listing := result["listing"].(map[string]interface{})
		if listing["status"] != "active" {
			t.Errorf("expected active status, got %v", listing["status"])
		}
	})

	t.Run("returns 400 on missing property", func(t *testing.T) {
		handler := NewMarketplaceHandler(&mockMarketplaceService{}, verifiedUserService())
		r := setupMarketplaceRouter(handler)

		rec := doRequest(r, "POST", "/marketplace/listings",
			`{"fractions":100,"price_per_fraction":"250.00"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestMarketplaceHandler_Buy(t *testing.T) {
	t.Run("returns 200 with purchase result", func(t *testing.T) {
		mktSvc := &mockMarketplaceService{
			executeBuyOrderFn: func(buyerID, listingID string, fractions int64) (*services.PurchaseResult, error) {
				return &services.PurchaseResult{
					ListingID:          listingID,
					FractionsBought:    fractions,
					TotalCost:          decimal.NewFromInt(fractions * 250),
					RemainingFractions: 100 - fractions,
					ListingStatus:      models.ListingStatusActive,
				}, nil
			},
		}
		handler := NewMarketplaceHandler(mktSvc, verifiedUserService())
		r := setupMarketplaceRouter(handler)

		rec := doRequest(r, "POST", "/marketplace/listings/"+testListingID+"/buy", `{"fractions":40}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		purchase := result["purchase"].(map[string]interface{})
		if purchase["fractions_bought"] != float64(40) {
			t.Errorf("expected 40 fractions bought, got %v", purchase["fractions_bought"])
		}
	})

	t.Run("returns 403 when buyer is not KYC verified", func(t *testing.T) {
		buyCalled := false
		mktSvc := &mockMarketplaceService{
			executeBuyOrderFn: func(_, _ string, _ int64) (*services.PurchaseResult, error) {
				buyCalled = true
				return &services.PurchaseResult{}, nil
			},
		}
		userSvc := &mockUserService{
			getUserByIDFn: func(id string) (*models.User, error) {
				return &models.User{
					Base:          models.Base{ID: id},
					WalletAddress: testWallet,
					KYCStatus:     models.KYCStatusPending,
				}, nil
			},
		}
		handler := NewMarketplaceHandler(mktSvc, userSvc)
		r := setupMarketplaceRouter(handler)

		rec := doRequest(r, "POST", "/marketplace/listings/"+testListingID+"/buy", `{"fractions":40}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "KYC_NOT_VERIFIED")
		if buyCalled {
			t.Error("expected buy order not to reach the order book")
		}
	})

	t.Run("returns 403 when buyer has no wallet", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByIDFn: func(id string) (*models.User, error) {
				return &models.User{
					Base:      models.Base{ID: id},
					KYCStatus: models.KYCStatusVerified,
				}, nil
			},
		}
		handler := NewMarketplaceHandler(&mockMarketplaceService{}, userSvc)
		r := setupMarketplaceRouter(handler)

		rec := doRequest(r, "POST", "/marketplace/listings/"+testListingID+"/buy", `{"fractions":40}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on insufficient fractions", func(t *testing.T) {
		mktSvc := &mockMarketplaceService{
			executeBuyOrderFn: func(_, _ string, _ int64) (*services.PurchaseResult, error) {
				return nil, apperrors.ErrInsufficientFractions
			},
		}
		handler := NewMarketplaceHandler(mktSvc, verifiedUserService())
		r := setupMarketplaceRouter(handler)

		rec := doRequest(r, "POST", "/marketplace/listings/"+testListingID+"/buy", `{"fractions":500}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INSUFFICIENT_FRACTIONS")
	})

	t.Run("returns 400 on invalid listing id", func(t *testing.T) {
		handler := NewMarketplaceHandler(&mockMarketplaceService{}, verifiedUserService())
		r := setupMarketplaceRouter(handler)

		rec := doRequest(r, "POST", "/marketplace/listings/not-a-uuid/buy", `{"fractions":40}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestMarketplaceHandler_CancelListing(t *testing.T) {
	t.Run("returns 409 when already sold", func(t *testing.T) {
		mktSvc := &mockMarketplaceService{
			cancelListingFn: func(_, _ string) (*models.Listing, error) {
				return nil, apperrors.ErrListingAlreadySold
			},
		}
		handler := NewMarketplaceHandler(mktSvc, verifiedUserService())
		r := setupMarketplaceRouter(handler)

		rec := doRequest(r, "POST", "/marketplace/listings/"+testListingID+"/cancel", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "LISTING_ALREADY_SOLD")
	})

	t.Run("returns 403 for non-seller", func(t *testing.T) {
		mktSvc := &mockMarketplaceService{
			cancelListingFn: func(_, _ string) (*models.Listing, error) {
				return nil, apperrors.ErrForbidden
			},
		}
		handler := NewMarketplaceHandler(mktSvc, verifiedUserService())
		r := setupMarketplaceRouter(handler)

		rec := doRequest(r, "POST", "/marketplace/listings/"+testListingID+"/cancel", "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestMarketplaceHandler_ListListings(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		var captured services.ListingFilter
		mktSvc := &mockMarketplaceService{
			listActiveListingsFn: func(filter services.ListingFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Listing], error) {
				captured = filter
				resp := pagination.NewPageResponse([]models.Listing{}, page.Page, page.PageSize, 0)
				return &resp, nil
			},
		}
		handler := NewMarketplaceHandler(mktSvc, verifiedUserService())
		r := setupMarketplaceRouter(handler)

		rec := doRequest(r, "GET",
			"/marketplace/listings?property_id="+testPropertyID+"&max_price=300", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured.PropertyID != testPropertyID {
			t.Errorf("expected property filter %s, got %s", testPropertyID, captured.PropertyID)
		}
		if captured.MaxPrice == nil || !captured.MaxPrice.Equal(decimal.NewFromInt(300)) {
			t.Errorf("expected max price 300, got %v", captured.MaxPrice)
		}
	})
}
