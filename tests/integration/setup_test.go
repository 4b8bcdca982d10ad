package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"domira/internal/handlers"
	"domira/internal/logger"
	"domira/internal/middleware"
	"domira/internal/models"
	"domira/internal/services"
	"domira/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB          *gorm.DB
	Router      *gin.Engine
	UserService services.UserServicer
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_busy_timeout=5000", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Property{},
		&models.PropertyPassport{},
		&models.Listing{},
		&models.DistributionRecord{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services (no chain client: explicit holder snapshots only)
	userService := services.NewUserService(db)
	passportService := services.NewPassportService()
	propertyService := services.NewPropertyService(db, passportService)
	marketplaceService := services.NewMarketplaceService(db, propertyService)
	distributionService := services.NewDistributionService(db, propertyService, nil)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	propertyHandler := handlers.NewPropertyHandler(propertyService)
	marketplaceHandler := handlers.NewMarketplaceHandler(marketplaceService, userService)
	distributionHandler := handlers.NewDistributionHandler(distributionService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	v1.GET("/properties", propertyHandler.ListProperties)
	v1.GET("/properties/:id", propertyHandler.GetProperty)
	v1.GET("/properties/:id/passport", propertyHandler.GetPassport)
	v1.GET("/properties/:id/distributions", distributionHandler.ListDistributions)
	v1.GET("/marketplace/listings", marketplaceHandler.ListListings)
	v1.GET("/marketplace/listings/:id", marketplaceHandler.GetListing)
	v1.GET("/users/:id/kyc-status", userHandler.GetKYCStatus)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.PATCH("/users/wallet", userHandler.UpdateWallet)

	properties := protected.Group("/properties")
	properties.POST("", propertyHandler.CreateProperty)
	properties.PATCH("/:id/token", propertyHandler.SetTokenID)
	properties.PATCH("/:id/availability", propertyHandler.AdjustAvailability)

	listings := protected.Group("/marketplace/listings")
	listings.POST("", marketplaceHandler.CreateListing)
	listings.POST("/:id/cancel", marketplaceHandler.CancelListing)
	listings.POST("/:id/buy", marketplaceHandler.Buy)

	protected.POST("/distributions", distributionHandler.Distribute)

	return &testApp{DB: db, Router: router, UserService: userService}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email, wallet string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"password123","full_name":"Test User","wallet_address":%q}`, email, wallet)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

// verifyKYC marks a user's KYC as verified directly through the service, the
// way the identity webhook would.
func (app *testApp) verifyKYC(t *testing.T, userID string) {
	t.Helper()
	if _, err := app.UserService.UpdateKYCStatus(userID, models.KYCStatusVerified); err != nil {
		t.Fatalf("failed to verify KYC: %v", err)
	}
}

// createProperty onboards a 1000-fraction property and returns its ID.
func (app *testApp) createProperty(t *testing.T, token string) string {
	t.Helper()
	body := `{"name":"Weerwater Residence","address":"Weerwater 12","asking_price":"250000",` +
		`"total_fractions":1000,"price_per_fraction":"250","expected_yield":6.0,` +
		`"monthly_rent":"12500.00","management_fee_percent":"15"}`
	rec := app.request("POST", "/api/v1/properties", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create property failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	property := result["property"].(map[string]interface{})
	return property["id"].(string)
}
