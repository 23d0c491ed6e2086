package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"vbs/src/db"
	"vbs/src/middlewares"
	"vbs/src/models"
	"vbs/src/services"
	"vbs/src/types"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type TestSuite struct {
	suite.Suite
	DB         *gorm.DB
	Router     *gin.Engine
	User       models.User
	Admin      models.User
	UserToken  string
	AdminToken string
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", bookableDateValidatorFunc)
	}

	d, err := gorm.Open(sqlite.Open("file:maintest?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("error opening test database: %s", err.Error())
	}
	db.NewDB(d)
	s.DB = d

	err = d.AutoMigrate(
		&models.User{},
		&models.LoyaltyTier{},
		&models.Vendor{},
		&models.Vessel{},
		&models.Tour{},
		&models.Addon{},
		&models.Package{},
		&models.PricingRule{},
		&models.PromoCode{},
		&models.PromoUsage{},
		&models.GiftCard{},
		&models.StatusTransition{},
		&models.Booking{},
		&models.BookingAddon{},
		&models.BookingStatusHistory{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}
	transitions := models.DefaultStatusTransitions()
	if err := d.Create(&transitions).Error; err != nil {
		log.Fatalf("error seeding transitions: %s", err.Error())
	}

	s.User = models.User{Name: "Test User", Email: "someone@example.com", Role: "user", CashbackBalance: 100}
	s.Admin = models.User{Name: "Test Admin", Email: "admin@example.com", Role: "admin"}
	if err := d.Create(&s.User).Error; err != nil {
		log.Fatalf("Could not create user: %s", err.Error())
	}
	if err := d.Create(&s.Admin).Error; err != nil {
		log.Fatalf("Could not create admin: %s", err.Error())
	}
	s.UserToken, err = generateJWT(s.User.Email, s.User.ID, s.User.Role)
	if err != nil {
		log.Fatalf("Error generating JWT token: %s", err.Error())
	}
	s.AdminToken, err = generateJWT(s.Admin.Email, s.Admin.ID, s.Admin.Role)
	if err != nil {
		log.Fatalf("Error generating JWT token: %s", err.Error())
	}

	sm, err := services.NewStateMachine(d, nil)
	if err != nil {
		log.Fatalf("Error building state machine: %s", err.Error())
	}
	stateMachine = sm
	pricingEngine = services.NewPricingEngine(d, nil)
	discountComposer = services.NewDiscountComposer()
	bookingService = services.NewBookingService(d, pricingEngine, discountComposer, stateMachine)
	sweepService = services.NewSweepService(d, stateMachine)

	router := setupRouter()
	stripeWebhookRoute(router)
	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	{
		quoteHandlers(authorized)
		bookingHandlers(authorized)
	}
	admin := router.Group(apiPrefix + "/admin")
	admin.Use(middlewares.AuthMiddleware, middlewares.RequireRole("admin", "vendor"))
	{
		adminHandlers(admin)
	}
	s.Router = router
}

func (s *TestSuite) TearDownSuite() {
	inner, err := s.DB.DB()
	if err != nil {
		log.Printf("Error accessing inner db instance: %s\n", err.Error())
		return
	}
	inner.Close()
}

func (s *TestSuite) request(method, target, token string, body any) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}
	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *TestSuite) TestPingRoute() {
	w := s.request("GET", "/", "", nil)
	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestBookingsRequireAuth() {
	w := s.request("GET", "/api/v1/bookings", "", nil)
	assert.Equal(s.T(), 401, w.Code)
}

func (s *TestSuite) TestQuoteRoute() {
	tour := models.Tour{Name: "Quote Tour", PriceAdult: 90, Active: true}
	s.Require().NoError(s.DB.Create(&tour).Error)

	date := time.Now().AddDate(0, 0, 7).Format(types.DATE_PARSE_FORMAT)
	w := s.request("POST", "/api/v1/quote", s.UserToken, map[string]any{
		"booking_type": "tour",
		"item_id":      tour.ID,
		"date":         date,
		"adults":       2,
	})
	s.Require().Equal(200, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(s.T(), 180.0, gjson.Get(body, "data.subtotal").Float())
	assert.Equal(s.T(), 180.0, gjson.Get(body, "data.discounts.total").Float())
}

func (s *TestSuite) TestQuoteRejectsPastDate() {
	tour := models.Tour{Name: "Past Tour", PriceAdult: 90, Active: true}
	s.Require().NoError(s.DB.Create(&tour).Error)

	w := s.request("POST", "/api/v1/quote", s.UserToken, map[string]any{
		"booking_type": "tour",
		"item_id":      tour.ID,
		"date":         "2020-01-01",
		"adults":       2,
	})
	assert.Equal(s.T(), 400, w.Code)
}

func (s *TestSuite) TestBookingLifecycleOverHTTP() {
	tour := models.Tour{Name: "Lifecycle Tour", PriceAdult: 75, Active: true}
	s.Require().NoError(s.DB.Create(&tour).Error)

	date := time.Now().AddDate(0, 0, 10).Format(types.DATE_PARSE_FORMAT)
	w := s.request("POST", "/api/v1/bookings", s.UserToken, map[string]any{
		"booking_type": "tour",
		"item_id":      tour.ID,
		"date":         date,
		"adults":       2,
	})
	s.Require().Equal(201, w.Code, w.Body.String())
	created := w.Body.String()
	bookingId := gjson.Get(created, "data.id").Uint()
	s.Require().Greater(bookingId, uint64(0))
	assert.Equal(s.T(), "pending", gjson.Get(created, "data.status").String())
	assert.True(s.T(), strings.HasPrefix(gjson.Get(created, "data.reference").String(), "VB-"))

	w = s.request("GET", fmt.Sprintf("/api/v1/bookings/%d", bookingId), s.UserToken, nil)
	s.Require().Equal(200, w.Code)

	w = s.request("GET", fmt.Sprintf("/api/v1/bookings/%d/history", bookingId), s.UserToken, nil)
	s.Require().Equal(200, w.Code)
	assert.Equal(s.T(), int64(1), gjson.Get(w.Body.String(), "count").Int())

	// Admin confirms, then the user cancels with a reason.
	w = s.request("PUT", fmt.Sprintf("/api/v1/admin/bookings/%d/status", bookingId), s.AdminToken, map[string]any{
		"status": "confirmed",
	})
	s.Require().Equal(200, w.Code, w.Body.String())
	assert.Equal(s.T(), "confirmed", gjson.Get(w.Body.String(), "data.new_status").String())

	w = s.request("PUT", fmt.Sprintf("/api/v1/bookings/%d/cancel", bookingId), s.UserToken, map[string]any{
		"reason": "plans changed",
	})
	s.Require().Equal(200, w.Code, w.Body.String())

	var reloaded models.Booking
	s.Require().NoError(s.DB.First(&reloaded, bookingId).Error)
	assert.Equal(s.T(), types.BOOKING_CANCELLED, reloaded.Status)
}

func (s *TestSuite) TestCancelWithoutReasonRejected() {
	tour := models.Tour{Name: "Reasonless Tour", PriceAdult: 75, Active: true}
	s.Require().NoError(s.DB.Create(&tour).Error)

	date := time.Now().AddDate(0, 0, 10).Format(types.DATE_PARSE_FORMAT)
	w := s.request("POST", "/api/v1/bookings", s.UserToken, map[string]any{
		"booking_type": "tour",
		"item_id":      tour.ID,
		"date":         date,
		"adults":       1,
	})
	s.Require().Equal(201, w.Code)
	bookingId := gjson.Get(w.Body.String(), "data.id").Uint()

	w = s.request("PUT", fmt.Sprintf("/api/v1/bookings/%d/cancel", bookingId), s.UserToken, map[string]any{})
	assert.Equal(s.T(), 400, w.Code)
}

func (s *TestSuite) TestAdminRoutesForbiddenForUsers() {
	w := s.request("GET", "/api/v1/admin/pricing-rules", s.UserToken, nil)
	assert.Equal(s.T(), 403, w.Code)

	w = s.request("GET", "/api/v1/admin/pricing-rules", s.AdminToken, nil)
	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestAdminInvalidStatusChange() {
	tour := models.Tour{Name: "Conflict Tour", PriceAdult: 75, Active: true}
	s.Require().NoError(s.DB.Create(&tour).Error)

	date := time.Now().AddDate(0, 0, 10).Format(types.DATE_PARSE_FORMAT)
	w := s.request("POST", "/api/v1/bookings", s.UserToken, map[string]any{
		"booking_type": "tour",
		"item_id":      tour.ID,
		"date":         date,
		"adults":       1,
	})
	s.Require().Equal(201, w.Code)
	bookingId := gjson.Get(w.Body.String(), "data.id").Uint()

	w = s.request("PUT", fmt.Sprintf("/api/v1/admin/bookings/%d/status", bookingId), s.AdminToken, map[string]any{
		"status": "completed",
	})
	assert.Equal(s.T(), 409, w.Code)
}

func (s *TestSuite) TestCheckoutRejectedWhilePending() {
	tour := models.Tour{Name: "Unpaid Tour", PriceAdult: 75, Active: true}
	s.Require().NoError(s.DB.Create(&tour).Error)

	date := time.Now().AddDate(0, 0, 10).Format(types.DATE_PARSE_FORMAT)
	w := s.request("POST", "/api/v1/bookings", s.UserToken, map[string]any{
		"booking_type": "tour",
		"item_id":      tour.ID,
		"date":         date,
		"adults":       1,
	})
	s.Require().Equal(201, w.Code)
	bookingId := gjson.Get(w.Body.String(), "data.id").Uint()

	// A pending booking has no path to paid, so letting the user pay here
	// would strand the money.
	w = s.request("POST", fmt.Sprintf("/api/v1/bookings/%d/checkout", bookingId), s.UserToken, nil)
	assert.Equal(s.T(), 409, w.Code)

	var reloaded models.Booking
	s.Require().NoError(s.DB.First(&reloaded, bookingId).Error)
	assert.Equal(s.T(), types.BOOKING_PENDING, reloaded.Status)
}

func (s *TestSuite) TestStripeWebhookRejectsUnsignedPayload() {
	w := s.request("POST", "/api/v1/webhook/stripe", "", map[string]any{"type": "checkout.session.completed"})
	assert.Equal(s.T(), 400, w.Code)
}

func (s *TestSuite) TestTransitionsListedForAdmin() {
	w := s.request("GET", "/api/v1/admin/transitions", s.AdminToken, nil)
	s.Require().Equal(200, w.Code)
	assert.Greater(s.T(), gjson.Get(w.Body.String(), "count").Int(), int64(0))
}

func TestSuiteRun(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
