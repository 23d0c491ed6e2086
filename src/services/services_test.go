package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"vbs/src/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

// newTestDB opens a fresh in-memory database with the full schema and the
// default transition table.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", testDBCounter.Add(1))
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, d.AutoMigrate(
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
	))

	transitions := models.DefaultStatusTransitions()
	require.NoError(t, d.Create(&transitions).Error)
	return d
}

// captureNotifier records events instead of delivering them.
type captureNotifier struct {
	events   []string
	payloads []map[string]any
}

func (n *captureNotifier) Notify(event string, payload map[string]any) error {
	n.events = append(n.events, event)
	n.payloads = append(n.payloads, payload)
	return nil
}

func newTestMachine(t *testing.T, d *gorm.DB) (*StateMachine, *captureNotifier) {
	t.Helper()
	notifier := &captureNotifier{}
	sm, err := NewStateMachine(d, notifier)
	require.NoError(t, err)
	return sm, notifier
}

func newTestBookingService(t *testing.T, d *gorm.DB) *BookingService {
	t.Helper()
	sm, _ := newTestMachine(t, d)
	return NewBookingService(d, NewPricingEngine(d, nil), NewDiscountComposer(), sm)
}
