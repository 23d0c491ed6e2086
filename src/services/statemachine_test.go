package services

import (
	"testing"

	"vbs/src/models"
	"vbs/src/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedBooking(t *testing.T, d *gorm.DB, status types.BookingStatus, mutate func(*models.Booking)) *models.Booking {
	t.Helper()
	user := models.User{Name: "Sam", Email: "sam@example.com", CashbackBalance: 100}
	require.NoError(t, d.Create(&user).Error)
	booking := models.Booking{
		Reference:   "VB-20260601-TEST01",
		UserID:      user.ID,
		BookingType: types.BOOKABLE_TOUR,
		ItemID:      1,
		Adults:      2,
		Subtotal:    500,
		Total:       500,
		Status:      status,
	}
	if mutate != nil {
		mutate(&booking)
	}
	require.NoError(t, d.Create(&booking).Error)
	return &booking
}

func TestTransitionInvalidPath(t *testing.T) {
	d := newTestDB(t)
	sm, _ := newTestMachine(t, d)
	booking := seedBooking(t, d, types.BOOKING_PENDING, nil)

	_, err := sm.Transition(booking.ID, types.BOOKING_COMPLETED, types.ACTOR_ADMIN, nil, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionUnknownBooking(t *testing.T) {
	d := newTestDB(t)
	sm, _ := newTestMachine(t, d)

	_, err := sm.Transition(9999, types.BOOKING_CONFIRMED, types.ACTOR_ADMIN, nil, "")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestTransitionReasonRequired(t *testing.T) {
	d := newTestDB(t)
	sm, _ := newTestMachine(t, d)
	booking := seedBooking(t, d, types.BOOKING_PENDING, nil)

	_, err := sm.Transition(booking.ID, types.BOOKING_CANCELLED, types.ACTOR_USER, nil, "")
	assert.ErrorIs(t, err, ErrReasonRequired)

	result, err := sm.Transition(booking.ID, types.BOOKING_CANCELLED, types.ACTOR_USER, nil, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, types.BOOKING_CANCELLED, result.NewStatus)

	var reloaded models.Booking
	require.NoError(t, d.First(&reloaded, booking.ID).Error)
	require.NotNil(t, reloaded.CancellationReason)
	assert.Equal(t, "changed my mind", *reloaded.CancellationReason)
	assert.NotNil(t, reloaded.CancelledAt)
}

func TestTransitionUnauthorizedActor(t *testing.T) {
	d := newTestDB(t)
	sm, _ := newTestMachine(t, d)
	booking := seedBooking(t, d, types.BOOKING_CONFIRMED, nil)

	_, err := sm.Transition(booking.ID, types.BOOKING_PAID, types.ACTOR_USER, nil, "")
	assert.ErrorIs(t, err, ErrUnauthorizedActor)
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	d := newTestDB(t)
	sm, _ := newTestMachine(t, d)
	booking := seedBooking(t, d, types.BOOKING_PENDING, nil)

	result, err := sm.Transition(booking.ID, types.BOOKING_PENDING, types.ACTOR_ADMIN, nil, "")
	require.NoError(t, err)
	assert.True(t, result.NoOp)

	var count int64
	require.NoError(t, d.Model(&models.BookingStatusHistory{}).Where("booking_id = ?", booking.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestTransitionWritesHistory(t *testing.T) {
	d := newTestDB(t)
	sm, _ := newTestMachine(t, d)
	booking := seedBooking(t, d, types.BOOKING_PENDING, nil)

	adminId := uint(42)
	_, err := sm.Transition(booking.ID, types.BOOKING_CONFIRMED, types.ACTOR_ADMIN, &adminId, "")
	require.NoError(t, err)

	var history []models.BookingStatusHistory
	require.NoError(t, d.Where("booking_id = ?", booking.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, types.BOOKING_PENDING, history[0].OldStatus)
	assert.Equal(t, types.BOOKING_CONFIRMED, history[0].NewStatus)
	assert.Equal(t, types.ACTOR_ADMIN, history[0].ActorType)
	require.NotNil(t, history[0].ActorID)
	assert.Equal(t, adminId, *history[0].ActorID)
}

func TestCashbackCreditedExactlyOnce(t *testing.T) {
	d := newTestDB(t)
	sm, notifier := newTestMachine(t, d)
	booking := seedBooking(t, d, types.BOOKING_CONFIRMED, func(b *models.Booking) {
		b.CashbackEarned = 25
		b.CashbackStatus = types.CASHBACK_PENDING
	})

	result, err := sm.Transition(booking.ID, types.BOOKING_PAID, types.ACTOR_SYSTEM, nil, "")
	require.NoError(t, err)
	assert.False(t, result.NoOp)

	var user models.User
	require.NoError(t, d.First(&user, booking.UserID).Error)
	assert.Equal(t, 125.0, user.CashbackBalance)

	var reloaded models.Booking
	require.NoError(t, d.First(&reloaded, booking.ID).Error)
	assert.Equal(t, types.CASHBACK_CREDITED, reloaded.CashbackStatus)
	assert.NotNil(t, reloaded.PaidAt)

	// A replayed payment confirmation must not credit again.
	result, err = sm.Transition(booking.ID, types.BOOKING_PAID, types.ACTOR_SYSTEM, nil, "")
	require.NoError(t, err)
	assert.True(t, result.NoOp)

	require.NoError(t, d.First(&user, booking.UserID).Error)
	assert.Equal(t, 125.0, user.CashbackBalance)

	assert.Contains(t, notifier.events, "booking.paid")
}

func TestCancellingPaidBookingReversesEverything(t *testing.T) {
	d := newTestDB(t)
	sm, _ := newTestMachine(t, d)

	card := models.GiftCard{Code: "GC-TEST", InitialBalance: 200, Balance: 120, Status: types.GIFT_CARD_ACTIVE}
	require.NoError(t, d.Create(&card).Error)

	booking := seedBooking(t, d, types.BOOKING_CONFIRMED, func(b *models.Booking) {
		b.CashbackEarned = 25
		b.CashbackUsed = 40
		b.GiftCardID = &card.ID
		b.GiftCardAmount = 80
	})

	// Pay first so cashback gets credited.
	_, err := sm.Transition(booking.ID, types.BOOKING_PAID, types.ACTOR_SYSTEM, nil, "")
	require.NoError(t, err)

	var user models.User
	require.NoError(t, d.First(&user, booking.UserID).Error)
	require.Equal(t, 125.0, user.CashbackBalance)

	_, err = sm.Transition(booking.ID, types.BOOKING_CANCELLED, types.ACTOR_ADMIN, nil, "vendor unavailable")
	require.NoError(t, err)

	// Earned cashback clawed back, spent cashback returned.
	require.NoError(t, d.First(&user, booking.UserID).Error)
	assert.Equal(t, 140.0, user.CashbackBalance)

	var reloadedCard models.GiftCard
	require.NoError(t, d.First(&reloadedCard, card.ID).Error)
	assert.Equal(t, 200.0, reloadedCard.Balance)
	assert.Equal(t, types.GIFT_CARD_ACTIVE, reloadedCard.Status)

	var reloaded models.Booking
	require.NoError(t, d.First(&reloaded, booking.ID).Error)
	assert.Equal(t, types.CASHBACK_DEDUCTED, reloaded.CashbackStatus)
}

func TestCompletionUpdatesVendorStats(t *testing.T) {
	d := newTestDB(t)
	sm, _ := newTestMachine(t, d)

	vendor := models.Vendor{Name: "Blue Horizon", CommissionRate: 10, Active: true}
	require.NoError(t, d.Create(&vendor).Error)

	booking := seedBooking(t, d, types.BOOKING_PAID, func(b *models.Booking) {
		b.VendorID = &vendor.ID
		b.Total = 640
	})

	_, err := sm.Transition(booking.ID, types.BOOKING_COMPLETED, types.ACTOR_SYSTEM, nil, "")
	require.NoError(t, err)

	var reloaded models.Vendor
	require.NoError(t, d.First(&reloaded, vendor.ID).Error)
	assert.Equal(t, uint(1), reloaded.TotalBookings)
	assert.Equal(t, 640.0, reloaded.TotalRevenue)
}

func TestUnknownAutoActionRejectedAtLoad(t *testing.T) {
	d := newTestDB(t)
	row := models.StatusTransition{
		FromStatus:    types.BOOKING_CONFIRMED,
		ToStatus:      types.BOOKING_NO_SHOW,
		AllowedActors: types.StringList{string(types.ACTOR_ADMIN)},
		AutoActions:   types.StringList{"send_carrier_pigeon"},
	}
	require.NoError(t, d.Create(&row).Error)

	_, err := NewStateMachine(d, nil)
	assert.ErrorIs(t, err, ErrUnknownAutoAction)
}

func TestReloadPicksUpTableChanges(t *testing.T) {
	d := newTestDB(t)
	sm, _ := newTestMachine(t, d)
	booking := seedBooking(t, d, types.BOOKING_CONFIRMED, nil)

	_, err := sm.Transition(booking.ID, types.BOOKING_NO_SHOW, types.ACTOR_ADMIN, nil, "guest absent")
	require.ErrorIs(t, err, ErrInvalidTransition)

	row := models.StatusTransition{
		FromStatus:    types.BOOKING_CONFIRMED,
		ToStatus:      types.BOOKING_NO_SHOW,
		AllowedActors: types.StringList{string(types.ACTOR_ADMIN)},
	}
	require.NoError(t, d.Create(&row).Error)
	require.NoError(t, sm.Reload())

	_, err = sm.Transition(booking.ID, types.BOOKING_NO_SHOW, types.ACTOR_ADMIN, nil, "guest absent")
	assert.NoError(t, err)
}
