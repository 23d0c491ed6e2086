package services

import "errors"

var (
	ErrItemNotFound       = errors.New("bookable item not found")
	ErrInvalidBookingType = errors.New("invalid booking type")
	ErrDurationRequired   = errors.New("duration is required for vessel bookings")

	ErrPromoNotFound  = errors.New("promo code not found")
	ErrPromoInactive  = errors.New("promo code is not active")
	ErrPromoExpired   = errors.New("promo code has expired")
	ErrPromoExhausted = errors.New("promo code usage limit reached")
	ErrPromoMinAmount = errors.New("order amount below promo code minimum")

	ErrGiftCardNotFound = errors.New("gift card not found")
	ErrGiftCardInvalid  = errors.New("gift card is not redeemable")
	ErrGiftCardExpired  = errors.New("gift card has expired")

	ErrAddonNotFound = errors.New("addon not found")

	ErrPackageNotFound  = errors.New("package not found")
	ErrPackageInvalid   = errors.New("package does not apply to this item")
	ErrPackageExhausted = errors.New("package booking limit reached")

	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrReasonRequired    = errors.New("a reason is required for this transition")
	ErrUnauthorizedActor = errors.New("actor is not permitted to perform this transition")

	ErrUnknownAutoAction = errors.New("unknown auto action in transition table")
)
