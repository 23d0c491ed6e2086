package models

import (
	"time"

	"vbs/src/types"
)

type Booking struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	Reference string `gorm:"uniqueIndex" json:"reference"`
	UserID    uint   `json:"user_id,omitempty"`

	BookingType   types.BookableType `json:"booking_type"`
	ItemID        uint               `json:"item_id"`
	Date          time.Time          `json:"date"`
	StartTime     *string            `json:"start_time,omitempty"`
	DurationHours *float64           `json:"duration_hours,omitempty"`

	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`

	BasePrice         float64 `json:"base_price"`
	DynamicAdjustment float64 `json:"dynamic_adjustment"`
	ExtrasPrice       float64 `json:"extras_price"`
	PickupFee         float64 `json:"pickup_fee"`
	Subtotal          float64 `json:"subtotal"`
	PromoDiscount     float64 `json:"promo_discount"`
	LoyaltyDiscount   float64 `json:"loyalty_discount"`
	CashbackUsed      float64 `json:"cashback_used"`
	GiftCardAmount    float64 `json:"gift_card_amount"`
	TotalDiscount     float64 `json:"total_discount"`
	Total             float64 `json:"total"`

	CashbackPercent float64              `json:"cashback_percent"`
	CashbackEarned  float64              `json:"cashback_earned"`
	CashbackStatus  types.CashbackStatus `gorm:"default:'pending'" json:"cashback_status"`

	PromoCodeID *uint `json:"promo_code_id,omitempty"`
	GiftCardID  *uint `json:"gift_card_id,omitempty"`
	PackageID   *uint `json:"package_id,omitempty"`

	VendorID         *uint   `json:"vendor_id,omitempty"`
	CommissionAmount float64 `json:"commission_amount"`

	Status             types.BookingStatus `gorm:"default:'new'" json:"status"`
	ConfirmedAt        *time.Time          `json:"confirmed_at,omitempty"`
	PaidAt             *time.Time          `json:"paid_at,omitempty"`
	CompletedAt        *time.Time          `json:"completed_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CancellationReason *string             `json:"cancellation_reason,omitempty"`

	PickupHotel *string `json:"pickup_hotel,omitempty"`
	Notes       string  `json:"notes,omitempty"`

	User    *User                  `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Addons  []BookingAddon         `gorm:"foreignKey:booking_id" json:"addons,omitempty"`
	History []BookingStatusHistory `gorm:"foreignKey:booking_id" json:"history,omitempty"`

	types.Timestamps
}

// BookingAddon snapshots the addon price at booking time. Later catalog
// price changes never touch existing bookings.
type BookingAddon struct {
	ID        uint                 `gorm:"primarykey" json:"id"`
	BookingID uint                 `json:"booking_id,omitempty"`
	AddonID   uint                 `json:"addon_id"`
	Name      string               `json:"name,omitempty"`
	PriceType types.AddonPriceType `json:"price_type"`
	Qty       uint                 `json:"qty"`
	UnitPrice float64              `json:"unit_price"`
	Total     float64              `json:"total"`

	types.Timestamps
}

// BookingStatusHistory is append-only. Rows are never updated or deleted.
type BookingStatusHistory struct {
	ID        uint                `gorm:"primarykey" json:"id"`
	BookingID uint                `gorm:"index" json:"booking_id"`
	OldStatus types.BookingStatus `json:"old_status"`
	NewStatus types.BookingStatus `json:"new_status"`
	ActorType types.ActorType     `json:"actor_type"`
	ActorID   *uint               `json:"actor_id,omitempty"`
	Reason    *string             `json:"reason,omitempty"`
	Metadata  types.JSONB         `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time           `gorm:"autoCreateTime:nano" json:"created_at"`
}
