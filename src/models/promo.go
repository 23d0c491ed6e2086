package models

import (
	"time"

	"vbs/src/types"
)

type PromoCode struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Code string `gorm:"uniqueIndex" json:"code"`

	DiscountType  types.DiscountType `json:"discount_type"`
	DiscountValue float64            `json:"discount_value"`
	// MaxDiscount caps the computed discount for both promo kinds; zero
	// means uncapped.
	MaxDiscount    float64 `json:"max_discount"`
	MinOrderAmount float64 `json:"min_order_amount"`

	StartsAt  *time.Time `json:"starts_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	UsageLimit   uint `gorm:"default:0" json:"usage_limit"`
	PerUserLimit uint `gorm:"default:0" json:"per_user_limit"`
	UsedCount    uint `gorm:"default:0" json:"used_count"`

	Active bool `gorm:"default:true" json:"active"`

	types.Timestamps
}

type PromoUsage struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	PromoCodeID uint      `gorm:"index" json:"promo_code_id"`
	UserID      uint      `gorm:"index" json:"user_id"`
	BookingID   uint      `json:"booking_id"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `gorm:"autoCreateTime:nano" json:"created_at"`
}

type GiftCard struct {
	ID             uint                 `gorm:"primarykey" json:"id"`
	Code           string               `gorm:"uniqueIndex" json:"code"`
	InitialBalance float64              `json:"initial_balance"`
	Balance        float64              `json:"balance"`
	Status         types.GiftCardStatus `gorm:"default:'active'" json:"status"`
	ExpiresAt      *time.Time           `json:"expires_at,omitempty"`

	types.Timestamps
}
