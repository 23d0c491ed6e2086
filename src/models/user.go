package models

import "vbs/src/types"

type User struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `gorm:"default:'user'" json:"role,omitempty"`

	CashbackBalance float64 `json:"cashback_balance"`
	LoyaltyTierID   *uint   `json:"loyalty_tier_id,omitempty"`

	Metadata *types.JSONB `gorm:"type:jsonb" json:"metadata,omitempty"`

	LoyaltyTier *LoyaltyTier `gorm:"foreignKey:loyalty_tier_id" json:"loyalty_tier,omitempty"`
	Bookings    []Booking    `gorm:"foreignKey:user_id" json:"bookings,omitempty"`

	types.Timestamps
}

type LoyaltyTier struct {
	ID              uint    `gorm:"primarykey" json:"id"`
	Name            string  `json:"name"`
	DiscountPercent float64 `json:"discount_percent"`
	CashbackPercent float64 `json:"cashback_percent"`
	MinSpend        float64 `json:"min_spend"`

	types.Timestamps
}
