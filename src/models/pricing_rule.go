package models

import (
	"time"

	"vbs/src/types"
)

// PricingRule is a single dynamic-pricing adjustment. Discounts carry a
// negative adjustment value, premiums a positive one.
type PricingRule struct {
	ID   uint           `gorm:"primarykey" json:"id"`
	Name string         `json:"name"`
	Type types.RuleType `json:"type"`

	AppliesTo types.RuleScope `gorm:"default:'all'" json:"applies_to"`
	ItemType  *string         `json:"item_type,omitempty"`
	ItemID    *uint           `json:"item_id,omitempty"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	DaysOfWeek       types.IntList `gorm:"type:jsonb" json:"days_of_week,omitempty"`
	MinDaysAhead     *int          `json:"min_days_ahead,omitempty"`
	MaxDaysAhead     *int          `json:"max_days_ahead,omitempty"`
	MinGuests        *int          `json:"min_guests,omitempty"`
	MaxGuests        *int          `json:"max_guests,omitempty"`
	MinDurationHours *float64      `json:"min_duration_hours,omitempty"`

	AdjustmentType  types.AdjustmentType `json:"adjustment_type"`
	AdjustmentValue float64              `json:"adjustment_value"`

	Priority  int  `gorm:"default:0" json:"priority"`
	Stackable bool `gorm:"default:false" json:"stackable"`
	Active    bool `gorm:"default:true" json:"active"`

	types.Timestamps
}
