package models

import "vbs/src/types"

// Catalog entities are managed elsewhere; the booking core only reads them
// and, for vendors and packages, bumps their counters.

type Vessel struct {
	ID           uint    `gorm:"primarykey" json:"id"`
	Name         string  `json:"name"`
	Type         string  `json:"type,omitempty"`
	Capacity     int     `json:"capacity,omitempty"`
	PricePerHour float64 `json:"price_per_hour"`
	PricePerDay  float64 `json:"price_per_day"`
	VendorID     *uint   `json:"vendor_id,omitempty"`
	Active       bool    `gorm:"default:true" json:"active"`

	types.Timestamps
}

type Tour struct {
	ID            uint    `gorm:"primarykey" json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category,omitempty"`
	PriceAdult    float64 `json:"price_adult"`
	PriceChild    float64 `json:"price_child"`
	PickupFee     float64 `json:"pickup_fee"`
	DurationHours float64 `json:"duration_hours,omitempty"`
	VendorID      *uint   `json:"vendor_id,omitempty"`
	Active        bool    `gorm:"default:true" json:"active"`

	types.Timestamps
}

type Addon struct {
	ID        uint                 `gorm:"primarykey" json:"id"`
	Name      string               `json:"name"`
	PriceType types.AddonPriceType `gorm:"default:'fixed'" json:"price_type"`
	Price     float64              `json:"price"`
	Active    bool                 `gorm:"default:true" json:"active"`

	types.Timestamps
}

type Package struct {
	ID              uint               `gorm:"primarykey" json:"id"`
	Name            string             `json:"name"`
	ItemType        types.BookableType `json:"item_type"`
	ItemID          uint               `json:"item_id"`
	AddonIDs        types.UintList     `gorm:"type:jsonb" json:"addon_ids,omitempty"`
	DiscountPercent float64            `json:"discount_percent"`
	BookingsCount   uint               `gorm:"default:0" json:"bookings_count"`
	MaxBookings     uint               `gorm:"default:0" json:"max_bookings"`
	Active          bool               `gorm:"default:true" json:"active"`

	types.Timestamps
}

type Vendor struct {
	ID             uint    `gorm:"primarykey" json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email,omitempty"`
	CommissionRate float64 `json:"commission_rate"`
	TotalBookings  uint    `gorm:"default:0" json:"total_bookings"`
	TotalRevenue   float64 `json:"total_revenue"`
	Active         bool    `gorm:"default:true" json:"active"`

	types.Timestamps
}
