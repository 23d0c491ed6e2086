package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("type assertion to []byte failed")
		}
		b = []byte(s)
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

// StringList is a JSONB-backed string array column.
type StringList []string

func (a StringList) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *StringList) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("type assertion to []byte failed")
		}
		b = []byte(s)
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

func (a StringList) Contains(v string) bool {
	for _, s := range a {
		if s == v {
			return true
		}
	}
	return false
}

// IntList is a JSONB-backed integer array column.
type IntList []int

func (a IntList) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *IntList) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("type assertion to []byte failed")
		}
		b = []byte(s)
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

func (a IntList) Contains(v int) bool {
	for _, n := range a {
		if n == v {
			return true
		}
	}
	return false
}

// UintList is a JSONB-backed id array column.
type UintList []uint

func (a UintList) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *UintList) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("type assertion to []byte failed")
		}
		b = []byte(s)
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type BookingStatus string

const (
	// BOOKING_NEW is the pre-insert status a booking carries for the
	// instant between its INSERT and the seeding transition into pending.
	BOOKING_NEW       BookingStatus = "new"
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_PAID      BookingStatus = "paid"
	BOOKING_COMPLETED BookingStatus = "completed"
	BOOKING_CANCELLED BookingStatus = "cancelled"
	BOOKING_REFUNDED  BookingStatus = "refunded"
	BOOKING_NO_SHOW   BookingStatus = "no_show"
)

type BookableType string

const (
	BOOKABLE_VESSEL BookableType = "vessel"
	BOOKABLE_TOUR   BookableType = "tour"
)

type ActorType string

const (
	ACTOR_USER   ActorType = "user"
	ACTOR_ADMIN  ActorType = "admin"
	ACTOR_VENDOR ActorType = "vendor"
	ACTOR_SYSTEM ActorType = "system"
)

type CashbackStatus string

const (
	CASHBACK_PENDING  CashbackStatus = "pending"
	CASHBACK_CREDITED CashbackStatus = "credited"
	CASHBACK_DEDUCTED CashbackStatus = "deducted"
)

type RuleType string

const (
	RULE_SEASON       RuleType = "season"
	RULE_SPECIAL_DATE RuleType = "special_date"
	RULE_DAY_OF_WEEK  RuleType = "day_of_week"
	RULE_EARLY_BIRD   RuleType = "early_bird"
	RULE_LAST_MINUTE  RuleType = "last_minute"
	RULE_GROUP_SIZE   RuleType = "group_size"
	RULE_DURATION     RuleType = "duration"
)

type AdjustmentType string

const (
	ADJUSTMENT_PERCENTAGE AdjustmentType = "percentage"
	ADJUSTMENT_FIXED      AdjustmentType = "fixed"
)

type RuleScope string

const (
	SCOPE_ALL     RuleScope = "all"
	SCOPE_VESSELS RuleScope = "vessels"
	SCOPE_TOURS   RuleScope = "tours"
)

type AddonPriceType string

const (
	ADDON_PER_PERSON AddonPriceType = "per_person"
	ADDON_PER_HOUR   AddonPriceType = "per_hour"
	ADDON_PER_ITEM   AddonPriceType = "per_item"
	ADDON_FIXED      AddonPriceType = "fixed"
)

type GiftCardStatus string

const (
	GIFT_CARD_ACTIVE GiftCardStatus = "active"
	GIFT_CARD_USED   GiftCardStatus = "used"
)

type DiscountType string

const (
	DISCOUNT_PERCENTAGE DiscountType = "percentage"
	DISCOUNT_FIXED      DiscountType = "fixed"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type AddonSelectionItem struct {
	AddonID uint `json:"addon_id" binding:"required"`
	Qty     uint `json:"qty" binding:"required,min=1"`
}

type CreateBookingRequestBody struct {
	BookingType   string               `json:"booking_type" binding:"required,oneof=vessel tour"`
	ItemID        uint                 `json:"item_id" binding:"required"`
	Date          string               `json:"date" binding:"required,bookabledate"`
	StartTime     *string              `json:"start_time,omitempty"`
	DurationHours *float64             `json:"duration_hours,omitempty" binding:"omitempty,gt=0"`
	Adults        int                  `json:"adults" binding:"required,min=1"`
	Children      int                  `json:"children" binding:"omitempty,min=0"`
	Infants       int                  `json:"infants" binding:"omitempty,min=0"`
	Addons        []AddonSelectionItem `json:"addons,omitempty"`
	PackageID     *uint                `json:"package_id,omitempty"`
	PromoCode     string               `json:"promo_code,omitempty"`
	GiftCardCode  string               `json:"gift_card_code,omitempty"`
	UseCashback   float64              `json:"use_cashback,omitempty" binding:"omitempty,min=0"`
	PickupHotel   *string              `json:"pickup_hotel,omitempty"`
	Notes         string               `json:"notes,omitempty"`
}

type QuoteRequestBody struct {
	BookingType   string               `json:"booking_type" binding:"required,oneof=vessel tour"`
	ItemID        uint                 `json:"item_id" binding:"required"`
	Date          string               `json:"date" binding:"required,bookabledate"`
	DurationHours *float64             `json:"duration_hours,omitempty" binding:"omitempty,gt=0"`
	Adults        int                  `json:"adults" binding:"required,min=1"`
	Children      int                  `json:"children" binding:"omitempty,min=0"`
	Addons        []AddonSelectionItem `json:"addons,omitempty"`
	PromoCode     string               `json:"promo_code,omitempty"`
	GiftCardCode  string               `json:"gift_card_code,omitempty"`
	UseCashback   float64              `json:"use_cashback,omitempty" binding:"omitempty,min=0"`
	PickupHotel   *string              `json:"pickup_hotel,omitempty"`
}

type CancelBookingRequestBody struct {
	Reason string `json:"reason" binding:"required"`
}

type UpdateBookingStatusRequestBody struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason,omitempty"`
}

type Claims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

type Handler func(payload string)

const DATE_PARSE_FORMAT = "2006-01-02"
