package models

import "vbs/src/types"

// StatusTransition is the state machine's data-driven rule table. One row
// per (from_status, to_status) pair; the machine refuses any pair that has
// no row here.
type StatusTransition struct {
	ID         uint                `gorm:"primarykey" json:"id"`
	FromStatus types.BookingStatus `gorm:"uniqueIndex:idx_transition_pair" json:"from_status"`
	ToStatus   types.BookingStatus `gorm:"uniqueIndex:idx_transition_pair" json:"to_status"`

	AllowedActors  types.StringList `gorm:"type:jsonb" json:"allowed_actors"`
	RequiresReason bool             `gorm:"default:false" json:"requires_reason"`
	AutoActions    types.StringList `gorm:"type:jsonb" json:"auto_actions"`
	Description    string           `json:"description,omitempty"`

	types.Timestamps
}

// DefaultStatusTransitions is the rule set installed on first boot. Admins
// can edit the table afterwards; the machine only ever reads the rows.
func DefaultStatusTransitions() []StatusTransition {
	actors := func(a ...types.ActorType) types.StringList {
		out := make(types.StringList, 0, len(a))
		for _, t := range a {
			out = append(out, string(t))
		}
		return out
	}
	return []StatusTransition{
		{
			FromStatus:    types.BOOKING_NEW,
			ToStatus:      types.BOOKING_PENDING,
			AllowedActors: actors(types.ACTOR_SYSTEM),
			AutoActions:   types.StringList{"notify_user", "notify_admin"},
			Description:   "Seed transition written at booking creation",
		},
		{
			FromStatus:    types.BOOKING_PENDING,
			ToStatus:      types.BOOKING_CONFIRMED,
			AllowedActors: actors(types.ACTOR_ADMIN, types.ACTOR_VENDOR, types.ACTOR_SYSTEM),
			AutoActions:   types.StringList{"notify_user"},
		},
		{
			FromStatus:     types.BOOKING_PENDING,
			ToStatus:       types.BOOKING_CANCELLED,
			AllowedActors:  actors(types.ACTOR_USER, types.ACTOR_ADMIN, types.ACTOR_SYSTEM),
			RequiresReason: true,
			AutoActions:    types.StringList{"refund_cashback", "process_refund", "notify_admin"},
		},
		{
			FromStatus:    types.BOOKING_CONFIRMED,
			ToStatus:      types.BOOKING_PAID,
			AllowedActors: actors(types.ACTOR_SYSTEM, types.ACTOR_ADMIN),
			AutoActions:   types.StringList{"credit_cashback", "notify_user", "notify_vendor"},
		},
		{
			FromStatus:     types.BOOKING_CONFIRMED,
			ToStatus:       types.BOOKING_CANCELLED,
			AllowedActors:  actors(types.ACTOR_USER, types.ACTOR_ADMIN, types.ACTOR_SYSTEM),
			RequiresReason: true,
			AutoActions:    types.StringList{"refund_cashback", "process_refund", "notify_admin"},
		},
		{
			FromStatus:    types.BOOKING_PAID,
			ToStatus:      types.BOOKING_COMPLETED,
			AllowedActors: actors(types.ACTOR_SYSTEM, types.ACTOR_ADMIN),
			AutoActions:   types.StringList{"update_stats", "notify_user"},
		},
		{
			FromStatus:     types.BOOKING_PAID,
			ToStatus:       types.BOOKING_REFUNDED,
			AllowedActors:  actors(types.ACTOR_ADMIN),
			RequiresReason: true,
			AutoActions:    types.StringList{"deduct_cashback", "refund_cashback", "process_refund", "notify_user"},
		},
		{
			FromStatus:     types.BOOKING_PAID,
			ToStatus:       types.BOOKING_CANCELLED,
			AllowedActors:  actors(types.ACTOR_ADMIN),
			RequiresReason: true,
			AutoActions:    types.StringList{"deduct_cashback", "refund_cashback", "process_refund", "notify_admin"},
		},
		{
			FromStatus:     types.BOOKING_PAID,
			ToStatus:       types.BOOKING_NO_SHOW,
			AllowedActors:  actors(types.ACTOR_ADMIN, types.ACTOR_VENDOR),
			RequiresReason: true,
			AutoActions:    types.StringList{"notify_admin"},
		},
	}
}
