package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"vbs/src/models"
	"vbs/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier delivers lifecycle events to users, admins and vendors.
// Delivery is best-effort: a failed Notify never rolls back a transition.
type Notifier interface {
	Notify(event string, payload map[string]any) error
}

type AutoAction string

const (
	ActionCreditCashback AutoAction = "credit_cashback"
	ActionRefundCashback AutoAction = "refund_cashback"
	ActionDeductCashback AutoAction = "deduct_cashback"
	ActionProcessRefund  AutoAction = "process_refund"
	ActionUpdateStats    AutoAction = "update_stats"
	ActionNotifyUser     AutoAction = "notify_user"
	ActionNotifyAdmin    AutoAction = "notify_admin"
	ActionNotifyVendor   AutoAction = "notify_vendor"
)

// parseAutoAction rejects unknown action names so a mistyped transition
// row fails at load time instead of silently doing nothing.
func parseAutoAction(s string) (AutoAction, error) {
	switch AutoAction(s) {
	case ActionCreditCashback, ActionRefundCashback, ActionDeductCashback,
		ActionProcessRefund, ActionUpdateStats,
		ActionNotifyUser, ActionNotifyAdmin, ActionNotifyVendor:
		return AutoAction(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAutoAction, s)
}

type transitionRule struct {
	From           types.BookingStatus
	To             types.BookingStatus
	AllowedActors  types.StringList
	RequiresReason bool
	Actions        []AutoAction
}

// StateMachine validates and executes booking status transitions against
// the status_transitions table. The table is loaded once at construction;
// call Reload after admin edits.
type StateMachine struct {
	db       *gorm.DB
	notifier Notifier
	rules    map[types.BookingStatus]map[types.BookingStatus]transitionRule
}

func NewStateMachine(db *gorm.DB, notifier Notifier) (*StateMachine, error) {
	sm := &StateMachine{db: db, notifier: notifier}
	if err := sm.Reload(); err != nil {
		return nil, err
	}
	return sm, nil
}

func (sm *StateMachine) Reload() error {
	var rows []models.StatusTransition
	if err := sm.db.Model(&models.StatusTransition{}).Find(&rows).Error; err != nil {
		return fmt.Errorf("load status transitions: %w", err)
	}
	rules := make(map[types.BookingStatus]map[types.BookingStatus]transitionRule)
	for _, row := range rows {
		actions := make([]AutoAction, 0, len(row.AutoActions))
		for _, name := range row.AutoActions {
			action, err := parseAutoAction(name)
			if err != nil {
				return fmt.Errorf("transition %s->%s: %w", row.FromStatus, row.ToStatus, err)
			}
			actions = append(actions, action)
		}
		if rules[row.FromStatus] == nil {
			rules[row.FromStatus] = make(map[types.BookingStatus]transitionRule)
		}
		rules[row.FromStatus][row.ToStatus] = transitionRule{
			From:           row.FromStatus,
			To:             row.ToStatus,
			AllowedActors:  row.AllowedActors,
			RequiresReason: row.RequiresReason,
			Actions:        actions,
		}
	}
	sm.rules = rules
	return nil
}

type TransitionResult struct {
	OldStatus types.BookingStatus `json:"old_status"`
	NewStatus types.BookingStatus `json:"new_status"`
	NoOp      bool                `json:"-"`
}

// Transition runs one status change in its own transaction.
func (sm *StateMachine) Transition(bookingID uint, newStatus types.BookingStatus, actor types.ActorType, actorID *uint, reason string) (*TransitionResult, error) {
	var result *TransitionResult
	err := sm.db.Transaction(func(tx *gorm.DB) error {
		r, err := sm.TransitionTx(tx, bookingID, newStatus, actor, actorID, reason)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TransitionTx runs a status change inside a caller-owned transaction, so
// booking creation can seed its first transition atomically with the
// insert.
func (sm *StateMachine) TransitionTx(tx *gorm.DB, bookingID uint, newStatus types.BookingStatus, actor types.ActorType, actorID *uint, reason string) (*TransitionResult, error) {
	var booking models.Booking
	q := tx
	// Serialize concurrent transition attempts on the same booking;
	// without the row lock a racing payment webhook and sweep job could
	// both pass the credit_cashback idempotency guard.
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	// Replayed webhooks and racing sweeps land here.
	if booking.Status == newStatus {
		return &TransitionResult{OldStatus: booking.Status, NewStatus: newStatus, NoOp: true}, nil
	}

	rule, ok := sm.rules[booking.Status][newStatus]
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, newStatus)
	}
	if !rule.AllowedActors.Contains(string(actor)) {
		return nil, fmt.Errorf("%w: %s may not perform %s -> %s", ErrUnauthorizedActor, actor, booking.Status, newStatus)
	}
	if rule.RequiresReason && reason == "" {
		return nil, fmt.Errorf("%w: %s -> %s", ErrReasonRequired, booking.Status, newStatus)
	}

	oldStatus := booking.Status
	now := time.Now()
	updates := map[string]any{"status": newStatus}
	switch newStatus {
	case types.BOOKING_CONFIRMED:
		updates["confirmed_at"] = now
	case types.BOOKING_PAID:
		updates["paid_at"] = now
	case types.BOOKING_COMPLETED:
		updates["completed_at"] = now
	case types.BOOKING_CANCELLED, types.BOOKING_REFUNDED, types.BOOKING_NO_SHOW:
		updates["cancelled_at"] = now
		if reason != "" {
			updates["cancellation_reason"] = reason
		}
	}
	if err := tx.Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	booking.Status = newStatus

	history := models.BookingStatusHistory{
		BookingID: booking.ID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ActorType: actor,
		ActorID:   actorID,
	}
	if reason != "" {
		history.Reason = &reason
	}
	if err := tx.Create(&history).Error; err != nil {
		return nil, err
	}

	for _, action := range rule.Actions {
		if err := sm.executeAction(tx, &booking, action, reason); err != nil {
			return nil, fmt.Errorf("auto action %s on %s -> %s: %w", action, oldStatus, newStatus, err)
		}
	}

	return &TransitionResult{OldStatus: oldStatus, NewStatus: newStatus}, nil
}

func (sm *StateMachine) executeAction(tx *gorm.DB, booking *models.Booking, action AutoAction, reason string) error {
	switch action {
	case ActionCreditCashback:
		// Credited exactly once per booking.
		if booking.CashbackStatus == types.CASHBACK_CREDITED || booking.CashbackEarned <= 0 {
			return nil
		}
		if err := tx.
			Model(&models.User{}).
			Where("id = ?", booking.UserID).
			Update("cashback_balance", gorm.Expr("cashback_balance + ?", booking.CashbackEarned)).
			Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Update("cashback_status", types.CASHBACK_CREDITED).
			Error; err != nil {
			return err
		}
		booking.CashbackStatus = types.CASHBACK_CREDITED
		return nil
	case ActionRefundCashback:
		if booking.CashbackUsed <= 0 {
			return nil
		}
		return tx.
			Model(&models.User{}).
			Where("id = ?", booking.UserID).
			Update("cashback_balance", gorm.Expr("cashback_balance + ?", booking.CashbackUsed)).
			Error
	case ActionDeductCashback:
		// Reverses a previous credit_cashback only.
		if booking.CashbackStatus != types.CASHBACK_CREDITED || booking.CashbackEarned <= 0 {
			return nil
		}
		if err := tx.
			Model(&models.User{}).
			Where("id = ?", booking.UserID).
			Update("cashback_balance", gorm.Expr("cashback_balance - ?", booking.CashbackEarned)).
			Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Update("cashback_status", types.CASHBACK_DEDUCTED).
			Error; err != nil {
			return err
		}
		booking.CashbackStatus = types.CASHBACK_DEDUCTED
		return nil
	case ActionProcessRefund:
		if booking.GiftCardID == nil || booking.GiftCardAmount <= 0 {
			return nil
		}
		return tx.
			Model(&models.GiftCard{}).
			Where("id = ?", *booking.GiftCardID).
			Updates(map[string]any{
				"balance": gorm.Expr("balance + ?", booking.GiftCardAmount),
				"status":  types.GIFT_CARD_ACTIVE,
			}).
			Error
	case ActionUpdateStats:
		if booking.VendorID == nil {
			return nil
		}
		return tx.
			Model(&models.Vendor{}).
			Where("id = ?", *booking.VendorID).
			Updates(map[string]any{
				"total_bookings": gorm.Expr("total_bookings + ?", 1),
				"total_revenue":  gorm.Expr("total_revenue + ?", booking.Total),
			}).
			Error
	case ActionNotifyUser:
		sm.dispatch(tx, booking, fmt.Sprintf("booking.%s", booking.Status), reason, notifyUser)
		return nil
	case ActionNotifyAdmin:
		sm.dispatch(tx, booking, fmt.Sprintf("admin.booking.%s", booking.Status), reason, notifyAdmin)
		return nil
	case ActionNotifyVendor:
		sm.dispatch(tx, booking, fmt.Sprintf("vendor.booking.%s", booking.Status), reason, notifyVendor)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownAutoAction, action)
}

type notifyTarget int

const (
	notifyUser notifyTarget = iota
	notifyAdmin
	notifyVendor
)

func (sm *StateMachine) dispatch(tx *gorm.DB, booking *models.Booking, event, reason string, target notifyTarget) {
	if sm.notifier == nil {
		return
	}
	payload := map[string]any{
		"booking_id": booking.ID,
		"reference":  booking.Reference,
		"status":     string(booking.Status),
		"total":      booking.Total,
	}
	if reason != "" {
		payload["reason"] = reason
	}
	switch target {
	case notifyUser:
		var user models.User
		if err := tx.First(&user, booking.UserID).Error; err == nil {
			payload["email"] = user.Email
		}
	case notifyVendor:
		if booking.VendorID == nil {
			return
		}
		var vendor models.Vendor
		if err := tx.First(&vendor, *booking.VendorID).Error; err == nil {
			payload["email"] = vendor.Email
		}
	}
	if err := sm.notifier.Notify(event, payload); err != nil {
		log.Printf("Failed to dispatch %s for booking %d: %s\n", event, booking.ID, err.Error())
	}
}
