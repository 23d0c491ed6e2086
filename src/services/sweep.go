package services

import (
	"log"
	"time"

	"vbs/src/models"
	"vbs/src/types"

	"gorm.io/gorm"
)

// SweepService runs the two periodic batch jobs. Every processed booking
// goes through the state machine's Transition, which re-validates the
// current status under lock, so sweeps are safe to run alongside live
// traffic and alongside each other.
type SweepService struct {
	db *gorm.DB
	sm *StateMachine
}

func NewSweepService(db *gorm.DB, sm *StateMachine) *SweepService {
	return &SweepService{db: db, sm: sm}
}

type SweepResult struct {
	Processed int
	Succeeded int
	Failed    int
}

// ExpireStalePending cancels bookings that sat in pending longer than
// maxAge. Individual failures are counted and skipped, never aborting the
// batch.
func (s *SweepService) ExpireStalePending(maxAge time.Duration) SweepResult {
	cutoff := time.Now().Add(-maxAge)
	var ids []uint
	err := s.db.
		Model(&models.Booking{}).
		Where("status = ?", types.BOOKING_PENDING).
		Where("created_at < ?", cutoff).
		Pluck("id", &ids).
		Error
	if err != nil {
		log.Printf("[sweep] Error listing stale pending bookings: %s\n", err.Error())
		return SweepResult{}
	}

	result := SweepResult{Processed: len(ids)}
	for _, id := range ids {
		_, err := s.sm.Transition(id, types.BOOKING_CANCELLED, types.ACTOR_SYSTEM, nil, "Booking expired")
		if err != nil {
			log.Printf("[sweep] Failed to expire booking %d: %s\n", id, err.Error())
			result.Failed++
			continue
		}
		result.Succeeded++
	}
	if result.Processed > 0 {
		log.Printf("[sweep] Expired stale pending bookings: ok=%d failed=%d\n", result.Succeeded, result.Failed)
	}
	return result
}

// CompletePastDue completes paid bookings whose trip date has passed.
func (s *SweepService) CompletePastDue() SweepResult {
	today := time.Now().Truncate(24 * time.Hour)
	var ids []uint
	err := s.db.
		Model(&models.Booking{}).
		Where("status = ?", types.BOOKING_PAID).
		Where("date < ?", today).
		Pluck("id", &ids).
		Error
	if err != nil {
		log.Printf("[sweep] Error listing past-due paid bookings: %s\n", err.Error())
		return SweepResult{}
	}

	result := SweepResult{Processed: len(ids)}
	for _, id := range ids {
		_, err := s.sm.Transition(id, types.BOOKING_COMPLETED, types.ACTOR_SYSTEM, nil, "Auto-completed after trip date")
		if err != nil {
			log.Printf("[sweep] Failed to complete booking %d: %s\n", id, err.Error())
			result.Failed++
			continue
		}
		result.Succeeded++
	}
	if result.Processed > 0 {
		log.Printf("[sweep] Completed past-due bookings: ok=%d failed=%d\n", result.Succeeded, result.Failed)
	}
	return result
}
