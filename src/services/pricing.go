package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"vbs/src/models"
	"vbs/src/types"
	"vbs/src/utils"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const rulesCacheTTL = 60 * time.Second

// PricingEngine applies the dynamic pricing rule set to a base price. It
// has no persistence side effects; the rule set is snapshotted once per
// Calculate call so admin edits mid-request cannot skew one evaluation.
type PricingEngine struct {
	db    *gorm.DB
	cache *redis.Client
	Now   func() time.Time
}

func NewPricingEngine(db *gorm.DB, cache *redis.Client) *PricingEngine {
	return &PricingEngine{
		db:    db,
		cache: cache,
		Now:   time.Now,
	}
}

type PricingInput struct {
	BasePrice   float64
	BookingDate time.Time
	AppliesTo   types.RuleScope
	ItemType    string
	ItemID      uint
	GuestCount  int
	// DurationHours of zero means the booking has no duration; duration
	// rules never match in that case.
	DurationHours float64
}

type AppliedRule struct {
	RuleID     uint           `json:"rule_id"`
	Name       string         `json:"name"`
	Type       types.RuleType `json:"type"`
	Adjustment float64        `json:"adjustment"`
}

type PricingResult struct {
	BasePrice       float64       `json:"base_price"`
	FinalPrice      float64       `json:"final_price"`
	TotalAdjustment float64       `json:"total_adjustment"`
	AppliedRuleIDs  []uint        `json:"applied_rule_ids"`
	Breakdown       []AppliedRule `json:"breakdown"`
}

func (e *PricingEngine) Calculate(in PricingInput) (*PricingResult, error) {
	rules, err := e.snapshotRules(in.AppliesTo)
	if err != nil {
		return nil, fmt.Errorf("snapshot pricing rules: %w", err)
	}

	var matched []models.PricingRule
	for _, rule := range rules {
		if e.matches(&rule, &in) {
			matched = append(matched, rule)
		}
	}
	// Priority orders iteration only; the outcome depends on it solely
	// through the deterministic tie-break below.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority > matched[j].Priority
		}
		return matched[i].ID < matched[j].ID
	})

	result := PricingResult{BasePrice: in.BasePrice}
	var bestDiscount *models.PricingRule
	var bestAdjustment float64
	for i := range matched {
		rule := &matched[i]
		adjustment := utils.RoundMoney(e.adjustmentFor(rule, in.BasePrice))
		if adjustment == 0 {
			continue
		}
		if rule.Stackable || adjustment > 0 {
			// Stackable rules always apply; non-stackable premiums are
			// cumulative so concurrent surcharges can coexist.
			e.apply(&result, rule, adjustment)
			continue
		}
		// Non-stackable discounts are mutually exclusive: keep the one
		// best for the customer, ties broken by lowest rule id.
		if bestDiscount == nil ||
			adjustment < bestAdjustment ||
			(adjustment == bestAdjustment && rule.ID < bestDiscount.ID) {
			bestDiscount = rule
			bestAdjustment = adjustment
		}
	}
	if bestDiscount != nil {
		e.apply(&result, bestDiscount, bestAdjustment)
	}

	result.TotalAdjustment = utils.RoundMoney(result.TotalAdjustment)
	result.FinalPrice = utils.RoundMoney(in.BasePrice + result.TotalAdjustment)
	if result.FinalPrice < 0 {
		result.FinalPrice = 0
	}
	return &result, nil
}

func (e *PricingEngine) apply(result *PricingResult, rule *models.PricingRule, adjustment float64) {
	result.TotalAdjustment += adjustment
	result.AppliedRuleIDs = append(result.AppliedRuleIDs, rule.ID)
	result.Breakdown = append(result.Breakdown, AppliedRule{
		RuleID:     rule.ID,
		Name:       rule.Name,
		Type:       rule.Type,
		Adjustment: adjustment,
	})
}

func (e *PricingEngine) adjustmentFor(rule *models.PricingRule, basePrice float64) float64 {
	if rule.AdjustmentType == types.ADJUSTMENT_PERCENTAGE {
		return basePrice * rule.AdjustmentValue / 100
	}
	return rule.AdjustmentValue
}

func (e *PricingEngine) matches(rule *models.PricingRule, in *PricingInput) bool {
	if rule.ItemID != nil && *rule.ItemID != in.ItemID {
		return false
	}
	if rule.ItemType != nil && *rule.ItemType != in.ItemType {
		return false
	}
	switch rule.Type {
	case types.RULE_SEASON, types.RULE_SPECIAL_DATE:
		date := dateOnly(in.BookingDate)
		if rule.StartDate != nil && date.Before(dateOnly(*rule.StartDate)) {
			return false
		}
		if rule.EndDate != nil && date.After(dateOnly(*rule.EndDate)) {
			return false
		}
		return true
	case types.RULE_DAY_OF_WEEK:
		return rule.DaysOfWeek.Contains(int(in.BookingDate.Weekday()))
	case types.RULE_EARLY_BIRD:
		if rule.MinDaysAhead == nil {
			return false
		}
		return e.daysAhead(in.BookingDate) >= *rule.MinDaysAhead
	case types.RULE_LAST_MINUTE:
		if rule.MaxDaysAhead == nil {
			return false
		}
		ahead := e.daysAhead(in.BookingDate)
		return ahead >= 0 && ahead <= *rule.MaxDaysAhead
	case types.RULE_GROUP_SIZE:
		if rule.MinGuests != nil && in.GuestCount < *rule.MinGuests {
			return false
		}
		if rule.MaxGuests != nil && in.GuestCount > *rule.MaxGuests {
			return false
		}
		return true
	case types.RULE_DURATION:
		if in.DurationHours == 0 || rule.MinDurationHours == nil {
			return false
		}
		return in.DurationHours >= *rule.MinDurationHours
	}
	return false
}

func (e *PricingEngine) daysAhead(bookingDate time.Time) int {
	today := dateOnly(e.Now())
	return int(dateOnly(bookingDate).Sub(today).Hours() / 24)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// snapshotRules loads every active rule the scope can see. Results are
// cached briefly in redis; a cache miss or error falls through to the
// database.
func (e *PricingEngine) snapshotRules(scope types.RuleScope) ([]models.PricingRule, error) {
	cacheKey := fmt.Sprintf("pricing:rules:%s", scope)
	if e.cache != nil {
		if raw, err := e.cache.Get(context.Background(), cacheKey).Result(); err == nil {
			var rules []models.PricingRule
			if err := json.Unmarshal([]byte(raw), &rules); err == nil {
				return rules, nil
			}
		}
	}

	var rules []models.PricingRule
	err := e.db.
		Model(&models.PricingRule{}).
		Where("active = ?", true).
		Where("applies_to IN (?)", []types.RuleScope{types.SCOPE_ALL, scope}).
		Order("priority desc, id asc").
		Find(&rules).
		Error
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if b, err := json.Marshal(rules); err == nil {
			if err := e.cache.Set(context.Background(), cacheKey, string(b), rulesCacheTTL).Err(); err != nil {
				log.Printf("[pricing] Failed to cache rule set: %s\n", err.Error())
			}
		}
	}
	return rules, nil
}
