package services

import (
	"vbs/src/types"
	"vbs/src/utils"
)

// Cashback can never cover more than half an order. This is a hard
// business rule: a booking must always leave some revenue on the table.
const maxCashbackShare = 0.5

// PromoQuote is a promo code already validated against the ordering user;
// the composer only does arithmetic with it.
type PromoQuote struct {
	PromoCodeID   uint
	DiscountType  types.DiscountType
	DiscountValue float64
	MaxDiscount   float64
}

type DiscountInput struct {
	Subtotal          float64
	Promo             *PromoQuote
	LoyaltyPercent    float64
	CashbackRequested float64
	CashbackBalance   float64
	// GiftCardBalance of zero means no card was presented.
	GiftCardBalance float64
}

type DiscountBreakdown struct {
	PromoDiscount   float64 `json:"promo_discount"`
	LoyaltyDiscount float64 `json:"loyalty_discount"`
	CashbackUsed    float64 `json:"cashback_used"`
	GiftCardAmount  float64 `json:"gift_card_amount"`
	TotalDiscount   float64 `json:"total_discount"`
	Total           float64 `json:"total"`
}

// DiscountComposer stacks the four discount channels in a fixed order:
// promo, loyalty, cashback, gift card. Promo, loyalty and cashback are all
// computed against the subtotal; only the gift card sees the remainder.
// Reordering changes the capped amounts of existing bookings, so the
// sequence must stay exactly as is.
type DiscountComposer struct{}

func NewDiscountComposer() *DiscountComposer {
	return &DiscountComposer{}
}

func (c *DiscountComposer) Compose(in DiscountInput) DiscountBreakdown {
	var out DiscountBreakdown

	if in.Promo != nil {
		promo := in.Promo.DiscountValue
		if in.Promo.DiscountType == types.DISCOUNT_PERCENTAGE {
			promo = in.Subtotal * in.Promo.DiscountValue / 100
		}
		// The ceiling binds both promo kinds; a fixed code above its own
		// cap is a data-entry mistake, not a bigger discount.
		if in.Promo.MaxDiscount > 0 && promo > in.Promo.MaxDiscount {
			promo = in.Promo.MaxDiscount
		}
		if promo > in.Subtotal {
			promo = in.Subtotal
		}
		out.PromoDiscount = utils.RoundMoney(promo)
	}

	if in.LoyaltyPercent > 0 {
		// Applied to the same subtotal, not compounded on the
		// promo-reduced amount.
		out.LoyaltyDiscount = utils.RoundMoney(in.Subtotal * in.LoyaltyPercent / 100)
	}

	if in.CashbackRequested > 0 {
		cashback := in.CashbackRequested
		if cashback > in.CashbackBalance {
			cashback = in.CashbackBalance
		}
		if cap := in.Subtotal * maxCashbackShare; cashback > cap {
			cashback = cap
		}
		out.CashbackUsed = utils.RoundMoney(cashback)
	}

	if in.GiftCardBalance > 0 {
		afterDiscounts := in.Subtotal - out.PromoDiscount - out.LoyaltyDiscount - out.CashbackUsed
		if afterDiscounts < 0 {
			afterDiscounts = 0
		}
		giftCard := in.GiftCardBalance
		if giftCard > afterDiscounts {
			giftCard = afterDiscounts
		}
		out.GiftCardAmount = utils.RoundMoney(giftCard)
	}

	out.TotalDiscount = utils.RoundMoney(out.PromoDiscount + out.LoyaltyDiscount + out.CashbackUsed + out.GiftCardAmount)
	out.Total = utils.RoundMoney(in.Subtotal - out.TotalDiscount)
	if out.Total < 0 {
		out.Total = 0
	}
	return out
}
