package services

import (
	"testing"

	"vbs/src/types"

	"github.com/stretchr/testify/assert"
)

func TestComposeAllChannelsInOrder(t *testing.T) {
	composer := NewDiscountComposer()
	out := composer.Compose(DiscountInput{
		Subtotal: 5000,
		Promo: &PromoQuote{
			DiscountType:  types.DISCOUNT_PERCENTAGE,
			DiscountValue: 20,
			MaxDiscount:   500,
		},
		LoyaltyPercent:    5,
		CashbackRequested: 3000,
		CashbackBalance:   2600,
		GiftCardBalance:   10000,
	})

	assert.Equal(t, 500.0, out.PromoDiscount)
	assert.Equal(t, 250.0, out.LoyaltyDiscount)
	// Requested 3000, balance 2600, hard cap at half the subtotal.
	assert.Equal(t, 2500.0, out.CashbackUsed)
	assert.Equal(t, 1750.0, out.GiftCardAmount)
	assert.Equal(t, 5000.0, out.TotalDiscount)
	assert.Equal(t, 0.0, out.Total)
}

func TestComposeNoChannels(t *testing.T) {
	composer := NewDiscountComposer()
	out := composer.Compose(DiscountInput{Subtotal: 1200})

	assert.Equal(t, 0.0, out.TotalDiscount)
	assert.Equal(t, 1200.0, out.Total)
}

func TestComposeFixedPromoCappedAtSubtotal(t *testing.T) {
	composer := NewDiscountComposer()
	out := composer.Compose(DiscountInput{
		Subtotal: 80,
		Promo: &PromoQuote{
			DiscountType:  types.DISCOUNT_FIXED,
			DiscountValue: 100,
		},
	})

	assert.Equal(t, 80.0, out.PromoDiscount)
	assert.Equal(t, 0.0, out.Total)
}

func TestComposeFixedPromoCappedByCeiling(t *testing.T) {
	composer := NewDiscountComposer()
	out := composer.Compose(DiscountInput{
		Subtotal: 1000,
		Promo: &PromoQuote{
			DiscountType:  types.DISCOUNT_FIXED,
			DiscountValue: 300,
			MaxDiscount:   200,
		},
	})

	assert.Equal(t, 200.0, out.PromoDiscount)
	assert.Equal(t, 800.0, out.Total)
}

func TestComposePercentagePromoUncappedWithoutMax(t *testing.T) {
	composer := NewDiscountComposer()
	out := composer.Compose(DiscountInput{
		Subtotal: 2000,
		Promo: &PromoQuote{
			DiscountType:  types.DISCOUNT_PERCENTAGE,
			DiscountValue: 25,
		},
	})

	assert.Equal(t, 500.0, out.PromoDiscount)
	assert.Equal(t, 1500.0, out.Total)
}

func TestComposeCashbackLimitedByBalance(t *testing.T) {
	composer := NewDiscountComposer()
	out := composer.Compose(DiscountInput{
		Subtotal:          1000,
		CashbackRequested: 400,
		CashbackBalance:   150,
	})

	assert.Equal(t, 150.0, out.CashbackUsed)
	assert.Equal(t, 850.0, out.Total)
}

func TestComposeLoyaltyNotCompoundedOnPromo(t *testing.T) {
	composer := NewDiscountComposer()
	out := composer.Compose(DiscountInput{
		Subtotal: 1000,
		Promo: &PromoQuote{
			DiscountType:  types.DISCOUNT_FIXED,
			DiscountValue: 200,
		},
		LoyaltyPercent: 10,
	})

	// 10% of the original subtotal, not of the promo-reduced 800.
	assert.Equal(t, 100.0, out.LoyaltyDiscount)
	assert.Equal(t, 700.0, out.Total)
}

func TestComposeGiftCardSeesOnlyRemainder(t *testing.T) {
	composer := NewDiscountComposer()
	out := composer.Compose(DiscountInput{
		Subtotal: 1000,
		Promo: &PromoQuote{
			DiscountType:  types.DISCOUNT_FIXED,
			DiscountValue: 300,
		},
		GiftCardBalance: 5000,
	})

	assert.Equal(t, 700.0, out.GiftCardAmount)
	assert.Equal(t, 0.0, out.Total)
}

func TestComposeTotalNeverNegative(t *testing.T) {
	composer := NewDiscountComposer()
	out := composer.Compose(DiscountInput{
		Subtotal: 100,
		Promo: &PromoQuote{
			DiscountType:  types.DISCOUNT_FIXED,
			DiscountValue: 100,
		},
		LoyaltyPercent: 10,
	})

	assert.GreaterOrEqual(t, out.Total, 0.0)
}
