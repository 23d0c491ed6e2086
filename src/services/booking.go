package services

import (
	"errors"
	"fmt"
	"time"

	"vbs/src/models"
	"vbs/src/types"
	"vbs/src/utils"

	"gorm.io/gorm"
)

// Vessel charters switch from hourly to day-rate pricing at this duration.
const dayRateThresholdHours = 8

const referenceMaxAttempts = 5

// BookingService is the create-booking use case: pricing, discount
// composition, atomic persistence, discount side effects and the seeding
// status transition all happen inside one transaction.
type BookingService struct {
	db       *gorm.DB
	pricing  *PricingEngine
	composer *DiscountComposer
	sm       *StateMachine
}

func NewBookingService(db *gorm.DB, pricing *PricingEngine, composer *DiscountComposer, sm *StateMachine) *BookingService {
	return &BookingService{
		db:       db,
		pricing:  pricing,
		composer: composer,
		sm:       sm,
	}
}

type bookingParams struct {
	BookingType   types.BookableType
	ItemID        uint
	Date          time.Time
	StartTime     *string
	DurationHours *float64
	Adults        int
	Children      int
	Infants       int
	Addons        []types.AddonSelectionItem
	PackageID     *uint
	PromoCode     string
	GiftCardCode  string
	UseCashback   float64
	PickupHotel   *string
	Notes         string
}

type resolvedItem struct {
	Name      string
	VendorID  *uint
	Scope     types.RuleScope
	ItemType  string
	BasePrice float64
	PickupFee float64
}

type pricingComputation struct {
	User      *models.User
	Item      resolvedItem
	Pricing   *PricingResult
	Package   *models.Package
	Promo     *PromoQuote
	PromoRow  *models.PromoCode
	GiftCard  *models.GiftCard
	AddonRows []models.BookingAddon

	BasePrice         float64
	DynamicAdjustment float64
	ExtrasPrice       float64
	PickupFee         float64
	Subtotal          float64
	Discounts         DiscountBreakdown
}

func (s *BookingService) Create(ownerID uint, req *types.CreateBookingRequestBody) (*models.Booking, error) {
	params, err := paramsFromCreateRequest(req)
	if err != nil {
		return nil, err
	}

	var booking models.Booking
	err = s.db.Transaction(func(tx *gorm.DB) error {
		comp, err := s.compute(tx, ownerID, params)
		if err != nil {
			return err
		}

		cashbackPercent := 0.0
		if comp.User.LoyaltyTier != nil {
			cashbackPercent = comp.User.LoyaltyTier.CashbackPercent
		}
		cashbackEarned := utils.RoundMoney(comp.Discounts.Total * cashbackPercent / 100)

		var commission float64
		if comp.Item.VendorID != nil {
			var vendor models.Vendor
			if err := tx.First(&vendor, *comp.Item.VendorID).Error; err == nil {
				commission = utils.RoundMoney(comp.Discounts.Total * vendor.CommissionRate / 100)
			}
		}

		reference, err := s.generateReference(tx)
		if err != nil {
			return err
		}

		booking = models.Booking{
			Reference:         reference,
			UserID:            ownerID,
			BookingType:       params.BookingType,
			ItemID:            params.ItemID,
			Date:              params.Date,
			StartTime:         params.StartTime,
			DurationHours:     params.DurationHours,
			Adults:            params.Adults,
			Children:          params.Children,
			Infants:           params.Infants,
			BasePrice:         comp.BasePrice,
			DynamicAdjustment: comp.DynamicAdjustment,
			ExtrasPrice:       comp.ExtrasPrice,
			PickupFee:         comp.PickupFee,
			Subtotal:          comp.Subtotal,
			PromoDiscount:     comp.Discounts.PromoDiscount,
			LoyaltyDiscount:   comp.Discounts.LoyaltyDiscount,
			CashbackUsed:      comp.Discounts.CashbackUsed,
			GiftCardAmount:    comp.Discounts.GiftCardAmount,
			TotalDiscount:     comp.Discounts.TotalDiscount,
			Total:             comp.Discounts.Total,
			CashbackPercent:   cashbackPercent,
			CashbackEarned:    cashbackEarned,
			CashbackStatus:    types.CASHBACK_PENDING,
			PackageID:         params.PackageID,
			VendorID:          comp.Item.VendorID,
			CommissionAmount:  commission,
			Status:            types.BOOKING_NEW,
			PickupHotel:       params.PickupHotel,
			Notes:             params.Notes,
		}
		if comp.PromoRow != nil {
			booking.PromoCodeID = &comp.PromoRow.ID
		}
		if comp.GiftCard != nil {
			booking.GiftCardID = &comp.GiftCard.ID
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		for i := range comp.AddonRows {
			comp.AddonRows[i].BookingID = booking.ID
		}
		if len(comp.AddonRows) > 0 {
			if err := tx.Create(&comp.AddonRows).Error; err != nil {
				return err
			}
		}

		if err := s.applyDiscountSideEffects(tx, &booking, comp); err != nil {
			return err
		}

		// Seed the audit trail. The booking is inserted as "new" and
		// becomes pending through a real transition so its history
		// starts with a row.
		if _, err := s.sm.TransitionTx(tx, booking.ID, types.BOOKING_PENDING, types.ACTOR_SYSTEM, nil, "Booking created"); err != nil {
			return err
		}

		return tx.Preload("Addons").First(&booking, booking.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

type QuoteResult struct {
	BasePrice         float64           `json:"base_price"`
	DynamicAdjustment float64           `json:"dynamic_adjustment"`
	ExtrasPrice       float64           `json:"extras_price"`
	PickupFee         float64           `json:"pickup_fee"`
	Subtotal          float64           `json:"subtotal"`
	Discounts         DiscountBreakdown `json:"discounts"`
	AppliedRules      []AppliedRule     `json:"applied_rules,omitempty"`
}

// Quote runs the full pricing and discount pipeline without persisting
// anything; the front end's live price preview.
func (s *BookingService) Quote(userID uint, req *types.QuoteRequestBody) (*QuoteResult, error) {
	params, err := paramsFromQuoteRequest(req)
	if err != nil {
		return nil, err
	}
	comp, err := s.compute(s.db, userID, params)
	if err != nil {
		return nil, err
	}
	result := QuoteResult{
		BasePrice:         comp.BasePrice,
		DynamicAdjustment: comp.DynamicAdjustment,
		ExtrasPrice:       comp.ExtrasPrice,
		PickupFee:         comp.PickupFee,
		Subtotal:          comp.Subtotal,
		Discounts:         comp.Discounts,
	}
	if comp.Pricing != nil {
		result.AppliedRules = comp.Pricing.Breakdown
	}
	return &result, nil
}

func (s *BookingService) compute(tx *gorm.DB, userID uint, params *bookingParams) (*pricingComputation, error) {
	comp := pricingComputation{}

	var user models.User
	if err := tx.Preload("LoyaltyTier").First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("resolve user %d: %w", userID, err)
	}
	comp.User = &user

	item, err := s.resolveItem(tx, params)
	if err != nil {
		return nil, err
	}
	comp.Item = *item
	comp.BasePrice = item.BasePrice
	if params.PickupHotel != nil {
		comp.PickupFee = item.PickupFee
	}

	guests := params.Adults + params.Children

	if params.PackageID != nil {
		if err := s.computePackage(tx, &comp, params, guests); err != nil {
			return nil, err
		}
	} else {
		duration := 0.0
		if params.DurationHours != nil {
			duration = *params.DurationHours
		}
		pricing, err := s.pricing.Calculate(PricingInput{
			BasePrice:     item.BasePrice,
			BookingDate:   params.Date,
			AppliesTo:     item.Scope,
			ItemType:      item.ItemType,
			ItemID:        params.ItemID,
			GuestCount:    guests,
			DurationHours: duration,
		})
		if err != nil {
			return nil, err
		}
		comp.Pricing = pricing
		comp.DynamicAdjustment = utils.RoundMoney(pricing.FinalPrice - item.BasePrice)

		rows, extras, err := s.priceAddons(tx, params.Addons, guests, duration)
		if err != nil {
			return nil, err
		}
		comp.AddonRows = rows
		comp.ExtrasPrice = extras
		comp.Subtotal = utils.RoundMoney(pricing.FinalPrice + extras + comp.PickupFee)
	}

	var promoQuote *PromoQuote
	if params.PromoCode != "" {
		quote, row, err := s.resolvePromo(tx, params.PromoCode, userID, comp.Subtotal)
		if err != nil {
			return nil, err
		}
		promoQuote = quote
		comp.Promo = quote
		comp.PromoRow = row
	}

	var giftCardBalance float64
	if params.GiftCardCode != "" {
		card, err := s.resolveGiftCard(tx, params.GiftCardCode)
		if err != nil {
			return nil, err
		}
		comp.GiftCard = card
		giftCardBalance = card.Balance
	}

	loyaltyPercent := 0.0
	if user.LoyaltyTier != nil {
		loyaltyPercent = user.LoyaltyTier.DiscountPercent
	}
	comp.Discounts = s.composer.Compose(DiscountInput{
		Subtotal:          comp.Subtotal,
		Promo:             promoQuote,
		LoyaltyPercent:    loyaltyPercent,
		CashbackRequested: params.UseCashback,
		CashbackBalance:   user.CashbackBalance,
		GiftCardBalance:   giftCardBalance,
	})

	return &comp, nil
}

func (s *BookingService) resolveItem(tx *gorm.DB, params *bookingParams) (*resolvedItem, error) {
	switch params.BookingType {
	case types.BOOKABLE_VESSEL:
		var vessel models.Vessel
		if err := tx.Where("active = ?", true).First(&vessel, params.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrItemNotFound
			}
			return nil, err
		}
		if params.DurationHours == nil {
			return nil, ErrDurationRequired
		}
		duration := *params.DurationHours
		base := vessel.PricePerHour * duration
		if duration >= dayRateThresholdHours {
			base = vessel.PricePerDay
		}
		return &resolvedItem{
			Name:      vessel.Name,
			VendorID:  vessel.VendorID,
			Scope:     types.SCOPE_VESSELS,
			ItemType:  vessel.Type,
			BasePrice: utils.RoundMoney(base),
		}, nil
	case types.BOOKABLE_TOUR:
		var tour models.Tour
		if err := tx.Where("active = ?", true).First(&tour, params.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrItemNotFound
			}
			return nil, err
		}
		base := float64(params.Adults)*tour.PriceAdult + float64(params.Children)*tour.PriceChild
		return &resolvedItem{
			Name:      tour.Name,
			VendorID:  tour.VendorID,
			Scope:     types.SCOPE_TOURS,
			ItemType:  tour.Category,
			BasePrice: utils.RoundMoney(base),
			PickupFee: tour.PickupFee,
		}, nil
	}
	return nil, ErrInvalidBookingType
}

// priceAddons snapshots unit and total prices for each selection. Addon
// price semantics: per_person multiplies by guest count, per_hour by
// duration and quantity, per_item by quantity, fixed is flat.
func (s *BookingService) priceAddons(tx *gorm.DB, selections []types.AddonSelectionItem, guests int, duration float64) ([]models.BookingAddon, float64, error) {
	var rows []models.BookingAddon
	var extras float64
	for _, sel := range selections {
		var addon models.Addon
		if err := tx.Where("active = ?", true).First(&addon, sel.AddonID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, fmt.Errorf("%w: %d", ErrAddonNotFound, sel.AddonID)
			}
			return nil, 0, err
		}
		var total float64
		switch addon.PriceType {
		case types.ADDON_PER_PERSON:
			total = addon.Price * float64(guests)
		case types.ADDON_PER_HOUR:
			total = addon.Price * duration * float64(sel.Qty)
		case types.ADDON_PER_ITEM:
			total = addon.Price * float64(sel.Qty)
		default:
			total = addon.Price
		}
		total = utils.RoundMoney(total)
		rows = append(rows, models.BookingAddon{
			AddonID:   addon.ID,
			Name:      addon.Name,
			PriceType: addon.PriceType,
			Qty:       sel.Qty,
			UnitPrice: addon.Price,
			Total:     total,
		})
		extras += total
	}
	return rows, utils.RoundMoney(extras), nil
}

// computePackage overrides engine pricing with the package's bundled
// calculation: item base price plus included addons, minus the package
// discount. Independent addon pricing is skipped entirely. The package
// discount lands in DynamicAdjustment so the breakdown invariant
// subtotal = base + adjustment + extras + pickup still holds.
func (s *BookingService) computePackage(tx *gorm.DB, comp *pricingComputation, params *bookingParams, guests int) error {
	var pkg models.Package
	if err := tx.Where("active = ?", true).First(&pkg, *params.PackageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPackageNotFound
		}
		return err
	}
	if pkg.ItemType != params.BookingType || pkg.ItemID != params.ItemID {
		return ErrPackageInvalid
	}
	if pkg.MaxBookings > 0 && pkg.BookingsCount >= pkg.MaxBookings {
		return ErrPackageExhausted
	}
	comp.Package = &pkg

	duration := 0.0
	if params.DurationHours != nil {
		duration = *params.DurationHours
	}
	selections := make([]types.AddonSelectionItem, 0, len(pkg.AddonIDs))
	for _, addonID := range pkg.AddonIDs {
		selections = append(selections, types.AddonSelectionItem{AddonID: addonID, Qty: 1})
	}
	rows, extras, err := s.priceAddons(tx, selections, guests, duration)
	if err != nil {
		return err
	}
	comp.AddonRows = rows
	comp.ExtrasPrice = extras

	bundled := comp.BasePrice + extras
	discounted := utils.RoundMoney(bundled * (1 - pkg.DiscountPercent/100))
	comp.DynamicAdjustment = utils.RoundMoney(discounted - bundled)
	comp.Subtotal = utils.RoundMoney(discounted + comp.PickupFee)
	return nil
}

func (s *BookingService) resolvePromo(tx *gorm.DB, code string, userID uint, subtotal float64) (*PromoQuote, *models.PromoCode, error) {
	var promo models.PromoCode
	if err := tx.Where("code = ?", code).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPromoNotFound
		}
		return nil, nil, err
	}
	now := time.Now()
	if !promo.Active {
		return nil, nil, ErrPromoInactive
	}
	if promo.StartsAt != nil && now.Before(*promo.StartsAt) {
		return nil, nil, ErrPromoInactive
	}
	if promo.ExpiresAt != nil && now.After(*promo.ExpiresAt) {
		return nil, nil, ErrPromoExpired
	}
	if promo.UsageLimit > 0 && promo.UsedCount >= promo.UsageLimit {
		return nil, nil, ErrPromoExhausted
	}
	if promo.PerUserLimit > 0 {
		var used int64
		if err := tx.
			Model(&models.PromoUsage{}).
			Where(&models.PromoUsage{PromoCodeID: promo.ID, UserID: userID}).
			Count(&used).
			Error; err != nil {
			return nil, nil, err
		}
		if used >= int64(promo.PerUserLimit) {
			return nil, nil, ErrPromoExhausted
		}
	}
	if promo.MinOrderAmount > 0 && subtotal < promo.MinOrderAmount {
		return nil, nil, ErrPromoMinAmount
	}
	return &PromoQuote{
		PromoCodeID:   promo.ID,
		DiscountType:  promo.DiscountType,
		DiscountValue: promo.DiscountValue,
		MaxDiscount:   promo.MaxDiscount,
	}, &promo, nil
}

func (s *BookingService) resolveGiftCard(tx *gorm.DB, code string) (*models.GiftCard, error) {
	var card models.GiftCard
	if err := tx.Where("code = ?", code).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGiftCardNotFound
		}
		return nil, err
	}
	if card.Status != types.GIFT_CARD_ACTIVE || card.Balance <= 0 {
		return nil, ErrGiftCardInvalid
	}
	if card.ExpiresAt != nil && time.Now().After(*card.ExpiresAt) {
		return nil, ErrGiftCardExpired
	}
	return &card, nil
}

// applyDiscountSideEffects commits what the composed discounts promised:
// the cashback debit, the (possibly partial) gift card redemption, the
// promo usage counters and the package counter. All inside the creation
// transaction, so a failure unwinds the booking with it.
func (s *BookingService) applyDiscountSideEffects(tx *gorm.DB, booking *models.Booking, comp *pricingComputation) error {
	if booking.CashbackUsed > 0 {
		if err := tx.
			Model(&models.User{}).
			Where("id = ?", booking.UserID).
			Update("cashback_balance", gorm.Expr("cashback_balance - ?", booking.CashbackUsed)).
			Error; err != nil {
			return err
		}
	}

	if comp.GiftCard != nil && booking.GiftCardAmount > 0 {
		remaining := utils.RoundMoney(comp.GiftCard.Balance - booking.GiftCardAmount)
		updates := map[string]any{"balance": remaining}
		if remaining <= 0 {
			updates["status"] = types.GIFT_CARD_USED
		}
		if err := tx.
			Model(&models.GiftCard{}).
			Where("id = ?", comp.GiftCard.ID).
			Updates(updates).
			Error; err != nil {
			return err
		}
	}

	if comp.PromoRow != nil && booking.PromoDiscount > 0 {
		if err := tx.
			Model(&models.PromoCode{}).
			Where("id = ?", comp.PromoRow.ID).
			Update("used_count", gorm.Expr("used_count + ?", 1)).
			Error; err != nil {
			return err
		}
		usage := models.PromoUsage{
			PromoCodeID: comp.PromoRow.ID,
			UserID:      booking.UserID,
			BookingID:   booking.ID,
			Amount:      booking.PromoDiscount,
		}
		if err := tx.Create(&usage).Error; err != nil {
			return err
		}
	}

	if comp.Package != nil {
		if err := tx.
			Model(&models.Package{}).
			Where("id = ?", comp.Package.ID).
			Update("bookings_count", gorm.Expr("bookings_count + ?", 1)).
			Error; err != nil {
			return err
		}
	}

	return nil
}

func (s *BookingService) generateReference(tx *gorm.DB) (string, error) {
	for i := 0; i < referenceMaxAttempts; i++ {
		reference := utils.GenerateBookingReference(time.Now())
		var count int64
		if err := tx.
			Model(&models.Booking{}).
			Where("reference = ?", reference).
			Count(&count).
			Error; err != nil {
			return "", err
		}
		if count == 0 {
			return reference, nil
		}
	}
	return "", errors.New("could not generate a unique booking reference")
}

func paramsFromCreateRequest(req *types.CreateBookingRequestBody) (*bookingParams, error) {
	date, err := time.Parse(types.DATE_PARSE_FORMAT, req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid booking date %q: %w", req.Date, err)
	}
	btype := types.BookableType(req.BookingType)
	if btype != types.BOOKABLE_VESSEL && btype != types.BOOKABLE_TOUR {
		return nil, ErrInvalidBookingType
	}
	return &bookingParams{
		BookingType:   btype,
		ItemID:        req.ItemID,
		Date:          date,
		StartTime:     req.StartTime,
		DurationHours: req.DurationHours,
		Adults:        req.Adults,
		Children:      req.Children,
		Infants:       req.Infants,
		Addons:        req.Addons,
		PackageID:     req.PackageID,
		PromoCode:     req.PromoCode,
		GiftCardCode:  req.GiftCardCode,
		UseCashback:   req.UseCashback,
		PickupHotel:   req.PickupHotel,
		Notes:         req.Notes,
	}, nil
}

func paramsFromQuoteRequest(req *types.QuoteRequestBody) (*bookingParams, error) {
	date, err := time.Parse(types.DATE_PARSE_FORMAT, req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid booking date %q: %w", req.Date, err)
	}
	btype := types.BookableType(req.BookingType)
	if btype != types.BOOKABLE_VESSEL && btype != types.BOOKABLE_TOUR {
		return nil, ErrInvalidBookingType
	}
	return &bookingParams{
		BookingType:   btype,
		ItemID:        req.ItemID,
		Date:          date,
		DurationHours: req.DurationHours,
		Adults:        req.Adults,
		Children:      req.Children,
		Addons:        req.Addons,
		PromoCode:     req.PromoCode,
		GiftCardCode:  req.GiftCardCode,
		UseCashback:   req.UseCashback,
		PickupHotel:   req.PickupHotel,
	}, nil
}
