package boot

import (
	"log"
	"time"
	"vbs/src/config"
	"vbs/src/db"
	"vbs/src/lib"
	"vbs/src/models"
	"vbs/src/services"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.LoyaltyTier{},
		&models.Vendor{},
		&models.Vessel{},
		&models.Tour{},
		&models.Addon{},
		&models.Package{},
		&models.PricingRule{},
		&models.PromoCode{},
		&models.PromoUsage{},
		&models.GiftCard{},
		&models.StatusTransition{},
		&models.Booking{},
		&models.BookingAddon{},
		&models.BookingStatusHistory{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	if err := SeedStatusTransitions(db); err != nil {
		log.Fatalf("error seeding transitions: %s", err.Error())
	}

	return db
}

// SeedStatusTransitions installs the default transition table on an empty
// database. Rows edited by admins afterwards are left alone.
func SeedStatusTransitions(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.StatusTransition{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	rows := models.DefaultStatusTransitions()
	if err := db.Create(&rows).Error; err != nil {
		return err
	}
	log.Printf("Seeded %d status transitions", len(rows))
	return nil
}

func InitSweeps(sweeps *services.SweepService) {
	interval := config.SweepInterval()
	maxAge := config.PendingMaxAge()
	id, err := lib.CreateCronJob(func() {
		res := sweeps.ExpireStalePending(maxAge)
		log.Printf("[sweep] expire-stale-pending: processed=%d succeeded=%d failed=%d", res.Processed, res.Succeeded, res.Failed)
	}, interval)
	if err != nil {
		log.Printf("Error scheduling expiry sweep: %s\n", err.Error())
	} else {
		log.Printf("Scheduled expiry sweep every %s: %s", interval, *id)
	}

	id, err = lib.CreateCronJob(func() {
		res := sweeps.CompletePastDue()
		log.Printf("[sweep] complete-past-due: processed=%d succeeded=%d failed=%d", res.Processed, res.Succeeded, res.Failed)
	}, 24*time.Hour)
	if err != nil {
		log.Printf("Error scheduling completion sweep: %s\n", err.Error())
	} else {
		log.Printf("Scheduled completion sweep: %s", *id)
	}

	lib.StartScheduler()
}

func StopScheduler() {
	lib.StopScheduler()
}
