package db

import (
	"time"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/pkg/jst"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by the service, in dependency order
func Models() []interface{} {
	return []interface{}{
		&model.Company{},
		&model.Facility{},
		&model.User{},
		&model.CleaningRecord{},
		&model.CleaningImage{},
		&model.Receipt{},
		&model.ClientApplication{},
		&model.CleaningGuideline{},
		&model.Notification{},
		&model.BlobDeletion{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB migrates the given connection
func MigrateDB(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := backfillReceiptUploadedAt(db); err != nil {
		logger.Error("Failed to backfill receipt upload times", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// backfillReceiptUploadedAt gives legacy receipts that only carry year/month
// an upload time on the first day of that month (JST midnight).
func backfillReceiptUploadedAt(db *gorm.DB) error {
	var legacy []model.Receipt
	if err := db.Where("(uploaded_at IS NULL OR uploaded_at = ?) AND year IS NOT NULL AND month IS NOT NULL", time.Time{}).
		Find(&legacy).Error; err != nil {
		return err
	}
	if len(legacy) == 0 {
		return nil
	}

	for _, r := range legacy {
		at := legacyMonthStart(*r.Year, *r.Month)
		if err := db.Model(&model.Receipt{}).Where("id = ?", r.ID).Update("uploaded_at", at).Error; err != nil {
			return err
		}
	}

	logger.Info("Backfilled legacy receipt upload times", map[string]interface{}{
		"count": len(legacy),
	})
	return nil
}

func legacyMonthStart(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, jst.Zone).UTC()
}
