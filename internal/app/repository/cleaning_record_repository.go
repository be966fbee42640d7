package repository

import (
	"time"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type CleaningRecordRepository interface {
	// FindOrCreate returns the record for (facility, room, day), creating it when absent.
	// cleaningDate must already be normalized to the start of the JST day.
	FindOrCreate(facilityID uint, roomType string, cleaningDate time.Time, staffID *uint) (*model.CleaningRecord, bool, error)
	FindByID(id uint) (*model.CleaningRecord, error)
	WithTx(tx *gorm.DB) CleaningRecordRepository
}

type cleaningRecordRepository struct {
	db *gorm.DB
}

func NewCleaningRecordRepository(db *gorm.DB) CleaningRecordRepository {
	return &cleaningRecordRepository{db: db}
}

func (r *cleaningRecordRepository) WithTx(tx *gorm.DB) CleaningRecordRepository {
	return &cleaningRecordRepository{db: tx}
}

func (r *cleaningRecordRepository) find(facilityID uint, roomType string, cleaningDate time.Time) (*model.CleaningRecord, error) {
	var record model.CleaningRecord
	err := r.db.
		Where("facility_id = ? AND room_type = ? AND cleaning_date = ?", facilityID, roomType, cleaningDate.UTC()).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *cleaningRecordRepository) FindOrCreate(facilityID uint, roomType string, cleaningDate time.Time, staffID *uint) (*model.CleaningRecord, bool, error) {
	fields := map[string]interface{}{
		"facility_id":   facilityID,
		"room_type":     roomType,
		"cleaning_date": cleaningDate.UTC().Format(time.RFC3339),
	}
	logger.Debug("Finding or creating cleaning record", fields)

	record, err := r.find(facilityID, roomType, cleaningDate)
	if err == nil {
		return record, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to look up cleaning record", err, fields)
		return nil, false, err
	}

	record = &model.CleaningRecord{
		FacilityID:   facilityID,
		RoomType:     roomType,
		CleaningDate: cleaningDate.UTC(),
		Status:       model.RecordStatusInProgress,
		StaffID:      staffID,
	}
	createErr := r.db.Create(record).Error
	if createErr == nil {
		logger.Debug("Cleaning record created", map[string]interface{}{
			"record_id": record.ID,
		})
		return record, true, nil
	}

	// A concurrent request may have inserted the same key first
	winner, err := r.find(facilityID, roomType, cleaningDate)
	if err == nil {
		logger.Debug("Cleaning record created concurrently, returning existing row", map[string]interface{}{
			"record_id": winner.ID,
		})
		return winner, false, nil
	}

	logger.Error("Failed to create cleaning record", createErr, fields)
	return nil, false, createErr
}

func (r *cleaningRecordRepository) FindByID(id uint) (*model.CleaningRecord, error) {
	var record model.CleaningRecord
	if err := r.db.First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}
