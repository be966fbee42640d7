package repository

import (
	"time"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"gorm.io/gorm"
)

type ReceiptRepository interface {
	Create(receipt *model.Receipt) error
	FindByID(id uint) (*model.Receipt, error)
	ListByFacility(facilityID uint) ([]model.Receipt, error)
	// ListByFacilityBetween returns receipts with from <= uploaded_at < to
	ListByFacilityBetween(facilityID uint, from, to time.Time) ([]model.Receipt, error)
	Delete(id uint) (bool, error)
	WithTx(tx *gorm.DB) ReceiptRepository
}

type receiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) WithTx(tx *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: tx}
}

func (r *receiptRepository) Create(receipt *model.Receipt) error {
	logger.Debug("Creating receipt in database", map[string]interface{}{
		"facility_id": receipt.FacilityID,
		"path":        receipt.ObjectPath,
	})

	if err := r.db.Create(receipt).Error; err != nil {
		logger.Error("Failed to create receipt in database", err, map[string]interface{}{
			"facility_id": receipt.FacilityID,
		})
		return err
	}
	return nil
}

func (r *receiptRepository) FindByID(id uint) (*model.Receipt, error) {
	var receipt model.Receipt
	if err := r.db.First(&receipt, id).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) ListByFacility(facilityID uint) ([]model.Receipt, error) {
	var receipts []model.Receipt
	err := r.db.Where("facility_id = ?", facilityID).
		Order("uploaded_at DESC").Order("id DESC").
		Find(&receipts).Error
	if err != nil {
		logger.Error("Failed to list receipts", err, map[string]interface{}{
			"facility_id": facilityID,
		})
		return nil, err
	}
	return receipts, nil
}

func (r *receiptRepository) ListByFacilityBetween(facilityID uint, from, to time.Time) ([]model.Receipt, error) {
	var receipts []model.Receipt
	err := r.db.Where("facility_id = ? AND uploaded_at >= ? AND uploaded_at < ?", facilityID, from.UTC(), to.UTC()).
		Order("uploaded_at ASC").Order("id ASC").
		Find(&receipts).Error
	if err != nil {
		logger.Error("Failed to list receipts in range", err, map[string]interface{}{
			"facility_id": facilityID,
		})
		return nil, err
	}
	return receipts, nil
}

func (r *receiptRepository) Delete(id uint) (bool, error) {
	result := r.db.Delete(&model.Receipt{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete receipt from database", result.Error, map[string]interface{}{
			"receipt_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
