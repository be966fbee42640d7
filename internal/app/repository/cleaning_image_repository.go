package repository

import (
	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"gorm.io/gorm"
)

// ImageScope limits which images a hierarchy query may see.
// CompanyID restricts to facilities of one company; FacilityIDs restricts to an explicit set
// (client users). FacilityID narrows further to one facility. Nil/empty fields do not filter.
type ImageScope struct {
	CompanyID   *uint
	FacilityIDs []uint
	FacilityID  *uint
}

type CleaningImageRepository interface {
	Create(image *model.CleaningImage) error
	FindByID(id uint) (*model.CleaningImage, error)
	Update(image *model.CleaningImage) error
	// Delete removes the row and reports whether it existed
	Delete(id uint) (bool, error)
	ListForHierarchy(scope ImageScope) ([]model.CleaningImage, error)
	CountByRecordPhase(recordID uint, phase model.BeforeAfter) (int64, error)
	WithTx(tx *gorm.DB) CleaningImageRepository
}

type cleaningImageRepository struct {
	db *gorm.DB
}

func NewCleaningImageRepository(db *gorm.DB) CleaningImageRepository {
	return &cleaningImageRepository{db: db}
}

func (r *cleaningImageRepository) WithTx(tx *gorm.DB) CleaningImageRepository {
	return &cleaningImageRepository{db: tx}
}

func (r *cleaningImageRepository) Create(image *model.CleaningImage) error {
	logger.Debug("Creating cleaning image in database", map[string]interface{}{
		"record_id":    image.RecordID,
		"before_after": image.BeforeAfter,
		"path":         image.ObjectPath,
	})

	if err := r.db.Create(image).Error; err != nil {
		logger.Error("Failed to create cleaning image in database", err, map[string]interface{}{
			"record_id": image.RecordID,
		})
		return err
	}
	return nil
}

func (r *cleaningImageRepository) FindByID(id uint) (*model.CleaningImage, error) {
	var image model.CleaningImage
	if err := r.db.First(&image, id).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *cleaningImageRepository) Update(image *model.CleaningImage) error {
	logger.Debug("Updating cleaning image in database", map[string]interface{}{
		"image_id": image.ID,
	})

	if err := r.db.Save(image).Error; err != nil {
		logger.Error("Failed to update cleaning image in database", err, map[string]interface{}{
			"image_id": image.ID,
		})
		return err
	}
	return nil
}

func (r *cleaningImageRepository) Delete(id uint) (bool, error) {
	result := r.db.Delete(&model.CleaningImage{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete cleaning image from database", result.Error, map[string]interface{}{
			"image_id": id,
		})
		return false, result.Error
	}

	logger.Debug("Cleaning image delete executed", map[string]interface{}{
		"image_id": id,
		"rows":     result.RowsAffected,
	})
	return result.RowsAffected > 0, nil
}

func (r *cleaningImageRepository) ListForHierarchy(scope ImageScope) ([]model.CleaningImage, error) {
	query := r.db.Model(&model.CleaningImage{}).
		Preload("Facility").
		Preload("Record").
		Preload("UploadedBy")

	if scope.CompanyID != nil {
		query = query.Where("facility_id IN (?)",
			r.db.Model(&model.Facility{}).Select("id").Where("company_id = ?", *scope.CompanyID))
	}
	if scope.FacilityIDs != nil {
		if len(scope.FacilityIDs) == 0 {
			return []model.CleaningImage{}, nil
		}
		query = query.Where("facility_id IN ?", scope.FacilityIDs)
	}
	if scope.FacilityID != nil {
		query = query.Where("facility_id = ?", *scope.FacilityID)
	}

	var images []model.CleaningImage
	if err := query.Order("id ASC").Find(&images).Error; err != nil {
		logger.Error("Failed to list cleaning images for hierarchy", err)
		return nil, err
	}

	logger.Debug("Cleaning images listed for hierarchy", map[string]interface{}{
		"count": len(images),
	})
	return images, nil
}

func (r *cleaningImageRepository) CountByRecordPhase(recordID uint, phase model.BeforeAfter) (int64, error) {
	var count int64
	err := r.db.Model(&model.CleaningImage{}).
		Where("record_id = ? AND before_after = ?", recordID, phase).
		Count(&count).Error
	return count, err
}
