package repository

import (
	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"gorm.io/gorm"
)

type FacilityRepository interface {
	Create(facility *model.Facility) error
	Update(facility *model.Facility) error
	FindByID(id uint) (*model.Facility, error)
	FindByFacilityID(facilityID string) (*model.Facility, error)
	ListByCompany(companyID uint) ([]model.Facility, error)
	ListAll() ([]model.Facility, error)
	WithTx(tx *gorm.DB) FacilityRepository
}

type facilityRepository struct {
	db *gorm.DB
}

func NewFacilityRepository(db *gorm.DB) FacilityRepository {
	return &facilityRepository{db: db}
}

func (r *facilityRepository) WithTx(tx *gorm.DB) FacilityRepository {
	return &facilityRepository{db: tx}
}

func (r *facilityRepository) Create(facility *model.Facility) error {
	logger.Debug("Creating facility in database", map[string]interface{}{
		"facility_id": facility.Code,
		"company_id":  facility.CompanyID,
	})

	if err := r.db.Create(facility).Error; err != nil {
		logger.Error("Failed to create facility in database", err, map[string]interface{}{
			"facility_id": facility.Code,
		})
		return err
	}
	return nil
}

func (r *facilityRepository) Update(facility *model.Facility) error {
	logger.Debug("Updating facility in database", map[string]interface{}{
		"id": facility.ID,
	})

	if err := r.db.Save(facility).Error; err != nil {
		logger.Error("Failed to update facility in database", err, map[string]interface{}{
			"id": facility.ID,
		})
		return err
	}
	return nil
}

func (r *facilityRepository) FindByID(id uint) (*model.Facility, error) {
	var facility model.Facility
	if err := r.db.First(&facility, id).Error; err != nil {
		return nil, err
	}
	return &facility, nil
}

func (r *facilityRepository) FindByFacilityID(facilityID string) (*model.Facility, error) {
	logger.Debug("Finding facility by code", map[string]interface{}{
		"facility_id": facilityID,
	})

	var facility model.Facility
	if err := r.db.Where("facility_id = ?", facilityID).First(&facility).Error; err != nil {
		return nil, err
	}
	return &facility, nil
}

func (r *facilityRepository) ListByCompany(companyID uint) ([]model.Facility, error) {
	var facilities []model.Facility
	if err := r.db.Where("company_id = ?", companyID).Order("facility_id ASC").Find(&facilities).Error; err != nil {
		logger.Error("Failed to list facilities", err, map[string]interface{}{
			"company_id": companyID,
		})
		return nil, err
	}

	logger.Debug("Facilities listed", map[string]interface{}{
		"company_id": companyID,
		"count":      len(facilities),
	})
	return facilities, nil
}

func (r *facilityRepository) ListAll() ([]model.Facility, error) {
	var facilities []model.Facility
	if err := r.db.Order("facility_id ASC").Find(&facilities).Error; err != nil {
		logger.Error("Failed to list all facilities", err)
		return nil, err
	}
	return facilities, nil
}
