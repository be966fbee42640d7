package repository

import (
	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"gorm.io/gorm"
)

type ClientApplicationRepository interface {
	Create(app *model.ClientApplication) error
	FindByID(id uint) (*model.ClientApplication, error)
	// ListByCompany lists applications for facilities of a company, optionally one facility only
	ListByCompany(companyID uint, facilityID *uint) ([]model.ClientApplication, error)
	ListByUser(userID uint) ([]model.ClientApplication, error)
	UpdateStatus(id uint, status model.ApplicationStatus) error
}

type clientApplicationRepository struct {
	db *gorm.DB
}

func NewClientApplicationRepository(db *gorm.DB) ClientApplicationRepository {
	return &clientApplicationRepository{db: db}
}

func (r *clientApplicationRepository) Create(app *model.ClientApplication) error {
	logger.Debug("Creating client application", map[string]interface{}{
		"facility_id": app.FacilityID,
		"user_id":     app.UserID,
		"room_type":   app.RoomType,
	})

	if err := r.db.Create(app).Error; err != nil {
		logger.Error("Failed to create client application", err)
		return err
	}
	return nil
}

func (r *clientApplicationRepository) FindByID(id uint) (*model.ClientApplication, error) {
	var app model.ClientApplication
	if err := r.db.Preload("Facility").First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *clientApplicationRepository) ListByCompany(companyID uint, facilityID *uint) ([]model.ClientApplication, error) {
	query := r.db.Preload("Facility").Preload("User").
		Where("facility_id IN (?)", r.db.Model(&model.Facility{}).Select("id").Where("company_id = ?", companyID))
	if facilityID != nil {
		query = query.Where("facility_id = ?", *facilityID)
	}

	var apps []model.ClientApplication
	if err := query.Order("created_at DESC").Find(&apps).Error; err != nil {
		logger.Error("Failed to list client applications", err, map[string]interface{}{
			"company_id": companyID,
		})
		return nil, err
	}
	return apps, nil
}

func (r *clientApplicationRepository) ListByUser(userID uint) ([]model.ClientApplication, error) {
	var apps []model.ClientApplication
	if err := r.db.Preload("Facility").Where("user_id = ?", userID).Order("created_at DESC").Find(&apps).Error; err != nil {
		logger.Error("Failed to list client applications for user", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return apps, nil
}

func (r *clientApplicationRepository) UpdateStatus(id uint, status model.ApplicationStatus) error {
	result := r.db.Model(&model.ClientApplication{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		logger.Error("Failed to update client application status", result.Error, map[string]interface{}{
			"id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
