package repository

import (
	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"gorm.io/gorm"
)

type CompanyRepository interface {
	Create(company *model.Company) error
	FindByID(id uint) (*model.Company, error)
	FindByCompanyID(companyID string) (*model.Company, error)
	List() ([]model.Company, error)
	WithTx(tx *gorm.DB) CompanyRepository
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) WithTx(tx *gorm.DB) CompanyRepository {
	return &companyRepository{db: tx}
}

func (r *companyRepository) Create(company *model.Company) error {
	logger.Debug("Creating company in database", map[string]interface{}{
		"company_id": company.Code,
		"role":       company.Role,
	})

	if err := r.db.Create(company).Error; err != nil {
		logger.Error("Failed to create company in database", err, map[string]interface{}{
			"company_id": company.Code,
		})
		return err
	}
	return nil
}

func (r *companyRepository) FindByID(id uint) (*model.Company, error) {
	var company model.Company
	if err := r.db.First(&company, id).Error; err != nil {
		logger.Debug("Company not found by ID", map[string]interface{}{
			"id":    id,
			"error": err.Error(),
		})
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) FindByCompanyID(companyID string) (*model.Company, error) {
	logger.Debug("Finding company by login ID", map[string]interface{}{
		"company_id": companyID,
	})

	var company model.Company
	if err := r.db.Where("company_id = ?", companyID).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) List() ([]model.Company, error) {
	var companies []model.Company
	if err := r.db.Order("id ASC").Find(&companies).Error; err != nil {
		logger.Error("Failed to list companies", err)
		return nil, err
	}

	logger.Debug("Companies listed", map[string]interface{}{
		"count": len(companies),
	})
	return companies, nil
}
