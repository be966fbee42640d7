package repository

import (
	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByUserID(userID string) (*model.User, error)
	// ListClientsForFacility returns client users attached to a facility
	ListClientsForFacility(facilityID uint) ([]model.User, error)
	ListByCompany(companyID uint) ([]model.User, error)
	FindByIDs(ids []uint) ([]model.User, error)
	WithTx(tx *gorm.DB) UserRepository
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"user_id": user.Code,
		"role":    user.Role,
	})

	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"user_id": user.Code,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"id":      user.ID,
		"user_id": user.Code,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		logger.Debug("User not found by ID", map[string]interface{}{
			"id":    id,
			"error": err.Error(),
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUserID(userID string) (*model.User, error) {
	logger.Debug("Finding user by login ID", map[string]interface{}{
		"user_id": userID,
	})

	var user model.User
	if err := r.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListClientsForFacility(facilityID uint) ([]model.User, error) {
	var users []model.User
	err := r.db.
		Where("facility_id = ? AND role = ?", facilityID, model.RoleClient).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		logger.Error("Failed to list facility clients", err, map[string]interface{}{
			"facility_id": facilityID,
		})
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ListByCompany(companyID uint) ([]model.User, error) {
	var users []model.User
	err := r.db.
		Where("company_id = ? AND user_type = ?", companyID, model.UserTypeCompany).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		logger.Error("Failed to list company users", err, map[string]interface{}{
			"company_id": companyID,
		})
		return nil, err
	}
	return users, nil
}

func (r *userRepository) FindByIDs(ids []uint) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.User
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		logger.Error("Failed to find users by IDs", err, map[string]interface{}{
			"count": len(ids),
		})
		return nil, err
	}
	return users, nil
}
