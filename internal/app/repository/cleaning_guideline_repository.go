package repository

import (
	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CleaningGuidelineRepository interface {
	ListByRoomType(roomType string) ([]model.CleaningGuideline, error)
	// Upsert inserts or replaces the step identified by (room_type, step_number)
	Upsert(guideline *model.CleaningGuideline) error
}

type cleaningGuidelineRepository struct {
	db *gorm.DB
}

func NewCleaningGuidelineRepository(db *gorm.DB) CleaningGuidelineRepository {
	return &cleaningGuidelineRepository{db: db}
}

func (r *cleaningGuidelineRepository) ListByRoomType(roomType string) ([]model.CleaningGuideline, error) {
	var steps []model.CleaningGuideline
	query := r.db.Model(&model.CleaningGuideline{})
	if roomType != "" {
		query = query.Where("room_type = ?", roomType)
	}
	if err := query.Order("room_type ASC").Order("step_number ASC").Find(&steps).Error; err != nil {
		logger.Error("Failed to list cleaning guidelines", err, map[string]interface{}{
			"room_type": roomType,
		})
		return nil, err
	}
	return steps, nil
}

func (r *cleaningGuidelineRepository) Upsert(guideline *model.CleaningGuideline) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_type"}, {Name: "step_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "image_url", "updated_at"}),
	}).Create(guideline).Error
	if err != nil {
		logger.Error("Failed to upsert cleaning guideline", err, map[string]interface{}{
			"room_type":   guideline.RoomType,
			"step_number": guideline.StepNumber,
		})
		return err
	}
	return nil
}
