package service

import (
	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/internal/app/repository"
)

type GuidelineService interface {
	// List returns steps ordered by room type then step number; empty roomType means all rooms
	List(roomType string) ([]model.CleaningGuideline, error)
}

type guidelineService struct {
	repo repository.CleaningGuidelineRepository
}

func NewGuidelineService(repo repository.CleaningGuidelineRepository) GuidelineService {
	return &guidelineService{repo: repo}
}

func (s *guidelineService) List(roomType string) ([]model.CleaningGuideline, error) {
	if roomType != "" && !model.IsValidRoomType(roomType) {
		return nil, ErrInvalidRoomType
	}
	return s.repo.ListByRoomType(roomType)
}
