package service

import (
	"errors"
	"strings"
	"time"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/internal/app/repository"
	"github.com/kireiworks/cleaning-backend/pkg/jst"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/kireiworks/cleaning-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidRoomType = errors.New("invalid room type")
	ErrInvalidDate     = errors.New("invalid cleaning date")
	ErrRecordNotFound  = errors.New("cleaning record not found")
	ErrRecordMismatch  = errors.New("cleaning record does not match facility or room")
)

type FindOrCreateInput struct {
	FacilityID   string // facility code, e.g. "FAC001"
	RoomType     string
	CleaningDate string // YYYY-MM-DD in JST; empty means today
}

type FindOrCreateResult struct {
	RecordID     uint   `json:"recordId"`
	FacilityDbID uint   `json:"facilityDbId"`
	CleaningDate string `json:"cleaningDate"`
	Created      bool   `json:"created"`
}

type CleaningRecordService interface {
	FindOrCreate(actor util.Identity, in FindOrCreateInput) (*FindOrCreateResult, error)
}

type cleaningRecordService struct {
	recordRepo   repository.CleaningRecordRepository
	facilityRepo repository.FacilityRepository
	now          func() time.Time
}

func NewCleaningRecordService(recordRepo repository.CleaningRecordRepository, facilityRepo repository.FacilityRepository) CleaningRecordService {
	return &cleaningRecordService{
		recordRepo:   recordRepo,
		facilityRepo: facilityRepo,
		now:          time.Now,
	}
}

func (s *cleaningRecordService) FindOrCreate(actor util.Identity, in FindOrCreateInput) (*FindOrCreateResult, error) {
	logger.Info("Find or create cleaning record", map[string]interface{}{
		"facility_id":   in.FacilityID,
		"room_type":     in.RoomType,
		"cleaning_date": in.CleaningDate,
		"actor":         actor.LoginID,
	})

	if strings.TrimSpace(in.FacilityID) == "" {
		return nil, ErrInvalidInput
	}
	if !model.IsValidRoomType(in.RoomType) {
		return nil, ErrInvalidRoomType
	}
	if isClient(actor) {
		return nil, ErrForbidden
	}

	day := jst.StartOfDay(s.now())
	if in.CleaningDate != "" {
		parsed, err := jst.ParseDate(in.CleaningDate)
		if err != nil {
			return nil, ErrInvalidDate
		}
		day = parsed
	}

	facility, err := s.facilityRepo.FindByFacilityID(in.FacilityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Facility not found for cleaning record", map[string]interface{}{
				"facility_id": in.FacilityID,
			})
			return nil, ErrFacilityNotFound
		}
		return nil, err
	}
	if !canAccessFacility(actor, facility) {
		return nil, ErrForbidden
	}

	var staffID *uint
	if actor.AccountType == util.AccountTypeUser {
		id := actor.AccountID
		staffID = &id
	}

	record, created, err := s.recordRepo.FindOrCreate(facility.ID, in.RoomType, day, staffID)
	if err != nil {
		return nil, err
	}

	return &FindOrCreateResult{
		RecordID:     record.ID,
		FacilityDbID: facility.ID,
		CleaningDate: jst.FormatDate(record.CleaningDate),
		Created:      created,
	}, nil
}
