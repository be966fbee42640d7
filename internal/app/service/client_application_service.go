package service

import (
	"context"
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
	ErrApplicationNotFound = errors.New("client application not found")
	ErrInvalidStatus       = errors.New("invalid application status")
)

type CreateApplicationInput struct {
	RoomType      string
	Notes         string
	RequestedDate string // YYYY-MM-DD, optional
}

type ClientApplicationService interface {
	Create(ctx context.Context, actor util.Identity, in CreateApplicationInput) (*model.ClientApplication, error)
	// List returns the caller's own applications for clients, the company's for company members
	List(actor util.Identity, facilityCode string) ([]model.ClientApplication, error)
	UpdateStatus(ctx context.Context, actor util.Identity, id uint, status string) (*model.ClientApplication, error)
}

type clientApplicationService struct {
	appRepo      repository.ClientApplicationRepository
	facilityRepo repository.FacilityRepository
	notifier     Notifier
}

func NewClientApplicationService(appRepo repository.ClientApplicationRepository, facilityRepo repository.FacilityRepository, notifier Notifier) ClientApplicationService {
	return &clientApplicationService{
		appRepo:      appRepo,
		facilityRepo: facilityRepo,
		notifier:     notifier,
	}
}

func (s *clientApplicationService) Create(ctx context.Context, actor util.Identity, in CreateApplicationInput) (*model.ClientApplication, error) {
	logger.Info("Creating client application", map[string]interface{}{
		"actor":     actor.LoginID,
		"room_type": in.RoomType,
	})

	if !isClient(actor) || actor.FacilityID == nil {
		return nil, ErrForbidden
	}
	if !model.IsValidRoomType(in.RoomType) {
		return nil, ErrInvalidRoomType
	}

	var requested *time.Time
	if d := strings.TrimSpace(in.RequestedDate); d != "" {
		day, err := jst.ParseDate(d)
		if err != nil {
			return nil, ErrInvalidDate
		}
		requested = &day
	}

	facility, err := s.facilityRepo.FindByID(*actor.FacilityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacilityNotFound
		}
		return nil, err
	}

	app := &model.ClientApplication{
		FacilityID:    facility.ID,
		UserID:        actor.AccountID,
		RoomType:      in.RoomType,
		Status:        model.ApplicationPending,
		Notes:         strings.TrimSpace(in.Notes),
		RequestedDate: requested,
	}
	if err := s.appRepo.Create(app); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.ApplicationCreated(ctx, app, facility)
	}
	return app, nil
}

func (s *clientApplicationService) List(actor util.Identity, facilityCode string) ([]model.ClientApplication, error) {
	if isClient(actor) {
		return s.appRepo.ListByUser(actor.AccountID)
	}

	if facilityCode != "" {
		facility, err := s.facilityRepo.FindByFacilityID(facilityCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrFacilityNotFound
			}
			return nil, err
		}
		if !canAccessFacility(actor, facility) {
			return nil, ErrForbidden
		}
		return s.appRepo.ListByCompany(facility.CompanyID, &facility.ID)
	}

	if actor.CompanyID == nil {
		return nil, ErrForbidden
	}
	return s.appRepo.ListByCompany(*actor.CompanyID, nil)
}

func (s *clientApplicationService) UpdateStatus(ctx context.Context, actor util.Identity, id uint, status string) (*model.ClientApplication, error) {
	next := model.ApplicationStatus(status)
	if !next.IsValid() {
		return nil, ErrInvalidStatus
	}
	if isClient(actor) {
		return nil, ErrForbidden
	}

	app, err := s.appRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	facility, err := s.facilityRepo.FindByID(app.FacilityID)
	if err != nil {
		return nil, err
	}
	if !canAccessFacility(actor, facility) {
		return nil, ErrForbidden
	}

	if app.Status == next {
		return app, nil
	}
	if err := s.appRepo.UpdateStatus(id, next); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	app.Status = next

	logger.Info("Client application status updated", map[string]interface{}{
		"application_id": id,
		"status":         status,
		"actor":          actor.LoginID,
	})

	if s.notifier != nil {
		s.notifier.ApplicationUpdated(ctx, app, facility)
	}
	return app, nil
}
