package service

import (
	"errors"
	"strings"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/internal/app/repository"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/kireiworks/cleaning-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrFacilityNotFound = errors.New("facility not found")
	ErrFacilityExists   = errors.New("facility id already exists")
)

// CompanySummary is the public listing shape of a company
type CompanySummary struct {
	ID        uint   `json:"id"`
	CompanyID string `json:"companyId"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Address   string `json:"address"`
}

type CreateFacilityInput struct {
	FacilityID string
	Name       string
	Address    string
	RoomTypes  []string
}

type CompanyService interface {
	ListCompanies(actor util.Identity) ([]CompanySummary, error)
	GetCompany(actor util.Identity, companyCode string) (*model.Company, error)
	ListFacilities(actor util.Identity, companyCode string) ([]model.Facility, error)
	CreateFacility(actor util.Identity, companyCode string, in CreateFacilityInput) (*model.Facility, error)
	GetFacility(actor util.Identity, facilityCode string) (*model.Facility, error)
}

type companyService struct {
	companyRepo  repository.CompanyRepository
	facilityRepo repository.FacilityRepository
}

func NewCompanyService(companyRepo repository.CompanyRepository, facilityRepo repository.FacilityRepository) CompanyService {
	return &companyService{
		companyRepo:  companyRepo,
		facilityRepo: facilityRepo,
	}
}

func (s *companyService) ListCompanies(actor util.Identity) ([]CompanySummary, error) {
	logger.Info("Listing companies", map[string]interface{}{
		"actor": actor.LoginID,
	})

	if isClient(actor) {
		return nil, ErrForbidden
	}

	var companies []model.Company
	if isHeadquarter(actor) {
		all, err := s.companyRepo.List()
		if err != nil {
			return nil, err
		}
		companies = all
	} else {
		if actor.CompanyID == nil {
			return nil, ErrForbidden
		}
		own, err := s.companyRepo.FindByID(*actor.CompanyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCompanyNotFound
			}
			return nil, err
		}
		companies = []model.Company{*own}
	}

	summaries := make([]CompanySummary, 0, len(companies))
	for _, c := range companies {
		summaries = append(summaries, CompanySummary{
			ID:        c.ID,
			CompanyID: c.Code,
			Name:      c.Name,
			Type:      string(c.Role),
			Address:   c.Address,
		})
	}
	return summaries, nil
}

// GetCompany resolves a company by its login ID and checks the caller may see it
func (s *companyService) GetCompany(actor util.Identity, companyCode string) (*model.Company, error) {
	company, err := s.companyRepo.FindByCompanyID(companyCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	if !canAccessCompany(actor, company.ID) {
		logger.Warn("Company access denied", map[string]interface{}{
			"actor":      actor.LoginID,
			"company_id": companyCode,
		})
		return nil, ErrForbidden
	}
	return company, nil
}

func (s *companyService) ListFacilities(actor util.Identity, companyCode string) ([]model.Facility, error) {
	logger.Info("Listing facilities", map[string]interface{}{
		"company_id": companyCode,
		"actor":      actor.LoginID,
	})

	company, err := s.GetCompany(actor, companyCode)
	if err != nil {
		return nil, err
	}
	return s.facilityRepo.ListByCompany(company.ID)
}

func (s *companyService) CreateFacility(actor util.Identity, companyCode string, in CreateFacilityInput) (*model.Facility, error) {
	logger.Info("Creating facility", map[string]interface{}{
		"company_id":  companyCode,
		"facility_id": in.FacilityID,
		"actor":       actor.LoginID,
	})

	if isClient(actor) || actor.Role == string(model.RoleStaff) {
		return nil, ErrForbidden
	}
	in.FacilityID = strings.TrimSpace(in.FacilityID)
	in.Name = strings.TrimSpace(in.Name)
	if in.FacilityID == "" || in.Name == "" {
		return nil, ErrInvalidInput
	}
	for _, r := range in.RoomTypes {
		if !model.IsValidRoomType(r) {
			return nil, ErrInvalidRoomType
		}
	}

	company, err := s.GetCompany(actor, companyCode)
	if err != nil {
		return nil, err
	}

	if existing, err := s.facilityRepo.FindByFacilityID(in.FacilityID); err == nil && existing != nil {
		return nil, ErrFacilityExists
	}

	facility := &model.Facility{
		Code:      in.FacilityID,
		Name:      in.Name,
		Address:   in.Address,
		CompanyID: company.ID,
		RoomTypes: in.RoomTypes,
	}
	if err := s.facilityRepo.Create(facility); err != nil {
		return nil, err
	}
	return facility, nil
}

func (s *companyService) GetFacility(actor util.Identity, facilityCode string) (*model.Facility, error) {
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
	return facility, nil
}
