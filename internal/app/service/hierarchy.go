package service

import (
	"errors"
	"strconv"

	"github.com/kireiworks/cleaning-backend/internal/app/model"
	"github.com/kireiworks/cleaning-backend/internal/app/repository"
	"github.com/kireiworks/cleaning-backend/pkg/jst"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/kireiworks/cleaning-backend/pkg/util"
	"gorm.io/gorm"
)

// Hierarchy is facility -> year -> month -> day -> room -> before/after -> images
type Hierarchy map[string]*FacilityNode

type FacilityNode struct {
	FacilityID string  `json:"facilityId"`
	DbID       uint    `json:"facilityDbId"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Years      YearMap `json:"years"`
}

type (
	YearMap  map[int]MonthMap
	MonthMap map[int]DayMap
	DayMap   map[int]RoomMap
	RoomMap  map[string]PhaseMap
	PhaseMap map[model.BeforeAfter][]ImageView
)

// ImageView is one leaf entry of the hierarchy
type ImageView struct {
	ID          uint              `json:"id"`
	URL         string            `json:"url"`
	RecordID    uint              `json:"recordId"`
	RoomType    string            `json:"roomType"`
	BeforeAfter model.BeforeAfter `json:"beforeAfter"`
	ContentType string            `json:"contentType"`
	Size        int64             `json:"size"`
	UploadedAt  jst.Time          `json:"uploadedAt"`
	UploadedBy  string            `json:"uploadedBy,omitempty"`
}

// BuildHierarchy folds images into the tree. Leaves keep input order and a leaf exists
// only when at least one image lands in it. The calendar day is the record's cleaning
// date in JST, or the upload time when the record is not loaded.
func BuildHierarchy(images []model.CleaningImage) Hierarchy {
	h := make(Hierarchy)
	for i := range images {
		img := &images[i]

		key, node := facilityNode(h, img)
		if node == nil {
			node = &FacilityNode{FacilityID: key, DbID: img.FacilityID, Years: make(YearMap)}
			if img.Facility != nil {
				node.Name = img.Facility.Name
				node.Address = img.Facility.Address
			}
			h[key] = node
		}

		day := img.UploadedAt
		if img.Record != nil && !img.Record.CleaningDate.IsZero() {
			day = img.Record.CleaningDate
		}
		y, m, d := jst.DateKey(day)

		months, ok := node.Years[y]
		if !ok {
			months = make(MonthMap)
			node.Years[y] = months
		}
		days, ok := months[m]
		if !ok {
			days = make(DayMap)
			months[m] = days
		}
		rooms, ok := days[d]
		if !ok {
			rooms = make(RoomMap)
			days[d] = rooms
		}
		phases, ok := rooms[img.RoomType]
		if !ok {
			phases = make(PhaseMap)
			rooms[img.RoomType] = phases
		}
		phases[img.BeforeAfter] = append(phases[img.BeforeAfter], imageView(img))
	}
	return h
}

func facilityNode(h Hierarchy, img *model.CleaningImage) (string, *FacilityNode) {
	key := strconv.FormatUint(uint64(img.FacilityID), 10)
	if img.Facility != nil && img.Facility.Code != "" {
		key = img.Facility.Code
	}
	return key, h[key]
}

func imageView(img *model.CleaningImage) ImageView {
	v := ImageView{
		ID:          img.ID,
		URL:         img.GCSURL,
		RecordID:    img.RecordID,
		RoomType:    img.RoomType,
		BeforeAfter: img.BeforeAfter,
		ContentType: img.ContentType,
		Size:        img.Size,
		UploadedAt:  jst.Wrap(img.UploadedAt),
	}
	if img.UploadedBy != nil {
		v.UploadedBy = img.UploadedBy.Name
	}
	return v
}

// ImageCount returns the number of leaf images in the tree
func (h Hierarchy) ImageCount() int {
	n := 0
	for _, f := range h {
		for _, months := range f.Years {
			for _, days := range months {
				for _, rooms := range days {
					for _, phases := range rooms {
						for _, imgs := range phases {
							n += len(imgs)
						}
					}
				}
			}
		}
	}
	return n
}

type HierarchyService interface {
	// Get builds the tree visible to actor. companyCode and facilityCode are optional filters.
	Get(actor util.Identity, companyCode, facilityCode string) (Hierarchy, error)
}

type hierarchyService struct {
	imageRepo    repository.CleaningImageRepository
	companyRepo  repository.CompanyRepository
	facilityRepo repository.FacilityRepository
}

func NewHierarchyService(
	imageRepo repository.CleaningImageRepository,
	companyRepo repository.CompanyRepository,
	facilityRepo repository.FacilityRepository,
) HierarchyService {
	return &hierarchyService{
		imageRepo:    imageRepo,
		companyRepo:  companyRepo,
		facilityRepo: facilityRepo,
	}
}

func (s *hierarchyService) Get(actor util.Identity, companyCode, facilityCode string) (Hierarchy, error) {
	logger.Info("Building upload hierarchy", map[string]interface{}{
		"company_id":  companyCode,
		"facility_id": facilityCode,
		"actor":       actor.LoginID,
	})

	scope, err := s.scopeFor(actor, companyCode, facilityCode)
	if err != nil {
		return nil, err
	}

	images, err := s.imageRepo.ListForHierarchy(scope)
	if err != nil {
		return nil, err
	}

	tree := BuildHierarchy(images)
	logger.Debug("Upload hierarchy built", map[string]interface{}{
		"facilities": len(tree),
		"images":     len(images),
	})
	return tree, nil
}

func (s *hierarchyService) scopeFor(actor util.Identity, companyCode, facilityCode string) (repository.ImageScope, error) {
	var scope repository.ImageScope

	switch {
	case isClient(actor):
		if actor.FacilityID == nil {
			return scope, ErrForbidden
		}
		scope.FacilityIDs = []uint{*actor.FacilityID}
	case companyCode != "":
		company, err := s.companyRepo.FindByCompanyID(companyCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return scope, ErrCompanyNotFound
			}
			return scope, err
		}
		if !canAccessCompany(actor, company.ID) {
			return scope, ErrForbidden
		}
		scope.CompanyID = &company.ID
	case isHeadquarter(actor):
		// all companies
	default:
		if actor.CompanyID == nil {
			return scope, ErrForbidden
		}
		own := *actor.CompanyID
		scope.CompanyID = &own
	}

	if facilityCode != "" {
		facility, err := s.facilityRepo.FindByFacilityID(facilityCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return scope, ErrFacilityNotFound
			}
			return scope, err
		}
		if !canAccessFacility(actor, facility) {
			return scope, ErrForbidden
		}
		scope.FacilityID = &facility.ID
	}
	return scope, nil
}
