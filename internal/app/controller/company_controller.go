package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kireiworks/cleaning-backend/internal/app/service"
	apperrors "github.com/kireiworks/cleaning-backend/internal/errors"
	"github.com/kireiworks/cleaning-backend/internal/middleware"
)

type CompanyController struct {
	companyService   service.CompanyService
	hierarchyService service.HierarchyService
}

func NewCompanyController(companyService service.CompanyService, hierarchyService service.HierarchyService) *CompanyController {
	return &CompanyController{
		companyService:   companyService,
		hierarchyService: hierarchyService,
	}
}

type CreateFacilityRequest struct {
	FacilityID string   `json:"facilityId" binding:"required,max=64"`
	Name       string   `json:"name" binding:"required"`
	Address    string   `json:"address"`
	RoomTypes  []string `json:"roomTypes"`
}

// ListCompanies
// GET /api/auth/companies
func (ctrl *CompanyController) ListCompanies(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	companies, err := ctrl.companyService.ListCompanies(identity)
	if err != nil {
		respondError(c, log, err, "list companies")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"companies": companies,
		"count":     len(companies),
	})
}

// ListFacilities
// GET /api/auth/companies/:companyId/facilities
func (ctrl *CompanyController) ListFacilities(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	facilities, err := ctrl.companyService.ListFacilities(identity, c.Param("companyId"))
	if err != nil {
		respondError(c, log, err, "list company facilities")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"facilities": facilities,
		"count":      len(facilities),
	})
}

// CreateFacility
// POST /api/auth/companies/:companyId/facilities
func (ctrl *CompanyController) CreateFacility(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	var req CreateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid facility request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "施設IDと施設名を入力してください")
		return
	}

	facility, err := ctrl.companyService.CreateFacility(identity, c.Param("companyId"), service.CreateFacilityInput{
		FacilityID: req.FacilityID,
		Name:       req.Name,
		Address:    req.Address,
		RoomTypes:  req.RoomTypes,
	})
	if err != nil {
		respondError(c, log, err, "create facility")
		return
	}

	log.Info("Facility created", map[string]interface{}{
		"facility_id": facility.Code,
		"company_id":  facility.CompanyID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":  "施設を登録しました",
		"facility": facility,
	})
}

// GetFacility
// GET /api/auth/facilities/:facilityId
func (ctrl *CompanyController) GetFacility(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	facility, err := ctrl.companyService.GetFacility(identity, c.Param("facilityId"))
	if err != nil {
		respondError(c, log, err, "get facility")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"facility": facility,
	})
}

// GetUploadHierarchy returns facility -> year -> month -> day -> room -> before/after -> images.
// Both query parameters are optional filters.
// GET /api/auth/company/uploads/hierarchy?companyId=&facilityId=
func (ctrl *CompanyController) GetUploadHierarchy(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	tree, err := ctrl.hierarchyService.Get(identity, c.Query("companyId"), c.Query("facilityId"))
	if err != nil {
		respondError(c, log, err, "get upload hierarchy")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hierarchy":  tree,
		"totalCount": tree.ImageCount(),
	})
}
