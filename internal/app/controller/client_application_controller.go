package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kireiworks/cleaning-backend/internal/app/service"
	apperrors "github.com/kireiworks/cleaning-backend/internal/errors"
	"github.com/kireiworks/cleaning-backend/internal/middleware"
)

type ClientApplicationController struct {
	applicationService service.ClientApplicationService
}

func NewClientApplicationController(applicationService service.ClientApplicationService) *ClientApplicationController {
	return &ClientApplicationController{
		applicationService: applicationService,
	}
}

type CreateApplicationRequest struct {
	RoomType      string `json:"roomType" binding:"required"`
	Notes         string `json:"notes" binding:"max=2000"`
	RequestedDate string `json:"requestedDate"`
}

type UpdateApplicationStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateApplication files a cleaning request for the client's facility
// POST /api/auth/client-applications
func (ctrl *ClientApplicationController) CreateApplication(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid application request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "部屋の種類を指定してください")
		return
	}

	app, err := ctrl.applicationService.Create(c.Request.Context(), identity, service.CreateApplicationInput{
		RoomType:      req.RoomType,
		Notes:         req.Notes,
		RequestedDate: req.RequestedDate,
	})
	if err != nil {
		respondError(c, log, err, "create client application")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "依頼を送信しました",
		"application": app,
	})
}

// ListApplications
// GET /api/auth/client-applications?facilityId=
func (ctrl *ClientApplicationController) ListApplications(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	apps, err := ctrl.applicationService.List(identity, c.Query("facilityId"))
	if err != nil {
		respondError(c, log, err, "list client applications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": apps,
		"count":        len(apps),
	})
}

// UpdateApplicationStatus
// PATCH /api/auth/client-applications/:id/status
func (ctrl *ClientApplicationController) UpdateApplicationStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "ステータスを指定してください")
		return
	}

	app, err := ctrl.applicationService.UpdateStatus(c.Request.Context(), identity, id, req.Status)
	if err != nil {
		respondError(c, log, err, "update client application")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "ステータスを更新しました",
		"application": app,
	})
}
