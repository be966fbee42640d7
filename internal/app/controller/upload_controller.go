package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kireiworks/cleaning-backend/internal/app/service"
	apperrors "github.com/kireiworks/cleaning-backend/internal/errors"
	"github.com/kireiworks/cleaning-backend/internal/middleware"
)

// UploadController hands out signed URLs so large files go straight to the bucket
type UploadController struct {
	signedURLService service.SignedURLService
}

func NewUploadController(signedURLService service.SignedURLService) *UploadController {
	return &UploadController{
		signedURLService: signedURLService,
	}
}

// SignedUploadURL
// POST /api/auth/uploads/signed-url
func (ctrl *UploadController) SignedUploadURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	var req service.SignedUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid signed URL request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "fileName、contentType、folderを指定してください")
		return
	}

	grant, err := ctrl.signedURLService.SignedUpload(c.Request.Context(), identity, req)
	if err != nil {
		respondError(c, log, err, "sign upload url")
		return
	}

	log.Info("Signed upload URL issued", map[string]interface{}{
		"path":       grant.Path,
		"expires_at": grant.ExpiresAt,
	})

	c.JSON(http.StatusOK, grant)
}

// SignedReadURL
// GET /api/auth/uploads/signed-read?path=
func (ctrl *UploadController) SignedReadURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	objectPath := c.Query("path")
	if objectPath == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "pathを指定してください")
		return
	}

	grant, err := ctrl.signedURLService.SignedRead(c.Request.Context(), identity, objectPath)
	if err != nil {
		respondError(c, log, err, "sign read url")
		return
	}

	c.JSON(http.StatusOK, grant)
}
