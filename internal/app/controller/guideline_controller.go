package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kireiworks/cleaning-backend/internal/app/service"
	"github.com/kireiworks/cleaning-backend/internal/middleware"
)

type GuidelineController struct {
	guidelineService service.GuidelineService
}

func NewGuidelineController(guidelineService service.GuidelineService) *GuidelineController {
	return &GuidelineController{
		guidelineService: guidelineService,
	}
}

// ListGuidelines returns the cleaning steps, optionally for one room type
// GET /api/auth/guidelines?roomType=
func (ctrl *GuidelineController) ListGuidelines(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	steps, err := ctrl.guidelineService.List(c.Query("roomType"))
	if err != nil {
		respondError(c, log, err, "list guidelines")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"guidelines": steps,
		"count":      len(steps),
	})
}
