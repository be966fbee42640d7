package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kireiworks/cleaning-backend/internal/app/service"
	apperrors "github.com/kireiworks/cleaning-backend/internal/errors"
	"github.com/kireiworks/cleaning-backend/internal/middleware"
)

type CleaningController struct {
	recordService service.CleaningRecordService
	imageService  service.CleaningImageService
	maxBytes      int64
}

func NewCleaningController(recordService service.CleaningRecordService, imageService service.CleaningImageService, maxBytes int64) *CleaningController {
	return &CleaningController{
		recordService: recordService,
		imageService:  imageService,
		maxBytes:      maxBytes,
	}
}

type FindOrCreateRecordRequest struct {
	FacilityID   string `json:"facilityId" binding:"required"`
	RoomType     string `json:"roomType" binding:"required"`
	CleaningDate string `json:"cleaningDate"` // YYYY-MM-DD, JST。省略時は当日
}

// BatchDeleteRequest accepts imageIds; ids is the shape used by receipts and older clients.
// Entries are bound raw so one malformed id fails alone instead of the whole batch.
type BatchDeleteRequest struct {
	ImageIDs []json.RawMessage `json:"imageIds"`
	IDs      []json.RawMessage `json:"ids"`
}

func (r BatchDeleteRequest) all() service.BatchIDs {
	return service.ParseBatchIDs(r.ImageIDs, r.IDs)
}

// FindOrCreateRecord returns the single record for (facility, room, day), creating it on first use
// POST /api/auth/cleaning-records/find-or-create
func (ctrl *CleaningController) FindOrCreateRecord(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	var req FindOrCreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid find-or-create request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "施設IDと部屋の種類を指定してください")
		return
	}

	result, err := ctrl.recordService.FindOrCreate(identity, service.FindOrCreateInput{
		FacilityID:   req.FacilityID,
		RoomType:     req.RoomType,
		CleaningDate: req.CleaningDate,
	})
	if err != nil {
		respondError(c, log, err, "find or create cleaning record")
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// UploadImage stores one before/after photo for a record
// POST /api/auth/cleaning-images/upload (multipart: image, facilityId, recordId, roomType, beforeAfter)
func (ctrl *CleaningController) UploadImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	recordID, err := strconv.ParseUint(c.PostForm("recordId"), 10, 32)
	if err != nil || recordID == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "清掃記録IDが正しくありません")
		return
	}

	file, err := readUpload(c, "image", ctrl.maxBytes)
	if err != nil {
		respondError(c, log, err, "upload cleaning image")
		return
	}

	image, err := ctrl.imageService.Upload(c.Request.Context(), identity, service.UploadImageInput{
		FacilityID:  c.PostForm("facilityId"),
		RecordID:    uint(recordID),
		RoomType:    c.PostForm("roomType"),
		BeforeAfter: c.PostForm("beforeAfter"),
		File:        file,
	})
	if err != nil {
		respondError(c, log, err, "upload cleaning image")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "画像をアップロードしました",
		"image":   service.NewUploadedImage(image),
	})
}

// ReplaceImage swaps the file of an existing image; the old object is queued for deletion
// PATCH /api/auth/cleaning-images/:id (multipart: image)
func (ctrl *CleaningController) ReplaceImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, err := readUpload(c, "image", ctrl.maxBytes)
	if err != nil {
		respondError(c, log, err, "replace cleaning image")
		return
	}

	image, err := ctrl.imageService.Replace(c.Request.Context(), identity, id, file)
	if err != nil {
		respondError(c, log, err, "replace cleaning image")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "画像を差し替えました",
		"image":   service.NewUploadedImage(image),
	})
}

// DeleteImage
// DELETE /api/auth/cleaning-images/:id
func (ctrl *CleaningController) DeleteImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.imageService.Delete(c.Request.Context(), identity, id); err != nil {
		respondError(c, log, err, "delete cleaning image")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "画像を削除しました",
		"id":      id,
	})
}

// BatchDeleteImages deletes many images and reports per-id outcomes
// POST /api/auth/cleaning-images/batch-delete
// DELETE /api/auth/cleaning-images/batch
func (ctrl *CleaningController) BatchDeleteImages(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	var req BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid batch delete request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "削除する画像IDを指定してください")
		return
	}

	result, err := ctrl.imageService.BatchDelete(c.Request.Context(), identity, req.all())
	if err != nil {
		respondError(c, log, err, "batch delete cleaning images")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   batchMessage(result),
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"results":   result.Results,
	})
}

func batchMessage(result *service.BatchResult) string {
	if result.Failed == 0 {
		return strconv.Itoa(result.Succeeded) + "件削除しました"
	}
	return strconv.Itoa(result.Succeeded) + "件削除、" + strconv.Itoa(result.Failed) + "件失敗しました"
}
