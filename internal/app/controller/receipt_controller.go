package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kireiworks/cleaning-backend/internal/app/service"
	apperrors "github.com/kireiworks/cleaning-backend/internal/errors"
	"github.com/kireiworks/cleaning-backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReceiptController struct {
	receiptService service.ReceiptService
	maxBytes       int64
}

func NewReceiptController(receiptService service.ReceiptService, maxBytes int64) *ReceiptController {
	return &ReceiptController{
		receiptService: receiptService,
		maxBytes:       maxBytes,
	}
}

// ListReceipts returns receipts grouped by JST month, newest month first
// GET /api/auth/facilities/:facilityId/receipts
func (ctrl *ReceiptController) ListReceipts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	months, err := ctrl.receiptService.List(identity, c.Param("facilityId"))
	if err != nil {
		respondError(c, log, err, "list receipts")
		return
	}

	total := 0
	for _, m := range months {
		total += m.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"months":     months,
		"totalCount": total,
	})
}

// UploadReceipt
// POST /api/auth/facilities/:facilityId/receipts (multipart: receipt, title, storeName, amount, notes)
func (ctrl *ReceiptController) UploadReceipt(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	file, err := readUpload(c, "receipt", ctrl.maxBytes)
	if err != nil {
		respondError(c, log, err, "upload receipt")
		return
	}

	receipt, err := ctrl.receiptService.Upload(c.Request.Context(), identity, c.Param("facilityId"), service.ReceiptUploadInput{
		File:      file,
		Title:     c.PostForm("title"),
		StoreName: c.PostForm("storeName"),
		Amount:    c.PostForm("amount"),
		Notes:     c.PostForm("notes"),
	})
	if err != nil {
		respondError(c, log, err, "upload receipt")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "領収書をアップロードしました",
		"receipt": receipt,
	})
}

// ExportReceipts downloads one month as an XLSX workbook
// GET /api/auth/facilities/:facilityId/receipts/export?month=YYYY-MM
func (ctrl *ReceiptController) ExportReceipts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	month := c.Query("month")
	if month == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "月を指定してください（YYYY-MM）")
		return
	}

	data, filename, err := ctrl.receiptService.ExportMonth(identity, c.Param("facilityId"), month)
	if err != nil {
		respondError(c, log, err, "export receipts")
		return
	}

	log.Info("Receipt workbook exported", map[string]interface{}{
		"facility_id": c.Param("facilityId"),
		"month":       month,
		"bytes":       len(data),
	})

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// DeleteReceipt
// DELETE /api/auth/receipts/:id
func (ctrl *ReceiptController) DeleteReceipt(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.receiptService.Delete(c.Request.Context(), identity, id); err != nil {
		respondError(c, log, err, "delete receipt")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "領収書を削除しました",
		"id":      id,
	})
}

// BatchDeleteReceipts
// POST /api/auth/receipts/batch-delete
func (ctrl *ReceiptController) BatchDeleteReceipts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	var req struct {
		ReceiptIDs []json.RawMessage `json:"receiptIds"`
		IDs        []json.RawMessage `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "削除する領収書IDを指定してください")
		return
	}

	ids := service.ParseBatchIDs(req.ReceiptIDs, req.IDs)
	result, err := ctrl.receiptService.BatchDelete(c.Request.Context(), identity, ids)
	if err != nil {
		respondError(c, log, err, "batch delete receipts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   batchMessage(result),
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"results":   result.Results,
	})
}
