package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kireiworks/cleaning-backend/internal/app/service"
	apperrors "github.com/kireiworks/cleaning-backend/internal/errors"
	"github.com/kireiworks/cleaning-backend/internal/middleware"
	"github.com/kireiworks/cleaning-backend/internal/storage"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/kireiworks/cleaning-backend/pkg/util"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors is checked in order; the first errors.Is match wins
var serviceErrors = []errorMapping{
	{service.ErrForbidden, http.StatusForbidden, apperrors.AuthzForbidden, "アクセス権限がありません"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "IDまたはパスワードが正しくありません"},
	{service.ErrTokenRevoked, http.StatusUnauthorized, apperrors.AuthTokenRevoked, "ログアウト済みです。再度ログインしてください"},
	{util.ErrExpiredToken, http.StatusUnauthorized, apperrors.AuthTokenExpired, "ログインの有効期限が切れました"},
	{util.ErrInvalidToken, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "認証情報が正しくありません"},
	{service.ErrLoginIDExists, http.StatusConflict, apperrors.AuthLoginIDExists, "このIDは既に使用されています"},
	{service.ErrFacilityExists, http.StatusConflict, apperrors.ResourceAlreadyExists, "この施設IDは既に登録されています"},
	{service.ErrWeakPassword, http.StatusBadRequest, apperrors.ValidationInvalidFormat, "パスワードは8文字以上で入力してください"},
	{service.ErrCompanyNotFound, http.StatusNotFound, apperrors.CompanyNotFound, "会社が見つかりません"},
	{service.ErrFacilityNotFound, http.StatusNotFound, apperrors.FacilityNotFound, "施設が見つかりません"},
	{service.ErrRecordNotFound, http.StatusNotFound, apperrors.RecordNotFound, "清掃記録が見つかりません"},
	{service.ErrRecordMismatch, http.StatusBadRequest, apperrors.RecordMismatch, "施設または部屋が清掃記録と一致しません"},
	{service.ErrImageNotFound, http.StatusNotFound, apperrors.ImageNotFound, "画像が見つかりません"},
	{service.ErrReceiptNotFound, http.StatusNotFound, apperrors.ReceiptNotFound, "領収書が見つかりません"},
	{service.ErrApplicationNotFound, http.StatusNotFound, apperrors.ApplicationNotFound, "依頼が見つかりません"},
	{service.ErrNotificationNotFound, http.StatusNotFound, apperrors.NotificationNotFound, "通知が見つかりません"},
	{service.ErrInvalidRoomType, http.StatusBadRequest, apperrors.ValidationInvalidInput, "部屋の種類が正しくありません"},
	{service.ErrInvalidDate, http.StatusBadRequest, apperrors.ValidationInvalidFormat, "日付はYYYY-MM-DD形式で入力してください"},
	{service.ErrInvalidBeforeAfter, http.StatusBadRequest, apperrors.ValidationInvalidInput, "beforeAfterはbeforeまたはafterを指定してください"},
	{service.ErrInvalidAmount, http.StatusBadRequest, apperrors.ValidationInvalidFormat, "金額が正しくありません"},
	{service.ErrInvalidMonth, http.StatusBadRequest, apperrors.ValidationInvalidFormat, "月はYYYY-MM形式で指定してください"},
	{service.ErrInvalidStatus, http.StatusBadRequest, apperrors.ValidationInvalidInput, "ステータスが正しくありません"},
	{service.ErrInvalidFolder, http.StatusBadRequest, apperrors.ValidationInvalidInput, "アップロード先のフォルダが正しくありません"},
	{service.ErrEmptyBatch, http.StatusBadRequest, apperrors.ValidationRequired, "削除する項目を選択してください"},
	{service.ErrBatchTooLarge, http.StatusBadRequest, apperrors.ValidationTooLong, "一度に削除できる件数を超えています"},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, apperrors.UploadFileTooLarge, "ファイルサイズが大きすぎます（上限10MB）"},
	{storage.ErrTooLarge, http.StatusRequestEntityTooLarge, apperrors.UploadFileTooLarge, "ファイルサイズが大きすぎます（上限10MB）"},
	{service.ErrInvalidFileType, http.StatusBadRequest, apperrors.UploadInvalidFileType, "対応していないファイル形式です"},
	{service.ErrEmptyFile, http.StatusBadRequest, apperrors.UploadInvalidFileType, "空のファイルはアップロードできません"},
	{service.ErrInvalidInput, http.StatusBadRequest, apperrors.ValidationInvalidInput, "入力内容が正しくありません"},
}

// respondError writes the error body for err. action is used for logging and for
// the fallback message of unexpected errors.
func respondError(c *gin.Context, log *logger.Logger, err error, action string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			log.Warn("Request rejected", map[string]interface{}{
				"action": action,
				"code":   m.code,
				"reason": err.Error(),
			})
			apperrors.RespondWithError(c, m.status, m.code, m.message)
			return
		}
	}

	if errors.Is(err, service.ErrStorageUnavailable) {
		log.Error("Object storage failure", err, map[string]interface{}{
			"action": action,
		})
		apperrors.StorageUnavailableError(c)
		return
	}

	log.Error("Request failed", err, map[string]interface{}{
		"action": action,
	})
	apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
}

// identityOrAbort returns the authenticated account; routes behind Authenticate always have one
func identityOrAbort(c *gin.Context) (util.Identity, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return util.Identity{}, false
	}
	return identity, true
}

// parseIDParam reads a positive numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "IDが正しくありません")
		return 0, false
	}
	return uint(id), true
}

// readUpload reads one multipart file field into memory, capped at maxBytes
func readUpload(c *gin.Context, field string, maxBytes int64) (service.UploadFile, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return service.UploadFile{}, service.ErrEmptyFile
	}
	in, err := storage.InputFromFileHeader(fh, "", maxBytes)
	if err != nil {
		return service.UploadFile{}, err
	}
	return service.UploadFile{
		Data:        in.Data,
		Name:        in.OriginalName,
		ContentType: in.ContentType,
	}, nil
}
